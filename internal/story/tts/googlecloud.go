package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/texttospeech/apiv1"
	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/sirupsen/logrus"
	texttospeechpb "google.golang.org/genproto/googleapis/cloud/texttospeech/v1"
)

const (
	defaultGoogleVoice = "en-US-Chirp3-HD-Charon"
	// A little under the 5000 input limit of the API.
	maxChunkRunes = 4800
	playbackRate  = beep.SampleRate(24000)
)

var (
	speakerOnce sync.Once
	speakerErr  error
)

// initSpeaker opens the audio device once; every utterance is resampled to playbackRate.
func initSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(playbackRate, playbackRate.N(time.Second/10))
	})
	return speakerErr
}

// GoogleCloudEngine synthesizes MP3 with Google Cloud Text-to-Speech and
// plays it through the default audio device.
type GoogleCloudEngine struct {
	client   *texttospeech.Client
	voice    string
	language string
	speed    float64
	volume   float64

	mu      sync.Mutex
	current *utterance
	ctrl    *beep.Ctrl
	paused  bool
}

type utterance struct {
	cancel    context.CancelFunc
	done      DoneFunc
	once      sync.Once
	streamers []beep.StreamSeekCloser
}

func (u *utterance) end(err error) {
	u.once.Do(func() {
		u.cancel()
		if u.done != nil {
			u.done(err)
		}
	})
}

func newGoogleCloudEngine(config Config) (*GoogleCloudEngine, error) {
	client, err := texttospeech.NewClient(context.Background())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create TTS client: %v", ErrSpeechUnavailable, err)
	}

	voice := config.Voice
	if voice == "" || voice == "default" {
		voice = defaultGoogleVoice
	}
	language := config.Language
	if language == "" {
		language = "en-US"
	}

	return &GoogleCloudEngine{
		client:   client,
		voice:    voice,
		language: language,
		speed:    config.Speed,
		volume:   config.Volume,
	}, nil
}

func (g *GoogleCloudEngine) Name() string { return EngineTypeGoogleCloud.String() }

func (g *GoogleCloudEngine) Speak(text string, done DoneFunc) error {
	if err := initSpeaker(); err != nil {
		return fmt.Errorf("failed to open audio device: %w", err)
	}

	g.mu.Lock()
	if g.current != nil {
		g.mu.Unlock()
		return fmt.Errorf("already playing")
	}
	ctx, cancel := context.WithCancel(context.Background())
	u := &utterance{cancel: cancel, done: done}
	g.current = u
	g.paused = false
	g.mu.Unlock()

	go g.run(ctx, u, text)
	return nil
}

func (g *GoogleCloudEngine) run(ctx context.Context, u *utterance, text string) {
	chunks := splitIntoChunks(text, maxChunkRunes)

	var streamers []beep.StreamSeekCloser
	var sequence []beep.Streamer
	closeAll := func() {
		for _, s := range streamers {
			s.Close()
		}
	}

	for i, chunk := range chunks {
		audio, err := g.synthesize(ctx, chunk)
		if err != nil {
			closeAll()
			g.complete(u, fmt.Errorf("failed to synthesize chunk %d: %w", i, err))
			return
		}

		streamer, format, err := mp3.Decode(io.NopCloser(bytes.NewReader(audio)))
		if err != nil {
			closeAll()
			g.complete(u, fmt.Errorf("failed to decode MP3 chunk %d: %w", i, err))
			return
		}
		streamers = append(streamers, streamer)

		var s beep.Streamer = streamer
		if format.SampleRate != playbackRate {
			s = beep.Resample(4, format.SampleRate, playbackRate, streamer)
		}
		sequence = append(sequence, s)
	}

	g.mu.Lock()
	if g.current != u {
		// Stopped while synthesizing.
		g.mu.Unlock()
		closeAll()
		return
	}
	u.streamers = streamers
	// The callback runs under the speaker lock, so completion is handed off.
	sequence = append(sequence, beep.Callback(func() { go g.complete(u, nil) }))
	ctrl := &beep.Ctrl{Streamer: beep.Seq(sequence...), Paused: g.paused}
	g.ctrl = ctrl
	g.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"chunks": len(chunks),
		"voice":  g.voice,
	}).Debug("Playing synthesized speech")

	speaker.Play(ctrl)
}

func (g *GoogleCloudEngine) synthesize(ctx context.Context, text string) ([]byte, error) {
	audioCfg := &texttospeechpb.AudioConfig{
		AudioEncoding: texttospeechpb.AudioEncoding_MP3,
	}

	// Chirp voices don't support speakingRate/volume tuning
	if !strings.Contains(strings.ToLower(g.voice), "chirp") {
		audioCfg.SpeakingRate = g.speed
		audioCfg.VolumeGainDb = volumeGainDb(g.volume)
	}

	resp, err := g.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: g.language,
			Name:         g.voice,
		},
		AudioConfig: audioCfg,
	})
	if err != nil {
		return nil, err
	}
	return resp.AudioContent, nil
}

// complete ends u once, whether it finished, failed or was stopped.
func (g *GoogleCloudEngine) complete(u *utterance, err error) {
	g.mu.Lock()
	if g.current == u {
		g.current = nil
		g.ctrl = nil
		g.paused = false
	}
	streamers := u.streamers
	u.streamers = nil
	g.mu.Unlock()

	for _, s := range streamers {
		s.Close()
	}
	u.end(err)
}

func (g *GoogleCloudEngine) Stop() error {
	g.mu.Lock()
	u := g.current
	playing := g.ctrl != nil
	g.mu.Unlock()

	if u == nil {
		return nil
	}
	if playing {
		speaker.Clear()
	}
	g.complete(u, nil)
	return nil
}

func (g *GoogleCloudEngine) Pause() error {
	return g.setPaused(true)
}

func (g *GoogleCloudEngine) Resume() error {
	return g.setPaused(false)
}

func (g *GoogleCloudEngine) setPaused(paused bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.current == nil {
		return nil
	}
	g.paused = paused
	if g.ctrl != nil {
		speaker.Lock()
		g.ctrl.Paused = paused
		speaker.Unlock()
	}
	return nil
}

func (g *GoogleCloudEngine) IsPlaying() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current != nil && !g.paused
}

func (g *GoogleCloudEngine) Voices() ([]string, error) {
	resp, err := g.client.ListVoices(context.Background(), &texttospeechpb.ListVoicesRequest{
		LanguageCode: g.language,
	})
	if err != nil {
		return nil, err
	}
	voices := []string{}
	for _, v := range resp.Voices {
		voices = append(voices, v.Name)
	}
	return voices, nil
}

// volumeGainDb maps a 0..2 volume multiplier onto the API's -96..16 dB range.
func volumeGainDb(volume float64) float64 {
	switch {
	case volume <= 0:
		return -96
	case volume >= 2:
		return 6
	}
	return (volume - 1) * 6
}

func splitIntoChunks(text string, limit int) []string {
	var chunks []string
	runes := []rune(text) // safe for UTF-8
	for i := 0; i < len(runes); i += limit {
		end := i + limit
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}
