package tts

import (
	"sync"

	"github.com/sirupsen/logrus"

	"storyteller/internal/domain/story"
)

// Reader drives read-aloud for the story on display. A nil engine means
// speech is unsupported and every call is a no-op.
type Reader struct {
	engine Engine

	mu       sync.Mutex
	current  *story.Result
	speaking bool
	// gen identifies the latest utterance so late completions are ignored.
	gen uint64
}

func NewReader(engine Engine) *Reader {
	return &Reader{engine: engine}
}

func (r *Reader) Supported() bool {
	return r.engine != nil
}

// Speaking reports whether an utterance is in progress.
func (r *Reader) Speaking() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.speaking
}

// Present replaces the story on display. Playback of the previous story is
// stopped; a story that differs from the previous one is read once
// automatically when autoplay is set.
func (r *Reader) Present(res *story.Result, autoplay bool) error {
	if !r.Supported() {
		return nil
	}

	r.mu.Lock()
	same := res != nil && r.current != nil && *r.current == *res
	r.mu.Unlock()
	if same {
		return nil
	}

	r.stop()

	r.mu.Lock()
	r.current = res
	r.mu.Unlock()

	if res == nil || !autoplay {
		return nil
	}
	return r.speak(res)
}

// Toggle starts reading the current story when idle and stops it when speaking.
func (r *Reader) Toggle() error {
	if !r.Supported() {
		return ErrSpeechUnavailable
	}

	r.mu.Lock()
	speaking := r.speaking
	res := r.current
	r.mu.Unlock()

	if speaking {
		r.stop()
		return nil
	}
	if res == nil {
		return nil
	}
	return r.speak(res)
}

func (r *Reader) Pause() error {
	if !r.Supported() {
		return ErrSpeechUnavailable
	}
	return r.engine.Pause()
}

func (r *Reader) Resume() error {
	if !r.Supported() {
		return ErrSpeechUnavailable
	}
	return r.engine.Resume()
}

// Paused reports whether an utterance is in progress but held.
func (r *Reader) Paused() bool {
	return r.Speaking() && !r.engine.IsPlaying()
}

// Close stops playback; the reader forgets the current story.
func (r *Reader) Close() error {
	if !r.Supported() {
		return nil
	}
	r.stop()
	r.mu.Lock()
	r.current = nil
	r.mu.Unlock()
	return nil
}

func (r *Reader) speak(res *story.Result) error {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	r.speaking = true
	r.mu.Unlock()

	err := r.engine.Speak(res.SpeechText(), func(err error) { r.finished(gen, err) })
	if err != nil {
		logrus.WithError(err).WithField("engine", r.engine.Name()).Error("Speech playback failed to start")
		r.mu.Lock()
		if r.gen == gen {
			r.speaking = false
		}
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *Reader) finished(gen uint64, err error) {
	if err != nil {
		logrus.WithError(err).WithField("engine", r.engine.Name()).Error("Speech playback error")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen == gen {
		r.speaking = false
	}
}

func (r *Reader) stop() {
	r.mu.Lock()
	r.gen++
	wasSpeaking := r.speaking
	r.speaking = false
	r.mu.Unlock()

	if !wasSpeaking {
		return
	}
	if err := r.engine.Stop(); err != nil {
		logrus.WithError(err).WithField("engine", r.engine.Name()).Warn("Failed to stop speech")
	}
}
