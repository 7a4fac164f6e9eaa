// internal/story/tts/tts.go
package tts

import "errors"

// ErrSpeechUnavailable means no engine can run on this machine.
var ErrSpeechUnavailable = errors.New("speech synthesis unavailable")

type Config struct {
	Type     string
	Speed    float64
	Volume   float64
	Voice    string
	Language string
}

// DoneFunc is called exactly once per Speak, when playback ends. err is nil
// when playback finished or was stopped.
type DoneFunc func(err error)

// Engine interface for text-to-speech functionality
type Engine interface {
	// Speak starts playback in the background and returns once it has begun.
	Speak(text string, done DoneFunc) error
	Stop() error
	Pause() error
	Resume() error
	IsPlaying() bool
	Voices() ([]string, error)
	Name() string
}
