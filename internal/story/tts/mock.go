package tts

import (
	"strings"
	"sync"
	"time"
)

// MockEngine pretends to speak. With Config.Speed it simulates a reading time
// of 150 words per minute; Finish ends the current utterance immediately.
type MockEngine struct {
	mu       sync.Mutex
	config   Config
	playing  bool
	paused   bool
	done     DoneFunc
	timer    *time.Timer
	spoken   []string
	simulate bool
	gen      uint64
}

func NewMockEngine(c Config) *MockEngine {
	return &MockEngine{config: c}
}

// NewSimulatedMockEngine finishes each utterance after its simulated reading time.
func NewSimulatedMockEngine(c Config) *MockEngine {
	return &MockEngine{config: c, simulate: true}
}

func (m *MockEngine) Name() string { return EngineTypeMock.String() }

func (m *MockEngine) Speak(text string, done DoneFunc) error {
	m.mu.Lock()
	prev := m.done
	m.stopLocked()
	m.playing = true
	m.paused = false
	m.done = done
	m.spoken = append(m.spoken, text)
	m.gen++
	gen := m.gen

	if m.simulate {
		speed := m.config.Speed
		if speed <= 0 {
			speed = 1.0
		}
		words := len(strings.Fields(text))
		duration := time.Duration(float64(words) / 150.0 / speed * float64(time.Minute))
		m.timer = time.AfterFunc(duration, func() { m.finish(gen, nil) })
	}
	m.mu.Unlock()

	if prev != nil {
		prev(nil)
	}
	return nil
}

// Finish ends the current utterance as if the engine finished or failed.
func (m *MockEngine) Finish(err error) {
	m.mu.Lock()
	gen := m.gen
	m.mu.Unlock()
	m.finish(gen, err)
}

func (m *MockEngine) finish(gen uint64, err error) {
	m.mu.Lock()
	if !m.playing || gen != m.gen {
		m.mu.Unlock()
		return
	}
	done := m.done
	m.playing, m.paused, m.done = false, false, nil
	m.mu.Unlock()

	if done != nil {
		done(err)
	}
}

func (m *MockEngine) Stop() error {
	m.mu.Lock()
	done := m.done
	wasPlaying := m.playing
	m.stopLocked()
	m.mu.Unlock()

	if wasPlaying && done != nil {
		done(nil)
	}
	return nil
}

func (m *MockEngine) stopLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.playing, m.paused, m.done = false, false, nil
}

func (m *MockEngine) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playing {
		m.paused = true
	}
	return nil
}

func (m *MockEngine) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = false
	return nil
}

func (m *MockEngine) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing && !m.paused
}

func (m *MockEngine) Voices() ([]string, error) {
	return []string{"mock-voice"}, nil
}

// Spoken returns every text passed to Speak, in order.
func (m *MockEngine) Spoken() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.spoken...)
}
