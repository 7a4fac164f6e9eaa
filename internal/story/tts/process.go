package tts

import (
	"fmt"
	"os/exec"
	"sync"
)

// processEngine speaks by running a command-line synthesizer, one process per
// utterance.
type processEngine struct {
	name    string
	binary  string
	config  Config
	args    func(config Config, text string) []string
	cmd     *exec.Cmd
	playing bool
	paused  bool
	stopped bool
	mutex   sync.RWMutex
}

func (e *processEngine) Name() string {
	return e.name
}

func (e *processEngine) Speak(text string, done DoneFunc) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.playing {
		return fmt.Errorf("already playing")
	}

	cmd := exec.Command(e.binary, e.args(e.config, text)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", e.name, err)
	}

	e.cmd = cmd
	e.playing = true
	e.paused = false
	e.stopped = false

	go e.wait(cmd, done)
	return nil
}

func (e *processEngine) wait(cmd *exec.Cmd, done DoneFunc) {
	err := cmd.Wait()

	e.mutex.Lock()
	stopped := e.stopped || e.cmd != cmd
	if e.cmd == cmd {
		e.cmd = nil
		e.playing = false
		e.paused = false
	}
	e.mutex.Unlock()

	if done == nil {
		return
	}
	// A killed process exits with an error; that is a normal stop.
	if err != nil && !stopped {
		done(fmt.Errorf("%s exited: %w", e.name, err))
		return
	}
	done(nil)
}

func (e *processEngine) Stop() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.cmd != nil && e.cmd.Process != nil {
		e.stopped = true
		if err := e.cmd.Process.Kill(); err != nil {
			return err
		}
	}

	e.playing = false
	e.paused = false
	return nil
}

func (e *processEngine) Pause() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if !e.playing || e.paused || e.cmd == nil || e.cmd.Process == nil {
		return nil
	}
	if err := pauseProcess(e.cmd); err != nil {
		return err
	}
	e.paused = true
	return nil
}

func (e *processEngine) Resume() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if !e.paused || e.cmd == nil || e.cmd.Process == nil {
		return nil
	}
	if err := resumeProcess(e.cmd); err != nil {
		return err
	}
	e.paused = false
	return nil
}

func (e *processEngine) IsPlaying() bool {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.playing && !e.paused
}
