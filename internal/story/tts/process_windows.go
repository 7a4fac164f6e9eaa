//go:build windows

package tts

import (
	"fmt"
	"os/exec"
)

// Windows has no SIGSTOP/SIGCONT equivalent, so a pause ends the utterance.
func pauseProcess(cmd *exec.Cmd) error {
	if cmd.Process != nil {
		return cmd.Process.Kill()
	}
	return fmt.Errorf("no process to pause")
}

func resumeProcess(cmd *exec.Cmd) error {
	return fmt.Errorf("resume not supported on Windows - process was terminated")
}
