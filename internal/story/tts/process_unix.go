//go:build unix

package tts

import (
	"os/exec"
	"syscall"
)

// pauseProcess pauses the synthesizer process on Unix systems
func pauseProcess(cmd *exec.Cmd) error {
	return cmd.Process.Signal(syscall.SIGSTOP)
}

// resumeProcess resumes the synthesizer process on Unix systems
func resumeProcess(cmd *exec.Cmd) error {
	return cmd.Process.Signal(syscall.SIGCONT)
}
