//go:build darwin

package tts

import (
	"fmt"
	"os/exec"
	"strings"
)

// SayEngine speaks with the macOS built-in 'say' command
type SayEngine struct {
	*processEngine
}

func newSayEngine(config Config) (Engine, error) {
	path, err := exec.LookPath("say")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpeechUnavailable, err)
	}

	return &SayEngine{
		processEngine: &processEngine{
			name:   EngineTypeSay.String(),
			binary: path,
			config: config,
			args:   sayArgs,
		},
	}, nil
}

func sayArgs(config Config, text string) []string {
	args := []string{}

	if config.Voice != "" && config.Voice != "default" {
		args = append(args, "-v", config.Voice)
	}

	// Rate in words per minute, default is ~175
	args = append(args, "-r", fmt.Sprintf("%.0f", 175*config.Speed))

	return append(args, "--", text)
}

// Voices parses `say -v ?`, whose lines look like "Alex  en_US  # Most people recognize me by my voice."
func (s *SayEngine) Voices() ([]string, error) {
	output, err := exec.Command(s.binary, "-v", "?").Output()
	if err != nil {
		return nil, err
	}

	var voices []string
	for _, line := range strings.Split(string(output), "\n") {
		name, _, ok := strings.Cut(line, "#")
		if !ok {
			continue
		}
		fields := strings.Fields(name)
		if len(fields) < 2 {
			continue
		}
		// Voice names may contain spaces; the last field is the locale.
		voices = append(voices, strings.Join(fields[:len(fields)-1], " "))
	}
	return voices, nil
}
