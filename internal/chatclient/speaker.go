package chatclient

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Speaker reads a reply aloud. Speak blocks until playback ends or ctx is
// cancelled.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// NopSpeaker is used when no speech command is configured.
type NopSpeaker struct{}

func (NopSpeaker) Speak(ctx context.Context, text string) error { return nil }

// CommandSpeaker runs an external TTS program (say, espeak, piper, ...) and
// writes the text to its stdin, so a reply starting with "-" is never read as
// a flag.
type CommandSpeaker struct {
	name string
	args []string
}

// NewCommandSpeaker parses a command line such as "espeak -s 160". It returns
// a NopSpeaker for an empty command.
func NewCommandSpeaker(command string) Speaker {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return NopSpeaker{}
	}
	return &CommandSpeaker{name: fields[0], args: fields[1:]}
}

func (s *CommandSpeaker) Speak(ctx context.Context, text string) error {
	cmd := exec.CommandContext(ctx, s.name, s.args...)
	cmd.Stdin = strings.NewReader(text)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("speech command %q failed: %w (%s)", s.name, err, strings.TrimSpace(string(out)))
	}
	return nil
}
