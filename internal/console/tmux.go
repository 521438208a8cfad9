// Package console captures the scrollback of the game server's tmux session.
package console

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

// Capturer reads the tail of a live tmux pane.
type Capturer struct {
	session string
	lines   int
}

// New creates a Capturer for the named tmux session, reading up to lines of
// scrollback on each capture.
func New(session string, lines int) *Capturer {
	return &Capturer{session: session, lines: lines}
}

// Capture returns the last configured lines of the session's pane, joined
// wrapped lines included. The command inherits the context, so cancellation
// kills a hung tmux invocation.
func (c *Capturer) Capture(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, "tmux", "capture-pane",
		"-S", "-"+strconv.Itoa(c.lines),
		"-E", "-1",
		"-t", c.session,
		"-p")

	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("tmux capture of session %q failed: %s", c.session, string(exitErr.Stderr))
		}

		return "", fmt.Errorf("tmux capture of session %q failed: %w", c.session, err)
	}

	return string(out), nil
}
