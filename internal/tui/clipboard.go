package tui

import (
	"context"
	"errors"
	"os"

	"github.com/atotto/clipboard"
	"github.com/muesli/termenv"
)

// Clipboard writes to the system clipboard and falls back to the OSC 52
// escape sequence, which most terminals forward to the local clipboard even
// over ssh.
type Clipboard struct {
	Output *termenv.Output
}

// NewClipboard returns a Clipboard that falls back to stdout.
func NewClipboard() *Clipboard {
	return &Clipboard{Output: termenv.NewOutput(os.Stdout)}
}

func (c *Clipboard) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !clipboard.Unsupported {
		if err := clipboard.WriteAll(text); err == nil {
			return nil
		}
	}
	if c.Output == nil {
		return errors.New("no clipboard available")
	}
	c.Output.Copy(text)
	return nil
}
