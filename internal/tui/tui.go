package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/caffeineduck/cwsplay/bridge"
	"github.com/caffeineduck/cwsplay/playground"
	"github.com/caffeineduck/cwsplay/transcript"
)

// Options configures Run.
type Options struct {
	// Location is loaded into the editor at start. A link with a src
	// parameter opens that program; anything else opens the default one.
	Location string
	// Source, when set, replaces whatever Location decodes to.
	Source    string
	Clipboard playground.Clipboard
	Bridge    []bridge.Option
	Log       logrus.FieldLogger
}

// Run starts the terminal playground on interp and blocks until the user
// quits or ctx is done.
func Run(ctx context.Context, interp bridge.Interpreter, opts Options) error {
	if opts.Clipboard == nil {
		opts.Clipboard = NewClipboard()
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}

	sink := transcript.New()
	ed := NewEditor()
	fwd := &forwarder{}

	ctl := playground.New(ed, bridge.New(interp, sink, opts.Bridge...),
		playground.WithClipboard(opts.Clipboard),
		playground.WithNotifier(fwd),
		playground.WithLogger(opts.Log),
	)
	ctl.Initialize(opts.Location)
	if opts.Source != "" {
		ed.SetValue(opts.Source, playground.CursorStart)
	}

	p := tea.NewProgram(NewModel(ctx, ctl, ed), tea.WithAltScreen(), tea.WithContext(ctx))
	fwd.sender = p

	cancel := sink.Observe(fwd)
	defer cancel()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run terminal ui: %w", err)
	}
	return nil
}
