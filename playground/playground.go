// Package playground wires user actions to the runtime bridge, the
// transcript and the share-link codec.
//
// A Controller is host-agnostic: the web server, the terminal UI and the
// command line each supply their own Editor, Clipboard and Notifier.
package playground

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/caffeineduck/cwsplay/bridge"
	"github.com/caffeineduck/cwsplay/sharelink"
	"github.com/caffeineduck/cwsplay/transcript"
)

// ErrEmptySource is returned by Share when the editor holds no source.
// Nothing is reported to the user in that case.
var ErrEmptySource = errors.New("empty source")

// Cursor tells SetValue where to leave the cursor.
type Cursor int

const (
	CursorStart Cursor = -1
	CursorEnd   Cursor = 1
)

// Editor is the text editing widget.
type Editor interface {
	Value() string
	SetValue(text string, cursor Cursor)
	Focus()
}

// Clipboard is the system clipboard service.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// ClipboardFunc adapts a function to Clipboard.
type ClipboardFunc func(ctx context.Context, text string) error

func (f ClipboardFunc) WriteText(ctx context.Context, text string) error {
	return f(ctx, text)
}

// Level grades a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelError
)

// Notification is a transient message for the user.
type Notification struct {
	Level   Level
	Message string
}

// Notifier shows transient notifications.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) {
	f(n)
}

// Controller handles the run, share and initialize triggers.
type Controller struct {
	editor    Editor
	sink      *transcript.Sink
	bridge    *bridge.Bridge
	codec     sharelink.Codec
	clipboard Clipboard
	notifier  Notifier
	log       logrus.FieldLogger

	runMu    sync.Mutex
	locMu    sync.RWMutex
	location string
}

// Option configures a Controller.
type Option func(*Controller)

// WithCodec replaces the default share-link codec.
func WithCodec(c sharelink.Codec) Option {
	return func(ctl *Controller) {
		ctl.codec = c
	}
}

// WithClipboard sets where share links are written. Nil keeps the default,
// which always fails.
func WithClipboard(c Clipboard) Option {
	return func(ctl *Controller) {
		if c != nil {
			ctl.clipboard = c
		}
	}
}

// WithNotifier sets where share outcomes are reported.
func WithNotifier(n Notifier) Option {
	return func(ctl *Controller) {
		if n != nil {
			ctl.notifier = n
		}
	}
}

// WithLocation sets the page address used as the base of share links until
// Initialize is called.
func WithLocation(location string) Option {
	return func(ctl *Controller) {
		ctl.location = location
	}
}

// WithLogger sets the controller logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(ctl *Controller) {
		ctl.log = l
	}
}

// New returns a Controller. The bridge must write into the same sink the
// controller clears.
func New(editor Editor, br *bridge.Bridge, opts ...Option) *Controller {
	ctl := &Controller{
		editor:    editor,
		sink:      br.Sink(),
		bridge:    br,
		codec:     sharelink.New(),
		clipboard: ClipboardFunc(func(context.Context, string) error { return errors.New("no clipboard available") }),
		notifier:  NotifierFunc(func(Notification) {}),
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(ctl)
	}
	return ctl
}

// Initialize loads the source carried by location into the editor, or the
// default program when there is none, and focuses the editor.
func (c *Controller) Initialize(location string) {
	c.locMu.Lock()
	c.location = location
	c.locMu.Unlock()

	c.editor.SetValue(c.codec.Decode(location), CursorStart)
	c.editor.Focus()
}

// Transcript returns the sink runs write into.
func (c *Controller) Transcript() *transcript.Sink {
	return c.sink
}

// Location returns the current base address for share links.
func (c *Controller) Location() string {
	c.locMu.RLock()
	defer c.locMu.RUnlock()
	return c.location
}

// Run clears the transcript and executes the editor's source. Empty source
// leaves the transcript untouched. Concurrent runs are serialized so their
// output never interleaves.
func (c *Controller) Run(ctx context.Context) bridge.Stats {
	source := c.editor.Value()
	if strings.TrimSpace(source) == "" {
		return bridge.Stats{}
	}

	c.runMu.Lock()
	defer c.runMu.Unlock()

	c.sink.Clear()
	return c.bridge.Execute(ctx, source)
}

// Share encodes the editor's source into a link, writes it to the clipboard
// and notifies the user of the outcome. The link is returned even when the
// clipboard write fails.
func (c *Controller) Share(ctx context.Context) (string, error) {
	source := c.editor.Value()
	if strings.TrimSpace(source) == "" {
		return "", ErrEmptySource
	}

	link, err := c.codec.Encode(c.Location(), source)
	if err != nil {
		c.notifier.Notify(Notification{Level: LevelError, Message: fmt.Sprintf("Could not create link: %v", err)})
		return "", err
	}

	if err := c.clipboard.WriteText(ctx, link); err != nil {
		c.log.WithError(err).Warn("clipboard write failed")
		c.notifier.Notify(Notification{Level: LevelError, Message: fmt.Sprintf("Could not copy link: %v", err)})
		return link, fmt.Errorf("write clipboard: %w", err)
	}

	c.notifier.Notify(Notification{Level: LevelInfo, Message: "Link copied to clipboard"})
	return link, nil
}
