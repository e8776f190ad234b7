package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caffeineduck/cwsplay/bridge"
	"github.com/caffeineduck/cwsplay/playground"
	"github.com/caffeineduck/cwsplay/sharelink"
	"github.com/caffeineduck/cwsplay/transcript"
)

type recorder struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (r *recorder) Send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recorder) drain() []tea.Msg {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.msgs
	r.msgs = nil
	return out
}

type harness struct {
	model Model
	ed    *Editor
	rec   *recorder
}

func newHarness(t *testing.T, clip playground.Clipboard) *harness {
	t.Helper()
	interp := bridge.InterpreterFunc(func(ctx context.Context, text string, cb bridge.Callbacks) error {
		for _, line := range strings.Split(text, "\n") {
			cb.OnNormalOutput("ran", line)
		}
		cb.OnDiagnosticOutput("done")
		return nil
	})

	rec := &recorder{}
	fwd := &forwarder{sender: rec}
	sink := transcript.New()
	t.Cleanup(sink.Observe(fwd))

	ed := NewEditor()
	ctl := playground.New(ed, bridge.New(interp, sink),
		playground.WithClipboard(clip),
		playground.WithNotifier(fwd),
		playground.WithLocation("https://host/"),
	)
	ctl.Initialize("https://host/?src=first")

	return &harness{model: NewModel(context.Background(), ctl, ed), ed: ed, rec: rec}
}

// step feeds msg to the model and returns the command it produced.
func (h *harness) step(msg tea.Msg) tea.Cmd {
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	return cmd
}

// pump runs cmd and feeds everything it sent back into the model.
func (h *harness) pump(cmd tea.Cmd) {
	if msg := cmd(); msg != nil {
		for _, m := range h.rec.drain() {
			h.step(m)
		}
		h.step(msg)
		return
	}
	for _, m := range h.rec.drain() {
		h.step(m)
	}
}

func TestInitializeLoadsLink(t *testing.T) {
	h := newHarness(t, nil)
	assert.Equal(t, "first", h.ed.Value())
}

func TestRunStreamsTranscript(t *testing.T) {
	h := newHarness(t, nil)

	cmd := h.step(tea.KeyMsg{Type: tea.KeyCtrlR})
	require.NotNil(t, cmd)
	assert.True(t, h.model.running)
	h.pump(cmd)

	assert.False(t, h.model.running)
	assert.Equal(t, []transcript.Entry{
		{Channel: transcript.Normal, Text: "ran first"},
		{Channel: transcript.Diagnostic, Text: "done"},
	}, h.model.entries)
	assert.Contains(t, h.model.View(), "ran first")
}

func TestRunTwiceShowsOnlySecondRun(t *testing.T) {
	h := newHarness(t, nil)

	h.pump(h.step(tea.KeyMsg{Type: tea.KeyCtrlR}))
	h.ed.SetValue("second", playground.CursorEnd)
	h.pump(h.step(tea.KeyMsg{Type: tea.KeyCtrlR}))

	assert.Equal(t, "ran second", h.model.entries[0].Text)
	assert.Len(t, h.model.entries, 2)
}

func TestRunIgnoredWhileRunning(t *testing.T) {
	h := newHarness(t, nil)

	require.NotNil(t, h.step(tea.KeyMsg{Type: tea.KeyCtrlR}))
	assert.Nil(t, h.step(tea.KeyMsg{Type: tea.KeyCtrlR}))
}

func TestTypingEditsSource(t *testing.T) {
	h := newHarness(t, nil)
	h.ed.SetValue("", playground.CursorEnd)

	h.step(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("tampil(1);")})

	assert.Equal(t, "tampil(1);", h.ed.Value())
}

func TestShareNotifiesAndExpires(t *testing.T) {
	var copied string
	h := newHarness(t, playground.ClipboardFunc(func(ctx context.Context, text string) error {
		copied = text
		return nil
	}))

	h.pump(h.step(tea.KeyMsg{Type: tea.KeyCtrlS}))

	assert.Equal(t, "https://host/?src=first", copied)
	assert.True(t, h.model.showing)
	assert.Contains(t, h.model.View(), "Link copied to clipboard")

	h.step(expireMsg{id: h.model.statusID})
	assert.False(t, h.model.showing)
	assert.NotContains(t, h.model.View(), "Link copied")
}

func TestShareFailureIsReported(t *testing.T) {
	h := newHarness(t, playground.ClipboardFunc(func(context.Context, string) error {
		return errors.New("no display")
	}))

	h.pump(h.step(tea.KeyMsg{Type: tea.KeyCtrlS}))

	assert.Equal(t, playground.LevelError, h.model.status.Level)
	assert.Contains(t, h.model.status.Message, "no display")
}

func TestStaleExpiryKeepsNewerNotification(t *testing.T) {
	h := newHarness(t, nil)

	h.step(NotifyMsg{Notification: playground.Notification{Message: "one"}})
	first := h.model.statusID
	h.step(NotifyMsg{Notification: playground.Notification{Message: "two"}})
	h.step(expireMsg{id: first})

	assert.True(t, h.model.showing)
	assert.Equal(t, "two", h.model.status.Message)
}

func TestEditorCursorStart(t *testing.T) {
	ed := NewEditor()
	ed.SetValue("a\nb\nc", playground.CursorStart)
	assert.Equal(t, 0, ed.ta.Line())

	ed.SetValue("a\nb\nc", playground.CursorEnd)
	assert.Equal(t, 2, ed.ta.Line())
}

func TestDefaultProgramWithoutLink(t *testing.T) {
	ed := NewEditor()
	ctl := playground.New(ed, bridge.New(bridge.InterpreterFunc(nil), transcript.New()))
	ctl.Initialize("")
	assert.Equal(t, sharelink.DefaultProgram, ed.Value())
}

func TestClipboardHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, (&Clipboard{}).WriteText(ctx, "x"), context.Canceled)
}
