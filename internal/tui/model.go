// Package tui is the terminal host of the playground: an editor above a
// scrolling transcript, with run and share bound to keys.
package tui

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/caffeineduck/cwsplay/playground"
	"github.com/caffeineduck/cwsplay/transcript"
)

// Editor adapts a textarea to playground.Editor. Runs read the value from
// their own goroutine, so every access goes through mu.
type Editor struct {
	mu sync.Mutex
	ta textarea.Model
}

// NewEditor returns an empty editor.
func NewEditor() *Editor {
	ta := textarea.New()
	ta.Placeholder = "tampil(\"Halo, Dunia!\");"
	ta.ShowLineNumbers = true
	ta.CharLimit = 0
	ta.MaxHeight = 0
	return &Editor{ta: ta}
}

func (e *Editor) Value() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ta.Value()
}

func (e *Editor) SetValue(text string, cursor playground.Cursor) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ta.SetValue(text)
	if cursor == playground.CursorStart {
		for e.ta.Line() > 0 {
			e.ta.CursorUp()
		}
		e.ta.CursorStart()
	}
}

func (e *Editor) Focus() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ta.Focus()
}

func (e *Editor) update(msg tea.Msg) tea.Cmd {
	e.mu.Lock()
	defer e.mu.Unlock()
	var cmd tea.Cmd
	e.ta, cmd = e.ta.Update(msg)
	return cmd
}

func (e *Editor) view() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ta.View()
}

func (e *Editor) setSize(w, h int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ta.SetWidth(w)
	e.ta.SetHeight(h)
}

// Model is the bubbletea model of the terminal playground.
type Model struct {
	ctx    context.Context
	ctl    *playground.Controller
	editor *Editor
	output viewport.Model

	entries []transcript.Entry
	running bool

	status   playground.Notification
	statusID int
	showing  bool

	width  int
	height int
}

// NewModel returns a Model driving ctl. ed must be the editor ctl was
// created with.
func NewModel(ctx context.Context, ctl *playground.Controller, ed *Editor) Model {
	return Model{
		ctx:    ctx,
		ctl:    ctl,
		editor: ed,
		output: viewport.New(80, 10),
		width:  80,
		height: 24,
	}
}

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case ClearedMsg:
		m.entries = nil
		m.refreshOutput()
		return m, nil

	case LineMsg:
		m.entries = append(m.entries, msg.Entry)
		m.refreshOutput()
		return m, nil

	case RunDoneMsg:
		m.running = false
		return m, nil

	case NotifyMsg:
		m.statusID++
		m.status = msg.Notification
		m.showing = true
		id := m.statusID
		return m, tea.Tick(notificationTTL, func(_ time.Time) tea.Msg {
			return expireMsg{id: id}
		})

	case expireMsg:
		if msg.id == m.statusID {
			m.showing = false
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.output, cmd = m.output.Update(msg)
	return m, cmd
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit

	case "ctrl+r":
		if m.running {
			return m, nil
		}
		m.running = true
		return m, m.runCmd()

	case "ctrl+s":
		return m, m.shareCmd()

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.output, cmd = m.output.Update(msg)
		return m, cmd
	}

	return m, m.editor.update(msg)
}

func (m Model) runCmd() tea.Cmd {
	ctl, ctx := m.ctl, m.ctx
	return func() tea.Msg {
		return RunDoneMsg{Stats: ctl.Run(ctx)}
	}
}

// shareCmd reports its outcome through the controller's notifier.
func (m Model) shareCmd() tea.Cmd {
	ctl, ctx := m.ctl, m.ctx
	return func() tea.Msg {
		_, _ = ctl.Share(ctx)
		return nil
	}
}

func (m *Model) layout() {
	editorHeight := (m.height - 4) / 2
	if editorHeight < 3 {
		editorHeight = 3
	}
	m.editor.setSize(m.width, editorHeight)

	outputHeight := m.height - editorHeight - 4
	if outputHeight < 1 {
		outputHeight = 1
	}
	m.output.Width = m.width
	m.output.Height = outputHeight
	m.refreshOutput()
}

func (m *Model) refreshOutput() {
	m.output.SetContent(renderEntries(m.entries, m.width))
	m.output.GotoBottom()
}
