package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/caffeineduck/cwsplay/bridge"
	"github.com/caffeineduck/cwsplay/playground"
	"github.com/caffeineduck/cwsplay/transcript"
)

// Sender is implemented by bubbletea Program and test doubles.
type Sender interface {
	Send(msg tea.Msg)
}

// ClearedMsg reports that the transcript was cleared.
type ClearedMsg struct{}

// LineMsg carries one transcript entry.
type LineMsg struct {
	Entry transcript.Entry
}

// RunDoneMsg reports that a run returned.
type RunDoneMsg struct {
	Stats bridge.Stats
}

// NotifyMsg shows a status-line notification.
type NotifyMsg struct {
	Notification playground.Notification
}

// expireMsg hides the notification with the same id.
type expireMsg struct {
	id int
}

// notificationTTL is how long a notification stays on the status line.
const notificationTTL = 3 * time.Second

// forwarder relays transcript and controller events into the program.
type forwarder struct {
	sender Sender
}

func (f forwarder) emit(msg tea.Msg) {
	if f.sender == nil {
		return
	}
	f.sender.Send(msg)
}

func (f forwarder) Cleared() {
	f.emit(ClearedMsg{})
}

func (f forwarder) Appended(e transcript.Entry) {
	f.emit(LineMsg{Entry: e})
}

func (f forwarder) Notify(n playground.Notification) {
	f.emit(NotifyMsg{Notification: n})
}
