package playground

import "sync"

// Text is an Editor backed by a string. Hosts without a widget of their own
// (the command line, the web server) use it to hold the current source.
type Text struct {
	mu      sync.Mutex
	value   string
	cursor  Cursor
	focused bool
}

// NewText returns a Text holding value.
func NewText(value string) *Text {
	return &Text{value: value}
}

func (t *Text) Value() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value
}

func (t *Text) SetValue(text string, cursor Cursor) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.value = text
	t.cursor = cursor
}

func (t *Text) Focus() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.focused = true
}

// Cursor returns where the last SetValue left the cursor.
func (t *Text) Cursor() Cursor {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cursor
}

// Focused reports whether Focus has been called.
func (t *Text) Focused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.focused
}
