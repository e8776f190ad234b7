// Package transcript holds the single output buffer of a playground: the
// ordered lines produced by the interpreter during the current run.
package transcript

import (
	"strings"
	"sync"
)

// Channel identifies which interpreter stream produced an event.
type Channel int

const (
	Normal Channel = iota
	Diagnostic
)

func (c Channel) String() string {
	switch c {
	case Normal:
		return "normal"
	case Diagnostic:
		return "diagnostic"
	default:
		return "unknown"
	}
}

// OutputEvent is one emission from the interpreter.
type OutputEvent struct {
	Channel Channel
	Parts   []string
}

// Line renders the event the way it appears in the transcript.
func (e OutputEvent) Line() string {
	return strings.Join(e.Parts, " ")
}

// Entry is a rendered transcript line.
type Entry struct {
	Channel Channel
	Text    string
}

// Observer is notified of every mutation. Hosts use it to keep the newest
// line visible. Callbacks run while the sink is locked, in mutation order,
// and must not call back into the sink.
type Observer interface {
	Cleared()
	Appended(e Entry)
}

// Sink is the append-only transcript. Clear starts a new generation.
type Sink struct {
	mu        sync.Mutex
	entries   []Entry
	gen       uint64
	observers map[int]Observer
	nextID    int
}

// New returns an empty sink.
func New() *Sink {
	return &Sink{observers: make(map[int]Observer)}
}

// Clear empties the transcript and returns the new generation.
func (s *Sink) Clear() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.gen++
	for _, id := range s.observerIDs() {
		s.observers[id].Cleared()
	}
	return s.gen
}

// Generation returns the generation started by the most recent Clear.
func (s *Sink) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Append adds one line for ev.
func (s *Sink) Append(ev OutputEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(ev)
}

// AppendAt adds ev only if gen is still the current generation. It reports
// whether the line was kept.
func (s *Sink) AppendAt(gen uint64, ev OutputEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return false
	}
	s.appendLocked(ev)
	return true
}

func (s *Sink) appendLocked(ev OutputEvent) {
	e := Entry{Channel: ev.Channel, Text: ev.Line()}
	s.entries = append(s.entries, e)
	for _, id := range s.observerIDs() {
		s.observers[id].Appended(e)
	}
}

// observerIDs returns registration order so notifications are deterministic.
func (s *Sink) observerIDs() []int {
	ids := make([]int, 0, len(s.observers))
	for id := 0; id < s.nextID; id++ {
		if _, ok := s.observers[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Observe registers o and returns a function that removes it.
func (s *Sink) Observe(o Observer) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = o
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// Entries returns a copy of the current lines with their channels.
func (s *Sink) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Lines returns the current line texts.
func (s *Sink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Text
	}
	return out
}

// Len returns the number of lines.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// String renders the transcript with every line newline-terminated.
func (s *Sink) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	for _, e := range s.entries {
		b.WriteString(e.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	OnClear  func()
	OnAppend func(Entry)
}

func (f ObserverFuncs) Cleared() {
	if f.OnClear != nil {
		f.OnClear()
	}
}

func (f ObserverFuncs) Appended(e Entry) {
	if f.OnAppend != nil {
		f.OnAppend(e)
	}
}
