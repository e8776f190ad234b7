package wasm

import (
	"bytes"
	"sort"
	"sync"
)

// outputState is shared by a stdout and stderr pair so lines are reported
// in the order they were written.
type outputState struct {
	mu  sync.Mutex
	seq uint64
}

// lineWriter turns a guest stream into one callback per line.
type lineWriter struct {
	state *outputState
	emit  func(parts ...string)
	buf   bytes.Buffer
	// started orders the pending partial line against the other stream's.
	started uint64
}

func newOutputPair(stdout, stderr func(parts ...string)) (*lineWriter, *lineWriter) {
	state := &outputState{}
	return &lineWriter{state: state, emit: stdout}, &lineWriter{state: state, emit: stderr}
}

func (w *lineWriter) Write(data []byte) (int, error) {
	w.state.mu.Lock()
	defer w.state.mu.Unlock()

	fresh := w.buf.Len() == 0
	w.buf.Write(data)
	for {
		idx := bytes.IndexByte(w.buf.Bytes(), '\n')
		if idx == -1 {
			break
		}
		line := w.buf.Next(idx + 1)
		w.emit(string(trimEOL(line)))
		fresh = true
	}
	if fresh && w.buf.Len() > 0 {
		w.state.seq++
		w.started = w.state.seq
	}
	return len(data), nil
}

// flushOutput reports the trailing lines that were not newline terminated,
// oldest first.
func flushOutput(writers ...*lineWriter) {
	if len(writers) == 0 {
		return
	}
	state := writers[0].state
	state.mu.Lock()
	defer state.mu.Unlock()

	pending := make([]*lineWriter, 0, len(writers))
	for _, w := range writers {
		if w.buf.Len() > 0 {
			pending = append(pending, w)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].started < pending[j].started })
	for _, w := range pending {
		line := w.buf.String()
		w.buf.Reset()
		w.emit(string(trimEOL([]byte(line))))
	}
}

func trimEOL(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r"))
}
