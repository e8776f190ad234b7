package transcript

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendJoinsPartsWithSpace(t *testing.T) {
	s := New()
	s.Append(OutputEvent{Channel: Normal, Parts: []string{"a", "b", "c"}})
	s.Append(OutputEvent{Channel: Normal, Parts: []string{"hi"}})

	assert.Equal(t, []string{"a b c", "hi"}, s.Lines())
	assert.Equal(t, "a b c\nhi\n", s.String())
}

func TestAppendEmptyPartsProducesEmptyLine(t *testing.T) {
	s := New()
	s.Append(OutputEvent{Channel: Normal})

	assert.Equal(t, "\n", s.String())
	assert.Equal(t, 1, s.Len())
}

func TestChannelsShareOneTranscript(t *testing.T) {
	s := New()
	s.Append(OutputEvent{Channel: Normal, Parts: []string{"out"}})
	s.Append(OutputEvent{Channel: Diagnostic, Parts: []string{"err"}})
	s.Append(OutputEvent{Channel: Normal, Parts: []string{"out2"}})

	assert.Equal(t, []Entry{
		{Channel: Normal, Text: "out"},
		{Channel: Diagnostic, Text: "err"},
		{Channel: Normal, Text: "out2"},
	}, s.Entries())
}

func TestClearResetsAndBumpsGeneration(t *testing.T) {
	s := New()
	s.Append(OutputEvent{Parts: []string{"old"}})
	g1 := s.Generation()

	g2 := s.Clear()

	assert.Equal(t, g1+1, g2)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, "", s.String())
}

func TestAppendAtDropsStaleGeneration(t *testing.T) {
	s := New()
	stale := s.Clear()
	current := s.Clear()

	assert.False(t, s.AppendAt(stale, OutputEvent{Parts: []string{"late"}}))
	assert.True(t, s.AppendAt(current, OutputEvent{Parts: []string{"fresh"}}))
	assert.Equal(t, []string{"fresh"}, s.Lines())
}

func TestObserversSeeMutationsInOrder(t *testing.T) {
	s := New()
	var log []string
	cancel := s.Observe(ObserverFuncs{
		OnClear:  func() { log = append(log, "clear") },
		OnAppend: func(e Entry) { log = append(log, e.Channel.String()+":"+e.Text) },
	})

	s.Clear()
	s.Append(OutputEvent{Channel: Normal, Parts: []string{"x"}})
	s.Append(OutputEvent{Channel: Diagnostic, Parts: []string{"y"}})
	cancel()
	s.Append(OutputEvent{Channel: Normal, Parts: []string{"z"}})

	assert.Equal(t, []string{"clear", "normal:x", "diagnostic:y"}, log)
}

func TestBurstKeepsEveryLineInOrder(t *testing.T) {
	s := New()
	const n = 10000
	for i := range n {
		s.Append(OutputEvent{Parts: []string{fmt.Sprint(i)}})
	}

	lines := s.Lines()
	require.Len(t, lines, n)
	for i, l := range lines {
		require.Equal(t, fmt.Sprint(i), l)
	}
}

func TestConcurrentAppendsAreNotLost(t *testing.T) {
	s := New()
	const writers, perWriter = 8, 500

	var wg sync.WaitGroup
	wg.Add(writers)
	for w := range writers {
		go func(w int) {
			defer wg.Done()
			for i := range perWriter {
				s.Append(OutputEvent{Parts: []string{fmt.Sprint(w), fmt.Sprint(i)}})
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, writers*perWriter, s.Len())
}

func BenchmarkAppend(b *testing.B) {
	s := New()
	ev := OutputEvent{Parts: []string{"line", "of", "output"}}
	for b.Loop() {
		s.Append(ev)
	}
}
