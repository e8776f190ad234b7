package javascript

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caffeineduck/cwsplay/bridge"
	"github.com/caffeineduck/cwsplay/transcript"
)

func execute(t *testing.T, src string, opts ...bridge.Option) ([]transcript.Entry, bridge.Stats) {
	t.Helper()
	sink := transcript.New()
	stats := bridge.New(New(), sink, opts...).Execute(context.Background(), src)
	return sink.Entries(), stats
}

func TestPrintHi(t *testing.T) {
	entries, stats := execute(t, `print("hi")`)
	assert.False(t, stats.Failed)
	assert.Equal(t, []transcript.Entry{{Channel: transcript.Normal, Text: "hi"}}, entries)
}

func TestConsoleChannels(t *testing.T) {
	entries, _ := execute(t, `
console.log("a", 1, true);
console.error("b");
console.info("c");
console.warn("d", null);
`)
	assert.Equal(t, []transcript.Entry{
		{Channel: transcript.Normal, Text: "a 1 true"},
		{Channel: transcript.Diagnostic, Text: "b"},
		{Channel: transcript.Normal, Text: "c"},
		{Channel: transcript.Diagnostic, Text: "d null"},
	}, entries)
}

func TestPrintNoArgumentsIsEmptyLine(t *testing.T) {
	entries, _ := execute(t, `print()`)
	assert.Equal(t, []transcript.Entry{{Channel: transcript.Normal, Text: ""}}, entries)
}

func TestThrownErrorIsDiagnostic(t *testing.T) {
	entries, stats := execute(t, `print("before"); throw new TypeError("bad thing");`)
	assert.True(t, stats.Failed)
	require.Len(t, entries, 2)
	assert.Equal(t, "before", entries[0].Text)
	assert.Equal(t, transcript.Entry{Channel: transcript.Diagnostic, Text: "error: TypeError: bad thing"}, entries[1])
}

func TestSyntaxErrorIsDiagnostic(t *testing.T) {
	entries, stats := execute(t, `print(`)
	assert.True(t, stats.Failed)
	require.Len(t, entries, 1)
	assert.Equal(t, transcript.Diagnostic, entries[0].Channel)
	assert.Contains(t, entries[0].Text, "SyntaxError")
}

func TestTimeoutInterruptsLoop(t *testing.T) {
	entries, stats := execute(t, `for (;;) {}`, bridge.WithTimeout(50*time.Millisecond))
	assert.True(t, stats.Failed)
	assert.Equal(t, []transcript.Entry{{Channel: transcript.Diagnostic, Text: "error: timeout after 50ms"}}, entries)
}

func TestRunsAreIsolated(t *testing.T) {
	_, stats := execute(t, `var leaked = 1;`)
	require.False(t, stats.Failed)

	entries, _ := execute(t, `print(typeof leaked)`)
	assert.Equal(t, "undefined", entries[0].Text)
}

func TestSessionKeepsGlobals(t *testing.T) {
	sink := transcript.New()
	b := bridge.New(NewSession(), sink)

	require.False(t, b.Execute(context.Background(), `var x = 41;`).Failed)
	b.Execute(context.Background(), `x++; print(x)`)

	assert.Equal(t, []string{"42"}, sink.Lines())
}

func TestSessionRecoversAfterTimeout(t *testing.T) {
	sink := transcript.New()
	b := bridge.New(New().NewSession(), sink, bridge.WithTimeout(50*time.Millisecond))

	require.True(t, b.Execute(context.Background(), `var n = 7; for (;;) {}`).Failed)
	sink.Clear()

	stats := b.Execute(context.Background(), `print(n)`)
	assert.False(t, stats.Failed)
	assert.Equal(t, []string{"7"}, sink.Lines())
}
