package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func start(t *testing.T, path string, delay time.Duration) (*atomic.Int32, context.CancelFunc, chan error) {
	t.Helper()
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- File(ctx, path, delay, func() { calls.Add(1) }, logrus.New())
	}()
	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	return &calls, cancel, done
}

func TestFileDebouncesWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.cws")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o644))

	calls, cancel, done := start(t, path, 150*time.Millisecond)
	defer cancel()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("tampil(1);"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 20*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestFileIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.cws")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o644))

	calls, cancel, _ := start(t, path, 50*time.Millisecond)
	defer cancel()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.cws"), []byte("b"), 0o644))
	time.Sleep(300 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

func TestFileMissingDirectory(t *testing.T) {
	err := File(context.Background(), filepath.Join(t.TempDir(), "nope", "main.cws"), DefaultDelay, func() {}, logrus.New())
	assert.Error(t, err)
}
