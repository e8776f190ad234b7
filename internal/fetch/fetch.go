// Package fetch downloads the interpreter module.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrChecksum is returned when the downloaded bytes do not match the
// expected digest.
var ErrChecksum = errors.New("checksum mismatch")

// Options configures Module.
type Options struct {
	// SHA256 is the expected hex digest. Empty skips verification.
	SHA256 string
	// Force replaces an existing file.
	Force  bool
	Client *http.Client
	Log    logrus.FieldLogger
}

// Module downloads url to output. An existing output is left alone unless
// opts.Force is set. The file only appears at output once it is complete
// and verified.
func Module(ctx context.Context, url, output string, opts Options) error {
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	log := opts.Log.WithFields(logrus.Fields{"url": url, "output": output})

	if !opts.Force {
		if _, err := os.Stat(output); err == nil {
			log.Info("module already present")
			return nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := opts.Client.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: %s", resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(output), ".download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	sum := hex.EncodeToString(h.Sum(nil))
	if opts.SHA256 != "" && !strings.EqualFold(sum, opts.SHA256) {
		return fmt.Errorf("%w: got %s, want %s", ErrChecksum, sum, opts.SHA256)
	}

	if err := os.Rename(tmp.Name(), output); err != nil {
		return fmt.Errorf("install %s: %w", output, err)
	}
	log.WithFields(logrus.Fields{"bytes": n, "sha256": sum}).Info("module downloaded")
	return nil
}
