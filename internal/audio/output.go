package audio

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"golang.org/x/crypto/blake2b"
)

var ErrInvalidClip = errors.New("invalid clip name")

var clipPattern = regexp.MustCompile(`^[0-9a-f]{64}\.wav$`)

// Output publishes synthesized speech as WAV clips under one directory
type Output struct {
	dir string
	mu  sync.Mutex
}

var (
	shared     *Output
	sharedOnce sync.Once
)

// Shared returns the process-wide output, creating it on first use.
// The dir argument only matters on that first call.
func Shared(dir string) *Output {
	sharedOnce.Do(func() {
		shared = NewOutput(dir)
	})
	return shared
}

// NewOutput creates an output rooted at dir. Nothing touches the disk until
// the first clip is published.
func NewOutput(dir string) *Output {
	return &Output{dir: dir}
}

// Dir returns the directory clips are written to
func (o *Output) Dir() string {
	return o.dir
}

// ClipName derives the content-addressed clip file name for spoken text
func ClipName(text string) string {
	sum := blake2b.Sum256([]byte(text))
	return hex.EncodeToString(sum[:]) + ".wav"
}

// Path resolves a clip name to its file, rejecting anything that is not a
// clip name produced by ClipName.
func (o *Output) Path(clip string) (string, error) {
	if !clipPattern.MatchString(clip) {
		return "", ErrInvalidClip
	}
	return filepath.Join(o.dir, clip), nil
}

// Has reports whether the clip is already published
func (o *Output) Has(clip string) bool {
	path, err := o.Path(clip)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Publish writes pcm as a WAV clip. The directory is recreated if it has
// gone missing since the last call.
func (o *Output) Publish(clip string, pcm []byte) error {
	path, err := o.Path(clip)
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.resume(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(o.dir, ".clip-*")
	if err != nil {
		return fmt.Errorf("failed to create clip: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(EncodeWAV(pcm)); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write clip: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write clip: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to publish clip: %w", err)
	}
	return nil
}

// Remove deletes a published clip
func (o *Output) Remove(clip string) error {
	path, err := o.Path(clip)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (o *Output) resume() error {
	if err := os.MkdirAll(o.dir, 0755); err != nil {
		return fmt.Errorf("failed to prepare audio directory: %w", err)
	}
	return nil
}
