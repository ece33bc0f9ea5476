// Package share defines the file-save/share boundary the export pipeline
// talks to, and the Deliverer that drives it: write to the cache location,
// poll for the file to become locatable (storage may report availability
// asynchronously), hand the reference to the share channel, and fall back
// step by step to a guaranteed direct save when any stage is unavailable.
package share

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Location names a storage area understood by a Sink.
type Location string

const (
	LocationCache     Location = "cache"
	LocationDownloads Location = "downloads"
)

var (
	// ErrNotFound means a just-written file is not locatable yet; callers
	// may retry.
	ErrNotFound = errors.New("share: file not located")
	// ErrShareUnavailable means no share channel exists on this device.
	ErrShareUnavailable = errors.New("share: share channel unavailable")
)

// Handle identifies a written file within a Sink.
type Handle struct {
	Path     string
	Location Location
}

// Metadata accompanies a share request.
type Metadata struct {
	Title    string
	Text     string
	MIMEType string
}

// Sink is the abstract write/locate/share contract. Locate may transiently
// return ErrNotFound for a just-written handle; Share may be permanently
// unavailable.
type Sink interface {
	Write(ctx context.Context, path string, data []byte, loc Location) (Handle, error)
	Locate(ctx context.Context, h Handle) (string, error)
	Share(ctx context.Context, uri string, meta Metadata) error
}

// RetryPolicy bounds the locate polling loop. Attempt i (zero-based)
// sleeps Backoff + i*Step before the next try.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
	Step     time.Duration
}

// DefaultRetryPolicy is three attempts with a 150 ms base backoff growing
// by 150 ms per attempt.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Backoff: 150 * time.Millisecond, Step: 150 * time.Millisecond}
}

// Outcome reports which channel finally took the export.
type Outcome string

const (
	// OutcomeShared means the share channel accepted the file.
	OutcomeShared Outcome = "shared"
	// OutcomeDirectSave means the guaranteed fallback wrote the file to
	// the download directory without sharing.
	OutcomeDirectSave Outcome = "direct-save"
)

// Deliverer runs the ordered fallback chain. Once started a delivery runs
// to its fallback conclusion or final failure; there is no cancellation
// primitive beyond the context.
type Deliverer struct {
	sink        Sink
	policy      RetryPolicy
	fallbackDir string
	logger      zerolog.Logger
	sleep       func(time.Duration)
	now         func() time.Time
}

// NewDeliverer wires a Deliverer over sink. fallbackDir is the
// always-available direct-save directory used when every richer channel
// fails.
func NewDeliverer(sink Sink, policy RetryPolicy, fallbackDir string, logger zerolog.Logger) *Deliverer {
	if policy.Attempts <= 0 {
		policy = DefaultRetryPolicy()
	}
	return &Deliverer{
		sink:        sink,
		policy:      policy,
		fallbackDir: fallbackDir,
		logger:      logger,
		sleep:       time.Sleep,
		now:         time.Now,
	}
}

// stampName inserts a timestamp before the extension so repeated exports
// never collide on a locked file.
func stampName(filename string, now time.Time) string {
	stamp := now.UTC().Format("2006-01-02T15-04-05")
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	return base + "_" + stamp + ext
}

// Deliver writes data under a timestamped variant of filename and pushes
// it through the chain: cache+share, downloads+share, direct save. The
// returned Outcome says which channel succeeded; an error is returned only
// when every path is exhausted.
func (d *Deliverer) Deliver(ctx context.Context, filename string, data []byte, meta Metadata) (Outcome, error) {
	name := stampName(filename, d.now())

	if uri, ok := d.writeAndLocate(ctx, name, data, LocationCache); ok {
		if err := d.sink.Share(ctx, uri, meta); err == nil {
			return OutcomeShared, nil
		} else if !errors.Is(err, ErrShareUnavailable) {
			d.logger.Warn().Err(err).Str("file", name).Msg("share from cache failed")
		}
	}

	if uri, ok := d.writeAndLocate(ctx, name, data, LocationDownloads); ok {
		if err := d.sink.Share(ctx, uri, meta); err == nil {
			return OutcomeShared, nil
		} else if !errors.Is(err, ErrShareUnavailable) {
			d.logger.Warn().Err(err).Str("file", name).Msg("share from downloads failed")
		}
	}

	if err := d.directSave(name, data); err != nil {
		return "", fmt.Errorf("export delivery exhausted all channels: %w", err)
	}
	d.logger.Info().Str("file", name).Msg("export saved via direct fallback")
	return OutcomeDirectSave, nil
}

// writeAndLocate writes to one location and polls Locate under the retry
// policy. A false return means this stage should be skipped, not that
// delivery failed.
func (d *Deliverer) writeAndLocate(ctx context.Context, name string, data []byte, loc Location) (string, bool) {
	h, err := d.sink.Write(ctx, name, data, loc)
	if err != nil {
		d.logger.Warn().Err(err).Str("file", name).Str("location", string(loc)).Msg("export write failed")
		return "", false
	}
	for i := 0; i < d.policy.Attempts; i++ {
		uri, err := d.sink.Locate(ctx, h)
		if err == nil {
			return uri, true
		}
		if !errors.Is(err, ErrNotFound) {
			d.logger.Warn().Err(err).Str("file", name).Msg("locate failed")
			return "", false
		}
		d.sleep(d.policy.Backoff + time.Duration(i)*d.policy.Step)
	}
	return "", false
}

func (d *Deliverer) directSave(name string, data []byte) error {
	if d.fallbackDir == "" {
		return fmt.Errorf("no fallback directory configured")
	}
	if err := os.MkdirAll(d.fallbackDir, 0o750); err != nil {
		return fmt.Errorf("create fallback dir: %w", err)
	}
	path := filepath.Join(d.fallbackDir, name)
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return fmt.Errorf("direct save: %w", err)
	}
	return nil
}
