package share

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeSink scripts per-location behavior so each fallback stage can be
// exercised deterministically.
type fakeSink struct {
	writeErr     map[Location]error
	locateMisses map[Location]int
	shareErr     error
	writes       []Location
	shares       int
}

func newFakeSink() *fakeSink {
	return &fakeSink{
		writeErr:     map[Location]error{},
		locateMisses: map[Location]int{},
	}
}

func (s *fakeSink) Write(_ context.Context, path string, _ []byte, loc Location) (Handle, error) {
	if err := s.writeErr[loc]; err != nil {
		return Handle{}, err
	}
	s.writes = append(s.writes, loc)
	return Handle{Path: path, Location: loc}, nil
}

func (s *fakeSink) Locate(_ context.Context, h Handle) (string, error) {
	if s.locateMisses[h.Location] > 0 {
		s.locateMisses[h.Location]--
		return "", ErrNotFound
	}
	return fmt.Sprintf("fake://%s/%s", h.Location, h.Path), nil
}

func (s *fakeSink) Share(_ context.Context, _ string, _ Metadata) error {
	if s.shareErr != nil {
		return s.shareErr
	}
	s.shares++
	return nil
}

func newTestDeliverer(sink Sink, fallbackDir string) (*Deliverer, *[]time.Duration) {
	d := NewDeliverer(sink, RetryPolicy{Attempts: 3, Backoff: 150 * time.Millisecond, Step: 150 * time.Millisecond}, fallbackDir, zerolog.Nop())
	var sleeps []time.Duration
	d.sleep = func(dur time.Duration) { sleeps = append(sleeps, dur) }
	d.now = func() time.Time { return time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC) }
	return d, &sleeps
}

func TestStampName(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 30, 45, 0, time.UTC)
	got := stampName("OPD_2026-03-15.csv", now)
	if got != "OPD_2026-03-15_2026-03-15T10-30-45.csv" {
		t.Errorf("got %q", got)
	}
}

func TestDeliverSharesFromCache(t *testing.T) {
	sink := newFakeSink()
	d, _ := newTestDeliverer(sink, t.TempDir())

	outcome, err := d.Deliver(context.Background(), "a.csv", []byte("data"), Metadata{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeShared {
		t.Errorf("expected shared, got %q", outcome)
	}
	if len(sink.writes) != 1 || sink.writes[0] != LocationCache {
		t.Errorf("expected one cache write, got %v", sink.writes)
	}
}

func TestDeliverRetriesLocateWithGrowingBackoff(t *testing.T) {
	sink := newFakeSink()
	sink.locateMisses[LocationCache] = 2
	d, sleeps := newTestDeliverer(sink, t.TempDir())

	outcome, err := d.Deliver(context.Background(), "a.csv", []byte("data"), Metadata{})
	if err != nil || outcome != OutcomeShared {
		t.Fatalf("expected shared after retries, got %q, %v", outcome, err)
	}
	want := []time.Duration{150 * time.Millisecond, 300 * time.Millisecond}
	if len(*sleeps) != len(want) {
		t.Fatalf("expected %d sleeps, got %v", len(want), *sleeps)
	}
	for i := range want {
		if (*sleeps)[i] != want[i] {
			t.Errorf("sleep %d: got %v, want %v", i, (*sleeps)[i], want[i])
		}
	}
}

func TestDeliverFallsBackToDownloads(t *testing.T) {
	sink := newFakeSink()
	sink.locateMisses[LocationCache] = 10
	d, _ := newTestDeliverer(sink, t.TempDir())

	outcome, err := d.Deliver(context.Background(), "a.csv", []byte("data"), Metadata{})
	if err != nil || outcome != OutcomeShared {
		t.Fatalf("expected shared from downloads, got %q, %v", outcome, err)
	}
	if len(sink.writes) != 2 || sink.writes[1] != LocationDownloads {
		t.Errorf("expected cache then downloads write, got %v", sink.writes)
	}
}

func TestDeliverDirectSaveWhenShareUnavailable(t *testing.T) {
	sink := newFakeSink()
	sink.shareErr = ErrShareUnavailable
	dir := t.TempDir()
	d, _ := newTestDeliverer(sink, dir)

	outcome, err := d.Deliver(context.Background(), "a.csv", []byte("payload"), Metadata{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeDirectSave {
		t.Errorf("expected direct save, got %q", outcome)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read fallback dir: %v", err)
	}
	if len(entries) != 1 || !strings.HasSuffix(entries[0].Name(), ".csv") {
		t.Fatalf("expected one saved csv, got %v", entries)
	}
	if !strings.Contains(entries[0].Name(), "2026-03-15T10-30-00") {
		t.Errorf("expected stamped filename, got %q", entries[0].Name())
	}
}

func TestDeliverFailsWhenEverythingExhausted(t *testing.T) {
	sink := newFakeSink()
	sink.writeErr[LocationCache] = errors.New("cache gone")
	sink.writeErr[LocationDownloads] = errors.New("downloads gone")
	d, _ := newTestDeliverer(sink, "")

	_, err := d.Deliver(context.Background(), "a.csv", []byte("data"), Metadata{})
	if err == nil {
		t.Fatal("expected error when every channel fails")
	}
}

func TestFSSinkWriteLocateShare(t *testing.T) {
	cache := t.TempDir()
	var shared []string
	sink := NewFSSink(cache, t.TempDir(), func(uri string, _ Metadata) error {
		shared = append(shared, uri)
		return nil
	})
	ctx := context.Background()

	h, err := sink.Write(ctx, "x.csv", []byte("data"), LocationCache)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	uri, err := sink.Locate(ctx, h)
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if !strings.HasPrefix(uri, "file://") || !strings.HasSuffix(uri, "x.csv") {
		t.Errorf("unexpected uri: %q", uri)
	}
	if err := sink.Share(ctx, uri, Metadata{}); err != nil {
		t.Fatalf("share: %v", err)
	}
	if len(shared) != 1 {
		t.Errorf("expected the hook invoked once, got %v", shared)
	}
}

func TestFSSinkLocateMissing(t *testing.T) {
	sink := NewFSSink(t.TempDir(), t.TempDir(), nil)
	_, err := sink.Locate(context.Background(), Handle{Path: "ghost.csv", Location: LocationCache})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFSSinkShareWithoutHook(t *testing.T) {
	sink := NewFSSink(t.TempDir(), t.TempDir(), nil)
	if err := sink.Share(context.Background(), "file:///x", Metadata{}); !errors.Is(err, ErrShareUnavailable) {
		t.Errorf("expected ErrShareUnavailable, got %v", err)
	}
}
