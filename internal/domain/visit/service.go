package visit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Service orchestrates every mutation of the visit store. All access is
// serialized through one mutex: the store is never read and written
// concurrently, matching the single-writer model of the device.
type Service struct {
	mu     sync.Mutex
	repo   Repository
	now    func() time.Time
	newUID func() string
}

// NewService returns a Service over repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now, newUID: NewUID}
}

// Create validates the draft strictly, builds a fresh record, appends it
// and persists the collection. The draft is reset on success.
func (s *Service) Create(ctx context.Context, d *Draft) (Record, error) {
	if err := d.Validate(false); err != nil {
		return Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := Build(d, s.newUID(), s.now().UnixMilli())
	all := append(s.repo.LoadAll(ctx), rec)
	if err := s.repo.SaveAll(ctx, all); err != nil {
		return Record{}, fmt.Errorf("save visit: %w", err)
	}
	d.Reset()
	return rec, nil
}

// Update validates with the relaxed patient-id rule, rebuilds the record
// under its original uid and timestamp, and persists. The draft is reset
// on success.
func (s *Service) Update(ctx context.Context, d *Draft) (Record, error) {
	if err := d.Validate(true); err != nil {
		return Record{}, err
	}
	if !d.Editing() {
		return Record{}, ErrNotEditing
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.repo.LoadAll(ctx)
	idx := -1
	for i := range all {
		if all[i].UID == d.EditingUID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return Record{}, ErrRecordNotFound
	}
	rec := Build(d, all[idx].UID, all[idx].Timestamp)
	all[idx] = rec
	if err := s.repo.SaveAll(ctx, all); err != nil {
		return Record{}, fmt.Errorf("save visit: %w", err)
	}
	d.Reset()
	return rec, nil
}

// Find returns the record with the given uid.
func (s *Service) Find(ctx context.Context, uid string) (Record, error) {
	for _, rec := range s.repo.LoadAll(ctx) {
		if rec.UID == uid {
			return rec, nil
		}
	}
	return Record{}, ErrRecordNotFound
}

// All returns the collection in stored order.
func (s *Service) All(ctx context.Context) []Record {
	return s.repo.LoadAll(ctx)
}

// List returns the collection newest first.
func (s *Service) List(ctx context.Context) []Record {
	return s.repo.SortedByRecency(ctx)
}

// Restore merges a backup payload into the store. A malformed payload
// fails with ErrRestoreFormat and performs no mutation. The returned count
// is the number of incoming records merged.
func (s *Service) Restore(ctx context.Context, payload []byte) (int, error) {
	incoming, err := DecodeBackup(payload)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := Merge(s.repo.LoadAll(ctx), incoming)
	if err := s.repo.SaveAll(ctx, merged); err != nil {
		return 0, fmt.Errorf("save merged visits: %w", err)
	}
	return len(incoming), nil
}

// Backup serializes the collection, newest first, as a JSON array.
func (s *Service) Backup(ctx context.Context) ([]byte, error) {
	records := s.repo.SortedByRecency(ctx)
	if records == nil {
		records = []Record{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode backup: %w", err)
	}
	return payload, nil
}

// ClearAll replaces the store with an empty collection.
func (s *Service) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.SaveAll(ctx, nil); err != nil {
		return fmt.Errorf("clear visits: %w", err)
	}
	return nil
}
