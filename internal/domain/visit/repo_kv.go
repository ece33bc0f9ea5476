package visit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/opdlog/opdlog/internal/platform/kvstore"
)

// StorageKey is the fixed key the serialized collection lives under. The
// name carries the historic schema version of the blob.
const StorageKey = "opdVisitsV6"

// KVRepository persists the collection as one JSON blob in a kvstore.KV.
type KVRepository struct {
	kv     kvstore.KV
	logger zerolog.Logger
}

// NewKVRepository wires a repository over kv.
func NewKVRepository(kv kvstore.KV, logger zerolog.Logger) *KVRepository {
	return &KVRepository{kv: kv, logger: logger}
}

// LoadAll reads the full collection. A missing key is a normal empty
// store; a read or parse failure is logged and likewise treated as empty
// rather than surfaced.
func (r *KVRepository) LoadAll(ctx context.Context) []Record {
	payload, err := r.kv.Get(ctx, StorageKey)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		r.logger.Warn().Err(err).Msg("visit store unreadable, treating as empty")
		return nil
	}
	var records []Record
	if err := json.Unmarshal(payload, &records); err != nil {
		r.logger.Warn().Err(err).Msg("visit store corrupt, treating as empty")
		return nil
	}
	return records
}

// SaveAll atomically replaces the persisted collection.
func (r *KVRepository) SaveAll(ctx context.Context, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode visits: %w", err)
	}
	if err := r.kv.Put(ctx, StorageKey, payload); err != nil {
		return fmt.Errorf("persist visits: %w", err)
	}
	return nil
}

// SortedByRecency returns the collection ordered by timestamp descending.
// Ties keep stored order.
func (r *KVRepository) SortedByRecency(ctx context.Context) []Record {
	records := r.LoadAll(ctx)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp > records[j].Timestamp
	})
	return records
}
