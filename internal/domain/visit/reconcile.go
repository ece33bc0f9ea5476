package visit

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// DecodeBackup parses a restore payload. The top level must be a JSON
// array and every element an object; anything else fails with
// ErrRestoreFormat before any merge happens.
func DecodeBackup(payload []byte) ([]Record, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(payload, &elems); err != nil {
		return nil, fmt.Errorf("%w", ErrRestoreFormat)
	}
	records := make([]Record, 0, len(elems))
	for _, raw := range elems {
		if !strings.HasPrefix(strings.TrimSpace(string(raw)), "{") {
			return nil, fmt.Errorf("%w", ErrRestoreFormat)
		}
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("%w", ErrRestoreFormat)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Merge combines an incoming record set into the existing one, keyed by
// uid. Incoming always wins on a matching uid (last-write-wins). An
// incoming record without a uid gets a synthesized one so it can never
// collide with or silently overwrite an existing record. The merge is
// idempotent: applying the same uid-keyed set twice yields the same state
// as applying it once. The result is ordered by timestamp ascending.
func Merge(existing, incoming []Record) []Record {
	byUID := make(map[string]Record, len(existing)+len(incoming))
	order := make([]string, 0, len(existing)+len(incoming))

	add := func(rec Record) {
		if _, seen := byUID[rec.UID]; !seen {
			order = append(order, rec.UID)
		}
		byUID[rec.UID] = rec
	}

	for _, rec := range existing {
		add(rec)
	}
	for _, rec := range incoming {
		if rec.UID == "" {
			rec.UID = NewUID()
		}
		add(rec)
	}

	merged := make([]Record, 0, len(order))
	for _, uid := range order {
		merged = append(merged, byUID[uid])
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}
