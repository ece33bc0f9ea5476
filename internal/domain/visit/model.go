package visit

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opdlog/opdlog/internal/domain/catalog"
)

// Record is one persisted outpatient visit. It is immutable once built; an
// edit replaces the whole record while keeping uid and timestamp. JSON
// field names match the historic store schema so old backups restore
// cleanly.
type Record struct {
	UID              string   `json:"uid"`
	Timestamp        int64    `json:"timestamp"` // epoch milliseconds, creation time
	PatientID        string   `json:"patientId"`
	Gender           string   `json:"gender"`
	AgeGroup         string   `json:"ageGroup"`
	AgeLabel         string   `json:"ageLabel"`
	DiagnosisNos     []int    `json:"diagnosisNos,omitempty"`
	DiagnosisNames   []string `json:"diagnosisNames,omitempty"`
	DiagnosisNoStr   string   `json:"diagnosisNoStr,omitempty"`
	DiagnosisNameStr string   `json:"diagnosisNameStr,omitempty"`
	ClinicalCategory string   `json:"clinicalCategory"`
	WWFlag           string   `json:"wwFlag"`
	Disposition      string   `json:"disposition"`

	// Single-diagnosis fields written by early schema versions; tolerated
	// on read, never written.
	LegacyDiagnosisNo   int    `json:"diagnosisNo,omitempty"`
	LegacyDiagnosisName string `json:"diagnosisName,omitempty"`
}

// NewUID returns a fresh globally unique record identifier: creation time
// in base-36 milliseconds plus a random suffix.
func NewUID() string {
	return newUIDAt(time.Now().UnixMilli())
}

func newUIDAt(ms int64) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:5]
	return strconv.FormatInt(ms, 36) + "-" + suffix
}

// DiagnosisKeys reconstructs the selected diagnosis keys with the legacy
// fallback chain: the explicit key sequence, then the scalar legacy key,
// then the delimited key string, else none. At most two keys are returned.
func (r Record) DiagnosisKeys() []int {
	if len(r.DiagnosisNos) > 0 {
		keys := append([]int(nil), r.DiagnosisNos...)
		if len(keys) > 2 {
			keys = keys[:2]
		}
		return keys
	}
	if r.LegacyDiagnosisNo != 0 {
		return []int{r.LegacyDiagnosisNo}
	}
	if r.DiagnosisNoStr != "" {
		var keys []int
		for _, part := range strings.Split(r.DiagnosisNoStr, "+") {
			no, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || no == 0 {
				continue
			}
			keys = append(keys, no)
			if len(keys) == 2 {
				break
			}
		}
		return keys
	}
	return nil
}

// NormalizedNames reconstructs the diagnosis display names with the same
// fallback priority as DiagnosisKeys.
func (r Record) NormalizedNames() []string {
	if len(r.DiagnosisNames) > 0 {
		var names []string
		for _, n := range r.DiagnosisNames {
			if n != "" {
				names = append(names, n)
			}
		}
		if len(names) > 0 {
			return names
		}
	}
	if s := strings.TrimSpace(r.DiagnosisNameStr); s != "" {
		var names []string
		for _, part := range strings.Split(s, "+") {
			if p := strings.TrimSpace(part); p != "" {
				names = append(names, p)
			}
		}
		return names
	}
	if r.LegacyDiagnosisName != "" {
		return []string{r.LegacyDiagnosisName}
	}
	return nil
}

// DiagnosisNoText is the export projection of the key sequence, falling
// back to reconstruction for records written before DiagnosisNoStr existed.
func (r Record) DiagnosisNoText() string {
	if r.DiagnosisNoStr != "" {
		return r.DiagnosisNoStr
	}
	if len(r.DiagnosisNos) > 0 {
		parts := make([]string, len(r.DiagnosisNos))
		for i, no := range r.DiagnosisNos {
			parts[i] = strconv.Itoa(no)
		}
		return strings.Join(parts, "+")
	}
	if r.LegacyDiagnosisNo != 0 {
		return strconv.Itoa(r.LegacyDiagnosisNo)
	}
	return ""
}

// DiagnosisNameText is the export projection of the name sequence with the
// same fallback behavior as DiagnosisNoText.
func (r Record) DiagnosisNameText() string {
	if r.DiagnosisNameStr != "" {
		return r.DiagnosisNameStr
	}
	if len(r.DiagnosisNames) > 0 {
		return strings.Join(r.DiagnosisNames, " + ")
	}
	return r.LegacyDiagnosisName
}

// Build constructs the canonical record from a validated draft. It is pure:
// the caller supplies identity and creation time, a fresh NewUID and the
// current epoch-millisecond clock when creating, or the original record's
// uid and timestamp when updating (updates never change either). The
// diagnosis selection is defensively truncated to two entries, the clinical
// category is derived from the catalog, and any ww selection on a
// non-surgical record is discarded.
func Build(d *Draft, uid string, timestamp int64) Record {
	keys := append([]int(nil), d.Diagnoses...)
	if len(keys) > 2 {
		keys = keys[:2]
	}

	names := make([]string, len(keys))
	anySurgical := false
	for i, no := range keys {
		if diag, ok := catalog.LookupDiagnosis(no); ok {
			names[i] = diag.Name
			if diag.Category == catalog.CategorySurgical {
				anySurgical = true
			}
		}
	}

	category := catalog.CategoryMedical
	ww := catalog.WWNA
	if anySurgical {
		category = catalog.CategorySurgical
		if d.WW != "" {
			ww = d.WW
		}
	}

	ageLabel := ""
	if bucket, ok := catalog.LookupAgeBucket(d.AgeGroup); ok {
		ageLabel = bucket.Label
	}

	noParts := make([]string, len(keys))
	for i, no := range keys {
		noParts[i] = strconv.Itoa(no)
	}

	return Record{
		UID:              uid,
		Timestamp:        timestamp,
		PatientID:        d.PatientID,
		Gender:           d.Gender,
		AgeGroup:         d.AgeGroup,
		AgeLabel:         ageLabel,
		DiagnosisNos:     keys,
		DiagnosisNames:   names,
		DiagnosisNoStr:   strings.Join(noParts, "+"),
		DiagnosisNameStr: strings.Join(names, " + "),
		ClinicalCategory: string(category),
		WWFlag:           ww,
		Disposition:      d.Disposition,
	}
}
