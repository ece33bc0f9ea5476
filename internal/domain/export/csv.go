// Package export serializes the visit collection to the three tabular
// formats the clinic consumes (delimited text, the Excel-namespace HTML
// table, and a real .xlsx workbook) and drives export delivery through
// the share boundary.
package export

import (
	"strconv"
	"strings"

	"github.com/opdlog/opdlog/internal/domain/visit"
)

// Header is the fixed 9-column export header shared by every format.
var Header = []string{
	"timestamp", "patient_id", "gender", "age_group", "diagnosis_nos",
	"diagnosis_names", "clinical_category", "ww_flag", "disposition",
}

// cellValues renders one record's nine cells as text. Every field passes
// through exactly one formatter; diagnosis columns use the denormalized
// string projections with legacy reconstruction fallback.
func cellValues(r visit.Record) []string {
	ww := r.WWFlag
	if ww == "" {
		ww = "NA"
	}
	return []string{
		strconv.FormatInt(r.Timestamp, 10),
		r.PatientID,
		r.Gender,
		r.AgeLabel,
		r.DiagnosisNoText(),
		r.DiagnosisNameText(),
		r.ClinicalCategory,
		ww,
		r.Disposition,
	}
}

// ToDelimitedText renders records as comma-delimited rows under Header,
// in the given order. A literal comma inside a field value is replaced
// with a semicolon, no quoting or escaping. This is knowingly lossy and
// must stay that way: downstream consumers parse on bare commas.
func ToDelimitedText(records []visit.Record) string {
	var b strings.Builder
	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strings.ReplaceAll(cell, ",", ";"))
		}
	}
	writeRow(Header)
	for _, rec := range records {
		b.WriteByte('\n')
		writeRow(cellValues(rec))
	}
	return b.String()
}
