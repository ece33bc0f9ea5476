// Package summary computes the daily statistics view over the visit
// collection: headline counts, the age×gender grid, per-pathology and
// per-disposition tables, and the legacy top-diagnoses list.
package summary

import (
	"sort"
	"time"

	"github.com/opdlog/opdlog/internal/domain/catalog"
	"github.com/opdlog/opdlog/internal/domain/visit"
)

const dayMillis = 24 * 60 * 60 * 1000

// NameCount is one row of a counted table.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// BucketCount is one age-bucket row.
type BucketCount struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// AgeGenderRow is one row of the 4×2 age×gender grid.
type AgeGenderRow struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Male   int    `json:"male"`
	Female int    `json:"female"`
}

// Daily is the full same-day summary.
type Daily struct {
	Date          string         `json:"date"`
	Total         int            `json:"total"`
	ByGender      map[string]int `json:"by_gender"`
	ByAgeBucket   []BucketCount  `json:"by_age_bucket"`
	ByCategory    map[string]int `json:"by_category"`
	SurgicalWW    int            `json:"surgical_ww"`
	SurgicalNonWW int            `json:"surgical_non_ww"`
	AgeGender     []AgeGenderRow `json:"age_gender"`
	Pathologies   []NameCount    `json:"pathologies"`
	Dispositions  []NameCount    `json:"dispositions"`
	TopDiagnoses  []NameCount    `json:"top_diagnoses"`
}

// DayWindow returns the inclusive epoch-millisecond bounds of ref's local
// calendar day: [midnight, midnight+24h-1ms].
func DayWindow(ref time.Time) (start, end int64) {
	midnight := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	start = midnight.UnixMilli()
	return start, start + dayMillis - 1
}

// Compute filters records to ref's local calendar day and derives every
// aggregate. A record timestamped exactly at the window start or end is
// included; one millisecond past the end is not.
func Compute(records []visit.Record, ref time.Time) Daily {
	start, end := DayWindow(ref)

	var day []visit.Record
	for _, rec := range records {
		if rec.Timestamp >= start && rec.Timestamp <= end {
			day = append(day, rec)
		}
	}

	d := Daily{
		Date:       time.UnixMilli(start).In(ref.Location()).Format("2006-01-02"),
		Total:      len(day),
		ByGender:   map[string]int{},
		ByCategory: map[string]int{},
	}
	for _, g := range catalog.Genders() {
		d.ByGender[g] = 0
	}
	d.ByCategory[string(catalog.CategoryMedical)] = 0
	d.ByCategory[string(catalog.CategorySurgical)] = 0

	buckets := catalog.AgeBuckets()
	bucketIdx := make(map[string]int, len(buckets))
	for i, b := range buckets {
		bucketIdx[b.Key] = i
		d.ByAgeBucket = append(d.ByAgeBucket, BucketCount{Key: b.Key, Label: b.Label})
		d.AgeGender = append(d.AgeGender, AgeGenderRow{Key: b.Key, Label: b.Label})
	}

	for _, rec := range day {
		if _, ok := d.ByGender[rec.Gender]; ok {
			d.ByGender[rec.Gender]++
		}
		if i, ok := bucketIdx[rec.AgeGroup]; ok {
			d.ByAgeBucket[i].Count++
			switch rec.Gender {
			case "Male":
				d.AgeGender[i].Male++
			case "Female":
				d.AgeGender[i].Female++
			}
		}
		if _, ok := d.ByCategory[rec.ClinicalCategory]; ok {
			d.ByCategory[rec.ClinicalCategory]++
		}
		if rec.ClinicalCategory == string(catalog.CategorySurgical) {
			switch rec.WWFlag {
			case "WW":
				d.SurgicalWW++
			case "NonWW":
				d.SurgicalNonWW++
			}
		}
	}

	d.Pathologies = pathologyCounts(day)
	d.Dispositions = dispositionCounts(day)
	d.TopDiagnoses = topDiagnoses(day)
	return d
}

// pathologyCounts tallies every diagnosis name on every in-window record
// (both selections count), keeping only names seen at least once, ordered
// by count descending. Catalog order seeds the iteration so ties stay in
// taxonomy order; names unknown to the catalog are counted too.
func pathologyCounts(day []visit.Record) []NameCount {
	counts := map[string]int{}
	var order []string
	for _, diag := range catalog.Diagnoses() {
		counts[diag.Name] = 0
		order = append(order, diag.Name)
	}
	for _, rec := range day {
		for _, name := range rec.NormalizedNames() {
			if _, ok := counts[name]; !ok {
				order = append(order, name)
			}
			counts[name]++
		}
	}
	var rows []NameCount
	for _, name := range order {
		if counts[name] > 0 {
			rows = append(rows, NameCount{Name: name, Count: counts[name]})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Count > rows[j].Count })
	return rows
}

// dispositionCounts reports the fixed four-value enumeration, zeros
// included.
func dispositionCounts(day []visit.Record) []NameCount {
	rows := make([]NameCount, 0, 4)
	idx := map[string]int{}
	for i, disp := range catalog.Dispositions() {
		idx[disp] = i
		rows = append(rows, NameCount{Name: disp})
	}
	for _, rec := range day {
		if i, ok := idx[rec.Disposition]; ok {
			rows[i].Count++
		}
	}
	return rows
}

// topDiagnoses is the legacy view: only the first diagnosis per record
// counts, top ten by count descending.
func topDiagnoses(day []visit.Record) []NameCount {
	counts := map[string]int{}
	var order []string
	for _, rec := range day {
		names := rec.NormalizedNames()
		if len(names) == 0 {
			continue
		}
		if _, ok := counts[names[0]]; !ok {
			order = append(order, names[0])
		}
		counts[names[0]]++
	}
	rows := make([]NameCount, 0, len(order))
	for _, name := range order {
		rows = append(rows, NameCount{Name: name, Count: counts[name]})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Count > rows[j].Count })
	if len(rows) > 10 {
		rows = rows[:10]
	}
	return rows
}
