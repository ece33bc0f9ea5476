package visit

import (
	"strings"

	"github.com/opdlog/opdlog/internal/domain/catalog"
)

// Validation messages shown inline, verbatim.
const (
	msgPatientID = "Enter Patient ID (max 3 digits)."
	msgRequired  = "Select Gender, Age, ≥1 Diagnosis (max 2), and Disposition."
	msgWW        = "Select WW or Non-WW for surgical diagnosis."
)

// maxDiagnoses caps the selection; the third toggle evicts the earliest.
const maxDiagnoses = 2

// Draft is the transient in-progress form state. One instance exists per
// UI session; it is never persisted. Zero value is an empty draft in New
// mode. An empty string means "not selected" for every scalar field.
type Draft struct {
	PatientID   string
	Gender      string
	AgeGroup    string
	Diagnoses   []int
	WW          string
	Disposition string

	// EditingUID is set while the draft edits an existing record; empty
	// in New mode.
	EditingUID string
}

// NewDraft returns an empty draft in New mode.
func NewDraft() *Draft { return &Draft{} }

// Editing reports whether the draft is in edit mode.
func (d *Draft) Editing() bool { return d.EditingUID != "" }

// SetPatientID validates and stores the patient id buffer: digits only,
// at most three. Empty clears it.
func (d *Draft) SetPatientID(id string) error {
	if len(id) > 3 {
		return &ValidationError{Msg: msgPatientID}
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return &ValidationError{Msg: msgPatientID}
		}
	}
	d.PatientID = id
	return nil
}

// ToggleDiagnosis flips the selection state of a catalog key. Re-selecting
// a selected key deselects it. Selecting a third key evicts the
// earliest-selected of the current two (FIFO ring, never LRU). Unknown
// keys are ignored. Whenever no surgical diagnosis remains selected, the
// ww selection is cleared.
func (d *Draft) ToggleDiagnosis(no int) {
	if _, ok := catalog.LookupDiagnosis(no); !ok {
		return
	}
	idx := -1
	for i, sel := range d.Diagnoses {
		if sel == no {
			idx = i
			break
		}
	}
	if idx >= 0 {
		d.Diagnoses = append(d.Diagnoses[:idx], d.Diagnoses[idx+1:]...)
	} else if len(d.Diagnoses) < maxDiagnoses {
		d.Diagnoses = append(d.Diagnoses, no)
	} else {
		d.Diagnoses = append(d.Diagnoses[1:], no)
	}
	if !d.SurgicalSelected() {
		d.WW = ""
	}
}

// SurgicalSelected reports whether any selected diagnosis is surgical.
func (d *Draft) SurgicalSelected() bool {
	for _, no := range d.Diagnoses {
		if diag, ok := catalog.LookupDiagnosis(no); ok && diag.Category == catalog.CategorySurgical {
			return true
		}
	}
	return false
}

// Validate gates save/update. relaxPatientID permits an empty patient id
// (the update path); every other rule is identical in both modes. The
// first failed rule aborts with its message and nothing is mutated.
func (d *Draft) Validate(relaxPatientID bool) error {
	if !relaxPatientID && d.PatientID == "" {
		return &ValidationError{Msg: msgPatientID}
	}
	if len(d.PatientID) > 3 || strings.ContainsFunc(d.PatientID, func(r rune) bool { return r < '0' || r > '9' }) {
		return &ValidationError{Msg: msgPatientID}
	}
	if !catalog.ValidGender(d.Gender) {
		return &ValidationError{Msg: msgRequired}
	}
	if _, ok := catalog.LookupAgeBucket(d.AgeGroup); !ok {
		return &ValidationError{Msg: msgRequired}
	}
	if len(d.Diagnoses) == 0 || len(d.Diagnoses) > maxDiagnoses {
		return &ValidationError{Msg: msgRequired}
	}
	for _, no := range d.Diagnoses {
		if _, ok := catalog.LookupDiagnosis(no); !ok {
			return &ValidationError{Msg: msgRequired}
		}
	}
	if !catalog.ValidDisposition(d.Disposition) {
		return &ValidationError{Msg: msgRequired}
	}
	if d.SurgicalSelected() && !catalog.ValidWW(d.WW) {
		return &ValidationError{Msg: msgWW}
	}
	return nil
}

// BeginEdit populates the draft from an existing record and switches to
// edit mode. Diagnosis keys come through the legacy fallback chain; the ww
// selection is carried over only while a surgical diagnosis is present.
func (d *Draft) BeginEdit(rec Record) {
	d.EditingUID = rec.UID
	d.PatientID = rec.PatientID
	d.Gender = rec.Gender
	d.AgeGroup = rec.AgeGroup
	d.Diagnoses = rec.DiagnosisKeys()
	d.Disposition = rec.Disposition
	if d.SurgicalSelected() && catalog.ValidWW(rec.WWFlag) {
		d.WW = rec.WWFlag
	} else {
		d.WW = ""
	}
}

// Reset clears every selection and returns to New mode. It never fails.
func (d *Draft) Reset() {
	*d = Draft{}
}
