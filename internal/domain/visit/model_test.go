package visit

import (
	"strings"
	"testing"
)

func TestBuildMedicalRecord(t *testing.T) {
	d := &Draft{
		PatientID:   "12",
		Gender:      "Female",
		AgeGroup:    "Under5",
		Diagnoses:   []int{1},
		Disposition: "Discharged",
	}
	rec := Build(d, "uid-1", 1000)

	if rec.UID != "uid-1" || rec.Timestamp != 1000 {
		t.Errorf("identity not carried: %+v", rec)
	}
	if rec.ClinicalCategory != "Medical" {
		t.Errorf("expected Medical, got %s", rec.ClinicalCategory)
	}
	if rec.WWFlag != "NA" {
		t.Errorf("expected ww flag NA on medical record, got %q", rec.WWFlag)
	}
	if rec.AgeLabel != "<5" {
		t.Errorf("expected age label <5, got %q", rec.AgeLabel)
	}
	if rec.DiagnosisNoStr != "1" || rec.DiagnosisNameStr != "Respiratory Tract Infection" {
		t.Errorf("unexpected projections: %q / %q", rec.DiagnosisNoStr, rec.DiagnosisNameStr)
	}
}

func TestBuildSurgicalRecordKeepsWW(t *testing.T) {
	d := &Draft{
		PatientID:   "7",
		Gender:      "Male",
		AgeGroup:    "EighteenPlus",
		Diagnoses:   []int{17},
		WW:          "WW",
		Disposition: "Admitted",
	}
	rec := Build(d, "uid-2", 2000)

	if rec.ClinicalCategory != "Surgical" {
		t.Errorf("expected Surgical, got %s", rec.ClinicalCategory)
	}
	if rec.WWFlag != "WW" {
		t.Errorf("expected ww flag WW, got %q", rec.WWFlag)
	}
}

func TestBuildMixedSelectionIsSurgical(t *testing.T) {
	d := &Draft{
		PatientID:   "3",
		Gender:      "Male",
		AgeGroup:    "FiveToFourteen",
		Diagnoses:   []int{1, 19},
		WW:          "NonWW",
		Disposition: "Referred out",
	}
	rec := Build(d, "uid-3", 3000)

	if rec.ClinicalCategory != "Surgical" {
		t.Errorf("one surgical diagnosis makes the record surgical, got %s", rec.ClinicalCategory)
	}
	if rec.DiagnosisNoStr != "1+19" {
		t.Errorf("expected key projection 1+19, got %q", rec.DiagnosisNoStr)
	}
	if rec.DiagnosisNameStr != "Respiratory Tract Infection + Gunshot Wound (GSW)" {
		t.Errorf("unexpected name projection: %q", rec.DiagnosisNameStr)
	}
}

func TestBuildDiscardsWWOnMedical(t *testing.T) {
	d := &Draft{
		PatientID:   "1",
		Gender:      "Female",
		AgeGroup:    "Under5",
		Diagnoses:   []int{2},
		WW:          "WW",
		Disposition: "Discharged",
	}
	rec := Build(d, "uid-4", 4000)
	if rec.WWFlag != "NA" {
		t.Errorf("ww on a non-surgical record must be discarded, got %q", rec.WWFlag)
	}
}

func TestBuildTruncatesToTwoDiagnoses(t *testing.T) {
	d := &Draft{Diagnoses: []int{1, 2, 3}}
	rec := Build(d, "uid-5", 5000)
	if len(rec.DiagnosisNos) != 2 {
		t.Fatalf("expected 2 keys, got %v", rec.DiagnosisNos)
	}
	if rec.DiagnosisNos[0] != 1 || rec.DiagnosisNos[1] != 2 {
		t.Errorf("expected first two kept, got %v", rec.DiagnosisNos)
	}
}

func TestNewUIDShape(t *testing.T) {
	uid := newUIDAt(1700000000000)
	parts := strings.SplitN(uid, "-", 2)
	if len(parts) != 2 {
		t.Fatalf("expected prefix-suffix shape, got %q", uid)
	}
	if parts[0] != "loyw3v28" {
		t.Errorf("expected base-36 millisecond prefix loyw3v28, got %q", parts[0])
	}
	if len(parts[1]) != 5 {
		t.Errorf("expected 5-char suffix, got %q", parts[1])
	}
	if uid == newUIDAt(1700000000000) {
		t.Error("expected distinct suffixes for equal timestamps")
	}
}

func TestDiagnosisKeysFallbackChain(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want []int
	}{
		{"explicit keys", Record{DiagnosisNos: []int{4, 9}}, []int{4, 9}},
		{"explicit keys truncated", Record{DiagnosisNos: []int{4, 9, 11}}, []int{4, 9}},
		{"legacy scalar", Record{LegacyDiagnosisNo: 7}, []int{7}},
		{"delimited string", Record{DiagnosisNoStr: "3+15"}, []int{3, 15}},
		{"delimited with junk", Record{DiagnosisNoStr: "3+x+15"}, []int{3, 15}},
		{"nothing", Record{}, nil},
	}
	for _, tt := range tests {
		got := tt.rec.DiagnosisKeys()
		if len(got) != len(tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
				break
			}
		}
	}
}

func TestNormalizedNamesFallbackChain(t *testing.T) {
	rec := Record{DiagnosisNames: []string{"Burn", "Scabies"}}
	if got := rec.NormalizedNames(); len(got) != 2 || got[0] != "Burn" {
		t.Errorf("explicit names: got %v", got)
	}

	rec = Record{DiagnosisNameStr: "Burn + Scabies"}
	if got := rec.NormalizedNames(); len(got) != 2 || got[1] != "Scabies" {
		t.Errorf("delimited names: got %v", got)
	}

	rec = Record{LegacyDiagnosisName: "Epilepsy"}
	if got := rec.NormalizedNames(); len(got) != 1 || got[0] != "Epilepsy" {
		t.Errorf("legacy name: got %v", got)
	}

	if got := (Record{}).NormalizedNames(); got != nil {
		t.Errorf("empty record: got %v", got)
	}
}

func TestExportProjectionsFallBack(t *testing.T) {
	rec := Record{DiagnosisNos: []int{5, 6}, DiagnosisNames: []string{"A", "B"}}
	if rec.DiagnosisNoText() != "5+6" {
		t.Errorf("got %q", rec.DiagnosisNoText())
	}
	if rec.DiagnosisNameText() != "A + B" {
		t.Errorf("got %q", rec.DiagnosisNameText())
	}

	rec = Record{LegacyDiagnosisNo: 8, LegacyDiagnosisName: "Other Skin Diseases"}
	if rec.DiagnosisNoText() != "8" {
		t.Errorf("got %q", rec.DiagnosisNoText())
	}
	if rec.DiagnosisNameText() != "Other Skin Diseases" {
		t.Errorf("got %q", rec.DiagnosisNameText())
	}
}
