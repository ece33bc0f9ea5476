// Package catalog holds the clinic's static reference data: gender,
// age-bucket, diagnosis, and disposition enumerations. The tables are
// fixed for the process lifetime; accessors return copies so callers can
// never mutate the source.
package catalog

// Category classifies a diagnosis as medical or surgical.
type Category string

const (
	CategoryMedical  Category = "Medical"
	CategorySurgical Category = "Surgical"
)

// WWNA is the ww flag value for every non-surgical record.
const WWNA = "NA"

// Diagnosis is one entry of the clinic taxonomy.
type Diagnosis struct {
	No       int      `json:"no"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
}

// AgeBucket pairs a stable key with its display label.
type AgeBucket struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

var genders = []string{"Male", "Female"}

var ageBuckets = []AgeBucket{
	{Key: "Under5", Label: "<5"},
	{Key: "FiveToFourteen", Label: "5-14"},
	{Key: "FifteenToSeventeen", Label: "15-17"},
	{Key: "EighteenPlus", Label: "≥18"},
}

var wwOptions = []string{"WW", "NonWW"}

var dispositions = []string{"Discharged", "Admitted", "Referred to ED", "Referred out"}

var diagnoses = []Diagnosis{
	{1, "Respiratory Tract Infection", CategoryMedical},
	{2, "Acute Watery Diarrhea", CategoryMedical},
	{3, "Acute Bloody Diarrhea", CategoryMedical},
	{4, "Acute Viral Hepatitis", CategoryMedical},
	{5, "Other GI Diseases", CategoryMedical},
	{6, "Scabies", CategoryMedical},
	{7, "Skin Infection", CategoryMedical},
	{8, "Other Skin Diseases", CategoryMedical},
	{9, "Genitourinary Diseases", CategoryMedical},
	{10, "Musculoskeletal Diseases", CategoryMedical},
	{11, "Hypertension", CategoryMedical},
	{12, "Diabetes", CategoryMedical},
	{13, "Epilepsy", CategoryMedical},
	{14, "Eye Diseases", CategoryMedical},
	{15, "ENT Diseases", CategoryMedical},
	{16, "Other Medical Diseases", CategoryMedical},
	{17, "Fracture", CategorySurgical},
	{18, "Burn", CategorySurgical},
	{19, "Gunshot Wound (GSW)", CategorySurgical},
	{20, "Other Wound", CategorySurgical},
	{21, "Other Surgical", CategorySurgical},
}

var diagnosisByNo = func() map[int]Diagnosis {
	m := make(map[int]Diagnosis, len(diagnoses))
	for _, d := range diagnoses {
		m[d.No] = d
	}
	return m
}()

// Genders returns the gender enumeration in fixed order.
func Genders() []string { return append([]string(nil), genders...) }

// AgeBuckets returns the four age buckets in fixed order.
func AgeBuckets() []AgeBucket { return append([]AgeBucket(nil), ageBuckets...) }

// WWOptions returns the surgical sub-classification options.
func WWOptions() []string { return append([]string(nil), wwOptions...) }

// Dispositions returns the disposition enumeration in fixed order.
func Dispositions() []string { return append([]string(nil), dispositions...) }

// Diagnoses returns the full taxonomy in numeric order.
func Diagnoses() []Diagnosis { return append([]Diagnosis(nil), diagnoses...) }

// LookupDiagnosis returns the entry for a numeric key. Unknown keys report
// ok=false; there is no error path.
func LookupDiagnosis(no int) (Diagnosis, bool) {
	d, ok := diagnosisByNo[no]
	return d, ok
}

// LookupAgeBucket returns the bucket for a key, or ok=false.
func LookupAgeBucket(key string) (AgeBucket, bool) {
	for _, b := range ageBuckets {
		if b.Key == key {
			return b, true
		}
	}
	return AgeBucket{}, false
}

// ValidGender reports whether g is one of the fixed gender values.
func ValidGender(g string) bool {
	for _, v := range genders {
		if v == g {
			return true
		}
	}
	return false
}

// ValidDisposition reports whether d is one of the fixed dispositions.
func ValidDisposition(d string) bool {
	for _, v := range dispositions {
		if v == d {
			return true
		}
	}
	return false
}

// ValidWW reports whether w is a selectable ww option ("NA" is not
// selectable, it is derived).
func ValidWW(w string) bool {
	for _, v := range wwOptions {
		if v == w {
			return true
		}
	}
	return false
}
