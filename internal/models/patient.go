// Package models defines the patient record, its medication log and the
// per-identity mapping persisted by the store backends.
package models

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/patientkeeper/internal/common"
)

// Vital sign bounds accepted by Validate.
const (
	MinAge = 0
	MaxAge = 120
)

// TimestampLayout is the wall-clock format stamped on medication entries.
const TimestampLayout = "2006-01-02 15:04:05"

// Gender classifies a patient.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// Genders lists the accepted values in display order.
var Genders = []Gender{GenderMale, GenderFemale, GenderOther}

func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// ParseGender matches s against Genders ignoring case and surrounding space.
func ParseGender(s string) (Gender, error) {
	s = strings.TrimSpace(s)
	for _, g := range Genders {
		if strings.EqualFold(s, string(g)) {
			return g, nil
		}
	}
	return "", fmt.Errorf("%w: unknown gender %q", common.ErrValidation, s)
}

// MedicationEntry is one line of a patient's medication log. Medication and
// Dosage are free text here; the closed choice lists live in the client.
type MedicationEntry struct {
	Medication string `json:"Medication"`
	Dosage     string `json:"Dosage"`
	Timestamp  string `json:"Timestamp"`
}

// NewMedicationEntry stamps an entry with at, formatted with TimestampLayout.
func NewMedicationEntry(medication, dosage string, at time.Time) MedicationEntry {
	return MedicationEntry{Medication: medication, Dosage: dosage, Timestamp: FormatTimestamp(at)}
}

func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// PatientRecord holds vitals and the ordered medication log of one patient.
// Name is the key in Patients and is not part of the serialized value.
type PatientRecord struct {
	Name                  string            `json:"-"`
	Age                   int               `json:"Age"`
	Weight                float64           `json:"Weight"`
	Gender                Gender            `json:"Gender"`
	Height                float64           `json:"Height"`
	SocialInsuranceNumber string            `json:"SV_Number"`
	Medications           []MedicationEntry `json:"Medications"`
}

// Validate checks the vitals. Medication entries are not inspected.
func (p PatientRecord) Validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("%w: name is required", common.ErrValidation)
	case p.Age < MinAge || p.Age > MaxAge:
		return fmt.Errorf("%w: age must be between %d and %d", common.ErrValidation, MinAge, MaxAge)
	case !nonNegativeFinite(p.Weight):
		return fmt.Errorf("%w: weight must be a finite non-negative number", common.ErrValidation)
	case !nonNegativeFinite(p.Height):
		return fmt.Errorf("%w: height must be a finite non-negative number", common.ErrValidation)
	case !p.Gender.IsValid():
		return fmt.Errorf("%w: unknown gender %q", common.ErrValidation, p.Gender)
	}
	return nil
}

func nonNegativeFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0) && x >= 0
}

// Clone returns a deep copy. The medication slice of the copy is never nil.
func (p PatientRecord) Clone() PatientRecord {
	out := p
	out.Medications = make([]MedicationEntry, len(p.Medications))
	copy(out.Medications, p.Medications)
	return out
}

// Patients maps patient name to record for one identity.
type Patients map[string]PatientRecord

// Clone deep-copies the mapping and re-keys every record's Name.
func (ps Patients) Clone() Patients {
	out := make(Patients, len(ps))
	for name, rec := range ps {
		c := rec.Clone()
		c.Name = name
		out[name] = c
	}
	return out
}

// Names returns the patient names in ascending order.
func (ps Patients) Names() []string {
	names := make([]string, 0, len(ps))
	for name := range ps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
