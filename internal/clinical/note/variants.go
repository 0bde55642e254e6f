// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package note

import "time"

// Date is a calendar date with day precision, used throughout the
// temporal model instead of time.Time to avoid timezone noise — clinical
// notes carry no timezone information.
type Date struct {
	Year  int
	Month int
	Day   int
}

// ToTime renders the Date as a UTC midnight time.Time for arithmetic.
func (d Date) ToTime() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date offset by n days (n may be negative).
func (d Date) AddDays(n int) Date {
	t := d.ToTime().AddDate(0, 0, n)
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// Before reports whether d is strictly before o.
func (d Date) Before(o Date) bool { return d.ToTime().Before(o.ToTime()) }

// After reports whether d is strictly after o.
func (d Date) After(o Date) bool { return d.ToTime().After(o.ToTime()) }

// IsZero reports whether d is the zero value (unset).
func (d Date) IsZero() bool { return d.Year == 0 && d.Month == 0 && d.Day == 0 }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.ToTime().Format("2006-01-02")
}

// Demographic is the KindDemographic variant payload.
type Demographic struct {
	Age    *int
	Sex    string // "M", "F", or "" if not documented
	MRN    string
	Name   string
}

// DateFactKind discriminates which named date a KindDate entity carries.
type DateFactKind string

const (
	DateAdmission DateFactKind = "admission"
	DateSurgery   DateFactKind = "surgery"
	DateDischarge DateFactKind = "discharge"
	DateIctus     DateFactKind = "ictus"
)

// DateFact is the KindDate variant payload.
type DateFact struct {
	Which DateFactKind
	Value Date
}

// Procedure is the KindProcedure variant payload.
type Procedure struct {
	Name string
	// NormalizedName is the canonical spelling drawn from the
	// knowledge pack's alias table, used for matching/dedup.
	NormalizedName string
	Date           *Date
	Surgeon        string
}

// Complication is the KindComplication variant payload.
type Complication struct {
	Name           string
	NormalizedName string
	Date           *Date
	// LinkedProcedure is the normalized name of a causally adjacent
	// procedure, set by the Temporal Engine's causal-adjacency pass.
	LinkedProcedure string
}

// MedicationPhase classifies when a medication was given, relative to
// surgery.
type MedicationPhase string

const (
	MedPhasePreOp    MedicationPhase = "pre-op"
	MedPhasePostOp   MedicationPhase = "post-op"
	MedPhaseDischarge MedicationPhase = "discharge"
)

// Medication is the KindMedication variant payload.
type Medication struct {
	Name           string
	NormalizedName string
	Dose           string
	Route          string
	Frequency      string
	Phase          MedicationPhase
	// LinkedComplication is the normalized name of the complication
	// this medication's indication traces back to, if any (used by
	// the Validator's cross-field consistency check).
	LinkedComplication string
}

// ImagingTiming classifies pre-op vs post-op imaging.
type ImagingTiming string

const (
	ImagingPreOp  ImagingTiming = "pre-op"
	ImagingPostOp ImagingTiming = "post-op"
)

// ImagingFinding is the KindImagingFinding variant payload.
type ImagingFinding struct {
	Modality string // CT, MRI, etc.
	Finding  string
	Timing   ImagingTiming
	Date     *Date
}

// FunctionalScore is the KindFunctionalScore variant payload (e.g. GCS,
// Hunt-Hess, mRS, ASIA).
type FunctionalScore struct {
	ScaleName string
	Value     float64
	MaxValue  float64 // documented range ceiling, for Invariant/P8 checks
	Date      *Date
	// FromPTOT marks this score as sourced from a PT/OT note, which the
	// Context Builder may flag as the gold standard for functional
	// status (§4.2).
	FromPTOT bool
}

// NeuroExam is the KindNeuroExam variant payload: a single documented
// neurological exam finding at a point in time.
type NeuroExam struct {
	Finding string
	Date    *Date
}

// Consultation is the KindConsultation variant payload.
type Consultation struct {
	Service string // PT/OT, ID, Psychiatry, Neurology, etc.
	Note    string
	Date    *Date
}

// Diagnosis is the KindDiagnosis variant payload.
type Diagnosis struct {
	Name      string
	Primary   bool
	Pathology Pathology
}

// FollowUp is the KindFollowUp variant payload.
type FollowUp struct {
	Service  string
	Interval string // e.g. "2 weeks", "6 months"
	Instructions string
}

// DischargeDisposition is the KindDischargeDisposition variant payload:
// where the patient went at discharge (home, a facility, or deceased).
type DischargeDisposition struct {
	Value string // e.g. "home", "acute rehab", "skilled nursing facility", "hospice", "expired"
}
