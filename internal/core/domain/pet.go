package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Species enumerates supported pet species.
type Species string

const (
	SpeciesDog     Species = "dog"
	SpeciesCat     Species = "cat"
	SpeciesBird    Species = "bird"
	SpeciesRabbit  Species = "rabbit"
	SpeciesHamster Species = "hamster"
	SpeciesOther   Species = "other"
)

// Valid reports whether the species is one of the known values.
func (s Species) Valid() bool {
	switch s {
	case SpeciesDog, SpeciesCat, SpeciesBird, SpeciesRabbit, SpeciesHamster, SpeciesOther:
		return true
	}
	return false
}

// Gender enumerates pet genders.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Valid reports whether the gender is one of the known values.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

const (
	maxPetNameLength = 50
	maxPetAgeMonths  = 600
)

var (
	// ErrInvalidSpecies indicates an unknown species value.
	ErrInvalidSpecies = errors.New("invalid species")
	// ErrInvalidGender indicates an unknown gender value.
	ErrInvalidGender = errors.New("invalid gender")
	// ErrInvalidPetAge indicates the age is outside the accepted range.
	ErrInvalidPetAge = errors.New("age must be between 0 and 600 months")
	// ErrInvalidPetName indicates the pet name is empty or too long.
	ErrInvalidPetName = errors.New("pet name must be 1-50 characters")
)

// Vaccination records a single administered vaccine.
type Vaccination struct {
	VaccineName string     `json:"vaccineName"`
	Date        time.Time  `json:"date"`
	NextDueDate *time.Time `json:"nextDueDate,omitempty"`
	Notes       string     `json:"notes,omitempty"`
}

// Medication records an ongoing or past medication course.
type Medication struct {
	Name      string     `json:"name"`
	Dosage    string     `json:"dosage"`
	Frequency string     `json:"frequency"`
	StartDate time.Time  `json:"startDate"`
	EndDate   *time.Time `json:"endDate,omitempty"`
}

// Surgery records a surgical procedure.
type Surgery struct {
	Type  string    `json:"type"`
	Date  time.Time `json:"date"`
	Notes string    `json:"notes,omitempty"`
}

// MedicalHistory aggregates the health record of a pet. Persisted as a
// single JSONB document alongside the pet row.
type MedicalHistory struct {
	Vaccinations      []Vaccination `json:"vaccinations"`
	Allergies         []string      `json:"allergies"`
	ChronicConditions []string      `json:"chronicConditions"`
	Medications       []Medication  `json:"medications"`
	Surgeries         []Surgery     `json:"surgeries"`
}

// Pet mirrors the persisted representation in the pets table.
type Pet struct {
	ID              string
	OwnerID         string
	Name            string
	Species         Species
	Breed           string
	AgeMonths       int
	DateOfBirth     *time.Time
	Gender          Gender
	WeightKg        *float64
	Color           string
	MicrochipID     string
	MedicalHistory  MedicalHistory
	ProfileImageURL string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate checks the invariants a pet record must satisfy before it
// can be persisted.
func (p Pet) Validate() error {
	name := strings.TrimSpace(p.Name)
	if name == "" || len(name) > maxPetNameLength {
		return ErrInvalidPetName
	}
	if !p.Species.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSpecies, p.Species)
	}
	if !p.Gender.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidGender, p.Gender)
	}
	if p.AgeMonths < 0 || p.AgeMonths > maxPetAgeMonths {
		return ErrInvalidPetAge
	}
	if p.DateOfBirth != nil && p.DateOfBirth.After(time.Now()) {
		return errors.New("date of birth cannot be in the future")
	}
	return nil
}

// AgeInYears derives the pet's age in whole years.
func (p Pet) AgeInYears() int {
	return p.AgeMonths / 12
}
