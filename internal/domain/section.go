package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Section-specific validation errors
var (
	// ErrSectionIDEmpty is returned when a section ID is empty or nil.
	ErrSectionIDEmpty = errors.New("section ID cannot be empty")

	// ErrSectionLimudIDEmpty is returned when a section's limud ID is empty or nil.
	ErrSectionLimudIDEmpty = errors.New("section limud ID cannot be empty")

	// ErrSectionNameEmpty is returned when a section's name is empty.
	ErrSectionNameEmpty = errors.New("section name cannot be empty")

	// ErrSectionInitialDateZero is returned when a section has no initial
	// learning date. The initial date anchors every delay rule that is not
	// chained to another schedule, so it is required.
	ErrSectionInitialDateZero = errors.New("section initial date cannot be zero")
)

// Section represents one studied unit within a limud, with the date it was
// initially learned. The initial date is the default anchor for delay rules.
// Sections are immutable after creation except for rename and initial-date
// edits.
type Section struct {
	ID          uuid.UUID `json:"id"`
	LimudID     uuid.UUID `json:"limud_id"`
	Name        string    `json:"name"`
	InitialDate time.Time `json:"initial_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewSection creates a new Section in the given limud with the given name
// and initial learning date. It generates a new UUID for the section ID and
// sets the creation/update timestamps. Returns an error if validation fails.
func NewSection(limudID uuid.UUID, name string, initialDate time.Time) (*Section, error) {
	section := &Section{
		ID:          uuid.New(),
		LimudID:     limudID,
		Name:        name,
		InitialDate: initialDate.UTC(),
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := section.Validate(); err != nil {
		return nil, err
	}

	return section, nil
}

// Validate checks if the Section has valid data.
// Returns an error if any field fails validation.
func (s *Section) Validate() error {
	if s.ID == uuid.Nil {
		return ErrSectionIDEmpty
	}

	if s.LimudID == uuid.Nil {
		return ErrSectionLimudIDEmpty
	}

	if s.Name == "" {
		return ErrSectionNameEmpty
	}

	if s.InitialDate.IsZero() {
		return ErrSectionInitialDateZero
	}

	return nil
}

// Rename updates the section's name and the UpdatedAt timestamp.
// Returns an error if the new name is invalid.
func (s *Section) Rename(name string) error {
	if name == "" {
		return ErrSectionNameEmpty
	}

	s.Name = name
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// ChangeInitialDate updates the section's initial learning date and the
// UpdatedAt timestamp. Derived review dates are recomputed on demand, so no
// other state needs to change. Returns an error if the new date is zero.
func (s *Section) ChangeInitialDate(initialDate time.Time) error {
	if initialDate.IsZero() {
		return ErrSectionInitialDateZero
	}

	s.InitialDate = initialDate.UTC()
	s.UpdatedAt = time.Now().UTC()
	return nil
}
