package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Limud-specific validation errors
var (
	// ErrLimudIDEmpty is returned when a limud ID is empty or nil.
	ErrLimudIDEmpty = errors.New("limud ID cannot be empty")

	// ErrLimudUserIDEmpty is returned when a limud's user ID is empty or nil.
	ErrLimudUserIDEmpty = errors.New("limud user ID cannot be empty")

	// ErrLimudNameEmpty is returned when a limud's name is empty.
	ErrLimudNameEmpty = errors.New("limud name cannot be empty")
)

// Limud represents one subject of study. It groups the sections a user has
// learned and the review schedules attached to them.
type Limud struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewLimud creates a new Limud owned by the given user.
// It generates a new UUID for the limud ID and sets the creation/update timestamps.
// Returns an error if validation fails.
func NewLimud(userID uuid.UUID, name string) (*Limud, error) {
	limud := &Limud{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := limud.Validate(); err != nil {
		return nil, err
	}

	return limud, nil
}

// Validate checks if the Limud has valid data.
// Returns an error if any field fails validation.
func (l *Limud) Validate() error {
	if l.ID == uuid.Nil {
		return ErrLimudIDEmpty
	}

	if l.UserID == uuid.Nil {
		return ErrLimudUserIDEmpty
	}

	if l.Name == "" {
		return ErrLimudNameEmpty
	}

	return nil
}
