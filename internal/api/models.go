package api

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/chazara-api/internal/domain"
)

// dateLayout is the wire format for calendar dates. The engine works in
// whole days, so timestamps are never accepted for review dates.
const dateLayout = "2006-01-02"

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	UserID       uuid.UUID `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// CreateLimudRequest defines the payload for creating a limud.
type CreateLimudRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// LimudResponse represents a limud in API responses.
type LimudResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateSectionRequest defines the payload for adding a section to a limud.
type CreateSectionRequest struct {
	Name        string `json:"name"         validate:"required,max=200"`
	InitialDate string `json:"initial_date" validate:"required"`
}

// UpdateSectionRequest defines the payload for renaming a section or moving
// its initial learning date. Omitted fields are left unchanged.
type UpdateSectionRequest struct {
	Name        string `json:"name,omitempty"         validate:"omitempty,max=200"`
	InitialDate string `json:"initial_date,omitempty"`
}

// SectionResponse represents a section in API responses.
type SectionResponse struct {
	ID          uuid.UUID `json:"id"`
	LimudID     uuid.UUID `json:"limud_id"`
	Name        string    `json:"name"`
	InitialDate string    `json:"initial_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// RulePayload is the wire form of a schedule rule. Kind selects the variant;
// the remaining fields apply per kind:
//
//   - fixed: due_date
//   - horizontal: days_delayed, days_active, optional delayed_from_id
//   - vertical: sections_delay, days_active, optional max_days_active
type RulePayload struct {
	Kind          string     `json:"kind" validate:"required,oneof=fixed horizontal vertical"`
	DueDate       string     `json:"due_date,omitempty"`
	DelayedFromID *uuid.UUID `json:"delayed_from_id,omitempty"`
	DaysDelayed   *int       `json:"days_delayed,omitempty"`
	DaysActive    *int       `json:"days_active,omitempty"`
	SectionsDelay *int       `json:"sections_delay,omitempty"`
	MaxDaysActive *int       `json:"max_days_active,omitempty"`
}

// ToRule converts the payload into a domain schedule rule.
func (p RulePayload) ToRule() (domain.ScheduleRule, error) {
	switch p.Kind {
	case "fixed":
		if p.DueDate == "" {
			return nil, fmt.Errorf("%w: due_date is required for fixed rules", domain.ErrValidation)
		}
		due, err := time.ParseInLocation(dateLayout, p.DueDate, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%w: due_date must be formatted as %s", domain.ErrValidation, dateLayout)
		}
		return domain.FixedDueDate{Due: due}, nil

	case "horizontal":
		if p.DaysDelayed == nil || p.DaysActive == nil {
			return nil, fmt.Errorf("%w: days_delayed and days_active are required for horizontal rules", domain.ErrValidation)
		}
		return domain.HorizontalDelay{
			DelayedFromID: p.DelayedFromID,
			DaysDelayed:   *p.DaysDelayed,
			DaysActive:    *p.DaysActive,
		}, nil

	case "vertical":
		if p.SectionsDelay == nil || p.DaysActive == nil {
			return nil, fmt.Errorf("%w: sections_delay and days_active are required for vertical rules", domain.ErrValidation)
		}
		return domain.VerticalDelay{
			SectionsDelay: *p.SectionsDelay,
			DaysActive:    *p.DaysActive,
			MaxDaysActive: p.MaxDaysActive,
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown rule kind %q", domain.ErrValidation, p.Kind)
	}
}

// CreateScheduleRequest defines the payload for adding a review schedule to
// a limud.
type CreateScheduleRequest struct {
	Name   string      `json:"name" validate:"required,max=200"`
	Hidden bool        `json:"hidden"`
	Rule   RulePayload `json:"rule" validate:"required"`
}

// ScheduleResponse represents a review schedule in API responses. Rule
// carries the stable string encoding also used for persistence and backups.
type ScheduleResponse struct {
	ID            uuid.UUID  `json:"id"`
	LimudID       uuid.UUID  `json:"limud_id"`
	Name          string     `json:"name"`
	Hidden        bool       `json:"hidden"`
	DelayedFromID *uuid.UUID `json:"delayed_from_id,omitempty"`
	Rule          string     `json:"rule"`
	CreatedAt     time.Time  `json:"created_at"`
}

// PointResponse represents a review point snapshot in API responses.
// Terminal points carry a completion date (completed only) and no review
// window.
type PointResponse struct {
	SectionID      uuid.UUID `json:"section_id"`
	ScheduleID     uuid.UUID `json:"schedule_id"`
	Status         string    `json:"status"`
	ActiveDate     string    `json:"active_date,omitempty"`
	DueDate        string    `json:"due_date,omitempty"`
	CompletionDate string    `json:"completion_date,omitempty"`
}

// CompletePointRequest defines the payload for marking a point completed.
// An omitted date means today.
type CompletePointRequest struct {
	CompletedOn string `json:"completed_on,omitempty"`
}

// DashboardEntryResponse is one row of the limud dashboard.
type DashboardEntryResponse struct {
	SectionID    uuid.UUID `json:"section_id"`
	SectionName  string    `json:"section_name"`
	ScheduleID   uuid.UUID `json:"schedule_id"`
	ScheduleName string    `json:"schedule_name"`
	Status       string    `json:"status"`
	ActiveDate   string    `json:"active_date,omitempty"`
	DueDate      string    `json:"due_date,omitempty"`
}

// DashboardResponse is the full status dashboard for one limud.
type DashboardResponse struct {
	LimudID uuid.UUID                `json:"limud_id"`
	Entries []DashboardEntryResponse `json:"entries"`
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func limudToResponse(l *domain.Limud) LimudResponse {
	return LimudResponse{ID: l.ID, Name: l.Name, CreatedAt: l.CreatedAt}
}

func sectionToResponse(s *domain.Section) SectionResponse {
	return SectionResponse{
		ID:          s.ID,
		LimudID:     s.LimudID,
		Name:        s.Name,
		InitialDate: s.InitialDate.Format(dateLayout),
		CreatedAt:   s.CreatedAt,
	}
}

func scheduleToResponse(sc *domain.ScheduledChazara) ScheduleResponse {
	return ScheduleResponse{
		ID:            sc.ID,
		LimudID:       sc.LimudID,
		Name:          sc.Name,
		Hidden:        sc.Hidden,
		DelayedFromID: sc.DelayedFromID,
		Rule:          sc.Rule.Encode(),
		CreatedAt:     sc.CreatedAt,
	}
}
