package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewLimud(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	limud, err := NewLimud(userID, "Berachos")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if limud.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}
	if limud.UserID != userID {
		t.Errorf("Expected user ID %s, got %s", userID, limud.UserID)
	}
	if limud.Name != "Berachos" {
		t.Errorf("Expected name %q, got %q", "Berachos", limud.Name)
	}
	if limud.CreatedAt.IsZero() || limud.UpdatedAt.IsZero() {
		t.Error("Expected non-zero timestamps")
	}

	if _, err := NewLimud(uuid.Nil, "Berachos"); err != ErrLimudUserIDEmpty {
		t.Errorf("Expected ErrLimudUserIDEmpty, got %v", err)
	}
	if _, err := NewLimud(userID, ""); err != ErrLimudNameEmpty {
		t.Errorf("Expected ErrLimudNameEmpty, got %v", err)
	}
}
