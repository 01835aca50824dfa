package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/chazara-api/internal/api/shared"
	"github.com/phrazzld/chazara-api/internal/domain"
	"github.com/phrazzld/chazara-api/internal/service"
	"github.com/phrazzld/chazara-api/internal/service/auth"
	"github.com/phrazzld/chazara-api/internal/service/review"
	"github.com/phrazzld/chazara-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes. Unknown
// errors fall through to 500 so internal error types never shape the API.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, service.ErrNotOwned):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, review.ErrSectionNotFound),
		errors.Is(err, review.ErrScheduleNotFound),
		errors.Is(err, review.ErrLimudNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrEmailExists):
		return http.StatusConflict

	// Schedule chain errors: the request was well-formed but the referenced
	// anchor chain cannot be satisfied.
	case errors.Is(err, service.ErrAnchorNotFound),
		errors.Is(err, service.ErrAnchorNotInLimud),
		errors.Is(err, store.ErrCycleDetected),
		errors.Is(err, review.ErrScheduleNotInLimud):
		return http.StatusUnprocessableEntity

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidRuleEncoding),
		isDomainValidationError(err):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// isDomainValidationError reports whether the error is one of the domain
// entity or rule validation sentinels. They surface when a request passes
// structural validation but fails a domain constraint.
func isDomainValidationError(err error) bool {
	for _, sentinel := range []error{
		domain.ErrLimudNameEmpty,
		domain.ErrSectionNameEmpty,
		domain.ErrSectionInitialDateZero,
		domain.ErrScheduleNameEmpty,
		domain.ErrScheduleRuleNil,
		domain.ErrScheduleSelfAnchor,
		domain.ErrRuleDueDateZero,
		domain.ErrRuleNegativeDelay,
		domain.ErrRuleNegativeActive,
		domain.ErrRuleAnchorEmpty,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// GetSafeErrorMessage returns a sanitized, user-friendly message for the
// error. Internal details never reach the client.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid refresh token"

	case errors.Is(err, service.ErrNotOwned):
		return "You do not own this resource"

	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, store.ErrLimudNotFound),
		errors.Is(err, review.ErrLimudNotFound):
		return "Limud not found"

	case errors.Is(err, store.ErrSectionNotFound),
		errors.Is(err, review.ErrSectionNotFound):
		return "Section not found"

	case errors.Is(err, store.ErrScheduleNotFound),
		errors.Is(err, review.ErrScheduleNotFound):
		return "Schedule not found"

	case errors.Is(err, store.ErrPointNotFound):
		return "Review point not found"

	case errors.Is(err, store.ErrEmailExists):
		return "Email already exists"

	case errors.Is(err, service.ErrAnchorNotFound):
		return "Anchor schedule not found"

	case errors.Is(err, service.ErrAnchorNotInLimud):
		return "Anchor schedule belongs to a different limud"

	case errors.Is(err, store.ErrCycleDetected):
		return "Schedule chain would form a cycle"

	case errors.Is(err, review.ErrScheduleNotInLimud):
		return "Section and schedule belong to different limudim"

	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation),
		isDomainValidationError(err):
		return "Invalid entity data"

	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID format"

	case errors.Is(err, domain.ErrInvalidRuleEncoding):
		return "Invalid schedule rule"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError maps the error to a status code and safe message and writes
// the response, logging the underlying error. An empty fallbackMessage keeps
// the mapped message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallbackMessage string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallbackMessage != "" {
		message = fallbackMessage
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}

// SanitizeValidationError converts a validator error into a user-friendly
// message without echoing submitted values back.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	if strings.Contains(errMsg, "Field validation") {
		// Example: "Key: 'LoginRequest.Email' Error:Field validation for 'Email' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, validationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "gt", "gte":
		return "too small"
	default:
		return "validation failed"
	}
}
