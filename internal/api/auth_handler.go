package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/chazara-api/internal/api/shared"
	"github.com/phrazzld/chazara-api/internal/domain"
	"github.com/phrazzld/chazara-api/internal/platform/logger"
	"github.com/phrazzld/chazara-api/internal/service"
	"github.com/phrazzld/chazara-api/internal/service/auth"
	"github.com/phrazzld/chazara-api/internal/store"
)

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	userService      service.UserService
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	logger           *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(
	userService service.UserService,
	jwtService auth.JWTService,
	passwordVerifier auth.PasswordVerifier,
	log *slog.Logger,
) *AuthHandler {
	if userService == nil {
		panic("userService cannot be nil")
	}
	if jwtService == nil {
		panic("jwtService cannot be nil")
	}
	if passwordVerifier == nil {
		panic("passwordVerifier cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &AuthHandler{
		userService:      userService,
		jwtService:       jwtService,
		passwordVerifier: passwordVerifier,
		logger:           log.With(slog.String("component", "auth_handler")),
	}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req RegisterRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	user, err := h.userService.CreateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			shared.RespondWithError(w, r, http.StatusConflict, "Email already exists")
			return
		}
		if errors.Is(err, domain.ErrValidation) ||
			errors.Is(err, domain.ErrInvalidEmail) ||
			errors.Is(err, domain.ErrPasswordTooShort) ||
			errors.Is(err, domain.ErrPasswordTooLong) {
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid user data", err)
			return
		}
		HandleAPIError(w, r, err, "Failed to create user")
		return
	}

	h.respondWithTokenPair(w, r, log, user.ID, http.StatusCreated)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req LoginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	user, err := h.userService.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			// Same response as a wrong password, so the endpoint does not
			// reveal which emails are registered.
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		HandleAPIError(w, r, err, "Failed to authenticate user")
		return
	}

	if err := h.passwordVerifier.Compare(user.HashedPassword, req.Password); err != nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	h.respondWithTokenPair(w, r, log, user.ID, http.StatusOK)
}

// RefreshToken handles POST /auth/refresh. A valid refresh token is
// exchanged for a fresh access/refresh pair.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req RefreshTokenRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	h.respondWithTokenPair(w, r, log, claims.UserID, http.StatusOK)
}

func (h *AuthHandler) respondWithTokenPair(
	w http.ResponseWriter,
	r *http.Request,
	log *slog.Logger,
	userID uuid.UUID,
	status int,
) {
	ctx := r.Context()

	accessToken, err := h.jwtService.GenerateToken(ctx, userID)
	if err != nil {
		h.tokenFailure(w, r, log, err, userID)
		return
	}

	refreshToken, err := h.jwtService.GenerateRefreshToken(ctx, userID)
	if err != nil {
		h.tokenFailure(w, r, log, err, userID)
		return
	}

	shared.RespondWithJSON(w, r, status, AuthResponse{
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

func (h *AuthHandler) tokenFailure(
	w http.ResponseWriter,
	r *http.Request,
	log *slog.Logger,
	err error,
	userID uuid.UUID,
) {
	log.Error("failed to generate token",
		slog.String("error", err.Error()),
		slog.String("user_id", userID.String()))
	shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to generate authentication token")
}
