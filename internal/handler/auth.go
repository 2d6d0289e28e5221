package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/yourorg/drukstay/internal/observability/metrics"
	"github.com/yourorg/drukstay/internal/security/audit"
	"github.com/yourorg/drukstay/internal/security/auth"
	"github.com/yourorg/drukstay/internal/security/middleware"
	"github.com/yourorg/drukstay/internal/security/ratelimit"
	"github.com/yourorg/drukstay/internal/service"
)

// loginAttemptsPerWindow throttles credential guessing per client IP
const (
	loginAttemptsPerWindow = 10
	loginWindow            = time.Minute
)

// RegisterRequest carries the registration payload
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

// LoginRequest carries login credentials
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthHandler serves the register/login/logout/me endpoints
type AuthHandler struct {
	authService  *service.AuthService
	tokenManager *auth.TokenManager
	limiter      *ratelimit.Limiter
	auditLog     *audit.Logger
	validate     *validator.Validate
	logger       *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	authService *service.AuthService,
	tokenManager *auth.TokenManager,
	limiter *ratelimit.Limiter,
	auditLog *audit.Logger,
	logger *slog.Logger,
) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthHandler{
		authService:  authService,
		tokenManager: tokenManager,
		limiter:      limiter,
		auditLog:     auditLog,
		validate:     validator.New(),
		logger:       logger,
	}
}

// Register handles POST /api/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		metrics.ObserveAuth("register", "invalid")
		writeMessage(w, http.StatusBadRequest, "All fields (name, email, password, role) are required")
		return
	}

	user, err := h.authService.Register(req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		metrics.ObserveAuth("register", "failure")
		writeError(w, h.logger, err)
		return
	}

	metrics.ObserveAuth("register", "success")
	h.auditLog.LogRegistration(r.Context(), user.ID, user.Role, "created")
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Registration successful",
		"user":    user.Public(),
	})
}

// Login handles POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.limiter != nil && !h.limiter.AllowStrict(middleware.ClientIP(r), loginAttemptsPerWindow, loginWindow) {
		writeMessage(w, http.StatusTooManyRequests, "Too many login attempts")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		metrics.ObserveAuth("login", "failure")
		h.auditLog.LogLogin(r.Context(), "", "failed", "invalid credentials")
		writeError(w, h.logger, err)
		return
	}

	metrics.ObserveAuth("login", "success")
	h.auditLog.LogLogin(r.Context(), result.User.ID, "success", "")
	h.tokenManager.SetSessionCookie(w, result.Token)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    result.User,
	})
}

// Logout handles POST /api/logout. Always succeeds; the session token is
// stateless, so clearing the cookie is the whole operation.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.tokenManager.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// Me handles GET /api/user/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	profile, err := h.authService.CurrentUser(auth.TokenFromRequest(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpdateProfileRequest carries the PATCH /api/user/me payload; absent fields
// leave the stored value alone.
type UpdateProfileRequest struct {
	Name      *string `json:"name"`
	AvatarURL *string `json:"avatarUrl"`
}

// UpdateMe handles PATCH /api/user/me
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	profile, err := h.authService.UpdateProfile(auth.TokenFromRequest(r), service.ProfileUpdate{
		Name:      req.Name,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		h.auditLog.LogAction(r.Context(), "", "update_profile", "user", "", "failed", "")
		writeError(w, h.logger, err)
		return
	}

	h.auditLog.LogAction(r.Context(), profile.ID, "update_profile", "user", profile.ID, "success", "")
	writeJSON(w, http.StatusOK, profile)
}
