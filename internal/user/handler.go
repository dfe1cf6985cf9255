package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/redmonkez12/whisper-api/internal/auth"
	"github.com/redmonkez12/whisper-api/internal/httputil"
	"github.com/redmonkez12/whisper-api/internal/logging"
	"github.com/redmonkez12/whisper-api/internal/ratelimit"
	"github.com/redmonkez12/whisper-api/internal/reporting"
)

// Handler contains HTTP handlers for the /api/users endpoints
type Handler struct {
	service     *Service
	rateLimiter *ratelimit.Limiter
	reporter    reporting.Reporter
}

// NewHandler wires the user endpoints. A nil rateLimiter disables limiting.
func NewHandler(service *Service, rateLimiter *ratelimit.Limiter, reporter reporting.Reporter) *Handler {
	if reporter == nil {
		reporter = reporting.Nop{}
	}
	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
		reporter:    reporter,
	}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordRequest represents the password change request body
type ChangePasswordRequest struct {
	NewPassword       string `json:"newPassword"`
	NewPasswordRepeat string `json:"newPasswordRepeat"`
}

// Create handles user registration
// @Summary      Register a new user
// @Description  Create an account. username, email and password are required.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body RegisterInput true "Registration data"
// @Success      200 {object} httputil.Response
// @Failure      400 {object} httputil.Response "Missing fields or invalid profile"
// @Failure      429 {object} httputil.Response "Too many requests"
// @Failure      500 {object} httputil.Response "Duplicate email or username"
// @Router       /api/users/create [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if !h.allow(w, r, ratelimit.PurposeRegister) {
		return
	}

	var req RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		httputil.RespondError(w, httputil.MsgInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"username": req.Username})

	newUser, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, logger, "registration failed", err)
		return
	}

	logger.Info("user registered", "user_id", newUser.ID)
	httputil.RespondSuccess(w, httputil.Response{Message: httputil.MsgRegistrationSuccessful}, http.StatusOK)
}

// Login handles user login
// @Summary      Log in
// @Description  Exchange email and password for a session token valid for one hour.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} httputil.Response
// @Failure      400 {object} httputil.Response "Wrong password or missing fields"
// @Failure      404 {object} httputil.Response "User not found"
// @Failure      429 {object} httputil.Response "Too many requests"
// @Router       /api/users/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if !h.allow(w, r, ratelimit.PurposeLogin) {
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.RespondError(w, httputil.MsgInvalidRequestBody, http.StatusBadRequest)
		return
	}

	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondServiceError(w, logger, "login failed", err)
		return
	}

	logger.Info("user logged in")
	httputil.RespondSuccess(w, httputil.Response{
		Message: httputil.MsgLoginSuccessful,
		Token:   token,
	}, http.StatusOK)
}

// GetProfile returns a public profile
// @Summary      Get a profile
// @Description  Look a user up by username, or by id when no username matches. Never includes the password.
// @Tags         users
// @Produce      json
// @Param        username path string true "Username or user id"
// @Success      200 {object} httputil.Response{data=PublicProfile}
// @Failure      404 {object} httputil.Response "User not found"
// @Router       /api/users/{username} [get]
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	profile, err := h.service.GetProfile(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		h.respondServiceError(w, logger, "profile lookup failed", err)
		return
	}

	httputil.RespondSuccess(w, httputil.Response{Data: profile}, http.StatusOK)
}

// Update handles a self-service profile update
// @Summary      Update own profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ProfileUpdate true "Fields to change"
// @Success      200 {object} httputil.Response{data=User}
// @Failure      400 {object} httputil.Response "Invalid profile data"
// @Failure      401 {object} httputil.Response "Session expired"
// @Failure      403 {object} httputil.Response "Access denied"
// @Failure      404 {object} httputil.Response "User not found"
// @Router       /api/users/update [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, httputil.MsgAccessDenied, http.StatusForbidden)
		return
	}

	var req ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid profile update body", "error", err.Error())
		httputil.RespondError(w, httputil.MsgInvalidRequestBody, http.StatusBadRequest)
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), claims.UserID, req)
	if err != nil {
		h.respondServiceError(w, logger, "profile update failed", err)
		return
	}

	logger.Info("profile updated")
	httputil.RespondSuccess(w, httputil.Response{
		Message: httputil.MsgUpdateSuccessful,
		Data:    updated,
	}, http.StatusOK)
}

// ChangePassword handles a password change
// @Summary      Change own password
// @Description  Sets a new password. The old password is not required.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ChangePasswordRequest true "New password, twice"
// @Success      200 {object} httputil.Response
// @Failure      400 {object} httputil.Response "Passwords do not match or password too long"
// @Failure      401 {object} httputil.Response "Session expired"
// @Failure      403 {object} httputil.Response "Access denied"
// @Failure      404 {object} httputil.Response "User not found"
// @Router       /api/users/changePassword [patch]
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, httputil.MsgAccessDenied, http.StatusForbidden)
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid change password body", "error", err.Error())
		httputil.RespondError(w, httputil.MsgInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := h.service.ChangePassword(r.Context(), claims.UserID, req.NewPassword, req.NewPasswordRepeat); err != nil {
		h.respondServiceError(w, logger, "password change failed", err)
		return
	}

	logger.Info("password changed")
	httputil.RespondSuccess(w, httputil.Response{Message: httputil.MsgPasswordChanged}, http.StatusOK)
}

// Delete removes the caller's account
// @Summary      Delete own account
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} httputil.Response
// @Failure      401 {object} httputil.Response "Session expired"
// @Failure      403 {object} httputil.Response "Access denied"
// @Failure      404 {object} httputil.Response "User not found"
// @Router       /api/users/delete [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, httputil.MsgAccessDenied, http.StatusForbidden)
		return
	}

	if err := h.service.DeleteAccount(r.Context(), claims.UserID); err != nil {
		h.respondServiceError(w, logger, "account deletion failed", err)
		return
	}

	logger.Info("account deleted")
	httputil.RespondSuccess(w, httputil.Response{Message: httputil.MsgAccountDeleted}, http.StatusOK)
}

// allow applies the per-IP rate limit. Limiter failures let the request
// through.
func (h *Handler) allow(w http.ResponseWriter, r *http.Request, purpose string) bool {
	logger := logging.GetLoggerFromContext(r.Context())
	ip := httputil.ClientIP(r)

	ok, err := h.rateLimiter.Allow(r.Context(), purpose, ip)
	if err != nil {
		logger.Error("failed to check IP rate limit", "purpose", purpose, "error", err.Error())
		return true
	}
	if !ok {
		logger.Warn("IP rate limit exceeded", "purpose", purpose, "ip", ip)
		httputil.RespondError(w, httputil.MsgTooManyRequests, http.StatusTooManyRequests)
		return false
	}
	return true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, logger *logging.Logger, msg string, err error) {
	switch {
	case errors.Is(err, ErrMissingFields):
		logger.Warn(msg, "error", err.Error())
		httputil.RespondError(w, httputil.MsgRequiredFields, http.StatusBadRequest)
	case errors.Is(err, ErrInvalidProfile):
		logger.Warn(msg, "error", err.Error())
		httputil.RespondError(w, httputil.MsgInvalidProfile, http.StatusBadRequest)
	case errors.Is(err, ErrWrongPassword):
		logger.Warn(msg, "error", err.Error())
		httputil.RespondError(w, httputil.MsgWrongPassword, http.StatusBadRequest)
	case errors.Is(err, ErrPasswordMismatch):
		logger.Warn(msg, "error", err.Error())
		httputil.RespondError(w, httputil.MsgPasswordMismatch, http.StatusBadRequest)
	case errors.Is(err, ErrPasswordTooLong):
		logger.Warn(msg, "error", err.Error())
		httputil.RespondError(w, httputil.MsgPasswordTooLong, http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		logger.Warn(msg, "error", err.Error())
		httputil.RespondError(w, httputil.MsgUserNotFound, http.StatusNotFound)
	case errors.Is(err, ErrDuplicateEmailOrUsername):
		logger.Warn(msg, "error", err.Error())
		httputil.RespondError(w, httputil.StoreErrorMessage(err), http.StatusInternalServerError)
	default:
		logger.Error(msg, "error", err.Error())
		h.reporter.CaptureException(err)
		httputil.RespondError(w, httputil.StoreErrorMessage(err), http.StatusInternalServerError)
	}
}
