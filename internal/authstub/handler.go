package authstub

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"loginprobe/pkg/errors"
	"loginprobe/pkg/logger"
	"loginprobe/pkg/validator"
)

const (
	accessCookie  = "accessToken"
	refreshCookie = "refreshToken"
)

// Handler serves the /api/auth endpoints.
type Handler struct {
	service       *Service
	validator     *validator.Validator
	logger        logger.Logger
	secureCookies bool
	loginGuard    func(http.Handler) http.Handler
}

// NewHandler creates a new Handler. secureCookies marks cookies Secure.
func NewHandler(service *Service, val *validator.Validator, log logger.Logger, secureCookies bool) *Handler {
	return &Handler{
		service:       service,
		validator:     val,
		logger:        log,
		secureCookies: secureCookies,
	}
}

// WithLoginGuard wraps the login route only, e.g. with a rate limiter.
func (h *Handler) WithLoginGuard(mw func(http.Handler) http.Handler) *Handler {
	h.loginGuard = mw
	return h
}

// Register mounts the routes on r.
func (h *Handler) Register(r *mux.Router) {
	var login http.Handler = http.HandlerFunc(h.Login)
	if h.loginGuard != nil {
		login = h.loginGuard(login)
	}

	r.HandleFunc("/health", h.Health).Methods("GET")
	r.Handle("/api/auth/login", login).Methods("POST")
	r.HandleFunc("/api/auth/logout", h.Logout).Methods("POST")
	r.HandleFunc("/api/auth/refresh", h.Refresh).Methods("POST")
	r.HandleFunc("/api/auth/me", h.Me).Methods("GET")
}

type userResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Role  string    `json:"role"`
}

func toUserResponse(u *User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

// Login authenticates a user and sets token cookies.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Normalize()
	if details := h.validator.ValidateStructured(&req); details != nil {
		h.respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "Validation failed",
			"details": details,
		})
		return
	}

	result, err := h.service.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, errors.ErrInvalidCredentials) {
			h.logger.Warn("Login rejected", map[string]interface{}{"email": req.Email})
			h.respondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.logger.Error("Login failed", map[string]interface{}{"error": err.Error()})
		h.respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	h.setCookie(w, accessCookie, result.AccessToken, result.AccessExpiresAt)
	h.setCookie(w, refreshCookie, result.RefreshToken, result.RefreshExpiresAt)

	h.logger.Info("Login successful", map[string]interface{}{
		"user_id": result.User.ID.String(),
		"role":    result.User.Role,
	})
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Login successful",
		"user":    toUserResponse(result.User),
	})
}

// Logout clears both cookies.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearCookie(w, accessCookie)
	h.clearCookie(w, refreshCookie)
	h.respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// Refresh swaps a valid refresh cookie for a new access cookie.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(refreshCookie)
	if err != nil || c.Value == "" {
		h.respondError(w, http.StatusUnauthorized, "Refresh token required")
		return
	}

	token, expires, err := h.service.Refresh(r.Context(), c.Value)
	if err != nil {
		if errors.Is(err, errors.ErrInvalidCredentials) {
			h.respondError(w, http.StatusForbidden, "Invalid refresh token")
			return
		}
		h.logger.Error("Token refresh failed", map[string]interface{}{"error": err.Error()})
		h.respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	h.setCookie(w, accessCookie, token, expires)
	h.respondJSON(w, http.StatusOK, map[string]string{"message": "Token refreshed"})
}

// Me returns the user behind the access cookie or bearer token.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	token := ""
	if c, err := r.Cookie(accessCookie); err == nil {
		token = c.Value
	}
	if token == "" {
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimPrefix(auth, "Bearer ")
		}
	}
	if token == "" {
		h.respondError(w, http.StatusUnauthorized, "Access token required")
		return
	}

	user, err := h.service.Authenticate(r.Context(), token)
	if err != nil {
		h.respondError(w, http.StatusForbidden, "Invalid token")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"user": toUserResponse(user)})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "authstub"})
}

func (h *Handler) setCookie(w http.ResponseWriter, name, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
