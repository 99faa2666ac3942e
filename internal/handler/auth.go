package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mindmeet/mindmeet/internal/domain"
	"github.com/mindmeet/mindmeet/internal/service"
)

// AuthHandler serves the /api/auth endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// HandleLogin authenticates credentials. Every failure is a 401.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusUnauthorized, authFailure("Invalid email or password"))
		return
	}

	res, err := h.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			slog.Error("login", "error", err)
		}
		writeJSON(w, http.StatusUnauthorized, authFailure("Invalid email or password"))
		return
	}

	writeJSON(w, http.StatusOK, authSuccess(res, "Login successful"))
}

// HandleRegister creates a LOCAL account and returns 201 with a token.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := readJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, authFailure("Invalid request body"))
		return
	}

	res, err := h.auth.Register(r.Context(), strings.TrimSpace(req.FullName), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, authFailure(registerMessage(err)))
		return
	}

	writeJSON(w, http.StatusCreated, authSuccess(res, "Registration successful"))
}

func registerMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrDuplicateEmail):
		return "Email is already registered"
	case errors.Is(err, domain.ErrWeakPassword):
		return "Password must be at least 8 characters long"
	case errors.Is(err, domain.ErrInvalidInput):
		return "Full name and email are required"
	default:
		slog.Error("register", "error", err)
		return "Registration failed"
	}
}

// HandleForgotPassword sends a reset link. The email may be given as a form
// or query parameter, or as a JSON body.
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	if email == "" && strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			Email string `json:"email"`
		}
		if err := readJSON(w, r, &body); err == nil {
			email = body.Email
		}
	}

	if err := h.auth.RequestPasswordReset(r.Context(), strings.TrimSpace(email)); err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			slog.Error("forgot password", "error", err)
		}
		writeJSON(w, http.StatusNotFound, authFailure("Unable to send password reset email"))
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Message: "Password reset email sent", Success: true})
}

// HandleResetPassword sets a new password from a reset token.
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := readJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, authFailure("Invalid request body"))
		return
	}

	if err := h.auth.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		msg := "Invalid or expired reset token"
		switch {
		case errors.Is(err, domain.ErrWeakPassword):
			msg = "Password must be at least 8 characters long"
		case errors.Is(err, domain.ErrInvalidToken), errors.Is(err, domain.ErrUserNotFound):
		default:
			slog.Error("reset password", "error", err)
		}
		writeJSON(w, http.StatusBadRequest, authFailure(msg))
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Message: "Password has been reset", Success: true})
}

// HandleValidateToken always answers 200 with a boolean body.
func (h *AuthHandler) HandleValidateToken(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.auth.ValidateToken(bearerToken(r)))
}

// HandleSocialLogin authenticates with a third-party provider token.
func (h *AuthHandler) HandleSocialLogin(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	res, err := h.auth.AuthenticateWithProvider(r.Context(), provider, r.FormValue("token"))
	if err != nil {
		if !errors.Is(err, domain.ErrUnsupported) {
			slog.Error("social login", "provider", provider, "error", err)
		}
		writeJSON(w, http.StatusUnauthorized, authFailure("Social login failed"))
		return
	}

	writeJSON(w, http.StatusOK, authSuccess(res, "Login successful"))
}

// HandleMe returns the authenticated user.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, toUserDTO(user))
}
