package http

import (
	"encoding/json"
	"net/http"

	"github.com/konbase/konbase/internal/service"
	"github.com/konbase/konbase/pkg/httpx"
	"github.com/konbase/konbase/pkg/slogx"
)

// AuthHandler covers the unauthenticated entry points: signup, login, and
// forgot-password.
type AuthHandler struct {
	Users    *service.UserService
	Sessions *service.SessionService
}

type signupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type signupResponse struct {
	response
	UserID string `json:"user_id"`
}

// HandleSignup handles POST /v1/auth/signup.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadJSON(w)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeFailure(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	user, err := h.Users.Signup(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, signupResponse{
		response: response{Success: true},
		UserID:   user.ID,
	})
}

type loginRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	TOTPCode    string `json:"totp_code,omitempty"`
	RecoveryKey string `json:"recovery_key,omitempty"`
}

type loginResponse struct {
	response
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// HandleLogin handles POST /v1/auth/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadJSON(w)
		return
	}

	res, err := h.Sessions.Login(r.Context(), service.LoginRequest{
		Email:       req.Email,
		Password:    req.Password,
		TOTPCode:    req.TOTPCode,
		RecoveryKey: req.RecoveryKey,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	log.Info("login succeeded", "user_id", res.User.ID, "amr", res.Claims.AMR)
	writeOK(w, loginResponse{
		response:  response{Success: true},
		Token:     res.Token,
		ExpiresAt: res.Claims.ExpiresAt.Unix(),
	})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// HandleForgotPassword handles POST /v1/auth/forgot-password. The response
// is identical whether or not the account exists.
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadJSON(w)
		return
	}

	if err := h.Users.ForgotPassword(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w, response{Success: true, Message: "If the account exists, a reset email has been sent"})
}
