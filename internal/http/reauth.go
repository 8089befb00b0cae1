package http

import (
	"encoding/json"
	"net/http"

	"github.com/konbase/konbase/internal/domain"
	"github.com/konbase/konbase/internal/service"
	"github.com/konbase/konbase/pkg/httpx"
	"github.com/konbase/konbase/pkg/slogx"
)

// ReauthHandler drives the step-up gate: registering a sensitive action,
// submitting credentials, and cancelling.
type ReauthHandler struct {
	Reauth *service.ReauthService
}

type reauthRequireRequest struct {
	Action    string            `json:"action"`
	Params    map[string]string `json:"params,omitempty"`
	AlwaysMFA bool              `json:"always_mfa,omitempty"`
}

type reauthRequireResponse struct {
	response
	Executed bool   `json:"executed"`
	State    string `json:"state"`
}

// HandleRequire handles POST /v1/admin/reauth/require. A fresh verification
// executes the action immediately; otherwise the intent parks in the gate's
// single pending slot until the password (and code) arrive.
func (h *ReauthHandler) HandleRequire(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req reauthRequireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadJSON(w)
		return
	}
	if req.Action == "" {
		writeFailure(w, http.StatusBadRequest, "invalid_request", "action is required")
		return
	}

	res, err := h.Reauth.Require(ctx, httpx.SIDFromCtx(ctx), httpx.UserIDFromCtx(ctx),
		domain.PendingIntent{Action: req.Action, Params: req.Params},
		service.ReauthOptions{AlwaysMFA: req.AlwaysMFA})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeOK(w, reauthRequireResponse{
		response: response{Success: true},
		Executed: res.Executed,
		State:    string(res.State),
	})
}

type verifyPasswordRequest struct {
	Password string `json:"password"`
}

type verifyPasswordResponse struct {
	response
	Requires2FA bool `json:"requires_2fa"`
	Executed    bool `json:"executed"`
}

// HandleVerifyPassword handles POST /v1/admin/verify-password.
func (h *ReauthHandler) HandleVerifyPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req verifyPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadJSON(w)
		return
	}

	res, err := h.Reauth.SubmitPassword(ctx, httpx.SIDFromCtx(ctx), httpx.UserIDFromCtx(ctx), req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	msg := "verified"
	if res.Requires2FA {
		msg = "password accepted; 2FA code required"
	}
	log.Info("step-up password verified", "requires_2fa", res.Requires2FA)
	writeOK(w, verifyPasswordResponse{
		response:    response{Success: true, Message: msg},
		Requires2FA: res.Requires2FA,
		Executed:    res.Executed,
	})
}

type verifyCodeRequest struct {
	TOTPCode string `json:"totp_code"`
}

type verifyCodeResponse struct {
	response
	Executed bool `json:"executed"`
}

// HandleVerifyCode handles POST /v1/admin/verify-2fa.
func (h *ReauthHandler) HandleVerifyCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req verifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadJSON(w)
		return
	}

	res, err := h.Reauth.SubmitCode(ctx, httpx.SIDFromCtx(ctx), httpx.UserIDFromCtx(ctx), req.TOTPCode)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w, verifyCodeResponse{
		response: response{Success: true, Message: "verified"},
		Executed: res.Executed,
	})
}

// HandleCancel handles POST /v1/admin/reauth/cancel. The pending action is
// discarded and can no longer execute.
func (h *ReauthHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	h.Reauth.Cancel(httpx.SIDFromCtx(r.Context()))
	writeOK(w, response{Success: true, Message: "cancelled"})
}
