package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/konbase/konbase/internal/service"
	"github.com/konbase/konbase/pkg/httpx"
	"github.com/konbase/konbase/pkg/slogx"
)

// TOTPHandler manages a user's 2FA lifecycle.
type TOTPHandler struct {
	MFA *service.MFAService
}

type totpSetupResponse struct {
	response
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauth_url"`
}

// HandleSetup handles POST /v1/users/totp. The secret is returned for QR
// rendering but not persisted; enabling requires proving possession.
func (h *TOTPHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	setup, err := h.MFA.Setup(ctx, httpx.UserIDFromCtx(ctx))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w, totpSetupResponse{
		response:   response{Success: true},
		Secret:     setup.Secret,
		OTPAuthURL: setup.OTPAuthURL,
	})
}

type totpEnableRequest struct {
	Secret string `json:"secret"`
	Token  string `json:"token"`
}

type totpEnableResponse struct {
	response
	Recovery []string `json:"recovery"`
}

// HandleEnable handles PATCH /v1/users/totp. The recovery keys in the
// response are shown exactly once.
func (h *TOTPHandler) HandleEnable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req totpEnableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadJSON(w)
		return
	}

	keys, err := h.MFA.Enable(ctx, httpx.UserIDFromCtx(ctx), req.Secret, req.Token)
	if err != nil {
		// A wrong code during enrollment is a 400: the user typed the code
		// from a freshly-provisioned secret, not a login credential.
		if errors.Is(err, service.ErrInvalidTOTPCode) {
			writeFailure(w, http.StatusBadRequest, "invalid_code", "Invalid code")
			return
		}
		writeServiceError(w, r, err)
		return
	}

	log.Info("2FA enabled")
	writeOK(w, totpEnableResponse{
		response: response{Success: true},
		Recovery: keys,
	})
}

// HandleDisable handles DELETE /v1/users/totp, clearing the secret and all
// recovery keys.
func (h *TOTPHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := h.MFA.Disable(ctx, httpx.UserIDFromCtx(ctx)); err != nil {
		writeServiceError(w, r, err)
		return
	}

	log.Info("2FA disabled")
	writeOK(w, response{Success: true})
}
