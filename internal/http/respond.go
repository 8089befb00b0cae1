package http

import (
	"errors"
	"net/http"

	"github.com/konbase/konbase/internal/service"
	"github.com/konbase/konbase/internal/store"
	"github.com/konbase/konbase/pkg/cryptox"
	"github.com/konbase/konbase/pkg/httpx"
	"github.com/konbase/konbase/pkg/slogx"
)

// response is the uniform JSON envelope. Extra payload fields are attached
// per endpoint via dedicated response structs embedding it.
type response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeOK(w http.ResponseWriter, v any) {
	httpx.WriteJSON(w, http.StatusOK, v)
}

func writeFailure(w http.ResponseWriter, code int, errCode, message string) {
	httpx.WriteJSON(w, code, response{Success: false, Error: errCode, Message: message})
}

func writeBadJSON(w http.ResponseWriter) {
	writeFailure(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
}

// writeServiceError maps service sentinels onto the error taxonomy:
// validation 400, authentication 401, authorization 403, configuration
// surfaced distinctly, unknown errors 500 with no internal detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	log := slogx.FromContext(r.Context())

	switch {
	case errors.Is(err, service.ErrInvalidCodeFormat):
		writeFailure(w, http.StatusBadRequest, "invalid_code_format", err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeFailure(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
	case errors.Is(err, service.ErrTwoFactorRequired):
		writeFailure(w, http.StatusUnauthorized, "2fa_required", "2FA code required")
	case errors.Is(err, service.ErrInvalidTOTPCode):
		writeFailure(w, http.StatusUnauthorized, "invalid_code", "Invalid 2FA code")
	case errors.Is(err, service.ErrInvalidRecoveryKey):
		writeFailure(w, http.StatusUnauthorized, "invalid_recovery_key", "Invalid recovery key")
	case errors.Is(err, service.ErrInvalidPassword):
		writeFailure(w, http.StatusUnauthorized, "invalid_password", "Invalid password")
	case errors.Is(err, service.ErrPasswordNotVerified):
		writeFailure(w, http.StatusBadRequest, "password_not_verified", err.Error())
	case errors.Is(err, service.ErrNoPendingAction):
		writeFailure(w, http.StatusBadRequest, "no_pending_action", err.Error())
	case errors.Is(err, cryptox.ErrNoPasswordSet):
		writeFailure(w, http.StatusBadRequest, "no_password_set", "No password is set for this account")
	case errors.Is(err, service.ErrTwoFactorMisconfigured):
		// Operator-correctable; distinct from a wrong code.
		writeFailure(w, http.StatusInternalServerError, "2fa_misconfigured", "2FA is enabled but not configured; contact an administrator")
	case errors.Is(err, service.ErrElevationNotConfigured):
		writeFailure(w, http.StatusInternalServerError, "elevation_not_configured", "Elevation is not configured; contact an administrator")
	case errors.Is(err, service.ErrInvalidSecurityCode):
		writeFailure(w, http.StatusUnauthorized, "invalid_security_code", "Invalid security code")
	case errors.Is(err, service.ErrElevationForbidden):
		writeFailure(w, http.StatusForbidden, "elevation_forbidden", err.Error())
	case errors.Is(err, service.ErrTwoFactorNotEnabled):
		writeFailure(w, http.StatusBadRequest, "2fa_not_enabled", err.Error())
	case errors.Is(err, service.ErrTwoFactorAlreadyEnabled):
		writeFailure(w, http.StatusBadRequest, "2fa_already_enabled", err.Error())
	case errors.Is(err, service.ErrEmailTaken):
		writeFailure(w, http.StatusConflict, "email_taken", err.Error())
	case errors.Is(err, service.ErrAlreadyMember):
		writeFailure(w, http.StatusConflict, "already_member", err.Error())
	case errors.Is(err, service.ErrUnknownAction):
		writeFailure(w, http.StatusBadRequest, "unknown_action", err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeFailure(w, http.StatusNotFound, "not_found", "Not found")
	default:
		log.Error("request failed", "error", err)
		writeFailure(w, http.StatusInternalServerError, "server_error", "Internal server error")
	}
}
