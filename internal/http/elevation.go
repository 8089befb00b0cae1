package http

import (
	"encoding/json"
	"net/http"

	"github.com/konbase/konbase/internal/service"
	"github.com/konbase/konbase/pkg/httpx"
	"github.com/konbase/konbase/pkg/slogx"
)

// ElevationHandler exposes the privileged global-role transitions.
type ElevationHandler struct {
	Elevation *service.ElevationService
}

type elevateRequest struct {
	SecurityCode string `json:"security_code"`
}

type elevationResponse struct {
	response
	Role     string `json:"role"`
	Changed  bool   `json:"changed"`
	Redirect bool   `json:"redirect,omitempty"`
}

// HandleElevate handles POST /v1/admin/elevate.
func (h *ElevationHandler) HandleElevate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req elevateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadJSON(w)
		return
	}

	res, err := h.Elevation.Elevate(ctx, httpx.UserIDFromCtx(ctx), req.SecurityCode)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	log.Info("elevation handled", "changed", res.Changed)
	writeOK(w, elevationResponse{
		response: response{Success: true, Message: res.Message},
		Role:     res.Role.String(),
		Changed:  res.Changed,
	})
}

// HandleDemote handles POST /v1/admin/demote. The redirect flag tells the
// client to reload so its session token's stale role claim gets refreshed.
func (h *ElevationHandler) HandleDemote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	res, err := h.Elevation.Demote(ctx, httpx.UserIDFromCtx(ctx))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	log.Info("demotion handled", "changed", res.Changed)
	writeOK(w, elevationResponse{
		response: response{Success: true, Message: res.Message},
		Role:     res.Role.String(),
		Changed:  res.Changed,
		Redirect: res.Redirect,
	})
}
