package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/konbase/konbase/internal/domain"
	"github.com/konbase/konbase/internal/service"
	"github.com/konbase/konbase/internal/store"
)

// AuditHandler lists the append-only audit trail.
type AuditHandler struct {
	Audit *service.AuditService
}

type auditEntryPayload struct {
	ID         string            `json:"id"`
	Action     string            `json:"action"`
	EntityType string            `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	ActorID    string            `json:"actor_id"`
	Changes    map[string]string `json:"changes,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

type auditListResponse struct {
	response
	Entries []auditEntryPayload `json:"entries"`
	HasNext bool                `json:"has_next"`
}

// HandleList handles GET /v1/audit with entity_type/entity_id/actor_id
// filters and limit/offset paging.
func (h *AuditHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.AuditFilter{
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
		ActorID:    q.Get("actor_id"),
	}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))

	entries, hasNext, err := h.Audit.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]auditEntryPayload, 0, len(entries))
	for _, e := range entries {
		out = append(out, toAuditEntryPayload(e))
	}
	writeOK(w, auditListResponse{
		response: response{Success: true},
		Entries:  out,
		HasNext:  hasNext,
	})
}

func toAuditEntryPayload(e domain.AuditEntry) auditEntryPayload {
	return auditEntryPayload{
		ID:         e.ID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		ActorID:    e.ActorID,
		Changes:    e.Changes,
		CreatedAt:  e.CreatedAt,
	}
}
