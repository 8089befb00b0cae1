package http

import (
	"encoding/json"
	"net/http"

	"github.com/konbase/konbase/internal/domain"
	"github.com/konbase/konbase/internal/service"
	"github.com/konbase/konbase/pkg/httpx"
)

// AssociationHandler covers association and membership CRUD.
type AssociationHandler struct {
	Associations *service.AssociationService
}

type associationPayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type membershipPayload struct {
	AssociationID string `json:"association_id"`
	UserID        string `json:"user_id"`
	Role          string `json:"role"`
}

func toAssociationPayload(a domain.Association) associationPayload {
	return associationPayload{ID: a.ID, Name: a.Name, Description: a.Description}
}

func toMembershipPayload(m domain.Membership) membershipPayload {
	return membershipPayload{AssociationID: m.AssociationID, UserID: m.UserID, Role: m.Role.String()}
}

type createAssociationRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type associationResponse struct {
	response
	Association associationPayload `json:"association"`
}

// HandleCreate handles POST /v1/associations. The creator becomes the owner.
func (h *AssociationHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createAssociationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadJSON(w)
		return
	}
	if req.Name == "" {
		writeFailure(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}

	assoc, err := h.Associations.CreateAssociation(ctx, req.Name, req.Description, httpx.UserIDFromCtx(ctx))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, associationResponse{
		response:    response{Success: true},
		Association: toAssociationPayload(assoc),
	})
}

type associationListResponse struct {
	response
	Associations []associationPayload `json:"associations"`
}

// HandleList handles GET /v1/associations.
func (h *AssociationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	assocs, err := h.Associations.ListAssociations(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]associationPayload, 0, len(assocs))
	for _, a := range assocs {
		out = append(out, toAssociationPayload(a))
	}
	writeOK(w, associationListResponse{response: response{Success: true}, Associations: out})
}

// HandleGet handles GET /v1/associations/{id}.
func (h *AssociationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	assoc, err := h.Associations.GetAssociation(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w, associationResponse{
		response:    response{Success: true},
		Association: toAssociationPayload(assoc),
	})
}

type addMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type membershipResponse struct {
	response
	Membership membershipPayload `json:"membership"`
}

// HandleAddMember handles POST /v1/associations/{id}/members.
func (h *AssociationHandler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadJSON(w)
		return
	}

	role := domain.MembershipRoleMember
	if req.Role != "" {
		parsed, err := domain.ParseMembershipRole(req.Role)
		if err != nil {
			writeFailure(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		role = parsed
	}

	member, err := h.Associations.AddMember(r.Context(), r.PathValue("id"), req.UserID, role)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, membershipResponse{
		response:   response{Success: true},
		Membership: toMembershipPayload(member),
	})
}

// HandleRemoveMember handles DELETE /v1/associations/{id}/members/{userID}.
func (h *AssociationHandler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	err := h.Associations.RemoveMember(r.Context(), r.PathValue("id"), r.PathValue("userID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w, response{Success: true})
}

type membershipListResponse struct {
	response
	Memberships []membershipPayload `json:"memberships"`
}

// HandleListMembers handles GET /v1/associations/{id}/members.
func (h *AssociationHandler) HandleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.Associations.ListMembers(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]membershipPayload, 0, len(members))
	for _, m := range members {
		out = append(out, toMembershipPayload(m))
	}
	writeOK(w, membershipListResponse{response: response{Success: true}, Memberships: out})
}

// HandleMyMemberships handles GET /v1/profile/memberships: the caller's own
// memberships, fresh from the database rather than the token snapshot.
func (h *AssociationHandler) HandleMyMemberships(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	memberships, err := h.Associations.ListMembershipsByUser(ctx, httpx.UserIDFromCtx(ctx))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]membershipPayload, 0, len(memberships))
	for _, m := range memberships {
		out = append(out, toMembershipPayload(m))
	}
	writeOK(w, membershipListResponse{response: response{Success: true}, Memberships: out})
}
