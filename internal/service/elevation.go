package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"

	"github.com/konbase/konbase/internal/domain"
	"github.com/konbase/konbase/internal/store"
)

var (
	// ErrElevationNotConfigured means the shared elevation secret is unset.
	// Operator-correctable; never presented as a user mistake.
	ErrElevationNotConfigured = errors.New("elevation secret not configured")

	// ErrInvalidSecurityCode is the shared-secret mismatch on elevation.
	ErrInvalidSecurityCode = errors.New("invalid security code")

	// ErrElevationForbidden means the caller's current role is not
	// system_admin. The wrapped message names the actual role.
	ErrElevationForbidden = errors.New("only system administrators can be elevated")
)

// ElevationResult reports the outcome of an elevate or demote call.
type ElevationResult struct {
	// Changed is false for the idempotent no-op cases (already super_admin
	// on elevate, not super_admin on demote).
	Changed bool

	// Role is the user's global role after the call.
	Role domain.Role

	// Redirect tells the client to reload with a success flag so the stale
	// role claim in its session token gets refreshed. Set on demotion only.
	Redirect bool

	Message string
}

// ElevationService implements the two privileged global-role transitions:
// system_admin to super_admin (gated by a shared secret) and back. Both
// write best-effort audit entries; the role change never waits on, or rolls
// back for, the audit trail.
type ElevationService struct {
	Store  store.Store
	Audit  *AuditService
	Logger *slog.Logger

	// Secret is the process-wide elevation shared secret, read once at
	// startup.
	Secret string
}

// Elevate promotes a system_admin to super_admin when the submitted security
// code matches the shared secret. Calling it as a super_admin is an
// idempotent success.
func (s *ElevationService) Elevate(ctx context.Context, actorID, securityCode string) (ElevationResult, error) {
	if s.Secret == "" {
		return ElevationResult{}, ErrElevationNotConfigured
	}

	user, err := s.Store.Users().GetUserByID(ctx, actorID)
	if err != nil {
		return ElevationResult{}, fmt.Errorf("get user: %w", err)
	}

	switch user.Role {
	case domain.RoleSuperAdmin:
		return ElevationResult{
			Changed: false,
			Role:    domain.RoleSuperAdmin,
			Message: "already a super administrator",
		}, nil
	case domain.RoleSystemAdmin:
		// eligible, continue below
	default:
		return ElevationResult{}, fmt.Errorf("%w (current role: %s)", ErrElevationForbidden, user.Role)
	}

	if subtle.ConstantTimeCompare([]byte(securityCode), []byte(s.Secret)) != 1 {
		return ElevationResult{}, ErrInvalidSecurityCode
	}

	if err := s.Store.Users().UpdateRole(ctx, actorID, domain.RoleSuperAdmin); err != nil {
		return ElevationResult{}, fmt.Errorf("update role: %w", err)
	}
	s.audit(ctx, domain.AuditActionRoleElevated, actorID, user.Role, domain.RoleSuperAdmin)

	return ElevationResult{
		Changed: true,
		Role:    domain.RoleSuperAdmin,
		Message: "elevated to super administrator",
	}, nil
}

// Demote reverts a super_admin to system_admin. Demoting anyone who is not
// currently super_admin is a no-op success: the end state already holds, and
// no audit entry is written because no transition happened.
func (s *ElevationService) Demote(ctx context.Context, actorID string) (ElevationResult, error) {
	user, err := s.Store.Users().GetUserByID(ctx, actorID)
	if err != nil {
		return ElevationResult{}, fmt.Errorf("get user: %w", err)
	}

	if user.Role != domain.RoleSuperAdmin {
		return ElevationResult{
			Changed: false,
			Role:    user.Role,
			Message: "not a super administrator; nothing to demote",
		}, nil
	}

	if err := s.Store.Users().UpdateRole(ctx, actorID, domain.RoleSystemAdmin); err != nil {
		return ElevationResult{}, fmt.Errorf("update role: %w", err)
	}
	s.audit(ctx, domain.AuditActionRoleDemoted, actorID, user.Role, domain.RoleSystemAdmin)

	return ElevationResult{
		Changed:  true,
		Role:     domain.RoleSystemAdmin,
		Redirect: true,
		Message:  "demoted to system administrator",
	}, nil
}

// audit appends the role-transition entry. Failures are logged and swallowed;
// the role change has already landed and does not depend on the trail.
func (s *ElevationService) audit(ctx context.Context, action, actorID string, from, to domain.Role) {
	err := s.Audit.Record(ctx, domain.AuditEntry{
		Action:     action,
		EntityType: "user",
		EntityID:   actorID,
		ActorID:    actorID,
		Changes: map[string]string{
			"previous_role": from.String(),
			"new_role":      to.String(),
		},
	})
	if err != nil {
		s.Logger.Error("audit write failed", "action", action, "actor_id", actorID, "error", err)
	}
}
