package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/konbase/konbase/internal/domain"
	"github.com/konbase/konbase/internal/store"
	"github.com/konbase/konbase/pkg/idx"
)

var ErrAlreadyMember = errors.New("already a member of this association")

// AssociationService manages associations and their memberships. Membership
// roles are scoped to one association and independent of a user's global
// role.
type AssociationService struct {
	Store store.Store
}

// CreateAssociation creates the association and makes the creator its owner
// in the same transaction.
func (s *AssociationService) CreateAssociation(ctx context.Context, name, description, creatorID string) (domain.Association, error) {
	now := time.Now().UTC()
	assoc := domain.Association{
		ID:          idx.New().String(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Associations().CreateAssociation(ctx, assoc); err != nil {
			return fmt.Errorf("create association: %w", err)
		}
		member := domain.Membership{
			AssociationID: assoc.ID,
			UserID:        creatorID,
			Role:          domain.MembershipRoleOwner,
			CreatedAt:     now,
		}
		if err := tx.Memberships().CreateMembership(ctx, member); err != nil {
			return fmt.Errorf("create owner membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Association{}, err
	}
	return assoc, nil
}

// GetAssociation fetches one association by id.
func (s *AssociationService) GetAssociation(ctx context.Context, id string) (domain.Association, error) {
	return s.Store.Associations().GetAssociationByID(ctx, id)
}

// ListAssociations returns all associations.
func (s *AssociationService) ListAssociations(ctx context.Context) ([]domain.Association, error) {
	return s.Store.Associations().ListAssociations(ctx)
}

// AddMember binds a user to an association with a scoped role.
func (s *AssociationService) AddMember(ctx context.Context, associationID, userID string, role domain.MembershipRole) (domain.Membership, error) {
	member := domain.Membership{
		AssociationID: associationID,
		UserID:        userID,
		Role:          role,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.Store.Memberships().CreateMembership(ctx, member); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Membership{}, ErrAlreadyMember
		}
		return domain.Membership{}, err
	}
	return member, nil
}

// RemoveMember removes a user from an association.
func (s *AssociationService) RemoveMember(ctx context.Context, associationID, userID string) error {
	return s.Store.Memberships().DeleteMembership(ctx, associationID, userID)
}

// UpdateMemberRole changes a member's association-scoped role.
func (s *AssociationService) UpdateMemberRole(ctx context.Context, associationID, userID string, role domain.MembershipRole) error {
	return s.Store.Memberships().UpdateMembershipRole(ctx, associationID, userID, role)
}

// ListMembers returns all memberships of an association.
func (s *AssociationService) ListMembers(ctx context.Context, associationID string) ([]domain.Membership, error) {
	return s.Store.Memberships().ListMembersByAssociation(ctx, associationID)
}

// ListMembershipsByUser returns a user's memberships across associations.
func (s *AssociationService) ListMembershipsByUser(ctx context.Context, userID string) ([]domain.Membership, error) {
	return s.Store.Memberships().ListMembershipsByUser(ctx, userID)
}
