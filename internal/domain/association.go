package domain

import "time"

type Association struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Membership binds a user's profile to an association with a role scoped to
// that association only.
type Membership struct {
	AssociationID string
	UserID        string
	Role          MembershipRole
	CreatedAt     time.Time
}
