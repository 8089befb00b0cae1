package store

import (
	"context"
	"errors"

	"github.com/konbase/konbase/internal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access facade. Concrete drivers (postgres, sqlite)
// implement it. Postgres is the canonical backend; sqlite exists for local
// setup and tests. Sub-repositories keep concerns separated and make the
// transaction boundary explicit. Every query binds parameters positionally;
// no driver ever interpolates values into SQL.
type Store interface {
	Users() Users
	Profiles() Profiles
	Associations() Associations
	Memberships() Memberships
	RecoveryKeys() RecoveryKeys
	AuditLog() AuditLog

	// ApplyMigrations brings the schema up to date and reports which
	// migration files were applied and which were skipped as already
	// present.
	ApplyMigrations(ctx context.Context) (domain.MigrationReport, error)

	// Tx starts a read/write transaction scoped Store. The caller MUST call
	// Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn inside a transaction, committing on nil and rolling
	// back on error. Preferred over Tx for multi-step mutations.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Ping verifies the backend is reachable. Cheap and side-effect free;
	// the health endpoint measures its latency.
	Ping(ctx context.Context) error

	// Close releases the underlying pool/handle.
	Close() error
}

// Tx is a transaction-scoped store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks a user up for login. Email comparison is
	// case-insensitive (stored lower-cased).
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is app-provided ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash replaces the stored hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error

	// UpdateRole sets the global role and bumps updated_at.
	UpdateRole(ctx context.Context, userID string, role domain.Role) error
}

type Profiles interface {
	// GetProfile returns the profile for a user.
	GetProfile(ctx context.Context, userID string) (domain.Profile, error)

	// CreateProfile inserts the 1:1 profile row.
	CreateProfile(ctx context.Context, p domain.Profile) error

	// UpdateDisplayName mutates the display name.
	UpdateDisplayName(ctx context.Context, userID, displayName string) error

	// EnableTwoFactor persists the TOTP secret and stamps the enabled-at
	// timestamp in one statement.
	EnableTwoFactor(ctx context.Context, userID, secret string) error

	// DisableTwoFactor clears both the secret and the enabled flag.
	DisableTwoFactor(ctx context.Context, userID string) error
}

type Associations interface {
	GetAssociationByID(ctx context.Context, id string) (domain.Association, error)
	CreateAssociation(ctx context.Context, a domain.Association) error
	ListAssociations(ctx context.Context) ([]domain.Association, error)
}

type Memberships interface {
	// CreateMembership binds a user to an association with a scoped role.
	CreateMembership(ctx context.Context, m domain.Membership) error

	// GetMembership returns a single membership row.
	GetMembership(ctx context.Context, associationID, userID string) (domain.Membership, error)

	// ListMembershipsByUser returns a user's memberships across all
	// associations; snapshotted into session tokens at login.
	ListMembershipsByUser(ctx context.Context, userID string) ([]domain.Membership, error)

	// ListMembersByAssociation returns all memberships of an association.
	ListMembersByAssociation(ctx context.Context, associationID string) ([]domain.Membership, error)

	// UpdateMembershipRole changes the association-scoped role.
	UpdateMembershipRole(ctx context.Context, associationID, userID string, role domain.MembershipRole) error

	// DeleteMembership removes a member from an association.
	DeleteMembership(ctx context.Context, associationID, userID string) error
}

type RecoveryKeys interface {
	// CreateRecoveryKey stores one fingerprinted recovery key.
	CreateRecoveryKey(ctx context.Context, userID, keyHash string) error

	// ConsumeRecoveryKey deletes the key if present and reports whether it
	// existed. Single use by construction.
	ConsumeRecoveryKey(ctx context.Context, userID, keyHash string) (bool, error)

	// DeleteAllRecoveryKeys wipes a user's keys (2FA disable/regenerate).
	DeleteAllRecoveryKeys(ctx context.Context, userID string) error

	// CountRecoveryKeys returns how many unused keys remain.
	CountRecoveryKeys(ctx context.Context, userID string) (int, error)
}

type AuditLog interface {
	// AppendAuditEntry writes one append-only entry.
	AppendAuditEntry(ctx context.Context, e domain.AuditEntry) error

	// ListAuditEntries returns newest-first entries matching the filter.
	ListAuditEntries(ctx context.Context, f AuditFilter) ([]domain.AuditEntry, error)
}

// AuditFilter narrows and pages audit listings. Zero values mean "any".
type AuditFilter struct {
	EntityType string
	EntityID   string
	ActorID    string
	Limit      int
	Offset     int
}
