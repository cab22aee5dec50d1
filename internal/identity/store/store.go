package store

import (
	"context"
	"errors"
	"time"

	"github.com/ethnicdev/gatehouse/internal/identity/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface implemented by each driver. Repos
// are reached through accessors so a Tx can hand out the same repos bound
// to the transaction.
type Store interface {
	Users() Users
	Roles() Roles
	Permissions() Permissions
	RevokedTokens() RevokedTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller MUST Commit or Rollback.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transaction scoped Store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user and its role names.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername is used when checking credentials and when
	// resolving a token subject.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// ListUsers returns every user ordered by username.
	ListUsers(ctx context.Context) ([]domain.User, error)

	// CreateUser inserts the user and its role assignments. A taken
	// username yields ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID, hash string) error

	// SetUserRoles replaces the user's role assignments.
	SetUserRoles(ctx context.Context, userID string, roles []string) error

	// DeleteUser removes the user; role assignments cascade.
	DeleteUser(ctx context.Context, userID string) error
}

type Roles interface {
	GetRole(ctx context.Context, name string) (domain.Role, error)

	ListRoles(ctx context.Context) ([]domain.Role, error)

	// RolesForUser returns the roles assigned to a user ordered by name.
	RolesForUser(ctx context.Context, userID string) ([]domain.Role, error)

	// CreateRole inserts or replaces a role definition.
	CreateRole(ctx context.Context, r domain.Role) error

	// DeleteRole removes a role; assignments to it cascade.
	DeleteRole(ctx context.Context, name string) error
}

type Permissions interface {
	// CreatePermission inserts or replaces a permission definition.
	CreatePermission(ctx context.Context, p domain.Permission) error

	ListPermissions(ctx context.Context) ([]domain.Permission, error)

	// DeletePermission removes the permission; roles granting it are not
	// rewritten.
	DeletePermission(ctx context.Context, name string) error
}

// RevokedTokens is the revocation store: the only shared mutable state the
// token lifecycle depends on.
type RevokedTokens interface {
	// RecordRevocation stores a revocation. Recording the same token id
	// again is a no-op, so concurrent revocations of one token all succeed.
	RecordRevocation(ctx context.Context, r domain.RevokedToken) error

	// IsRevoked reports whether a revocation exists for the token id.
	IsRevoked(ctx context.Context, tokenID string) (bool, error)

	// DeleteExpiredBefore purges records whose natural expiry is at or
	// before cutoff and returns how many were removed.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
