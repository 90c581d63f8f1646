// Package directory defines the durable user record store consumed by the
// authcore engine, together with the User model it persists.
//
// Implementations live in sub-packages: directory/memory for tests and local
// runs, directory/sqlstore for Postgres and SQLite.
package directory

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no user matches a lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicate is returned when a create or update would violate a
	// uniqueness constraint on email, username or phone.
	ErrDuplicate = errors.New("user already exists")
)

// AccountStatus is the lifecycle state of a user account.
type AccountStatus string

const (
	StatusPending  AccountStatus = "PENDING"
	StatusActive   AccountStatus = "ACTIVE"
	StatusDisabled AccountStatus = "DISABLED"
)

// Role is the authorization role embedded in access tokens.
type Role string

const (
	// RoleClient is the default, lowest-privilege role.
	RoleClient Role = "CLIENT"
	RoleAdmin  Role = "ADMIN"
)

// User is a durable account record. PasswordHash must never be logged or
// serialized to clients.
type User struct {
	ID            string
	Email         string
	Username      string
	Phone         string
	FullName      string
	PasswordHash  string `json:"-"`
	AccountStatus AccountStatus
	IsVerified    bool
	Role          Role
	TokenVersion  int64
	LastLogin     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Lookup names the unique fields checked by FindAny. Empty fields are
// ignored.
type Lookup struct {
	Email    string
	Username string
	Phone    string
}

// Empty reports whether no field is set.
func (l Lookup) Empty() bool {
	return l.Email == "" && l.Username == "" && l.Phone == ""
}

// Patch is a partial field update. Nil fields are left unchanged.
type Patch struct {
	PasswordHash  *string
	AccountStatus *AccountStatus
	IsVerified    *bool
	LastLogin     *time.Time
}

// Directory is the durable user store. TokenVersion is only ever advanced
// through IncrementTokenVersion, which must be atomic.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByUsername(ctx context.Context, username string) (User, error)
	FindByPhone(ctx context.Context, phone string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	// FindAny returns the first user matching any non-empty field of l.
	FindAny(ctx context.Context, l Lookup) (User, error)
	Create(ctx context.Context, u User) (User, error)
	Update(ctx context.Context, id string, p Patch) (User, error)
	// IncrementTokenVersion adds one to the user's token version and
	// returns the new value.
	IncrementTokenVersion(ctx context.Context, id string) (int64, error)
}
