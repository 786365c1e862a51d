package identity

import (
	"context"
	"time"
)

// Store describes the persistence operations the identity core depends on.
// Every filter is a typed method argument; there is no generic predicate
// builder. Implementations map uniqueness violations to ErrConflict and
// missing rows to ErrNotFound.
type Store interface {
	CreateUser(ctx context.Context, u *User) error
	FindUser(ctx context.Context, id string) (User, error)
	FindUserByUsername(ctx context.Context, username string) (User, error)
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error

	CreateDomain(ctx context.Context, d *Domain) error
	FindDomain(ctx context.Context, id string) (Domain, error)
	ListDomains(ctx context.Context) ([]Domain, error)
	UpdateDomain(ctx context.Context, id string, upd DomainUpdate) (Domain, error)

	FindRole(ctx context.Context, id string) (Role, error)
	// RolesByIDs returns the roles matching ids that belong to domainID.
	// Callers are expected to short-circuit empty id sets before querying.
	RolesByIDs(ctx context.Context, ids []string, domainID string) ([]Role, error)
	OrgsByIDs(ctx context.Context, ids []string, domainID string) ([]Org, error)

	OrgIDsForUser(ctx context.Context, userID string) ([]string, error)
	CreateGrant(ctx context.Context, g *Grant) error
	GrantsForUser(ctx context.Context, userID string) ([]Grant, error)
}

// DomainUpdate carries optional field changes; nil means "leave unchanged".
type DomainUpdate struct {
	Name          *string
	Description   *string
	DefaultRoleID *string
}
