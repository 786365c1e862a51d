package identity

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// Resolver computes the tenant-scoped view of an authenticated user: which
// organizations the user belongs to and which roles apply within the selected
// domain, sorted by privilege.
type Resolver struct {
	store         Store
	enforceExpiry bool
	now           func() time.Time
}

// NewResolver constructs a Resolver. enforceExpiry controls whether role
// grants past their expire timestamp are dropped; the system this replaces
// never filtered them, so the default wiring passes false.
func NewResolver(store Store, enforceExpiry bool) *Resolver {
	return &Resolver{store: store, enforceExpiry: enforceExpiry, now: time.Now}
}

// Resolve fetches org memberships and role grants concurrently, then resolves
// each id set against the selected domain. Records outside the domain are
// excluded by the store-level filter. Roles come back sorted ascending by
// level; the sort is stable so equal levels keep their store order.
func (r *Resolver) Resolve(ctx context.Context, userID, domainID string) ([]Org, []Role, error) {
	var (
		orgs  []Org
		roles []Role
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orgs, err = r.resolveOrgs(gctx, userID, domainID)
		return err
	})
	g.Go(func() error {
		var err error
		roles, err = r.resolveRoles(gctx, userID, domainID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	sort.SliceStable(roles, func(i, j int) bool { return roles[i].Level < roles[j].Level })
	return orgs, roles, nil
}

// EffectiveLevel is the most privileged level among resolved roles, or the
// unrestricted sentinel when the user holds none.
func EffectiveLevel(roles []Role) int {
	if len(roles) == 0 {
		return LevelUnrestricted
	}
	return roles[0].Level
}

func (r *Resolver) resolveOrgs(ctx context.Context, userID, domainID string) ([]Org, error) {
	ids, err := r.store.OrgIDsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	// Empty membership must not reach the store: an unbounded id filter
	// would match everything.
	if len(ids) == 0 {
		return []Org{}, nil
	}
	orgs, err := r.store.OrgsByIDs(ctx, ids, domainID)
	if err != nil {
		return nil, err
	}
	return orgs, nil
}

func (r *Resolver) resolveRoles(ctx context.Context, userID, domainID string) ([]Role, error) {
	grants, err := r.store.GrantsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if r.enforceExpiry {
		grants = liveGrants(grants, r.now())
	}
	if len(grants) == 0 {
		return []Role{}, nil
	}
	ids := make([]string, 0, len(grants))
	for _, g := range grants {
		ids = append(ids, g.RoleID)
	}
	roles, err := r.store.RolesByIDs(ctx, ids, domainID)
	if err != nil {
		return nil, err
	}
	return roles, nil
}

func liveGrants(grants []Grant, now time.Time) []Grant {
	out := grants[:0]
	for _, g := range grants {
		// Zero expire means the grant never expires.
		if g.Expire.IsZero() || g.Expire.After(now) {
			out = append(out, g)
		}
	}
	return out
}
