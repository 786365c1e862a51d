package identity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestResolveSortsRolesByLevel(t *testing.T) {
	store := &stubStore{
		orgIDsForUserFn: func(_ context.Context, _ string) ([]string, error) {
			return []string{"o1"}, nil
		},
		orgsByIDsFn: func(_ context.Context, ids []string, domainID string) ([]Org, error) {
			return []Org{{ID: "o1", DomainID: domainID}}, nil
		},
		grantsForUserFn: func(_ context.Context, _ string) ([]Grant, error) {
			return []Grant{{RoleID: "r5"}, {RoleID: "r2"}, {RoleID: "r8"}}, nil
		},
		rolesByIDsFn: func(_ context.Context, ids []string, _ string) ([]Role, error) {
			return []Role{
				{ID: "r5", Level: 5},
				{ID: "r2", Level: 2},
				{ID: "r8", Level: 8},
			}, nil
		},
	}

	_, roles, err := NewResolver(store, false).Resolve(context.Background(), "u1", "D1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := []string{"r2", "r5", "r8"}
	if len(roles) != len(want) {
		t.Fatalf("expected %d roles, got %+v", len(want), roles)
	}
	for i, id := range want {
		if roles[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, roles[i].ID)
		}
	}
	if got := EffectiveLevel(roles); got != 2 {
		t.Fatalf("expected effective level 2, got %d", got)
	}
}

func TestResolveSortIsStable(t *testing.T) {
	store := &stubStore{
		grantsForUserFn: func(_ context.Context, _ string) ([]Grant, error) {
			return []Grant{{RoleID: "a"}, {RoleID: "b"}, {RoleID: "c"}}, nil
		},
		rolesByIDsFn: func(_ context.Context, _ []string, _ string) ([]Role, error) {
			return []Role{
				{ID: "a", Level: 3},
				{ID: "b", Level: 3},
				{ID: "c", Level: 1},
			}, nil
		},
	}

	_, roles, err := NewResolver(store, false).Resolve(context.Background(), "u1", "D1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if roles[0].ID != "c" || roles[1].ID != "a" || roles[2].ID != "b" {
		t.Fatalf("equal levels must keep store order, got %+v", roles)
	}
}

func TestResolveShortCircuitsEmptyMemberships(t *testing.T) {
	store := &stubStore{
		orgIDsForUserFn: func(_ context.Context, _ string) ([]string, error) {
			return nil, nil
		},
		grantsForUserFn: func(_ context.Context, _ string) ([]Grant, error) {
			return nil, nil
		},
		orgsByIDsFn: func(_ context.Context, ids []string, _ string) ([]Org, error) {
			return nil, errors.New("org query issued for an empty id set")
		},
		rolesByIDsFn: func(_ context.Context, ids []string, _ string) ([]Role, error) {
			return nil, errors.New("role query issued for an empty id set")
		},
	}

	orgs, roles, err := NewResolver(store, false).Resolve(context.Background(), "u1", "D1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if orgs == nil || len(orgs) != 0 {
		t.Fatalf("expected empty org slice, got %+v", orgs)
	}
	if roles == nil || len(roles) != 0 {
		t.Fatalf("expected empty role slice, got %+v", roles)
	}
	if got := EffectiveLevel(roles); got != LevelUnrestricted {
		t.Fatalf("expected sentinel level %d, got %d", LevelUnrestricted, got)
	}
}

func TestResolveGrantExpiry(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	grants := []Grant{
		{RoleID: "live", Expire: now.Add(time.Hour)},
		{RoleID: "stale", Expire: now.Add(-time.Hour)},
		{RoleID: "forever"},
	}

	newStore := func() *stubStore {
		return &stubStore{
			grantsForUserFn: func(_ context.Context, _ string) ([]Grant, error) {
				out := make([]Grant, len(grants))
				copy(out, grants)
				return out, nil
			},
			rolesByIDsFn: func(_ context.Context, ids []string, _ string) ([]Role, error) {
				roles := make([]Role, 0, len(ids))
				for i, id := range ids {
					roles = append(roles, Role{ID: id, Level: i + 1})
				}
				return roles, nil
			},
		}
	}

	t.Run("off by default", func(t *testing.T) {
		_, roles, err := NewResolver(newStore(), false).Resolve(context.Background(), "u1", "D1")
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if len(roles) != 3 {
			t.Fatalf("expired grants must pass through when unenforced, got %+v", roles)
		}
	})

	t.Run("enforced", func(t *testing.T) {
		r := NewResolver(newStore(), true)
		r.now = func() time.Time { return now }
		_, roles, err := r.Resolve(context.Background(), "u1", "D1")
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if len(roles) != 2 {
			t.Fatalf("expected the stale grant dropped, got %+v", roles)
		}
		for _, role := range roles {
			if role.ID == "stale" {
				t.Fatalf("stale grant survived enforcement: %+v", roles)
			}
		}
	})
}

func TestResolvePropagatesStoreFailure(t *testing.T) {
	boom := errors.New("connection reset")
	store := &stubStore{
		orgIDsForUserFn: func(_ context.Context, _ string) ([]string, error) {
			return nil, boom
		},
		grantsForUserFn: func(_ context.Context, _ string) ([]Grant, error) {
			return nil, nil
		},
	}

	_, _, err := NewResolver(store, false).Resolve(context.Background(), "u1", "D1")
	if !errors.Is(err, boom) {
		t.Fatalf("expected store failure to surface, got %v", err)
	}
}
