package identity

import (
	"context"
	"errors"
	"testing"
)

func TestCreateDomainValidatesDefaultRole(t *testing.T) {
	store := &stubStore{
		findRoleFn: func(_ context.Context, id string) (Role, error) {
			if id == "R1" {
				return Role{ID: "R1", Level: 10}, nil
			}
			return Role{}, ErrNotFound
		},
	}
	svc := newTestService(t, store)

	domain, err := svc.CreateDomain(context.Background(), "  Demo  ", "tenant for demos", "R1")
	if err != nil {
		t.Fatalf("CreateDomain: %v", err)
	}
	if domain.ID == "" {
		t.Fatal("expected a generated id")
	}
	if domain.Name != "Demo" {
		t.Fatalf("name must be trimmed, got %q", domain.Name)
	}
	if domain.DefaultRoleID != "R1" {
		t.Fatalf("unexpected default role: %q", domain.DefaultRoleID)
	}

	if _, err := svc.CreateDomain(context.Background(), "Bad", "", "missing-role"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("dangling default role must be rejected, got %v", err)
	}
	if _, err := svc.CreateDomain(context.Background(), "   ", "", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank name must be rejected, got %v", err)
	}
}

func TestCreateDomainWithoutDefaultRole(t *testing.T) {
	svc := newTestService(t, &stubStore{
		findRoleFn: func(_ context.Context, _ string) (Role, error) {
			t.Fatal("no role lookup expected without a default role id")
			return Role{}, nil
		},
	})

	domain, err := svc.CreateDomain(context.Background(), "Bare", "", "")
	if err != nil {
		t.Fatalf("CreateDomain: %v", err)
	}
	if domain.DefaultRoleID != "" {
		t.Fatalf("expected no default role, got %q", domain.DefaultRoleID)
	}
}

func TestUpdateDomainAppliesPartialChanges(t *testing.T) {
	var gotUpdate DomainUpdate
	store := &stubStore{
		updateDomainFn: func(_ context.Context, id string, upd DomainUpdate) (Domain, error) {
			gotUpdate = upd
			return Domain{ID: id, Name: *upd.Name}, nil
		},
	}
	svc := newTestService(t, store)

	name := " Renamed "
	domain, err := svc.UpdateDomain(context.Background(), "D1", DomainUpdate{Name: &name})
	if err != nil {
		t.Fatalf("UpdateDomain: %v", err)
	}
	if domain.Name != "Renamed" {
		t.Fatalf("name must be trimmed, got %q", domain.Name)
	}
	if gotUpdate.Description != nil || gotUpdate.DefaultRoleID != nil {
		t.Fatalf("untouched fields must stay nil: %+v", gotUpdate)
	}

	empty := "   "
	if _, err := svc.UpdateDomain(context.Background(), "D1", DomainUpdate{Name: &empty}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank rename must be rejected, got %v", err)
	}

	role := "missing-role"
	if _, err := svc.UpdateDomain(context.Background(), "D1", DomainUpdate{DefaultRoleID: &role}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("dangling default role must be rejected, got %v", err)
	}
}
