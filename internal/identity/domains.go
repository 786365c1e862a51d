package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"idhub.org/internal/ids"
)

// Domain management is administrator territory; the HTTP layer enforces the
// admin check, this layer enforces input shape and referential sanity.

// CreateDomain provisions a tenant. A default role id, when given, must
// reference an existing role.
func (s *Service) CreateDomain(ctx context.Context, name, description, defaultRoleID string) (Domain, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return Domain{}, fmt.Errorf("%w: domain name must be 1-100 characters", ErrInvalidInput)
	}
	defaultRoleID = strings.TrimSpace(defaultRoleID)
	if defaultRoleID != "" {
		if _, err := s.store.FindRole(ctx, defaultRoleID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return Domain{}, fmt.Errorf("%w: default role %s", ErrNotFound, defaultRoleID)
			}
			return Domain{}, err
		}
	}
	now := s.now().UTC()
	domain := Domain{
		ID:            ids.New(),
		Name:          name,
		Description:   strings.TrimSpace(description),
		DefaultRoleID: defaultRoleID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateDomain(ctx, &domain); err != nil {
		return Domain{}, err
	}
	return domain, nil
}

// GetDomain looks up one tenant.
func (s *Service) GetDomain(ctx context.Context, id string) (Domain, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Domain{}, fmt.Errorf("%w: domain id is required", ErrInvalidInput)
	}
	return s.store.FindDomain(ctx, id)
}

// ListDomains returns all tenants.
func (s *Service) ListDomains(ctx context.Context) ([]Domain, error) {
	return s.store.ListDomains(ctx)
}

// UpdateDomain applies optional field changes to a tenant.
func (s *Service) UpdateDomain(ctx context.Context, id string, upd DomainUpdate) (Domain, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Domain{}, fmt.Errorf("%w: domain id is required", ErrInvalidInput)
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" || len(name) > 100 {
			return Domain{}, fmt.Errorf("%w: domain name must be 1-100 characters", ErrInvalidInput)
		}
		upd.Name = &name
	}
	if upd.Description != nil {
		desc := strings.TrimSpace(*upd.Description)
		upd.Description = &desc
	}
	if upd.DefaultRoleID != nil {
		roleID := strings.TrimSpace(*upd.DefaultRoleID)
		if roleID != "" {
			if _, err := s.store.FindRole(ctx, roleID); err != nil {
				if errors.Is(err, ErrNotFound) {
					return Domain{}, fmt.Errorf("%w: default role %s", ErrNotFound, roleID)
				}
				return Domain{}, err
			}
		}
		upd.DefaultRoleID = &roleID
	}
	return s.store.UpdateDomain(ctx, id, upd)
}
