package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"idhub.org/internal/ids"
)

// Service composes the store, credential verification, context resolution and
// token issuance into the Register and Login flows. It is stateless between
// requests; the store is the only shared resource.
type Service struct {
	store    Store
	tokens   *TokenIssuer
	resolver *Resolver

	enforceGrantExpiry bool
	now                func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service) error

// WithGrantExpiry enables dropping expired role grants during login
// resolution. Off by default: the system this replaces stores the expire
// timestamp but never checks it, and that behavior is preserved until the
// product decides otherwise.
func WithGrantExpiry(enforce bool) ServiceOption {
	return func(s *Service) error {
		s.enforceGrantExpiry = enforce
		return nil
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// NewService constructs the identity service with explicit dependencies.
func NewService(store Store, tokens *TokenIssuer, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("identity store is required")
	}
	if tokens == nil {
		return nil, errors.New("token issuer is required")
	}
	svc := &Service{
		store:  store,
		tokens: tokens,
		now:    time.Now,
	}
	for _, opt := range opts {
		if err := opt(svc); err != nil {
			return nil, err
		}
	}
	svc.resolver = NewResolver(store, svc.enforceGrantExpiry)
	svc.resolver.now = svc.now
	return svc, nil
}

// RegisterInput is the payload for account provisioning. DomainID is the
// caller-selected tenant and is mandatory.
type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
	Memo     string `json:"memo"`
	DomainID string `json:"-"`
}

// Credentials is the login payload. DomainID is mandatory for everyone except
// system administrators.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	DomainID string `json:"-"`
}

// AuthResult is the success payload of both flows: the minted token plus the
// records that shaped the embedded context. Domain is nil for administrator
// logins, which skip tenant resolution.
type AuthResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      User        `json:"user"`
	Domain    *Domain     `json:"domain"`
	Roles     []Role      `json:"roles"`
	Orgs      []Org       `json:"orgs"`
	Context   AuthContext `json:"-"`
}

// Register provisions an account in the selected domain and grants it the
// domain's default role.
//
// The two inserts are not wrapped in a transaction: a token minting failure
// after persistence surfaces as an error while the created records remain.
// That is the chosen semantics, since registration is not transactional
// across steps.
func (s *Service) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.DomainID = strings.TrimSpace(in.DomainID)
	if err := validateRegisterInput(in); err != nil {
		return AuthResult{}, err
	}

	if _, err := s.store.FindUserByUsername(ctx, in.Username); err == nil {
		return AuthResult{}, fmt.Errorf("%w: username %s is taken", ErrConflict, in.Username)
	} else if !errors.Is(err, ErrNotFound) {
		return AuthResult{}, err
	}

	domain, err := s.store.FindDomain(ctx, in.DomainID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return AuthResult{}, fmt.Errorf("%w: domain %s", ErrNotFound, in.DomainID)
		}
		return AuthResult{}, err
	}
	if domain.DefaultRoleID == "" {
		return AuthResult{}, fmt.Errorf("%w: domain %s has no default role", ErrPrecondition, domain.ID)
	}
	role, err := s.store.FindRole(ctx, domain.DefaultRoleID)
	if err != nil {
		// The role can disappear between the domain lookup and here;
		// surface it rather than registering a roleless account.
		return AuthResult{}, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return AuthResult{}, err
	}
	now := s.now().UTC()
	user := User{
		ID:           ids.New(),
		Username:     in.Username,
		PasswordHash: hash,
		Email:        in.Email,
		Avatar:       in.Avatar,
		Memo:         in.Memo,
		IsActive:     true,
		LastLoginAt:  now,
		CreatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, &user); err != nil {
		// Same-username race: the unique index wins and we report the
		// duplicate, not a crash.
		if errors.Is(err, ErrConflict) {
			return AuthResult{}, fmt.Errorf("%w: username %s is taken", ErrConflict, in.Username)
		}
		return AuthResult{}, err
	}
	grant := Grant{UserID: user.ID, RoleID: role.ID, CreatedAt: now}
	if err := s.store.CreateGrant(ctx, &grant); err != nil {
		return AuthResult{}, err
	}

	ac := TenantContext(user, domain.ID, nil, []Role{role})
	token, exp, err := s.tokens.Mint(ac)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{
		Token:     token,
		ExpiresAt: exp,
		User:      user,
		Domain:    &domain,
		Roles:     []Role{role},
		Orgs:      []Org{},
		Context:   ac,
	}, nil
}

// Login authenticates credentials and computes the tenant-scoped context.
// System administrators skip resolution entirely; everyone else must select a
// domain.
func (s *Service) Login(ctx context.Context, creds Credentials) (AuthResult, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	creds.DomainID = strings.TrimSpace(creds.DomainID)
	if creds.Username == "" || creds.Password == "" {
		return AuthResult{}, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}

	user, err := s.store.FindUserByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return AuthResult{}, ErrUnknownUser
		}
		return AuthResult{}, err
	}
	if err := VerifyPassword(user.PasswordHash, creds.Password); err != nil {
		return AuthResult{}, ErrBadCredential
	}
	if !user.IsActive {
		return AuthResult{}, ErrAccountDisabled
	}

	// The login event is recorded as part of the flow, not best-effort.
	now := s.now().UTC()
	if err := s.store.TouchLastLogin(ctx, user.ID, now); err != nil {
		return AuthResult{}, err
	}
	user.LastLoginAt = now

	if user.SysRole == SysRoleAdmin {
		ac := AdminContext(user, creds.DomainID)
		token, exp, err := s.tokens.Mint(ac)
		if err != nil {
			return AuthResult{}, err
		}
		return AuthResult{
			Token:     token,
			ExpiresAt: exp,
			User:      user,
			Roles:     []Role{},
			Orgs:      []Org{},
			Context:   ac,
		}, nil
	}

	if creds.DomainID == "" {
		return AuthResult{}, fmt.Errorf("%w: domain is required", ErrInvalidInput)
	}
	domain, err := s.store.FindDomain(ctx, creds.DomainID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return AuthResult{}, fmt.Errorf("%w: domain %s", ErrNotFound, creds.DomainID)
		}
		return AuthResult{}, err
	}

	orgs, roles, err := s.resolver.Resolve(ctx, user.ID, domain.ID)
	if err != nil {
		return AuthResult{}, err
	}

	ac := TenantContext(user, domain.ID, orgs, roles)
	token, exp, err := s.tokens.Mint(ac)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{
		Token:     token,
		ExpiresAt: exp,
		User:      user,
		Domain:    &domain,
		Roles:     roles,
		Orgs:      orgs,
		Context:   ac,
	}, nil
}

// ParseToken verifies a presented bearer token. Exposed for the HTTP gate.
func (s *Service) ParseToken(token string) (AuthContext, error) {
	return s.tokens.Parse(token)
}

func validateRegisterInput(in RegisterInput) error {
	if l := len(in.Username); l < 3 || l > 100 {
		return fmt.Errorf("%w: username must be 3-100 characters", ErrInvalidInput)
	}
	if l := len(in.Password); l < 1 || l > 100 {
		return fmt.Errorf("%w: password must be 1-100 characters", ErrInvalidInput)
	}
	if in.Email != "" && !strings.Contains(in.Email, "@") {
		return fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if in.DomainID == "" {
		return fmt.Errorf("%w: domain is required", ErrInvalidInput)
	}
	return nil
}
