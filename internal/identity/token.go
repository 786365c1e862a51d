package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultTokenTTL = 24 * time.Hour

// Claims is the signed claim set: the AuthContext fields plus the standard
// registered claims. The subject carries the user id.
type Claims struct {
	Username string   `json:"username"`
	DomainID string   `json:"domain_id,omitempty"`
	OrgIDs   []string `json:"org_ids"`
	RoleIDs  []string `json:"role_ids"`
	Level    int      `json:"level"`
	IsAdmin  bool     `json:"is_admin"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies the bearer tokens carrying an AuthContext.
// Verification is pure: no I/O beyond the signature check.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption configures a TokenIssuer.
type TokenOption func(*TokenIssuer) error

// WithIssuer overrides the iss claim.
func WithIssuer(issuer string) TokenOption {
	return func(i *TokenIssuer) error {
		issuer = strings.TrimSpace(issuer)
		if issuer == "" {
			return errors.New("issuer must not be empty")
		}
		i.issuer = issuer
		return nil
	}
}

// WithTokenTTL overrides the token lifetime.
func WithTokenTTL(ttl time.Duration) TokenOption {
	return func(i *TokenIssuer) error {
		if ttl <= 0 {
			return errors.New("token ttl must be greater than zero")
		}
		i.ttl = ttl
		return nil
	}
}

// WithTokenClock overrides the time source (useful for tests).
func WithTokenClock(fn func() time.Time) TokenOption {
	return func(i *TokenIssuer) error {
		if fn != nil {
			i.now = fn
		}
		return nil
	}
}

// NewTokenIssuer constructs a TokenIssuer signing with HS256.
func NewTokenIssuer(secret string, opts ...TokenOption) (*TokenIssuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token secret is not configured")
	}
	issuer := &TokenIssuer{
		secret: []byte(secret),
		issuer: "idhub",
		ttl:    defaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		if err := opt(issuer); err != nil {
			return nil, err
		}
	}
	return issuer, nil
}

// Mint signs the auth context into a bearer token and reports its expiry.
func (i *TokenIssuer) Mint(ac AuthContext) (string, time.Time, error) {
	if strings.TrimSpace(ac.UserID) == "" {
		return "", time.Time{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	now := i.now().UTC()
	exp := now.Add(i.ttl)
	claims := Claims{
		Username: ac.Username,
		DomainID: ac.DomainID,
		OrgIDs:   emptyIfNil(ac.OrgIDs),
		RoleIDs:  emptyIfNil(ac.RoleIDs),
		Level:    ac.Level,
		IsAdmin:  ac.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   ac.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse verifies a presented token and reconstructs the auth context. A token
// that fails any check is rejected wholesale; no field of it is trusted.
func (i *TokenIssuer) Parse(token string) (AuthContext, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return AuthContext{}, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return AuthContext{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return AuthContext{}, ErrInvalidToken
	}
	if err := i.validateClaims(claims); err != nil {
		return AuthContext{}, ErrInvalidToken
	}
	return AuthContext{
		UserID:   claims.Subject,
		Username: claims.Username,
		DomainID: claims.DomainID,
		OrgIDs:   emptyIfNil(claims.OrgIDs),
		RoleIDs:  emptyIfNil(claims.RoleIDs),
		Level:    claims.Level,
		IsAdmin:  claims.IsAdmin,
	}, nil
}

func (i *TokenIssuer) validateClaims(claims *Claims) error {
	if claims.Issuer != i.issuer {
		return fmt.Errorf("unexpected issuer: %s", claims.Issuer)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return errors.New("subject missing")
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return errors.New("timestamps missing")
	}
	if claims.ExpiresAt.Time.Before(claims.IssuedAt.Time) {
		return errors.New("token expiry precedes issued-at")
	}
	return nil
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
