package identity

import "context"

// LevelUnrestricted is the sentinel effective level used when no role applies:
// administrators (whose checks bypass levels entirely) and tenant users with
// zero role grants in the selected domain. The value participates in
// level-threshold policy, so it must stay at 999.
const LevelUnrestricted = 999

// AuthContext is the resolved, per-authentication-event set of identity facts
// embedded in a token. It is produced fresh by Register/Login, never stored
// server-side, and owned by the request that produced it.
//
// Construct one through AdminContext or TenantContext; the constructors
// enforce that an admin context never carries org/role resolution results.
type AuthContext struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	DomainID string   `json:"domain_id,omitempty"`
	OrgIDs   []string `json:"org_ids"`
	RoleIDs  []string `json:"role_ids"`
	Level    int      `json:"level"`
	IsAdmin  bool     `json:"is_admin"`
}

// AdminContext builds the context for a system administrator. Tenant
// resolution is skipped: org and role sets are empty and the level is the
// unrestricted sentinel. The domain id is passed through as supplied and may
// be empty.
func AdminContext(user User, domainID string) AuthContext {
	return AuthContext{
		UserID:   user.ID,
		Username: user.Username,
		DomainID: domainID,
		OrgIDs:   []string{},
		RoleIDs:  []string{},
		Level:    LevelUnrestricted,
		IsAdmin:  true,
	}
}

// TenantContext builds the context for a tenant-scoped user from resolved
// orgs and roles. Roles must already be sorted ascending by level; the
// effective level is the first (most privileged) role's level, or the
// unrestricted sentinel when the user holds no roles in the domain.
func TenantContext(user User, domainID string, orgs []Org, roles []Role) AuthContext {
	orgIDs := make([]string, 0, len(orgs))
	for _, o := range orgs {
		orgIDs = append(orgIDs, o.ID)
	}
	roleIDs := make([]string, 0, len(roles))
	for _, r := range roles {
		roleIDs = append(roleIDs, r.ID)
	}
	level := LevelUnrestricted
	if len(roles) > 0 {
		level = roles[0].Level
	}
	return AuthContext{
		UserID:   user.ID,
		Username: user.Username,
		DomainID: domainID,
		OrgIDs:   orgIDs,
		RoleIDs:  roleIDs,
		Level:    level,
		IsAdmin:  false,
	}
}

// PermitsLevel reports whether the context satisfies a level-threshold check:
// lower-or-equal means equal-or-more privileged. Administrators do not get a
// free pass here; admin-only routes use IsAdmin instead.
func (ac AuthContext) PermitsLevel(max int) bool {
	return ac.Level <= max
}

type authContextKey struct{}

// ContextWith attaches the resolved auth context to a request context.
func ContextWith(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, &ac)
}

// FromContext extracts the auth context attached by the authorization gate.
func FromContext(ctx context.Context) (AuthContext, bool) {
	if ctx == nil {
		return AuthContext{}, false
	}
	v, ok := ctx.Value(authContextKey{}).(*AuthContext)
	if !ok || v == nil {
		return AuthContext{}, false
	}
	return *v, true
}
