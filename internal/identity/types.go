package identity

import "time"

// SysRoleAdmin is the distinguished system role tag. Accounts carrying it
// bypass tenant-scoped resolution entirely.
const SysRoleAdmin = "admin"

// User is an account record.  The password hash never leaves the service:
// it is excluded from JSON serialization and from token claims.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Email        string    `json:"email,omitempty"`
	Avatar       string    `json:"avatar,omitempty"`
	Memo         string    `json:"memo,omitempty"`
	SysRole      string    `json:"sys_role,omitempty"`
	IsActive     bool      `json:"is_active"`
	LastLoginAt  time.Time `json:"last_login_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// Domain is the tenant isolation boundary. Organizations and roles belong to
// exactly one domain; callers select the domain explicitly at register/login.
type Domain struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	DefaultRoleID string    `json:"default_role_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Org is an organizational unit scoped to one domain.
type Org struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	DomainID    string    `json:"domain_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Role carries an integer privilege level. Lower level means higher
// privilege; that ordering is relied on everywhere a tie-break is needed.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Value       string    `json:"value"`
	Level       int       `json:"level"`
	Description string    `json:"description,omitempty"`
	DomainID    string    `json:"domain_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Grant binds a user to a role. Expire is stored but, matching the observed
// behavior of the system this replaces, not enforced during login unless the
// service is configured to do so (see WithGrantExpiry).
type Grant struct {
	UserID    string    `json:"user_id"`
	RoleID    string    `json:"role_id"`
	Expire    time.Time `json:"expire,omitzero"`
	CreatedAt time.Time `json:"created_at"`
}
