package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"idhub.org/internal/identity"
)

const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
)

var _ identity.Store = (*Store)(nil)

func (s *Store) CreateUser(ctx context.Context, u *identity.User) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	_, err := s.db.ExecContext(ctx, `
		insert into users (id, username, password_hash, email, avatar, memo, sys_role, is_active, last_login_at, created_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, u.ID, u.Username, u.PasswordHash, nullString(u.Email), nullString(u.Avatar),
		nullString(u.Memo), nullString(u.SysRole), u.IsActive, u.LastLoginAt, u.CreatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return identity.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) FindUser(ctx context.Context, id string) (identity.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, userSelect+` where id = $1`, id))
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (identity.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, userSelect+` where username = $1`, username))
}

const userSelect = `
	select id, username, password_hash, email, avatar, memo, sys_role, is_active, last_login_at, created_at
	from users`

func (s *Store) scanUser(row *sql.Row) (identity.User, error) {
	var (
		u       identity.User
		email   sql.NullString
		avatar  sql.NullString
		memo    sql.NullString
		sysRole sql.NullString
	)
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &email, &avatar, &memo, &sysRole, &u.IsActive, &u.LastLoginAt, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return identity.User{}, identity.ErrNotFound
	}
	if err != nil {
		return identity.User{}, err
	}
	u.Email = email.String
	u.Avatar = avatar.String
	u.Memo = memo.String
	u.SysRole = sysRole.String
	return u, nil
}

func (s *Store) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `update users set last_login_at = $2 where id = $1`, userID, at)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return identity.ErrNotFound
	}
	return nil
}

func (s *Store) CreateDomain(ctx context.Context, d *identity.Domain) error {
	_, err := s.db.ExecContext(ctx, `
		insert into domains (id, name, description, default_role_id, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6)
	`, d.ID, d.Name, nullString(d.Description), nullString(d.DefaultRoleID), d.CreatedAt, d.UpdatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return identity.ErrConflict
			case pgErrForeignKeyViolation:
				return identity.ErrNotFound
			}
		}
		return err
	}
	return nil
}

func (s *Store) FindDomain(ctx context.Context, id string) (identity.Domain, error) {
	var (
		d           identity.Domain
		description sql.NullString
		defaultRole sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		select id, name, description, default_role_id, created_at, updated_at
		from domains
		where id = $1
	`, id).Scan(&d.ID, &d.Name, &description, &defaultRole, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return identity.Domain{}, identity.ErrNotFound
	}
	if err != nil {
		return identity.Domain{}, err
	}
	d.Description = description.String
	d.DefaultRoleID = defaultRole.String
	return d, nil
}

func (s *Store) ListDomains(ctx context.Context) ([]identity.Domain, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, description, default_role_id, created_at, updated_at
		from domains
		order by name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []identity.Domain
	for rows.Next() {
		var (
			d           identity.Domain
			description sql.NullString
			defaultRole sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.Name, &description, &defaultRole, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		d.Description = description.String
		d.DefaultRoleID = defaultRole.String
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) UpdateDomain(ctx context.Context, id string, upd identity.DomainUpdate) (identity.Domain, error) {
	var (
		setClauses []string
		args       []any
		idx        = 1
	)
	if upd.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", idx))
		args = append(args, *upd.Name)
		idx++
	}
	if upd.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", idx))
		args = append(args, nullString(*upd.Description))
		idx++
	}
	if upd.DefaultRoleID != nil {
		setClauses = append(setClauses, fmt.Sprintf("default_role_id = $%d", idx))
		args = append(args, nullString(*upd.DefaultRoleID))
		idx++
	}
	if len(setClauses) > 0 {
		setClauses = append(setClauses, "updated_at = now()")
		query := fmt.Sprintf(`update domains set %s where id = $%d`, strings.Join(setClauses, ", "), idx)
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
				return identity.Domain{}, identity.ErrNotFound
			}
			return identity.Domain{}, err
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return identity.Domain{}, err
		}
		if aff == 0 {
			return identity.Domain{}, identity.ErrNotFound
		}
	}
	return s.FindDomain(ctx, id)
}

func (s *Store) FindRole(ctx context.Context, id string) (identity.Role, error) {
	var (
		r           identity.Role
		description sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		select id, name, value, level, description, domain_id, created_at
		from roles
		where id = $1
	`, id).Scan(&r.ID, &r.Name, &r.Value, &r.Level, &description, &r.DomainID, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return identity.Role{}, identity.ErrNotFound
	}
	if err != nil {
		return identity.Role{}, err
	}
	r.Description = description.String
	return r, nil
}

func (s *Store) RolesByIDs(ctx context.Context, roleIDs []string, domainID string) ([]identity.Role, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, value, level, description, domain_id, created_at
		from roles
		where id = any($1) and domain_id = $2
	`, roleIDs, domainID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []identity.Role
	for rows.Next() {
		var (
			r           identity.Role
			description sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Value, &r.Level, &description, &r.DomainID, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Description = description.String
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) OrgsByIDs(ctx context.Context, orgIDs []string, domainID string) ([]identity.Org, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, description, domain_id, created_at
		from orgs
		where id = any($1) and domain_id = $2
	`, orgIDs, domainID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []identity.Org
	for rows.Next() {
		var (
			o           identity.Org
			description sql.NullString
		)
		if err := rows.Scan(&o.ID, &o.Name, &description, &o.DomainID, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Description = description.String
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) OrgIDsForUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `select org_id from user_orgs where user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) CreateGrant(ctx context.Context, g *identity.Grant) error {
	_, err := s.db.ExecContext(ctx, `
		insert into user_roles (user_id, role_id, expire, created_at)
		values ($1, $2, $3, $4)
	`, g.UserID, g.RoleID, nullTime(g.Expire), g.CreatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return identity.ErrConflict
			case pgErrForeignKeyViolation:
				return identity.ErrNotFound
			}
		}
		return err
	}
	return nil
}

func (s *Store) GrantsForUser(ctx context.Context, userID string) ([]identity.Grant, error) {
	rows, err := s.db.QueryContext(ctx, `
		select user_id, role_id, expire, created_at
		from user_roles
		where user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []identity.Grant
	for rows.Next() {
		var (
			g      identity.Grant
			expire sql.NullTime
		)
		if err := rows.Scan(&g.UserID, &g.RoleID, &expire, &g.CreatedAt); err != nil {
			return nil, err
		}
		g.Expire = expire.Time
		result = append(result, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
