package store

import (
	"context"
	"database/sql"
	"errors"

	"shopkeep/m/domain"
	"shopkeep/m/internal/apperr"
)

func (q *Queries) InsertRole(ctx context.Context, r *domain.Role) error {
	r.CreatedAt = q.now()
	id, err := q.insert(ctx, `INSERT INTO roles (name, created_at) VALUES (?, ?)`, r.Name, r.CreatedAt)
	if err != nil {
		return err
	}
	r.ID = id
	for _, p := range r.Permissions {
		if _, err := q.exec(ctx, `INSERT INTO role_permissions (role_id, permission) VALUES (?, ?)`, id, p); err != nil {
			return err
		}
	}
	return nil
}

func (q *Queries) GetRole(ctx context.Context, id int64) (domain.Role, error) {
	var r domain.Role
	if err := q.get(ctx, &r, `SELECT id, name, created_at FROM roles WHERE id = ?`, id); err != nil {
		return r, notFound(err, "role", id)
	}
	return r, q.loadPermissions(ctx, &r)
}

// GetRoleByName returns ok=false when no role has that name.
func (q *Queries) GetRoleByName(ctx context.Context, name string) (r domain.Role, ok bool, err error) {
	err = q.get(ctx, &r, `SELECT id, name, created_at FROM roles WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return r, false, nil
	}
	if err != nil {
		return r, false, err
	}
	return r, true, q.loadPermissions(ctx, &r)
}

func (q *Queries) ListRoles(ctx context.Context) ([]domain.Role, error) {
	roles := []domain.Role{}
	if err := q.selectAll(ctx, &roles, `SELECT id, name, created_at FROM roles ORDER BY id`); err != nil {
		return nil, err
	}
	for i := range roles {
		if err := q.loadPermissions(ctx, &roles[i]); err != nil {
			return nil, err
		}
	}
	return roles, nil
}

func (q *Queries) loadPermissions(ctx context.Context, r *domain.Role) error {
	r.Permissions = []domain.Permission{}
	return q.selectAll(ctx, &r.Permissions, `SELECT permission FROM role_permissions WHERE role_id = ? ORDER BY permission`, r.ID)
}

// InsertUser stores u; u.Password must already be hashed.
func (q *Queries) InsertUser(ctx context.Context, u *domain.User) error {
	u.CreatedAt = q.now()
	id, err := q.insert(ctx, `INSERT INTO users (name, email, password, role_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.Name, u.Email, u.Password, u.RoleID, u.CreatedAt)
	u.ID = id
	return err
}

func (q *Queries) GetUser(ctx context.Context, id int64) (domain.User, error) {
	var u domain.User
	err := q.get(ctx, &u, `SELECT id, name, email, password, role_id, created_at FROM users WHERE id = ?`, id)
	return u, notFound(err, "user", id)
}

// GetUserByEmail returns ok=false when no user has that email.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (u domain.User, ok bool, err error) {
	err = q.get(ctx, &u, `SELECT id, name, email, password, role_id, created_at FROM users WHERE email = ?`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return u, false, nil
	}
	return u, err == nil, err
}

func (q *Queries) EmailTaken(ctx context.Context, email string) (bool, error) {
	return q.exists(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, email)
}

// SetUserPassword replaces the stored hash of user id.
func (q *Queries) SetUserPassword(ctx context.Context, id int64, hash string) error {
	n, err := q.exec(ctx, `UPDATE users SET password = ? WHERE id = ?`, hash, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("user %d not found", id)
	}
	return nil
}
