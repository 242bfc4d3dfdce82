package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"opsdesk/internal/model"
	"opsdesk/internal/repository"
)

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres repository.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

const userColumns = `id, name, email, role, department, is_active, password_hash, created_at, updated_at, last_login_at`

func scanUser(s scanner) (*model.User, error) {
	var (
		u         model.User
		role      string
		lastLogin sql.NullTime
	)
	if err := s.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&role,
		&u.Department,
		&u.IsActive,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
		&lastLogin,
	); err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return &u, nil
}

// Create inserts a new user row and returns the stored record.
func (r *UserPostgres) Create(ctx context.Context, u *model.User) (*model.User, error) {
	const q = `
		INSERT INTO users (id, name, email, role, department, is_active, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + userColumns
	row := r.db.QueryRowContext(ctx, q,
		u.ID,
		u.Name,
		u.Email,
		string(u.Role),
		u.Department,
		u.IsActive,
		u.PasswordHash,
		u.CreatedAt,
		u.UpdatedAt,
	)
	return scanUser(row)
}

// FindByID fetches a single user by its ID.
func (r *UserPostgres) FindByID(ctx context.Context, id string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, id))
}

// FindByEmail fetches a single user by email, case-insensitively.
func (r *UserPostgres) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return scanUser(r.db.QueryRowContext(ctx, q, email))
}

// List returns users using LIMIT/OFFSET pagination and a total count.
func (r *UserPostgres) List(ctx context.Context, f repository.UserFilter, pq repository.PageQuery) (*repository.PageResult[model.User], error) {
	var c conds
	if f.Role != "" {
		c.add("role = ?", string(f.Role))
	}
	if f.Active != nil {
		c.add("is_active = ?", *f.Active)
	}
	if f.Search != "" {
		c.add("(name ILIKE ? OR email ILIKE ?)", "%"+f.Search+"%", "%"+f.Search+"%")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+c.where(), c.args...).Scan(&total); err != nil {
		return nil, err
	}

	limit, args := c.page(pq.Limit, pq.Offset)
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users`+c.where()+` ORDER BY name ASC, id ASC`+limit, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &repository.PageResult[model.User]{Items: items, Total: total}, nil
}

// ListByRoles returns active users that hold any of roles.
func (r *UserPostgres) ListByRoles(ctx context.Context, roles ...model.Role) ([]model.User, error) {
	if len(roles) == 0 {
		return []model.User{}, nil
	}
	var c conds
	c.add("is_active = ?", true)
	placeholders := make([]string, len(roles))
	args := make([]any, len(roles))
	for i, role := range roles {
		placeholders[i] = "?"
		args[i] = string(role)
	}
	c.add("role IN ("+strings.Join(placeholders, ", ")+")", args...)

	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users`+c.where()+` ORDER BY name ASC`, c.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *u)
	}
	return items, rows.Err()
}

// Update overwrites the mutable columns of a user.
func (r *UserPostgres) Update(ctx context.Context, u *model.User) (*model.User, error) {
	const q = `
		UPDATE users
		SET name = $2, email = $3, role = $4, department = $5, is_active = $6, password_hash = $7, updated_at = $8
		WHERE id = $1
		RETURNING ` + userColumns
	row := r.db.QueryRowContext(ctx, q,
		u.ID,
		u.Name,
		u.Email,
		string(u.Role),
		u.Department,
		u.IsActive,
		u.PasswordHash,
		u.UpdatedAt,
	)
	return scanUser(row)
}

// SetLastLogin records a successful login time.
func (r *UserPostgres) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, id, at)
	return err
}

// Delete removes a user by ID. It does not return an error if the row does not exist.
func (r *UserPostgres) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}
