package postgres

import (
	"context"
	"database/sql"

	"opsdesk/internal/model"
	"opsdesk/internal/repository"
)

// PolicyPostgres is a PostgreSQL implementation of repository.PolicyRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type PolicyPostgres struct {
	db *sql.DB
}

// NewPolicyPostgres creates a new PolicyPostgres repository.
func NewPolicyPostgres(db *sql.DB) *PolicyPostgres {
	return &PolicyPostgres{db: db}
}

var _ repository.PolicyRepository = (*PolicyPostgres)(nil)

const policyColumns = `id, title, category, description, filename, storage_path, size, content_type, uploaded_by, created_at`

func scanPolicy(s scanner) (*model.Policy, error) {
	var p model.Policy
	if err := s.Scan(
		&p.ID,
		&p.Title,
		&p.Category,
		&p.Description,
		&p.Filename,
		&p.StoragePath,
		&p.Size,
		&p.ContentType,
		&p.UploadedBy,
		&p.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new policy row and returns the stored record.
func (r *PolicyPostgres) Create(ctx context.Context, p *model.Policy) (*model.Policy, error) {
	const q = `
		INSERT INTO policies (id, title, category, description, filename, storage_path, size, content_type, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + policyColumns
	row := r.db.QueryRowContext(ctx, q,
		p.ID,
		p.Title,
		p.Category,
		p.Description,
		p.Filename,
		p.StoragePath,
		p.Size,
		p.ContentType,
		p.UploadedBy,
		p.CreatedAt,
	)
	return scanPolicy(row)
}

// FindByID fetches a single policy by its ID.
func (r *PolicyPostgres) FindByID(ctx context.Context, id string) (*model.Policy, error) {
	const q = `SELECT ` + policyColumns + ` FROM policies WHERE id = $1`
	return scanPolicy(r.db.QueryRowContext(ctx, q, id))
}

// List returns policies, newest first, optionally restricted to one category.
func (r *PolicyPostgres) List(ctx context.Context, category string, pq repository.PageQuery) (*repository.PageResult[model.Policy], error) {
	var c conds
	if category != "" {
		c.add("category = ?", category)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM policies`+c.where(), c.args...).Scan(&total); err != nil {
		return nil, err
	}

	limit, args := c.page(pq.Limit, pq.Offset)
	rows, err := r.db.QueryContext(ctx, `SELECT `+policyColumns+` FROM policies`+c.where()+` ORDER BY created_at DESC, id DESC`+limit, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Policy, 0)
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Policy]{
		Items: items,
		Total: total,
	}, nil
}

// Delete removes a policy by ID. It does not return an error if the row does not exist.
func (r *PolicyPostgres) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM policies WHERE id = $1`, id)
	return err
}
