package postgres

import (
	"context"
	"database/sql"
	"time"

	"opsdesk/internal/model"
	"opsdesk/internal/repository"
)

// ProjectPostgres is a PostgreSQL implementation of repository.ProjectRepository.
type ProjectPostgres struct {
	db *sql.DB
}

// NewProjectPostgres creates a new ProjectPostgres repository.
func NewProjectPostgres(db *sql.DB) *ProjectPostgres {
	return &ProjectPostgres{db: db}
}

var _ repository.ProjectRepository = (*ProjectPostgres)(nil)

const projectColumns = `id, name, client, description, status, billing_type, billing_sub_type,
	fixed_amount, hourly_rate, estimated_hours, retainer_hours, start_date, end_date,
	created_by, created_at, updated_at`

func scanProject(s scanner) (*model.Project, error) {
	var (
		p                       model.Project
		status, bType, bSubType string
		endDate                 sql.NullTime
	)
	if err := s.Scan(
		&p.ID,
		&p.Name,
		&p.Client,
		&p.Description,
		&status,
		&bType,
		&bSubType,
		&p.FixedAmount,
		&p.HourlyRate,
		&p.EstimatedHours,
		&p.RetainerHours,
		&p.StartDate,
		&endDate,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Status = model.ProjectStatus(status)
	p.Billing = model.BillingModel{Type: model.BillingType(bType), SubType: model.BillingSubType(bSubType)}
	if endDate.Valid {
		t := endDate.Time
		p.EndDate = &t
	}
	return &p, nil
}

func nullDate(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// Create inserts a new project row and returns the stored record.
func (r *ProjectPostgres) Create(ctx context.Context, p *model.Project) (*model.Project, error) {
	const q = `
		INSERT INTO projects (id, name, client, description, status, billing_type, billing_sub_type,
			fixed_amount, hourly_rate, estimated_hours, retainer_hours, start_date, end_date,
			created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING ` + projectColumns
	row := r.db.QueryRowContext(ctx, q,
		p.ID,
		p.Name,
		p.Client,
		p.Description,
		string(p.Status),
		string(p.Billing.Type),
		string(p.Billing.SubType),
		p.FixedAmount,
		p.HourlyRate,
		p.EstimatedHours,
		p.RetainerHours,
		p.StartDate,
		nullDate(p.EndDate),
		p.CreatedBy,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return scanProject(row)
}

// FindByID fetches a single project by its ID.
func (r *ProjectPostgres) FindByID(ctx context.Context, id string) (*model.Project, error) {
	const q = `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	return scanProject(r.db.QueryRowContext(ctx, q, id))
}

func projectConds(f repository.ProjectFilter) *conds {
	c := &conds{}
	if f.Status != "" {
		c.add("status = ?", string(f.Status))
	}
	if f.Search != "" {
		c.add("(name ILIKE ? OR client ILIKE ?)", "%"+f.Search+"%", "%"+f.Search+"%")
	}
	return c
}

// List returns projects using LIMIT/OFFSET pagination and a total count.
func (r *ProjectPostgres) List(ctx context.Context, f repository.ProjectFilter, pq repository.PageQuery) (*repository.PageResult[model.Project], error) {
	c := projectConds(f)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`+c.where(), c.args...).Scan(&total); err != nil {
		return nil, err
	}

	limit, args := c.page(pq.Limit, pq.Offset)
	items, err := r.query(ctx, `SELECT `+projectColumns+` FROM projects`+c.where()+` ORDER BY created_at DESC, id DESC`+limit, args...)
	if err != nil {
		return nil, err
	}
	return &repository.PageResult[model.Project]{Items: items, Total: total}, nil
}

// All returns every project ordered by name.
func (r *ProjectPostgres) All(ctx context.Context) ([]model.Project, error) {
	return r.query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY name ASC`)
}

func (r *ProjectPostgres) query(ctx context.Context, q string, args ...any) ([]model.Project, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update overwrites the mutable columns of a project.
func (r *ProjectPostgres) Update(ctx context.Context, p *model.Project) (*model.Project, error) {
	const q = `
		UPDATE projects
		SET name = $2, client = $3, description = $4, status = $5, billing_type = $6, billing_sub_type = $7,
			fixed_amount = $8, hourly_rate = $9, estimated_hours = $10, retainer_hours = $11,
			start_date = $12, end_date = $13, updated_at = $14
		WHERE id = $1
		RETURNING ` + projectColumns
	row := r.db.QueryRowContext(ctx, q,
		p.ID,
		p.Name,
		p.Client,
		p.Description,
		string(p.Status),
		string(p.Billing.Type),
		string(p.Billing.SubType),
		p.FixedAmount,
		p.HourlyRate,
		p.EstimatedHours,
		p.RetainerHours,
		p.StartDate,
		nullDate(p.EndDate),
		p.UpdatedAt,
	)
	return scanProject(row)
}

// Delete removes a project by ID. Time logs cascade. Missing rows are not an error.
func (r *ProjectPostgres) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	return err
}

// CountByStatus groups projects by status.
func (r *ProjectPostgres) CountByStatus(ctx context.Context) (map[model.ProjectStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM projects GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[model.ProjectStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[model.ProjectStatus(status)] = n
	}
	return out, rows.Err()
}
