package postgres

import (
	"context"
	"database/sql"

	"opsdesk/internal/model"
	"opsdesk/internal/repository"
)

// TimeLogPostgres is a PostgreSQL implementation of repository.TimeLogRepository.
type TimeLogPostgres struct {
	db *sql.DB
}

// NewTimeLogPostgres creates a new TimeLogPostgres repository.
func NewTimeLogPostgres(db *sql.DB) *TimeLogPostgres {
	return &TimeLogPostgres{db: db}
}

var _ repository.TimeLogRepository = (*TimeLogPostgres)(nil)

const timeLogColumns = `id, user_id, project_id, log_date, hours, work_type, description, created_at, updated_at`

func scanTimeLog(s scanner) (*model.TimeLog, error) {
	var (
		l        model.TimeLog
		workType string
	)
	if err := s.Scan(
		&l.ID,
		&l.UserID,
		&l.ProjectID,
		&l.Date,
		&l.Hours,
		&workType,
		&l.Description,
		&l.CreatedAt,
		&l.UpdatedAt,
	); err != nil {
		return nil, err
	}
	l.WorkType = model.WorkType(workType)
	return &l, nil
}

func timeLogConds(f repository.TimeLogFilter) *conds {
	c := &conds{}
	if f.UserID != "" {
		c.add("user_id = ?", f.UserID)
	}
	if f.ProjectID != "" {
		c.add("project_id = ?", f.ProjectID)
	}
	if f.WorkType != "" {
		c.add("work_type = ?", string(f.WorkType))
	}
	if !f.From.IsZero() {
		c.add("log_date >= ?", f.From)
	}
	if !f.To.IsZero() {
		c.add("log_date <= ?", f.To)
	}
	return c
}

// Create inserts a new time log row and returns the stored record.
func (r *TimeLogPostgres) Create(ctx context.Context, l *model.TimeLog) (*model.TimeLog, error) {
	const q = `
		INSERT INTO time_logs (id, user_id, project_id, log_date, hours, work_type, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + timeLogColumns
	row := r.db.QueryRowContext(ctx, q,
		l.ID,
		l.UserID,
		l.ProjectID,
		l.Date,
		l.Hours,
		string(l.WorkType),
		l.Description,
		l.CreatedAt,
		l.UpdatedAt,
	)
	return scanTimeLog(row)
}

// FindByID fetches a single time log by its ID.
func (r *TimeLogPostgres) FindByID(ctx context.Context, id string) (*model.TimeLog, error) {
	const q = `SELECT ` + timeLogColumns + ` FROM time_logs WHERE id = $1`
	return scanTimeLog(r.db.QueryRowContext(ctx, q, id))
}

// List returns time logs, newest date first, with a total count.
func (r *TimeLogPostgres) List(ctx context.Context, f repository.TimeLogFilter, pq repository.PageQuery) (*repository.PageResult[model.TimeLog], error) {
	c := timeLogConds(f)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM time_logs`+c.where(), c.args...).Scan(&total); err != nil {
		return nil, err
	}

	limit, args := c.page(pq.Limit, pq.Offset)
	items, err := r.query(ctx, `SELECT `+timeLogColumns+` FROM time_logs`+c.where()+` ORDER BY log_date DESC, created_at DESC`+limit, args...)
	if err != nil {
		return nil, err
	}
	return &repository.PageResult[model.TimeLog]{Items: items, Total: total}, nil
}

// All returns every time log matching f ordered by date.
func (r *TimeLogPostgres) All(ctx context.Context, f repository.TimeLogFilter) ([]model.TimeLog, error) {
	c := timeLogConds(f)
	return r.query(ctx, `SELECT `+timeLogColumns+` FROM time_logs`+c.where()+` ORDER BY log_date ASC, created_at ASC`, c.args...)
}

func (r *TimeLogPostgres) query(ctx context.Context, q string, args ...any) ([]model.TimeLog, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.TimeLog, 0)
	for rows.Next() {
		l, err := scanTimeLog(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update overwrites the mutable columns of a time log.
func (r *TimeLogPostgres) Update(ctx context.Context, l *model.TimeLog) (*model.TimeLog, error) {
	const q = `
		UPDATE time_logs
		SET project_id = $2, log_date = $3, hours = $4, work_type = $5, description = $6, updated_at = $7
		WHERE id = $1
		RETURNING ` + timeLogColumns
	row := r.db.QueryRowContext(ctx, q,
		l.ID,
		l.ProjectID,
		l.Date,
		l.Hours,
		string(l.WorkType),
		l.Description,
		l.UpdatedAt,
	)
	return scanTimeLog(row)
}

// Delete removes a time log by ID. Missing rows are not an error.
func (r *TimeLogPostgres) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM time_logs WHERE id = $1`, id)
	return err
}

// SumHours totals the hours of every log matching f.
func (r *TimeLogPostgres) SumHours(ctx context.Context, f repository.TimeLogFilter) (float64, error) {
	c := timeLogConds(f)
	var total float64
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(hours), 0) FROM time_logs`+c.where(), c.args...).Scan(&total)
	return total, err
}
