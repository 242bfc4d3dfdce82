package postgres

import (
	"context"
	"database/sql"
	"time"

	"opsdesk/internal/model"
	"opsdesk/internal/repository"
)

// LeavePostgres is a PostgreSQL implementation of repository.LeaveRepository.
type LeavePostgres struct {
	db *sql.DB
}

// NewLeavePostgres creates a new LeavePostgres repository.
func NewLeavePostgres(db *sql.DB) *LeavePostgres {
	return &LeavePostgres{db: db}
}

var _ repository.LeaveRepository = (*LeavePostgres)(nil)

const leaveColumns = `id, user_id, leave_type, start_date, end_date, reason, status, reviewed_by, review_note, created_at, updated_at`

func scanLeave(s scanner) (*model.LeaveRequest, error) {
	var (
		l           model.LeaveRequest
		typ, status string
	)
	if err := s.Scan(
		&l.ID,
		&l.UserID,
		&typ,
		&l.StartDate,
		&l.EndDate,
		&l.Reason,
		&status,
		&l.ReviewedBy,
		&l.ReviewNote,
		&l.CreatedAt,
		&l.UpdatedAt,
	); err != nil {
		return nil, err
	}
	l.Type = model.LeaveType(typ)
	l.Status = model.LeaveStatus(status)
	return &l, nil
}

func leaveConds(f repository.LeaveFilter) *conds {
	c := &conds{}
	if f.UserID != "" {
		c.add("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		c.add("status = ?", string(f.Status))
	}
	if f.Type != "" {
		c.add("leave_type = ?", string(f.Type))
	}
	if f.Year != 0 {
		c.add("start_date <= ? AND end_date >= ?",
			time.Date(f.Year, time.December, 31, 0, 0, 0, 0, time.UTC),
			time.Date(f.Year, time.January, 1, 0, 0, 0, 0, time.UTC))
	}
	return c
}

// Create inserts a new leave request and returns the stored record.
func (r *LeavePostgres) Create(ctx context.Context, l *model.LeaveRequest) (*model.LeaveRequest, error) {
	const q = `
		INSERT INTO leave_requests (id, user_id, leave_type, start_date, end_date, reason, status, reviewed_by, review_note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + leaveColumns
	row := r.db.QueryRowContext(ctx, q,
		l.ID,
		l.UserID,
		string(l.Type),
		l.StartDate,
		l.EndDate,
		l.Reason,
		string(l.Status),
		l.ReviewedBy,
		l.ReviewNote,
		l.CreatedAt,
		l.UpdatedAt,
	)
	return scanLeave(row)
}

// FindByID fetches a single leave request by its ID.
func (r *LeavePostgres) FindByID(ctx context.Context, id string) (*model.LeaveRequest, error) {
	const q = `SELECT ` + leaveColumns + ` FROM leave_requests WHERE id = $1`
	return scanLeave(r.db.QueryRowContext(ctx, q, id))
}

// List returns leave requests, most recent start date first, with a total count.
func (r *LeavePostgres) List(ctx context.Context, f repository.LeaveFilter, pq repository.PageQuery) (*repository.PageResult[model.LeaveRequest], error) {
	c := leaveConds(f)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leave_requests`+c.where(), c.args...).Scan(&total); err != nil {
		return nil, err
	}

	limit, args := c.page(pq.Limit, pq.Offset)
	items, err := r.query(ctx, `SELECT `+leaveColumns+` FROM leave_requests`+c.where()+` ORDER BY start_date DESC, created_at DESC`+limit, args...)
	if err != nil {
		return nil, err
	}
	return &repository.PageResult[model.LeaveRequest]{Items: items, Total: total}, nil
}

// All returns every leave request matching f.
func (r *LeavePostgres) All(ctx context.Context, f repository.LeaveFilter) ([]model.LeaveRequest, error) {
	c := leaveConds(f)
	return r.query(ctx, `SELECT `+leaveColumns+` FROM leave_requests`+c.where()+` ORDER BY start_date ASC`, c.args...)
}

func (r *LeavePostgres) query(ctx context.Context, q string, args ...any) ([]model.LeaveRequest, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.LeaveRequest, 0)
	for rows.Next() {
		l, err := scanLeave(rows)
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

// UpdateStatus persists a review decision or cancellation.
func (r *LeavePostgres) UpdateStatus(ctx context.Context, l *model.LeaveRequest) (*model.LeaveRequest, error) {
	const q = `
		UPDATE leave_requests
		SET status = $2, reviewed_by = $3, review_note = $4, updated_at = $5
		WHERE id = $1
		RETURNING ` + leaveColumns
	row := r.db.QueryRowContext(ctx, q,
		l.ID,
		string(l.Status),
		l.ReviewedBy,
		l.ReviewNote,
		l.UpdatedAt,
	)
	return scanLeave(row)
}

// CountByStatus counts leave requests in the given status.
func (r *LeavePostgres) CountByStatus(ctx context.Context, status model.LeaveStatus) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leave_requests WHERE status = $1`, string(status)).Scan(&n)
	return n, err
}

// Allocations returns the per-employee overrides for year.
func (r *LeavePostgres) Allocations(ctx context.Context, userID string, year int) ([]model.LeaveAllocation, error) {
	const q = `SELECT user_id, year, leave_type, days FROM leave_allocations WHERE user_id = $1 AND year = $2`
	rows, err := r.db.QueryContext(ctx, q, userID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.LeaveAllocation, 0)
	for rows.Next() {
		var (
			a   model.LeaveAllocation
			typ string
		)
		if err := rows.Scan(&a.UserID, &a.Year, &typ, &a.Days); err != nil {
			return nil, err
		}
		a.Type = model.LeaveType(typ)
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpsertAllocation inserts or replaces an allocation override.
func (r *LeavePostgres) UpsertAllocation(ctx context.Context, a model.LeaveAllocation) error {
	const q = `
		INSERT INTO leave_allocations (user_id, year, leave_type, days)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, year, leave_type) DO UPDATE SET days = EXCLUDED.days`
	_, err := r.db.ExecContext(ctx, q, a.UserID, a.Year, string(a.Type), a.Days)
	return err
}
