package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"opsdesk/internal/cache"
	"opsdesk/internal/logger"
	"opsdesk/internal/model"
	"opsdesk/internal/repository"
	"opsdesk/internal/revenue"
)

// ProjectRevenueReport is one project's revenue over a range with a per-month split.
type ProjectRevenueReport struct {
	ProjectID string                `json:"project_id"`
	Name      string                `json:"name"`
	Billing   string                `json:"billing"`
	From      time.Time             `json:"from"`
	To        time.Time             `json:"to"`
	Revenue   float64               `json:"revenue"`
	Hours     float64               `json:"hours"`
	Months    []MonthRevenue        `json:"months"`
	Progress  model.ProjectProgress `json:"progress"`
}

// MonthRevenue is revenue recognized in one calendar month.
type MonthRevenue struct {
	Month   string  `json:"month"` // YYYY-MM
	Revenue float64 `json:"revenue"`
	Hours   float64 `json:"hours"`
}

// WorkTypeHours is the total logged for one work type.
type WorkTypeHours struct {
	WorkType model.WorkType `json:"work_type"`
	Hours    float64        `json:"hours"`
}

// UserHours is the total logged by one user.
type UserHours struct {
	UserID string  `json:"user_id"`
	Name   string  `json:"name"`
	Hours  float64 `json:"hours"`
}

// Dashboard is the landing-page overview.
type Dashboard struct {
	ProjectsByStatus map[model.ProjectStatus]int `json:"projects_by_status"`
	HoursThisMonth   float64                     `json:"hours_this_month"`
	RevenueThisMonth float64                     `json:"revenue_this_month"`
	RevenueThisYear  float64                     `json:"revenue_this_year"`
	PendingLeaves    int                         `json:"pending_leaves"`
	ActiveUsers      int                         `json:"active_users"`
	GeneratedAt      time.Time                   `json:"generated_at"`
}

// AnalyticsService computes revenue and effort aggregates. Results are cached until the next
// project or time log write.
type AnalyticsService interface {
	Revenue(ctx context.Context, from, to time.Time) (*revenue.Summary, error)
	MonthlyRevenue(ctx context.Context, year int) ([]revenue.MonthTotal, error)
	ProjectRevenue(ctx context.Context, projectID string, from, to time.Time) (*ProjectRevenueReport, error)
	HoursByWorkType(ctx context.Context, f repository.TimeLogFilter) ([]WorkTypeHours, error)
	HoursByUser(ctx context.Context, from, to time.Time) ([]UserHours, error)
	Dashboard(ctx context.Context) (*Dashboard, error)
}

type analyticsService struct {
	projects repository.ProjectRepository
	logs     repository.TimeLogRepository
	users    repository.UserRepository
	leaves   repository.LeaveRepository
	cache    cache.Cache
	ttl      time.Duration
	log      *zap.Logger
	now      clock
}

func NewAnalyticsService(
	projects repository.ProjectRepository,
	logs repository.TimeLogRepository,
	users repository.UserRepository,
	leaves repository.LeaveRepository,
	c cache.Cache,
	ttl time.Duration,
	log *zap.Logger,
	loc *time.Location,
) AnalyticsService {
	if c == nil {
		c = cache.Noop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &analyticsService{
		projects: projects,
		logs:     logs,
		users:    users,
		leaves:   leaves,
		cache:    c,
		ttl:      ttl,
		log:      log,
		now:      systemClock(loc),
	}
}

// cached serves key from the cache or computes and stores it. Cache failures only cost a recompute.
func cached[T any](ctx context.Context, s *analyticsService, key string, compute func() (T, error)) (T, error) {
	key = cache.AnalyticsPrefix + key

	var v T
	hit, err := s.cache.Get(ctx, key, &v)
	if err != nil {
		logger.For(ctx, s.log).Warn("analytics_cache_get_failed", zap.String("key", key), zap.Error(err))
	}
	if hit {
		return v, nil
	}

	v, err = compute()
	if err != nil {
		return v, err
	}
	if err := s.cache.Set(ctx, key, v, s.ttl); err != nil {
		logger.For(ctx, s.log).Warn("analytics_cache_set_failed", zap.String("key", key), zap.Error(err))
	}
	return v, nil
}

func checkRange(from, to time.Time) (revenue.Range, error) {
	if from.IsZero() || to.IsZero() {
		return revenue.Range{}, fieldError("from", "from and to are required")
	}
	r := revenue.NewRange(from, to)
	if !r.Valid() {
		return revenue.Range{}, fieldError("to", "to must not be before from")
	}
	return r, nil
}

func rangeKey(r revenue.Range) string {
	return r.From.Format(model.DateLayout) + ":" + r.To.Format(model.DateLayout)
}

func (s *analyticsService) load(ctx context.Context, r revenue.Range) ([]model.Project, []model.TimeLog, error) {
	projects, err := s.projects.All(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading projects: %w", err)
	}
	logs, err := s.logs.All(ctx, repository.TimeLogFilter{From: r.From, To: r.To})
	if err != nil {
		return nil, nil, fmt.Errorf("loading time logs: %w", err)
	}
	return projects, logs, nil
}

func (s *analyticsService) Revenue(ctx context.Context, from, to time.Time) (*revenue.Summary, error) {
	r, err := checkRange(from, to)
	if err != nil {
		return nil, err
	}
	sum, err := cached(ctx, s, "revenue:"+rangeKey(r), func() (revenue.Summary, error) {
		projects, logs, err := s.load(ctx, r)
		if err != nil {
			return revenue.Summary{}, err
		}
		return revenue.Summarize(projects, logs, r), nil
	})
	if err != nil {
		return nil, err
	}
	return &sum, nil
}

func (s *analyticsService) MonthlyRevenue(ctx context.Context, year int) ([]revenue.MonthTotal, error) {
	if year == 0 {
		year = s.now().Year()
	}
	if year < 2000 || year > 2100 {
		return nil, fieldError("year", "year must be between 2000 and 2100")
	}
	return cached(ctx, s, fmt.Sprintf("monthly:%d", year), func() ([]revenue.MonthTotal, error) {
		projects, logs, err := s.load(ctx, revenue.YearRange(year))
		if err != nil {
			return nil, err
		}
		return revenue.Monthly(projects, logs, year), nil
	})
}

func (s *analyticsService) ProjectRevenue(ctx context.Context, projectID string, from, to time.Time) (*ProjectRevenueReport, error) {
	if projectID == "" {
		return nil, ErrIDRequired
	}
	p, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, notFound(err, ErrProjectNotFound)
	}
	if from.IsZero() {
		from = p.StartDate
	}
	if to.IsZero() {
		// A project that has not started yet reports its start day only.
		to = s.now.today()
		if to.Before(from) {
			to = from
		}
	}
	r, err := checkRange(from, to)
	if err != nil {
		return nil, err
	}

	rep, err := cached(ctx, s, "project:"+p.ID+":"+rangeKey(r), func() (ProjectRevenueReport, error) {
		logs, err := s.logs.All(ctx, repository.TimeLogFilter{ProjectID: p.ID})
		if err != nil {
			return ProjectRevenueReport{}, fmt.Errorf("loading time logs: %w", err)
		}
		rep := ProjectRevenueReport{
			ProjectID: p.ID,
			Name:      p.Name,
			Billing:   p.Billing.Key(),
			From:      r.From,
			To:        r.To,
			Revenue:   revenue.ProjectRevenue(*p, logs, r),
			Hours:     revenue.Hours(*p, logs, r),
		}
		for _, m := range revenue.Months(r) {
			mr := revenue.MonthRange(m)
			if mr.From.Before(r.From) {
				mr.From = r.From
			}
			if mr.To.After(r.To) {
				mr.To = r.To
			}
			rep.Months = append(rep.Months, MonthRevenue{
				Month:   m.Format("2006-01"),
				Revenue: revenue.ProjectRevenue(*p, logs, mr),
				Hours:   revenue.Hours(*p, logs, mr),
			})
		}

		total := revenue.Hours(*p, logs, revenue.NewRange(p.StartDate, s.now.today()))
		rep.Progress = model.ProjectProgress{ProjectID: p.ID, LoggedHours: round2(total), EstimatedHours: p.EstimatedHours}
		if p.EstimatedHours > 0 {
			rep.Progress.Percent = round2(min(100, total/p.EstimatedHours*100))
		}
		return rep, nil
	})
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

func (s *analyticsService) HoursByWorkType(ctx context.Context, f repository.TimeLogFilter) ([]WorkTypeHours, error) {
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return nil, fieldError("to", "to must not be before from")
	}
	key := fmt.Sprintf("worktypes:%s:%s:%s:%s",
		f.UserID, f.ProjectID, f.From.Format(model.DateLayout), f.To.Format(model.DateLayout))
	return cached(ctx, s, key, func() ([]WorkTypeHours, error) {
		f.WorkType = ""
		logs, err := s.logs.All(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("loading time logs: %w", err)
		}
		totals := make(map[model.WorkType]float64, len(model.WorkTypes))
		for _, l := range logs {
			totals[l.WorkType] += l.Hours
		}
		out := make([]WorkTypeHours, 0, len(model.WorkTypes))
		for _, wt := range model.WorkTypes {
			out = append(out, WorkTypeHours{WorkType: wt, Hours: round2(totals[wt])})
		}
		return out, nil
	})
}

func (s *analyticsService) HoursByUser(ctx context.Context, from, to time.Time) ([]UserHours, error) {
	r, err := checkRange(from, to)
	if err != nil {
		return nil, err
	}
	return cached(ctx, s, "users:"+rangeKey(r), func() ([]UserHours, error) {
		logs, err := s.logs.All(ctx, repository.TimeLogFilter{From: r.From, To: r.To})
		if err != nil {
			return nil, fmt.Errorf("loading time logs: %w", err)
		}
		totals := make(map[string]float64)
		for _, l := range logs {
			totals[l.UserID] += l.Hours
		}

		out := make([]UserHours, 0, len(totals))
		for id, h := range totals {
			uh := UserHours{UserID: id, Hours: round2(h)}
			if u, err := s.users.FindByID(ctx, id); err == nil {
				uh.Name = u.Name
			}
			out = append(out, uh)
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].Hours != out[j].Hours {
				return out[i].Hours > out[j].Hours
			}
			return out[i].UserID < out[j].UserID
		})
		return out, nil
	})
}

func (s *analyticsService) Dashboard(ctx context.Context) (*Dashboard, error) {
	now := s.now()
	month := revenue.MonthRange(now)
	year := revenue.YearRange(now.Year())

	d, err := cached(ctx, s, "dashboard:"+month.From.Format(model.DateLayout), func() (Dashboard, error) {
		counts, err := s.projects.CountByStatus(ctx)
		if err != nil {
			return Dashboard{}, fmt.Errorf("counting projects: %w", err)
		}
		projects, logs, err := s.load(ctx, year)
		if err != nil {
			return Dashboard{}, err
		}
		pending, err := s.leaves.CountByStatus(ctx, model.LeavePending)
		if err != nil {
			return Dashboard{}, fmt.Errorf("counting pending leaves: %w", err)
		}
		active := true
		users, err := s.users.List(ctx, repository.UserFilter{Active: &active}, repository.PageQuery{Limit: 1})
		if err != nil {
			return Dashboard{}, fmt.Errorf("counting active users: %w", err)
		}

		var hours float64
		for _, l := range logs {
			if month.Contains(l.Date) {
				hours += l.Hours
			}
		}
		if counts == nil {
			counts = make(map[model.ProjectStatus]int, len(model.ProjectStatuses))
		}
		for _, st := range model.ProjectStatuses {
			if _, ok := counts[st]; !ok {
				counts[st] = 0
			}
		}
		return Dashboard{
			ProjectsByStatus: counts,
			HoursThisMonth:   round2(hours),
			RevenueThisMonth: revenue.Summarize(projects, logs, month).Total,
			RevenueThisYear:  revenue.Summarize(projects, logs, year).Total,
			PendingLeaves:    pending,
			ActiveUsers:      users.Total,
			GeneratedAt:      now.UTC(),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}
