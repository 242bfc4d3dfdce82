// Package revenue turns projects and their time logs into recognized revenue
// according to each project's billing model.
package revenue

import (
	"math"
	"sort"
	"time"

	"opsdesk/internal/model"
)

// Range is an inclusive range of calendar dates.
type Range struct {
	From time.Time
	To   time.Time
}

// NewRange normalises from and to to calendar dates.
func NewRange(from, to time.Time) Range {
	return Range{From: model.DateOf(from), To: model.DateOf(to)}
}

// YearRange covers January 1 to December 31 of year.
func YearRange(year int) Range {
	return Range{
		From: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
}

// MonthRange covers the whole calendar month containing t.
func MonthRange(t time.Time) Range {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Range{From: first, To: first.AddDate(0, 1, -1)}
}

// Contains reports whether the calendar day of t is inside r.
func (r Range) Contains(t time.Time) bool {
	d := model.DateOf(t)
	return !d.Before(r.From) && !d.After(r.To)
}

// Valid is false when To is before From.
func (r Range) Valid() bool {
	return !r.To.Before(r.From)
}

func (r Range) intersect(o Range) (Range, bool) {
	out := r
	if o.From.After(out.From) {
		out.From = o.From
	}
	if o.To.Before(out.To) {
		out.To = o.To
	}
	return out, out.Valid()
}

// Months returns the first day of every calendar month r overlaps.
func Months(r Range) []time.Time {
	if !r.Valid() {
		return nil
	}
	var out []time.Time
	m := time.Date(r.From.Year(), r.From.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !m.After(r.To) {
		out = append(out, m)
		m = m.AddDate(0, 1, 0)
	}
	return out
}

func activeRange(p model.Project) Range {
	ar := Range{From: model.DateOf(p.StartDate), To: time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)}
	if p.EndDate != nil {
		ar.To = model.DateOf(*p.EndDate)
	}
	return ar
}

// Hours sums the hours logged on project p inside r.
func Hours(p model.Project, logs []model.TimeLog, r Range) float64 {
	var h float64
	for _, l := range logs {
		if l.ProjectID == p.ID && r.Contains(l.Date) {
			h += l.Hours
		}
	}
	return h
}

// ProjectRevenue is the revenue p recognizes inside r.
//
// One-time projects recognize their whole value on the start date. Hourly projects
// bill every logged hour. Retainers bill each calendar month in which the project is
// active on at least one day of r; the hours sub-type also bills hours logged beyond
// the monthly allotment.
func ProjectRevenue(p model.Project, logs []model.TimeLog, r Range) float64 {
	if !r.Valid() {
		return 0
	}

	var total float64
	switch p.Billing.Type {
	case model.BillingOneTime:
		if !r.Contains(p.StartDate) {
			return 0
		}
		if p.Billing.SubType == model.SubTypeHours {
			total = p.EstimatedHours * p.HourlyRate
		} else {
			total = p.FixedAmount
		}
	case model.BillingHourly:
		total = Hours(p, logs, r) * p.HourlyRate
	case model.BillingRetainer:
		active, ok := r.intersect(activeRange(p))
		if !ok {
			return 0
		}
		for _, m := range Months(active) {
			month, _ := MonthRange(m).intersect(active)
			if p.Billing.SubType == model.SubTypeHours {
				total += p.RetainerHours * p.HourlyRate
				if over := Hours(p, logs, month) - p.RetainerHours; over > 0 {
					total += over * p.HourlyRate
				}
			} else {
				total += p.FixedAmount
			}
		}
	}
	return round2(total)
}

// MonthlyBreakdown splits a project's revenue for year into calendar months (index 0 is January).
func MonthlyBreakdown(p model.Project, logs []model.TimeLog, year int) [12]float64 {
	var out [12]float64
	for i := range out {
		m := time.Date(year, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC)
		out[i] = ProjectRevenue(p, logs, MonthRange(m))
	}
	return out
}

// ProjectAmount is one project's contribution to a Summary.
type ProjectAmount struct {
	ProjectID string  `json:"project_id"`
	Name      string  `json:"name"`
	Client    string  `json:"client"`
	Billing   string  `json:"billing"`
	Hours     float64 `json:"hours"`
	Revenue   float64 `json:"revenue"`
}

// Summary aggregates revenue across projects for a date range.
type Summary struct {
	From      time.Time          `json:"from"`
	To        time.Time          `json:"to"`
	Total     float64            `json:"total"`
	Hours     float64            `json:"hours"`
	ByProject []ProjectAmount    `json:"by_project"`
	ByBilling map[string]float64 `json:"by_billing"`
}

// Summarize computes revenue for every project over r. Projects are ordered by revenue, highest first.
func Summarize(projects []model.Project, logs []model.TimeLog, r Range) Summary {
	s := Summary{
		From:      r.From,
		To:        r.To,
		ByProject: make([]ProjectAmount, 0, len(projects)),
		ByBilling: make(map[string]float64),
	}
	for _, p := range projects {
		rev := ProjectRevenue(p, logs, r)
		hrs := Hours(p, logs, r)
		s.ByProject = append(s.ByProject, ProjectAmount{
			ProjectID: p.ID,
			Name:      p.Name,
			Client:    p.Client,
			Billing:   p.Billing.Key(),
			Hours:     hrs,
			Revenue:   rev,
		})
		s.ByBilling[p.Billing.Key()] = round2(s.ByBilling[p.Billing.Key()] + rev)
		s.Total += rev
		s.Hours += hrs
	}
	s.Total = round2(s.Total)
	sort.SliceStable(s.ByProject, func(i, j int) bool {
		return s.ByProject[i].Revenue > s.ByProject[j].Revenue
	})
	return s
}

// MonthTotal is the revenue recognized across all projects in one month.
type MonthTotal struct {
	Month   int     `json:"month"`
	Revenue float64 `json:"revenue"`
	Hours   float64 `json:"hours"`
}

// Monthly sums MonthlyBreakdown over all projects for year.
func Monthly(projects []model.Project, logs []model.TimeLog, year int) []MonthTotal {
	out := make([]MonthTotal, 12)
	for i := range out {
		out[i].Month = i + 1
	}
	for _, p := range projects {
		mb := MonthlyBreakdown(p, logs, year)
		for i, v := range mb {
			out[i].Revenue = round2(out[i].Revenue + v)
		}
	}
	for _, l := range logs {
		if l.Date.Year() == year {
			out[l.Date.Month()-1].Hours += l.Hours
		}
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
