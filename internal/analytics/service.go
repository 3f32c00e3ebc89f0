package analytics

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"
)

// DefaultTimeframeDays is the analytics window when none is requested
const DefaultTimeframeDays = 30

// trendMonths is the length of the trailing monthly trend
const trendMonths = 6

// DefaultDepartmentSLA is assumed when a department row carries no SLA
const DefaultDepartmentSLA = 24

// Overview is the analytics response for one timeframe
type Overview struct {
	Timeframe    int               `json:"timeframe"`
	Summary      Summary           `json:"summary"`
	ByStatus     map[string]int    `json:"byStatus"`
	ByPriority   []PriorityCount   `json:"byPriority"`
	ByCategory   []CategoryCount   `json:"byCategory"`
	ByDepartment []DepartmentStats `json:"byDepartment"`
	MonthlyTrend []MonthBucket     `json:"monthlyTrend"`
	Recent       []RecentComplaint `json:"recent"`
}

// Summary holds the headline numbers
type Summary struct {
	TotalComplaints    int     `json:"totalComplaints"`
	ActiveComplaints   int     `json:"activeComplaints"`
	ResolvedComplaints int     `json:"resolvedComplaints"`
	ClosedComplaints   int     `json:"closedComplaints"`
	ResolutionRate     float64 `json:"resolutionRate"`
	AvgResolutionHours int     `json:"avgResolutionHours"`
	AvgRating          float64 `json:"avgRating"`
}

// CategoryCount is one category slice, capitalized for display
type CategoryCount struct {
	Category   string  `json:"category"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// PriorityCount is one priority slice, zero counts included
type PriorityCount struct {
	Priority   string  `json:"priority"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// DepartmentStats aggregates one department's workload
type DepartmentStats struct {
	Department      string  `json:"department"`
	Total           int     `json:"total"`
	Resolved        int     `json:"resolved"`
	Active          int     `json:"active"`
	ResolutionRate  float64 `json:"resolutionRate"`
	AvgResponseTime int     `json:"avgResponseTime"`
}

// MonthBucket is one month of the trailing trend
type MonthBucket struct {
	Month    string `json:"month"`
	Filed    int    `json:"filed"`
	Resolved int    `json:"resolved"`
	Rate     int    `json:"rate"`
}

// RecentComplaint is a compact row for the recent activity list
type RecentComplaint struct {
	ComplaintID string    `json:"complaintId"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	Department  string    `json:"department"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Repository provides the raw aggregates the service assembles.
// Counts span the whole complaint history; the timeframe only scopes
// the resolution time averages.
type Repository interface {
	StatusCounts(ctx context.Context) (map[string]int, error)
	PriorityCounts(ctx context.Context) (map[string]int, error)
	CategoryCounts(ctx context.Context) (map[string]int, error)
	DepartmentAggregates(ctx context.Context, since time.Time) ([]DepartmentAggregate, error)
	ResolutionDurations(ctx context.Context, since time.Time) ([]time.Duration, error)
	RatingStats(ctx context.Context) (sum int, count int, err error)
	MonthlyCounts(ctx context.Context, months int) ([]MonthBucket, error)
	RecentComplaints(ctx context.Context, limit int) ([]RecentComplaint, error)
}

// DepartmentAggregate is one department row straight from the database
type DepartmentAggregate struct {
	Name     string
	SLA      int
	Total    int
	Resolved int
	AvgHours float64
}

// Service assembles the analytics overview
type Service struct {
	repo Repository
}

// NewService creates a new analytics service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Overview computes the analytics overview. Counts cover the whole
// history; timeframeDays scopes the resolution time averages.
func (s *Service) Overview(ctx context.Context, timeframeDays int) (*Overview, error) {
	if timeframeDays <= 0 {
		timeframeDays = DefaultTimeframeDays
	}
	since := time.Now().AddDate(0, 0, -timeframeDays)

	statuses, err := s.repo.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}

	priorities, err := s.repo.PriorityCounts(ctx)
	if err != nil {
		return nil, err
	}

	categories, err := s.repo.CategoryCounts(ctx)
	if err != nil {
		return nil, err
	}

	departments, err := s.repo.DepartmentAggregates(ctx, since)
	if err != nil {
		return nil, err
	}

	durations, err := s.repo.ResolutionDurations(ctx, since)
	if err != nil {
		return nil, err
	}

	ratingSum, ratingCount, err := s.repo.RatingStats(ctx)
	if err != nil {
		return nil, err
	}

	trend, err := s.repo.MonthlyCounts(ctx, trendMonths)
	if err != nil {
		return nil, err
	}

	recent, err := s.repo.RecentComplaints(ctx, 10)
	if err != nil {
		return nil, err
	}

	return &Overview{
		Timeframe:    timeframeDays,
		Summary:      buildSummary(statuses, durations, ratingSum, ratingCount),
		ByStatus:     fillStatusCounts(statuses),
		ByPriority:   buildPriorityBreakdown(priorities),
		ByCategory:   rankCategories(categories),
		ByDepartment: buildDepartmentStats(departments),
		MonthlyTrend: fillTrendRates(trend),
		Recent:       recent,
	}, nil
}

func buildSummary(statuses map[string]int, durations []time.Duration, ratingSum, ratingCount int) Summary {
	total := 0
	for _, n := range statuses {
		total += n
	}

	active := statuses["new"] + statuses["under_review"] + statuses["in_progress"]
	resolved := statuses["resolved"]
	closed := statuses["closed"]

	return Summary{
		TotalComplaints:    total,
		ActiveComplaints:   active,
		ResolvedComplaints: resolved,
		ClosedComplaints:   closed,
		ResolutionRate:     RatePercent(resolved, total),
		AvgResolutionHours: avgHours(durations),
		AvgRating:          avgRating(ratingSum, ratingCount),
	}
}

// Round1 rounds to one decimal place
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// RatePercent computes part/total as a percentage with one decimal
// place, and 0 for an empty total.
func RatePercent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return Round1(float64(part) / float64(total) * 100)
}

func avgHours(durations []time.Duration) int {
	if len(durations) == 0 {
		return 0
	}
	var sum float64
	for _, d := range durations {
		sum += d.Hours()
	}
	return int(math.Round(sum / float64(len(durations))))
}

func avgRating(sum, count int) float64 {
	if count == 0 {
		return 0
	}
	return Round1(float64(sum) / float64(count))
}

// fillStatusCounts guarantees every lifecycle status appears, zeros included
func fillStatusCounts(counts map[string]int) map[string]int {
	out := map[string]int{
		"new": 0, "under_review": 0, "in_progress": 0, "resolved": 0, "closed": 0,
	}
	for k, v := range counts {
		out[k] = v
	}
	return out
}

// fillPriorityCounts guarantees every priority appears, zeros included
func fillPriorityCounts(counts map[string]int) map[string]int {
	out := map[string]int{"low": 0, "medium": 0, "high": 0, "urgent": 0}
	for k, v := range counts {
		out[k] = v
	}
	return out
}

// buildPriorityBreakdown renders all four priorities in escalation
// order with their share of the window
func buildPriorityBreakdown(counts map[string]int) []PriorityCount {
	filled := fillPriorityCounts(counts)

	total := 0
	for _, n := range filled {
		total += n
	}

	out := make([]PriorityCount, 0, 4)
	for _, p := range []string{"low", "medium", "high", "urgent"} {
		out = append(out, PriorityCount{
			Priority:   p,
			Count:      filled[p],
			Percentage: RatePercent(filled[p], total),
		})
	}
	return out
}

// fillTrendRates computes each month's resolved share as an integer
// percent
func fillTrendRates(trend []MonthBucket) []MonthBucket {
	for i, b := range trend {
		if b.Filed > 0 {
			trend[i].Rate = int(math.Round(float64(b.Resolved) / float64(b.Filed) * 100))
		}
	}
	return trend
}

// rankCategories drops empty categories and sorts descending by count,
// capitalizing names for display. Ties break alphabetically so output
// is stable.
func rankCategories(counts map[string]int) []CategoryCount {
	total := 0
	for _, count := range counts {
		total += count
	}

	out := make([]CategoryCount, 0, len(counts))
	for category, count := range counts {
		if count <= 0 {
			continue
		}
		out = append(out, CategoryCount{
			Category:   capitalize(category),
			Count:      count,
			Percentage: RatePercent(count, total),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})

	return out
}

func buildDepartmentStats(aggregates []DepartmentAggregate) []DepartmentStats {
	out := make([]DepartmentStats, 0, len(aggregates))
	for _, a := range aggregates {
		// Measured resolution time when available, SLA otherwise
		responseTime := int(math.Round(a.AvgHours))
		if responseTime <= 0 {
			responseTime = a.SLA
		}
		if responseTime <= 0 {
			responseTime = DefaultDepartmentSLA
		}

		out = append(out, DepartmentStats{
			Department:      a.Name,
			Total:           a.Total,
			Resolved:        a.Resolved,
			Active:          a.Total - a.Resolved,
			ResolutionRate:  RatePercent(a.Resolved, a.Total),
			AvgResponseTime: responseTime,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Department < out[j].Department
	})

	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
