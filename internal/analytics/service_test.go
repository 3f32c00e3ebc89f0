package analytics

import (
	"reflect"
	"testing"
	"time"
)

func TestRatePercent(t *testing.T) {
	tests := []struct {
		name  string
		part  int
		total int
		want  float64
	}{
		{"zero total", 5, 0, 0},
		{"zero part", 0, 100, 0},
		{"all resolved", 50, 50, 100},
		{"one decimal", 173, 200, 86.5},
		{"rounds up", 1, 3, 33.3},
		{"rounds half", 2, 3, 66.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RatePercent(tt.part, tt.total); got != tt.want {
				t.Errorf("RatePercent(%d, %d) = %v, want %v", tt.part, tt.total, got, tt.want)
			}
		})
	}
}

func TestRound1(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{3.44, 3.4},
		{3.45, 3.5},
		{3.46, 3.5},
		{-1.25, -1.3},
	}

	for _, tt := range tests {
		if got := Round1(tt.in); got != tt.want {
			t.Errorf("Round1(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBuildSummary(t *testing.T) {
	statuses := map[string]int{
		"new":          3,
		"under_review": 2,
		"in_progress":  5,
		"resolved":     8,
		"closed":       2,
	}
	durations := []time.Duration{
		24 * time.Hour,
		48 * time.Hour,
		30 * time.Hour,
	}

	summary := buildSummary(statuses, durations, 17, 4)

	if summary.TotalComplaints != 20 {
		t.Errorf("expected 20 total, got %d", summary.TotalComplaints)
	}
	if summary.ActiveComplaints != 10 {
		t.Errorf("expected 10 active, got %d", summary.ActiveComplaints)
	}
	if summary.ResolvedComplaints != 8 {
		t.Errorf("expected 8 resolved, got %d", summary.ResolvedComplaints)
	}
	if summary.ResolutionRate != 40 {
		t.Errorf("expected resolution rate 40, got %v", summary.ResolutionRate)
	}
	if summary.AvgResolutionHours != 34 {
		t.Errorf("expected 34 average hours, got %d", summary.AvgResolutionHours)
	}
	if summary.AvgRating != 4.3 {
		t.Errorf("expected average rating 4.3, got %v", summary.AvgRating)
	}
}

func TestBuildSummaryEmpty(t *testing.T) {
	summary := buildSummary(map[string]int{}, nil, 0, 0)

	if summary.TotalComplaints != 0 || summary.ResolutionRate != 0 ||
		summary.AvgResolutionHours != 0 || summary.AvgRating != 0 {
		t.Errorf("expected all-zero summary, got %+v", summary)
	}
}

func TestFillPriorityCountsIncludesZeros(t *testing.T) {
	got := fillPriorityCounts(map[string]int{"high": 4})

	want := map[string]int{"low": 0, "medium": 0, "high": 4, "urgent": 0}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("fillPriorityCounts() = %v, want %v", got, want)
	}
}

func TestRankCategories(t *testing.T) {
	got := rankCategories(map[string]int{
		"electricity": 12,
		"water":       30,
		"roads":       12,
		"health":      0,
	})

	want := []CategoryCount{
		{Category: "Water", Count: 30, Percentage: 55.6},
		{Category: "Electricity", Count: 12, Percentage: 22.2},
		{Category: "Roads", Count: 12, Percentage: 22.2},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("rankCategories() = %v, want %v", got, want)
	}
}

func TestBuildPriorityBreakdown(t *testing.T) {
	got := buildPriorityBreakdown(map[string]int{"high": 3, "medium": 1})

	want := []PriorityCount{
		{Priority: "low", Count: 0, Percentage: 0},
		{Priority: "medium", Count: 1, Percentage: 25},
		{Priority: "high", Count: 3, Percentage: 75},
		{Priority: "urgent", Count: 0, Percentage: 0},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("buildPriorityBreakdown() = %v, want %v", got, want)
	}
}

func TestFillTrendRates(t *testing.T) {
	got := fillTrendRates([]MonthBucket{
		{Month: "2026-01", Filed: 3, Resolved: 2},
		{Month: "2026-02", Filed: 0, Resolved: 0},
		{Month: "2026-03", Filed: 4, Resolved: 4},
	})

	if got[0].Rate != 67 {
		t.Errorf("expected rate 67, got %d", got[0].Rate)
	}
	if got[1].Rate != 0 {
		t.Errorf("expected rate 0 for empty month, got %d", got[1].Rate)
	}
	if got[2].Rate != 100 {
		t.Errorf("expected rate 100, got %d", got[2].Rate)
	}
}

func TestBuildDepartmentStats(t *testing.T) {
	got := buildDepartmentStats([]DepartmentAggregate{
		{Name: "Bihar State Electricity Board", SLA: 48, Total: 200, Resolved: 173, AvgHours: 33.6},
		{Name: "Patna Municipal Corporation", SLA: 0, Total: 10, Resolved: 0},
		{Name: "Bihar Police", SLA: 12, Total: 10, Resolved: 0},
		{Name: "Bihar Education Department", SLA: 72, Total: 0, Resolved: 0},
	})

	if len(got) != 4 {
		t.Fatalf("expected 4 departments, got %d", len(got))
	}

	if got[0].ResolutionRate != 86.5 {
		t.Errorf("expected resolution rate 86.5, got %v", got[0].ResolutionRate)
	}
	if got[0].AvgResponseTime != 34 {
		t.Errorf("expected measured 34h, got %d", got[0].AvgResponseTime)
	}
	if got[0].Active != 27 {
		t.Errorf("expected 27 active, got %d", got[0].Active)
	}

	// Departments sort by total desc, then name
	if got[1].Department != "Bihar Police" {
		t.Errorf("unexpected order, got %q second", got[1].Department)
	}

	// No resolutions falls back to the SLA, then to the default
	if got[1].AvgResponseTime != 12 {
		t.Errorf("expected SLA 12, got %d", got[1].AvgResponseTime)
	}
	if got[2].AvgResponseTime != DefaultDepartmentSLA {
		t.Errorf("expected default SLA %d, got %d", DefaultDepartmentSLA, got[2].AvgResponseTime)
	}
	if got[2].ResolutionRate != 0 {
		t.Errorf("expected 0 rate for no resolutions, got %v", got[2].ResolutionRate)
	}

	// Idle departments still appear, carrying their SLA
	if got[3].Department != "Bihar Education Department" {
		t.Fatalf("expected idle department last, got %q", got[3].Department)
	}
	if got[3].Total != 0 || got[3].Active != 0 || got[3].ResolutionRate != 0 {
		t.Errorf("expected zeroed workload for idle department, got %+v", got[3])
	}
	if got[3].AvgResponseTime != 72 {
		t.Errorf("expected SLA 72 for idle department, got %d", got[3].AvgResponseTime)
	}
}
