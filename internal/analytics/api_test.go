package analytics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bihar-gov/sevalink/internal/shared/auth"
)

type stubRepo struct{}

func (stubRepo) StatusCounts(ctx context.Context) (map[string]int, error) {
	return map[string]int{"new": 1}, nil
}

func (stubRepo) PriorityCounts(ctx context.Context) (map[string]int, error) {
	return map[string]int{"medium": 1}, nil
}

func (stubRepo) CategoryCounts(ctx context.Context) (map[string]int, error) {
	return map[string]int{"water": 1}, nil
}

func (stubRepo) DepartmentAggregates(ctx context.Context, since time.Time) ([]DepartmentAggregate, error) {
	return nil, nil
}

func (stubRepo) ResolutionDurations(ctx context.Context, since time.Time) ([]time.Duration, error) {
	return nil, nil
}

func (stubRepo) RatingStats(ctx context.Context) (int, int, error) {
	return 0, 0, nil
}

func (stubRepo) MonthlyCounts(ctx context.Context, months int) ([]MonthBucket, error) {
	return nil, nil
}

func (stubRepo) RecentComplaints(ctx context.Context, limit int) ([]RecentComplaint, error) {
	return []RecentComplaint{}, nil
}

func TestOverviewRequiresAdmin(t *testing.T) {
	handler := NewHandler(NewService(stubRepo{}), auth.RequireRoles(auth.RoleAdmin))
	router := handler.Routes()

	tests := []struct {
		name string
		user *auth.User
		want int
	}{
		{"no user", nil, http.StatusUnauthorized},
		{"citizen", &auth.User{ID: "usr_1", Role: auth.RoleCitizen}, http.StatusForbidden},
		{"department admin", &auth.User{ID: "usr_2", Role: auth.RoleDepartmentAdmin}, http.StatusForbidden},
		{"admin", &auth.User{ID: "usr_3", Role: auth.RoleAdmin}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.user != nil {
				req = req.WithContext(context.WithValue(req.Context(), auth.UserContextKey, tt.user))
			}
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("got status %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
