package notification

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bihar-gov/sevalink/internal/shared/auth"
)

func TestStatusRequiresAdmin(t *testing.T) {
	router := NewHandler(nil, auth.RequireRoles(auth.RoleAdmin)).Routes()

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	citizen := &auth.User{ID: "usr_1", Role: auth.RoleCitizen}
	req = req.WithContext(context.WithValue(req.Context(), auth.UserContextKey, citizen))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for a citizen, got %d", rec.Code)
	}
}

func TestStatusWithoutLog(t *testing.T) {
	router := NewHandler(nil, nil).Routes()

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 without a log repository, got %d", rec.Code)
	}
}
