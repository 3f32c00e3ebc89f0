package attachment

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/bihar-gov/sevalink/internal/shared/auth"
	"github.com/bihar-gov/sevalink/internal/shared/errors"
)

type fakeStore struct {
	removed []string
}

func (f *fakeStore) Upload(ctx context.Context, key string, rd io.Reader, size int64, contentType string) error {
	return nil
}

func (f *fakeStore) PresignURL(ctx context.Context, key string) (string, error) {
	return "https://storage.example.com/" + key, nil
}

func (f *fakeStore) Remove(ctx context.Context, key string) error {
	f.removed = append(f.removed, key)
	return nil
}

func newHeader(name, contentType string, size int64) *multipart.FileHeader {
	h := textproto.MIMEHeader{}
	h.Set("Content-Type", contentType)
	return &multipart.FileHeader{
		Filename: name,
		Header:   h,
		Size:     size,
	}
}

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name    string
		header  *multipart.FileHeader
		want    string
		wantErr bool
	}{
		{"jpeg photo", newHeader("pothole.jpg", "image/jpeg", 2 << 20), "image/jpeg", false},
		{"png photo", newHeader("meter.png", "image/png", 512), "image/png", false},
		{"pdf document", newHeader("bill.pdf", "application/pdf", 5 << 20), "application/pdf", false},
		{"charset suffix stripped", newHeader("bill.pdf", "application/pdf; charset=binary", 512), "application/pdf", false},
		{"exactly at limit", newHeader("large.webp", "image/webp", MaxUploadSize), "image/webp", false},
		{"over limit", newHeader("huge.jpg", "image/jpeg", MaxUploadSize+1), "", true},
		{"executable", newHeader("run.exe", "application/x-msdownload", 512), "", true},
		{"svg rejected", newHeader("icon.svg", "image/svg+xml", 512), "", true},
		{"missing content type", newHeader("noname", "", 512), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := validateUpload(tt.header)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected validation error")
				}
				appErr, ok := errors.AsAppError(err)
				if !ok || appErr.Code != "VALIDATION_ERROR" {
					t.Errorf("expected VALIDATION_ERROR, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("content type = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateUploadReportsBothViolations(t *testing.T) {
	_, err := validateUpload(newHeader("movie.mkv", "video/x-matroska", MaxUploadSize*2))

	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if _, ok := appErr.Details["file"]; !ok {
		t.Error("expected size violation in details")
	}
	if _, ok := appErr.Details["fileType"]; !ok {
		t.Error("expected type violation in details")
	}
}

func TestObjectKey(t *testing.T) {
	now := time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC)
	key := objectKey("image/jpeg", now)

	if !strings.HasPrefix(key, "complaints/2026/") {
		t.Errorf("key %q missing year prefix", key)
	}
	if !strings.HasSuffix(key, ".jpg") {
		t.Errorf("key %q missing extension", key)
	}

	if other := objectKey("image/jpeg", now); other == key {
		t.Error("expected unique keys per upload")
	}
}

func TestObjectKeyExtensionPerType(t *testing.T) {
	tests := map[string]string{
		"image/png":       ".png",
		"image/webp":      ".webp",
		"application/pdf": ".pdf",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
	}

	for contentType, ext := range tests {
		if key := objectKey(contentType, time.Now()); !strings.HasSuffix(key, ext) {
			t.Errorf("objectKey(%q) = %q, want suffix %q", contentType, key, ext)
		}
	}
}

func TestRemoveAddressesStoredKeys(t *testing.T) {
	store := &fakeStore{}
	router := NewHandler(store, nil).Routes()

	key := "complaints/2026/89bfa494-1f64-4c70-9a1d-6a5a2e1b0c7d.png"
	req := httptest.NewRequest(http.MethodDelete, "/"+key, nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(store.removed) != 1 || store.removed[0] != key {
		t.Errorf("expected %q removed, got %v", key, store.removed)
	}
}

func TestRemoveRejectsTraversal(t *testing.T) {
	store := &fakeStore{}
	router := NewHandler(store, nil).Routes()

	req := httptest.NewRequest(http.MethodDelete, "/complaints/../secrets.png", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a traversal key, got %d", rec.Code)
	}
	if len(store.removed) != 0 {
		t.Errorf("expected nothing removed, got %v", store.removed)
	}
}

func TestRemoveRequiresAdmin(t *testing.T) {
	store := &fakeStore{}
	router := NewHandler(store, auth.RequireRoles(auth.RoleAdmin)).Routes()

	req := httptest.NewRequest(http.MethodDelete, "/complaints/2026/x.png", nil)
	citizen := &auth.User{ID: "usr_1", Role: auth.RoleCitizen}
	req = req.WithContext(context.WithValue(req.Context(), auth.UserContextKey, citizen))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for a citizen, got %d", rec.Code)
	}
	if len(store.removed) != 0 {
		t.Errorf("expected nothing removed, got %v", store.removed)
	}
}
