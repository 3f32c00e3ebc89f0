package attachment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/bihar-gov/sevalink/internal/shared/auth"
	"github.com/bihar-gov/sevalink/internal/shared/errors"
	"github.com/bihar-gov/sevalink/internal/shared/metrics"
	"github.com/bihar-gov/sevalink/internal/shared/types"
)

// MaxUploadSize is the per-file cap for complaint attachments
const MaxUploadSize = 10 << 20

// allowedTypes maps accepted MIME types to the stored file extension
var allowedTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/jpg":       ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
}

// UploadResult is returned after a successful upload
type UploadResult struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	FileType string `json:"fileType"`
}

// ObjectStore is the part of the storage layer the handler drives
type ObjectStore interface {
	Upload(ctx context.Context, key string, rd io.Reader, size int64, contentType string) error
	PresignURL(ctx context.Context, key string) (string, error)
	Remove(ctx context.Context, key string) error
}

// Handler exposes attachment upload and removal over HTTP
type Handler struct {
	storage ObjectStore
	admin   func(http.Handler) http.Handler
}

// NewHandler creates a new attachment handler. The admin middleware
// guards removal; uploads stay open to citizens.
func NewHandler(storage ObjectStore, admin func(http.Handler) http.Handler) *Handler {
	if admin == nil {
		admin = auth.Passthrough()
	}
	return &Handler{storage: storage, admin: admin}
}

// Routes returns the attachment routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Upload)
	// Wildcard so the slashes in stored object keys match
	r.With(h.admin).Delete("/*", h.Remove)
	return r
}

// Upload handles POST /api/v1/uploads
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize+4096)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, errors.Validation("a file is required in the \"file\" form field", nil))
		return
	}
	defer file.Close()

	contentType, err := validateUpload(header)
	if err != nil {
		metrics.RecordAttachmentUpload(header.Header.Get("Content-Type"), "rejected")
		writeError(w, err)
		return
	}

	key := objectKey(contentType, time.Now())
	if err := h.storage.Upload(r.Context(), key, file, header.Size, contentType); err != nil {
		metrics.RecordAttachmentUpload(contentType, "error")
		logrus.WithError(err).Error("attachment upload failed")
		writeError(w, errors.Internal(err))
		return
	}

	url, err := h.storage.PresignURL(r.Context(), key)
	if err != nil {
		metrics.RecordAttachmentUpload(contentType, "error")
		logrus.WithError(err).Error("attachment presign failed")
		writeError(w, errors.Internal(err))
		return
	}

	metrics.RecordAttachmentUpload(contentType, "accepted")
	writeJSON(w, http.StatusCreated, UploadResult{
		URL:      url,
		PublicID: key,
		FileName: header.Filename,
		FileSize: header.Size,
		FileType: contentType,
	})
}

// Remove handles DELETE /api/v1/uploads/{publicId}. The public ID is
// the full object key, so the route is a wildcard.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	publicID := chi.URLParam(r, "*")
	if publicID == "" || strings.Contains(publicID, "..") {
		writeError(w, errors.BadRequest("invalid attachment ID"))
		return
	}

	if err := h.storage.Remove(r.Context(), publicID); err != nil {
		writeError(w, errors.Internal(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// validateUpload checks size and MIME type before touching storage
func validateUpload(header *multipart.FileHeader) (string, error) {
	details := map[string]string{}

	if header.Size > MaxUploadSize {
		details["file"] = fmt.Sprintf("file exceeds the %dMB limit", MaxUploadSize>>20)
	}

	contentType := header.Header.Get("Content-Type")
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	if _, ok := allowedTypes[contentType]; !ok {
		details["fileType"] = fmt.Sprintf("file type %q is not allowed", contentType)
	}

	if len(details) > 0 {
		return "", errors.Validation("attachment rejected", details)
	}

	return contentType, nil
}

// objectKey builds the storage key complaints/<year>/<uuid><ext>
func objectKey(contentType string, now time.Time) string {
	return path.Join("complaints",
		fmt.Sprintf("%d", now.Year()),
		types.NewID().String()+allowedTypes[contentType])
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	if appErr, ok := errors.AsAppError(err); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
