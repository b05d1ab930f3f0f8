package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"p9e.in/fieldreport/pkg/storage"
)

// StorageHandler uploads attachments and signs read URLs. Objects are
// always placed under the caller's org.
type StorageHandler struct {
	store     storage.ObjectStore
	maxUpload int64
	log       *zap.Logger
	now       func() time.Time
}

func NewStorageHandler(store storage.ObjectStore, maxUploadMB int64, log *zap.Logger) *StorageHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 50
	}
	return &StorageHandler{
		store:     store,
		maxUpload: maxUploadMB << 20,
		log:       log.Named("storage"),
		now:       time.Now,
	}
}

// Upload takes a multipart form with fields project_id, submission and
// file, and returns the stored object path.
func (h *StorageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	s, ok := scope(w, r)
	if !ok {
		return
	}
	bucket := mux.Vars(r)["bucket"]
	if !storage.ValidBucket(bucket) {
		writeError(w, http.StatusNotFound, "unknown bucket")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "bad multipart form: "+err.Error())
		return
	}
	projectID, err := uuid.Parse(r.FormValue("project_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "project_id is required")
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	// timestamp prefix keeps retakes of the same photo from colliding
	name := fmt.Sprintf("%s-%s", h.now().UTC().Format("20060102-150405"), storage.SanitizeFilename(hdr.Filename))
	path, err := storage.ObjectPath(s.OrgID, projectID, r.FormValue("submission"), name)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	contentType := hdr.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := h.store.Put(r.Context(), bucket, path, file, hdr.Size, contentType); err != nil {
		h.log.Error("upload failed", zap.String("bucket", bucket), zap.String("path", path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "upload failed")
		return
	}

	h.log.Info("object stored",
		zap.String("bucket", bucket),
		zap.String("path", path),
		zap.Int64("size", hdr.Size))
	writeJSON(w, http.StatusCreated, map[string]string{"bucket": bucket, "path": path})
}

type signRequest struct {
	Path      string `json:"path"`
	ExpiresIn int64  `json:"expires_in"`
}

// Sign returns a time-limited read URL. expires_in is in seconds; zero
// means one hour and anything above seven days is capped.
func (h *StorageHandler) Sign(w http.ResponseWriter, r *http.Request) {
	s, ok := scope(w, r)
	if !ok {
		return
	}
	bucket := mux.Vars(r)["bucket"]
	if !storage.ValidBucket(bucket) {
		writeError(w, http.StatusNotFound, "unknown bucket")
		return
	}
	var req signRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, err)
		return
	}
	if err := storage.CheckPath(req.Path, s.OrgID); err != nil {
		writeAppError(w, r, err)
		return
	}

	ttl := storage.ClampTTL(req.ExpiresIn)
	url, err := h.store.SignedURL(r.Context(), bucket, req.Path, ttl)
	if err != nil {
		h.log.Error("signing failed", zap.String("bucket", bucket), zap.String("path", req.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not sign url")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"signed_url": url,
		"expires_in": int64(ttl / time.Second),
	})
}
