package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"github.com/carshowcase/showcase/internal/server/middleware"
	"github.com/carshowcase/showcase/internal/service"
)

const (
	msgFileNotFound = "File not found"

	// multipartMemory is how much of an upload is buffered in memory before
	// parts spill to temporary files.
	multipartMemory = 8 << 20
)

// FileHandler serves uploads under /api/files.
type FileHandler struct {
	files         *service.FileService
	maxUploadSize int64
}

// NewFileHandler creates a new FileHandler. maxUploadSize caps the whole
// multipart body in bytes.
func NewFileHandler(files *service.FileService, maxUploadSize int64) *FileHandler {
	return &FileHandler{files: files, maxUploadSize: maxUploadSize}
}

// Upload stores the parts of the multipart field "files".
// POST /api/files/upload
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadSize > 0 {
		if r.ContentLength > h.maxUploadSize {
			h.writeTooLarge(w)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeTooLarge(w)
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	uploads := make([]service.Upload, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "Unreadable file part: "+fh.Filename)
			return
		}
		opened = append(opened, f)
		uploads = append(uploads, service.Upload{Name: fh.Filename, Size: fh.Size, Content: f})
	}

	resp, err := h.files.Upload(r.Context(), middleware.GetIdentity(r.Context()), uploads)
	if err != nil {
		writeServiceError(w, r, err, msgFileNotFound)
		return
	}

	status := http.StatusCreated
	if len(resp.Files) == 0 {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (h *FileHandler) writeTooLarge(w http.ResponseWriter) {
	writeError(w, http.StatusRequestEntityTooLarge, "Upload exceeds "+humanize.IBytes(uint64(h.maxUploadSize)))
}

// List returns the caller's files, or every file for an admin.
// GET /api/files
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.files.List(r.Context(), middleware.GetIdentity(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, msgFileNotFound)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Download streams a stored file.
// GET /api/files/{filename}
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	f, body, err := h.files.Open(r.Context(), chi.URLParam(r, "filename"))
	if err != nil {
		writeServiceError(w, r, err, msgFileNotFound)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", f.MimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(f.Size, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition(f.MimeType), map[string]string{"filename": f.OriginalName}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "sandbox")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		slog.WarnContext(r.Context(), "file download interrupted", "filename", f.Filename, "error", err)
	}
}

// disposition is inline for raster images and PDFs, which browsers render
// without running scripts, and attachment for everything else.
func disposition(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "attachment"
	}
	switch {
	case mt == "application/pdf":
		return "inline"
	case strings.HasPrefix(mt, "image/") && mt != "image/svg+xml":
		return "inline"
	}
	return "attachment"
}

// Delete removes a stored file.
// DELETE /api/files/{filename}
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	resp, err := h.files.Delete(r.Context(), middleware.GetIdentity(r.Context()), chi.URLParam(r, "filename"))
	if err != nil {
		writeServiceError(w, r, err, msgFileNotFound)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
