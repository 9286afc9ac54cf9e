package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/raido/internal/roadmapservice"
)

const (
	brandingDir    = "branding"
	maxUploadBytes = 50 << 20 // 50 MB
)

// BrandingHandler accepts and serves uploaded logo files and records
// their references in the document metadata.
type BrandingHandler struct {
	dataRoot string
	svc      *roadmapservice.Service
}

// NewBrandingHandler creates a handler rooted at the data directory.
func NewBrandingHandler(dataRoot string, svc *roadmapservice.Service) *BrandingHandler {
	return &BrandingHandler{dataRoot: dataRoot, svc: svc}
}

// brandingPath returns the absolute path to the branding directory.
func (h *BrandingHandler) brandingPath() string {
	return filepath.Join(h.dataRoot, brandingDir)
}

// safeName validates that the filename is a plain name (no path
// separators, no traversal) and returns the absolute path under the
// branding dir.
func (h *BrandingHandler) safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	abs := filepath.Join(h.brandingPath(), cleaned)
	if !strings.HasPrefix(abs, h.brandingPath()+string(os.PathSeparator)) && abs != h.brandingPath() {
		return "", fmt.Errorf("path escapes branding directory")
	}
	return abs, nil
}

// ServeFile handles GET /branding/{filename}.
func (h *BrandingHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	abs, err := h.safeName(filename)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, statErr := os.Stat(abs); os.IsNotExist(statErr) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}

// Upload handles POST /api/branding (multipart/form-data, field "file").
// With ?product=true the file is recorded as a product logo; otherwise it
// becomes the main logo.
func (h *BrandingHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	abs, err := h.safeName(header.Filename)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	if err := os.MkdirAll(h.brandingPath(), 0o755); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to create branding dir"))
		return
	}

	dst, err := os.Create(abs)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to create file"))
		return
	}
	defer dst.Close()

	written, err := io.Copy(dst, file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to write file"))
		return
	}

	url := "/branding/" + header.Filename
	product, _ := strconv.ParseBool(r.URL.Query().Get("product"))
	if err := h.svc.SetBrandingLogo(r.Context(), url, product); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to record logo"))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"filename": header.Filename,
		"size":     written,
		"url":      url,
		"product":  product,
	})
}
