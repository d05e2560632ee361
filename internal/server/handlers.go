package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/hyperjump/doccompare/internal/compare"
	"github.com/hyperjump/doccompare/internal/extract"
	"github.com/hyperjump/doccompare/internal/report"
)

// multipartMemory is how much of an upload is held in memory before
// spilling to temporary files.
const multipartMemory = 8 << 20

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	switch format {
	case "json", "text", "html", "pdf", "xlsx":
	default:
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("unsupported output format %q", format))
		return
	}
	if format == "pdf" && s.pdf == nil {
		s.respondError(w, http.StatusNotImplemented, "pdf output is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, int64(s.maxUploadMB())<<20)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		s.respondError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) < 2 {
		s.respondError(w, http.StatusBadRequest, compare.ErrInsufficientInput.Error())
		return
	}

	dir, err := os.MkdirTemp("", "doccompare-upload-*")
	if err != nil {
		s.logger.Error("create upload dir failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "cannot store upload")
		return
	}
	defer os.RemoveAll(dir)

	inputs := make([]compare.Input, len(files))
	for i, fh := range files {
		path, err := saveUpload(dir, i, fh)
		if err != nil {
			s.logger.Error("store upload failed", zap.String("file", fh.Filename), zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, "cannot store upload")
			return
		}
		inputs[i] = compare.Input{Path: path, Name: uploadName(fh.Filename, i)}
	}
	s.logger.Debug("compare request", zap.Int("files", len(inputs)), zap.String("format", format))

	rep, err := s.comparer.CompareInputs(r.Context(), inputs)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("comparison failed", zap.Error(err))
		}
		s.respondError(w, status, err.Error())
		return
	}

	switch format {
	case "json":
		s.respondJSON(w, http.StatusOK, rep)
	case "text":
		s.respondBytes(w, "text/plain; charset=utf-8", []byte(report.Text(rep)+"\n"))
	case "html":
		doc, err := report.HTML(rep)
		if err != nil {
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.respondBytes(w, "text/html; charset=utf-8", []byte(doc))
	case "pdf":
		data, err := s.pdf.Render(r.Context(), rep)
		if err != nil {
			s.logger.Error("pdf render failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.respondBytes(w, "application/pdf", data)
	case "xlsx":
		data, err := report.XLSX(rep)
		if err != nil {
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.respondBytes(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	}
}

// saveUpload copies one part into its own subdirectory of dir so that
// uploads sharing a file name do not collide.
func saveUpload(dir string, i int, fh *multipart.FileHeader) (string, error) {
	sub := filepath.Join(dir, strconv.Itoa(i))
	if err := os.Mkdir(sub, 0700); err != nil {
		return "", err
	}
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()
	path := filepath.Join(sub, uploadName(fh.Filename, i))
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return "", err
	}
	return path, dst.Close()
}

// uploadName strips any directory part a client sent in the file name.
func uploadName(name string, i int) string {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." || base == "" {
		return fmt.Sprintf("file-%d", i+1)
	}
	return base
}

// statusFor maps comparison errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, compare.ErrInsufficientInput), errors.Is(err, compare.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, extract.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, extract.ErrExtraction):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"max_upload_mb": s.maxUploadMB(),
		"pdf_enabled":   s.pdf != nil,
		"cache_enabled": s.cache != nil,
	}
	if s.cache != nil {
		n, err := s.cache.Count(r.Context())
		if err != nil {
			s.logger.Error("status: count cache entries failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp["cache_entries"] = n
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) maxUploadMB() int {
	if s.config == nil || s.config.MaxUploadMB <= 0 {
		return 50
	}
	return s.config.MaxUploadMB
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondBytes(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
