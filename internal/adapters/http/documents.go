package httpadapter

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kirillkom/mood-builder/internal/core/domain"
	"github.com/kirillkom/mood-builder/internal/core/ports"
)

const (
	multipartOverhead  = 1 << 20
	defaultWaitTimeout = 30 * time.Second
)

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, domain.MaxUploadBytes+multipartOverhead)
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, domain.WrapError(domain.ErrFileTooLarge, "upload", err))
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	req := ports.UploadRequest{
		FileName: fileHeader.Filename,
		MimeType: detectMimeType(fileHeader.Filename, fileHeader.Header.Get("Content-Type")),
		Size:     fileHeader.Size,
		Body:     file,
	}

	if r.URL.Query().Get("mode") == "async" {
		doc, err := rt.services.Documents.Submit(r.Context(), principal(r), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, doc)
		return
	}

	result, err := rt.services.Documents.Upload(r.Context(), principal(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := rt.services.Documents.List(r.Context(), principal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := rt.services.Documents.Get(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// waitDocument long-polls until the document is terminal or the timeout
// passes. A document still processing is answered with 202.
func (rt *Router) waitDocument(w http.ResponseWriter, r *http.Request) {
	timeout := defaultWaitTimeout
	if raw := r.URL.Query().Get("timeout"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "timeout must be a positive duration such as 30s"})
			return
		}
		timeout = parsed
	}
	if limit := time.Duration(rt.cfg.WatchMaxWaitSeconds) * time.Second; limit > 0 && timeout > limit {
		timeout = limit
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	outcome, err := rt.services.Waiter.WaitForTerminal(ctx, principal(r), chi.URLParam(r, "id"))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, outcome)
	case errors.Is(err, context.DeadlineExceeded) && r.Context().Err() == nil:
		writeJSON(w, http.StatusAccepted, outcome)
	default:
		writeError(w, r, err)
	}
}

func (rt *Router) confirmDocument(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}

	saved, err := rt.services.Journal.ConfirmDocument(r.Context(), principal(r), chi.URLParam(r, "id"), req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// detectMimeType trusts the part header when it names a supported type.
// Otherwise the file extension decides, so generic or variant headers such as
// application/octet-stream or image/heif still resolve.
func detectMimeType(fileName, declared string) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && domain.IsAllowedMimeType(declared) {
		return declared
	}
	if byExt := domain.MimeTypeForFileName(fileName); byExt != "" {
		return byExt
	}
	return declared
}
