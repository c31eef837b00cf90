package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/paaster/internal/common"
	"github.com/dmitrijs2005/paaster/internal/server/services"
)

const (
	multipartMemory = 32 << 20
	formOverhead    = 1 << 20
)

func (s *HTTPServer) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn(r.Context(), "response encode failed", "error", err)
	}
}

func isBodyTooLarge(err error) bool {
	var tooBig *http.MaxBytesError
	return errors.As(err, &tooBig) || strings.Contains(err.Error(), "request body too large")
}

// writeError maps the error taxonomy onto status codes. Only format errors
// echo their message; everything else gets a fixed text.
func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrFormat):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, common.ErrorNotFound):
		http.Error(w, "Content not found or has expired", http.StatusNotFound)
	case errors.Is(err, common.ErrAlreadyConsumed):
		http.Error(w, "Content already viewed or downloaded", http.StatusGone)
	case errors.Is(err, common.ErrPayloadTooLarge):
		http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
	case errors.Is(err, common.ErrorUnauthorized):
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	default:
		s.logger.Error(r.Context(), "request failed", "error", err, "request_id", RequestIDFromContext(r.Context()))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (s *HTTPServer) parseCreate(w http.ResponseWriter, r *http.Request) (*services.CreateInput, error) {
	if s.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize+formOverhead)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		switch {
		case isBodyTooLarge(err):
			return nil, common.ErrPayloadTooLarge
		case errors.Is(err, http.ErrNotMultipart):
			if err := r.ParseForm(); err != nil {
				return nil, errors.Join(common.ErrFormat, err)
			}
		default:
			return nil, errors.Join(common.ErrFormat, err)
		}
	}

	in := &services.CreateInput{
		Text:        r.FormValue("text"),
		Title:       r.FormValue("title"),
		Format:      r.FormValue("format"),
		Expires:     r.FormValue("expires"),
		HasPassword: r.FormValue("hasPassword") == "true",
	}

	f, _, err := r.FormFile("attachment_data")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return in, nil
	case err != nil:
		return nil, errors.Join(common.ErrFormat, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		if isBodyTooLarge(err) {
			return nil, common.ErrPayloadTooLarge
		}
		return nil, err
	}

	in.File = &services.FileInput{
		Data: data,
		Name: r.FormValue("attachment_name"),
		Size: r.FormValue("attachment_size"),
	}
	return in, nil
}

func (s *HTTPServer) handleCreate(w http.ResponseWriter, r *http.Request) {
	in, err := s.parseCreate(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	c, err := s.contents.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, c)
}

func (s *HTTPServer) handleGet(w http.ResponseWriter, r *http.Request) {
	c, err := s.contents.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	s.writeJSON(w, r, http.StatusOK, c)
}

type sweepResponse struct {
	OK bool `json:"ok"`
	*services.SweepResult
}

func (s *HTTPServer) handleSweep(w http.ResponseWriter, r *http.Request) {
	res, err := s.contents.Sweep(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, sweepResponse{OK: true, SweepResult: res})
}

func (s *HTTPServer) handlePing(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}
