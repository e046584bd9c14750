package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
	"github.com/skip2/go-qrcode"

	"github.com/shxh08/pastebin-clone/internal/duration"
	"github.com/shxh08/pastebin-clone/internal/paste"
	"github.com/shxh08/pastebin-clone/internal/storage"
)

type createRequest struct {
	Content     string `json:"content"`
	Title       string `json:"title,omitempty"`
	ExpiresIn   string `json:"expires_in,omitempty"`
	AvailableAt string `json:"available_at,omitempty"`
	ReadOnce    bool   `json:"read_once,omitempty"`
	Password    string `json:"password,omitempty"`
}

type createResponse struct {
	ID string `json:"id"`
}

type validateResponse struct {
	RequiresPassword bool       `json:"requires_password"`
	ExpiresAt        *time.Time `json:"expires_at"`
}

type readResponse struct {
	Content   string     `json:"content"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
}

type contentItem struct {
	Content string `json:"content"`
}

type searchItem struct {
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type metaResponse struct {
	Title     string     `json:"title,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at"`
	ReadOnce  bool       `json:"read_once"`
}

type expiringItem struct {
	ID        string    `json:"id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(s.maxBytes)+4096)

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := s.svc.Create(r.Context(), paste.CreateInput{
		Content:     req.Content,
		Title:       req.Title,
		TTL:         req.ExpiresIn,
		AvailableIn: req.AvailableAt,
		ReadOnce:    req.ReadOnce,
		Password:    req.Password,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, createResponse{ID: created.ID})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	v, err := s.svc.Validate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, validateResponse{
		RequiresPassword: v.RequiresPassword,
		ExpiresAt:        timePtr(v.ExpiresAt),
	})
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Read(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("password"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, readResponse{
		Content:   p.Content,
		ExpiresAt: timePtr(p.ExpiresAt),
		CreatedAt: p.CreatedAt,
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	err := s.svc.Delete(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("password"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	pasteID := chi.URLParam(r, "id")
	// Meta gate: a QR for an unknown or expired paste is a 404.
	if _, err := s.svc.Meta(r.Context(), pasteID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	png, err := qrcode.Encode(s.canonicalURL(r, pasteID), qrcode.Medium, 256)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	pastes, err := s.svc.ListRecent(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	items := make([]contentItem, 0, len(pastes))
	for _, p := range pastes {
		items = append(items, contentItem{Content: p.Content})
	}
	s.writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.Count(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	pastes, err := s.svc.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	items := make([]searchItem, 0, len(pastes))
	for _, p := range pastes {
		items = append(items, searchItem{Content: p.Content, CreatedAt: p.CreatedAt})
	}
	s.writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Meta(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, metaResponse{
		Title:     p.Title,
		CreatedAt: p.CreatedAt,
		ExpiresAt: timePtr(p.ExpiresAt),
		ReadOnce:  p.ReadOnce,
	})
}

func (s *Server) handleExpiringSoon(w http.ResponseWriter, r *http.Request) {
	pastes, err := s.svc.ExpiringSoon(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	items := make([]expiringItem, 0, len(pastes))
	for _, p := range pastes {
		items = append(items, expiringItem{ID: p.ID, ExpiresAt: p.ExpiresAt})
	}
	s.writeJSON(w, http.StatusOK, items)
}

// writeServiceError maps core error kinds onto transport status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *paste.ValidationError
		pending    *paste.NotYetAvailableError
	)
	switch {
	case errors.As(err, &validation):
		s.writeError(w, http.StatusBadRequest, validation.Reason)
	case errors.As(err, &pending):
		s.writeJSON(w, http.StatusForbidden, map[string]string{
			"error":        "paste not yet available",
			"available_in": duration.Humanize(pending.AvailableIn),
		})
	case errors.Is(err, storage.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "content not found")
	case errors.Is(err, paste.ErrWrongPassword):
		s.writeError(w, http.StatusUnauthorized, "password does not match")
	case errors.Is(err, paste.ErrStorageUnavailable):
		hlog.FromRequest(r).Error().Err(err).Msg("storage unavailable")
		s.writeError(w, http.StatusServiceUnavailable, "storage unavailable")
	default:
		s.serverError(w, r, err)
	}
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	hlog.FromRequest(r).Error().Err(err).Msg("internal error")
	s.writeError(w, http.StatusInternalServerError, "internal server error")
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("encode response")
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
