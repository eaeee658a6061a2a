package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"burnote.share/config"
	"burnote.share/internal/admin"
	"burnote.share/internal/share"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	shares *share.Service
	guard  *admin.Guard
	config *config.Config
}

func NewHandler(shares *share.Service, guard *admin.Guard, cfg *config.Config) *Handler {
	return &Handler{
		shares: shares,
		guard:  guard,
		config: cfg,
	}
}

type CreateRequest struct {
	Content   string     `json:"content"`
	Password  string     `json:"password,omitempty"`
	MaxViews  *int       `json:"max_views,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type CreateResponse struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	MaxViews  int       `json:"max_views,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
	CreatedAt time.Time `json:"created_at"`
}

type ViewRequest struct {
	Password string `json:"password,omitempty"`
}

type LoginRequest struct {
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type SweepResponse struct {
	DeletedCount int `json:"deleted_count"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) CreateShare(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Content == "" {
		h.error(w, http.StatusBadRequest, "content is required")
		return
	}
	if len(req.Content) > h.config.Shares.MaxContentBytes {
		h.error(w, http.StatusBadRequest, "content too large")
		return
	}

	params := share.CreateParams{
		Content:  req.Content,
		Password: req.Password,
	}
	if req.MaxViews != nil {
		if *req.MaxViews < 1 {
			h.error(w, http.StatusBadRequest, "max_views must be at least 1")
			return
		}
		params.MaxViews = *req.MaxViews
	}
	if req.ExpiresAt != nil {
		params.ExpiresAt = *req.ExpiresAt
	}

	meta, err := h.shares.Create(r.Context(), params)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.json(w, http.StatusCreated, CreateResponse{
		ID:        meta.ID,
		URL:       h.config.Server.BaseURL + "/s/" + meta.ID,
		MaxViews:  meta.MaxViews,
		ExpiresAt: meta.ExpiresAt,
		CreatedAt: meta.CreatedAt,
	})
}

func (h *Handler) ViewShare(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// The body is optional: only password-protected shares need one.
	var req ViewRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.error(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	view, err := h.shares.Consume(r.Context(), id, req.Password)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.json(w, http.StatusOK, view)
}

func (h *Handler) ListShares(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.shares.List(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.json(w, http.StatusOK, summaries)
}

func (h *Handler) DeleteShare(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.shares.Remove(r.Context(), id); err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.json(w, http.StatusOK, map[string]string{"message": "deleted"})
}

func (h *Handler) SweepExpired(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.shares.SweepExpired(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.json(w, http.StatusOK, SweepResponse{DeletedCount: deleted})
}

func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !h.guard.Enabled() {
		h.error(w, http.StatusUnauthorized, "admin access is not enabled")
		return
	}

	token, err := h.guard.Login(req.Password)
	if err != nil {
		h.error(w, http.StatusUnauthorized, "invalid password")
		return
	}

	h.json(w, http.StatusOK, LoginResponse{Token: token})
}

// RequireAdmin guards the management endpoints with the static secret.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.guard.ValidateBearer(r.Header.Get("Authorization")) {
			h.error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) json(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) error(w http.ResponseWriter, status int, message string) {
	h.json(w, status, ErrorResponse{Error: message})
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, share.ErrNotFound):
		h.error(w, http.StatusNotFound, "share not found")
	case errors.Is(err, share.ErrExpired):
		h.error(w, http.StatusGone, "share has expired")
	case errors.Is(err, share.ErrQuotaExhausted):
		h.error(w, http.StatusGone, "share has reached maximum views")
	case errors.Is(err, share.ErrPasswordRequired):
		h.error(w, http.StatusUnauthorized, "password required")
	case errors.Is(err, share.ErrPasswordIncorrect):
		h.error(w, http.StatusUnauthorized, "password incorrect")
	case errors.Is(err, share.ErrContentRequired), errors.Is(err, share.ErrInvalidMaxViews):
		h.error(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg("internal error")
		h.error(w, http.StatusInternalServerError, "internal error")
	}
}
