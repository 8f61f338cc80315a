package suspension

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/zapmanager/zapmanager/internal/pkg/ctxlog"
	"github.com/zapmanager/zapmanager/internal/pkg/httputil"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrAlreadyBlocked, Status: http.StatusConflict},
	{Error: ErrNotBlocked, Status: http.StatusConflict},
}

// Handler exposes the administrative block/unblock actions.
type Handler struct {
	service *Service
}

// NewHandler creates a suspension handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers admin routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/admin/users/{id}/block", h.BlockAccount)
	r.Post("/admin/users/{id}/unblock", h.UnblockAccount)
}

// BlockAccount handles POST /admin/users/{id}/block.
func (h *Handler) BlockAccount(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	ctx := ctxlog.With(r.Context(), "user_id", userID)

	if err := h.service.BlockAccount(ctx, userID); err != nil {
		httputil.HandleError(ctx, w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, map[string]string{"status": "blocked"})
}

// UnblockAccount handles POST /admin/users/{id}/unblock.
func (h *Handler) UnblockAccount(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	ctx := ctxlog.With(r.Context(), "user_id", userID)

	if err := h.service.UnblockAccount(ctx, userID); err != nil {
		httputil.HandleError(ctx, w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, map[string]string{"status": "unblocked"})
}
