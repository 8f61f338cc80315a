package settings

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/zapmanager/zapmanager/internal/domain"
	"github.com/zapmanager/zapmanager/internal/pkg/httputil"
)

// Handler exposes the notification settings admin API.
type Handler struct {
	repo      Repository
	validator *validator.Validate
}

// NewHandler creates a settings handler.
func NewHandler(repo Repository) *Handler {
	return &Handler{
		repo:      repo,
		validator: validator.New(),
	}
}

// RegisterRoutes registers admin routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/admin/notification-settings", h.GetSettings)
	r.Put("/admin/notification-settings", h.UpdateSettings)
}

// TemplateBody is one notice template in requests and responses.
type TemplateBody struct {
	Subject string `json:"subject" validate:"required"`
	Body    string `json:"body" validate:"required"`
}

// UpdateSettingsRequest is the body of PUT /admin/notification-settings.
// Password is write-only: omitting it keeps the stored one.
type UpdateSettingsRequest struct {
	SMTPHost    string                  `json:"smtp_host" validate:"required"`
	SMTPPort    int                     `json:"smtp_port" validate:"min=1,max=65535"`
	SMTPTLS     bool                    `json:"smtp_tls"`
	SMTPUser    string                  `json:"smtp_user"`
	SMTPPass    string                  `json:"smtp_pass"`
	FromAddress string                  `json:"from_address" validate:"required,email"`
	Templates   map[string]TemplateBody `json:"templates" validate:"dive"`
}

// SettingsResponse is the body of GET /admin/notification-settings.
type SettingsResponse struct {
	SMTPHost    string                  `json:"smtp_host"`
	SMTPPort    int                     `json:"smtp_port"`
	SMTPTLS     bool                    `json:"smtp_tls"`
	SMTPUser    string                  `json:"smtp_user"`
	FromAddress string                  `json:"from_address"`
	Templates   map[string]TemplateBody `json:"templates"`
}

// GetSettings handles GET /admin/notification-settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.repo.Get(r.Context())
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			httputil.Error(w, http.StatusNotFound, ErrNotConfigured.Error())
			return
		}
		httputil.HandleError(r.Context(), w, err, nil)
		return
	}

	resp := SettingsResponse{
		SMTPHost:    s.SMTP.Host,
		SMTPPort:    s.SMTP.Port,
		SMTPTLS:     s.SMTP.UseTLS,
		SMTPUser:    s.SMTP.Username,
		FromAddress: s.SMTP.FromAddress,
		Templates:   make(map[string]TemplateBody, len(s.Templates)),
	}
	for t, tmpl := range s.Templates {
		resp.Templates[string(t)] = TemplateBody{Subject: tmpl.Subject, Body: tmpl.Body}
	}

	httputil.Success(w, http.StatusOK, resp)
}

// UpdateSettings handles PUT /admin/notification-settings.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	password := req.SMTPPass
	if password == "" {
		if current, err := h.repo.Get(r.Context()); err == nil {
			password = current.SMTP.Password
		}
	}

	s := &domain.NotificationSettings{
		SMTP: domain.SMTPSettings{
			Host:        req.SMTPHost,
			Port:        req.SMTPPort,
			UseTLS:      req.SMTPTLS,
			Username:    req.SMTPUser,
			Password:    password,
			FromAddress: req.FromAddress,
		},
		Templates: make(map[domain.NoticeType]domain.NoticeTemplate, len(req.Templates)),
	}
	for t, tmpl := range req.Templates {
		s.Templates[domain.NoticeType(t)] = domain.NoticeTemplate{Subject: tmpl.Subject, Body: tmpl.Body}
	}

	if err := h.repo.Save(r.Context(), s); err != nil {
		httputil.HandleError(r.Context(), w, err, nil)
		return
	}

	httputil.Success(w, http.StatusOK, map[string]string{"status": "saved"})
}
