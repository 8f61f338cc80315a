package lifecycle

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/zapmanager/zapmanager/internal/domain"
	"github.com/zapmanager/zapmanager/internal/pkg/httputil"
	"github.com/zapmanager/zapmanager/internal/settings"
)

// Fixed content of the SMTP connectivity self-test message.
const (
	testMessageSubject = "Teste de SMTP - ZapManager"
	testMessageBody    = "Esta é uma mensagem de teste. Sua configuração de SMTP está funcionando."
)

// Handler exposes the lifecycle entry point over HTTP.
type Handler struct {
	runner    *Runner
	senderFor SenderFactory
	validator *validator.Validate
}

// NewHandler creates a lifecycle handler.
func NewHandler(runner *Runner, senderFor SenderFactory) *Handler {
	return &Handler{
		runner:    runner,
		senderFor: senderFor,
		validator: validator.New(),
	}
}

// RegisterRoutes registers lifecycle routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/lifecycle/run", h.Run)
}

// SMTPSettingsRequest carries transport parameters for a connectivity test.
type SMTPSettingsRequest struct {
	Host   string `json:"host" validate:"required"`
	Port   int    `json:"port" validate:"min=0,max=65535"`
	UseTLS bool   `json:"useTLS"`
	User   string `json:"user"`
	Pass   string `json:"pass"`
}

// RunRequest is the optional body of POST /lifecycle/run.
type RunRequest struct {
	Action   string               `json:"action" validate:"omitempty,oneof=TEST_SMTP"`
	Settings *SMTPSettingsRequest `json:"settings"`
	To       string               `json:"to" validate:"omitempty,email"`
}

// Run handles POST /lifecycle/run. With an empty body it executes the full
// sweep; with {action:"TEST_SMTP"} it sends one fixed test message using
// the supplied settings, bypassing the sweep.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}

	if req.Action == "TEST_SMTP" {
		h.testSMTP(w, r, req)
		return
	}

	res, err := h.runner.Run(r.Context())
	if err != nil {
		httputil.JSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if !res.NotificationsConfigured {
		// Soft error: transitions ran, notices were skipped.
		httputil.JSON(w, http.StatusOK, map[string]string{"error": settings.ErrNotConfigured.Error()})
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"results": res.Results,
	})
}

func (h *Handler) testSMTP(w http.ResponseWriter, r *http.Request, req RunRequest) {
	if req.Settings == nil || req.To == "" {
		httputil.JSON(w, http.StatusBadRequest, map[string]string{"error": "settings and to are required for TEST_SMTP"})
		return
	}

	sender := h.senderFor(domain.SMTPSettings{
		Host:        req.Settings.Host,
		Port:        req.Settings.Port,
		UseTLS:      req.Settings.UseTLS,
		Username:    req.Settings.User,
		Password:    req.Settings.Pass,
		FromAddress: req.Settings.User,
	})

	err := sender.Send(r.Context(), Message{
		To:      req.To,
		Subject: testMessageSubject,
		Body:    testMessageBody,
	})
	if err != nil {
		httputil.JSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]bool{"success": true})
}
