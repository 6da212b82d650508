// Package handlers provides HTTP handlers for the diet API endpoints
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	appdiet "github.com/nutriplan/dietai/internal/application/diet"
	"github.com/nutriplan/dietai/internal/domain/diet"
	"github.com/nutriplan/dietai/internal/infrastructure/http/middleware"
	"github.com/nutriplan/dietai/internal/ports/inbound"
	apperrors "github.com/nutriplan/dietai/pkg/errors"
	"go.uber.org/zap"
)

// MaxBodyBytes bounds a JSON request body
const MaxBodyBytes = 100 << 10

// Error messages for bodies that never reach the service
const (
	MsgInvalidJSON     = "Invalid JSON payload"
	MsgBodyTooLarge    = "Request entity too large"
	MsgUnexpectedError = "An unexpected error occurred"
	MsgNotFound        = "Not found"
)

// DietAPIHandlers handles the diet API requests
type DietAPIHandlers struct {
	service  inbound.DietService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewDietAPIHandlers creates a new diet API handlers instance
func NewDietAPIHandlers(
	service inbound.DietService,
	logger *zap.Logger,
) *DietAPIHandlers {
	return &DietAPIHandlers{
		service:  service,
		validate: validator.New(),
		logger:   logger.Named("diet-api"),
	}
}

// GenerateDiet handles POST /api/generateDiet
func (h *DietAPIHandlers) GenerateDiet(w http.ResponseWriter, r *http.Request) {
	var req diet.DietRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.GenerateDiet(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result.Body)
}

// AskAI handles POST /api/askAI
func (h *DietAPIHandlers) AskAI(w http.ResponseWriter, r *http.Request) {
	var req diet.AskRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, r, apperrors.NewValidationError(appdiet.MsgPromptRequired).WithCause(err))
		return
	}

	resp, err := h.service.Ask(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// ListModels handles GET /api/models
func (h *DietAPIHandlers) ListModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.service.ListModels(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, models)
}

// decode reads a JSON body into dst. An empty body decodes as {}.
func (h *DietAPIHandlers) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.writeError(w, r, apperrors.NewAppError(apperrors.CodeBadRequest, MsgBodyTooLarge, "").
			WithStatus(http.StatusRequestEntityTooLarge).WithCause(err))
		return false
	}

	h.writeError(w, r, apperrors.NewBadRequestError(MsgInvalidJSON).WithCause(err))
	return false
}

// NotFound answers unknown routes with the JSON error body
func (h *DietAPIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, apperrors.NewNotFoundError(MsgNotFound))
}

// Helper methods

func (h *DietAPIHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (h *DietAPIHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperrors.Wrap(err, MsgUnexpectedError)
	status := appErr.StatusCode()

	fields := []zap.Field{
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.String("code", string(appErr.Code)),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", fields...)
	} else {
		h.logger.Warn("Request rejected", fields...)
	}

	h.writeJSON(w, status, apperrors.ToErrorResponse(appErr))
}
