package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"complyform/internal/assessment"
	"complyform/internal/compliance"
	"complyform/internal/sentinel"
	"complyform/models"
)

// Ограничение размера тела, чтобы избежать DoS
const maxBodyBytes = 1048576

// Validator прогоняет проверки соответствия по заявке
type Validator interface {
	Run(ctx context.Context, bidID int) (*compliance.Report, error)
	Results(ctx context.Context, bidID int) (*compliance.Report, error)
}

// Assessor оценивает закупки для организации
type Assessor interface {
	Assess(ctx context.Context, req assessment.Request) (*models.Assessment, error)
	List(ctx context.Context, orgID int) ([]models.Assessment, error)
	Summary(ctx context.Context, orgID int) (*models.AssessmentSummary, error)
}

// CacheInvalidator сбрасывает кэш справочника после изменения записи
type CacheInvalidator interface {
	Invalidate(ctx context.Context, recs ...*models.DirectoryRecord) error
}

// Handler оборачивает Storage и сервисы проверки
type Handler struct {
	Store     StorageInterface
	Validator Validator
	Assessor  Assessor
	Cache     CacheInvalidator
	Log       zerolog.Logger
}

// NewHandler создает новый Handler; Cache можно не задавать
func NewHandler(store StorageInterface, validator Validator, assessor Assessor, log zerolog.Logger) *Handler {
	return &Handler{Store: store, Validator: validator, Assessor: assessor, Log: log}
}

// PingHandler отвечает "ok" для проверки сервера
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// HealthHandler дополнительно проверяет соединение с базой
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		h.Log.Error().Err(err).Msg("health check failed")
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return errors.New("Failed to read request body")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errors.New("Invalid JSON format")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError переводит sentinel-ошибки в коды ответа; остальное логируется как 500
func (h *Handler) writeError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, sentinel.ErrConflict), errors.Is(err, sentinel.ErrInvalidState):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, sentinel.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.Log.Error().Err(err).Str("action", action).Msg("request failed")
		http.Error(w, "Failed to "+action, http.StatusInternalServerError)
	}
}

// intParam читает положительный целый параметр пути
func intParam(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || v <= 0 {
		return 0, errors.New("Invalid " + name)
	}
	return v, nil
}
