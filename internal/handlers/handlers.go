package handlers

import (
	"net/http"
	"time"

	"conductor/internal/opportunities"
	"conductor/internal/web"
	"conductor/models"
	"conductor/pkg/logger"
)

// Handler оборачивает Storage и сервисы для хендлеров страниц
type Handler struct {
	Store StorageInterface
	Opps  *opportunities.Service
	Log   *logger.Logger
	Now   func() time.Time
}

func NewHandler(store StorageInterface, opps *opportunities.Service, log *logger.Logger) *Handler {
	return &Handler{Store: store, Opps: opps, Log: log, Now: time.Now}
}

// PingHandler отвечает "ok" для проверки сервера
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// ConductorIndex контракты в работе, контракты для запуска и список кондукторов,
// текущий пользователь первым
func (h *Handler) ConductorIndex(r *web.Request) (web.Result, error) {
	ctx := r.Context()

	inProgress, err := h.Store.InProgressContracts(ctx)
	if err != nil {
		return web.Result{}, err
	}
	all, err := h.Store.AllContracts(ctx)
	if err != nil {
		return web.Result{}, err
	}
	others, err := h.Store.ConductorsExcept(ctx, r.User.Email)
	if err != nil {
		return web.Result{}, err
	}
	conductors := append([]models.User{*r.User}, others...)
	return web.Context(map[string]any{
		"in_progress": inProgress,
		"all":         all,
		"conductors":  conductors,
		"path":        r.URL.Path,
	}), nil
}
