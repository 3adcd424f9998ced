package handlers

import (
	"net/http"

	"conductor/internal/access"
	"conductor/internal/forms"
	"conductor/internal/web"
	"conductor/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter регистрирует все маршруты на chi
func NewRouter(h *Handler, app *web.App, log *logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(web.RequestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/ping", h.PingHandler)
	r.Get("/", app.Handle("opportunities.index", h.Landing))

	r.Get("/conductor/", app.Handle("conductor.index", h.ConductorIndex,
		access.RequireRoles(access.StaffRoles...),
		access.LogView(log),
		forms.WrapForm(forms.NewSearchForm, "search_form", "conductor/index.html"),
	))

	r.Route("/opportunities", func(r chi.Router) {
		browse := app.Handle("opportunities.browse", h.Browse)
		r.Get("/", browse)
		r.Post("/", browse)

		signup := app.Handle("opportunities.signup", h.Signup)
		r.Get("/signup", signup)
		r.Post("/signup", signup)

		manage := app.Handle("opportunities.manage", h.Manage)
		r.Get("/manage", manage)
		r.Post("/manage", manage)

		detail := app.Handle("opportunities.detail", h.Detail)
		r.Get("/{id}", detail)
		r.Post("/{id}", detail)
	})

	return r
}
