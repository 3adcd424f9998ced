package web

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"conductor/internal/session"
	"conductor/models"
	"conductor/pkg/logger"
)

// UserLoader загружает пользователя по id из сессии
type UserLoader interface {
	GetUser(ctx context.Context, id int) (*models.User, error)
}

// App связывает HandlerFunc с net/http: читает сессию и пользователя,
// вызывает хендлер и пишет Result в ответ
type App struct {
	sessions *session.Manager
	users    UserLoader
	renderer Renderer
	log      *logger.Logger
}

func NewApp(sessions *session.Manager, users UserLoader, renderer Renderer, log *logger.Logger) *App {
	return &App{sessions: sessions, users: users, renderer: renderer, log: log}
}

// Handle собирает http.HandlerFunc, mws[0] выполняется первым
func (a *App) Handle(endpoint string, h HandlerFunc, mws ...Middleware) http.HandlerFunc {
	wrapped := Chain(h, mws...)

	return func(w http.ResponseWriter, r *http.Request) {
		sess := a.sessions.Load(r)

		var user *models.User
		if sess.UserID != 0 {
			u, err := a.users.GetUser(r.Context(), sess.UserID)
			switch {
			case errors.Is(err, models.ErrNotFound):
				sess.UserID = 0
			case err != nil:
				a.fail(w, r, endpoint, err)
				return
			default:
				user = u
			}
		}

		if r.Method == http.MethodPost {
			r.Body = http.MaxBytesReader(w, r.Body, 1048576)
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Invalid form data", http.StatusBadRequest)
				return
			}
		}

		req := &Request{Request: r, Endpoint: endpoint, User: user, Session: sess}
		res, err := wrapped(req)
		if err != nil {
			a.fail(w, r, endpoint, err)
			return
		}
		a.write(w, req, res)
	}
}

func (a *App) write(w http.ResponseWriter, req *Request, res Result) {
	sess := req.Session

	switch res.Kind {
	case KindRedirect:
		sess.Flashes = append(sess.Flashes, res.Flashes...)
		a.saveSession(w, req)
		http.Redirect(w, req.Request, res.Target, http.StatusSeeOther)

	case KindNotFound:
		sess.Flashes = append(sess.Flashes, res.Flashes...)
		a.saveSession(w, req)
		http.NotFound(w, req.Request)

	case KindRendered:
		sess.Flashes = append(sess.Flashes, res.Flashes...)
		a.saveSession(w, req)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(res.HTML))

	default:
		name := res.Template
		if name == "" {
			name = DefaultTemplate(req.Endpoint)
		}
		ctx := res.Context
		if ctx == nil {
			ctx = map[string]any{}
		}
		ctx["flashes"] = append(sess.PopFlashes(), res.Flashes...)
		ctx["current_user"] = req.User
		ctx["csrf_token"] = sess.CSRF

		var buf bytes.Buffer
		if err := a.renderer.Render(&buf, name, ctx); err != nil {
			a.fail(w, req.Request, req.Endpoint, err)
			return
		}
		a.saveSession(w, req)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
	}
}

func (a *App) saveSession(w http.ResponseWriter, req *Request) {
	if err := a.sessions.Save(w, req.Session); err != nil {
		a.log.Error().Err(err).Str("endpoint", req.Endpoint).Msg("save session")
	}
}

func (a *App) fail(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	a.log.Error().Err(err).
		Str("endpoint", endpoint).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("request failed")
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
