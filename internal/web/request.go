package web

import (
	"net/http"

	"conductor/internal/session"
	"conductor/models"
)

// Request контекст запроса, который получает каждый хендлер.
// User nil для анонимных запросов
type Request struct {
	*http.Request
	Endpoint string
	User     *models.User
	Session  *session.Session
}

func (r *Request) IsAnonymous() bool {
	return r.User == nil
}

type HandlerFunc func(r *Request) (Result, error)

type Middleware func(next HandlerFunc) HandlerFunc

// Chain оборачивает h, mws[0] выполняется первым
func Chain(h HandlerFunc, mws ...Middleware) HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
