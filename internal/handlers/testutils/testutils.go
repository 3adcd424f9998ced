package testutils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"conductor/internal/session"

	"github.com/go-chi/chi/v5"
)

// WithChiURLParams подставляет параметры пути в контекст chi, без роутера
func WithChiURLParams(req *http.Request, params map[string]string) *http.Request {
	chiCtx := chi.NewRouteContext()
	for k, v := range params {
		chiCtx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, chiCtx))
}

func PostForm(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// WithSession добавляет s в запрос подписанной кукой
func WithSession(req *http.Request, mgr *session.Manager, s *session.Session) (*http.Request, error) {
	token, err := mgr.Encode(s)
	if err != nil {
		return nil, err
	}
	req.AddCookie(mgr.Cookie(token))
	return req, nil
}

// SessionFrom читает сессию из куки записанного ответа
func SessionFrom(res *http.Response, mgr *session.Manager) *session.Session {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range res.Cookies() {
		req.AddCookie(c)
	}
	return mgr.Load(req)
}
