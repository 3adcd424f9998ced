package web

import (
	"strings"

	"conductor/internal/session"
)

// Kind вариант Result
type Kind int

const (
	// контекст шаблона, еще не отрендерен
	KindContext Kind = iota
	// готовый HTML
	KindRendered
	// 303 See Other
	KindRedirect
	KindNotFound
)

// Result то, что возвращает хендлер вместо записи в ResponseWriter
type Result struct {
	Kind     Kind
	HTML     string
	Template string
	Context  map[string]any
	Target   string
	Flashes  []session.Flash
}

// Context контекст без выбранного шаблона
func Context(ctx map[string]any) Result {
	return Result{Kind: KindContext, Context: ctx}
}

func Page(template string, ctx map[string]any) Result {
	return Result{Kind: KindContext, Template: template, Context: ctx}
}

func Rendered(html string) Result {
	return Result{Kind: KindRendered, HTML: html}
}

func Redirect(target string) Result {
	return Result{Kind: KindRedirect, Target: target}
}

func NotFound() Result {
	return Result{Kind: KindNotFound}
}

// WithFlash добавляет сообщение для следующей страницы
func (r Result) WithFlash(message, class string) Result {
	r.Flashes = append(append([]session.Flash(nil), r.Flashes...), session.Flash{Message: message, Class: class})
	return r
}

func (r Result) IsResponse() bool {
	return r.Kind == KindRedirect || r.Kind == KindNotFound
}

// DefaultTemplate путь шаблона по имени эндпоинта: "conductor.index" -> "conductor/index.html"
func DefaultTemplate(endpoint string) string {
	return strings.ReplaceAll(endpoint, ".", "/") + ".html"
}
