package forms

import (
	"conductor/internal/session"
	"conductor/internal/web"
)

const DefaultFormName = "wrapped_form"

// WrapForm создает новую форму на каждый запрос. Если хендлер вернул контекст,
// форма кладется в него под formName и рендерится template.
// Редиректы, 404 и готовый HTML проходят без изменений
func WrapForm[F Form](factory func(*session.Session) F, formName, template string) web.Middleware {
	if formName == "" {
		formName = DefaultFormName
	}
	return func(next web.HandlerFunc) web.HandlerFunc {
		return func(r *web.Request) (web.Result, error) {
			form := factory(r.Session)

			res, err := next(r)
			if err != nil || res.Kind != web.KindContext {
				return res, err
			}

			if res.Context == nil {
				res.Context = map[string]any{}
			}
			res.Context[formName] = form

			res.Template = template
			if res.Template == "" {
				res.Template = web.DefaultTemplate(r.Endpoint)
			}
			return res, nil
		}
	}
}
