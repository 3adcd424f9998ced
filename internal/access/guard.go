package access

import (
	"errors"
	"strings"

	"conductor/internal/web"
	"conductor/models"
	"conductor/pkg/logger"
)

// Уровни доступа для страниц сотрудников
var (
	StaffRoles      = []string{models.RoleConductor, models.RoleAdmin, models.RoleSuperAdmin}
	AdminRoles      = []string{models.RoleAdmin, models.RoleSuperAdmin}
	SuperAdminRoles = []string{models.RoleSuperAdmin}
)

var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrInsufficientRole = errors.New("insufficient role")
)

const (
	MsgUnauthenticated  = "This feature is for city staff only. If you are staff, log in with your city email using the link to the upper right."
	MsgInsufficientRole = "You do not have sufficent permissions to do that!"
)

// Authorize проверяет роль пользователя
func Authorize(user *models.User, roles []string) error {
	if user == nil {
		return ErrUnauthenticated
	}
	if !user.HasRole(roles...) {
		return ErrInsufficientRole
	}
	return nil
}

func IsAccessible(user *models.User, roles []string) bool {
	return Authorize(user, roles) == nil
}

// RequireRoles пропускает только пользователей с ролью из roles.
// Остальных перенаправляет на next или на корень с предупреждением
func RequireRoles(roles ...string) web.Middleware {
	return func(next web.HandlerFunc) web.HandlerFunc {
		return func(r *web.Request) (web.Result, error) {
			if r.IsAnonymous() {
				return web.Redirect(redirectTarget(r)).WithFlash(MsgUnauthenticated, "alert-warning"), nil
			}
			if err := Authorize(r.User, roles); err != nil {
				return web.Redirect(redirectTarget(r)).WithFlash(MsgInsufficientRole, "alert-danger"), nil
			}
			return next(r)
		}
	}
}

// redirectTarget ?next= учитывается, только если это локальный путь
func redirectTarget(r *web.Request) string {
	next := r.URL.Query().Get("next")
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

// LogView логирует каждый просмотр страницы
func LogView(log *logger.Logger) web.Middleware {
	return func(next web.HandlerFunc) web.HandlerFunc {
		return func(r *web.Request) (web.Result, error) {
			ev := log.Info().Str("endpoint", r.Endpoint).Str("path", r.URL.Path)
			if r.User != nil {
				ev = ev.Str("user", r.User.Email)
			}
			ev.Msg("page view")
			return next(r)
		}
	}
}
