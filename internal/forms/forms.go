package forms

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"conductor/internal/web"

	"github.com/go-playground/form/v4"
	"github.com/go-playground/validator/v10"
)

const (
	MsgInvalidCSRF   = "The CSRF token is missing or invalid."
	MsgInvalidChoice = "Not a valid choice!"
)

// Errors сообщения валидации по имени поля формы
type Errors map[string][]string

func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Base общие поля любой отправляемой формы
type Base struct {
	CSRFToken string `form:"csrf_token"`
	Errors    Errors `form:"-"`
}

func (b *Base) base() *Base { return b }

// Valid сообщает, прошла ли последняя валидация без ошибок
func (b *Base) Valid() bool { return len(b.Errors) == 0 }

// Form структура, которую декодер заполняет по тегам form
type Form interface {
	base() *Base
}

// binder дочитывает поля, которые нельзя описать тегом
type binder interface {
	bind(values url.Values)
}

// checker проверки, которые нельзя выразить тегами validate
type checker interface {
	Check(errs Errors)
}

var (
	decoder     = newDecoder()
	validate    = newValidator()
	phoneNumber = regexp.MustCompile(`^[0-9+()\-. ]{7,20}$`)
)

func newDecoder() *form.Decoder {
	d := form.NewDecoder()
	d.RegisterCustomTypeFunc(func(vals []string) (interface{}, error) {
		return strings.TrimSpace(vals[0]), nil
	}, "")
	return d
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneNumber.MatchString(fl.Field().String())
	})
	return v
}

// ValidateOnSubmit декодирует и проверяет f только для POST.
// Для остальных методов возвращает false и не трогает f.
func ValidateOnSubmit(r *web.Request, f Form) bool {
	if r.Method != http.MethodPost {
		return false
	}

	// Отправленная форма целиком заменяет подставленные из сессии значения
	v := reflect.ValueOf(f).Elem()
	v.Set(reflect.Zero(v.Type()))

	b := f.base()
	b.Errors = Errors{}
	if err := decoder.Decode(f, r.PostForm); err != nil {
		var derrs form.DecodeErrors
		if !errors.As(err, &derrs) {
			b.Errors.Add("", err.Error())
			return false
		}
		for ns := range derrs {
			b.Errors.Add(fieldName(ns), MsgInvalidChoice)
		}
	}
	if bf, ok := f.(binder); ok {
		bf.bind(r.PostForm)
	}

	b.CSRFToken = r.PostForm.Get("csrf_token")
	if b.CSRFToken == "" || r.Session == nil || b.CSRFToken != r.Session.CSRF {
		b.Errors.Add("csrf_token", MsgInvalidCSRF)
	}

	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			b.Errors.Add("", err.Error())
			return false
		}
		for _, fe := range verrs {
			b.Errors.Add(fe.Field(), message(fe))
		}
	}
	if c, ok := f.(checker); ok {
		c.Check(b.Errors)
	}
	return b.Valid()
}

// ValidEmail проходит ли s проверку поля email
func ValidEmail(s string) bool {
	return validate.Var(s, "required,email,max=80") == nil
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Invalid email address."
	case "max":
		return fmt.Sprintf("Field cannot be longer than %s characters.", fe.Param())
	case "phone":
		return "Invalid phone number."
	default:
		return "Invalid value."
	}
}

// fieldName обрезает namespace декодера до имени поля: "opportunity[1]" -> "opportunity"
func fieldName(ns string) string {
	if i := strings.IndexAny(ns, "[."); i >= 0 {
		return ns[:i]
	}
	return ns
}
