package forms

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"conductor/internal/session"
	"conductor/models"
)

const subcategoryPrefix = "subcategories-"

// SignupForm профиль поставщика и подкатегории, на которые он подписан
type SignupForm struct {
	Base
	BusinessName       string `form:"business_name" validate:"required,max=255"`
	Email              string `form:"email" validate:"required,email,max=80"`
	FirstName          string `form:"first_name" validate:"max=30"`
	LastName           string `form:"last_name" validate:"max=30"`
	PhoneNumber        string `form:"phone_number" validate:"omitempty,phone"`
	FaxNumber          string `form:"fax_number" validate:"omitempty,phone"`
	MinorityOwned      bool   `form:"minority_owned"`
	WomanOwned         bool   `form:"woman_owned"`
	VeteranOwned       bool   `form:"veteran_owned"`
	DisadvantagedOwned bool   `form:"disadvantaged_owned"`
	Subcategories      []int  `form:"-"`

	badSubcategories []string
}

// NewSignupForm подставляет контакты из сессии
func NewSignupForm(s *session.Session) *SignupForm {
	f := &SignupForm{}
	if s != nil {
		f.Email, f.BusinessName = s.Email, s.BusinessName
	}
	return f
}

func (f *SignupForm) bind(values url.Values) {
	f.Subcategories, f.badSubcategories = parseSubcategories(values)
}

func (f *SignupForm) Check(errs Errors) {
	for _, key := range f.badSubcategories {
		errs.Add("subcategories", key+" is not a valid choice!")
	}
}

// Selected отмечена ли подкатегория id, чтобы перерисованная форма сохранила выбор
func (f *SignupForm) Selected(id int) bool {
	for _, s := range f.Subcategories {
		if s == id {
			return true
		}
	}
	return false
}

func (f *SignupForm) Vendor() models.Vendor {
	return models.Vendor{
		BusinessName:       f.BusinessName,
		Email:              f.Email,
		FirstName:          f.FirstName,
		LastName:           f.LastName,
		PhoneNumber:        f.PhoneNumber,
		FaxNumber:          f.FaxNumber,
		MinorityOwned:      f.MinorityOwned,
		WomanOwned:         f.WomanOwned,
		VeteranOwned:       f.VeteranOwned,
		DisadvantagedOwned: f.DisadvantagedOwned,
	}
}

// parseSubcategories собирает id из полей "subcategories-<id>" со значением "on".
// Имена полей динамические, поэтому тегами их не описать.
func parseSubcategories(values url.Values) ([]int, []string) {
	seen := map[int]bool{}
	var ids []int
	var bad []string
	for key, vals := range values {
		if !strings.HasPrefix(key, subcategoryPrefix) {
			continue
		}
		on := false
		for _, v := range vals {
			if v == "on" {
				on = true
			}
		}
		if !on {
			continue
		}
		id, err := strconv.Atoi(strings.TrimPrefix(key, subcategoryPrefix))
		if err != nil {
			bad = append(bad, key)
			continue
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	sort.Strings(bad)
	return ids, bad
}

// OpportunitySignupForm подписка на одну или несколько возможностей
type OpportunitySignupForm struct {
	Base
	Email         string `form:"email" validate:"required,email,max=80"`
	BusinessName  string `form:"business_name" validate:"required,max=255"`
	Opportunities []int  `form:"opportunity"`
}

func NewOpportunitySignupForm(s *session.Session) *OpportunitySignupForm {
	f := &OpportunitySignupForm{}
	if s != nil {
		f.Email, f.BusinessName = s.Email, s.BusinessName
	}
	return f
}

func (f *OpportunitySignupForm) bind(url.Values) {
	f.Opportunities = dedupe(f.Opportunities)
}

type UnsubscribeForm struct {
	Base
	Email         string `form:"email" validate:"required,email"`
	Categories    []int  `form:"categories"`
	Opportunities []int  `form:"opportunities"`
	Button        string `form:"button"`
}

func NewUnsubscribeForm(s *session.Session) *UnsubscribeForm {
	f := &UnsubscribeForm{}
	if s != nil {
		f.Email = s.Email
	}
	return f
}

func (f *UnsubscribeForm) bind(url.Values) {
	f.Categories = dedupe(f.Categories)
	f.Opportunities = dedupe(f.Opportunities)
}

// Unsubscribing нажата ли кнопка отписки
func (f *UnsubscribeForm) Unsubscribing() bool {
	return strings.EqualFold(f.Button, "unsubscribe from checked")
}

// SearchForm поиск для сотрудников
type SearchForm struct {
	Base
	Q string `form:"q" validate:"required"`
}

func NewSearchForm(*session.Session) *SearchForm { return &SearchForm{} }

func dedupe(ids []int) []int {
	if len(ids) == 0 {
		return ids
	}
	seen := make(map[int]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
