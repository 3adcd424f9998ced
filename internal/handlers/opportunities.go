package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"conductor/internal/forms"
	"conductor/internal/web"
	"conductor/models"

	"github.com/go-chi/chi/v5"
)

const (
	MsgSignupUpdated   = "You are already signed up! Your profile was updated with this new information"
	MsgSignupCreated   = "Thank you for signing up! Check your email for more information"
	MsgSignupMailError = "Uh oh, something went wrong. We are investigating."
	MsgSubscribed      = "Successfully subscribed for updates!"
	MsgCannotSubscribe = "You can't subscribe to that contract!"
	MsgPreferences     = "Preferences updated!"
)

func (h *Handler) Landing(r *web.Request) (web.Result, error) {
	return web.Context(nil), nil
}

// Signup показывает и обрабатывает форму регистрации поставщика
func (h *Handler) Signup(r *web.Request) (web.Result, error) {
	if email := r.URL.Query().Get("email"); email != "" && r.Method == http.MethodGet {
		h.Log.Info().Str("email", email).Msg("vendor clicked through to signup")
		r.Session.Email = email
		return web.Redirect("/opportunities/signup"), nil
	}

	form := forms.NewSignupForm(r.Session)
	if forms.ValidateOnSubmit(r, form) {
		res, err := h.Opps.Signup(r.Context(), form.Vendor(), form.Subcategories)
		switch {
		case errors.Is(err, models.ErrInvalidCategory):
			form.Errors.Add("subcategories", "One of the selected subcategories is not a valid choice!")
		case err != nil:
			return web.Result{}, err
		default:
			h.rememberVendor(r, form.Email, form.BusinessName)
			out := web.Redirect("/")
			switch {
			case !res.Created:
				out = out.WithFlash(MsgSignupUpdated, "alert-info")
			case res.ConfirmationSent:
				out = out.WithFlash(MsgSignupCreated, "alert-success")
			default:
				out = out.WithFlash(MsgSignupMailError, "alert-danger")
			}
			return out, nil
		}
	}

	if r.Method == http.MethodGet && r.Session.Email != "" && !forms.ValidEmail(r.Session.Email) {
		r.Session.Email = ""
		form.Email = ""
	}

	choices, err := h.Opps.SignupChoices(r.Context())
	if err != nil {
		return web.Result{}, err
	}
	return web.Page("opportunities/signup.html", map[string]any{
		"form":          form,
		"categories":    choices.Categories,
		"subcategories": choices.Subcategories,
	}), nil
}

// Manage ищет подписки поставщика по email и снимает отмеченные
func (h *Handler) Manage(r *web.Request) (web.Result, error) {
	form := forms.NewUnsubscribeForm(r.Session)
	data := map[string]any{"form": form}
	out := web.Page("opportunities/manage.html", data)

	if !forms.ValidateOnSubmit(r, form) {
		return out, nil
	}

	ctx := r.Context()
	notFound := func() {
		form.Errors.Add("email", fmt.Sprintf("We could not find the email %s", form.Email))
	}

	if form.Unsubscribing() {
		err := h.Opps.Unsubscribe(ctx, form.Email, form.Categories, form.Opportunities)
		switch {
		case errors.Is(err, models.ErrVendorNotFound):
			notFound()
			return out, nil
		case err != nil:
			return web.Result{}, err
		}
		out = out.WithFlash(MsgPreferences, "alert-success")
	}

	subs, err := h.Opps.Subscriptions(ctx, form.Email)
	switch {
	case errors.Is(err, models.ErrVendorNotFound):
		notFound()
		return out, nil
	case err != nil:
		return web.Result{}, err
	}
	data["categories"] = subs.Categories
	data["opportunities"] = subs.Opportunities
	return out, nil
}

// Browse список открытых возможностей и подписка на отмеченные
func (h *Handler) Browse(r *web.Request) (web.Result, error) {
	form := forms.NewOpportunitySignupForm(r.Session)
	if forms.ValidateOnSubmit(r, form) {
		h.rememberVendor(r, form.Email, form.BusinessName)
		ok, err := h.Opps.SubscribeToOpportunities(r.Context(), form.Email, form.BusinessName, form.Opportunities, true)
		if err != nil {
			return web.Result{}, err
		}
		if !ok {
			return web.Redirect("/opportunities").WithFlash(MsgCannotSubscribe, "alert-danger"), nil
		}
		return web.Redirect("/opportunities").WithFlash(MsgSubscribed, "alert-success"), nil
	}

	active, upcoming, err := h.Opps.Browse(r.Context(), h.Now())
	if err != nil {
		return web.Result{}, err
	}
	return web.Page("opportunities/browse.html", map[string]any{
		"active":      active,
		"upcoming":    upcoming,
		"signup_form": form,
	}), nil
}

// Detail одна публичная возможность и подписка на нее
func (h *Handler) Detail(r *web.Request) (web.Result, error) {
	id, err := strconv.Atoi(chi.URLParam(r.Request, "id"))
	if err != nil {
		return web.NotFound(), nil
	}
	opp, err := h.Opps.PublicOpportunity(r.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		return web.NotFound(), nil
	}
	if err != nil {
		return web.Result{}, err
	}

	form := forms.NewOpportunitySignupForm(r.Session)
	if forms.ValidateOnSubmit(r, form) {
		h.rememberVendor(r, form.Email, form.BusinessName)
		ok, err := h.Opps.SubscribeToOpportunities(r.Context(), form.Email, form.BusinessName, []int{opp.ID}, false)
		if err != nil {
			return web.Result{}, err
		}
		if ok {
			return web.Redirect(fmt.Sprintf("/opportunities/%d", opp.ID)).WithFlash(MsgSubscribed, "alert-success"), nil
		}
	}

	return web.Page("opportunities/detail.html", map[string]any{
		"opportunity": opp,
		"signup_form": form,
	}), nil
}

// rememberVendor сохраняет контакты в сессии для следующих форм
func (h *Handler) rememberVendor(r *web.Request, email, businessName string) {
	r.Session.Email = email
	r.Session.BusinessName = businessName
}
