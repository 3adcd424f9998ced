package opportunities

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"conductor/models"
	"conductor/pkg/logger"
)

// SelectAll псевдокатегория со всеми подкатегориями
const SelectAll = "Select All"

// Store хранилище для сценариев поставщика, его реализует *db.Storage
type Store interface {
	GetVendorByEmail(ctx context.Context, email string) (*models.Vendor, error)
	FindVendor(ctx context.Context, email, businessName string) (*models.Vendor, error)
	CreateVendor(ctx context.Context, v *models.Vendor, categoryIDs []int) error
	UpdateVendor(ctx context.Context, v *models.Vendor, categoryIDs []int) error
	RemoveVendorSubscriptions(ctx context.Context, vendorID int, categoryIDs, opportunityIDs []int) error

	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategoriesByIDs(ctx context.Context, ids []int) ([]models.Category, error)
	VendorCategories(ctx context.Context, vendorID int) ([]models.Category, error)

	GetOpportunity(ctx context.Context, id int) (*models.Opportunity, error)
	GetOpportunitiesByIDs(ctx context.Context, ids []int) ([]models.Opportunity, error)
	ListOpportunitiesOpenSince(ctx context.Context, day time.Time) ([]models.Opportunity, error)
	AttachOpportunities(ctx context.Context, vendorID int, opportunityIDs []int) error
	VendorOpportunities(ctx context.Context, vendorID int) ([]models.Opportunity, error)
}

// Notifier уведомляет нового поставщика о регистрации
type Notifier interface {
	VendorSignup(ctx context.Context, vendor models.Vendor, categories []models.Category) error
}

type Service struct {
	store    Store
	notifier Notifier
	log      *logger.Logger
}

func NewService(store Store, notifier Notifier, log *logger.Logger) *Service {
	return &Service{store: store, notifier: notifier, log: log}
}

type SignupResult struct {
	Vendor           models.Vendor
	Created          bool
	ConfirmationSent bool
}

// Signup создает поставщика или обновляет существующего с тем же email
// и заменяет подкатегории. Неизвестные id дают models.ErrInvalidCategory до записи
func (s *Service) Signup(ctx context.Context, vendor models.Vendor, subcategoryIDs []int) (SignupResult, error) {
	ids := uniqueIDs(subcategoryIDs)
	categories, err := s.store.GetCategoriesByIDs(ctx, ids)
	if err != nil {
		return SignupResult{}, err
	}
	if missing := missingIDs(ids, categoryIDs(categories)); len(missing) > 0 {
		return SignupResult{}, fmt.Errorf("%w: %v", models.ErrInvalidCategory, missing)
	}

	existing, err := s.store.GetVendorByEmail(ctx, vendor.Email)
	switch {
	case err == nil:
		return s.updateVendor(ctx, existing, vendor, ids, categories)
	case !errors.Is(err, models.ErrNotFound):
		return SignupResult{}, err
	}

	err = s.store.CreateVendor(ctx, &vendor, ids)
	if errors.Is(err, models.ErrDuplicate) {
		// параллельная регистрация с тем же email успела раньше
		existing, err = s.store.GetVendorByEmail(ctx, vendor.Email)
		if err != nil {
			return SignupResult{}, err
		}
		return s.updateVendor(ctx, existing, vendor, ids, categories)
	}
	if err != nil {
		return SignupResult{}, err
	}

	s.log.Info().
		Str("email", vendor.Email).
		Str("business", vendor.BusinessName).
		Strs("categories", categoryNames(categories)).
		Msg("new vendor signed up")

	res := SignupResult{Vendor: vendor, Created: true, ConfirmationSent: true}
	if err := s.notifier.VendorSignup(ctx, vendor, categories); err != nil {
		s.log.Error().Err(err).Str("email", vendor.Email).Msg("vendor signup confirmation")
		res.ConfirmationSent = false
	}
	return res, nil
}

func (s *Service) updateVendor(ctx context.Context, existing *models.Vendor, vendor models.Vendor, ids []int, categories []models.Category) (SignupResult, error) {
	oldCategories, err := s.store.VendorCategories(ctx, existing.ID)
	if err != nil {
		return SignupResult{}, err
	}

	vendor.ID = existing.ID
	vendor.CreatedAt = existing.CreatedAt
	if err := s.store.UpdateVendor(ctx, &vendor, ids); err != nil {
		return SignupResult{}, err
	}

	s.log.Info().
		Str("old_email", existing.Email).
		Str("email", vendor.Email).
		Str("old_business", existing.BusinessName).
		Str("business", vendor.BusinessName).
		Strs("old_categories", categoryNames(oldCategories)).
		Strs("categories", categoryNames(categories)).
		Msg("vendor updated")

	return SignupResult{Vendor: vendor}, nil
}

// SubscribeToOpportunities подписывает поставщика (email + название, создается при необходимости)
// на возможности. При multi все ids должны быть публичными, иначе ничего не пишется
// и возвращается false. Без multi ids не проверяются, видимость проверяет вызывающий
func (s *Service) SubscribeToOpportunities(ctx context.Context, email, businessName string, opportunityIDs []int, multi bool) (bool, error) {
	ids := uniqueIDs(opportunityIDs)

	if multi {
		opps, err := s.store.GetOpportunitiesByIDs(ctx, ids)
		if err != nil {
			return false, err
		}
		if len(opps) != len(ids) {
			return false, nil
		}
		for _, o := range opps {
			if !o.IsPublic {
				return false, nil
			}
		}
	}

	vendor, err := s.findOrCreateVendor(ctx, email, businessName)
	if err != nil {
		return false, err
	}
	if err := s.store.AttachOpportunities(ctx, vendor.ID, ids); err != nil {
		return false, err
	}

	s.log.Info().
		Str("email", email).
		Str("business", businessName).
		Ints("opportunities", ids).
		Msg("vendor subscribed to opportunities")
	return true, nil
}

func (s *Service) findOrCreateVendor(ctx context.Context, email, businessName string) (*models.Vendor, error) {
	vendor, err := s.store.FindVendor(ctx, email, businessName)
	if err == nil {
		return vendor, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	vendor = &models.Vendor{Email: email, BusinessName: businessName}
	err = s.store.CreateVendor(ctx, vendor, nil)
	if errors.Is(err, models.ErrDuplicate) {
		// email уже занят под другим названием
		return s.store.GetVendorByEmail(ctx, email)
	}
	if err != nil {
		return nil, err
	}
	return vendor, nil
}

type Subscriptions struct {
	Vendor        models.Vendor
	Categories    []models.Category
	Opportunities []models.Opportunity
}

func (s *Service) Subscriptions(ctx context.Context, email string) (Subscriptions, error) {
	vendor, err := s.store.GetVendorByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return Subscriptions{}, models.ErrVendorNotFound
	}
	if err != nil {
		return Subscriptions{}, err
	}

	categories, err := s.store.VendorCategories(ctx, vendor.ID)
	if err != nil {
		return Subscriptions{}, err
	}
	opps, err := s.store.VendorOpportunities(ctx, vendor.ID)
	if err != nil {
		return Subscriptions{}, err
	}
	return Subscriptions{Vendor: *vendor, Categories: categories, Opportunities: opps}, nil
}

// Unsubscribe снимает отмеченные подписки
func (s *Service) Unsubscribe(ctx context.Context, email string, categoryIDs, opportunityIDs []int) error {
	vendor, err := s.store.GetVendorByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return models.ErrVendorNotFound
	}
	if err != nil {
		return err
	}
	if err := s.store.RemoveVendorSubscriptions(ctx, vendor.ID, uniqueIDs(categoryIDs), uniqueIDs(opportunityIDs)); err != nil {
		return err
	}
	s.log.Info().Str("email", email).Ints("categories", categoryIDs).Ints("opportunities", opportunityIDs).Msg("vendor unsubscribed")
	return nil
}

type Choice struct {
	ID          int
	Subcategory string
}

// Choices данные для выбора категорий на странице регистрации
type Choices struct {
	// SelectAll всегда последний
	Categories    []string
	Subcategories map[string][]Choice
}

func (s *Service) SignupChoices(ctx context.Context) (Choices, error) {
	all, err := s.store.ListCategories(ctx)
	if err != nil {
		return Choices{}, err
	}

	subs := map[string][]Choice{}
	for _, c := range all {
		choice := Choice{ID: c.ID, Subcategory: c.Subcategory}
		subs[SelectAll] = append(subs[SelectAll], choice)
		subs[c.Category] = append(subs[c.Category], choice)
	}

	names := make([]string, 0, len(subs))
	for name := range subs {
		if name != SelectAll {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return Choices{Categories: append(names, SelectAll), Subcategories: subs}, nil
}

// Browse возможности со сроком с сегодняшнего дня: опубликованные и будущие
func (s *Service) Browse(ctx context.Context, now time.Time) (active, upcoming []models.Opportunity, err error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	opps, err := s.store.ListOpportunitiesOpenSince(ctx, today)
	if err != nil {
		return nil, nil, err
	}
	active, upcoming = []models.Opportunity{}, []models.Opportunity{}
	for _, o := range opps {
		if o.IsPublished(now) {
			active = append(active, o)
		} else {
			upcoming = append(upcoming, o)
		}
	}
	return active, upcoming, nil
}

// PublicOpportunity возвращает models.ErrNotFound для неизвестных и непубличных
func (s *Service) PublicOpportunity(ctx context.Context, id int) (*models.Opportunity, error) {
	o, err := s.store.GetOpportunity(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.IsPublic {
		return nil, models.ErrNotFound
	}
	return o, nil
}

func uniqueIDs(ids []int) []int {
	out := make([]int, 0, len(ids))
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func categoryIDs(categories []models.Category) []int {
	ids := make([]int, len(categories))
	for i, c := range categories {
		ids[i] = c.ID
	}
	return ids
}

func missingIDs(want, have []int) []int {
	found := make(map[int]bool, len(have))
	for _, id := range have {
		found[id] = true
	}
	var missing []int
	for _, id := range want {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing
}

func categoryNames(categories []models.Category) []string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.String()
	}
	return names
}
