package handlers_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"conductor/internal/forms"
	"conductor/internal/handlers"
	"conductor/internal/handlers/testutils"
	"conductor/internal/notify"
	"conductor/internal/opportunities"
	"conductor/internal/session"
	"conductor/internal/web"
	"conductor/models"
	"conductor/pkg/logger"

	"github.com/stretchr/testify/require"
)

// MockStorage реализует handlers.StorageInterface
type MockStorage struct {
	users      map[int]*models.User
	vendors    []*models.Vendor
	categories []models.Category
	opps       map[int]models.Opportunity

	attached  map[int][]int
	removed   map[int][]int
	updated   []models.Vendor
	createErr error

	InProgressContractsFunc func(ctx context.Context) ([]models.InProgressContract, error)
	AllContractsFunc        func(ctx context.Context) ([]models.ContractSummary, error)
	ConductorsExceptFunc    func(ctx context.Context, email string) ([]models.User, error)
}

func newMockStorage() *MockStorage {
	return &MockStorage{
		users: map[int]*models.User{
			1: {ID: 1, Email: "cy@city.gov", FirstName: "Cy", RoleName: models.RoleConductor},
			2: {ID: 2, Email: "staff@city.gov", FirstName: "Sam", RoleName: "staff"},
		},
		categories: []models.Category{
			{ID: 1, Category: "Construction", Subcategory: "Paving"},
			{ID: 2, Category: "Construction", Subcategory: "Roofing"},
		},
		opps: map[int]models.Opportunity{
			7: {ID: 7, Title: "Rock salt", IsPublic: true, PlannedDeadline: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)},
			8: {ID: 8, Title: "Draft paving", IsPublic: false, PlannedDeadline: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)},
		},
		attached: map[int][]int{},
		removed:  map[int][]int{},
	}
}

func (m *MockStorage) GetUser(ctx context.Context, id int) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return u, nil
}

func (m *MockStorage) ConductorsExcept(ctx context.Context, email string) ([]models.User, error) {
	if m.ConductorsExceptFunc != nil {
		return m.ConductorsExceptFunc(ctx, email)
	}
	return []models.User{{ID: 3, Email: "other@city.gov", FirstName: "Olive"}}, nil
}

func (m *MockStorage) InProgressContracts(ctx context.Context) ([]models.InProgressContract, error) {
	if m.InProgressContractsFunc != nil {
		return m.InProgressContractsFunc(ctx)
	}
	return []models.InProgressContract{{ID: 10, SpecNumber: "SPEC-10", Description: "Road salt", Companies: []string{"Acme"}}}, nil
}

func (m *MockStorage) AllContracts(ctx context.Context) ([]models.ContractSummary, error) {
	if m.AllContractsFunc != nil {
		return m.AllContractsFunc(ctx)
	}
	return []models.ContractSummary{{ID: 11, Description: "Uniforms", Companies: []string{}}}, nil
}

func (m *MockStorage) GetVendorByEmail(ctx context.Context, email string) (*models.Vendor, error) {
	for _, v := range m.vendors {
		if v.Email == email {
			return v, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *MockStorage) FindVendor(ctx context.Context, email, businessName string) (*models.Vendor, error) {
	for _, v := range m.vendors {
		if v.Email == email && v.BusinessName == businessName {
			return v, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *MockStorage) CreateVendor(ctx context.Context, v *models.Vendor, categoryIDs []int) error {
	if m.createErr != nil {
		return m.createErr
	}
	v.ID = len(m.vendors) + 100
	cp := *v
	m.vendors = append(m.vendors, &cp)
	return nil
}

func (m *MockStorage) UpdateVendor(ctx context.Context, v *models.Vendor, categoryIDs []int) error {
	m.updated = append(m.updated, *v)
	return nil
}

func (m *MockStorage) RemoveVendorSubscriptions(ctx context.Context, vendorID int, categoryIDs, opportunityIDs []int) error {
	m.removed[vendorID] = append(m.removed[vendorID], categoryIDs...)
	return nil
}

func (m *MockStorage) ListCategories(ctx context.Context) ([]models.Category, error) {
	return m.categories, nil
}

func (m *MockStorage) GetCategoriesByIDs(ctx context.Context, ids []int) ([]models.Category, error) {
	out := []models.Category{}
	for _, c := range m.categories {
		for _, id := range ids {
			if c.ID == id {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (m *MockStorage) VendorCategories(ctx context.Context, vendorID int) ([]models.Category, error) {
	return m.categories[:1], nil
}

func (m *MockStorage) GetOpportunity(ctx context.Context, id int) (*models.Opportunity, error) {
	o, ok := m.opps[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &o, nil
}

func (m *MockStorage) GetOpportunitiesByIDs(ctx context.Context, ids []int) ([]models.Opportunity, error) {
	out := []models.Opportunity{}
	for _, id := range ids {
		if o, ok := m.opps[id]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *MockStorage) ListOpportunitiesOpenSince(ctx context.Context, day time.Time) ([]models.Opportunity, error) {
	return []models.Opportunity{m.opps[7]}, nil
}

func (m *MockStorage) AttachOpportunities(ctx context.Context, vendorID int, ids []int) error {
	m.attached[vendorID] = append(m.attached[vendorID], ids...)
	return nil
}

func (m *MockStorage) VendorOpportunities(ctx context.Context, vendorID int) ([]models.Opportunity, error) {
	return []models.Opportunity{m.opps[7]}, nil
}

type testServer struct {
	handler http.Handler
	store   *MockStorage
	mgr     *session.Manager
}

func newTestServer(t *testing.T, store *MockStorage) *testServer {
	t.Helper()
	log := logger.Nop()
	svc := opportunities.NewService(store, notify.NewLogNotifier(log), log)
	h := handlers.NewHandler(store, svc, log)
	h.Now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	renderer, err := web.NewTemplateRenderer("")
	require.NoError(t, err)
	mgr := session.NewManager("test-secret", time.Hour, false)
	app := web.NewApp(mgr, store, renderer, log)

	return &testServer{handler: handlers.NewRouter(h, app, log), store: store, mgr: mgr}
}

func (s *testServer) do(t *testing.T, req *http.Request, sess *session.Session) (*http.Response, string) {
	t.Helper()
	if sess != nil {
		var err error
		req, err = testutils.WithSession(req, s.mgr, sess)
		require.NoError(t, err)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	res := w.Result()
	t.Cleanup(func() { res.Body.Close() })
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(body)
}

func TestPingHandler(t *testing.T) {
	handler := handlers.NewHandler(newMockStorage(), nil, logger.Nop())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	handler.PingHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", w.Body.String())
}

func TestConductorIndexGuard(t *testing.T) {
	srv := newTestServer(t, newMockStorage())

	res, _ := srv.do(t, httptest.NewRequest(http.MethodGet, "/conductor/", nil), nil)
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	require.Equal(t, "/", res.Header.Get("Location"))
	sess := testutils.SessionFrom(res, srv.mgr)
	require.Len(t, sess.Flashes, 1)
	require.Equal(t, "alert-warning", sess.Flashes[0].Class)

	res, _ = srv.do(t, httptest.NewRequest(http.MethodGet, "/conductor/?next=/opportunities", nil),
		&session.Session{UserID: 2, CSRF: "t"})
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	require.Equal(t, "/opportunities", res.Header.Get("Location"))
	sess = testutils.SessionFrom(res, srv.mgr)
	require.Len(t, sess.Flashes, 1)
	require.Equal(t, "alert-danger", sess.Flashes[0].Class)
}

func TestConductorIndex(t *testing.T) {
	store := newMockStorage()
	var excluded string
	store.ConductorsExceptFunc = func(ctx context.Context, email string) ([]models.User, error) {
		excluded = email
		return []models.User{{ID: 3, Email: "other@city.gov", FirstName: "Olive"}}, nil
	}
	srv := newTestServer(t, store)

	res, body := srv.do(t, httptest.NewRequest(http.MethodGet, "/conductor/", nil), &session.Session{UserID: 1, CSRF: "t"})

	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "cy@city.gov", excluded)
	require.Contains(t, body, "SPEC-10")
	require.Contains(t, body, "Uniforms")
	require.Contains(t, body, `name="q"`)
	require.Less(t, strings.Index(body, ">Cy<"), strings.Index(body, ">Olive<"))
}

func TestConductorIndexStoreError(t *testing.T) {
	store := newMockStorage()
	store.AllContractsFunc = func(ctx context.Context) ([]models.ContractSummary, error) {
		return nil, errors.New("connection reset")
	}
	srv := newTestServer(t, store)

	res, _ := srv.do(t, httptest.NewRequest(http.MethodGet, "/conductor/", nil), &session.Session{UserID: 1, CSRF: "t"})
	require.Equal(t, http.StatusInternalServerError, res.StatusCode)
}

func TestSignupCreatesVendor(t *testing.T) {
	srv := newTestServer(t, newMockStorage())

	req := testutils.PostForm("/opportunities/signup", url.Values{
		"csrf_token":      {"tok"},
		"email":           {"a@x.com"},
		"business_name":   {"Acme"},
		"subcategories-1": {"on"},
	})
	res, _ := srv.do(t, req, &session.Session{CSRF: "tok"})

	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	require.Equal(t, "/", res.Header.Get("Location"))
	require.Len(t, srv.store.vendors, 1)

	sess := testutils.SessionFrom(res, srv.mgr)
	require.Equal(t, "a@x.com", sess.Email)
	require.Equal(t, "Acme", sess.BusinessName)
	require.Len(t, sess.Flashes, 1)
	require.Equal(t, handlers.MsgSignupCreated, sess.Flashes[0].Message)
}

func TestSignupUpdatesExistingVendor(t *testing.T) {
	store := newMockStorage()
	store.vendors = []*models.Vendor{{ID: 5, Email: "a@x.com", BusinessName: "Acme"}}
	srv := newTestServer(t, store)

	req := testutils.PostForm("/opportunities/signup", url.Values{
		"csrf_token":      {"tok"},
		"email":           {"a@x.com"},
		"business_name":   {"Acme2"},
		"subcategories-2": {"on"},
	})
	res, _ := srv.do(t, req, &session.Session{CSRF: "tok"})

	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	require.Len(t, store.updated, 1)
	require.Equal(t, 5, store.updated[0].ID)
	require.Equal(t, "Acme2", store.updated[0].BusinessName)
	sess := testutils.SessionFrom(res, srv.mgr)
	require.Equal(t, handlers.MsgSignupUpdated, sess.Flashes[0].Message)
	require.Equal(t, "alert-info", sess.Flashes[0].Class)
}

func TestSignupRerendersOnInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		values url.Values
		want   string
	}{
		{
			name:   "bad csrf",
			values: url.Values{"csrf_token": {"forged"}, "email": {"a@x.com"}, "business_name": {"Acme"}},
			want:   "CSRF token",
		},
		{
			name:   "unknown subcategory",
			values: url.Values{"csrf_token": {"tok"}, "email": {"a@x.com"}, "business_name": {"Acme"}, "subcategories-99": {"on"}},
			want:   "not a valid choice",
		},
		{
			name:   "missing email",
			values: url.Values{"csrf_token": {"tok"}, "business_name": {"Acme"}},
			want:   "This field is required.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, newMockStorage())
			res, body := srv.do(t, testutils.PostForm("/opportunities/signup", tt.values), &session.Session{CSRF: "tok"})

			require.Equal(t, http.StatusOK, res.StatusCode)
			require.Contains(t, body, tt.want)
			require.Empty(t, srv.store.vendors)
		})
	}
}

func TestSignupRerenderKeepsCheckedSubcategories(t *testing.T) {
	srv := newTestServer(t, newMockStorage())

	res, body := srv.do(t, testutils.PostForm("/opportunities/signup", url.Values{
		"csrf_token":      {"tok"},
		"business_name":   {"Acme"},
		"woman_owned":     {"true"},
		"subcategories-1": {"on"},
	}), &session.Session{CSRF: "tok"})

	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, `name="subcategories-1" checked`)
	require.NotContains(t, body, `name="subcategories-2" checked`)
	require.Contains(t, body, `name="woman_owned" value="true" checked`)
}

func TestCSRFErrorShownOnSubscribeForms(t *testing.T) {
	store := newMockStorage()
	store.vendors = []*models.Vendor{{ID: 5, Email: "a@x.com", BusinessName: "Acme"}}
	srv := newTestServer(t, store)

	for _, target := range []string{"/opportunities", "/opportunities/manage", "/opportunities/7"} {
		res, body := srv.do(t, testutils.PostForm(target, url.Values{
			"csrf_token":    {"forged"},
			"email":         {"a@x.com"},
			"business_name": {"Acme"},
			"opportunity":   {"7"},
			"button":        {"Unsubscribe from checked"},
		}), &session.Session{CSRF: "tok"})

		require.Equal(t, http.StatusOK, res.StatusCode, target)
		require.Contains(t, body, forms.MsgInvalidCSRF, target)
	}
	require.Empty(t, store.attached)
	require.Empty(t, store.removed)
}

func TestSignupPage(t *testing.T) {
	srv := newTestServer(t, newMockStorage())

	res, body := srv.do(t, httptest.NewRequest(http.MethodGet, "/opportunities/signup", nil),
		&session.Session{CSRF: "tok", Email: "hint@x.com", BusinessName: "Hint Co"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, `value="hint@x.com"`)
	require.Contains(t, body, `name="subcategories-1"`)
	require.Contains(t, body, "Select All")

	res, _ = srv.do(t, httptest.NewRequest(http.MethodGet, "/opportunities/signup?email=new@x.com", nil), nil)
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	require.Equal(t, "new@x.com", testutils.SessionFrom(res, srv.mgr).Email)
}

func TestBrowseMultiSubscribe(t *testing.T) {
	srv := newTestServer(t, newMockStorage())

	req := testutils.PostForm("/opportunities", url.Values{
		"csrf_token":    {"tok"},
		"email":         {"a@x.com"},
		"business_name": {"Acme"},
		"opportunity":   {"7", "8"},
	})
	res, _ := srv.do(t, req, &session.Session{CSRF: "tok"})
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	require.Equal(t, "/opportunities", res.Header.Get("Location"))
	require.Equal(t, handlers.MsgCannotSubscribe, testutils.SessionFrom(res, srv.mgr).Flashes[0].Message)
	for _, ids := range srv.store.attached {
		require.Empty(t, ids)
	}

	req = testutils.PostForm("/opportunities", url.Values{
		"csrf_token":    {"tok"},
		"email":         {"a@x.com"},
		"business_name": {"Acme"},
		"opportunity":   {"7"},
	})
	res, _ = srv.do(t, req, &session.Session{CSRF: "tok"})
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	require.Equal(t, handlers.MsgSubscribed, testutils.SessionFrom(res, srv.mgr).Flashes[0].Message)
	require.Len(t, srv.store.vendors, 1)
	require.Equal(t, []int{7}, srv.store.attached[srv.store.vendors[0].ID])
}

func TestBrowsePage(t *testing.T) {
	srv := newTestServer(t, newMockStorage())

	res, body := srv.do(t, httptest.NewRequest(http.MethodGet, "/opportunities", nil), nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, "Rock salt")
}

func TestDetail(t *testing.T) {
	srv := newTestServer(t, newMockStorage())

	res, body := srv.do(t, httptest.NewRequest(http.MethodGet, "/opportunities/7", nil), nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, "Rock salt")

	for _, target := range []string{"/opportunities/8", "/opportunities/404", "/opportunities/abc"} {
		res, _ = srv.do(t, httptest.NewRequest(http.MethodGet, target, nil), nil)
		require.Equal(t, http.StatusNotFound, res.StatusCode, target)
	}

	req := testutils.PostForm("/opportunities/7", url.Values{
		"csrf_token":    {"tok"},
		"email":         {"b@x.com"},
		"business_name": {"Beta"},
	})
	res, _ = srv.do(t, req, &session.Session{CSRF: "tok"})
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	require.Equal(t, "/opportunities/7", res.Header.Get("Location"))
	require.Len(t, srv.store.vendors, 1)
	require.Equal(t, []int{7}, srv.store.attached[srv.store.vendors[0].ID])
}

func TestDetailHandler(t *testing.T) {
	store := newMockStorage()
	log := logger.Nop()
	h := handlers.NewHandler(store, opportunities.NewService(store, notify.NewLogNotifier(log), log), log)

	tests := []struct {
		id   string
		want web.Kind
	}{
		{"abc", web.KindNotFound},
		{"", web.KindNotFound},
		{"8", web.KindNotFound},
		{"404", web.KindNotFound},
		{"7", web.KindContext},
	}
	for _, tt := range tests {
		req := testutils.WithChiURLParams(httptest.NewRequest(http.MethodGet, "/opportunities/x", nil), map[string]string{"id": tt.id})

		res, err := h.Detail(&web.Request{Request: req, Endpoint: "opportunities.detail", Session: session.New()})
		require.NoError(t, err, tt.id)
		require.Equal(t, tt.want, res.Kind, tt.id)
	}

	req := testutils.WithChiURLParams(httptest.NewRequest(http.MethodGet, "/opportunities/7", nil), map[string]string{"id": "7"})
	res, err := h.Detail(&web.Request{Request: req, Session: session.New()})
	require.NoError(t, err)
	require.Equal(t, "opportunities/detail.html", res.Template)
	require.Equal(t, "Rock salt", res.Context["opportunity"].(*models.Opportunity).Title)
}

func TestManage(t *testing.T) {
	store := newMockStorage()
	store.vendors = []*models.Vendor{{ID: 5, Email: "a@x.com", BusinessName: "Acme"}}
	srv := newTestServer(t, store)

	res, body := srv.do(t, testutils.PostForm("/opportunities/manage", url.Values{
		"csrf_token": {"tok"},
		"email":      {"a@x.com"},
		"categories": {"1"},
		"button":     {"Unsubscribe from checked"},
	}), &session.Session{CSRF: "tok"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, []int{1}, store.removed[5])
	require.Contains(t, body, handlers.MsgPreferences)
	require.Contains(t, body, "Paving")

	res, body = srv.do(t, testutils.PostForm("/opportunities/manage", url.Values{
		"csrf_token": {"tok"},
		"email":      {"ghost@x.com"},
	}), &session.Session{CSRF: "tok"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, "We could not find the email ghost@x.com")
}

func TestLanding(t *testing.T) {
	srv := newTestServer(t, newMockStorage())

	res, body := srv.do(t, httptest.NewRequest(http.MethodGet, "/", nil), &session.Session{
		CSRF:    "tok",
		Flashes: []session.Flash{{Message: "Welcome back", Class: "alert-info"}},
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, "Welcome back")
	require.Empty(t, testutils.SessionFrom(res, srv.mgr).Flashes)
}
