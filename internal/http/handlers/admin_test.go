package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeosbc/trade-dispatch-platform/internal/clients"
	"github.com/tradeosbc/trade-dispatch-platform/internal/industry"
	"github.com/tradeosbc/trade-dispatch-platform/internal/leads"
)

type fakeClientRepo struct {
	client   *clients.Client
	accepted map[string]time.Time
}

func (f *fakeClientRepo) GetByPhoneNumber(ctx context.Context, phoneNumber string) (*clients.Client, error) {
	if f.client == nil || f.client.PhoneNumber != phoneNumber {
		return nil, clients.ErrClientNotFound
	}
	return f.client, nil
}

func (f *fakeClientRepo) GetByID(ctx context.Context, id string) (*clients.Client, error) {
	if f.client == nil || f.client.ID != id {
		return nil, clients.ErrClientNotFound
	}
	return f.client, nil
}

func (f *fakeClientRepo) List(ctx context.Context) ([]*clients.Client, error) {
	if f.client == nil {
		return nil, nil
	}
	return []*clients.Client{f.client}, nil
}

func (f *fakeClientRepo) AcceptTerms(ctx context.Context, id string, at time.Time) error {
	if f.client == nil || f.client.ID != id {
		return clients.ErrClientNotFound
	}
	if f.accepted == nil {
		f.accepted = map[string]time.Time{}
	}
	f.accepted[id] = at
	return nil
}

type fakeIndustryRepo struct {
	prompts map[string]string
}

func (f *fakeIndustryRepo) GetByType(ctx context.Context, industryType string) (*industry.Config, error) {
	tmpl, ok := f.prompts[industryType]
	if !ok {
		return nil, industry.ErrConfigNotFound
	}
	return &industry.Config{IndustryType: industryType, SystemPromptTemplate: tmpl}, nil
}

func (f *fakeIndustryRepo) UpdatePrompt(ctx context.Context, industryType, promptTemplate string) error {
	if _, ok := f.prompts[industryType]; !ok {
		return industry.ErrConfigNotFound
	}
	f.prompts[industryType] = promptTemplate
	return nil
}

type adminFixture struct {
	handler  *AdminHandler
	router   chi.Router
	clients  *fakeClientRepo
	leadRepo *leads.InMemoryRepository
	inds     *fakeIndustryRepo
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()
	f := &adminFixture{
		clients: &fakeClientRepo{client: &clients.Client{
			ID:           "client-1",
			BusinessName: "Fraser Valley Plumbing",
			PhoneNumber:  "+16045550100",
			IndustryType: "plumbing",
		}},
		leadRepo: leads.NewInMemoryRepository(),
		inds:     &fakeIndustryRepo{prompts: map[string]string{"plumbing": "old prompt"}},
	}
	f.handler = NewAdminHandler(f.clients, f.leadRepo, f.inds, nil)

	r := chi.NewRouter()
	r.Post("/admin/clients/{clientID}/accept-terms", f.handler.AcceptTerms)
	r.Post("/admin/leads/{leadID}/pause", f.handler.PauseLead)
	r.Get("/admin/clients/{clientID}/leads", f.handler.ListLeads)
	r.Put("/admin/industries/{industryType}/prompt", f.handler.UpdateIndustryPrompt)
	f.router = r
	return f
}

func (f *adminFixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestAcceptTerms(t *testing.T) {
	f := newAdminFixture(t)

	rec := f.do(http.MethodPost, "/admin/clients/client-1/accept-terms", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotZero(t, f.clients.accepted["client-1"])

	rec = f.do(http.MethodPost, "/admin/clients/nope/accept-terms", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPauseLeadDefaultsToOneHour(t *testing.T) {
	f := newAdminFixture(t)
	lead, err := f.leadRepo.GetOrCreateByPhone(context.Background(), "client-1", "+16045551234")
	require.NoError(t, err)

	rec := f.do(http.MethodPost, "/admin/leads/"+lead.ID+"/pause", "")
	require.Equal(t, http.StatusOK, rec.Code)

	after, err := f.leadRepo.GetByCustomerPhone(context.Background(), "client-1", "+16045551234")
	require.NoError(t, err)
	require.NotNil(t, after.AIPausedUntil)
	assert.WithinDuration(t, time.Now().UTC().Add(time.Hour), *after.AIPausedUntil, time.Minute)
}

func TestPauseLeadCustomDuration(t *testing.T) {
	f := newAdminFixture(t)
	lead, err := f.leadRepo.GetOrCreateByPhone(context.Background(), "client-1", "+16045551234")
	require.NoError(t, err)

	rec := f.do(http.MethodPost, "/admin/leads/"+lead.ID+"/pause", `{"minutes": 30}`)
	require.Equal(t, http.StatusOK, rec.Code)

	after, err := f.leadRepo.GetByCustomerPhone(context.Background(), "client-1", "+16045551234")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(30*time.Minute), *after.AIPausedUntil, time.Minute)
}

func TestPauseLeadNotFound(t *testing.T) {
	f := newAdminFixture(t)
	rec := f.do(http.MethodPost, "/admin/leads/nope/pause", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListLeads(t *testing.T) {
	f := newAdminFixture(t)
	_, err := f.leadRepo.GetOrCreateByPhone(context.Background(), "client-1", "+16045551234")
	require.NoError(t, err)

	rec := f.do(http.MethodGet, "/admin/clients/client-1/leads", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Leads []struct {
			CustomerPhone string `json:"customer_phone"`
		} `json:"leads"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Leads, 1)
	assert.Equal(t, "+16045551234", body.Leads[0].CustomerPhone)
}

func TestUpdateIndustryPrompt(t *testing.T) {
	f := newAdminFixture(t)

	rec := f.do(http.MethodPut, "/admin/industries/plumbing/prompt", `{"system_prompt_template": "new prompt"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "new prompt", f.inds.prompts["plumbing"])

	rec = f.do(http.MethodPut, "/admin/industries/plumbing/prompt", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPut, "/admin/industries/beekeeping/prompt", `{"system_prompt_template": "x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
