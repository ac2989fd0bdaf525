package handlers_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"complyform/internal/assessment"
	"complyform/internal/compliance"
	"complyform/internal/handlers"
	"complyform/internal/handlers/testutils"
	"complyform/internal/sentinel"
	"complyform/models"
)

// MockStorage реализует StorageInterface
type MockStorage struct {
	pingErr error

	bid          *models.Bid
	sub          *models.Subcontractor
	directory    *models.DirectoryRecord
	jurisdiction *models.Jurisdiction
	rule         *models.ComplianceRule

	updatedBid      *models.Bid
	addedItem       *models.LineItem
	linked          [2]int
	createdEntry    *models.DirectoryRecord
	createdRule     *models.ComplianceRule
	createdOpp      *models.Opportunity
	matchFilter     models.MatchFilter
	opportunityArgs []any

	CreateBidFunc      func(ctx context.Context, b *models.Bid) error
	UpdateBidFunc      func(ctx context.Context, b *models.Bid) error
	DeleteLineItemFunc func(ctx context.Context, bidID, itemID int) error
}

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, sentinel.ErrNotFound)
}

func (m *MockStorage) Ping(ctx context.Context) error { return m.pingErr }

func (m *MockStorage) CreateOrganization(ctx context.Context, o *models.Organization) error {
	o.ID = 1
	return nil
}

func (m *MockStorage) CreateBid(ctx context.Context, b *models.Bid) error {
	if m.CreateBidFunc != nil {
		return m.CreateBidFunc(ctx, b)
	}
	b.ID = 10
	return nil
}

func (m *MockStorage) GetBid(ctx context.Context, id int) (*models.Bid, error) {
	if m.bid == nil {
		return nil, notFound("bid")
	}
	cp := *m.bid
	return &cp, nil
}

func (m *MockStorage) GetBidWithLineItems(ctx context.Context, id int) (*models.Bid, error) {
	return m.GetBid(ctx, id)
}

func (m *MockStorage) UpdateBid(ctx context.Context, b *models.Bid) error {
	if m.UpdateBidFunc != nil {
		return m.UpdateBidFunc(ctx, b)
	}
	m.updatedBid = b
	return nil
}

func (m *MockStorage) AddLineItem(ctx context.Context, item *models.LineItem) error {
	item.ID = 100
	m.addedItem = item
	return nil
}

func (m *MockStorage) DeleteLineItem(ctx context.Context, bidID, itemID int) error {
	if m.DeleteLineItemFunc != nil {
		return m.DeleteLineItemFunc(ctx, bidID, itemID)
	}
	return nil
}

func (m *MockStorage) CreateSubcontractor(ctx context.Context, sub *models.Subcontractor) error {
	sub.ID = 7
	return nil
}

func (m *MockStorage) GetSubcontractor(ctx context.Context, id int) (*models.Subcontractor, error) {
	if m.sub == nil {
		return nil, notFound("subcontractor")
	}
	cp := *m.sub
	return &cp, nil
}

func (m *MockStorage) LinkSubcontractorDirectory(ctx context.Context, subID, directoryID int) error {
	m.linked = [2]int{subID, directoryID}
	return nil
}

func (m *MockStorage) CreateDirectoryEntry(ctx context.Context, d *models.DirectoryRecord) error {
	d.ID = 50
	m.createdEntry = d
	return nil
}

func (m *MockStorage) UpdateDirectoryEntry(ctx context.Context, d *models.DirectoryRecord) error {
	return nil
}

func (m *MockStorage) GetDirectoryEntry(ctx context.Context, id int) (*models.DirectoryRecord, error) {
	if m.directory == nil || m.directory.ID != id {
		return nil, notFound("directory entry")
	}
	cp := *m.directory
	return &cp, nil
}

func (m *MockStorage) GetDirectoryEntryByName(ctx context.Context, legalName string) (*models.DirectoryRecord, error) {
	if m.directory == nil || m.directory.LegalName != legalName {
		return nil, notFound("directory entry")
	}
	cp := *m.directory
	return &cp, nil
}

func (m *MockStorage) FindMatchingDirectoryEntries(ctx context.Context, f models.MatchFilter) ([]models.DirectoryRecord, error) {
	m.matchFilter = f
	return nil, nil
}

func (m *MockStorage) CreateJurisdiction(ctx context.Context, j *models.Jurisdiction) error {
	j.ID = 3
	return nil
}

func (m *MockStorage) GetJurisdictionByCode(ctx context.Context, code string) (*models.Jurisdiction, error) {
	if m.jurisdiction == nil || m.jurisdiction.Code != code {
		return nil, notFound("jurisdiction")
	}
	return m.jurisdiction, nil
}

func (m *MockStorage) GetRulesByJurisdictionCode(ctx context.Context, code string) ([]models.ComplianceRule, error) {
	if m.rule == nil {
		return nil, nil
	}
	return []models.ComplianceRule{*m.rule}, nil
}

func (m *MockStorage) GetComplianceRule(ctx context.Context, id int) (*models.ComplianceRule, error) {
	if m.rule == nil {
		return nil, notFound("compliance rule")
	}
	cp := *m.rule
	return &cp, nil
}

func (m *MockStorage) CreateComplianceRule(ctx context.Context, r *models.ComplianceRule) error {
	r.ID = 9
	m.createdRule = r
	return nil
}

func (m *MockStorage) UpdateComplianceRule(ctx context.Context, r *models.ComplianceRule) error {
	return nil
}

func (m *MockStorage) DeleteComplianceRule(ctx context.Context, id int) error {
	if m.rule == nil {
		return notFound("compliance rule")
	}
	return nil
}

func (m *MockStorage) CreateOpportunity(ctx context.Context, o *models.Opportunity) error {
	o.ID = 11
	m.createdOpp = o
	return nil
}

func (m *MockStorage) GetOpportunity(ctx context.Context, id int) (*models.Opportunity, error) {
	return nil, notFound("opportunity")
}

func (m *MockStorage) GetOpportunities(ctx context.Context, jurisdictionCode string, limit, offset int) ([]models.Opportunity, error) {
	m.opportunityArgs = []any{jurisdictionCode, limit, offset}
	return []models.Opportunity{{ID: 1, Title: "Sample Opportunity"}}, nil
}

type fakeValidator struct {
	report *compliance.Report
	err    error
	calls  int
}

func (f *fakeValidator) Run(ctx context.Context, bidID int) (*compliance.Report, error) {
	f.calls++
	return f.report, f.err
}

func (f *fakeValidator) Results(ctx context.Context, bidID int) (*compliance.Report, error) {
	return f.report, f.err
}

type fakeAssessor struct {
	err error
}

func (f *fakeAssessor) Assess(ctx context.Context, req assessment.Request) (*models.Assessment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Assessment{ID: 1, OrganizationID: req.OrganizationID, OpportunityID: req.OpportunityID,
		Recommendation: models.RecommendationBid}, nil
}

func (f *fakeAssessor) List(ctx context.Context, orgID int) ([]models.Assessment, error) {
	return nil, f.err
}

func (f *fakeAssessor) Summary(ctx context.Context, orgID int) (*models.AssessmentSummary, error) {
	return &models.AssessmentSummary{OrganizationID: orgID, AverageRiskScore: decimal.Zero}, f.err
}

type fakeCache struct {
	invalidated []*models.DirectoryRecord
}

func (f *fakeCache) Invalidate(ctx context.Context, recs ...*models.DirectoryRecord) error {
	f.invalidated = append(f.invalidated, recs...)
	return nil
}

func newHandler(store *MockStorage) *handlers.Handler {
	return handlers.NewHandler(store, &fakeValidator{}, &fakeAssessor{}, zerolog.Nop())
}

func serve(fn http.HandlerFunc, req *http.Request) (int, string) {
	w := httptest.NewRecorder()
	fn(w, req)
	res := w.Result()
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	return res.StatusCode, string(body)
}

func TestPingHandler(t *testing.T) {
	handler := newHandler(&MockStorage{})
	status, body := serve(handler.PingHandler, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "ok", body)
}

func TestHealthHandler_DatabaseDown(t *testing.T) {
	handler := newHandler(&MockStorage{pingErr: errors.New("connection refused")})
	status, _ := serve(handler.HealthHandler, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, status)
}

func TestCreateBidHandler(t *testing.T) {
	handler := newHandler(&MockStorage{})

	req := testutils.JSONRequest(http.MethodPost, "/api/bids",
		`{"organizationId": 1, "solicitationNumber": "MDOT-1", "totalAmount": 1000000, "mbeGoal": 25}`, nil)
	status, body := serve(handler.CreateBidHandler, req)
	require.Equal(t, http.StatusCreated, status)
	require.Contains(t, body, `"solicitationNumber":"MDOT-1"`)
	require.Contains(t, body, `"lineItems":[]`)
}

func TestCreateBidHandler_InvalidInput(t *testing.T) {
	cases := map[string]string{
		"negative total": `{"organizationId": 1, "totalAmount": -1, "mbeGoal": 10}`,
		"goal over 100":  `{"organizationId": 1, "totalAmount": 10, "mbeGoal": 101}`,
		"no org":         `{"totalAmount": 10, "mbeGoal": 10}`,
		"bad json":       `{"organizationId": `,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			handler := newHandler(&MockStorage{})
			status, _ := serve(handler.CreateBidHandler, testutils.JSONRequest(http.MethodPost, "/api/bids", payload, nil))
			require.Equal(t, http.StatusBadRequest, status)
		})
	}
}

func TestCreateBidHandler_UnknownOrganization(t *testing.T) {
	store := &MockStorage{CreateBidFunc: func(ctx context.Context, b *models.Bid) error {
		return notFound("organization")
	}}
	handler := newHandler(store)
	req := testutils.JSONRequest(http.MethodPost, "/api/bids", `{"organizationId": 99, "totalAmount": 1, "mbeGoal": 1}`, nil)
	status, _ := serve(handler.CreateBidHandler, req)
	require.Equal(t, http.StatusNotFound, status)
}

func TestEditBidHandler_ValidatedBidIsFrozen(t *testing.T) {
	validatedAt := time.Now()
	store := &MockStorage{bid: &models.Bid{
		ID: 1, OrganizationID: 1, SolicitationNumber: "OLD",
		TotalAmount: decimal.NewFromInt(1000), MBEGoal: decimal.NewFromInt(20),
		ValidatedAt: &validatedAt,
	}}
	handler := newHandler(store)
	params := map[string]string{"bidId": "1"}

	status, _ := serve(handler.EditBidHandler,
		testutils.JSONRequest(http.MethodPatch, "/api/bids/1", `{"totalAmount": 2000}`, params))
	require.Equal(t, http.StatusConflict, status)
	require.Nil(t, store.updatedBid)

	status, body := serve(handler.EditBidHandler,
		testutils.JSONRequest(http.MethodPatch, "/api/bids/1", `{"solicitationNumber": "NEW", "mbeGoal": 20}`, params))
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "NEW")
	require.NotNil(t, store.updatedBid)
}

func TestEditBidHandler_ValidatedConcurrently(t *testing.T) {
	store := &MockStorage{bid: &models.Bid{ID: 1, OrganizationID: 1, TotalAmount: decimal.NewFromInt(1000)}}
	store.UpdateBidFunc = func(ctx context.Context, b *models.Bid) error {
		return fmt.Errorf("bid %d already validated: %w", b.ID, sentinel.ErrInvalidState)
	}
	handler := newHandler(store)

	req := testutils.JSONRequest(http.MethodPatch, "/api/bids/1", `{"totalAmount": 2000}`, map[string]string{"bidId": "1"})
	status, body := serve(handler.EditBidHandler, req)
	require.Equal(t, http.StatusConflict, status)
	require.Contains(t, body, "already validated")
}

func TestEditBidHandler_NotFound(t *testing.T) {
	handler := newHandler(&MockStorage{})
	req := testutils.JSONRequest(http.MethodPatch, "/api/bids/5", `{"mbeGoal": 10}`, map[string]string{"bidId": "5"})
	status, _ := serve(handler.EditBidHandler, req)
	require.Equal(t, http.StatusNotFound, status)
}

func lineItemStore() *MockStorage {
	return &MockStorage{
		bid:       &models.Bid{ID: 1, OrganizationID: 1},
		sub:       &models.Subcontractor{ID: 4, OrganizationID: 1, LegalName: "Harbor Electric Inc"},
		directory: &models.DirectoryRecord{ID: 21, LegalName: "Harbor Electric Inc"},
	}
}

func TestAddLineItemHandler_NormalizesBreakdownAndLinksDirectory(t *testing.T) {
	store := lineItemStore()
	handler := newHandler(store)

	payload := `{"subcontractorId": 4, "value": 250000, "naicsCode": "238210",
        "categoryBreakdown": [{"category": "mbe", "percentage": 33.33}, {"category": "wbe", "percentage": 33.33},
                              {"category": "non-mbe", "percentage": 33.32}]}`
	req := testutils.JSONRequest(http.MethodPost, "/api/bids/1/subcontractors", payload, map[string]string{"bidId": "1"})
	status, body := serve(handler.AddLineItemHandler, req)

	require.Equal(t, http.StatusCreated, status, body)
	require.NotNil(t, store.addedItem)
	require.Equal(t, 1, store.addedItem.BidID)
	require.Equal(t, "MBE", store.addedItem.Breakdown[0].Category)
	require.Equal(t, "NON-MBE", store.addedItem.Breakdown[2].Category)
	require.Equal(t, [2]int{4, 21}, store.linked)
}

func TestAddLineItemHandler_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		store  *MockStorage
		body   string
		status int
	}{
		{"sum below tolerance", lineItemStore(),
			`{"subcontractorId": 4, "value": 1, "categoryBreakdown": [{"category": "MBE", "percentage": 99.97}]}`,
			http.StatusBadRequest},
		{"unknown category", lineItemStore(),
			`{"subcontractorId": 4, "value": 1, "categoryBreakdown": [{"category": "XYZ", "percentage": 100}]}`,
			http.StatusBadRequest},
		{"negative value", lineItemStore(), `{"subcontractorId": 4, "value": -5}`, http.StatusBadRequest},
		{"unknown bid", &MockStorage{sub: &models.Subcontractor{ID: 4}}, `{"subcontractorId": 4, "value": 1}`,
			http.StatusNotFound},
		{"unknown subcontractor", &MockStorage{bid: &models.Bid{ID: 1}}, `{"subcontractorId": 4, "value": 1}`,
			http.StatusNotFound},
		{"foreign subcontractor", &MockStorage{
			bid: &models.Bid{ID: 1, OrganizationID: 1},
			sub: &models.Subcontractor{ID: 4, OrganizationID: 2},
		}, `{"subcontractorId": 4, "value": 1}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := newHandler(tc.store)
			req := testutils.JSONRequest(http.MethodPost, "/api/bids/1/subcontractors", tc.body, map[string]string{"bidId": "1"})
			status, _ := serve(handler.AddLineItemHandler, req)
			require.Equal(t, tc.status, status)
			require.Nil(t, tc.store.addedItem)
		})
	}
}

func TestDeleteLineItemHandler(t *testing.T) {
	store := &MockStorage{DeleteLineItemFunc: func(ctx context.Context, bidID, itemID int) error {
		if bidID == 1 && itemID == 2 {
			return nil
		}
		return notFound("line item")
	}}
	handler := newHandler(store)

	req := httptest.NewRequest(http.MethodDelete, "/api/bids/1/subcontractors/2", nil)
	status, _ := serve(handler.DeleteLineItemHandler, testutils.WithChiURLParams(req, map[string]string{"bidId": "1", "lineItemId": "2"}))
	require.Equal(t, http.StatusNoContent, status)

	req = httptest.NewRequest(http.MethodDelete, "/api/bids/1/subcontractors/3", nil)
	status, _ = serve(handler.DeleteLineItemHandler, testutils.WithChiURLParams(req, map[string]string{"bidId": "1", "lineItemId": "3"}))
	require.Equal(t, http.StatusNotFound, status)
}

func TestValidateBidHandler(t *testing.T) {
	validator := &fakeValidator{report: compliance.NewReport(1, []models.ValidationResult{
		{BidID: 1, Check: "mbe_percentage", Status: models.StatusFail, Message: "MBE percentage 15.00% is below goal of 25%"},
	})}
	handler := handlers.NewHandler(&MockStorage{}, validator, &fakeAssessor{}, zerolog.Nop())

	req := testutils.WithChiURLParams(httptest.NewRequest(http.MethodPost, "/api/bids/1/validate", nil), map[string]string{"bidId": "1"})
	status, body := serve(handler.ValidateBidHandler, req)
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, `"overallStatus":"FAIL"`)
	require.Contains(t, body, "below goal of 25%")
	require.Equal(t, 1, validator.calls)
}

func TestValidateBidHandler_BidNotFound(t *testing.T) {
	validator := &fakeValidator{err: fmt.Errorf("%w: %d", compliance.ErrBidNotFound, 9)}
	handler := handlers.NewHandler(&MockStorage{}, validator, &fakeAssessor{}, zerolog.Nop())

	req := testutils.WithChiURLParams(httptest.NewRequest(http.MethodGet, "/api/bids/9/validate", nil), map[string]string{"bidId": "9"})
	status, _ := serve(handler.ValidateBidHandler, req)
	require.Equal(t, http.StatusNotFound, status)

	req = testutils.WithChiURLParams(httptest.NewRequest(http.MethodGet, "/api/bids/abc/validate", nil), map[string]string{"bidId": "abc"})
	status, _ = serve(handler.ValidateBidHandler, req)
	require.Equal(t, http.StatusBadRequest, status)
}

func TestGetValidationsHandler_InternalError(t *testing.T) {
	validator := &fakeValidator{err: errors.New("db down")}
	handler := handlers.NewHandler(&MockStorage{}, validator, &fakeAssessor{}, zerolog.Nop())

	req := testutils.WithChiURLParams(httptest.NewRequest(http.MethodGet, "/api/bids/1/validations", nil), map[string]string{"bidId": "1"})
	status, body := serve(handler.GetValidationsHandler, req)
	require.Equal(t, http.StatusInternalServerError, status)
	require.NotContains(t, body, "db down")
}

func TestCreateSubcontractorHandler_LinksByName(t *testing.T) {
	store := &MockStorage{directory: &models.DirectoryRecord{ID: 21, LegalName: "Harbor Electric Inc"}}
	handler := newHandler(store)

	req := testutils.JSONRequest(http.MethodPost, "/api/subcontractors",
		`{"organizationId": 1, "legalName": " Harbor Electric Inc "}`, nil)
	status, body := serve(handler.CreateSubcontractorHandler, req)
	require.Equal(t, http.StatusCreated, status)
	require.Contains(t, body, `"directoryId":21`)
}

func TestCreateSubcontractorHandler_UnknownDirectoryID(t *testing.T) {
	handler := newHandler(&MockStorage{})
	req := testutils.JSONRequest(http.MethodPost, "/api/subcontractors",
		`{"organizationId": 1, "legalName": "Acme", "directoryId": 77}`, nil)
	status, _ := serve(handler.CreateSubcontractorHandler, req)
	require.Equal(t, http.StatusNotFound, status)
}

func TestCreateDirectoryEntryHandler(t *testing.T) {
	store := &MockStorage{}
	handler := newHandler(store)

	req := testutils.JSONRequest(http.MethodPost, "/api/directory",
		`{"legalName": "Patapsco Concrete", "certifications": {"MBE": true, "Vsbe": true},
          "jurisdictionCodes": ["md", " dc"], "naicsCodes": ["238110"], "rating": 4.5}`, nil)
	status, body := serve(handler.CreateDirectoryEntryHandler, req)
	require.Equal(t, http.StatusCreated, status, body)
	require.True(t, store.createdEntry.Certifications["mbe"])
	require.True(t, store.createdEntry.Certifications["vsbe"])
	require.Equal(t, []string{"MD", "DC"}, []string(store.createdEntry.JurisdictionCodes))

	req = testutils.JSONRequest(http.MethodPost, "/api/directory",
		`{"legalName": "Bad Cert", "certifications": {"XYZ": true}}`, nil)
	status, _ = serve(handler.CreateDirectoryEntryHandler, req)
	require.Equal(t, http.StatusBadRequest, status)
}

func TestUpdateDirectoryEntryHandler_InvalidatesCache(t *testing.T) {
	store := &MockStorage{directory: &models.DirectoryRecord{ID: 21, LegalName: "Old Name LLC"}}
	cache := &fakeCache{}
	handler := newHandler(store)
	handler.Cache = cache

	req := testutils.JSONRequest(http.MethodPut, "/api/directory/21",
		`{"legalName": "New Name LLC", "certifications": {"mbe": true}}`, map[string]string{"entryId": "21"})
	status, _ := serve(handler.UpdateDirectoryEntryHandler, req)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, cache.invalidated, 2)
	require.Equal(t, "Old Name LLC", cache.invalidated[0].LegalName)
	require.Equal(t, "New Name LLC", cache.invalidated[1].LegalName)
}

func TestMatchDirectoryHandler(t *testing.T) {
	store := &MockStorage{}
	handler := newHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/api/directory/match?naics=238210,541330&jurisdiction=md&category=MBE&min_rating=2.5", nil)
	status, body := serve(handler.MatchDirectoryHandler, req)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "[]\n", body)
	require.Equal(t, []string{"238210", "541330"}, store.matchFilter.NAICSCodes)
	require.Equal(t, "MD", store.matchFilter.JurisdictionCode)
	require.Equal(t, "mbe", store.matchFilter.Category)
	require.True(t, decimal.RequireFromString("2.5").Equal(store.matchFilter.MinRating))

	req = httptest.NewRequest(http.MethodGet, "/api/directory/match?min_rating=high", nil)
	status, _ = serve(handler.MatchDirectoryHandler, req)
	require.Equal(t, http.StatusBadRequest, status)
}

func TestCreateRuleHandler(t *testing.T) {
	store := &MockStorage{jurisdiction: &models.Jurisdiction{ID: 3, Code: "MD"}}
	handler := newHandler(store)
	params := map[string]string{"code": "md"}

	req := testutils.JSONRequest(http.MethodPost, "/api/jurisdictions/md/rules",
		`{"ruleName": "Maryland DBE", "ruleType": "dbe", "ruleDefinition": {"threshold": 12}}`, params)
	status, body := serve(handler.CreateRuleHandler, req)
	require.Equal(t, http.StatusCreated, status, body)
	require.Equal(t, "DBE", store.createdRule.Type)
	require.Equal(t, models.SeverityError, store.createdRule.Severity)
	require.Equal(t, 3, store.createdRule.JurisdictionID)

	req = testutils.JSONRequest(http.MethodPost, "/api/jurisdictions/md/rules",
		`{"ruleName": "Bonding", "ruleType": "BONDING", "ruleDefinition": {"threshold": 1}}`, params)
	status, _ = serve(handler.CreateRuleHandler, req)
	require.Equal(t, http.StatusBadRequest, status)

	req = testutils.JSONRequest(http.MethodPost, "/api/jurisdictions/tx/rules",
		`{"ruleName": "Texas MBE", "ruleType": "MBE", "ruleDefinition": {"threshold": 10}}`, map[string]string{"code": "tx"})
	status, _ = serve(handler.CreateRuleHandler, req)
	require.Equal(t, http.StatusNotFound, status)
}

func TestDeleteRuleHandler_NotFound(t *testing.T) {
	handler := newHandler(&MockStorage{})
	req := testutils.WithChiURLParams(httptest.NewRequest(http.MethodDelete, "/api/rules/4", nil), map[string]string{"ruleId": "4"})
	status, _ := serve(handler.DeleteRuleHandler, req)
	require.Equal(t, http.StatusNotFound, status)
}

func TestGetOpportunitiesHandler(t *testing.T) {
	store := &MockStorage{}
	handler := newHandler(store)

	status, body := serve(handler.GetOpportunitiesHandler, httptest.NewRequest(http.MethodGet, "/api/opportunities", nil))
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "Sample Opportunity")
	require.Equal(t, []any{"", 5, 0}, store.opportunityArgs)

	serve(handler.GetOpportunitiesHandler, httptest.NewRequest(http.MethodGet, "/api/opportunities?jurisdiction=md&limit=500&offset=10", nil))
	require.Equal(t, []any{"MD", 5, 10}, store.opportunityArgs)
}

func TestCreateOpportunityHandler_UnknownJurisdiction(t *testing.T) {
	store := &MockStorage{}
	handler := newHandler(store)
	req := testutils.JSONRequest(http.MethodPost, "/api/opportunities",
		`{"title": "Bridge repair", "jurisdictionCode": "zz", "mbeGoal": 20}`, nil)
	status, _ := serve(handler.CreateOpportunityHandler, req)
	require.Equal(t, http.StatusBadRequest, status)
	require.Nil(t, store.createdOpp)
}

func TestCreateAssessmentHandler(t *testing.T) {
	handler := newHandler(&MockStorage{})
	req := testutils.JSONRequest(http.MethodPost, "/api/assessments", `{"organizationId": 1, "opportunityId": 2}`, nil)
	status, body := serve(handler.CreateAssessmentHandler, req)
	require.Equal(t, http.StatusCreated, status)
	require.Contains(t, body, `"recommendation":"BID"`)

	cases := map[error]int{
		fmt.Errorf("%w: 2", assessment.ErrOpportunityNotFound): http.StatusNotFound,
		fmt.Errorf("%w: bad ids", sentinel.ErrInvalidInput):    http.StatusBadRequest,
		errors.New("match query failed"):                       http.StatusInternalServerError,
	}
	for err, want := range cases {
		handler := handlers.NewHandler(&MockStorage{}, &fakeValidator{}, &fakeAssessor{err: err}, zerolog.Nop())
		req := testutils.JSONRequest(http.MethodPost, "/api/assessments", `{"organizationId": 1, "opportunityId": 2}`, nil)
		status, _ := serve(handler.CreateAssessmentHandler, req)
		require.Equal(t, want, status, err.Error())
	}
}

func TestRouter(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "complyform_test_total", Help: "test"}))
	router := handlers.NewRouter(newHandler(&MockStorage{}), handlers.RouterConfig{Gatherer: reg})

	srv := httptest.NewServer(router)
	defer srv.Close()

	res, err := http.Get(srv.URL + "/api/ping")
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	require.Contains(t, string(body), "complyform_test_total")

	res, err = http.Get(srv.URL + "/api/organizations/1/assessments/summary")
	require.NoError(t, err)
	body, _ = io.ReadAll(res.Body)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, string(body), `"organizationId":1`)
}
