package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	adjustmentdomain "github.com/summitgrid/corebank/internal/adjustment/domain"
	alertdomain "github.com/summitgrid/corebank/internal/alert/domain"
	allocationdomain "github.com/summitgrid/corebank/internal/allocation/domain"
	balancedomain "github.com/summitgrid/corebank/internal/balance/domain"
	ledgerdomain "github.com/summitgrid/corebank/internal/ledger/domain"
	registrydomain "github.com/summitgrid/corebank/internal/registry/domain"
	usagedomain "github.com/summitgrid/corebank/internal/usage/domain"
)

type fakeRegistryService struct {
	project    registrydomain.Project
	projectErr error
	account    registrydomain.Account
	accountErr error
	detail     registrydomain.AccountDetail
	detailErr  error

	lastCreateProject *registrydomain.CreateProjectRequest
	deactivated       []string
}

func (f *fakeRegistryService) CreateProject(ctx context.Context, req registrydomain.CreateProjectRequest) (registrydomain.Project, error) {
	f.lastCreateProject = &req
	_ = ctx
	return f.project, f.projectErr
}

func (f *fakeRegistryService) GetProject(ctx context.Context, req registrydomain.GetProjectRequest) (registrydomain.Project, error) {
	_ = ctx
	_ = req
	return f.project, f.projectErr
}

func (f *fakeRegistryService) ListProjects(ctx context.Context, req registrydomain.ListProjectsRequest) (registrydomain.ListProjectsResponse, error) {
	_ = ctx
	_ = req
	return registrydomain.ListProjectsResponse{Projects: []registrydomain.Project{f.project}}, nil
}

func (f *fakeRegistryService) CreateResource(ctx context.Context, req registrydomain.CreateResourceRequest) (registrydomain.Resource, error) {
	_ = ctx
	_ = req
	return registrydomain.Resource{}, nil
}

func (f *fakeRegistryService) ListResources(ctx context.Context, req registrydomain.ListResourcesRequest) ([]registrydomain.Resource, error) {
	_ = ctx
	_ = req
	return nil, nil
}

func (f *fakeRegistryService) CreateAccount(ctx context.Context, req registrydomain.CreateAccountRequest) (registrydomain.Account, error) {
	_ = ctx
	_ = req
	return f.account, f.accountErr
}

func (f *fakeRegistryService) GetAccount(ctx context.Context, req registrydomain.GetAccountRequest) (registrydomain.AccountDetail, error) {
	_ = ctx
	_ = req
	return f.detail, f.detailErr
}

func (f *fakeRegistryService) ListAccounts(ctx context.Context, req registrydomain.ListAccountsRequest) (registrydomain.ListAccountsResponse, error) {
	_ = ctx
	_ = req
	return registrydomain.ListAccountsResponse{}, nil
}

func (f *fakeRegistryService) DeactivateAccount(ctx context.Context, req registrydomain.DeactivateAccountRequest) (registrydomain.Account, error) {
	_ = ctx
	f.deactivated = append(f.deactivated, req.ID)
	return f.account, f.accountErr
}

type fakeAllocationService struct {
	allocation allocationdomain.Allocation
	err        error
	lastCreate *allocationdomain.CreateAllocationRequest
}

func (f *fakeAllocationService) Create(ctx context.Context, req allocationdomain.CreateAllocationRequest) (allocationdomain.Allocation, error) {
	f.lastCreate = &req
	_ = ctx
	return f.allocation, f.err
}

func (f *fakeAllocationService) GetByID(ctx context.Context, req allocationdomain.GetAllocationRequest) (allocationdomain.Allocation, error) {
	_ = ctx
	_ = req
	return f.allocation, f.err
}

func (f *fakeAllocationService) List(ctx context.Context, req allocationdomain.ListAllocationsRequest) (allocationdomain.ListAllocationsResponse, error) {
	_ = ctx
	_ = req
	return allocationdomain.ListAllocationsResponse{}, f.err
}

func (f *fakeAllocationService) ListActive(ctx context.Context, req allocationdomain.ListActiveRequest) ([]allocationdomain.Allocation, error) {
	_ = ctx
	_ = req
	return nil, f.err
}

type fakeAdjustmentService struct {
	adjustment adjustmentdomain.Adjustment
	err        error
	lastCreate *adjustmentdomain.CreateAdjustmentRequest
}

func (f *fakeAdjustmentService) Create(ctx context.Context, req adjustmentdomain.CreateAdjustmentRequest) (adjustmentdomain.Adjustment, error) {
	f.lastCreate = &req
	_ = ctx
	return f.adjustment, f.err
}

func (f *fakeAdjustmentService) List(ctx context.Context, req adjustmentdomain.ListAdjustmentsRequest) ([]adjustmentdomain.Adjustment, error) {
	_ = ctx
	_ = req
	return []adjustmentdomain.Adjustment{f.adjustment}, f.err
}

type fakeUsageService struct {
	breakdown usagedomain.Breakdown
	trend     []usagedomain.DailyUsage
	err       error

	lastUsage *usagedomain.UsageQuery
	lastTrend *usagedomain.TrendQuery
}

func (f *fakeUsageService) ComputeUsage(ctx context.Context, query usagedomain.UsageQuery) (usagedomain.Breakdown, error) {
	f.lastUsage = &query
	_ = ctx
	if f.err != nil {
		return usagedomain.Breakdown{}, f.err
	}
	return f.breakdown, nil
}

func (f *fakeUsageService) DailyTrend(ctx context.Context, query usagedomain.TrendQuery) ([]usagedomain.DailyUsage, error) {
	f.lastTrend = &query
	_ = ctx
	if f.err != nil {
		return nil, f.err
	}
	return f.trend, nil
}

type fakeBalanceService struct {
	balance balancedomain.AllocationBalance
	rollup  balancedomain.RollupBalance
	err     error

	lastBalance *balancedomain.BalanceQuery
	lastRollup  *balancedomain.RollupQuery
}

func (f *fakeBalanceService) ComputeBalance(ctx context.Context, query balancedomain.BalanceQuery) (balancedomain.AllocationBalance, error) {
	f.lastBalance = &query
	_ = ctx
	if f.err != nil {
		return balancedomain.AllocationBalance{}, f.err
	}
	return f.balance, nil
}

func (f *fakeBalanceService) ComputeRollup(ctx context.Context, query balancedomain.RollupQuery) (balancedomain.RollupBalance, error) {
	f.lastRollup = &query
	_ = ctx
	if f.err != nil {
		return balancedomain.RollupBalance{}, f.err
	}
	return f.rollup, nil
}

type fakeAlertService struct {
	alerts []alertdomain.AllocationAlert
	err    error
}

func (f *fakeAlertService) RecordCrossing(ctx context.Context, req alertdomain.RecordCrossingRequest) (bool, error) {
	_ = ctx
	_ = req
	return false, nil
}

func (f *fakeAlertService) List(ctx context.Context, req alertdomain.ListAlertsRequest) ([]alertdomain.AllocationAlert, error) {
	_ = ctx
	_ = req
	return f.alerts, f.err
}

type serverFakes struct {
	registry   *fakeRegistryService
	allocation *fakeAllocationService
	adjustment *fakeAdjustmentService
	usage      *fakeUsageService
	balance    *fakeBalanceService
	alerts     *fakeAlertService
}

func newTestServer(t *testing.T) (*serverFakes, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	fakes := &serverFakes{
		registry:   &fakeRegistryService{},
		allocation: &fakeAllocationService{},
		adjustment: &fakeAdjustmentService{},
		usage:      &fakeUsageService{},
		balance:    &fakeBalanceService{},
		alerts:     &fakeAlertService{},
	}

	srv := &Server{
		engine:        engine,
		registrySvc:   fakes.registry,
		allocationSvc: fakes.allocation,
		adjustmentSvc: fakes.adjustment,
		usageSvc:      fakes.usage,
		balanceSvc:    fakes.balance,
		alertSvc:      fakes.alerts,
	}
	srv.RegisterAPIRoutes()

	return fakes, engine
}

func doRequest(t *testing.T, engine *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	return resp
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var envelope errorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error payload: %v (body %s)", err, resp.Body.String())
	}
	return envelope.Error
}

func TestGetAccountUsageReturnsBreakdown(t *testing.T) {
	fakes, engine := newTestServer(t)
	fakes.usage.breakdown = usagedomain.Breakdown{
		AccountID: snowflake.ID(42),
		Category:  registrydomain.CategoryInteractive,
		ChargesByCategory: map[ledgerdomain.Source]float64{
			ledgerdomain.SourceCompute:     120,
			ledgerdomain.SourceInteractive: 30,
		},
		TotalCharges:        150,
		IncludesAdjustments: true,
	}

	resp := doRequest(t, engine, http.MethodGet,
		"/api/v1/accounts/42/usage?start_date=2024-06-01&end_date=2024-06-30", "")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	query := fakes.usage.lastUsage
	if query == nil {
		t.Fatal("expected usage service to be called")
	}
	if query.AccountID != "42" {
		t.Fatalf("expected account id 42, got %q", query.AccountID)
	}
	if !query.IncludeAdjustments {
		t.Fatal("expected include_adjustments to default to true")
	}
	if got := query.StartDate.Format("2006-01-02"); got != "2024-06-01" {
		t.Fatalf("expected start date 2024-06-01, got %s", got)
	}

	var envelope struct {
		Data usagedomain.Breakdown `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.TotalCharges != 150 {
		t.Fatalf("expected total 150, got %v", envelope.Data.TotalCharges)
	}
	if envelope.Data.ChargesByCategory[ledgerdomain.SourceInteractive] != 30 {
		t.Fatalf("expected interactive charges 30, got %v", envelope.Data.ChargesByCategory)
	}
}

func TestGetAccountUsageCanExcludeAdjustments(t *testing.T) {
	fakes, engine := newTestServer(t)

	resp := doRequest(t, engine, http.MethodGet,
		"/api/v1/accounts/42/usage?start_date=2024-06-01&end_date=2024-06-30&include_adjustments=false", "")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if fakes.usage.lastUsage.IncludeAdjustments {
		t.Fatal("expected include_adjustments=false to reach the service")
	}
}

func TestGetAccountUsageMissingDatesReturns400(t *testing.T) {
	fakes, engine := newTestServer(t)

	resp := doRequest(t, engine, http.MethodGet, "/api/v1/accounts/42/usage", "")

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if fakes.usage.lastUsage != nil {
		t.Fatal("expected usage service not to be called")
	}
	payload := decodeError(t, resp)
	if payload.Type != "validation_error" {
		t.Fatalf("expected validation_error, got %q", payload.Type)
	}
	if len(payload.Errors) == 0 || payload.Errors[0].Field != "start_date" {
		t.Fatalf("expected start_date error, got %+v", payload.Errors)
	}
}

func TestGetAccountUsageBackwardsRangeReturns400(t *testing.T) {
	fakes, engine := newTestServer(t)
	fakes.usage.err = usagedomain.ErrInvalidDateRange

	resp := doRequest(t, engine, http.MethodGet,
		"/api/v1/accounts/42/usage?start_date=2024-06-30&end_date=2024-06-01", "")

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	payload := decodeError(t, resp)
	if len(payload.Errors) == 0 || payload.Errors[0].Code != "invalid_date_range" {
		t.Fatalf("expected invalid_date_range code, got %+v", payload.Errors)
	}
}

func TestGetAccountUsageUnknownAccountReturns404(t *testing.T) {
	fakes, engine := newTestServer(t)
	fakes.usage.err = registrydomain.ErrAccountNotFound

	resp := doRequest(t, engine, http.MethodGet,
		"/api/v1/accounts/42/usage?start_date=2024-06-01&end_date=2024-06-30", "")

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
	if payload := decodeError(t, resp); payload.Type != "account_not_found" {
		t.Fatalf("expected account_not_found, got %q", payload.Type)
	}
}

func TestGetAccountUsageUnroutableCategoryReturns422(t *testing.T) {
	fakes, engine := newTestServer(t)
	fakes.usage.err = fmt.Errorf("resource %q: %w", "tape-archive", ledgerdomain.ErrUnsupportedResourceCategory)

	resp := doRequest(t, engine, http.MethodGet,
		"/api/v1/accounts/42/usage?category=gpu&start_date=2024-06-01&end_date=2024-06-30", "")

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", resp.Code)
	}
	if payload := decodeError(t, resp); payload.Type != "unsupported_resource_category" {
		t.Fatalf("expected unsupported_resource_category, got %q", payload.Type)
	}
}

func TestGetAccountUsageTrendReturnsSeries(t *testing.T) {
	fakes, engine := newTestServer(t)
	fakes.usage.trend = []usagedomain.DailyUsage{
		{Date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), TotalCharges: 10},
		{Date: time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), TotalCharges: 0},
	}

	resp := doRequest(t, engine, http.MethodGet,
		"/api/v1/accounts/42/trend?start_date=2024-06-01&end_date=2024-06-02", "")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var envelope struct {
		Data []usagedomain.DailyUsage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 2 {
		t.Fatalf("expected 2 days, got %d", len(envelope.Data))
	}
}

func TestGetAllocationBalancePassesAsOf(t *testing.T) {
	fakes, engine := newTestServer(t)

	resp := doRequest(t, engine, http.MethodGet,
		"/api/v1/allocations/7/balance?as_of=2024-06-10", "")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	query := fakes.balance.lastBalance
	if query == nil {
		t.Fatal("expected balance service to be called")
	}
	if query.AllocationID != "7" {
		t.Fatalf("expected allocation id 7, got %q", query.AllocationID)
	}
	want := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	if !query.AsOf.Equal(want) {
		t.Fatalf("expected as_of %v, got %v", want, query.AsOf)
	}
}

func TestGetAllocationBalanceDefaultsAsOfToZero(t *testing.T) {
	fakes, engine := newTestServer(t)

	resp := doRequest(t, engine, http.MethodGet, "/api/v1/allocations/7/balance", "")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if !fakes.balance.lastBalance.AsOf.IsZero() {
		t.Fatalf("expected zero as_of, got %v", fakes.balance.lastBalance.AsOf)
	}
}

func TestGetAllocationRollupUnknownAllocationReturns404(t *testing.T) {
	fakes, engine := newTestServer(t)
	fakes.balance.err = allocationdomain.ErrAllocationNotFound

	resp := doRequest(t, engine, http.MethodGet, "/api/v1/allocations/7/rollup", "")

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
	if payload := decodeError(t, resp); payload.Type != "allocation_not_found" {
		t.Fatalf("expected allocation_not_found, got %q", payload.Type)
	}
}

func TestCreateProjectDuplicateReturns409(t *testing.T) {
	fakes, engine := newTestServer(t)
	fakes.registry.projectErr = registrydomain.ErrDuplicateProject

	resp := doRequest(t, engine, http.MethodPost, "/api/v1/projects",
		`{"code":"astro","title":"Astride"}`)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
}

func TestCreateProjectTrimsFields(t *testing.T) {
	fakes, engine := newTestServer(t)

	resp := doRequest(t, engine, http.MethodPost, "/api/v1/projects",
		`{"code":"  astro  ","title":" Astro Survey ","principal_name":" E. Okafor "}`)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	req := fakes.registry.lastCreateProject
	if req == nil {
		t.Fatal("expected registry service to be called")
	}
	if req.Code != "astro" || req.Title != "Astro Survey" || req.PrincipalName != "E. Okafor" {
		t.Fatalf("expected trimmed fields, got %+v", req)
	}
}

func TestCreateAllocationParsesWindow(t *testing.T) {
	fakes, engine := newTestServer(t)

	resp := doRequest(t, engine, http.MethodPost, "/api/v1/allocations",
		`{"account_id":"42","amount":100000,"start_date":"2024-01-01","end_date":"2024-12-31","note":"quarterly grant"}`)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	req := fakes.allocation.lastCreate
	if req == nil {
		t.Fatal("expected allocation service to be called")
	}
	if req.EndDate == nil || req.EndDate.Format("2006-01-02") != "2024-12-31" {
		t.Fatalf("expected end date 2024-12-31, got %v", req.EndDate)
	}
	if req.ParentID != "" {
		t.Fatalf("expected empty parent id, got %q", req.ParentID)
	}
}

func TestCreateAllocationRejectsMalformedDate(t *testing.T) {
	fakes, engine := newTestServer(t)

	resp := doRequest(t, engine, http.MethodPost, "/api/v1/allocations",
		`{"account_id":"42","amount":100,"start_date":"June 1st"}`)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if fakes.allocation.lastCreate != nil {
		t.Fatal("expected allocation service not to be called")
	}
}

func TestCreateAdjustmentRequiresReasonFromService(t *testing.T) {
	fakes, engine := newTestServer(t)
	fakes.adjustment.err = adjustmentdomain.ErrEmptyReason

	resp := doRequest(t, engine, http.MethodPost, "/api/v1/adjustments",
		`{"account_id":"42","amount":-10,"adjustment_date":"2024-06-01","reason":""}`)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	payload := decodeError(t, resp)
	if len(payload.Errors) == 0 || payload.Errors[0].Code != "empty_reason" {
		t.Fatalf("expected empty_reason code, got %+v", payload.Errors)
	}
}

func TestDeactivateAccountPassesID(t *testing.T) {
	fakes, engine := newTestServer(t)

	resp := doRequest(t, engine, http.MethodPost, "/api/v1/accounts/42/deactivate", "")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if len(fakes.registry.deactivated) != 1 || fakes.registry.deactivated[0] != "42" {
		t.Fatalf("expected account 42 deactivated, got %v", fakes.registry.deactivated)
	}
}

func TestListAllocationAlertsReturnsRecords(t *testing.T) {
	fakes, engine := newTestServer(t)
	fakes.alerts.alerts = []alertdomain.AllocationAlert{
		{AllocationID: snowflake.ID(7), ThresholdPercent: 75, PercentUsed: 81, State: alertdomain.StateWarning},
	}

	resp := doRequest(t, engine, http.MethodGet, "/api/v1/alerts?allocation_id=7", "")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var envelope struct {
		Data []alertdomain.AllocationAlert `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].State != alertdomain.StateWarning {
		t.Fatalf("expected one warning alert, got %+v", envelope.Data)
	}
}

func TestQueryRateLimitDisabledPassesThrough(t *testing.T) {
	// newTestServer wires no limiter; the middleware must treat that as
	// "allow everything".
	_, engine := newTestServer(t)

	resp := doRequest(t, engine, http.MethodGet,
		"/api/v1/accounts/42/usage?start_date=2024-06-01&end_date=2024-06-02", "")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
}
