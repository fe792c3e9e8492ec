package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	app "github.com/reimburse/backend/internal/application/reimbursement"
	"github.com/reimburse/backend/internal/domain/reimbursement"
	"github.com/reimburse/backend/internal/infrastructure/auth"
	"github.com/reimburse/backend/internal/infrastructure/cache"
	"github.com/reimburse/backend/internal/infrastructure/config"
	"github.com/reimburse/backend/internal/infrastructure/event"
	"github.com/reimburse/backend/internal/infrastructure/persistence"
	"github.com/reimburse/backend/internal/infrastructure/printing"
	"github.com/reimburse/backend/internal/infrastructure/storage"
	"github.com/reimburse/backend/internal/interfaces/http/handler"
	"github.com/reimburse/backend/internal/interfaces/http/middleware"
	"github.com/reimburse/backend/tests/testutil"
)

const onePixelPNG = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNk+M9QDwADhgGAWjR9awAAAABJRU5ErkJggg=="

type stubPinger struct{ err error }

func (p stubPinger) Ping() error { return p.err }

type apiEnv struct {
	t        *testing.T
	engine   http.Handler
	jwt      *auth.JWTService
	users    *persistence.GormUserRepository
	fixtures *testutil.Fixtures
}

func newAPIEnv(t *testing.T, pinger handler.Pinger) *apiEnv {
	t.Helper()

	db := testutil.NewSQLiteDB(t)
	requestRepo := persistence.NewGormPaymentRequestRepository(db)
	settlementRepo := persistence.NewGormSettlementRepository(db)
	projectRepo := persistence.NewGormProjectRepository(db)
	userRepo := persistence.NewGormUserRepository(db)
	settingsRepo := persistence.NewGormSettingsRepository(db)
	bus := event.NewInMemoryEventBus(zap.NewNop())
	objects := storage.NewMemoryObjectStorage("receipts-test", "")

	tmpl, err := printing.NewSettlementTemplate()
	require.NoError(t, err)

	users := app.NewUserService(userRepo, nil)
	files := app.NewFileService(objects, userRepo, requestRepo, nil)
	jwtService := auth.NewJWTService(config.JWTConfig{Secret: "router-test-secret-router-test-secret"})

	cfg := &config.Config{
		App:       config.AppConfig{Name: "reimburse-backend", Env: "test"},
		HTTP:      config.HTTPConfig{MaxBodySize: 1 << 20, IdempotencyTTL: time.Hour},
		Telemetry: config.TelemetryConfig{ServiceName: "reimburse-backend"},
	}

	engine := New(Deps{
		Config:      cfg,
		Logger:      zap.NewNop(),
		Verifier:    jwtService,
		Profiles:    users,
		Idempotency: cache.NewInMemoryIdempotencyStore(),
		RateLimiter: middleware.NewRateLimiter(1000, time.Minute),
		Handlers: Handlers{
			Health:  handler.NewHealthHandler(pinger, "test"),
			User:    handler.NewUserHandler(users),
			File:    handler.NewFileHandler(files),
			Request: handler.NewRequestHandler(app.NewRequestService(requestRepo, userRepo, projectRepo, settingsRepo, bus, nil)),
			Settlement: handler.NewSettlementHandler(
				app.NewSettlementService(requestRepo, settlementRepo, bus, nil),
				// no browser: PDF export reports RENDER_UNAVAILABLE
				app.NewReportService(settlementRepo, projectRepo, files, tmpl, nil, nil, nil, nil),
			),
			Project:  handler.NewProjectHandler(app.NewProjectService(projectRepo, userRepo, nil), app.NewBudgetService(projectRepo, requestRepo)),
			Settings: handler.NewSettingsHandler(app.NewSettingsService(settingsRepo, projectRepo)),
		},
	})

	return &apiEnv{t: t, engine: engine, jwt: jwtService, users: userRepo, fixtures: testutil.NewFixtures(7)}
}

// login stores a profile with role and returns its bearer headers
func (e *apiEnv) login(role reimbursement.Role) (reimbursement.Actor, map[string]string) {
	e.t.Helper()

	actor := e.fixtures.Actor(role)
	require.NoError(e.t, e.users.Create(context.Background(), e.fixtures.User(actor)))
	token, _, err := e.jwt.GenerateToken(auth.Identity{UID: actor.UID, Email: actor.Email, Name: actor.Name})
	require.NoError(e.t, err)
	return actor, map[string]string{"Authorization": "Bearer " + token}
}

func (e *apiEnv) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	return e.doWith(method, path, body, headers, nil)
}

func (e *apiEnv) doWith(method, path string, body any, headers, extra map[string]string) *httptest.ResponseRecorder {
	merged := map[string]string{}
	for k, v := range headers {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return testutil.Perform(e.t, e.engine, method, path, body, merged)
}

func (e *apiEnv) uploadReceipt(headers map[string]string) app.ReceiptDTO {
	e.t.Helper()

	w := e.do(http.MethodPost, "/api/v1/files/receipts", map[string]any{
		"committee": "operations",
		"files":     []map[string]string{{"name": "taxi.png", "data": onePixelPNG}},
	}, headers)
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())
	results := testutil.DecodeData[[]app.UploadResult](e.t, w)
	require.Len(e.t, results, 1)
	require.Empty(e.t, results[0].Error)
	return app.ReceiptDTO{FileName: results[0].FileName, URL: results[0].URL, StoragePath: results[0].StoragePath}
}

func (e *apiEnv) requestBody(payee string, receipt app.ReceiptDTO) handler.PaymentRequestBody {
	draft := e.fixtures.Draft(payee, nil)
	items := make([]app.LineItemDTO, len(draft.Items))
	for i, it := range draft.Items {
		items[i] = app.LineItemDTO{Description: it.Description, BudgetCode: it.BudgetCode, Amount: it.Amount}
	}
	return handler.PaymentRequestBody{
		Payee:       draft.Payee,
		Phone:       draft.Phone,
		BankName:    draft.BankName,
		BankAccount: draft.BankAccount,
		Date:        draft.Date,
		Session:     draft.Session,
		Committee:   string(draft.Committee),
		Items:       items,
		Receipts:    []app.ReceiptDTO{receipt},
	}
}

func TestHealth(t *testing.T) {
	t.Run("public and healthy", func(t *testing.T) {
		env := newAPIEnv(t, stubPinger{})
		w := env.do(http.MethodGet, "/api/v1/health", nil, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		health := testutil.DecodeData[handler.HealthResponse](t, w)
		assert.Equal(t, "ok", health.Status)
	})

	t.Run("degraded when the database is down", func(t *testing.T) {
		env := newAPIEnv(t, stubPinger{err: errors.New("connection refused")})
		w := env.do(http.MethodGet, "/api/v1/health", nil, nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestAuthentication(t *testing.T) {
	env := newAPIEnv(t, stubPinger{})

	w := env.do(http.MethodGet, "/api/v1/me", nil, nil)
	testutil.AssertErrorCode(t, w, http.StatusUnauthorized, "UNAUTHENTICATED")

	w = env.do(http.MethodGet, "/api/v1/me", nil, map[string]string{"Authorization": "Bearer not-a-token"})
	testutil.AssertErrorCode(t, w, http.StatusUnauthorized, "UNAUTHENTICATED")

	t.Run("first sight provisions a user profile", func(t *testing.T) {
		token, _, err := env.jwt.GenerateToken(auth.Identity{UID: "new-uid", Email: "new@example.com", Name: "New User"})
		require.NoError(t, err)

		w := env.do(http.MethodGet, "/api/v1/me", nil, map[string]string{"Authorization": "Bearer " + token})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		me := testutil.DecodeData[app.UserResponse](t, w)
		assert.Equal(t, "new-uid", me.UID)
		assert.Equal(t, "user", me.Role)
	})
}

func TestRoleGuards(t *testing.T) {
	env := newAPIEnv(t, stubPinger{})
	_, user := env.login(reimbursement.RoleUser)
	_, approver := env.login(reimbursement.RoleApprover)

	cases := []struct {
		name    string
		method  string
		path    string
		headers map[string]string
	}{
		{"user cannot approve", http.MethodPost, "/api/v1/requests/" + uuid.NewString() + "/approve", user},
		{"user cannot list settlements", http.MethodGet, "/api/v1/settlements", user},
		{"user cannot archive receipts", http.MethodPost, "/api/v1/files/receipts/archive", user},
		{"user cannot read budgets", http.MethodGet, "/api/v1/projects/" + uuid.NewString() + "/budget", user},
		{"approver cannot create projects", http.MethodPost, "/api/v1/projects", approver},
		{"approver cannot list users", http.MethodGet, "/api/v1/users", approver},
		{"approver cannot change settings", http.MethodPut, "/api/v1/settings/global", approver},
		{"approver cannot read budget config", http.MethodGet, "/api/v1/settings/budget-config", approver},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(tc.method, tc.path, map[string]any{}, tc.headers)
			testutil.AssertErrorCode(t, w, http.StatusForbidden, "FORBIDDEN")
		})
	}
}

func TestRequestLifecycle(t *testing.T) {
	env := newAPIEnv(t, stubPinger{})
	submitter, user := env.login(reimbursement.RoleUser)
	_, approver := env.login(reimbursement.RoleApprover)

	receipt := env.uploadReceipt(user)
	body := env.requestBody(submitter.Name, receipt)

	w := env.doWith(http.MethodPost, "/api/v1/requests", body, user, map[string]string{"Idempotency-Key": "submit-1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := testutil.DecodeData[app.PaymentRequestResponse](t, w)
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, submitter.UID, created.RequestedBy.UID)

	t.Run("replayed submission is refused", func(t *testing.T) {
		w := env.doWith(http.MethodPost, "/api/v1/requests", body, user, map[string]string{"Idempotency-Key": "submit-1"})
		testutil.AssertErrorCode(t, w, http.StatusConflict, "DUPLICATE_REQUEST")
	})

	t.Run("invalid content reports every problem", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/v1/requests", handler.PaymentRequestBody{Committee: "finance"}, user)
		testutil.AssertErrorCode(t, w, http.StatusBadRequest, "VALIDATION_ERROR")
		assert.Greater(t, len(testutil.DecodeEnvelope(t, w).Error.Details), 1)
	})

	t.Run("submitter lists own requests", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/v1/requests?status=pending", nil, user)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		envelope := testutil.DecodeEnvelope(t, w)
		assert.True(t, envelope.Success)
		assert.Contains(t, string(envelope.Data), created.ID.String())
	})

	t.Run("malformed id", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/v1/requests/not-a-uuid", nil, user)
		testutil.AssertErrorCode(t, w, http.StatusBadRequest, "INVALID_ARGUMENT")
	})

	t.Run("approve requires a signature", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/v1/requests/"+created.ID.String()+"/approve", map[string]string{}, approver)
		testutil.AssertErrorCode(t, w, http.StatusBadRequest, "VALIDATION_ERROR")
	})

	w = env.do(http.MethodPost, "/api/v1/requests/"+created.ID.String()+"/approve", handler.ApproveRequestBody{Signature: "data:image/png;base64,c2ln"}, approver)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	approval := testutil.DecodeData[app.ApprovalResponse](t, w)
	assert.Equal(t, "approved", approval.Request.Status)

	t.Run("approving twice is an invalid transition", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/v1/requests/"+created.ID.String()+"/approve", handler.ApproveRequestBody{Signature: "sig"}, approver)
		testutil.AssertErrorCode(t, w, http.StatusUnprocessableEntity, "INVALID_STATE")
	})

	t.Run("submitter cannot cancel an approved request", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/v1/requests/"+created.ID.String()+"/cancel", nil, user)
		testutil.AssertErrorCode(t, w, http.StatusForbidden, "FORBIDDEN")
	})
}

func TestRejectAndResubmit(t *testing.T) {
	env := newAPIEnv(t, stubPinger{})
	submitter, user := env.login(reimbursement.RoleUser)
	_, approver := env.login(reimbursement.RoleApprover)

	body := env.requestBody(submitter.Name, env.uploadReceipt(user))
	w := env.do(http.MethodPost, "/api/v1/requests", body, user)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	original := testutil.DecodeData[app.PaymentRequestResponse](t, w)

	w = env.do(http.MethodPost, "/api/v1/requests/"+original.ID.String()+"/reject", handler.RejectRequestBody{Reason: "   "}, approver)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = env.do(http.MethodPost, "/api/v1/requests/"+original.ID.String()+"/reject", handler.RejectRequestBody{Reason: "Missing receipt"}, approver)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "rejected", testutil.DecodeData[app.PaymentRequestResponse](t, w).Status)

	resubmitPath := "/api/v1/requests/" + original.ID.String() + "/resubmit"
	body.Comments = "Receipt attached"

	w = env.do(http.MethodPost, resubmitPath, body, user)
	testutil.AssertErrorCode(t, w, http.StatusBadRequest, "VALIDATION_ERROR")
	assert.Equal(t, []string{reimbursement.MsgBankBookRequired}, testutil.DecodeEnvelope(t, w).Error.Details)

	w = env.do(http.MethodPost, "/api/v1/files/bankbook", handler.UploadFileBody{Name: "book.png", Data: onePixelPNG}, user)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	unchanged := body
	unchanged.Comments = ""
	w = env.do(http.MethodPost, resubmitPath, unchanged, user)
	testutil.AssertErrorCode(t, w, http.StatusBadRequest, "VALIDATION_ERROR")
	assert.Equal(t, []string{reimbursement.MsgNoChanges}, testutil.DecodeEnvelope(t, w).Error.Details)

	w = env.do(http.MethodPost, resubmitPath, body, user)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resubmitted := testutil.DecodeData[app.PaymentRequestResponse](t, w)
	assert.Equal(t, "pending", resubmitted.Status)
	require.NotNil(t, resubmitted.OriginalRequestID)
	assert.Equal(t, original.ID, *resubmitted.OriginalRequestID)

	w = env.do(http.MethodPost, "/api/v1/requests/"+resubmitted.ID.String()+"/cancel", nil, user)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "cancelled", testutil.DecodeData[app.PaymentRequestResponse](t, w).Status)
}

func TestSettlementAndReports(t *testing.T) {
	env := newAPIEnv(t, stubPinger{})
	submitter, user := env.login(reimbursement.RoleUser)
	_, approver := env.login(reimbursement.RoleApprover)

	receipt := env.uploadReceipt(user)
	var ids []uuid.UUID
	for range 2 {
		w := env.do(http.MethodPost, "/api/v1/requests", env.requestBody(submitter.Name, receipt), user)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		id := testutil.DecodeData[app.PaymentRequestResponse](t, w).ID
		w = env.do(http.MethodPost, "/api/v1/requests/"+id.String()+"/approve", handler.ApproveRequestBody{Signature: "sig"}, approver)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		ids = append(ids, id)
	}

	w := env.do(http.MethodPost, "/api/v1/settlements", handler.SettleBody{RequestIDs: ids}, approver)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	settlement := testutil.DecodeData[app.SettlementResponse](t, w)
	assert.ElementsMatch(t, ids, settlement.RequestIDs)
	assert.Equal(t, submitter.Name, settlement.Payee)

	t.Run("settled requests cannot be settled again", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/v1/settlements", handler.SettleBody{RequestIDs: ids[:1]}, approver)
		testutil.AssertErrorCode(t, w, http.StatusUnprocessableEntity, "INVALID_STATE")
	})

	t.Run("requests point at their settlement", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/v1/requests/"+ids[0].String(), nil, approver)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		req := testutil.DecodeData[app.PaymentRequestResponse](t, w)
		assert.Equal(t, "settled", req.Status)
		require.NotNil(t, req.SettlementID)
		assert.Equal(t, settlement.ID, *req.SettlementID)
	})

	t.Run("html report", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/v1/settlements/"+settlement.ID.String()+"/report.html", nil, approver)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, w.Body.String(), "data:image/png;base64,")
	})

	t.Run("pdf without a browser", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/v1/settlements/"+settlement.ID.String()+"/report.pdf", nil, approver)
		testutil.AssertErrorCode(t, w, http.StatusServiceUnavailable, "RENDER_UNAVAILABLE")
	})

	t.Run("receipt archive", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/v1/files/receipts/archive", handler.ReceiptArchiveBody{RequestIDs: ids}, approver)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
		assert.Equal(t, "2", w.Header().Get("X-Archive-Entries"))
	})

	t.Run("unknown settlement", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/v1/settlements/"+uuid.NewString(), nil, approver)
		testutil.AssertErrorCode(t, w, http.StatusNotFound, "NOT_FOUND")
	})
}

func TestProjectsAndSettings(t *testing.T) {
	env := newAPIEnv(t, stubPinger{})
	member, user := env.login(reimbursement.RoleUser)
	_, admin := env.login(reimbursement.RoleAdmin)

	w := env.do(http.MethodPost, "/api/v1/projects", handler.ProjectBody{Name: "Spring Retreat", TotalBudget: 1_000_000}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	project := testutil.DecodeData[app.ProjectResponse](t, w)
	assert.True(t, project.IsActive)

	w = env.do(http.MethodPut, "/api/v1/projects/"+project.ID.String()+"/members", handler.MembersBody{MemberUIDs: []string{member.UID}}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	membership := testutil.DecodeData[app.MembershipResponse](t, w)
	assert.Equal(t, []string{member.UID}, membership.Added)

	w = env.do(http.MethodGet, "/api/v1/me", nil, user)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, testutil.DecodeData[app.UserResponse](t, w).ProjectIDs, project.ID)

	w = env.do(http.MethodPut, "/api/v1/settings/global", handler.GlobalSettingsBody{DefaultProjectID: project.ID}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(http.MethodGet, "/api/v1/settings/global", nil, user)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	global := testutil.DecodeData[app.GlobalSettingsResponse](t, w)
	require.NotNil(t, global.DefaultProjectID)
	assert.Equal(t, project.ID, *global.DefaultProjectID)

	w = env.do(http.MethodGet, "/api/v1/projects/"+project.ID.String()+"/budget", nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, project.ID, testutil.DecodeData[app.BudgetUsageResponse](t, w).ProjectID)

	t.Run("admin changes a role", func(t *testing.T) {
		w := env.do(http.MethodPut, "/api/v1/users/"+member.UID+"/role", handler.ChangeRoleBody{Role: "approver"}, admin)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "approver", testutil.DecodeData[app.UserResponse](t, w).Role)

		w = env.do(http.MethodPut, "/api/v1/users/"+member.UID+"/role", handler.ChangeRoleBody{Role: "owner"}, admin)
		testutil.AssertErrorCode(t, w, http.StatusBadRequest, "VALIDATION_ERROR")
	})
}

func TestSwaggerDisabled(t *testing.T) {
	env := newAPIEnv(t, stubPinger{})
	w := env.do(http.MethodGet, "/swagger/index.html", nil, nil)
	testutil.AssertErrorCode(t, w, http.StatusNotFound, "NOT_FOUND")
}
