package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipeline/internal/authz"
	"pipeline/internal/middleware"
	"pipeline/internal/models"
	"pipeline/internal/pdf"
	"pipeline/internal/repositories"
	"pipeline/internal/services"
)

var secret = []byte("handler-test-secret-value")

type testAPI struct {
	router *gin.Engine
	tokens map[string]string
}

func setupAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	db, err := repositories.Open(ctx, repositories.DialectSQLite, filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repositories.Migrate(ctx, db, repositories.DialectSQLite))

	txm := repositories.NewTxManager(db)
	stageRepo := repositories.NewStageRepository(db)
	dealRepo := repositories.NewDealRepository(db)
	ledger := repositories.NewTransitionRepository(db)
	activityRepo := repositories.NewActivityRepository(db)

	stageH := NewStageHandler(services.NewStageService(txm, stageRepo, dealRepo, activityRepo, nil))
	dealH := NewDealHandler(services.NewDealService(txm, dealRepo, stageRepo, ledger, activityRepo, nil, true))
	analyticsH := NewAnalyticsHandler(services.NewAnalyticsService(dealRepo, stageRepo, activityRepo, pdf.NewReportGenerator("")))
	healthH := NewHealthHandler(db, nil, "test")

	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/healthz", healthH.Handle)
	api := r.Group("/", middleware.AuthMiddleware(secret), middleware.ReadOnlyGuard())
	api.GET("/stages", stageH.List)
	api.POST("/stages", stageH.Create)
	api.POST("/stages/bootstrap", stageH.Bootstrap)
	api.PUT("/stages/:id", stageH.Update)
	api.DELETE("/stages/:id", stageH.Delete)
	api.GET("/deals", dealH.List)
	api.POST("/deals", dealH.Create)
	api.GET("/deals/:id", dealH.GetByID)
	api.PUT("/deals/:id", dealH.Update)
	api.POST("/deals/:id/move", dealH.Move)
	api.POST("/deals/:id/status", dealH.UpdateStatus)
	api.GET("/deals/:id/history", dealH.History)
	api.GET("/clients/:id/deals", dealH.ListByClient)
	api.GET("/analytics/deals", analyticsH.DealStats)
	api.GET("/analytics/revenue", analyticsH.Revenue)
	api.GET("/analytics/stages", analyticsH.Stages)
	api.GET("/analytics/activity", analyticsH.Activity)
	api.GET("/analytics/report.pdf", analyticsH.Report)

	tokens := map[string]string{}
	for name, id := range map[string][3]int64{
		"a":     {1, 10, authz.RoleSales},
		"b":     {2, 20, authz.RoleSales},
		"audit": {1, 30, authz.RoleAudit},
	} {
		tok, err := middleware.IssueToken(secret, id[0], id[1], int(id[2]), time.Hour)
		require.NoError(t, err)
		tokens[name] = tok
	}
	return &testAPI{router: r, tokens: tokens}
}

func (a *testAPI) call(t *testing.T, who, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if who != "" {
		req.Header.Set("Authorization", "Bearer "+a.tokens[who])
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestStageEndpoints(t *testing.T) {
	api := setupAPI(t)

	w := api.call(t, "a", http.MethodPost, "/stages/bootstrap", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = api.call(t, "a", http.MethodPost, "/stages/bootstrap", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = api.call(t, "a", http.MethodGet, "/stages", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stages := decode[[]models.Stage](t, w)
	require.Len(t, stages, 8)

	w = api.call(t, "b", http.MethodGet, "/stages", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]models.Stage](t, w))

	w = api.call(t, "a", http.MethodPost, "/stages", gin.H{"name": "Archive", "color": "#zzzzzz", "position": 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, services.CodeValidation, decode[ErrorResponse](t, w).Code)

	w = api.call(t, "a", http.MethodPost, "/stages", gin.H{"name": "Archive", "position": 9})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[models.Stage](t, w)
	assert.Equal(t, models.DefaultStageColor, created.Color)

	w = api.call(t, "b", http.MethodPut, "/stages/"+itoa(created.ID), gin.H{"name": "Mine"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, services.CodeNotFound, decode[ErrorResponse](t, w).Code)

	w = api.call(t, "a", http.MethodPut, "/stages/"+itoa(created.ID), gin.H{"name": "Archived"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Archived", decode[models.Stage](t, w).Name)

	w = api.call(t, "a", http.MethodDelete, "/stages/"+itoa(created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = api.call(t, "a", http.MethodDelete, "/stages/"+itoa(created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"detached_deals":0}`, w.Body.String())

	w = api.call(t, "a", http.MethodDelete, "/stages/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDealLifecycleEndpoints(t *testing.T) {
	api := setupAPI(t)

	w := api.call(t, "a", http.MethodPost, "/stages/bootstrap", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	stages := decode[struct {
		Stages []models.Stage `json:"stages"`
	}](t, w).Stages
	first, second := stages[0].ID, stages[1].ID

	w = api.call(t, "a", http.MethodPost, "/deals", gin.H{"client_id": 5, "title": "Shoot", "negotiated_value": "199.90", "current_stage_id": first})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	deal := decode[models.Deal](t, w)
	assert.Equal(t, models.DealOpen, deal.Status)
	path := "/deals/" + itoa(deal.ID)

	w = api.call(t, "b", http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.call(t, "a", http.MethodPost, path+"/move", gin.H{"stage_id": second})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.call(t, "b", http.MethodPost, path+"/move", gin.H{"stage_id": first})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.call(t, "a", http.MethodGet, path+"/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[[]models.TransitionRecord](t, w)
	require.Len(t, history, 1)
	assert.Equal(t, second, history[0].ToStageID)
	require.NotNil(t, history[0].FromStageID)
	assert.Equal(t, first, *history[0].FromStageID)
	assert.Equal(t, int64(10), history[0].MovedBy)

	w = api.call(t, "a", http.MethodPost, path+"/status", gin.H{"status": "won"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, decode[models.Deal](t, w).ClosedAt)

	w = api.call(t, "a", http.MethodPost, path+"/status", gin.H{"status": "lost"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, services.CodeInvalidTransition, decode[ErrorResponse](t, w).Code)

	w = api.call(t, "a", http.MethodPost, path+"/status", gin.H{"status": "paused"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.call(t, "a", http.MethodPut, path, gin.H{"notes": "deliver in May"})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[models.Deal](t, w)
	assert.Equal(t, models.DealWon, updated.Status)
	require.NotNil(t, updated.Notes)

	w = api.call(t, "a", http.MethodGet, "/deals?status=won", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Deal](t, w), 1)

	w = api.call(t, "a", http.MethodGet, "/deals?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClientDealsEndpoint(t *testing.T) {
	api := setupAPI(t)

	for _, body := range []gin.H{
		{"client_id": 7, "title": "Wedding"},
		{"client_id": 7, "title": "Anniversary"},
		{"client_id": 8, "title": "Portrait"},
	} {
		w := api.call(t, "a", http.MethodPost, "/deals", body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	w := api.call(t, "b", http.MethodPost, "/deals", gin.H{"client_id": 7, "title": "Other tenant"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = api.call(t, "a", http.MethodGet, "/clients/7/deals", nil)
	require.Equal(t, http.StatusOK, w.Code)
	deals := decode[[]models.Deal](t, w)
	require.Len(t, deals, 2)
	for _, d := range deals {
		assert.Equal(t, int64(7), d.ClientID)
		assert.NotEqual(t, "Other tenant", d.Title)
	}

	w = api.call(t, "a", http.MethodGet, "/clients/9/deals", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]models.Deal](t, w))

	w = api.call(t, "a", http.MethodGet, "/clients/x/deals", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyticsEndpoints(t *testing.T) {
	api := setupAPI(t)

	for _, status := range []string{"won", "lost", ""} {
		w := api.call(t, "a", http.MethodPost, "/deals", gin.H{"client_id": 1, "title": "d", "negotiated_value": "100"})
		require.Equal(t, http.StatusCreated, w.Code)
		if status == "" {
			continue
		}
		id := decode[models.Deal](t, w).ID
		w = api.call(t, "a", http.MethodPost, "/deals/"+itoa(id)+"/status", gin.H{"status": status})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := api.call(t, "a", http.MethodGet, "/analytics/deals", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[models.DealStats](t, w)
	assert.Equal(t, 3, stats.Total)
	assert.InDelta(t, 33.33, stats.ConversionRate, 0.01)

	w = api.call(t, "a", http.MethodGet, "/analytics/deals?from=2000-01-01&to=2000-12-31", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, decode[models.DealStats](t, w).Total)

	w = api.call(t, "a", http.MethodGet, "/analytics/revenue", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"won":"100","lost":"100","open":"100","average_won":"100"}`, w.Body.String())

	w = api.call(t, "a", http.MethodGet, "/analytics/stages", nil)
	require.Equal(t, http.StatusOK, w.Code)
	loads := decode[[]models.StageLoad](t, w)
	require.Len(t, loads, 1)
	assert.Equal(t, 1, loads[0].OpenDeals)

	w = api.call(t, "a", http.MethodGet, "/analytics/activity?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.ActivityEntry](t, w), 2)

	w = api.call(t, "a", http.MethodGet, "/analytics/report.pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
}

func TestAuditRoleIsReadOnly(t *testing.T) {
	api := setupAPI(t)

	w := api.call(t, "audit", http.MethodPost, "/stages/bootstrap", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = api.call(t, "audit", http.MethodGet, "/stages", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = api.call(t, "", http.MethodGet, "/stages", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealth(t *testing.T) {
	api := setupAPI(t)
	w := api.call(t, "", http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[HealthResponse](t, w)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "healthy", resp.Dependencies["database"])
	assert.Equal(t, "not configured", resp.Dependencies["rabbitmq"])
}

func TestParseTimeParam(t *testing.T) {
	got, err := parseTimeParam("2026-03-01", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 23, 59, 59, 999999000, time.UTC), *got)

	got, err = parseTimeParam("2026-03-01T10:00:00+02:00", false)
	require.NoError(t, err)
	assert.Equal(t, 8, got.Hour())

	got, err = parseTimeParam("", false)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parseTimeParam("03/01/2026", false)
	assert.Error(t, err)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
