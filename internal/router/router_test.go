package router

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"kiosk_pos_backend/internal/config"
	"kiosk_pos_backend/internal/database"
	"kiosk_pos_backend/internal/metrics"
	"kiosk_pos_backend/internal/middleware"
	"kiosk_pos_backend/internal/models"
	"kiosk_pos_backend/internal/repositories"
	"kiosk_pos_backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	engine *gin.Engine
	db     *sql.DB
	cfg    config.Config
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "router_test.db")
	cfg.Kiosk.ReceiptDir = filepath.Join(t.TempDir(), "receipts")
	cfg.Auth.JWTSecret = "router-test-secret"

	db, err := database.Open(cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.ApplySchema(db, database.DriverSQLite))

	sessions := services.NewSessionStore(cfg.Kiosk.IdleTimeout, cfg.Kiosk.UndoLimit)
	m := metrics.New(func() float64 { return float64(sessions.Len()) })
	engine := NewEngine(cfg.Server, m)
	require.NoError(t, Setup(engine, db, cfg, sessions, m))

	return &testServer{engine: engine, db: db, cfg: cfg}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) createItem(t *testing.T, name, price string, stock int) *models.Item {
	t.Helper()
	item := &models.Item{Name: name, Price: decimal.RequireFromString(price), Stock: stock, Active: true}
	_, err := repositories.NewItemRepository(s.db).CreateItem(context.Background(), s.db, item)
	require.NoError(t, err)
	return item
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Error.Code
}

func TestPing(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(t, http.MethodGet, "/ping", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"pong"}`, rec.Body.String())
}

func TestKioskCheckoutFlow(t *testing.T) {
	srv := newTestServer(t)
	item := srv.createItem(t, "Pork Sisig Rice", "50.00", 2)
	itemPath := "/api/v1/kiosk/cart/items/" + strconv.FormatInt(item.ID, 10)

	rec := srv.do(t, http.MethodPost, "/api/v1/sessions", nil, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created services.CartView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.SessionID)
	h := map[string]string{middleware.SessionHeader: created.SessionID}

	rec = srv.do(t, http.MethodGet, "/api/v1/kiosk/items?q=sisig", nil, h)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []models.Item
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)

	for i := 0; i < 2; i++ {
		rec = srv.do(t, http.MethodPost, "/api/v1/kiosk/cart/items", gin.H{"item_id": item.ID}, h)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	rec = srv.do(t, http.MethodPost, "/api/v1/kiosk/cart/items", gin.H{"item_id": item.ID}, h)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "STOCK_EXCEEDED", errorCode(t, rec))

	rec = srv.do(t, http.MethodPatch, itemPath, gin.H{"delta": -1}, h)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = srv.do(t, http.MethodPost, "/api/v1/kiosk/cart/undo", nil, h)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/v1/kiosk/checkout/pay", gin.H{"method": "cash", "amount_given": 500}, h)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CHECKOUT_STATE", errorCode(t, rec))

	rec = srv.do(t, http.MethodPost, "/api/v1/kiosk/checkout/review", nil, h)
	require.Equal(t, http.StatusOK, rec.Code)
	var review services.CartView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &review))
	assert.True(t, review.Totals.Total.Equal(decimal.NewFromInt(112)))

	rec = srv.do(t, http.MethodPost, "/api/v1/kiosk/checkout/payment", nil, h)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodDelete, itemPath, nil, h)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/v1/kiosk/checkout/pay", gin.H{"method": "cash", "amount_given": 100}, h)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "INSUFFICIENT_PAYMENT", errorCode(t, rec))

	rec = srv.do(t, http.MethodPost, "/api/v1/kiosk/checkout/pay", gin.H{"method": "cash", "amount_given": 150}, h)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var result services.CheckoutResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Change.Equal(decimal.NewFromInt(38)))
	assert.NotEmpty(t, result.ReceiptPath)

	rec = srv.do(t, http.MethodPost, "/api/v1/kiosk/cart/undo", nil, h)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "NOTHING_TO_UNDO", errorCode(t, rec))

	rec = srv.do(t, http.MethodDelete, "/api/v1/kiosk/cart", nil, h)
	assert.Equal(t, "CART_ALREADY_EMPTY", errorCode(t, rec))

	rec = srv.do(t, http.MethodPost, "/api/v1/kiosk/checkout/review", nil, h)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "EMPTY_CART", errorCode(t, rec))

	rec = srv.do(t, http.MethodDelete, "/api/v1/kiosk/session", nil, h)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = srv.do(t, http.MethodGet, "/api/v1/kiosk/cart", nil, h)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `kiosk_orders_committed_total{payment_method="cash"} 1`)
}

func TestKioskRoutesRequireSession(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/api/v1/kiosk/cart", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/kiosk/cart", nil, map[string]string{middleware.SessionHeader: "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "SESSION_NOT_FOUND", errorCode(t, rec))
}

func TestAdminRoutes(t *testing.T) {
	srv := newTestServer(t)
	item := srv.createItem(t, "Halo-Halo", "95.00", 4)

	rec := srv.do(t, http.MethodGet, "/api/v1/admin/orders", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	authSvc := services.NewAuthService(repositories.NewAuthRepository(srv.db),
		services.NewAuditService(repositories.NewAuditRepository(srv.db)), srv.db, srv.cfg.Auth)
	_, err := authSvc.CreateUser(context.Background(), services.CreateUserRequest{Username: "owner", Password: "s3cret-pass"})
	require.NoError(t, err)

	rec = srv.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{"username": "owner", "password": "bad-pass"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{"username": "owner", "password": "s3cret-pass"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login models.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	h := map[string]string{"Authorization": "Bearer " + login.AccessToken}

	rec = srv.do(t, http.MethodGet, "/api/v1/admin/auth/me", nil, h)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"owner"`)

	stockPath := "/api/v1/admin/items/" + strconv.FormatInt(item.ID, 10) + "/stock"
	rec = srv.do(t, http.MethodPut, stockPath, gin.H{"stock": -2}, h)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var adj models.StockAdjustment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &adj))
	assert.True(t, adj.Clamped)
	assert.Equal(t, 0, adj.NewStock)
	assert.NotEmpty(t, adj.Warning)

	rec = srv.do(t, http.MethodPut, stockPath, gin.H{}, h)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/admin/stock-movements?item_id="+strconv.FormatInt(item.ID, 10), nil, h)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)

	rec = srv.do(t, http.MethodPost, "/api/v1/admin/categories", gin.H{"name": "Desserts"}, h)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = srv.do(t, http.MethodPost, "/api/v1/admin/categories", gin.H{"name": "Desserts"}, h)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/v1/admin/orders/9999/void", nil, h)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/admin/orders?date=2024-13-01", nil, h)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/admin/reports/insights?start_date=2024-05-01&end_date=2024-05-07", nil, h)
	require.Equal(t, http.StatusOK, rec.Code)
	var insights models.Insights
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &insights))
	assert.Len(t, insights.DailySales, 7)

	rec = srv.do(t, http.MethodGet, "/api/v1/admin/audit-logs?event_type="+models.AuditStockAdjust, nil, h)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)
}

func TestLoginRateLimit(t *testing.T) {
	srv := newTestServer(t)
	var last int
	for i := 0; i < loginBurst+1; i++ {
		last = srv.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{"username": "ghost", "password": "nope"}, nil).Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}
