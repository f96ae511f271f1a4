package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"kiosk_pos_backend/internal/config"
	"kiosk_pos_backend/internal/database"
	"kiosk_pos_backend/internal/metrics"
	"kiosk_pos_backend/internal/models"
	"kiosk_pos_backend/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	testVAT   = decimal.RequireFromString("0.12")
	testClock = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
)

type testEnv struct {
	db           *sql.DB
	itemRepo     repositories.ItemRepository
	orderRepo    repositories.OrderRepository
	movementRepo repositories.StockMovementRepository
	audit        AuditService
	metrics      *metrics.Metrics
	store        *SessionStore
	receiptDir   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.Default().Database
	cfg.Path = filepath.Join(t.TempDir(), "services_test.db")
	db, err := database.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.ApplySchema(db, database.DriverSQLite))

	return &testEnv{
		db:           db,
		itemRepo:     repositories.NewItemRepository(db),
		orderRepo:    repositories.NewOrderRepository(db),
		movementRepo: repositories.NewStockMovementRepository(db),
		audit:        NewAuditService(repositories.NewAuditRepository(db)),
		metrics:      metrics.New(nil),
		store:        NewSessionStore(config.Default().Kiosk.IdleTimeout, 50),
		receiptDir:   filepath.Join(t.TempDir(), "receipts"),
	}
}

func (e *testEnv) createItem(t *testing.T, name, price string, stock int) *models.Item {
	t.Helper()
	item := &models.Item{Name: name, Price: decimal.RequireFromString(price), Stock: stock, Active: true}
	_, err := e.itemRepo.CreateItem(context.Background(), e.db, item)
	require.NoError(t, err)
	return item
}

func (e *testEnv) stockOf(t *testing.T, itemID int64) int {
	t.Helper()
	item, err := e.itemRepo.GetItemByID(context.Background(), nil, itemID)
	require.NoError(t, err)
	return item.Stock
}

func (e *testEnv) cartService() CartService {
	return NewCartService(e.itemRepo, e.metrics, testVAT)
}

func (e *testEnv) renderer(t *testing.T) ReceiptRenderer {
	t.Helper()
	r, err := NewTextReceiptRenderer(e.receiptDir, StoreInfo{Name: "Dale Convenience", Address: "123 Market St.", Contact: "0912", Currency: "PHP"})
	require.NoError(t, err)
	return r
}

func (e *testEnv) checkoutService(t *testing.T, itemRepo repositories.ItemRepository, renderer ReceiptRenderer) CheckoutService {
	t.Helper()
	if itemRepo == nil {
		itemRepo = e.itemRepo
	}
	if renderer == nil {
		renderer = e.renderer(t)
	}
	return NewCheckoutService(e.db, itemRepo, e.orderRepo, e.movementRepo, renderer, e.metrics, testVAT, 2)
}

// fill adds itemID to the session count times.
func fill(t *testing.T, carts CartService, sess *Session, itemID int64, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		_, err := carts.AddItem(context.Background(), sess, itemID)
		require.NoError(t, err)
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
