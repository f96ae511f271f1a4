package repositories

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"kiosk_pos_backend/internal/config"
	"kiosk_pos_backend/internal/database"
	"kiosk_pos_backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := config.Default().Database
	cfg.Path = filepath.Join(t.TempDir(), "repo_test.db")
	db, err := database.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.ApplySchema(db, database.DriverSQLite))
	return db
}

func createItem(t *testing.T, repo ItemRepository, db *sql.DB, name, price string, stock int) *models.Item {
	t.Helper()
	item := &models.Item{Name: name, Price: decimal.RequireFromString(price), Stock: stock, Active: true}
	_, err := repo.CreateItem(context.Background(), db, item)
	require.NoError(t, err)
	return item
}

func TestItemRepository_CRUD(t *testing.T) {
	db := newTestDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	cat := &models.Category{Name: "Drinks"}
	_, err := repo.CreateCategory(ctx, db, cat)
	require.NoError(t, err)

	_, err = repo.CreateCategory(ctx, db, &models.Category{Name: "Drinks"})
	assert.ErrorIs(t, err, ErrDuplicateKey)

	threshold := 5
	item := &models.Item{
		Name: "Iced Tea 500ml", Price: decimal.RequireFromString("35.00"), Stock: 60,
		CategoryID: &cat.ID, Active: true, LowStockThreshold: &threshold,
	}
	_, err = repo.CreateItem(ctx, db, item)
	require.NoError(t, err)

	got, err := repo.GetItemByID(ctx, nil, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Iced Tea 500ml", got.Name)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(35)))
	assert.Equal(t, 60, got.Stock)
	require.NotNil(t, got.CategoryName)
	assert.Equal(t, "Drinks", *got.CategoryName)

	_, err = repo.CreateItem(ctx, db, &models.Item{Name: "Iced Tea 500ml", Price: decimal.NewFromInt(1), Active: true})
	assert.ErrorIs(t, err, ErrDuplicateKey)

	got.Active = false
	require.NoError(t, repo.UpdateItem(ctx, db, got))

	all, err := repo.GetItems(ctx, models.ItemFilters{})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	active, err := repo.GetItems(ctx, models.ItemFilters{ActiveOnly: true})
	require.NoError(t, err)
	assert.Empty(t, active)

	assert.ErrorIs(t, repo.DeleteCategory(ctx, db, cat.ID), ErrInUse)

	_, err = repo.GetItemByID(ctx, nil, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestItemRepository_SearchAndLowStock(t *testing.T) {
	db := newTestDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	createItem(t, repo, db, "Coca-Cola 290ml", "25.00", 70)
	createItem(t, repo, db, "Pepsi 290ml", "25.00", 0)
	createItem(t, repo, db, "Siomai", "30.00", 40)

	q := "290"
	items, err := repo.GetItems(ctx, models.ItemFilters{Query: &q})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	low, err := repo.GetLowStockItems(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "Pepsi 290ml", low[0].Name)
}

func TestItemRepository_DecrementStockIsConditional(t *testing.T) {
	db := newTestDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	item := createItem(t, repo, db, "Nova", "22.00", 3)

	require.NoError(t, repo.DecrementStock(ctx, db, item.ID, 2))
	err := repo.DecrementStock(ctx, db, item.ID, 2)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	got, err := repo.GetItemByID(ctx, nil, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock, "failed decrement leaves stock untouched")

	assert.ErrorIs(t, repo.DecrementStock(ctx, db, 9999, 1), ErrNotFound)

	require.NoError(t, repo.IncrementStock(ctx, db, item.ID, 4))
	require.NoError(t, repo.SetStock(ctx, db, item.ID, 10))
	got, _ = repo.GetItemByID(ctx, nil, item.ID)
	assert.Equal(t, 10, got.Stock)

	got.Active = false
	require.NoError(t, repo.UpdateItem(ctx, db, got))
	err = repo.DecrementStock(ctx, db, item.ID, 1)
	assert.ErrorIs(t, err, ErrItemInactive)
	got, _ = repo.GetItemByID(ctx, nil, item.ID)
	assert.Equal(t, 10, got.Stock, "inactive items are not sold")
}

func TestOrderRepository_CreateGetVoid(t *testing.T) {
	db := newTestDB(t)
	items := NewItemRepository(db)
	orders := NewOrderRepository(db)
	ctx := context.Background()

	item := createItem(t, items, db, "Cheeseburger", "120.00", 20)

	order := &models.Order{
		OrderNumber:   "QS-20261018-120000-abcd",
		Subtotal:      decimal.RequireFromString("240.00"),
		VATAmount:     decimal.RequireFromString("28.80"),
		TotalAmount:   decimal.RequireFromString("268.80"),
		PaymentMethod: models.PaymentMethodCash,
		CashGiven:     decimal.NewNullDecimal(decimal.RequireFromString("300.00")),
		ChangeAmount:  decimal.NewNullDecimal(decimal.RequireFromString("31.20")),
	}
	_, err := orders.CreateOrder(ctx, db, order)
	require.NoError(t, err)

	dup := *order
	_, err = orders.CreateOrder(ctx, db, &dup)
	assert.ErrorIs(t, err, ErrDuplicateKey)

	line := &models.OrderLine{
		OrderID: order.ID, ItemID: item.ID, ItemName: item.Name, Quantity: 2,
		UnitPrice: item.Price, LineTotal: decimal.RequireFromString("240.00"),
	}
	_, err = orders.CreateOrderLine(ctx, db, line)
	require.NoError(t, err)

	require.NoError(t, orders.SetReceiptPath(ctx, db, order.ID, "receipts/QS-20261018-120000-abcd.txt"))

	got, err := orders.GetOrderByID(ctx, nil, order.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("268.80")))
	assert.True(t, got.ChangeAmount.Valid)
	assert.True(t, got.ChangeAmount.Decimal.Equal(decimal.RequireFromString("31.20")))
	require.NotNil(t, got.ReceiptPath)
	assert.False(t, got.Voided)

	lines, err := orders.GetOrderLinesByOrderID(ctx, nil, order.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)

	list, total, err := orders.GetOrders(ctx, models.OrderFilters{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, list, 1)

	changed, err := orders.MarkVoided(ctx, db, order.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = orders.MarkVoided(ctx, db, order.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, changed, "second void is a no-op")

	list, total, err = orders.GetOrders(ctx, models.OrderFilters{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)
}

func TestStockMovementRepository(t *testing.T) {
	db := newTestDB(t)
	items := NewItemRepository(db)
	movements := NewStockMovementRepository(db)
	ctx := context.Background()

	item := createItem(t, items, db, "Spaghetti", "95.00", 25)
	for _, m := range []models.StockMovement{
		{ItemID: item.ID, Delta: -2, Reason: models.MovementReasonSale},
		{ItemID: item.ID, Delta: 5, Reason: models.MovementReasonManualAdjust},
	} {
		m := m
		_, err := movements.CreateMovement(ctx, db, &m)
		require.NoError(t, err)
	}

	reason := models.MovementReasonSale
	list, total, err := movements.GetMovements(ctx, models.StockMovementFilters{ItemID: &item.ID, Reason: &reason})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, -2, list[0].Delta)
	require.NotNil(t, list[0].ItemName)
	assert.Equal(t, "Spaghetti", *list[0].ItemName)

	_, err = movements.CreateMovement(ctx, db, &models.StockMovement{ItemID: 4242, Delta: 1, Reason: "sale"})
	assert.ErrorIs(t, err, ErrInUse)
}

func TestAuthRepository_LoginState(t *testing.T) {
	db := newTestDB(t)
	repo := NewAuthRepository(db)
	ctx := context.Background()

	user := &models.User{Username: "dale", PasswordHash: "hash", Role: models.RoleAdmin}
	_, err := repo.CreateUser(ctx, db, user)
	require.NoError(t, err)

	_, err = repo.CreateUser(ctx, db, &models.User{Username: "dale", PasswordHash: "x", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, ErrDuplicateKey)

	until := time.Now().UTC().Add(5 * time.Minute).Truncate(time.Second)
	require.NoError(t, repo.UpdateLoginState(ctx, user.ID, 5, &until))

	got, err := repo.FindUserByUsername(ctx, "dale")
	require.NoError(t, err)
	assert.Equal(t, 5, got.FailedAttempts)
	require.NotNil(t, got.LockedUntil)
	assert.True(t, got.LockedUntil.Equal(until))

	require.NoError(t, repo.UpdateLoginState(ctx, user.ID, 0, nil))
	got, err = repo.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, got.FailedAttempts)
	assert.Nil(t, got.LockedUntil)

	_, err = repo.FindUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuditRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewAuditRepository(db)
	ctx := context.Background()

	name := "dale"
	_, err := repo.CreateAuditLog(ctx, nil, &models.AuditLog{Username: &name, EventType: models.AuditLoginSuccess, Detail: "ok"})
	require.NoError(t, err)
	_, err = repo.CreateAuditLog(ctx, db, &models.AuditLog{EventType: models.AuditLoginFailed, Detail: "bad password"})
	require.NoError(t, err)

	event := models.AuditLoginFailed
	logs, total, err := repo.GetAuditLogs(ctx, models.AuditLogFilters{EventType: &event})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, logs, 1)
	assert.Nil(t, logs[0].Username)
}

func TestReportRepository_TopItems(t *testing.T) {
	db := newTestDB(t)
	items := NewItemRepository(db)
	orders := NewOrderRepository(db)
	reports := NewReportRepository(db)
	ctx := context.Background()

	burger := createItem(t, items, db, "Cheeseburger", "120.00", 20)
	water := createItem(t, items, db, "Bottled Water 500ml", "20.00", 80)

	now := time.Now().UTC()
	order := &models.Order{
		OrderNumber: "QS-1", CreatedAt: now, PaymentMethod: models.PaymentMethodCashless,
		Subtotal: decimal.NewFromInt(200), VATAmount: decimal.NewFromInt(24), TotalAmount: decimal.NewFromInt(224),
	}
	_, err := orders.CreateOrder(ctx, db, order)
	require.NoError(t, err)
	for _, l := range []models.OrderLine{
		{OrderID: order.ID, ItemID: burger.ID, ItemName: burger.Name, Quantity: 1, UnitPrice: burger.Price, LineTotal: decimal.NewFromInt(120)},
		{OrderID: order.ID, ItemID: water.ID, ItemName: water.Name, Quantity: 4, UnitPrice: water.Price, LineTotal: decimal.NewFromInt(80)},
	} {
		l := l
		_, err := orders.CreateOrderLine(ctx, db, &l)
		require.NoError(t, err)
	}

	start, end := now.Add(-time.Hour), now.Add(time.Hour)

	byQty, err := reports.GetTopItems(ctx, start, end, RankByQuantity, 10)
	require.NoError(t, err)
	require.Len(t, byQty, 2)
	assert.Equal(t, water.ID, byQty[0].ItemID)
	assert.Equal(t, 4, byQty[0].TotalQuantity)

	byRevenue, err := reports.GetTopItems(ctx, start, end, RankByRevenue, 10)
	require.NoError(t, err)
	require.Len(t, byRevenue, 2)
	assert.Equal(t, burger.ID, byRevenue[0].ItemID)
	assert.True(t, byRevenue[0].TotalRevenue.Equal(decimal.NewFromInt(120)))

	totals, err := reports.GetOrderTotals(ctx, start, end)
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.True(t, totals[0].Total.Equal(decimal.NewFromInt(224)))

	_, err = reports.GetTopItems(ctx, start, end, "popularity", 10)
	assert.Error(t, err)
}
