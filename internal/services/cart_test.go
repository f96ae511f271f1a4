package services

import (
	"context"
	"math"
	"testing"
	"time"

	"kiosk_pos_backend/internal/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartService_StockCeiling(t *testing.T) {
	env := newTestEnv(t)
	carts := env.cartService()
	sess := env.store.Create()
	item := env.createItem(t, "Last Sandwich", "85.00", 1)

	view, err := carts.AddItem(context.Background(), sess, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.ItemCount)

	_, err = carts.AddItem(context.Background(), sess, item.ID)
	assert.ErrorIs(t, err, ErrStockExceeded)

	view = carts.View(context.Background(), sess)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 1, view.Lines[0].Quantity)
	assert.Equal(t, 1, view.UndoDepth)
	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.CartRejections.WithLabelValues("stock_exceeded")))
}

func TestCartService_AddUnknownOrInactiveItem(t *testing.T) {
	env := newTestEnv(t)
	carts := env.cartService()
	sess := env.store.Create()

	_, err := carts.AddItem(context.Background(), sess, 999)
	assert.ErrorIs(t, err, ErrItemNotFound)

	item := env.createItem(t, "Retired Snack", "10.00", 5)
	item.Active = false
	require.NoError(t, env.itemRepo.UpdateItem(context.Background(), env.db, item))
	_, err = carts.AddItem(context.Background(), sess, item.ID)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestCartService_ChangeQuantity(t *testing.T) {
	env := newTestEnv(t)
	carts := env.cartService()
	sess := env.store.Create()
	item := env.createItem(t, "Cola 330ml", "30.00", 3)
	ctx := context.Background()

	view, err := carts.ChangeQuantity(ctx, sess, item.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, view.Lines, "absent line is left alone")
	assert.Zero(t, view.UndoDepth)

	fill(t, carts, sess, item.ID, 1)

	view, err = carts.ChangeQuantity(ctx, sess, item.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, view.Lines[0].Quantity)

	_, err = carts.ChangeQuantity(ctx, sess, item.ID, 1)
	assert.ErrorIs(t, err, ErrStockExceeded)

	_, err = carts.ChangeQuantity(ctx, sess, item.ID, math.MaxInt)
	assert.ErrorIs(t, err, ErrStockExceeded)
	view = carts.View(ctx, sess)
	require.Len(t, view.Lines, 1, "a huge increase is rejected, not wrapped into a removal")
	assert.Equal(t, 3, view.Lines[0].Quantity)

	view, err = carts.ChangeQuantity(ctx, sess, item.ID, math.MinInt)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	_, err = carts.Undo(ctx, sess)
	require.NoError(t, err)

	view, err = carts.ChangeQuantity(ctx, sess, item.ID, -5)
	require.NoError(t, err)
	assert.Empty(t, view.Lines, "quantity <= 0 removes the line")
	assert.Equal(t, 3, view.UndoDepth)
}

func TestCartService_UndoRevertsEachMutation(t *testing.T) {
	env := newTestEnv(t)
	carts := env.cartService()
	sess := env.store.Create()
	ctx := context.Background()
	chips := env.createItem(t, "Chips", "25.00", 10)
	water := env.createItem(t, "Water", "15.00", 10)

	fill(t, carts, sess, chips.ID, 2)
	fill(t, carts, sess, water.ID, 1)
	_, err := carts.ChangeQuantity(ctx, sess, chips.ID, -1)
	require.NoError(t, err)
	_, err = carts.RemoveItem(ctx, sess, water.ID)
	require.NoError(t, err)

	quantities := func() map[int64]int {
		out := map[int64]int{}
		for _, l := range carts.View(ctx, sess).Lines {
			out[l.ItemID] = l.Quantity
		}
		return out
	}
	assert.Equal(t, map[int64]int{chips.ID: 1}, quantities())

	expected := []map[int64]int{
		{chips.ID: 1, water.ID: 1},
		{chips.ID: 2, water.ID: 1},
		{chips.ID: 2},
		{chips.ID: 1},
		{},
	}
	for i, want := range expected {
		_, err := carts.Undo(ctx, sess)
		require.NoError(t, err, "undo %d", i)
		assert.Equal(t, want, quantities(), "after undo %d", i)
	}

	_, err = carts.Undo(ctx, sess)
	assert.ErrorIs(t, err, ErrNothingToUndo)

	pie := env.createItem(t, "Pie", "50.00", 10)
	fill(t, carts, sess, pie.ID, 1)
	before := carts.View(ctx, sess)
	require.True(t, before.Totals.Total.Equal(dec("56.00")))

	pie.Price = dec("60.00")
	require.NoError(t, env.itemRepo.UpdateItem(ctx, env.db, pie))
	view, err := carts.AddItem(ctx, sess, pie.ID)
	require.NoError(t, err)
	assert.True(t, view.Lines[0].UnitPrice.Equal(dec("60.00")))

	view, err = carts.Undo(ctx, sess)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 1, view.Lines[0].Quantity)
	assert.True(t, view.Lines[0].UnitPrice.Equal(dec("50.00")), "undo restores the line as it was")
	assert.True(t, view.Totals.Total.Equal(before.Totals.Total))
}

func TestCartService_DeactivatedItemCannotIncrease(t *testing.T) {
	env := newTestEnv(t)
	carts := env.cartService()
	sess := env.store.Create()
	ctx := context.Background()
	item := env.createItem(t, "Seasonal Cake", "80.00", 5)

	fill(t, carts, sess, item.ID, 2)
	item.Active = false
	require.NoError(t, env.itemRepo.UpdateItem(ctx, env.db, item))

	_, err := carts.ChangeQuantity(ctx, sess, item.ID, 1)
	assert.ErrorIs(t, err, ErrItemNotFound)

	view, err := carts.ChangeQuantity(ctx, sess, item.ID, -1)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 1, view.Lines[0].Quantity, "decreasing is still allowed")
}

func TestCartService_ClearThenUndo(t *testing.T) {
	env := newTestEnv(t)
	carts := env.cartService()
	sess := env.store.Create()
	ctx := context.Background()
	a := env.createItem(t, "Burger", "120.00", 5)
	b := env.createItem(t, "Fries", "60.00", 5)

	_, err := carts.Clear(ctx, sess)
	assert.ErrorIs(t, err, ErrCartAlreadyEmpty)

	fill(t, carts, sess, a.ID, 2)
	fill(t, carts, sess, b.ID, 1)

	view, err := carts.Clear(ctx, sess)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.Equal(t, 1, view.UndoDepth, "clear replaces history with one entry")

	view, err = carts.Undo(ctx, sess)
	require.NoError(t, err)
	require.Len(t, view.Lines, 2)
	assert.Equal(t, 3, view.ItemCount)
	assert.Zero(t, view.UndoDepth)

	_, err = carts.Undo(ctx, sess)
	assert.ErrorIs(t, err, ErrNothingToUndo)
}

func TestCartService_UndoRestoresRemovedLineFromStore(t *testing.T) {
	env := newTestEnv(t)
	carts := env.cartService()
	sess := env.store.Create()
	ctx := context.Background()
	item := env.createItem(t, "Donut", "20.00", 4)

	fill(t, carts, sess, item.ID, 1)
	_, err := carts.RemoveItem(ctx, sess, item.ID)
	require.NoError(t, err)

	item.Price = dec("22.00")
	require.NoError(t, env.itemRepo.UpdateItem(ctx, env.db, item))

	view, err := carts.Undo(ctx, sess)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.True(t, view.Lines[0].UnitPrice.Equal(dec("22.00")))
}

func TestCartService_MutationDuringPayment(t *testing.T) {
	env := newTestEnv(t)
	carts := env.cartService()
	checkout := env.checkoutService(t, nil, nil)
	sess := env.store.Create()
	ctx := context.Background()
	item := env.createItem(t, "Juice", "40.00", 5)
	fill(t, carts, sess, item.ID, 1)

	_, err := checkout.Review(ctx, sess)
	require.NoError(t, err)
	_, err = checkout.BeginPayment(ctx, sess)
	require.NoError(t, err)

	_, err = carts.AddItem(ctx, sess, item.ID)
	assert.ErrorIs(t, err, ErrCheckoutInProgress)
	_, err = carts.Undo(ctx, sess)
	assert.ErrorIs(t, err, ErrCheckoutInProgress)

	_, err = checkout.Cancel(ctx, sess)
	require.NoError(t, err)
	view, err := carts.AddItem(ctx, sess, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, view.ItemCount)
	assert.Equal(t, PhaseIdle, view.Phase)
}

func TestCartService_MutationDuringReviewReturnsToIdle(t *testing.T) {
	env := newTestEnv(t)
	carts := env.cartService()
	checkout := env.checkoutService(t, nil, nil)
	sess := env.store.Create()
	ctx := context.Background()
	item := env.createItem(t, "Muffin", "45.00", 5)
	fill(t, carts, sess, item.ID, 1)

	_, err := checkout.Review(ctx, sess)
	require.NoError(t, err)

	view, err := carts.AddItem(ctx, sess, item.ID)
	require.NoError(t, err)
	assert.Equal(t, PhaseIdle, view.Phase)
}

func TestComputeTotals(t *testing.T) {
	lines := []CartLine{{Item: models.Item{ID: 1, Name: "A", Price: dec("100.00")}, Quantity: 1}}
	totals := ComputeTotals(lines, testVAT).Rounded()
	assert.True(t, totals.Subtotal.Equal(dec("100.00")))
	assert.True(t, totals.VAT.Equal(dec("12.00")))
	assert.True(t, totals.Total.Equal(dec("112.00")))

	lines = []CartLine{{Item: models.Item{ID: 2, Name: "B", Price: dec("33.33")}, Quantity: 3}}
	exact := ComputeTotals(lines, testVAT)
	assert.True(t, exact.VAT.Equal(dec("11.9988")))
	rounded := exact.Rounded()
	assert.True(t, rounded.Subtotal.Equal(dec("99.99")))
	assert.True(t, rounded.VAT.Equal(dec("12.00")))
	assert.True(t, rounded.Total.Equal(dec("111.99")))

	empty := ComputeTotals(nil, testVAT).Rounded()
	assert.True(t, empty.Total.IsZero())
}

func TestUndoStack_DropsOldest(t *testing.T) {
	s := newUndoStack(3)
	for i := int64(1); i <= 5; i++ {
		s.push(SetLineQuantity{ItemID: i})
	}
	assert.Equal(t, 3, s.len())

	e, ok := s.pop()
	require.True(t, ok)
	assert.Equal(t, int64(5), e.(SetLineQuantity).ItemID)

	s.replace(RestoreWholeCart{})
	assert.Equal(t, 1, s.len())
	s.clear()
	_, ok = s.pop()
	assert.False(t, ok)
}

func TestSession_IdleReset(t *testing.T) {
	env := newTestEnv(t)
	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	env.store.now = func() time.Time { return clock }

	carts := env.cartService()
	sess := env.store.Create()
	item := env.createItem(t, "Gum", "5.00", 10)
	fill(t, carts, sess, item.ID, 2)

	clock = clock.Add(time.Minute)
	assert.Equal(t, 2, carts.View(context.Background(), sess).ItemCount, "activity within timeout keeps the cart")

	clock = clock.Add(4 * time.Minute)
	view := carts.View(context.Background(), sess)
	assert.Empty(t, view.Lines)
	assert.Zero(t, view.UndoDepth)
	assert.Equal(t, PhaseIdle, view.Phase)
}

func TestSessionStore_SweepAndEvict(t *testing.T) {
	env := newTestEnv(t)
	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	env.store.now = func() time.Time { return clock }

	carts := env.cartService()
	item := env.createItem(t, "Candy", "3.00", 10)
	busy := env.store.Create()
	fill(t, carts, busy, item.ID, 1)
	env.store.Create()

	clock = clock.Add(10 * time.Minute)
	reset, evicted := env.store.Sweep()
	assert.Equal(t, 1, reset)
	assert.Zero(t, evicted)
	assert.True(t, busy.cart.IsEmpty())

	clock = clock.Add(25 * time.Hour)
	_, evicted = env.store.Sweep()
	assert.Equal(t, 2, evicted)
	assert.Zero(t, env.store.Len())

	_, err := env.store.Get(busy.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(PhaseIdle, PhaseReviewing))
	assert.True(t, CanTransition(PhaseReviewing, PhaseAwaitingPayment))
	assert.True(t, CanTransition(PhaseAwaitingPayment, PhaseCommitting))
	assert.True(t, CanTransition(PhaseCommitting, PhaseFailed))
	assert.False(t, CanTransition(PhaseIdle, PhaseAwaitingPayment))
	assert.False(t, CanTransition(PhaseIdle, PhaseCommitting))
	assert.False(t, CanTransition(PhaseCommitting, PhaseIdle))
}
