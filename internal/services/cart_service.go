package services

import (
	"context"
	"errors"
	"fmt"

	"kiosk_pos_backend/internal/metrics"
	"kiosk_pos_backend/internal/repositories"
	"kiosk_pos_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// CartLineView is a cart line as shown on the touchscreen.
type CartLineView struct {
	ItemID    int64           `json:"item_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// CartView is a rounded, read-only rendering of a session's cart.
type CartView struct {
	SessionID string         `json:"session_id"`
	Phase     Phase          `json:"phase"`
	Lines     []CartLineView `json:"lines"`
	ItemCount int            `json:"item_count"`
	Totals    Totals         `json:"totals"`
	UndoDepth int            `json:"undo_depth"`
}

// CartService mutates a session's cart under the stock ceiling and records undo history.
type CartService interface {
	View(ctx context.Context, sess *Session) *CartView
	Totals(sess *Session) Totals
	AddItem(ctx context.Context, sess *Session, itemID int64) (*CartView, error)
	ChangeQuantity(ctx context.Context, sess *Session, itemID int64, delta int) (*CartView, error)
	RemoveItem(ctx context.Context, sess *Session, itemID int64) (*CartView, error)
	Clear(ctx context.Context, sess *Session) (*CartView, error)
	Undo(ctx context.Context, sess *Session) (*CartView, error)
	Reset(ctx context.Context, sess *Session) *CartView
}

type cartService struct {
	itemRepo repositories.ItemRepository
	metrics  *metrics.Metrics
	vatRate  decimal.Decimal
}

// NewCartService creates a new instance of CartService.
func NewCartService(itemRepo repositories.ItemRepository, m *metrics.Metrics, vatRate decimal.Decimal) CartService {
	return &cartService{itemRepo: itemRepo, metrics: m, vatRate: vatRate}
}

func (s *cartService) View(ctx context.Context, sess *Session) *CartView {
	release := sess.acquire()
	defer release()
	return buildCartView(sess, s.vatRate)
}

// Totals returns the exact, unrounded totals.
func (s *cartService) Totals(sess *Session) Totals {
	release := sess.acquire()
	defer release()
	return ComputeTotals(sess.cart.Lines(), s.vatRate)
}

func (s *cartService) AddItem(ctx context.Context, sess *Session, itemID int64) (*CartView, error) {
	release := sess.acquire()
	defer release()

	if err := beginCartMutation(sess); err != nil {
		s.reject("checkout_in_progress")
		return nil, err
	}

	item, err := s.itemRepo.GetItemByID(ctx, nil, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: item ID %d", ErrItemNotFound, itemID)
		}
		return nil, fmt.Errorf("failed to fetch item %d: %w", itemID, err)
	}
	if !item.Active {
		return nil, fmt.Errorf("%w: item ID %d", ErrItemNotFound, itemID)
	}

	prev, inCart := sess.cart.Line(itemID)
	current := prev.Quantity
	if current+1 > item.Stock {
		utils.LogDebug("Add rejected by stock ceiling", map[string]interface{}{
			"session_id": sess.ID, "item_id": itemID, "in_cart": current, "stock": item.Stock,
		})
		s.reject("stock_exceeded")
		return nil, fmt.Errorf("%w: %s has %d in stock", ErrStockExceeded, item.Name, item.Stock)
	}

	snapshot := *item
	if inCart {
		snapshot = prev.Item
	}
	sess.cart.set(*item, current+1)
	sess.undo.push(SetLineQuantity{ItemID: itemID, PreviousQuantity: current, Snapshot: snapshot})
	return buildCartView(sess, s.vatRate), nil
}

// ChangeQuantity adds delta to an existing line. An absent line is left alone.
// A resulting quantity <= 0 removes the line.
func (s *cartService) ChangeQuantity(ctx context.Context, sess *Session, itemID int64, delta int) (*CartView, error) {
	release := sess.acquire()
	defer release()

	line, ok := sess.cart.Line(itemID)
	if !ok || delta == 0 {
		return buildCartView(sess, s.vatRate), nil
	}
	if err := beginCartMutation(sess); err != nil {
		s.reject("checkout_in_progress")
		return nil, err
	}

	if delta < 0 {
		// line.Quantity >= 1, so the sum cannot underflow.
		newQuantity := line.Quantity + delta
		if newQuantity <= 0 {
			sess.cart.remove(itemID)
		} else {
			sess.cart.setQuantity(itemID, newQuantity)
		}
		sess.undo.push(SetLineQuantity{ItemID: itemID, PreviousQuantity: line.Quantity, Snapshot: line.Item})
		return buildCartView(sess, s.vatRate), nil
	}

	item, err := s.itemRepo.GetItemByID(ctx, nil, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: item ID %d", ErrItemNotFound, itemID)
		}
		return nil, fmt.Errorf("failed to fetch item %d: %w", itemID, err)
	}
	if !item.Active {
		return nil, fmt.Errorf("%w: item ID %d", ErrItemNotFound, itemID)
	}
	// Headroom form: line.Quantity+delta overflows for huge deltas.
	if delta > item.Stock-line.Quantity {
		s.reject("stock_exceeded")
		return nil, fmt.Errorf("%w: %s has %d in stock", ErrStockExceeded, item.Name, item.Stock)
	}

	sess.cart.setQuantity(itemID, line.Quantity+delta)
	sess.undo.push(SetLineQuantity{ItemID: itemID, PreviousQuantity: line.Quantity, Snapshot: line.Item})
	return buildCartView(sess, s.vatRate), nil
}

func (s *cartService) RemoveItem(ctx context.Context, sess *Session, itemID int64) (*CartView, error) {
	release := sess.acquire()
	defer release()

	line, ok := sess.cart.Line(itemID)
	if !ok {
		return buildCartView(sess, s.vatRate), nil
	}
	if err := beginCartMutation(sess); err != nil {
		s.reject("checkout_in_progress")
		return nil, err
	}

	sess.cart.remove(itemID)
	sess.undo.push(SetLineQuantity{ItemID: itemID, PreviousQuantity: line.Quantity, Snapshot: line.Item})
	return buildCartView(sess, s.vatRate), nil
}

// Clear empties the cart. The whole pre-clear cart becomes the only undo entry.
func (s *cartService) Clear(ctx context.Context, sess *Session) (*CartView, error) {
	release := sess.acquire()
	defer release()

	if sess.cart.IsEmpty() {
		s.reject("cart_already_empty")
		return nil, ErrCartAlreadyEmpty
	}
	if err := beginCartMutation(sess); err != nil {
		s.reject("checkout_in_progress")
		return nil, err
	}

	sess.undo.replace(RestoreWholeCart{Lines: sess.cart.snapshot()})
	sess.cart.reset()
	return buildCartView(sess, s.vatRate), nil
}

func (s *cartService) Undo(ctx context.Context, sess *Session) (*CartView, error) {
	release := sess.acquire()
	defer release()

	if sess.undo.len() == 0 {
		s.reject("nothing_to_undo")
		return nil, ErrNothingToUndo
	}
	if err := beginCartMutation(sess); err != nil {
		s.reject("checkout_in_progress")
		return nil, err
	}

	entry, _ := sess.undo.pop()
	switch e := entry.(type) {
	case SetLineQuantity:
		s.undoSetLine(ctx, sess, e)
	case RestoreWholeCart:
		sess.cart.restore(e.Lines)
	}
	return buildCartView(sess, s.vatRate), nil
}

func (s *cartService) undoSetLine(ctx context.Context, sess *Session, e SetLineQuantity) {
	if e.PreviousQuantity <= 0 {
		sess.cart.remove(e.ItemID)
		return
	}
	if _, ok := sess.cart.Line(e.ItemID); ok {
		sess.cart.set(e.Snapshot, e.PreviousQuantity)
		return
	}

	item := e.Snapshot
	fresh, err := s.itemRepo.GetItemByID(ctx, nil, e.ItemID)
	if err == nil {
		item = *fresh
	} else {
		utils.LogWarn("Undo restoring line from snapshot", map[string]interface{}{
			"session_id": sess.ID, "item_id": e.ItemID, "error": err.Error(),
		})
	}
	sess.cart.set(item, e.PreviousQuantity)
}

// Reset wipes cart, undo history and checkout phase.
func (s *cartService) Reset(ctx context.Context, sess *Session) *CartView {
	release := sess.acquire()
	defer release()
	if sess.phase != PhaseCommitting {
		sess.resetLocked()
	}
	return buildCartView(sess, s.vatRate)
}

func (s *cartService) reject(reason string) {
	if s.metrics != nil {
		s.metrics.CartRejections.WithLabelValues(reason).Inc()
	}
}

// beginCartMutation refuses edits during payment and drops a stale review.
func beginCartMutation(sess *Session) error {
	switch sess.phase {
	case PhaseAwaitingPayment, PhaseCommitting:
		return ErrCheckoutInProgress
	case PhaseReviewing, PhaseCompleted, PhaseFailed:
		sess.phase = PhaseIdle
	}
	return nil
}

func buildCartView(sess *Session, vatRate decimal.Decimal) *CartView {
	lines := sess.cart.Lines()
	view := &CartView{
		SessionID: sess.ID,
		Phase:     sess.phase,
		Lines:     make([]CartLineView, 0, len(lines)),
		Totals:    ComputeTotals(lines, vatRate).Rounded(),
		UndoDepth: sess.undo.len(),
	}
	for _, l := range lines {
		view.Lines = append(view.Lines, CartLineView{
			ItemID:    l.Item.ID,
			Name:      l.Item.Name,
			UnitPrice: l.Item.Price.Round(2),
			Quantity:  l.Quantity,
			LineTotal: l.LineTotal().Round(2),
		})
		view.ItemCount += l.Quantity
	}
	return view
}
