package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"kiosk_pos_backend/internal/database"
	"kiosk_pos_backend/internal/metrics"
	"kiosk_pos_backend/internal/models"
	"kiosk_pos_backend/internal/repositories"
	"kiosk_pos_backend/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// maxOrderNumberAttempts bounds regeneration of a colliding order number.
const maxOrderNumberAttempts = 3

// PaymentRequest is the payment captured at the kiosk.
type PaymentRequest struct {
	Method      string           `json:"method" binding:"required"`
	AmountGiven *decimal.Decimal `json:"amount_given"`
}

// CheckoutResult describes a committed order. ReceiptError is set when the
// order stands but its receipt could not be produced.
type CheckoutResult struct {
	Order        *models.Order   `json:"order"`
	Change       decimal.Decimal `json:"change"`
	ReceiptPath  string          `json:"receipt_path,omitempty"`
	ReceiptError string          `json:"receipt_error,omitempty"`
}

// CheckoutService drives a session through review, payment and order commit.
type CheckoutService interface {
	Review(ctx context.Context, sess *Session) (*CartView, error)
	BeginPayment(ctx context.Context, sess *Session) (*CartView, error)
	Cancel(ctx context.Context, sess *Session) (*CartView, error)
	Pay(ctx context.Context, sess *Session, req PaymentRequest) (*CheckoutResult, error)
}

type checkoutService struct {
	db            *sql.DB
	itemRepo      repositories.ItemRepository
	orderRepo     repositories.OrderRepository
	movementRepo  repositories.StockMovementRepository
	renderer      ReceiptRenderer
	metrics       *metrics.Metrics
	vatRate       decimal.Decimal
	commitRetries uint64
	now           func() time.Time
}

// NewCheckoutService creates a new instance of CheckoutService.
func NewCheckoutService(
	db *sql.DB,
	itemRepo repositories.ItemRepository,
	orderRepo repositories.OrderRepository,
	movementRepo repositories.StockMovementRepository,
	renderer ReceiptRenderer,
	m *metrics.Metrics,
	vatRate decimal.Decimal,
	commitRetries uint64,
) CheckoutService {
	return &checkoutService{
		db:            db,
		itemRepo:      itemRepo,
		orderRepo:     orderRepo,
		movementRepo:  movementRepo,
		renderer:      renderer,
		metrics:       m,
		vatRate:       vatRate,
		commitRetries: commitRetries,
		now:           time.Now,
	}
}

// Review shows the cart totals before payment. An empty cart is refused.
func (s *checkoutService) Review(ctx context.Context, sess *Session) (*CartView, error) {
	release := sess.acquire()
	defer release()

	if sess.cart.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if err := sess.transitionLocked(PhaseReviewing); err != nil {
		return nil, err
	}
	return buildCartView(sess, s.vatRate), nil
}

func (s *checkoutService) BeginPayment(ctx context.Context, sess *Session) (*CartView, error) {
	release := sess.acquire()
	defer release()

	if err := sess.transitionLocked(PhaseAwaitingPayment); err != nil {
		return nil, err
	}
	return buildCartView(sess, s.vatRate), nil
}

// Cancel abandons review or payment. The cart is kept.
func (s *checkoutService) Cancel(ctx context.Context, sess *Session) (*CartView, error) {
	release := sess.acquire()
	defer release()

	if sess.phase == PhaseIdle {
		return buildCartView(sess, s.vatRate), nil
	}
	if err := sess.transitionLocked(PhaseIdle); err != nil {
		return nil, err
	}
	return buildCartView(sess, s.vatRate), nil
}

func (s *checkoutService) Pay(ctx context.Context, sess *Session, req PaymentRequest) (*CheckoutResult, error) {
	release := sess.acquire()
	defer release()

	if sess.phase != PhaseAwaitingPayment {
		return nil, ErrInvalidCheckoutState
	}
	if sess.cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	lines := sess.cart.Lines()
	totals := ComputeTotals(lines, s.vatRate).Rounded()

	method := strings.ToLower(strings.TrimSpace(req.Method))
	var given decimal.Decimal
	switch method {
	case models.PaymentMethodCash:
		if req.AmountGiven == nil || req.AmountGiven.LessThan(totals.Total) {
			s.metrics.CheckoutFailures.WithLabelValues("insufficient_payment").Inc()
			return nil, fmt.Errorf("%w: total is %s", ErrInsufficientPayment, utils.FormatMoney(totals.Total))
		}
		given = req.AmountGiven.Round(2)
	case models.PaymentMethodCashless:
		given = totals.Total
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, req.Method)
	}
	change := given.Sub(totals.Total).Round(2)

	if err := sess.transitionLocked(PhaseCommitting); err != nil {
		return nil, err
	}

	start := time.Now()
	order, err := s.commitOrder(ctx, lines, totals, method, given, change)
	s.metrics.CommitDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		_ = sess.transitionLocked(PhaseFailed)
		_ = sess.transitionLocked(PhaseIdle)
		s.metrics.CheckoutFailures.WithLabelValues(failureReason(err)).Inc()
		utils.LogError(err, "Order commit failed, rolled back", map[string]interface{}{"session_id": sess.ID})
		if errors.Is(err, ErrStockExceeded) || errors.Is(err, ErrItemNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrCommitFailure, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrCommitFailure, err)
	}

	s.metrics.OrdersCommitted.WithLabelValues(method).Inc()
	s.metrics.Revenue.WithLabelValues(method).Add(totals.Total.InexactFloat64())
	utils.LogInfo("Order committed", map[string]interface{}{
		"session_id": sess.ID, "order_id": order.ID, "order_number": order.OrderNumber,
		"total": totals.Total.String(), "payment_method": method,
	})

	result := &CheckoutResult{Order: order, Change: change}
	s.attachReceipt(ctx, order, lines, totals, method, given, change, result)

	_ = sess.transitionLocked(PhaseCompleted)
	sess.cart.reset()
	sess.undo.clear()
	_ = sess.transitionLocked(PhaseIdle)
	return result, nil
}

// commitOrder writes order, lines, stock decrements and movements in one
// transaction. Busy stores are retried; a colliding order number gets a new one.
func (s *checkoutService) commitOrder(ctx context.Context, lines []CartLine, totals Totals, method string, given, change decimal.Decimal) (*models.Order, error) {
	var (
		order *models.Order
		err   error
	)
	for attempt := 0; attempt < maxOrderNumberAttempts; attempt++ {
		err = database.WithRetry(ctx, s.commitRetries, func() error {
			order = &models.Order{
				OrderNumber:   newOrderNumber(s.now()),
				CreatedAt:     s.now().UTC(),
				Subtotal:      totals.Subtotal,
				VATAmount:     totals.VAT,
				TotalAmount:   totals.Total,
				PaymentMethod: method,
			}
			if method == models.PaymentMethodCash {
				order.CashGiven = decimal.NewNullDecimal(given)
				order.ChangeAmount = decimal.NewNullDecimal(change)
			}
			return database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
				return s.writeOrder(ctx, tx, order, lines)
			})
		})
		if !errors.Is(err, repositories.ErrDuplicateKey) {
			break
		}
		utils.LogWarn("Order number collision, regenerating", map[string]interface{}{"order_number": order.OrderNumber})
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *checkoutService) writeOrder(ctx context.Context, tx *sql.Tx, order *models.Order, lines []CartLine) error {
	if _, err := s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		return err
	}

	order.Lines = make([]models.OrderLine, 0, len(lines))
	for _, l := range lines {
		line := models.OrderLine{
			OrderID:   order.ID,
			ItemID:    l.Item.ID,
			ItemName:  l.Item.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.Item.Price,
			LineTotal: l.LineTotal().Round(2),
		}
		if _, err := s.orderRepo.CreateOrderLine(ctx, tx, &line); err != nil {
			return err
		}

		if err := s.itemRepo.DecrementStock(ctx, tx, l.Item.ID, l.Quantity); err != nil {
			if errors.Is(err, repositories.ErrInsufficientStock) || errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: %s: %v", ErrStockExceeded, l.Item.Name, err)
			}
			if errors.Is(err, repositories.ErrItemInactive) {
				return fmt.Errorf("%w: %s is no longer sold: %v", ErrItemNotFound, l.Item.Name, err)
			}
			return err
		}

		movement := models.StockMovement{
			ItemID:    l.Item.ID,
			Delta:     -l.Quantity,
			Reason:    models.MovementReasonSale,
			CreatedAt: order.CreatedAt,
		}
		if _, err := s.movementRepo.CreateMovement(ctx, tx, &movement); err != nil {
			return err
		}
		order.Lines = append(order.Lines, line)
	}
	return nil
}

// attachReceipt renders the receipt after commit. Failures are reported on
// result; the order is already durable.
func (s *checkoutService) attachReceipt(ctx context.Context, order *models.Order, lines []CartLine, totals Totals, method string, given, change decimal.Decimal, result *CheckoutResult) {
	receipt := Receipt{
		OrderNumber:   order.OrderNumber,
		CreatedAt:     order.CreatedAt,
		Lines:         make([]CartLineView, 0, len(lines)),
		Totals:        totals,
		VATRate:       s.vatRate,
		PaymentMethod: method,
		AmountGiven:   given,
		Change:        change,
	}
	for _, l := range lines {
		receipt.Lines = append(receipt.Lines, CartLineView{
			ItemID: l.Item.ID, Name: l.Item.Name, UnitPrice: l.Item.Price.Round(2),
			Quantity: l.Quantity, LineTotal: l.LineTotal().Round(2),
		})
	}

	path, err := s.renderer.Render(ctx, receipt)
	if err == nil {
		err = s.orderRepo.SetReceiptPath(ctx, s.db, order.ID, path)
	}
	if err != nil {
		s.metrics.CheckoutFailures.WithLabelValues("receipt").Inc()
		utils.LogError(err, "Receipt not produced for committed order", map[string]interface{}{"order_number": order.OrderNumber})
		result.ReceiptError = err.Error()
		return
	}
	order.ReceiptPath = &path
	result.ReceiptPath = path
}

// newOrderNumber returns QS-YYYYMMDD-HHMMSS-xxxx; the suffix is random hex.
func newOrderNumber(t time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:4]
	return fmt.Sprintf("QS-%s-%s", t.UTC().Format("20060102-150405"), suffix)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrStockExceeded):
		return "stock_exceeded"
	case errors.Is(err, ErrItemNotFound):
		return "item_unavailable"
	case errors.Is(err, repositories.ErrBusy):
		return "busy"
	case errors.Is(err, repositories.ErrDuplicateKey):
		return "order_number_collision"
	}
	return "database"
}
