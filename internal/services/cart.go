package services

import (
	"sort"

	"kiosk_pos_backend/internal/models"

	"github.com/shopspring/decimal"
)

// CartLine is one item snapshot and its quantity. Quantity is always >= 1.
type CartLine struct {
	Item     models.Item
	Quantity int
}

// LineTotal is the exact, unrounded price of the line.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.Item.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart maps item id to its line. At most one line per item.
type Cart struct {
	lines map[int64]*CartLine
}

func NewCart() *Cart {
	return &Cart{lines: make(map[int64]*CartLine)}
}

func (c *Cart) Len() int      { return len(c.lines) }
func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }

// Quantity returns the quantity of itemID, 0 if absent.
func (c *Cart) Quantity(itemID int64) int {
	if l, ok := c.lines[itemID]; ok {
		return l.Quantity
	}
	return 0
}

func (c *Cart) Line(itemID int64) (CartLine, bool) {
	l, ok := c.lines[itemID]
	if !ok {
		return CartLine{}, false
	}
	return *l, true
}

// Lines returns a copy of all lines ordered by item name, then id.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, 0, len(c.lines))
	for _, l := range c.lines {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Item.Name != out[j].Item.Name {
			return out[i].Item.Name < out[j].Item.Name
		}
		return out[i].Item.ID < out[j].Item.ID
	})
	return out
}

// set stores item at quantity; a quantity <= 0 removes the line.
func (c *Cart) set(item models.Item, quantity int) {
	if quantity <= 0 {
		delete(c.lines, item.ID)
		return
	}
	c.lines[item.ID] = &CartLine{Item: item, Quantity: quantity}
}

func (c *Cart) setQuantity(itemID int64, quantity int) {
	if quantity <= 0 {
		delete(c.lines, itemID)
		return
	}
	if l, ok := c.lines[itemID]; ok {
		l.Quantity = quantity
	}
}

func (c *Cart) remove(itemID int64) {
	delete(c.lines, itemID)
}

func (c *Cart) snapshot() map[int64]CartLine {
	snap := make(map[int64]CartLine, len(c.lines))
	for id, l := range c.lines {
		snap[id] = *l
	}
	return snap
}

func (c *Cart) restore(snap map[int64]CartLine) {
	c.lines = make(map[int64]*CartLine, len(snap))
	for id, l := range snap {
		l := l
		c.lines[id] = &l
	}
}

func (c *Cart) reset() {
	c.lines = make(map[int64]*CartLine)
}

// UndoEntry is one reversible cart mutation. The set of variants is closed:
// SetLineQuantity and RestoreWholeCart.
type UndoEntry interface {
	isUndoEntry()
}

// SetLineQuantity restores one line. PreviousQuantity 0 means the line was absent.
// Snapshot is the item as it was when the entry was recorded.
type SetLineQuantity struct {
	ItemID           int64
	PreviousQuantity int
	Snapshot         models.Item
}

// RestoreWholeCart restores the cart as it was before a clear.
type RestoreWholeCart struct {
	Lines map[int64]CartLine
}

func (SetLineQuantity) isUndoEntry()  {}
func (RestoreWholeCart) isUndoEntry() {}

// undoStack is a LIFO bounded to limit entries; the oldest entry drops off first.
type undoStack struct {
	entries []UndoEntry
	limit   int
}

func newUndoStack(limit int) *undoStack {
	if limit <= 0 {
		limit = 50
	}
	return &undoStack{limit: limit}
}

func (s *undoStack) push(e UndoEntry) {
	s.entries = append(s.entries, e)
	if over := len(s.entries) - s.limit; over > 0 {
		s.entries = append([]UndoEntry(nil), s.entries[over:]...)
	}
}

func (s *undoStack) pop() (UndoEntry, bool) {
	if len(s.entries) == 0 {
		return nil, false
	}
	e := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	return e, true
}

// replace discards all history and leaves e as the only entry.
func (s *undoStack) replace(e UndoEntry) {
	s.entries = []UndoEntry{e}
}

func (s *undoStack) clear()   { s.entries = nil }
func (s *undoStack) len() int { return len(s.entries) }

// Totals are derived from the cart on demand and never stored.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	VAT      decimal.Decimal `json:"vat"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeTotals returns exact totals for lines at the given VAT rate.
func ComputeTotals(lines []CartLine, vatRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineTotal())
	}
	vat := subtotal.Mul(vatRate)
	return Totals{Subtotal: subtotal, VAT: vat, Total: subtotal.Add(vat)}
}

// Rounded rounds to currency precision. Total is the sum of the rounded parts
// so a printed receipt always adds up.
func (t Totals) Rounded() Totals {
	sub := t.Subtotal.Round(2)
	vat := t.VAT.Round(2)
	return Totals{Subtotal: sub, VAT: vat, Total: sub.Add(vat)}
}
