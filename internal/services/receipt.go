package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"kiosk_pos_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// Receipt is the completed order summary handed to a renderer.
type Receipt struct {
	OrderNumber   string
	CreatedAt     time.Time
	Lines         []CartLineView
	Totals        Totals
	VATRate       decimal.Decimal
	PaymentMethod string
	AmountGiven   decimal.Decimal
	Change        decimal.Decimal
}

// ReceiptRenderer persists a receipt artifact and returns where it was stored.
type ReceiptRenderer interface {
	Render(ctx context.Context, receipt Receipt) (string, error)
}

// StoreInfo is the header printed on every receipt.
type StoreInfo struct {
	Name     string
	Address  string
	Contact  string
	Currency string
}

const receiptWidth = 40

const receiptTemplate = `{{center .Store.Name}}
{{center .Store.Address}}
{{center .Store.Contact}}
{{rule}}
Order: {{.Receipt.OrderNumber}}
Date:  {{.Receipt.CreatedAt.Format "2006-01-02 15:04:05"}}
{{rule}}
{{range .Receipt.Lines}}{{.Name}}
{{row (printf "  %d x %s" .Quantity (money .UnitPrice)) (money .LineTotal)}}
{{end}}{{rule}}
{{row "Subtotal" (money .Receipt.Totals.Subtotal)}}
{{row (printf "VAT (%s%%)" (percent .Receipt.VATRate)) (money .Receipt.Totals.VAT)}}
{{row (printf "TOTAL (%s)" .Store.Currency) (money .Receipt.Totals.Total)}}
{{rule}}
{{row "Payment" (upper .Receipt.PaymentMethod)}}
{{row "Amount given" (money .Receipt.AmountGiven)}}
{{row "Change" (money .Receipt.Change)}}
{{rule}}
{{center (printf "Thank you for shopping at %s!" .Store.Name)}}
{{center "Visit again."}}
`

// TextReceiptRenderer writes plain-text receipts to <dir>/<order_number>.txt.
type TextReceiptRenderer struct {
	dir   string
	store StoreInfo
	tmpl  *template.Template
}

func NewTextReceiptRenderer(dir string, store StoreInfo) (*TextReceiptRenderer, error) {
	funcs := template.FuncMap{
		"money":   utils.FormatMoney,
		"upper":   strings.ToUpper,
		"percent": func(rate decimal.Decimal) string { return rate.Mul(decimal.NewFromInt(100)).String() },
		"rule":    func() string { return strings.Repeat("-", receiptWidth) },
		"center":  centerText,
		"row":     rowText,
	}
	tmpl, err := template.New("receipt").Funcs(funcs).Parse(receiptTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing receipt template: %w", err)
	}
	return &TextReceiptRenderer{dir: dir, store: store, tmpl: tmpl}, nil
}

func (r *TextReceiptRenderer) Render(ctx context.Context, receipt Receipt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if receipt.OrderNumber == "" || strings.ContainsAny(receipt.OrderNumber, `/\`) {
		return "", fmt.Errorf("invalid order number %q for receipt", receipt.OrderNumber)
	}

	var buf bytes.Buffer
	data := struct {
		Store   StoreInfo
		Receipt Receipt
	}{r.store, receipt}
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering receipt %s: %w", receipt.OrderNumber, err)
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating receipt directory %s: %w", r.dir, err)
	}
	path := filepath.Join(r.dir, receipt.OrderNumber+".txt")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("writing receipt %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("finalizing receipt %s: %w", path, err)
	}
	return path, nil
}

func centerText(s string) string {
	if len(s) >= receiptWidth {
		return s
	}
	return strings.Repeat(" ", (receiptWidth-len(s))/2) + s
}

func rowText(left, right string) string {
	gap := receiptWidth - len(left) - len(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}
