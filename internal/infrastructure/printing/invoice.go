package printing

import (
	"bytes"
	"context"
	"html/template"
	"strings"
	"time"

	orderapp "github.com/shopfront/backend/internal/application/order"
	"github.com/shopfront/backend/internal/domain/order"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var _ orderapp.InvoiceRenderer = (*InvoiceRenderer)(nil)

// InvoiceConfig configures invoice layout and rendering limits
type InvoiceConfig struct {
	StoreName string
	// Currency is an ISO 4217 code
	Currency  string
	PaperSize PaperSize
	Timeout   time.Duration
	// MaxConcurrency bounds simultaneous Chrome renders
	MaxConcurrency int
}

// InvoiceRenderer turns orders into PDF invoices
type InvoiceRenderer struct {
	config   InvoiceConfig
	pdf      PDFRenderer
	tmpl     *template.Template
	slots    chan struct{}
	currency string
	logger   *zap.Logger
}

// NewInvoiceRenderer creates an InvoiceRenderer on top of a PDF renderer
func NewInvoiceRenderer(config InvoiceConfig, pdf PDFRenderer, logger *zap.Logger) *InvoiceRenderer {
	if config.StoreName == "" {
		config.StoreName = "Shopfront"
	}
	if !config.PaperSize.IsValid() {
		config.PaperSize = PaperSizeA4
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 2
	}

	code := strings.ToUpper(config.Currency)
	if unit, err := currency.ParseISO(config.Currency); err == nil {
		code = unit.String()
	} else if code == "" {
		code = currency.USD.String()
	}

	r := &InvoiceRenderer{
		config:   config,
		pdf:      pdf,
		slots:    make(chan struct{}, config.MaxConcurrency),
		currency: code,
		logger:   logger,
	}
	r.tmpl = template.Must(template.New("invoice").Funcs(template.FuncMap{
		"money": r.formatMoney,
		"title": titleCase,
		"date":  formatDate,
		"deref": func(t *time.Time) time.Time { return *t },
	}).Parse(invoiceTemplate))
	return r
}

// Render implements orderapp.InvoiceRenderer
func (r *InvoiceRenderer) Render(ctx context.Context, o *order.Order) ([]byte, error) {
	htmlDoc, err := r.RenderHTML(o)
	if err != nil {
		return nil, err
	}

	select {
	case r.slots <- struct{}{}:
		defer func() { <-r.slots }()
	case <-ctx.Done():
		return nil, NewRenderError(ErrCodeRenderTimeout, "waiting for a free renderer", ctx.Err())
	}

	result, err := r.pdf.Render(ctx, &RenderRequest{
		HTML:       htmlDoc,
		PaperSize:  r.config.PaperSize,
		Margins:    DefaultMargins(),
		Title:      "Invoice " + o.OrderNumber,
		FooterHTML: footerTemplate,
		Timeout:    r.config.Timeout,
	})
	if err != nil {
		return nil, err
	}
	r.logger.Info("invoice rendered",
		zap.String("order_number", o.OrderNumber),
		zap.Int("pages", result.PageCount),
		zap.Duration("duration", result.RenderDuration))
	return result.PDFData, nil
}

// RenderHTML executes the invoice template for the order
func (r *InvoiceRenderer) RenderHTML(o *order.Order) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, invoiceView{
		StoreName: r.config.StoreName,
		Order:     o,
		Issued:    o.CreatedAt,
	}); err != nil {
		return "", NewRenderError(ErrCodeTemplateFailed, "failed to execute invoice template", err)
	}
	return buf.String(), nil
}

// Printers and casers keep per-call state, so each template call builds its own.
func (r *InvoiceRenderer) formatMoney(d decimal.Decimal) string {
	p := message.NewPrinter(language.English)
	return r.currency + " " + p.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
}

func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("Jan 2, 2006")
}

type invoiceView struct {
	StoreName string
	Order     *order.Order
	Issued    time.Time
}

// Chrome substitutes the pageNumber and totalPages classes
const footerTemplate = `<div style="font-size:8px;width:100%;text-align:center;color:#888">` +
	`Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`

const invoiceTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Invoice {{.Order.OrderNumber}}</title>
<style>
  body { font-family: Helvetica, Arial, sans-serif; font-size: 12px; color: #222; }
  h1 { font-size: 20px; margin: 0 0 4px; }
  table { width: 100%; border-collapse: collapse; margin-top: 16px; }
  th, td { padding: 6px 4px; border-bottom: 1px solid #ddd; text-align: left; }
  td.num, th.num { text-align: right; }
  .totals td { border: none; }
  .muted { color: #777; }
</style>
</head>
<body>
<h1>{{.StoreName}}</h1>
<div class="muted">Invoice {{.Order.OrderNumber}} &middot; {{date .Issued}}</div>

<table>
  <tr>
    <td>
      <strong>Ship to</strong><br>
      {{with .Order.ShippingAddress}}{{.FullName}}<br>{{.Line1}}{{if .Line2}}<br>{{.Line2}}{{end}}<br>
      {{.City}}{{if .State}}, {{.State}}{{end}} {{.PostalCode}}<br>{{.Country}}{{end}}
    </td>
    <td>
      <strong>Status</strong> {{title (print .Order.Status)}}<br>
      <strong>Payment</strong> {{print .Order.PaymentMethod}} ({{print .Order.PaymentStatus}}){{if .Order.PaidAt}}, paid {{date (deref .Order.PaidAt)}}{{end}}
    </td>
  </tr>
</table>

<table>
  <thead>
    <tr><th>Item</th><th class="num">Unit price</th><th class="num">Qty</th><th class="num">Subtotal</th></tr>
  </thead>
  <tbody>
  {{range .Order.Items}}
    <tr><td>{{.Name}}</td><td class="num">{{money .UnitPrice}}</td><td class="num">{{.Quantity}}</td><td class="num">{{money .Subtotal}}</td></tr>
  {{end}}
  </tbody>
</table>

<table class="totals">
  <tr><td class="num">Items</td><td class="num">{{money .Order.ItemsPrice}}</td></tr>
  <tr><td class="num">Shipping</td><td class="num">{{money .Order.ShippingPrice}}</td></tr>
  <tr><td class="num">Tax</td><td class="num">{{money .Order.TaxPrice}}</td></tr>
  <tr><td class="num"><strong>Total</strong></td><td class="num"><strong>{{money .Order.TotalPrice}}</strong></td></tr>
</table>
{{if .Order.Note}}<p class="muted">Note: {{.Order.Note}}</p>{{end}}
</body>
</html>
`
