package pdf

import (
	"context"

	"go.uber.org/fx"
)

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)

type Provider interface {
	GenerateInvoice(ctx context.Context, data InvoiceData) ([]byte, error)
	GenerateReceipt(ctx context.Context, data ReceiptData) ([]byte, error)
}

type InvoiceData struct {
	OrgName       string
	OrgAddress    string
	OrgEmail      string
	InvoiceNumber string
	IssueDate     string
	DueDate       string
	ServiceDate   string
	Reference     string

	BillToName    string
	BillToEmail   string
	BillToAddress string

	Items []InvoiceItem

	Subtotal  string
	TaxLabel  string
	Tax       string
	Total     string
	AmountDue string
}

type InvoiceItem struct {
	Description string
	Qty         int
	UnitPrice   string
	Amount      string
}

type ReceiptData struct {
	InvoiceData
	DatePaid string
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}
