package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/maidbook/internal/invoice/domain"
	"github.com/smallbiznis/maidbook/internal/providers/pdf"
)

func (s *Service) RenderPDF(ctx context.Context, id string) (domain.Document, error) {
	invoice, err := s.GetByID(ctx, id)
	if err != nil {
		return domain.Document{}, err
	}

	data := s.pdfData(invoice)
	if invoice.Status == domain.InvoiceStatusPaid && invoice.PaidAt != nil {
		content, err := s.pdf.GenerateReceipt(ctx, pdf.ReceiptData{
			InvoiceData: data,
			DatePaid:    s.displayDate(*invoice.PaidAt),
		})
		if err != nil {
			return domain.Document{}, fmt.Errorf("render receipt: %w", err)
		}
		return domain.Document{Filename: "receipt-" + invoice.InvoiceNumber + ".pdf", Content: content}, nil
	}

	content, err := s.pdf.GenerateInvoice(ctx, data)
	if err != nil {
		return domain.Document{}, fmt.Errorf("render invoice: %w", err)
	}
	return domain.Document{Filename: invoice.InvoiceNumber + ".pdf", Content: content}, nil
}

func (s *Service) pdfData(invoice domain.Invoice) pdf.InvoiceData {
	items := make([]pdf.InvoiceItem, 0, len(invoice.Items))
	for _, item := range invoice.Items {
		items = append(items, pdf.InvoiceItem{
			Description: item.Description,
			Qty:         int(item.Quantity),
			UnitPrice:   item.UnitAmount.Format(),
			Amount:      item.Amount.Format(),
		})
	}

	amountDue := invoice.TotalAmount
	if invoice.Status == domain.InvoiceStatusPaid || invoice.Status == domain.InvoiceStatusVoid {
		amountDue = 0
	}

	return pdf.InvoiceData{
		OrgName:       s.cfg.BusinessName,
		OrgAddress:    s.cfg.BusinessAddress,
		OrgEmail:      s.cfg.BusinessEmail,
		InvoiceNumber: invoice.InvoiceNumber,
		IssueDate:     s.displayDate(invoice.IssuedAt),
		DueDate:       s.displayDate(invoice.DueAt),
		ServiceDate:   invoice.ServiceDate,
		Reference:     invoice.BookingReference,
		BillToName:    invoice.CustomerName,
		BillToEmail:   invoice.CustomerEmail,
		BillToAddress: invoice.BillToAddress,
		Items:         items,
		Subtotal:      invoice.SubtotalAmount.Format(),
		TaxLabel:      fmt.Sprintf("Tax (%s%%)", decimal.New(invoice.TaxRateBps, -2).String()),
		Tax:           invoice.TaxAmount.Format(),
		Total:         invoice.TotalAmount.Format(),
		AmountDue:     amountDue.Format(),
	}
}
