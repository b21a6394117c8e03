package stockapi

import (
	"context"
	"fmt"
	"net/url"

	"github.com/erazemk/stockmgtr/internal/model"
	"github.com/erazemk/stockmgtr/internal/upstream"
)

const (
	invoicesPath = "/invoices/"
	paymentsPath = "/payments/"
)

// ListInvoices returns one page of invoices, optionally of one purchase order.
func (s *Service) ListInvoices(ctx context.Context, poID int64, opts ListOptions) (*model.Page[model.Invoice], error) {
	q := opts.values()
	setInt64(q, "purchase_order", poID)
	var page model.Page[model.Invoice]
	if err := s.get(ctx, invoicesPath, q, s.ttl.List, &page); err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	return &page, nil
}

// GetInvoice returns one invoice.
func (s *Service) GetInvoice(ctx context.Context, id int64) (*model.Invoice, error) {
	var inv model.Invoice
	if err := s.get(ctx, resource(invoicesPath, id), nil, s.ttl.List, &inv); err != nil {
		return nil, fmt.Errorf("getting invoice %d: %w", id, err)
	}
	return &inv, nil
}

// RecordPayment records a payment, optionally with its receipt, against an
// invoice.
func (s *Service) RecordPayment(ctx context.Context, invoiceID int64, in model.PaymentInput) (*model.Payment, error) {
	form := (&upstream.Form{}).
		Set("payment_reference", in.PaymentReference).
		Set("payment_date", in.PaymentDate.String()).
		Set("payment_amount", in.PaymentAmount.StringFixed(2)).
		Set("payment_method", in.PaymentMethod).
		SetOptional("bank_details", in.BankDetails).
		SetOptional("notes", in.Notes)
	if in.Receipt != nil {
		form.File("receipt_file", in.Receipt.Filename, in.Receipt.ContentType, in.Receipt.Data)
	}

	var p model.Payment
	if err := s.client.PostForm(ctx, action(invoicesPath, invoiceID, "record-payment"), form, &p); err != nil {
		return nil, fmt.Errorf("recording payment for invoice %d: %w", invoiceID, err)
	}
	s.invalidate(invoicesPath, paymentsPath, purchaseOrdersPath)
	return &p, nil
}

// ListPayments returns the payments of an invoice.
func (s *Service) ListPayments(ctx context.Context, invoiceID int64) ([]model.Payment, error) {
	q := url.Values{}
	setInt64(q, "invoice", invoiceID)
	var payments []model.Payment
	if err := s.get(ctx, paymentsPath, q, s.ttl.List, &payments); err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	return payments, nil
}

// DeletePayment deletes a payment.
func (s *Service) DeletePayment(ctx context.Context, id int64) error {
	if err := s.client.Delete(ctx, resource(paymentsPath, id)); err != nil {
		return fmt.Errorf("deleting payment %d: %w", id, err)
	}
	s.invalidate(invoicesPath, paymentsPath, purchaseOrdersPath)
	return nil
}
