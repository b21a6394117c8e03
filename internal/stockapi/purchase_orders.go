package stockapi

import (
	"context"
	"fmt"
	"slices"

	"github.com/erazemk/stockmgtr/internal/model"
	"github.com/erazemk/stockmgtr/internal/upstream"
)

const purchaseOrdersPath = "/purchase-orders/"

// PurchaseOrderActions are the plain action endpoints of a purchase order.
var PurchaseOrderActions = []string{"send", "approve", "cancel"}

// ListPurchaseOrders returns one page of purchase orders.
func (s *Service) ListPurchaseOrders(ctx context.Context, opts ListOptions) (*model.Page[model.PurchaseOrder], error) {
	var page model.Page[model.PurchaseOrder]
	if err := s.get(ctx, purchaseOrdersPath, opts.values(), s.ttl.List, &page); err != nil {
		return nil, fmt.Errorf("listing purchase orders: %w", err)
	}
	return &page, nil
}

// GetPurchaseOrder returns one purchase order with its items.
func (s *Service) GetPurchaseOrder(ctx context.Context, id int64) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	if err := s.get(ctx, resource(purchaseOrdersPath, id), nil, s.ttl.List, &po); err != nil {
		return nil, fmt.Errorf("getting purchase order %d: %w", id, err)
	}
	return &po, nil
}

// CreatePurchaseOrder creates a draft purchase order.
func (s *Service) CreatePurchaseOrder(ctx context.Context, in model.PurchaseOrderInput) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	if err := s.client.Post(ctx, purchaseOrdersPath, in, &po); err != nil {
		return nil, fmt.Errorf("creating purchase order: %w", err)
	}
	s.invalidate(purchaseOrdersPath)
	return &po, nil
}

// UpdatePurchaseOrder patches a draft purchase order.
func (s *Service) UpdatePurchaseOrder(ctx context.Context, id int64, in model.PurchaseOrderInput) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	if err := s.client.Patch(ctx, resource(purchaseOrdersPath, id), in, &po); err != nil {
		return nil, fmt.Errorf("updating purchase order %d: %w", id, err)
	}
	s.invalidate(purchaseOrdersPath)
	return &po, nil
}

// DeletePurchaseOrder deletes a draft purchase order.
func (s *Service) DeletePurchaseOrder(ctx context.Context, id int64) error {
	if err := s.client.Delete(ctx, resource(purchaseOrdersPath, id)); err != nil {
		return fmt.Errorf("deleting purchase order %d: %w", id, err)
	}
	s.invalidate(purchaseOrdersPath)
	return nil
}

// PurchaseOrderAction runs one of PurchaseOrderActions.
func (s *Service) PurchaseOrderAction(ctx context.Context, id int64, name string) (*Message, error) {
	if !slices.Contains(PurchaseOrderActions, name) {
		return nil, fmt.Errorf("unknown purchase order action %q", name)
	}
	var m Message
	if err := s.client.Post(ctx, action(purchaseOrdersPath, id, name), nil, &m); err != nil {
		return nil, fmt.Errorf("%s purchase order %d: %w", name, id, err)
	}
	s.invalidate(purchaseOrdersPath)
	return &m, nil
}

// ReceivePurchaseOrder records a delivery; received quantities are booked
// into stock upstream.
func (s *Service) ReceivePurchaseOrder(ctx context.Context, id int64, in model.ReceiveOrderInput) (*Message, error) {
	var m Message
	if err := s.client.Post(ctx, action(purchaseOrdersPath, id, "receive"), in, &m); err != nil {
		return nil, fmt.Errorf("receiving purchase order %d: %w", id, err)
	}
	s.invalidate(purchaseOrdersPath, stockPath, stockHistoryPath)
	return &m, nil
}

// CreateInvoice attaches an invoice, optionally with its file, to a
// purchase order.
func (s *Service) CreateInvoice(ctx context.Context, poID int64, in model.InvoiceInput) (*model.Invoice, error) {
	form := (&upstream.Form{}).
		Set("invoice_number", in.InvoiceNumber).
		Set("invoice_date", in.InvoiceDate.String()).
		Set("due_date", in.DueDate.String()).
		Set("invoice_amount_exc", in.InvoiceAmountExc.StringFixed(2)).
		Set("gst_amount", in.GSTAmount.StringFixed(2)).
		Set("invoice_total", in.InvoiceTotal.StringFixed(2)).
		SetOptional("notes", in.Notes)
	if in.File != nil {
		form.File("invoice_file", in.File.Filename, in.File.ContentType, in.File.Data)
	}

	var inv model.Invoice
	if err := s.client.PostForm(ctx, action(purchaseOrdersPath, poID, "create-invoice"), form, &inv); err != nil {
		return nil, fmt.Errorf("creating invoice for purchase order %d: %w", poID, err)
	}
	s.invalidate(purchaseOrdersPath, invoicesPath)
	return &inv, nil
}
