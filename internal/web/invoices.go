package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/erazemk/stockmgtr/internal/model"
	"github.com/erazemk/stockmgtr/internal/policy"
)

func (s *Server) renderInvoice(w http.ResponseWriter, r *http.Request, id int64, pd PageData) {
	sess := CurrentSession(r.Context())
	inv, err := sess.API.GetInvoice(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	payments, err := sess.API.ListPayments(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if pd.Title == "" {
		pd.Title = "Invoice " + inv.InvoiceNumber
	}
	if pd.Form.Get("payment_date") == "" {
		pd.Form.Set("payment_date", model.NewDate(time.Now()).String())
	}
	s.Templates.Render(w, "invoice_detail.html", &struct {
		PageData
		Invoice        *model.Invoice
		Payments       []model.Payment
		PaymentMethods []string
		CanPay         bool
	}{
		PageData:       pd,
		Invoice:        inv,
		Payments:       payments,
		PaymentMethods: model.PaymentMethods,
		CanPay:         sess.Caps.Has(policy.ManagePayments) && inv.OutstandingAmount.IsPositive(),
	})
}

// InvoiceDetailPage handles GET /invoices/{id}.
func (s *Server) InvoiceDetailPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	s.renderInvoice(w, r, id, s.page(w, r, ""))
}

// PaymentCreateSubmit handles POST /invoices/{id}/payments.
func (s *Server) PaymentCreateSubmit(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	f, receipt := newUploadForm(w, r, "receipt_file")
	in := model.PaymentInput{
		PaymentReference: f.str("payment_reference"),
		PaymentDate:      f.date("payment_date", "Payment date"),
		PaymentAmount:    f.decimal("payment_amount", "Amount"),
		PaymentMethod:    f.str("payment_method"),
		BankDetails:      f.str("bank_details"),
		Notes:            f.str("notes"),
		Receipt:          receipt,
	}
	if !slices.Contains(model.PaymentMethods, in.PaymentMethod) {
		f.invalid("Choose a payment method.")
	}

	if f.ok() {
		p, err := sess.API.RecordPayment(r.Context(), id, in)
		if err == nil {
			slog.Info("payment recorded", "user", sess.Username, "invoice", id, "payment", p.ID, "amount", p.PaymentAmount)
			s.redirect(w, r, fmt.Sprintf("/invoices/%d", id), "Payment recorded.")
			return
		}
		if s.expired(w, r, err) {
			return
		}
		f.invalid("%s", userMessage(err))
	}

	pd := s.page(w, r, "")
	pd.Form = f.values
	pd.Error = f.msg
	s.renderInvoice(w, r, id, pd)
}

// PaymentDeleteSubmit handles POST /invoices/{id}/payments/{payment}/delete.
func (s *Server) PaymentDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	sess := CurrentSession(r.Context())
	id, ok := pathID(r)
	paymentID, err := strconv.ParseInt(r.PathValue("payment"), 10, 64)
	if !ok || err != nil {
		s.notFound(w, r)
		return
	}
	back := fmt.Sprintf("/invoices/%d", id)
	if err := sess.API.DeletePayment(r.Context(), paymentID); err != nil {
		s.actionFailed(w, r, err, back)
		return
	}
	slog.Info("payment deleted", "user", sess.Username, "invoice", id, "payment", paymentID)
	s.redirect(w, r, back, "Payment deleted.")
}
