package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment methods.
const (
	PaymentBankTransfer = "bank_transfer"
	PaymentCheck        = "check"
	PaymentCash         = "cash"
	PaymentCreditCard   = "credit_card"
	PaymentOther        = "other"
)

// PaymentMethods lists the accepted payment methods.
var PaymentMethods = []string{PaymentBankTransfer, PaymentCheck, PaymentCash, PaymentCreditCard, PaymentOther}

// Invoice is a manufacturer invoice against a purchase order. TotalPaid,
// OutstandingAmount and Status are computed upstream.
type Invoice struct {
	ID                int64           `json:"id"`
	PurchaseOrder     int64           `json:"purchase_order"`
	InvoiceNumber     string          `json:"invoice_number"`
	InvoiceDate       Date            `json:"invoice_date"`
	DueDate           Date            `json:"due_date"`
	InvoiceAmountExc  decimal.Decimal `json:"invoice_amount_exc"`
	GSTAmount         decimal.Decimal `json:"gst_amount"`
	InvoiceTotal      decimal.Decimal `json:"invoice_total"`
	TotalPaid         decimal.Decimal `json:"total_paid"`
	OutstandingAmount decimal.Decimal `json:"outstanding_amount"`
	Status            InvoiceStatus   `json:"status"`
	Notes             string          `json:"notes,omitempty"`
	InvoiceFile       string          `json:"invoice_file,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	IsOverdue         bool            `json:"is_overdue"`
	DaysOverdue       int             `json:"days_overdue"`
	Payments          []Payment       `json:"payments,omitempty"`
}

// Payment is one payment recorded against an invoice.
type Payment struct {
	ID               int64           `json:"id"`
	Invoice          int64           `json:"invoice"`
	PaymentReference string          `json:"payment_reference"`
	PaymentDate      Date            `json:"payment_date"`
	PaymentAmount    decimal.Decimal `json:"payment_amount"`
	PaymentMethod    string          `json:"payment_method"`
	PaymentStatus    string          `json:"payment_status"`
	BankDetails      string          `json:"bank_details,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	ReceiptFile      string          `json:"receipt_file,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Attachment is an uploaded file forwarded upstream.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// InvoiceInput creates an invoice. File is optional.
type InvoiceInput struct {
	InvoiceNumber    string
	InvoiceDate      Date
	DueDate          Date
	InvoiceAmountExc decimal.Decimal
	GSTAmount        decimal.Decimal
	InvoiceTotal     decimal.Decimal
	Notes            string
	File             *Attachment
}

// PaymentInput records a payment. Receipt is optional.
type PaymentInput struct {
	PaymentReference string
	PaymentDate      Date
	PaymentAmount    decimal.Decimal
	PaymentMethod    string
	BankDetails      string
	Notes            string
	Receipt          *Attachment
}
