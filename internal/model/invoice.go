package model

import "time"

type InvoiceStatus string

const (
	InvoiceDraft       InvoiceStatus = "Draft"
	InvoiceSent        InvoiceStatus = "Sent"
	InvoicePartialPaid InvoiceStatus = "PartialPaid"
	InvoicePaid        InvoiceStatus = "Paid"
	InvoiceOverdue     InvoiceStatus = "Overdue"
	InvoiceVoided      InvoiceStatus = "Voided"
)

type InvoiceType string

const InvoiceTypeStandard InvoiceType = "Standard"

type Invoice struct {
	BaseModel
	InvoiceNumber  string        `db:"invoice_number" json:"invoice_number"`
	OrderID        int64         `db:"order_id" json:"order_id"`
	CustomerID     int64         `db:"customer_id" json:"customer_id"`
	Type           InvoiceType   `db:"type" json:"type"`
	Status         InvoiceStatus `db:"status" json:"status"`
	IssueDate      time.Time     `db:"issue_date" json:"issue_date"`
	DueDate        time.Time     `db:"due_date" json:"due_date"`
	Subtotal       int64         `db:"subtotal" json:"subtotal"`
	TaxAmount      int64         `db:"tax_amount" json:"tax_amount"`
	DiscountAmount int64         `db:"discount_amount" json:"discount_amount"`
	ShippingAmount int64         `db:"shipping_amount" json:"shipping_amount"`
	Total          int64         `db:"total" json:"total"`
	PaidAmount     int64         `db:"paid_amount" json:"paid_amount"`
	BalanceAmount  int64         `db:"balance_amount" json:"balance_amount"`
	Currency       string        `db:"currency" json:"currency"`
	Notes          *string       `db:"notes" json:"notes"`
	Terms          *string       `db:"terms" json:"terms"`
	SentAt         *time.Time    `db:"sent_at" json:"sent_at"`
	PaidAt         *time.Time    `db:"paid_at" json:"paid_at"`
	VoidedAt       *time.Time    `db:"voided_at" json:"voided_at"`
	VoidedBy       *string       `db:"voided_by" json:"voided_by"`
	VoidReason     *string       `db:"void_reason" json:"void_reason"`
	CreatedBy      *string       `db:"created_by" json:"created_by"`
}

func (i Invoice) IsFullyPaid() bool {
	return i.PaidAmount >= i.Total
}

func (i Invoice) IsOverdue(now time.Time) bool {
	if i.IsFullyPaid() || !now.After(i.DueDate) {
		return false
	}
	return i.Status == InvoiceSent || i.Status == InvoicePartialPaid
}

func (i Invoice) CanBeVoided() bool {
	return (i.Status == InvoiceDraft || i.Status == InvoiceSent) && i.PaidAmount == 0
}

// AcceptsPayment reports whether further money may be recorded against the invoice.
func (i Invoice) AcceptsPayment() bool {
	return i.Status != InvoiceVoided && i.Status != InvoicePaid
}

// ApplyPaid sets the paid amount and derives balance and status from it.
func (i *Invoice) ApplyPaid(paid int64, now time.Time) {
	i.PaidAmount = paid
	i.BalanceAmount = i.Total - paid
	switch {
	case i.BalanceAmount <= 0:
		i.Status = InvoicePaid
		i.PaidAt = &now
	case paid > 0:
		i.Status = InvoicePartialPaid
	}
}
