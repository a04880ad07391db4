package model

import "time"

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "Cash"
	PaymentMethodBankTransfer PaymentMethod = "BankTransfer"
	PaymentMethodCard         PaymentMethod = "Card"
	PaymentMethodPOS          PaymentMethod = "POS"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCard, PaymentMethodPOS:
		return true
	}
	return false
}

// SettlesImmediately reports whether money moved by this method is final on receipt.
func (m PaymentMethod) SettlesImmediately() bool {
	return m == PaymentMethodCash
}

type PaymentType string

const (
	PaymentTypeOneTime     PaymentType = "OneTime"
	PaymentTypeInstallment PaymentType = "Installment"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "Pending"
	PaymentProcessing PaymentStatus = "Processing"
	PaymentCompleted  PaymentStatus = "Completed"
	PaymentFailed     PaymentStatus = "Failed"
	PaymentCancelled  PaymentStatus = "Cancelled"
	PaymentRefunded   PaymentStatus = "Refunded"
)

type Payment struct {
	BaseModel
	PaymentNumber     string        `db:"payment_number" json:"payment_number"`
	InvoiceID         int64         `db:"invoice_id" json:"invoice_id"`
	CustomerID        int64         `db:"customer_id" json:"customer_id"`
	Amount            int64         `db:"amount" json:"amount"`
	Currency          string        `db:"currency" json:"currency"`
	Method            PaymentMethod `db:"method" json:"method"`
	Type              PaymentType   `db:"type" json:"type"`
	Status            PaymentStatus `db:"status" json:"status"`
	Provider          *string       `db:"provider" json:"provider"`
	ProviderReference *string       `db:"provider_reference" json:"provider_reference"`
	ExternalReference *string       `db:"external_reference" json:"external_reference"`
	TransactionID     *string       `db:"transaction_id" json:"transaction_id"`
	BankName          *string       `db:"bank_name" json:"bank_name"`
	AccountNumber     *string       `db:"account_number" json:"account_number"`
	AccountName       *string       `db:"account_name" json:"account_name"`
	BankDetailsExpiry *time.Time    `db:"bank_details_expiry" json:"bank_details_expiry"`
	Reference         *string       `db:"reference" json:"reference"`
	Notes             *string       `db:"notes" json:"notes"`
	PaidAt            *time.Time    `db:"paid_at" json:"paid_at"`
	FailedAt          *time.Time    `db:"failed_at" json:"failed_at"`
	FailureReason     *string       `db:"failure_reason" json:"failure_reason"`
	CreatedBy         *string       `db:"created_by" json:"created_by"`
}

func (p Payment) IsSuccessful() bool {
	return p.Status == PaymentCompleted
}

type InstallmentFrequency string

const (
	FrequencyDaily   InstallmentFrequency = "Daily"
	FrequencyWeekly  InstallmentFrequency = "Weekly"
	FrequencyMonthly InstallmentFrequency = "Monthly"
)

func (f InstallmentFrequency) Valid() bool {
	return f == FrequencyDaily || f == FrequencyWeekly || f == FrequencyMonthly
}

type ScheduleStatus string

const (
	SchedulePending     ScheduleStatus = "Pending"
	SchedulePartialPaid ScheduleStatus = "PartialPaid"
	SchedulePaid        ScheduleStatus = "Paid"
	ScheduleOverdue     ScheduleStatus = "Overdue"
)

// IsOutstanding reports whether money is still owed against a schedule in this status.
func (s ScheduleStatus) IsOutstanding() bool {
	return s == SchedulePending || s == SchedulePartialPaid || s == ScheduleOverdue
}

// PaymentSchedule is one installment obligation of an invoice.
type PaymentSchedule struct {
	BaseModel
	InvoiceID         int64          `db:"invoice_id" json:"invoice_id"`
	InstallmentNumber int            `db:"installment_number" json:"installment_number"`
	DueDate           time.Time      `db:"due_date" json:"due_date"`
	AmountDue         int64          `db:"amount_due" json:"amount_due"`
	AmountPaid        int64          `db:"amount_paid" json:"amount_paid"`
	Currency          string         `db:"currency" json:"currency"`
	Status            ScheduleStatus `db:"status" json:"status"`
	Notes             *string        `db:"notes" json:"notes"`
	PaidAt            *time.Time     `db:"paid_at" json:"paid_at"`
	LastPaymentAt     *time.Time     `db:"last_payment_at" json:"last_payment_at"`
	CreatedBy         *string        `db:"created_by" json:"created_by"`
}

func (s PaymentSchedule) RemainingBalance() int64 {
	return s.AmountDue - s.AmountPaid
}

func (s PaymentSchedule) IsFullyPaid() bool {
	return s.AmountPaid >= s.AmountDue
}

func (s PaymentSchedule) IsPartiallyPaid() bool {
	return s.AmountPaid > 0 && s.AmountPaid < s.AmountDue
}

func (s PaymentSchedule) IsOverdue(now time.Time) bool {
	return !s.IsFullyPaid() && now.After(s.DueDate)
}
