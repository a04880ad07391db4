package dto

import (
	"time"

	"github.com/fekuna/omnipos-order-service/internal/model"
)

type CreatePaymentInput struct {
	BusinessID        string
	InvoiceID         int64
	Amount            int64
	Method            model.PaymentMethod
	Reference         string
	ExternalReference string
	Notes             string
	// TargetInstallment starts distribution at this installment when set.
	TargetInstallment int
	UserID            string
}

type ConfirmPaymentInput struct {
	BusinessID    string
	PaymentID     int64
	TransactionID string
	Notes         string
	UserID        string
}

type DistributeInput struct {
	BusinessID        string
	InvoiceID         int64
	Amount            int64
	TargetInstallment int
}

type VoidInvoiceInput struct {
	BusinessID string
	InvoiceID  int64
	Reason     string
	UserID     string
}

type CreateScheduleInput struct {
	BusinessID   string
	InvoiceID    int64
	Frequency    model.InstallmentFrequency
	Installments int
	StartDate    *time.Time
	UserID       string
}

type UnderpaymentInput struct {
	BusinessID        string
	InvoiceID         int64
	InstallmentNumber int
	Shortfall         int64
}
