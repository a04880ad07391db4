package dto

import (
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/payment/provider"
)

type Distribution struct {
	AppliedAmount    int64                   `json:"applied_amount"`
	ExcessAmount     int64                   `json:"excess_amount"`
	UpdatedSchedules []model.PaymentSchedule `json:"updated_schedules"`
	InvoiceFullyPaid bool                    `json:"invoice_fully_paid"`
	Summary          string                  `json:"summary"`
}

type PaymentView struct {
	Payment      model.Payment         `json:"payment"`
	Invoice      model.Invoice         `json:"invoice"`
	BankDetails  *provider.BankDetails `json:"bank_details,omitempty"`
	Distribution *Distribution         `json:"distribution,omitempty"`
}

type InvoiceView struct {
	Invoice   model.Invoice           `json:"invoice"`
	Payments  []model.Payment         `json:"payments"`
	Schedules []model.PaymentSchedule `json:"schedules"`
}

type OverdueResult struct {
	Schedules int `json:"schedules"`
	Invoices  int `json:"invoices"`
}
