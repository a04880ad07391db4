package dto

import (
	"time"

	"github.com/fekuna/omnipos-order-service/internal/model"
)

type CustomerInfo struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email,omitempty"`
	Address   string `json:"address,omitempty"`
}

// LineInput never carries a price; unit prices come from the item.
type LineInput struct {
	ItemID   int64  `json:"item_id"`
	Quantity int64  `json:"quantity"`
	Notes    string `json:"notes,omitempty"`
}

type InstallmentInput struct {
	Frequency    model.InstallmentFrequency `json:"frequency"`
	Installments int                        `json:"installments"`
	DownPayment  int64                      `json:"down_payment"`
	StartDate    *time.Time                 `json:"start_date,omitempty"`
}

type CreateOrderInput struct {
	BusinessID           string
	Customer             CustomerInfo
	Items                []LineInput
	PaymentMethod        model.PaymentMethod
	PaymentType          model.PaymentType
	Installment          *InstallmentInput
	TaxAmount            int64
	DiscountAmount       int64
	ShippingAmount       int64
	Currency             string
	Notes                string
	DeliveryAddress      string
	ExpectedDeliveryDate *time.Time
	UserID               string
}

type CalculateCartInput struct {
	BusinessID     string
	Items          []LineInput
	TaxAmount      int64
	DiscountAmount int64
	ShippingAmount int64
}

type UpdateStatusInput struct {
	BusinessID string
	OrderID    int64
	Status     model.OrderStatus
	Reason     string
	UserID     string
}
