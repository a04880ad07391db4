package dto

import "github.com/fekuna/omnipos-order-service/internal/model"

type CartLine struct {
	ItemID       int64  `json:"item_id"`
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	Quantity     int64  `json:"quantity"`
	UnitPrice    int64  `json:"unit_price"`
	LineTotal    int64  `json:"line_total"`
	Available    int64  `json:"available"`
	IsAvailable  bool   `json:"is_available"`
	IsPreOrder   bool   `json:"is_pre_order"`
	CanOrder     bool   `json:"can_order"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type CartSummary struct {
	Lines          []CartLine `json:"lines"`
	Subtotal       int64      `json:"subtotal"`
	TaxAmount      int64      `json:"tax_amount"`
	DiscountAmount int64      `json:"discount_amount"`
	ShippingAmount int64      `json:"shipping_amount"`
	Total          int64      `json:"total"`
	HasPreOrder    bool       `json:"has_pre_order"`
	CanCheckout    bool       `json:"can_checkout"`
}

// OrderView is the order aggregate as returned to callers.
type OrderView struct {
	Order        model.Order             `json:"order"`
	Customer     *model.Customer         `json:"customer,omitempty"`
	Invoice      *model.Invoice          `json:"invoice,omitempty"`
	Payments     []model.Payment         `json:"payments"`
	Schedules    []model.PaymentSchedule `json:"schedules"`
	Reservations []model.Reservation     `json:"reservations"`
}
