package model

import "time"

type ReservationType string

const (
	ReservationPreOrder  ReservationType = "PreOrder"
	ReservationOrder     ReservationType = "Order"
	ReservationInternal  ReservationType = "Internal"
	ReservationPromotion ReservationType = "Promotion"
)

func (t ReservationType) Valid() bool {
	switch t {
	case ReservationPreOrder, ReservationOrder, ReservationInternal, ReservationPromotion:
		return true
	}
	return false
}

type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "Active"
	ReservationFulfilled ReservationStatus = "Fulfilled"
	ReservationCancelled ReservationStatus = "Cancelled"
	ReservationExpired   ReservationStatus = "Expired"
)

type Reservation struct {
	BaseModel
	ItemID            int64             `db:"item_id" json:"item_id"`
	OrderItemID       *int64            `db:"order_item_id" json:"order_item_id"`
	Quantity          int64             `db:"quantity" json:"quantity"`
	FulfilledQuantity int64             `db:"fulfilled_quantity" json:"fulfilled_quantity"`
	Type              ReservationType   `db:"type" json:"type"`
	Status            ReservationStatus `db:"status" json:"status"`
	CustomerName      *string           `db:"customer_name" json:"customer_name"`
	CustomerPhone     *string           `db:"customer_phone" json:"customer_phone"`
	Reference         *string           `db:"reference" json:"reference"`
	Notes             *string           `db:"notes" json:"notes"`
	ExpectedDate      *time.Time        `db:"expected_date" json:"expected_date"`
	ExpiryDate        *time.Time        `db:"expiry_date" json:"expiry_date"`
	ReservedBy        *string           `db:"reserved_by" json:"reserved_by"`
	FulfilledAt       *time.Time        `db:"fulfilled_at" json:"fulfilled_at"`
	FulfilledBy       *string           `db:"fulfilled_by" json:"fulfilled_by"`
}

func (r Reservation) RemainingQuantity() int64 {
	if remaining := r.Quantity - r.FulfilledQuantity; remaining > 0 {
		return remaining
	}
	return 0
}

func (r Reservation) IsFullyFulfilled() bool {
	return r.FulfilledQuantity >= r.Quantity
}

func (r Reservation) IsExpired(now time.Time) bool {
	return r.ExpiryDate != nil && r.ExpiryDate.Before(now)
}

func (r Reservation) CanFulfill(now time.Time) bool {
	return r.Status == ReservationActive && !r.IsExpired(now) && !r.IsFullyFulfilled()
}
