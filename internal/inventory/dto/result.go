package dto

import "github.com/fekuna/omnipos-order-service/internal/model"

// Fulfillment reports units handed to a waiting reservation by a replay pass.
type Fulfillment struct {
	ReservationID int64  `json:"reservation_id"`
	OrderItemID   *int64 `json:"order_item_id,omitempty"`
	Quantity      int64  `json:"quantity"`
	Completed     bool   `json:"completed"`
}

type StockAdjustment struct {
	Entry        *model.StockEntry `json:"entry"`
	Item         *model.Item       `json:"item"`
	Fulfillments []Fulfillment     `json:"fulfillments"`
}
