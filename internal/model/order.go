package model

import "time"

type OrderStatus string

const (
	OrderPending    OrderStatus = "Pending"
	OrderConfirmed  OrderStatus = "Confirmed"
	OrderProcessing OrderStatus = "Processing"
	OrderShipped    OrderStatus = "Shipped"
	OrderDelivered  OrderStatus = "Delivered"
	OrderCancelled  OrderStatus = "Cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderConfirmed, OrderCancelled},
	OrderConfirmed:  {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderShipped},
	OrderShipped:    {OrderDelivered},
}

// CanTransitionTo reports whether the order state machine allows s -> next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

type OrderType string

const (
	OrderTypeRegular  OrderType = "Regular"
	OrderTypePreOrder OrderType = "PreOrder"
)

type Order struct {
	BaseModel
	OrderNumber          string      `db:"order_number" json:"order_number"`
	CustomerID           int64       `db:"customer_id" json:"customer_id"`
	Type                 OrderType   `db:"type" json:"type"`
	Status               OrderStatus `db:"status" json:"status"`
	Subtotal             int64       `db:"subtotal" json:"subtotal"`
	TaxAmount            int64       `db:"tax_amount" json:"tax_amount"`
	DiscountAmount       int64       `db:"discount_amount" json:"discount_amount"`
	ShippingAmount       int64       `db:"shipping_amount" json:"shipping_amount"`
	Total                int64       `db:"total" json:"total"`
	Currency             string      `db:"currency" json:"currency"`
	IsPreOrder           bool        `db:"is_pre_order" json:"is_pre_order"`
	Notes                *string     `db:"notes" json:"notes"`
	DeliveryAddress      *string     `db:"delivery_address" json:"delivery_address"`
	ExpectedDeliveryDate *time.Time  `db:"expected_delivery_date" json:"expected_delivery_date"`
	DeliveredAt          *time.Time  `db:"delivered_at" json:"delivered_at"`
	CancelledAt          *time.Time  `db:"cancelled_at" json:"cancelled_at"`
	CancellationReason   *string     `db:"cancellation_reason" json:"cancellation_reason"`
	CreatedBy            *string     `db:"created_by" json:"created_by"`
	Items                []OrderItem `db:"-" json:"items"`
}

func (o Order) CanBeCancelled() bool {
	return o.Status.CanTransitionTo(OrderCancelled)
}

// OrderItem snapshots the item's sku, name and price at order time.
type OrderItem struct {
	BaseModel
	OrderID           int64   `db:"order_id" json:"order_id"`
	ItemID            int64   `db:"item_id" json:"item_id"`
	ItemSKU           string  `db:"item_sku" json:"item_sku"`
	ItemName          string  `db:"item_name" json:"item_name"`
	Quantity          int64   `db:"quantity" json:"quantity"`
	UnitPrice         int64   `db:"unit_price" json:"unit_price"`
	DiscountAmount    int64   `db:"discount_amount" json:"discount_amount"`
	LineTotal         int64   `db:"line_total" json:"line_total"`
	Currency          string  `db:"currency" json:"currency"`
	IsPreOrder        bool    `db:"is_pre_order" json:"is_pre_order"`
	ReservedQuantity  int64   `db:"reserved_quantity" json:"reserved_quantity"`
	FulfilledQuantity int64   `db:"fulfilled_quantity" json:"fulfilled_quantity"`
	Notes             *string `db:"notes" json:"notes"`
}

func (i OrderItem) RemainingQuantity() int64 {
	if remaining := i.Quantity - i.FulfilledQuantity; remaining > 0 {
		return remaining
	}
	return 0
}

func (i OrderItem) IsFullyFulfilled() bool {
	return i.FulfilledQuantity >= i.Quantity
}
