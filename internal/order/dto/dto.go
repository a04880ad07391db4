package dto

import (
	"time"

	"github.com/fekuna/omnipos-order-service/internal/model"
)

type OrderFilters struct {
	BusinessID string
	Status     model.OrderStatus
	CustomerID int64
	Search     string // order number prefix
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
}
