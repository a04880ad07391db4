package dto

import (
	"time"

	"github.com/fekuna/omnipos-order-service/internal/model"
)

type ItemFilters struct {
	BusinessID string
	Search     string
	Category   string
	Status     model.ItemStatus
	LowStock   bool // total_stock <= minimum_stock AND minimum_stock > 0
	Page       int
	PageSize   int
}

type StockEntryFilters struct {
	BusinessID string
	ItemID     int64
	Type       model.StockEntryType
	StartDate  *time.Time
	EndDate    *time.Time
	Page       int
	PageSize   int
}

type ReservationFilters struct {
	BusinessID string
	ItemID     int64
	Status     model.ReservationStatus
	Reference  string
	Page       int
	PageSize   int
}
