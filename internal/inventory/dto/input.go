package dto

import (
	"time"

	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/pkg/reference"
)

type CreateItemInput struct {
	BusinessID    string
	SKU           string // generated when empty
	Name          string
	ModelNo       string
	Description   string
	Category      string
	Brand         string
	Barcode       string
	Unit          string
	Attributes    []reference.Attribute
	CostPrice     int64
	SellingPrice  int64
	DiscountPrice *int64
	Currency      string
	InitialStock  int64
	MinimumStock  int64
	TrackStock    *bool // nil tracks stock
	AllowPreOrder bool
	UserID        string
}

// AddStockInput is one signed stock movement. Quantity > 0 increases stock.
type AddStockInput struct {
	BusinessID  string
	ItemID      int64
	Type        model.StockEntryType
	Quantity    int64
	UnitCost    *int64
	Reference   string
	Notes       string
	Supplier    string
	BatchNumber string
	ExpiryDate  *time.Time
	UserID      string
}

type CreateReservationInput struct {
	BusinessID    string
	ItemID        int64
	Quantity      int64
	Type          model.ReservationType
	CustomerName  string
	CustomerPhone string
	Reference     string
	Notes         string
	ExpectedDate  *time.Time
	ExpiryDate    *time.Time
	UserID        string
}

type CancelReservationInput struct {
	BusinessID    string
	ReservationID int64
	Reason        string
	UserID        string
}
