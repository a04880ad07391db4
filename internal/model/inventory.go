package model

import "time"

type ItemStatus string

const (
	ItemStatusActive       ItemStatus = "Active"
	ItemStatusInactive     ItemStatus = "Inactive"
	ItemStatusDiscontinued ItemStatus = "Discontinued"
)

// Item prices are stored in minor currency units.
type Item struct {
	BaseModel
	SKU           string     `db:"sku" json:"sku"`
	Name          string     `db:"name" json:"name"`
	ModelNo       *string    `db:"model_no" json:"model_no"`
	Description   *string    `db:"description" json:"description"`
	Category      *string    `db:"category" json:"category"`
	Brand         *string    `db:"brand" json:"brand"`
	Barcode       *string    `db:"barcode" json:"barcode"`
	Unit          *string    `db:"unit" json:"unit"`
	CostPrice     int64      `db:"cost_price" json:"cost_price"`
	SellingPrice  int64      `db:"selling_price" json:"selling_price"`
	DiscountPrice *int64     `db:"discount_price" json:"discount_price"`
	Currency      string     `db:"currency" json:"currency"`
	TotalStock    int64      `db:"total_stock" json:"total_stock"`
	ReservedStock int64      `db:"reserved_stock" json:"reserved_stock"`
	MinimumStock  int64      `db:"minimum_stock" json:"minimum_stock"`
	Status        ItemStatus `db:"status" json:"status"`
	TrackStock    bool       `db:"track_stock" json:"track_stock"`
	AllowPreOrder bool       `db:"allow_pre_order" json:"allow_pre_order"`
	CreatedBy     *string    `db:"created_by" json:"created_by"`
}

// AvailableStock is physical stock minus committed stock, floored at zero.
func AvailableStock(totalStock, reservedStock int64) int64 {
	if available := totalStock - reservedStock; available > 0 {
		return available
	}
	return 0
}

func (i Item) AvailableStock() int64 {
	return AvailableStock(i.TotalStock, i.ReservedStock)
}

func (i Item) InStock() bool {
	return i.AvailableStock() > 0
}

func (i Item) IsLowStock() bool {
	return i.MinimumStock > 0 && i.TotalStock <= i.MinimumStock
}

func (i Item) CanOrder() bool {
	return i.InStock() || i.AllowPreOrder
}

type StockEntryType string

const (
	StockEntryIncoming    StockEntryType = "Incoming"
	StockEntryAdjustment  StockEntryType = "Adjustment"
	StockEntryReturn      StockEntryType = "Return"
	StockEntryDamage      StockEntryType = "Damage"
	StockEntryTheft       StockEntryType = "Theft"
	StockEntrySale        StockEntryType = "Sale"
	StockEntryReservation StockEntryType = "Reservation"
	StockEntryRelease     StockEntryType = "Release"
)

// Valid reports whether t is one of the known entry types.
func (t StockEntryType) Valid() bool {
	switch t {
	case StockEntryIncoming, StockEntryAdjustment, StockEntryReturn, StockEntryDamage,
		StockEntryTheft, StockEntrySale, StockEntryReservation, StockEntryRelease:
		return true
	}
	return false
}

const StockEntryStatusCompleted = "Completed"

// StockEntry is an immutable snapshot of one mutation of Item.TotalStock.
type StockEntry struct {
	BaseModel
	ItemID        int64          `db:"item_id" json:"item_id"`
	Type          StockEntryType `db:"type" json:"type"`
	Quantity      int64          `db:"quantity" json:"quantity"`
	PreviousStock int64          `db:"previous_stock" json:"previous_stock"`
	NewStock      int64          `db:"new_stock" json:"new_stock"`
	UnitCost      *int64         `db:"unit_cost" json:"unit_cost"`
	Reference     *string        `db:"reference" json:"reference"`
	Notes         *string        `db:"notes" json:"notes"`
	Supplier      *string        `db:"supplier" json:"supplier"`
	BatchNumber   *string        `db:"batch_number" json:"batch_number"`
	ExpiryDate    *time.Time     `db:"expiry_date" json:"expiry_date"`
	Status        string         `db:"status" json:"status"`
	ProcessedBy   *string        `db:"processed_by" json:"processed_by"`
	ProcessedAt   *time.Time     `db:"processed_at" json:"processed_at"`
}

func (e StockEntry) IsIncrease() bool {
	return e.Quantity > 0
}
