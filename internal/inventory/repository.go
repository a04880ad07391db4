package inventory

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-order-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-order-service/internal/model"
)

// Repository persists items, their stock ledger and reservations. Getters
// return nil, nil when the row does not exist in the business.
type Repository interface {
	// Items
	CreateItem(ctx context.Context, item *model.Item) error
	GetItem(ctx context.Context, businessID string, id int64) (*model.Item, error)
	GetItems(ctx context.Context, businessID string, ids []int64) ([]model.Item, error)
	ListItems(ctx context.Context, filters *dto.ItemFilters) ([]model.Item, int, error)
	IsSKUTaken(ctx context.Context, businessID, sku string) (bool, error)

	// Row locks, held until the surrounding transaction ends. LockItems
	// locks in ascending id order.
	LockItem(ctx context.Context, businessID string, id int64) (*model.Item, error)
	LockItems(ctx context.Context, businessID string, ids []int64) ([]model.Item, error)
	UpdateItemStock(ctx context.Context, item *model.Item) error

	// Ledger
	CreateStockEntry(ctx context.Context, entry *model.StockEntry) error
	ListStockEntries(ctx context.Context, filters *dto.StockEntryFilters) ([]model.StockEntry, int, error)

	// Reservations
	CreateReservation(ctx context.Context, r *model.Reservation) error
	GetReservation(ctx context.Context, businessID string, id int64) (*model.Reservation, error)
	UpdateReservation(ctx context.Context, r *model.Reservation) error
	ListActiveReservations(ctx context.Context, businessID string, itemID int64) ([]model.Reservation, error)
	ListReservationsByOrderItems(ctx context.Context, businessID string, orderItemIDs []int64) ([]model.Reservation, error)
	ListReservations(ctx context.Context, filters *dto.ReservationFilters) ([]model.Reservation, int, error)
	ListExpiredReservations(ctx context.Context, businessID string, now time.Time) ([]model.Reservation, error)
	BusinessesWithExpiredReservations(ctx context.Context, now time.Time) ([]string, error)
}

// ItemSync propagates committed item changes to read models (cache, search).
// Implementations are best effort and never fail the caller.
type ItemSync interface {
	ItemsChanged(ctx context.Context, businessID string, items ...model.Item)
}
