package inventory

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-order-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-order-service/internal/model"
)

type UseCase interface {
	CreateItem(ctx context.Context, input *dto.CreateItemInput) (*model.Item, error)
	GetItem(ctx context.Context, businessID string, id int64) (*model.Item, error)
	ListItems(ctx context.Context, filters *dto.ItemFilters) ([]model.Item, int, error)

	AddStock(ctx context.Context, input *dto.AddStockInput) (*dto.StockAdjustment, error)
	ListStockEntries(ctx context.Context, filters *dto.StockEntryFilters) ([]model.StockEntry, int, error)

	CreateReservation(ctx context.Context, input *dto.CreateReservationInput) (*model.Reservation, error)
	CancelReservation(ctx context.Context, input *dto.CancelReservationInput) (*model.Reservation, error)
	ListReservations(ctx context.Context, filters *dto.ReservationFilters) ([]model.Reservation, int, error)
	ExpireReservations(ctx context.Context, businessID string, now time.Time) (int, error)
}
