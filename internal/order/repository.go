package order

import (
	"context"

	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/order/dto"
)

type Repository interface {
	Create(ctx context.Context, o *model.Order) error
	GetByID(ctx context.Context, businessID string, id int64) (*model.Order, error)
	Lock(ctx context.Context, businessID string, id int64) (*model.Order, error)
	UpdateStatus(ctx context.Context, o *model.Order) error
	List(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error)

	CreateItem(ctx context.Context, item *model.OrderItem) error
	ListItems(ctx context.Context, businessID string, orderID int64) ([]model.OrderItem, error)
	GetItems(ctx context.Context, businessID string, ids []int64) ([]model.OrderItem, error)
	UpdateItemAllocation(ctx context.Context, item *model.OrderItem) error
}
