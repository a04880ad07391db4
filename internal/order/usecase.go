package order

import (
	"context"

	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/order/dto"
)

type UseCase interface {
	CalculateCart(ctx context.Context, input *dto.CalculateCartInput) (*dto.CartSummary, error)
	CreateOrder(ctx context.Context, input *dto.CreateOrderInput) (*dto.OrderView, error)
	GetOrder(ctx context.Context, businessID string, id int64) (*dto.OrderView, error)
	ListOrders(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error)
	UpdateOrderStatus(ctx context.Context, input *dto.UpdateStatusInput) (*model.Order, error)
}
