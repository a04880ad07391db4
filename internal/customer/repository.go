package customer

import (
	"context"

	"github.com/fekuna/omnipos-order-service/internal/model"
)

type Repository interface {
	// FindByPhone returns nil, nil when the business has no such customer.
	FindByPhone(ctx context.Context, businessID, phone string) (*model.Customer, error)
	GetByID(ctx context.Context, businessID string, id int64) (*model.Customer, error)
	Create(ctx context.Context, c *model.Customer) error
}
