// Package store defines the unit of work shared by every usecase. All
// mutations of one operation run inside a single Do call and commit or roll
// back together.
package store

import (
	"context"

	"github.com/fekuna/omnipos-order-service/internal/customer"
	"github.com/fekuna/omnipos-order-service/internal/inventory"
	"github.com/fekuna/omnipos-order-service/internal/order"
	"github.com/fekuna/omnipos-order-service/internal/payment"
)

// Tx exposes repositories bound to one transaction, or to no transaction
// when obtained from Manager directly.
type Tx interface {
	Inventory() inventory.Repository
	Customers() customer.Repository
	Orders() order.Repository
	Payments() payment.Repository
}

type Manager interface {
	Tx
	// Do runs fn in a transaction. Returning an error, or panicking, rolls
	// back every write made through tx.
	Do(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
