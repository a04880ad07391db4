// Package postgres implements store.Manager over a sqlx connection pool.
package postgres

import (
	"context"

	"github.com/fekuna/omnipos-order-service/internal/customer"
	customerrepo "github.com/fekuna/omnipos-order-service/internal/customer/repository"
	"github.com/fekuna/omnipos-order-service/internal/inventory"
	inventoryrepo "github.com/fekuna/omnipos-order-service/internal/inventory/repository"
	"github.com/fekuna/omnipos-order-service/internal/order"
	orderrepo "github.com/fekuna/omnipos-order-service/internal/order/repository"
	"github.com/fekuna/omnipos-order-service/internal/payment"
	paymentrepo "github.com/fekuna/omnipos-order-service/internal/payment/repository"
	pg "github.com/fekuna/omnipos-order-service/internal/pkg/postgres"
	"github.com/fekuna/omnipos-order-service/internal/store"
	"github.com/jmoiron/sqlx"
)

type Store struct {
	repos
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{repos: repos{db: db}, db: db}
}

var _ store.Manager = (*Store)(nil)

func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	return pg.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return fn(ctx, repos{db: tx})
	})
}

// repos hands out repositories bound to either the pool or a transaction.
type repos struct {
	db sqlx.ExtContext
}

func (r repos) Inventory() inventory.Repository { return inventoryrepo.NewPGRepository(r.db) }
func (r repos) Customers() customer.Repository  { return customerrepo.NewPGRepository(r.db) }
func (r repos) Orders() order.Repository        { return orderrepo.NewPGRepository(r.db) }
func (r repos) Payments() payment.Repository    { return paymentrepo.NewPGRepository(r.db) }
