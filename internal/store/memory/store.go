// Package memory is an in-process implementation of store.Manager. Every
// transaction works on a copy of the data and swaps it in on commit;
// transactions are serialized, which also satisfies the row-lock contract.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/fekuna/omnipos-order-service/internal/customer"
	"github.com/fekuna/omnipos-order-service/internal/inventory"
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/order"
	"github.com/fekuna/omnipos-order-service/internal/payment"
	"github.com/fekuna/omnipos-order-service/internal/store"
)

type state struct {
	seq          int64
	items        map[int64]model.Item
	entries      map[int64]model.StockEntry
	reservations map[int64]model.Reservation
	customers    map[int64]model.Customer
	orders       map[int64]model.Order
	orderItems   map[int64]model.OrderItem
	invoices     map[int64]model.Invoice
	payments     map[int64]model.Payment
	schedules    map[int64]model.PaymentSchedule
}

func newState() *state {
	return &state{
		items:        map[int64]model.Item{},
		entries:      map[int64]model.StockEntry{},
		reservations: map[int64]model.Reservation{},
		customers:    map[int64]model.Customer{},
		orders:       map[int64]model.Order{},
		orderItems:   map[int64]model.OrderItem{},
		invoices:     map[int64]model.Invoice{},
		payments:     map[int64]model.Payment{},
		schedules:    map[int64]model.PaymentSchedule{},
	}
}

func (s *state) clone() *state {
	return &state{
		seq:          s.seq,
		items:        maps.Clone(s.items),
		entries:      maps.Clone(s.entries),
		reservations: maps.Clone(s.reservations),
		customers:    maps.Clone(s.customers),
		orders:       maps.Clone(s.orders),
		orderItems:   maps.Clone(s.orderItems),
		invoices:     maps.Clone(s.invoices),
		payments:     maps.Clone(s.payments),
		schedules:    maps.Clone(s.schedules),
	}
}

func (s *state) nextID() int64 {
	s.seq++
	return s.seq
}

type Store struct {
	txMu   sync.Mutex
	dataMu sync.RWMutex
	data   *state
	now    func() time.Time
}

type Option func(*Store)

// WithClock overrides the timestamp source used for created_at/updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{data: newState(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ store.Manager = (*Store)(nil)

func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.dataMu.RLock()
	work := s.data.clone()
	s.dataMu.RUnlock()

	if err := fn(ctx, &view{store: s, tx: work}); err != nil {
		return err
	}

	s.dataMu.Lock()
	s.data = work
	s.dataMu.Unlock()
	return nil
}

func (s *Store) Inventory() inventory.Repository { return &inventoryRepo{&view{store: s}} }
func (s *Store) Customers() customer.Repository  { return &customerRepo{&view{store: s}} }
func (s *Store) Orders() order.Repository        { return &orderRepo{&view{store: s}} }
func (s *Store) Payments() payment.Repository    { return &paymentRepo{&view{store: s}} }

// view binds repositories either to a transaction's working copy or, when
// tx is nil, to the committed data.
type view struct {
	store *Store
	tx    *state
}

func (v *view) Inventory() inventory.Repository { return &inventoryRepo{v} }
func (v *view) Customers() customer.Repository  { return &customerRepo{v} }
func (v *view) Orders() order.Repository        { return &orderRepo{v} }
func (v *view) Payments() payment.Repository    { return &paymentRepo{v} }

func (v *view) read(fn func(st *state)) {
	if v.tx != nil {
		fn(v.tx)
		return
	}
	v.store.dataMu.RLock()
	defer v.store.dataMu.RUnlock()
	fn(v.store.data)
}

func (v *view) write(fn func(st *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.dataMu.Lock()
	defer v.store.dataMu.Unlock()
	return fn(v.store.data)
}

func (v *view) now() time.Time {
	return v.store.now()
}

func paginate[T any](rows []T, page, pageSize int) []T {
	if pageSize <= 0 {
		return rows
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(rows) {
		return []T{}
	}
	end := min(start+pageSize, len(rows))
	return rows[start:end]
}
