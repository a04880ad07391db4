package maintenance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	invdto "github.com/fekuna/omnipos-order-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-order-service/internal/inventory/stock"
	invuc "github.com/fekuna/omnipos-order-service/internal/inventory/usecase"
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/notification"
	"github.com/fekuna/omnipos-order-service/internal/payment/provider"
	"github.com/fekuna/omnipos-order-service/internal/payment/settlement"
	payuc "github.com/fekuna/omnipos-order-service/internal/payment/usecase"
	"github.com/fekuna/omnipos-order-service/internal/pkg/cache"
	"github.com/fekuna/omnipos-order-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-order-service/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store   *memory.Store
	sweeper *Sweeper
	redis   *miniredis.Miniredis
}

func newFixture(t *testing.T, withLock bool) *fixture {
	t.Helper()
	log := logger.NewNopLogger()
	st := memory.New()
	inv := invuc.NewInventoryUseCase(st, stock.NewLedger(log), invuc.NewItemSync(nil, nil, log), nil, nil, log)
	p, err := provider.New(&provider.Config{Default: provider.NameManual}, log)
	require.NoError(t, err)
	pay := payuc.NewPaymentUseCase(st, settlement.NewEngine(log), provider.NewGateway(p), notification.NewLogNotifier(log), time.Hour, log)

	f := &fixture{store: st}
	var locker Locker
	if withLock {
		f.redis = miniredis.RunT(t)
		rc, err := cache.NewRedisClient(&cache.Config{Addr: f.redis.Addr()})
		require.NoError(t, err)
		t.Cleanup(func() { rc.Close() })
		locker = rc
	}
	f.sweeper = NewSweeper(st, inv, pay, locker, Config{Interval: time.Minute}, log)
	f.sweeper.now = func() time.Time { return time.Now().Add(48 * time.Hour) }

	ctx := context.Background()
	item, err := inv.CreateItem(ctx, &invdto.CreateItemInput{BusinessID: "BIZ001", SKU: "CASE-1", Name: "Phone case", InitialStock: 5})
	require.NoError(t, err)
	expiry := time.Now().Add(time.Hour)
	_, err = inv.CreateReservation(ctx, &invdto.CreateReservationInput{BusinessID: "BIZ001", ItemID: item.ID, Quantity: 3, ExpiryDate: &expiry})
	require.NoError(t, err)

	due := time.Now().Add(24 * time.Hour)
	require.NoError(t, st.Payments().CreateInvoice(ctx, &model.Invoice{
		BaseModel:     model.BaseModel{BusinessID: "BIZ002"},
		InvoiceNumber: "INV_1",
		Status:        model.InvoiceSent,
		DueDate:       due,
		Total:         1000,
		BalanceAmount: 1000,
		Currency:      "NGN",
	}))
	return f
}

func TestSweepProcessesEveryTenant(t *testing.T) {
	f := newFixture(t, true)

	rep := f.sweeper.Sweep(context.Background())
	assert.False(t, rep.Skipped)
	assert.Equal(t, 2, rep.Businesses)
	assert.Equal(t, 1, rep.ReservationsExpired)
	assert.Equal(t, 1, rep.InvoicesOverdue)
	assert.Zero(t, rep.Failures)
	assert.False(t, f.redis.Exists(lockKey))

	items, _, err := f.store.Inventory().ListItems(context.Background(), &invdto.ItemFilters{BusinessID: "BIZ001"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Zero(t, items[0].ReservedStock)

	again := f.sweeper.Sweep(context.Background())
	assert.Zero(t, again.Businesses)
}

func TestSweepSkipsWhenLockHeld(t *testing.T) {
	f := newFixture(t, true)
	require.NoError(t, f.redis.Set(lockKey, "another-instance"))

	rep := f.sweeper.Sweep(context.Background())
	assert.True(t, rep.Skipped)
	assert.Zero(t, rep.Businesses)
	got, err := f.redis.Get(lockKey)
	require.NoError(t, err)
	assert.Equal(t, "another-instance", got)
}

func TestSweepWithoutLocker(t *testing.T) {
	f := newFixture(t, false)

	rep := f.sweeper.Sweep(context.Background())
	assert.False(t, rep.Skipped)
	assert.Equal(t, 2, rep.Businesses)
}

type brokenLocker struct{}

func (brokenLocker) AcquireLock(context.Context, string, string, time.Duration) (bool, error) {
	return false, errors.New("connection refused")
}

func (brokenLocker) ReleaseLock(context.Context, string, string) error { return nil }

func TestSweepLockErrorSkips(t *testing.T) {
	f := newFixture(t, false)
	f.sweeper.locker = brokenLocker{}

	rep := f.sweeper.Sweep(context.Background())
	assert.True(t, rep.Skipped)
}

func TestStartStopsOnCancel(t *testing.T) {
	f := newFixture(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.sweeper.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
