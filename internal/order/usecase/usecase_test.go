package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-order-service/internal/apperror"
	invdto "github.com/fekuna/omnipos-order-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-order-service/internal/inventory/stock"
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/notification"
	"github.com/fekuna/omnipos-order-service/internal/order/dto"
	"github.com/fekuna/omnipos-order-service/internal/payment/provider"
	"github.com/fekuna/omnipos-order-service/internal/payment/settlement"
	"github.com/fekuna/omnipos-order-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-order-service/internal/store"
	"github.com/fekuna/omnipos-order-service/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const biz = "BIZ001"

var clock = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type noSync struct{}

func (noSync) ItemsChanged(context.Context, string, ...model.Item) {}

type recorder struct {
	mu       sync.Mutex
	messages []notification.Message
	events   []notification.Event
}

func (r *recorder) Queue(_ context.Context, msg notification.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *recorder) Emit(_ context.Context, evt notification.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

type fixture struct {
	uc       *orderUseCase
	st       *memory.Store
	ledger   *stock.Ledger
	notifier *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.NewNopLogger()
	st := memory.New(memory.WithClock(func() time.Time { return clock }))
	manual, err := provider.New(&provider.Config{
		Default:             provider.NameManual,
		ManualBankName:      "GTBank",
		ManualAccountNumber: "0123456789",
		ManualAccountName:   "Ade Phones",
	}, log)
	require.NoError(t, err)

	rec := &recorder{}
	ledger := stock.NewLedger(log)
	uc := NewOrderUseCase(st, ledger, settlement.NewEngine(log), provider.NewGateway(manual), noSync{}, rec, Settings{}, log).(*orderUseCase)
	uc.now = func() time.Time { return clock }
	return &fixture{uc: uc, st: st, ledger: ledger, notifier: rec}
}

func (f *fixture) item(t *testing.T, sku string, price, total int64, preOrder bool) *model.Item {
	t.Helper()
	it := &model.Item{
		BaseModel:     model.BaseModel{BusinessID: biz},
		SKU:           sku,
		Name:          sku,
		SellingPrice:  price,
		Currency:      "NGN",
		TotalStock:    total,
		Status:        model.ItemStatusActive,
		TrackStock:    true,
		AllowPreOrder: preOrder,
	}
	require.NoError(t, f.st.Inventory().CreateItem(context.Background(), it))
	return it
}

func (f *fixture) reload(t *testing.T, id int64) *model.Item {
	t.Helper()
	it, err := f.st.Inventory().GetItem(context.Background(), biz, id)
	require.NoError(t, err)
	require.NotNil(t, it)
	return it
}

func orderInput(method model.PaymentMethod, lines ...dto.LineInput) *dto.CreateOrderInput {
	return &dto.CreateOrderInput{
		BusinessID:    biz,
		Customer:      dto.CustomerInfo{FirstName: "Chioma", LastName: "Okafor", Phone: "08012345678"},
		Items:         lines,
		PaymentMethod: method,
		PaymentType:   model.PaymentTypeOneTime,
		UserID:        "cashier-1",
	}
}

func TestCreateOrderInsufficientStockLeavesNoState(t *testing.T) {
	f := newFixture(t)
	it := f.item(t, "PHONE", 5000000, 10, false)

	_, err := f.uc.CreateOrder(context.Background(), orderInput(model.PaymentMethodCash, dto.LineInput{ItemID: it.ID, Quantity: 12}))
	require.ErrorIs(t, err, apperror.ErrInsufficientStock)

	after := f.reload(t, it.ID)
	assert.Equal(t, int64(10), after.TotalStock)
	assert.Equal(t, int64(0), after.ReservedStock)
	orders, total, err := f.st.Orders().List(context.Background(), &dto.OrderFilters{BusinessID: biz})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, orders)
	c, err := f.st.Customers().FindByPhone(context.Background(), biz, "+2348012345678")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestCreateOrderPreOrderThenReplay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	it := f.item(t, "PHONE", 5000000, 10, true)

	view, err := f.uc.CreateOrder(ctx, orderInput(model.PaymentMethodBankTransfer, dto.LineInput{ItemID: it.ID, Quantity: 12}))
	require.NoError(t, err)

	assert.True(t, view.Order.IsPreOrder)
	assert.Equal(t, model.OrderTypePreOrder, view.Order.Type)
	require.Len(t, view.Order.Items, 1)
	line := view.Order.Items[0]
	assert.Equal(t, int64(10), line.FulfilledQuantity)
	assert.True(t, line.IsPreOrder)

	require.Len(t, view.Reservations, 1)
	res := view.Reservations[0]
	assert.Equal(t, model.ReservationActive, res.Status)
	assert.Equal(t, model.ReservationOrder, res.Type)
	assert.Equal(t, int64(2), res.Quantity)
	assert.Equal(t, view.Order.OrderNumber, *res.Reference)

	after := f.reload(t, it.ID)
	assert.Equal(t, int64(10), after.ReservedStock)
	assert.Zero(t, after.AvailableStock())

	err = f.st.Do(ctx, func(ctx context.Context, tx store.Tx) error {
		locked, err := tx.Inventory().LockItem(ctx, biz, it.ID)
		if err != nil {
			return err
		}
		_, _, err = f.ledger.Adjust(ctx, tx, locked, stock.Movement{Type: model.StockEntryIncoming, Quantity: 5}, clock)
		return err
	})
	require.NoError(t, err)

	after = f.reload(t, it.ID)
	assert.Equal(t, int64(15), after.TotalStock)
	assert.Equal(t, int64(3), after.AvailableStock())

	got, err := f.uc.GetOrder(ctx, biz, view.Order.ID)
	require.NoError(t, err)
	require.Len(t, got.Reservations, 1)
	assert.Equal(t, model.ReservationFulfilled, got.Reservations[0].Status)
	assert.Equal(t, int64(12), got.Order.Items[0].FulfilledQuantity)
}

func TestCreateOrderMixedLines(t *testing.T) {
	f := newFixture(t)
	a := f.item(t, "CASE", 300000, 20, false)
	b := f.item(t, "TABLET", 9000000, 1, true)

	view, err := f.uc.CreateOrder(context.Background(), orderInput(model.PaymentMethodCash,
		dto.LineInput{ItemID: a.ID, Quantity: 2},
		dto.LineInput{ItemID: b.ID, Quantity: 3},
	))
	require.NoError(t, err)

	assert.True(t, view.Order.IsPreOrder)
	require.Len(t, view.Order.Items, 2)
	assert.Equal(t, view.Order.Items[0].Quantity, view.Order.Items[0].FulfilledQuantity)
	assert.Less(t, view.Order.Items[1].FulfilledQuantity, view.Order.Items[1].Quantity)
	require.Len(t, view.Reservations, 1)
	assert.Equal(t, view.Order.Items[1].ID, *view.Reservations[0].OrderItemID)
	assert.Equal(t, int64(2), view.Reservations[0].Quantity)

	assert.Equal(t, int64(2*300000+3*9000000), view.Order.Subtotal)
	assert.Equal(t, model.InvoicePaid, view.Invoice.Status)
	assert.Equal(t, model.PaymentCompleted, view.Payments[0].Status)
}

func TestCreateOrderPricesFromItem(t *testing.T) {
	f := newFixture(t)
	it := f.item(t, "EARBUDS", 1500000, 5, false)
	in := orderInput(model.PaymentMethodCash, dto.LineInput{ItemID: it.ID, Quantity: 2})
	in.TaxAmount, in.ShippingAmount, in.DiscountAmount = 22500, 100000, 50000

	view, err := f.uc.CreateOrder(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, int64(1500000), view.Order.Items[0].UnitPrice)
	assert.Equal(t, int64(3000000), view.Order.Subtotal)
	assert.Equal(t, int64(3000000+22500+100000-50000), view.Order.Total)
	assert.Equal(t, view.Order.Total, view.Invoice.PaidAmount)
	assert.Zero(t, view.Invoice.BalanceAmount)
	assert.Equal(t, clock.AddDate(0, 0, 30), view.Invoice.DueDate)
}

func TestCreateOrderInstallmentCashDownPayment(t *testing.T) {
	f := newFixture(t)
	it := f.item(t, "LAPTOP", 100000, 3, false)
	in := orderInput(model.PaymentMethodCash, dto.LineInput{ItemID: it.ID, Quantity: 1})
	in.PaymentType = model.PaymentTypeInstallment
	in.Installment = &dto.InstallmentInput{Frequency: model.FrequencyMonthly, Installments: 4, DownPayment: 20000}

	view, err := f.uc.CreateOrder(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, view.Schedules, 4)
	var sum int64
	for _, s := range view.Schedules {
		sum += s.AmountDue
	}
	assert.Equal(t, int64(80000), sum)
	assert.Equal(t, model.SchedulePaid, view.Schedules[0].Status)
	assert.Equal(t, model.SchedulePending, view.Schedules[1].Status)

	assert.Equal(t, int64(20000), view.Payments[0].Amount)
	assert.Equal(t, model.PaymentTypeInstallment, view.Payments[0].Type)
	assert.Equal(t, int64(20000), view.Invoice.PaidAmount)
	assert.Equal(t, int64(80000), view.Invoice.BalanceAmount)
	assert.Equal(t, model.InvoicePartialPaid, view.Invoice.Status)
}

func TestCreateOrderInstallmentValidation(t *testing.T) {
	cases := []struct {
		name string
		plan *dto.InstallmentInput
	}{
		{"missing plan", nil},
		{"missing frequency", &dto.InstallmentInput{Installments: 4, DownPayment: 20000}},
		{"too few installments", &dto.InstallmentInput{Frequency: model.FrequencyWeekly, Installments: 1, DownPayment: 20000}},
		{"too many installments", &dto.InstallmentInput{Frequency: model.FrequencyWeekly, Installments: 25, DownPayment: 20000}},
		{"no down payment", &dto.InstallmentInput{Frequency: model.FrequencyWeekly, Installments: 4}},
		{"down payment equals total", &dto.InstallmentInput{Frequency: model.FrequencyWeekly, Installments: 4, DownPayment: 100000}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			it := f.item(t, "LAPTOP", 100000, 3, false)
			in := orderInput(model.PaymentMethodCash, dto.LineInput{ItemID: it.ID, Quantity: 1})
			in.PaymentType = model.PaymentTypeInstallment
			in.Installment = tc.plan

			_, err := f.uc.CreateOrder(context.Background(), in)
			require.ErrorIs(t, err, apperror.ErrValidation)
			assert.Zero(t, f.reload(t, it.ID).ReservedStock)
		})
	}
}

func TestCreateOrderBankTransferLeavesInvoiceOpen(t *testing.T) {
	f := newFixture(t)
	it := f.item(t, "TV", 25000000, 2, false)

	view, err := f.uc.CreateOrder(context.Background(), orderInput(model.PaymentMethodBankTransfer, dto.LineInput{ItemID: it.ID, Quantity: 1}))
	require.NoError(t, err)

	p := view.Payments[0]
	assert.Equal(t, model.PaymentPending, p.Status)
	require.NotNil(t, p.Provider)
	assert.Equal(t, provider.NameManual, *p.Provider)
	assert.Equal(t, "0123456789", *p.AccountNumber)
	assert.Equal(t, model.InvoiceDraft, view.Invoice.Status)
	assert.Equal(t, int64(25000000), view.Invoice.BalanceAmount)

	f.notifier.mu.Lock()
	defer f.notifier.mu.Unlock()
	require.Len(t, f.notifier.messages, 2)
	assert.Equal(t, notification.TemplateBankTransfer, f.notifier.messages[1].Template)
	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, notification.EventOrderCreated, f.notifier.events[0].Type)
}

func TestCreateOrderBankTransferWithoutProvider(t *testing.T) {
	f := newFixture(t)
	f.uc.gateway = provider.NewGateway(nil)
	it := f.item(t, "TV", 25000000, 2, false)

	_, err := f.uc.CreateOrder(context.Background(), orderInput(model.PaymentMethodBankTransfer, dto.LineInput{ItemID: it.ID, Quantity: 1}))
	require.ErrorIs(t, err, apperror.ErrProviderUnavailable)
	assert.Zero(t, f.reload(t, it.ID).ReservedStock)
}

type countingProvider struct {
	provider.Provider
	calls int
}

func (c *countingProvider) GenerateBankDetails(ctx context.Context, req *provider.BankTransferRequest) (*provider.BankDetails, error) {
	c.calls++
	return c.Provider.GenerateBankDetails(ctx, req)
}

func TestCreateOrderBankTransferInstallmentChecksTermsFirst(t *testing.T) {
	cases := []struct {
		name string
		plan *dto.InstallmentInput
	}{
		{"unknown frequency", &dto.InstallmentInput{Frequency: "Yearly", Installments: 4, DownPayment: 20000}},
		{"too few installments", &dto.InstallmentInput{Frequency: model.FrequencyMonthly, Installments: 1, DownPayment: 20000}},
		{"too many installments", &dto.InstallmentInput{Frequency: model.FrequencyMonthly, Installments: 25, DownPayment: 20000}},
		{"no down payment", &dto.InstallmentInput{Frequency: model.FrequencyMonthly, Installments: 4}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			p, err := f.uc.gateway.Provider()
			require.NoError(t, err)
			counter := &countingProvider{Provider: p}
			f.uc.gateway = provider.NewGateway(counter)
			it := f.item(t, "LAPTOP", 100000, 3, false)
			in := orderInput(model.PaymentMethodBankTransfer, dto.LineInput{ItemID: it.ID, Quantity: 1})
			in.PaymentType = model.PaymentTypeInstallment
			in.Installment = tc.plan

			_, err = f.uc.CreateOrder(context.Background(), in)
			require.ErrorIs(t, err, apperror.ErrValidation)
			assert.Zero(t, counter.calls)
		})
	}

	t.Run("invalid terms without a provider", func(t *testing.T) {
		f := newFixture(t)
		f.uc.gateway = provider.NewGateway(nil)
		it := f.item(t, "LAPTOP", 100000, 3, false)
		in := orderInput(model.PaymentMethodBankTransfer, dto.LineInput{ItemID: it.ID, Quantity: 1})
		in.PaymentType = model.PaymentTypeInstallment
		in.Installment = &dto.InstallmentInput{Frequency: model.FrequencyMonthly, Installments: 30, DownPayment: 20000}

		_, err := f.uc.CreateOrder(context.Background(), in)
		require.ErrorIs(t, err, apperror.ErrValidation)
		assert.NotErrorIs(t, err, apperror.ErrProviderUnavailable)
	})
}

func TestCreateOrderConcurrentBuyersForLastUnit(t *testing.T) {
	f := newFixture(t)
	it := f.item(t, "PHONE", 5000000, 1, false)

	const buyers = 8
	var (
		wg   sync.WaitGroup
		errs = make([]error, buyers)
	)
	for i := range buyers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.uc.CreateOrder(context.Background(), orderInput(model.PaymentMethodCash, dto.LineInput{ItemID: it.ID, Quantity: 1}))
		}()
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, apperror.ErrInsufficientStock)
	}
	assert.Equal(t, 1, succeeded)

	after := f.reload(t, it.ID)
	assert.Equal(t, int64(1), after.ReservedStock)
	assert.LessOrEqual(t, after.ReservedStock, after.TotalStock)
	_, total, err := f.st.Orders().List(context.Background(), &dto.OrderFilters{BusinessID: biz})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestCreateOrderReusesCustomerByPhone(t *testing.T) {
	f := newFixture(t)
	it := f.item(t, "CHARGER", 500000, 10, false)

	first, err := f.uc.CreateOrder(context.Background(), orderInput(model.PaymentMethodCash, dto.LineInput{ItemID: it.ID, Quantity: 1}))
	require.NoError(t, err)
	in := orderInput(model.PaymentMethodCash, dto.LineInput{ItemID: it.ID, Quantity: 1})
	in.Customer.Phone = "+234 801 234 5678"
	second, err := f.uc.CreateOrder(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, first.Customer.ID, second.Customer.ID)
	assert.Equal(t, "+2348012345678", second.Customer.Phone)
}

func TestCreateOrderUnknownItem(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.CreateOrder(context.Background(), orderInput(model.PaymentMethodCash, dto.LineInput{ItemID: 404, Quantity: 1}))
	require.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestCalculateCart(t *testing.T) {
	f := newFixture(t)
	a := f.item(t, "CASE", 300000, 5, false)
	b := f.item(t, "TABLET", 9000000, 0, true)

	summary, err := f.uc.CalculateCart(context.Background(), &dto.CalculateCartInput{
		BusinessID: biz,
		Items: []dto.LineInput{
			{ItemID: a.ID, Quantity: 2},
			{ItemID: b.ID, Quantity: 1},
			{ItemID: 999, Quantity: 1},
		},
		TaxAmount: 1000,
	})
	require.NoError(t, err)

	require.Len(t, summary.Lines, 3)
	assert.True(t, summary.Lines[0].IsAvailable)
	assert.True(t, summary.Lines[1].IsPreOrder)
	assert.True(t, summary.Lines[1].CanOrder)
	assert.False(t, summary.Lines[2].CanOrder)
	assert.Equal(t, "item not found", summary.Lines[2].ErrorMessage)
	assert.True(t, summary.HasPreOrder)
	assert.False(t, summary.CanCheckout)
	assert.Equal(t, int64(600000+9000000), summary.Subtotal)
	assert.Equal(t, int64(600000+9000000+1000), summary.Total)
	assert.Equal(t, int64(5), f.reload(t, a.ID).TotalStock)
	assert.Zero(t, f.reload(t, a.ID).ReservedStock)
}

func TestCalculateCartLaterLineShortOfStock(t *testing.T) {
	f := newFixture(t)
	it := f.item(t, "CASE", 300000, 3, false)

	summary, err := f.uc.CalculateCart(context.Background(), &dto.CalculateCartInput{
		BusinessID: biz,
		Items: []dto.LineInput{
			{ItemID: it.ID, Quantity: 2},
			{ItemID: it.ID, Quantity: 2},
		},
	})
	require.NoError(t, err)

	require.Len(t, summary.Lines, 2)
	assert.True(t, summary.Lines[0].CanOrder)
	assert.True(t, summary.Lines[0].IsAvailable)
	assert.False(t, summary.Lines[1].CanOrder)
	assert.False(t, summary.Lines[1].IsPreOrder)
	assert.Equal(t, int64(1), summary.Lines[1].Available)
	assert.Equal(t, "insufficient stock: 1 available", summary.Lines[1].ErrorMessage)
	assert.False(t, summary.CanCheckout)
	assert.Zero(t, f.reload(t, it.ID).ReservedStock)
}

func TestUpdateOrderStatusRejectsSkippingStates(t *testing.T) {
	f := newFixture(t)
	it := f.item(t, "CASE", 300000, 5, false)
	view, err := f.uc.CreateOrder(context.Background(), orderInput(model.PaymentMethodCash, dto.LineInput{ItemID: it.ID, Quantity: 1}))
	require.NoError(t, err)

	_, err = f.uc.UpdateOrderStatus(context.Background(), &dto.UpdateStatusInput{BusinessID: biz, OrderID: view.Order.ID, Status: model.OrderShipped})
	require.ErrorIs(t, err, apperror.ErrInvalidTransition)
}

func TestCancelOrderReleasesStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	it := f.item(t, "PHONE", 5000000, 10, true)
	view, err := f.uc.CreateOrder(ctx, orderInput(model.PaymentMethodBankTransfer, dto.LineInput{ItemID: it.ID, Quantity: 12}))
	require.NoError(t, err)

	o, err := f.uc.UpdateOrderStatus(ctx, &dto.UpdateStatusInput{
		BusinessID: biz, OrderID: view.Order.ID, Status: model.OrderCancelled, Reason: "customer changed mind",
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, o.Status)
	require.NotNil(t, o.CancelledAt)
	assert.Equal(t, "customer changed mind", *o.CancellationReason)

	after := f.reload(t, it.ID)
	assert.Equal(t, int64(0), after.ReservedStock)
	assert.Equal(t, int64(10), after.AvailableStock())

	res, _, err := f.st.Inventory().ListReservations(ctx, &invdto.ReservationFilters{BusinessID: biz, ItemID: it.ID})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, model.ReservationCancelled, res[0].Status)

	_, err = f.uc.UpdateOrderStatus(ctx, &dto.UpdateStatusInput{BusinessID: biz, OrderID: view.Order.ID, Status: model.OrderConfirmed})
	require.ErrorIs(t, err, apperror.ErrInvalidTransition)
}

func advance(t *testing.T, f *fixture, id int64, statuses ...model.OrderStatus) error {
	t.Helper()
	for _, s := range statuses {
		if _, err := f.uc.UpdateOrderStatus(context.Background(), &dto.UpdateStatusInput{BusinessID: biz, OrderID: id, Status: s}); err != nil {
			return err
		}
	}
	return nil
}

func TestShipOrderBooksSale(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	it := f.item(t, "CASE", 300000, 10, false)
	view, err := f.uc.CreateOrder(ctx, orderInput(model.PaymentMethodCash, dto.LineInput{ItemID: it.ID, Quantity: 3}))
	require.NoError(t, err)
	assert.Equal(t, int64(3), f.reload(t, it.ID).ReservedStock)

	require.NoError(t, advance(t, f, view.Order.ID, model.OrderConfirmed, model.OrderProcessing, model.OrderShipped, model.OrderDelivered))

	after := f.reload(t, it.ID)
	assert.Equal(t, int64(7), after.TotalStock)
	assert.Equal(t, int64(0), after.ReservedStock)
	assert.Equal(t, int64(7), after.AvailableStock())

	entries, _, err := f.st.Inventory().ListStockEntries(ctx, &invdto.StockEntryFilters{BusinessID: biz, ItemID: it.ID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.StockEntrySale, entries[0].Type)
	assert.Equal(t, int64(-3), entries[0].Quantity)

	got, err := f.uc.GetOrder(ctx, biz, view.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderDelivered, got.Order.Status)
	assert.NotNil(t, got.Order.DeliveredAt)
}

func TestShipRequiresFullAllocation(t *testing.T) {
	f := newFixture(t)
	it := f.item(t, "PHONE", 5000000, 1, true)
	view, err := f.uc.CreateOrder(context.Background(), orderInput(model.PaymentMethodCash, dto.LineInput{ItemID: it.ID, Quantity: 2}))
	require.NoError(t, err)

	err = advance(t, f, view.Order.ID, model.OrderConfirmed, model.OrderProcessing, model.OrderShipped)
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, int64(1), f.reload(t, it.ID).TotalStock)
}

func TestGetOrderNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.GetOrder(context.Background(), biz, 12345)
	require.ErrorIs(t, err, apperror.ErrNotFound)
}
