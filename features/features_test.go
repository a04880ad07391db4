package features

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/fekuna/omnipos-order-service/internal/apperror"
	"github.com/fekuna/omnipos-order-service/internal/inventory"
	invdto "github.com/fekuna/omnipos-order-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-order-service/internal/inventory/stock"
	invuc "github.com/fekuna/omnipos-order-service/internal/inventory/usecase"
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/notification"
	"github.com/fekuna/omnipos-order-service/internal/order"
	orderdto "github.com/fekuna/omnipos-order-service/internal/order/dto"
	orderuc "github.com/fekuna/omnipos-order-service/internal/order/usecase"
	"github.com/fekuna/omnipos-order-service/internal/payment"
	paydto "github.com/fekuna/omnipos-order-service/internal/payment/dto"
	"github.com/fekuna/omnipos-order-service/internal/payment/provider"
	"github.com/fekuna/omnipos-order-service/internal/payment/settlement"
	payuc "github.com/fekuna/omnipos-order-service/internal/payment/usecase"
	"github.com/fekuna/omnipos-order-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-order-service/internal/store/memory"
)

const biz = "BIZ001"

type posTestContext struct {
	store     *memory.Store
	inventory inventory.UseCase
	orders    order.UseCase
	payments  payment.UseCase

	items        map[string]*model.Item
	view         *orderdto.OrderView
	err          error
	invoice      *model.Invoice
	distribution *paydto.Distribution
}

func (c *posTestContext) reset() error {
	log := logger.NewNopLogger()
	manual, err := provider.New(&provider.Config{
		Default:             provider.NameManual,
		ManualBankName:      "GTBank",
		ManualAccountNumber: "0123456789",
		ManualAccountName:   "Ade Phones",
	}, log)
	if err != nil {
		return err
	}
	gateway := provider.NewGateway(manual)
	ledger := stock.NewLedger(log)
	engine := settlement.NewEngine(log)
	sync := invuc.NewItemSync(nil, nil, log)
	notifier := notification.NewLogNotifier(log)

	c.store = memory.New()
	c.inventory = invuc.NewInventoryUseCase(c.store, ledger, sync, nil, nil, log)
	c.orders = orderuc.NewOrderUseCase(c.store, ledger, engine, gateway, sync, notifier, orderuc.Settings{}, log)
	c.payments = payuc.NewPaymentUseCase(c.store, engine, gateway, notifier, time.Hour, log)
	c.items = map[string]*model.Item{}
	c.view = nil
	c.err = nil
	c.invoice = nil
	c.distribution = nil
	return nil
}

func (c *posTestContext) item(sku string) (*model.Item, error) {
	seeded, ok := c.items[sku]
	if !ok {
		return nil, fmt.Errorf("unknown item %q", sku)
	}
	return c.inventory.GetItem(context.Background(), biz, seeded.ID)
}

func (c *posTestContext) line(sku string) (*model.OrderItem, error) {
	if c.view == nil {
		return nil, errors.New("no order was placed")
	}
	seeded, ok := c.items[sku]
	if !ok {
		return nil, fmt.Errorf("unknown item %q", sku)
	}
	for i := range c.view.Order.Items {
		if c.view.Order.Items[i].ItemID == seeded.ID {
			return &c.view.Order.Items[i], nil
		}
	}
	return nil, fmt.Errorf("order has no line for %q", sku)
}

func (c *posTestContext) refreshOrder() error {
	if c.view == nil {
		return errors.New("no order was placed")
	}
	view, err := c.orders.GetOrder(context.Background(), biz, c.view.Order.ID)
	if err != nil {
		return err
	}
	c.view = view
	return nil
}

func (c *posTestContext) anItemWithTotalStock(sku string, total int64, policy string) error {
	it, err := c.inventory.CreateItem(context.Background(), &invdto.CreateItemInput{
		BusinessID:    biz,
		SKU:           sku,
		Name:          sku,
		SellingPrice:  100000,
		InitialStock:  total,
		AllowPreOrder: policy == "allows",
	})
	if err != nil {
		return err
	}
	c.items[sku] = it
	return nil
}

func (c *posTestContext) place(lines ...orderdto.LineInput) error {
	view, err := c.orders.CreateOrder(context.Background(), &orderdto.CreateOrderInput{
		BusinessID:    biz,
		Customer:      orderdto.CustomerInfo{FirstName: "Chioma", LastName: "Okafor", Phone: "08012345678"},
		Items:         lines,
		PaymentMethod: model.PaymentMethodCash,
		PaymentType:   model.PaymentTypeOneTime,
	})
	c.view, c.err = view, err
	return nil
}

func (c *posTestContext) aCustomerOrders(qty int64, sku string) error {
	it, ok := c.items[sku]
	if !ok {
		return fmt.Errorf("unknown item %q", sku)
	}
	return c.place(orderdto.LineInput{ItemID: it.ID, Quantity: qty})
}

func (c *posTestContext) aCustomerOrdersTwoItems(qtyA int64, skuA string, qtyB int64, skuB string) error {
	a, okA := c.items[skuA]
	b, okB := c.items[skuB]
	if !okA || !okB {
		return fmt.Errorf("unknown item %q or %q", skuA, skuB)
	}
	return c.place(orderdto.LineInput{ItemID: a.ID, Quantity: qtyA}, orderdto.LineInput{ItemID: b.ID, Quantity: qtyB})
}

func (c *posTestContext) theOrderFailsWith(code string) error {
	if c.err == nil {
		return errors.New("expected the order to fail")
	}
	if got := apperror.CodeOf(c.err); string(got) != code {
		return fmt.Errorf("expected %s, got %s (%v)", code, got, c.err)
	}
	return nil
}

func (c *posTestContext) noOrderExists() error {
	_, total, err := c.orders.ListOrders(context.Background(), &orderdto.OrderFilters{BusinessID: biz})
	if err != nil {
		return err
	}
	if total != 0 {
		return fmt.Errorf("expected no orders, found %d", total)
	}
	return nil
}

func (c *posTestContext) itemHasStock(sku string, total, reserved int64) error {
	it, err := c.item(sku)
	if err != nil {
		return err
	}
	if it.TotalStock != total || it.ReservedStock != reserved {
		return fmt.Errorf("expected total %d reserved %d, got total %d reserved %d", total, reserved, it.TotalStock, it.ReservedStock)
	}
	return nil
}

func (c *posTestContext) itemHasAvailableStock(sku string, available int64) error {
	it, err := c.item(sku)
	if err != nil {
		return err
	}
	if got := it.AvailableStock(); got != available {
		return fmt.Errorf("expected %d available, got %d", available, got)
	}
	return nil
}

func (c *posTestContext) theOrderIsAPreOrder() error {
	if c.err != nil {
		return fmt.Errorf("order failed: %w", c.err)
	}
	if !c.view.Order.IsPreOrder {
		return errors.New("expected a pre-order")
	}
	return nil
}

func (c *posTestContext) theOrderHasAnActiveReservation(qty int64, sku string) error {
	ln, err := c.line(sku)
	if err != nil {
		return err
	}
	for _, r := range c.view.Reservations {
		if r.OrderItemID != nil && *r.OrderItemID == ln.ID {
			if r.Status != model.ReservationActive || r.Quantity != qty {
				return fmt.Errorf("expected an active reservation of %d, got %s of %d", qty, r.Status, r.Quantity)
			}
			return nil
		}
	}
	return fmt.Errorf("no reservation for %q", sku)
}

func (c *posTestContext) unitsAreReceived(qty int64, sku string) error {
	it, ok := c.items[sku]
	if !ok {
		return fmt.Errorf("unknown item %q", sku)
	}
	_, err := c.inventory.AddStock(context.Background(), &invdto.AddStockInput{
		BusinessID: biz,
		ItemID:     it.ID,
		Type:       model.StockEntryIncoming,
		Quantity:   qty,
		Reference:  "GRN-1",
	})
	if err != nil {
		return err
	}
	return c.refreshOrder()
}

func (c *posTestContext) theReservationIsFulfilled(sku string) error {
	ln, err := c.line(sku)
	if err != nil {
		return err
	}
	for _, r := range c.view.Reservations {
		if r.OrderItemID != nil && *r.OrderItemID == ln.ID {
			if r.Status != model.ReservationFulfilled {
				return fmt.Errorf("expected fulfilled, got %s", r.Status)
			}
			return nil
		}
	}
	return fmt.Errorf("no reservation for %q", sku)
}

func (c *posTestContext) theLineIsFullyFulfilled(sku string) error {
	ln, err := c.line(sku)
	if err != nil {
		return err
	}
	if ln.FulfilledQuantity != ln.Quantity {
		return fmt.Errorf("expected %d fulfilled, got %d", ln.Quantity, ln.FulfilledQuantity)
	}
	return nil
}

func (c *posTestContext) theLineIsShortBy(sku string, short int64) error {
	ln, err := c.line(sku)
	if err != nil {
		return err
	}
	if got := ln.Quantity - ln.FulfilledQuantity; got != short {
		return fmt.Errorf("expected a shortfall of %d, got %d", short, got)
	}
	return nil
}

func (c *posTestContext) anInvoiceWithDownPayment(total, down int64) error {
	ctx := context.Background()
	cust := &model.Customer{BaseModel: model.BaseModel{BusinessID: biz}, FirstName: "Tunde", Phone: "+2348098765432"}
	if err := c.store.Customers().Create(ctx, cust); err != nil {
		return err
	}
	now := time.Now()
	inv := &model.Invoice{
		BaseModel:     model.BaseModel{BusinessID: biz},
		InvoiceNumber: "INV_FEATURE",
		CustomerID:    cust.ID,
		Type:          model.InvoiceTypeStandard,
		Status:        model.InvoicePartialPaid,
		IssueDate:     now,
		DueDate:       now.AddDate(0, 0, 30),
		Subtotal:      total,
		Total:         total,
		PaidAmount:    down,
		BalanceAmount: total - down,
		Currency:      "NGN",
	}
	if err := c.store.Payments().CreateInvoice(ctx, inv); err != nil {
		return err
	}
	c.invoice = inv
	return nil
}

func (c *posTestContext) aScheduleIsCreated(frequency string, n int) error {
	freq := map[string]model.InstallmentFrequency{
		"daily":   model.FrequencyDaily,
		"weekly":  model.FrequencyWeekly,
		"monthly": model.FrequencyMonthly,
	}[frequency]
	if freq == "" {
		return fmt.Errorf("unknown frequency %q", frequency)
	}
	_, err := c.payments.CreateSchedule(context.Background(), &paydto.CreateScheduleInput{
		BusinessID:   biz,
		InvoiceID:    c.invoice.ID,
		Frequency:    freq,
		Installments: n,
	})
	return err
}

func (c *posTestContext) schedules() ([]model.PaymentSchedule, error) {
	return c.payments.GetPaymentSchedule(context.Background(), biz, c.invoice.ID)
}

func (c *posTestContext) theScheduleAmountsAre(list string) error {
	schedules, err := c.schedules()
	if err != nil {
		return err
	}
	want := strings.Split(list, ",")
	if len(schedules) != len(want) {
		return fmt.Errorf("expected %d installments, got %d", len(want), len(schedules))
	}
	for i, w := range want {
		amount, err := strconv.ParseInt(strings.TrimSpace(w), 10, 64)
		if err != nil {
			return err
		}
		if schedules[i].AmountDue != amount {
			return fmt.Errorf("installment %d: expected %d, got %d", i+1, amount, schedules[i].AmountDue)
		}
	}
	return nil
}

func (c *posTestContext) theScheduleTotals(total int64) error {
	schedules, err := c.schedules()
	if err != nil {
		return err
	}
	var sum int64
	for _, s := range schedules {
		sum += s.AmountDue
	}
	if sum != total {
		return fmt.Errorf("expected schedule total %d, got %d", total, sum)
	}
	return nil
}

func (c *posTestContext) aPaymentIsDistributed(amount int64) error {
	dist, err := c.payments.DistributePayment(context.Background(), &paydto.DistributeInput{
		BusinessID: biz,
		InvoiceID:  c.invoice.ID,
		Amount:     amount,
	})
	if err != nil {
		return err
	}
	c.distribution = dist
	return nil
}

func (c *posTestContext) theAppliedAmountAndExcess(applied, excess int64) error {
	if c.distribution == nil {
		return errors.New("no payment was distributed")
	}
	if c.distribution.AppliedAmount != applied || c.distribution.ExcessAmount != excess {
		return fmt.Errorf("expected applied %d excess %d, got applied %d excess %d",
			applied, excess, c.distribution.AppliedAmount, c.distribution.ExcessAmount)
	}
	return nil
}

func (c *posTestContext) everyInstallmentIsPaid() error {
	schedules, err := c.schedules()
	if err != nil {
		return err
	}
	for _, s := range schedules {
		if s.Status != model.SchedulePaid {
			return fmt.Errorf("installment %d is %s", s.InstallmentNumber, s.Status)
		}
	}
	return nil
}

func (c *posTestContext) theInvoiceIsFullyPaid() error {
	view, err := c.payments.GetInvoice(context.Background(), biz, c.invoice.ID)
	if err != nil {
		return err
	}
	if view.Invoice.Status != model.InvoicePaid || view.Invoice.BalanceAmount != 0 {
		return fmt.Errorf("expected a paid invoice, got %s with balance %d", view.Invoice.Status, view.Invoice.BalanceAmount)
	}
	if !c.distribution.InvoiceFullyPaid {
		return errors.New("distribution did not report the invoice as fully paid")
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &posTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		return ctx, tc.reset()
	})

	ctx.Step(`^an item "([^"]*)" with total stock (\d+) that (allows|does not allow) pre-orders$`, tc.anItemWithTotalStock)
	ctx.Step(`^a customer orders (\d+) of "([^"]*)"$`, tc.aCustomerOrders)
	ctx.Step(`^a customer orders (\d+) of "([^"]*)" and (\d+) of "([^"]*)"$`, tc.aCustomerOrdersTwoItems)
	ctx.Step(`^the order fails with "([^"]*)"$`, tc.theOrderFailsWith)
	ctx.Step(`^no order exists$`, tc.noOrderExists)
	ctx.Step(`^item "([^"]*)" has total stock (\d+) and reserved stock (\d+)$`, tc.itemHasStock)
	ctx.Step(`^item "([^"]*)" has available stock (\d+)$`, tc.itemHasAvailableStock)
	ctx.Step(`^the order is a pre-order$`, tc.theOrderIsAPreOrder)
	ctx.Step(`^the order has an active reservation of (\d+) for "([^"]*)"$`, tc.theOrderHasAnActiveReservation)
	ctx.Step(`^(\d+) units of "([^"]*)" are received$`, tc.unitsAreReceived)
	ctx.Step(`^the reservation for "([^"]*)" is fulfilled$`, tc.theReservationIsFulfilled)
	ctx.Step(`^the line for "([^"]*)" is fully fulfilled$`, tc.theLineIsFullyFulfilled)
	ctx.Step(`^the line for "([^"]*)" is short by (\d+)$`, tc.theLineIsShortBy)

	ctx.Step(`^an invoice with total (\d+) and a down payment of (\d+)$`, tc.anInvoiceWithDownPayment)
	ctx.Step(`^a (daily|weekly|monthly) schedule of (\d+) installments is created$`, tc.aScheduleIsCreated)
	ctx.Step(`^the schedule amounts are "([^"]*)"$`, tc.theScheduleAmountsAre)
	ctx.Step(`^the schedule totals (\d+)$`, tc.theScheduleTotals)
	ctx.Step(`^a payment of (\d+) is distributed$`, tc.aPaymentIsDistributed)
	ctx.Step(`^the applied amount is (\d+) and the excess is (\d+)$`, tc.theAppliedAmountAndExcess)
	ctx.Step(`^every installment is paid$`, tc.everyInstallmentIsPaid)
	ctx.Step(`^the invoice is fully paid$`, tc.theInvoiceIsFullyPaid)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"stock_allocation.feature", "installments.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
