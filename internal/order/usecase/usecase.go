package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-order-service/internal/apperror"
	"github.com/fekuna/omnipos-order-service/internal/inventory"
	"github.com/fekuna/omnipos-order-service/internal/inventory/allocator"
	"github.com/fekuna/omnipos-order-service/internal/inventory/stock"
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/notification"
	"github.com/fekuna/omnipos-order-service/internal/order"
	"github.com/fekuna/omnipos-order-service/internal/order/dto"
	"github.com/fekuna/omnipos-order-service/internal/payment/installment"
	"github.com/fekuna/omnipos-order-service/internal/payment/provider"
	"github.com/fekuna/omnipos-order-service/internal/payment/settlement"
	"github.com/fekuna/omnipos-order-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-order-service/internal/pkg/money"
	"github.com/fekuna/omnipos-order-service/internal/pkg/reference"
	"github.com/fekuna/omnipos-order-service/internal/pkg/tracing"
	"github.com/fekuna/omnipos-order-service/internal/store"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Settings are the business rules applied to new orders.
type Settings struct {
	Currency          string
	InvoiceDueDays    int
	BankDetailsExpiry time.Duration
}

func (s Settings) withDefaults() Settings {
	if s.Currency == "" {
		s.Currency = money.DefaultCurrency
	}
	if s.InvoiceDueDays <= 0 {
		s.InvoiceDueDays = 30
	}
	if s.BankDetailsExpiry <= 0 {
		s.BankDetailsExpiry = 24 * time.Hour
	}
	return s
}

type orderUseCase struct {
	store    store.Manager
	ledger   *stock.Ledger
	engine   *settlement.Engine
	gateway  *provider.Gateway
	sync     inventory.ItemSync
	notifier notification.Notifier
	settings Settings
	logger   logger.ZapLogger
	now      func() time.Time
}

func NewOrderUseCase(
	st store.Manager,
	ledger *stock.Ledger,
	engine *settlement.Engine,
	gateway *provider.Gateway,
	sync inventory.ItemSync,
	notifier notification.Notifier,
	settings Settings,
	log logger.ZapLogger,
) order.UseCase {
	return &orderUseCase{
		store:    st,
		ledger:   ledger,
		engine:   engine,
		gateway:  gateway,
		sync:     sync,
		notifier: notifier,
		settings: settings.withDefaults(),
		logger:   log,
		now:      time.Now,
	}
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

func actor(userID string) *string {
	if userID == "" || userID == "unknown" {
		return nil
	}
	return &userID
}

func lineIDs(lines []dto.LineInput) []int64 {
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ItemID)
	}
	return ids
}

func byID(items []model.Item) map[int64]*model.Item {
	out := make(map[int64]*model.Item, len(items))
	for i := range items {
		out[items[i].ID] = &items[i]
	}
	return out
}

func (uc *orderUseCase) CalculateCart(ctx context.Context, input *dto.CalculateCartInput) (*dto.CartSummary, error) {
	if len(input.Items) == 0 {
		return nil, apperror.Validation("cart is empty")
	}
	items, err := uc.store.Inventory().GetItems(ctx, input.BusinessID, lineIDs(input.Items))
	if err != nil {
		return nil, err
	}
	found := byID(items)

	summary := &dto.CartSummary{
		Lines:          make([]dto.CartLine, 0, len(input.Items)),
		TaxAmount:      input.TaxAmount,
		DiscountAmount: input.DiscountAmount,
		ShippingAmount: input.ShippingAmount,
		CanCheckout:    true,
	}
	for _, in := range input.Items {
		line := dto.CartLine{ItemID: in.ItemID, Quantity: in.Quantity}
		item, ok := found[in.ItemID]
		switch {
		case !ok:
			line.ErrorMessage = "item not found"
		case in.Quantity <= 0:
			line.ErrorMessage = "quantity must be positive"
		case item.Status != model.ItemStatusActive:
			line.SKU, line.Name = item.SKU, item.Name
			line.ErrorMessage = fmt.Sprintf("item is %s", strings.ToLower(string(item.Status)))
		default:
			line.SKU, line.Name = item.SKU, item.Name
			line.UnitPrice = item.SellingPrice
			line.LineTotal = item.SellingPrice * in.Quantity
			summary.Subtotal += line.LineTotal

			// Later lines on the same item see what earlier lines took.
			plan, err := allocator.Reserve(*item, in.Quantity)
			line.Available = item.AvailableStock()
			switch {
			case err == nil:
				allocator.Commit(item, plan)
				line.IsAvailable = plan.FullyCovered()
				line.IsPreOrder = !line.IsAvailable
				line.CanOrder = true
			case errors.Is(err, apperror.ErrInsufficientStock):
				line.ErrorMessage = fmt.Sprintf("insufficient stock: %d available", line.Available)
			default:
				line.ErrorMessage = err.Error()
			}
		}
		if line.IsPreOrder {
			summary.HasPreOrder = true
		}
		if !line.CanOrder {
			summary.CanCheckout = false
		}
		summary.Lines = append(summary.Lines, line)
	}
	summary.Total = summary.Subtotal + summary.TaxAmount + summary.ShippingAmount - summary.DiscountAmount
	if summary.Total <= 0 {
		summary.CanCheckout = false
	}
	return summary, nil
}

func (uc *orderUseCase) validateCreate(input *dto.CreateOrderInput) error {
	if input.BusinessID == "" {
		return apperror.Validation("business id is required")
	}
	if strings.TrimSpace(input.Customer.Phone) == "" {
		return apperror.Validation("customer phone is required")
	}
	if strings.TrimSpace(input.Customer.FirstName) == "" {
		return apperror.Validation("customer first name is required")
	}
	if len(input.Items) == 0 {
		return apperror.Validation("order must contain at least one item")
	}
	for _, l := range input.Items {
		if l.Quantity <= 0 {
			return apperror.Validation("quantity for item %d must be positive", l.ItemID)
		}
	}
	if !input.PaymentMethod.Valid() {
		return apperror.Validation("payment method %q is not supported", input.PaymentMethod)
	}
	if input.TaxAmount < 0 || input.DiscountAmount < 0 || input.ShippingAmount < 0 {
		return apperror.Validation("tax, discount and shipping must not be negative")
	}
	switch input.PaymentType {
	case model.PaymentTypeOneTime:
	case model.PaymentTypeInstallment:
		if input.Installment == nil {
			return apperror.Validation("installment details are required for installment payments")
		}
		in := input.Installment
		if err := installment.ValidateTerms(in.DownPayment, in.Frequency, in.Installments); err != nil {
			return err
		}
	default:
		return apperror.Validation("payment type %q is not supported", input.PaymentType)
	}
	return nil
}

// expectedAmount is the initial payment amount priced from an unlocked read.
func (uc *orderUseCase) expectedAmount(ctx context.Context, input *dto.CreateOrderInput) (int64, error) {
	if input.PaymentType == model.PaymentTypeInstallment {
		return input.Installment.DownPayment, nil
	}
	items, err := uc.store.Inventory().GetItems(ctx, input.BusinessID, lineIDs(input.Items))
	if err != nil {
		return 0, err
	}
	found := byID(items)
	var subtotal int64
	for _, l := range input.Items {
		item, ok := found[l.ItemID]
		if !ok {
			return 0, apperror.NotFound("item", l.ItemID)
		}
		subtotal += item.SellingPrice * l.Quantity
	}
	return subtotal + input.TaxAmount + input.ShippingAmount - input.DiscountAmount, nil
}

// bankDetails asks the provider for transfer details ahead of the
// transaction so no row lock is held across the call.
func (uc *orderUseCase) bankDetails(ctx context.Context, input *dto.CreateOrderInput, currency, paymentNumber string) (string, *provider.BankDetails, error) {
	amount, err := uc.expectedAmount(ctx, input)
	if err != nil {
		return "", nil, err
	}
	if amount <= 0 {
		return "", nil, apperror.Validation("order total must be greater than zero")
	}
	paymentType := "OneTime"
	if input.PaymentType == model.PaymentTypeInstallment {
		paymentType = "DownPayment"
	}
	name := strings.TrimSpace(input.Customer.FirstName + " " + input.Customer.LastName)
	return uc.gateway.GenerateBankDetails(ctx, &provider.BankTransferRequest{
		Amount:        amount,
		Currency:      currency,
		CustomerName:  name,
		CustomerPhone: reference.NormalizePhone(input.Customer.Phone),
		CustomerEmail: input.Customer.Email,
		Reference:     paymentNumber,
		Description:   "Order payment from " + name,
		ExpiryMinutes: int(uc.settings.BankDetailsExpiry / time.Minute),
		Metadata: provider.Metadata{
			BusinessID:     input.BusinessID,
			PaymentType:    paymentType,
			ExpectedAmount: amount,
		},
	})
}

type linePlan struct {
	input dto.LineInput
	item  *model.Item
	plan  allocator.Plan
}

// planLines walks the lines in request order against scratch copies of the
// locked items, so repeated items see earlier lines' commitments.
func planLines(lines []dto.LineInput, locked map[int64]*model.Item) ([]linePlan, error) {
	scratch := make(map[int64]model.Item, len(locked))
	for id, it := range locked {
		scratch[id] = *it
	}
	out := make([]linePlan, 0, len(lines))
	for _, l := range lines {
		item, ok := locked[l.ItemID]
		if !ok {
			return nil, apperror.NotFound("item", l.ItemID)
		}
		if item.Status != model.ItemStatusActive {
			return nil, apperror.Validation("item %s is not available for sale", item.SKU)
		}
		s := scratch[l.ItemID]
		plan, err := allocator.Reserve(s, l.Quantity)
		if err != nil {
			return nil, err
		}
		allocator.Commit(&s, plan)
		scratch[l.ItemID] = s
		out = append(out, linePlan{input: l, item: item, plan: plan})
	}
	return out, nil
}

func (uc *orderUseCase) CreateOrder(ctx context.Context, input *dto.CreateOrderInput) (view *dto.OrderView, err error) {
	ctx, span := tracing.Start(ctx, "order.CreateOrder", trace.WithAttributes(
		attribute.String("business_id", input.BusinessID),
		attribute.String("payment_method", string(input.PaymentMethod)),
		attribute.String("payment_type", string(input.PaymentType)),
		attribute.Int("lines", len(input.Items)),
	))
	defer tracing.End(span, &err)

	if input.PaymentType == "" {
		input.PaymentType = model.PaymentTypeOneTime
	}
	if err := uc.validateCreate(input); err != nil {
		return nil, err
	}

	now := uc.now()
	createdBy := actor(input.UserID)
	currency := input.Currency
	if currency == "" {
		currency = uc.settings.Currency
	}
	paymentNumber := reference.Generate(reference.PrefixPayment, now)

	var (
		providerName string
		details      *provider.BankDetails
	)
	if input.PaymentMethod == model.PaymentMethodBankTransfer {
		providerName, details, err = uc.bankDetails(ctx, input, currency, paymentNumber)
		if err != nil {
			return nil, err
		}
	}

	view = &dto.OrderView{}
	var touched []model.Item
	err = uc.store.Do(ctx, func(ctx context.Context, tx store.Tx) error {
		items, err := tx.Inventory().LockItems(ctx, input.BusinessID, lineIDs(input.Items))
		if err != nil {
			return err
		}
		locked := byID(items)
		plans, err := planLines(input.Items, locked)
		if err != nil {
			return err
		}

		o := &model.Order{
			BaseModel:            model.BaseModel{BusinessID: input.BusinessID},
			OrderNumber:          reference.Generate(reference.PrefixOrder, now),
			Type:                 model.OrderTypeRegular,
			Status:               model.OrderPending,
			TaxAmount:            input.TaxAmount,
			DiscountAmount:       input.DiscountAmount,
			ShippingAmount:       input.ShippingAmount,
			Currency:             currency,
			Notes:                optional(input.Notes),
			DeliveryAddress:      optional(input.DeliveryAddress),
			ExpectedDeliveryDate: input.ExpectedDeliveryDate,
			CreatedBy:            createdBy,
		}
		for _, lp := range plans {
			o.Subtotal += lp.item.SellingPrice * lp.input.Quantity
			if lp.plan.Shortfall > 0 {
				o.IsPreOrder = true
			}
		}
		o.Total = o.Subtotal + o.TaxAmount + o.ShippingAmount - o.DiscountAmount
		if o.Total <= 0 {
			return apperror.Validation("order total must be greater than zero")
		}
		if o.IsPreOrder {
			o.Type = model.OrderTypePreOrder
		}

		amount := o.Total
		if input.PaymentType == model.PaymentTypeInstallment {
			in := input.Installment
			if err := installment.ValidatePlan(o.Total, in.DownPayment, in.Frequency, in.Installments); err != nil {
				return err
			}
			amount = in.DownPayment
		}
		if details != nil && details.Amount != amount {
			return apperror.Conflict("order total changed from %d to %d during checkout; retry", details.Amount, amount)
		}

		customer, err := uc.findOrCreateCustomer(ctx, tx, input, createdBy)
		if err != nil {
			return err
		}
		o.CustomerID = customer.ID
		view.Customer = customer

		if err := tx.Orders().Create(ctx, o); err != nil {
			return err
		}
		for _, lp := range plans {
			line, res, err := uc.allocateLine(ctx, tx, o, lp, createdBy, now)
			if err != nil {
				return err
			}
			o.Items = append(o.Items, *line)
			if res != nil {
				view.Reservations = append(view.Reservations, *res)
			}
		}

		inv := &model.Invoice{
			BaseModel:      model.BaseModel{BusinessID: input.BusinessID},
			InvoiceNumber:  reference.Generate(reference.PrefixInvoice, now),
			OrderID:        o.ID,
			CustomerID:     customer.ID,
			Type:           model.InvoiceTypeStandard,
			Status:         model.InvoiceDraft,
			IssueDate:      now,
			DueDate:        now.AddDate(0, 0, uc.settings.InvoiceDueDays),
			Subtotal:       o.Subtotal,
			TaxAmount:      o.TaxAmount,
			DiscountAmount: o.DiscountAmount,
			ShippingAmount: o.ShippingAmount,
			Total:          o.Total,
			BalanceAmount:  o.Total,
			Currency:       currency,
			CreatedBy:      createdBy,
		}
		if err := tx.Payments().CreateInvoice(ctx, inv); err != nil {
			return err
		}

		p := &model.Payment{
			BaseModel:     model.BaseModel{BusinessID: input.BusinessID},
			PaymentNumber: paymentNumber,
			InvoiceID:     inv.ID,
			CustomerID:    customer.ID,
			Amount:        amount,
			Currency:      currency,
			Method:        input.PaymentMethod,
			Type:          input.PaymentType,
			Status:        model.PaymentPending,
			CreatedBy:     createdBy,
		}
		if input.PaymentMethod.SettlesImmediately() {
			p.Status = model.PaymentCompleted
			p.PaidAt = &now
		}
		if details != nil {
			p.Provider = &providerName
			p.ProviderReference = &details.Reference
			p.BankName = &details.BankName
			p.AccountNumber = &details.AccountNumber
			p.AccountName = &details.AccountName
			p.BankDetailsExpiry = details.ExpiresAt
		}
		if err := tx.Payments().CreatePayment(ctx, p); err != nil {
			return err
		}

		if input.PaymentType == model.PaymentTypeInstallment {
			in := input.Installment
			start := now
			if in.StartDate != nil {
				start = *in.StartDate
			}
			view.Schedules, err = uc.engine.Schedule(ctx, tx, inv, installment.Plan{
				Total:        o.Total,
				DownPayment:  in.DownPayment,
				Frequency:    in.Frequency,
				Installments: in.Installments,
				StartDate:    start,
			}, createdBy)
			if err != nil {
				return err
			}
		}

		if p.IsSuccessful() {
			target := 0
			if input.PaymentType == model.PaymentTypeInstallment {
				target = 1
			}
			if _, err := uc.engine.Apply(ctx, tx, inv, amount, target, now); err != nil {
				return err
			}
			if view.Schedules != nil {
				if view.Schedules, err = tx.Payments().ListSchedules(ctx, inv.BusinessID, inv.ID); err != nil {
					return err
				}
			}
		}

		view.Order = *o
		view.Invoice = inv
		view.Payments = []model.Payment{*p}
		touched = items
		return nil
	})
	if err != nil {
		return nil, err
	}

	o := view.Order
	uc.logger.Info("order created",
		zap.String("business_id", o.BusinessID),
		zap.String("order_number", o.OrderNumber),
		zap.Int64("total", o.Total),
		zap.Bool("pre_order", o.IsPreOrder),
		zap.String("payment_method", string(input.PaymentMethod)),
		zap.String("payment_type", string(input.PaymentType)),
	)
	uc.sync.ItemsChanged(ctx, o.BusinessID, touched...)
	uc.notifier.Emit(ctx, notification.Event{
		Type:        notification.EventOrderCreated,
		BusinessID:  o.BusinessID,
		AggregateID: o.ID,
		Reference:   o.OrderNumber,
		Payload:     view,
	})
	uc.notifyCreated(ctx, view, details)
	return view, nil
}

func (uc *orderUseCase) findOrCreateCustomer(ctx context.Context, tx store.Tx, input *dto.CreateOrderInput, createdBy *string) (*model.Customer, error) {
	phone := reference.NormalizePhone(input.Customer.Phone)
	c, err := tx.Customers().FindByPhone(ctx, input.BusinessID, phone)
	if err != nil {
		return nil, err
	}
	if c != nil {
		return c, nil
	}
	c = &model.Customer{
		BaseModel: model.BaseModel{BusinessID: input.BusinessID},
		FirstName: strings.TrimSpace(input.Customer.FirstName),
		LastName:  strings.TrimSpace(input.Customer.LastName),
		Phone:     phone,
		Email:     optional(input.Customer.Email),
		Address:   optional(input.Customer.Address),
		CreatedBy: createdBy,
	}
	if err := tx.Customers().Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// allocateLine persists one order line with what stock covers now and, for
// a shortfall, an Order reservation linked to the line.
func (uc *orderUseCase) allocateLine(ctx context.Context, tx store.Tx, o *model.Order, lp linePlan, createdBy *string, now time.Time) (*model.OrderItem, *model.Reservation, error) {
	line := &model.OrderItem{
		BaseModel:         model.BaseModel{BusinessID: o.BusinessID},
		OrderID:           o.ID,
		ItemID:            lp.item.ID,
		ItemSKU:           lp.item.SKU,
		ItemName:          lp.item.Name,
		Quantity:          lp.input.Quantity,
		UnitPrice:         lp.item.SellingPrice,
		LineTotal:         lp.item.SellingPrice * lp.input.Quantity,
		Currency:          o.Currency,
		IsPreOrder:        lp.plan.Shortfall > 0,
		ReservedQuantity:  lp.plan.Covered,
		FulfilledQuantity: lp.plan.Covered,
		Notes:             optional(lp.input.Notes),
	}
	if err := tx.Orders().CreateItem(ctx, line); err != nil {
		return nil, nil, err
	}

	hold, err := uc.ledger.Reserve(ctx, tx, lp.item, lp.input.Quantity, model.Reservation{
		OrderItemID:   &line.ID,
		Type:          model.ReservationOrder,
		Reference:     &o.OrderNumber,
		ReservedBy:    createdBy,
	}, false, now)
	if err != nil {
		return nil, nil, err
	}
	if hold.Plan != lp.plan {
		return nil, nil, apperror.Internal(fmt.Errorf("allocation of item %d drifted from plan", lp.item.ID))
	}
	return line, hold.Reservation, nil
}

func (uc *orderUseCase) notifyCreated(ctx context.Context, view *dto.OrderView, details *provider.BankDetails) {
	if view.Customer == nil {
		return
	}
	o := view.Order
	vars := map[string]string{
		"customer_name": view.Customer.FullName(),
		"order_number":  o.OrderNumber,
		"total":         money.Format(o.Total, o.Currency),
	}
	uc.notifier.Queue(ctx, notification.Message{
		BusinessID: o.BusinessID,
		Channel:    notification.ChannelSMS,
		Receiver:   view.Customer.Phone,
		Template:   notification.TemplateOrderConfirmation,
		Variables:  vars,
	})
	if details != nil {
		uc.notifier.Queue(ctx, notification.Message{
			BusinessID: o.BusinessID,
			Channel:    notification.ChannelSMS,
			Receiver:   view.Customer.Phone,
			Template:   notification.TemplateBankTransfer,
			Variables: map[string]string{
				"order_number":   o.OrderNumber,
				"bank_name":      details.BankName,
				"account_number": details.AccountNumber,
				"account_name":   details.AccountName,
				"amount":         money.Format(details.Amount, details.Currency),
				"reference":      details.Reference,
			},
		})
	}
}

func (uc *orderUseCase) GetOrder(ctx context.Context, businessID string, id int64) (*dto.OrderView, error) {
	o, err := uc.store.Orders().GetByID(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperror.NotFound("order", id)
	}
	if o.Items, err = uc.store.Orders().ListItems(ctx, businessID, id); err != nil {
		return nil, err
	}

	view := &dto.OrderView{Order: *o}
	if view.Customer, err = uc.store.Customers().GetByID(ctx, businessID, o.CustomerID); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(o.Items))
	for _, line := range o.Items {
		ids = append(ids, line.ID)
	}
	if len(ids) > 0 {
		if view.Reservations, err = uc.store.Inventory().ListReservationsByOrderItems(ctx, businessID, ids); err != nil {
			return nil, err
		}
	}

	inv, err := uc.store.Payments().GetInvoiceByOrder(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return view, nil
	}
	view.Invoice = inv
	if view.Payments, err = uc.store.Payments().ListPayments(ctx, businessID, inv.ID); err != nil {
		return nil, err
	}
	if view.Schedules, err = uc.store.Payments().ListSchedules(ctx, businessID, inv.ID); err != nil {
		return nil, err
	}
	return view, nil
}

func (uc *orderUseCase) ListOrders(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error) {
	return uc.store.Orders().List(ctx, filters)
}

func (uc *orderUseCase) UpdateOrderStatus(ctx context.Context, input *dto.UpdateStatusInput) (o *model.Order, err error) {
	ctx, span := tracing.Start(ctx, "order.UpdateOrderStatus", trace.WithAttributes(
		attribute.String("business_id", input.BusinessID),
		attribute.Int64("order_id", input.OrderID),
		attribute.String("status", string(input.Status)),
	))
	defer tracing.End(span, &err)

	now := uc.now()
	var (
		touched []model.Item
		from    model.OrderStatus
	)
	err = uc.store.Do(ctx, func(ctx context.Context, tx store.Tx) error {
		o, err = tx.Orders().Lock(ctx, input.BusinessID, input.OrderID)
		if err != nil {
			return err
		}
		if o == nil {
			return apperror.NotFound("order", input.OrderID)
		}
		from = o.Status
		if !o.Status.CanTransitionTo(input.Status) {
			return apperror.InvalidTransition("order", o.Status, input.Status)
		}

		lines, err := tx.Orders().ListItems(ctx, input.BusinessID, o.ID)
		if err != nil {
			return err
		}
		o.Items = lines

		switch input.Status {
		case model.OrderCancelled:
			touched, err = uc.cancel(ctx, tx, o, input.Reason)
			o.CancelledAt = &now
			o.CancellationReason = optional(input.Reason)
		case model.OrderShipped:
			touched, err = uc.ship(ctx, tx, o, actor(input.UserID), now)
		case model.OrderDelivered:
			o.DeliveredAt = &now
		}
		if err != nil {
			return err
		}

		o.Status = input.Status
		return tx.Orders().UpdateStatus(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("order status updated",
		zap.String("business_id", o.BusinessID),
		zap.String("order_number", o.OrderNumber),
		zap.String("from", string(from)),
		zap.String("to", string(o.Status)),
	)
	if len(touched) > 0 {
		uc.sync.ItemsChanged(ctx, o.BusinessID, touched...)
	}
	uc.notifier.Emit(ctx, notification.Event{
		Type:        notification.EventOrderStatusChanged,
		BusinessID:  o.BusinessID,
		AggregateID: o.ID,
		Reference:   o.OrderNumber,
		Payload:     map[string]string{"from": string(from), "to": string(o.Status)},
	})
	return o, nil
}

func (uc *orderUseCase) lockLineItems(ctx context.Context, tx store.Tx, o *model.Order) ([]model.Item, map[int64]*model.Item, error) {
	ids := make([]int64, 0, len(o.Items))
	for _, line := range o.Items {
		ids = append(ids, line.ItemID)
	}
	items, err := tx.Inventory().LockItems(ctx, o.BusinessID, ids)
	if err != nil {
		return nil, nil, err
	}
	found := byID(items)
	for _, line := range o.Items {
		if _, ok := found[line.ItemID]; !ok {
			return nil, nil, apperror.NotFound("item", line.ItemID)
		}
	}
	return items, found, nil
}

// cancel closes the order's waiting reservations and hands the units its
// lines hold back to available stock.
func (uc *orderUseCase) cancel(ctx context.Context, tx store.Tx, o *model.Order, reason string) ([]model.Item, error) {
	items, found, err := uc.lockLineItems(ctx, tx, o)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(o.Items))
	for _, line := range o.Items {
		ids = append(ids, line.ID)
	}
	reservations, err := tx.Inventory().ListReservationsByOrderItems(ctx, o.BusinessID, ids)
	if err != nil {
		return nil, err
	}
	note := "Order cancelled"
	if reason = strings.TrimSpace(reason); reason != "" {
		note += ": " + reason
	}
	for i := range reservations {
		r := &reservations[i]
		if r.Status != model.ReservationActive {
			continue
		}
		if err := uc.ledger.Close(ctx, tx, found[r.ItemID], r, model.ReservationCancelled, note, false); err != nil {
			return nil, err
		}
	}

	for i := range o.Items {
		line := &o.Items[i]
		if err := uc.ledger.Unreserve(ctx, tx, found[line.ItemID], line.ReservedQuantity); err != nil {
			return nil, err
		}
		line.ReservedQuantity = 0
		if err := tx.Orders().UpdateItemAllocation(ctx, line); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// ship books the sale of every line. Each line must already hold its full
// quantity; the sale consumes the committed units with the stock.
func (uc *orderUseCase) ship(ctx context.Context, tx store.Tx, o *model.Order, by *string, now time.Time) ([]model.Item, error) {
	for _, line := range o.Items {
		if !line.IsFullyFulfilled() {
			return nil, apperror.Validation("line %s has %d of %d units allocated", line.ItemSKU, line.FulfilledQuantity, line.Quantity)
		}
	}
	items, found, err := uc.lockLineItems(ctx, tx, o)
	if err != nil {
		return nil, err
	}

	notes := "Shipped with order " + o.OrderNumber
	for _, line := range o.Items {
		item := found[line.ItemID]
		if !item.TrackStock {
			continue
		}
		if _, _, err := uc.ledger.Adjust(ctx, tx, item, stock.Movement{
			Type:            model.StockEntrySale,
			Quantity:        -line.Quantity,
			Reference:       &o.OrderNumber,
			Notes:           &notes,
			ReleaseReserved: true,
			Actor:           by,
		}, now); err != nil {
			return nil, err
		}
	}
	return items, nil
}
