package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/omnipos-order-service/internal/apperror"
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/notification"
	"github.com/fekuna/omnipos-order-service/internal/payment"
	"github.com/fekuna/omnipos-order-service/internal/payment/dto"
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

type paymentUseCase struct {
	store             store.Manager
	engine            *settlement.Engine
	gateway           *provider.Gateway
	notifier          notification.Notifier
	bankDetailsExpiry time.Duration
	logger            logger.ZapLogger
	now               func() time.Time
}

func NewPaymentUseCase(st store.Manager, engine *settlement.Engine, gateway *provider.Gateway, notifier notification.Notifier, bankDetailsExpiry time.Duration, log logger.ZapLogger) payment.UseCase {
	if bankDetailsExpiry <= 0 {
		bankDetailsExpiry = 24 * time.Hour
	}
	return &paymentUseCase{
		store:             st,
		engine:            engine,
		gateway:           gateway,
		notifier:          notifier,
		bankDetailsExpiry: bankDetailsExpiry,
		logger:            log,
		now:               time.Now,
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

func appendNote(notes *string, line string) *string {
	if notes == nil || *notes == "" {
		return &line
	}
	joined := *notes + "\n" + line
	return &joined
}

// payable checks that inv can take amount more.
func payable(inv *model.Invoice, amount int64) error {
	if !inv.AcceptsPayment() {
		return apperror.Validation("invoice %s is %s and accepts no payments", inv.InvoiceNumber, inv.Status)
	}
	if amount > inv.BalanceAmount {
		return apperror.PaymentExceedsBalance(amount, inv.BalanceAmount)
	}
	return nil
}

func (uc *paymentUseCase) CreatePayment(ctx context.Context, input *dto.CreatePaymentInput) (view *dto.PaymentView, err error) {
	ctx, span := tracing.Start(ctx, "payment.CreatePayment", trace.WithAttributes(
		attribute.String("business_id", input.BusinessID),
		attribute.Int64("invoice_id", input.InvoiceID),
		attribute.Int64("amount", input.Amount),
		attribute.String("method", string(input.Method)),
	))
	defer tracing.End(span, &err)

	if input.Amount <= 0 {
		return nil, apperror.Validation("payment amount must be greater than zero")
	}
	if !input.Method.Valid() {
		return nil, apperror.Validation("payment method %q is not supported", input.Method)
	}

	pre, err := uc.store.Payments().GetInvoice(ctx, input.BusinessID, input.InvoiceID)
	if err != nil {
		return nil, err
	}
	if pre == nil {
		return nil, apperror.NotFound("invoice", input.InvoiceID)
	}
	if err := payable(pre, input.Amount); err != nil {
		return nil, err
	}

	now := uc.now()
	paymentNumber := reference.Generate(reference.PrefixPayment, now)
	view = &dto.PaymentView{}
	var providerName string
	if input.Method == model.PaymentMethodBankTransfer {
		providerName, view.BankDetails, err = uc.requestBankDetails(ctx, pre, input.Amount, paymentNumber)
		if err != nil {
			return nil, err
		}
	}

	err = uc.store.Do(ctx, func(ctx context.Context, tx store.Tx) error {
		inv, err := tx.Payments().LockInvoice(ctx, input.BusinessID, input.InvoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return apperror.NotFound("invoice", input.InvoiceID)
		}
		if err := payable(inv, input.Amount); err != nil {
			return err
		}
		schedules, err := tx.Payments().ListSchedules(ctx, inv.BusinessID, inv.ID)
		if err != nil {
			return err
		}

		p := &model.Payment{
			BaseModel:         model.BaseModel{BusinessID: inv.BusinessID},
			PaymentNumber:     paymentNumber,
			InvoiceID:         inv.ID,
			CustomerID:        inv.CustomerID,
			Amount:            input.Amount,
			Currency:          inv.Currency,
			Method:            input.Method,
			Type:              model.PaymentTypeOneTime,
			Status:            model.PaymentPending,
			Reference:         optional(input.Reference),
			ExternalReference: optional(input.ExternalReference),
			Notes:             optional(input.Notes),
			CreatedBy:         actor(input.UserID),
		}
		if len(schedules) > 0 {
			p.Type = model.PaymentTypeInstallment
		}
		if d := view.BankDetails; d != nil {
			p.Provider = &providerName
			p.ProviderReference = &d.Reference
			p.BankName = &d.BankName
			p.AccountNumber = &d.AccountNumber
			p.AccountName = &d.AccountName
			p.BankDetailsExpiry = d.ExpiresAt
		}

		if input.Method.SettlesImmediately() {
			p.Status = model.PaymentCompleted
			p.PaidAt = &now
			view.Distribution, err = uc.engine.Apply(ctx, tx, inv, p.Amount, input.TargetInstallment, now)
			if err != nil {
				return err
			}
			noteExcess(p, view.Distribution)
		}
		if err := tx.Payments().CreatePayment(ctx, p); err != nil {
			return err
		}
		view.Payment, view.Invoice = *p, *inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("payment recorded",
		zap.String("business_id", input.BusinessID),
		zap.Int64("invoice_id", input.InvoiceID),
		zap.String("payment_number", view.Payment.PaymentNumber),
		zap.Int64("amount", input.Amount),
		zap.String("status", string(view.Payment.Status)),
	)
	if view.Payment.IsSuccessful() {
		uc.paymentCompleted(ctx, view)
	}
	return view, nil
}

func (uc *paymentUseCase) requestBankDetails(ctx context.Context, inv *model.Invoice, amount int64, paymentNumber string) (string, *provider.BankDetails, error) {
	req := &provider.BankTransferRequest{
		Amount:        amount,
		Currency:      inv.Currency,
		Reference:     paymentNumber,
		Description:   "Payment for invoice " + inv.InvoiceNumber,
		ExpiryMinutes: int(uc.bankDetailsExpiry / time.Minute),
		Metadata: provider.Metadata{
			BusinessID:     inv.BusinessID,
			InvoiceID:      inv.ID,
			OrderID:        inv.OrderID,
			PaymentType:    string(model.PaymentTypeOneTime),
			ExpectedAmount: amount,
		},
	}
	c, err := uc.store.Customers().GetByID(ctx, inv.BusinessID, inv.CustomerID)
	if err != nil {
		return "", nil, err
	}
	if c != nil {
		req.CustomerName, req.CustomerPhone = c.FullName(), c.Phone
		if c.Email != nil {
			req.CustomerEmail = *c.Email
		}
	}
	return uc.gateway.GenerateBankDetails(ctx, req)
}

func noteExcess(p *model.Payment, d *dto.Distribution) {
	if d == nil || d.ExcessAmount <= 0 {
		return
	}
	p.Notes = appendNote(p.Notes, "Overpayment of "+money.Format(d.ExcessAmount, p.Currency)+" recorded")
}

func (uc *paymentUseCase) paymentCompleted(ctx context.Context, view *dto.PaymentView) {
	p := view.Payment
	uc.notifier.Emit(ctx, notification.Event{
		Type:        notification.EventPaymentCompleted,
		BusinessID:  p.BusinessID,
		AggregateID: p.ID,
		Reference:   p.PaymentNumber,
		Payload:     view,
	})

	c, err := uc.store.Customers().GetByID(ctx, p.BusinessID, p.CustomerID)
	if err != nil || c == nil {
		return
	}
	vars := map[string]string{
		"customer_name":  c.FullName(),
		"amount":         money.Format(p.Amount, p.Currency),
		"invoice_number": view.Invoice.InvoiceNumber,
		"balance":        money.Format(view.Invoice.BalanceAmount, view.Invoice.Currency),
	}
	if view.Distribution != nil {
		vars["summary"] = view.Distribution.Summary
	}
	uc.notifier.Queue(ctx, notification.Message{
		BusinessID: p.BusinessID,
		Channel:    notification.ChannelSMS,
		Receiver:   c.Phone,
		Template:   notification.TemplatePaymentReceived,
		Variables:  vars,
	})
}

func (uc *paymentUseCase) ConfirmPayment(ctx context.Context, input *dto.ConfirmPaymentInput) (view *dto.PaymentView, err error) {
	ctx, span := tracing.Start(ctx, "payment.ConfirmPayment", trace.WithAttributes(
		attribute.String("business_id", input.BusinessID),
		attribute.Int64("payment_id", input.PaymentID),
	))
	defer tracing.End(span, &err)

	pre, err := uc.store.Payments().GetPayment(ctx, input.BusinessID, input.PaymentID)
	if err != nil {
		return nil, err
	}
	if pre == nil {
		return nil, apperror.NotFound("payment", input.PaymentID)
	}
	if pre.Status != model.PaymentPending && pre.Status != model.PaymentProcessing {
		return nil, apperror.InvalidTransition("payment", pre.Status, model.PaymentCompleted)
	}

	ref := pre.PaymentNumber
	if pre.ProviderReference != nil {
		ref = *pre.ProviderReference
	}
	verification, err := uc.gateway.VerifyPayment(ctx, ref)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	view = &dto.PaymentView{}
	var rejected error
	err = uc.store.Do(ctx, func(ctx context.Context, tx store.Tx) error {
		p, err := tx.Payments().LockPayment(ctx, input.BusinessID, input.PaymentID)
		if err != nil {
			return err
		}
		if p == nil {
			return apperror.NotFound("payment", input.PaymentID)
		}
		if p.Status != model.PaymentPending && p.Status != model.PaymentProcessing {
			return apperror.InvalidTransition("payment", p.Status, model.PaymentCompleted)
		}
		inv, err := tx.Payments().LockInvoice(ctx, p.BusinessID, p.InvoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return apperror.NotFound("invoice", p.InvoiceID)
		}
		if input.Notes != "" {
			p.Notes = appendNote(p.Notes, strings.TrimSpace(input.Notes))
		}

		if !verification.Successful {
			p.Status = model.PaymentFailed
			p.FailedAt = &now
			p.FailureReason = optional(verification.FailureReason)
			view.Payment, view.Invoice = *p, *inv
			return tx.Payments().UpdatePayment(ctx, p)
		}

		if inv.Status == model.InvoiceVoided {
			return apperror.Validation("invoice %s is voided", inv.InvoiceNumber)
		}
		// The balance may have shrunk since the transfer was requested.
		if p.Amount > inv.BalanceAmount {
			rejected = apperror.PaymentExceedsBalance(p.Amount, inv.BalanceAmount)
			p.Status = model.PaymentFailed
			p.FailedAt = &now
			p.FailureReason = optional(rejected.Error())
			view.Payment, view.Invoice = *p, *inv
			return tx.Payments().UpdatePayment(ctx, p)
		}
		p.Status = model.PaymentCompleted
		p.PaidAt = &now
		if verification.PaidAt != nil {
			p.PaidAt = verification.PaidAt
		}
		p.TransactionID = optional(verification.TransactionID)
		if input.TransactionID != "" {
			p.TransactionID = optional(input.TransactionID)
		}
		view.Distribution, err = uc.engine.Apply(ctx, tx, inv, p.Amount, 0, now)
		if err != nil {
			return err
		}
		noteExcess(p, view.Distribution)
		if err := tx.Payments().UpdatePayment(ctx, p); err != nil {
			return err
		}
		view.Payment, view.Invoice = *p, *inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	if rejected != nil {
		uc.logger.Warn("pending payment no longer fits the invoice balance",
			zap.String("business_id", input.BusinessID),
			zap.String("payment_number", view.Payment.PaymentNumber),
			zap.Int64("amount", view.Payment.Amount),
			zap.Int64("balance", view.Invoice.BalanceAmount),
		)
		return nil, rejected
	}

	uc.logger.Info("payment confirmation processed",
		zap.String("business_id", input.BusinessID),
		zap.String("payment_number", view.Payment.PaymentNumber),
		zap.String("status", string(view.Payment.Status)),
	)
	if view.Payment.IsSuccessful() {
		uc.paymentCompleted(ctx, view)
	}
	return view, nil
}

func (uc *paymentUseCase) DistributePayment(ctx context.Context, input *dto.DistributeInput) (dist *dto.Distribution, err error) {
	ctx, span := tracing.Start(ctx, "payment.DistributePayment", trace.WithAttributes(
		attribute.String("business_id", input.BusinessID),
		attribute.Int64("invoice_id", input.InvoiceID),
		attribute.Int64("amount", input.Amount),
	))
	defer tracing.End(span, &err)

	err = uc.store.Do(ctx, func(ctx context.Context, tx store.Tx) error {
		inv, err := tx.Payments().LockInvoice(ctx, input.BusinessID, input.InvoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return apperror.NotFound("invoice", input.InvoiceID)
		}
		if inv.Status == model.InvoiceVoided {
			return apperror.Validation("invoice %s is voided", inv.InvoiceNumber)
		}
		schedules, err := tx.Payments().ListSchedules(ctx, inv.BusinessID, inv.ID)
		if err != nil {
			return err
		}
		if len(schedules) == 0 {
			return apperror.Validation("invoice %s has no payment schedule", inv.InvoiceNumber)
		}
		dist, err = uc.engine.Apply(ctx, tx, inv, input.Amount, input.TargetInstallment, uc.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return dist, nil
}

func (uc *paymentUseCase) GetInvoice(ctx context.Context, businessID string, id int64) (*dto.InvoiceView, error) {
	inv, err := uc.store.Payments().GetInvoice(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, apperror.NotFound("invoice", id)
	}
	view := &dto.InvoiceView{Invoice: *inv}
	if view.Payments, err = uc.store.Payments().ListPayments(ctx, businessID, id); err != nil {
		return nil, err
	}
	if view.Schedules, err = uc.store.Payments().ListSchedules(ctx, businessID, id); err != nil {
		return nil, err
	}
	return view, nil
}

func (uc *paymentUseCase) ListInvoices(ctx context.Context, filters *dto.InvoiceFilters) ([]model.Invoice, int, error) {
	return uc.store.Payments().ListInvoices(ctx, filters)
}

func (uc *paymentUseCase) SendInvoice(ctx context.Context, businessID string, id int64) (*model.Invoice, error) {
	now := uc.now()
	var inv *model.Invoice
	err := uc.store.Do(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		inv, err = tx.Payments().LockInvoice(ctx, businessID, id)
		if err != nil {
			return err
		}
		if inv == nil {
			return apperror.NotFound("invoice", id)
		}
		if inv.Status != model.InvoiceDraft {
			return apperror.InvalidTransition("invoice", inv.Status, model.InvoiceSent)
		}
		inv.Status = model.InvoiceSent
		inv.SentAt = &now
		return tx.Payments().UpdateInvoice(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("invoice sent", zap.String("business_id", businessID), zap.String("invoice_number", inv.InvoiceNumber))
	if c, err := uc.store.Customers().GetByID(ctx, businessID, inv.CustomerID); err == nil && c != nil {
		uc.notifier.Queue(ctx, notification.Message{
			BusinessID: businessID,
			Channel:    notification.ChannelSMS,
			Receiver:   c.Phone,
			Template:   notification.TemplateInvoiceSent,
			Variables: map[string]string{
				"customer_name":  c.FullName(),
				"invoice_number": inv.InvoiceNumber,
				"total":          money.Format(inv.Total, inv.Currency),
				"due_date":       inv.DueDate.Format("2006-01-02"),
			},
		})
	}
	return inv, nil
}

func (uc *paymentUseCase) VoidInvoice(ctx context.Context, input *dto.VoidInvoiceInput) (inv *model.Invoice, err error) {
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, apperror.Validation("a reason is required to void an invoice")
	}

	now := uc.now()
	err = uc.store.Do(ctx, func(ctx context.Context, tx store.Tx) error {
		inv, err = tx.Payments().LockInvoice(ctx, input.BusinessID, input.InvoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return apperror.NotFound("invoice", input.InvoiceID)
		}
		if !inv.CanBeVoided() {
			if inv.PaidAmount > 0 {
				return apperror.Validation("invoice %s has payments and cannot be voided", inv.InvoiceNumber)
			}
			return apperror.InvalidTransition("invoice", inv.Status, model.InvoiceVoided)
		}
		inv.Status = model.InvoiceVoided
		inv.VoidedAt = &now
		inv.VoidedBy = actor(input.UserID)
		inv.VoidReason = &reason
		if err := tx.Payments().UpdateInvoice(ctx, inv); err != nil {
			return err
		}

		payments, err := tx.Payments().ListPayments(ctx, inv.BusinessID, inv.ID)
		if err != nil {
			return err
		}
		for i := range payments {
			p := &payments[i]
			if p.Status != model.PaymentPending && p.Status != model.PaymentProcessing {
				continue
			}
			p.Status = model.PaymentCancelled
			p.Notes = appendNote(p.Notes, "Invoice voided: "+reason)
			if err := tx.Payments().UpdatePayment(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("invoice voided",
		zap.String("business_id", input.BusinessID),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("reason", reason),
	)
	return inv, nil
}

func (uc *paymentUseCase) CreateSchedule(ctx context.Context, input *dto.CreateScheduleInput) (schedules []model.PaymentSchedule, err error) {
	ctx, span := tracing.Start(ctx, "payment.CreateSchedule", trace.WithAttributes(
		attribute.String("business_id", input.BusinessID),
		attribute.Int64("invoice_id", input.InvoiceID),
	))
	defer tracing.End(span, &err)

	if input.Installments != 0 && (input.Installments < installment.MinInstallments || input.Installments > installment.MaxInstallments) {
		return nil, apperror.Validation("number of installments must be between %d and %d", installment.MinInstallments, installment.MaxInstallments)
	}

	now := uc.now()
	start := now
	if input.StartDate != nil {
		start = *input.StartDate
	}
	err = uc.store.Do(ctx, func(ctx context.Context, tx store.Tx) error {
		inv, err := tx.Payments().LockInvoice(ctx, input.BusinessID, input.InvoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return apperror.NotFound("invoice", input.InvoiceID)
		}
		if !inv.AcceptsPayment() {
			return apperror.Validation("invoice %s is %s", inv.InvoiceNumber, inv.Status)
		}
		schedules, err = uc.engine.Schedule(ctx, tx, inv, installment.Plan{
			Total:        inv.Total,
			DownPayment:  inv.PaidAmount,
			Frequency:    input.Frequency,
			Installments: input.Installments,
			StartDate:    start,
		}, actor(input.UserID))
		return err
	})
	if err != nil {
		return nil, err
	}
	return schedules, nil
}

func (uc *paymentUseCase) GetPaymentSchedule(ctx context.Context, businessID string, invoiceID int64) ([]model.PaymentSchedule, error) {
	inv, err := uc.store.Payments().GetInvoice(ctx, businessID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, apperror.NotFound("invoice", invoiceID)
	}
	return uc.store.Payments().ListSchedules(ctx, businessID, invoiceID)
}

func (uc *paymentUseCase) HandleUnderpayment(ctx context.Context, input *dto.UnderpaymentInput) (changed []model.PaymentSchedule, err error) {
	if input.Shortfall <= 0 {
		return nil, apperror.Validation("shortfall must be greater than zero")
	}
	err = uc.store.Do(ctx, func(ctx context.Context, tx store.Tx) error {
		inv, err := tx.Payments().LockInvoice(ctx, input.BusinessID, input.InvoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return apperror.NotFound("invoice", input.InvoiceID)
		}
		changed, err = uc.engine.CarryShortfall(ctx, tx, inv, input.InstallmentNumber, input.Shortfall, uc.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("underpayment carried forward",
		zap.String("business_id", input.BusinessID),
		zap.Int64("invoice_id", input.InvoiceID),
		zap.Int("from", changed[0].InstallmentNumber),
		zap.Int("to", changed[1].InstallmentNumber),
		zap.Int64("shortfall", input.Shortfall),
	)
	return changed, nil
}

func (uc *paymentUseCase) MarkOverdue(ctx context.Context, businessID string, now time.Time) (res *dto.OverdueResult, err error) {
	ctx, span := tracing.Start(ctx, "payment.MarkOverdue", trace.WithAttributes(attribute.String("business_id", businessID)))
	defer tracing.End(span, &err)

	err = uc.store.Do(ctx, func(ctx context.Context, tx store.Tx) error {
		res, err = uc.engine.MarkOverdue(ctx, tx, businessID, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	if res.Schedules > 0 || res.Invoices > 0 {
		uc.logger.Info("overdue payments flagged",
			zap.String("business_id", businessID),
			zap.Int("schedules", res.Schedules),
			zap.Int("invoices", res.Invoices),
		)
	}
	return res, nil
}
