// Package settlement applies money to invoices and their installment
// schedules inside a unit of work. Callers lock the invoice row first;
// the engine locks the schedule rows itself.
package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-order-service/internal/apperror"
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/payment/dto"
	"github.com/fekuna/omnipos-order-service/internal/payment/installment"
	"github.com/fekuna/omnipos-order-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-order-service/internal/store"
	"go.uber.org/zap"
)

type Engine struct {
	logger logger.ZapLogger
}

func NewEngine(log logger.ZapLogger) *Engine {
	return &Engine{logger: log}
}

// Schedule generates and persists the installment plan of inv.
func (e *Engine) Schedule(ctx context.Context, tx store.Tx, inv *model.Invoice, plan installment.Plan, actor *string) ([]model.PaymentSchedule, error) {
	existing, err := tx.Payments().LockSchedules(ctx, inv.BusinessID, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("lock schedules: %w", err)
	}
	if len(existing) > 0 {
		return nil, apperror.Conflict("invoice %s already has a payment schedule", inv.InvoiceNumber)
	}

	schedules, err := installment.Generate(plan)
	if err != nil {
		return nil, err
	}
	for i := range schedules {
		schedules[i].BusinessID = inv.BusinessID
		schedules[i].InvoiceID = inv.ID
		schedules[i].Currency = inv.Currency
		schedules[i].CreatedBy = actor
	}
	if err := tx.Payments().CreateSchedules(ctx, schedules); err != nil {
		return nil, fmt.Errorf("create schedules: %w", err)
	}

	e.logger.Info("payment schedule created",
		zap.String("business_id", inv.BusinessID),
		zap.Int64("invoice_id", inv.ID),
		zap.Int("installments", len(schedules)),
		zap.Int64("financed", plan.Total-plan.DownPayment),
	)
	return schedules, nil
}

// Apply records amount against inv. Invoices with a schedule get the amount
// distributed over their installments and a non-nil Distribution; others
// accumulate paid amount up to the balance and only report a Distribution
// when part of amount was left over. inv is updated in place and persisted.
func (e *Engine) Apply(ctx context.Context, tx store.Tx, inv *model.Invoice, amount int64, target int, now time.Time) (*dto.Distribution, error) {
	if amount <= 0 {
		return nil, apperror.Validation("payment amount must be greater than zero")
	}

	schedules, err := tx.Payments().LockSchedules(ctx, inv.BusinessID, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("lock schedules: %w", err)
	}

	if len(schedules) == 0 {
		applied := min(amount, max(inv.BalanceAmount, 0))
		inv.ApplyPaid(inv.PaidAmount+applied, now)
		if err := tx.Payments().UpdateInvoice(ctx, inv); err != nil {
			return nil, fmt.Errorf("update invoice: %w", err)
		}
		if applied == amount {
			return nil, nil
		}
		res := installment.Result{Applied: applied, Excess: amount - applied, InvoiceFullyPaid: inv.BalanceAmount <= 0}
		e.logger.Warn("payment exceeds invoice balance",
			zap.Int64("invoice_id", inv.ID),
			zap.Int64("amount", amount),
			zap.Int64("excess", res.Excess),
		)
		return &dto.Distribution{
			AppliedAmount:    res.Applied,
			ExcessAmount:     res.Excess,
			InvoiceFullyPaid: res.InvoiceFullyPaid,
			Summary:          installment.Summary(res, amount, inv.Currency),
		}, nil
	}

	res := installment.Distribute(schedules, amount, target, now)
	if target != 0 && !res.TargetFound {
		e.logger.Warn("target installment not outstanding, distributing from first outstanding",
			zap.Int64("invoice_id", inv.ID),
			zap.Int("target", target),
		)
	}
	for i := range res.Updated {
		if err := tx.Payments().UpdateSchedule(ctx, &res.Updated[i]); err != nil {
			return nil, fmt.Errorf("update schedule %d: %w", res.Updated[i].InstallmentNumber, err)
		}
	}

	// paidAmount may include money taken before the schedule existed, so it
	// grows by what the installments absorbed rather than being replaced.
	if res.InvoiceFullyPaid {
		inv.ApplyPaid(inv.Total, now)
	} else {
		inv.ApplyPaid(inv.PaidAmount+res.Applied, now)
	}
	if err := tx.Payments().UpdateInvoice(ctx, inv); err != nil {
		return nil, fmt.Errorf("update invoice: %w", err)
	}

	e.logger.Info("payment distributed",
		zap.String("business_id", inv.BusinessID),
		zap.Int64("invoice_id", inv.ID),
		zap.Int64("amount", amount),
		zap.Int64("applied", res.Applied),
		zap.Int64("excess", res.Excess),
		zap.Bool("fully_paid", res.InvoiceFullyPaid),
	)
	return &dto.Distribution{
		AppliedAmount:    res.Applied,
		ExcessAmount:     res.Excess,
		UpdatedSchedules: res.Updated,
		InvoiceFullyPaid: res.InvoiceFullyPaid,
		Summary:          installment.Summary(res, amount, inv.Currency),
	}, nil
}

// CarryShortfall moves an unpaid part of one installment onto the next open one.
func (e *Engine) CarryShortfall(ctx context.Context, tx store.Tx, inv *model.Invoice, number int, shortfall int64, now time.Time) ([]model.PaymentSchedule, error) {
	schedules, err := tx.Payments().LockSchedules(ctx, inv.BusinessID, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("lock schedules: %w", err)
	}
	if len(schedules) == 0 {
		return nil, apperror.Validation("invoice %s has no payment schedule", inv.InvoiceNumber)
	}

	from, to, err := installment.CarryShortfall(schedules, number, shortfall, inv.Currency, now)
	if err != nil {
		return nil, err
	}
	for _, s := range []*model.PaymentSchedule{&from, &to} {
		if err := tx.Payments().UpdateSchedule(ctx, s); err != nil {
			return nil, fmt.Errorf("update schedule %d: %w", s.InstallmentNumber, err)
		}
	}
	return []model.PaymentSchedule{from, to}, nil
}

// MarkOverdue flags every lapsed schedule and invoice of one business.
func (e *Engine) MarkOverdue(ctx context.Context, tx store.Tx, businessID string, now time.Time) (*dto.OverdueResult, error) {
	schedules, err := tx.Payments().ListOverdueSchedules(ctx, businessID, now)
	if err != nil {
		return nil, fmt.Errorf("list overdue schedules: %w", err)
	}
	changed := installment.MarkOverdue(schedules, now)
	for i := range changed {
		if err := tx.Payments().UpdateSchedule(ctx, &changed[i]); err != nil {
			return nil, fmt.Errorf("update schedule %d: %w", changed[i].ID, err)
		}
	}

	invoices, err := tx.Payments().ListOverdueInvoices(ctx, businessID, now)
	if err != nil {
		return nil, fmt.Errorf("list overdue invoices: %w", err)
	}
	for i := range invoices {
		invoices[i].Status = model.InvoiceOverdue
		if err := tx.Payments().UpdateInvoice(ctx, &invoices[i]); err != nil {
			return nil, fmt.Errorf("update invoice %d: %w", invoices[i].ID, err)
		}
	}
	return &dto.OverdueResult{Schedules: len(changed), Invoices: len(invoices)}, nil
}
