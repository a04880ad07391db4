package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-order-service/internal/apperror"
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/payment/dto"
	"github.com/fekuna/omnipos-order-service/internal/pkg/postgres"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB sqlx.ExtContext
}

func NewPGRepository(db sqlx.ExtContext) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) CreateInvoice(ctx context.Context, inv *model.Invoice) error {
	query := `
        INSERT INTO invoices (
            business_id, invoice_number, order_id, customer_id, type, status, issue_date, due_date,
            subtotal, tax_amount, discount_amount, shipping_amount, total, paid_amount,
            balance_amount, currency, notes, terms, paid_at, created_by
        )
        VALUES (
            :business_id, :invoice_number, :order_id, :customer_id, :type, :status, :issue_date, :due_date,
            :subtotal, :tax_amount, :discount_amount, :shipping_amount, :total, :paid_amount,
            :balance_amount, :currency, :notes, :terms, :paid_at, :created_by
        )
        RETURNING id, business_id, created_at, updated_at
    `
	if err := postgres.NamedGet(ctx, r.DB, &inv.BaseModel, query, inv); err != nil {
		switch {
		case postgres.IsUniqueViolation(err, "invoices_business_number_key"):
			return apperror.Conflict("invoice number %s already exists", inv.InvoiceNumber)
		case postgres.IsUniqueViolation(err, "invoices_order_key"):
			return apperror.Conflict("order %d already has an invoice", inv.OrderID)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

func (r *PGRepository) GetInvoice(ctx context.Context, businessID string, id int64) (*model.Invoice, error) {
	return postgres.GetOne[model.Invoice](ctx, r.DB,
		`SELECT * FROM invoices WHERE business_id = $1 AND id = $2`, businessID, id)
}

func (r *PGRepository) GetInvoiceByOrder(ctx context.Context, businessID string, orderID int64) (*model.Invoice, error) {
	return postgres.GetOne[model.Invoice](ctx, r.DB,
		`SELECT * FROM invoices WHERE business_id = $1 AND order_id = $2`, businessID, orderID)
}

func (r *PGRepository) LockInvoice(ctx context.Context, businessID string, id int64) (*model.Invoice, error) {
	return postgres.GetOne[model.Invoice](ctx, r.DB,
		`SELECT * FROM invoices WHERE business_id = $1 AND id = $2 FOR UPDATE`, businessID, id)
}

func (r *PGRepository) UpdateInvoice(ctx context.Context, inv *model.Invoice) error {
	query := `
        UPDATE invoices
        SET status = :status, paid_amount = :paid_amount, balance_amount = :balance_amount,
            notes = :notes, sent_at = :sent_at, paid_at = :paid_at, voided_at = :voided_at,
            voided_by = :voided_by, void_reason = :void_reason, updated_at = NOW()
        WHERE business_id = :business_id AND id = :id
        RETURNING updated_at
    `
	if err := postgres.NamedGet(ctx, r.DB, &inv.UpdatedAt, query, inv); err != nil {
		if postgres.IsNoRows(err) {
			return apperror.NotFound("invoice", inv.ID)
		}
		return fmt.Errorf("update invoice: %w", err)
	}
	return nil
}

func (r *PGRepository) ListInvoices(ctx context.Context, f *dto.InvoiceFilters) ([]model.Invoice, int, error) {
	w := postgres.NewWhere().And("business_id = :business_id", "business_id", f.BusinessID)
	if f.Status != "" {
		w.And("status = :status", "status", f.Status)
	}
	if f.CustomerID != 0 {
		w.And("customer_id = :customer_id", "customer_id", f.CustomerID)
	}

	count, err := postgres.NamedCount(ctx, r.DB, "invoices", w)
	if err != nil {
		return nil, 0, err
	}

	var out []model.Invoice
	query := "SELECT * FROM invoices" + w.String() + " ORDER BY id DESC" + postgres.Page(f.Page, f.PageSize)
	if err := postgres.NamedSelect(ctx, r.DB, &out, query, w.Args); err != nil {
		return nil, 0, err
	}
	return out, count, nil
}

// ListOverdueInvoices returns Sent or PartialPaid invoices past due with a
// balance left, locked for update.
func (r *PGRepository) ListOverdueInvoices(ctx context.Context, businessID string, now time.Time) ([]model.Invoice, error) {
	var out []model.Invoice
	err := sqlx.SelectContext(ctx, r.DB, &out,
		`SELECT * FROM invoices
        WHERE business_id = $1 AND status IN ('Sent', 'PartialPaid') AND due_date < $2 AND paid_amount < total
        ORDER BY id
        FOR UPDATE`, businessID, now)
	return out, err
}

func (r *PGRepository) CreatePayment(ctx context.Context, p *model.Payment) error {
	query := `
        INSERT INTO payments (
            business_id, payment_number, invoice_id, customer_id, amount, currency, method, type,
            status, provider, provider_reference, external_reference, transaction_id, bank_name,
            account_number, account_name, bank_details_expiry, reference, notes, paid_at,
            failed_at, failure_reason, created_by
        )
        VALUES (
            :business_id, :payment_number, :invoice_id, :customer_id, :amount, :currency, :method, :type,
            :status, :provider, :provider_reference, :external_reference, :transaction_id, :bank_name,
            :account_number, :account_name, :bank_details_expiry, :reference, :notes, :paid_at,
            :failed_at, :failure_reason, :created_by
        )
        RETURNING id, business_id, created_at, updated_at
    `
	if err := postgres.NamedGet(ctx, r.DB, &p.BaseModel, query, p); err != nil {
		if postgres.IsUniqueViolation(err, "payments_business_number_key") {
			return apperror.Conflict("payment number %s already exists", p.PaymentNumber)
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *PGRepository) GetPayment(ctx context.Context, businessID string, id int64) (*model.Payment, error) {
	return postgres.GetOne[model.Payment](ctx, r.DB,
		`SELECT * FROM payments WHERE business_id = $1 AND id = $2`, businessID, id)
}

func (r *PGRepository) LockPayment(ctx context.Context, businessID string, id int64) (*model.Payment, error) {
	return postgres.GetOne[model.Payment](ctx, r.DB,
		`SELECT * FROM payments WHERE business_id = $1 AND id = $2 FOR UPDATE`, businessID, id)
}

func (r *PGRepository) UpdatePayment(ctx context.Context, p *model.Payment) error {
	query := `
        UPDATE payments
        SET status = :status, transaction_id = :transaction_id, notes = :notes, paid_at = :paid_at,
            failed_at = :failed_at, failure_reason = :failure_reason, updated_at = NOW()
        WHERE business_id = :business_id AND id = :id
        RETURNING updated_at
    `
	if err := postgres.NamedGet(ctx, r.DB, &p.UpdatedAt, query, p); err != nil {
		if postgres.IsNoRows(err) {
			return apperror.NotFound("payment", p.ID)
		}
		return fmt.Errorf("update payment: %w", err)
	}
	return nil
}

func (r *PGRepository) ListPayments(ctx context.Context, businessID string, invoiceID int64) ([]model.Payment, error) {
	var out []model.Payment
	err := sqlx.SelectContext(ctx, r.DB, &out,
		`SELECT * FROM payments WHERE business_id = $1 AND invoice_id = $2 ORDER BY id`, businessID, invoiceID)
	return out, err
}

func (r *PGRepository) CreateSchedules(ctx context.Context, schedules []model.PaymentSchedule) error {
	query := `
        INSERT INTO payment_schedules (
            business_id, invoice_id, installment_number, due_date, amount_due, amount_paid,
            currency, status, notes, created_by
        )
        VALUES (
            :business_id, :invoice_id, :installment_number, :due_date, :amount_due, :amount_paid,
            :currency, :status, :notes, :created_by
        )
        RETURNING id, business_id, created_at, updated_at
    `
	for i := range schedules {
		s := &schedules[i]
		if err := postgres.NamedGet(ctx, r.DB, &s.BaseModel, query, s); err != nil {
			if postgres.IsUniqueViolation(err, "payment_schedules_invoice_installment_key") {
				return apperror.Conflict("installment %d already exists for invoice %d", s.InstallmentNumber, s.InvoiceID)
			}
			return fmt.Errorf("insert schedule %d: %w", s.InstallmentNumber, err)
		}
	}
	return nil
}

func (r *PGRepository) ListSchedules(ctx context.Context, businessID string, invoiceID int64) ([]model.PaymentSchedule, error) {
	var out []model.PaymentSchedule
	err := sqlx.SelectContext(ctx, r.DB, &out,
		`SELECT * FROM payment_schedules WHERE business_id = $1 AND invoice_id = $2 ORDER BY installment_number`,
		businessID, invoiceID)
	return out, err
}

func (r *PGRepository) LockSchedules(ctx context.Context, businessID string, invoiceID int64) ([]model.PaymentSchedule, error) {
	var out []model.PaymentSchedule
	err := sqlx.SelectContext(ctx, r.DB, &out,
		`SELECT * FROM payment_schedules WHERE business_id = $1 AND invoice_id = $2 ORDER BY installment_number FOR UPDATE`,
		businessID, invoiceID)
	return out, err
}

func (r *PGRepository) UpdateSchedule(ctx context.Context, s *model.PaymentSchedule) error {
	query := `
        UPDATE payment_schedules
        SET amount_due = :amount_due, amount_paid = :amount_paid, status = :status, notes = :notes,
            paid_at = :paid_at, last_payment_at = :last_payment_at, updated_at = NOW()
        WHERE business_id = :business_id AND id = :id
        RETURNING updated_at
    `
	if err := postgres.NamedGet(ctx, r.DB, &s.UpdatedAt, query, s); err != nil {
		if postgres.IsNoRows(err) {
			return apperror.NotFound("payment schedule", s.ID)
		}
		return fmt.Errorf("update schedule: %w", err)
	}
	return nil
}

func (r *PGRepository) ListOverdueSchedules(ctx context.Context, businessID string, now time.Time) ([]model.PaymentSchedule, error) {
	var out []model.PaymentSchedule
	err := sqlx.SelectContext(ctx, r.DB, &out,
		`SELECT * FROM payment_schedules
        WHERE business_id = $1 AND status IN ('Pending', 'PartialPaid') AND due_date < $2 AND amount_paid < amount_due
        ORDER BY invoice_id, installment_number
        FOR UPDATE`, businessID, now)
	return out, err
}

func (r *PGRepository) BusinessesWithOverdue(ctx context.Context, now time.Time) ([]string, error) {
	var out []string
	err := sqlx.SelectContext(ctx, r.DB, &out, `
        SELECT business_id FROM payment_schedules
        WHERE status IN ('Pending', 'PartialPaid') AND due_date < $1 AND amount_paid < amount_due
        UNION
        SELECT business_id FROM invoices
        WHERE status IN ('Sent', 'PartialPaid') AND due_date < $1 AND paid_amount < total
        ORDER BY business_id`, now)
	return out, err
}
