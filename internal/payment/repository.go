package payment

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/payment/dto"
)

type Repository interface {
	// Invoices
	CreateInvoice(ctx context.Context, inv *model.Invoice) error
	GetInvoice(ctx context.Context, businessID string, id int64) (*model.Invoice, error)
	GetInvoiceByOrder(ctx context.Context, businessID string, orderID int64) (*model.Invoice, error)
	LockInvoice(ctx context.Context, businessID string, id int64) (*model.Invoice, error)
	UpdateInvoice(ctx context.Context, inv *model.Invoice) error
	ListInvoices(ctx context.Context, filters *dto.InvoiceFilters) ([]model.Invoice, int, error)
	ListOverdueInvoices(ctx context.Context, businessID string, now time.Time) ([]model.Invoice, error)

	// Payments
	CreatePayment(ctx context.Context, p *model.Payment) error
	GetPayment(ctx context.Context, businessID string, id int64) (*model.Payment, error)
	LockPayment(ctx context.Context, businessID string, id int64) (*model.Payment, error)
	UpdatePayment(ctx context.Context, p *model.Payment) error
	ListPayments(ctx context.Context, businessID string, invoiceID int64) ([]model.Payment, error)

	// Schedules, always returned in ascending installment order. LockSchedules
	// holds every schedule row of the invoice until the transaction ends.
	CreateSchedules(ctx context.Context, schedules []model.PaymentSchedule) error
	ListSchedules(ctx context.Context, businessID string, invoiceID int64) ([]model.PaymentSchedule, error)
	LockSchedules(ctx context.Context, businessID string, invoiceID int64) ([]model.PaymentSchedule, error)
	UpdateSchedule(ctx context.Context, s *model.PaymentSchedule) error
	ListOverdueSchedules(ctx context.Context, businessID string, now time.Time) ([]model.PaymentSchedule, error)

	BusinessesWithOverdue(ctx context.Context, now time.Time) ([]string, error)
}
