package payment

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/payment/dto"
)

type UseCase interface {
	CreatePayment(ctx context.Context, input *dto.CreatePaymentInput) (*dto.PaymentView, error)
	ConfirmPayment(ctx context.Context, input *dto.ConfirmPaymentInput) (*dto.PaymentView, error)
	DistributePayment(ctx context.Context, input *dto.DistributeInput) (*dto.Distribution, error)

	GetInvoice(ctx context.Context, businessID string, id int64) (*dto.InvoiceView, error)
	ListInvoices(ctx context.Context, filters *dto.InvoiceFilters) ([]model.Invoice, int, error)
	SendInvoice(ctx context.Context, businessID string, id int64) (*model.Invoice, error)
	VoidInvoice(ctx context.Context, input *dto.VoidInvoiceInput) (*model.Invoice, error)

	CreateSchedule(ctx context.Context, input *dto.CreateScheduleInput) ([]model.PaymentSchedule, error)
	GetPaymentSchedule(ctx context.Context, businessID string, invoiceID int64) ([]model.PaymentSchedule, error)
	HandleUnderpayment(ctx context.Context, input *dto.UnderpaymentInput) ([]model.PaymentSchedule, error)
	MarkOverdue(ctx context.Context, businessID string, now time.Time) (*dto.OverdueResult, error)
}
