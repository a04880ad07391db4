package handler

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-order-service/internal/auth"
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/payment"
	"github.com/fekuna/omnipos-order-service/internal/payment/dto"
	"github.com/fekuna/omnipos-order-service/internal/pkg/grpcjson"
	"github.com/fekuna/omnipos-order-service/internal/pkg/logger"
)

const ServiceName = "omnipos.order.v1.PaymentService"

type PaymentHandler struct {
	uc     payment.UseCase
	logger logger.ZapLogger
}

func NewPaymentHandler(uc payment.UseCase, log logger.ZapLogger) *PaymentHandler {
	return &PaymentHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *PaymentHandler) Service() *grpcjson.Service {
	svc := grpcjson.NewService(ServiceName)
	grpcjson.Unary(svc, "CreatePayment", h.CreatePayment)
	grpcjson.Unary(svc, "ConfirmPayment", h.ConfirmPayment)
	grpcjson.Unary(svc, "DistributePayment", h.DistributePayment)
	grpcjson.Unary(svc, "GetInvoice", h.GetInvoice)
	grpcjson.Unary(svc, "ListInvoices", h.ListInvoices)
	grpcjson.Unary(svc, "SendInvoice", h.SendInvoice)
	grpcjson.Unary(svc, "VoidInvoice", h.VoidInvoice)
	grpcjson.Unary(svc, "CreateSchedule", h.CreateSchedule)
	grpcjson.Unary(svc, "GetPaymentSchedule", h.GetPaymentSchedule)
	grpcjson.Unary(svc, "HandleUnderpayment", h.HandleUnderpayment)
	grpcjson.Unary(svc, "MarkOverdue", h.MarkOverdue)
	return svc
}

type CreatePaymentRequest struct {
	InvoiceID         int64               `json:"invoice_id"`
	Amount            int64               `json:"amount"`
	Method            model.PaymentMethod `json:"method"`
	Reference         string              `json:"reference"`
	ExternalReference string              `json:"external_reference"`
	Notes             string              `json:"notes"`
	TargetInstallment int                 `json:"target_installment"`
}

func (h *PaymentHandler) CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*dto.PaymentView, error) {
	return h.uc.CreatePayment(ctx, &dto.CreatePaymentInput{
		BusinessID:        auth.GetBusinessID(ctx),
		InvoiceID:         req.InvoiceID,
		Amount:            req.Amount,
		Method:            req.Method,
		Reference:         req.Reference,
		ExternalReference: req.ExternalReference,
		Notes:             req.Notes,
		TargetInstallment: req.TargetInstallment,
		UserID:            auth.GetUserID(ctx),
	})
}

type ConfirmPaymentRequest struct {
	PaymentID     int64  `json:"payment_id"`
	TransactionID string `json:"transaction_id"`
	Notes         string `json:"notes"`
}

func (h *PaymentHandler) ConfirmPayment(ctx context.Context, req *ConfirmPaymentRequest) (*dto.PaymentView, error) {
	return h.uc.ConfirmPayment(ctx, &dto.ConfirmPaymentInput{
		BusinessID:    auth.GetBusinessID(ctx),
		PaymentID:     req.PaymentID,
		TransactionID: req.TransactionID,
		Notes:         req.Notes,
		UserID:        auth.GetUserID(ctx),
	})
}

type DistributePaymentRequest struct {
	InvoiceID         int64 `json:"invoice_id"`
	Amount            int64 `json:"amount"`
	TargetInstallment int   `json:"target_installment"`
}

func (h *PaymentHandler) DistributePayment(ctx context.Context, req *DistributePaymentRequest) (*dto.Distribution, error) {
	return h.uc.DistributePayment(ctx, &dto.DistributeInput{
		BusinessID:        auth.GetBusinessID(ctx),
		InvoiceID:         req.InvoiceID,
		Amount:            req.Amount,
		TargetInstallment: req.TargetInstallment,
	})
}

type InvoiceRequest struct {
	ID int64 `json:"id"`
}

func (h *PaymentHandler) GetInvoice(ctx context.Context, req *InvoiceRequest) (*dto.InvoiceView, error) {
	return h.uc.GetInvoice(ctx, auth.GetBusinessID(ctx), req.ID)
}

type ListInvoicesRequest struct {
	Status     model.InvoiceStatus `json:"status"`
	CustomerID int64               `json:"customer_id"`
	Page       int32               `json:"page"`
	PageSize   int32               `json:"page_size"`
}

type ListInvoicesResponse struct {
	Invoices []model.Invoice `json:"invoices"`
	Total    int32           `json:"total"`
}

func (h *PaymentHandler) ListInvoices(ctx context.Context, req *ListInvoicesRequest) (*ListInvoicesResponse, error) {
	invoices, count, err := h.uc.ListInvoices(ctx, &dto.InvoiceFilters{
		BusinessID: auth.GetBusinessID(ctx),
		Status:     req.Status,
		CustomerID: req.CustomerID,
		Page:       int(req.Page),
		PageSize:   int(req.PageSize),
	})
	if err != nil {
		return nil, err
	}
	return &ListInvoicesResponse{Invoices: invoices, Total: int32(count)}, nil
}

func (h *PaymentHandler) SendInvoice(ctx context.Context, req *InvoiceRequest) (*model.Invoice, error) {
	return h.uc.SendInvoice(ctx, auth.GetBusinessID(ctx), req.ID)
}

type VoidInvoiceRequest struct {
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
}

func (h *PaymentHandler) VoidInvoice(ctx context.Context, req *VoidInvoiceRequest) (*model.Invoice, error) {
	return h.uc.VoidInvoice(ctx, &dto.VoidInvoiceInput{
		BusinessID: auth.GetBusinessID(ctx),
		InvoiceID:  req.ID,
		Reason:     req.Reason,
		UserID:     auth.GetUserID(ctx),
	})
}

type CreateScheduleRequest struct {
	InvoiceID    int64                      `json:"invoice_id"`
	Frequency    model.InstallmentFrequency `json:"frequency"`
	Installments int                        `json:"installments"`
	StartDate    *time.Time                 `json:"start_date"`
}

type ScheduleResponse struct {
	Schedules []model.PaymentSchedule `json:"schedules"`
}

func (h *PaymentHandler) CreateSchedule(ctx context.Context, req *CreateScheduleRequest) (*ScheduleResponse, error) {
	schedules, err := h.uc.CreateSchedule(ctx, &dto.CreateScheduleInput{
		BusinessID:   auth.GetBusinessID(ctx),
		InvoiceID:    req.InvoiceID,
		Frequency:    req.Frequency,
		Installments: req.Installments,
		StartDate:    req.StartDate,
		UserID:       auth.GetUserID(ctx),
	})
	if err != nil {
		return nil, err
	}
	return &ScheduleResponse{Schedules: schedules}, nil
}

func (h *PaymentHandler) GetPaymentSchedule(ctx context.Context, req *InvoiceRequest) (*ScheduleResponse, error) {
	schedules, err := h.uc.GetPaymentSchedule(ctx, auth.GetBusinessID(ctx), req.ID)
	if err != nil {
		return nil, err
	}
	return &ScheduleResponse{Schedules: schedules}, nil
}

type HandleUnderpaymentRequest struct {
	InvoiceID         int64 `json:"invoice_id"`
	InstallmentNumber int   `json:"installment_number"`
	Shortfall         int64 `json:"shortfall"`
}

func (h *PaymentHandler) HandleUnderpayment(ctx context.Context, req *HandleUnderpaymentRequest) (*ScheduleResponse, error) {
	changed, err := h.uc.HandleUnderpayment(ctx, &dto.UnderpaymentInput{
		BusinessID:        auth.GetBusinessID(ctx),
		InvoiceID:         req.InvoiceID,
		InstallmentNumber: req.InstallmentNumber,
		Shortfall:         req.Shortfall,
	})
	if err != nil {
		return nil, err
	}
	return &ScheduleResponse{Schedules: changed}, nil
}

// MarkOverdueRequest evaluates due dates at AsOf, defaulting to now.
type MarkOverdueRequest struct {
	AsOf *time.Time `json:"as_of"`
}

func (h *PaymentHandler) MarkOverdue(ctx context.Context, req *MarkOverdueRequest) (*dto.OverdueResult, error) {
	now := time.Now()
	if req.AsOf != nil {
		now = *req.AsOf
	}
	return h.uc.MarkOverdue(ctx, auth.GetBusinessID(ctx), now)
}
