package handler

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-order-service/internal/auth"
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/order"
	"github.com/fekuna/omnipos-order-service/internal/order/dto"
	"github.com/fekuna/omnipos-order-service/internal/pkg/grpcjson"
	"github.com/fekuna/omnipos-order-service/internal/pkg/logger"
)

const ServiceName = "omnipos.order.v1.OrderService"

type OrderHandler struct {
	uc     order.UseCase
	logger logger.ZapLogger
}

func NewOrderHandler(uc order.UseCase, log logger.ZapLogger) *OrderHandler {
	return &OrderHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *OrderHandler) Service() *grpcjson.Service {
	svc := grpcjson.NewService(ServiceName)
	grpcjson.Unary(svc, "CalculateCart", h.CalculateCart)
	grpcjson.Unary(svc, "CreateOrder", h.CreateOrder)
	grpcjson.Unary(svc, "GetOrder", h.GetOrder)
	grpcjson.Unary(svc, "ListOrders", h.ListOrders)
	grpcjson.Unary(svc, "UpdateOrderStatus", h.UpdateOrderStatus)
	return svc
}

type CalculateCartRequest struct {
	Items          []dto.LineInput `json:"items"`
	TaxAmount      int64           `json:"tax_amount"`
	DiscountAmount int64           `json:"discount_amount"`
	ShippingAmount int64           `json:"shipping_amount"`
}

func (h *OrderHandler) CalculateCart(ctx context.Context, req *CalculateCartRequest) (*dto.CartSummary, error) {
	return h.uc.CalculateCart(ctx, &dto.CalculateCartInput{
		BusinessID:     auth.GetBusinessID(ctx),
		Items:          req.Items,
		TaxAmount:      req.TaxAmount,
		DiscountAmount: req.DiscountAmount,
		ShippingAmount: req.ShippingAmount,
	})
}

type CreateOrderRequest struct {
	Customer             dto.CustomerInfo      `json:"customer"`
	Items                []dto.LineInput       `json:"items"`
	PaymentMethod        model.PaymentMethod   `json:"payment_method"`
	PaymentType          model.PaymentType     `json:"payment_type"`
	Installment          *dto.InstallmentInput `json:"installment"`
	TaxAmount            int64                 `json:"tax_amount"`
	DiscountAmount       int64                 `json:"discount_amount"`
	ShippingAmount       int64                 `json:"shipping_amount"`
	Currency             string                `json:"currency"`
	Notes                string                `json:"notes"`
	DeliveryAddress      string                `json:"delivery_address"`
	ExpectedDeliveryDate *time.Time            `json:"expected_delivery_date"`
}

func (h *OrderHandler) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*dto.OrderView, error) {
	return h.uc.CreateOrder(ctx, &dto.CreateOrderInput{
		BusinessID:           auth.GetBusinessID(ctx),
		Customer:             req.Customer,
		Items:                req.Items,
		PaymentMethod:        req.PaymentMethod,
		PaymentType:          req.PaymentType,
		Installment:          req.Installment,
		TaxAmount:            req.TaxAmount,
		DiscountAmount:       req.DiscountAmount,
		ShippingAmount:       req.ShippingAmount,
		Currency:             req.Currency,
		Notes:                req.Notes,
		DeliveryAddress:      req.DeliveryAddress,
		ExpectedDeliveryDate: req.ExpectedDeliveryDate,
		UserID:               auth.GetUserID(ctx),
	})
}

type GetOrderRequest struct {
	ID int64 `json:"id"`
}

func (h *OrderHandler) GetOrder(ctx context.Context, req *GetOrderRequest) (*dto.OrderView, error) {
	return h.uc.GetOrder(ctx, auth.GetBusinessID(ctx), req.ID)
}

type ListOrdersRequest struct {
	Status     model.OrderStatus `json:"status"`
	CustomerID int64             `json:"customer_id"`
	Search     string            `json:"search"`
	From       *time.Time        `json:"from"`
	To         *time.Time        `json:"to"`
	Page       int32             `json:"page"`
	PageSize   int32             `json:"page_size"`
}

type ListOrdersResponse struct {
	Orders []model.Order `json:"orders"`
	Total  int32         `json:"total"`
}

func (h *OrderHandler) ListOrders(ctx context.Context, req *ListOrdersRequest) (*ListOrdersResponse, error) {
	orders, count, err := h.uc.ListOrders(ctx, &dto.OrderFilters{
		BusinessID: auth.GetBusinessID(ctx),
		Status:     req.Status,
		CustomerID: req.CustomerID,
		Search:     req.Search,
		From:       req.From,
		To:         req.To,
		Page:       int(req.Page),
		PageSize:   int(req.PageSize),
	})
	if err != nil {
		return nil, err
	}
	return &ListOrdersResponse{Orders: orders, Total: int32(count)}, nil
}

type UpdateOrderStatusRequest struct {
	ID     int64             `json:"id"`
	Status model.OrderStatus `json:"status"`
	Reason string            `json:"reason"`
}

func (h *OrderHandler) UpdateOrderStatus(ctx context.Context, req *UpdateOrderStatusRequest) (*model.Order, error) {
	return h.uc.UpdateOrderStatus(ctx, &dto.UpdateStatusInput{
		BusinessID: auth.GetBusinessID(ctx),
		OrderID:    req.ID,
		Status:     req.Status,
		Reason:     req.Reason,
		UserID:     auth.GetUserID(ctx),
	})
}
