package handler

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-order-service/internal/auth"
	"github.com/fekuna/omnipos-order-service/internal/inventory"
	"github.com/fekuna/omnipos-order-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/pkg/grpcjson"
	"github.com/fekuna/omnipos-order-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-order-service/internal/pkg/reference"
	"go.uber.org/zap"
)

const ServiceName = "omnipos.order.v1.InventoryService"

type InventoryHandler struct {
	uc     inventory.UseCase
	logger logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:     uc,
		logger: log,
	}
}

// Service describes the handler's methods for registration on a gRPC server.
func (h *InventoryHandler) Service() *grpcjson.Service {
	svc := grpcjson.NewService(ServiceName)
	grpcjson.Unary(svc, "CreateItem", h.CreateItem)
	grpcjson.Unary(svc, "GetItem", h.GetItem)
	grpcjson.Unary(svc, "ListItems", h.ListItems)
	grpcjson.Unary(svc, "AddStock", h.AddStock)
	grpcjson.Unary(svc, "ListStockEntries", h.ListStockEntries)
	grpcjson.Unary(svc, "CreateReservation", h.CreateReservation)
	grpcjson.Unary(svc, "CancelReservation", h.CancelReservation)
	grpcjson.Unary(svc, "ListReservations", h.ListReservations)
	return svc
}

type CreateItemRequest struct {
	SKU           string                `json:"sku"`
	Name          string                `json:"name"`
	ModelNo       string                `json:"model_no"`
	Description   string                `json:"description"`
	Category      string                `json:"category"`
	Brand         string                `json:"brand"`
	Barcode       string                `json:"barcode"`
	Unit          string                `json:"unit"`
	Attributes    []reference.Attribute `json:"attributes"`
	CostPrice     int64                 `json:"cost_price"`
	SellingPrice  int64                 `json:"selling_price"`
	DiscountPrice *int64                `json:"discount_price"`
	Currency      string                `json:"currency"`
	InitialStock  int64                 `json:"initial_stock"`
	MinimumStock  int64                 `json:"minimum_stock"`
	TrackStock    *bool                 `json:"track_stock,omitempty"`
	AllowPreOrder bool                  `json:"allow_pre_order"`
}

// ItemResponse carries the item with its derived stock flags.
type ItemResponse struct {
	Item           model.Item `json:"item"`
	AvailableStock int64      `json:"available_stock"`
	InStock        bool       `json:"in_stock"`
	IsLowStock     bool       `json:"is_low_stock"`
	CanOrder       bool       `json:"can_order"`
}

func itemResponse(item *model.Item) *ItemResponse {
	return &ItemResponse{
		Item:           *item,
		AvailableStock: item.AvailableStock(),
		InStock:        item.InStock(),
		IsLowStock:     item.IsLowStock(),
		CanOrder:       item.CanOrder(),
	}
}

func (h *InventoryHandler) CreateItem(ctx context.Context, req *CreateItemRequest) (*ItemResponse, error) {
	item, err := h.uc.CreateItem(ctx, &dto.CreateItemInput{
		BusinessID:    auth.GetBusinessID(ctx),
		SKU:           req.SKU,
		Name:          req.Name,
		ModelNo:       req.ModelNo,
		Description:   req.Description,
		Category:      req.Category,
		Brand:         req.Brand,
		Barcode:       req.Barcode,
		Unit:          req.Unit,
		Attributes:    req.Attributes,
		CostPrice:     req.CostPrice,
		SellingPrice:  req.SellingPrice,
		DiscountPrice: req.DiscountPrice,
		Currency:      req.Currency,
		InitialStock:  req.InitialStock,
		MinimumStock:  req.MinimumStock,
		TrackStock:    req.TrackStock,
		AllowPreOrder: req.AllowPreOrder,
		UserID:        auth.GetUserID(ctx),
	})
	if err != nil {
		return nil, err
	}
	return itemResponse(item), nil
}

type GetItemRequest struct {
	ID int64 `json:"id"`
}

func (h *InventoryHandler) GetItem(ctx context.Context, req *GetItemRequest) (*ItemResponse, error) {
	item, err := h.uc.GetItem(ctx, auth.GetBusinessID(ctx), req.ID)
	if err != nil {
		return nil, err
	}
	return itemResponse(item), nil
}

type ListItemsRequest struct {
	Search   string           `json:"search"`
	Category string           `json:"category"`
	Status   model.ItemStatus `json:"status"`
	LowStock bool             `json:"low_stock"`
	Page     int32            `json:"page"`
	PageSize int32            `json:"page_size"`
}

type ListItemsResponse struct {
	Items []*ItemResponse `json:"items"`
	Total int32           `json:"total"`
}

func (h *InventoryHandler) ListItems(ctx context.Context, req *ListItemsRequest) (*ListItemsResponse, error) {
	items, count, err := h.uc.ListItems(ctx, &dto.ItemFilters{
		BusinessID: auth.GetBusinessID(ctx),
		Search:     req.Search,
		Category:   req.Category,
		Status:     req.Status,
		LowStock:   req.LowStock,
		Page:       int(req.Page),
		PageSize:   int(req.PageSize),
	})
	if err != nil {
		return nil, err
	}

	out := make([]*ItemResponse, len(items))
	for i := range items {
		out[i] = itemResponse(&items[i])
	}
	return &ListItemsResponse{Items: out, Total: int32(count)}, nil
}

type AddStockRequest struct {
	ItemID      int64                `json:"item_id"`
	Type        model.StockEntryType `json:"type"`
	Quantity    int64                `json:"quantity"`
	UnitCost    *int64               `json:"unit_cost"`
	Reference   string               `json:"reference"`
	Notes       string               `json:"notes"`
	Supplier    string               `json:"supplier"`
	BatchNumber string               `json:"batch_number"`
	ExpiryDate  *time.Time           `json:"expiry_date"`
}

func (h *InventoryHandler) AddStock(ctx context.Context, req *AddStockRequest) (*dto.StockAdjustment, error) {
	businessID := auth.GetBusinessID(ctx)
	out, err := h.uc.AddStock(ctx, &dto.AddStockInput{
		BusinessID:  businessID,
		ItemID:      req.ItemID,
		Type:        req.Type,
		Quantity:    req.Quantity,
		UnitCost:    req.UnitCost,
		Reference:   req.Reference,
		Notes:       req.Notes,
		Supplier:    req.Supplier,
		BatchNumber: req.BatchNumber,
		ExpiryDate:  req.ExpiryDate,
		UserID:      auth.GetUserID(ctx),
	})
	if err != nil {
		return nil, err
	}
	h.logger.Debug("stock adjusted via api",
		zap.String("business_id", businessID),
		zap.Int64("item_id", req.ItemID),
		zap.Int("fulfillments", len(out.Fulfillments)),
	)
	return out, nil
}

type ListStockEntriesRequest struct {
	ItemID    int64                `json:"item_id"`
	Type      model.StockEntryType `json:"type"`
	StartDate *time.Time           `json:"start_date"`
	EndDate   *time.Time           `json:"end_date"`
	Page      int32                `json:"page"`
	PageSize  int32                `json:"page_size"`
}

type ListStockEntriesResponse struct {
	Entries []model.StockEntry `json:"entries"`
	Total   int32              `json:"total"`
}

func (h *InventoryHandler) ListStockEntries(ctx context.Context, req *ListStockEntriesRequest) (*ListStockEntriesResponse, error) {
	entries, count, err := h.uc.ListStockEntries(ctx, &dto.StockEntryFilters{
		BusinessID: auth.GetBusinessID(ctx),
		ItemID:     req.ItemID,
		Type:       req.Type,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Page:       int(req.Page),
		PageSize:   int(req.PageSize),
	})
	if err != nil {
		return nil, err
	}
	return &ListStockEntriesResponse{Entries: entries, Total: int32(count)}, nil
}

type CreateReservationRequest struct {
	ItemID        int64                 `json:"item_id"`
	Quantity      int64                 `json:"quantity"`
	Type          model.ReservationType `json:"type"`
	CustomerName  string                `json:"customer_name"`
	CustomerPhone string                `json:"customer_phone"`
	Reference     string                `json:"reference"`
	Notes         string                `json:"notes"`
	ExpectedDate  *time.Time            `json:"expected_date"`
	ExpiryDate    *time.Time            `json:"expiry_date"`
}

func (h *InventoryHandler) CreateReservation(ctx context.Context, req *CreateReservationRequest) (*model.Reservation, error) {
	return h.uc.CreateReservation(ctx, &dto.CreateReservationInput{
		BusinessID:    auth.GetBusinessID(ctx),
		ItemID:        req.ItemID,
		Quantity:      req.Quantity,
		Type:          req.Type,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Reference:     req.Reference,
		Notes:         req.Notes,
		ExpectedDate:  req.ExpectedDate,
		ExpiryDate:    req.ExpiryDate,
		UserID:        auth.GetUserID(ctx),
	})
}

type CancelReservationRequest struct {
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
}

func (h *InventoryHandler) CancelReservation(ctx context.Context, req *CancelReservationRequest) (*model.Reservation, error) {
	return h.uc.CancelReservation(ctx, &dto.CancelReservationInput{
		BusinessID:    auth.GetBusinessID(ctx),
		ReservationID: req.ID,
		Reason:        req.Reason,
		UserID:        auth.GetUserID(ctx),
	})
}

type ListReservationsRequest struct {
	ItemID    int64                   `json:"item_id"`
	Status    model.ReservationStatus `json:"status"`
	Reference string                  `json:"reference"`
	Page      int32                   `json:"page"`
	PageSize  int32                   `json:"page_size"`
}

type ListReservationsResponse struct {
	Reservations []model.Reservation `json:"reservations"`
	Total        int32               `json:"total"`
}

func (h *InventoryHandler) ListReservations(ctx context.Context, req *ListReservationsRequest) (*ListReservationsResponse, error) {
	res, count, err := h.uc.ListReservations(ctx, &dto.ReservationFilters{
		BusinessID: auth.GetBusinessID(ctx),
		ItemID:     req.ItemID,
		Status:     req.Status,
		Reference:  req.Reference,
		Page:       int(req.Page),
		PageSize:   int(req.PageSize),
	})
	if err != nil {
		return nil, err
	}
	return &ListReservationsResponse{Reservations: res, Total: int32(count)}, nil
}
