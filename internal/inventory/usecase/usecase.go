package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-order-service/internal/apperror"
	"github.com/fekuna/omnipos-order-service/internal/inventory"
	"github.com/fekuna/omnipos-order-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-order-service/internal/inventory/stock"
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/pkg/cache"
	"github.com/fekuna/omnipos-order-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-order-service/internal/pkg/money"
	"github.com/fekuna/omnipos-order-service/internal/pkg/reference"
	"github.com/fekuna/omnipos-order-service/internal/pkg/search"
	"github.com/fekuna/omnipos-order-service/internal/pkg/tracing"
	"github.com/fekuna/omnipos-order-service/internal/store"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type inventoryUseCase struct {
	store  store.Manager
	ledger *stock.Ledger
	sync   inventory.ItemSync
	cache  *cache.RedisClient
	es     *search.Client
	logger logger.ZapLogger
	now    func() time.Time
}

func NewInventoryUseCase(st store.Manager, ledger *stock.Ledger, sync inventory.ItemSync, cache *cache.RedisClient, es *search.Client, log logger.ZapLogger) inventory.UseCase {
	return &inventoryUseCase{
		store:  st,
		ledger: ledger,
		sync:   sync,
		cache:  cache,
		es:     es,
		logger: log,
		now:    time.Now,
	}
}

func optional(s string) *string {
	if s == "" {
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

func (uc *inventoryUseCase) CreateItem(ctx context.Context, input *dto.CreateItemInput) (item *model.Item, err error) {
	ctx, span := tracing.Start(ctx, "inventory.CreateItem", trace.WithAttributes(attribute.String("business_id", input.BusinessID)))
	defer tracing.End(span, &err)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.Validation("item name is required")
	}
	if input.SellingPrice < 0 || input.CostPrice < 0 {
		return nil, apperror.Validation("prices must not be negative")
	}
	if input.InitialStock < 0 || input.MinimumStock < 0 {
		return nil, apperror.Validation("stock levels must not be negative")
	}

	now := uc.now()
	sku := strings.ToUpper(strings.TrimSpace(input.SKU))
	if sku == "" {
		sku = reference.SKU(name, input.ModelNo, input.Attributes, now)
	}
	currency := input.Currency
	if currency == "" {
		currency = money.DefaultCurrency
	}

	item = &model.Item{
		BaseModel:     model.BaseModel{BusinessID: input.BusinessID},
		SKU:           sku,
		Name:          name,
		ModelNo:       optional(input.ModelNo),
		Description:   optional(input.Description),
		Category:      optional(input.Category),
		Brand:         optional(input.Brand),
		Barcode:       optional(input.Barcode),
		Unit:          optional(input.Unit),
		CostPrice:     input.CostPrice,
		SellingPrice:  input.SellingPrice,
		DiscountPrice: input.DiscountPrice,
		Currency:      currency,
		MinimumStock:  input.MinimumStock,
		Status:        model.ItemStatusActive,
		TrackStock:    input.TrackStock == nil || *input.TrackStock,
		AllowPreOrder: input.AllowPreOrder,
		CreatedBy:     actor(input.UserID),
	}

	err = uc.store.Do(ctx, func(ctx context.Context, tx store.Tx) error {
		taken, err := tx.Inventory().IsSKUTaken(ctx, input.BusinessID, sku)
		if err != nil {
			return err
		}
		if taken {
			return apperror.Conflict("sku %s already exists", sku)
		}
		if err := tx.Inventory().CreateItem(ctx, item); err != nil {
			return err
		}
		if input.InitialStock == 0 {
			return nil
		}
		_, _, err = uc.ledger.Adjust(ctx, tx, item, stock.Movement{
			Type:     model.StockEntryIncoming,
			Quantity: input.InitialStock,
			Notes:    optional("Initial stock"),
			Actor:    item.CreatedBy,
		}, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("item created",
		zap.String("business_id", item.BusinessID),
		zap.Int64("item_id", item.ID),
		zap.String("sku", item.SKU),
	)
	uc.sync.ItemsChanged(ctx, item.BusinessID, *item)
	return item, nil
}

func (uc *inventoryUseCase) GetItem(ctx context.Context, businessID string, id int64) (*model.Item, error) {
	key := itemKey(businessID, id)
	if uc.cache != nil {
		var cached model.Item
		if ok, err := uc.cache.GetJSON(ctx, key, &cached); err == nil && ok {
			return &cached, nil
		}
	}

	item, err := uc.store.Inventory().GetItem(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperror.NotFound("item", id)
	}

	if uc.cache != nil {
		if err := uc.cache.SetJSON(ctx, key, item, itemCacheTTL); err != nil {
			uc.logger.Warn("failed to cache item", zap.Int64("item_id", id), zap.Error(err))
		}
	}
	return item, nil
}

type itemPage struct {
	Items []model.Item
	Count int
}

func (uc *inventoryUseCase) ListItems(ctx context.Context, filters *dto.ItemFilters) ([]model.Item, int, error) {
	// 1. Cache
	cacheKey := ""
	if uc.cache != nil {
		if data, err := json.Marshal(filters); err == nil {
			cacheKey = fmt.Sprintf("items:list:%s:%x", filters.BusinessID, md5.Sum(data))
			var page itemPage
			if ok, err := uc.cache.GetJSON(ctx, cacheKey, &page); err == nil && ok {
				return page.Items, page.Count, nil
			}
		}
	}

	// 2. Full text search, falling back to the database
	if filters.Search != "" && uc.es != nil {
		items, count, err := uc.searchItems(ctx, filters)
		if err == nil {
			return items, count, nil
		}
		uc.logger.Error("ES search failed, falling back to DB", zap.Error(err))
	}

	// 3. Database
	items, count, err := uc.store.Inventory().ListItems(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	if cacheKey != "" {
		if err := uc.cache.SetJSON(ctx, cacheKey, itemPage{Items: items, Count: count}, itemCacheTTL); err != nil {
			uc.logger.Warn("failed to cache item list", zap.Error(err))
		}
	}
	return items, count, nil
}

func (uc *inventoryUseCase) searchItems(ctx context.Context, f *dto.ItemFilters) ([]model.Item, int, error) {
	must := []map[string]any{
		{"query_string": map[string]any{
			"query":  fmt.Sprintf("*%s*", f.Search),
			"fields": []string{"name^3", "sku", "barcode", "description"},
		}},
		{"term": map[string]any{"business_id": f.BusinessID}},
	}
	if f.Category != "" {
		must = append(must, map[string]any{"term": map[string]any{"category": f.Category}})
	}
	q := map[string]any{"query": map[string]any{"bool": map[string]any{"must": must}}}
	if f.PageSize > 0 {
		q["size"] = f.PageSize
		q["from"] = (max(f.Page, 1) - 1) * f.PageSize
	}

	res, err := uc.es.Search(ctx, itemIndex, q)
	if err != nil {
		return nil, 0, err
	}
	items := make([]model.Item, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var it model.Item
		if err := json.Unmarshal(hit.Source, &it); err == nil {
			items = append(items, it)
		}
	}
	return items, res.Hits.Total.Value, nil
}

// movementSign reports the sign a quantity must have for t: 1, -1, or 0
// when either sign is accepted.
func movementSign(t model.StockEntryType) (int, error) {
	switch t {
	case model.StockEntryIncoming, model.StockEntryReturn:
		return 1, nil
	case model.StockEntryDamage, model.StockEntryTheft, model.StockEntrySale:
		return -1, nil
	case model.StockEntryAdjustment:
		return 0, nil
	case model.StockEntryReservation, model.StockEntryRelease:
		return 0, apperror.Validation("%s entries are recorded by reservations, not booked directly", t)
	}
	return 0, apperror.Validation("unknown stock entry type %q", t)
}

func (uc *inventoryUseCase) AddStock(ctx context.Context, input *dto.AddStockInput) (out *dto.StockAdjustment, err error) {
	ctx, span := tracing.Start(ctx, "inventory.AddStock", trace.WithAttributes(
		attribute.String("business_id", input.BusinessID),
		attribute.Int64("item_id", input.ItemID),
		attribute.Int64("quantity", input.Quantity),
	))
	defer tracing.End(span, &err)

	sign, err := movementSign(input.Type)
	if err != nil {
		return nil, err
	}
	if input.Quantity == 0 {
		return nil, apperror.Validation("quantity must not be zero")
	}
	if (sign > 0 && input.Quantity < 0) || (sign < 0 && input.Quantity > 0) {
		return nil, apperror.Validation("%s entries must have a quantity of sign %+d", input.Type, sign)
	}

	now := uc.now()
	out = &dto.StockAdjustment{}
	err = uc.store.Do(ctx, func(ctx context.Context, tx store.Tx) error {
		item, err := tx.Inventory().LockItem(ctx, input.BusinessID, input.ItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return apperror.NotFound("item", input.ItemID)
		}

		entry, fulfilled, err := uc.ledger.Adjust(ctx, tx, item, stock.Movement{
			Type:        input.Type,
			Quantity:    input.Quantity,
			UnitCost:    input.UnitCost,
			Reference:   optional(input.Reference),
			Notes:       optional(input.Notes),
			Supplier:    optional(input.Supplier),
			BatchNumber: optional(input.BatchNumber),
			ExpiryDate:  input.ExpiryDate,
			Actor:       actor(input.UserID),
		}, now)
		if err != nil {
			return err
		}
		out.Entry, out.Item, out.Fulfillments = entry, item, fulfilled
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("stock added",
		zap.String("business_id", input.BusinessID),
		zap.Int64("item_id", input.ItemID),
		zap.String("type", string(input.Type)),
		zap.Int64("quantity", input.Quantity),
		zap.Int64("new_stock", out.Entry.NewStock),
		zap.Int("fulfilled_reservations", len(out.Fulfillments)),
	)
	uc.sync.ItemsChanged(ctx, input.BusinessID, *out.Item)
	return out, nil
}

func (uc *inventoryUseCase) ListStockEntries(ctx context.Context, filters *dto.StockEntryFilters) ([]model.StockEntry, int, error) {
	return uc.store.Inventory().ListStockEntries(ctx, filters)
}

func (uc *inventoryUseCase) CreateReservation(ctx context.Context, input *dto.CreateReservationInput) (res *model.Reservation, err error) {
	ctx, span := tracing.Start(ctx, "inventory.CreateReservation", trace.WithAttributes(
		attribute.String("business_id", input.BusinessID),
		attribute.Int64("item_id", input.ItemID),
	))
	defer tracing.End(span, &err)

	if input.Quantity <= 0 {
		return nil, apperror.Validation("quantity must be positive")
	}
	resType := input.Type
	if resType == "" {
		resType = model.ReservationPreOrder
	}
	if !resType.Valid() {
		return nil, apperror.Validation("unknown reservation type %q", input.Type)
	}

	now := uc.now()
	if input.ExpiryDate != nil && !input.ExpiryDate.After(now) {
		return nil, apperror.Validation("expiry date must be in the future")
	}

	var item *model.Item
	err = uc.store.Do(ctx, func(ctx context.Context, tx store.Tx) error {
		item, err = tx.Inventory().LockItem(ctx, input.BusinessID, input.ItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return apperror.NotFound("item", input.ItemID)
		}

		phone := input.CustomerPhone
		if phone != "" {
			phone = reference.NormalizePhone(phone)
		}
		hold, err := uc.ledger.Reserve(ctx, tx, item, input.Quantity, model.Reservation{
			Type:          resType,
			CustomerName:  optional(input.CustomerName),
			CustomerPhone: optional(phone),
			Reference:     optional(input.Reference),
			Notes:         optional(input.Notes),
			ExpectedDate:  input.ExpectedDate,
			ExpiryDate:    input.ExpiryDate,
			ReservedBy:    actor(input.UserID),
		}, true, now)
		if err != nil {
			return err
		}
		res = hold.Reservation
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("reservation created",
		zap.String("business_id", input.BusinessID),
		zap.Int64("item_id", input.ItemID),
		zap.Int64("reservation_id", res.ID),
		zap.Int64("quantity", res.Quantity),
		zap.Int64("covered", res.FulfilledQuantity),
	)
	uc.sync.ItemsChanged(ctx, input.BusinessID, *item)
	return res, nil
}

func (uc *inventoryUseCase) CancelReservation(ctx context.Context, input *dto.CancelReservationInput) (res *model.Reservation, err error) {
	ctx, span := tracing.Start(ctx, "inventory.CancelReservation", trace.WithAttributes(
		attribute.String("business_id", input.BusinessID),
		attribute.Int64("reservation_id", input.ReservationID),
	))
	defer tracing.End(span, &err)

	var item *model.Item
	err = uc.store.Do(ctx, func(ctx context.Context, tx store.Tx) error {
		found, err := tx.Inventory().GetReservation(ctx, input.BusinessID, input.ReservationID)
		if err != nil {
			return err
		}
		if found == nil {
			return apperror.NotFound("reservation", input.ReservationID)
		}
		if found.OrderItemID != nil {
			return apperror.Validation("reservation %d backs an order line; cancel the order instead", found.ID)
		}

		// Item first, then re-read the reservation under the item lock.
		item, err = tx.Inventory().LockItem(ctx, input.BusinessID, found.ItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return apperror.NotFound("item", found.ItemID)
		}
		res, err = tx.Inventory().GetReservation(ctx, input.BusinessID, input.ReservationID)
		if err != nil {
			return err
		}

		note := "Cancelled"
		if reason := strings.TrimSpace(input.Reason); reason != "" {
			note += ": " + reason
		}
		return uc.ledger.Close(ctx, tx, item, res, model.ReservationCancelled, note, true)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("reservation cancelled",
		zap.String("business_id", input.BusinessID),
		zap.Int64("reservation_id", res.ID),
		zap.Int64("released", res.FulfilledQuantity),
	)
	uc.sync.ItemsChanged(ctx, input.BusinessID, *item)
	return res, nil
}

func (uc *inventoryUseCase) ListReservations(ctx context.Context, filters *dto.ReservationFilters) ([]model.Reservation, int, error) {
	return uc.store.Inventory().ListReservations(ctx, filters)
}

// ExpireReservations closes every lapsed Active reservation of the business.
// Standalone reservations release what they hold; reservations behind an
// order line leave their units with the line.
func (uc *inventoryUseCase) ExpireReservations(ctx context.Context, businessID string, now time.Time) (expired int, err error) {
	ctx, span := tracing.Start(ctx, "inventory.ExpireReservations", trace.WithAttributes(attribute.String("business_id", businessID)))
	defer tracing.End(span, &err)

	var touched []model.Item
	err = uc.store.Do(ctx, func(ctx context.Context, tx store.Tx) error {
		lapsed, err := tx.Inventory().ListExpiredReservations(ctx, businessID, now)
		if err != nil {
			return err
		}
		if len(lapsed) == 0 {
			return nil
		}
		ids := make([]int64, 0, len(lapsed))
		for _, r := range lapsed {
			ids = append(ids, r.ItemID)
		}
		items, err := tx.Inventory().LockItems(ctx, businessID, ids)
		if err != nil {
			return err
		}

		for i := range items {
			item := &items[i]
			active, err := tx.Inventory().ListActiveReservations(ctx, businessID, item.ID)
			if err != nil {
				return err
			}
			for j := range active {
				r := &active[j]
				if !r.IsExpired(now) {
					continue
				}
				if err := uc.ledger.Close(ctx, tx, item, r, model.ReservationExpired, "Expired", r.OrderItemID == nil); err != nil {
					return err
				}
				expired++
			}
		}
		touched = items
		return nil
	})
	if err != nil {
		return 0, err
	}

	if expired > 0 {
		uc.logger.Info("reservations expired", zap.String("business_id", businessID), zap.Int("count", expired))
		uc.sync.ItemsChanged(ctx, businessID, touched...)
	}
	return expired, nil
}
