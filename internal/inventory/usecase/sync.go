package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/fekuna/omnipos-order-service/internal/inventory"
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/pkg/cache"
	"github.com/fekuna/omnipos-order-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-order-service/internal/pkg/search"
	"go.uber.org/zap"
)

const (
	itemIndex    = "items"
	itemCacheTTL = 5 * time.Minute
)

const itemMapping = `{
	"mappings": {
		"properties": {
			"business_id": { "type": "keyword" },
			"name": { "type": "text" },
			"description": { "type": "text" },
			"sku": { "type": "keyword" },
			"barcode": { "type": "keyword" },
			"category": { "type": "keyword" },
			"selling_price": { "type": "long" },
			"total_stock": { "type": "long" },
			"reserved_stock": { "type": "long" },
			"created_at": { "type": "date" }
		}
	}
}`

func itemKey(businessID string, id int64) string {
	return fmt.Sprintf("items:view:%s:%d", businessID, id)
}

func itemListPattern(businessID string) string {
	return fmt.Sprintf("items:list:%s:*", businessID)
}

type readModelSync struct {
	cache  *cache.RedisClient
	es     *search.Client
	logger logger.ZapLogger
}

// NewItemSync returns an ItemSync that drops cached item views and reindexes
// items in elasticsearch. Either backend may be nil.
func NewItemSync(cache *cache.RedisClient, es *search.Client, log logger.ZapLogger) inventory.ItemSync {
	return &readModelSync{cache: cache, es: es, logger: log}
}

func (s *readModelSync) ItemsChanged(ctx context.Context, businessID string, items ...model.Item) {
	if len(items) == 0 {
		return
	}
	go s.invalidateCache(context.WithoutCancel(ctx), businessID, items)
	go s.syncToElastic(context.WithoutCancel(ctx), items)
}

func (s *readModelSync) invalidateCache(ctx context.Context, businessID string, items []model.Item) {
	if s.cache == nil {
		return
	}
	keys := make([]string, 0, len(items))
	for _, it := range items {
		keys = append(keys, itemKey(businessID, it.ID))
	}
	if err := s.cache.Client.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn("failed to drop cached items", zap.String("business_id", businessID), zap.Error(err))
	}
	if err := s.cache.DeleteByPattern(ctx, itemListPattern(businessID)); err != nil {
		s.logger.Warn("failed to drop cached item lists", zap.String("business_id", businessID), zap.Error(err))
	}
}

func (s *readModelSync) syncToElastic(ctx context.Context, items []model.Item) {
	if s.es == nil {
		return
	}
	_ = s.es.CreateIndex(ctx, itemIndex, itemMapping)
	for _, it := range items {
		if err := s.es.Index(ctx, itemIndex, strconv.FormatInt(it.ID, 10), it); err != nil {
			s.logger.Error("failed to index item", zap.Int64("item_id", it.ID), zap.Error(err))
		}
	}
}
