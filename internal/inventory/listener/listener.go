package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-order-service/internal/inventory"
	"github.com/fekuna/omnipos-order-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const EventGoodsReceived = "GoodsReceived"

// Reader is satisfied by *broker.KafkaConsumer.
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type InventoryListener struct {
	consumer Reader
	uc       inventory.UseCase
	logger   logger.ZapLogger
	backoff  time.Duration
}

func NewInventoryListener(consumer Reader, uc inventory.UseCase, logger logger.ZapLogger) *InventoryListener {
	return &InventoryListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
		backoff:  time.Second,
	}
}

func (l *InventoryListener) Start(ctx context.Context) {
	l.logger.Info("Starting inventory kafka listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping inventory kafka listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(l.backoff):
				}
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type GoodsReceivedEvent struct {
	EventID   string               `json:"event_id"`
	EventType string               `json:"event_type"`
	Payload   GoodsReceivedPayload `json:"payload"`
	Timestamp time.Time            `json:"timestamp"`
}

type GoodsReceivedPayload struct {
	BusinessID string                `json:"business_id"`
	Reference  string                `json:"reference"`
	Supplier   string                `json:"supplier"`
	ReceivedBy string                `json:"received_by"`
	Items      []ReceivedItemPayload `json:"items"`
}

type ReceivedItemPayload struct {
	ItemID      int64      `json:"item_id"`
	Quantity    int64      `json:"quantity"`
	UnitCost    *int64     `json:"unit_cost"`
	BatchNumber string     `json:"batch_number"`
	ExpiryDate  *time.Time `json:"expiry_date"`
}

// processMessage books one Incoming movement per received line. It reports
// how many lines were applied.
func (l *InventoryListener) processMessage(ctx context.Context, value []byte) int {
	var event GoodsReceivedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return 0
	}
	if event.EventType != EventGoodsReceived {
		return 0
	}

	p := event.Payload
	l.logger.Info("Processing goods received event",
		zap.String("event_id", event.EventID),
		zap.String("business_id", p.BusinessID),
		zap.String("reference", p.Reference),
	)

	userID := p.ReceivedBy
	if userID == "" {
		userID = "system"
	}
	applied := 0
	for _, item := range p.Items {
		out, err := l.uc.AddStock(ctx, &dto.AddStockInput{
			BusinessID:  p.BusinessID,
			ItemID:      item.ItemID,
			Type:        model.StockEntryIncoming,
			Quantity:    item.Quantity,
			UnitCost:    item.UnitCost,
			Reference:   p.Reference,
			Supplier:    p.Supplier,
			BatchNumber: item.BatchNumber,
			ExpiryDate:  item.ExpiryDate,
			UserID:      userID,
		})
		if err != nil {
			l.logger.Error("Failed to book received stock",
				zap.String("business_id", p.BusinessID),
				zap.Int64("item_id", item.ItemID),
				zap.String("reference", p.Reference),
				zap.Error(err),
			)
			continue
		}
		applied++
		if len(out.Fulfillments) > 0 {
			l.logger.Info("Received stock fulfilled reservations",
				zap.Int64("item_id", item.ItemID),
				zap.Int("reservations", len(out.Fulfillments)),
			)
		}
	}
	return applied
}
