// Package notification queues customer messages and domain events. Delivery
// is fire-and-forget: a failed send is logged and never reaches the caller.
package notification

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-order-service/internal/pkg/broker"
	"github.com/fekuna/omnipos-order-service/internal/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Channel string

const (
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelEmail    Channel = "email"
)

const (
	TemplateOrderConfirmation = "order_confirmation"
	TemplatePaymentReceived   = "payment_received"
	TemplateBankTransfer      = "bank_transfer_details"
	TemplateInvoiceSent       = "invoice_sent"
)

const sendTimeout = 5 * time.Second

// Message is one queued notification; Variables fill the template.
type Message struct {
	ID         string            `json:"id"`
	BusinessID string            `json:"business_id"`
	Channel    Channel           `json:"channel"`
	Receiver   string            `json:"receiver"`
	Template   string            `json:"template"`
	Variables  map[string]string `json:"variables"`
	QueuedAt   time.Time         `json:"queued_at"`
}

// Event is a domain fact published after its transaction committed.
type Event struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	BusinessID  string    `json:"business_id"`
	AggregateID int64     `json:"aggregate_id"`
	Reference   string    `json:"reference"`
	OccurredAt  time.Time `json:"occurred_at"`
	Payload     any       `json:"payload,omitempty"`
}

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventPaymentCompleted   = "PaymentCompleted"
)

type Notifier interface {
	Queue(ctx context.Context, msg Message)
	Emit(ctx context.Context, evt Event)
}

type Topics struct {
	Notifications string
	Events        string
}

type kafkaNotifier struct {
	pub    broker.Publisher
	topics Topics
	logger logger.ZapLogger
}

// NewKafkaNotifier publishes messages and events on their topics in the
// background. A nil publisher degrades to logging only.
func NewKafkaNotifier(pub broker.Publisher, topics Topics, log logger.ZapLogger) Notifier {
	if pub == nil {
		return NewLogNotifier(log)
	}
	return &kafkaNotifier{pub: pub, topics: topics, logger: log}
}

func (n *kafkaNotifier) Queue(ctx context.Context, msg Message) {
	stamp(&msg.ID, &msg.QueuedAt)
	n.send(ctx, n.topics.Notifications, msg.BusinessID, msg,
		zap.String("template", msg.Template), zap.String("channel", string(msg.Channel)))
}

func (n *kafkaNotifier) Emit(ctx context.Context, evt Event) {
	stamp(&evt.ID, &evt.OccurredAt)
	n.send(ctx, n.topics.Events, evt.BusinessID, evt,
		zap.String("event", evt.Type), zap.String("reference", evt.Reference))
}

func (n *kafkaNotifier) send(ctx context.Context, topic, key string, payload any, fields ...zap.Field) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, sendTimeout)
		defer cancel()
		if err := n.pub.Publish(ctx, topic, key, payload); err != nil {
			n.logger.Error("failed to publish notification", append(fields, zap.String("topic", topic), zap.Error(err))...)
		}
	}()
}

type logNotifier struct {
	logger logger.ZapLogger
}

// NewLogNotifier only logs what would have been sent.
func NewLogNotifier(log logger.ZapLogger) Notifier {
	return &logNotifier{logger: log}
}

func (n *logNotifier) Queue(ctx context.Context, msg Message) {
	n.logger.Info("notification queued",
		zap.String("business_id", msg.BusinessID),
		zap.String("template", msg.Template),
		zap.String("channel", string(msg.Channel)),
		zap.String("receiver", msg.Receiver),
	)
}

func (n *logNotifier) Emit(ctx context.Context, evt Event) {
	n.logger.Info("event emitted",
		zap.String("business_id", evt.BusinessID),
		zap.String("event", evt.Type),
		zap.String("reference", evt.Reference),
	)
}

func stamp(id *string, at *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if at.IsZero() {
		*at = time.Now()
	}
}
