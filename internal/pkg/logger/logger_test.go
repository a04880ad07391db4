package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWrapWithFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := Wrap(zap.New(core)).With(zap.String("business_id", "biz-1"))

	log.Debug("hidden")
	log.Info("stock added", zap.Int64("item_id", 4))

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "stock added", entries[0].Message)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "biz-1", ctx["business_id"])
	assert.Equal(t, int64(4), ctx["item_id"])
}

func TestNewZapLoggerFallsBackOnBadLevel(t *testing.T) {
	log := NewZapLogger(&ZapLoggerConfig{Level: "loud", Encoding: "json"})
	assert.NotNil(t, log)
}
