package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/fekuna/omnipos-order-service/internal/apperror"
	"github.com/fekuna/omnipos-order-service/internal/auth"
	"github.com/fekuna/omnipos-order-service/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var info = &grpc.UnaryServerInfo{FullMethod: "/omnipos.order.v1.InventoryService/AddStock"}

func failing(err error) grpc.UnaryHandler {
	return func(ctx context.Context, req any) (any, error) { return nil, err }
}

func TestErrorInterceptorMapsCodes(t *testing.T) {
	intercept := ErrorInterceptor(logger.NewNopLogger())

	tests := []struct {
		name   string
		err    error
		code   codes.Code
		reason string
	}{
		{"not found", apperror.NotFound("item", 3), codes.NotFound, "NOT_FOUND"},
		{"validation", apperror.Validation("quantity must not be zero"), codes.InvalidArgument, "VALIDATION_FAILED"},
		{"conflict", apperror.Conflict("sku taken"), codes.AlreadyExists, "CONFLICT"},
		{"stock", apperror.InsufficientStock("Rice", 1, 2), codes.FailedPrecondition, "INSUFFICIENT_STOCK"},
		{"balance", apperror.PaymentExceedsBalance(2, 1), codes.FailedPrecondition, "PAYMENT_EXCEEDS_BALANCE"},
		{"provider", apperror.ProviderUnavailable("paystack"), codes.Unavailable, "PROVIDER_UNAVAILABLE"},
		{"plain", errors.New("db down"), codes.Internal, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := intercept(context.Background(), nil, info, failing(tt.err))
			require.Error(t, err)
			assert.Equal(t, tt.code, status.Code(err))
			assert.Equal(t, tt.reason, ReasonOf(err))
		})
	}
}

func TestErrorInterceptorLocalizes(t *testing.T) {
	ctx := auth.WithUser(context.Background(), auth.UserContext{Language: "id"})
	_, err := ErrorInterceptor(logger.NewNopLogger())(ctx, nil, info, failing(apperror.ProviderUnavailable("paystack")))

	st, _ := status.FromError(err)
	assert.Equal(t, "Penyedia pembayaran paystack tidak tersedia", st.Message())
}

func TestErrorInterceptorKeepsStatusErrors(t *testing.T) {
	_, err := ErrorInterceptor(logger.NewNopLogger())(context.Background(), nil, info, failing(status.Error(codes.Unauthenticated, "no")))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestTenantInterceptor(t *testing.T) {
	intercept := TenantInterceptor("/grpc.health.v1.Health/Check")
	ok := func(ctx context.Context, req any) (any, error) { return "ok", nil }

	_, err := intercept(context.Background(), nil, info, ok)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(auth.BusinessIDHeader, "biz-1"))
	resp, err := intercept(ctx, nil, info, ok)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)

	_, err = intercept(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, ok)
	assert.NoError(t, err)
}

func TestRecoveryInterceptor(t *testing.T) {
	_, err := RecoveryInterceptor(logger.NewNopLogger())(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		panic("boom")
	})
	assert.Equal(t, codes.Internal, status.Code(err))
}
