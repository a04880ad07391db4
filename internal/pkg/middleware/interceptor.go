package middleware

import (
	"context"
	"runtime/debug"

	"github.com/fekuna/omnipos-order-service/internal/apperror"
	"github.com/fekuna/omnipos-order-service/internal/auth"
	"github.com/fekuna/omnipos-order-service/internal/pkg/i18n"
	"github.com/fekuna/omnipos-order-service/internal/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const errorDomain = "omnipos.order"

// ContextInterceptor copies caller identity from metadata into the context.
func ContextInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		return handler(auth.WithUser(ctx, auth.FromMetadata(ctx)), req)
	}
}

// TenantInterceptor rejects calls without a business id, except for the
// methods listed in skip.
func TenantInterceptor(skip ...string) grpc.UnaryServerInterceptor {
	skipped := make(map[string]struct{}, len(skip))
	for _, m := range skip {
		skipped[m] = struct{}{}
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := skipped[info.FullMethod]; !ok && auth.GetBusinessID(ctx) == "" {
			return nil, status.Error(codes.Unauthenticated, "missing "+auth.BusinessIDHeader)
		}
		return handler(ctx, req)
	}
}

// ErrorInterceptor turns application errors into gRPC statuses carrying the
// stable code as ErrorInfo reason and a localized message.
func ErrorInterceptor(log logger.ZapLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err == nil {
			return resp, nil
		}
		if _, ok := status.FromError(err); ok {
			return nil, err
		}
		return nil, ToStatus(ctx, log, info.FullMethod, err).Err()
	}
}

// RecoveryInterceptor converts panics into Internal errors.
func RecoveryInterceptor(log logger.ZapLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic in handler",
					zap.String("method", info.FullMethod),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
				)
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}

func ToStatus(ctx context.Context, log logger.ZapLogger, method string, err error) *status.Status {
	appErr, ok := apperror.As(err)
	if !ok {
		appErr = apperror.Internal(err)
	}

	code := grpcCode(appErr.Code)
	if code == codes.Internal {
		log.Error("request failed", zap.String("method", method), zap.Error(err))
	} else {
		log.Debug("request rejected", zap.String("method", method), zap.String("code", string(appErr.Code)), zap.Error(err))
	}

	msg := i18n.Localize(auth.GetLanguage(ctx), appErr.MessageID, appErr.Data, appErr.Message)
	st := status.New(code, msg)
	detailed, derr := st.WithDetails(&errdetails.ErrorInfo{
		Reason:   string(appErr.Code),
		Domain:   errorDomain,
		Metadata: map[string]string{"message": appErr.Message},
	})
	if derr != nil {
		return st
	}
	return detailed
}

func grpcCode(code apperror.Code) codes.Code {
	switch code {
	case apperror.CodeNotFound:
		return codes.NotFound
	case apperror.CodeValidation:
		return codes.InvalidArgument
	case apperror.CodeConflict:
		return codes.AlreadyExists
	case apperror.CodeInsufficientStock, apperror.CodePaymentExceedsBalance, apperror.CodeInvalidTransition:
		return codes.FailedPrecondition
	case apperror.CodeProviderUnavailable:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

// ReasonOf extracts the ErrorInfo reason from a gRPC error, if any.
func ReasonOf(err error) string {
	st, ok := status.FromError(err)
	if !ok {
		return ""
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok {
			return info.Reason
		}
	}
	return ""
}
