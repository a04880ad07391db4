package auth

import (
	"context"

	"google.golang.org/grpc/metadata"
)

const (
	BusinessIDHeader = "x-business-id"
	UserIDHeader     = "x-user-id"
	LanguageHeader   = "accept-language"
)

type ctxKey int

const (
	businessIDKey ctxKey = iota
	userIDKey
	languageKey
)

// UserContext is what the gateway in front of this service asserts about the caller.
type UserContext struct {
	BusinessID string
	UserID     string
	Language   string
}

// FromMetadata reads the caller identity from incoming gRPC metadata.
func FromMetadata(ctx context.Context) UserContext {
	var uc UserContext
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return uc
	}
	uc.BusinessID = first(md, BusinessIDHeader)
	uc.UserID = first(md, UserIDHeader)
	uc.Language = first(md, LanguageHeader)
	return uc
}

func WithUser(ctx context.Context, uc UserContext) context.Context {
	ctx = context.WithValue(ctx, businessIDKey, uc.BusinessID)
	ctx = context.WithValue(ctx, userIDKey, uc.UserID)
	return context.WithValue(ctx, languageKey, uc.Language)
}

// GetBusinessID returns the tenant set by the interceptor, falling back to metadata.
func GetBusinessID(ctx context.Context) string {
	if val, ok := ctx.Value(businessIDKey).(string); ok && val != "" {
		return val
	}
	return FromMetadata(ctx).BusinessID
}

func GetUserID(ctx context.Context) string {
	if val, ok := ctx.Value(userIDKey).(string); ok && val != "" {
		return val
	}
	return FromMetadata(ctx).UserID
}

func GetLanguage(ctx context.Context) string {
	if val, ok := ctx.Value(languageKey).(string); ok && val != "" {
		return val
	}
	return FromMetadata(ctx).Language
}

// Actor returns the user id as an optional column value.
func Actor(ctx context.Context) *string {
	id := GetUserID(ctx)
	if id == "" {
		return nil
	}
	return &id
}

func first(md metadata.MD, key string) string {
	if val := md.Get(key); len(val) > 0 {
		return val[0]
	}
	return ""
}
