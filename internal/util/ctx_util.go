package util

import (
	"context"

	"github.com/RoyceAzure/lab/bikemarket/internal/constants"
	"github.com/RoyceAzure/lab/bikemarket/internal/util/token"
)

func GetTokenPayloadFromContext(ctx context.Context) *token.Payload {
	var tokenPayload *token.Payload

	if v := ctx.Value(constants.AuthorizationPayloadKey); v != nil {
		tokenPayload = v.(*token.Payload)
	}

	return tokenPayload
}

// GetSessionIDFromContext 沒有經過 session middleware 時回傳空字串
func GetSessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(constants.SessionIDKey).(string); ok {
		return v
	}
	return ""
}

func GetRequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(constants.RequestIDKey).(string); ok {
		return v
	}
	return "unknown"
}
