package utils

import "context"

type contextKey string

const (
	contextKeyOperatorCode  contextKey = "OperatorCode"
	contextKeyCorrelationId contextKey = "CorrelationId"
)

func getString(ctx context.Context, key contextKey) (string, bool) {
	v, ok := ctx.Value(key).(string)
	return v, ok && v != ""
}

// GetOperatorCodeFromContext returns the operator attributed to the request,
// as set by the operator middleware.
func GetOperatorCodeFromContext(ctx context.Context) (string, bool) {
	return getString(ctx, contextKeyOperatorCode)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return getString(ctx, contextKeyCorrelationId)
}

func SetOperatorCodeInContext(ctx context.Context, code string) context.Context {
	return context.WithValue(ctx, contextKeyOperatorCode, code)
}

func SetCorrelationIdInContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKeyCorrelationId, id)
}
