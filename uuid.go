package postboard

import (
	"context"

	"github.com/google/uuid"
)

// NewOperationID returns an id used to correlate a store operation
// with the request it issued and the event it produced.
func NewOperationID() string {
	return uuid.New().String()
}

type ctxKey string

const operationIDKey ctxKey = "operation_id"

func ContextWithOperationID(ctx context.Context, operationID string) context.Context {
	return context.WithValue(ctx, operationIDKey, operationID)
}

// OperationIDFromContext returns the id set with ContextWithOperationID.
func OperationIDFromContext(ctx context.Context) (string, bool) {
	operationID, ok := ctx.Value(operationIDKey).(string)
	return operationID, ok && operationID != ""
}
