package mqhandler

import (
	"context"

	"newsbite/pkg/trace"
)

// withPayloadTrace propagates a collaborator-supplied trace id, minting one
// when the payload carries none.
func withPayloadTrace(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		traceID = trace.GenerateTraceID()
	}
	return trace.WithContext(ctx, traceID)
}
