package testutil

import (
	"context"
	"time"

	"docstamp/pkg/requestcontext"
)

// FixedTime is the request time used by service tests.
var FixedTime = time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)

// RequestContext returns a context carrying an actor, a request ID and FixedTime.
func RequestContext(actor string) context.Context {
	ctx := requestcontext.WithActor(context.Background(), actor)
	ctx = requestcontext.WithRequestID(ctx, "test-request")
	return requestcontext.WithTime(ctx, FixedTime)
}
