package observability

import (
	"context"

	"github.com/aws/aws-xray-sdk-go/xray"
)

// Tracer records command executions as X-Ray subsegments, named after the
// service so graph mutations and completion calls show up under one node in
// the service map. Outside Lambda, or when the request carries no sampled
// segment, the SDK hands back a nil subsegment and tracing degrades to a
// plain call.
type Tracer struct {
	serviceName string
}

// NewTracer creates a tracer for the given service
func NewTracer(serviceName string) *Tracer {
	return &Tracer{serviceName: serviceName}
}

// TraceFunction runs fn inside a subsegment for the named operation and
// records its error on the segment. fn always runs, traced or not.
func (t *Tracer) TraceFunction(ctx context.Context, operation string, fn func(context.Context) error) error {
	ctx, seg := xray.BeginSubsegment(ctx, t.serviceName+"."+operation)
	err := fn(ctx)
	if seg != nil {
		if err != nil {
			_ = seg.AddError(err)
		}
		seg.Close(nil)
	}
	return err
}
