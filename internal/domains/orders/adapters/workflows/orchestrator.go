package workflows

import (
	"context"
	"errors"
	"fmt"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	orderworkflows "github.com/Apurer/go-gin-storefront/internal/durable/temporal/workflows/orders"
)

var (
	_ ports.CompensationOrchestrator = (*TemporalCompensation)(nil)
	_ ports.CompensationOrchestrator = (*InlineCompensation)(nil)
)

// TemporalCompensation starts the compensation workflow on a Temporal cluster
// and returns once it is scheduled.
type TemporalCompensation struct {
	client    client.Client
	taskQueue string
}

func NewTemporalCompensation(c client.Client) *TemporalCompensation {
	return &TemporalCompensation{client: c, taskQueue: orderworkflows.CompensationTaskQueue}
}

// CompensateCancelledOrder schedules the workflow. The workflow id is derived
// from the order id, so a second cancellation of the same order joins the
// existing run instead of starting another one.
func (o *TemporalCompensation) CompensateCancelledOrder(ctx context.Context, orderID string) error {
	if o == nil || o.client == nil {
		return errors.New("temporal compensation not configured")
	}
	options := client.StartWorkflowOptions{
		ID:        CompensationWorkflowID(orderID),
		TaskQueue: o.taskQueue,
	}
	_, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		orderworkflows.CompensationWorkflowName,
		orderworkflows.CompensationWorkflowInput{OrderID: orderID, TraceID: workflowTraceID(ctx)},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			return nil
		}
		return err
	}
	return nil
}

// InlineCompensation releases stock and promo usage synchronously without Temporal.
type InlineCompensation struct {
	service ports.Service
}

func NewInlineCompensation(service ports.Service) *InlineCompensation {
	return &InlineCompensation{service: service}
}

func (o *InlineCompensation) CompensateCancelledOrder(ctx context.Context, orderID string) error {
	if o == nil || o.service == nil {
		return errors.New("inline compensation not configured")
	}
	if err := o.service.ReleaseStock(ctx, orderID); err != nil {
		return err
	}
	return o.service.ReleasePromo(ctx, orderID)
}

// CompensationWorkflowID is the deterministic workflow id for an order.
func CompensationWorkflowID(orderID string) string {
	return fmt.Sprintf("order-compensation-%s", orderID)
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
