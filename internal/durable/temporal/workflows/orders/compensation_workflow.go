package orders

import (
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-storefront/internal/durable/temporal/sequences"
)

const (
	// CompensationWorkflowName is the public identifier for registering the workflow.
	CompensationWorkflowName = "orders.workflows.Compensation"
	// CompensationTaskQueue is the queue consumed by the worker processing order compensation.
	CompensationTaskQueue = "ORDER_COMPENSATION"
)

// CompensationWorkflowInput identifies the cancelled order to compensate.
type CompensationWorkflowInput struct {
	OrderID string
	TraceID string
}

// CompensationWorkflow undoes the stock and promo effects of a cancelled order.
func CompensationWorkflow(ctx workflow.Context, input CompensationWorkflowInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("CompensationWorkflow started", withTraceID(input.TraceID, "orderId", input.OrderID)...)
	if err := sequences.RunOrderCompensationSequence(ctx, input.OrderID); err != nil {
		logger.Error("CompensationWorkflow failed", withTraceID(input.TraceID, "orderId", input.OrderID, "error", err)...)
		return err
	}
	logger.Info("CompensationWorkflow completed", withTraceID(input.TraceID, "orderId", input.OrderID)...)
	return nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
