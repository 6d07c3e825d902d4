package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	orderactivities "github.com/Apurer/go-gin-storefront/internal/durable/temporal/activities/orders"
)

// RunOrderCompensationSequence releases stock first and promo usage second.
// Each activity retries on its own so a promo outage does not re-run the restock.
func RunOrderCompensationSequence(ctx workflow.Context, orderID string) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("order compensation sequence started", "orderId", orderID)
	options := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    10,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	if err := workflow.ExecuteActivity(ctx, orderactivities.ReleaseStockActivityName, orderID).Get(ctx, nil); err != nil {
		logger.Error("order compensation sequence failed to release stock", "orderId", orderID, "error", err)
		return err
	}
	if err := workflow.ExecuteActivity(ctx, orderactivities.ReleasePromoActivityName, orderID).Get(ctx, nil); err != nil {
		logger.Error("order compensation sequence failed to release promo", "orderId", orderID, "error", err)
		return err
	}
	logger.Info("order compensation sequence completed", "orderId", orderID)
	return nil
}
