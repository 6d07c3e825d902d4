package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-storefront/internal/app/api"
	ordersobs "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/observability"
	orderworkflows "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/workflows"
	orderactivities "github.com/Apurer/go-gin-storefront/internal/durable/temporal/activities/orders"
	compensationworkflows "github.com/Apurer/go-gin-storefront/internal/durable/temporal/workflows/orders"
	platformobservability "github.com/Apurer/go-gin-storefront/internal/platform/observability"
)

func main() {
	ctx := context.Background()
	const serviceName = "storefront-worker"
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	infra, cleanup := api.Connect(ctx, cfg, logger)
	defer cleanup()
	if infra.DB == nil {
		logger.Warn("worker is running without postgres; compensation only sees orders created by this process")
	}
	core, _ := api.NewOrderService(infra, logger)
	orderService := ordersobs.New(
		core,
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)
	core.UseCompensator(orderworkflows.NewInlineCompensation(orderService))
	activities := orderactivities.NewActivities(orderService)

	tracerOptions := temporalotel.TracerOptions{Tracer: instruments.Tracer("temporal-worker")}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		logger.Error("failed to configure Temporal tracing interceptor", slog.String("error", err.Error()))
		os.Exit(1)
	}
	clientOptions := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(logger),
	}
	clientOptions.Interceptors = append(clientOptions.Interceptors, tracingInterceptor)
	temporalClient, err := client.Dial(clientOptions)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, compensationworkflows.CompensationTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(compensationworkflows.CompensationWorkflow, workflow.RegisterOptions{Name: compensationworkflows.CompensationWorkflowName})
	w.RegisterActivityWithOptions(activities.ReleaseStock, activity.RegisterOptions{Name: orderactivities.ReleaseStockActivityName})
	w.RegisterActivityWithOptions(activities.ReleasePromo, activity.RegisterOptions{Name: orderactivities.ReleasePromoActivityName})

	logger.Info("worker listening", slog.String("taskQueue", compensationworkflows.CompensationTaskQueue), slog.String("namespace", clientOptions.Namespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
