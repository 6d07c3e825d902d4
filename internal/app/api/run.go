package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"gorm.io/gorm"

	storefrontserver "github.com/Apurer/go-gin-storefront/go"

	catalogmemory "github.com/Apurer/go-gin-storefront/internal/domains/catalog/adapters/memory"
	catalogpostgres "github.com/Apurer/go-gin-storefront/internal/domains/catalog/adapters/persistence/postgres"
	catalogapp "github.com/Apurer/go-gin-storefront/internal/domains/catalog/application"
	catalogports "github.com/Apurer/go-gin-storefront/internal/domains/catalog/ports"
	customermemory "github.com/Apurer/go-gin-storefront/internal/domains/customers/adapters/memory"
	customerpostgres "github.com/Apurer/go-gin-storefront/internal/domains/customers/adapters/persistence/postgres"
	customerports "github.com/Apurer/go-gin-storefront/internal/domains/customers/ports"
	catalogadapter "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/catalog"
	ordermemory "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/memory"
	ordersobs "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/observability"
	orderpostgres "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/persistence/postgres"
	promoadapter "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/promos"
	orderworkflows "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/Apurer/go-gin-storefront/internal/domains/orders/application"
	orderports "github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/adapters/gateways/bkash"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/adapters/gateways/eps"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/adapters/gateways/sslcommerz"
	paymentsapp "github.com/Apurer/go-gin-storefront/internal/domains/payments/application"
	paymentsdomain "github.com/Apurer/go-gin-storefront/internal/domains/payments/domain"
	promomemory "github.com/Apurer/go-gin-storefront/internal/domains/promos/adapters/memory"
	promopostgres "github.com/Apurer/go-gin-storefront/internal/domains/promos/adapters/persistence/postgres"
	promoapp "github.com/Apurer/go-gin-storefront/internal/domains/promos/application"
	promoports "github.com/Apurer/go-gin-storefront/internal/domains/promos/ports"
	"github.com/Apurer/go-gin-storefront/internal/platform/locking"
	"github.com/Apurer/go-gin-storefront/internal/platform/migrations"
	platformobservability "github.com/Apurer/go-gin-storefront/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-gin-storefront/internal/platform/postgres"
	"github.com/Apurer/go-gin-storefront/internal/platform/rabbitmq"
	platformredis "github.com/Apurer/go-gin-storefront/internal/platform/redis"
	"github.com/Apurer/go-gin-storefront/internal/platform/tokencache"
)

const orderLockTTL = 30 * time.Second

// Run boots the storefront HTTP API with observability, repositories, gateways and workflows wired.
func Run(ctx context.Context) error {
	const serviceName = "storefront-api"
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	// Money goes over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	infra, cleanup := Connect(ctx, cfg, logger)
	defer cleanup()

	core, promoService := NewOrderService(infra, logger)
	orderService := ordersobs.New(
		core,
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)
	var compensator orderports.CompensationOrchestrator = orderworkflows.NewInlineCompensation(orderService)
	if temporalClient, err := connectTemporalClient(cfg, instruments); err != nil {
		logger.Warn("Temporal workflows unavailable, compensating cancelled orders inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		compensator = orderworkflows.NewTemporalCompensation(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}
	core.UseCompensator(compensator)

	redirects := paymentsdomain.Redirects{FrontendURL: cfg.FrontendURL}
	callbacks := paymentsapp.CallbackURLs{BaseURL: cfg.PublicBaseURL}
	tokens := tokenCache(infra.Redis, serviceName)
	epsClient := eps.New(cfg.EPS, eps.WithTokenCache(tokens), eps.WithLogger(logger))
	bkashClient := bkash.New(cfg.Bkash, bkash.WithTokenCache(tokens), bkash.WithLogger(logger))
	sslClient := sslcommerz.New(cfg.SSLCommerz, sslcommerz.WithLogger(logger))

	handlers := storefrontserver.ApiHandleFunctions{
		OrderAPI:      storefrontserver.NewOrderAPI(orderService),
		PromoAPI:      storefrontserver.NewPromoAPI(promoService),
		EPSAPI:        storefrontserver.NewEPSAPI(paymentsapp.NewEPSService(orderService, epsClient, redirects, callbacks, logger)),
		BkashAPI:      storefrontserver.NewBkashAPI(paymentsapp.NewBkashService(orderService, bkashClient, redirects, callbacks, logger)),
		SSLCommerzAPI: storefrontserver.NewSSLCommerzAPI(paymentsapp.NewSSLCommerzService(orderService, sslClient, redirects, callbacks, logger)),
	}

	engine := gin.Default()
	// Middleware must be installed before routes are registered to apply to them.
	engine.Use(otelgin.Middleware(serviceName))
	router := storefrontserver.NewRouterWithGinEngine(engine, handlers)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 1)
	go func() {
		logger.Info("storefront API listening", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("storefront API server exited", slog.String("addr", srv.Addr), slog.String("error", err.Error()))
			return err
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutting down storefront API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Infrastructure holds the optional backing services. Any of them may be nil.
type Infrastructure struct {
	DB        *gorm.DB
	Redis     *goredis.Client
	Publisher *rabbitmq.Publisher
}

// Connect dials Postgres, Redis and RabbitMQ. Each one that is not configured
// or unreachable is left nil and the process falls back to in-process adapters.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (Infrastructure, func()) {
	db, closeDB := platformpostgres.ConnectOptional(ctx, cfg.PostgresDSN, logger)
	if db != nil {
		if err := migrations.Run(db); err != nil {
			logger.Warn("failed to migrate postgres schema, falling back to in-memory repositories", slog.String("error", err.Error()))
			closeDB()
			db, closeDB = nil, func() {}
		}
	}
	rdb, closeRedis := platformredis.ConnectOptional(ctx, cfg.RedisAddr, logger)
	publisher, closePublisher := rabbitmq.ConnectOptional(cfg.RabbitMQURL, cfg.RabbitMQExchange, logger)
	infra := Infrastructure{DB: db, Redis: rdb, Publisher: publisher}
	return infra, func() {
		closePublisher()
		closeRedis()
		closeDB()
	}
}

// NewOrderService assembles the orders service over whichever storage infra provides.
// The caller installs the compensator.
func NewOrderService(infra Infrastructure, logger *slog.Logger) (*ordersapp.Service, *promoapp.Service) {
	var (
		orders    orderports.Repository
		products  catalogports.Repository
		promos    promoports.Repository
		customers customerports.Directory
		keys      orderports.IdempotencyStore
	)
	if infra.DB != nil {
		orders = orderpostgres.NewRepository(infra.DB)
		products = catalogpostgres.NewRepository(infra.DB)
		promos = promopostgres.NewRepository(infra.DB)
		customers = customerpostgres.NewRepository(infra.DB)
		keys = orderpostgres.NewIdempotencyStore(infra.DB)
		logger.Info("repositories configured with postgres")
	} else {
		orders = ordermemory.NewRepository()
		products = catalogmemory.NewRepository()
		promos = promomemory.NewRepository()
		customers = customermemory.NewRepository()
		keys = ordermemory.NewIdempotencyStore()
	}

	var locker orderports.Locker = locking.NewKeyedMutex()
	if infra.Redis != nil {
		locker = locking.NewRedisLocker(infra.Redis, "storefront:orders", orderLockTTL)
	}
	var publisher orderports.EventPublisher = orderports.LoggingPublisher{Logger: logger}
	if infra.Publisher != nil {
		publisher = infra.Publisher
	}

	promoService := promoapp.NewService(promos, customers, promoapp.WithLogger(logger))
	service := ordersapp.NewService(
		orders,
		catalogadapter.NewInventory(catalogapp.NewInventory(products, logger)),
		promoadapter.NewPromotions(promoService),
		ordersapp.WithLocker(locker),
		ordersapp.WithPublisher(publisher),
		ordersapp.WithIdempotencyStore(keys),
		ordersapp.WithLogger(logger),
	)
	return service, promoService
}

func tokenCache(rdb *goredis.Client, serviceName string) tokencache.Cache {
	if rdb == nil {
		return tokencache.NewMemory()
	}
	return tokencache.NewRedis(rdb, serviceName)
}

func connectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
