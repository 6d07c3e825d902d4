//go:build pact
// +build pact

package provider_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	pacttest "github.com/Apurer/go-gin-storefront/test/pact"

	storefrontserver "github.com/Apurer/go-gin-storefront/go"
	catalogmemory "github.com/Apurer/go-gin-storefront/internal/domains/catalog/adapters/memory"
	catalogapp "github.com/Apurer/go-gin-storefront/internal/domains/catalog/application"
	catalogdomain "github.com/Apurer/go-gin-storefront/internal/domains/catalog/domain"
	customermemory "github.com/Apurer/go-gin-storefront/internal/domains/customers/adapters/memory"
	catalogadapter "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/catalog"
	ordermemory "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/memory"
	ordersobs "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/observability"
	promoadapter "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/promos"
	orderworkflows "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/Apurer/go-gin-storefront/internal/domains/orders/application"
	promomemory "github.com/Apurer/go-gin-storefront/internal/domains/promos/adapters/memory"
	promoapp "github.com/Apurer/go-gin-storefront/internal/domains/promos/application"
	promodomain "github.com/Apurer/go-gin-storefront/internal/domains/promos/domain"

	"github.com/gin-gonic/gin"
	"github.com/pact-foundation/pact-go/v2/models"
	pactprovider "github.com/pact-foundation/pact-go/v2/provider"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestStorefrontProviderPact(t *testing.T) {
	gin.SetMode(gin.TestMode)
	decimal.MarshalJSONWithoutQuotes = true

	app := newContractProviderApp(t)
	pactFile := filepath.ToSlash(pacttest.PactFile(t))
	if _, err := os.Stat(pactFile); errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pact file not found at %s - run the pact consumer tests first", pactFile)
	} else {
		require.NoError(t, err)
	}

	reset := func(seed func(*testing.T, *storefrontState)) models.StateHandler {
		return func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			state := app.reset(t)
			if setup && seed != nil {
				seed(t, state)
			}
			return nil, nil
		}
	}
	verifier := pactprovider.NewVerifier()
	err := verifier.VerifyProvider(t, pactprovider.VerifyRequest{
		ProviderBaseURL: app.server.URL,
		Provider:        pacttest.ProviderName,
		PactFiles:       []string{pactFile},
		StateHandlers: models.StateHandlers{
			pacttest.StateProductInStock: reset(seedProduct),
			pacttest.StatePromoActive:    reset(seedPromo),
			pacttest.StateNoPromos:       reset(nil),
			pacttest.StateNoOrders:       reset(nil),
		},
		BeforeEach: func() error {
			app.reset(t)
			return nil
		},
	})
	require.NoError(t, err)
}

type storefrontState struct {
	products *catalogmemory.Repository
	promos   *promomemory.Repository
	router   http.Handler
}

// contractProviderApp serves a fresh in-memory storefront per provider state.
type contractProviderApp struct {
	mu     sync.RWMutex
	state  *storefrontState
	server *httptest.Server
}

func newContractProviderApp(t *testing.T) *contractProviderApp {
	t.Helper()
	app := &contractProviderApp{}
	app.reset(t)
	app.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.mu.RLock()
		router := app.state.router
		app.mu.RUnlock()
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(app.server.Close)
	return app
}

func (a *contractProviderApp) reset(t testing.TB) *storefrontState {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	state := &storefrontState{
		products: catalogmemory.NewRepository(),
		promos:   promomemory.NewRepository(),
	}
	promoService := promoapp.NewService(state.promos, customermemory.NewRepository())
	core := ordersapp.NewService(
		ordermemory.NewRepository(),
		catalogadapter.NewInventory(catalogapp.NewInventory(state.products, logger)),
		promoadapter.NewPromotions(promoService),
		ordersapp.WithLogger(logger),
	)
	orders := ordersobs.New(core, ordersobs.WithLogger(logger))
	core.UseCompensator(orderworkflows.NewInlineCompensation(orders))

	router := gin.New()
	router.Use(gin.Recovery())
	state.router = storefrontserver.NewRouterWithGinEngine(router, storefrontserver.ApiHandleFunctions{
		OrderAPI: storefrontserver.NewOrderAPI(orders),
		PromoAPI: storefrontserver.NewPromoAPI(promoService),
	})

	a.mu.Lock()
	a.state = state
	a.mu.Unlock()
	return state
}

func seedProduct(t *testing.T, state *storefrontState) {
	_, err := state.products.Save(context.Background(), &catalogdomain.Product{
		ID:             pacttest.ProductID,
		Name:           pacttest.ProductName,
		Price:          decimal.NewFromInt(pacttest.ProductPrice),
		Stock:          pacttest.ProductStock,
		TrackInventory: true,
	})
	require.NoError(t, err)
}

func seedPromo(t *testing.T, state *storefrontState) {
	_, err := state.promos.Save(context.Background(), &promodomain.PromoCode{
		ID:                 "promo-eid",
		Code:               pacttest.PromoCode,
		Status:             promodomain.StatusActive,
		Type:               promodomain.TypePercentage,
		Value:              decimal.NewFromInt(pacttest.PromoPercent),
		MinimumOrderAmount: decimal.NewFromInt(pacttest.PromoMinimum),
	})
	require.NoError(t, err)
}
