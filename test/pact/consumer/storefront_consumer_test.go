//go:build pact
// +build pact

package consumer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	pacttest "github.com/Apurer/go-gin-storefront/test/pact"

	pactconsumer "github.com/pact-foundation/pact-go/v2/consumer"
	pactlog "github.com/pact-foundation/pact-go/v2/log"
	"github.com/pact-foundation/pact-go/v2/matchers"
	"github.com/stretchr/testify/require"
)

type orderPayload struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
	Payment struct {
		Method string `json:"method"`
		Status string `json:"status"`
	} `json:"payment"`
	Pricing struct {
		Total float64 `json:"total"`
	} `json:"pricing"`
}

type promoPayload struct {
	Valid          bool    `json:"valid"`
	DiscountAmount float64 `json:"discountAmount"`
	Message        string  `json:"message"`
	Reason         string  `json:"reason"`
}

type apiError struct {
	status  int
	message string
}

func (e apiError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.message, e.status)
}

func TestStorefrontWebContract(t *testing.T) {
	pactlog.SetLogLevel("INFO")

	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.ConsumerName,
		Provider: pacttest.ProviderName,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	jsonContentType := matchers.Regex("application/json; charset=utf-8", "application\\/json(?:;\\s?charset=utf-8)?")

	pact.AddInteraction().
		Given(pacttest.StateProductInStock).
		UponReceiving("a cash on delivery checkout").
		WithRequest("POST", "/api/orders", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.Header("X-User-ID", matchers.S("cust-1"))
			b.JSONBody(pacttest.ExampleCheckout())
		}).
		WillRespondWith(http.StatusCreated, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"success": matchers.Like(true),
				"data": matchers.Map{
					"orderId": matchers.Term(pacttest.ExampleOrderID, pacttest.OrderIDPattern),
					"status":  matchers.S("pending"),
					"payment": matchers.Map{
						"method": matchers.S("cod"),
						"status": matchers.S("pending"),
					},
					"pricing": matchers.Map{
						"total": matchers.Like(pacttest.ProductPrice + pacttest.ShippingCost),
					},
				},
			})
		})

	pact.AddInteraction().
		Given(pacttest.StatePromoActive).
		UponReceiving("a promo validation above the minimum").
		WithRequest("POST", "/api/promos/validate", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(map[string]any{"code": pacttest.PromoCode, "orderAmount": pacttest.PromoMinimum})
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"valid":          matchers.Like(true),
				"discountAmount": matchers.Like(pacttest.PromoMinimum * pacttest.PromoPercent / 100),
				"message":        matchers.Like("Promo code applied"),
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateNoPromos).
		UponReceiving("a promo validation for an unknown code").
		WithRequest("POST", "/api/promos/validate", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(map[string]any{"code": pacttest.MissingPromo, "orderAmount": pacttest.PromoMinimum})
		}).
		WillRespondWith(http.StatusNotFound, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"valid":   matchers.Like(false),
				"reason":  matchers.S("not_found"),
				"message": matchers.Like("Promo code not found"),
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateNoOrders).
		UponReceiving("a request for a missing order").
		WithRequest("GET", "/api/orders/"+pacttest.MissingOrderID).
		WillRespondWith(http.StatusNotFound, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"success": matchers.Like(false),
				"error":   matchers.Like("order not found"),
			})
		})

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		client := newStorefrontClient(config)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var created struct {
			Success bool         `json:"success"`
			Data    orderPayload `json:"data"`
		}
		if err := client.call(ctx, http.MethodPost, "/api/orders", pacttest.ExampleCheckout(), &created); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if created.Data.OrderID == "" || created.Data.Pricing.Total <= 0 {
			return fmt.Errorf("expected a priced order, got %+v", created.Data)
		}

		var promo promoPayload
		if err := client.call(ctx, http.MethodPost, "/api/promos/validate", map[string]any{"code": pacttest.PromoCode, "orderAmount": pacttest.PromoMinimum}, &promo); err != nil {
			return fmt.Errorf("validate promo: %w", err)
		}
		if !promo.Valid || promo.DiscountAmount <= 0 {
			return fmt.Errorf("expected an applied promo, got %+v", promo)
		}

		err := client.call(ctx, http.MethodPost, "/api/promos/validate", map[string]any{"code": pacttest.MissingPromo, "orderAmount": pacttest.PromoMinimum}, &promo)
		if apiErr, ok := err.(apiError); !ok || apiErr.status != http.StatusNotFound {
			return fmt.Errorf("expected 404 for unknown promo, got %v", err)
		}

		err = client.call(ctx, http.MethodGet, "/api/orders/"+pacttest.MissingOrderID, nil, nil)
		if apiErr, ok := err.(apiError); !ok || apiErr.status != http.StatusNotFound {
			return fmt.Errorf("expected 404 for missing order, got %v", err)
		}
		return nil
	})
	require.NoError(t, err)
}

type storefrontClient struct {
	baseURL    string
	httpClient *http.Client
}

func newStorefrontClient(config pactconsumer.MockServerConfig) *storefrontClient {
	host := config.Host
	if host == "" {
		host = "localhost"
	}
	transport := &http.Transport{TLSClientConfig: config.TLSConfig}
	return &storefrontClient{
		baseURL:    fmt.Sprintf("http://%s:%d", host, config.Port),
		httpClient: &http.Client{Transport: transport, Timeout: 10 * time.Second},
	}
}

func (c *storefrontClient) call(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}
	var req *http.Request
	var err error
	if reader != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		if path == "/api/orders" {
			req.Header.Set("X-User-ID", "cust-1")
		}
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		var problem struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		_ = json.NewDecoder(res.Body).Decode(&problem)
		msg := problem.Error
		if msg == "" {
			msg = problem.Message
		}
		return apiError{status: res.StatusCode, message: msg}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
