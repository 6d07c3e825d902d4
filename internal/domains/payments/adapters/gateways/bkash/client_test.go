package bkash

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-storefront/internal/domains/payments/domain"
	apperrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:   baseURL,
		AppKey:    "app-key",
		AppSecret: "app-secret",
		Username:  "sandbox",
		Password:  "sandbox-pass",
		Timeout:   2 * time.Second,
	}
}

func TestClient_CreatePaymentGrantsOnceAndSendsCheckoutFields(t *testing.T) {
	var grants atomic.Int32
	var created map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case grantPath:
			grants.Add(1)
			assert.Equal(t, "sandbox", r.Header.Get("username"))
			assert.Equal(t, "sandbox-pass", r.Header.Get("password"))
			var body grantRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "app-key", body.AppKey)
			_, _ = w.Write([]byte(`{"statusCode":"0000","id_token":"id-1","expires_in":3600,"refresh_token":"r-1"}`))
		case createPath:
			assert.Equal(t, "id-1", r.Header.Get("Authorization"))
			assert.Equal(t, "app-key", r.Header.Get("X-APP-Key"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			_, _ = w.Write([]byte(`{"statusCode":"0000","statusMessage":"Successful","paymentID":"TR001","bkashURL":"https://sandbox.bka.sh/pay/TR001","transactionStatus":"Initiated","merchantInvoiceNumber":"ORD-1"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := New(testConfig(srv.URL))
	req := domain.BkashCreateRequest{
		OrderID:     "ORD-1",
		Amount:      decimal.RequireFromString("990"),
		CallbackURL: "https://shop.test/api/payment/bkash/callback?orderId=ORD-1",
	}
	payment, err := client.CreatePayment(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "TR001", payment.PaymentID)
	assert.Equal(t, "https://sandbox.bka.sh/pay/TR001", payment.BkashURL)
	assert.Equal(t, "0011", created["mode"])
	assert.Equal(t, "990.00", created["amount"])
	assert.Equal(t, "BDT", created["currency"])
	assert.Equal(t, "sale", created["intent"])
	assert.Equal(t, "ORD-1", created["merchantInvoiceNumber"])
	assert.Equal(t, "ORD-1", created["payerReference"])

	_, err = client.CreatePayment(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int32(1), grants.Load())
}

func TestClient_CreatePaymentRejectedStatusIsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == grantPath {
			_, _ = w.Write([]byte(`{"id_token":"id-1","expires_in":3600}`))
			return
		}
		_, _ = w.Write([]byte(`{"statusCode":"2029","statusMessage":"Duplicate for all transactions"}`))
	}))
	defer srv.Close()

	_, err := New(testConfig(srv.URL)).CreatePayment(context.Background(), domain.BkashCreateRequest{OrderID: "ORD-1", Amount: decimal.NewFromInt(10)})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindUpstream))
	assert.Equal(t, http.StatusBadGateway, apperrors.HTTPStatusFromError(err))
}

func TestClient_ExecuteReturnsDeclinedPaymentWithoutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == grantPath {
			_, _ = w.Write([]byte(`{"id_token":"id-1","expires_in":3600}`))
			return
		}
		_, _ = w.Write([]byte(`{"errorCode":"2056","errorMessage":"Invalid Payment State"}`))
	}))
	defer srv.Close()

	payment, err := New(testConfig(srv.URL)).ExecutePayment(context.Background(), "TR001")
	require.NoError(t, err)
	assert.False(t, payment.Completed())
	assert.Equal(t, "2056", payment.StatusCode)
	assert.Equal(t, "Invalid Payment State", payment.StatusMessage)
}

func TestClient_ExecuteCompleted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == grantPath {
			_, _ = w.Write([]byte(`{"id_token":"id-1","expires_in":3600}`))
			return
		}
		var body paymentRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "TR001", body.PaymentID)
		_, _ = w.Write([]byte(`{"statusCode":"0000","paymentID":"TR001","trxID":"AB12CD","transactionStatus":"Completed","amount":"990.00","merchantInvoiceNumber":"ORD-1"}`))
	}))
	defer srv.Close()

	payment, err := New(testConfig(srv.URL)).ExecutePayment(context.Background(), "TR001")
	require.NoError(t, err)
	assert.True(t, payment.Completed())
	assert.Equal(t, "AB12CD", payment.TrxID)
	assert.True(t, payment.Amount.Equal(decimal.NewFromInt(990)))
	assert.NotEmpty(t, payment.Raw)
}

func TestClient_ReGrantsTokenOnUnauthorized(t *testing.T) {
	var grants, queries atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == grantPath {
			n := grants.Add(1)
			_, _ = w.Write([]byte(`{"id_token":"id-` + string(rune('0'+n)) + `","expires_in":3600}`))
			return
		}
		queries.Add(1)
		if r.Header.Get("Authorization") == "id-1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"The incoming token has expired"}`))
			return
		}
		_, _ = w.Write([]byte(`{"statusCode":"0000","paymentID":"TR001","transactionStatus":"Initiated"}`))
	}))
	defer srv.Close()

	payment, err := New(testConfig(srv.URL)).QueryPayment(context.Background(), "TR001")
	require.NoError(t, err)
	assert.Equal(t, "Initiated", payment.TransactionStatus)
	assert.Equal(t, int32(2), grants.Load())
	assert.Equal(t, int32(2), queries.Load())
}

func TestClient_MissingCredentialsIsConfigurationError(t *testing.T) {
	cfg := testConfig("https://bkash.test")
	cfg.AppSecret = ""

	_, err := New(cfg).GrantToken(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindConfiguration))
	assert.Equal(t, http.StatusInternalServerError, apperrors.HTTPStatusFromError(err))
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, map[string]any{"missing": []string{"BKASH_APP_SECRET"}}, appErr.Details)
}

func TestClient_TimeoutIsUpstream(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	cfg := testConfig(srv.URL)
	cfg.Timeout = 50 * time.Millisecond
	_, err := New(cfg).GrantToken(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindUpstream))
	assert.Contains(t, err.Error(), "timed out")
}
