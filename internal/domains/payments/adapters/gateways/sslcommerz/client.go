// Package sslcommerz talks to the SSLCommerz hosted checkout and validator APIs.
package sslcommerz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/oapi-codegen/runtime"

	"github.com/Apurer/go-gin-storefront/internal/domains/payments/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/ports"
	"github.com/Apurer/go-gin-storefront/internal/platform/httpclient"
	apperrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

var _ ports.SSLCommerzGateway = (*Client)(nil)

const (
	sessionPath   = "/gwprocess/v4/api.php"
	validatorPath = "/validator/api/validationserverAPI.php"

	currency       = "BDT"
	country        = "Bangladesh"
	productProfile = "general"
	sessionSuccess = "SUCCESS"
)

// Client is the SSLCommerz gateway adapter.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		if logger != nil {
			cl.logger = logger
		}
	}
}

func New(cfg Config, opts ...Option) *Client {
	c := &Client{cfg: cfg, http: httpclient.New(cfg.Timeout), logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type sessionResponse struct {
	Status         string `json:"status"`
	FailedReason   string `json:"failedreason"`
	SessionKey     string `json:"sessionkey"`
	GatewayPageURL string `json:"GatewayPageURL"`
}

// InitSession opens a hosted checkout session. tran_id is the order id.
func (c *Client) InitSession(ctx context.Context, in domain.SSLCommerzInitRequest) (*domain.SSLCommerzSession, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	numItems := in.NumItems
	if numItems <= 0 {
		numItems = 1
	}
	form := url.Values{
		"store_id":         {c.cfg.StoreID},
		"store_passwd":     {c.cfg.StorePassword},
		"total_amount":     {in.Amount.StringFixed(2)},
		"currency":         {currency},
		"tran_id":          {in.OrderID},
		"success_url":      {in.SuccessURL},
		"fail_url":         {in.FailURL},
		"cancel_url":       {in.CancelURL},
		"ipn_url":          {in.IPNURL},
		"cus_name":         {in.CustomerName},
		"cus_email":        {in.CustomerEmail},
		"cus_phone":        {in.CustomerPhone},
		"cus_add1":         {in.Address},
		"cus_city":         {in.City},
		"cus_postcode":     {in.Postcode},
		"cus_country":      {country},
		"shipping_method":  {"Courier"},
		"ship_name":        {in.ShippingName},
		"ship_add1":        {in.Address},
		"ship_city":        {in.City},
		"ship_postcode":    {in.Postcode},
		"ship_country":     {country},
		"num_of_item":      {strconv.Itoa(numItems)},
		"product_name":     {in.ProductName},
		"product_category": {"general"},
		"product_profile":  {productProfile},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(sessionPath), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	var out sessionResponse
	raw, err := c.do(req, &out, "SSLCommerz session init")
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(out.Status, sessionSuccess) || out.GatewayPageURL == "" {
		return nil, apperrors.Upstream("SSLCommerz rejected the session: "+out.FailedReason, raw, errors.New(out.Status))
	}
	return &domain.SSLCommerzSession{
		Status:         out.Status,
		FailedReason:   out.FailedReason,
		SessionKey:     out.SessionKey,
		GatewayPageURL: out.GatewayPageURL,
		Raw:            raw,
	}, nil
}

type validationResponse struct {
	Status     string          `json:"status"`
	TranID     string          `json:"tran_id"`
	ValID      string          `json:"val_id"`
	Amount     json.RawMessage `json:"amount"`
	BankTranID string          `json:"bank_tran_id"`
}

// Validate asks the validator API whether val_id is a genuine payment.
func (c *Client) Validate(ctx context.Context, valID string) (*domain.SSLCommerzValidation, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	query, err := validatorQuery(valID, c.cfg.StoreID, c.cfg.StorePassword)
	if err != nil {
		return nil, err
	}
	req, err := httpclient.NewJSONRequest(ctx, http.MethodGet, c.url(validatorPath)+"?"+query, nil)
	if err != nil {
		return nil, err
	}
	var out validationResponse
	raw, err := c.do(req, &out, "SSLCommerz validation")
	if err != nil {
		return nil, err
	}
	return &domain.SSLCommerzValidation{
		Status:     out.Status,
		TranID:     out.TranID,
		ValID:      out.ValID,
		Amount:     domain.ParseAmount(string(out.Amount)),
		BankTranID: out.BankTranID,
		Raw:        raw,
	}, nil
}

func validatorQuery(valID, storeID, storePassword string) (string, error) {
	params := []struct {
		name  string
		value string
	}{
		{"val_id", valID},
		{"store_id", storeID},
		{"store_passwd", storePassword},
		{"format", "json"},
	}
	parts := make([]string, 0, len(params))
	for _, p := range params {
		styled, err := runtime.StyleParamWithLocation("form", true, p.name, runtime.ParamLocationQuery, p.value)
		if err != nil {
			return "", fmt.Errorf("style %s: %w", p.name, err)
		}
		parts = append(parts, styled)
	}
	return strings.Join(parts, "&"), nil
}

func (c *Client) do(req *http.Request, out any, what string) (json.RawMessage, error) {
	res, err := httpclient.Do(c.http, req)
	if err != nil {
		if httpclient.IsTimeout(err) {
			return nil, apperrors.Upstream(what+" timed out", nil, err)
		}
		return nil, apperrors.Upstream(what+" failed", nil, err)
	}
	if !json.Valid(res.Body) {
		return nil, apperrors.Upstream(what+" returned a malformed payload", string(res.Body), fmt.Errorf("status %d", res.StatusCode))
	}
	raw := json.RawMessage(res.Body)
	if !res.OK() {
		return nil, apperrors.Upstream(what+" was rejected", raw, fmt.Errorf("status %d", res.StatusCode))
	}
	if err := json.Unmarshal(res.Body, out); err != nil {
		return nil, apperrors.Upstream(what+" returned a malformed payload", raw, err)
	}
	return raw, nil
}

func (c *Client) url(path string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + path
}
