// Package bkash talks to the bKash tokenized checkout API.
package bkash

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Apurer/go-gin-storefront/internal/domains/payments/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/ports"
	"github.com/Apurer/go-gin-storefront/internal/platform/httpclient"
	"github.com/Apurer/go-gin-storefront/internal/platform/tokencache"
	apperrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

var _ ports.BkashGateway = (*Client)(nil)

const (
	grantPath   = "/tokenized/checkout/token/grant"
	createPath  = "/tokenized/checkout/create"
	executePath = "/tokenized/checkout/execute"
	statusPath  = "/tokenized/checkout/payment/status"

	checkoutMode = "0011"
	currency     = "BDT"
	intent       = "sale"
)

// Client is the bKash gateway adapter.
type Client struct {
	cfg    Config
	http   *http.Client
	tokens *tokencache.Source
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

// WithTokenCache shares the id_token, e.g. across replicas through Redis.
func WithTokenCache(cache tokencache.Cache) Option {
	return func(cl *Client) {
		cl.tokens = tokencache.NewSource(cache, "bkash", cl.fetchToken)
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
	c.tokens = tokencache.NewSource(nil, "bkash", c.fetchToken)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type grantRequest struct {
	AppKey    string `json:"app_key"`
	AppSecret string `json:"app_secret"`
}

type grantResponse struct {
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
	IDToken       string `json:"id_token"`
	TokenType     string `json:"token_type"`
	ExpiresIn     int    `json:"expires_in"`
	RefreshToken  string `json:"refresh_token"`
}

// GrantToken requests a fresh id_token and caches it for later calls.
func (c *Client) GrantToken(ctx context.Context) (*domain.BkashToken, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	token, raw, err := c.grant(ctx)
	if err != nil {
		return nil, err
	}
	token.Raw = raw
	return token, nil
}

func (c *Client) grant(ctx context.Context) (*domain.BkashToken, json.RawMessage, error) {
	req, err := httpclient.NewJSONRequest(ctx, http.MethodPost, c.url(grantPath), grantRequest{AppKey: c.cfg.AppKey, AppSecret: c.cfg.AppSecret})
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("username", c.cfg.Username)
	req.Header.Set("password", c.cfg.Password)
	var out grantResponse
	raw, _, err := c.do(req, &out, "bKash token grant")
	if err != nil {
		return nil, nil, err
	}
	if out.IDToken == "" {
		return nil, raw, apperrors.Upstream("bKash did not grant a token", raw, errors.New(out.StatusMessage))
	}
	return &domain.BkashToken{IDToken: out.IDToken, RefreshToken: out.RefreshToken, ExpiresIn: out.ExpiresIn}, raw, nil
}

func (c *Client) fetchToken(ctx context.Context) (string, time.Duration, error) {
	token, _, err := c.grant(ctx)
	if err != nil {
		return "", 0, err
	}
	ttl := time.Duration(token.ExpiresIn)*time.Second - time.Minute
	return token.IDToken, ttl, nil
}

type createRequest struct {
	Mode                  string `json:"mode"`
	PayerReference        string `json:"payerReference"`
	CallbackURL           string `json:"callbackURL"`
	Amount                string `json:"amount"`
	Currency              string `json:"currency"`
	Intent                string `json:"intent"`
	MerchantInvoiceNumber string `json:"merchantInvoiceNumber"`
}

type paymentRequest struct {
	PaymentID string `json:"paymentID"`
}

type paymentResponse struct {
	PaymentID             string `json:"paymentID"`
	BkashURL              string `json:"bkashURL"`
	TrxID                 string `json:"trxID"`
	TransactionStatus     string `json:"transactionStatus"`
	Amount                string `json:"amount"`
	MerchantInvoiceNumber string `json:"merchantInvoiceNumber"`
	StatusCode            string `json:"statusCode"`
	StatusMessage         string `json:"statusMessage"`
	ErrorCode             string `json:"errorCode"`
	ErrorMessage          string `json:"errorMessage"`
}

func (r paymentResponse) toDomain(raw json.RawMessage) *domain.BkashPayment {
	code, message := r.StatusCode, r.StatusMessage
	if code == "" {
		code, message = r.ErrorCode, r.ErrorMessage
	}
	return &domain.BkashPayment{
		PaymentID:             r.PaymentID,
		BkashURL:              r.BkashURL,
		StatusCode:            code,
		StatusMessage:         message,
		TransactionStatus:     r.TransactionStatus,
		TrxID:                 r.TrxID,
		MerchantInvoiceNumber: r.MerchantInvoiceNumber,
		Amount:                domain.ParseAmount(r.Amount),
		Raw:                   raw,
	}
}

// CreatePayment opens a checkout for the order and returns the bKash page URL.
func (c *Client) CreatePayment(ctx context.Context, in domain.BkashCreateRequest) (*domain.BkashPayment, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	payerReference := in.PayerReference
	if payerReference == "" {
		payerReference = in.OrderID
	}
	payload := createRequest{
		Mode:                  checkoutMode,
		PayerReference:        payerReference,
		CallbackURL:           in.CallbackURL,
		Amount:                in.Amount.StringFixed(2),
		Currency:              currency,
		Intent:                intent,
		MerchantInvoiceNumber: in.OrderID,
	}
	payment, err := c.paymentCall(ctx, createPath, payload, "bKash create payment")
	if err != nil {
		return nil, err
	}
	if payment.StatusCode != domain.BkashSuccessCode || payment.BkashURL == "" {
		return nil, apperrors.Upstream("bKash rejected the payment: "+payment.StatusMessage, payment.Raw, fmt.Errorf("status code %s", payment.StatusCode))
	}
	return payment, nil
}

// ExecutePayment settles an authorized payment. A declined payment is
// returned, not an error; callers inspect Completed.
func (c *Client) ExecutePayment(ctx context.Context, paymentID string) (*domain.BkashPayment, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	return c.paymentCall(ctx, executePath, paymentRequest{PaymentID: paymentID}, "bKash execute payment")
}

// QueryPayment reads the payment state without changing it.
func (c *Client) QueryPayment(ctx context.Context, paymentID string) (*domain.BkashPayment, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	return c.paymentCall(ctx, statusPath, paymentRequest{PaymentID: paymentID}, "bKash payment status")
}

// paymentCall sends an authorized request, re-granting the token once if
// bKash rejects it as expired.
func (c *Client) paymentCall(ctx context.Context, path string, payload any, what string) (*domain.BkashPayment, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	for attempt := 0; ; attempt++ {
		req, err := httpclient.NewJSONRequest(ctx, http.MethodPost, c.url(path), payload)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", token)
		req.Header.Set("X-APP-Key", c.cfg.AppKey)
		var out paymentResponse
		raw, status, err := c.do(req, &out, what)
		if status == http.StatusUnauthorized && attempt == 0 {
			c.logger.WarnContext(ctx, "bKash rejected the cached token, granting a new one")
			if token, err = c.tokens.Refresh(ctx); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		return out.toDomain(raw), nil
	}
}

// do sends req and decodes a 2xx JSON body into out. It also returns the
// HTTP status so callers can react to 401.
func (c *Client) do(req *http.Request, out any, what string) (json.RawMessage, int, error) {
	res, err := httpclient.Do(c.http, req)
	if err != nil {
		if httpclient.IsTimeout(err) {
			return nil, 0, apperrors.Upstream(what+" timed out", nil, err)
		}
		return nil, 0, apperrors.Upstream(what+" failed", nil, err)
	}
	if !json.Valid(res.Body) {
		return nil, res.StatusCode, apperrors.Upstream(what+" returned a malformed payload", string(res.Body), fmt.Errorf("status %d", res.StatusCode))
	}
	raw := json.RawMessage(res.Body)
	if !res.OK() {
		return raw, res.StatusCode, apperrors.Upstream(what+" was rejected", raw, fmt.Errorf("status %d", res.StatusCode))
	}
	if err := json.Unmarshal(res.Body, out); err != nil {
		return raw, res.StatusCode, apperrors.Upstream(what+" returned a malformed payload", raw, err)
	}
	return raw, res.StatusCode, nil
}

func (c *Client) url(path string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + path
}
