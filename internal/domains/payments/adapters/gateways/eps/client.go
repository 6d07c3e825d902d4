// Package eps talks to the EPS merchant API.
package eps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/Apurer/go-gin-storefront/internal/domains/payments/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/ports"
	"github.com/Apurer/go-gin-storefront/internal/platform/httpclient"
	"github.com/Apurer/go-gin-storefront/internal/platform/signing"
	"github.com/Apurer/go-gin-storefront/internal/platform/tokencache"
	apperrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

var _ ports.EPSGateway = (*Client)(nil)

const (
	tokenPath  = "/v1/Auth/GetToken"
	initPath   = "/v1/EPSEngine/InitializeEPS"
	statusPath = "/v1/EPSEngine/CheckMerchantTransactionStatus"

	// EPS requires these on every initialization.
	transactionTypeID = 1
	productProfile    = "general"
	productCategory   = "general"

	defaultTokenTTL = 50 * time.Minute
)

// Client is the EPS gateway adapter.
type Client struct {
	cfg    Config
	http   *http.Client
	signer *signing.Signer
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

// WithTokenCache shares granted tokens, e.g. across replicas through Redis.
func WithTokenCache(cache tokencache.Cache) Option {
	return func(cl *Client) {
		cl.tokens = tokencache.NewSource(cache, "eps", cl.grant)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		if logger != nil {
			cl.logger = logger
		}
	}
}

// New builds the adapter. A config missing credentials is accepted here and
// reported on first use.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:    cfg,
		http:   httpclient.New(cfg.Timeout),
		logger: slog.Default(),
	}
	c.signer, _ = signing.NewHMACSHA512(cfg.HashKey)
	c.tokens = tokencache.NewSource(nil, "eps", c.grant)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tokenRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token        string `json:"token"`
	ExpireDate   string `json:"expireDate"`
	ErrorMessage string `json:"errorMessage"`
	ErrorCode    any    `json:"errorCode"`
}

// GetToken returns a bearer token, granting one if none is cached.
func (c *Client) GetToken(ctx context.Context) (string, error) {
	if err := c.cfg.Validate(); err != nil {
		return "", err
	}
	return c.tokens.Token(ctx)
}

func (c *Client) grant(ctx context.Context) (string, time.Duration, error) {
	req, err := httpclient.NewJSONRequest(ctx, http.MethodPost, c.url(tokenPath), tokenRequest{UserName: c.cfg.Username, Password: c.cfg.Password})
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("x-hash", c.signer.Sign(c.cfg.Username))
	var out tokenResponse
	raw, err := c.do(req, &out, "EPS token request")
	if err != nil {
		return "", 0, err
	}
	if out.Token == "" {
		return "", 0, apperrors.Upstream("EPS did not issue a token", raw, errors.New(out.ErrorMessage))
	}
	return out.Token, tokenTTL(out.ExpireDate, time.Now()), nil
}

// tokenTTL keeps a minute of headroom before the advertised expiry.
func tokenTTL(expireDate string, now time.Time) time.Duration {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05"} {
		if expires, err := time.Parse(layout, expireDate); err == nil {
			if ttl := expires.Sub(now) - time.Minute; ttl > 0 {
				return ttl
			}
			return 0
		}
	}
	return defaultTokenTTL
}

type initRequest struct {
	MerchantID            string        `json:"merchantId"`
	StoreID               string        `json:"storeId"`
	CustomerOrderID       string        `json:"CustomerOrderId"`
	MerchantTransactionID string        `json:"merchantTransactionId"`
	TransactionTypeID     int           `json:"transactionTypeId"`
	TotalAmount           string        `json:"totalAmount"`
	SuccessURL            string        `json:"successUrl"`
	FailURL               string        `json:"failUrl"`
	CancelURL             string        `json:"cancelUrl"`
	CustomerName          string        `json:"customerName"`
	CustomerEmail         string        `json:"customerEmail"`
	CustomerAddress       string        `json:"CustomerAddress"`
	CustomerCity          string        `json:"CustomerCity"`
	CustomerState         string        `json:"CustomerState"`
	CustomerPostcode      string        `json:"CustomerPostcode"`
	CustomerCountry       string        `json:"CustomerCountry"`
	CustomerPhone         string        `json:"CustomerPhone"`
	ProductName           string        `json:"ProductName"`
	ProductProfile        string        `json:"ProductProfile"`
	ProductCategory       string        `json:"ProductCategory"`
	ProductList           []productLine `json:"ProductList"`
}

type productLine struct {
	ProductName  string `json:"ProductName"`
	NoOfQuantity string `json:"NoOfQuantity"`
	ProductPrice string `json:"ProductPrice"`
}

type initResponse struct {
	TransactionID string `json:"TransactionId"`
	RedirectURL   string `json:"RedirectURL"`
	ErrorMessage  string `json:"ErrorMessage"`
	ErrorCode     any    `json:"ErrorCode"`
}

// Initialize registers the transaction with EPS and returns the hosted page URL.
func (c *Client) Initialize(ctx context.Context, in domain.EPSInitRequest) (*domain.EPSInitResult, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	amount := in.Amount.StringFixed(2)
	country := in.Customer.Country
	if country == "" {
		country = "BD"
	}
	payload := initRequest{
		MerchantID:            c.cfg.MerchantID,
		StoreID:               c.cfg.StoreID,
		CustomerOrderID:       in.OrderID,
		MerchantTransactionID: in.TransactionID,
		TransactionTypeID:     transactionTypeID,
		TotalAmount:           amount,
		SuccessURL:            in.SuccessURL,
		FailURL:               in.FailURL,
		CancelURL:             in.CancelURL,
		CustomerName:          in.Customer.Name,
		CustomerEmail:         in.Customer.Email,
		CustomerAddress:       in.Customer.Address,
		CustomerCity:          in.Customer.City,
		CustomerState:         in.Customer.State,
		CustomerPostcode:      in.Customer.Postcode,
		CustomerCountry:       country,
		CustomerPhone:         in.Customer.Phone,
		ProductName:           in.ProductName,
		ProductProfile:        productProfile,
		ProductCategory:       productCategory,
		ProductList:           []productLine{{ProductName: in.ProductName, NoOfQuantity: "1", ProductPrice: amount}},
	}
	req, err := httpclient.NewJSONRequest(ctx, http.MethodPost, c.url(initPath), payload)
	if err != nil {
		return nil, err
	}
	c.authorize(req, token, in.TransactionID)
	var out initResponse
	raw, err := c.do(req, &out, "EPS initialization")
	if err != nil {
		return nil, err
	}
	if out.RedirectURL == "" {
		return nil, apperrors.Upstream("EPS did not return a redirect URL", raw, errors.New(out.ErrorMessage))
	}
	return &domain.EPSInitResult{TransactionID: in.TransactionID, RedirectURL: out.RedirectURL, Raw: raw}, nil
}

type statusResponse struct {
	MerchantTransactionID string          `json:"MerchantTransactionId"`
	EPSTransactionID      string          `json:"EpsTransactionId"`
	CustomerOrderID       string          `json:"CustomerOrderId"`
	Status                string          `json:"Status"`
	TotalAmount           json.RawMessage `json:"TotalAmount"`
	ErrorMessage          string          `json:"ErrorMessage"`
}

// TransactionStatus asks EPS for the authoritative state of a transaction.
func (c *Client) TransactionStatus(ctx context.Context, transactionID string) (*domain.EPSTransactionStatus, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("merchantTransactionId", transactionID)
	req, err := httpclient.NewJSONRequest(ctx, http.MethodGet, c.url(statusPath)+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req, token, transactionID)
	var out statusResponse
	raw, err := c.do(req, &out, "EPS status check")
	if err != nil {
		return nil, err
	}
	if out.Status == "" {
		return nil, apperrors.Upstream("EPS status response has no status", raw, errors.New(out.ErrorMessage))
	}
	merchantTxID := out.MerchantTransactionID
	if merchantTxID == "" {
		merchantTxID = transactionID
	}
	return &domain.EPSTransactionStatus{
		MerchantTransactionID: merchantTxID,
		EPSTransactionID:      out.EPSTransactionID,
		CustomerOrderID:       out.CustomerOrderID,
		Status:                out.Status,
		Amount:                domain.ParseAmount(string(out.TotalAmount)),
		Raw:                   raw,
	}, nil
}

func (c *Client) authorize(req *http.Request, token, signed string) {
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("x-hash", c.signer.Sign(signed))
}

// do sends req and decodes a 2xx JSON body into out. Failures carry the
// provider payload.
func (c *Client) do(req *http.Request, out any, what string) (json.RawMessage, error) {
	res, err := httpclient.Do(c.http, req)
	if err != nil {
		if httpclient.IsTimeout(err) {
			return nil, apperrors.Upstream(what+" timed out", nil, err)
		}
		return nil, apperrors.Upstream(what+" failed", nil, err)
	}
	raw := json.RawMessage(res.Body)
	if !json.Valid(res.Body) {
		return nil, apperrors.Upstream(what+" returned a malformed payload", string(res.Body), fmt.Errorf("status %d", res.StatusCode))
	}
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

func sortStrings(values []string) []string {
	sort.Strings(values)
	return values
}
