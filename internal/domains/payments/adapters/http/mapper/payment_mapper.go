package mapper

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	orderdomain "github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	paymentsapp "github.com/Apurer/go-gin-storefront/internal/domains/payments/application"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/domain"
)

// TokenResponse returns a gateway token to trusted callers.
type TokenResponse struct {
	Success      bool   `json:"success"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresIn    int    `json:"expiresIn,omitempty"`
}

// OrderPaymentRequest names the order a gateway payment is started for.
type OrderPaymentRequest struct {
	OrderID        string `json:"orderId" binding:"required"`
	TransactionID  string `json:"transactionId,omitempty"`
	PayerReference string `json:"payerReference,omitempty"`
}

type EPSInitResponse struct {
	Success       bool   `json:"success"`
	OrderID       string `json:"orderId"`
	TransactionID string `json:"transactionId"`
	RedirectURL   string `json:"redirectUrl"`
}

// PaymentState is the order's payment after a verification.
type PaymentState struct {
	Success       bool            `json:"success"`
	OrderID       string          `json:"orderId"`
	OrderStatus   string          `json:"orderStatus"`
	PaymentStatus string          `json:"paymentStatus"`
	Change        string          `json:"change"`
	Data          json.RawMessage `json:"data,omitempty"`
}

type EPSVerifyResponse struct {
	PaymentState
	TransactionStatus string          `json:"transactionStatus"`
	Amount            decimal.Decimal `json:"amount"`
}

type BkashCreateResponse struct {
	Success   bool            `json:"success"`
	PaymentID string          `json:"paymentID"`
	BkashURL  string          `json:"bkashURL"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// BkashExecuteRequest settles a bKash payment.
type BkashExecuteRequest struct {
	PaymentID string `json:"paymentID" binding:"required"`
	OrderID   string `json:"orderId,omitempty"`
}

type BkashExecuteResponse struct {
	PaymentState
	TrxID         string `json:"trxID,omitempty"`
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage,omitempty"`
}

type SSLCommerzInitResponse struct {
	Success        bool   `json:"success"`
	GatewayPageURL string `json:"gatewayPageURL"`
	SessionKey     string `json:"sessionKey"`
}

func FromToken(token string) TokenResponse {
	return TokenResponse{Success: true, Token: token}
}

func FromBkashToken(token *domain.BkashToken) TokenResponse {
	return TokenResponse{Success: true, Token: token.IDToken, RefreshToken: token.RefreshToken, ExpiresIn: token.ExpiresIn}
}

func FromEPSInit(out *paymentsapp.EPSInitOutput) EPSInitResponse {
	return EPSInitResponse{Success: true, OrderID: out.OrderID, TransactionID: out.TransactionID, RedirectURL: out.RedirectURL}
}

// FromResult reports the order's payment. Success means the order is paid.
func FromResult(res paymentsapp.Result, raw json.RawMessage) PaymentState {
	return PaymentState{
		Success:       res.Order.Payment.Status == orderdomain.PaymentCompleted,
		OrderID:       res.Order.ID,
		OrderStatus:   string(res.Order.Status),
		PaymentStatus: string(res.Order.Payment.Status),
		Change:        string(res.Change),
		Data:          raw,
	}
}

func FromEPSVerification(v *paymentsapp.EPSVerification) EPSVerifyResponse {
	return EPSVerifyResponse{
		PaymentState:      FromResult(v.Result, v.Status.Raw),
		TransactionStatus: v.Status.Status,
		Amount:            v.Status.Amount,
	}
}

func FromBkashCreate(p *domain.BkashPayment) BkashCreateResponse {
	return BkashCreateResponse{Success: true, PaymentID: p.PaymentID, BkashURL: p.BkashURL, Data: p.Raw}
}

func FromBkashExecution(e *paymentsapp.BkashExecution) BkashExecuteResponse {
	return BkashExecuteResponse{
		PaymentState:  FromResult(e.Result, e.Payment.Raw),
		TrxID:         e.Payment.TrxID,
		StatusCode:    e.Payment.StatusCode,
		StatusMessage: e.Payment.StatusMessage,
	}
}

func FromSSLCommerzSession(s *domain.SSLCommerzSession) SSLCommerzInitResponse {
	return SSLCommerzInitResponse{Success: true, GatewayPageURL: s.GatewayPageURL, SessionKey: s.SessionKey}
}
