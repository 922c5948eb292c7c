package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"learnhub/apperrors"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// ErrNotConfigured is returned when no gateway credentials are present
var ErrNotConfigured = errors.New("payment gateway not configured")

// Intent is a gateway-issued payment attempt
type Intent struct {
	ID       string `json:"orderId"`
	Amount   int64  `json:"amount"` // minor currency units
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Mock     bool   `json:"mock"`
}

// Gateway creates payment intents and verifies their signed confirmations
type Gateway interface {
	CreateIntent(ctx context.Context, amount int64, currency, receipt string) (Intent, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// Razorpay talks to the Razorpay Orders API
type Razorpay struct {
	client    *resty.Client
	keyID     string
	keySecret string
}

// NewRazorpay builds a client with a bounded per-request timeout
func NewRazorpay(baseURL, keyID, keySecret string, timeout time.Duration) *Razorpay {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetBasicAuth(keyID, keySecret).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &Razorpay{client: client, keyID: keyID, keySecret: keySecret}
}

// Configured reports whether intents can be requested from the real gateway
func (r *Razorpay) Configured() bool {
	return r != nil && r.keyID != "" && r.keySecret != ""
}

type orderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (r *Razorpay) CreateIntent(ctx context.Context, amount int64, currency, receipt string) (Intent, error) {
	const op = "gateway.CreateIntent"
	if !r.Configured() {
		return Intent{}, ErrNotConfigured
	}

	var order orderResponse
	var apiErr errorResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(orderRequest{Amount: amount, Currency: currency, Receipt: receipt}).
		SetResult(&order).
		SetError(&apiErr).
		Post("/orders")
	if err != nil {
		return Intent{}, apperrors.Upstream(op, "payment gateway unreachable", err)
	}
	if resp.StatusCode() >= http.StatusInternalServerError {
		return Intent{}, apperrors.Upstream(op, "payment gateway unavailable", fmt.Errorf("status %d", resp.StatusCode()))
	}
	if resp.IsError() {
		return Intent{}, apperrors.Upstream(op, "payment gateway rejected the order",
			fmt.Errorf("status %d: %s %s", resp.StatusCode(), apiErr.Error.Code, apiErr.Error.Description))
	}
	if order.ID == "" {
		return Intent{}, apperrors.Upstream(op, "payment gateway returned no order id", nil)
	}

	return Intent{
		ID:       order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Receipt:  receipt,
	}, nil
}

func (r *Razorpay) VerifySignature(orderID, paymentID, signature string) bool {
	if r == nil || r.keySecret == "" {
		return false
	}
	return VerifySignature(r.keySecret, orderID, paymentID, signature)
}

// Sign returns hex(HMAC-SHA256(secret, "{orderID}|{paymentID}"))
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares in constant time against the expected signature
func VerifySignature(secret, orderID, paymentID, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := Sign(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// NewMockIntent issues a locally generated intent for degraded, non-production setups
func NewMockIntent(amount int64, currency, receipt string) Intent {
	return Intent{
		ID:       "order_mock_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
		Mock:     true,
	}
}

// ReceiptFor derives the traceable receipt label of an intent
func ReceiptFor(courseID, studentID uint) string {
	return fmt.Sprintf("receipt_%d_%d", courseID, studentID)
}
