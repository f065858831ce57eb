package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

// Client talks to the Razorpay orders API. Checkout itself happens in the
// hosted widget; the backend only creates orders and verifies the signature
// Razorpay returns after payment.
type Client struct {
	keyID   string
	secret  string
	baseURL string
	client  *http.Client
}

func NewClient(keyID, secret string) *Client {
	return &Client{
		keyID:   keyID,
		secret:  secret,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type Order struct {
	ID       string `json:"id"`
	Amount   int    `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// CreateOrder creates a payment order; amount is in the currency's smallest
// unit (paise for INR).
func (c *Client) CreateOrder(ctx context.Context, amount int, currency, receipt string) (Order, error) {
	if c.keyID == "" || c.secret == "" {
		return Order{}, fmt.Errorf("razorpay credentials missing")
	}
	payload, _ := json.Marshal(map[string]any{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return Order{}, fmt.Errorf("build order request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Order{}, fmt.Errorf("create order request failed: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return Order{}, fmt.Errorf("create order error %d: %s", resp.StatusCode, string(body))
	}
	var order Order
	if err := json.Unmarshal(body, &order); err != nil {
		return Order{}, fmt.Errorf("decode order response: %w", err)
	}
	return order, nil
}

// VerifySignature checks the HMAC-SHA256 signature Razorpay computes over
// "<orderID>|<paymentID>".
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
