package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	c := NewClient("key_test", "secret_test")
	sig := sign("secret_test", "order_123", "pay_456")
	require.True(t, c.VerifySignature("order_123", "pay_456", sig))
}

func TestVerifySignatureRejectsTampering(t *testing.T) {
	c := NewClient("key_test", "secret_test")
	sig := sign("secret_test", "order_123", "pay_456")
	require.False(t, c.VerifySignature("order_123", "pay_999", sig))
	require.False(t, c.VerifySignature("order_123", "pay_456", sig+"00"))
	require.False(t, c.VerifySignature("order_123", "pay_456", ""))
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "key_test", user)
		require.Equal(t, "secret_test", pass)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_abc","amount":50000,"currency":"INR","receipt":"rcpt-1","status":"created"}`))
	}))
	defer srv.Close()

	c := NewClient("key_test", "secret_test")
	c.baseURL = srv.URL
	order, err := c.CreateOrder(context.Background(), 50000, "INR", "rcpt-1")
	require.NoError(t, err)
	require.Equal(t, "order_abc", order.ID)
	require.Equal(t, 50000, order.Amount)
}

func TestCreateOrderUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"description":"bad key"}}`))
	}))
	defer srv.Close()

	c := NewClient("key_test", "secret_test")
	c.baseURL = srv.URL
	_, err := c.CreateOrder(context.Background(), 100, "INR", "rcpt-2")
	require.Error(t, err)
	require.Contains(t, err.Error(), "401")
}
