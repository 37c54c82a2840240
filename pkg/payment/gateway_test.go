package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedGateway struct{ name string }

func (g namedGateway) Name() string      { return g.name }
func (g namedGateway) Configured() error { return nil }
func (g namedGateway) CreateSession(context.Context, CheckoutRequest) (*CheckoutSession, error) {
	return nil, nil
}
func (g namedGateway) GetSession(context.Context, string) (*SessionState, error) { return nil, nil }
func (g namedGateway) ParseWebhook([]byte, func(string) string) (*WebhookEvent, error) {
	return nil, nil
}

func TestIsPlaceholderKey(t *testing.T) {
	assert.True(t, IsPlaceholderKey(""))
	assert.True(t, IsPlaceholderKey("   "))
	assert.True(t, IsPlaceholderKey("sk_test_placeholder"))
	assert.True(t, IsPlaceholderKey("YOUR_STRIPE_KEY"))
	assert.True(t, IsPlaceholderKey("sk_test_xxxxxxxx"))
	assert.False(t, IsPlaceholderKey("sk_test_51Habc123"))
	assert.False(t, IsPlaceholderKey("SB-Mid-server-abc123"))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry("Stripe", namedGateway{"stripe"}, namedGateway{"midtrans"}, nil)

	g, err := r.Default()
	require.NoError(t, err)
	assert.Equal(t, "stripe", g.Name())

	g, ok := r.Get("MIDTRANS")
	require.True(t, ok)
	assert.Equal(t, "midtrans", g.Name())

	_, ok = r.Get("paypal")
	assert.False(t, ok)

	_, err = NewRegistry("paypal").Default()
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestSessionState_IsPaid(t *testing.T) {
	assert.True(t, (&SessionState{PaymentStatus: PaymentPaid}).IsPaid())
	assert.False(t, (&SessionState{PaymentStatus: PaymentNoPaymentRequired}).IsPaid())
	assert.False(t, (&SessionState{PaymentStatus: PaymentUnpaid}).IsPaid())

	var nilState *SessionState
	assert.False(t, nilState.IsPaid())
}
