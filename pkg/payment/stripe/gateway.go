package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ai-recipe-be/pkg/payment"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/webhook"
)

const ProviderName = "stripe"

type Config struct {
	SecretKey     string
	WebhookSecret string
	Timeout       time.Duration
}

// Gateway creates one-time Checkout Sessions for the subscription package.
type Gateway struct {
	cfg      Config
	sessions *session.Client
}

// NewGateway builds a gateway on the given backend; nil means the real API
// with a bounded client timeout and no automatic retries.
func NewGateway(cfg Config, backend stripe.Backend) *Gateway {
	if backend == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		backend = stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			HTTPClient:        &http.Client{Timeout: timeout},
			MaxNetworkRetries: stripe.Int64(0),
		})
	}
	return &Gateway{
		cfg:      cfg,
		sessions: &session.Client{B: backend, Key: cfg.SecretKey},
	}
}

func (g *Gateway) Name() string {
	return ProviderName
}

func (g *Gateway) Configured() error {
	key := strings.TrimSpace(g.cfg.SecretKey)
	if payment.IsPlaceholderKey(key) {
		return fmt.Errorf("%w: stripe secret key is empty or a placeholder", payment.ErrNotConfigured)
	}
	if !strings.HasPrefix(key, "sk_test_") && !strings.HasPrefix(key, "sk_live_") && !strings.HasPrefix(key, "rk_") {
		return fmt.Errorf("%w: stripe secret key has an unexpected format", payment.ErrNotConfigured)
	}
	return nil
}

func (g *Gateway) CreateSession(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.ReferenceId),
		CustomerCreation:  stripe.String(string(stripe.CheckoutSessionCustomerCreationAlways)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(req.Currency)),
					UnitAmount: stripe.Int64(req.Amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.ProductName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	s, err := g.sessions.New(params)
	if err != nil {
		return nil, describeError("create checkout session", err)
	}
	if s.ID == "" || s.URL == "" {
		return nil, fmt.Errorf("stripe: create checkout session: response missing id or url")
	}

	return &payment.CheckoutSession{SessionId: s.ID, URL: s.URL}, nil
}

func (g *Gateway) GetSession(ctx context.Context, sessionId string) (*payment.SessionState, error) {
	params := &stripe.CheckoutSessionParams{}
	params.AddExpand("payment_intent")
	params.Context = ctx

	s, err := g.sessions.Get(sessionId, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", payment.ErrSessionNotFound, sessionId)
		}
		return nil, describeError("retrieve checkout session", err)
	}
	return toSessionState(s), nil
}

// ParseWebhook verifies the Stripe-Signature header and extracts the session id
// from checkout.session.* events.
func (g *Gateway) ParseWebhook(payload []byte, header func(string) string) (*payment.WebhookEvent, error) {
	if g.cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("%w: stripe webhook secret is empty", payment.ErrNotConfigured)
	}

	event, err := webhook.ConstructEventWithOptions(payload, header("Stripe-Signature"), g.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrInvalidSignature, err)
	}

	out := &payment.WebhookEvent{Id: event.ID, Type: string(event.Type)}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted,
		stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded,
		stripe.EventTypeCheckoutSessionAsyncPaymentFailed,
		stripe.EventTypeCheckoutSessionExpired:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("stripe: decode checkout session event: %w", err)
		}
		out.SessionId = s.ID
		out.Relevant = s.ID != ""
	}

	return out, nil
}

func toSessionState(s *stripe.CheckoutSession) *payment.SessionState {
	state := &payment.SessionState{
		SessionId:     s.ID,
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
		Metadata:      s.Metadata,
	}
	if state.Status == "" {
		state.Status = payment.SessionOpen
	}
	if state.PaymentStatus == "" {
		state.PaymentStatus = payment.PaymentUnpaid
	}
	if s.Customer != nil && s.Customer.ID != "" {
		state.CustomerId = stripe.String(s.Customer.ID)
	}
	if s.Subscription != nil && s.Subscription.ID != "" {
		state.SubscriptionId = stripe.String(s.Subscription.ID)
	}
	if s.PaymentIntent != nil && s.PaymentIntent.ID != "" {
		state.PaymentIntentId = stripe.String(s.PaymentIntent.ID)
	}
	// A delayed payment method (bank debit) that bounced leaves the session
	// complete and unpaid; only the intent says it will never be paid.
	if state.Status == payment.SessionComplete && state.PaymentStatus == payment.PaymentUnpaid && asyncPaymentFailed(s.PaymentIntent) {
		state.Status = payment.SessionFailed
	}
	if state.Metadata == nil {
		state.Metadata = map[string]string{}
	}
	return state
}

func asyncPaymentFailed(pi *stripe.PaymentIntent) bool {
	if pi == nil {
		return false
	}
	return pi.Status == stripe.PaymentIntentStatusRequiresPaymentMethod ||
		pi.Status == stripe.PaymentIntentStatusCanceled
}

// describeError keeps the Stripe message but drops request details that may carry secrets.
func describeError(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return fmt.Errorf("stripe: %s: %s (status %d, code %s)", op, stripeErr.Msg, stripeErr.HTTPStatusCode, stripeErr.Code)
	}
	return fmt.Errorf("stripe: %s: %w", op, err)
}
