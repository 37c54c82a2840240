// Package payment abstracts the hosted-checkout providers behind one Gateway
// contract: create a session, read its authoritative status, verify webhooks.
package payment

import (
	"context"
	"errors"
	"strings"
)

// Provider-reported session lifecycle.
const (
	SessionOpen     = "open"
	SessionComplete = "complete"
	SessionExpired  = "expired"
	SessionFailed   = "failed"
)

// Provider-reported payment state, tracked separately from the session lifecycle.
const (
	PaymentUnpaid            = "unpaid"
	PaymentPaid              = "paid"
	PaymentNoPaymentRequired = "no_payment_required"
)

var (
	ErrNotConfigured    = errors.New("payment: provider not configured")
	ErrInvalidSignature = errors.New("payment: invalid webhook signature")
	ErrSessionNotFound  = errors.New("payment: session not found")
)

type CheckoutRequest struct {
	// ReferenceId is the local transaction id; providers that take a caller-chosen
	// order id use it as the session id.
	ReferenceId   string
	CustomerEmail string
	CustomerName  string
	ProductId     string
	ProductName   string
	Amount        int64 // minor units
	Currency      string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

type CheckoutSession struct {
	SessionId string
	URL       string
}

type SessionState struct {
	SessionId       string
	Status          string
	PaymentStatus   string
	AmountTotal     int64
	Currency        string
	CustomerId      *string
	SubscriptionId  *string
	PaymentIntentId *string
	Metadata        map[string]string
}

// IsPaid reports whether money was actually collected. no_payment_required does not count.
func (s *SessionState) IsPaid() bool {
	return s != nil && s.PaymentStatus == PaymentPaid
}

// WebhookEvent is a verified provider notification reduced to what reconciliation needs.
type WebhookEvent struct {
	Id        string
	Type      string
	SessionId string
	// Relevant is false for event types that do not affect checkout state.
	Relevant bool
}

type Gateway interface {
	Name() string
	// Configured returns ErrNotConfigured (wrapped with detail) when credentials are missing or placeholders.
	Configured() error
	CreateSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	GetSession(ctx context.Context, sessionId string) (*SessionState, error)
	ParseWebhook(payload []byte, header func(string) string) (*WebhookEvent, error)
}

var placeholderMarkers = []string{"placeholder", "your_", "your-", "changeme", "xxxx", "dummy", "example"}

// IsPlaceholderKey catches the sample credentials that ship in .env templates.
func IsPlaceholderKey(key string) bool {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == "" {
		return true
	}
	for _, marker := range placeholderMarkers {
		if strings.Contains(k, marker) {
			return true
		}
	}
	return false
}
