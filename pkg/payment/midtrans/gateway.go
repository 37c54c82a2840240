package midtrans

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ai-recipe-be/pkg/payment"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
)

const ProviderName = "midtrans"

type Config struct {
	ServerKey    string
	IsProduction bool
	Timeout      time.Duration
}

// Gateway uses Snap for the hosted page and the Core API for status checks.
// The local transaction id doubles as the Midtrans order id, which is the session id.
type Gateway struct {
	cfg  Config
	snap snap.Client
	core coreapi.Client
}

func NewGateway(cfg Config) *Gateway {
	env := midtrans.Sandbox
	if cfg.IsProduction {
		env = midtrans.Production
	}
	g := &Gateway{cfg: cfg}
	g.snap.New(cfg.ServerKey, env)
	g.core.New(cfg.ServerKey, env)

	// The SDK default client waits 80s and takes no context.
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	httpClient := midtrans.GetHttpClient(env)
	httpClient.HttpClient = &http.Client{Timeout: timeout}
	g.snap.HttpClient = httpClient
	g.core.HttpClient = httpClient
	return g
}

func (g *Gateway) Name() string {
	return ProviderName
}

func (g *Gateway) Configured() error {
	if payment.IsPlaceholderKey(g.cfg.ServerKey) {
		return fmt.Errorf("%w: midtrans server key is empty or a placeholder", payment.ErrNotConfigured)
	}
	return nil
}

func (g *Gateway) CreateSession(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("midtrans: create transaction: %w", err)
	}
	if req.ReferenceId == "" {
		return nil, fmt.Errorf("midtrans: order id is required")
	}

	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.ReferenceId,
			GrossAmt: req.Amount,
		},
		CreditCard: &snap.CreditCardDetails{
			Secure: true,
		},
		Callbacks: &snap.Callbacks{
			Finish: req.SuccessURL,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.CustomerName,
			Email: req.CustomerEmail,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    req.ProductId,
				Price: req.Amount,
				Qty:   1,
				Name:  req.ProductName,
			},
		},
		EnabledPayments: snap.AllSnapPaymentType,
	}

	resp, midErr := g.snap.CreateTransaction(snapReq)
	if midErr != nil {
		return nil, fmt.Errorf("midtrans: create transaction: %s", midErr.GetMessage())
	}

	return &payment.CheckoutSession{SessionId: req.ReferenceId, URL: resp.RedirectURL}, nil
}

func (g *Gateway) GetSession(ctx context.Context, sessionId string) (*payment.SessionState, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("midtrans: check transaction: %w", err)
	}
	resp, midErr := g.core.CheckTransaction(sessionId)
	if midErr != nil {
		// Snap orders are unknown to the Core API until the payer picks a
		// payment method, so a 404 on an order we created means "still open".
		if midErr.StatusCode == http.StatusNotFound {
			return &payment.SessionState{
				SessionId:     sessionId,
				Status:        payment.SessionOpen,
				PaymentStatus: payment.PaymentUnpaid,
				Metadata:      map[string]string{},
			}, nil
		}
		return nil, fmt.Errorf("midtrans: check transaction: %s", midErr.GetMessage())
	}

	status, paymentStatus := MapTransactionStatus(resp.TransactionStatus, resp.FraudStatus)
	state := &payment.SessionState{
		SessionId:     sessionId,
		Status:        status,
		PaymentStatus: paymentStatus,
		AmountTotal:   parseGrossAmount(resp.GrossAmount),
		Currency:      strings.ToLower(resp.Currency),
		Metadata:      map[string]string{},
	}
	if resp.TransactionID != "" {
		id := resp.TransactionID
		state.PaymentIntentId = &id
	}
	return state, nil
}

type notification struct {
	OrderId           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	TransactionId     string `json:"transaction_id"`
}

// ParseWebhook verifies signature_key = SHA512(order_id + status_code + gross_amount + server_key).
func (g *Gateway) ParseWebhook(payload []byte, _ func(string) string) (*payment.WebhookEvent, error) {
	if err := g.Configured(); err != nil {
		return nil, err
	}

	var n notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, fmt.Errorf("%w: malformed notification", payment.ErrInvalidSignature)
	}

	expected := Signature(n.OrderId, n.StatusCode, n.GrossAmount, g.cfg.ServerKey)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(n.SignatureKey))) != 1 {
		return nil, payment.ErrInvalidSignature
	}

	return &payment.WebhookEvent{
		Id:        n.TransactionId,
		Type:      n.TransactionStatus,
		SessionId: n.OrderId,
		Relevant:  n.OrderId != "",
	}, nil
}

func Signature(orderId, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderId + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// MapTransactionStatus folds Midtrans transaction_status into session/payment status.
func MapTransactionStatus(transactionStatus, fraudStatus string) (string, string) {
	switch transactionStatus {
	case "settlement":
		return payment.SessionComplete, payment.PaymentPaid
	case "capture":
		if fraudStatus == "" || fraudStatus == "accept" {
			return payment.SessionComplete, payment.PaymentPaid
		}
		return payment.SessionOpen, payment.PaymentUnpaid
	case "expire":
		return payment.SessionExpired, payment.PaymentUnpaid
	case "deny", "cancel", "failure":
		return payment.SessionFailed, payment.PaymentUnpaid
	default:
		return payment.SessionOpen, payment.PaymentUnpaid
	}
}

// Midtrans reports gross_amount as a decimal string such as "99000.00".
func parseGrossAmount(raw string) int64 {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return int64(f)
}
