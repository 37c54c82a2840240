package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-recipe-be/internal/dto"
	"ai-recipe-be/internal/entity"
	"ai-recipe-be/internal/pkg/apperror"
	"ai-recipe-be/internal/pkg/logger"
	"ai-recipe-be/internal/pkg/serverutils"
	"ai-recipe-be/internal/service"
	"ai-recipe-be/pkg/access"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "controller-secret"

type stubCheckout struct {
	got *dto.CreateCheckoutRequest
	err error
}

func (s *stubCheckout) CreateCheckout(_ context.Context, req *dto.CreateCheckoutRequest) (*dto.CreateCheckoutResponse, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	return &dto.CreateCheckoutResponse{URL: "https://checkout.example/cs_1", SessionId: "cs_1"}, nil
}

type stubReconciler struct {
	payload []byte
	header  string
	err     error
}

func (s *stubReconciler) GetCheckoutStatus(_ context.Context, _ uuid.UUID, sessionId string) (*dto.CheckoutStatusResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.CheckoutStatusResponse{SessionId: sessionId, Status: "complete", PaymentStatus: "paid", Metadata: map[string]string{}}, nil
}

func (s *stubReconciler) HandleWebhook(_ context.Context, provider string, payload []byte, header func(string) string) (*dto.WebhookResponse, error) {
	s.payload = payload
	s.header = header("Stripe-Signature")
	if s.err != nil {
		return nil, s.err
	}
	return &dto.WebhookResponse{Received: true, Handled: true, Outcome: "activated"}, nil
}

func (s *stubReconciler) Reconcile(context.Context, *entity.PaymentTransaction) (*service.ReconcileResult, error) {
	return nil, nil
}

type stubSubscription struct {
	reason string
	err    error
}

func (s *stubSubscription) Cancel(_ context.Context, _ uuid.UUID, reason string) (*dto.LifecycleResponse, error) {
	s.reason = reason
	if s.err != nil {
		return nil, s.err
	}
	return &dto.LifecycleResponse{Status: "success", Message: "Subscription cancelled successfully"}, nil
}

func (s *stubSubscription) Resubscribe(context.Context, uuid.UUID) (*dto.LifecycleResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.LifecycleResponse{Status: "success", Message: "Resubscribed successfully, a new trial has started"}, nil
}

func (s *stubSubscription) GetStatus(context.Context, uuid.UUID) (*access.Status, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &access.Status{HasAccess: true, SubscriptionStatus: entity.SubscriptionStatusTrial}, nil
}

func newTestApp(register func(r fiber.Router)) *fiber.App {
	log := logger.NewNopLogger()
	app := fiber.New(fiber.Config{ErrorHandler: serverutils.ErrorHandler(log)})
	app.Use(serverutils.ErrorHandlerMiddleware(log))
	register(app.Group("/api"))
	return app
}

func bearer(t *testing.T, userId uuid.UUID) string {
	t.Helper()
	token, err := serverutils.GenerateToken(testSecret, userId, "cook@example.com", time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, app *fiber.App, method, path, auth string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func newSubscriptionApp(checkout *stubCheckout, reconciler *stubReconciler, sub *stubSubscription) *fiber.App {
	ctrl := NewSubscriptionController(checkout, reconciler, sub, serverutils.JwtMiddleware(testSecret))
	return newTestApp(ctrl.RegisterRoutes)
}

func TestCreateCheckoutEndpoint(t *testing.T) {
	userId := uuid.New()
	checkout := &stubCheckout{}
	app := newSubscriptionApp(checkout, &stubReconciler{}, &stubSubscription{})

	status, _ := do(t, app, http.MethodPost, "/api/subscription/create-checkout", "", map[string]string{
		"user_id": userId.String(), "origin_url": "https://app.example",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := do(t, app, http.MethodPost, "/api/subscription/create-checkout", bearer(t, userId), map[string]string{
		"user_id": userId.String(), "origin_url": "https://app.example",
	})
	require.Equal(t, http.StatusOK, status)
	assert.True(t, body.Success)
	var res dto.CreateCheckoutResponse
	require.NoError(t, json.Unmarshal(body.Data, &res))
	assert.Equal(t, "https://checkout.example/cs_1", res.URL)
	assert.Equal(t, userId, checkout.got.UserId)

	// Someone else's user_id.
	status, _ = do(t, app, http.MethodPost, "/api/subscription/create-checkout", bearer(t, userId), map[string]string{
		"user_id": uuid.NewString(), "origin_url": "https://app.example",
	})
	assert.Equal(t, http.StatusForbidden, status)

	status, body = do(t, app, http.MethodPost, "/api/subscription/create-checkout", bearer(t, userId), map[string]string{
		"user_id": userId.String(), "origin_url": "not a url",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation", body.Error)
}

func TestCreateCheckoutEndpoint_ErrorMapping(t *testing.T) {
	userId := uuid.New()
	cases := []struct {
		err    error
		status int
	}{
		{apperror.Configuration(assert.AnError), http.StatusServiceUnavailable},
		{apperror.NotFound("user not found"), http.StatusNotFound},
		{apperror.Eligibility("user already has an active subscription"), http.StatusBadRequest},
		{apperror.Conflict("a checkout is already being created for this user"), http.StatusConflict},
		{apperror.Upstream("failed to create checkout session", assert.AnError), http.StatusBadGateway},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		app := newSubscriptionApp(&stubCheckout{err: tc.err}, &stubReconciler{}, &stubSubscription{})
		status, body := do(t, app, http.MethodPost, "/api/subscription/create-checkout", bearer(t, userId), map[string]string{
			"user_id": userId.String(), "origin_url": "https://app.example",
		})
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.False(t, body.Success)
		assert.NotContains(t, body.Message, assert.AnError.Error())
	}
}

func TestLifecycleEndpoints(t *testing.T) {
	userId := uuid.New()
	sub := &stubSubscription{}
	app := newSubscriptionApp(&stubCheckout{}, &stubReconciler{}, sub)

	status, _ := do(t, app, http.MethodPost, "/api/subscription/cancel/"+userId.String(), bearer(t, userId),
		map[string]string{"reason": "too expensive"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "too expensive", sub.reason)

	status, _ = do(t, app, http.MethodPost, "/api/subscription/cancel/"+userId.String(), bearer(t, userId), nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "", sub.reason)

	status, _ = do(t, app, http.MethodPost, "/api/subscription/resubscribe/"+uuid.NewString(), bearer(t, userId), nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = do(t, app, http.MethodPost, "/api/subscription/resubscribe/not-a-uuid", bearer(t, userId), nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := do(t, app, http.MethodGet, "/api/subscription/status/"+userId.String(), bearer(t, userId), nil)
	require.Equal(t, http.StatusOK, status)
	var st access.Status
	require.NoError(t, json.Unmarshal(body.Data, &st))
	assert.True(t, st.HasAccess)

	sub.err = apperror.Eligibility("still in trial period")
	status, body = do(t, app, http.MethodPost, "/api/subscription/resubscribe/"+userId.String(), bearer(t, userId), nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "still in trial period", body.Message)
}

func TestCheckoutStatusEndpoint(t *testing.T) {
	userId := uuid.New()
	reconciler := &stubReconciler{}
	app := newSubscriptionApp(&stubCheckout{}, reconciler, &stubSubscription{})

	status, body := do(t, app, http.MethodGet, "/api/subscription/checkout/status/cs_42", bearer(t, userId), nil)
	require.Equal(t, http.StatusOK, status)
	var res dto.CheckoutStatusResponse
	require.NoError(t, json.Unmarshal(body.Data, &res))
	assert.Equal(t, "cs_42", res.SessionId)

	reconciler.err = apperror.NotFound("checkout session not found")
	status, _ = do(t, app, http.MethodGet, "/api/subscription/checkout/status/cs_42", bearer(t, userId), nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestWebhookEndpoint(t *testing.T) {
	reconciler := &stubReconciler{}
	app := newTestApp(NewWebhookController(reconciler).RegisterRoutes)

	req := httptest.NewRequest(http.MethodPost, "/api/webhook/stripe", bytes.NewBufferString(`{"id":"evt_1"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"id":"evt_1"}`, string(reconciler.payload))
	assert.Equal(t, "t=1,v1=abc", reconciler.header)

	reconciler.err = apperror.Validation("invalid webhook signature or payload")
	status, _ := do(t, app, http.MethodPost, "/api/webhook/stripe", "", map[string]string{"id": "evt_2"})
	assert.Equal(t, http.StatusBadRequest, status)
}
