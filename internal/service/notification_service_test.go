package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"ai-recipe-be/internal/pkg/mailer"
	"ai-recipe-be/internal/websocket"
	"ai-recipe-be/pkg/events"
	"ai-recipe-be/pkg/payment"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pushed struct {
	userId uuid.UUID
	msg    websocket.Message
}

type recordingPusher struct {
	mu   sync.Mutex
	sent []pushed
}

func (p *recordingPusher) SendToUser(_ context.Context, userId uuid.UUID, msg websocket.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, pushed{userId: userId, msg: msg})
}

func (p *recordingPusher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.sent))
	for _, s := range p.sent {
		out = append(out, s.msg.Type)
	}
	return out
}

func TestNotificationService_HandleEvent(t *testing.T) {
	env := newTestEnv(t)
	user := env.createTrialUser(t, "cook@example.com")
	outbox := &recordingOutbox{}
	pusher := &recordingPusher{}
	svc := NewNotificationService(env.uowFactory, events.NewLocalBus(), outbox, pusher, env.log)

	activated := events.New(events.SubscriptionActivated, baseTime, map[string]interface{}{
		"user_id":      user.Id.String(),
		"session_id":   "cs_1",
		"amount":       "999",
		"currency":     "usd",
		"package_name": testPlan.PackageName,
		"period_end":   baseTime.Add(testPlan.BillingPeriod).Format(time.RFC3339),
	})
	require.NoError(t, svc.HandleEvent(env.ctx, activated))

	receipt := outbox.last(t, mailer.JobReceipt)
	assert.Equal(t, user.Email, receipt.To)
	assert.Equal(t, "Test Cook", receipt.Data["full_name"])
	assert.Equal(t, "999", receipt.Data["amount"])
	assert.Equal(t, testPlan.PackageName, receipt.Data["package_name"])

	require.NoError(t, svc.HandleEvent(env.ctx, events.New(events.SubscriptionCancelled, baseTime, map[string]interface{}{
		"user_id": user.Id.String(),
	})))
	assert.Equal(t, user.Email, outbox.last(t, mailer.JobCancellation).To)

	require.NoError(t, svc.HandleEvent(env.ctx, events.New(events.SubscriptionResubscribed, baseTime, map[string]interface{}{
		"user_id":        user.Id.String(),
		"trial_end_date": baseTime.Add(testPlan.TrialDuration).Format(time.RFC3339),
	})))

	assert.Equal(t, []string{"subscription.activated", "subscription.cancelled", "subscription.resubscribed"}, pusher.types())
	for _, p := range pusher.sent {
		assert.Equal(t, user.Id, p.userId)
	}
	assert.Equal(t, 2, outbox.count())
}

func TestNotificationService_IgnoresOtherEvents(t *testing.T) {
	env := newTestEnv(t)
	user := env.createTrialUser(t, "cook@example.com")
	outbox := &recordingOutbox{}
	pusher := &recordingPusher{}
	svc := NewNotificationService(env.uowFactory, events.NewLocalBus(), outbox, pusher, env.log)

	require.NoError(t, svc.HandleEvent(env.ctx, events.New(events.CheckoutCreated, baseTime, map[string]interface{}{"user_id": user.Id.String()})))
	require.NoError(t, svc.HandleEvent(env.ctx, events.New(events.SubscriptionCancelled, baseTime, map[string]interface{}{"user_id": "not-a-uuid"})))
	require.NoError(t, svc.HandleEvent(env.ctx, events.New(events.SubscriptionCancelled, baseTime, map[string]interface{}{"user_id": uuid.NewString()})))

	assert.Zero(t, outbox.count())
	assert.Empty(t, pusher.types())
}

// Lifecycle events published on the local bus reach the user.
func TestNotificationService_LocalBus(t *testing.T) {
	env := newTestEnv(t)
	bus := events.NewLocalBus()
	outbox := &recordingOutbox{}
	pusher := &recordingPusher{}
	svc := NewNotificationService(env.uowFactory, bus, outbox, pusher, env.log)
	require.NoError(t, svc.Start(env.ctx))

	reconciler := NewPaymentReconciler(env.uowFactory, env.registry, env.evaluator, bus, env.recorder, env.log, testPlan, time.Second)
	user := env.createTrialUser(t, "cook@example.com")
	sessionId := env.seedPending(t, user.Id)
	env.gateway.setState(sessionId, payment.SessionComplete, payment.PaymentPaid)

	_, err := reconciler.GetCheckoutStatus(env.ctx, user.Id, sessionId)
	require.NoError(t, err)
	bus.Wait()

	assert.Equal(t, []string{"subscription.activated"}, pusher.types())
	assert.Equal(t, user.Email, outbox.last(t, mailer.JobReceipt).To)
}
