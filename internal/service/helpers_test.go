package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"ai-recipe-be/internal/config"
	"ai-recipe-be/internal/entity"
	"ai-recipe-be/internal/model"
	"ai-recipe-be/internal/pkg/guard"
	"ai-recipe-be/internal/pkg/logger"
	"ai-recipe-be/internal/pkg/metrics"
	"ai-recipe-be/internal/repository/specification"
	"ai-recipe-be/internal/repository/unitofwork"
	"ai-recipe-be/pkg/access"
	"ai-recipe-be/pkg/database"
	"ai-recipe-be/pkg/events"
	"ai-recipe-be/pkg/payment"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeGateway is an in-memory provider. Sessions start open/unpaid; tests move
// them with setState.
type fakeGateway struct {
	mu            sync.Mutex
	name          string
	configuredErr error
	createErr     error
	getErr        error
	sessions      map[string]*payment.SessionState
	urls          map[string]string
	createCalls   int
	lastRequest   payment.CheckoutRequest
}

func newFakeGateway(name string) *fakeGateway {
	return &fakeGateway{
		name:     name,
		sessions: make(map[string]*payment.SessionState),
		urls:     make(map[string]string),
	}
}

func (g *fakeGateway) Name() string { return g.name }

func (g *fakeGateway) Configured() error { return g.configuredErr }

func (g *fakeGateway) CreateSession(_ context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createCalls++
	g.lastRequest = req
	if g.createErr != nil {
		return nil, g.createErr
	}
	id := fmt.Sprintf("cs_test_%d", g.createCalls)
	g.sessions[id] = &payment.SessionState{
		SessionId:     id,
		Status:        payment.SessionOpen,
		PaymentStatus: payment.PaymentUnpaid,
		AmountTotal:   req.Amount,
		Currency:      req.Currency,
		Metadata:      req.Metadata,
	}
	g.urls[id] = "https://checkout.example/" + id
	return &payment.CheckoutSession{SessionId: id, URL: g.urls[id]}, nil
}

func (g *fakeGateway) GetSession(_ context.Context, sessionId string) (*payment.SessionState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.getErr != nil {
		return nil, g.getErr
	}
	s, ok := g.sessions[sessionId]
	if !ok {
		return nil, payment.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

// ParseWebhook accepts {"type", "session_id", "relevant"} signed with the
// X-Test-Signature header "ok".
func (g *fakeGateway) ParseWebhook(payload []byte, header func(string) string) (*payment.WebhookEvent, error) {
	if header("X-Test-Signature") != "ok" {
		return nil, payment.ErrInvalidSignature
	}
	var body struct {
		Type      string `json:"type"`
		SessionId string `json:"session_id"`
		Relevant  bool   `json:"relevant"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, err
	}
	return &payment.WebhookEvent{Id: "evt_1", Type: body.Type, SessionId: body.SessionId, Relevant: body.Relevant}, nil
}

func (g *fakeGateway) setState(sessionId, status, paymentStatus string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.sessions[sessionId]
	s.Status = status
	s.PaymentStatus = paymentStatus
}

func (g *fakeGateway) forget(sessionId string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.sessions, sessionId)
}

func (g *fakeGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.createCalls
}

var testPlan = config.SubscriptionConfig{
	PackageID:     "premium_monthly",
	PackageName:   "AI Recipe Premium",
	Amount:        999,
	Currency:      "usd",
	TrialDuration: 7 * 24 * time.Hour,
	BillingPeriod: 30 * 24 * time.Hour,
}

type testEnv struct {
	ctx          context.Context
	uowFactory   unitofwork.RepositoryFactory
	clock        *testClock
	evaluator    *access.Evaluator
	gateway      *fakeGateway
	registry     *payment.Registry
	publisher    *events.RecordingPublisher
	recorder     *metrics.Recorder
	locker       guard.Locker
	log          logger.ILogger
	reconciler   IPaymentReconciler
	checkout     ICheckoutService
	subscription ISubscriptionService
	guard        IAccessGuard
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.NewInMemoryDB(
		&model.User{},
		&model.PasswordResetToken{},
		&model.UserProvider{},
		&model.EmailVerificationToken{},
		&model.PaymentTransaction{},
		&model.Recipe{},
		&model.CartItem{},
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	env := &testEnv{
		ctx:        context.Background(),
		uowFactory: unitofwork.NewRepositoryFactory(db),
		clock:      &testClock{now: baseTime},
		gateway:    newFakeGateway("stripe"),
		publisher:  &events.RecordingPublisher{},
		recorder:   metrics.NewRecorder(),
		locker:     guard.NewMemoryLocker(),
		log:        logger.NewNopLogger(),
	}
	env.evaluator = access.NewEvaluator(env.clock.Now)
	env.registry = payment.NewRegistry("stripe", env.gateway)
	env.reconciler = NewPaymentReconciler(env.uowFactory, env.registry, env.evaluator, env.publisher, env.recorder, env.log, testPlan, time.Second)
	env.checkout = NewCheckoutService(env.uowFactory, env.registry, env.reconciler, env.evaluator, env.locker, env.publisher, env.recorder, env.log, testPlan, time.Second)
	env.subscription = NewSubscriptionService(env.uowFactory, env.evaluator, env.publisher, env.recorder, env.log, testPlan)
	env.guard = NewAccessGuard(env.uowFactory, env.evaluator, env.recorder)
	return env
}

// createTrialUser stores a user whose trial started at the current clock time.
func (e *testEnv) createTrialUser(t *testing.T, email string) *entity.User {
	t.Helper()
	user := newTrialUser(email, "Test Cook", e.clock.Now(), testPlan.TrialDuration)
	user.EmailVerified = true
	require.NoError(t, e.uowFactory.NewUnitOfWork(e.ctx).UserRepository().Create(e.ctx, user))
	return user
}

func (e *testEnv) createActiveUser(t *testing.T, email string) *entity.User {
	t.Helper()
	now := e.clock.Now()
	trialStart := now.Add(-30 * 24 * time.Hour)
	trialEnd := trialStart.Add(testPlan.TrialDuration)
	subEnd := now.Add(20 * 24 * time.Hour)
	user := &entity.User{
		Id:                    uuid.New(),
		Email:                 email,
		FullName:              "Paying Cook",
		EmailVerified:         true,
		SubscriptionStatus:    entity.SubscriptionStatusActive,
		TrialStartDate:        &trialStart,
		TrialEndDate:          &trialEnd,
		SubscriptionStartDate: &now,
		SubscriptionEndDate:   &subEnd,
		NextBillingDate:       &subEnd,
		CreatedAt:             trialStart,
		UpdatedAt:             now,
	}
	require.NoError(t, e.uowFactory.NewUnitOfWork(e.ctx).UserRepository().Create(e.ctx, user))
	return user
}

func (e *testEnv) reloadUser(t *testing.T, id uuid.UUID) *entity.User {
	t.Helper()
	user, err := e.uowFactory.NewUnitOfWork(e.ctx).UserRepository().FindOne(e.ctx, specification.ByID{ID: id})
	require.NoError(t, err)
	require.NotNil(t, user)
	return user
}

func countType(p *events.RecordingPublisher, eventType string) int {
	n := 0
	for _, t := range p.Types() {
		if t == eventType {
			n++
		}
	}
	return n
}
