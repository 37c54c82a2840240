package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"ai-recipe-be/internal/config"
	"ai-recipe-be/internal/dto"
	"ai-recipe-be/internal/entity"
	"ai-recipe-be/internal/pkg/apperror"
	"ai-recipe-be/internal/pkg/guard"
	"ai-recipe-be/internal/pkg/logger"
	"ai-recipe-be/internal/pkg/metrics"
	"ai-recipe-be/internal/repository/contract"
	"ai-recipe-be/internal/repository/specification"
	"ai-recipe-be/internal/repository/unitofwork"
	"ai-recipe-be/internal/tracer"
	"ai-recipe-be/pkg/access"
	"ai-recipe-be/pkg/events"
	"ai-recipe-be/pkg/payment"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const checkoutLockTTL = 30 * time.Second

type ICheckoutService interface {
	CreateCheckout(ctx context.Context, req *dto.CreateCheckoutRequest) (*dto.CreateCheckoutResponse, error)
}

type checkoutService struct {
	uowFactory unitofwork.RepositoryFactory
	gateways   *payment.Registry
	reconciler IPaymentReconciler
	evaluator  *access.Evaluator
	locker     guard.Locker
	publisher  events.Publisher
	metrics    *metrics.Recorder
	logger     logger.ILogger
	plan       config.SubscriptionConfig
	timeout    time.Duration
}

func NewCheckoutService(
	uowFactory unitofwork.RepositoryFactory,
	gateways *payment.Registry,
	reconciler IPaymentReconciler,
	evaluator *access.Evaluator,
	locker guard.Locker,
	publisher events.Publisher,
	recorder *metrics.Recorder,
	log logger.ILogger,
	plan config.SubscriptionConfig,
	timeout time.Duration,
) ICheckoutService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &checkoutService{
		uowFactory: uowFactory,
		gateways:   gateways,
		reconciler: reconciler,
		evaluator:  evaluator,
		locker:     locker,
		publisher:  publisher,
		metrics:    recorder,
		logger:     log,
		plan:       plan,
		timeout:    timeout,
	}
}

// CreateCheckout opens a hosted checkout for the fixed package. Guards run in
// order and fail fast: provider configured, user exists, not already a paying
// subscriber. Nothing is written until the provider has created the session.
func (s *checkoutService) CreateCheckout(ctx context.Context, req *dto.CreateCheckoutRequest) (*dto.CreateCheckoutResponse, error) {
	ctx, span := tracer.Start(ctx, "CheckoutService.CreateCheckout")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", req.UserId.String()))

	// 1. Provider configured
	gw, err := s.gateways.Default()
	if err == nil {
		err = gw.Configured()
	}
	if err != nil {
		s.logger.Error("Checkout", "Payment provider not configured", map[string]interface{}{"error": err.Error()})
		s.metrics.CheckoutRejected("not_configured")
		return nil, apperror.Configuration(err)
	}

	// 2. User exists
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: req.UserId})
	if err != nil {
		return nil, apperror.Internal("failed to load user", err)
	}
	if user == nil {
		s.metrics.CheckoutRejected("user_not_found")
		return nil, apperror.NotFound("user not found")
	}

	// 3. Eligibility. Trial users may convert early.
	if s.evaluator.IsSubscriptionActive(user) {
		s.metrics.CheckoutRejected("already_subscribed")
		return nil, apperror.Eligibility("user already has an active subscription")
	}

	// One checkout creation per user at a time.
	release, err := s.locker.Acquire(ctx, "checkout:"+user.Id.String(), checkoutLockTTL)
	if err != nil {
		if errors.Is(err, guard.ErrLocked) {
			s.metrics.CheckoutRejected("in_progress")
			return nil, apperror.Conflict("a checkout is already being created for this user")
		}
		return nil, apperror.Internal("failed to acquire checkout lock", err)
	}
	defer release()

	reused, err := s.reusePending(ctx, user)
	if err != nil || reused != nil {
		return reused, err
	}

	// 4. Provider session
	txId := uuid.New()
	metadata := map[string]string{
		"user_id":        user.Id.String(),
		"transaction_id": txId.String(),
		"package_id":     s.plan.PackageID,
		"package_name":   s.plan.PackageName,
	}
	email := strings.TrimSpace(req.UserEmail)
	if email == "" {
		email = user.Email
	}
	origin := strings.TrimRight(req.OriginURL, "/")

	callCtx, cancel := s.withTimeout(ctx)
	session, err := gw.CreateSession(callCtx, payment.CheckoutRequest{
		ReferenceId:   txId.String(),
		CustomerEmail: email,
		CustomerName:  user.FullName,
		ProductId:     s.plan.PackageID,
		ProductName:   s.plan.PackageName,
		Amount:        s.plan.Amount,
		Currency:      s.plan.Currency,
		SuccessURL:    origin + "/subscription/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     origin + "/subscription/cancel",
		Metadata:      metadata,
	})
	cancel()
	if err != nil {
		s.logger.Error("Checkout", "Provider failed to create session", map[string]interface{}{
			"user_id":  user.Id,
			"provider": gw.Name(),
			"error":    err.Error(),
		})
		return nil, apperror.Upstream("failed to create checkout session", err)
	}

	// 5. Pending transaction
	now := s.evaluator.Now()
	tx := &entity.PaymentTransaction{
		Id:            txId,
		UserId:        user.Id,
		Provider:      gw.Name(),
		SessionId:     session.SessionId,
		Status:        entity.PaymentStatusPending,
		SessionStatus: payment.SessionOpen,
		PaymentStatus: payment.PaymentUnpaid,
		Amount:        s.plan.Amount,
		Currency:      s.plan.Currency,
		Metadata:      metadata,
		CheckoutURL:   session.URL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uow.PaymentTransactionRepository().Create(ctx, tx); err != nil {
		s.logger.Error("Checkout", "Orphaned provider session: transaction insert failed", map[string]interface{}{
			"user_id":    user.Id,
			"provider":   gw.Name(),
			"session_id": session.SessionId,
			"error":      err.Error(),
		})
		return nil, apperror.Internal("failed to record checkout", err)
	}

	s.metrics.CheckoutCreated(gw.Name())
	s.logger.Info("Checkout", "Checkout session created", map[string]interface{}{
		"user_id":    user.Id,
		"provider":   gw.Name(),
		"session_id": session.SessionId,
	})
	if err := s.publisher.Publish(ctx, events.New(events.CheckoutCreated, now, map[string]interface{}{
		"user_id":    user.Id.String(),
		"session_id": session.SessionId,
		"provider":   gw.Name(),
	})); err != nil {
		s.logger.Warn("Checkout", "Failed to publish event", map[string]interface{}{"error": err.Error()})
	}

	// 6. Hosted URL
	return &dto.CreateCheckoutResponse{URL: session.URL, SessionId: session.SessionId}, nil
}

// reusePending refreshes the user's pending transaction, if any. A
// still-open session is handed back instead of creating a second one.
func (s *checkoutService) reusePending(ctx context.Context, user *entity.User) (*dto.CreateCheckoutResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	pending, err := uow.PaymentTransactionRepository().FindOne(ctx,
		specification.UserOwnedBy{UserID: user.Id},
		specification.ByPaymentStatus{Status: entity.PaymentStatusPending},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, apperror.Internal("failed to load pending checkout", err)
	}
	if pending == nil {
		return nil, nil
	}

	result, err := s.reconciler.Reconcile(ctx, pending)
	if err != nil {
		if apperror.KindOf(err) != apperror.KindNotFound {
			return nil, err
		}
		// The provider has no such session; close it locally so a new one can start.
		s.logger.Warn("Checkout", "Pending session unknown to provider, marking expired", map[string]interface{}{
			"user_id":    user.Id,
			"session_id": pending.SessionId,
		})
		if _, err := uow.PaymentTransactionRepository().ApplyStatus(ctx, pending.SessionId, contract.TransactionStatusUpdate{
			Status:        entity.PaymentStatusExpired,
			SessionStatus: payment.SessionExpired,
			PaymentStatus: payment.PaymentUnpaid,
			At:            s.evaluator.Now(),
		}); err != nil {
			return nil, apperror.Internal("failed to close stale checkout", err)
		}
		return nil, nil
	}

	switch result.Transaction.Status {
	case entity.PaymentStatusPaid:
		s.metrics.CheckoutRejected("already_subscribed")
		return nil, apperror.Eligibility("user already has an active subscription")
	case entity.PaymentStatusPending:
		if result.State.Status == payment.SessionOpen && result.Transaction.CheckoutURL != "" {
			s.logger.Info("Checkout", "Reusing open checkout session", map[string]interface{}{
				"user_id":    user.Id,
				"session_id": pending.SessionId,
			})
			return &dto.CreateCheckoutResponse{URL: result.Transaction.CheckoutURL, SessionId: pending.SessionId}, nil
		}
		s.metrics.CheckoutRejected("payment_processing")
		return nil, apperror.Conflict("a payment for this user is still being processed")
	}
	// Expired or failed: start a new one.
	return nil, nil
}

func (s *checkoutService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
