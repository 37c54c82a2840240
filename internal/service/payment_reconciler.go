package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"ai-recipe-be/internal/config"
	"ai-recipe-be/internal/dto"
	"ai-recipe-be/internal/entity"
	"ai-recipe-be/internal/pkg/apperror"
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

type ReconcileOutcome string

const (
	OutcomeNoop      ReconcileOutcome = "noop"
	OutcomeUpdated   ReconcileOutcome = "updated"
	OutcomeActivated ReconcileOutcome = "activated"
)

type ReconcileResult struct {
	Transaction *entity.PaymentTransaction
	State       *payment.SessionState
	Outcome     ReconcileOutcome
}

type IPaymentReconciler interface {
	// GetCheckoutStatus is the polling path. Only the owner may read a session.
	GetCheckoutStatus(ctx context.Context, userId uuid.UUID, sessionId string) (*dto.CheckoutStatusResponse, error)
	// HandleWebhook verifies a provider push and runs the same reconciliation.
	HandleWebhook(ctx context.Context, provider string, payload []byte, header func(string) string) (*dto.WebhookResponse, error)
	Reconcile(ctx context.Context, tx *entity.PaymentTransaction) (*ReconcileResult, error)
}

type paymentReconciler struct {
	uowFactory unitofwork.RepositoryFactory
	gateways   *payment.Registry
	evaluator  *access.Evaluator
	publisher  events.Publisher
	metrics    *metrics.Recorder
	logger     logger.ILogger
	plan       config.SubscriptionConfig
	timeout    time.Duration
}

func NewPaymentReconciler(
	uowFactory unitofwork.RepositoryFactory,
	gateways *payment.Registry,
	evaluator *access.Evaluator,
	publisher events.Publisher,
	recorder *metrics.Recorder,
	log logger.ILogger,
	plan config.SubscriptionConfig,
	timeout time.Duration,
) IPaymentReconciler {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &paymentReconciler{
		uowFactory: uowFactory,
		gateways:   gateways,
		evaluator:  evaluator,
		publisher:  publisher,
		metrics:    recorder,
		logger:     log,
		plan:       plan,
		timeout:    timeout,
	}
}

func (s *paymentReconciler) GetCheckoutStatus(ctx context.Context, userId uuid.UUID, sessionId string) (*dto.CheckoutStatusResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	tx, err := uow.PaymentTransactionRepository().FindOne(ctx, specification.BySessionID{SessionID: sessionId})
	if err != nil {
		return nil, apperror.Internal("failed to load payment transaction", err)
	}
	// Someone else's session is reported as unknown.
	if tx == nil || tx.UserId != userId {
		return nil, apperror.NotFound("checkout session not found")
	}

	result, err := s.Reconcile(ctx, tx)
	if err != nil {
		return nil, err
	}
	return statusSnapshot(result), nil
}

func (s *paymentReconciler) HandleWebhook(ctx context.Context, provider string, payload []byte, header func(string) string) (*dto.WebhookResponse, error) {
	gw, ok := s.gateways.Get(provider)
	if !ok {
		return nil, apperror.NotFound("unknown payment provider")
	}

	event, err := gw.ParseWebhook(payload, header)
	if err != nil {
		if errors.Is(err, payment.ErrNotConfigured) {
			return nil, apperror.Configuration(err)
		}
		s.logger.Warn("Reconciler", "Rejected webhook", map[string]interface{}{
			"provider": provider,
			"error":    err.Error(),
		})
		return nil, apperror.Validation("invalid webhook signature or payload")
	}

	if !event.Relevant {
		return &dto.WebhookResponse{Received: true}, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	tx, err := uow.PaymentTransactionRepository().FindOne(ctx,
		specification.BySessionID{SessionID: event.SessionId},
		specification.ByProvider{Provider: gw.Name()},
	)
	if err != nil {
		return nil, apperror.Internal("failed to load payment transaction", err)
	}
	if tx == nil {
		// Acknowledge so the provider stops retrying a session we never created.
		s.logger.Warn("Reconciler", "Webhook for unknown session", map[string]interface{}{
			"provider":   provider,
			"session_id": event.SessionId,
			"event_id":   event.Id,
			"event_type": event.Type,
		})
		return &dto.WebhookResponse{Received: true}, nil
	}

	result, err := s.Reconcile(ctx, tx)
	if err != nil {
		return nil, err
	}
	return &dto.WebhookResponse{Received: true, Handled: true, Outcome: string(result.Outcome)}, nil
}

// Reconcile reads the authoritative provider state and applies it. The
// transaction update is conditional, so concurrent or repeated calls change
// storage at most once per status change, and the subscription is activated
// only by the call that moves the transaction to paid.
func (s *paymentReconciler) Reconcile(ctx context.Context, tx *entity.PaymentTransaction) (*ReconcileResult, error) {
	ctx, span := tracer.Start(ctx, "PaymentReconciler.Reconcile")
	defer span.End()
	span.SetAttributes(
		attribute.String("payment.provider", tx.Provider),
		attribute.String("payment.session_id", tx.SessionId),
	)

	gw, ok := s.gateways.Get(tx.Provider)
	if !ok {
		return nil, apperror.Configuration(payment.ErrNotConfigured)
	}

	callCtx, cancel := s.withTimeout(ctx)
	state, err := gw.GetSession(callCtx, tx.SessionId)
	cancel()
	if err != nil {
		if errors.Is(err, payment.ErrSessionNotFound) {
			return nil, apperror.NotFound("checkout session not found")
		}
		s.logger.Error("Reconciler", "Failed to fetch session status", map[string]interface{}{
			"provider":   tx.Provider,
			"session_id": tx.SessionId,
			"error":      err.Error(),
		})
		return nil, apperror.Upstream("failed to retrieve checkout status", err)
	}

	now := s.evaluator.Now()
	update := contract.TransactionStatusUpdate{
		Status:          transactionStatusFor(state),
		SessionStatus:   state.Status,
		PaymentStatus:   state.PaymentStatus,
		PaymentIntentId: state.PaymentIntentId,
		At:              now,
	}

	outcome, err := s.apply(ctx, tx, state, update)
	if err != nil {
		return nil, err
	}
	s.metrics.Reconciled(string(outcome))
	span.SetAttributes(attribute.String("reconcile.outcome", string(outcome)))

	current, err := s.uowFactory.NewUnitOfWork(ctx).PaymentTransactionRepository().
		FindOne(ctx, specification.BySessionID{SessionID: tx.SessionId})
	if err != nil || current == nil {
		current = tx
	}

	if outcome == OutcomeActivated {
		s.logger.Info("Reconciler", "Subscription activated", map[string]interface{}{
			"user_id":    tx.UserId,
			"session_id": tx.SessionId,
			"provider":   tx.Provider,
		})
		s.publish(ctx, events.New(events.SubscriptionActivated, now, map[string]interface{}{
			"user_id":      tx.UserId.String(),
			"session_id":   tx.SessionId,
			"provider":     tx.Provider,
			"amount":       strconv.FormatInt(tx.Amount, 10),
			"currency":     tx.Currency,
			"package_name": s.plan.PackageName,
			"period_end":   now.Add(s.plan.BillingPeriod).Format(time.RFC3339),
		}))
	}

	return &ReconcileResult{Transaction: current, State: state, Outcome: outcome}, nil
}

// apply runs the transaction update and, on the paid transition, the user
// activation inside one database transaction.
func (s *paymentReconciler) apply(ctx context.Context, tx *entity.PaymentTransaction, state *payment.SessionState, update contract.TransactionStatusUpdate) (ReconcileOutcome, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return "", apperror.Internal("failed to start transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = uow.Rollback()
		}
	}()

	changed, err := uow.PaymentTransactionRepository().ApplyStatus(ctx, tx.SessionId, update)
	if err != nil {
		return "", apperror.Internal("failed to update payment transaction", err)
	}
	if !changed {
		return OutcomeNoop, nil
	}

	outcome := OutcomeUpdated
	if update.Status == entity.PaymentStatusPaid {
		activated, err := uow.UserRepository().ActivateSubscription(ctx, tx.UserId, contract.SubscriptionActivation{
			PaidAt:         update.At,
			PeriodEnd:      update.At.Add(s.plan.BillingPeriod),
			CustomerId:     state.CustomerId,
			SubscriptionId: state.SubscriptionId,
		})
		if err != nil || !activated {
			// Rolled back: the transaction stays unpaid and the next poll or
			// webhook retries the whole step.
			s.reportAnomaly(ctx, tx, err)
			if err == nil {
				err = errors.New("user record not updated")
			}
			return "", apperror.Internal("failed to activate subscription", err)
		}
		outcome = OutcomeActivated
	}

	if err := uow.Commit(); err != nil {
		if outcome == OutcomeActivated {
			s.reportAnomaly(ctx, tx, err)
		}
		return "", apperror.Internal("failed to commit reconciliation", err)
	}
	committed = true
	return outcome, nil
}

func (s *paymentReconciler) reportAnomaly(ctx context.Context, tx *entity.PaymentTransaction, cause error) {
	details := map[string]interface{}{
		"user_id":        tx.UserId,
		"transaction_id": tx.Id,
		"session_id":     tx.SessionId,
		"provider":       tx.Provider,
	}
	if cause != nil {
		details["error"] = cause.Error()
	}
	s.logger.Error("Reconciler", "Reconciliation anomaly: paid session could not activate subscription", details)
	s.metrics.ReconciliationAnomaly()
	s.publish(ctx, events.New(events.ReconciliationAnomaly, s.evaluator.Now(), map[string]interface{}{
		"user_id":    tx.UserId.String(),
		"session_id": tx.SessionId,
		"provider":   tx.Provider,
	}))
}

func (s *paymentReconciler) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Reconciler", "Failed to publish event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
}

func (s *paymentReconciler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// transactionStatusFor folds the provider's two fields into the local status.
// Only collected money counts as paid; a completed session still awaiting an
// async payment stays pending. A completed session that needed no payment
// will never collect any, so it is closed as failed.
func transactionStatusFor(state *payment.SessionState) entity.PaymentStatus {
	switch {
	case state.IsPaid():
		return entity.PaymentStatusPaid
	case state.Status == payment.SessionExpired:
		return entity.PaymentStatusExpired
	case state.Status == payment.SessionFailed:
		return entity.PaymentStatusFailed
	case state.Status == payment.SessionComplete && state.PaymentStatus == payment.PaymentNoPaymentRequired:
		return entity.PaymentStatusFailed
	default:
		return entity.PaymentStatusPending
	}
}

func statusSnapshot(r *ReconcileResult) *dto.CheckoutStatusResponse {
	res := &dto.CheckoutStatusResponse{
		SessionId:     r.Transaction.SessionId,
		Status:        r.State.Status,
		PaymentStatus: r.State.PaymentStatus,
		AmountTotal:   r.State.AmountTotal,
		Currency:      r.State.Currency,
		Metadata:      r.State.Metadata,
	}
	if res.AmountTotal == 0 {
		res.AmountTotal = r.Transaction.Amount
	}
	if res.Currency == "" {
		res.Currency = r.Transaction.Currency
	}
	if len(res.Metadata) == 0 {
		res.Metadata = r.Transaction.Metadata
	}
	if res.Metadata == nil {
		res.Metadata = map[string]string{}
	}
	return res
}
