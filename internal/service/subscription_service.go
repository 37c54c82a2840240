package service

import (
	"context"
	"strings"
	"time"

	"ai-recipe-be/internal/config"
	"ai-recipe-be/internal/dto"
	"ai-recipe-be/internal/entity"
	"ai-recipe-be/internal/pkg/apperror"
	"ai-recipe-be/internal/pkg/logger"
	"ai-recipe-be/internal/pkg/metrics"
	"ai-recipe-be/internal/repository/specification"
	"ai-recipe-be/internal/repository/unitofwork"
	"ai-recipe-be/pkg/access"
	"ai-recipe-be/pkg/events"

	"github.com/google/uuid"
)

type ISubscriptionService interface {
	Cancel(ctx context.Context, userId uuid.UUID, reason string) (*dto.LifecycleResponse, error)
	Resubscribe(ctx context.Context, userId uuid.UUID) (*dto.LifecycleResponse, error)
	GetStatus(ctx context.Context, userId uuid.UUID) (*access.Status, error)
}

type subscriptionService struct {
	uowFactory unitofwork.RepositoryFactory
	evaluator  *access.Evaluator
	publisher  events.Publisher
	metrics    *metrics.Recorder
	logger     logger.ILogger
	plan       config.SubscriptionConfig
}

func NewSubscriptionService(
	uowFactory unitofwork.RepositoryFactory,
	evaluator *access.Evaluator,
	publisher events.Publisher,
	recorder *metrics.Recorder,
	log logger.ILogger,
	plan config.SubscriptionConfig,
) ISubscriptionService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &subscriptionService{
		uowFactory: uowFactory,
		evaluator:  evaluator,
		publisher:  publisher,
		metrics:    recorder,
		logger:     log,
		plan:       plan,
	}
}

func (s *subscriptionService) loadUser(ctx context.Context, userId uuid.UUID) (*entity.User, error) {
	user, err := s.uowFactory.NewUnitOfWork(ctx).UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, apperror.Internal("failed to load user", err)
	}
	if user == nil {
		return nil, apperror.NotFound("user not found")
	}
	return user, nil
}

// Cancel ends the paid subscription immediately. Access stops now, not at
// the end of the paid period.
func (s *subscriptionService) Cancel(ctx context.Context, userId uuid.UUID, reason string) (*dto.LifecycleResponse, error) {
	user, err := s.loadUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	if !s.evaluator.IsSubscriptionActive(user) {
		return nil, apperror.Eligibility("no active subscription to cancel")
	}

	var reasonPtr *string
	if r := strings.TrimSpace(reason); r != "" {
		reasonPtr = &r
	}

	now := s.evaluator.Now()
	changed, err := s.uowFactory.NewUnitOfWork(ctx).UserRepository().CancelSubscription(ctx, user.Id, now, reasonPtr)
	if err != nil {
		return nil, apperror.Internal("failed to cancel subscription", err)
	}
	if !changed {
		// Status moved between the read and the conditional write.
		return nil, apperror.Eligibility("no active subscription to cancel")
	}

	s.metrics.Lifecycle("cancel")
	s.logger.Info("Subscription", "Subscription cancelled", map[string]interface{}{"user_id": user.Id})
	s.publish(ctx, events.New(events.SubscriptionCancelled, now, map[string]interface{}{
		"user_id": user.Id.String(),
		"reason":  strings.TrimSpace(reason),
	}))

	return &dto.LifecycleResponse{Status: "success", Message: "Subscription cancelled successfully"}, nil
}

// Resubscribe gives a lapsed or cancelled user a fresh trial window.
func (s *subscriptionService) Resubscribe(ctx context.Context, userId uuid.UUID) (*dto.LifecycleResponse, error) {
	user, err := s.loadUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	if s.evaluator.IsTrialActive(user) {
		return nil, apperror.Eligibility("still in trial period")
	}
	if s.evaluator.IsSubscriptionActive(user) {
		return nil, apperror.Eligibility("already has active subscription")
	}

	start := s.evaluator.Now()
	end := start.Add(s.plan.TrialDuration)
	changed, err := s.uowFactory.NewUnitOfWork(ctx).UserRepository().
		RestartTrial(ctx, user.Id, user.SubscriptionStatus, start, end)
	if err != nil {
		return nil, apperror.Internal("failed to restart trial", err)
	}
	if !changed {
		return nil, apperror.Conflict("subscription changed concurrently, please retry")
	}

	s.metrics.Lifecycle("resubscribe")
	s.logger.Info("Subscription", "Trial restarted", map[string]interface{}{
		"user_id":        user.Id,
		"previous":       user.SubscriptionStatus,
		"trial_end_date": end,
	})
	s.publish(ctx, events.New(events.SubscriptionResubscribed, start, map[string]interface{}{
		"user_id":        user.Id.String(),
		"trial_end_date": end.Format(time.RFC3339),
	}))

	return &dto.LifecycleResponse{Status: "success", Message: "Resubscribed successfully, a new trial has started"}, nil
}

func (s *subscriptionService) GetStatus(ctx context.Context, userId uuid.UUID) (*access.Status, error) {
	user, err := s.loadUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	status := s.evaluator.GetAccessStatus(user)
	return &status, nil
}

func (s *subscriptionService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Subscription", "Failed to publish event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
}
