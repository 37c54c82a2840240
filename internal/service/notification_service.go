package service

import (
	"context"
	"fmt"
	"strings"

	"ai-recipe-be/internal/entity"
	"ai-recipe-be/internal/pkg/logger"
	"ai-recipe-be/internal/pkg/mailer"
	"ai-recipe-be/internal/repository/specification"
	"ai-recipe-be/internal/repository/unitofwork"
	"ai-recipe-be/internal/websocket"
	"ai-recipe-be/pkg/events"
	pktNats "ai-recipe-be/pkg/nats"

	"github.com/google/uuid"
)

const notificationDurable = "notification-worker"

// UserPusher pushes real-time updates. Implemented by the websocket Hub.
type UserPusher interface {
	SendToUser(ctx context.Context, userID uuid.UUID, msg websocket.Message)
}

type NotificationService struct {
	uowFactory unitofwork.RepositoryFactory
	subscriber events.Subscriber
	outbox     EmailOutbox
	pusher     UserPusher
	logger     logger.ILogger
}

func NewNotificationService(
	uowFactory unitofwork.RepositoryFactory,
	sub events.Subscriber,
	outbox EmailOutbox,
	pusher UserPusher,
	log logger.ILogger,
) *NotificationService {
	return &NotificationService{
		uowFactory: uowFactory,
		subscriber: sub,
		outbox:     outbox,
		pusher:     pusher,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start(ctx context.Context) error {
	if err := s.subscriber.Subscribe(ctx, pktNats.SubjectPrefix+">", notificationDurable, s.HandleEvent); err != nil {
		s.logger.Error("Notification", "Failed to start notification subscriber", map[string]interface{}{"error": err.Error()})
		return err
	}
	s.logger.Info("Notification", "Notification service started, listening to events.>", nil)
	return nil
}

// HandleEvent reacts to subscription lifecycle events; everything else is ignored.
func (s *NotificationService) HandleEvent(ctx context.Context, event events.Event) error {
	eventType := strings.TrimPrefix(event.EventType(), pktNats.SubjectPrefix)
	if !strings.HasPrefix(eventType, "SUBSCRIPTION_") {
		return nil
	}

	userId, err := uuid.Parse(events.StringField(event, "user_id"))
	if err != nil {
		// Redelivery will not fix a malformed payload.
		s.logger.Warn("Notification", "Event without a valid user_id", map[string]interface{}{"type": eventType})
		return nil
	}

	user, err := s.uowFactory.NewUnitOfWork(ctx).UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return fmt.Errorf("load user %s: %w", userId, err)
	}
	if user == nil {
		s.logger.Warn("Notification", "Event for unknown user", map[string]interface{}{"type": eventType, "user_id": userId})
		return nil
	}

	switch eventType {
	case events.SubscriptionActivated:
		s.enqueue(ctx, mailer.Job{
			Kind: mailer.JobReceipt,
			To:   user.Email,
			Data: map[string]string{
				"full_name":    user.FullName,
				"package_name": events.StringField(event, "package_name"),
				"amount":       events.StringField(event, "amount"),
				"currency":     events.StringField(event, "currency"),
				"period_end":   events.StringField(event, "period_end"),
			},
		})
		s.push(ctx, user, "subscription.activated", map[string]interface{}{
			"session_id": events.StringField(event, "session_id"),
			"period_end": events.StringField(event, "period_end"),
		})
	case events.SubscriptionCancelled:
		s.enqueue(ctx, mailer.Job{
			Kind: mailer.JobCancellation,
			To:   user.Email,
			Data: map[string]string{"full_name": user.FullName},
		})
		s.push(ctx, user, "subscription.cancelled", nil)
	case events.SubscriptionResubscribed:
		s.push(ctx, user, "subscription.resubscribed", map[string]interface{}{
			"trial_end_date": events.StringField(event, "trial_end_date"),
		})
	}
	return nil
}

func (s *NotificationService) enqueue(ctx context.Context, job mailer.Job) {
	if s.outbox == nil {
		return
	}
	if err := s.outbox.Enqueue(ctx, job); err != nil {
		s.logger.Error("Notification", "Failed to queue email", map[string]interface{}{
			"kind":  job.Kind,
			"error": err.Error(),
		})
	}
}

func (s *NotificationService) push(ctx context.Context, user *entity.User, msgType string, data map[string]interface{}) {
	if s.pusher == nil {
		return
	}
	s.pusher.SendToUser(ctx, user.Id, websocket.Message{Type: msgType, Data: data})
}
