package service

import (
	"context"

	"ai-recipe-be/internal/pkg/logger"
	"ai-recipe-be/internal/pkg/mailer"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the email outbox and sends each job over SMTP.
type consumerService struct {
	subscriber   message.Subscriber
	topicName    string
	emailService mailer.IEmailService
	logger       logger.ILogger
}

func NewConsumerService(subscriber message.Subscriber, topicName string, emailService mailer.IEmailService, log logger.ILogger) IConsumerService {
	return &consumerService{
		subscriber:   subscriber,
		topicName:    topicName,
		emailService: emailService,
		logger:       log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

// Every message is acked: gochannel redelivers a Nack immediately, which
// would spin on a dead SMTP server.
func (cs *consumerService) processMessage(msg *message.Message) {
	defer msg.Ack()

	job, err := mailer.UnmarshalJob(msg.Payload)
	if err != nil {
		cs.logger.Error("EmailConsumer", "Dropping malformed email job", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return
	}

	if err := mailer.Deliver(cs.emailService, job); err != nil {
		cs.logger.Error("EmailConsumer", "Failed to send email", map[string]interface{}{
			"message_id": msg.UUID,
			"kind":       job.Kind,
			"to":         job.To,
			"error":      err.Error(),
		})
		return
	}

	cs.logger.Info("EmailConsumer", "Email sent", map[string]interface{}{"kind": job.Kind, "to": job.To})
}
