package service

import (
	"context"
	"fmt"

	"ai-recipe-be/internal/pkg/mailer"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// EmailOutbox queues emails for the consumer so request handlers never wait
// on SMTP.
type EmailOutbox interface {
	Enqueue(ctx context.Context, job mailer.Job) error
}

type watermillOutbox struct {
	publisher message.Publisher
	topic     string
}

func NewEmailOutbox(publisher message.Publisher) EmailOutbox {
	return &watermillOutbox{publisher: publisher, topic: mailer.Topic}
}

func (o *watermillOutbox) Enqueue(ctx context.Context, job mailer.Job) error {
	payload, err := job.Marshal()
	if err != nil {
		return fmt.Errorf("marshal email job: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("kind", string(job.Kind))
	return o.publisher.Publish(o.topic, msg)
}
