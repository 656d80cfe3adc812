package queue

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/falconleb/shopify-tracker/internal/dto"
)

// Publisher defines the interface for publishing track events to a queue.
type Publisher interface {
	PublishEvent(ctx context.Context, event *dto.TrackEventRequest, eventID string) error
}

// Consumer defines the interface for consuming messages from a queue.
type Consumer interface {
	ReceiveMessages(ctx context.Context, input *sqs.ReceiveMessageInput) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, input *sqs.DeleteMessageInput) (*sqs.DeleteMessageOutput, error)
	QueueURL() string
}
