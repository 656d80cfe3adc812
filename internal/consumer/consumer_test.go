package consumer

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/falconleb/shopify-tracker/internal/config"
)

func testConsumerConfig() *config.Config {
	return &config.Config{
		Consumer: config.Consumer{
			MaxMessages:     10,
			WaitTimeSeconds: 1,
			BufferSize:      100,
		},
	}
}

func TestConsumer_Start_PipelineCoordination(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockTracker := new(MockTracker)
	log := zap.NewNop()

	mockConsumer.On("QueueURL").Return("https://sqs.eu-central-1.amazonaws.com/123/track-events")

	messages := []types.Message{
		{
			MessageId:     aws.String("msg-1"),
			Body:          aws.String(`{"event_id": "evt-1", "event": "product_view", "session_id": "sess-1"}`),
			ReceiptHandle: aws.String("receipt-1"),
		},
	}

	mockConsumer.On("ReceiveMessages", mock.Anything, mock.AnythingOfType("*sqs.ReceiveMessageInput")).
		Return(&sqs.ReceiveMessageOutput{Messages: messages}, nil).Once()
	mockConsumer.On("ReceiveMessages", mock.Anything, mock.AnythingOfType("*sqs.ReceiveMessageInput")).
		Return(&sqs.ReceiveMessageOutput{Messages: []types.Message{}}, nil).Maybe()
	mockConsumer.On("DeleteMessage", mock.Anything, mock.AnythingOfType("*sqs.DeleteMessageInput")).
		Return(&sqs.DeleteMessageOutput{}, nil)

	mockTracker.On("Ingest", mock.Anything, mock.Anything, "evt-1").Return("evt-1", nil)

	consumer := NewConsumer(testConsumerConfig(), mockConsumer, mockTracker, log)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := consumer.Start(ctx)

	assert.NoError(t, err)

	// The parsed message flows through every stage: ingested, then acked
	mockTracker.AssertCalled(t, "Ingest", mock.Anything, mock.Anything, "evt-1")
	mockConsumer.AssertCalled(t, "DeleteMessage", mock.Anything, mock.AnythingOfType("*sqs.DeleteMessageInput"))
}

func TestConsumer_Start_GracefulShutdown(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockTracker := new(MockTracker)
	log := zap.NewNop()

	mockConsumer.On("QueueURL").Return("https://sqs.eu-central-1.amazonaws.com/123/track-events").Maybe()
	mockConsumer.On("ReceiveMessages", mock.Anything, mock.AnythingOfType("*sqs.ReceiveMessageInput")).
		Return(&sqs.ReceiveMessageOutput{Messages: []types.Message{}}, nil).Maybe()

	consumer := NewConsumer(testConsumerConfig(), mockConsumer, mockTracker, log)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan bool)
	go func() {
		err := consumer.Start(ctx)
		assert.NoError(t, err)
		done <- true
	}()

	time.Sleep(50 * time.Millisecond)

	cancel()

	select {
	case <-done:
		// Shutdown completed successfully
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Graceful shutdown took too long")
	}
}

func TestConsumer_NewConsumer_ComponentInitialization(t *testing.T) {
	consumer := NewConsumer(testConsumerConfig(), new(MockQueueConsumer), new(MockTracker), zap.NewNop())

	assert.NotNil(t, consumer)
	assert.NotNil(t, consumer.receiver)
	assert.NotNil(t, consumer.parser)
	assert.NotNil(t, consumer.ingester)
}

func TestConsumer_Start_EmptyQueue(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockTracker := new(MockTracker)

	mockConsumer.On("QueueURL").Return("https://sqs.eu-central-1.amazonaws.com/123/track-events")
	mockConsumer.On("ReceiveMessages", mock.Anything, mock.AnythingOfType("*sqs.ReceiveMessageInput")).
		Return(&sqs.ReceiveMessageOutput{Messages: []types.Message{}}, nil).Maybe()

	consumer := NewConsumer(testConsumerConfig(), mockConsumer, mockTracker, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := consumer.Start(ctx)

	assert.NoError(t, err)
	mockTracker.AssertNotCalled(t, "Ingest")
}
