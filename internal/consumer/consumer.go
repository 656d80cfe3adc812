package consumer

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/falconleb/shopify-tracker/internal/config"
	"github.com/falconleb/shopify-tracker/internal/queue"
	"github.com/falconleb/shopify-tracker/internal/service"
)

// Consumer orchestrates a pipeline of stages to process SQS messages.
type Consumer struct {
	receiver   *Receiver
	parser     *ParserStage
	ingester   *IngestStage
	bufferSize int
}

// NewConsumer creates a new consumer with a pipeline architecture.
func NewConsumer(cfg *config.Config, queueConsumer queue.Consumer, tracker service.Tracker, log *zap.Logger) *Consumer {
	receiver := NewReceiver(queueConsumer, ReceiverConfig{
		MaxMessages:     cfg.Consumer.MaxMessages,
		WaitTimeSeconds: cfg.Consumer.WaitTimeSeconds,
		BufferSize:      cfg.Consumer.BufferSize,
	}, log)

	parser := NewParserStage(queueConsumer, NewJSONEventParser(), log)

	ingester := NewIngestStage(tracker, log)

	return &Consumer{
		receiver:   receiver,
		parser:     parser,
		ingester:   ingester,
		bufferSize: cfg.Consumer.BufferSize,
	}
}

// Start begins the consumer pipeline.
func (c *Consumer) Start(ctx context.Context) error {
	messageChan := make(chan types.Message, c.bufferSize)
	envelopeChan := make(chan *Envelope, c.bufferSize)

	var wg sync.WaitGroup

	// Start all pipeline stages
	wg.Add(3)

	// Stage 1: Receive messages from SQS
	go func() {
		defer wg.Done()
		c.receiver.Start(ctx, messageChan)
	}()

	// Stage 2: Parse messages into envelopes
	go func() {
		defer wg.Done()
		c.parser.Start(ctx, messageChan, envelopeChan)
	}()

	// Stage 3: Ingest envelopes through the tracking engine
	go func() {
		defer wg.Done()
		c.ingester.Start(ctx, envelopeChan)
	}()

	wg.Wait()
	return nil
}
