package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// DefaultGroup is the consumer group used when none is configured.
const DefaultGroup = "idverify-audit-materializer"

// Consumer polls an audit topic as part of a consumer group and commits
// offsets only after every record of a poll has been stored.
type Consumer struct {
	client  *kgo.Client
	handler *Handler
	logger  *slog.Logger
}

func New(brokers []string, topic, group string, handler *Handler, logger *slog.Logger) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("audit consumer requires at least one broker")
	}
	if topic == "" {
		return nil, errors.New("audit consumer requires a topic")
	}
	if group == "" {
		group = DefaultGroup
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return &Consumer{client: client, handler: handler, logger: logger}, nil
}

// Run consumes until ctx is cancelled. A store failure stops the loop
// without committing, so the uncommitted records are redelivered on restart.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.ErrorContext(ctx, "audit fetch failed",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		var handleErr error
		fetches.EachRecord(func(r *kgo.Record) {
			if handleErr != nil {
				return
			}
			handleErr = c.handler.Handle(ctx, r)
		})
		if handleErr != nil {
			return handleErr
		}

		if err := c.client.CommitUncommittedOffsets(ctx); err != nil {
			c.logger.WarnContext(ctx, "audit offset commit failed", "error", err)
		}
	}
}

func (c *Consumer) Close() {
	c.client.Close()
}
