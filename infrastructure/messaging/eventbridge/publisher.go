// Package eventbridge publishes domain events to an AWS EventBridge bus so
// the surrounding product can react to what the engine learns.
package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"github.com/TPCMinistries/insight-engine/application/ports"
	"github.com/TPCMinistries/insight-engine/domain/events"
)

const eventSource = "insight-engine"

// Publisher implements ports.EventPublisher on EventBridge
type Publisher struct {
	client  *eventbridge.Client
	busName string
	logger  *zap.Logger
}

// NewPublisher creates an EventBridge publisher
func NewPublisher(client *eventbridge.Client, busName string, logger *zap.Logger) ports.EventPublisher {
	return &Publisher{
		client:  client,
		busName: busName,
		logger:  logger,
	}
}

// Publish sends one domain event
func (p *Publisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return p.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch sends domain events in one call. EventBridge accepts at most
// ten entries per request, so larger batches are chunked.
func (p *Publisher) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	if len(domainEvents) == 0 {
		return nil
	}

	const maxBatch = 10
	for start := 0; start < len(domainEvents); start += maxBatch {
		end := start + maxBatch
		if end > len(domainEvents) {
			end = len(domainEvents)
		}

		entries := make([]types.PutEventsRequestEntry, 0, end-start)
		for _, event := range domainEvents[start:end] {
			detail, err := json.Marshal(event)
			if err != nil {
				p.logger.Warn("Failed to marshal event, skipping",
					zap.String("event_type", event.GetEventType()),
					zap.Error(err))
				continue
			}
			entries = append(entries, types.PutEventsRequestEntry{
				EventBusName: aws.String(p.busName),
				Source:       aws.String(eventSource),
				DetailType:   aws.String(event.GetEventType()),
				Detail:       aws.String(string(detail)),
				Time:         aws.Time(event.GetTimestamp()),
			})
		}
		if len(entries) == 0 {
			continue
		}

		out, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: entries})
		if err != nil {
			return fmt.Errorf("failed to put events: %w", err)
		}
		if out.FailedEntryCount > 0 {
			p.logger.Warn("Some events failed to publish",
				zap.Int32("failed", out.FailedEntryCount),
				zap.Int("total", len(entries)))
		}
	}

	return nil
}
