package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
)

const (
	// EventSource is the source stamped on every pipeline event.
	EventSource = "patchInspect"
	// DefaultEventBus is the bus events are published to unless configured otherwise.
	DefaultEventBus = "default"
)

// EventPublisher publishes JSON details to an EventBridge bus.
type EventPublisher struct {
	client EventBridgeClientAPI
	bus    string
	now    func() time.Time
}

// NewEventPublisherWithClient creates a new EventPublisher with a provided client
func NewEventPublisherWithClient(client EventBridgeClientAPI, bus string) *EventPublisher {
	if bus == "" {
		bus = DefaultEventBus
	}
	return &EventPublisher{client: client, bus: bus, now: time.Now}
}

// Publish sends one event with the given detail type. A partially failed
// PutEvents call is reported as an error.
func (p *EventPublisher) Publish(ctx context.Context, detailType string, detail any) error {
	body, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("error marshaling %s event: %w", detailType, err)
	}

	resp, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{{
			Time:         aws.Time(p.now()),
			Source:       aws.String(EventSource),
			DetailType:   aws.String(detailType),
			Detail:       aws.String(string(body)),
			EventBusName: aws.String(p.bus),
		}},
	})
	if err != nil {
		return ClassifyAWSError(err, EventBridgeResourceType, p.bus)
	}

	if resp.FailedEntryCount > 0 {
		msg := fmt.Sprintf("%d %s event(s) rejected", resp.FailedEntryCount, detailType)
		for _, e := range resp.Entries {
			if e.ErrorCode != nil {
				msg = fmt.Sprintf("%s: %s %s", msg, aws.ToString(e.ErrorCode), aws.ToString(e.ErrorMessage))
				break
			}
		}
		return NewAWSError(ErrInternalError, EventBridgeResourceType, p.bus, msg, nil)
	}
	return nil
}
