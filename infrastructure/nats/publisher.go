package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"taskflow/domain/ports"
	"taskflow/pkg/logger"
)

// Publisher ส่ง task events เข้า JetStream ที่ <prefix>.<event type>
type Publisher struct {
	client *Client
}

func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) PublishTaskEvent(ctx context.Context, event *ports.TaskEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := EventSubject(p.client.subjectPrefix, event.Type)
	ack, err := p.client.js.Publish(ctx, subject, data)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}

	logger.DebugContext(ctx, "Task event published",
		"subject", subject,
		"task_id", event.TaskID,
		"sequence", ack.Sequence,
	)
	return nil
}

// EventSubject เช่น taskflow.events.task.created
func EventSubject(prefix string, eventType ports.TaskEventType) string {
	return prefix + "." + string(eventType)
}
