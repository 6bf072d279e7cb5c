// README: Notification sinks: RabbitMQ queue for deployments, log for dev/memory mode.
package notify

import (
	"context"
	"encoding/json"
	"log"

	"courier/internal/infra"
)

// AMQPSink publishes notification events as persistent JSON messages onto a
// durable queue; a downstream communications worker fans them out.
type AMQPSink struct {
	client *infra.RabbitClient
	queue  string
}

func NewAMQPSink(client *infra.RabbitClient, queue string) (*AMQPSink, error) {
	if err := client.DeclareQueue(queue); err != nil {
		return nil, err
	}
	return &AMQPSink{client: client, queue: queue}, nil
}

func (s *AMQPSink) Deliver(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, s.queue, body)
}

// LogSink writes notifications to the process log.
type LogSink struct{}

func (LogSink) Deliver(ctx context.Context, e Event) error {
	log.Printf("notify [%s] to %v: %s / %s", e.Category, e.UserIDs, e.Title, e.Message)
	return nil
}
