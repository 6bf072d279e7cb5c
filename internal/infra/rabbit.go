// README: RabbitMQ connection for the notification queue.
package infra

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

type RabbitClient struct {
	conn *amqp.Connection
	chn  *amqp.Channel
}

func NewRabbit(url string) (*RabbitClient, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	chn, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return &RabbitClient{conn: conn, chn: chn}, nil
}

func (r *RabbitClient) Close() error {
	if err := r.chn.Close(); err != nil {
		return err
	}
	return r.conn.Close()
}

func (r *RabbitClient) DeclareQueue(name string) error {
	_, err := r.chn.QueueDeclare(name, true, false, false, false, nil)
	return err
}

func (r *RabbitClient) Publish(ctx context.Context, queue string, body []byte) error {
	return r.chn.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}
