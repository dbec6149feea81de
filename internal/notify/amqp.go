package notify

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"silent-auction/utils"
)

// OutbidQueue is the queue outbid events are published to. A downstream
// worker turns them into emails/SMS.
const OutbidQueue = "bid.outbid"

// AMQPNotifier publishes outbid events to RabbitMQ. A fresh connection per
// event keeps the implementation robust against broker restarts; volume on
// this path is a handful of messages per minute at peak.
type AMQPNotifier struct {
	url string
}

// NewAMQPNotifier creates a notifier publishing to the broker at url
func NewAMQPNotifier(url string) *AMQPNotifier {
	return &AMQPNotifier{url: url}
}

// NotifyOutbid publishes the event to the outbid queue. Errors are logged and
// returned; callers on the bidding path ignore them.
func (n *AMQPNotifier) NotifyOutbid(ctx context.Context, event OutbidEvent) error {
	conn, err := amqp.Dial(n.url)
	if err != nil {
		utils.Error("rabbitmq: dial failed", map[string]any{"error": err.Error()})
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		utils.Error("rabbitmq: channel open failed", map[string]any{"error": err.Error()})
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(OutbidQueue, true, false, false, false, nil); err != nil {
		utils.Error("rabbitmq: queue declare failed", map[string]any{"error": err.Error()})
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		utils.Error("rabbitmq: marshal event failed", map[string]any{"error": err.Error()})
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", OutbidQueue, false, false, pub); err != nil {
		utils.Error("rabbitmq: publish failed", map[string]any{"error": err.Error()})
		return err
	}
	return nil
}
