// Package events publishes storefront lifecycle events to an AMQP broker
// so inventory, email and analytics consumers can react without coupling
// to the web process.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"
)

// Event types emitted by the storefront.
const (
	TypeCartCreated         = "cart.created"
	TypeCartUpdated         = "cart.updated"
	TypeCheckoutStarted     = "checkout.started"
	TypeDeploymentCompleted = "deployment.completed"
)

// QueueName is the durable queue all storefront events land on.
const QueueName = "storefront_events"

// Event is the wire envelope for one storefront event.
type Event struct {
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// New builds an event stamped with the current time.
func New(eventType string, payload map[string]any) Event {
	return Event{
		Type:       eventType,
		OccurredAt: time.Now(),
		Payload:    payload,
	}
}

// Client holds the AMQP connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *zap.Logger
}

// NewClient connects to the broker and declares the storefront queue.
func NewClient(url string, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to AMQP broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		QueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s: %w", QueueName, err)
	}

	logger.Info("event broker connected", zap.String("queue", QueueName))
	return &Client{conn: conn, channel: ch, logger: logger}, nil
}

// Close closes the channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing event client: %v", errs)
	}
	return nil
}

// Publish sends one event to the storefront queue as persistent JSON.
func (c *Client) Publish(event Event) error {
	if c == nil || c.channel == nil {
		return fmt.Errorf("event channel is not available")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = c.channel.Publish(
		"",        // default exchange
		QueueName, // routing key
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
			Type:         event.Type,
		})
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	c.logger.Debug("published event", zap.String("type", event.Type))
	return nil
}

// Consume delivers queued events to handler on a background goroutine.
// Handler errors nack the message back onto the queue.
func (c *Client) Consume(handler func(Event) error) error {
	if c.channel == nil {
		return fmt.Errorf("event channel is not available")
	}

	msgs, err := c.channel.Consume(
		QueueName,
		"",    // consumer tag
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			var event Event
			if err := json.Unmarshal(msg.Body, &event); err != nil {
				c.logger.Warn("dropping malformed event", zap.Error(err))
				msg.Nack(false, false)
				continue
			}
			if err := handler(event); err != nil {
				c.logger.Warn("event handler failed, requeueing",
					zap.String("type", event.Type), zap.Error(err))
				msg.Nack(false, true)
				continue
			}
			msg.Ack(false)
		}
	}()

	return nil
}
