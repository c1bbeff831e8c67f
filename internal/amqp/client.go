package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = c.channel.QueueBind(
		c.queueName,    // queue name
		c.queueName,    // routing key (same as queue name for direct exchange)
		c.exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishSpendingSaved publishes a spending saved event.
func (c *Client) PublishSpendingSaved(ctx context.Context, users int, totalCost float64) error {
	msg := NewSpendingSavedMessage(users, totalCost)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, TypeSpendingSaved, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published spending saved message",
		"users", users,
		"total_cost", totalCost,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// PublishSpendingReset publishes a spending reset event.
func (c *Client) PublishSpendingReset(ctx context.Context, existed bool) error {
	msg := NewSpendingResetMessage(existed)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, TypeSpendingReset, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published spending reset message",
		"existed", existed,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

func (c *Client) publish(ctx context.Context, msgType string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Type:         msgType,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// ConsumeMessages consumes spending events and dispatches them by the
// message Type property. It blocks until ctx is cancelled.
func (c *Client) ConsumeMessages(
	ctx context.Context,
	savedHandler func(context.Context, *SpendingSavedMessage) error,
	resetHandler func(context.Context, *SpendingResetMessage) error,
) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming spending messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			err := c.dispatch(ctx, delivery, savedHandler, resetHandler)
			switch {
			case errors.Is(err, errDropMessage):
				slog.ErrorContext(ctx, "Dropping undecodable message",
					"error", err, "type", delivery.Type)
				delivery.Nack(false, false) // reject, don't requeue
			case err != nil:
				slog.ErrorContext(ctx, "Failed to handle message",
					"error", err, "type", delivery.Type)
				delivery.Nack(false, true) // reject and requeue
			default:
				delivery.Ack(false)
			}
		}
	}
}

func (c *Client) dispatch(
	ctx context.Context,
	delivery amqp091.Delivery,
	savedHandler func(context.Context, *SpendingSavedMessage) error,
	resetHandler func(context.Context, *SpendingResetMessage) error,
) error {
	switch delivery.Type {
	case TypeSpendingSaved:
		msg, err := SpendingSavedMessageFromJSON(delivery.Body)
		if err != nil {
			return fmt.Errorf("%w: %v", errDropMessage, err)
		}
		return savedHandler(ctx, msg)
	case TypeSpendingReset:
		msg, err := SpendingResetMessageFromJSON(delivery.Body)
		if err != nil {
			return fmt.Errorf("%w: %v", errDropMessage, err)
		}
		return resetHandler(ctx, msg)
	default:
		return fmt.Errorf("%w: unknown type %q", errDropMessage, delivery.Type)
	}
}

// errDropMessage marks deliveries that must not be requeued.
var errDropMessage = errors.New("drop message")

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
