package events

import (
	"context"
	"encoding/json"
	"time"

	"cafe_pos_backend/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ordersExchange         = "orders_topic"
	orderCreatedRoutingKey = "order.created"
)

// OrderCreatedItem is one line of an order-created event. Downstream
// consumers (kitchen/bar printing) filter on PreparationLocation.
type OrderCreatedItem struct {
	ProductID           int64                      `json:"product_id"`
	ProductName         string                     `json:"product_name"`
	Quantity            int                        `json:"quantity"`
	UnitPrice           float64                    `json:"unit_price"`
	PreparationLocation models.PreparationLocation `json:"preparation_location"`
}

// OrderCreatedEvent is published after an order transaction commits.
type OrderCreatedEvent struct {
	OrderID     int64              `json:"order_id"`
	WaiterID    int64              `json:"waiter_id"`
	WaiterName  string             `json:"waiter_name,omitempty"`
	TableNumber *int               `json:"table_number,omitempty"`
	OrderType   models.OrderType   `json:"order_type"`
	TotalAmount float64            `json:"total_amount"`
	Items       []OrderCreatedItem `json:"items"`
	CreatedAt   time.Time          `json:"created_at"`
}

// Publisher delivers order events to downstream consumers. Publishing is
// best-effort and happens strictly after the order transaction commits; a
// failed publish never rolls back the order.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, event OrderCreatedEvent) error
	Close() error
}

// RabbitMQPublisher publishes order events to a durable topic exchange.
type RabbitMQPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// ConnectRabbitMQ dials the broker and declares the orders exchange.
func ConnectRabbitMQ(url string) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	err = channel.ExchangeDeclare(
		ordersExchange, // name
		"topic",        // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	return &RabbitMQPublisher{conn: conn, channel: channel}, nil
}

func (p *RabbitMQPublisher) PublishOrderCreated(ctx context.Context, event OrderCreatedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.channel.PublishWithContext(ctx,
		ordersExchange,         // exchange
		orderCreatedRoutingKey, // routing key
		false,                  // mandatory
		false,                  // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
		})
}

func (p *RabbitMQPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderCreated(ctx context.Context, event OrderCreatedEvent) error {
	return nil
}

func (NopPublisher) Close() error { return nil }
