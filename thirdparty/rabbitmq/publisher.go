package rabbitmq

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

type Publisher struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	now     func() time.Time
}

// PaymentReconcileMessage asks for a pending checkout request to be checked
// against the gateway once ReconcileAt has passed.
type PaymentReconcileMessage struct {
	CheckoutRequestID string    `json:"checkout_request_id"`
	ReconcileAt       time.Time `json:"reconcile_at"`
}

func NewPublisher(host string, port int, user, password string) (*Publisher, error) {
	conn, channel, err := dial(host, port, user, password)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn, channel: channel, now: time.Now}, nil
}

func (p *Publisher) PublishPaymentReconcile(msg PaymentReconcileMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return p.channel.Publish(
		reconcileExchange,   // exchange
		reconcileRoutingKey, // routing key
		false,               // mandatory
		false,               // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Body:         body,
			Headers: amqp091.Table{
				"x-delay": delayMillis(msg.ReconcileAt, p.now()),
			},
		},
	)
}

func (p *Publisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}

func delayMillis(at, now time.Time) int64 {
	delay := at.Sub(now).Milliseconds()
	if delay < 0 {
		return 0
	}
	return delay
}

func dsn(host string, port int, user, password string) string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(user, password),
		Host:   fmt.Sprintf("%s:%d", host, port),
		Path:   "/",
	}
	return u.String()
}
