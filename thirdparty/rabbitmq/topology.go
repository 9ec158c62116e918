package rabbitmq

import "github.com/rabbitmq/amqp091-go"

const (
	reconcileExchange   = "payment_reconcile_exchange"
	reconcileQueue      = "payment_reconcile_queue"
	reconcileRoutingKey = "payment_reconcile"
)

// declareTopology declares the delayed exchange, its queue and the binding.
// It is idempotent and shared by publisher and consumer.
func declareTopology(channel *amqp091.Channel) error {
	err := channel.ExchangeDeclare(
		reconcileExchange,   // name
		"x-delayed-message", // type
		true,                // durable
		false,               // auto-delete
		false,               // internal
		false,               // no-wait
		amqp091.Table{"x-delayed-type": "direct"},
	)
	if err != nil {
		return err
	}

	_, err = channel.QueueDeclare(
		reconcileQueue, // name
		true,           // durable
		false,          // auto-delete
		false,          // exclusive
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return err
	}

	return channel.QueueBind(reconcileQueue, reconcileRoutingKey, reconcileExchange, false, nil)
}

func dial(host string, port int, user, password string) (*amqp091.Connection, *amqp091.Channel, error) {
	conn, err := amqp091.Dial(dsn(host, port, user, password))
	if err != nil {
		return nil, nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, err
	}

	if err := declareTopology(channel); err != nil {
		channel.Close()
		conn.Close()
		return nil, nil, err
	}
	return conn, channel, nil
}
