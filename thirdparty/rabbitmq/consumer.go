package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/muhammadheryan/event-ticket/utils/logger"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Consumer drains the reconcile queue and forwards each message to the API's
// internal reconcile endpoint.
type Consumer struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	apiURL  string
	apiKey  string
	hc      *http.Client
}

func NewConsumer(host string, port int, user, password, apiURL, apiKey string) (*Consumer, error) {
	conn, channel, err := dial(host, port, user, password)
	if err != nil {
		return nil, err
	}

	return &Consumer{
		conn:    conn,
		channel: channel,
		apiURL:  apiURL,
		apiKey:  apiKey,
		hc:      &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Start consumes until ctx is done or the channel closes. The returned channel
// is closed when the consume loop exits.
func (c *Consumer) Start(ctx context.Context) (<-chan struct{}, error) {
	// one message at a time
	if err := c.channel.Qos(1, 0, false); err != nil {
		return nil, err
	}

	msgs, err := c.channel.Consume(
		reconcileQueue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				c.handle(ctx, msg)
			}
		}
	}()

	return done, nil
}

func (c *Consumer) handle(ctx context.Context, msg amqp091.Delivery) {
	var reconcileMsg PaymentReconcileMessage
	if err := json.Unmarshal(msg.Body, &reconcileMsg); err != nil || reconcileMsg.CheckoutRequestID == "" {
		logger.Error("[Consumer] invalid reconcile message", zap.ByteString("body", msg.Body), zap.Error(err))
		_ = msg.Ack(false)
		return
	}

	if err := c.callReconcileAPI(ctx, reconcileMsg.CheckoutRequestID); err != nil {
		// requeue once, then give up; the callback or a manual verify can still settle it
		logger.Error("[Consumer] reconcile failed",
			zap.String("checkout_request_id", reconcileMsg.CheckoutRequestID),
			zap.Bool("redelivered", msg.Redelivered),
			zap.Error(err))
		_ = msg.Nack(false, !msg.Redelivered)
		return
	}

	_ = msg.Ack(false)
	logger.Info("[Consumer] reconciled payment", zap.String("checkout_request_id", reconcileMsg.CheckoutRequestID))
}

func (c *Consumer) callReconcileAPI(ctx context.Context, checkoutRequestID string) error {
	endpoint := fmt.Sprintf("%s/internal/v1/payment/%s/reconcile", c.apiURL, url.PathEscape(checkoutRequestID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Internal-Service", "payment-reconcile-consumer")

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	// 4xx means the request is unknown or already settled; retrying will not help
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

func (c *Consumer) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
	return nil
}
