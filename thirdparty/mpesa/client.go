package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/muhammadheryan/event-ticket/cmd/config"
	"github.com/muhammadheryan/event-ticket/utils/logger"
	"github.com/muhammadheryan/event-ticket/utils/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// tokenRefreshMargin renews the token this long before the gateway expires it.
	tokenRefreshMargin = time.Minute
	defaultTokenTTL    = 3599 * time.Second
	defaultBackoff     = 500 * time.Millisecond
	maxBodyBytes       = 1 << 20
)

// Gateway is the set of Daraja operations used by the payment flow.
type Gateway interface {
	GetAccessToken(ctx context.Context) (string, error)
	InitiatePush(ctx context.Context, phoneNumber string, amount decimal.Decimal) (*PushResult, error)
	QueryStatus(ctx context.Context, password, checkoutRequestID, timestamp string) (*QueryResult, error)
	Credentials(now time.Time) (password, timestamp string)
}

type Client struct {
	cfg     config.MpesaConfig
	loc     *time.Location
	hc      *http.Client
	now     func() time.Time
	backoff time.Duration

	// mu guards the cached token and is held across a refresh so concurrent
	// callers wait for a single fetch.
	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

type Option func(*Client)

// WithHTTPClient replaces the default client, whose timeout comes from config.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithClock sets the time source used for token expiry and timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithBackoff sets the first delay between token retries; it doubles per attempt.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

func NewClient(cfg config.MpesaConfig, opts ...Option) (*Client, error) {
	loc := time.UTC
	if cfg.TimestampLocation != "" {
		l, err := time.LoadLocation(cfg.TimestampLocation)
		if err != nil {
			return nil, fmt.Errorf("mpesa: load location %q: %w", cfg.TimestampLocation, err)
		}
		loc = l
	}

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c := &Client{
		cfg:     cfg,
		loc:     loc,
		hc:      &http.Client{Timeout: timeout},
		now:     time.Now,
		backoff: defaultBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Credentials derives the password and timestamp for a push or query made at now.
func (c *Client) Credentials(now time.Time) (string, string) {
	timestamp := now.In(c.loc).Format(TimestampLayout)
	password := base64.StdEncoding.EncodeToString([]byte(c.cfg.ShortCode + c.cfg.Passkey + timestamp))
	return password, timestamp
}

// GetAccessToken returns the cached bearer token, fetching a new one when it is
// missing or about to expire.
func (c *Client) GetAccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expiresAt) {
		return c.token, nil
	}

	start := time.Now()
	token, ttl, err := c.fetchTokenWithRetry(ctx)
	metrics.TrackGatewayCall("oauth", err, time.Since(start))
	if err != nil {
		return "", err
	}

	c.token = token
	c.expiresAt = c.now().Add(ttl - tokenRefreshMargin)
	return token, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.expiresAt = time.Time{}
}

func (c *Client) fetchTokenWithRetry(ctx context.Context) (string, time.Duration, error) {
	retries := c.cfg.TokenRetries
	if retries < 0 {
		retries = 0
	}

	backOff := c.backoff
	for attempt := 0; ; attempt++ {
		token, ttl, err := c.fetchToken(ctx)
		if err == nil {
			return token, ttl, nil
		}

		var authErr *GatewayAuthError
		if attempt >= retries || !errors.As(err, &authErr) || !authErr.retryable() {
			return "", 0, err
		}

		logger.Warn("[mpesa.GetAccessToken] retrying", zap.Int("attempt", attempt+1), zap.Error(err))
		select {
		case <-ctx.Done():
			return "", 0, &GatewayAuthError{Err: ctx.Err()}
		case <-time.After(backOff):
			backOff *= 2
		}
	}
}

func (c *Client) fetchToken(ctx context.Context) (string, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.OAuthURL, nil)
	if err != nil {
		return "", 0, &GatewayAuthError{Err: err}
	}
	auth := base64.StdEncoding.EncodeToString([]byte(c.cfg.ConsumerKey + ":" + c.cfg.ConsumerSecret))
	req.Header.Set("Authorization", "Basic "+auth)

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", 0, &GatewayAuthError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", 0, &GatewayAuthError{StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", 0, &GatewayAuthError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var reply tokenResponse
	if err := json.Unmarshal(body, &reply); err != nil {
		return "", 0, &GatewayAuthError{StatusCode: resp.StatusCode, Body: string(body), Err: err}
	}
	if reply.AccessToken == "" {
		return "", 0, &GatewayAuthError{StatusCode: resp.StatusCode, Body: string(body), Err: errors.New("missing access_token")}
	}

	ttl := defaultTokenTTL
	if secs, err := reply.ExpiresIn.Int64(); err == nil && secs > 0 {
		ttl = time.Duration(secs) * time.Second
	}
	return reply.AccessToken, ttl, nil
}

// InitiatePush sends an STK push prompt to phoneNumber for amount, which must be
// a whole number of shillings.
func (c *Client) InitiatePush(ctx context.Context, phoneNumber string, amount decimal.Decimal) (*PushResult, error) {
	token, err := c.GetAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	password, timestamp := c.Credentials(c.now())
	phone := NormalizePhone(phoneNumber)
	payload := stkPushRequest{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   transactionTypePayBill,
		Amount:            amount.IntPart(),
		PartyA:            phone,
		PartyB:            c.cfg.ShortCode,
		PhoneNumber:       phone,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  c.cfg.AccountReference,
		TransactionDesc:   c.cfg.TransactionDesc,
	}

	start := time.Now()
	body, err := c.post(ctx, "stkpush", c.cfg.OnlineEndpoint, token, payload)
	metrics.TrackGatewayCall("stkpush", err, time.Since(start))
	if err != nil {
		return nil, err
	}

	var ack PushAck
	if err := json.Unmarshal(body, &ack); err != nil {
		return nil, &GatewayRequestError{Operation: "stkpush", StatusCode: http.StatusOK, Body: string(body), Err: err}
	}
	if ack.CheckoutRequestID == "" {
		return nil, &GatewayRequestError{Operation: "stkpush", StatusCode: http.StatusOK, Body: string(body), Err: errors.New("missing CheckoutRequestID")}
	}

	return &PushResult{PushAck: ack, Password: password, Timestamp: timestamp}, nil
}

// QueryStatus asks the gateway for the outcome of a checkout request using the
// given credentials.
func (c *Client) QueryStatus(ctx context.Context, password, checkoutRequestID, timestamp string) (*QueryResult, error) {
	token, err := c.GetAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	payload := stkQueryRequest{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          password,
		Timestamp:         timestamp,
		CheckoutRequestID: checkoutRequestID,
	}

	start := time.Now()
	body, err := c.post(ctx, "stkpushquery", c.cfg.QueryEndpoint, token, payload)
	metrics.TrackGatewayCall("stkpushquery", err, time.Since(start))
	if err != nil {
		return nil, err
	}

	result := &QueryResult{Raw: json.RawMessage(body)}
	if err := json.Unmarshal(body, &result.Response); err != nil {
		return nil, &GatewayRequestError{Operation: "stkpushquery", StatusCode: http.StatusOK, Body: string(body), Err: err}
	}
	return result, nil
}

func (c *Client) post(ctx context.Context, op, url, token string, payload interface{}) ([]byte, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, &GatewayRequestError{Operation: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return nil, &GatewayRequestError{Operation: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, &GatewayRequestError{Operation: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &GatewayRequestError{Operation: op, StatusCode: resp.StatusCode, Err: err}
	}

	// a rejected token is dropped so the next call fetches a fresh one
	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidateToken()
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &GatewayRequestError{Operation: op, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// NormalizePhone converts 07XXXXXXXX and +2547XXXXXXXX to the 2547XXXXXXXX form
// the gateway expects.
func NormalizePhone(phone string) string {
	phone = strings.TrimPrefix(strings.TrimSpace(phone), "+")
	if len(phone) == 10 && strings.HasPrefix(phone, "0") {
		return "254" + phone[1:]
	}
	return phone
}
