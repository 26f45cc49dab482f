package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samirbha/settlement-gateway/pkg/logger"
	"github.com/valyala/fasthttp"
)

var (
	ErrEndpointSuspended = errors.New("webhook endpoint suspended by circuit breaker")
)

type WebhookConfig struct {
	Timeout                 time.Duration
	MaxRetries              int
	RetryDelay              time.Duration
	MaxConns                int
	ReadBufferSize          int
	WriteBufferSize         int
	CircuitBreakerThreshold int
	CircuitBreakerTimeout   time.Duration
}

func DefaultWebhookConfig() WebhookConfig {
	return WebhookConfig{
		Timeout:                 5 * time.Second,
		MaxRetries:              2,
		RetryDelay:              200 * time.Millisecond,
		MaxConns:                100,
		ReadBufferSize:          4096,
		WriteBufferSize:         4096,
		CircuitBreakerThreshold: 5,
		CircuitBreakerTimeout:   time.Minute,
	}
}

// endpointState tracks per-URL delivery health. Seller endpoints come
// and go at runtime, so states are created lazily.
type endpointState struct {
	consecutiveFails atomic.Int32
	suspendedUntil   atomic.Int64
}

func (e *endpointState) available() bool {
	until := e.suspendedUntil.Load()
	return until == 0 || time.Now().Unix() > until
}

// WebhookClient posts order events to seller endpoints. Endpoints that
// keep failing are suspended for a cool-down period so one dead seller
// cannot stall the whole delivery pipeline.
type WebhookClient struct {
	config WebhookConfig
	client *fasthttp.Client

	mu        sync.Mutex
	endpoints map[string]*endpointState
}

func NewWebhookClient(config WebhookConfig) *WebhookClient {
	return &WebhookClient{
		config: config,
		client: &fasthttp.Client{
			MaxConnsPerHost:     config.MaxConns,
			ReadTimeout:         config.Timeout,
			WriteTimeout:        config.Timeout,
			MaxIdleConnDuration: 60 * time.Second,
			ReadBufferSize:      config.ReadBufferSize,
			WriteBufferSize:     config.WriteBufferSize,
		},
		endpoints: make(map[string]*endpointState),
	}
}

func (c *WebhookClient) state(url string) *endpointState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.endpoints[url]
	if !ok {
		s = &endpointState{}
		c.endpoints[url] = s
	}
	return s
}

// Deliver posts the payload to the endpoint, retrying transient
// failures. A 2xx response counts as delivered.
func (c *WebhookClient) Deliver(ctx context.Context, url string, payload []byte) error {
	state := c.state(url)
	if !state.available() {
		return fmt.Errorf("%w: %s", ErrEndpointSuspended, url)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.config.RetryDelay):
			}
		}

		start := time.Now()
		err := c.doPost(ctx, url, payload)
		latency := time.Since(start).Milliseconds()

		if err != nil {
			state.consecutiveFails.Add(1)
			c.checkCircuitBreaker(url, state)
			logger.Warn("Webhook delivery attempt failed", "url", url, "attempt", attempt+1, "error", err)
			lastErr = err
			continue
		}

		state.consecutiveFails.Store(0)
		state.suspendedUntil.Store(0)
		logger.Info("Webhook delivered", "url", url, "latency_ms", latency)
		return nil
	}

	return fmt.Errorf("failed after %d attempts: %w", c.config.MaxRetries+1, lastErr)
}

func (c *WebhookClient) doPost(ctx context.Context, url string, payload []byte) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(payload)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.config.Timeout)
	}

	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	statusCode := resp.StatusCode()
	if statusCode < fasthttp.StatusOK || statusCode >= fasthttp.StatusMultipleChoices {
		return fmt.Errorf("unexpected status code: %d, body: %s", statusCode, resp.Body())
	}

	return nil
}

func (c *WebhookClient) checkCircuitBreaker(url string, state *endpointState) {
	fails := state.consecutiveFails.Load()
	if fails >= int32(c.config.CircuitBreakerThreshold) {
		until := time.Now().Add(c.config.CircuitBreakerTimeout).Unix()
		state.suspendedUntil.Store(until)
		logger.Warn("Webhook endpoint suspended",
			"url", url,
			"consecutive_fails", fails,
			"timeout", c.config.CircuitBreakerTimeout)
	}
}
