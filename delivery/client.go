// Package delivery performs a single HTTP delivery attempt and normalises
// the outcome into a DeliveryResult (spec.md §4.2). It never mutates
// hook.Webhook or hook.Event state; the worker owns all state transitions.
package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/timothy-choi/HookHub/hook"
)

const userAgent = "HookHub-DeliveryWorker/1.0"

// Config tunes the underlying HTTP client's timeouts.
type Config struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// DefaultConfig mirrors spec.md §4.2's defaults: 5s connect, 10s read.
func DefaultConfig() Config {
	return Config{ConnectTimeout: 5 * time.Second, ReadTimeout: 10 * time.Second}
}

// Result is a DeliveryResult: a sum type over success, retryable failure,
// non-retryable failure and transport failure, expressed as an explicit
// tagged struct per spec.md §9's "checked/unchecked exception control flow
// becomes an explicit tagged result."
type Result struct {
	Success           bool
	Retryable         bool
	StatusCode        int
	ResponseBody      string
	ErrorMessage      string
	RetryAfterSeconds *int
}

// Client performs one HTTP POST attempt against a webhook's target URL.
type Client struct {
	httpClient *http.Client
}

// New creates a delivery Client honouring the given timeouts.
func New(cfg Config) *Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext,
	}
	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.ConnectTimeout + cfg.ReadTimeout,
		},
	}
}

// Deliver issues one HTTP POST of payload to webhook.URL and maps the
// outcome onto Result per spec.md §4.2's table.
func (c *Client) Deliver(ctx context.Context, wh hook.Webhook, payload []byte) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wh.URL, bytes.NewReader(payload))
	if err != nil {
		return Result{Retryable: true, ErrorMessage: fmt.Sprintf("building request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportFailure(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	statusCode := resp.StatusCode

	switch {
	case statusCode >= 200 && statusCode < 300:
		return Result{Success: true, StatusCode: statusCode, ResponseBody: string(body)}

	case statusCode == 429:
		return Result{
			Retryable:         true,
			StatusCode:        statusCode,
			ResponseBody:      string(body),
			ErrorMessage:      fmt.Sprintf("rate limited: %d", statusCode),
			RetryAfterSeconds: parseRetryAfter(resp.Header.Get("Retry-After")),
		}

	case statusCode >= 500 && statusCode < 600:
		return Result{
			Retryable:         true,
			StatusCode:        statusCode,
			ResponseBody:      string(body),
			ErrorMessage:      fmt.Sprintf("server error: %d", statusCode),
			RetryAfterSeconds: parseRetryAfter(resp.Header.Get("Retry-After")),
		}

	case statusCode >= 400 && statusCode < 500:
		return Result{
			Retryable:    false,
			StatusCode:   statusCode,
			ResponseBody: string(body),
			ErrorMessage: fmt.Sprintf("client error: %d", statusCode),
		}

	default:
		return Result{
			Retryable:    true,
			StatusCode:   statusCode,
			ResponseBody: string(body),
			ErrorMessage: fmt.Sprintf("unexpected status: %d", statusCode),
		}
	}
}

func transportFailure(err error) Result {
	msg := err.Error()
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		msg = "timeout: " + msg
	}
	return Result{Retryable: true, StatusCode: 0, ErrorMessage: msg}
}

// parseRetryAfter extracts the seconds-integer form of Retry-After.
// HTTP-date form is acknowledged by spec.md §4.2/§9 but not required.
func parseRetryAfter(value string) *int {
	if value == "" {
		return nil
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return nil
	}
	return &seconds
}
