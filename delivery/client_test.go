package delivery_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timothy-choi/HookHub/delivery"
	"github.com/timothy-choi/HookHub/hook"
)

func TestDeliverSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "HookHub-DeliveryWorker/1.0", r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := delivery.New(delivery.DefaultConfig())
	result := client.Deliver(context.Background(), hook.Webhook{URL: srv.URL}, []byte(`{"a":1}`))

	require.True(t, result.Success)
	assert.False(t, result.Retryable)
	assert.Equal(t, http.StatusOK, result.StatusCode)
}

func TestDeliverServerErrorIsRetryableWithRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := delivery.New(delivery.DefaultConfig())
	result := client.Deliver(context.Background(), hook.Webhook{URL: srv.URL}, nil)

	require.False(t, result.Success)
	assert.True(t, result.Retryable)
	assert.Equal(t, 500, result.StatusCode)
	require.NotNil(t, result.RetryAfterSeconds)
	assert.Equal(t, 7, *result.RetryAfterSeconds)
}

func TestDeliverRateLimitedIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := delivery.New(delivery.DefaultConfig())
	result := client.Deliver(context.Background(), hook.Webhook{URL: srv.URL}, nil)

	require.False(t, result.Success)
	assert.True(t, result.Retryable)
	assert.Equal(t, 429, result.StatusCode)
	require.NotNil(t, result.RetryAfterSeconds)
	assert.Equal(t, 3, *result.RetryAfterSeconds)
}

func TestDeliverClientErrorIsNotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := delivery.New(delivery.DefaultConfig())
	result := client.Deliver(context.Background(), hook.Webhook{URL: srv.URL}, nil)

	require.False(t, result.Success)
	assert.False(t, result.Retryable)
	assert.Equal(t, 404, result.StatusCode)
}

func TestDeliverTransportFailureIsRetryable(t *testing.T) {
	client := delivery.New(delivery.DefaultConfig())
	result := client.Deliver(context.Background(), hook.Webhook{URL: "http://127.0.0.1:1"}, nil)

	require.False(t, result.Success)
	assert.True(t, result.Retryable)
	assert.Equal(t, 0, result.StatusCode)
	assert.NotEmpty(t, result.ErrorMessage)
}

func TestDeliverIgnoresRetryAfterWhenNotInteger(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "Wed, 21 Oct 2015 07:28:00 GMT")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := delivery.New(delivery.DefaultConfig())
	result := client.Deliver(context.Background(), hook.Webhook{URL: srv.URL}, nil)

	assert.True(t, result.Retryable)
	assert.Nil(t, result.RetryAfterSeconds)
}
