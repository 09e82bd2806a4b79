package retry_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/timothy-choi/HookHub/retry"
)

func TestShouldRetry(t *testing.T) {
	p := retry.Policy{MaxRetries: 5}

	assert.True(t, p.ShouldRetry(0))
	assert.True(t, p.ShouldRetry(4))
	assert.False(t, p.ShouldRetry(5))
	assert.False(t, p.ShouldRetry(6))
}

func TestCalculateDelayBoundedByCapAndTwiceCap(t *testing.T) {
	p := retry.Policy{BaseDelay: time.Second, MaxDelay: 60 * time.Second, MaxRetries: 5}

	cases := []struct {
		retryCount int
		wantCap    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{10, 60 * time.Second}, // capped at maxDelay
	}

	for _, c := range cases {
		for i := 0; i < 50; i++ {
			delay := p.CalculateDelay(c.retryCount)
			assert.GreaterOrEqualf(t, delay, c.wantCap, "retryCount=%d", c.retryCount)
			assert.LessOrEqualf(t, delay, 2*c.wantCap, "retryCount=%d", c.retryCount)
		}
	}
}

func TestCalculateDelayAfterHonoursRetryAfter(t *testing.T) {
	p := retry.DefaultPolicy()
	retryAfter := 7

	delay := p.CalculateDelayAfter(0, &retryAfter)

	assert.Equal(t, 7*time.Second, delay)
}

func TestCalculateDelayAfterRespectsBaseDelayFloor(t *testing.T) {
	p := retry.Policy{BaseDelay: 2 * time.Second, MaxDelay: 60 * time.Second}
	retryAfter := 1

	delay := p.CalculateDelayAfter(0, &retryAfter)

	assert.Equal(t, 2*time.Second, delay)
}

func TestCalculateDelayAfterFallsBackWithoutRetryAfter(t *testing.T) {
	p := retry.Policy{BaseDelay: time.Second, MaxDelay: 60 * time.Second}

	delay := p.CalculateDelayAfter(0, nil)

	assert.GreaterOrEqual(t, delay, time.Second)
	assert.LessOrEqual(t, delay, 2*time.Second)
}

func TestCalculateDelayAfterIgnoresNonPositiveRetryAfter(t *testing.T) {
	p := retry.Policy{BaseDelay: time.Second, MaxDelay: 60 * time.Second}
	zero := 0

	delay := p.CalculateDelayAfter(0, &zero)

	assert.GreaterOrEqual(t, delay, time.Second)
	assert.LessOrEqual(t, delay, 2*time.Second)
}
