package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryBackoff_DoublesAndCaps(t *testing.T) {
	bo := newRetryBackoff()

	want := []time.Duration{
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		1600 * time.Millisecond,
		3200 * time.Millisecond,
		5 * time.Second,
		5 * time.Second,
	}
	for i, w := range want {
		assert.Equal(t, w, bo.NextBackOff(), "attempt %d", i+1)
	}
}

func TestRetryBackoff_Reset(t *testing.T) {
	bo := newRetryBackoff()
	bo.NextBackOff()
	bo.NextBackOff()

	bo.Reset()

	assert.Equal(t, 200*time.Millisecond, bo.NextBackOff())
}

func TestSleepWithContext_Completes(t *testing.T) {
	ctx := context.Background()
	assert.True(t, sleepWithContext(ctx, 1*time.Millisecond))
}

func TestSleepWithContext_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleepWithContext(ctx, 1*time.Second))
}

func TestSleepWithContext_ZeroDuration(t *testing.T) {
	ctx := context.Background()
	assert.True(t, sleepWithContext(ctx, 0))
}
