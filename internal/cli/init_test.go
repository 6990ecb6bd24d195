package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fintrack/internal/log"
)

func TestRunCleanupWaitsForCompletion(t *testing.T) {
	logger := SetupLogger("error", log.ComponentApp)
	ran := false

	RunCleanup(logger, time.Second, func() { ran = true })

	assert.True(t, ran)
}

func TestRunCleanupGivesUpAfterTimeout(t *testing.T) {
	logger := SetupLogger("error", log.ComponentApp)
	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	RunCleanup(logger, 20*time.Millisecond, func() { <-release })

	assert.Less(t, time.Since(start), time.Second)
}

func TestSignalContextCancel(t *testing.T) {
	logger := SetupLogger("error", log.ComponentApp)
	ctx, cancel := SignalContext(logger)
	cancel()

	select {
	case <-ctx.Done():
		assert.ErrorIs(t, ctx.Err(), context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("context not cancelled")
	}
}
