package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWithoutDSNIsNoop(t *testing.T) {
	flush, err := Init(Config{})
	require.NoError(t, err)
	require.NotNil(t, flush)
	assert.NotPanics(t, flush)
}

func TestCaptureErrorWithoutClientDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		CaptureError(context.Background(), errors.New("boom"), map[string]string{"route": "/message"})
		CaptureError(context.Background(), nil, nil)
	})
}
