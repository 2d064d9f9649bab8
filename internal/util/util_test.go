package util

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger(t *testing.T) {
	t.Cleanup(func() { logger = nil })

	assert.NotNil(t, GetLogger())

	require.NoError(t, InitLogger("production", "warn"))
	assert.False(t, GetLogger().Core().Enabled(-1))

	assert.Error(t, InitLogger("development", "loud"))
}

func TestInitTracerWithoutExporter(t *testing.T) {
	tp, err := InitTracer(TracerConfig{Environment: "test", SampleRatio: 5})
	require.NoError(t, err)
	defer tp.Shutdown(context.Background())

	ctx, span := StartSpan(context.Background(), "test-span")
	assert.NotNil(t, ctx)
	assert.True(t, span.SpanContext().IsValid())

	boom := errors.New("boom")
	assert.Equal(t, boom, RecordSpanError(span, boom))
	assert.NoError(t, RecordSpanError(span, nil))
	span.End()
}
