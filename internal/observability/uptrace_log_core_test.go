package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestShouldSkipUptraceLog(t *testing.T) {
	t.Parallel()

	assert.True(t, shouldSkipUptraceLog("http request", map[string]any{"path": "/healthz"}))
	assert.True(t, shouldSkipUptraceLog("http request", map[string]any{"path": "/metrics"}))
	assert.False(t, shouldSkipUptraceLog("http request", map[string]any{"path": "/v1/progress"}))
	assert.False(t, shouldSkipUptraceLog("poll cycle finished", map[string]any{"path": "/healthz"}))
}

func TestBuildOTelLogAttributes_SortedWithEmpty(t *testing.T) {
	t.Parallel()

	attrs := buildOTelLogAttributes(map[string]any{
		"task_type":      "football_data",
		"competition_id": int64(2021),
		"payload":        nil,
	})
	require.Len(t, attrs, 3)
	assert.Equal(t, "competition_id", attrs[0].Key)
	assert.Equal(t, int64(2021), attrs[0].Value.AsInt64())
	assert.Equal(t, "payload", attrs[1].Key)
	assert.Equal(t, otellog.KindEmpty, attrs[1].Value.Kind())
	assert.Equal(t, "football_data", attrs[2].Value.AsString())
}

func TestToOTelLogValue_Map(t *testing.T) {
	t.Parallel()

	v := toOTelLogValue(map[string]any{"changed": 11, "triggered": true}, 0)
	require.Equal(t, otellog.KindMap, v.Kind())
	assert.Len(t, v.AsMap(), 2)
}

func TestUptraceLogCore_RespectsLevelAndFields(t *testing.T) {
	t.Parallel()

	core := newUptraceLogCore("test", zapcore.WarnLevel)
	assert.False(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.ErrorLevel))

	child := core.With([]zapcore.Field{zap.String("component", "backfill")}).(*uptraceLogCore)
	require.Len(t, child.fields, 1)
	assert.Empty(t, core.(*uptraceLogCore).fields)
	require.NoError(t, child.Write(zapcore.Entry{Level: zapcore.ErrorLevel, Message: "task failed"}, nil))
}
