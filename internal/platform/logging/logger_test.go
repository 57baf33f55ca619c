package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_WritesKeyValueFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewJSONTo(&buf, LevelInfo).Component("backfill")
	logger.Info("task completed", "competition_id", 2021, "error", errors.New("boom"))
	logger.Debug("dropped below level")

	out := buf.String()
	require.Equal(t, 1, strings.Count(out, "\n"))
	assert.Contains(t, out, `"component":"backfill"`)
	assert.Contains(t, out, `"competition_id":2021`)
	assert.Contains(t, out, `"error":"boom"`)
}

func TestLogger_OddArgsDoNotPanic(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewJSONTo(&buf, LevelInfo).Warn("odd", "dangling")
	assert.Contains(t, buf.String(), `"dangling":null`)
}

func TestLogger_TeeWritesBothCores(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	core, observed := observer.New(LevelWarn)
	logger := NewJSONTo(&buf, LevelInfo).Tee(core).Component("poller")

	logger.Info("cycle finished")
	logger.Warn("quota low", "remaining", 3)

	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "quota low", entries[0].Message)
	assert.EqualValues(t, 3, entries[0].ContextMap()["remaining"])
	assert.Equal(t, "poller", entries[0].ContextMap()["component"])
}

func TestMaskSecret(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":                 "",
		"short":            "*****",
		"abcd1234efgh5678": "abcd...5678",
	}
	for in, want := range cases {
		assert.Equal(t, want, MaskSecret(in), "input %q", in)
	}
}
