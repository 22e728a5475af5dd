package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.String())
	assert.Equal(t, "INFO", LogLevelInfo.String())
	assert.Equal(t, "WARN", LogLevelWarn.String())
	assert.Equal(t, "ERROR", LogLevelError.String())
	assert.Equal(t, "UNKNOWN", LogLevel(99).String())
}

func TestEngineLoggerContextualAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LogLevelDebug, Format: "json", Output: &buf})

	scoped := logger.WithComponent("executor").WithGoal("goal-1", "plan-1").WithContext("wave", 2)
	scoped.Info("test message", "task_id", "task-1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "test message", entry["msg"])
	assert.Equal(t, "executor", entry["component"])
	assert.Equal(t, "goal-1", entry["goal_id"])
	assert.Equal(t, "plan-1", entry["plan_id"])
	assert.Equal(t, "task-1", entry["task_id"])

	// The original logger must not have been mutated by the With* chain.
	assert.Empty(t, logger.component)
	assert.Empty(t, logger.goalID)
}

func TestEngineLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LogLevelWarn, Format: "text", Output: &buf})

	logger.Debug("hidden")
	logger.Info("hidden too")
	logger.Warn("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
}

func TestLogCapabilityCall(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "json", Output: &buf})

	logger.LogCapabilityCall("filesystem.read", 25*time.Millisecond, true, nil)

	out := buf.String()
	assert.Contains(t, out, "Capability invocation completed")
	assert.Contains(t, out, "filesystem.read")
	assert.True(t, strings.Contains(out, `"success":true`))
}

func TestNoOpLoggerImplementsLogger(t *testing.T) {
	var _ Logger = NoOpLogger{}
	var _ Logger = NewDefaultSlogLogger()
}
