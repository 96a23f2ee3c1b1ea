package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	t.Setenv("LOG_TIMESTAMP", "2026-01-01T00:00:00Z")
	var out, errOut bytes.Buffer
	SetOutput(&out, &errOut)
	t.Cleanup(func() {
		SetOutput(nil, nil)
		_ = SetPackageLogLevels(map[string]string{})
	})
	return &out, &errOut
}

func TestInitializeFallsBackToInfo(t *testing.T) {
	_, _ = captureOutput(t)
	require.NoError(t, Initialize("bogus"))
	assert.Equal(t, INFO, globalLogger.level)

	require.NoError(t, Initialize("debug"))
	assert.Equal(t, DEBUG, globalLogger.level)
	require.NoError(t, Initialize("info"))
}

func TestInitializeRejectsBadPackageLevel(t *testing.T) {
	_, _ = captureOutput(t)
	err := Initialize("info", map[string]string{"apiserver": "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apiserver")
}

func TestLevelsAndStreams(t *testing.T) {
	out, errOut := captureOutput(t)
	require.NoError(t, Initialize("info"))

	logger := GetLogger("apiserver")
	logger.Debug("hidden")
	logger.Info("listening on %d", 5000)
	logger.Error("boom")

	assert.Equal(t, "[2026-01-01T00:00:00Z] [INFO] apiserver: listening on 5000\n", out.String())
	assert.Equal(t, "[2026-01-01T00:00:00Z] [ERROR] apiserver: boom\n", errOut.String())
}

func TestFieldsAreSortedAndMerged(t *testing.T) {
	out, _ := captureOutput(t)
	require.NoError(t, Initialize("info"))

	logger := GetLogger("runner").WithField("session_id", "s1")
	logger.InfoWithFields("turn complete",
		Field("agent", "MultiToolAgent"),
		Field("session_id", "override"),
	)

	assert.Equal(t,
		"[2026-01-01T00:00:00Z] [INFO] runner: turn complete | agent=MultiToolAgent session_id=override\n",
		out.String())
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	parent := GetLogger("parent")
	child := parent.WithField("k", "v")
	assert.Empty(t, parent.fields)
	assert.Equal(t, "v", child.fields["k"])

	renamed := child.WithName("other")
	assert.Equal(t, "other", renamed.name)
	assert.Empty(t, renamed.fields)
}

func TestWithContextExplicitIDs(t *testing.T) {
	out, _ := captureOutput(t)
	require.NoError(t, Initialize("info"))

	ctx := context.WithValue(context.Background(), TraceIDKey(), "t-1")
	ctx = context.WithValue(ctx, SpanIDKey(), "s-1")
	GetLogger("ctx").WithContext(ctx).Info("hello")

	assert.Contains(t, out.String(), "span_id=s-1 trace_id=t-1")
}

func TestWithContextSpan(t *testing.T) {
	out, _ := captureOutput(t)
	require.NoError(t, Initialize("info"))

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	GetLogger("ctx").WithContext(ctx).Info("traced")
	assert.Contains(t, out.String(), "trace_id=4bf92f3577b34da6a3ce929d0e0e4736")
	assert.Contains(t, out.String(), "span_id=00f067aa0ba902b7")
}

func TestNilContextHasNoFields(t *testing.T) {
	assert.Nil(t, extractContextFields(nil))
	assert.Nil(t, extractContextFields(context.Background()))
}

func TestMatchesPattern(t *testing.T) {
	tests := []struct {
		name, pkg, pattern string
		want               bool
	}{
		{"exact", "agent.runner", "agent.runner", true},
		{"wildcard", "agent.runner", "agent.*", true},
		{"nested wildcard", "agent.model.mock", "agent.*", true},
		{"wildcard needs dot", "agentx", "agent.*", false},
		{"different", "apiserver", "agent", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchesPattern(tt.pkg, tt.pattern))
		})
	}
}

func TestPackageLevelPrecedence(t *testing.T) {
	_, _ = captureOutput(t)
	require.NoError(t, SetPackageLogLevels(map[string]string{
		"agent.*":       "warn",
		"agent.model.*": "debug",
		"agent.runner":  "error",
	}))

	assert.Equal(t, ERROR, GetPackageLogLevel("agent.runner"))
	assert.Equal(t, DEBUG, GetPackageLogLevel("agent.model.mock"))
	assert.Equal(t, WARN, GetPackageLogLevel("agent.catalog"))
	assert.Equal(t, LogLevel(-1), GetPackageLogLevel("apiserver"))
}

func TestPerPackageFiltering(t *testing.T) {
	out, _ := captureOutput(t)
	require.NoError(t, Initialize("info", map[string]string{"config": "debug", "apiserver": "warn"}))

	GetLogger("config").Debug("config debug")
	GetLogger("apiserver").Info("apiserver info")
	GetLogger("runner").Debug("runner debug")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "config debug")
}

func TestFatalExits(t *testing.T) {
	_, errOut := captureOutput(t)
	require.NoError(t, Initialize("info"))

	var code int
	prev := exitFunc
	exitFunc = func(c int) { code = c }
	t.Cleanup(func() { exitFunc = prev })

	GetLogger("main").Fatal("cannot continue")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut.String(), "[FATAL] main: cannot continue")
}

func TestErrorWithErr(t *testing.T) {
	_, errOut := captureOutput(t)
	require.NoError(t, Initialize("info"))

	GetLogger("main").ErrorWithErr("failed to start %s", assert.AnError, "server")
	assert.Contains(t, errOut.String(), "failed to start server - "+assert.AnError.Error())
}

func TestValidLevel(t *testing.T) {
	assert.True(t, ValidLevel("Debug"))
	assert.False(t, ValidLevel("verbose"))
	assert.Equal(t, "WARN", WARN.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}
