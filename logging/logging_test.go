package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/dasdy/turismo/logging"
	"github.com/stretchr/testify/assert"
)

func TestContextHandler(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(logging.ContextHandler{Handler: slog.NewTextHandler(&buf, nil)})

	ctx := logging.SessionCtx(logging.PackageCtx("routes"), "abc")
	logger.InfoContext(ctx, "Handling request")

	out := buf.String()
	assert.Contains(t, out, "package=routes")
	assert.Contains(t, out, "session=abc")
}

func TestAppendCtxDoesNotLeakBetweenSiblings(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(logging.ContextHandler{Handler: slog.NewTextHandler(&buf, nil)}).With("component", "test")

	base := logging.PackageCtx("web")
	first := logging.SessionCtx(base, "one")
	_ = logging.SessionCtx(base, "two")

	logger.InfoContext(first, "first")

	out := buf.String()
	assert.Contains(t, out, "session=one")
	assert.NotContains(t, out, "session=two")
	assert.Contains(t, out, "component=test")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := logging.NewLogger(&buf, false)
	logger.DebugContext(context.Background(), "hidden")
	logger.InfoContext(logging.PackageCtx("cmd"), "shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
