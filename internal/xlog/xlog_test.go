package xlog_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mna/loxvm/internal/xlog"
	"github.com/stretchr/testify/assert"
)

func TestTraceWriterWritesAtDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := xlog.New(&buf, "debug")
	w := xlog.TraceWriter{Logger: logger, Component: "vm"}

	n, err := w.Write([]byte("OP_RETURN\n"))
	assert.NoError(t, err)
	assert.Equal(t, len("OP_RETURN\n"), n)
	assert.Contains(t, buf.String(), "OP_RETURN")
	assert.Contains(t, buf.String(), "component=vm")
}

func TestNewDefaultsToWarnOnUnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := xlog.New(&buf, "not-a-level")
	logger.Info("should be filtered out")
	logger.Warn("should appear")
	out := buf.String()
	assert.False(t, strings.Contains(out, "should be filtered out"))
	assert.Contains(t, out, "should appear")
}
