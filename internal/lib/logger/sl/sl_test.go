package sl_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/UnknownOlympus/athena/internal/lib/logger/sl"
)

func TestErr(t *testing.T) {
	t.Parallel()

	var logBuf bytes.Buffer // buffer for log capturing
	testLogger := slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{}))

	errAttr := sl.Err(assert.AnError)
	testLogger.Warn("expected result:", errAttr)

	assert.Contains(t, logBuf.String(), assert.AnError.Error())
	assert.Equal(t, "", sl.Err(nil).Value.String())
}

func TestTrace(t *testing.T) {
	t.Parallel()

	attr := sl.Trace(errors.New("boom"))

	assert.Equal(t, "trace", attr.Key)
	assert.Contains(t, attr.Value.String(), "boom")
	assert.Contains(t, attr.Value.String(), "sl_test.TestTrace")
}
