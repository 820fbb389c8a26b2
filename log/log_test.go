package log

import (
	"bytes"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
)

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, InfoLevel)
	l.Debug("hidden")
	l.Info("visible", String("key", "value"))

	out := buf.String()
	assert.Assert(t, !strings.Contains(out, "hidden"))
	assert.Assert(t, strings.Contains(out, `"msg":"visible"`))
	assert.Assert(t, strings.Contains(out, `"key":"value"`))
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, WarnLevel)
	l.Info("before")
	l.SetLevel(DebugLevel)
	l.Named("child").Debug("after")

	out := buf.String()
	assert.Assert(t, !strings.Contains(out, "before"))
	assert.Assert(t, strings.Contains(out, `"logger":"child"`))
	assert.Equal(t, l.Level(), DebugLevel)
}

func TestWithFilter(t *testing.T) {
	opt, err := WithFilter("debug:iracing.* info:*")
	assert.NilError(t, err)

	var buf bytes.Buffer
	l := DevLogger(&buf, DebugLevel, opt)
	l.Named("iracing.client").Debug("client debug")
	l.Named("store").Debug("store debug")
	l.Named("store").Info("store info")

	out := buf.String()
	assert.Assert(t, strings.Contains(out, "client debug"))
	assert.Assert(t, !strings.Contains(out, "store debug"))
	assert.Assert(t, strings.Contains(out, "store info"))
}

func TestResetDefault(t *testing.T) {
	orig := Default()
	defer ResetDefault(orig)

	var buf bytes.Buffer
	ResetDefault(New(&buf, DebugLevel))
	Debug("via package func", Int("n", 3))
	assert.Assert(t, strings.Contains(buf.String(), `"n":3`))
}
