package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_JSONOutsideDevMode(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", false)
	log.Info("server starting", "port", "8080")
	log.Debug("hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "output must be a single JSON line: %s", buf.String())
	assert.Equal(t, "server starting", entry["msg"])
	assert.Equal(t, "8080", entry["port"])
}

func TestNewWithWriter_TextInDevMode(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug", true)
	log.Debug("otp issued", "email", "a***@x.com")
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "msg=\"otp issued\"")
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "a***@x.com", MaskEmail("alice@x.com"))
	assert.Equal(t, "****", MaskEmail("not-an-email"))
	assert.Equal(t, "****", MaskEmail("@x.com"))
}

func TestMaskMobile(t *testing.T) {
	assert.Equal(t, "98******10", MaskMobile("9876543210"))
	assert.Equal(t, "****", MaskMobile("123"))
}
