package logger

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	configure(l, &buf, "debug", true)

	l.WithField("seller_id", "42").Debug("evaluated")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "evaluated", line["msg"])
	assert.Equal(t, "42", line["seller_id"])
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
}

func TestConfigure_InvalidLevel(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	configure(l, &buf, "loud", false)
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
}

func TestWithRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/exec?action=open", nil)
	r.Header.Set(RequestIDHeader, "req-1")

	e := WithRequest(Discard(), r)
	assert.Equal(t, "req-1", e.Data["req_id"])
	assert.Equal(t, "/exec", e.Data["path"])

	r.Header.Del(RequestIDHeader)
	e = WithRequest(Discard(), r)
	assert.NotEmpty(t, e.Data["req_id"])
}
