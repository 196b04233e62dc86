package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLoggerWithOutputWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithOutput(&buf)
	l.WithFields(Fields{"package_id": "com.betamax.core"}).Info("signal")

	assert.Contains(t, buf.String(), `"package_id":"com.betamax.core"`)
	assert.Contains(t, buf.String(), `"msg":"signal"`)
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("dropped")
}
