package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureProductionUsesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	configure(l, &buf, "debug", "production")

	l.WithField("adjustment_id", "a-1").Debug("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "a-1", entry["adjustment_id"])
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
}

func TestConfigureInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	configure(l, &buf, "loud", "development")

	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, l.Formatter)
	assert.Contains(t, buf.String(), "Invalid log level")
}
