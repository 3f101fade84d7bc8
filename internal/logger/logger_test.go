package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithFieldsWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(logrus.DebugLevel)
	t.Cleanup(func() {
		log = newLogger()
	})

	DebugWithFields("fault injected", map[string]interface{}{"service": "storage", "code": "network_error"})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "fault injected", entry["msg"])
	assert.Equal(t, "storage", entry["service"])
	assert.Equal(t, "debug", entry["level"])
}

func TestConfigureLogLevel(t *testing.T) {
	t.Cleanup(func() {
		log = newLogger()
	})
	SetOutput(&bytes.Buffer{})

	configureLogLevel("DEBUG")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	configureLogLevel("nonsense")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	configureLogLevel("")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
}

func TestHelpersWriteAtTheirLevel(t *testing.T) {
	t.Cleanup(func() {
		log = newLogger()
	})

	tests := []struct {
		name  string
		write func()
		level string
		msg   string
	}{
		{name: "debug", write: func() { Debug("seeding ", "minimal") }, level: "debug", msg: "seeding minimal"},
		{name: "debugf", write: func() { Debugf("seeding %s", "full") }, level: "debug", msg: "seeding full"},
		{name: "info", write: func() { Info("server started") }, level: "info", msg: "server started"},
		{name: "infof", write: func() { Infof("%d rows", 3) }, level: "info", msg: "3 rows"},
		{name: "info fields", write: func() { InfoWithFields("request", map[string]interface{}{"status": 200}) }, level: "info", msg: "request"},
		{name: "warn", write: func() { Warn("slow response") }, level: "warning", msg: "slow response"},
		{name: "warnf", write: func() { Warnf("retry %d", 2) }, level: "warning", msg: "retry 2"},
		{name: "warn fields", write: func() { WarnWithFields("listener removed", map[string]interface{}{"id": 1}) }, level: "warning", msg: "listener removed"},
		{name: "error", write: func() { Error("seed failed") }, level: "error", msg: "seed failed"},
		{name: "errorf", write: func() { Errorf("cleanup of %s failed", "clients") }, level: "error", msg: "cleanup of clients failed"},
		{name: "error fields", write: func() { ErrorWithFields("listener panicked", map[string]interface{}{"event": "SIGNED_IN"}) }, level: "error", msg: "listener panicked"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetOutput(&buf)
			SetLevel(logrus.DebugLevel)

			tt.write()

			var entry map[string]interface{}
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, tt.msg, entry["msg"])
		})
	}
}

func TestLevelFiltersOutput(t *testing.T) {
	t.Cleanup(func() {
		log = newLogger()
	})
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(logrus.ErrorLevel)

	Info("hidden")
	Warn("hidden")
	assert.Zero(t, buf.Len())

	Error("shown")
	assert.NotZero(t, buf.Len())
	assert.Same(t, log, Logger())
	assert.Equal(t, logrus.ErrorLevel, Logger().GetLevel())
}
