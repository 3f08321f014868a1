package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { SetLevel("") })

	tests := map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		" WARN ":  logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"verbose": logrus.InfoLevel,
		"":        logrus.InfoLevel,
	}
	for in, want := range tests {
		SetLevel(in)
		require.Equal(t, want, Logger.GetLevel(), in)
	}
}

func TestWithFieldsWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	Logger.SetOutput(&buf)
	t.Cleanup(func() { Logger.SetOutput(os.Stdout) })

	WithFields(logrus.Fields{"segment": 2, "metric": "Brix"}).Warn("metric failed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "metric failed", entry["msg"])
	require.Equal(t, "warning", entry["level"])
	require.Equal(t, "Brix", entry["metric"])
	require.Equal(t, 2.0, entry["segment"])
}
