package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	var buf bytes.Buffer
	l := NewZerologLogger("test", &buf, zerolog.DebugLevel)
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
	assert.Contains(t, buf.String(), "info test")
}

func TestZerologLoggerJSONFields(t *testing.T) {
	t.Setenv("APP_ENV", "")
	var buf bytes.Buffer
	l := NewZerologLogger("builder", &buf, zerolog.DebugLevel)
	l.Debugw("model built", map[string]any{"variables": 6})

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "builder", rec["component"])
	assert.Equal(t, "model built", rec["message"])
	assert.Equal(t, float64(6), rec["variables"])
}

func TestLevelFiltering(t *testing.T) {
	t.Setenv("APP_ENV", "")
	var buf bytes.Buffer
	SetOutput(&buf)
	require.NoError(t, SetLevel("warn"))
	defer func() {
		_ = SetLevel("info")
		SetOutput(nil)
	}()

	l := New("filter")
	l.Infof("hidden")
	l.Warnf("shown")
	out := buf.String()
	assert.False(t, strings.Contains(out, "hidden"))
	assert.True(t, strings.Contains(out, "shown"))

	assert.Error(t, SetLevel("loud"))
}
