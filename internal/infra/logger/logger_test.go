package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"card_float_planner/internal/infra/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_ProductionUsesJSON(t *testing.T) {
	var buf bytes.Buffer
	InitWithOutput(&config.AppConfig{LogLevel: "info", Environment: "production"}, &buf)

	Component("planner").WithField("run_id", "abc").Info("Plan built")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Plan built", entry["msg"])
	assert.Equal(t, "planner", entry["component"])
	assert.Equal(t, "abc", entry["run_id"])
}

func TestInit_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	InitWithOutput(&config.AppConfig{LogLevel: "loud", Environment: "development"}, &buf)

	assert.Equal(t, logrus.InfoLevel, Log.GetLevel())
	assert.Contains(t, buf.String(), "Invalid log level 'loud'")
}

func TestFormatterFor(t *testing.T) {
	assert.IsType(t, &logrus.JSONFormatter{}, formatterFor("Staging"))
	assert.IsType(t, &logrus.TextFormatter{}, formatterFor("development"))
	assert.IsType(t, &logrus.TextFormatter{}, formatterFor(""))
}
