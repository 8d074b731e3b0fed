package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/HerbHall/hostpulse/internal/platform"
	"github.com/HerbHall/hostpulse/internal/rate"
	"github.com/HerbHall/hostpulse/internal/snapshot"
)

func sampleSnapshot() snapshot.Snapshot {
	return snapshot.Snapshot{
		CPU: snapshot.CPU{
			Used:         12.5,
			UsedList:     []float64{10, 15},
			CPUConstants: platform.CPUConstants{Count: 1, Name: "Test CPU", Cores: 2, Threads: 2},
		},
		Load:    snapshot.Load{One: 0.1, Max: 4, Limit: 4, Safe: 3},
		Network: rate.Throughput{Up: 1.25, Down: 2.5},
		IO:      rate.IORate{Read: 100, Write: 200},
		Time:    1735689600.5,
	}
}

func TestWriteSnapshot_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSnapshot(&buf, sampleSnapshot(), "json"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	cpu := got["cpu"].(map[string]any)
	assert.Equal(t, "Test CPU", cpu["cpu_name"])
	assert.Equal(t, 1735689600.5, got["time"])
	assert.Contains(t, buf.String(), "\n  \"cpu\"", "output is indented")
}

func TestWriteSnapshot_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSnapshot(&buf, sampleSnapshot(), "yaml"))

	var got struct {
		CPU     map[string]any `yaml:"cpu"`
		Network map[string]any `yaml:"network"`
		IO      map[string]int `yaml:"io"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 12.5, got.CPU["used"])
	assert.Equal(t, "Test CPU", got.CPU["cpu_name"])
	assert.Equal(t, 2.5, got.Network["down"])
	assert.Equal(t, map[string]int{"read": 100, "write": 200}, got.IO)
}

func TestWriteSnapshot_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, writeSnapshot(&buf, sampleSnapshot(), "xml"))
	assert.False(t, validFormat("xml"))
	assert.True(t, validFormat("yaml"))
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level   string
		format  string
		wantErr bool
		enabled zapcore.Level
	}{
		{level: "info", format: "json", enabled: zapcore.InfoLevel},
		{level: "debug", format: "console", enabled: zapcore.DebugLevel},
		{level: "warn", format: "", enabled: zapcore.WarnLevel},
		{level: "loud", format: "json", wantErr: true},
		{level: "info", format: "xml", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			logger, err := newLogger(tt.level, tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.enabled))
			assert.False(t, logger.Core().Enabled(tt.enabled-1))
		})
	}
}
