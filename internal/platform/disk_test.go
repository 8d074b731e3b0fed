package platform

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDiskJSON_Unix(t *testing.T) {
	d := Disk{
		Path: "/",
		Size: DiskSize{
			Total:   100 << 30,
			Used:    40 << 30,
			Free:    60 << 30,
			Percent: 40.2,
			Human:   true,
		},
		Inodes: Inodes{
			Total:     6553600,
			Used:      655360,
			Free:      5898240,
			Percent:   10,
			Supported: true,
		},
	}

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"path": "/",
		"size": ["100 GiB", "40 GiB", "60 GiB", "41%"],
		"inodes": ["6553600", "655360", "5898240", "10%"]
	}`, string(data))
}

func TestDiskJSON_Windows(t *testing.T) {
	d := Disk{
		Path:   "C:/",
		Size:   DiskSize{Total: 1000, Used: 250, Free: 750, Percent: 25},
		FSType: "NTFS",
	}

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"path": "C:/",
		"size": {"total": 1000, "used": 250, "free": 750, "percent": 25},
		"fstype": "NTFS",
		"inodes": false
	}`, string(data))
}

func TestDiskYAML(t *testing.T) {
	disks := []Disk{
		{Path: "/", Size: DiskSize{Total: 100 << 30, Used: 40 << 30, Free: 60 << 30, Percent: 40, Human: true}},
		{Path: "D:/", Size: DiskSize{Total: 10, Used: 5, Free: 5, Percent: 50}, FSType: "NTFS"},
	}

	data, err := yaml.Marshal(disks)
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, yaml.Unmarshal(data, &got))
	require.Len(t, got, 2)

	assert.Equal(t, []any{"100 GiB", "40 GiB", "60 GiB", "40%"}, got[0]["size"])
	assert.Equal(t, false, got[0]["inodes"])
	assert.NotContains(t, got[0], "fstype")

	size, ok := got[1]["size"].(map[string]any)
	require.True(t, ok, "windows size should be a mapping, got %T", got[1]["size"])
	assert.Equal(t, 10, size["total"])
	assert.Equal(t, "NTFS", got[1]["fstype"])
}

func TestPercentString(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0%"},
		{10, "10%"},
		{10.01, "11%"},
		{99.5, "100%"},
		{-3, "0%"},
	}
	for _, tt := range tests {
		if got := percentString(tt.in); got != tt.want {
			t.Errorf("percentString(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
