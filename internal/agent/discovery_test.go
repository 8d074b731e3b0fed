package agent

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMDNSAnnouncer_Zone(t *testing.T) {
	a := NewMDNSAnnouncer("_hostpulse._tcp", 9273, "agent-1", zap.NewNop())

	zone, err := a.zone("web01", "web01.local.", []net.IP{net.ParseIP("192.0.2.10")})
	require.NoError(t, err)

	assert.Equal(t, "web01", zone.Instance)
	assert.Equal(t, "_hostpulse._tcp", zone.Service)
	assert.Equal(t, 9273, zone.Port)
	assert.Contains(t, zone.TXT, "id=agent-1")
	assert.Contains(t, zone.TXT, "path=/api/v1/snapshot")
}

func TestMDNSAnnouncer_ZoneRejectsBadHostName(t *testing.T) {
	a := NewMDNSAnnouncer("_hostpulse._tcp", 9273, "agent-1", zap.NewNop())

	// Host names must be fully qualified.
	_, err := a.zone("web01", "web01.local", []net.IP{net.ParseIP("192.0.2.10")})
	assert.Error(t, err)
}

func TestMDNSAnnouncer_ShutdownWithoutStart(t *testing.T) {
	a := NewMDNSAnnouncer("_hostpulse._tcp", 9273, "agent-1", zap.NewNop())
	assert.NoError(t, a.Shutdown())
	assert.NoError(t, a.Shutdown())
}
