package agent

import (
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/hashicorp/mdns"
	"go.uber.org/zap"

	"github.com/HerbHall/hostpulse/internal/version"
)

// MDNSAnnouncer advertises the HTTP API as a DNS-SD service so dashboards on
// the LAN can find agents without configuration.
type MDNSAnnouncer struct {
	service string
	port    int
	agentID string
	logger  *zap.Logger

	mu     sync.Mutex
	server *mdns.Server
}

// Compile-time guard.
var _ Announcer = (*MDNSAnnouncer)(nil)

// NewMDNSAnnouncer returns an announcer for service (e.g. "_hostpulse._tcp")
// pointing at port.
func NewMDNSAnnouncer(service string, port int, agentID string, logger *zap.Logger) *MDNSAnnouncer {
	return &MDNSAnnouncer{
		service: service,
		port:    port,
		agentID: agentID,
		logger:  logger,
	}
}

// Start begins answering mDNS queries.
func (a *MDNSAnnouncer) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server != nil {
		return nil
	}

	host, err := os.Hostname()
	if err != nil {
		return fmt.Errorf("resolve hostname: %w", err)
	}
	// Empty host name and IPs make mdns resolve them itself.
	zone, err := a.zone(host, "", nil)
	if err != nil {
		return err
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: zone})
	if err != nil {
		return fmt.Errorf("start mdns server: %w", err)
	}
	a.server = server

	a.logger.Info("mDNS announcement started",
		zap.String("service", a.service),
		zap.String("instance", host),
		zap.Int("port", a.port),
	)
	return nil
}

// Shutdown stops answering queries. It is safe to call more than once.
func (a *MDNSAnnouncer) Shutdown() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server == nil {
		return nil
	}
	err := a.server.Shutdown()
	a.server = nil
	if err != nil {
		return fmt.Errorf("stop mdns server: %w", err)
	}
	a.logger.Info("mDNS announcement stopped")
	return nil
}

func (a *MDNSAnnouncer) zone(instance, hostName string, ips []net.IP) (*mdns.MDNSService, error) {
	svc, err := mdns.NewMDNSService(instance, a.service, "", hostName, a.port, ips, a.txtRecords())
	if err != nil {
		return nil, fmt.Errorf("build mdns service %s: %w", a.service, err)
	}
	return svc, nil
}

// txtRecords lets browsers tell agents apart before connecting.
func (a *MDNSAnnouncer) txtRecords() []string {
	return []string{
		"id=" + a.agentID,
		"version=" + version.Short(),
		"platform=" + version.Platform(),
		"path=/api/v1/snapshot",
	}
}
