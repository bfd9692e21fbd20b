// Package discovery advertises the inventory HTTP service over mDNS so
// scanners on the local network can find where to upload results.
package discovery

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/grandcat/zeroconf"
)

const (
	ServiceType = "_netinventory._tcp"
	Domain      = "local."
)

// Advertiser owns one running mDNS registration.
type Advertiser struct {
	server *zeroconf.Server
	logger *slog.Logger
}

// Start registers instance on the port taken from addr (host:port).
// An empty instance defaults to "Network Inventory (<hostname>)".
func Start(instance, addr string, logger *slog.Logger) (*Advertiser, error) {
	port, err := portOf(addr)
	if err != nil {
		return nil, err
	}

	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "netinventory"
	}
	if instance == "" {
		instance = fmt.Sprintf("Network Inventory (%s)", hostname)
	}
	instance = SanitizeInstance(instance)

	txt := []string{
		fmt.Sprintf("http_port=%d", port),
		"api=/api/devices",
		"upload=/upload_excel",
		"proto=v1",
	}

	server, err := zeroconf.Register(instance, ServiceType, Domain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("register mdns service: %w", err)
	}
	logger.Info("mDNS advertisement started", "instance", instance, "port", port)
	return &Advertiser{server: server, logger: logger}, nil
}

// Stop withdraws the advertisement. It is safe to call on a nil Advertiser.
func (a *Advertiser) Stop() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
	a.logger.Info("mDNS advertisement stopped")
	a.server = nil
}

func portOf(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, fmt.Errorf("parse listen address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("invalid port in listen address %q", addr)
	}
	return port, nil
}

// SanitizeInstance makes name a valid DNS-SD instance label: no dots,
// underscores or line breaks, at most 63 runes.
func SanitizeInstance(name string) string {
	cleaned := strings.TrimSpace(name)
	cleaned = strings.NewReplacer("\n", " ", "\r", " ", ".", " ", "_", " ").Replace(cleaned)
	if cleaned == "" {
		cleaned = "Network Inventory"
	}
	runes := []rune(cleaned)
	if len(runes) > 63 {
		cleaned = string(runes[:63])
	}
	return cleaned
}
