package tool

import (
	"fmt"
	"net"
	"strings"

	"github.com/moyoez/sharegate/types"
)

// FirstNonLoopbackIPv4 returns the first IPv4 address of an up, non-loopback interface.
func FirstNonLoopbackIPv4() (string, bool) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", false
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			if ip4 := ipNet.IP.To4(); ip4 != nil {
				return ip4.String(), true
			}
		}
	}
	return "", false
}

// PublicBaseURL is the scheme and host visitors use to reach the server.
func PublicBaseURL(cfg *types.AppConfig) string {
	protocol := cfg.Protocol
	if protocol == "" {
		protocol = "http"
	}
	host := cfg.PublicHost
	if host == "" {
		ip, ok := FirstNonLoopbackIPv4()
		if !ok {
			ip = "localhost"
		}
		host = fmt.Sprintf("%s:%d", ip, cfg.Port)
	}
	return protocol + "://" + strings.TrimSuffix(host, "/")
}

// ShareLink is the public link for a share token.
func ShareLink(cfg *types.AppConfig, token string) string {
	return PublicBaseURL(cfg) + "/api/share/v1/" + token + "/info"
}
