package rules

import (
	"net/netip"
	"strconv"
	"strings"

	"github.com/K0NGR3SS/netwatch/internal/models"
)

var criticalPorts = map[int]bool{23: true, 6379: true, 27017: true, 9200: true}

var highPorts = map[int]bool{21: true, 22: true, 3389: true, 5900: true, 5432: true, 3306: true}

// AssessPortRisk grades a port that is reachable from every interface.
func AssessPortRisk(port int) models.RiskLevel {
	switch {
	case criticalPorts[port]:
		return models.RiskCritical
	case highPorts[port]:
		return models.RiskHigh
	case port < 1024:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

type KnownRiskPort struct {
	Port    int
	Service string
	Risk    models.RiskLevel
	Text    string
}

// KnownRiskPorts is sorted by port.
var KnownRiskPorts = []KnownRiskPort{
	{21, "FTP", models.RiskHigh, "HIGH - Unencrypted transfers"},
	{23, "Telnet", models.RiskCritical, "CRITICAL - Unencrypted!"},
	{111, "RPC", models.RiskMedium, "MEDIUM - Service enumeration risk"},
	{139, "NetBIOS", models.RiskMedium, "MEDIUM - Windows networking"},
	{445, "SMB", models.RiskMedium, "MEDIUM - File sharing exposed"},
	{3306, "MySQL", models.RiskHigh, "HIGH - Database exposed"},
	{3389, "RDP", models.RiskHigh, "HIGH - Remote desktop access"},
	{5432, "PostgreSQL", models.RiskHigh, "HIGH - Database exposed"},
	{5900, "VNC", models.RiskHigh, "HIGH - Remote desktop"},
	{6379, "Redis", models.RiskCritical, "CRITICAL if exposed - No auth by default!"},
	{9200, "Elasticsearch", models.RiskHigh, "HIGH - Often unsecured"},
	{27017, "MongoDB", models.RiskCritical, "CRITICAL if exposed - Often no auth!"},
}

// DevPorts are ports commonly used by development servers.
var DevPorts = []int{3000, 3001, 4200, 5000, 5001, 8000, 8080, 8081, 9000}

type WellKnownPort struct {
	Port int
	Name string
}

// WellKnownPorts is the reference table shown in reports, sorted by port.
var WellKnownPorts = []WellKnownPort{
	{22, "SSH"}, {53, "DNS"}, {80, "HTTP"}, {88, "Kerberos"}, {111, "RPC"},
	{443, "HTTPS"}, {445, "SMB"}, {2049, "NFS"}, {3000, "Dev Server"},
	{3389, "RDP"}, {5353, "mDNS"}, {5432, "PostgreSQL"}, {6379, "Redis"},
	{7000, "Control Center"}, {8000, "HTTP Alt"}, {11434, "Ollama"},
}

// Hostnames from lsof -n are rare; only these textual forms are recognised
// when an address does not parse as an IP.
var (
	loopbackNames   = []string{"localhost"}
	privateV4Prefix = []string{"10.", "192.168."}
)

// parseAddr parses a bare IP, dropping any IPv6 zone.
func parseAddr(addr string) (netip.Addr, bool) {
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return netip.Addr{}, false
	}
	return ip.WithZone("").Unmap(), true
}

func IsLoopback(addr string) bool {
	if ip, ok := parseAddr(addr); ok {
		return ip.IsLoopback()
	}
	return hasAnyPrefix(addr, loopbackNames)
}

// IsPrivate covers RFC 1918 for IPv4, and link-local plus locally assigned
// unique local (fd00::/8) for IPv6.
func IsPrivate(addr string) bool {
	ip, ok := parseAddr(addr)
	if !ok {
		return hasAnyPrefix(addr, privateV4Prefix) || isPrivate172(addr)
	}
	if ip.Is4() {
		return ip.IsPrivate()
	}
	return ip.IsLinkLocalUnicast() || ip.As16()[0] == 0xfd
}

// isPrivate172 matches dotted 172.16. through 172.31. prefixes on strings that
// are not plain IPs, such as an address with a trailing port.
func isPrivate172(addr string) bool {
	rest, ok := strings.CutPrefix(addr, "172.")
	if !ok {
		return false
	}
	octet, _, ok := strings.Cut(rest, ".")
	if !ok {
		return false
	}
	n, err := strconv.Atoi(octet)
	return err == nil && n >= 16 && n <= 31
}

// IsExternal reports whether addr is neither loopback nor private.
func IsExternal(addr string) bool {
	return addr != "" && !IsLoopback(addr) && !IsPrivate(addr)
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
