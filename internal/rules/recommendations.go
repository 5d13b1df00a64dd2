package rules

import (
	"github.com/K0NGR3SS/netwatch/internal/models"
	"github.com/K0NGR3SS/netwatch/internal/registry"
)

// Recommendations returns the general hardening checklist for a snapshot.
// The last two entries always apply.
func Recommendations(reg *registry.Registry, report models.SecurityReport) []string {
	var out []string
	if len(report.AllInterfaceListeners) > 0 {
		out = append(out, "Bind services to localhost/127.0.0.1 when possible")
	}
	if reg.HasPort(6379) {
		out = append(out, "Add authentication to Redis (requirepass)")
	}
	if reg.HasPort(5432) || reg.HasPort(3306) {
		out = append(out, "Ensure database has strong authentication")
	}
	if reg.HasPort(3000) || reg.HasPort(8000) || reg.HasPort(8080) {
		out = append(out, "Verify development servers aren't exposed in production")
	}
	if reg.HasPort(22) {
		out = append(out, "Use SSH keys instead of passwords, disable root login")
	}
	return append(out,
		"Consider using a firewall (pf/iptables) to restrict access",
		"Run regular audits with 'netwatch analyze'",
	)
}
