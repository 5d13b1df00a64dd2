package rules

import (
	"fmt"

	"github.com/K0NGR3SS/netwatch/internal/models"
)

// RiskRule is a single service pattern used by the advisory fallback and quick checks.
type RiskRule struct {
	ID          string
	Predicate   func(models.ServiceRecord) bool
	Severity    models.RiskLevel
	Message     string
	FixCommands []string
}

var fixCommands = map[int][]string{
	6379: {
		"redis-cli CONFIG SET requirepass 'strong_password_here'",
		"redis-cli CONFIG SET bind '127.0.0.1'",
		"redis-cli CONFIG REWRITE",
	},
	27017: {
		"# Enable MongoDB auth",
		"mongosh",
		"use admin",
		"db.createUser({user:'admin',pwd:'strong_password',roles:['root']})",
		"# Edit /etc/mongod.conf",
		"# Add: security.authorization: enabled",
	},
	22: {
		"# Disable root SSH",
		"sudo nano /etc/ssh/sshd_config",
		"# Set: PermitRootLogin no",
		"sudo systemctl restart sshd",
	},
}

func onPorts(s models.ServiceRecord, ports ...int) bool {
	if !s.HasPort() {
		return false
	}
	for _, p := range ports {
		if *s.Port == p {
			return true
		}
	}
	return false
}

// Patterns is evaluated in order for every service.
var Patterns = []RiskRule{
	{
		ID:          "redis_exposed",
		Predicate:   func(s models.ServiceRecord) bool { return onPorts(s, 6379) && s.AllInterfaces() },
		Severity:    models.RiskCritical,
		Message:     "Redis exposed without authentication!",
		FixCommands: fixCommands[6379],
	},
	{
		ID:          "mongodb_exposed",
		Predicate:   func(s models.ServiceRecord) bool { return onPorts(s, 27017) && s.AllInterfaces() },
		Severity:    models.RiskCritical,
		Message:     "MongoDB exposed without authentication!",
		FixCommands: fixCommands[27017],
	},
	{
		ID:          "ssh_root",
		Predicate:   func(s models.ServiceRecord) bool { return onPorts(s, 22) && s.User == "root" },
		Severity:    models.RiskHigh,
		Message:     "SSH running as root - security risk!",
		FixCommands: fixCommands[22],
	},
	{
		ID:        "dev_server_exposed",
		Predicate: func(s models.ServiceRecord) bool { return onPorts(s, 3000, 8000, 8080) && s.AllInterfaces() },
		Severity:  models.RiskMedium,
		Message:   "Development server exposed to network",
	},
}

// Match returns the patterns triggered by s, in table order.
func Match(s models.ServiceRecord) []RiskRule {
	var out []RiskRule
	for _, r := range Patterns {
		if r.Predicate(s) {
			out = append(out, r)
		}
	}
	return out
}

// RecommendationFor returns the fix advice for a service, keyed by its port.
func RecommendationFor(s models.ServiceRecord) string {
	switch port := s.PortOr(0); port {
	case 6379:
		return "Enable Redis authentication (requirepass) and bind to localhost"
	case 27017:
		return "Enable MongoDB authentication and restrict network access"
	case 22:
		return "Use SSH keys, disable root login, and consider changing default port"
	case 3000, 8000, 8080:
		return "Ensure development servers are not exposed in production"
	default:
		return fmt.Sprintf("Review security configuration for %s on port %d", models.CleanCommand(s.Command), port)
	}
}

// FixCommandsFor returns shell commands for a service, keyed by its port.
// SSH commands only apply when the daemon runs as root.
func FixCommandsFor(s models.ServiceRecord) []string {
	port := s.PortOr(0)
	if port == 22 && s.User != "root" {
		return nil
	}
	return fixCommands[port]
}

type QuickIssue struct {
	Service  string           `json:"service"`
	Port     int              `json:"port"`
	Severity models.RiskLevel `json:"severity"`
	Message  string           `json:"message"`
}

type QuickCheckResult struct {
	Score          int          `json:"score"`
	CriticalIssues int          `json:"critical_issues"`
	HighIssues     int          `json:"high_issues"`
	Issues         []QuickIssue `json:"issues"`
	Recommendation string       `json:"recommendation"`
}

const quickIssueLimit = 10

// QuickCheck scores services against Patterns only: 15 points per critical
// match and 10 per high match.
func QuickCheck(services []models.ServiceRecord) QuickCheckResult {
	res := QuickCheckResult{Issues: []QuickIssue{}}
	for _, s := range services {
		for _, r := range Match(s) {
			res.Issues = append(res.Issues, QuickIssue{
				Service:  s.Command,
				Port:     s.PortOr(0),
				Severity: r.Severity,
				Message:  r.Message,
			})
			switch r.Severity {
			case models.RiskCritical:
				res.CriticalIssues++
			case models.RiskHigh:
				res.HighIssues++
			}
		}
	}

	res.Score = 100 - 15*res.CriticalIssues - 10*res.HighIssues
	if res.Score < 0 {
		res.Score = 0
	}
	if len(res.Issues) > quickIssueLimit {
		res.Issues = res.Issues[:quickIssueLimit]
	}
	if len(res.Issues) > 0 {
		res.Recommendation = "Run full analysis for detailed recommendations"
	} else {
		res.Recommendation = "Looking good!"
	}
	return res
}

type PortAdvice struct {
	Service         string   `json:"service"`
	Risks           []string `json:"risks"`
	Recommendations []string `json:"recommendations"`
	Commands        []string `json:"commands"`
}

var portAdvice = map[int]PortAdvice{
	22: {
		Service: "SSH",
		Risks:   []string{"Brute force attacks", "Root access if misconfigured"},
		Recommendations: []string{
			"Use SSH keys instead of passwords",
			"Disable root login",
			"Change default port",
			"Use fail2ban for brute force protection",
		},
		Commands: []string{
			"ssh-keygen -t ed25519 -C 'your_email@example.com'",
			"sudo nano /etc/ssh/sshd_config",
			"# Set: PermitRootLogin no",
			"# Set: PasswordAuthentication no",
			"sudo apt install fail2ban",
		},
	},
	6379: {
		Service: "Redis",
		Risks:   []string{"No authentication by default", "Data exposure", "Remote code execution"},
		Recommendations: []string{
			"Enable password authentication",
			"Bind to localhost only",
			"Use ACLs for fine-grained access",
			"Enable TLS for connections",
		},
		Commands: fixCommands[6379],
	},
	27017: {
		Service: "MongoDB",
		Risks:   []string{"No authentication by default", "Database exposure", "Data theft"},
		Recommendations: []string{
			"Enable authentication",
			"Create admin user",
			"Bind to localhost",
			"Enable TLS",
		},
		Commands: []string{
			"mongosh",
			"use admin",
			"db.createUser({user: 'admin', pwd: 'password', roles: ['root']})",
			"# Edit /etc/mongod.conf",
			"# security.authorization: enabled",
		},
	},
}

// AdviceForPort returns hardening advice for a port, or a generic entry.
func AdviceForPort(port int) PortAdvice {
	if a, ok := portAdvice[port]; ok {
		return a
	}
	return PortAdvice{
		Service: "Unknown",
		Risks:   []string{"Potential security exposure"},
		Recommendations: []string{
			"Verify if this port should be open",
			"Check service documentation for security best practices",
			"Consider firewall rules to restrict access",
			"Monitor for unusual activity",
		},
		Commands: []string{
			fmt.Sprintf("sudo lsof -i :%d  # Check what's using this port", port),
			fmt.Sprintf("sudo ufw deny %d  # Block port with UFW firewall", port),
		},
	}
}
