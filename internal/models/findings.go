package models

type RiskLevel string

const (
	RiskCritical RiskLevel = "CRITICAL" // unauthenticated by default (Redis, MongoDB, Telnet)
	RiskHigh     RiskLevel = "HIGH"     // remote access or databases
	RiskMedium   RiskLevel = "MEDIUM"
	RiskLow      RiskLevel = "LOW"
)

// Rank orders risk levels so they can be compared; unknown levels rank below LOW.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskCritical:
		return 4
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	case RiskLow:
		return 1
	}
	return 0
}

func (r RiskLevel) Valid() bool {
	return r.Rank() > 0
}

// MaxRisk returns the more severe of two levels.
func MaxRisk(a, b RiskLevel) RiskLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

type Rating string

const (
	RatingGood           Rating = "GOOD"
	RatingModerate       Rating = "MODERATE"
	RatingNeedsAttention Rating = "NEEDS ATTENTION"
)

// ServiceRef identifies the record a finding was raised for.
type ServiceRef struct {
	Command string `json:"command" yaml:"command"`
	PID     int    `json:"pid,omitempty" yaml:"pid,omitempty"`
	User    string `json:"user,omitempty" yaml:"user,omitempty"`
	Port    int    `json:"port,omitempty" yaml:"port,omitempty"`
}

type Finding struct {
	RuleID   string     `json:"rule_id" yaml:"rule_id"`
	Service  ServiceRef `json:"service" yaml:"service"`
	Risk     RiskLevel  `json:"risk" yaml:"risk"`
	Message  string     `json:"message" yaml:"message"`
	Evidence string     `json:"evidence,omitempty" yaml:"evidence,omitempty"`
	// Scored findings contribute to the security score; the rest are for awareness only.
	Scored bool `json:"scored" yaml:"scored"`
}

// Exposure is a distinct (command, port, user) listener bound to every interface.
type Exposure struct {
	Command string    `json:"command" yaml:"command"`
	Port    int       `json:"port" yaml:"port"`
	User    string    `json:"user" yaml:"user"`
	Risk    RiskLevel `json:"risk" yaml:"risk"`
}

type ExternalConnection struct {
	Command     string `json:"command" yaml:"command"`
	Destination string `json:"destination" yaml:"destination"`
}

type Stats struct {
	Listening   int `json:"listening" yaml:"listening"`
	Established int `json:"established" yaml:"established"`
	Closed      int `json:"closed" yaml:"closed"`
	Processes   int `json:"processes" yaml:"processes"`
}

type SecurityReport struct {
	Score                 int                  `json:"score" yaml:"score"`
	Rating                Rating               `json:"rating" yaml:"rating"`
	Findings              []Finding            `json:"findings" yaml:"findings"`
	AllInterfaceListeners []Exposure           `json:"all_interface_listeners" yaml:"all_interface_listeners"`
	RootHighPortServices  []ServiceRecord      `json:"root_high_port_services" yaml:"root_high_port_services"`
	ExternalConnections   []ExternalConnection `json:"external_connections" yaml:"external_connections"`
	KnownRiskPorts        []int                `json:"known_risk_ports" yaml:"known_risk_ports"`
	DevPorts              []int                `json:"dev_ports" yaml:"dev_ports"`
	PortConflicts         []int                `json:"port_conflicts" yaml:"port_conflicts"`
	Stats                 Stats                `json:"stats" yaml:"stats"`
}

// Vulnerabilities lists the all-interface exposures as "command:port".
func (r SecurityReport) Vulnerabilities() []string {
	out := make([]string, 0, len(r.AllInterfaceListeners))
	for _, e := range r.AllInterfaceListeners {
		out = append(out, CleanCommand(e.Command)+":"+itoa(e.Port))
	}
	return out
}
