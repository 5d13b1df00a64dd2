// Package rules evaluates a snapshot registry against the port and exposure
// heuristics and computes the security score.
package rules

import (
	"fmt"
	"strings"

	"github.com/K0NGR3SS/netwatch/internal/models"
	"github.com/K0NGR3SS/netwatch/internal/registry"
)

const (
	RuleAllInterfaces      = "all_interfaces"
	RuleKnownRiskPort      = "known_risk_port"
	RuleDevPort            = "dev_port"
	RulePortConflict       = "port_conflict"
	RuleExternalConnection = "external_connection"
	RuleRootHighPort       = "root_high_port"
)

// Score weights.
const (
	ExposurePenalty  = 10
	RiskPortPenalty  = 5
	RootHighPenalty  = 2
	highPortBoundary = 1024
)

// RootPreviewLimit caps how many root high-port services a report displays.
const RootPreviewLimit = 5

// Evaluate runs every rule over reg. It only reads reg, so two calls on the
// same registry produce identical reports.
func Evaluate(reg *registry.Registry) models.SecurityReport {
	report := models.SecurityReport{
		Findings:              []models.Finding{},
		AllInterfaceListeners: []models.Exposure{},
		RootHighPortServices:  []models.ServiceRecord{},
		ExternalConnections:   []models.ExternalConnection{},
		KnownRiskPorts:        []int{},
		DevPorts:              []int{},
		PortConflicts:         []int{},
		Stats: models.Stats{
			Listening:   len(reg.Listeners),
			Established: len(reg.Established()),
			Closed:      len(reg.Closed()),
			Processes:   len(reg.Processes()),
		},
	}

	checkAllInterfaces(reg, &report)
	checkKnownRiskPorts(reg, &report)
	checkDevPorts(reg, &report)
	checkPortConflicts(reg, &report)
	checkExternalConnections(reg, &report)
	checkRootHighPorts(reg, &report)

	report.Score = Score(len(report.AllInterfaceListeners), len(report.KnownRiskPorts), len(report.RootHighPortServices))
	report.Rating = RatingFor(report.Score)
	return report
}

// Score applies the weights and clamps the result to [0, 100].
func Score(exposures, riskPorts, rootHighPorts int) int {
	score := 100
	score -= ExposurePenalty * exposures
	score -= RiskPortPenalty * riskPorts
	score -= RootHighPenalty * rootHighPorts
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func RatingFor(score int) models.Rating {
	switch {
	case score >= 80:
		return models.RatingGood
	case score >= 60:
		return models.RatingModerate
	default:
		return models.RatingNeedsAttention
	}
}

func checkAllInterfaces(reg *registry.Registry, report *models.SecurityReport) {
	type key struct {
		command string
		port    int
		user    string
	}
	seen := map[key]bool{}

	for _, l := range reg.Listeners {
		if !l.HasPort() || !l.AllInterfaces() {
			continue
		}
		k := key{l.Command, *l.Port, l.User}
		if seen[k] {
			continue
		}
		seen[k] = true

		risk := AssessPortRisk(*l.Port)
		report.AllInterfaceListeners = append(report.AllInterfaceListeners, models.Exposure{
			Command: l.Command,
			Port:    *l.Port,
			User:    l.User,
			Risk:    risk,
		})
		report.Findings = append(report.Findings, models.Finding{
			RuleID:   RuleAllInterfaces,
			Service:  l.Ref(),
			Risk:     risk,
			Message:  fmt.Sprintf("%s exposed to all networks on port %d", models.CleanCommand(l.Command), *l.Port),
			Evidence: fmt.Sprintf("bound to %s, user %s", l.Interface, l.User),
			Scored:   true,
		})
	}
}

func checkKnownRiskPorts(reg *registry.Registry, report *models.SecurityReport) {
	for _, kp := range KnownRiskPorts {
		listeners := reg.ByPort(kp.Port)
		if len(listeners) == 0 {
			continue
		}
		report.KnownRiskPorts = append(report.KnownRiskPorts, kp.Port)
		for _, l := range listeners {
			report.Findings = append(report.Findings, models.Finding{
				RuleID:   RuleKnownRiskPort,
				Service:  l.Ref(),
				Risk:     kp.Risk,
				Message:  fmt.Sprintf("Port %d (%s): %s", kp.Port, kp.Service, kp.Text),
				Evidence: fmt.Sprintf("Running: %s (user: %s)", l.Command, l.User),
				Scored:   true,
			})
		}
	}
}

func checkDevPorts(reg *registry.Registry, report *models.SecurityReport) {
	for _, port := range DevPorts {
		listeners := reg.ByPort(port)
		if len(listeners) == 0 {
			continue
		}
		report.DevPorts = append(report.DevPorts, port)
		report.Findings = append(report.Findings, models.Finding{
			RuleID:  RuleDevPort,
			Service: listeners[0].Ref(),
			Risk:    models.RiskLow,
			Message: fmt.Sprintf("Dev port %d is active - ensure this isn't production!", port),
		})
	}
}

func checkPortConflicts(reg *registry.Registry, report *models.SecurityReport) {
	type owner struct {
		command string
		pid     int
	}
	for _, port := range reg.Ports() {
		listeners := reg.ByPort(port)
		owners := map[owner]bool{}
		var commands []string
		for _, l := range listeners {
			o := owner{l.Command, l.PID}
			if owners[o] {
				continue
			}
			owners[o] = true
			commands = append(commands, l.Command)
		}
		if len(owners) < 2 {
			continue
		}
		report.PortConflicts = append(report.PortConflicts, port)
		report.Findings = append(report.Findings, models.Finding{
			RuleID:  RulePortConflict,
			Service: listeners[0].Ref(),
			Risk:    models.RiskLow,
			Message: fmt.Sprintf("Port %d has multiple services: %s", port, strings.Join(commands, ", ")),
		})
	}
}

func checkExternalConnections(reg *registry.Registry, report *models.SecurityReport) {
	seen := map[models.ExternalConnection]bool{}
	for _, c := range reg.Established() {
		if c.Remote == nil || !IsExternal(c.Remote.Address) {
			continue
		}
		ext := models.ExternalConnection{Command: c.Command, Destination: c.Remote.Address}
		if seen[ext] {
			continue
		}
		seen[ext] = true
		report.ExternalConnections = append(report.ExternalConnections, ext)
		report.Findings = append(report.Findings, models.Finding{
			RuleID:  RuleExternalConnection,
			Service: c.Ref(),
			Risk:    models.RiskLow,
			Message: fmt.Sprintf("%s connected to external host %s", models.CleanCommand(c.Command), c.Remote.Address),
		})
	}
}

func checkRootHighPorts(reg *registry.Registry, report *models.SecurityReport) {
	for _, l := range reg.Listeners {
		if l.User != "root" || !l.HasPort() || *l.Port <= highPortBoundary {
			continue
		}
		report.RootHighPortServices = append(report.RootHighPortServices, l)
		report.Findings = append(report.Findings, models.Finding{
			RuleID:  RuleRootHighPort,
			Service: l.Ref(),
			Risk:    models.RiskMedium,
			Message: fmt.Sprintf("%s runs as root on high port %d", models.CleanCommand(l.Command), *l.Port),
			Scored:  true,
		})
	}
}

// RootPreview returns the root high-port services a report should display.
func RootPreview(report models.SecurityReport) []models.ServiceRecord {
	if len(report.RootHighPortServices) > RootPreviewLimit {
		return report.RootHighPortServices[:RootPreviewLimit]
	}
	return report.RootHighPortServices
}
