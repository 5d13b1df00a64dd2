// Package analyzer runs one snapshot through parsing, indexing and rule
// evaluation and derives the presentation data shown next to the report.
package analyzer

import (
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/K0NGR3SS/netwatch/internal/advisory"
	"github.com/K0NGR3SS/netwatch/internal/categorize"
	"github.com/K0NGR3SS/netwatch/internal/models"
	"github.com/K0NGR3SS/netwatch/internal/parser"
	"github.com/K0NGR3SS/netwatch/internal/registry"
	"github.com/K0NGR3SS/netwatch/internal/rules"
	"github.com/rs/zerolog"
)

const topConnectionLimit = 10

type CommandPorts struct {
	Command string   `json:"command" yaml:"command"`
	Ports   []string `json:"ports" yaml:"ports"`
}

type CategoryGroup struct {
	Category string         `json:"category" yaml:"category"`
	Commands []CommandPorts `json:"commands" yaml:"commands"`
}

type PortUsage struct {
	Port     int      `json:"port" yaml:"port"`
	Name     string   `json:"name" yaml:"name"`
	Commands []string `json:"commands" yaml:"commands"`
}

type ConnectionCount struct {
	Command string `json:"command" yaml:"command"`
	Count   int    `json:"count" yaml:"count"`
}

// Analysis is the full result for one snapshot.
type Analysis struct {
	Report          models.SecurityReport `json:"report" yaml:"report"`
	Categories      []CategoryGroup       `json:"categories" yaml:"categories"`
	WellKnownPorts  []PortUsage           `json:"well_known_ports" yaml:"well_known_ports"`
	TopConnections  []ConnectionCount     `json:"top_connections" yaml:"top_connections"`
	Recommendations []string              `json:"recommendations" yaml:"recommendations"`
	Skipped         []parser.Skip         `json:"skipped" yaml:"skipped"`

	Registry *registry.Registry `json:"-" yaml:"-"`
}

type Analyzer struct {
	logger zerolog.Logger
}

func New(logger zerolog.Logger) *Analyzer {
	return &Analyzer{logger: logger.With().Str("component", "analyzer").Logger()}
}

func (a *Analyzer) AnalyzeReader(r io.Reader) (*Analysis, error) {
	lines, err := parser.ReadLines(r)
	if err != nil {
		return nil, err
	}
	return a.Analyze(lines), nil
}

// Analyze never fails: lines that cannot be parsed are reported in Skipped.
func (a *Analyzer) Analyze(lines []string) *Analysis {
	batch := parser.ParseLines(lines)
	for _, s := range batch.Skipped {
		a.logger.Debug().Int("line", s.LineNo).Str("reason", s.Reason).Msg("skipped lsof line")
	}

	reg := registry.Build(batch.Records)
	report := rules.Evaluate(reg)

	an := &Analysis{
		Report:          report,
		Categories:      categorized(reg),
		WellKnownPorts:  wellKnownUsage(reg),
		TopConnections:  topConnections(reg),
		Recommendations: rules.Recommendations(reg, report),
		Skipped:         batch.Skipped,
		Registry:        reg,
	}
	if an.Skipped == nil {
		an.Skipped = []parser.Skip{}
	}

	a.logger.Debug().
		Int("records", len(batch.Records)).
		Int("skipped", len(batch.Skipped)).
		Int("score", report.Score).
		Msg("snapshot analyzed")
	return an
}

// Services returns the listeners with a port in advisory wire shape.
func (an *Analysis) Services() []advisory.ServiceInfo {
	out := make([]advisory.ServiceInfo, 0, len(an.Registry.Listeners))
	for _, l := range an.Registry.Listeners {
		if l.HasPort() {
			out = append(out, advisory.ServiceInfoFrom(l))
		}
	}
	return out
}

func (an *Analysis) AdvisoryRequest(now time.Time) advisory.Request {
	return advisory.Request{
		Services:            an.Services(),
		SecurityScore:       an.Report.Score,
		Vulnerabilities:     an.Report.Vulnerabilities(),
		ExternalConnections: an.Report.ExternalConnections,
		SuspiciousPorts:     an.Report.KnownRiskPorts,
		Timestamp:           now.UTC().Format(time.RFC3339),
	}
}

func categorized(reg *registry.Registry) []CategoryGroup {
	byCategory := make(map[string]map[string]map[string]struct{})
	for _, l := range reg.Listeners {
		if !l.HasPort() {
			continue
		}
		cat := categorize.Categorize(l.Command)
		cmd := models.CleanCommand(l.Command)
		if byCategory[cat] == nil {
			byCategory[cat] = make(map[string]map[string]struct{})
		}
		if byCategory[cat][cmd] == nil {
			byCategory[cat][cmd] = make(map[string]struct{})
		}
		byCategory[cat][cmd][strconv.Itoa(*l.Port)+"/"+string(l.Protocol)] = struct{}{}
	}

	out := make([]CategoryGroup, 0, len(byCategory))
	for _, cat := range categorize.Categories() {
		cmds, ok := byCategory[cat]
		if !ok {
			continue
		}
		group := CategoryGroup{Category: cat}
		for _, cmd := range sortedKeys(cmds) {
			group.Commands = append(group.Commands, CommandPorts{Command: cmd, Ports: sortedPorts(cmds[cmd])})
		}
		out = append(out, group)
	}
	return out
}

func wellKnownUsage(reg *registry.Registry) []PortUsage {
	out := make([]PortUsage, 0)
	for _, wk := range rules.WellKnownPorts {
		listeners := reg.ByPort(wk.Port)
		if len(listeners) == 0 {
			continue
		}
		cmds := make(map[string]struct{})
		for _, l := range listeners {
			cmds[models.CleanCommand(l.Command)] = struct{}{}
		}
		out = append(out, PortUsage{Port: wk.Port, Name: wk.Name, Commands: sortedKeys(cmds)})
	}
	return out
}

func topConnections(reg *registry.Registry) []ConnectionCount {
	counts := make(map[string]int)
	for _, c := range reg.Established() {
		counts[models.CleanCommand(c.Command)]++
	}

	out := make([]ConnectionCount, 0, len(counts))
	for cmd, n := range counts {
		out = append(out, ConnectionCount{Command: cmd, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Command < out[j].Command
	})
	if len(out) > topConnectionLimit {
		out = out[:topConnectionLimit]
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sortedPorts orders "port/PROTO" labels numerically by port.
func sortedPorts(set map[string]struct{}) []string {
	labels := sortedKeys(set)
	sort.SliceStable(labels, func(i, j int) bool {
		return portOf(labels[i]) < portOf(labels[j])
	})
	return labels
}

func portOf(label string) int {
	n := 0
	for _, c := range label {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}
