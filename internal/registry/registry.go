// Package registry indexes the records of one snapshot.
package registry

import (
	"sort"

	"github.com/K0NGR3SS/netwatch/internal/models"
)

// Registry is built once per analysis and not modified afterwards.
// Buckets keep input order so reports are reproducible.
type Registry struct {
	Listeners   []models.ServiceRecord
	Connections []models.ServiceRecord

	byPort    map[int][]models.ServiceRecord
	byProcess map[string][]models.ServiceRecord
	processes []string
}

func Build(records []models.ServiceRecord) *Registry {
	r := &Registry{
		byPort:    make(map[int][]models.ServiceRecord),
		byProcess: make(map[string][]models.ServiceRecord),
	}

	for _, rec := range records {
		switch {
		case rec.State == models.StateListening:
			r.Listeners = append(r.Listeners, rec)
			if rec.HasPort() {
				r.byPort[*rec.Port] = append(r.byPort[*rec.Port], rec)
			}
		case rec.State.IsConnection():
			r.Connections = append(r.Connections, rec)
		}

		if _, seen := r.byProcess[rec.Command]; !seen {
			r.processes = append(r.processes, rec.Command)
		}
		r.byProcess[rec.Command] = append(r.byProcess[rec.Command], rec)
	}

	return r
}

// ByPort returns the listeners bound to port.
func (r *Registry) ByPort(port int) []models.ServiceRecord {
	return r.byPort[port]
}

func (r *Registry) HasPort(port int) bool {
	return len(r.byPort[port]) > 0
}

// Ports returns every listening port in ascending order.
func (r *Registry) Ports() []int {
	ports := make([]int, 0, len(r.byPort))
	for p := range r.byPort {
		ports = append(ports, p)
	}
	sort.Ints(ports)
	return ports
}

// ByProcess returns every record of a command, whatever its state.
func (r *Registry) ByProcess(command string) []models.ServiceRecord {
	return r.byProcess[command]
}

// Processes returns command names in first-seen order.
func (r *Registry) Processes() []string {
	out := make([]string, len(r.processes))
	copy(out, r.processes)
	return out
}

// Established returns the connections in ESTABLISHED state.
func (r *Registry) Established() []models.ServiceRecord {
	return r.connectionsIn(models.StateEstablished)
}

func (r *Registry) Closed() []models.ServiceRecord {
	return r.connectionsIn(models.StateClosed)
}

func (r *Registry) connectionsIn(state models.State) []models.ServiceRecord {
	var out []models.ServiceRecord
	for _, c := range r.Connections {
		if c.State == state {
			out = append(out, c)
		}
	}
	return out
}
