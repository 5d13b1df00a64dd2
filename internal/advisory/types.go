package advisory

import (
	"strings"

	"github.com/K0NGR3SS/netwatch/internal/models"
)

// ServiceInfo is the service shape exchanged with the advisory service.
type ServiceInfo struct {
	Command   string `json:"command"`
	Port      int    `json:"port"`
	Protocol  string `json:"protocol"`
	User      string `json:"user"`
	State     string `json:"state"`
	Interface string `json:"interface,omitempty"`
}

// Record converts the wire shape back into a listener record for rule matching.
func (s ServiceInfo) Record() models.ServiceRecord {
	return models.ServiceRecord{
		Command:   s.Command,
		User:      s.User,
		Protocol:  models.Protocol(strings.ToUpper(s.Protocol)),
		State:     models.State(strings.ToUpper(s.State)),
		Port:      models.IntPtr(s.Port),
		Interface: s.Interface,
	}
}

func ServiceInfoFrom(rec models.ServiceRecord) ServiceInfo {
	return ServiceInfo{
		Command:   rec.Command,
		Port:      rec.PortOr(0),
		Protocol:  string(rec.Protocol),
		User:      rec.User,
		State:     string(rec.State),
		Interface: rec.Interface,
	}
}

type Request struct {
	Services            []ServiceInfo               `json:"services"`
	SecurityScore       int                         `json:"security_score"`
	Vulnerabilities     []string                    `json:"vulnerabilities"`
	ExternalConnections []models.ExternalConnection `json:"external_connections"`
	SuspiciousPorts     []int                       `json:"suspicious_ports"`
	Timestamp           string                      `json:"timestamp,omitempty"`
}

type Recommendation struct {
	Severity       models.RiskLevel `json:"severity" yaml:"severity"`
	Category       string           `json:"category" yaml:"category"`
	Issue          string           `json:"issue" yaml:"issue"`
	Recommendation string           `json:"recommendation" yaml:"recommendation"`
	Commands       []string         `json:"commands,omitempty" yaml:"commands,omitempty"`
	Priority       int              `json:"priority" yaml:"priority"`
}

type Response struct {
	OverallAssessment string           `json:"overall_assessment" yaml:"overall_assessment"`
	RiskLevel         models.RiskLevel `json:"risk_level" yaml:"risk_level"`
	Recommendations   []Recommendation `json:"recommendations" yaml:"recommendations"`
	ExecutiveSummary  string           `json:"executive_summary" yaml:"executive_summary"`
	ActionItems       []string         `json:"action_items" yaml:"action_items"`
	LearningNotes     string           `json:"learning_notes,omitempty" yaml:"learning_notes,omitempty"`
}

type Source string

const (
	SourceRemote   Source = "remote"
	SourceCache    Source = "cache"
	SourceFallback Source = "fallback"
)

// Result always carries a usable Response; Note and Err explain a fallback.
type Result struct {
	Response *Response `json:"response" yaml:"response"`
	Source   Source    `json:"source" yaml:"source"`
	Note     string    `json:"note,omitempty" yaml:"note,omitempty"`
	Err      error     `json:"-" yaml:"-"`
}
