package advisory

import (
	"fmt"

	"github.com/K0NGR3SS/netwatch/internal/models"
	"github.com/K0NGR3SS/netwatch/internal/rules"
)

const (
	fallbackLimit    = 10
	fallbackCategory = "Network Exposure"
)

var fallbackActionItems = []string{
	"Review all services listening on all interfaces",
	"Implement firewall rules",
	"Enable authentication on all services",
}

// Fallback builds advice from the local rule catalogue. It never fails and
// is used whenever the remote service is disabled or unusable.
func Fallback(req Request) *Response {
	recs := make([]Recommendation, 0)
	for _, s := range req.Services {
		rec := s.Record()
		for _, rule := range rules.Match(rec) {
			recs = append(recs, Recommendation{
				Severity:       rule.Severity,
				Category:       fallbackCategory,
				Issue:          fmt.Sprintf("%s on port %d", rule.Message, s.Port),
				Recommendation: rules.RecommendationFor(rec),
				Commands:       rules.FixCommandsFor(rec),
				Priority:       priorityFor(rule.Severity),
			})
		}
	}

	level := models.RiskLow
	if req.SecurityScore < 60 {
		level = models.RiskMedium
	}
	for _, r := range recs {
		level = models.MaxRisk(level, r.Severity)
	}

	if len(recs) > fallbackLimit {
		recs = recs[:fallbackLimit]
	}

	return &Response{
		OverallAssessment: fmt.Sprintf("Security score: %d/100. Found %d potential issues.", req.SecurityScore, len(recs)),
		RiskLevel:         level,
		Recommendations:   recs,
		ExecutiveSummary:  fmt.Sprintf("Network analysis found %d services with %d security concerns.", len(req.Services), len(recs)),
		ActionItems:       append([]string(nil), fallbackActionItems...),
		LearningNotes:     "Principle of least privilege: Only expose services that need external access.",
	}
}

func priorityFor(sev models.RiskLevel) int {
	if sev == models.RiskCritical {
		return 9
	}
	return 7
}
