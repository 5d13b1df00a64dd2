package advisory

import (
	"encoding/json"
	"strings"

	"github.com/K0NGR3SS/netwatch/internal/models"
	"github.com/pkg/errors"
)

var (
	ErrMalformedPayload = errors.New("malformed advisory payload")
	ErrRemoteStatus     = errors.New("advisory service returned non-2xx status")
	ErrDisabled         = errors.New("advisory service not configured")
)

// extractJSON strips markdown code fences or surrounding prose and returns
// the JSON object the model produced.
func extractJSON(text string) (string, error) {
	if _, after, ok := strings.Cut(text, "```json"); ok {
		text, _, _ = strings.Cut(after, "```")
	} else if _, after, ok := strings.Cut(text, "```"); ok {
		text, _, _ = strings.Cut(after, "```")
	}

	text = strings.TrimSpace(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", errors.Wrap(ErrMalformedPayload, "no JSON object found")
	}
	return text[start : end+1], nil
}

type wireRecommendation struct {
	Severity       *string  `json:"severity"`
	Category       *string  `json:"category"`
	Issue          *string  `json:"issue"`
	Recommendation *string  `json:"recommendation"`
	Commands       []string `json:"commands"`
	Priority       *int     `json:"priority"`
}

type wireResponse struct {
	OverallAssessment *string               `json:"overall_assessment"`
	RiskLevel         *string               `json:"risk_level"`
	Recommendations   *[]wireRecommendation `json:"recommendations"`
	ExecutiveSummary  *string               `json:"executive_summary"`
	ActionItems       *[]string             `json:"action_items"`
	LearningNotes     *string               `json:"learning_notes"`
}

// parsePayload decodes model output into a Response. Every required field
// must be present and risk levels must be one of LOW|MEDIUM|HIGH|CRITICAL.
func parsePayload(text string) (*Response, error) {
	raw, err := extractJSON(text)
	if err != nil {
		return nil, err
	}

	var w wireResponse
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return nil, errors.Wrapf(ErrMalformedPayload, "decode: %v", err)
	}

	if w.OverallAssessment == nil || w.RiskLevel == nil || w.Recommendations == nil ||
		w.ExecutiveSummary == nil || w.ActionItems == nil {
		return nil, errors.Wrap(ErrMalformedPayload, "missing required field")
	}

	level, ok := riskLevel(*w.RiskLevel)
	if !ok {
		return nil, errors.Wrapf(ErrMalformedPayload, "invalid risk_level %q", *w.RiskLevel)
	}

	resp := &Response{
		OverallAssessment: *w.OverallAssessment,
		RiskLevel:         level,
		Recommendations:   make([]Recommendation, 0, len(*w.Recommendations)),
		ExecutiveSummary:  *w.ExecutiveSummary,
		ActionItems:       *w.ActionItems,
	}
	if w.LearningNotes != nil {
		resp.LearningNotes = *w.LearningNotes
	}

	for i, r := range *w.Recommendations {
		if r.Severity == nil || r.Category == nil || r.Issue == nil || r.Recommendation == nil || r.Priority == nil {
			return nil, errors.Wrapf(ErrMalformedPayload, "recommendation %d is incomplete", i)
		}
		sev, ok := riskLevel(*r.Severity)
		if !ok {
			return nil, errors.Wrapf(ErrMalformedPayload, "recommendation %d has invalid severity %q", i, *r.Severity)
		}
		resp.Recommendations = append(resp.Recommendations, Recommendation{
			Severity:       sev,
			Category:       *r.Category,
			Issue:          *r.Issue,
			Recommendation: *r.Recommendation,
			Commands:       r.Commands,
			Priority:       *r.Priority,
		})
	}

	return resp, nil
}

func riskLevel(s string) (models.RiskLevel, bool) {
	l := models.RiskLevel(strings.ToUpper(strings.TrimSpace(s)))
	return l, l.Valid()
}
