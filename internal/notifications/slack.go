package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/K0NGR3SS/netwatch/internal/models"
	"github.com/pkg/errors"
)

const findingPreviewLimit = 5

type SlackNotifier struct {
	WebhookURL string
	Channel    string
	HTTP       *http.Client
}

type slackMessage struct {
	Channel     string            `json:"channel,omitempty"`
	Username    string            `json:"username"`
	IconEmoji   string            `json:"icon_emoji"`
	Text        string            `json:"text"`
	Attachments []slackAttachment `json:"attachments,omitempty"`
}

type slackAttachment struct {
	Color      string       `json:"color"`
	Title      string       `json:"title"`
	Text       string       `json:"text"`
	Fields     []slackField `json:"fields,omitempty"`
	Footer     string       `json:"footer,omitempty"`
	FooterIcon string       `json:"footer_icon,omitempty"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

func NewSlackNotifier(webhookURL, channel string) *SlackNotifier {
	return &SlackNotifier{
		WebhookURL: webhookURL,
		Channel:    channel,
		HTTP:       &http.Client{Timeout: 10 * time.Second},
	}
}

// SendReport posts a summary of report for host. Reports without MEDIUM or
// worse findings are sent as a short all-clear message.
func (s *SlackNotifier) SendReport(ctx context.Context, host string, report models.SecurityReport) error {
	critical := filterByRisk(report.Findings, models.RiskCritical)
	high := filterByRisk(report.Findings, models.RiskHigh)
	medium := filterByRisk(report.Findings, models.RiskMedium)
	low := filterByRisk(report.Findings, models.RiskLow)

	if len(critical)+len(high)+len(medium) == 0 {
		return s.sendCleanReport(ctx, host, report)
	}

	text := fmt.Sprintf(":rotating_light: *NetWatch Analysis Complete* for `%s`\nSecurity score *%d/100* (%s)", host, report.Score, report.Rating)

	attachments := []slackAttachment{
		{
			Color: "danger",
			Title: fmt.Sprintf("Summary (%d total findings)", len(report.Findings)),
			Fields: []slackField{
				{Title: "Critical", Value: fmt.Sprintf("%d", len(critical)), Short: true},
				{Title: "High", Value: fmt.Sprintf("%d", len(high)), Short: true},
				{Title: "Medium", Value: fmt.Sprintf("%d", len(medium)), Short: true},
				{Title: "Low", Value: fmt.Sprintf("%d", len(low)), Short: true},
			},
			Footer:     "NetWatch",
			FooterIcon: "https://platform.slack-edge.com/img/default_application_icon.png",
		},
	}

	if len(critical) > 0 {
		attachments = append(attachments, slackAttachment{
			Color: "danger",
			Title: ":red_circle: Critical Findings",
			Text:  findingList(critical),
		})
	}
	if len(high) > 0 {
		attachments = append(attachments, slackAttachment{
			Color: "warning",
			Title: ":large_orange_circle: High Findings",
			Text:  findingList(high),
		})
	}

	return s.sendMessage(ctx, slackMessage{
		Channel:     s.Channel,
		Username:    "NetWatch",
		IconEmoji:   ":satellite_antenna:",
		Text:        text,
		Attachments: attachments,
	})
}

func findingList(findings []models.Finding) string {
	var b strings.Builder
	for i, f := range findings {
		if i >= findingPreviewLimit {
			fmt.Fprintf(&b, "\n_...and %d more_", len(findings)-findingPreviewLimit)
			break
		}
		fmt.Fprintf(&b, "• *%s* port `%d` - %s\n", models.CleanCommand(f.Service.Command), f.Service.Port, f.Message)
	}
	return b.String()
}

func (s *SlackNotifier) sendCleanReport(ctx context.Context, host string, report models.SecurityReport) error {
	return s.sendMessage(ctx, slackMessage{
		Channel:   s.Channel,
		Username:  "NetWatch",
		IconEmoji: ":white_check_mark:",
		Text:      fmt.Sprintf(":white_check_mark: *NetWatch Analysis Complete* for `%s`\nScore %d/100. No exposed services found.", host, report.Score),
	})
}

func (s *SlackNotifier) sendMessage(ctx context.Context, msg slackMessage) error {
	jsonData, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal slack message")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.WebhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return errors.Wrap(err, "failed to build slack request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send slack message")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("slack returned non-200 status: %d", resp.StatusCode)
	}

	return nil
}

func filterByRisk(findings []models.Finding, risk models.RiskLevel) []models.Finding {
	var filtered []models.Finding
	for _, f := range findings {
		if f.Risk == risk {
			filtered = append(filtered, f)
		}
	}
	return filtered
}
