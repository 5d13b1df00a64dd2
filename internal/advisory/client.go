package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/K0NGR3SS/netwatch/internal/rules"
	"github.com/pkg/errors"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "anthropic/claude-3-haiku"
	DefaultTimeout = 30 * time.Second

	promptServiceLimit = 20
)

const systemPrompt = `You are a senior network security expert helping analyze network configurations.
Provide specific, actionable recommendations with actual commands when possible.
Be thorough but concise.
Format your response as valid JSON matching the required schema.`

// Client talks to an OpenRouter compatible chat completion endpoint.
type Client struct {
	HTTP    *http.Client
	BaseURL string
	APIKey  string
	Model   string
}

func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		HTTP:    &http.Client{Timeout: timeout},
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Model:   model,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Advise sends one chat completion request. It does not retry.
func (c *Client) Advise(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(req)},
		},
		Temperature: 0.3,
		MaxTokens:   2000,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal chat request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build chat request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("HTTP-Referer", "https://github.com/K0NGR3SS/netwatch")
	httpReq.Header.Set("X-Title", "NetWatch Security Advisor")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "advisory request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, errors.Wrapf(ErrRemoteStatus, "status %d", resp.StatusCode)
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, errors.Wrapf(ErrMalformedPayload, "chat envelope: %v", err)
	}
	if len(chat.Choices) == 0 {
		return nil, errors.Wrap(ErrMalformedPayload, "no choices in response")
	}

	return parsePayload(chat.Choices[0].Message.Content)
}

func buildPrompt(req Request) string {
	critical := 0
	for _, s := range req.Services {
		for _, r := range rules.Match(s.Record()) {
			if r.Severity == "CRITICAL" {
				critical++
			}
		}
	}

	services := req.Services
	if len(services) > promptServiceLimit {
		services = services[:promptServiceLimit]
	}
	servicesJSON, _ := json.MarshalIndent(services, "", "  ")
	vulnsJSON, _ := json.MarshalIndent(req.Vulnerabilities, "", "  ")

	var b strings.Builder
	b.WriteString("Analyze this network security data and provide recommendations:\n\n")
	b.WriteString("Network Overview:\n")
	fmt.Fprintf(&b, "- Total Services: %d\n", len(req.Services))
	fmt.Fprintf(&b, "- Security Score: %d/100\n", req.SecurityScore)
	fmt.Fprintf(&b, "- Critical Services: %d\n", critical)
	fmt.Fprintf(&b, "- Suspicious Ports: %v\n", req.SuspiciousPorts)
	fmt.Fprintf(&b, "- External Connections: %d\n\n", len(req.ExternalConnections))
	fmt.Fprintf(&b, "Services Running:\n%s\n\n", servicesJSON)
	fmt.Fprintf(&b, "Known Vulnerabilities:\n%s\n\n", vulnsJSON)
	b.WriteString(`Please provide a JSON response with:
1. overall_assessment: Brief assessment of the network security posture
2. risk_level: CRITICAL, HIGH, MEDIUM, or LOW
3. recommendations: Array of specific recommendations with severity, category, issue, recommendation, commands (if applicable), and priority
4. executive_summary: 2-3 sentence summary for management
5. action_items: List of immediate actions to take
6. learning_notes: Educational note about security best practices

Focus on practical, implementable solutions. Include specific commands for macOS/Linux where applicable.
`)
	return b.String()
}
