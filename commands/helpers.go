package commands

import (
	"io"
	"os"
	"strings"

	"github.com/K0NGR3SS/netwatch/internal/advisory"
	"github.com/K0NGR3SS/netwatch/internal/logger"
	"github.com/K0NGR3SS/netwatch/internal/models"
	"github.com/K0NGR3SS/netwatch/internal/notifications"
	"github.com/K0NGR3SS/netwatch/internal/ui"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// openInput returns the snapshot named by args, or stdin for none or "-".
func openInput(args []string) (io.ReadCloser, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, errors.Wrap(err, "failed to open snapshot")
	}
	return f, nil
}

func newAdvisor() *advisory.Advisor {
	var remote advisory.Remote
	if cfg.Advisor.APIKey != "" {
		remote = advisory.NewClient(cfg.Advisor.BaseURL, cfg.Advisor.APIKey, cfg.Advisor.Model, cfg.Advisor.Timeout)
	}
	return advisory.New(remote,
		advisory.NewCache(cfg.Advisor.CacheSize, cfg.Advisor.CacheTTL),
		logger.Component("advisor"),
		advisory.WithTimeout(cfg.Advisor.Timeout),
	)
}

func outputFormat(cmd *cobra.Command) string {
	if cmd.Flags().Changed("output") {
		out, _ := cmd.Flags().GetString("output")
		return out
	}
	return cfg.OutputFormat
}

func minRisk(cmd *cobra.Command) models.RiskLevel {
	if cmd.Flags().Changed("min-risk") {
		r, _ := cmd.Flags().GetString("min-risk")
		return models.RiskLevel(strings.ToUpper(r))
	}
	return models.RiskLevel(cfg.MinRisk)
}

func write(format string, v any) error {
	switch format {
	case "json":
		return ui.WriteJSON(os.Stdout, v)
	case "yaml":
		return ui.WriteYAML(os.Stdout, v)
	default:
		return errors.Errorf("unsupported output format: %s", format)
	}
}

func notify(cmd *cobra.Command, host string, report models.SecurityReport) {
	if cfg.Slack.WebhookURL == "" {
		log.Warn().Msg("--notify set but slack.webhook_url is empty")
		return
	}
	n := notifications.NewSlackNotifier(cfg.Slack.WebhookURL, cfg.Slack.Channel)
	if err := n.SendReport(cmd.Context(), host, report); err != nil {
		log.Error().Err(err).Msg("slack notification failed")
		return
	}
	log.Info().Str("host", host).Msg("slack notification sent")
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "table", "output format (table, json, yaml)")
	cmd.Flags().String("min-risk", "", "only show findings at or above this level (LOW, MEDIUM, HIGH, CRITICAL)")
}

func validateOutput(format string, risk models.RiskLevel) error {
	if format != "table" && format != "json" && format != "yaml" {
		return errors.Errorf("invalid output format: %s", format)
	}
	if risk != "" && !risk.Valid() {
		return errors.Errorf("invalid min-risk: %s", risk)
	}
	return nil
}
