package commands

import (
	"time"

	"github.com/K0NGR3SS/netwatch/internal/advisory"
	"github.com/K0NGR3SS/netwatch/internal/analyzer"
	"github.com/K0NGR3SS/netwatch/internal/logger"
	"github.com/K0NGR3SS/netwatch/internal/ui"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type analyzeOutput struct {
	analyzer.Analysis `yaml:",inline"`
	Advice            *advisory.Result `json:"advice,omitempty" yaml:"advice,omitempty"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Analyze an lsof snapshot",
	Long: `Reads 'lsof -i -P -n' output from a file or stdin, scores the exposure of the
host and lists findings. With --ai, advice is requested from the configured
advisory service, falling back to local rules when it is unavailable.`,
	Example: `  lsof -i -P -n | netwatch analyze
  netwatch analyze snapshot.txt --ai -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, risk := outputFormat(cmd), minRisk(cmd)
		if err := validateOutput(format, risk); err != nil {
			return err
		}

		in, err := openInput(args)
		if err != nil {
			return err
		}
		defer in.Close()

		an, err := analyzer.New(logger.Component("analyzer")).AnalyzeReader(in)
		if err != nil {
			return err
		}

		useAI, _ := cmd.Flags().GetBool("ai")
		var advice *advisory.Result
		if useAI || cfg.Advisor.Enabled {
			var spinner *pterm.SpinnerPrinter
			if format == "table" {
				spinner = ui.StartSpinner("Requesting security advice...")
			}
			res := newAdvisor().Advise(cmd.Context(), an.AdvisoryRequest(time.Now()))
			if spinner != nil {
				_ = spinner.Stop()
			}
			advice = &res
		}

		if format == "table" {
			ui.PrintBanner()
			ui.PrintReport(an, risk)
			if advice != nil {
				ui.PrintAdvice(*advice)
			}
		} else if err := write(format, analyzeOutput{Analysis: *an, Advice: advice}); err != nil {
			return err
		}

		if n, _ := cmd.Flags().GetBool("notify"); n {
			notify(cmd, "localhost", an.Report)
		}
		return nil
	},
}

func init() {
	addOutputFlags(analyzeCmd)
	analyzeCmd.Flags().Bool("ai", false, "request advice from the advisory service")
	analyzeCmd.Flags().Bool("notify", false, "post the report summary to Slack")
	rootCmd.AddCommand(analyzeCmd)
}
