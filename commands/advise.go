package commands

import (
	"time"

	"github.com/K0NGR3SS/netwatch/internal/analyzer"
	"github.com/K0NGR3SS/netwatch/internal/logger"
	"github.com/K0NGR3SS/netwatch/internal/ui"
	"github.com/spf13/cobra"
)

var adviseCmd = &cobra.Command{
	Use:   "advise [file]",
	Short: "Print security advice for an lsof snapshot",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format := outputFormat(cmd)
		if err := validateOutput(format, ""); err != nil {
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

		res := newAdvisor().Advise(cmd.Context(), an.AdvisoryRequest(time.Now()))
		if format == "table" {
			ui.PrintAdvice(res)
			return nil
		}
		return write(format, res)
	},
}

func init() {
	adviseCmd.Flags().StringP("output", "o", "table", "output format (table, json, yaml)")
	rootCmd.AddCommand(adviseCmd)
}
