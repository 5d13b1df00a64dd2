package commands

import (
	"os"

	"github.com/K0NGR3SS/netwatch/internal/config"
	"github.com/K0NGR3SS/netwatch/internal/logger"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
	cfg      *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "netwatch",
	Short: "NetWatch audits lsof snapshots for exposed network services",
	Long: `NetWatch parses 'lsof -i -P -n' output, scores the host's network exposure,
and recommends fixes. Snapshots can come from a file, stdin, or EC2 instances over SSM.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			c.LogLevel = logLevel
		}
		if err := c.Validate(); err != nil {
			return err
		}
		logger.InitLogger(c.LogLevel)
		cfg = c
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./netwatch.yaml or ~/.config/netwatch/netwatch.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}
