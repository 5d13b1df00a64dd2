package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/K0NGR3SS/netwatch/internal/analyzer"
	"github.com/K0NGR3SS/netwatch/internal/logger"
	"github.com/K0NGR3SS/netwatch/internal/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis and advisory HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.Server.Addr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		adv := newAdvisor()
		if !adv.Enabled() {
			log.Warn().Msg("no advisory API key configured, /analyze will use local rules")
		}

		srv := server.New(adv, analyzer.New(logger.Component("analyzer")), version, logger.Component("server"))
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8888", "listen address")
	rootCmd.AddCommand(serveCmd)
}
