package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/K0NGR3SS/netwatch/internal/analyzer"
	"github.com/K0NGR3SS/netwatch/internal/aws"
	"github.com/K0NGR3SS/netwatch/internal/logger"
	"github.com/K0NGR3SS/netwatch/internal/scanner"
	"github.com/K0NGR3SS/netwatch/internal/ui"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type instanceReport struct {
	InstanceID string             `json:"instance_id" yaml:"instance_id"`
	NameTag    string             `json:"name" yaml:"name"`
	PrivateIP  string             `json:"private_ip" yaml:"private_ip"`
	Region     string             `json:"region" yaml:"region"`
	Analysis   *analyzer.Analysis `json:"analysis" yaml:"analysis"`
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Collect and analyze snapshots from EC2 instances",
	Long: `Runs 'lsof -i -P -n' on running EC2 instances through SSM Run Command and
analyzes each host. Instances need the SSM agent and an instance profile that
allows Run Command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, risk := outputFormat(cmd), minRisk(cmd)
		if err := validateOutput(format, risk); err != nil {
			return err
		}

		regions, _ := cmd.Flags().GetStringSlice("region")
		if len(regions) == 0 {
			regions = cfg.Regions
		}
		instanceIDs, _ := cmd.Flags().GetStringSlice("instance")
		doNotify, _ := cmd.Flags().GetBool("notify")

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
		defer cancel()

		clients, err := aws.NewClients(ctx, regions)
		if err != nil {
			return err
		}

		var spinner *pterm.SpinnerPrinter
		progress := func(string) {}
		if format == "table" {
			ui.PrintBanner()
			spinner = ui.StartSpinner("Initializing AWS clients...")
			progress = func(msg string) { spinner.UpdateText(msg) }
		}

		an := analyzer.New(logger.Component("analyzer"))
		var reports []instanceReport
		for _, c := range clients {
			scn := scanner.New(c, cfg.Exclude, logger.Component("scanner"))

			progress(fmt.Sprintf("Listing running instances in %s...", c.Region))
			instances, err := scn.Instances(ctx, instanceIDs)
			if err != nil {
				log.Error().Err(err).Str("region", c.Region).Msg("failed to list instances")
				continue
			}

			snapshots, err := scn.Collect(ctx, instances, progress)
			if err != nil {
				log.Error().Err(err).Str("region", c.Region).Msg("collection aborted")
			}
			for _, snap := range snapshots {
				reports = append(reports, instanceReport{
					InstanceID: snap.Instance.ID,
					NameTag:    snap.Instance.NameTag,
					PrivateIP:  snap.Instance.PrivateIP,
					Region:     snap.Region,
					Analysis:   an.Analyze(snap.Lines),
				})
			}
		}

		if spinner != nil {
			spinner.Success(fmt.Sprintf("Collected %d snapshots", len(reports)))
		}

		if format != "table" {
			if err := write(format, reports); err != nil {
				return err
			}
		} else {
			for _, r := range reports {
				pterm.DefaultHeader.Println(fmt.Sprintf("%s (%s) %s %s", r.InstanceID, r.NameTag, r.PrivateIP, r.Region))
				ui.PrintReport(r.Analysis, risk)
			}
		}

		if doNotify {
			for _, r := range reports {
				notify(cmd, r.InstanceID, r.Analysis.Report)
			}
		}
		return nil
	},
}

func init() {
	addOutputFlags(scanCmd)
	scanCmd.Flags().StringSliceP("region", "r", nil, "AWS regions to scan (default from config)")
	scanCmd.Flags().StringSlice("instance", nil, "only scan these instance ids")
	scanCmd.Flags().Bool("notify", false, "post each report summary to Slack")
	rootCmd.AddCommand(scanCmd)
}
