package commands

import (
	"fmt"

	"github.com/K0NGR3SS/netwatch/internal/ui"
	"github.com/spf13/cobra"
)

const version = "v1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of NetWatch",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("NetWatch " + version)
	},
}

func init() {
	ui.Version = version
	rootCmd.AddCommand(versionCmd)
}
