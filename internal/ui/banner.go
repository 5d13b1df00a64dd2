package ui

import (
	"github.com/pterm/pterm"
)

func PrintBanner() {
	logo := `
    _   __     __ _       __      __       __
   / | / /__  / /| |     / /___ _/ /______/ /_
  /  |/ / _ \/ __/ | /| / / __ '/ __/ ___/ __ \
 / /|  /  __/ /_ | |/ |/ / /_/ / /_/ /__/ / / /
/_/ |_/\___/\__/ |__/|__/\__,_/\__/\___/_/ /_/
`
	pterm.FgCyan.Println(logo)
	pterm.DefaultCenter.Println(pterm.FgGray.Sprint(Version + " - Network Exposure Analyzer"))
	pterm.Println()

	pterm.DefaultBox.
		WithTitle(pterm.FgYellow.Sprint("AUTHORIZED USE ONLY")).
		WithTitleBottomCenter().
		WithRightPadding(2).
		WithLeftPadding(2).
		Println("Analyze snapshots of hosts YOU OWN or are authorized to audit.\nRemote scans run lsof through SSM on your own EC2 fleet.")

	pterm.Println()
}
