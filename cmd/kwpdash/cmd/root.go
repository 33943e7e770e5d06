// Package cmd implements the kwpdash command-line tool: flags layered over
// the config file (no interactive setup wizard), grounded on teacher's flags.go and
// gocan's cobra+promptui cantool.
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"kwpdash/config"
)

var rootCmd = &cobra.Command{
	Use:          "kwpdash",
	Short:        "KWP1281 diagnostic dashboard",
	Long:         "Connects to a KWP1281 K-line ECU, polls measurement groups, and drives a character display.",
	SilenceUsage: true,
}

// Execute runs the root command; subcommands register themselves in their
// files' init functions. Called once by main.main.
func Execute(ctx context.Context) {
	_ = rootCmd.ExecuteContext(ctx)
}

const (
	flagPort      = "port"
	flagBaud      = "baud"
	flagAddr      = "addr"
	flagGroup     = "group"
	flagConfig    = "config"
	flagLogDir    = "log-dir"
	flagDashboard = "dashboard-addr"
	flagSimulated = "sim"
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP(flagPort, "p", "auto", "K-line serial device path or 'auto'")
	pf.IntP(flagBaud, "b", 0, "baud rate (0 = use config default)")
	pf.StringP(flagAddr, "a", "", "ECU address, hex (e.g. 17); empty = use config default")
	pf.IntP(flagGroup, "g", 0, "measurement group (accepted, but not read by the run or replay commands)")
	pf.String(flagConfig, "", "path to config.yaml (default ./kwpdash.yaml)")
	pf.String(flagLogDir, "", "directory for structured session logs (empty = use config default)")
	pf.String(flagDashboard, "", "debug dashboard listen address, e.g. :8080 (empty = disabled)")
	pf.Bool(flagSimulated, false, "run in simulation mode (no real ECU)")
}

// loadConfig resolves the config path flag and loads it, applying no flag
// overrides itself — callers layer flag values on top of the result.
func loadConfig(cmd *cobra.Command) *config.Config {
	path, _ := cmd.Flags().GetString(flagConfig)
	if path == "" {
		path = "kwpdash.yaml"
	}
	return config.Load(path)
}
