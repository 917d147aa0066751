package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "backtester",
	Short: "A deterministic multi-asset trading strategy backtester",
	Long: `Backtester simulates trading strategies against historical
multi-asset price series, epoch by epoch, and produces a deterministic
log of executed orders plus a per-asset position and P&L history.

It provides tools for:
  - Running strategy simulations over CSV time series
  - Market-microstructure execution pricing (spread and slippage)
  - Journaling order logs and position histories to CSV or SQLite

Complete documentation is available at https://github.com/rustyeddy/backtester`,
}

var verbose bool

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cobra.OnInitialize(func() {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
	})
}
