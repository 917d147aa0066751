package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/broker"
	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/pricing"
	"github.com/rustyeddy/backtester/sim"
	"github.com/rustyeddy/backtester/strategies"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a strategy simulation from a configuration file",
	Long: `Run loads the market data and strategy named by a configuration
file, steps the simulation to completion and reports the results.

Example:
  backtester run --config simulation.yaml`,
	RunE: runSimulation,
}

var runConfigPath string

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "path to configuration file (required)")
	runCmd.MarkFlagRequired("config")
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return err
	}

	model := pricing.NewModel(cfg.Pricing.SlippageK, pricing.SpreadMode(cfg.Pricing.SpreadMode))
	engine := sim.NewEngine(model)

	if cfg.Data.Dir != "" {
		if err := loadDir(engine, cfg.Data.Dir); err != nil {
			return err
		}
	}
	if cfg.Data.Archive != "" {
		if err := loadArchive(engine, cfg.Data.Archive); err != nil {
			return err
		}
	}
	for ticker, path := range cfg.Data.Files {
		if err := engine.LoadFile(path, ticker); err != nil {
			return err
		}
	}

	acct := broker.NewAccount(cfg.Account.Funds)

	strat, err := strategies.ByName(cfg.Strategy.Name, strategies.Params{
		Ticker:   cfg.Strategy.Ticker,
		Quantity: cfg.Strategy.Quantity,
		Fast:     cfg.Strategy.Fast,
		Slow:     cfg.Strategy.Slow,
		Account:  acct,
	})
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	res, err := engine.Run(strat, acct, sim.Options{MaxEpochs: cfg.Sim.MaxEpochs})
	if err != nil {
		return err
	}

	if err := journalResult(cfg, res); err != nil {
		return err
	}

	printSummary(res, acct)
	return nil
}

func loadDir(engine *sim.Engine, dir string) error {
	data, err := market.LoadDir(dir)
	if err != nil {
		return err
	}
	for ticker, series := range data {
		engine.SetSeries(ticker, series)
	}
	return nil
}

func loadArchive(engine *sim.Engine, archive string) error {
	dest, err := os.MkdirTemp("", "backtester-data-")
	if err != nil {
		return fmt.Errorf("extraction dir: %w", err)
	}
	data, err := market.LoadArchive(archive, dest)
	if err != nil {
		return err
	}
	for ticker, series := range data {
		engine.SetSeries(ticker, series)
	}
	return nil
}

func journalResult(cfg *config.Config, res *sim.Result) error {
	var j journal.Journal
	var err error

	switch cfg.Journal.Type {
	case "csv":
		j, err = journal.NewCSV(cfg.Journal.OrdersFile, cfg.Journal.PositionsFile)
	case "sqlite":
		j, err = journal.NewSQLite(cfg.Journal.DBPath)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	return journal.Record(j, res)
}

func printSummary(res *sim.Result, acct *broker.Account) {
	filled, rejected, unsupported := 0, 0, 0
	for _, o := range res.Orders {
		switch o.Status {
		case broker.Filled:
			filled++
		case broker.Rejected:
			rejected++
		case broker.Unsupported:
			unsupported++
		}
	}

	fmt.Printf("run %s finished after %d epochs\n\n", res.RunID, res.Epochs)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Ticker", "Quantity", "Entry Price", "Unrealized PnL", "Realized PnL"})
	for ticker, history := range res.Positions {
		last := history[len(history)-1]
		table.Append([]string{
			ticker,
			fmt.Sprintf("%d", last.Quantity),
			fmt.Sprintf("%.4f", last.EntryPrice),
			fmt.Sprintf("%.4f", last.UnrealizedPnL),
			fmt.Sprintf("%.4f", last.RealizedPnL),
		})
	}
	table.Render()

	fmt.Printf("\norders: %d filled, %d rejected, %d unsupported\n", filled, rejected, unsupported)
	fmt.Printf("funds remaining: %.4f\n", acct.Funds)
}
