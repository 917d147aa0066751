//go:build blackbox

package blackbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeSeries(t *testing.T, dir, ticker string, bars int) {
	t.Helper()

	var b strings.Builder
	b.WriteString("datetime,open,high,low,close,volume\n")
	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	for i := 0; i < bars; i++ {
		px := 100.0 + float64(i)
		ts := start.Add(time.Duration(i) * time.Minute).Format(time.RFC3339)
		fmt.Fprintf(&b, "%s,%.2f,%.2f,%.2f,%.2f,%d\n", ts, px, px+1, px-1, px+0.5, 10000)
	}

	path := filepath.Join(dir, ticker+".csv")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatal(err)
	}
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()

	cfg := fmt.Sprintf(`account:
  funds: 10000
pricing:
  slippage_k: 0.5
  spread_mode: fixed
data:
  dir: %s
strategy:
  name: open-once
  ticker: DEMO
  quantity: 2
journal:
  type: csv
  orders_file: %s
  positions_file: %s
`, dir, filepath.Join(dir, "orders.csv"), filepath.Join(dir, "positions.csv"))

	path := filepath.Join(dir, "simulation.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVersion(t *testing.T) {
	out := run(t, "version")
	if !strings.Contains(out, "backtester version") {
		t.Fatalf("unexpected version output: %s", out)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "simulation.yaml")

	run(t, "config", "init", "--output", path)
	out := run(t, "config", "validate", "--config", path)
	if !strings.Contains(out, "is valid") {
		t.Fatalf("unexpected validate output: %s", out)
	}
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeSeries(t, dir, "DEMO", 30)
	cfgPath := writeConfig(t, dir)

	out := run(t, "run", "--config", cfgPath)

	if !strings.Contains(out, "finished after 30 epochs") {
		t.Fatalf("unexpected run output: %s", out)
	}
	if !strings.Contains(out, "1 filled") {
		t.Fatalf("expected one filled order: %s", out)
	}

	orders, err := os.ReadFile(filepath.Join(dir, "orders.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(orders), "DEMO,buy,2") {
		t.Fatalf("order log missing fill row:\n%s", orders)
	}

	positions, err := os.ReadFile(filepath.Join(dir, "positions.csv"))
	if err != nil {
		t.Fatal(err)
	}
	// zero row plus one fill row
	if got := strings.Count(strings.TrimSpace(string(positions)), "\n"); got != 2 {
		t.Fatalf("expected header plus two position rows, got %d newlines:\n%s", got, positions)
	}
}
