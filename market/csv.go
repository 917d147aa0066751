package market

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/ulikunitz/xz"
	"github.com/xyproto/unzip"
)

// csvTime parses the dataset timestamp column. RFC3339 and the plain
// "2006-01-02 15:04:05" layout are both in the wild.
type csvTime struct {
	time.Time
}

var csvTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *csvTime) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(s)
	for _, layout := range csvTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

type barRow struct {
	Datetime csvTime `csv:"datetime"`
	Open     float64 `csv:"open"`
	High     float64 `csv:"high"`
	Low      float64 `csv:"low"`
	Close    float64 `csv:"close"`
	Volume   float64 `csv:"volume"`
}

// Load reads an OHLCV series from r. The series must be non-empty and
// regularly time-spaced; resampling irregular data is a preparation step
// that belongs upstream of the engine.
func Load(r io.Reader) (Series, error) {
	var rows []barRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty time series")
	}

	series := make(Series, len(rows))
	for i, row := range rows {
		series[i] = Bar{
			Time:   row.Datetime.Time,
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: row.Volume,
		}
	}

	if !regularlySpaced(series) {
		return nil, fmt.Errorf("time series is irregular")
	}
	return series, nil
}

// LoadFile reads a series from a CSV file, transparently decompressing
// ".xz" files. When ticker is empty the file name stem is used, so
// "data/GOOG.csv" loads as ticker GOOG.
func LoadFile(path, ticker string) (string, Series, error) {
	if path == "" {
		return "", nil, fmt.Errorf("must provide filepath")
	}

	f, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("open series: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	name := filepath.Base(path)
	if strings.HasSuffix(name, ".xz") {
		if r, err = xz.NewReader(f); err != nil {
			return "", nil, fmt.Errorf("open xz stream: %w", err)
		}
		name = strings.TrimSuffix(name, ".xz")
	}

	if ticker == "" {
		ticker = strings.TrimSuffix(name, filepath.Ext(name))
	}

	series, err := Load(r)
	if err != nil {
		return "", nil, fmt.Errorf("load %s: %w", path, err)
	}
	return ticker, series, nil
}

// LoadArchive extracts a zip archive of CSV series into destDir and loads
// every contained series, keyed by file name stem.
func LoadArchive(archivePath, destDir string) (Data, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("extraction dir: %w", err)
	}
	if err := unzip.Extract(archivePath, destDir); err != nil {
		return nil, fmt.Errorf("extract %s: %w", archivePath, err)
	}
	return LoadDir(destDir)
}

// LoadDir loads every .csv and .csv.xz file under dir, non-recursively.
func LoadDir(dir string) (Data, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	data := make(Data)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".csv") && !strings.HasSuffix(name, ".csv.xz") {
			continue
		}
		ticker, series, err := LoadFile(filepath.Join(dir, name), "")
		if err != nil {
			return nil, err
		}
		data[ticker] = series
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("no series files found in %s", dir)
	}
	return data, nil
}

func regularlySpaced(s Series) bool {
	if len(s) < 3 {
		return true
	}
	step := s[1].Time.Sub(s[0].Time)
	for i := 2; i < len(s); i++ {
		if s[i].Time.Sub(s[i-1].Time) != step {
			return false
		}
	}
	return true
}
