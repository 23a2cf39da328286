package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// SymbolRecord is the outcome of one symbol within a run.
type SymbolRecord struct {
	Symbol         string `json:"symbol"`
	Status         string `json:"status"`
	RecordsFetched int    `json:"records_fetched"`
	ErrorMessage   string `json:"error_message,omitempty"`
}

// RunRecord captures one batch run for audit and later analysis.
type RunRecord struct {
	Timestamp    time.Time      `json:"timestamp"`
	RunNumber    int            `json:"run_number"`
	RunType      string         `json:"run_type"`
	LookbackDays int            `json:"lookback_days"`
	FinishedAt   time.Time      `json:"finished_at"`
	Symbols      []SymbolRecord `json:"symbols"`
	TotalFetched int            `json:"total_fetched"`

	StoreTotalRecords  int64  `json:"store_total_records"`
	StoreUniqueSymbols int64  `json:"store_unique_symbols"`
	StoreDateRange     string `json:"store_date_range"`

	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Writer persists run records to a directory as JSON files.
type Writer struct {
	dir   string
	mu    sync.Mutex
	seq   int
	nowFn func() time.Time
}

// NewWriter constructs a journal writer.
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "journal"
	}
	_ = os.MkdirAll(dir, 0o755)
	return &Writer{dir: dir, nowFn: time.Now}
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// WriteRun writes a run record to a timestamped JSON file and returns its path.
func (w *Writer) WriteRun(rec *RunRecord) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("journal: nil record")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if rec.Timestamp.IsZero() {
		rec.Timestamp = w.nowFn()
	}
	w.seq++
	rec.RunNumber = w.seq
	name := fmt.Sprintf("run_%s_%s_%05d.json", rec.RunType, rec.Timestamp.UTC().Format("20060102_150405"), w.seq)
	path := filepath.Join(w.dir, name)
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("journal: write %s: %w", path, err)
	}
	return path, nil
}
