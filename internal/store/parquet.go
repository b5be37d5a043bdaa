package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"deltaban/internal/domain"
)

// Compile-time interface check.
var _ JournalStore = (*ParquetJournal)(nil)

// AssessmentRecord is the Parquet schema for one recorded assessment.
type AssessmentRecord struct {
	Stock          string  `parquet:"stock"`
	Timestamp      int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Price          float64 `parquet:"price"`
	BaseDelta      float64 `parquet:"base_delta"`
	NetDelta       float64 `parquet:"net_delta"`
	IsViolation    bool    `parquet:"is_violation"`
	Magnitude      float64 `parquet:"magnitude"`
	Reason         string  `parquet:"reason"`
	PenaltyRaw     float64 `parquet:"penalty_raw"`
	PenaltyClamped float64 `parquet:"penalty_clamped"`
	Surcharge      float64 `parquet:"surcharge"`
	PenaltyTotal   float64 `parquet:"penalty_total"`
}

// ParquetJournal implements JournalStore using one Parquet file per date.
type ParquetJournal struct {
	DataDir string
}

// NewParquetJournal creates a journal rooted at the given data directory.
func NewParquetJournal(dataDir string) *ParquetJournal {
	return &ParquetJournal{DataDir: dataDir}
}

// Record appends an assessment to the journal file for the date of `when`.
func (j *ParquetJournal) Record(_ context.Context, a domain.Assessment, when time.Time) error {
	rec := AssessmentRecord{
		Stock:       a.Stock,
		Timestamp:   when.UnixMilli(),
		Price:       a.Price,
		BaseDelta:   a.BaseDelta,
		NetDelta:    a.NetDelta,
		IsViolation: a.Violation.IsViolation,
		Magnitude:   a.Violation.Magnitude,
		Reason:      string(a.Violation.Reason),
	}
	if a.Penalty != nil {
		rec.PenaltyRaw = a.Penalty.Raw
		rec.PenaltyClamped = a.Penalty.Clamped
		rec.Surcharge = a.Penalty.Surcharge
		rec.PenaltyTotal = a.Penalty.Total
	}

	path := j.datePath(when.Format("2006-01-02"))

	// Journal files are small; read-append-rewrite keeps a single sorted file
	// per date without a writer daemon.
	existing, _ := parquet.ReadFile[AssessmentRecord](path)
	merged := append(existing, rec)
	sort.Slice(merged, func(i, k int) bool {
		return merged[i].Timestamp < merged[k].Timestamp
	})

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := parquet.WriteFile(path, merged); err != nil {
		return fmt.Errorf("writing journal %s: %w", path, err)
	}
	return nil
}

// ListDates returns the sorted dates (YYYY-MM-DD) that have journal data.
func (j *ParquetJournal) ListDates(_ context.Context) ([]string, error) {
	dir := filepath.Join(j.DataDir, "assessments")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dates []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".parquet") {
			continue
		}
		date := strings.TrimSuffix(e.Name(), ".parquet")
		if len(date) == 10 && date[4] == '-' && date[7] == '-' {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)
	return dates, nil
}

// LoadByDate returns all recorded assessments for the given date.
func (j *ParquetJournal) LoadByDate(_ context.Context, date string) ([]AssessmentRecord, error) {
	path := j.datePath(date)
	records, err := parquet.ReadFile[AssessmentRecord](path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return records, nil
}

// datePath returns the journal file path for a date.
// Layout: <dataDir>/assessments/<YYYY-MM-DD>.parquet
func (j *ParquetJournal) datePath(date string) string {
	return filepath.Join(j.DataDir, "assessments", date+".parquet")
}
