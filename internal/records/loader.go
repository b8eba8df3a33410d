// Package records reads candidate book records and writes enriched ones to
// an append-only, resumable JSONL stream.
package records

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// Batch is the result of loading a candidate file.
type Batch struct {
	Records []Record
	// Malformed counts lines or rows that could not be decoded or failed
	// validation. They are skipped, not fatal.
	Malformed int
}

// Loader reads candidate records from JSONL or Parquet files.
type Loader struct {
	path string
}

// NewLoader creates a new record loader
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads every record, choosing the format from the file extension.
func (l *Loader) Load() (*Batch, error) {
	ext := strings.ToLower(filepath.Ext(l.path))

	switch ext {
	case ".parquet":
		return l.loadParquet()
	case ".jsonl", ".json", ".ndjson":
		return l.loadJSONL()
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .parquet, .jsonl)", ext)
	}
}

func (l *Loader) loadJSONL() (*Batch, error) {
	slog.Debug("Opening JSONL file", "path", l.path)

	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	batch := &Batch{}
	scanner := newScanner(file)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			slog.Warn("Skipping malformed record", "line", lineNum, "err", err)
			batch.Malformed++
			continue
		}
		if err := rec.Validate(); err != nil {
			slog.Warn("Skipping invalid record", "line", lineNum, "filename", rec.Filename, "err", err)
			batch.Malformed++
			continue
		}
		rec.normalize()
		batch.Records = append(batch.Records, rec)

		if lineNum%1000 == 0 {
			slog.Debug("Reading JSONL", "lines_read", lineNum)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading input: %w", err)
	}

	slog.Debug("Finished reading JSONL file", "records", len(batch.Records), "malformed", batch.Malformed, "lines", lineNum)
	return batch, nil
}

func (l *Loader) loadParquet() (*Batch, error) {
	slog.Debug("Opening Parquet file", "path", l.path)

	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet file opened successfully", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[parquetRow](pf)
	defer reader.Close()

	batch := &Batch{}
	rows := make([]parquetRow, 128)
	for {
		n, err := reader.Read(rows)
		for _, row := range rows[:n] {
			rec := row.toRecord()
			if verr := rec.Validate(); verr != nil {
				slog.Warn("Skipping invalid record", "filename", rec.Filename, "err", verr)
				batch.Malformed++
				continue
			}
			rec.normalize()
			batch.Records = append(batch.Records, rec)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	slog.Debug("Finished reading Parquet file", "records", len(batch.Records), "malformed", batch.Malformed)
	return batch, nil
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	// extracted records can carry long title/series strings
	const maxCapacity = 10 * 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxCapacity)
	return scanner
}
