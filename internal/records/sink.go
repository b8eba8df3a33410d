package records

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process holds the output lock.
var ErrLocked = errors.New("output file is locked by another run")

// ProcessedKeys scans an existing output stream and returns the filenames
// already written. A missing file yields an empty set. Undecodable lines are
// ignored so a torn final write does not block resuming.
func ProcessedKeys(path string) (map[string]struct{}, error) {
	keys := map[string]struct{}{}

	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return keys, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}
	defer file.Close()

	scanner := newScanner(file)
	for scanner.Scan() {
		var head struct {
			Filename string `json:"filename"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &head); err != nil {
			continue
		}
		if head.Filename != "" {
			keys[head.Filename] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading output file: %w", err)
	}
	return keys, nil
}

// Writer appends one JSON line per record. It holds an exclusive lock on
// "<path>.lock" for its lifetime.
type Writer struct {
	path string
	file *os.File
	lock *flock.Flock
}

// OpenWriter creates the parent directory if needed, takes the lock and
// opens path for appending.
func OpenWriter(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}
	if err := terminateLastLine(path, file); err != nil {
		_ = file.Close()
		_ = lock.Unlock()
		return nil, err
	}

	return &Writer{path: path, file: file, lock: lock}, nil
}

// terminateLastLine appends a newline when a crash left the final line of
// path unterminated, so the next record starts on a line of its own.
func terminateLastLine(path string, out *os.File) error {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat output file: %w", err)
	}
	if info.Size() == 0 {
		return nil
	}
	last := make([]byte, 1)
	if _, err := in.ReadAt(last, info.Size()-1); err != nil {
		return fmt.Errorf("failed to read output file: %w", err)
	}
	if last[0] == '\n' {
		return nil
	}
	slog.Warn("Output ends with a partial line, starting a new one", "path", path)
	if _, err := out.Write([]byte{'\n'}); err != nil {
		return fmt.Errorf("failed to repair output file: %w", err)
	}
	return nil
}

// Write appends rec as a single line in one write call.
func (w *Writer) Write(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record %s: %w", rec.Filename, err)
	}
	data = append(data, '\n')
	if _, err := w.file.Write(data); err != nil {
		return fmt.Errorf("failed to write record %s: %w", rec.Filename, err)
	}
	return nil
}

// Close closes the file and releases the lock.
func (w *Writer) Close() error {
	err := w.file.Close()
	if uerr := w.lock.Unlock(); uerr != nil {
		slog.Warn("failed to release output lock", "path", w.path, "err", uerr)
	}
	if err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}
