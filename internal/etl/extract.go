package etl

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
)

// SourceReader resolves a source name to the raw record set found there.
// Implementations must be read-only.
type SourceReader interface {
	Read(ctx context.Context, sourceName string) (*RecordSet, error)
}

// FileReader reads comma-delimited measurement files with a header row from
// a fixed data directory.
type FileReader struct {
	dataDir string
}

// NewFileReader creates a FileReader rooted at dataDir.
func NewFileReader(dataDir string) *FileReader {
	return &FileReader{dataDir: dataDir}
}

// Read parses the named file into a RecordSet. It fails with KindNotFound
// when the file does not exist, KindEmptyInput when no data rows follow the
// header, and KindMalformedInput when rows cannot be parsed as CSV.
func (r *FileReader) Read(ctx context.Context, sourceName string) (*RecordSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapError(KindInternal, err, "extraction aborted")
	}

	path := filepath.Join(r.dataDir, filepath.Clean("/"+sourceName))

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, newError(KindNotFound, "source file %s does not exist", sourceName)
		}
		return nil, wrapError(KindNotFound, err, "failed to open source file %s", sourceName)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	// Rows with fewer fields than the header are missing-value rows for the
	// completeness filter, not a malformed file.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, newError(KindEmptyInput, "source file %s is empty", sourceName)
		}
		return nil, wrapError(KindMalformedInput, err, "failed to read header from %s", sourceName)
	}

	columns := make([]string, len(header))
	for i, col := range header {
		columns[i] = trimCell(col)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, wrapError(KindMalformedInput, err, "failed to parse %s as tabular data", sourceName)
		}
		rows = append(rows, record)
	}

	if len(rows) == 0 {
		return nil, newError(KindEmptyInput, "source file %s has no data rows", sourceName)
	}

	return &RecordSet{Columns: columns, Rows: rows}, nil
}
