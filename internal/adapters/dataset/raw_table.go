package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	pkgerrors "github.com/zatekoja/facilityinsight/pkg/errors"
)

// RawTable is the dataset as raw rows, preserving the source header order.
// Used by the geocode backfill, which rewrites the file rather than working
// on parsed records.
type RawTable struct {
	Path   string
	Header []string
	Rows   []map[string]string
}

// LoadRaw reads the base (non-geocoded) dataset as raw rows. Unlike Load,
// a missing file is an error here: the backfill has nothing to do without one.
func (s *Store) LoadRaw() (*RawTable, error) {
	path := s.resolvePath(false)
	if path == "" {
		return nil, pkgerrors.NewDataUnavailableError("no facility CSV found in configured locations")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to open facility CSV", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to read CSV header", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []map[string]string
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(fields) {
				row[col] = fields[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}

	return &RawTable{Path: path, Header: header, Rows: rows}, nil
}

// GeocodedPath is the sibling path the geocoded variant is written to,
// "<stem><suffix><ext>" next to the source file.
func (t *RawTable) GeocodedPath(suffix string) string {
	ext := filepath.Ext(t.Path)
	stem := strings.TrimSuffix(t.Path, ext)
	return stem + suffix + ext
}

// WriteTo writes the table to path with latitude/longitude columns appended
// to the header when the source lacked them.
func (t *RawTable) WriteTo(path string, extraColumns ...string) error {
	header := make([]string, len(t.Header))
	copy(header, t.Header)
	for _, col := range extraColumns {
		found := false
		for _, h := range header {
			if h == col {
				found = true
				break
			}
		}
		if !found {
			header = append(header, col)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return pkgerrors.NewInternalError("failed to create output CSV", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return pkgerrors.NewInternalError("failed to write CSV header", err)
	}
	for _, row := range t.Rows {
		fields := make([]string, len(header))
		for i, col := range header {
			fields[i] = row[col]
		}
		if err := w.Write(fields); err != nil {
			return pkgerrors.NewInternalError("failed to write CSV row", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return pkgerrors.NewInternalError("failed to flush output CSV", err)
	}
	return nil
}
