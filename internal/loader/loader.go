package loader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Table is a rectangular dataset parsed from a CSV source. An empty Table is
// a valid, non-error result everywhere downstream.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Empty reports whether the table has no data rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// Col returns the index of the named column, matching case-insensitively on
// the trimmed header. Column presence, not position, determines field mapping.
func (t Table) Col(name string) (int, bool) {
	for i, h := range t.Headers {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i, true
		}
	}
	return 0, false
}

// Load resolves one tabular source into a Table.
//
// If upload is non-nil it is parsed as comma-delimited CSV; on success the
// prior fallback file is rotated to a timestamped backup and the upload is
// persisted in its place. A parse failure is logged and yields an empty table,
// the pipeline still runs with the remaining sources.
//
// Without an upload the fallback file is read comma-delimited first, then
// retried semicolon-delimited. A missing file is logged as a warning and
// yields an empty table.
func Load(upload []byte, fallbackPath, label string) Table {
	if upload != nil {
		t, err := parseCSV(bytes.NewReader(upload), ',')
		if err != nil {
			logrus.WithFields(logrus.Fields{"source": label}).Errorf("failed to parse upload: %v", err)
			return Table{}
		}

		if err := backupExisting(fallbackPath); err != nil {
			logrus.WithFields(logrus.Fields{"source": label}).Warnf("failed to back up previous file: %v", err)
		}
		if err := os.WriteFile(fallbackPath, upload, 0o644); err != nil {
			logrus.WithFields(logrus.Fields{"source": label}).Warnf("failed to persist upload: %v", err)
		}

		logrus.WithFields(logrus.Fields{"source": label, "rows": len(t.Rows)}).Info("source updated from upload")
		return t
	}

	data, err := os.ReadFile(fallbackPath)
	if err != nil {
		if os.IsNotExist(err) {
			logrus.WithFields(logrus.Fields{"source": label, "path": fallbackPath}).Warn("source file missing")
		} else {
			logrus.WithFields(logrus.Fields{"source": label}).Errorf("failed to read source file: %v", err)
		}
		return Table{}
	}

	t, err := parseCSV(bytes.NewReader(data), ',')
	if err == nil {
		return t
	}

	// Some exports use semicolons, retry before giving up.
	t, err = parseCSV(bytes.NewReader(data), ';')
	if err != nil {
		logrus.WithFields(logrus.Fields{"source": label}).Errorf("failed to parse source file: %v", err)
		return Table{}
	}
	return t
}

// backupExisting relocates the current fallback file to a timestamped backup
// name in the same directory. A missing file is not an error.
func backupExisting(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	timestamp := time.Now().Format("20060102_150405")
	backupName := fmt.Sprintf("backup_%s_%s", timestamp, filepath.Base(path))
	backupPath := filepath.Join(filepath.Dir(path), backupName)

	if err := os.Rename(path, backupPath); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"backup": backupName}).Info("previous source backed up")
	return nil
}

func parseCSV(r io.Reader, sep rune) (Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = sep
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, err
	}
	if len(records) == 0 {
		return Table{}, nil
	}

	headers := records[0]
	// A single unsplit header strongly suggests the wrong delimiter.
	if len(headers) == 1 && strings.ContainsRune(headers[0], pickOther(sep)) {
		return Table{}, fmt.Errorf("header not delimited by %q", sep)
	}

	return Table{Headers: headers, Rows: records[1:]}, nil
}

func pickOther(sep rune) rune {
	if sep == ',' {
		return ';'
	}
	return ','
}
