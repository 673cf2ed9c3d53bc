// Package csvio reads and writes roster CSV files.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/okian/rosterfix/internal/domain/roster"
)

// TimestampLayout formats the timestamp embedded in output file names.
const TimestampLayout = "20060102_150405"

// AuditColumns are the audit export columns, in export order.
var AuditColumns = []string{
	roster.ColTeam, roster.ColPosition, roster.ColNumber, "PFNA", "PLNA", roster.ColQuality,
}

// Read decodes a roster from r. A leading UTF-8 byte order mark is dropped and
// column names are normalized.
func Read(r io.Reader) (*roster.Table, error) {
	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrMalformed, err)
	}

	var records [][]string
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		if len(rec) > len(header) {
			return nil, fmt.Errorf("%w: line %d has %d fields, header has %d", ErrMalformed, line, len(rec), len(header))
		}
		records = append(records, rec)
	}
	return roster.New(header, records), nil
}

// ReadRoster reads the roster CSV at path.
func ReadRoster(path string) (*roster.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer func() { _ = f.Close() }()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Write encodes t as CSV to w, header first.
func Write(w io.Writer, t *roster.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header()); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Records()); err != nil {
		return err
	}
	return cw.Error()
}

// WriteRoster writes t to path, creating the parent directory when needed.
// The file is written under a temporary name and renamed into place, so path
// is either complete or absent.
func WriteRoster(path string, t *roster.Table) error {
	if err := writeFile(path, t); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}
	return nil
}

func writeFile(path string, t *roster.Table) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()

	err = Write(f, t)
	err = multierr.Append(err, f.Close())
	if err != nil {
		return err
	}
	if err := os.Chmod(f.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// WriteAudit writes the audit projection of t into dir and returns its path.
// Audit columns missing from t are left out.
func WriteAudit(dir string, t *roster.Table, ts time.Time) (string, error) {
	path := AuditPath(dir, ts)
	if err := WriteRoster(path, t.Project(AuditColumns...)); err != nil {
		return "", err
	}
	return path, nil
}

// Outputs are the files written for one run. AuditPath is empty when the
// audit is disabled.
type Outputs struct {
	RosterPath string
	AuditPath  string
}

// WriteOutputs writes the updated roster and, when audit is set, the audit
// into dir. On failure no output of the run is left behind.
func WriteOutputs(dir string, t *roster.Table, ts time.Time, audit bool) (Outputs, error) {
	out := Outputs{RosterPath: OutputPath(dir, ts)}
	if err := WriteRoster(out.RosterPath, t); err != nil {
		return Outputs{}, err
	}
	if !audit {
		return out, nil
	}
	path, err := WriteAudit(dir, t, ts)
	if err != nil {
		return Outputs{}, multierr.Append(err, os.Remove(out.RosterPath))
	}
	out.AuditPath = path
	return out, nil
}

// OutputPath returns the updated roster path for a run started at ts.
func OutputPath(dir string, ts time.Time) string {
	return filepath.Join(dir, "updated_roster_"+ts.Format(TimestampLayout)+".csv")
}

// AuditPath returns the audit path for a run started at ts.
func AuditPath(dir string, ts time.Time) string {
	return filepath.Join(dir, "jersey_audit_"+ts.Format(TimestampLayout)+".csv")
}

// FindFirstCSV returns the first file in dir, by name, with a .csv extension
// in any case.
func FindFirstCSV(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoInput, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoInput, dir)
	}
	slices.Sort(names)
	return filepath.Join(dir, names[0]), nil
}
