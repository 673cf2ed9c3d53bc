// Package roster holds the in-memory roster table that flows through a batch run.
//
// A Table keeps every cell as text so that columns the allocator never looks at
// are written back exactly as they were read.
package roster

import (
	"fmt"
	"strconv"
	"strings"
)

// Column names the allocator depends on.
const (
	ColTeam     = "TGID"
	ColPosition = "PPOS"
	ColQuality  = "POVR"
	ColNumber   = "PJEN"
)

// RequiredColumns lists the columns a roster must carry for jersey allocation.
var RequiredColumns = []string{ColTeam, ColPosition, ColQuality, ColNumber}

// Table is a header plus string records. Column names are trimmed and upper-cased.
type Table struct {
	header  []string
	index   map[string]int
	records [][]string
}

// New builds a Table from a header and records. Records shorter than the header
// are padded with empty cells.
func New(header []string, records [][]string) *Table {
	t := &Table{
		header: make([]string, len(header)),
		index:  make(map[string]int, len(header)),
	}
	for i, h := range header {
		name := NormalizeColumn(h)
		t.header[i] = name
		if _, dup := t.index[name]; !dup {
			t.index[name] = i
		}
	}
	t.records = make([][]string, len(records))
	for i, rec := range records {
		row := make([]string, len(header))
		copy(row, rec)
		t.records[i] = row
	}
	return t
}

// NormalizeColumn trims and upper-cases a column name.
func NormalizeColumn(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Header returns a copy of the column names.
func (t *Table) Header() []string {
	out := make([]string, len(t.header))
	copy(out, t.header)
	return out
}

// Records returns the underlying records. Callers must not retain them across writes.
func (t *Table) Records() [][]string {
	return t.records
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.records)
}

// Has reports whether the column exists.
func (t *Table) Has(col string) bool {
	_, ok := t.index[NormalizeColumn(col)]
	return ok
}

// Require returns ErrMissingColumn naming every absent column.
func (t *Table) Require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

// Get returns the raw cell value.
func (t *Table) Get(row int, col string) (string, bool) {
	i, ok := t.index[NormalizeColumn(col)]
	if !ok || row < 0 || row >= len(t.records) {
		return "", false
	}
	return t.records[row][i], true
}

// Set overwrites a cell. Unknown columns are ignored and reported as false.
func (t *Table) Set(row int, col, value string) bool {
	i, ok := t.index[NormalizeColumn(col)]
	if !ok || row < 0 || row >= len(t.records) {
		return false
	}
	t.records[row][i] = value
	return true
}

// SetInt overwrites a cell with an integer value.
func (t *Table) SetInt(row int, col string, value int) bool {
	return t.Set(row, col, strconv.Itoa(value))
}

// Int parses a cell as an integer. Blank cells read as 0; values such as "12.0"
// are accepted when they hold a whole number.
func (t *Table) Int(row int, col string) (int, error) {
	raw, ok := t.Get(row, col)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingColumn, col)
	}
	n, err := ParseInt(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: row %d column %s: %q", ErrInvalidCell, row, col, raw)
	}
	return n, nil
}

// ParseInt reads an integer cell.
func ParseInt(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("not an integer: %q", raw)
	}
	return int(f), nil
}

// Player is the allocator's view of a roster row.
type Player struct {
	Index    int // row index in the source table
	Team     int
	Position int
	Quality  int
	Number   int // 0 means unassigned
}

// Players extracts the allocation columns of every row. It fails on a missing
// required column or a cell that is not an integer.
func (t *Table) Players() ([]Player, error) {
	if err := t.Require(RequiredColumns...); err != nil {
		return nil, err
	}
	players := make([]Player, len(t.records))
	for i := range t.records {
		var p Player
		var err error
		p.Index = i
		if p.Team, err = t.Int(i, ColTeam); err != nil {
			return nil, err
		}
		if p.Position, err = t.Int(i, ColPosition); err != nil {
			return nil, err
		}
		if p.Quality, err = t.Int(i, ColQuality); err != nil {
			return nil, err
		}
		if p.Number, err = t.Int(i, ColNumber); err != nil {
			return nil, err
		}
		players[i] = p
	}
	return players, nil
}

// ApplyNumbers writes each player's number back into the number column.
func (t *Table) ApplyNumbers(players []Player) error {
	if err := t.Require(ColNumber); err != nil {
		return err
	}
	for _, p := range players {
		if !t.SetInt(p.Index, ColNumber, p.Number) {
			return fmt.Errorf("%w: row %d", ErrRowOutOfRange, p.Index)
		}
	}
	return nil
}

// Project returns a new table holding only the listed columns that exist, in
// the order given.
func (t *Table) Project(cols ...string) *Table {
	var header []string
	var idx []int
	for _, c := range cols {
		if i, ok := t.index[NormalizeColumn(c)]; ok {
			header = append(header, t.header[i])
			idx = append(idx, i)
		}
	}
	records := make([][]string, len(t.records))
	for r, rec := range t.records {
		row := make([]string, len(idx))
		for j, i := range idx {
			row[j] = rec[i]
		}
		records[r] = row
	}
	return New(header, records)
}
