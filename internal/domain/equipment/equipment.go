// Package equipment applies per-row equipment rules to a roster.
//
// Global rules run first on every row: listed columns are forced to zero or
// to a fixed value, and the sock column gets a random value. Then one
// template matching the row's position, chosen at random, overwrites the
// template columns it defines.
package equipment

import (
	"fmt"
	"strconv"

	"github.com/okian/rosterfix/internal/domain/roster"
)

// Columns driven by the global rules.
const (
	HelmetColumn = "PHLM"
	SockColumn   = "PLSO"
)

// TemplateFields are the only columns a template may change.
var TemplateFields = []string{"PLSL", "PRSL", "PLWR", "PRWR", "PLBB", "PRBB", "PLFB", "PRFB"}

// Random picks uniformly in [0, n).
type Random interface {
	Intn(n int) int
}

// Rules are the global per-row rules.
type Rules struct {
	ForceZero  []string
	ForceValue map[string]int
	// SockColumn receives a random value in [0, SockMax] when SockMax >= 0.
	SockColumn string
	SockMax    int
}

// DefaultRules returns the rules used when configuration does not override them.
func DefaultRules() Rules {
	return Rules{
		ForceZero: []string{
			"PLEL", "PREL", // elbows
			"PFLK",         // flak jacket
			"PJER",         // sleeves
			"PRCB", "PLCB", // calf braces
			"PLKL", "PRKL", // locked knee braces
			"PLKN", "PRKN", // knee pads
		},
		ForceValue: map[string]int{HelmetColumn: 5},
		SockColumn: SockColumn,
		SockMax:    2,
	}
}

// Template is one equipment look, usable by the listed positions.
type Template struct {
	Name      string
	Positions []int
	Values    map[string]int
}

// Stats counts what a pass over the roster changed.
type Stats struct {
	Rows             int
	TemplatesApplied int
	TemplatesMissing int
}

// Applier applies rules and templates. It is safe for concurrent use when
// each caller supplies its own Random.
type Applier struct {
	rules     Rules
	templates []Template
	byPos     map[int][]int
}

// NewApplier indexes templates by position.
func NewApplier(rules Rules, templates []Template) *Applier {
	a := &Applier{rules: rules, templates: templates, byPos: make(map[int][]int)}
	for i, t := range templates {
		for _, pos := range t.Positions {
			a.byPos[pos] = append(a.byPos[pos], i)
		}
	}
	return a
}

// ApplyGlobal applies the global rules to one row. Absent columns are skipped.
func (a *Applier) ApplyGlobal(t *roster.Table, row int, rng Random) {
	for _, col := range a.rules.ForceZero {
		t.SetInt(row, col, 0)
	}
	for col, v := range a.rules.ForceValue {
		t.SetInt(row, col, v)
	}
	if a.rules.SockColumn != "" && a.rules.SockMax >= 0 && t.Has(a.rules.SockColumn) {
		t.SetInt(row, a.rules.SockColumn, rng.Intn(a.rules.SockMax+1))
	}
}

// ApplyTemplate overwrites the row with one random template for pos. It
// returns the chosen template name, or false when none matches.
func (a *Applier) ApplyTemplate(t *roster.Table, row, pos int, rng Random) (string, bool) {
	idx := a.byPos[pos]
	if len(idx) == 0 {
		return "", false
	}
	chosen := a.templates[idx[rng.Intn(len(idx))]]
	for _, col := range TemplateFields {
		if v, ok := chosen.Values[col]; ok {
			t.Set(row, col, strconv.Itoa(v))
		}
	}
	return chosen.Name, true
}

// Apply runs global rules then templates over every row, in row order.
func (a *Applier) Apply(t *roster.Table, rng Random) (Stats, error) {
	stats := Stats{Rows: t.Len()}
	hasPos := t.Has(roster.ColPosition)
	for row := 0; row < t.Len(); row++ {
		a.ApplyGlobal(t, row, rng)
		if !hasPos {
			continue
		}
		pos, err := t.Int(row, roster.ColPosition)
		if err != nil {
			return stats, fmt.Errorf("apply equipment: %w", err)
		}
		if _, ok := a.ApplyTemplate(t, row, pos, rng); ok {
			stats.TemplatesApplied++
		} else {
			stats.TemplatesMissing++
		}
	}
	return stats, nil
}
