package allocation

import (
	"slices"

	"github.com/okian/rosterfix/internal/domain/eligibility"
	"github.com/okian/rosterfix/internal/domain/roster"
)

// Summary aggregates the stats of every team in a run.
type Summary struct {
	Teams            int
	Players          int
	ImpactAssigned   int
	RangeAssigned    int
	ForcedDuplicates int
	Unassigned       int
	MissingPositions []int
}

// Add folds one team's stats into the summary.
func (s *Summary) Add(t TeamStats) {
	s.Teams++
	s.Players += t.Players
	s.ImpactAssigned += t.ImpactAssigned
	s.RangeAssigned += t.RangeAssigned
	s.ForcedDuplicates += t.ForcedDuplicates
	s.Unassigned += t.Unassigned
	for _, p := range t.MissingPositions {
		if !slices.Contains(s.MissingPositions, p) {
			s.MissingPositions = append(s.MissingPositions, p)
		}
	}
	slices.Sort(s.MissingPositions)
}

// Summarize folds a list of team results.
func Summarize(results []TeamResult) Summary {
	var s Summary
	for _, r := range results {
		s.Add(r.Stats)
	}
	return s
}

// Report describes how far a roster is from a clean assignment.
type Report struct {
	Players int
	// OutOfRange counts non-zero numbers not allowed for the player's position,
	// including positions with no rule.
	OutOfRange int
	// Duplicates counts rows repeating a number already worn on their team.
	Duplicates int
	// Unassigned counts rows numbered 0.
	Unassigned int
}

// Clean reports whether every player has a unique, in-range number.
func (r Report) Clean() bool {
	return r.OutOfRange == 0 && r.Duplicates == 0 && r.Unassigned == 0
}

// Validate checks players against table without changing them.
func Validate(players []roster.Player, table *eligibility.Table) Report {
	rep := Report{Players: len(players)}
	worn := make(map[[2]int]struct{}, len(players))
	for _, p := range players {
		if p.Number == 0 {
			rep.Unassigned++
			continue
		}
		if table == nil || !table.Allows(p.Position, p.Number) {
			rep.OutOfRange++
		}
		key := [2]int{p.Team, p.Number}
		if _, dup := worn[key]; dup {
			rep.Duplicates++
			continue
		}
		worn[key] = struct{}{}
	}
	return rep
}
