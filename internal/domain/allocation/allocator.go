// Package allocation assigns jersey numbers to the players of a team.
//
// Allocation runs per team in two ordered passes that share one set of used
// numbers. The impact pass hands each position's impact numbers to its best
// players, picking uniformly among the impact numbers still free. The range
// pass shuffles the free allowed numbers of each position once and deals them
// out in quality order. When a position runs out of free numbers, the player
// gets a random allowed number that is already taken and the result counts a
// forced duplicate. Numbers never leave the allowed ranges.
package allocation

import (
	"slices"

	"github.com/okian/rosterfix/internal/domain/eligibility"
	"github.com/okian/rosterfix/internal/domain/roster"
)

// TeamStats counts the outcome of one team allocation.
type TeamStats struct {
	Players          int
	ImpactAssigned   int
	RangeAssigned    int
	ForcedDuplicates int
	// Unassigned counts players left at 0 because their position has no
	// rule or no allowed numbers.
	Unassigned int
	// MissingPositions lists positions of the team that have no rule.
	MissingPositions []int
}

// TeamResult is the allocation of one team. Players keep input order.
type TeamResult struct {
	Team    int
	Players []roster.Player
	Stats   TeamStats
}

// Allocator assigns jersey numbers using a fixed eligibility table.
type Allocator struct {
	table *eligibility.Table
}

// New returns an allocator over table. A nil table leaves every player unassigned.
func New(table *eligibility.Table) *Allocator {
	return &Allocator{table: table}
}

// Allocate computes fresh numbers for the players of one team. The input is
// not modified; prior numbers are ignored.
func (a *Allocator) Allocate(team []roster.Player, rng Random) TeamResult {
	players := slices.Clone(team)
	res := TeamResult{Players: players}
	res.Stats.Players = len(players)
	if len(players) > 0 {
		res.Team = players[0].Team
	}

	groups := GroupPositions(players)
	cache := eligibility.NewCache(a.table)
	used := make(map[int]struct{})
	assigned := make([]bool, len(players))

	for _, g := range groups {
		rule, ok := cache.Resolve(g.Position)
		if !ok {
			continue
		}
		res.Stats.ImpactAssigned += impactPass(players, assigned, g, rule.Impacts, used, rng)
	}

	for _, g := range groups {
		rule, ok := cache.Resolve(g.Position)
		if !ok {
			res.Stats.MissingPositions = append(res.Stats.MissingPositions, g.Position)
			continue
		}
		ranged, forced := rangePass(players, assigned, g, rule.Allowed, used, rng)
		res.Stats.RangeAssigned += ranged
		res.Stats.ForcedDuplicates += forced
	}

	for _, done := range assigned {
		if !done {
			res.Stats.Unassigned++
		}
	}
	slices.Sort(res.Stats.MissingPositions)
	return res
}

// impactPass gives the group's free impact numbers to its best players.
func impactPass(players []roster.Player, assigned []bool, g PositionGroup, impacts []int, used map[int]struct{}, rng Random) int {
	local := make([]int, 0, len(impacts))
	for _, n := range impacts {
		if _, taken := used[n]; taken || slices.Contains(local, n) {
			continue
		}
		local = append(local, n)
	}

	count := 0
	for _, idx := range g.Members {
		if len(local) == 0 {
			break
		}
		k := rng.Intn(len(local))
		pick := local[k]
		local = slices.Delete(local, k, k+1)

		players[idx].Number = pick
		assigned[idx] = true
		used[pick] = struct{}{}
		count++
	}
	return count
}

// rangePass deals the group's free allowed numbers to players without one.
// It returns the numbers dealt from the pool and the forced duplicates.
func rangePass(players []roster.Player, assigned []bool, g PositionGroup, allowed []int, used map[int]struct{}, rng Random) (int, int) {
	if len(allowed) == 0 {
		return 0, 0
	}

	pool := make([]int, 0, len(allowed))
	for _, n := range allowed {
		if _, taken := used[n]; !taken {
			pool = append(pool, n)
		}
	}
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	next, dealt, forced := 0, 0, 0
	for _, idx := range g.Members {
		if assigned[idx] {
			continue
		}
		if next < len(pool) {
			pick := pool[next]
			next++
			players[idx].Number = pick
			used[pick] = struct{}{}
			dealt++
		} else {
			// Every allowed number is taken; reuse one.
			players[idx].Number = allowed[rng.Intn(len(allowed))]
			forced++
		}
		assigned[idx] = true
	}
	return dealt, forced
}
