package allocation

import (
	"cmp"
	"slices"

	"github.com/okian/rosterfix/internal/domain/roster"
)

// TeamSlice is the set of rows owned by one team.
type TeamSlice struct {
	Team    int
	Players []roster.Player
}

// PositionGroup lists the members of one position, best quality first.
// Members index into the team's player slice.
type PositionGroup struct {
	Position int
	Members  []int
}

// PartitionTeams groups players by team, keeping teams in order of first
// appearance and players in input order.
func PartitionTeams(players []roster.Player) []TeamSlice {
	index := make(map[int]int)
	var teams []TeamSlice
	for _, p := range players {
		i, ok := index[p.Team]
		if !ok {
			i = len(teams)
			index[p.Team] = i
			teams = append(teams, TeamSlice{Team: p.Team})
		}
		teams[i].Players = append(teams[i].Players, p)
	}
	return teams
}

// GroupPositions clears every number of the team and returns its position
// groups in order of first appearance. Each group is sorted by quality,
// descending; equal qualities keep input order.
func GroupPositions(players []roster.Player) []PositionGroup {
	index := make(map[int]int)
	var groups []PositionGroup
	for i := range players {
		players[i].Number = 0
		pos := players[i].Position
		g, ok := index[pos]
		if !ok {
			g = len(groups)
			index[pos] = g
			groups = append(groups, PositionGroup{Position: pos})
		}
		groups[g].Members = append(groups[g].Members, i)
	}
	for _, g := range groups {
		slices.SortStableFunc(g.Members, func(a, b int) int {
			return cmp.Compare(players[b].Quality, players[a].Quality)
		})
	}
	return groups
}

// Merge writes team results back over players by row index. Rows of teams that
// are not in results are left as they are.
func Merge(players []roster.Player, results []TeamResult) []roster.Player {
	out := slices.Clone(players)
	pos := make(map[int]int, len(out))
	for i, p := range out {
		pos[p.Index] = i
	}
	for _, r := range results {
		for _, p := range r.Players {
			if i, ok := pos[p.Index]; ok {
				out[i] = p
			}
		}
	}
	return out
}
