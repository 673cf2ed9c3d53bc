// Package eligibility resolves which jersey numbers a position may wear.
//
// Each position has an ordered list of impact numbers, which are handed out
// first, and a list of inclusive ranges that define every allowed number.
// Numbers lie in [0, MaxNumber]. 0 marks an unassigned row, so it may appear
// in a range but is never handed out. A Table is immutable once built and
// safe for concurrent readers.
package eligibility

import (
	"fmt"
	"slices"
	"sort"
)

// Range is an inclusive pair of jersey numbers.
type Range struct {
	Lo int
	Hi int
}

// Rule holds the eligibility of one position.
type Rule struct {
	Impact []int
	Ranges []Range
}

// Resolved is a rule flattened for allocation. Allowed holds each covered
// number once, in configured order.
type Resolved struct {
	Impacts []int
	Allowed []int
}

// MaxNumber is the highest jersey number a rule may name.
const MaxNumber = 9999

// Unassigned is the number of a row without a jersey.
const Unassigned = 0

// Validate checks that lo <= hi and both lie in [0, MaxNumber].
func (r Range) Validate() error {
	if r.Lo < 0 || r.Hi > MaxNumber || r.Lo > r.Hi {
		return fmt.Errorf("%w: [%d, %d]", ErrInvalidRange, r.Lo, r.Hi)
	}
	return nil
}

// Flatten expands inclusive ranges into every number they cover, in
// configured order. Overlapping ranges yield repeated numbers.
func Flatten(ranges []Range) ([]int, error) {
	size := 0
	for _, r := range ranges {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		size += r.Hi - r.Lo + 1
	}
	out := make([]int, 0, size)
	for _, r := range ranges {
		for n := r.Lo; n <= r.Hi; n++ {
			out = append(out, n)
		}
	}
	return out, nil
}

// Contains reports whether n falls inside one of the rule's ranges.
func (r Rule) Contains(n int) bool {
	for _, rg := range r.Ranges {
		if n >= rg.Lo && n <= rg.Hi {
			return true
		}
	}
	return false
}

// StrayImpacts returns the impact numbers that fall outside every range.
func (r Rule) StrayImpacts() []int {
	var out []int
	for _, n := range r.Impact {
		if !r.Contains(n) {
			out = append(out, n)
		}
	}
	return out
}

// Empty reports whether the rule names no number at all.
func (r Rule) Empty() bool {
	return len(r.Ranges) == 0 && len(r.Impact) == 0
}

// Table maps position codes to rules.
type Table struct {
	rules map[int]Rule
}

// NewTable validates every rule and returns an immutable table. Empty rules
// are dropped, leaving their positions unconfigured.
func NewTable(rules map[int]Rule) (*Table, error) {
	t := &Table{rules: make(map[int]Rule, len(rules))}
	for pos, rule := range rules {
		if rule.Empty() {
			continue
		}
		if _, err := Flatten(rule.Ranges); err != nil {
			return nil, fmt.Errorf("position %d: %w", pos, err)
		}
		for _, n := range rule.Impact {
			if n < 0 || n > MaxNumber {
				return nil, fmt.Errorf("position %d: %w: impact %d", pos, ErrInvalidRule, n)
			}
		}
		t.rules[pos] = Rule{
			Impact: slices.Clone(rule.Impact),
			Ranges: slices.Clone(rule.Ranges),
		}
	}
	return t, nil
}

// Rule returns the rule of a position.
func (t *Table) Rule(pos int) (Rule, bool) {
	r, ok := t.rules[pos]
	return r, ok
}

// Positions returns the configured position codes in ascending order.
func (t *Table) Positions() []int {
	out := make([]int, 0, len(t.rules))
	for pos := range t.rules {
		out = append(out, pos)
	}
	sort.Ints(out)
	return out
}

// Len returns the number of configured positions.
func (t *Table) Len() int {
	return len(t.rules)
}

// Allows reports whether number is in range for pos.
func (t *Table) Allows(pos, number int) bool {
	r, ok := t.rules[pos]
	return ok && r.Contains(number)
}

// Resolve returns the impacts and flattened allowed numbers of a position,
// without Unassigned. The boolean is false when the position has no rule.
func (t *Table) Resolve(pos int) (Resolved, bool) {
	r, ok := t.rules[pos]
	if !ok {
		return Resolved{}, false
	}
	// Ranges were validated by NewTable.
	flat, _ := Flatten(r.Ranges)
	seen := make(map[int]struct{}, len(flat))
	allowed := flat[:0]
	for _, n := range flat {
		if _, dup := seen[n]; dup || n == Unassigned {
			continue
		}
		seen[n] = struct{}{}
		allowed = append(allowed, n)
	}
	impacts := make([]int, 0, len(r.Impact))
	for _, n := range r.Impact {
		if n != Unassigned {
			impacts = append(impacts, n)
		}
	}
	return Resolved{Impacts: impacts, Allowed: allowed}, true
}

type cacheEntry struct {
	resolved Resolved
	ok       bool
}

// Cache memoizes resolutions for the lifetime of one team allocation.
// It is not safe for concurrent use.
type Cache struct {
	table   *Table
	entries map[int]cacheEntry
}

// NewCache returns an empty cache over table.
func NewCache(table *Table) *Cache {
	return &Cache{table: table, entries: make(map[int]cacheEntry)}
}

// Resolve returns the cached resolution of pos, computing it on first use.
func (c *Cache) Resolve(pos int) (Resolved, bool) {
	if e, hit := c.entries[pos]; hit {
		return e.resolved, e.ok
	}
	var e cacheEntry
	if c.table != nil {
		e.resolved, e.ok = c.table.Resolve(pos)
	}
	c.entries[pos] = e
	return e.resolved, e.ok
}
