package eligibility

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Keys of a raw position entry.
const (
	keyRanges = "ranges"
	keyImpact = "impact"
)

// Parse builds a Table from decoded configuration shaped as
//
//	{"3": {"ranges": [[1, 20]], "impact": [7, 12]}}
//
// Bounds and impact numbers must be integers in [0, MaxNumber]; anything
// else is a configuration error. An entry naming no ranges and no impacts
// leaves its position unconfigured.
func Parse(raw map[string]any) (*Table, error) {
	rules := make(map[int]Rule, len(raw))
	for key, value := range raw {
		pos, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("%w: position key %q", ErrInvalidRule, key)
		}
		entry, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: position %d: entry is %T", ErrInvalidRule, pos, value)
		}
		rule, err := parseRule(entry)
		if err != nil {
			return nil, fmt.Errorf("position %d: %w", pos, err)
		}
		rules[pos] = rule
	}
	return NewTable(rules)
}

func parseRule(entry map[string]any) (Rule, error) {
	var rule Rule

	if v, ok := entry[keyRanges]; ok && v != nil {
		pairs, ok := v.([]any)
		if !ok {
			return Rule{}, fmt.Errorf("%w: ranges is %T", ErrInvalidRule, v)
		}
		for _, p := range pairs {
			pair, ok := p.([]any)
			if !ok || len(pair) != 2 {
				return Rule{}, fmt.Errorf("%w: %v", ErrInvalidRange, p)
			}
			lo, okLo := asInt(pair[0])
			hi, okHi := asInt(pair[1])
			if !okLo || !okHi {
				return Rule{}, fmt.Errorf("%w: %v, %v", ErrInvalidRange, pair[0], pair[1])
			}
			rg := Range{Lo: lo, Hi: hi}
			if err := rg.Validate(); err != nil {
				return Rule{}, err
			}
			rule.Ranges = append(rule.Ranges, rg)
		}
	}

	if v, ok := entry[keyImpact]; ok && v != nil {
		list, ok := v.([]any)
		if !ok {
			return Rule{}, fmt.Errorf("%w: impact is %T", ErrInvalidRule, v)
		}
		for _, item := range list {
			n, ok := asInt(item)
			if !ok || n < 0 || n > MaxNumber {
				return Rule{}, fmt.Errorf("%w: impact value %v", ErrInvalidRule, item)
			}
			rule.Impact = append(rule.Impact, n)
		}
	}

	return rule, nil
}

// asInt accepts the integer kinds produced by YAML and JSON decoders.
// Floats are rejected even when whole.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		if n < math.MinInt || n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case uint64:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
