package equipment

import (
	"fmt"
	"slices"
)

// ParseTemplates builds templates from a decoded list of objects shaped as
//
//	{"name": "...", "positions": [3, 4], "PLSL": 1, ...}
//
// Entries that are not objects or carry no positions list are ignored, as are
// keys outside TemplateFields. A template value that is not an integer is an
// error.
func ParseTemplates(raw []any) ([]Template, error) {
	var out []Template
	for i, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		list, ok := entry["positions"].([]any)
		if !ok {
			continue
		}

		t := Template{Values: make(map[string]int)}
		if name, ok := entry["name"].(string); ok {
			t.Name = name
		} else {
			t.Name = fmt.Sprintf("template-%d", i)
		}
		for _, p := range list {
			if pos, ok := p.(int); ok {
				t.Positions = append(t.Positions, pos)
			}
		}
		for key, v := range entry {
			if !slices.Contains(TemplateFields, key) {
				continue
			}
			n, ok := v.(int)
			if !ok {
				return nil, fmt.Errorf("%w: %s.%s = %v", ErrInvalidTemplate, t.Name, key, v)
			}
			t.Values[key] = n
		}
		out = append(out, t)
	}
	return out, nil
}
