package todo

import (
	"fmt"
	"strings"
)

// Filter selects active tasks by priority.
type Filter string

const (
	FilterAll        Filter = "all"
	FilterNoPriority Filter = "none"
	FilterLow        Filter = "low"
	FilterMedium     Filter = "medium"
	FilterHigh       Filter = "high"
)

// Filters lists the filters in cycling order.
var Filters = []Filter{FilterAll, FilterNoPriority, FilterLow, FilterMedium, FilterHigh}

// ParseFilter parses a filter name. Empty input selects FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "none", "no-priority", "-":
		return FilterNoPriority, nil
	case "low", "l":
		return FilterLow, nil
	case "medium", "med", "m":
		return FilterMedium, nil
	case "high", "h":
		return FilterHigh, nil
	}
	return FilterAll, &ValidationError{Field: "filter", Err: fmt.Errorf("unknown filter %q", s)}
}

// Match reports whether t passes the filter.
func (f Filter) Match(t Task) bool {
	switch f {
	case FilterAll, "":
		return true
	case FilterNoPriority:
		return t.Priority == PriorityNone
	default:
		return t.Priority == Priority(f)
	}
}

// Next returns the filter after f in cycling order.
func (f Filter) Next() Filter {
	for i, candidate := range Filters {
		if candidate == f {
			return Filters[(i+1)%len(Filters)]
		}
	}
	return FilterAll
}

// Label returns a human-readable label.
func (f Filter) Label() string {
	switch f {
	case FilterAll, "":
		return "all"
	case FilterNoPriority:
		return "no priority"
	}
	return string(f)
}
