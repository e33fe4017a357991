package matching

// Filter narrows an already ranked match list. It never rescores.
type Filter struct {
	MinMatchScore       float64  `json:"minMatchScore"`
	PreferredTimezone   string   `json:"preferredTimezone"`
	PreferredCategories []string `json:"preferredCategories"`
	ActivityMin         float64  `json:"activityMin"`
	ActivityMax         float64  `json:"activityMax"`
}

func DefaultFilter() Filter {
	return Filter{MinMatchScore: 60, ActivityMin: 0, ActivityMax: 100}
}

// FilterByCriteria keeps the matches that satisfy every set constraint,
// preserving rank order.
func FilterByCriteria(matches []Match, f Filter) []Match {
	out := make([]Match, 0, len(matches))
	for _, m := range matches {
		if m.MatchScore < f.MinMatchScore {
			continue
		}
		if f.PreferredTimezone != "" && m.Timezone != f.PreferredTimezone {
			continue
		}
		if len(f.PreferredCategories) > 0 && !sharesAny(m.CommonCategories, f.PreferredCategories) {
			continue
		}
		activity := m.MatchingCriteria.ActivityLevel
		if activity < f.ActivityMin || activity > f.ActivityMax {
			continue
		}
		out = append(out, m)
	}
	return out
}

func sharesAny(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}
