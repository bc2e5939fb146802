package match

import (
	"sort"
	"strings"
)

// DefaultSuggestThreshold is the minimum similarity for a suggestion.
const DefaultSuggestThreshold = 0.6

// Suggestion is a known name ranked against an unknown one.
type Suggestion struct {
	Name  string
	Score float64
}

// Rank scores every known name against name and returns those at or above
// threshold, best first. Qualified names are compared both whole and by
// their last component, so "TaskStatos" finds "Task::TaskStatus".
func Rank(name string, known []string, threshold float64) []Suggestion {
	var out []Suggestion

	for _, k := range known {
		if k == name {
			continue
		}

		score := max(NameSimilarity(name, k), NameSimilarity(lastComponent(name), lastComponent(k)))
		if score >= threshold {
			out = append(out, Suggestion{Name: k, Score: score})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}

		return out[i].Name < out[j].Name
	})

	return out
}

// Suggest returns up to limit known names close to name.
func Suggest(name string, known []string, limit int) []string {
	ranked := Rank(name, known, DefaultSuggestThreshold)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]string, len(ranked))
	for i, s := range ranked {
		out[i] = s.Name
	}

	return out
}

func lastComponent(name string) string {
	if i := strings.LastIndex(name, "::"); i >= 0 {
		return name[i+2:]
	}

	return name
}
