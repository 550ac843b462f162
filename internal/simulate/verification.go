package simulate

import (
	"fmt"
	"sort"
	"strings"
)

// verifyScores checks that every player's score changed by exactly the points
// of the entries logged for it during the run.
func verifyScores(before, after []player, applied map[string]int) error {
	start := make(map[string]int, len(before))
	for _, p := range before {
		start[p.Name] = p.Score
	}

	var problems []string
	for _, p := range after {
		want := start[p.Name] + applied[p.Name]
		if p.Score != want {
			problems = append(problems, fmt.Sprintf("%s: score %d, want %d", p.Name, p.Score, want))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return fmt.Errorf("score mismatch: %s", strings.Join(problems, "; "))
}
