package simulate

import (
	"math/rand/v2"

	"github.com/google/uuid"
)

// generateSubmissions picks random (member, event) pairs. With probability
// dupRate a submission reuses the key of an earlier one so the server must
// acknowledge it as a duplicate.
func generateSubmissions(rng *rand.Rand, memberIDs []string, defs []definition, n int, dupRate float64) []submission {
	subs := make([]submission, 0, n)
	for i := 0; i < n; i++ {
		if i > 0 && rng.Float64() < dupRate {
			prev := subs[rng.IntN(len(subs))]
			subs = append(subs, prev)
			continue
		}
		subs = append(subs, submission{
			MemberID: memberIDs[rng.IntN(len(memberIDs))],
			EventID:  defs[rng.IntN(len(defs))].ID,
			key:      uuid.NewString(),
		})
	}
	return subs
}
