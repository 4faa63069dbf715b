package console

import (
	"github.com/agnivade/levenshtein"

	"github.com/aretw0/remodel/pkg/domain"
)

var keywords = []string{"switch", "reset", "advance", "color", "texture", "touch", "event", "status", "help", "quit"}

// Suggest returns the known command closest to word, or "" when nothing is
// within a third of its length (at least two edits).
func Suggest(word string) string {
	limit := max(2, len(word)/3)
	best, bestDist := "", limit+1
	consider := func(candidate string) {
		if d := levenshtein.ComputeDistance(word, candidate); d < bestDist {
			best, bestDist = candidate, d
		}
	}
	for _, a := range domain.Actions {
		consider(string(a))
	}
	for _, k := range keywords {
		consider(k)
	}
	return best
}
