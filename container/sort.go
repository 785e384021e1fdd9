package container

import (
	"sort"
	"strings"

	"github.com/maruel/natural"
)

// sortEntries orders entry names in case-insensitive natural order, so that
// numeric runs compare as numbers ("2.png" before "10.png").
func sortEntries(entries []string) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := strings.ToLower(entries[i]), strings.ToLower(entries[j])
		if a == b {
			return entries[i] < entries[j]
		}
		return natural.Less(a, b)
	})
}
