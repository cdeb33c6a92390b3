// Package backlink finds the notes that link to a target note and the exact
// lines that carry those links.
package backlink

import (
	"sort"

	"github.com/starford/ansuz/internal/models"
)

// FindLinkingSources returns every source in graph whose target set contains
// target.Path. The result is sorted by path; a nil graph yields nil.
func FindLinkingSources(target models.DocumentRef, graph models.LinkGraph) []string {
	var out []string
	for source, targets := range graph {
		if _, ok := targets[target.Path]; ok {
			out = append(out, source)
		}
	}
	sort.Strings(out)
	return out
}
