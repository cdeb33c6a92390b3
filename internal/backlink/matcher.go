package backlink

import (
	"strings"

	"github.com/starford/ansuz/internal/models"
)

// FindMatchingLines scans text line by line and returns every line that
// references target through a wikilink or an inline markdown link.
//
// Matching is case-insensitive substring containment, not parsing: a basename
// that occurs inside an unrelated link can produce false positives, and links
// written with a different target spelling are missed.
func FindMatchingLines(text string, target models.DocumentRef) []models.MatchingLine {
	if text == "" {
		return nil
	}
	needles := linkNeedles(target)

	var out []models.MatchingLine
	for i, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		for _, n := range needles {
			if strings.Contains(lower, n) {
				out = append(out, models.MatchingLine{
					LineNumber: i + 1,
					Content:    strings.TrimSpace(line),
				})
				break
			}
		}
	}
	return out
}

// linkNeedles returns the lower-cased substrings that mark a reference to target.
func linkNeedles(target models.DocumentRef) []string {
	base := strings.ToLower(target.Basename)
	noExt := strings.ToLower(target.PathNoExt())
	full := strings.ToLower(target.Path)
	return []string{
		// wikilink family
		"[[" + base + "]]",
		"[[" + base + "|",
		"[[" + noExt + "]]",
		"[[" + noExt + "|",
		// inline-link family
		"](" + full + ")",
		"](" + base + ".md)",
	}
}
