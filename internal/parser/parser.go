// Package parser extracts frontmatter aliases, wikilinks, and markdown links
// from note content.
package parser

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Link kinds.
const (
	KindWikilink = "wikilink"
	KindMarkdown = "markdown"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
	mdLinkRe   = regexp.MustCompile(`\[[^\]]*\]\(([^)\s]+)(?:\s+"[^"]*")?\)`)
	schemeRe   = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*:`)
)

// Link is an unresolved outgoing reference as written in the note.
type Link struct {
	Target string
	Kind   string
}

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]interface{}
	Body        string
	Links       []Link
	Aliases     []string
}

// Parse extracts frontmatter, body, aliases, and outgoing links from raw Markdown bytes.
func Parse(data []byte) (*Result, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	return &Result{
		Frontmatter: fm,
		Body:        body,
		Links:       extractLinks(body),
		Aliases:     extractAliases(fm),
	}, nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (map[string]interface{}, string, error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		// No closing delimiter: everything is body.
		return nil, string(data), nil
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]interface{}
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Invalid YAML: body only.
		return nil, string(data), nil
	}

	return fm, body, nil
}

// extractLinks returns deduplicated link targets in order of first appearance.
func extractLinks(body string) []Link {
	seen := make(map[Link]struct{})
	var out []Link
	add := func(l Link) {
		if l.Target == "" {
			return
		}
		if _, ok := seen[l]; ok {
			return
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}

	for _, m := range wikilinkRe.FindAllStringSubmatch(body, -1) {
		add(Link{Target: wikiTarget(m[1]), Kind: KindWikilink})
	}
	for _, m := range mdLinkRe.FindAllStringSubmatch(body, -1) {
		add(Link{Target: markdownTarget(m[1]), Kind: KindMarkdown})
	}
	return out
}

// wikiTarget strips the alias and any heading or block subpath: [[Target#h|Alias]] -> Target.
func wikiTarget(raw string) string {
	if i := strings.Index(raw, "|"); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(stripSubpath(raw))
}

// markdownTarget decodes a markdown link destination, returning "" for URLs
// and same-note anchors.
func markdownTarget(raw string) string {
	if schemeRe.MatchString(raw) {
		return ""
	}
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	return strings.TrimSpace(stripSubpath(raw))
}

func stripSubpath(s string) string {
	if i := strings.IndexAny(s, "#^"); i >= 0 {
		return s[:i]
	}
	return s
}

// extractAliases reads the "aliases" (or "alias") frontmatter field, which may
// be a list or a single string.
func extractAliases(fm map[string]interface{}) []string {
	if fm == nil {
		return nil
	}
	var out []string
	seen := make(map[string]struct{})
	for _, key := range []string{"aliases", "alias"} {
		raw, ok := fm[key]
		if !ok {
			continue
		}
		var items []interface{}
		switch v := raw.(type) {
		case []interface{}:
			items = v
		case string:
			items = []interface{}{v}
		}
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				continue
			}
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
