package index

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/parser"
)

// LinkGraph returns a snapshot of the resolved link graph: every indexed note
// mapped to the set of note paths it links to. Targets that do not resolve to
// an indexed note are left out.
func (db *DB) LinkGraph() (models.LinkGraph, error) {
	r, err := db.loadResolver()
	if err != nil {
		return nil, err
	}

	rows, err := db.conn.Query(`SELECT source, target, kind FROM links`)
	if err != nil {
		return nil, fmt.Errorf("index: link graph: %w", err)
	}
	defer rows.Close()

	graph := make(models.LinkGraph)
	for rows.Next() {
		var source, target, kind string
		if err := rows.Scan(&source, &target, &kind); err != nil {
			return nil, err
		}
		resolved := r.resolve(source, target, kind)
		if resolved == "" {
			continue
		}
		set, ok := graph[source]
		if !ok {
			set = make(map[string]struct{})
			graph[source] = set
		}
		set[resolved] = struct{}{}
	}
	return graph, rows.Err()
}

// resolver maps raw link targets to note paths.
type resolver struct {
	byPath     map[string]string   // lower path -> path
	byNoExt    map[string]string   // lower path without .md -> path
	byBasename map[string][]string // lower basename -> paths, preferred first
	byAlias    map[string][]string // lower alias -> paths, preferred first
}

func (db *DB) loadResolver() (*resolver, error) {
	rows, err := db.conn.Query(`SELECT path, aliases FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: load notes: %w", err)
	}
	defer rows.Close()

	r := &resolver{
		byPath:     make(map[string]string),
		byNoExt:    make(map[string]string),
		byBasename: make(map[string][]string),
		byAlias:    make(map[string][]string),
	}
	for rows.Next() {
		var p, aliasesJSON string
		if err := rows.Scan(&p, &aliasesJSON); err != nil {
			return nil, err
		}
		ref := models.NewDocumentRef(p)
		r.byPath[strings.ToLower(p)] = p
		r.byNoExt[strings.ToLower(ref.PathNoExt())] = p
		base := strings.ToLower(ref.Basename)
		r.byBasename[base] = append(r.byBasename[base], p)

		var aliases []string
		_ = json.Unmarshal([]byte(aliasesJSON), &aliases)
		for _, a := range aliases {
			key := strings.ToLower(a)
			r.byAlias[key] = append(r.byAlias[key], p)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, m := range []map[string][]string{r.byBasename, r.byAlias} {
		for _, paths := range m {
			sortPreferred(paths)
		}
	}
	return r, nil
}

// sortPreferred orders candidate paths shortest first, then lexically.
func sortPreferred(paths []string) {
	sort.Slice(paths, func(i, j int) bool {
		if len(paths[i]) != len(paths[j]) {
			return len(paths[i]) < len(paths[j])
		}
		return paths[i] < paths[j]
	})
}

// resolve returns the note path a link from source points at, or "".
func (r *resolver) resolve(source, target, kind string) string {
	if kind == parser.KindMarkdown {
		// Markdown destinations are relative to the linking note first.
		rel := path.Join(path.Dir(source), target)
		if p := r.exact(rel); p != "" {
			return p
		}
	}
	if p := r.exact(strings.TrimPrefix(target, "/")); p != "" {
		return p
	}
	if strings.Contains(target, "/") {
		return ""
	}
	base := strings.ToLower(strings.TrimSuffix(target, ".md"))
	if paths := r.byBasename[base]; len(paths) > 0 {
		return paths[0]
	}
	if paths := r.byAlias[strings.ToLower(target)]; len(paths) > 0 {
		return paths[0]
	}
	return ""
}

// exact matches a vault path with or without its .md extension.
func (r *resolver) exact(p string) string {
	key := strings.ToLower(path.Clean(p))
	if found, ok := r.byPath[key]; ok {
		return found
	}
	if found, ok := r.byNoExt[key]; ok {
		return found
	}
	return ""
}
