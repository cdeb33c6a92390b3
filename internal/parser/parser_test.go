package parser

import (
	"reflect"
	"testing"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Hello\naliases:\n  - Hi\n  - Greeting\n---\n# Hello\nBody text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(r.Aliases, []string{"Hi", "Greeting"}) {
		t.Errorf("aliases = %v, want [Hi Greeting]", r.Aliases)
	}
	if r.Body != "# Hello\nBody text.\n" {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	input := []byte("# Just a heading\nSome text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter, got %v", r.Frontmatter)
	}
	if r.Aliases != nil {
		t.Errorf("expected no aliases, got %v", r.Aliases)
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	input := []byte("---\n: invalid: yaml: {{{\n---\nBody\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter on invalid YAML")
	}
}

func TestExtractLinks_Wikilinks(t *testing.T) {
	body := "See [[Note A]] and [[Note B|alias]].\nAlso [[Note A]] again, ![[Embed]] and [[Doc#Heading]] [[Blk^abc]]."
	got := extractLinks(body)
	want := []Link{
		{Target: "Note A", Kind: KindWikilink},
		{Target: "Note B", Kind: KindWikilink},
		{Target: "Embed", Kind: KindWikilink},
		{Target: "Doc", Kind: KindWikilink},
		{Target: "Blk", Kind: KindWikilink},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("links = %+v, want %+v", got, want)
	}
}

func TestExtractLinks_EmptyTarget(t *testing.T) {
	links := extractLinks("see [[ ]] and [[|alias]] and [[#local]]")
	if len(links) != 0 {
		t.Errorf("expected no links, got %v", links)
	}
}

func TestExtractLinks_Markdown(t *testing.T) {
	body := "[a](Note.md) [b](sub/My%20Note.md#part) [c](https://example.com) [d](mailto:x@y.z) [e](#top) [f](other.md \"title\")"
	got := extractLinks(body)
	want := []Link{
		{Target: "Note.md", Kind: KindMarkdown},
		{Target: "sub/My Note.md", Kind: KindMarkdown},
		{Target: "other.md", Kind: KindMarkdown},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("links = %+v, want %+v", got, want)
	}
}

func TestExtractAliases_SingleString(t *testing.T) {
	got := extractAliases(map[string]interface{}{"alias": " Solo "})
	if !reflect.DeepEqual(got, []string{"Solo"}) {
		t.Errorf("aliases = %v", got)
	}
}
