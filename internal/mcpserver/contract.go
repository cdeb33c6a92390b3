package mcpserver

// LinkSyntax describes which references count as a backlink. It is served
// as a resource so LLM consumers can write links the panel will pick up.
const LinkSyntax = `# Ansuz Link Syntax

A line of a note is listed under the backlinks of ` + "`" + `folder/Target.md` + "`" + ` when the
note links to it in the link index AND the line itself contains one of:

| Form | Example |
|---|---|
| Wikilink by name | ` + "`" + `[[Target]]` + "`" + ` |
| Wikilink by name with alias | ` + "`" + `[[Target|shown text]]` + "`" + ` |
| Wikilink by path | ` + "`" + `[[folder/Target]]` + "`" + ` |
| Wikilink by path with alias | ` + "`" + `[[folder/Target|shown text]]` + "`" + ` |
| Markdown link by path | ` + "`" + `[text](folder/Target.md)` + "`" + ` |
| Markdown link by file name | ` + "`" + `[text](Target.md)` + "`" + ` |

Matching ignores case. Headings and block references (` + "`" + `[[Target#Section]]` + "`" + `) resolve
in the link index but do not match a line; link to the note itself on the line you want listed.

Frontmatter ` + "`" + `aliases` + "`" + ` let ` + "`" + `[[Other name]]` + "`" + ` resolve to a note in the index.

## Tasks

Lines of the form ` + "`" + `- [ ] text` + "`" + ` or ` + "`" + `- [x] text` + "`" + ` (also ` + "`" + `*` + "`" + `, ` + "`" + `+` + "`" + `, ` + "`" + `1.` + "`" + `, ` + "`" + `1)` + "`" + `
markers) can be checked and unchecked with the ` + "`" + `toggle_checkbox` + "`" + ` tool using the line
number reported by ` + "`" + `get_backlinks` + "`" + `.
`
