package noteservice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/testutil"
)

func setup(t *testing.T, notes map[string]string) (*Service, storage.Provider, *index.DB) {
	t.Helper()
	env := testutil.NewEnv(t)
	for p, body := range notes {
		env.WriteNote(t, p, body)
	}
	return NewService(env.Store, env.DB), env.Store, env.DB
}

func TestBacklinks(t *testing.T) {
	svc, _, _ := setup(t, map[string]string{
		"Note.md":        "# Note\n",
		"Banana.md":      "intro\nsee [[Note]]\n",
		"daily/apple.md": "- [ ] read [[Note|the note]]\n",
		"cherry.md":      "nothing here\n",
	})

	target, res, err := svc.Backlinks(context.Background(), "Note.md")
	require.NoError(t, err)
	assert.Equal(t, "Note", target.Basename)
	require.Len(t, res, 2)
	assert.Equal(t, "daily/apple.md", res[0].SourcePath)
	assert.Equal(t, "Banana.md", res[1].SourcePath)
	assert.Equal(t, 2, res[1].MatchingLines[0].LineNumber)
	assert.Equal(t, "see [[Note]]", res[1].MatchingLines[0].Content)
}

func TestBacklinks_UnknownTarget(t *testing.T) {
	svc, _, _ := setup(t, nil)
	_, _, err := svc.Backlinks(context.Background(), "missing.md")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestView(t *testing.T) {
	svc, _, _ := setup(t, map[string]string{
		"Note.md": "body\n",
		"a.md":    "- [x] ship [[Note]]\n",
	})

	v, err := svc.View(context.Background(), "Note.md")
	require.NoError(t, err)
	assert.Equal(t, 1, v.Count)
	require.Len(t, v.Entries[0].Lines, 1)
	require.NotNil(t, v.Entries[0].Lines[0].Checked)
	assert.True(t, *v.Entries[0].Lines[0].Checked)
}

func TestOpenNote_ClampsLine(t *testing.T) {
	svc, _, _ := setup(t, map[string]string{"a.md": "one\ntwo\nthree"})
	ctx := context.Background()

	loc, err := svc.OpenNote(ctx, "a.md", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, loc.Line)
	assert.Equal(t, 3, loc.LineCount)
	assert.Equal(t, "a", loc.Basename)

	loc, err = svc.OpenNote(ctx, "a.md", 99)
	require.NoError(t, err)
	assert.Equal(t, 3, loc.Line)

	loc, err = svc.OpenNote(ctx, "a.md", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, loc.Line)

	_, err = svc.OpenNote(ctx, "nope.md", 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestToggleCheckbox(t *testing.T) {
	svc, store, db := setup(t, map[string]string{
		"Note.md": "body\n",
		"a.md":    "title\n- [ ] task for [[Note]]\n",
	})
	ctx := context.Background()
	before, err := db.GetChecksum("a.md")
	require.NoError(t, err)

	changed, err := svc.ToggleCheckbox(ctx, "a.md", 2, true)
	require.NoError(t, err)
	assert.True(t, changed)

	data, err := store.Read("a.md")
	require.NoError(t, err)
	assert.Equal(t, "title\n- [x] task for [[Note]]\n", string(data))

	after, err := db.GetChecksum("a.md")
	require.NoError(t, err)
	assert.NotEqual(t, before, after, "note must be re-indexed after the write")

	changed, err = svc.ToggleCheckbox(ctx, "a.md", 2, true)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = svc.ToggleCheckbox(ctx, "a.md", 1, true)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestToggleCheckbox_Errors(t *testing.T) {
	svc, _, _ := setup(t, map[string]string{"a.md": "- [ ] x\n"})
	ctx := context.Background()

	_, err := svc.ToggleCheckbox(ctx, "a.md", 0, true)
	assert.ErrorIs(t, err, apperr.ErrInvalidLine)

	_, err = svc.ToggleCheckbox(ctx, "missing.md", 1, true)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestBacklinks_NormalizesTargetPath(t *testing.T) {
	svc, _, _ := setup(t, map[string]string{
		"sub/Note.md": "body\n",
		"a.md":        "see [[Note]]\n",
	})
	ctx := context.Background()

	for _, p := range []string{"sub/Note.md", "./sub/Note.md", "sub//Note.md"} {
		target, res, err := svc.Backlinks(ctx, p)
		require.NoError(t, err, p)
		assert.Equal(t, "sub/Note.md", target.Path, p)
		require.Len(t, res, 1, p)
		assert.Equal(t, "a.md", res[0].SourcePath, p)
	}
}

func TestToggleCheckbox_UnnormalizedPathKeepsOneIndexRow(t *testing.T) {
	svc, _, db := setup(t, map[string]string{
		"Note.md": "body\n",
		"a.md":    "- [ ] do [[Note]]\n",
	})
	ctx := context.Background()

	changed, err := svc.ToggleCheckbox(ctx, "./a.md", 1, true)
	require.NoError(t, err)
	assert.True(t, changed)

	sums, err := db.AllChecksums()
	require.NoError(t, err)
	assert.Len(t, sums, 2)
	assert.Contains(t, sums, "a.md")
	assert.NotContains(t, sums, "./a.md")

	_, res, err := svc.Backlinks(ctx, "Note.md")
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "a.md", res[0].SourcePath)
	assert.Equal(t, "- [x] do [[Note]]", res[0].MatchingLines[0].Content)
}

func TestOpenNote_NormalizesPath(t *testing.T) {
	svc, _, _ := setup(t, map[string]string{"dir/a.md": "one\ntwo"})

	loc, err := svc.OpenNote(context.Background(), "dir/./a.md", 2)
	require.NoError(t, err)
	assert.Equal(t, "dir/a.md", loc.Path)
	assert.Equal(t, 2, loc.Line)
}

func TestToggleCheckbox_NotifiesWrites(t *testing.T) {
	svc, _, _ := setup(t, map[string]string{"a.md": "- [ ] x\nplain\n"})
	ctx := context.Background()

	var written []string
	svc.OnNoteWritten(func(path string) { written = append(written, path) })

	_, err := svc.ToggleCheckbox(ctx, "./a.md", 1, true)
	require.NoError(t, err)
	_, err = svc.ToggleCheckbox(ctx, "a.md", 1, true) // already checked
	require.NoError(t, err)
	_, err = svc.ToggleCheckbox(ctx, "a.md", 2, true) // no checkbox
	require.NoError(t, err)

	assert.Equal(t, []string{"a.md"}, written)
}

func TestToggleCheckbox_RejectsPathOutsideVault(t *testing.T) {
	svc, _, _ := setup(t, nil)
	_, err := svc.ToggleCheckbox(context.Background(), "../escape.md", 1, true)
	assert.ErrorIs(t, err, apperr.ErrInvalidPath)
}
