package backlink

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

// memDocs is an in-memory Documents implementation.
type memDocs struct {
	files   map[string]string
	failing map[string]bool
	reads   atomic.Int32
}

func (m *memDocs) Resolve(path string) (models.DocumentRef, error) {
	if _, ok := m.files[path]; !ok {
		return models.DocumentRef{}, apperr.ErrNotFound
	}
	return models.NewDocumentRef(path), nil
}

func (m *memDocs) Read(path string) ([]byte, error) {
	m.reads.Add(1)
	if m.failing[path] {
		return nil, errors.New("disk on fire")
	}
	return []byte(m.files[path]), nil
}

func TestAggregate_EmptyGraph(t *testing.T) {
	a := NewAggregator(&memDocs{})
	res, err := a.Aggregate(context.Background(), models.NewDocumentRef("Note.md"), nil)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestAggregate_SortsCaseInsensitive(t *testing.T) {
	docs := &memDocs{files: map[string]string{
		"Banana.md":   "eat [[Note]]",
		"apple.md":    "pick [[note|it]]",
		"z/cherry.md": "[c](Note.md)",
		"Note.md":     "target",
	}}
	g := graphOf(map[string][]string{
		"Banana.md":   {"Note.md"},
		"apple.md":    {"Note.md"},
		"z/cherry.md": {"Note.md"},
	})

	res, err := NewAggregator(docs, WithLocale(language.English)).Aggregate(context.Background(), models.NewDocumentRef("Note.md"), g)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, "apple", res[0].SourceBasename)
	assert.Equal(t, "Banana", res[1].SourceBasename)
	assert.Equal(t, "cherry", res[2].SourceBasename)
	assert.Equal(t, []models.MatchingLine{{LineNumber: 1, Content: "pick [[note|it]]"}}, res[0].MatchingLines)
}

func TestAggregate_ExcludesSourcesWithoutLiteralMatch(t *testing.T) {
	docs := &memDocs{files: map[string]string{
		"alias.md": "linked through [[The Note]] alias only",
		"real.md":  "[[Note]]",
	}}
	g := graphOf(map[string][]string{
		"alias.md": {"Note.md"},
		"real.md":  {"Note.md"},
	})

	res, err := NewAggregator(docs).Aggregate(context.Background(), models.NewDocumentRef("Note.md"), g)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "real.md", res[0].SourcePath)
}

func TestAggregate_SkipsResolutionMissAndReadFailure(t *testing.T) {
	docs := &memDocs{
		files: map[string]string{
			"broken.md": "[[Note]]",
			"ok.md":     "[[Note]]",
		},
		failing: map[string]bool{"broken.md": true},
	}
	g := graphOf(map[string][]string{
		"gone.md":   {"Note.md"},
		"broken.md": {"Note.md"},
		"ok.md":     {"Note.md"},
	})

	res, err := NewAggregator(docs).Aggregate(context.Background(), models.NewDocumentRef("Note.md"), g)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "ok.md", res[0].SourcePath)
	assert.EqualValues(t, 2, docs.reads.Load(), "unresolved candidates must not be read")
}

func TestAggregate_Idempotent(t *testing.T) {
	docs := &memDocs{files: map[string]string{
		"a.md": "[[Note]]\n- [ ] follow up on [[Note]]",
		"b.md": "[x](Note.md)",
	}}
	g := graphOf(map[string][]string{
		"a.md": {"Note.md"},
		"b.md": {"Note.md", "a.md"},
	})
	a := NewAggregator(docs, WithConcurrency(4))
	target := models.NewDocumentRef("Note.md")

	first, err := a.Aggregate(context.Background(), target, g)
	require.NoError(t, err)
	second, err := a.Aggregate(context.Background(), target, g)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAggregate_EqualBasenamesOrderedByPath(t *testing.T) {
	docs := &memDocs{files: map[string]string{
		"z/Daily.md": "[[Note]]",
		"a/daily.md": "[[Note]]",
	}}
	g := graphOf(map[string][]string{
		"z/Daily.md": {"Note.md"},
		"a/daily.md": {"Note.md"},
	})

	res, err := NewAggregator(docs).Aggregate(context.Background(), models.NewDocumentRef("Note.md"), g)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "a/daily.md", res[0].SourcePath)
	assert.Equal(t, "z/Daily.md", res[1].SourcePath)
}

func TestAggregate_CancelledContext(t *testing.T) {
	docs := &memDocs{files: map[string]string{"a.md": "[[Note]]"}}
	g := graphOf(map[string][]string{"a.md": {"Note.md"}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewAggregator(docs).Aggregate(ctx, models.NewDocumentRef("Note.md"), g)
	assert.ErrorIs(t, err, context.Canceled)
}
