package batch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/daikw/tapread/internal/reconcile"
	"github.com/daikw/tapread/internal/story"
	"github.com/daikw/tapread/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const structureJSON = `{
  "title": "Greetings",
  "chapters": [
    {"id": "1", "title": "One", "content": "Hello|,|world|!|How|are|you|?"},
    {"id": "2", "title": "Two", "content": "Broken||stream|."},
    {"id": "3", "title": "Three", "content": "Bye|."}
  ]
}`

const targetJSON = `{
  "title": "Saludos",
  "chapters": [
    {"id": "1", "title": "Uno", "sentences": {"Hello,world!": "¡Hola, mundo!", "How are you?": "¿Cómo estás?"}},
    {"id": "2", "title": "Dos", "sentences": {"Broken stream.": "Roto."}}
  ]
}`

func parse(t *testing.T, s string) *story.Document {
	t.Helper()
	doc, err := story.ParseDocument([]byte(s))
	require.NoError(t, err)
	return doc
}

func TestChapterError(t *testing.T) {
	err := &ChapterError{Index: 1, ID: "b", Err: token.ErrEmptyToken}
	assert.Equal(t, "chapter 2 (id b): "+token.ErrEmptyToken.Error(), err.Error())
	assert.ErrorIs(t, err, token.ErrEmptyToken)

	noID := &ChapterError{Index: 0, Err: ErrNoTranslations}
	assert.Equal(t, "chapter 1: "+ErrNoTranslations.Error(), noID.Error())
}

func TestRunner_Reconcile(t *testing.T) {
	structure := parse(t, structureJSON)
	target := parse(t, targetJSON)

	out, err := NewRunner(WithWorkers(2)).Reconcile(context.Background(), structure, target, "en")
	require.NoError(t, err)
	require.Len(t, out.Chapters, 3)

	ch1 := out.Chapters[0]
	require.NoError(t, ch1.Err)
	assert.Equal(t, []string{"How are you?"}, ch1.Result.Matched)
	require.Len(t, ch1.Result.Repaired, 1)
	assert.Equal(t, "Hello, world!", ch1.Result.Repaired[0].New)
	assert.Equal(t, reconcile.RuleWhitespace, ch1.Result.Repaired[0].Rule)

	assert.ErrorIs(t, out.Chapters[1].Err, token.ErrEmptyToken)
	assert.ErrorIs(t, out.Chapters[2].Err, ErrNoTranslations)

	failed := out.Failed()
	require.Len(t, failed, 2)
	assert.Equal(t, "2", failed[0].ID)
	assert.Equal(t, 2, failed[1].Index)

	matched, repaired, unresolved := out.Counts()
	assert.Equal(t, []int{1, 1, 0}, []int{matched, repaired, unresolved})
	assert.True(t, out.HasIssues())
	assert.True(t, out.Changed())

	applied, err := out.Apply(target)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello, world!", "How are you?"}, reconcile.Keys(applied.Units[0].Sentences))
	assert.Equal(t, []string{"Broken stream."}, reconcile.Keys(applied.Units[1].Sentences), "failed chapter is untouched")
	assert.Equal(t, []string{"Hello,world!", "How are you?"}, reconcile.Keys(target.Units[0].Sentences), "input is not modified")
}

func TestRunner_Reconcile_MatchesByIDThenPosition(t *testing.T) {
	structure := parse(t, `{"pages": [
		{"id": "a", "content": "One|."},
		{"id": "b", "content": "Two|."}
	]}`)
	target := parse(t, `{"pages": [
		{"id": "b", "sentences": {"Two.": "Dos."}},
		{"id": "x", "sentences": {"One.": "Uno."}}
	]}`)

	out, err := NewRunner().Reconcile(context.Background(), structure, target, "en")
	require.NoError(t, err)

	// "a" has no id match and falls back to position 0, which is "b"
	assert.Equal(t, []string{"Two."}, out.Chapters[0].Result.Unresolved)
	assert.Equal(t, []string{"Two."}, out.Chapters[1].Result.Matched)
	assert.True(t, out.HasIssues())
	assert.False(t, out.Changed())
}

func TestRunner_Reconcile_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner().Reconcile(ctx, parse(t, structureJSON), parse(t, targetJSON), "en")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunner_Retokenize(t *testing.T) {
	structure := parse(t, `{"chapters": [
		{"id": "1", "content": "old"},
		{"id": "2", "content": "keep"},
		{"id": "3", "content": "also|keep"},
		{"id": "4", "content": "Same|."}
	]}`)
	episodes := map[int]string{
		1: "Hello, world!  How are you?",
		2: "Pipes | are reserved.",
		4: "Same.",
	}
	read := func(n int) (string, error) {
		text, ok := episodes[n]
		if !ok {
			return "", fmt.Errorf("failed to read episode %d: %w", n, fs.ErrNotExist)
		}
		return text, nil
	}

	out, err := NewRunner().Retokenize(context.Background(), structure, "en", read)
	require.NoError(t, err)
	require.Len(t, out.Chapters, 4)

	assert.Equal(t, "Hello|,|world|!|How|are|you|?", out.Chapters[0].Content)
	assert.Equal(t, 8, out.Chapters[0].Tokens)
	assert.True(t, out.Chapters[0].Changed)

	assert.ErrorIs(t, out.Chapters[1].Err, token.ErrReservedDelimiter)
	assert.False(t, out.Chapters[1].Changed)

	assert.True(t, out.Chapters[2].Skipped)
	assert.NoError(t, out.Chapters[2].Err)

	assert.False(t, out.Chapters[3].Changed)
	assert.Len(t, out.Failed(), 1)
	assert.True(t, out.Changed())

	applied, err := out.Apply(structure)
	require.NoError(t, err)
	assert.Equal(t, "Hello|,|world|!|How|are|you|?", applied.Units[0].Content)
	assert.Equal(t, "keep", applied.Units[1].Content)
	assert.Equal(t, "also|keep", applied.Units[2].Content)
	assert.Equal(t, "old", structure.Units[0].Content)
}

func TestRunner_Retokenize_ReaderError(t *testing.T) {
	structure := parse(t, `{"chapters": [{"id": "1", "content": "x"}]}`)
	read := func(int) (string, error) { return "", fmt.Errorf("permission denied") }

	out, err := NewRunner().Retokenize(context.Background(), structure, "en", read)
	require.NoError(t, err)
	assert.Len(t, out.Failed(), 1)
	assert.False(t, out.Changed())
}

func TestRunner_WorkerLimit(t *testing.T) {
	r := NewRunner(WithWorkers(3))
	var running, peak atomic.Int32
	require.NoError(t, r.each(context.Background(), 50, func(int) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		running.Add(-1)
	}))
	assert.LessOrEqual(t, peak.Load(), int32(3))

	assert.Equal(t, DefaultWorkers, NewRunner(WithWorkers(0)).workers)
}

func writeStory(t *testing.T, root, id string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, id, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func TestRunner_Check(t *testing.T) {
	root := t.TempDir()
	writeStory(t, root, "good", map[string]string{
		"structure.json": `{"chapters": [{"id": "1", "content": "Hello|,|world|!|How|are|you|?"}]}`,
		"lang/es.json":   `{"chapters": [{"id": "1", "sentences": {"Hello, world!": "¡Hola, mundo!", "How are you?": "¿Cómo estás?"}}]}`,
	})
	writeStory(t, root, "drifted", map[string]string{
		"structure.json":   `{"language": "ja", "chapters": [{"id": "1", "content": "猫|が|好き|です|。|犬|も|。"}]}`,
		"lang/en.json":     `{"chapters": [{"id": "1", "sentences": {"猫が 好きです。": "I like cats.", "犬も。": "Dogs too."}}]}`,
		"lang/broken.json": `{"title": "no units"}`,
	})
	store := story.NewStore(root)

	got, err := NewRunner().Check(context.Background(), store, []string{"good", "drifted", "missing"}, "en")
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "good", got[0].Story)
	assert.True(t, got[0].Complete())
	expected, found := got[0].Languages[0].Totals()
	assert.Equal(t, 2, expected)
	assert.Equal(t, 2, found)

	drifted := got[1]
	assert.False(t, drifted.Complete())
	require.Len(t, drifted.Languages, 2)
	assert.Equal(t, "broken", drifted.Languages[0].Language)
	assert.Error(t, drifted.Languages[0].Err)
	en := drifted.Languages[1]
	require.NoError(t, en.Err)
	// the unmatched first key swallows the rest of the chapter
	assert.Equal(t, []string{"猫が 好きです。", "犬も。"}, en.Units[0].Coverage.Missing)

	assert.Error(t, got[2].Err)
	assert.False(t, got[2].Complete())
}

func TestCheckUnits(t *testing.T) {
	structure := parse(t, `{"chapters": [
		{"id": "1", "content": "A|."},
		{"id": "2", "content": "B||."},
		{"id": "3", "content": "C|."}
	]}`)
	target := parse(t, `{"chapters": [
		{"id": "1", "sentences": {"A.": "a"}},
		{"id": "2", "sentences": {"B.": "b"}},
		{"id": "3"}
	]}`)

	got := CheckUnits(structure, target, "en")
	require.Len(t, got, 3)
	assert.True(t, got[0].Coverage.Complete())
	assert.ErrorIs(t, got[1].Err, token.ErrEmptyToken)
	assert.ErrorIs(t, got[2].Err, ErrNoTranslations)
}
