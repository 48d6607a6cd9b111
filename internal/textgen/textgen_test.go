package textgen

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podnest/internal/cache"
	"podnest/internal/domain/podcast"
	"podnest/internal/llm"
)

// scriptedCompleter replays answers in order and repeats the last one.
type scriptedCompleter struct {
	mu      sync.Mutex
	answers []any
	prompts []string
}

func (s *scriptedCompleter) Model() string { return "scripted" }

func (s *scriptedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	i := len(s.prompts) - 1
	if i >= len(s.answers) {
		i = len(s.answers) - 1
	}
	switch a := s.answers[i].(type) {
	case error:
		return "", a
	default:
		return fmt.Sprint(a), nil
	}
}

func (s *scriptedCompleter) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

func newTestGenerator(t *testing.T, c llm.Completer) (*Generator, cache.Store) {
	t.Helper()
	store, err := cache.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return New(c, store), store
}

var volcanoes = podcast.Topic{Name: "Volcanoes"}

func TestListSubtopicsCached(t *testing.T) {
	c := &scriptedCompleter{answers: []any{"1. Formation\n2. Eruptions\n3. Famous volcanoes"}}
	g, _ := newTestGenerator(t, c)

	list, err := g.ListSubtopics(context.Background(), volcanoes)
	require.NoError(t, err)
	assert.Equal(t, podcast.SubtopicList{"Formation", "Eruptions", "Famous volcanoes"}, list)

	again, err := g.ListSubtopics(context.Background(), volcanoes)
	require.NoError(t, err)
	assert.Equal(t, list, again)
	assert.Equal(t, 1, c.calls())
}

func TestListSubtopicsUnknownTopicNotRetried(t *testing.T) {
	c := &scriptedCompleter{answers: []any{"None."}}
	g, _ := newTestGenerator(t, c)

	_, err := g.ListSubtopics(context.Background(), podcast.Topic{Name: "Xyzzyplugh"})
	assert.ErrorIs(t, err, podcast.ErrUnknownTopic)
	assert.Equal(t, 1, c.calls())
}

func TestListSubtopicsInvalidListRetried(t *testing.T) {
	c := &scriptedCompleter{answers: []any{"Formation\nEruptions", "1. Formation\n2. Eruptions"}}
	g, _ := newTestGenerator(t, c)

	list, err := g.ListSubtopics(context.Background(), volcanoes)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, 2, c.calls())
}

func TestRefusalRetriedExactlyTwice(t *testing.T) {
	refused := fmt.Errorf("%w: policy", podcast.ErrRefused)
	c := &scriptedCompleter{answers: []any{refused}}
	g, store := newTestGenerator(t, c)
	list := podcast.SubtopicList{"Formation", "Eruptions"}

	_, err := g.RenderSubtopicText(context.Background(), volcanoes, list, 1, podcast.VoiceDefault)
	require.ErrorIs(t, err, podcast.ErrRefused)
	assert.Equal(t, 2, c.calls())

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Entries)
}

func TestRefusalPhrasingRetried(t *testing.T) {
	c := &scriptedCompleter{answers: []any{"I'm sorry, but I can't help with that.", "Volcanoes erupt when pressure builds."}}
	g, _ := newTestGenerator(t, c)
	list := podcast.SubtopicList{"Formation", "Eruptions"}

	text, err := g.RenderSubtopicText(context.Background(), volcanoes, list, 1, podcast.VoiceDefault)
	require.NoError(t, err)
	assert.Equal(t, "Section 2: Eruptions.\n\nVolcanoes erupt when pressure builds.", text)
	assert.Equal(t, 2, c.calls())
}

func TestInvalidCachedTextDiscarded(t *testing.T) {
	c := &scriptedCompleter{answers: []any{"1. Formation\n2. Eruptions"}}
	g, store := newTestGenerator(t, c)

	prompt, err := renderPrompt("list_subtopics", promptData{Topic: volcanoes})
	require.NoError(t, err)
	key := cache.Fingerprint(cache.StageSubtopics, volcanoes.String(), c.Model(), prompt)
	require.NoError(t, store.Put(context.Background(), key, []byte("not a list"), time.Hour))

	list, err := g.ListSubtopics(context.Background(), volcanoes)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, 1, c.calls())
}

func TestTransportErrorNotRetried(t *testing.T) {
	c := &scriptedCompleter{answers: []any{errors.New("connection reset")}}
	g, _ := newTestGenerator(t, c)

	_, err := g.ListSubtopics(context.Background(), volcanoes)
	require.Error(t, err)
	assert.NotErrorIs(t, err, podcast.ErrRefused)
	assert.Equal(t, 1, c.calls())
}

func TestSelectVoice(t *testing.T) {
	c := &scriptedCompleter{answers: []any{"Female."}}
	g, _ := newTestGenerator(t, c)
	voice, err := g.SelectVoice(context.Background(), volcanoes)
	require.NoError(t, err)
	assert.Equal(t, podcast.VoiceFemale, voice)

	c = &scriptedCompleter{answers: []any{"baritone"}}
	g, _ = newTestGenerator(t, c)
	voice, err = g.SelectVoice(context.Background(), volcanoes)
	require.NoError(t, err)
	assert.Equal(t, podcast.VoiceDefault, voice)

	c = &scriptedCompleter{answers: []any{podcast.ErrRefused}}
	g, _ = newTestGenerator(t, c)
	voice, err = g.SelectVoice(context.Background(), volcanoes)
	require.NoError(t, err)
	assert.Equal(t, podcast.VoiceDefault, voice)
}

func TestTextKeySensitiveToSubtopic(t *testing.T) {
	c := &scriptedCompleter{answers: []any{"Narration."}}
	g, _ := newTestGenerator(t, c)
	list := podcast.SubtopicList{"Formation", "Eruptions"}

	_, err := g.RenderSubtopicText(context.Background(), volcanoes, list, 0, podcast.VoiceDefault)
	require.NoError(t, err)
	_, err = g.RenderSubtopicText(context.Background(), volcanoes, list, 1, podcast.VoiceDefault)
	require.NoError(t, err)
	_, err = g.RenderSubtopicText(context.Background(), volcanoes, list, 0, podcast.VoiceDefault)
	require.NoError(t, err)
	assert.Equal(t, 2, c.calls())
}

func TestPromptsMatchMockBackend(t *testing.T) {
	g, _ := newTestGenerator(t, llm.NewMock())
	list, err := g.ListSubtopics(context.Background(), volcanoes)
	require.NoError(t, err)
	assert.NotEmpty(t, list)

	voice, err := g.SelectVoice(context.Background(), volcanoes)
	require.NoError(t, err)
	assert.Equal(t, podcast.VoiceDefault, voice)
}

func TestPromptModifiers(t *testing.T) {
	topic := podcast.Topic{Name: "Volcanoes", Extended: true, Language: "French"}
	prompt, err := renderPrompt("subtopic_text", promptData{Topic: topic, Voice: podcast.VoiceMale,
		Numbered: "1. Formation", Number: 1, Subtopic: "Formation"})
	require.NoError(t, err)
	assert.Contains(t, prompt, "Write the narration in French.")
	assert.Contains(t, prompt, "considerable depth")

	prompt, err = renderPrompt("select_voice", promptData{Topic: topic, Voices: podcast.Voices})
	require.NoError(t, err)
	assert.Contains(t, prompt, "default, emotive, female, male")

	prompt, err = renderPrompt("list_subtopics", promptData{Topic: topic})
	require.NoError(t, err)
	assert.Contains(t, prompt, "between 12 and 24 subtopics")
	assert.Contains(t, prompt, "Topic: Volcanoes")

	prompt, err = renderPrompt("list_subtopics", promptData{Topic: podcast.Topic{Name: "PyTorch"}})
	require.NoError(t, err)
	assert.Contains(t, prompt, "between 6 and 12 subtopics")
	assert.NotContains(t, prompt, "between 12 and 24")
}

func TestIsRefusal(t *testing.T) {
	assert.True(t, IsRefusal("I’m sorry, I can’t do that."))
	assert.True(t, IsRefusal("  As an AI language model, I cannot"))
	assert.False(t, IsRefusal("Sorrow runs through this story."))
}
