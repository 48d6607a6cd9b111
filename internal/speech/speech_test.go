package speech

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podnest/internal/cache"
	"podnest/internal/domain/podcast"
)

// fakeEngine echoes its input as audio and records every call.
type fakeEngine struct {
	mu     sync.Mutex
	calls  []string
	limit  int
	failOn string
}

func (f *fakeEngine) Name() string                     { return "fake" }
func (f *fakeEngine) Format() string                   { return "mp3" }
func (f *fakeEngine) MaxInputChars() int               { return f.limit }
func (f *fakeEngine) VoiceName(v podcast.Voice) string { return "fake-" + v.String() }
func (f *fakeEngine) GetAvailableVoices(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (f *fakeEngine) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, text)
	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return nil, errors.New("backend unavailable")
	}
	return []byte(voice + ":" + text), nil
}

func newTestGenerator(t *testing.T, engine *fakeEngine) *Generator {
	t.Helper()
	store, err := cache.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return NewGenerator(engine, store)
}

func TestSynthesizeIsIdempotent(t *testing.T) {
	engine := &fakeEngine{limit: 100}
	g := newTestGenerator(t, engine)
	topic := podcast.Topic{Name: "Volcanoes"}
	key := g.SegmentKey(topic, "Eruptions", 0, podcast.VoiceMale)

	first, err := g.Synthesize(context.Background(), "Section 1: Eruptions", podcast.VoiceMale, key)
	require.NoError(t, err)
	second, err := g.Synthesize(context.Background(), "Section 1: Eruptions", podcast.VoiceMale, key)
	require.NoError(t, err)

	assert.Equal(t, first.Parts, second.Parts)
	assert.Equal(t, "mp3", second.Format)
	assert.Len(t, engine.calls, 1)
}

func TestSegmentKeySensitivity(t *testing.T) {
	g := newTestGenerator(t, &fakeEngine{limit: 100})
	topic := podcast.Topic{Name: "Volcanoes"}
	base := g.SegmentKey(topic, "Eruptions", 0, podcast.VoiceMale)

	assert.Equal(t, base, g.SegmentKey(topic, "Eruptions", 0, podcast.VoiceMale))
	assert.NotEqual(t, base, g.SegmentKey(topic, "Eruptions", 0, podcast.VoiceFemale))
	assert.NotEqual(t, base, g.SegmentKey(topic, "Magma", 0, podcast.VoiceMale))
	assert.NotEqual(t, base, g.SegmentKey(topic, "Eruptions", 1, podcast.VoiceMale))
	assert.NotEqual(t, base, g.SegmentKey(podcast.Topic{Name: "Volcanoes", Extended: true}, "Eruptions", 0, podcast.VoiceMale))
	assert.Equal(t, cache.StageSpeech, base.Stage)
	assert.Equal(t, cache.StageMarker, g.MarkerKey(topic, "intro", podcast.VoiceMale).Stage)
}

func TestSynthesizeSplitsLongText(t *testing.T) {
	engine := &fakeEngine{limit: 20}
	g := newTestGenerator(t, engine)
	key := g.SegmentKey(podcast.Topic{Name: "Volcanoes"}, "Eruptions", 0, podcast.VoiceDefault)

	seg, err := g.Synthesize(context.Background(), "First paragraph.\n\nSecond paragraph.", podcast.VoiceDefault, key)
	require.NoError(t, err)
	require.Len(t, seg.Parts, 2)
	assert.Equal(t, "fake-default:First paragraph.", string(seg.Parts[0]))
	assert.Equal(t, "fake-default:Second paragraph.", string(seg.Parts[1]))
}

func TestSynthesizeFailureIsNotCached(t *testing.T) {
	engine := &fakeEngine{limit: 20, failOn: "Second"}
	g := newTestGenerator(t, engine)
	key := g.SegmentKey(podcast.Topic{Name: "Volcanoes"}, "Eruptions", 0, podcast.VoiceDefault)
	text := "First paragraph.\n\nSecond paragraph."

	_, err := g.Synthesize(context.Background(), text, podcast.VoiceDefault, key)
	require.ErrorIs(t, err, podcast.ErrSynthesis)
	assert.Len(t, engine.calls, 2)

	// the first part survives, so a rerun only requests the failed one
	engine.failOn = ""
	_, err = g.Synthesize(context.Background(), text, podcast.VoiceDefault, key)
	require.NoError(t, err)
	assert.Equal(t, []string{"First paragraph.", "Second paragraph.", "Second paragraph."}, engine.calls)
}

func TestSynthesizeEmptyText(t *testing.T) {
	g := newTestGenerator(t, &fakeEngine{limit: 20})
	_, err := g.Synthesize(context.Background(), "  ", podcast.VoiceDefault, cache.Key{Namespace: "x", Stage: cache.StageSpeech, Name: "y"})
	assert.ErrorIs(t, err, podcast.ErrSynthesis)
}

func TestSplitText(t *testing.T) {
	assert.Nil(t, SplitText("   ", 10))
	assert.Equal(t, []string{"short"}, SplitText("short", 10))
	assert.Equal(t, []string{"aaa\n\nbbb", "ccc"}, SplitText("aaa\n\nbbb\n\nccc", 8))
	assert.Equal(t, []string{"one two", "three"}, SplitText("one two three", 9))
	assert.Equal(t, []string{"abcd", "efgh", "ij"}, SplitText("abcdefghij", 4))

	for _, chunk := range SplitText(strings.Repeat("word ", 200), 50) {
		assert.LessOrEqual(t, runeLen(chunk), 50)
	}
}
