// Package speech turns narration text into cached audio segments.
package speech

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"podnest/internal/cache"
	"podnest/internal/domain/podcast"
	"podnest/internal/speech/tts"
	"podnest/internal/throttle"
)

// Generator synthesizes text with a TTS engine. Every part of a segment is
// cached without expiry, so a segment is synthesized at most once per key.
type Generator struct {
	engine   tts.Engine
	store    cache.Store
	throttle *throttle.Throttle
	log      logrus.FieldLogger
}

type Option func(*Generator)

// WithThrottle shares a remote call limiter with the generator.
func WithThrottle(t *throttle.Throttle) Option {
	return func(g *Generator) {
		g.throttle = t
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(g *Generator) {
		g.log = l
	}
}

func NewGenerator(engine tts.Engine, store cache.Store, opts ...Option) *Generator {
	g := &Generator{
		engine: engine,
		store:  store,
		log:    logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Engine returns the backing TTS engine.
func (g *Generator) Engine() tts.Engine {
	return g.engine
}

// Format is the container of every produced segment.
func (g *Generator) Format() string {
	return g.engine.Format()
}

// SegmentKey identifies the audio of the subtopic at index narrated with voice.
// The engine and its voice name are part of the key, so switching backends
// never reuses audio from another one.
func (g *Generator) SegmentKey(topic podcast.Topic, subtopic string, index int, voice podcast.Voice) cache.Key {
	return cache.Fingerprint(cache.StageSpeech, topic.String(),
		subtopic, strconv.Itoa(index), voice.String(), g.engine.Name(), g.engine.VoiceName(voice))
}

// MarkerKey identifies a synthesized intro or outro.
func (g *Generator) MarkerKey(topic podcast.Topic, marker string, voice podcast.Voice) cache.Key {
	return cache.Fingerprint(cache.StageMarker, topic.String(),
		marker, voice.String(), g.engine.Name(), g.engine.VoiceName(voice))
}

// Synthesize returns the audio for text under key. Cached parts are reused;
// missing parts are synthesized and stored before returning. Failures are not
// retried and wrap podcast.ErrSynthesis.
func (g *Generator) Synthesize(ctx context.Context, text string, voice podcast.Voice, key cache.Key) (podcast.AudioSegment, error) {
	seg := podcast.AudioSegment{Format: g.engine.Format()}

	chunks := SplitText(text, g.engine.MaxInputChars())
	if len(chunks) == 0 {
		return seg, fmt.Errorf("%w: no text to synthesize", podcast.ErrSynthesis)
	}

	voiceName := g.engine.VoiceName(voice)
	for i, chunk := range chunks {
		partKey := key.Part(i)
		audio, err := g.store.Get(ctx, partKey)
		if err == nil {
			seg.Parts = append(seg.Parts, audio)
			continue
		}
		if !errors.Is(err, cache.ErrMiss) {
			g.log.WithError(err).WithField("key", partKey.String()).Warn("Failed to read cached audio")
		}

		audio, err = g.synthesizePart(ctx, chunk, voiceName)
		if err != nil {
			return seg, fmt.Errorf("%w: part %d of %d: %w", podcast.ErrSynthesis, i+1, len(chunks), err)
		}
		if err := g.store.Put(ctx, partKey, audio, 0); err != nil {
			return seg, fmt.Errorf("failed to cache audio: %w", err)
		}
		seg.Parts = append(seg.Parts, audio)
	}

	return seg, nil
}

func (g *Generator) synthesizePart(ctx context.Context, text, voiceName string) ([]byte, error) {
	if err := g.throttle.Wait(ctx); err != nil {
		return nil, err
	}

	g.log.WithFields(logrus.Fields{
		"engine":      g.engine.Name(),
		"voice":       voiceName,
		"text_length": len(text),
	}).Debug("Synthesizing speech")

	audio, err := g.engine.Synthesize(ctx, text, voiceName)
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, errors.New("engine returned no audio")
	}
	return audio, nil
}
