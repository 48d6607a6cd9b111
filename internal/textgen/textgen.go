// Package textgen produces the text of an episode with a completion backend:
// the subtopic plan, the narrator voice and the narration of every section.
package textgen

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"podnest/internal/cache"
	"podnest/internal/domain/podcast"
	"podnest/internal/llm"
	"podnest/internal/throttle"
)

// DefaultTextTTL is how long generated text stays fresh.
const DefaultTextTTL = 4 * 7 * 24 * time.Hour

// Generator wraps a Completer with caching and refusal retry.
type Generator struct {
	completer llm.Completer
	store     cache.Store
	ttl       time.Duration
	throttle  *throttle.Throttle
	log       logrus.FieldLogger
}

type Option func(*Generator)

// WithTTL overrides the freshness window of cached text.
func WithTTL(ttl time.Duration) Option {
	return func(g *Generator) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

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

func New(completer llm.Completer, store cache.Store, opts ...Option) *Generator {
	g := &Generator{
		completer: completer,
		store:     store,
		ttl:       DefaultTextTTL,
		log:       logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// ListSubtopics returns the narration plan of topic. An unknown topic is
// reported as podcast.ErrUnknownTopic and is never retried.
func (g *Generator) ListSubtopics(ctx context.Context, topic podcast.Topic) (podcast.SubtopicList, error) {
	prompt, err := renderPrompt("list_subtopics", promptData{Topic: topic})
	if err != nil {
		return nil, err
	}

	key := cache.Fingerprint(cache.StageSubtopics, topic.String(), g.completer.Model(), prompt)
	var list podcast.SubtopicList
	_, err = g.complete(ctx, key, prompt, func(answer string) error {
		parsed, err := podcast.ParseSubtopics(answer)
		if err != nil {
			return err
		}
		list = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// SelectVoice asks the backend for a narrator voice. An answer outside the
// supported voices, or a refused request, falls back to the default voice.
func (g *Generator) SelectVoice(ctx context.Context, topic podcast.Topic) (podcast.Voice, error) {
	prompt, err := renderPrompt("select_voice", promptData{Topic: topic, Voices: podcast.Voices})
	if err != nil {
		return "", err
	}

	key := cache.Fingerprint(cache.StageVoice, topic.String(), g.completer.Model(), prompt)
	voice := podcast.VoiceDefault
	_, err = g.complete(ctx, key, prompt, func(answer string) error {
		v, err := podcast.ParseVoice(answer)
		if err != nil {
			g.log.WithField("answer", answer).Warn("Unsupported voice suggested, using default")
			return nil
		}
		voice = v
		return nil
	})
	switch {
	case errors.Is(err, podcast.ErrRefused):
		g.log.WithError(err).Warn("Voice selection refused, using default")
		return podcast.VoiceDefault, nil
	case err != nil:
		return "", err
	}
	return voice, nil
}

// RenderSubtopicText returns the narration of the subtopic at index, prefixed
// with its spoken section heading.
func (g *Generator) RenderSubtopicText(ctx context.Context, topic podcast.Topic, subtopics podcast.SubtopicList, index int, voice podcast.Voice) (string, error) {
	if index < 0 || index >= len(subtopics) {
		return "", fmt.Errorf("subtopic index %d out of range", index)
	}

	prompt, err := renderPrompt("subtopic_text", promptData{
		Topic:    topic,
		Voice:    voice,
		Numbered: subtopics.Numbered(),
		Number:   index + 1,
		Subtopic: subtopics[index],
	})
	if err != nil {
		return "", err
	}

	key := cache.Fingerprint(cache.StageText, topic.String(),
		g.completer.Model(), subtopics[index], strconv.Itoa(index), voice.String(), prompt)
	body, err := g.complete(ctx, key, prompt, checkNarration)
	if err != nil {
		return "", err
	}
	return subtopics.Heading(index) + ".\n\n" + body, nil
}

func checkNarration(text string) error {
	if text == "" {
		return fmt.Errorf("%w: empty narration", podcast.ErrRefused)
	}
	if IsRefusal(text) {
		return fmt.Errorf("%w: %q", podcast.ErrRefused, firstLine(text))
	}
	return nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
