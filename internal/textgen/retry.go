package textgen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"podnest/internal/cache"
	"podnest/internal/domain/podcast"
)

// maxAttempts bounds the remote calls made for one artifact.
const maxAttempts = 2

// attempt is a state of the refusal retry machine:
//
//	attemptCached -> attemptFresh -> attemptFailed
//
// The first attempt may be served from cache, the second always bypasses it.
type attempt int

const (
	attemptCached attempt = iota
	attemptFresh
	attemptFailed
)

func (a attempt) String() string {
	switch a {
	case attemptCached:
		return "cached"
	case attemptFresh:
		return "fresh"
	}
	return "failed"
}

// refusalPrefixes are openings of answers that decline the request.
var refusalPrefixes = []string{
	"i'm sorry",
	"i am sorry",
	"sorry, ",
	"i cannot",
	"i can't",
	"i can not",
	"i am unable",
	"i'm unable",
	"i won't",
	"as an ai",
}

// IsRefusal reports whether an answer declines the request instead of fulfilling it.
func IsRefusal(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	lower = strings.ReplaceAll(lower, "’", "'")
	for _, p := range refusalPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// retryable reports whether a failed attempt may succeed on another try.
func retryable(err error) bool {
	return errors.Is(err, podcast.ErrRefused) || errors.Is(err, podcast.ErrInvalidSubtopics)
}

// complete returns the validated answer for prompt. accept parses the answer;
// its error rejects the answer. Only accepted answers are cached.
func (g *Generator) complete(ctx context.Context, key cache.Key, prompt string, accept func(string) error) (string, error) {
	var lastErr error
	state := attemptCached

	for {
		log := g.log.WithFields(logrus.Fields{"key": key.String(), "attempt": state.String()})

		switch state {
		case attemptCached:
			if cached, err := g.store.Get(ctx, key); err == nil {
				if accept(string(cached)) == nil {
					log.Debug("Text served from cache")
					return string(cached), nil
				}
				log.Warn("Discarding invalid cached text")
			} else if !errors.Is(err, cache.ErrMiss) {
				log.WithError(err).Warn("Failed to read cached text")
			}
			fallthrough

		case attemptFresh:
			answer, err := g.remote(ctx, prompt)
			if err == nil {
				err = accept(answer)
			}
			if err == nil {
				if err := g.store.Put(ctx, key, []byte(answer), g.ttl); err != nil {
					return "", fmt.Errorf("failed to cache text: %w", err)
				}
				return answer, nil
			}
			if !retryable(err) {
				return "", err
			}

			lastErr = err
			log.WithError(err).Warn("Text request rejected")
			if state == attemptCached {
				state = attemptFresh
			} else {
				state = attemptFailed
			}

		case attemptFailed:
			return "", fmt.Errorf("%w: gave up after %d attempts: %v", podcast.ErrRefused, maxAttempts, lastErr)
		}
	}
}

func (g *Generator) remote(ctx context.Context, prompt string) (string, error) {
	if err := g.throttle.Wait(ctx); err != nil {
		return "", err
	}
	answer, err := g.completer.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}
