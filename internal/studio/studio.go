// Package studio wires the configured components into the podnest commands.
package studio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"podnest/internal/assemble"
	"podnest/internal/cache"
	"podnest/internal/config"
	"podnest/internal/domain/podcast"
	"podnest/internal/llm"
	"podnest/internal/pipeline"
	"podnest/internal/speech"
	"podnest/internal/speech/tts"
	"podnest/internal/textgen"
	"podnest/internal/throttle"
)

// Studio is the podnest application. Components are created on first use so
// that commands only need the backends they touch.
type Studio struct {
	cfg    *config.Config
	ctx    context.Context
	Cancel context.CancelFunc

	store     cache.Store
	completer llm.Completer
	engine    tts.Engine
	assembler pipeline.Assembler
	throttle  *throttle.Throttle
}

type Option func(*Studio)

func WithStore(store cache.Store) Option {
	return func(s *Studio) {
		s.store = store
	}
}

func WithCompleter(c llm.Completer) Option {
	return func(s *Studio) {
		s.completer = c
	}
}

func WithEngine(e tts.Engine) Option {
	return func(s *Studio) {
		s.engine = e
	}
}

func WithAssembler(a pipeline.Assembler) Option {
	return func(s *Studio) {
		s.assembler = a
	}
}

func New(cfg *config.Config, opts ...Option) *Studio {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Studio{
		cfg:      cfg,
		ctx:      ctx,
		Cancel:   cancel,
		throttle: throttle.New(cfg.Remote.RequestsPerMinute),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Close releases the cache store.
func (s *Studio) Close() error {
	s.Cancel()
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

func (s *Studio) cacheStore() (cache.Store, error) {
	if s.store == nil {
		store, err := cache.Open(s.cfg.Cache)
		if err != nil {
			return nil, fmt.Errorf("failed to open cache: %w", err)
		}
		s.store = store
	}
	return s.store, nil
}

func (s *Studio) textGenerator() (*textgen.Generator, error) {
	store, err := s.cacheStore()
	if err != nil {
		return nil, err
	}
	if s.completer == nil {
		if s.completer, err = llm.New(s.cfg.Text); err != nil {
			return nil, err
		}
	}
	return textgen.New(s.completer, store,
		textgen.WithTTL(s.cfg.Cache.TextTTL),
		textgen.WithThrottle(s.throttle)), nil
}

func (s *Studio) ttsEngine() (tts.Engine, error) {
	if s.engine == nil {
		engine, err := tts.NewEngine(s.cfg.Speech)
		if err != nil {
			return nil, fmt.Errorf("failed to create tts engine: %w", err)
		}
		s.engine = engine
	}
	return s.engine, nil
}

func (s *Studio) speechGenerator() (*speech.Generator, error) {
	store, err := s.cacheStore()
	if err != nil {
		return nil, err
	}
	engine, err := s.ttsEngine()
	if err != nil {
		return nil, err
	}
	return speech.NewGenerator(engine, store, speech.WithThrottle(s.throttle)), nil
}

func (s *Studio) coordinator() (*pipeline.Coordinator, error) {
	text, err := s.textGenerator()
	if err != nil {
		return nil, err
	}
	sp, err := s.speechGenerator()
	if err != nil {
		return nil, err
	}
	if s.assembler == nil {
		s.assembler = assemble.New(s.cfg.Assemble.FFmpegPath)
	}
	return pipeline.NewCoordinator(s.cfg.Pipeline, text, sp, s.assembler,
		pipeline.WithOutputDir(s.cfg.Output.Dir),
		pipeline.WithMarkerFiles(pipeline.MarkerFiles{
			Intro: s.cfg.Assemble.IntroFile,
			Outro: s.cfg.Assemble.OutroFile,
		})), nil
}

// parseTopic joins the arguments so unquoted multi-word topics work.
func parseTopic(cmd *cobra.Command, args []string) (podcast.Topic, error) {
	topic, err := podcast.ParseTopic(strings.Join(args, " "))
	if err != nil {
		return podcast.Topic{}, err
	}
	if cmd.Flags().Lookup("extended") != nil {
		extended, _ := cmd.Flags().GetBool("extended")
		topic = topic.WithExtended(extended)
	}
	return topic, nil
}

// logFailure records a classified failure for the log output.
func logFailure(err error) {
	var failure *podcast.Failure
	if errors.As(err, &failure) {
		logrus.WithFields(logrus.Fields{
			"stage": failure.Stage,
			"index": failure.Index,
			"class": podcast.Class(err),
		}).Debug("Run failure details")
	}
}
