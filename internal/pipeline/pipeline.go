// Package pipeline coordinates a generation run from topic to episode file.
package pipeline

import (
	"context"
	"time"

	"podnest/internal/assemble"
	"podnest/internal/cache"
	"podnest/internal/domain/podcast"
)

// TextGenerator produces the text of an episode.
type TextGenerator interface {
	ListSubtopics(ctx context.Context, topic podcast.Topic) (podcast.SubtopicList, error)
	SelectVoice(ctx context.Context, topic podcast.Topic) (podcast.Voice, error)
	RenderSubtopicText(ctx context.Context, topic podcast.Topic, subtopics podcast.SubtopicList, index int, voice podcast.Voice) (string, error)
}

// SpeechGenerator produces cached audio segments.
type SpeechGenerator interface {
	Format() string
	SegmentKey(topic podcast.Topic, subtopic string, index int, voice podcast.Voice) cache.Key
	MarkerKey(topic podcast.Topic, marker string, voice podcast.Voice) cache.Key
	Synthesize(ctx context.Context, text string, voice podcast.Voice, key cache.Key) (podcast.AudioSegment, error)
}

// Assembler joins segments into the episode file.
type Assembler interface {
	Check() error
	Concatenate(ctx context.Context, segments []podcast.AudioSegment, markers assemble.Markers, outputPath string) (string, error)
}

// Config bounds a run.
type Config struct {
	Workers      int           `mapstructure:"workers"`
	RunTimeout   time.Duration `mapstructure:"run_timeout"`
	MaxSubtopics int           `mapstructure:"max_subtopics"`
}

const (
	DefaultWorkers    = 8
	DefaultRunTimeout = 30 * time.Minute
)

// abandonGrace bounds how long collecting waits for in-flight sections once
// the run is canceled or timed out.
var abandonGrace = 5 * time.Second

// Request describes one episode to generate.
type Request struct {
	Topic podcast.Topic
	// Voice is used as is when set; otherwise it is selected for the topic.
	Voice podcast.Voice
	// MaxSubtopics truncates the plan when positive, overriding Config.MaxSubtopics.
	MaxSubtopics int
	// Markers adds the intro and outro around the sections.
	Markers bool
	// OutputPath is a file or directory; empty uses the output directory.
	OutputPath string
}

// Result describes a finished episode.
type Result struct {
	Run        *podcast.GenerationRun
	OutputPath string
	Duration   time.Duration
}
