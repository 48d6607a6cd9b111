package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"podnest/internal/assemble"
	"podnest/internal/domain/podcast"
	"podnest/internal/output"
)

// MarkerFiles are prerecorded markers used instead of synthesized ones.
type MarkerFiles struct {
	Intro string
	Outro string
}

// Coordinator runs the generation state machine:
//
//	planning -> voice_selection -> dispatch -> collecting -> assembling -> done
//
// Any state may end in failed.
type Coordinator struct {
	cfg       Config
	text      TextGenerator
	speech    SpeechGenerator
	assembler Assembler
	markers   MarkerFiles
	outputDir string
	log       logrus.FieldLogger
}

type Option func(*Coordinator)

func WithMarkerFiles(m MarkerFiles) Option {
	return func(c *Coordinator) {
		c.markers = m
	}
}

// WithOutputDir sets where episodes go when a request names no output path.
func WithOutputDir(dir string) Option {
	return func(c *Coordinator) {
		c.outputDir = dir
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Coordinator) {
		c.log = l
	}
}

func NewCoordinator(cfg Config, text TextGenerator, speech SpeechGenerator, assembler Assembler, opts ...Option) *Coordinator {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	c := &Coordinator{
		cfg:       cfg,
		text:      text,
		speech:    speech,
		assembler: assembler,
		log:       logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Run generates the episode of req. On failure the returned error is a
// *podcast.Failure. Cache writes made before a failure are kept, so a rerun
// resumes where this one stopped.
func (c *Coordinator) Run(ctx context.Context, req Request) (*Result, error) {
	run := podcast.NewRun(req.Topic)
	log := c.log.WithFields(logrus.Fields{
		"run_id": run.ID,
		"topic":  req.Topic.String(),
	})

	runCtx := ctx
	if c.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.cfg.RunTimeout)
		defer cancel()
	}

	fail := func(index int, err error) (*Result, error) {
		f := &podcast.Failure{Stage: run.State, Index: index, Err: classify(ctx, runCtx, err)}
		run.Finish(f)
		log.WithFields(logrus.Fields{
			"state": f.Stage,
			"index": index,
		}).WithError(f.Err).Error("Run failed")
		return nil, f
	}

	if err := c.assembler.Check(); err != nil {
		return fail(-1, err)
	}

	// planning
	log.WithField("state", run.State).Info("Listing subtopics")
	subtopics, err := c.text.ListSubtopics(runCtx, req.Topic)
	if err != nil {
		return fail(-1, err)
	}
	limit := req.MaxSubtopics
	if limit <= 0 {
		limit = c.cfg.MaxSubtopics
	}
	run.Plan(subtopics.Limit(limit))
	log.WithField("subtopics", len(run.Subtopics)).Info("Planned episode")

	// voice selection
	run.State = podcast.StateVoiceSelection
	run.Voice = req.Voice
	if run.Voice == "" {
		if run.Voice, err = c.text.SelectVoice(runCtx, req.Topic); err != nil {
			return fail(-1, err)
		}
	}
	log.WithField("voice", run.Voice).Info("Selected voice")

	// dispatch and collect
	run.State = podcast.StateDispatch
	c.dispatch(runCtx, run, log)
	run.State = podcast.StateCollecting
	if err := runCtx.Err(); err != nil {
		return fail(-1, err)
	}
	if index, err := run.FirstError(); err != nil {
		log.WithField("failed", run.Failed()).Warn("Some sections could not be generated")
		return fail(index, err)
	}
	segments, ok := run.Segments()
	if !ok {
		return fail(-1, errors.New("missing audio segments"))
	}

	// assembly
	run.State = podcast.StateAssembling
	var markers assemble.Markers
	if req.Markers {
		if markers, err = c.buildMarkers(runCtx, run); err != nil {
			return fail(-1, err)
		}
	}
	path, err := output.Resolve(req.OutputPath, c.outputDir, req.Topic, c.speech.Format(), time.Now())
	if err != nil {
		return fail(-1, err)
	}
	if path, err = c.assembler.Concatenate(runCtx, segments, markers, path); err != nil {
		return fail(-1, err)
	}

	run.OutputPath = path
	run.Finish(nil)
	res := &Result{Run: run, OutputPath: path, Duration: run.FinishedAt.Sub(run.StartedAt)}
	log.WithFields(logrus.Fields{
		"state":    run.State,
		"output":   path,
		"duration": res.Duration.Round(time.Millisecond),
	}).Info("Episode ready")
	return res, nil
}

// dispatch runs one task per subtopic on a bounded pool. Each task owns the
// slot of its index. A failed task does not stop the others; cancellation
// stops scheduling and gives in-flight tasks abandonGrace to return. Tasks
// still running after that are abandoned and their slots are never read.
func (c *Coordinator) dispatch(ctx context.Context, run *podcast.GenerationRun, log logrus.FieldLogger) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		var g errgroup.Group
		g.SetLimit(c.cfg.Workers)
		for i := range run.Subtopics {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				taskLog := log.WithFields(logrus.Fields{
					"index":    i,
					"subtopic": run.Subtopics[i],
				})
				seg, err := c.section(ctx, run, i)
				if err != nil {
					taskLog.WithError(err).Warn("Section failed")
					run.Fail(i, err)
					return nil
				}
				taskLog.WithField("bytes", seg.Size()).Info("Section ready")
				run.Complete(i, seg)
				return nil
			})
		}
		g.Wait()
	}()

	select {
	case <-done:
		return
	case <-ctx.Done():
	}
	select {
	case <-done:
	case <-time.After(abandonGrace):
		log.Warn("Abandoning sections that ignore cancellation")
	}
}

// section produces the audio of the subtopic at index: text, then speech.
func (c *Coordinator) section(ctx context.Context, run *podcast.GenerationRun, index int) (*podcast.AudioSegment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	subtopic := run.Subtopics[index]

	text, err := c.text.RenderSubtopicText(ctx, run.Topic, run.Subtopics, index, run.Voice)
	if err != nil {
		return nil, err
	}

	key := c.speech.SegmentKey(run.Topic, subtopic, index, run.Voice)
	seg, err := c.speech.Synthesize(ctx, text, run.Voice, key)
	if err != nil {
		return nil, err
	}
	seg.Index = index
	seg.Subtopic = subtopic
	return &seg, nil
}

func (c *Coordinator) buildMarkers(ctx context.Context, run *podcast.GenerationRun) (assemble.Markers, error) {
	var markers assemble.Markers
	var err error

	markers.Intro, err = c.marker(ctx, run, "intro", c.markers.Intro, podcast.IntroText(run.Topic))
	if err != nil {
		return markers, err
	}
	markers.Outro, err = c.marker(ctx, run, "outro", c.markers.Outro, podcast.OutroText(run.Topic))
	return markers, err
}

func (c *Coordinator) marker(ctx context.Context, run *podcast.GenerationRun, name, file, text string) (*podcast.AudioSegment, error) {
	if file != "" {
		return assemble.LoadMarker(file)
	}
	seg, err := c.speech.Synthesize(ctx, text, run.Voice, c.speech.MarkerKey(run.Topic, name, run.Voice))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	seg.Index = -1
	seg.Subtopic = name
	return &seg, nil
}

// classify maps context errors onto the run error taxonomy. ctx is the caller's
// context and runCtx the one bounded by the run timeout.
func classify(ctx, runCtx context.Context, err error) error {
	switch {
	case ctx.Err() != nil:
		return fmt.Errorf("%w: %v", podcast.ErrCanceled, err)
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", podcast.ErrTimeout, err)
	}
	return err
}
