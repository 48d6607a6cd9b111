package podcast

import (
	"time"

	"github.com/google/uuid"
)

// State is a step of the generation state machine.
type State string

const (
	StatePlanning       State = "planning"
	StateVoiceSelection State = "voice_selection"
	StateDispatch       State = "dispatch"
	StateCollecting     State = "collecting"
	StateAssembling     State = "assembling"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

func (s State) String() string {
	return string(s)
}

// AudioSegment is the synthesized narration of one subtopic. Long narrations
// are synthesized in several parts which are played back to back.
type AudioSegment struct {
	Index    int
	Subtopic string
	Format   string
	Parts    [][]byte
}

// Size is the total number of audio bytes.
func (s AudioSegment) Size() int {
	n := 0
	for _, p := range s.Parts {
		n += len(p)
	}
	return n
}

// GenerationRun tracks one end-to-end invocation.
type GenerationRun struct {
	ID         string
	Topic      Topic
	Voice      Voice
	Subtopics  SubtopicList
	State      State
	Failure    *Failure
	OutputPath string
	StartedAt  time.Time
	FinishedAt time.Time

	segments []*AudioSegment
	errs     []error
}

// NewRun starts a run for the topic in the planning state.
func NewRun(topic Topic) *GenerationRun {
	return &GenerationRun{
		ID:        uuid.NewString(),
		Topic:     topic,
		State:     StatePlanning,
		StartedAt: time.Now(),
	}
}

// Plan fixes the subtopic list and allocates one result slot per subtopic.
func (r *GenerationRun) Plan(subtopics SubtopicList) {
	r.Subtopics = subtopics
	r.segments = make([]*AudioSegment, len(subtopics))
	r.errs = make([]error, len(subtopics))
}

// Complete fills the slot at index. Each slot is owned by exactly one task, so
// no locking is needed.
func (r *GenerationRun) Complete(index int, seg *AudioSegment) {
	r.segments[index] = seg
}

// Fail records the failure of the task owning index.
func (r *GenerationRun) Fail(index int, err error) {
	r.errs[index] = err
}

// FirstError returns the lowest-index task failure, or -1 and nil.
func (r *GenerationRun) FirstError() (int, error) {
	for i, err := range r.errs {
		if err != nil {
			return i, err
		}
	}
	return -1, nil
}

// Failed counts failed slots.
func (r *GenerationRun) Failed() int {
	n := 0
	for _, err := range r.errs {
		if err != nil {
			n++
		}
	}
	return n
}

// Segments returns the collected segments ordered by subtopic index. It reports
// false if any slot is still empty.
func (r *GenerationRun) Segments() ([]AudioSegment, bool) {
	out := make([]AudioSegment, 0, len(r.segments))
	for _, s := range r.segments {
		if s == nil {
			return nil, false
		}
		out = append(out, *s)
	}
	return out, true
}

// Finish moves the run into a terminal state.
func (r *GenerationRun) Finish(f *Failure) {
	r.FinishedAt = time.Now()
	if f != nil {
		r.State = StateFailed
		r.Failure = f
		return
	}
	r.State = StateDone
}
