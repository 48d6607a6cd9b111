package podcast

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTopic     = errors.New("invalid topic")
	ErrUnknownTopic     = errors.New("unknown topic")
	ErrInvalidSubtopics = errors.New("invalid subtopic list")
	ErrRefused          = errors.New("refused by text service")
	ErrSynthesis        = errors.New("speech synthesis failed")
	ErrExternalTool     = errors.New("audio tool failed")
	ErrTimeout          = errors.New("run timed out")
	ErrCanceled         = errors.New("run canceled")
)

// Failure is the classified terminal outcome of a failed run.
type Failure struct {
	Stage State
	// Index is the subtopic index the failure is attributed to, or -1.
	Index int
	Err   error
}

func (f *Failure) Error() string {
	if f.Index >= 0 {
		return fmt.Sprintf("%s failed at subtopic %d: %v", f.Stage, f.Index+1, f.Err)
	}
	return fmt.Sprintf("%s failed: %v", f.Stage, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Class returns the taxonomy sentinel matching err, or nil.
func Class(err error) error {
	for _, c := range []error{ErrInvalidTopic, ErrUnknownTopic, ErrInvalidSubtopics, ErrRefused,
		ErrSynthesis, ErrExternalTool, ErrTimeout, ErrCanceled} {
		if errors.Is(err, c) {
			return c
		}
	}
	return nil
}

// Remedy suggests what the user can do about a failure.
func Remedy(err error) string {
	switch Class(err) {
	case ErrInvalidTopic, ErrUnknownTopic:
		return "reword the topic and try again"
	case ErrInvalidSubtopics, ErrRefused:
		return "retry the run, or reword the topic if it keeps failing"
	case ErrSynthesis:
		return "retry the run; evict the topic's cached audio if a segment is corrupt"
	case ErrExternalTool:
		return "check that ffmpeg is installed and the output location is writable"
	case ErrTimeout, ErrCanceled:
		return "retry the run; completed segments are reused from cache"
	}
	return "retry the run"
}
