package llm

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
)

// Mock is an offline completer producing placeholder content. It recognises
// the prompts of the text generator by their leading instruction line.
type Mock struct {
	calls atomic.Int64
}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Model() string {
	return "mock"
}

// Calls reports how many completions were served.
func (m *Mock) Calls() int64 {
	return m.calls.Load()
}

func (m *Mock) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.calls.Add(1)

	first, _, _ := strings.Cut(prompt, "\n")
	switch {
	case strings.Contains(first, "list of subtopics"):
		return "1. Introduction\n2. Core ideas\n3. In practice\n4. Looking ahead", nil
	case strings.Contains(first, "narrator voice"):
		return "default", nil
	default:
		words := len(strings.Fields(prompt))
		return fmt.Sprintf("This is placeholder narration generated offline from a prompt of %d words.", words), nil
	}
}
