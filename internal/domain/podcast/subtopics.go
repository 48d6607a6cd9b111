package podcast

import (
	"fmt"
	"strconv"
	"strings"
)

// SubtopicList is the ordered narration plan of a topic. The order defines the
// order of sections in the final episode.
type SubtopicList []string

// ParseSubtopics parses a numbered list ("1. Foo\n2. Bar") as returned by the
// language model. A "none" answer or an empty list is reported as ErrUnknownTopic,
// a malformed list as ErrInvalidSubtopics.
func ParseSubtopics(raw string) (SubtopicList, error) {
	trimmed := strings.TrimSpace(raw)
	switch strings.ToLower(trimmed) {
	case "", "none", "none.":
		return nil, ErrUnknownTopic
	}

	var list SubtopicList
	seen := make(map[string]bool)
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		num := len(list) + 1
		prefix := strconv.Itoa(num) + ". "
		if !strings.HasPrefix(line, prefix) {
			return nil, fmt.Errorf("%w: subtopic %d is not numbered correctly: %q", ErrInvalidSubtopics, num, line)
		}
		name := strings.TrimSpace(strings.TrimPrefix(line, prefix))
		if name == "" {
			return nil, fmt.Errorf("%w: subtopic %d has no value", ErrInvalidSubtopics, num)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: subtopic %d is a duplicate: %q", ErrInvalidSubtopics, num, name)
		}
		seen[name] = true
		list = append(list, name)
	}

	if len(list) == 0 {
		return nil, ErrUnknownTopic
	}
	return list, nil
}

// Limit truncates the list to at most n entries. n <= 0 means no limit.
func (l SubtopicList) Limit(n int) SubtopicList {
	if n <= 0 || n >= len(l) {
		return l
	}
	return l[:n]
}

// Numbered returns the list with "N. " prefixes, one per line.
func (l SubtopicList) Numbered() string {
	var b strings.Builder
	for i, s := range l {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, s)
	}
	return b.String()
}

// Heading is the spoken section title for the subtopic at index i.
func (l SubtopicList) Heading(i int) string {
	return fmt.Sprintf("Section %d: %s", i+1, l[i])
}
