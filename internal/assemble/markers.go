package assemble

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"podnest/internal/domain/podcast"
)

// LoadMarker reads a prerecorded intro or outro. Its format is taken from the
// file extension.
func LoadMarker(path string) (*podcast.AudioSegment, error) {
	audio, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read marker %s: %w", path, err)
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format == "" {
		return nil, fmt.Errorf("marker %s has no file extension", path)
	}
	return &podcast.AudioSegment{
		Index:    -1,
		Subtopic: filepath.Base(path),
		Format:   format,
		Parts:    [][]byte{audio},
	}, nil
}
