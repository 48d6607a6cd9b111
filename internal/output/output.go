// Package output decides where finished episodes are written.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/flytam/filenamify"

	"podnest/internal/domain/podcast"
)

// DefaultFilename names an episode after the time of generation and its topic,
// e.g. "2026-10-17T09-30-00 Volcanoes.mp3".
func DefaultFilename(topic podcast.Topic, format string, now time.Time) string {
	base := now.Format("2006-01-02T15:04:05") + " " + topic.String()
	name, err := filenamify.Filenamify(base, filenamify.Options{Replacement: "-", MaxLength: 200})
	if err != nil || name == "" {
		name = now.Format("20060102-150405")
	}
	return name + "." + format
}

// Resolve returns the absolute path of the episode file. An empty path places
// the file in dir under its default name, as does a path naming an existing
// directory. An explicit file path must carry the extension of format.
func Resolve(path, dir string, topic podcast.Topic, format string, now time.Time) (string, error) {
	if path == "" {
		if dir == "" {
			dir = "."
		}
		path = filepath.Join(expandHome(dir), DefaultFilename(topic, format, now))
		return filepath.Abs(path)
	}

	path = expandHome(path)
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return filepath.Abs(filepath.Join(path, DefaultFilename(topic, format, now)))
	}

	if ext := strings.ToLower(filepath.Ext(path)); ext != "."+format {
		return "", fmt.Errorf("output file %s must have the .%s extension", path, format)
	}
	return filepath.Abs(path)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
