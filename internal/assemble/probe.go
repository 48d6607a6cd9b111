package assemble

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"
)

// Probe validates a produced audio file.
type Probe func(path string) error

// DecodeProbe checks that the file decodes as audio of its extension and
// holds at least one sample. Formats without a decoder only need to be non-empty.
func DecodeProbe(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return errors.New("output file is empty")
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}

	var streamer beep.StreamSeekCloser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		streamer, _, err = mp3.Decode(f)
	case ".wav":
		streamer, _, err = wav.Decode(f)
	default:
		return f.Close()
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("output is not playable: %w", err)
	}
	defer streamer.Close()

	if streamer.Len() <= 0 {
		return errors.New("output has no audio samples")
	}
	return nil
}
