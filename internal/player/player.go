// Package player plays finished episodes on the default audio device.
package player

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

// Player plays one audio file. It is safe for concurrent use.
type Player struct {
	mu        sync.Mutex
	streamer  beep.StreamSeekCloser
	format    beep.Format
	ctrl      *beep.Ctrl
	isPlaying bool
	done      chan struct{}
}

// Open decodes an mp3 or wav file.
func Open(path string) (*Player, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	var streamer beep.StreamSeekCloser
	var format beep.Format
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	default:
		f.Close()
		return nil, fmt.Errorf("unsupported audio format %q", ext)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return &Player{
		streamer: streamer,
		format:   format,
		ctrl:     &beep.Ctrl{Streamer: streamer},
		done:     make(chan struct{}),
	}, nil
}

// Length is the duration of the file.
func (p *Player) Length() time.Duration {
	return p.format.SampleRate.D(p.streamer.Len())
}

// Position is how far playback has progressed.
func (p *Player) Position() time.Duration {
	speaker.Lock()
	defer speaker.Unlock()
	return p.format.SampleRate.D(p.streamer.Position())
}

// Play starts playback and blocks until the file ends or ctx is done.
func (p *Player) Play(ctx context.Context) error {
	if err := speaker.Init(p.format.SampleRate, p.format.SampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("failed to initialise speaker: %w", err)
	}

	p.mu.Lock()
	p.isPlaying = true
	p.mu.Unlock()

	speaker.Play(beep.Seq(p.ctrl, beep.Callback(func() {
		p.mu.Lock()
		p.isPlaying = false
		p.mu.Unlock()
		close(p.done)
	})))

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		p.Stop()
		return ctx.Err()
	}
}

// TogglePause pauses or resumes playback and reports whether it is now paused.
func (p *Player) TogglePause() bool {
	speaker.Lock()
	defer speaker.Unlock()
	p.ctrl.Paused = !p.ctrl.Paused
	return p.ctrl.Paused
}

func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isPlaying
}

// Done is closed when playback reaches the end of the file.
func (p *Player) Done() <-chan struct{} {
	return p.done
}

// Stop ends playback.
func (p *Player) Stop() {
	speaker.Clear()
	p.mu.Lock()
	p.isPlaying = false
	p.mu.Unlock()
}

func (p *Player) Close() error {
	return p.streamer.Close()
}
