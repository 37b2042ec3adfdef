package notify

import (
	"fmt"
	"math"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"

	"timerdeck/internal/timer"
)

const (
	sampleRate = beep.SampleRate(44100)
	toneFreq   = 880.0
	toneLength = 400 * time.Millisecond
)

// Sound plays a short tone when a timer completes.
type Sound struct {
	volume float64
	play   func(beep.Streamer) error
}

// NewSound opens the audio device and returns a completion beeper. volume is
// a base-2 exponent, 0 is unchanged. Notify runs on the scheduler goroutine
// and must not block on device setup.
func NewSound(volume float64) (*Sound, error) {
	return newSound(volume, initSpeaker, playSpeaker)
}

func newSound(volume float64, open func() error, play func(beep.Streamer) error) (*Sound, error) {
	if err := open(); err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	return &Sound{volume: volume, play: play}, nil
}

func (s *Sound) Notify(event timer.Event) error {
	if event.Type != timer.EventCompletion {
		return nil
	}
	tone := &effects.Volume{
		Streamer: beep.Take(sampleRate.N(toneLength), sine(toneFreq)),
		Base:     2,
		Volume:   s.volume,
	}
	if err := s.play(tone); err != nil {
		return fmt.Errorf("play completion tone: %w", err)
	}
	return nil
}

func sine(freq float64) beep.Streamer {
	var pos int
	step := 2 * math.Pi * freq / float64(sampleRate)
	return beep.StreamerFunc(func(samples [][2]float64) (n int, ok bool) {
		for i := range samples {
			v := 0.3 * math.Sin(step*float64(pos))
			samples[i][0] = v
			samples[i][1] = v
			pos++
		}
		return len(samples), true
	})
}

func initSpeaker() error {
	return speaker.Init(sampleRate, sampleRate.N(time.Second/10))
}

// playSpeaker queues s on the mixer and returns without waiting for playback.
func playSpeaker(s beep.Streamer) error {
	speaker.Play(s)
	return nil
}
