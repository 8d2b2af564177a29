package meter

import (
	"context"
	"time"
)

// DefaultPollInterval is the display refresh cadence of roughly 30 Hz.
const DefaultPollInterval = time.Second / 30

// Source exposes current meter values. Implementations must be safe to call
// from a goroutine other than the render goroutine.
type Source interface {
	SignalLevel() float32
	FlickerLevel() float32
}

// Reading is one sampled pair of meter values.
type Reading struct {
	Signal  float32
	Flicker float32
	At      time.Time
}

// Poller samples a Source at a fixed interval, independent of the audio
// block size.
type Poller struct {
	src      Source
	interval time.Duration
}

// NewPoller returns a poller for src. A non-positive interval selects
// DefaultPollInterval.
func NewPoller(src Source, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	return &Poller{src: src, interval: interval}
}

// Interval returns the polling period.
func (p *Poller) Interval() time.Duration { return p.interval }

// Sample reads the source once.
func (p *Poller) Sample() Reading {
	return Reading{
		Signal:  p.src.SignalLevel(),
		Flicker: p.src.FlickerLevel(),
		At:      time.Now(),
	}
}

// Run calls fn with a fresh Reading every interval until ctx is done, then
// returns ctx.Err(). fn runs on the calling goroutine.
func (p *Poller) Run(ctx context.Context, fn func(Reading)) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			fn(p.Sample())
		}
	}
}
