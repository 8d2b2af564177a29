package meter

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fixedSource struct {
	signal, flicker float32
}

func (s fixedSource) SignalLevel() float32  { return s.signal }
func (s fixedSource) FlickerLevel() float32 { return s.flicker }

func TestNewPollerDefaultInterval(t *testing.T) {
	p := NewPoller(fixedSource{}, 0)
	if p.Interval() != DefaultPollInterval {
		t.Fatalf("Interval() = %v, want %v", p.Interval(), DefaultPollInterval)
	}
}

func TestPollerSample(t *testing.T) {
	p := NewPoller(fixedSource{signal: 0.25, flicker: 0.5}, time.Millisecond)

	r := p.Sample()
	if r.Signal != 0.25 || r.Flicker != 0.5 {
		t.Fatalf("Sample() = %+v", r)
	}
}

func TestPollerRunStopsOnCancel(t *testing.T) {
	p := NewPoller(fixedSource{signal: 0.1, flicker: 0.2}, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())

	var count atomic.Int32

	done := make(chan error, 1)

	go func() {
		done <- p.Run(ctx, func(r Reading) {
			if r.Signal != 0.1 || r.Flicker != 0.2 {
				t.Errorf("unexpected reading %+v", r)
			}

			if count.Add(1) == 3 {
				cancel()
			}
		})
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	if count.Load() < 3 {
		t.Fatalf("received %d readings, want >= 3", count.Load())
	}
}
