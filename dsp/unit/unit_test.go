package unit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cwbudde/tubecity/dsp/bus"
	"github.com/cwbudde/tubecity/dsp/core"
	"github.com/cwbudde/tubecity/dsp/meter"
	"github.com/cwbudde/tubecity/dsp/param"
	"github.com/cwbudde/tubecity/dsp/render"
	"github.com/cwbudde/tubecity/dsp/tube"
	"github.com/cwbudde/tubecity/internal/testutil"
)

func newTestUnit(t *testing.T, opts ...Option) (*Unit, *bytes.Buffer) {
	t.Helper()

	var logs bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	u, err := New(append([]Option{WithLogger(logger), WithMaxFramesToRender(256)}, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return u, &logs
}

func dcSource(value float64) bus.Source {
	return bus.SourceFunc(func(dst [][]float64, frames int) error {
		for ch := range dst {
			copy(dst[ch][:frames], testutil.DC(value, frames))
		}

		return nil
	})
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	if _, err := New(WithMeterInterval(0)); err == nil {
		t.Fatal("expected error for zero meter interval")
	}

	if _, err := New(WithMaxFramesToRender(0)); err == nil {
		t.Fatal("expected error for zero max frames")
	}

	if _, err := New(WithKernelOptions(tube.WithOversampling(3))); err == nil {
		t.Fatal("expected kernel option error")
	}
}

func TestNewPushesDefaults(t *testing.T) {
	u, _ := newTestUnit(t)

	for _, s := range u.Parameters() {
		if got := u.Parameter(s.Address); got != s.Default {
			t.Fatalf("%s = %g, want default %g", s.Name, got, s.Default)
		}
	}

	if got := u.ParameterString(param.OutputVolume); got != "1.00" {
		t.Fatalf("ParameterString(OutputVolume) = %q", got)
	}

	if got := u.ParameterString(param.Bypass); got != "Off" {
		t.Fatalf("ParameterString(Bypass) = %q", got)
	}
}

func TestChannelCapabilities(t *testing.T) {
	u, _ := newTestUnit(t)

	caps := u.ChannelCapabilities()
	if len(caps) != 2 || caps[0] != (Capability{1, 1}) || caps[1] != (Capability{2, 2}) {
		t.Fatalf("ChannelCapabilities() = %v", caps)
	}

	caps[0] = Capability{8, 8}

	if u.ChannelCapabilities()[0] != (Capability{1, 1}) {
		t.Fatal("ChannelCapabilities must return a copy")
	}
}

func TestAllocateRenderResourcesErrors(t *testing.T) {
	u, logs := newTestUnit(t)

	if err := u.AllocateRenderResources(2, 1, 44100); !errors.Is(err, tube.ErrChannelMismatch) {
		t.Fatalf("AllocateRenderResources(2, 1) error = %v", err)
	}

	if err := u.AllocateRenderResources(4, 4, 44100); !errors.Is(err, ErrUnsupportedLayout) {
		t.Fatalf("AllocateRenderResources(4, 4) error = %v", err)
	}

	if err := u.AllocateRenderResources(2, 2, 0); !errors.Is(err, tube.ErrUnsupportedSampleRate) {
		t.Fatalf("AllocateRenderResources(rate 0) error = %v", err)
	}

	if u.Kernel().Initialized() {
		t.Fatal("kernel must not stay initialized after a failed allocation")
	}

	out := [][]float64{testutil.Ones(16), testutil.Ones(16)}
	if status := u.Render(out, 16); status != render.StatusUninitialized {
		t.Fatalf("Render() = %v after failed allocation", status)
	}

	if !strings.Contains(logs.String(), "allocate render resources failed") {
		t.Fatalf("failure not logged: %s", logs.String())
	}
}

func TestRenderLifecycle(t *testing.T) {
	u, logs := newTestUnit(t)
	u.SetSource(dcSource(1))
	u.SetParameter(param.AggressiveTube, 1)

	if err := u.AllocateRenderResources(2, 2, 44100); err != nil {
		t.Fatalf("AllocateRenderResources() error = %v", err)
	}

	out := [][]float64{make([]float64, 256), make([]float64, 256)}
	for range 3 {
		if status := u.Render(out, 256); status != render.StatusOK {
			t.Fatalf("Render() = %v", status)
		}
	}

	want := tube.VoicingAggressive.Shape(1)
	testutil.RequireSliceNearlyEqual(t, out[1], testutil.DC(want, 256), 1e-12)

	if s := u.SignalLevel(); !(s > 0 && s < 1) {
		t.Fatalf("SignalLevel() = %g", s)
	}

	if status := u.Render(out, 257); status != render.StatusFrameCountExceeded {
		t.Fatalf("Render(257) = %v", status)
	}

	if got := u.Stats(); got.Blocks != 3 || got.Errors != 1 {
		t.Fatalf("Stats() = %+v", got)
	}

	u.DeallocateRenderResources()
	u.DeallocateRenderResources()

	if status := u.Render(out, 16); status != render.StatusUninitialized {
		t.Fatalf("Render() after deallocate = %v", status)
	}

	if n := strings.Count(logs.String(), "render resources deallocated"); n != 1 {
		t.Fatalf("deallocation logged %d times", n)
	}
}

func TestMaximumFramesToRender(t *testing.T) {
	u, _ := newTestUnit(t)
	u.SetMaximumFramesToRender(512)
	u.SetMaximumFramesToRender(-1)

	if u.MaximumFramesToRender() != 512 {
		t.Fatalf("MaximumFramesToRender() = %d", u.MaximumFramesToRender())
	}

	u.SetSource(dcSource(0.25))

	if err := u.AllocateRenderResources(1, 1, 48000); err != nil {
		t.Fatal(err)
	}

	out := [][]float64{make([]float64, 512)}
	if status := u.Render(out, 512); status != render.StatusOK {
		t.Fatalf("Render(512) = %v", status)
	}
}

func TestBypassThroughUnit(t *testing.T) {
	u, _ := newTestUnit(t)
	u.SetSource(dcSource(0.8))
	u.SetParameter(param.WarmTube, 1)

	if err := u.AllocateRenderResources(1, 1, 48000); err != nil {
		t.Fatal(err)
	}

	u.SetBypass(true)

	if !u.IsBypassed() || u.ParameterString(param.Bypass) != "On" {
		t.Fatal("bypass not reported")
	}

	out := [][]float64{make([]float64, 64)}
	u.Render(out, 64)

	testutil.RequireSliceNearlyEqual(t, out[0], testutil.DC(0.8, 64), 0)

	if u.FlickerLevel() != 0 || u.SignalLevel() != 0 {
		t.Fatal("bypass must not meter the passed-through signal")
	}
}

func TestStartMeter(t *testing.T) {
	u, _ := newTestUnit(t, WithMeterInterval(time.Millisecond))

	var (
		mu       sync.Mutex
		readings []meter.Reading
	)

	got := make(chan struct{})

	u.StartMeter(context.Background(), func(r meter.Reading) {
		mu.Lock()
		defer mu.Unlock()

		readings = append(readings, r)
		if len(readings) == 3 {
			close(got)
		}
	})

	select {
	case <-got:
	case <-time.After(5 * time.Second):
		t.Fatal("meter poller produced no readings")
	}

	u.StopMeter()
	u.StopMeter()

	mu.Lock()
	n := len(readings)
	mu.Unlock()

	time.Sleep(10 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	if len(readings) != n {
		t.Fatal("poller kept running after StopMeter")
	}
}

func TestStartMeterConcurrentRestarts(t *testing.T) {
	u, _ := newTestUnit(t, WithMeterInterval(time.Millisecond))

	var (
		calls atomic.Int64
		wg    sync.WaitGroup
	)

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			u.StartMeter(context.Background(), func(meter.Reading) {
				calls.Add(1)
			})
		}()
	}

	wg.Wait()
	u.StopMeter()

	n := calls.Load()

	time.Sleep(20 * time.Millisecond)

	if got := calls.Load(); got != n {
		t.Fatalf("%d readings delivered after StopMeter", got-n)
	}
}

func TestStartMeterStopsWithContext(t *testing.T) {
	u, _ := newTestUnit(t, WithMeterInterval(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	u.StartMeter(ctx, func(meter.Reading) {})
	cancel()

	u.StopMeter()
}

func TestAllocateDefault(t *testing.T) {
	u, _ := newTestUnit(t, WithProcessorOptions(core.WithSampleRate(96000), core.WithChannels(1), core.WithBlockSize(64)))

	if u.MaximumFramesToRender() != 64 {
		t.Fatalf("MaximumFramesToRender() = %d, want 64", u.MaximumFramesToRender())
	}

	if err := u.AllocateDefault(); err != nil {
		t.Fatalf("AllocateDefault() error = %v", err)
	}

	if k := u.Kernel(); k.SampleRate() != 96000 || k.Channels() != 1 {
		t.Fatalf("kernel at %g Hz, %d ch", k.SampleRate(), k.Channels())
	}

	if status := u.Render([][]float64{make([]float64, 65)}, 65); status != render.StatusFrameCountExceeded {
		t.Fatalf("Render(65) = %v", status)
	}
}
