// Command tubeinfo prints the static and harmonic behaviour of the tube
// voicings.
//
// Usage:
//
//	tubeinfo [flags] [voicing ...]
//
// Without arguments it prints every voicing. Each row drives the kernel with
// a bin-centred sine at one input level and reports output peak, peak
// compression and harmonic distortion.
//
// Examples:
//
//	tubeinfo
//	tubeinfo -levels 0.25,1,4 warm aggressive
//	tubeinfo -window blackman-harris -oversampling 1
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/tubecity/dsp/tube"
	"github.com/cwbudde/tubecity/dsp/window"
)

func main() {
	rate := flag.Float64("rate", 48000, "sample rate in Hz")
	size := flag.Int("size", 8192, "analysis length in samples")
	bin := flag.Int("bin", 64, "FFT bin of the test tone")
	levels := flag.String("levels", "0.1,0.5,1,2", "comma-separated input peak levels")
	win := flag.String("window", "hann", "analysis window (rectangular, hann, blackman-harris, flat-top)")
	oversampling := flag.Int("oversampling", 4, "wet path oversampling factor (1, 2, 4)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tubeinfo [flags] [voicing ...]\n\n")
		fmt.Fprintf(os.Stderr, "Prints compression and harmonic content of the tube voicings.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  tubeinfo warm\n")
		fmt.Fprintf(os.Stderr, "  tubeinfo -levels 0.25,1,4 -window flat-top\n")
	}
	flag.Parse()

	cfg := config{
		sampleRate:   *rate,
		size:         *size,
		bin:          *bin,
		oversampling: *oversampling,
	}

	var err error

	if cfg.levels, err = parseLevels(*levels); err != nil {
		fatal(err)
	}

	if cfg.window, err = window.Parse(*win); err != nil {
		fatal(err)
	}

	if cfg.voicings, err = resolveVoicings(flag.Args()); err != nil {
		fatal(err)
	}

	rows, err := analyze(cfg)
	if err != nil {
		fatal(err)
	}

	printRows(rows)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func parseLevels(s string) ([]float64, error) {
	var out []float64

	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}

		v, err := strconv.ParseFloat(field, 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid level %q", field)
		}

		out = append(out, v)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no levels in %q", s)
	}

	return out, nil
}

func resolveVoicings(names []string) ([]tube.Voicing, error) {
	if len(names) == 0 {
		return tube.Voicings(), nil
	}

	byName := make(map[string]tube.Voicing)
	for _, v := range tube.Voicings() {
		byName[v.String()] = v
	}

	out := make([]tube.Voicing, 0, len(names))

	for _, name := range names {
		v, ok := byName[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown voicing %q (neutral, warm, aggressive)", name)
		}

		out = append(out, v)
	}

	return out, nil
}

func printRows(rows []row) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Voicing\tLevel\tOut Peak\tCompression [dB]\tTHD [%%]\tOdd [%%]\tEven [%%]\n"); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output header: %v\n", err)
		return
	}

	if _, err := fmt.Fprintf(tw, "-------\t-----\t--------\t----------------\t-------\t-------\t--------\n"); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output header: %v\n", err)
		return
	}

	for _, r := range rows {
		if _, err := fmt.Fprintf(tw, "%s\t%.3f\t%.4f\t%.2f\t%.3f\t%.3f\t%.5f\n",
			r.voicing,
			r.level,
			r.outPeak,
			r.compressionDB,
			r.thd*100,
			r.odd*100,
			r.even*100,
		); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output row: %v\n", err)
			return
		}
	}

	if err := tw.Flush(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}
}
