package main

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

var errUnsupportedWAV = errors.New("unsupported WAV encoding")

// track is decoded PCM as planar float64 samples in [-1, 1).
type track struct {
	sampleRate int
	bitDepth   int
	channels   [][]float64
}

func (t *track) frames() int {
	if len(t.channels) == 0 {
		return 0
	}

	return len(t.channels[0])
}

func readWAV(path string) (*track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}

	if err := decoder.FwdToPCM(); err != nil {
		return nil, err
	}

	format := decoder.Format()
	bitDepth := int(decoder.SampleBitDepth())

	if bitDepth == 0 {
		return nil, fmt.Errorf("unknown bit depth for WAV file: %s", path)
	}

	if af := decoder.WavAudioFormat; af != wavFormatPCM && af != wavFormatExtensible {
		return nil, fmt.Errorf("%w: audio format %d in %s (integer PCM only)", errUnsupportedWAV, af, path)
	}

	if !supportedBitDepth(bitDepth) {
		return nil, fmt.Errorf("%w: %d-bit samples in %s (16, 24 or 32 bit only)", errUnsupportedWAV, bitDepth, path)
	}

	if format.NumChannels < 1 {
		return nil, fmt.Errorf("no channels in WAV file: %s", path)
	}

	bytesPerSample := (bitDepth-1)/8 + 1
	nsamples := int(decoder.PCMLen()) / bytesPerSample
	nframes := nsamples / format.NumChannels

	buf := &audio.IntBuffer{
		Format:         format,
		Data:           make([]int, nframes*format.NumChannels),
		SourceBitDepth: bitDepth,
	}

	n, err := decoder.PCMBuffer(buf)
	if err != nil {
		return nil, err
	}

	nframes = n / format.NumChannels
	factor := math.Pow(2, float64(bitDepth-1))

	t := &track{
		sampleRate: format.SampleRate,
		bitDepth:   bitDepth,
		channels:   make([][]float64, format.NumChannels),
	}
	for ch := range t.channels {
		t.channels[ch] = make([]float64, nframes)
	}

	for i := range nframes {
		for ch := range t.channels {
			t.channels[ch][i] = float64(buf.Data[i*format.NumChannels+ch]) / factor
		}
	}

	return t, nil
}

func writeWAV(path string, t *track) error {
	if !supportedBitDepth(t.bitDepth) {
		return fmt.Errorf("%w: %d-bit output", errUnsupportedWAV, t.bitDepth)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	nch := len(t.channels)
	nframes := t.frames()
	factor := math.Pow(2, float64(t.bitDepth-1))

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: nch,
			SampleRate:  t.sampleRate,
		},
		Data:           make([]int, nframes*nch),
		SourceBitDepth: t.bitDepth,
	}

	for i := range nframes {
		for ch := range nch {
			buf.Data[i*nch+ch] = quantize(t.channels[ch][i], factor)
		}
	}

	enc := wav.NewEncoder(f, t.sampleRate, t.bitDepth, nch, 1)
	if err := enc.Write(buf); err != nil {
		return err
	}

	return enc.Close()
}

func quantize(x, factor float64) int {
	v := math.Round(x * factor)

	return int(math.Max(-factor, math.Min(factor-1, v)))
}

// supportedBitDepth reports whether samples are signed integers go-audio
// decodes without an offset. 8-bit WAV data is unsigned.
func supportedBitDepth(bits int) bool {
	switch bits {
	case 16, 24, 32:
		return true
	default:
		return false
	}
}
