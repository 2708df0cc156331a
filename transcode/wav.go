package transcode

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// PCM bit depths accepted by WriteWAV
const (
	BitDepth16 = 16
	BitDepth24 = 24
	BitDepth32 = 32

	DefaultBitDepth = BitDepth16

	wavFormatPCM = 1
)

// ErrNotPCM is returned for WAV files that are not integer PCM (float, ADPCM, ...).
var ErrNotPCM = errors.New("wav file is not integer PCM")

// ReadWAV decodes an integer PCM WAV file into mono samples in [-1, 1).
// Samples are scaled by 2^(bitDepth-1) and channels are averaged.
func ReadWAV(path string) (*AudioData, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open wav file: %w", err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("invalid wav file: %s", path)
	}
	if decoder.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("%s: format tag %d: %w", path, decoder.WavAudioFormat, ErrNotPCM)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("could not read pcm buffer: %w", err)
	}

	channels := buf.Format.NumChannels
	if channels <= 0 {
		return nil, fmt.Errorf("invalid channel count: %d", channels)
	}

	bitDepth := int(decoder.BitDepth)
	samples := downmix(buf.Data, channels, bitDepth)

	return &AudioData{
		PCM:        samples,
		SampleRate: buf.Format.SampleRate,
		Channels:   channels,
		BitDepth:   bitDepth,
		Duration:   samplesDuration(len(samples), buf.Format.SampleRate),
		Source:     path,
		Decoder:    "wav",
	}, nil
}

// WriteWAV writes mono samples as integer PCM. Samples outside [-1, 1] are
// clipped. A zero bitDepth writes 16-bit.
func WriteWAV(path string, samples []float64, sampleRate, bitDepth int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive: %d", sampleRate)
	}
	if bitDepth == 0 {
		bitDepth = DefaultBitDepth
	}

	switch bitDepth {
	case BitDepth16, BitDepth24, BitDepth32:
	default:
		return fmt.Errorf("unsupported bit depth: %d", bitDepth)
	}
	maxVal := fullScale(bitDepth) - 1

	data := make([]int, len(samples))
	for i, s := range samples {
		s = math.Max(-1, math.Min(1, s))
		data[i] = int(math.Round(s * maxVal))
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create wav file: %w", err)
	}

	encoder := wav.NewEncoder(out, sampleRate, bitDepth, 1, wavFormatPCM)
	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: bitDepth,
	}

	if err := encoder.Write(buf); err != nil {
		_ = out.Close()
		return fmt.Errorf("could not write wav data: %w", err)
	}
	if err := encoder.Close(); err != nil {
		_ = out.Close()
		return fmt.Errorf("could not finalize wav file: %w", err)
	}

	return out.Close()
}

// downmix averages interleaved integer frames into normalized mono samples.
// 8-bit WAV data is unsigned with a 128 midpoint.
func downmix(data []int, channels, bitDepth int) []float64 {
	scale := fullScale(bitDepth)
	if scale == 0 {
		scale = fullScale(DefaultBitDepth)
	}
	offset := 0.0
	if bitDepth == 8 {
		offset = 128
	}

	frames := len(data) / channels
	samples := make([]float64, frames)
	for i := range frames {
		sum := 0.0
		for ch := range channels {
			sum += (float64(data[i*channels+ch]) - offset) / scale
		}
		samples[i] = sum / float64(channels)
	}

	return samples
}

// fullScale returns 2^(bitDepth-1) for supported depths, 0 otherwise.
func fullScale(bitDepth int) float64 {
	switch bitDepth {
	case 8, BitDepth16, BitDepth24, BitDepth32:
		return math.Exp2(float64(bitDepth - 1))
	default:
		return 0
	}
}

func samplesDuration(samples, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}
