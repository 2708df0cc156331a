package transcode

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/RyanBlaney/sonido-qa/logging"
)

// ErrSampleRateMismatch is returned when a file's rate differs from the
// loader's and no ffmpeg fallback is configured to resample it.
var ErrSampleRateMismatch = errors.New("sample rate mismatch")

// LoaderConfig holds loader configuration
type LoaderConfig struct {
	SampleRate     int            `json:"sample_rate" yaml:"sample_rate"`
	FFmpegFallback bool           `json:"ffmpeg_fallback" yaml:"ffmpeg_fallback"`
	Decoder        *DecoderConfig `json:"decoder,omitempty" yaml:"decoder,omitempty"`
}

// DefaultLoaderConfig returns a 44.1 kHz loader with ffmpeg fallback enabled
func DefaultLoaderConfig() *LoaderConfig {
	return &LoaderConfig{
		SampleRate:     44100,
		FFmpegFallback: true,
		Decoder:        DefaultDecoderConfig(),
	}
}

// Loader reads audio files as mono buffers at a fixed sample rate. PCM WAV at
// the loader's rate is read natively; anything else goes through ffmpeg.
type Loader struct {
	config  LoaderConfig
	decoder *Decoder
	logger  logging.Logger
}

// NewLoader creates a loader. A nil config uses DefaultLoaderConfig.
func NewLoader(config *LoaderConfig) *Loader {
	if config == nil {
		config = DefaultLoaderConfig()
	}

	decoderConfig := DefaultDecoderConfig()
	if config.Decoder != nil {
		copied := *config.Decoder
		decoderConfig = &copied
	}
	decoderConfig.TargetSampleRate = config.SampleRate

	return &Loader{
		config:  *config,
		decoder: NewDecoder(decoderConfig),
		logger: logging.WithFields(logging.Fields{
			"component":   "audio_loader",
			"sample_rate": config.SampleRate,
		}),
	}
}

// Load returns the file's samples at the loader's sample rate
func (l *Loader) Load(ctx context.Context, path string) (*AudioData, error) {
	if !isWAV(path) {
		return l.fallback(ctx, path, "not a wav file")
	}

	data, err := ReadWAV(path)
	if err != nil {
		if errors.Is(err, ErrNotPCM) {
			return l.fallback(ctx, path, "wav is not integer pcm")
		}
		return nil, err
	}

	if data.SampleRate != l.config.SampleRate {
		l.logger.Debug("WAV sample rate differs from target", logging.Fields{
			"path":        path,
			"file_rate":   data.SampleRate,
			"target_rate": l.config.SampleRate,
		})
		if !l.config.FFmpegFallback {
			return nil, fmt.Errorf("%s: file rate %d, expected %d: %w",
				path, data.SampleRate, l.config.SampleRate, ErrSampleRateMismatch)
		}
		return l.decoder.DecodeFile(ctx, path)
	}

	return data, nil
}

func (l *Loader) fallback(ctx context.Context, path, reason string) (*AudioData, error) {
	if !l.config.FFmpegFallback {
		return nil, fmt.Errorf("cannot load %s: %s and ffmpeg fallback is disabled", path, reason)
	}

	l.logger.Debug("Decoding with ffmpeg", logging.Fields{
		"path":   path,
		"reason": reason,
	})

	return l.decoder.DecodeFile(ctx, path)
}

func isWAV(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return true
	}
	return false
}

// CheckFallback verifies ffmpeg and ffprobe can run when fallback is enabled
func (l *Loader) CheckFallback(ctx context.Context) error {
	if !l.config.FFmpegFallback {
		return nil
	}
	return l.decoder.ValidateConfig(ctx)
}
