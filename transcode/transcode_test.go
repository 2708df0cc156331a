package transcode

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTone(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/44100)
	}
	return out
}

func TestWAV_RoundTrip(t *testing.T) {
	tests := []struct {
		bitDepth  int
		tolerance float64
	}{
		{0, 1e-4},
		{BitDepth16, 1e-4},
		{BitDepth24, 1e-6},
		{BitDepth32, 1e-8},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d-bit", tt.bitDepth), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tone.wav")
			tone := testTone(4410)

			require.NoError(t, WriteWAV(path, tone, 44100, tt.bitDepth))

			data, err := ReadWAV(path)
			require.NoError(t, err)
			assert.Equal(t, 44100, data.SampleRate)
			assert.Equal(t, 1, data.Channels)
			assert.Equal(t, "wav", data.Decoder)
			require.Len(t, data.PCM, len(tone))
			assert.InDeltaSlice(t, tone, data.PCM, tt.tolerance)
			assert.Equal(t, int64(100), data.Duration.Milliseconds())
		})
	}
}

func TestWriteWAV_Clips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, WriteWAV(path, []float64{2, -2, 0}, 8000, BitDepth16))

	data, err := ReadWAV(path)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, data.PCM[0], 1e-4)
	assert.InDelta(t, -1.0, data.PCM[1], 1e-4)
	assert.Equal(t, 0.0, data.PCM[2])
}

func TestWriteWAV_Rejects(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, WriteWAV(filepath.Join(dir, "a.wav"), []float64{0}, 0, BitDepth16))
	assert.Error(t, WriteWAV(filepath.Join(dir, "b.wav"), []float64{0}, 44100, 12))
	assert.Error(t, WriteWAV(filepath.Join(dir, "missing", "c.wav"), []float64{0}, 44100, BitDepth16))
}

func TestReadWAV_DownmixesStereo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	out, err := os.Create(path)
	require.NoError(t, err)

	encoder := wav.NewEncoder(out, 22050, 16, 2, 1)
	require.NoError(t, encoder.Write(&audio.IntBuffer{
		Data:           []int{16384, 0, -16384, -16384, 8192, 24576},
		Format:         &audio.Format{NumChannels: 2, SampleRate: 22050},
		SourceBitDepth: 16,
	}))
	require.NoError(t, encoder.Close())
	require.NoError(t, out.Close())

	data, err := ReadWAV(path)
	require.NoError(t, err)
	assert.Equal(t, 2, data.Channels)
	assert.Equal(t, 22050, data.SampleRate)
	assert.InDeltaSlice(t, []float64{0.25, -0.5, 0.5}, data.PCM, 1e-12)
}

func TestReadWAV_Invalid(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadWAV(filepath.Join(dir, "missing.wav"))
	assert.Error(t, err)

	garbage := filepath.Join(dir, "garbage.wav")
	require.NoError(t, os.WriteFile(garbage, []byte("not a riff file at all"), 0o644))
	_, err = ReadWAV(garbage)
	assert.Error(t, err)
}

func TestDownmix(t *testing.T) {
	t.Run("8-bit is unsigned", func(t *testing.T) {
		assert.Equal(t, []float64{0, -1, 0.5}, downmix([]int{128, 0, 192}, 1, 8))
	})

	t.Run("partial trailing frame is dropped", func(t *testing.T) {
		assert.Len(t, downmix([]int{0, 0, 0, 0, 0}, 2, 16), 2)
	})
}

func TestLoader_WAVAtTargetRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	require.NoError(t, WriteWAV(path, testTone(2205), 44100, BitDepth16))

	loader := NewLoader(&LoaderConfig{SampleRate: 44100})
	data, err := loader.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, data.PCM, 2205)
	assert.Equal(t, "wav", data.Decoder)
}

func TestLoader_WithoutFallback(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader(&LoaderConfig{SampleRate: 44100, FFmpegFallback: false})

	path := filepath.Join(dir, "tone.wav")
	require.NoError(t, WriteWAV(path, testTone(2205), 48000, BitDepth16))
	_, err := loader.Load(context.Background(), path)
	assert.ErrorIs(t, err, ErrSampleRateMismatch)

	mp3 := filepath.Join(dir, "tone.mp3")
	require.NoError(t, os.WriteFile(mp3, []byte{0xff, 0xfb}, 0o644))
	_, err = loader.Load(context.Background(), mp3)
	assert.ErrorContains(t, err, "fallback is disabled")
}

func TestLoader_CheckFallback(t *testing.T) {
	disabled := NewLoader(&LoaderConfig{SampleRate: 44100, FFmpegFallback: false})
	assert.NoError(t, disabled.CheckFallback(context.Background()))

	decoder := DefaultDecoderConfig()
	decoder.FFmpegPath = filepath.Join(t.TempDir(), "no-such-ffmpeg")
	missing := NewLoader(&LoaderConfig{SampleRate: 44100, FFmpegFallback: true, Decoder: decoder})
	assert.ErrorContains(t, missing.CheckFallback(context.Background()), "not available")
}

func TestLoader_ResamplesWithFFmpeg(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not installed")
	}

	path := filepath.Join(t.TempDir(), "tone.wav")
	require.NoError(t, WriteWAV(path, testTone(48000), 48000, BitDepth16))

	data, err := NewLoader(nil).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "ffmpeg", data.Decoder)
	assert.Equal(t, 44100, data.SampleRate)
	assert.InDelta(t, 44100, len(data.PCM), 100)
}

func TestParseFFprobeOutput(t *testing.T) {
	output := []byte(`{"streams":[{"codec_type":"audio","codec_name":"mp3","sample_rate":"48000",
		"channels":2,"duration":"3.5","bit_rate":"128000","codec_long_name":"MP3"}]}`)

	metadata, err := parseFFprobeOutput(output)
	require.NoError(t, err)
	assert.Equal(t, 48000, metadata.SampleRate)
	assert.Equal(t, 2, metadata.Channels)
	assert.Equal(t, "mp3", metadata.Codec)
	assert.Equal(t, 3.5, metadata.Duration)
	assert.Equal(t, 128000, metadata.Bitrate)

	_, err = parseFFprobeOutput([]byte(`{"streams":[]}`))
	assert.ErrorContains(t, err, "no audio streams")

	_, err = parseFFprobeOutput([]byte(`{"streams":[{"codec_type":"video"}]}`))
	assert.ErrorContains(t, err, "not audio")

	_, err = parseFFprobeOutput([]byte(`{`))
	assert.Error(t, err)
}

func TestBytesToFloat64(t *testing.T) {
	raw := make([]byte, 8*3+5)
	for i, v := range []float64{0.5, -0.25, 1} {
		binary.LittleEndian.PutUint64(raw[i*8:], math.Float64bits(v))
	}

	assert.Equal(t, []float64{0.5, -0.25, 1}, bytesToFloat64(raw))
	assert.Nil(t, bytesToFloat64([]byte{1, 2, 3}))
}

func TestBuildFFmpegArgs(t *testing.T) {
	decoder := NewDecoder(nil)

	same := decoder.buildFFmpegArgs(&AudioMetadata{SampleRate: 44100})
	assert.NotContains(t, same, "-af")
	assert.Contains(t, same, "f64le")

	resampled := decoder.buildFFmpegArgs(&AudioMetadata{SampleRate: 48000})
	assert.Contains(t, resampled, "aresample=resampler=soxr:precision=28")
}
