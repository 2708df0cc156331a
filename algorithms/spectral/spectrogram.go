package spectral

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/RyanBlaney/sonido-qa/algorithms/common"
	"github.com/RyanBlaney/sonido-qa/algorithms/windowing"
	"github.com/RyanBlaney/sonido-qa/logging"
)

// Spectrogram defaults. Segment length 1024 with an eighth of a segment of
// overlap and a periodic Tukey(0.25) window.
const (
	DefaultSegmentSize    = 1024
	DefaultOverlapDivisor = 8
)

// DefaultOverlap returns the overlap used for a segment size when none is configured.
func DefaultOverlap(segmentSize int) int {
	return segmentSize / DefaultOverlapDivisor
}

// Spectrogram computes a one-sided power spectral density per time segment.
// Each segment has its mean removed, is windowed, and is scaled by
// 1/(fs·Σw²); every bin except DC (and Nyquist for even segments) is doubled
// to fold in the negative frequencies.
type Spectrogram struct {
	segmentSize int
	overlap     int
	windowType  string
	sampleRate  int
	fft         *FFT
	logger      logging.Logger
}

// SpectrogramResult holds per-frame PSD values.
type SpectrogramResult struct {
	Frequencies []float64   `json:"frequencies"` // bin centers, Hz
	Times       []float64   `json:"times"`       // segment centers, seconds
	Power       [][]float64 `json:"power"`       // time x frequency, units²/Hz
	SegmentSize int         `json:"segment_size"`
	Overlap     int         `json:"overlap"`
	SampleRate  int         `json:"sample_rate"`
}

// NewSpectrogram validates the segment policy and returns a reusable calculator.
func NewSpectrogram(segmentSize, overlap int, windowType string, sampleRate int) (*Spectrogram, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive: %d", sampleRate)
	}
	if segmentSize <= 0 {
		return nil, fmt.Errorf("segment size must be positive: %d", segmentSize)
	}
	if overlap < 0 || overlap >= segmentSize {
		return nil, fmt.Errorf("overlap must be in [0, %d): %d", segmentSize, overlap)
	}
	if !windowing.Supported(windowType) {
		return nil, fmt.Errorf("unknown window type: %q", windowType)
	}

	return &Spectrogram{
		segmentSize: segmentSize,
		overlap:     overlap,
		windowType:  windowType,
		sampleRate:  sampleRate,
		fft:         NewFFT(),
		logger: logging.WithFields(logging.Fields{
			"component": "spectrogram",
		}),
	}, nil
}

// Compute splits the signal into segments and returns the PSD of each one.
// A signal shorter than one segment is analyzed as a single segment of its
// own length, with the overlap shrunk in proportion.
func (s *Spectrogram) Compute(signal []float64) (*SpectrogramResult, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("empty signal")
	}

	segmentSize, overlap := s.segmentSize, s.overlap
	if len(signal) < segmentSize {
		s.logger.Debug("Signal shorter than segment, shrinking segment", logging.Fields{
			"signal_length": len(signal),
			"segment_size":  segmentSize,
		})
		segmentSize = len(signal)
		overlap = DefaultOverlap(segmentSize)
	}

	window, err := windowing.New(s.windowType, segmentSize)
	if err != nil {
		return nil, err
	}
	coefficients := window.GetCoefficients()
	scale := 1.0 / (float64(s.sampleRate) * windowing.SumSquares(window))

	hopSize := segmentSize - overlap
	numFrames := (len(signal)-segmentSize)/hopSize + 1
	freqBins := segmentSize/2 + 1

	power := make([][]float64, numFrames)
	times := make([]float64, numFrames)
	for i := range numFrames {
		times[i] = (float64(i*hopSize) + float64(segmentSize)/2.0) / float64(s.sampleRate)
	}

	jobs := make(chan int, numFrames)
	var wg sync.WaitGroup

	for range s.getOptimalWorkerCount(numFrames) {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Reuse frame buffer for this worker
			frame := make([]float64, segmentSize)

			for frameIdx := range jobs {
				start := frameIdx * hopSize
				copy(frame, signal[start:start+segmentSize])

				mean := common.Mean(frame)
				for i := range frame {
					frame[i] = (frame[i] - mean) * coefficients[i]
				}

				row := OneSidedPower(s.fft.Compute(frame))
				for k := range row {
					row[k] *= scale
					if k > 0 && (k < freqBins-1 || segmentSize%2 == 1) {
						row[k] *= 2
					}
				}
				power[frameIdx] = row
			}
		}()
	}

	for frameIdx := range numFrames {
		jobs <- frameIdx
	}
	close(jobs)
	wg.Wait()

	return &SpectrogramResult{
		Frequencies: BinFrequencies(segmentSize, s.sampleRate),
		Times:       times,
		Power:       power,
		SegmentSize: segmentSize,
		Overlap:     overlap,
		SampleRate:  s.sampleRate,
	}, nil
}

// getOptimalWorkerCount determines the number of workers based on workload
func (s *Spectrogram) getOptimalWorkerCount(numFrames int) int {
	numCPU := runtime.NumCPU()

	// For small workloads, don't over-parallelize
	if numFrames < 100 {
		return max(1, min(numCPU/2, numFrames))
	}

	if numFrames < 1000 {
		return min(numCPU, 8)
	}

	return numCPU
}
