package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanSquare(t *testing.T) {
	assert.InDelta(t, 0.0, MeanSquare(nil), 1e-15)
	assert.InDelta(t, 2.5, MeanSquare([]float64{1, -2}), 1e-12)
	assert.InDelta(t, 5.0, SumSquares([]float64{1, -2}), 1e-12)
}

func TestRMSAndMaxAbs(t *testing.T) {
	data := []float64{0.5, -0.8, 0.1}
	assert.InDelta(t, math.Sqrt((0.25+0.64+0.01)/3), RMS(data), 1e-12)
	assert.InDelta(t, 0.8, MaxAbs(data), 1e-15)
	assert.InDelta(t, 0.0, MaxAbs(nil), 1e-15)
	assert.InDelta(t, -0.2/3, Mean(data), 1e-12)
}

func TestDecibelSentinels(t *testing.T) {
	assert.True(t, math.IsInf(PowerRatioDB(1, 0), 1))
	assert.True(t, math.IsInf(AmplitudeDB(0), -1))
	assert.InDelta(t, 20.0, PowerRatioDB(100, 1), 1e-12)
	assert.InDelta(t, -6.0206, AmplitudeDB(0.5), 1e-4)
}

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite(1.5))
	assert.False(t, IsFinite(math.NaN()))
	assert.False(t, IsFinite(math.Inf(-1)))
}
