package embeddings

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestL2Normalize(t *testing.T) {
	v := L2Normalize([]float32{3, 4})
	assert.InDelta(t, 1.0, norm(v), 1e-6)
	assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(v[1]), 1e-6)
}

func TestL2NormalizeZeroVector(t *testing.T) {
	v := L2Normalize([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, v)
}

func TestMeanRejectsEmptyAndRagged(t *testing.T) {
	_, err := Mean(nil)
	assert.Error(t, err)

	_, err = Mean([][]float32{{1, 0}, {1, 0, 0}})
	assert.Error(t, err)
}

func TestNormalizedMean(t *testing.T) {
	// Mean of two unit vectors is shorter than unit; the result must be
	// renormalized back to length 1.
	out, err := NormalizedMean([][]float32{{1, 0}, {0, 1}})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, norm(out), 1e-6)
	assert.InDelta(t, float64(out[0]), float64(out[1]), 1e-6)
}

func TestNormalizedMeanSingleVector(t *testing.T) {
	out, err := NormalizedMean([][]float32{{0, 5, 0}})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, norm(out), 1e-6)
	assert.InDelta(t, 1.0, float64(out[1]), 1e-6)
}

func TestVectorCodecRoundTrip(t *testing.T) {
	v := []float32{1.5, -2.25, 0, 3.125}
	decoded, err := decodeVector(encodeVector(v), len(v))
	require.NoError(t, err)
	assert.Equal(t, v, decoded)
}

func TestDecodeVectorRejectsWrongLength(t *testing.T) {
	_, err := decodeVector([]byte{1, 2, 3}, 4)
	assert.Error(t, err)
}

func TestNewFromEnvSelection(t *testing.T) {
	t.Setenv("EMBEDDINGS_PROVIDER", "")
	assert.Nil(t, NewFromEnv())

	t.Setenv("EMBEDDINGS_PROVIDER", "localai")
	p := NewFromEnv()
	require.NotNil(t, p)
	assert.Equal(t, "localai", p.Name())

	t.Setenv("EMBEDDINGS_PROVIDER", "ollama")
	p = NewFromEnv()
	require.NotNil(t, p)
	assert.Equal(t, "ollama", p.Name())
}
