package ioutils

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUints32RoundTrip(t *testing.T) {
	assert := require.New(t)

	input := []uint32{0, 1, 1, 2, 3, 5, 8, 13, 21, 1 << 30}
	var buf bytes.Buffer

	_, err := CompressAndWriteUints32(&buf, input, nil)
	assert.NoError(err)

	read, out, err := ReadAndDecompressUints32(&buf)
	assert.NoError(err)
	assert.Greater(read, 8)
	assert.Equal(input, out)
}

func TestFloats64RoundTrip(t *testing.T) {
	assert := require.New(t)

	input := []float64{0, -1.5, 2.25, math.Inf(1), math.Inf(-1), math.MaxFloat64, math.SmallestNonzeroFloat64}
	var buf bytes.Buffer

	assert.NoError(WriteFloats64(&buf, input))

	read, out, err := ReadFloats64(&buf)
	assert.NoError(err)
	assert.Equal(8+8*len(input), read)
	assert.Equal(input, out)
}

func TestCounters(t *testing.T) {
	assert := require.New(t)

	var buf bytes.Buffer
	w := &WriterCounter{W: &buf}
	assert.NoError(WriteFloats64(w, []float64{1, 2, 3}))
	assert.Equal(int64(8+24), w.N)

	r := &ReaderCounter{R: &buf}
	_, out, err := ReadFloats64(r)
	assert.NoError(err)
	assert.Equal([]float64{1, 2, 3}, out)
	assert.Equal(int64(8+24), r.N)
}
