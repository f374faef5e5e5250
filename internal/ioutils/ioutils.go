// Package ioutils provides the low level stream helpers used by the mip
// model serializer.
package ioutils

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/ronanh/intcomp"
)

type WriterCounter struct {
	W io.Writer
	N int64
}

func (w *WriterCounter) Write(p []byte) (n int, err error) {
	n, err = w.W.Write(p)
	w.N += int64(n)
	return
}

type ReaderCounter struct {
	R io.Reader
	N int64
}

func (r *ReaderCounter) Read(p []byte) (n int, err error) {
	n, err = r.R.Read(p)
	r.N += int64(n)
	return
}

// CompressAndWriteUints32 compresses a slice of uint32 and writes it to w.
// It returns the input buffer (possibly extended) for future use.
func CompressAndWriteUints32(w io.Writer, input []uint32, buffer []uint32) ([]uint32, error) {
	buffer = buffer[:0]
	buffer = intcomp.CompressUint32(input, buffer)
	if err := binary.Write(w, binary.LittleEndian, uint64(len(buffer))); err != nil {
		return nil, err
	}
	if err := binary.Write(w, binary.LittleEndian, buffer); err != nil {
		return nil, err
	}
	return buffer, nil
}

// ReadAndDecompressUints32 reads a compressed slice of uint32 from r and decompresses it.
// It returns the number of bytes read, the decompressed slice and an error.
func ReadAndDecompressUints32(r io.Reader) (int, []uint32, error) {
	var length uint64
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return 0, nil, err
	}
	buffer := make([]uint32, length)
	if err := binary.Read(r, binary.LittleEndian, buffer); err != nil {
		return 8, nil, err
	}
	return 8 + 4*int(length), intcomp.UncompressUint32(buffer, nil), nil
}

// WriteFloats64 writes a length-prefixed slice of float64 to w in IEEE 754
// little endian form.
func WriteFloats64(w io.Writer, input []float64) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(len(input))); err != nil {
		return err
	}
	buf := make([]byte, 8)
	for _, f := range input {
		binary.LittleEndian.PutUint64(buf, math.Float64bits(f))
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// ReadFloats64 reads a length-prefixed slice of float64 written by WriteFloats64.
// It returns the number of bytes read, the slice and an error.
func ReadFloats64(r io.Reader) (int, []float64, error) {
	var length uint64
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return 0, nil, err
	}
	out := make([]float64, length)
	buf := make([]byte, 8)
	for i := range out {
		if _, err := io.ReadFull(r, buf); err != nil {
			return 8 + 8*i, nil, err
		}
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf))
	}
	return 8 + 8*int(length), out, nil
}
