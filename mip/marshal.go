package mip

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/bits-and-blooms/bitset"
	"github.com/blang/semver/v4"
	"github.com/consensys/compress/lzss"
	"github.com/fxamacker/cbor/v2"
	"github.com/icza/bitio"
	"golang.org/x/sync/errgroup"

	"github.com/milpkit/milpkit"
	"github.com/milpkit/milpkit/internal/ioutils"
)

// ToBytes serializes the model to a byte slice.
func (m *Model) ToBytes() ([]byte, error) {
	// we prepare and write 4 distinct blocks of data;
	// that allows for a more efficient serialization/deserialization (+ parallelism)
	var rows, coeffs, kinds []byte
	var g errgroup.Group
	g.Go(func() error {
		var err error
		rows, err = m.rowsToBytes()
		return err
	})
	g.Go(func() error {
		var err error
		coeffs, err = m.coeffsToBytes()
		return err
	})
	g.Go(func() error {
		var err error
		kinds, err = m.kindsToBytes()
		return err
	})
	body, err := m.bodyToBytes()
	if err != nil {
		return nil, err
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	h := header{
		rowsLen:   uint64(len(rows)),
		coeffsLen: uint64(len(coeffs)),
		kindsLen:  uint64(len(kinds)),
		bodyLen:   uint64(len(body)),
	}

	buf := h.toBytes()
	buf = append(buf, rows...)
	buf = append(buf, coeffs...)
	buf = append(buf, kinds...)
	buf = append(buf, body...)

	return buf, nil
}

// FromBytes deserializes the model from a byte slice and returns the number
// of bytes read.
func (m *Model) FromBytes(data []byte) (int, error) {
	if len(data) < headerLen {
		return 0, errors.New("mip: invalid data length")
	}

	h := new(header)
	h.fromBytes(data)

	if uint64(len(data)) < headerLen+h.rowsLen+h.coeffsLen+h.kindsLen+h.bodyLen {
		return 0, errors.New("mip: invalid data length")
	}

	// read the sections in parallel
	var g errgroup.Group
	g.Go(func() error {
		return m.rowsFromBytes(data[headerLen : headerLen+h.rowsLen])
	})
	g.Go(func() error {
		return m.coeffsFromBytes(data[headerLen+h.rowsLen : headerLen+h.rowsLen+h.coeffsLen])
	})
	g.Go(func() error {
		return m.kindsFromBytes(data[headerLen+h.rowsLen+h.coeffsLen : headerLen+h.rowsLen+h.coeffsLen+h.kindsLen])
	})

	var body bodyV1
	dm, err := cbor.DecOptions{
		MaxArrayElements: 2147483647,
		MaxMapPairs:      2147483647,
	}.DecMode()
	if err != nil {
		return 0, err
	}
	decoder := dm.NewDecoder(bytes.NewReader(data[headerLen+h.rowsLen+h.coeffsLen+h.kindsLen : headerLen+h.rowsLen+h.coeffsLen+h.kindsLen+h.bodyLen]))
	if err := decoder.Decode(&body); err != nil {
		return 0, err
	}
	if err := m.bodyFrom(&body); err != nil {
		return 0, err
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	if err := m.validateStorage(); err != nil {
		return 0, err
	}

	return headerLen + int(h.rowsLen) + int(h.coeffsLen) + int(h.kindsLen) + int(h.bodyLen), nil
}

const headerLen = 4 * 8

type header struct {
	// length in bytes of each section
	rowsLen   uint64
	coeffsLen uint64
	kindsLen  uint64
	bodyLen   uint64
}

func (h *header) toBytes() []byte {
	buf := make([]byte, 0, headerLen+h.rowsLen+h.coeffsLen+h.kindsLen+h.bodyLen)

	buf = binary.LittleEndian.AppendUint64(buf, h.rowsLen)
	buf = binary.LittleEndian.AppendUint64(buf, h.coeffsLen)
	buf = binary.LittleEndian.AppendUint64(buf, h.kindsLen)
	buf = binary.LittleEndian.AppendUint64(buf, h.bodyLen)

	return buf
}

func (h *header) fromBytes(buf []byte) {
	h.rowsLen = binary.LittleEndian.Uint64(buf[:8])
	h.coeffsLen = binary.LittleEndian.Uint64(buf[8:16])
	h.kindsLen = binary.LittleEndian.Uint64(buf[16:24])
	h.bodyLen = binary.LittleEndian.Uint64(buf[24:32])
}

// bodyV1 is the cbor encoded part of the serialized model; everything with
// repetitive integer structure goes through the binary sections instead.
type bodyV1 struct {
	Version  string
	Name     string
	ColNames []string
	RowNames []string
	ColLower []float64
	ColUpper []float64
	RowSense []uint8
	RowRHS   []float64
	DeadCols []byte
	DeadRows []byte
	ObjIdx   []uint32
	ObjCoeff []float64
	ObjDir   uint8
	HasObj   bool
}

func (m *Model) bodyToBytes() ([]byte, error) {
	deadCols, err := m.deadCols.MarshalBinary()
	if err != nil {
		return nil, err
	}
	deadRows, err := m.deadRows.MarshalBinary()
	if err != nil {
		return nil, err
	}

	body := bodyV1{
		Version:  milpkit.Version.String(),
		Name:     m.name,
		ColNames: m.colName,
		RowNames: m.rowName,
		ColLower: m.colLower,
		ColUpper: m.colUpper,
		RowSense: make([]uint8, len(m.rowSense)),
		RowRHS:   m.rowRHS,
		DeadCols: deadCols,
		DeadRows: deadRows,
		ObjDir:   uint8(m.objDir),
		HasObj:   m.hasObj,
	}
	for i, s := range m.rowSense {
		body.RowSense[i] = uint8(s)
	}
	for _, t := range m.obj {
		body.ObjIdx = append(body.ObjIdx, t.Var.index)
		body.ObjCoeff = append(body.ObjCoeff, t.Coeff)
	}

	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	buf := new(bytes.Buffer)
	if err := enc.NewEncoder(buf).Encode(&body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (m *Model) bodyFrom(body *bodyV1) error {
	v, err := semver.ParseTolerant(body.Version)
	if err != nil {
		return fmt.Errorf("mip: unreadable serialization version %q: %w", body.Version, err)
	}
	if v.Major != milpkit.Version.Major {
		return fmt.Errorf("mip: serialized with incompatible version %s", body.Version)
	}
	if len(body.ObjIdx) != len(body.ObjCoeff) {
		return errors.New("mip: malformed objective section")
	}

	m.name = body.Name
	m.colName = body.ColNames
	m.rowName = body.RowNames
	m.colLower = body.ColLower
	m.colUpper = body.ColUpper
	m.rowRHS = body.RowRHS
	m.rowSense = make([]Sense, len(body.RowSense))
	for i, s := range body.RowSense {
		if s > uint8(Equal) {
			return fmt.Errorf("mip: unknown sense code %d", s)
		}
		m.rowSense[i] = Sense(s)
	}

	m.deadCols = bitset.New(uint(len(m.colName)))
	if err := m.deadCols.UnmarshalBinary(body.DeadCols); err != nil {
		return err
	}
	m.deadRows = bitset.New(uint(len(m.rowName)))
	if err := m.deadRows.UnmarshalBinary(body.DeadRows); err != nil {
		return err
	}

	m.obj = nil
	m.hasObj = body.HasObj
	if body.ObjDir > uint8(Maximize) {
		return fmt.Errorf("mip: unknown direction code %d", body.ObjDir)
	}
	m.objDir = Direction(body.ObjDir)
	for i := range body.ObjIdx {
		m.obj = append(m.obj, Term{Var: Variable{index: body.ObjIdx[i]}, Coeff: body.ObjCoeff[i]})
	}
	return nil
}

func (m *Model) rowsToBytes() ([]byte, error) {
	// rowStart and colIdx compress very well due to their nature
	// (sequential or small integers)
	var buf bytes.Buffer
	buf.Grow(4 * (len(m.rowStart) + len(m.colIdx)))

	buf32, err := ioutils.CompressAndWriteUints32(&buf, m.rowStart, nil)
	if err != nil {
		return nil, err
	}
	if _, err := ioutils.CompressAndWriteUints32(&buf, m.colIdx, buf32); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (m *Model) rowsFromBytes(in []byte) error {
	r := bytes.NewReader(in)
	_, rowStart, err := ioutils.ReadAndDecompressUints32(r)
	if err != nil {
		return err
	}
	_, colIdx, err := ioutils.ReadAndDecompressUints32(r)
	if err != nil {
		return err
	}
	m.rowStart = rowStart
	m.colIdx = colIdx
	return nil
}

func (m *Model) coeffsToBytes() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(8 + 8*len(m.coeff))
	if err := ioutils.WriteFloats64(&buf, m.coeff); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (m *Model) coeffsFromBytes(in []byte) error {
	_, coeff, err := ioutils.ReadFloats64(bytes.NewReader(in))
	if err != nil {
		return err
	}
	m.coeff = coeff
	return nil
}

func (m *Model) kindsToBytes() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(8 + len(m.colKind)/4 + 1)
	if err := binary.Write(&buf, binary.LittleEndian, uint64(len(m.colKind))); err != nil {
		return nil, err
	}
	w := bitio.NewWriter(&buf)
	for _, k := range m.colKind {
		w.TryWriteBits(uint64(k), 2)
	}
	if w.TryError != nil {
		return nil, w.TryError
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (m *Model) kindsFromBytes(in []byte) error {
	if len(in) < 8 {
		return errors.New("mip: truncated kinds section")
	}
	count := binary.LittleEndian.Uint64(in[:8])
	r := bitio.NewReader(bytes.NewReader(in[8:]))
	m.colKind = make([]Kind, count)
	for i := range m.colKind {
		k := r.TryReadBits(2)
		if k > uint64(Integer) {
			return fmt.Errorf("mip: unknown kind code %d", k)
		}
		m.colKind[i] = Kind(k)
	}
	return r.TryError
}

// validateStorage cross checks the decoded sections against each other.
func (m *Model) validateStorage() error {
	nbCols := len(m.colName)
	if len(m.colLower) != nbCols || len(m.colUpper) != nbCols || len(m.colKind) != nbCols {
		return errors.New("mip: column sections disagree on length")
	}
	nbRows := len(m.rowName)
	if len(m.rowSense) != nbRows || len(m.rowRHS) != nbRows || len(m.rowStart) != nbRows+1 {
		return errors.New("mip: row sections disagree on length")
	}
	if len(m.colIdx) != len(m.coeff) {
		return errors.New("mip: nonzero sections disagree on length")
	}
	if m.rowStart[0] != 0 || m.rowStart[nbRows] != uint32(len(m.colIdx)) {
		return errors.New("mip: malformed row offsets")
	}
	for i := 0; i < nbRows; i++ {
		if m.rowStart[i] > m.rowStart[i+1] {
			return errors.New("mip: malformed row offsets")
		}
	}
	for _, ci := range m.colIdx {
		if int(ci) >= nbCols {
			return fmt.Errorf("mip: row references column #%d out of %d", ci, nbCols)
		}
	}
	for _, t := range m.obj {
		if int(t.Var.index) >= nbCols {
			return fmt.Errorf("mip: objective references column #%d out of %d", t.Var.index, nbCols)
		}
	}
	return nil
}

// WriteTo writes the serialized model to w.
func (m *Model) WriteTo(w io.Writer) (int64, error) {
	data, err := m.ToBytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// ReadFrom reads a serialized model from r.
func (m *Model) ReadFrom(r io.Reader) (int64, error) {
	rc := ioutils.ReaderCounter{R: r}

	var hBuf [headerLen]byte
	if _, err := io.ReadFull(&rc, hBuf[:]); err != nil {
		return rc.N, err
	}
	h := new(header)
	h.fromBytes(hBuf[:])

	data := make([]byte, headerLen+h.rowsLen+h.coeffsLen+h.kindsLen+h.bodyLen)
	copy(data, hBuf[:])
	if _, err := io.ReadFull(&rc, data[headerLen:]); err != nil {
		return rc.N, err
	}
	if _, err := m.FromBytes(data); err != nil {
		return rc.N, err
	}
	return rc.N, nil
}

// WriteCompressedTo writes the serialized model through an lzss compressor.
// The stream is framed with the compressed length.
func (m *Model) WriteCompressedTo(w io.Writer) (int64, error) {
	data, err := m.ToBytes()
	if err != nil {
		return 0, err
	}
	compressor, err := lzss.NewCompressor(nil, lzss.BestCompression)
	if err != nil {
		return 0, err
	}
	c, err := compressor.Compress(data)
	if err != nil {
		return 0, err
	}

	wc := ioutils.WriterCounter{W: w}
	if err := binary.Write(&wc, binary.LittleEndian, uint64(len(c))); err != nil {
		return wc.N, err
	}
	if _, err := wc.Write(c); err != nil {
		return wc.N, err
	}
	return wc.N, nil
}

// ReadCompressedFrom reads a model written by WriteCompressedTo.
func (m *Model) ReadCompressedFrom(r io.Reader) (int64, error) {
	rc := ioutils.ReaderCounter{R: r}

	var length uint64
	if err := binary.Read(&rc, binary.LittleEndian, &length); err != nil {
		return rc.N, err
	}
	c := make([]byte, length)
	if _, err := io.ReadFull(&rc, c); err != nil {
		return rc.N, err
	}
	data, err := lzss.Decompress(c, nil)
	if err != nil {
		return rc.N, err
	}
	if _, err := m.FromBytes(data); err != nil {
		return rc.N, err
	}
	return rc.N, nil
}
