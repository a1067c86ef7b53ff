package checkpoint

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"

	"github.com/hupe1980/geomsearch/mesh"
)

const (
	magic      = 0x4B435347 // "GSCK" little-endian
	version    = 1
	headerSize = 21

	// MaxPayloadSize bounds the stored and decompressed payload lengths a
	// header may claim.
	MaxPayloadSize = 1 << 30
)

var (
	// ErrCorrupt is returned when a checkpoint fails validation.
	ErrCorrupt = errors.New("checkpoint corrupt")

	// ErrIncompatibleFormat is returned for unknown magic or version.
	ErrIncompatibleFormat = errors.New("incompatible checkpoint format")
)

// Entry is the saved state of one slave node.
type Entry struct {
	Slave      mesh.NodeID
	Candidates []mesh.NodeID
	Nearest    mesh.NodeID
	Found      bool
	Distance   float64
}

// State is the restartable state of a locator.
type State struct {
	Name          string
	Master        mesh.BoundaryID
	Slave         mesh.BoundaryID
	PatchSize     int
	MaxPatchRatio float64
	Entries       []Entry
}

// Write encodes s to w.
func Write(w io.Writer, s *State, c Compression) error {
	if s.PatchSize < 0 || uint64(s.PatchSize) > math.MaxUint32 {
		return fmt.Errorf("patch size %d does not fit the checkpoint format", s.PatchSize)
	}

	pb := newPayloadBuffer(make([]byte, 0, 64+len(s.Entries)*48))

	pb.writeString(s.Name)
	pb.writeUint32(uint32(s.Master))
	pb.writeUint32(uint32(s.Slave))
	pb.writeUint32(uint32(s.PatchSize))
	pb.writeUint64(math.Float64bits(s.MaxPatchRatio))
	pb.writeUint32(uint32(len(s.Entries)))

	for _, e := range s.Entries {
		pb.writeUint32(uint32(e.Slave))
		pb.writeUint32(uint32(e.Nearest))
		if e.Found {
			pb.writeUint8(1)
		} else {
			pb.writeUint8(0)
		}
		pb.writeUint64(math.Float64bits(e.Distance))
		pb.writeUint32(uint32(len(e.Candidates)))
		for _, c := range e.Candidates {
			pb.writeUint32(uint32(c))
		}
	}

	if pb.err != nil {
		return pb.err
	}

	raw := pb.buf
	if len(raw) > MaxPayloadSize {
		return fmt.Errorf("checkpoint payload of %d bytes exceeds %d", len(raw), MaxPayloadSize)
	}
	data, c, err := compress(raw, c)
	if err != nil {
		return fmt.Errorf("compress checkpoint: %w", err)
	}

	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(header[0:4], magic)
	binary.LittleEndian.PutUint32(header[4:8], version)
	header[8] = byte(c)
	binary.LittleEndian.PutUint32(header[9:13], crc32.ChecksumIEEE(raw))
	binary.LittleEndian.PutUint32(header[13:17], uint32(len(raw)))
	binary.LittleEndian.PutUint32(header[17:21], uint32(len(data)))

	if _, err := w.Write(header); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	return nil
}

// Read decodes a checkpoint written by Write.
func Read(r io.Reader) (*State, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	if m := binary.LittleEndian.Uint32(header[0:4]); m != magic {
		return nil, fmt.Errorf("%w: magic %x", ErrIncompatibleFormat, m)
	}
	if v := binary.LittleEndian.Uint32(header[4:8]); v != version {
		return nil, fmt.Errorf("%w: version %d", ErrIncompatibleFormat, v)
	}
	c := Compression(header[8])
	checksum := binary.LittleEndian.Uint32(header[9:13])
	rawLen := binary.LittleEndian.Uint32(header[13:17])
	dataLen := binary.LittleEndian.Uint32(header[17:21])

	if rawLen > MaxPayloadSize || dataLen > MaxPayloadSize {
		return nil, fmt.Errorf("%w: payload of %d/%d bytes exceeds %d", ErrCorrupt, dataLen, rawLen, MaxPayloadSize)
	}

	// Grow with the bytes actually present instead of trusting dataLen.
	data, err := io.ReadAll(io.LimitReader(r, int64(dataLen)))
	if err != nil {
		return nil, err
	}
	if len(data) != int(dataLen) {
		return nil, fmt.Errorf("%w: payload truncated at %d of %d bytes", ErrCorrupt, len(data), dataLen)
	}

	raw, err := decompress(data, int(rawLen), c)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if crc32.ChecksumIEEE(raw) != checksum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	pb := newPayloadBuffer(raw)
	s := &State{}
	s.Name = pb.readString()
	s.Master = mesh.BoundaryID(pb.readUint32())
	s.Slave = mesh.BoundaryID(pb.readUint32())
	s.PatchSize = int(pb.readUint32())
	s.MaxPatchRatio = math.Float64frombits(pb.readUint64())

	n := pb.readUint32()
	if pb.err == nil && uint64(n)*21 > uint64(len(raw)) {
		return nil, fmt.Errorf("%w: %d entries exceed payload", ErrCorrupt, n)
	}
	s.Entries = make([]Entry, 0, n)
	for i := uint32(0); i < n && pb.err == nil; i++ {
		var e Entry
		e.Slave = mesh.NodeID(pb.readUint32())
		e.Nearest = mesh.NodeID(pb.readUint32())
		e.Found = pb.readUint8() == 1
		e.Distance = math.Float64frombits(pb.readUint64())
		nc := pb.readUint32()
		if pb.err == nil && uint64(nc)*4 > uint64(len(raw)) {
			return nil, fmt.Errorf("%w: %d candidates exceed payload", ErrCorrupt, nc)
		}
		e.Candidates = make([]mesh.NodeID, 0, nc)
		for j := uint32(0); j < nc && pb.err == nil; j++ {
			e.Candidates = append(e.Candidates, mesh.NodeID(pb.readUint32()))
		}
		s.Entries = append(s.Entries, e)
	}

	if pb.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, pb.err)
	}
	return s, nil
}

type payloadBuffer struct {
	buf []byte
	pos int
	err error
}

func newPayloadBuffer(b []byte) *payloadBuffer {
	return &payloadBuffer{buf: b}
}

func (p *payloadBuffer) writeUint8(v uint8) {
	if p.err != nil {
		return
	}
	p.buf = append(p.buf, v)
}

func (p *payloadBuffer) writeUint32(v uint32) {
	if p.err != nil {
		return
	}
	p.buf = binary.LittleEndian.AppendUint32(p.buf, v)
}

func (p *payloadBuffer) writeUint64(v uint64) {
	if p.err != nil {
		return
	}
	p.buf = binary.LittleEndian.AppendUint64(p.buf, v)
}

func (p *payloadBuffer) writeString(s string) {
	if p.err != nil {
		return
	}
	if len(s) > math.MaxUint16 {
		p.err = fmt.Errorf("string too long: %d", len(s))
		return
	}
	p.buf = binary.LittleEndian.AppendUint16(p.buf, uint16(len(s)))
	p.buf = append(p.buf, s...)
}

func (p *payloadBuffer) need(n int) bool {
	if p.err != nil {
		return false
	}
	if p.pos+n > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return false
	}
	return true
}

func (p *payloadBuffer) readUint8() uint8 {
	if !p.need(1) {
		return 0
	}
	v := p.buf[p.pos]
	p.pos++
	return v
}

func (p *payloadBuffer) readUint32() uint32 {
	if !p.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(p.buf[p.pos:])
	p.pos += 4
	return v
}

func (p *payloadBuffer) readUint64() uint64 {
	if !p.need(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(p.buf[p.pos:])
	p.pos += 8
	return v
}

func (p *payloadBuffer) readString() string {
	if !p.need(2) {
		return ""
	}
	l := int(binary.LittleEndian.Uint16(p.buf[p.pos:]))
	p.pos += 2
	if !p.need(l) {
		return ""
	}
	s := string(p.buf[p.pos : p.pos+l])
	p.pos += l
	return s
}
