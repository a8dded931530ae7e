package protocol

// Binary packets use the classic client framing: one ID byte, then, for
// dynamic-length packets, a big-endian uint16 covering the whole frame.

// Packet IDs sent by the housing core.
const (
	PacketDesignDetail     byte = 0xD8
	PacketGeneralInfo      byte = 0xBF
	SubcmdHouseGeneralInfo      = 0x1D
)

// Packet is an immutable framed binary packet.
type Packet struct {
	data []byte
}

func (p *Packet) ID() byte      { return p.data[0] }
func (p *Packet) Bytes() []byte { return p.data }
func (p *Packet) Len() int      { return len(p.data) }

// PacketWriter builds a dynamic-length packet: ID byte plus a length field
// patched on Finish. Multi-byte values are big-endian.
type PacketWriter struct {
	buf []byte
}

func NewPacketWriter(id byte, capacity int) *PacketWriter {
	w := &PacketWriter{buf: make([]byte, 0, capacity)}
	w.buf = append(w.buf, id, 0, 0) // length patched in Finish
	return w
}

func (w *PacketWriter) WriteByte(v byte) {
	w.buf = append(w.buf, v)
}

func (w *PacketWriter) WriteUint16(v uint16) {
	w.buf = append(w.buf, byte(v>>8), byte(v))
}

func (w *PacketWriter) WriteUint32(v uint32) {
	w.buf = append(w.buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func (w *PacketWriter) Write(b []byte) {
	w.buf = append(w.buf, b...)
}

// Len is the number of bytes written so far, including the frame header.
func (w *PacketWriter) Len() int { return len(w.buf) }

// PatchByte overwrites one already-written byte.
func (w *PacketWriter) PatchByte(offset int, v byte) {
	w.buf[offset] = v
}

// PatchUint16 overwrites an already-written big-endian uint16.
func (w *PacketWriter) PatchUint16(offset int, v uint16) {
	w.buf[offset] = byte(v >> 8)
	w.buf[offset+1] = byte(v)
}

// Finish patches the frame length and seals the packet.
func (w *PacketWriter) Finish() *Packet {
	w.PatchUint16(1, uint16(len(w.buf)))
	return &Packet{data: w.buf}
}

// NewHouseGeneralInfo is the tiny revision-advertisement packet: clients
// compare the revision against their cached detail state and request a
// detail resend when it moved.
func NewHouseGeneralInfo(serial uint32, revision uint32) *Packet {
	w := NewPacketWriter(PacketGeneralInfo, 13)
	w.WriteUint16(SubcmdHouseGeneralInfo)
	w.WriteUint32(serial)
	w.WriteUint32(revision)
	return w.Finish()
}
