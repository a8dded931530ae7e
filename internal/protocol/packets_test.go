package protocol

import (
	"bytes"
	"testing"
)

func TestPacketWriterFraming(t *testing.T) {
	w := NewPacketWriter(0xD8, 32)
	w.WriteByte(0x03)
	w.WriteUint16(0xBEEF)
	w.WriteUint32(0x40000001)
	w.Write([]byte{1, 2, 3})
	p := w.Finish()

	data := p.Bytes()
	if p.ID() != 0xD8 {
		t.Fatalf("id = %#x, want 0xD8", p.ID())
	}
	wantLen := 3 + 1 + 2 + 4 + 3
	if p.Len() != wantLen || len(data) != wantLen {
		t.Fatalf("len = %d, want %d", p.Len(), wantLen)
	}
	if got := int(data[1])<<8 | int(data[2]); got != wantLen {
		t.Fatalf("frame length field = %d, want %d", got, wantLen)
	}
	want := []byte{0xD8, 0x00, byte(wantLen), 0x03, 0xBE, 0xEF, 0x40, 0x00, 0x00, 0x01, 1, 2, 3}
	if !bytes.Equal(data, want) {
		t.Fatalf("frame = % x, want % x", data, want)
	}
}

func TestPacketWriterPatching(t *testing.T) {
	w := NewPacketWriter(0xBF, 16)
	w.WriteByte(0)
	countAt := w.Len()
	w.WriteUint16(0)
	w.WriteByte(0xAA)

	w.PatchByte(3, 0x07)
	w.PatchUint16(countAt, 0x0102)

	data := w.Finish().Bytes()
	if data[3] != 0x07 {
		t.Fatalf("patched byte = %#x, want 0x07", data[3])
	}
	if data[countAt] != 0x01 || data[countAt+1] != 0x02 {
		t.Fatalf("patched uint16 = % x, want 01 02", data[countAt:countAt+2])
	}
	if data[countAt+2] != 0xAA {
		t.Fatalf("trailing byte clobbered: %#x", data[countAt+2])
	}
}

func TestNewHouseGeneralInfo(t *testing.T) {
	p := NewHouseGeneralInfo(0x40000001, 0x00000302)

	want := []byte{
		0xBF, 0x00, 0x0D, // id, frame length 13
		0x00, 0x1D, // subcommand
		0x40, 0x00, 0x00, 0x01, // serial
		0x00, 0x00, 0x03, 0x02, // revision
	}
	if !bytes.Equal(p.Bytes(), want) {
		t.Fatalf("packet = % x, want % x", p.Bytes(), want)
	}
}
