package housing

import (
	"bytes"
	"log"

	"github.com/klauspost/compress/zlib"

	"openshard.dev/internal/protocol"
	"openshard.dev/internal/world"
)

// Wire-format constants. These are protocol-compatible with deployed
// clients; do not tune them.
const (
	// maxItemsPerStairBuffer is the batch size for tiles that fall outside
	// the dense per-plane addressing; 5 bytes per entry.
	maxItemsPerStairBuffer = 750
	// planeBufferSize is the pooled scratch buffer size.
	planeBufferSize = 0x2000
	// denseIndexCap bounds the dense plane addressing; anything indexing
	// past it spills into a stair buffer.
	denseIndexCap = 0x400

	numPlanes       = 9
	numStairBuffers = 6
)

// encodeDesignDetail builds the detail packet for one design snapshot:
// up to nine planes (ground; floor and non-floor sub-planes for four
// levels), each zlib-deflated independently, plus overflow stair buffers.
// A plane that fails to compress is degraded to zero length and logged;
// the rest of the packet still goes out.
func encodeDesignDetail(td *world.TileData, pool *bufferPool, logger *log.Logger,
	serial uint32, revision int, minX, minY, maxX, maxY int, tiles []MultiEntry) *protocol.Packet {

	width := maxX - minX + 1
	height := maxY - minY + 1

	w := protocol.NewPacketWriter(protocol.PacketDesignDetail, 18+len(tiles)*5)
	w.WriteByte(0x03) // compression type
	w.WriteByte(0x00)
	w.WriteUint32(serial)
	w.WriteUint32(uint32(revision))
	w.WriteUint16(uint16(len(tiles)))
	w.WriteUint16(0) // buffer length, patched below
	w.WriteByte(0)   // plane count, patched below

	const (
		bufferLenOffset  = 15
		planeCountOffset = 17
	)

	var planeBuffers [numPlanes][]byte
	var planeUsed [numPlanes]bool
	for i := range planeBuffers {
		planeBuffers[i] = pool.Acquire()
	}
	var stairBuffers [numStairBuffers][]byte
	for i := range stairBuffers {
		stairBuffers[i] = pool.Acquire()
	}

	clearBytes(planeBuffers[0], width*height*2)
	for i := 0; i < 4; i++ {
		clearBytes(planeBuffers[1+i], (width-1)*(height-2)*2)
		clearBytes(planeBuffers[5+i], width*(height-1)*2)
	}

	totalStairsUsed := 0
	writeStair := func(e MultiEntry) {
		buf := stairBuffers[totalStairsUsed/maxItemsPerStairBuffer]
		i := (totalStairsUsed % maxItemsPerStairBuffer) * 5
		buf[i] = byte(e.ItemID >> 8)
		buf[i+1] = byte(e.ItemID)
		buf[i+2] = byte(int8(e.X))
		buf[i+3] = byte(int8(e.Y))
		buf[i+4] = byte(int8(e.Z))
		totalStairsUsed++
	}

	for _, e := range tiles {
		x := e.X - minX
		y := e.Y - minY
		floor := td.Item(e.ItemID).Height <= 0

		var plane int
		switch e.Z {
		case 0:
			plane = 0
		case 7:
			plane = 1
		case 27:
			plane = 2
		case 47:
			plane = 3
		case 67:
			plane = 4
		default:
			writeStair(e)
			continue
		}

		var size int
		switch {
		case plane == 0:
			size = height
		case floor:
			size = height - 2
			x--
			y--
		default:
			size = height - 1
			plane += 4
			y--
		}

		index := ((x * size) + y) * 2
		if x < 0 || y < 0 || y >= size || index+1 >= denseIndexCap {
			writeStair(e)
			continue
		}
		planeUsed[plane] = true
		planeBuffers[plane][index] = byte(e.ItemID >> 8)
		planeBuffers[plane][index+1] = byte(e.ItemID)
	}

	totalLength := 1 // plane count byte
	planeCount := 0
	deflated := pool.Acquire()

	writeChunk := func(header byte, raw []byte, size int) {
		out, err := deflate(deflated, raw[:size])
		if err != nil {
			logger.Printf("design encode: zlib: %v", err)
			out = nil
			size = 0
		}
		w.WriteByte(header)
		w.WriteByte(byte(size))
		w.WriteByte(byte(len(out)))
		w.WriteByte(byte(((size >> 4) & 0xF0) | ((len(out) >> 8) & 0xF)))
		w.Write(out)
		totalLength += 4 + len(out)
		planeCount++
	}

	for i := 0; i < numPlanes; i++ {
		if !planeUsed[i] {
			pool.Release(planeBuffers[i])
			continue
		}
		var size int
		switch {
		case i == 0:
			size = width * height * 2
		case i < 5:
			size = (width - 1) * (height - 2) * 2
		default:
			size = width * (height - 1) * 2
		}
		writeChunk(byte(0x20|i), planeBuffers[i], size)
		pool.Release(planeBuffers[i])
	}

	stairBuffersUsed := (totalStairsUsed + maxItemsPerStairBuffer - 1) / maxItemsPerStairBuffer
	for i := 0; i < stairBuffersUsed; i++ {
		count := totalStairsUsed - i*maxItemsPerStairBuffer
		if count > maxItemsPerStairBuffer {
			count = maxItemsPerStairBuffer
		}
		writeChunk(byte(9+i), stairBuffers[i], count*5)
	}
	for i := 0; i < numStairBuffers; i++ {
		pool.Release(stairBuffers[i])
	}
	pool.Release(deflated)

	w.PatchUint16(bufferLenOffset, uint16(totalLength))
	w.PatchByte(planeCountOffset, byte(planeCount))
	return w.Finish()
}

func clearBytes(b []byte, n int) {
	if n > len(b) {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		b[i] = 0
	}
}

// deflate zlib-compresses src, reusing scratch as the output backing
// array. The returned slice is only valid until scratch is released.
func deflate(scratch, src []byte) ([]byte, error) {
	buf := bytes.NewBuffer(scratch[:0])
	zw := zlib.NewWriter(buf)
	if _, err := zw.Write(src); err != nil {
		zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
