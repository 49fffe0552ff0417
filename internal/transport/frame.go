package transport

import (
	"github.com/1ureka/rtno/internal/protocol"
)

// Stream framing: two start bytes, the packet, one additive checksum byte.
const (
	frameStart    byte = 0x0A
	frameStartLen      = 2
	frameOverhead      = frameStartLen + 1
	chunkSize          = 256
)

// checksum is the low byte of the sum of every packet byte.
func checksum(pkt []byte) byte {
	var sum byte
	for _, b := range pkt {
		sum += b
	}
	return sum
}

// appendFrame appends the framed form of pkt to dst.
func appendFrame(dst, pkt []byte) []byte {
	dst = append(dst, frameStart, frameStart)
	dst = append(dst, pkt...)
	return append(dst, checksum(pkt))
}

// frameLength returns the total packet length announced by a header.
func frameLength(header []byte) int {
	return protocol.HeaderSize + int(header[protocol.HeaderSize-1])
}
