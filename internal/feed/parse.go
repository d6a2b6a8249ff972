// Package feed ingests range scans from the sensor transport and hands
// them to the control loop. It owns the scan wire format, a UDP
// listener for live operation and a pcap replay path for offline runs.
package feed

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Scan datagram wire format. One datagram carries one full rotation:
//
//	offset 0: magic "RSCN" (4 bytes)
//	offset 4: uint16 little-endian sample count N
//	offset 6: uint16 little-endian flags (reserved, must be zero)
//	offset 8: N float32 little-endian ranges in meters, index 0 at the
//	          robot's forward axis, increasing counter-clockwise
const (
	headerSize  = 8
	bytesPerVal = 4
)

var scanMagic = [4]byte{'R', 'S', 'C', 'N'}

// ErrBadDatagram reports a datagram that does not follow the scan wire
// format. Such datagrams are dropped and counted, never delivered.
var ErrBadDatagram = errors.New("bad scan datagram")

// Parser decodes scan datagrams. A zero Samples accepts any advertised
// count; otherwise the advertised count must match.
type Parser struct {
	Samples int
}

// ParseDatagram decodes one datagram into a fresh range slice.
func (p *Parser) ParseDatagram(b []byte) ([]float64, error) {
	if len(b) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the %d byte header", ErrBadDatagram, len(b), headerSize)
	}
	if [4]byte(b[:4]) != scanMagic {
		return nil, fmt.Errorf("%w: magic %q", ErrBadDatagram, b[:4])
	}

	count := int(binary.LittleEndian.Uint16(b[4:6]))
	if p.Samples > 0 && count != p.Samples {
		return nil, fmt.Errorf("%w: advertised %d samples, want %d", ErrBadDatagram, count, p.Samples)
	}
	want := headerSize + count*bytesPerVal
	if len(b) != want {
		return nil, fmt.Errorf("%w: %d bytes for %d samples, want %d", ErrBadDatagram, len(b), count, want)
	}

	ranges := make([]float64, count)
	for i := 0; i < count; i++ {
		bits := binary.LittleEndian.Uint32(b[headerSize+i*bytesPerVal:])
		ranges[i] = float64(math.Float32frombits(bits))
	}
	return ranges, nil
}

// EncodeScan builds a datagram from a range slice. Used by the replay
// tooling and tests; values are narrowed to float32 on the wire.
func EncodeScan(ranges []float64) []byte {
	b := make([]byte, headerSize+len(ranges)*bytesPerVal)
	copy(b, scanMagic[:])
	binary.LittleEndian.PutUint16(b[4:6], uint16(len(ranges)))
	for i, v := range ranges {
		binary.LittleEndian.PutUint32(b[headerSize+i*bytesPerVal:], math.Float32bits(float32(v)))
	}
	return b
}
