//go:build !pcap
// +build !pcap

package feed

import (
	"context"
	"errors"
)

// ErrPCAPUnavailable is returned when replay is requested from a binary
// built without the 'pcap' tag.
var ErrPCAPUnavailable = errors.New("pcap replay not available: rebuild with -tags pcap")

// ReplayPCAP is a stub for builds without libpcap support.
func ReplayPCAP(ctx context.Context, pcapFile string, udpPort int, parser *Parser, handler ScanHandler, stats *ScanStats) error {
	return ErrPCAPUnavailable
}
