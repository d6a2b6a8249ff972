//go:build pcap
// +build pcap

package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"github.com/banshee-data/rover.pilot/internal/monitoring"
)

// ReplayPCAP feeds recorded scan traffic from a pcap file through the
// same parse/deliver path as the live listener, so a drive can be
// reproduced offline. Only available when building with the 'pcap' tag
// (requires libpcap).
func ReplayPCAP(ctx context.Context, pcapFile string, udpPort int, parser *Parser, handler ScanHandler, stats *ScanStats) error {
	if parser == nil {
		parser = &Parser{}
	}
	if stats == nil {
		stats = &ScanStats{}
	}

	handle, err := pcap.OpenOffline(pcapFile)
	if err != nil {
		return fmt.Errorf("failed to open pcap file %s: %w", pcapFile, err)
	}
	defer handle.Close()

	filter := fmt.Sprintf("udp port %d", udpPort)
	if err := handle.SetBPFFilter(filter); err != nil {
		return fmt.Errorf("failed to set BPF filter %q: %w", filter, err)
	}

	source := gopacket.NewPacketSource(handle, handle.LinkType())
	packets := 0
	started := time.Now()

	for {
		select {
		case <-ctx.Done():
			monitoring.Logf("pcap replay stopping after %d packets: %v", packets, ctx.Err())
			return ctx.Err()
		case packet := <-source.Packets():
			if packet == nil {
				monitoring.Logf("pcap replay complete: %d packets in %s", packets, time.Since(started).Round(time.Millisecond))
				return nil
			}
			packets++

			udpLayer := packet.Layer(layers.LayerTypeUDP)
			if udpLayer == nil {
				continue
			}
			udp, ok := udpLayer.(*layers.UDP)
			if !ok || len(udp.Payload) == 0 {
				continue
			}

			stats.AddDatagram(len(udp.Payload))
			ranges, err := parser.ParseDatagram(udp.Payload)
			if err != nil {
				stats.AddReject()
				continue
			}
			stats.AddScan()
			if handler != nil {
				handler.OnScan(ranges)
			}
		}
	}
}
