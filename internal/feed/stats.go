package feed

import (
	"sync"
	"time"

	"github.com/banshee-data/rover.pilot/internal/monitoring"
)

// ScanStats tracks feed throughput for periodic diagnostics.
type ScanStats struct {
	mu        sync.Mutex
	datagrams int64
	bytes     int64
	scans     int64
	rejects   int64
	lastReset time.Time
}

// AddDatagram records one received datagram.
func (s *ScanStats) AddDatagram(bytes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.datagrams++
	s.bytes += int64(bytes)
}

// AddScan records one successfully parsed scan.
func (s *ScanStats) AddScan() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scans++
}

// AddReject records one datagram dropped by the parser.
func (s *ScanStats) AddReject() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejects++
}

// GetAndReset returns the counters since the previous reset and zeroes
// them.
func (s *ScanStats) GetAndReset() (datagrams, bytes, scans, rejects int64, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if s.lastReset.IsZero() {
		s.lastReset = now
	}
	elapsed = now.Sub(s.lastReset)

	datagrams, bytes, scans, rejects = s.datagrams, s.bytes, s.scans, s.rejects
	s.datagrams, s.bytes, s.scans, s.rejects = 0, 0, 0, 0
	s.lastReset = now
	return
}

// LogStats emits one summary line through the package logger.
func (s *ScanStats) LogStats() {
	datagrams, bytes, scans, rejects, elapsed := s.GetAndReset()
	if elapsed <= 0 {
		return
	}
	monitoring.Logf("feed: %d datagrams (%d bytes), %d scans, %d rejects in %s",
		datagrams, bytes, scans, rejects, elapsed.Round(time.Millisecond))
}
