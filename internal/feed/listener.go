package feed

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/banshee-data/rover.pilot/internal/monitoring"
)

// ScanHandler receives each parsed scan. Implemented by the control
// loop driver; delivery cadence follows the sensor, not the tick.
type ScanHandler interface {
	OnScan(ranges []float64)
}

// ListenerConfig configures the UDP scan listener.
type ListenerConfig struct {
	Address     string        // UDP bind address, e.g. ":2368"
	RcvBuf      int           // socket receive buffer in bytes (default 1MB)
	LogInterval time.Duration // stats logging period (default 1 minute)
	Parser      *Parser
	Handler     ScanHandler
	Stats       *ScanStats // optional; created when nil
}

// Listener receives scan datagrams over UDP and forwards parsed scans
// to the handler. Malformed datagrams are dropped and counted; they
// never reach the control loop.
type Listener struct {
	address     string
	rcvBuf      int
	logInterval time.Duration
	parser      *Parser
	handler     ScanHandler
	stats       *ScanStats

	mu   sync.Mutex
	conn *net.UDPConn
}

// NewListener creates a Listener, filling config defaults.
func NewListener(cfg ListenerConfig) *Listener {
	if cfg.RcvBuf == 0 {
		cfg.RcvBuf = 1 << 20
	}
	if cfg.LogInterval == 0 {
		cfg.LogInterval = time.Minute
	}
	if cfg.Parser == nil {
		cfg.Parser = &Parser{}
	}
	if cfg.Stats == nil {
		cfg.Stats = &ScanStats{}
	}
	return &Listener{
		address:     cfg.Address,
		rcvBuf:      cfg.RcvBuf,
		logInterval: cfg.LogInterval,
		parser:      cfg.Parser,
		handler:     cfg.Handler,
		stats:       cfg.Stats,
	}
}

// Addr returns the bound UDP address once Start has opened the socket,
// or nil before that. Useful when binding to port 0.
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return nil
	}
	return l.conn.LocalAddr()
}

// Start opens the socket and receives datagrams until the context is
// cancelled.
func (l *Listener) Start(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", l.address)
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address: %w", err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on UDP address: %w", err)
	}
	defer conn.Close()

	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()

	if err := conn.SetReadBuffer(l.rcvBuf); err != nil {
		monitoring.Logf("warning: failed to set UDP receive buffer to %d: %v", l.rcvBuf, err)
	}
	monitoring.Logf("scan listener started on %s", conn.LocalAddr())

	lastLog := time.Now()
	buf := make([]byte, 64<<10)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Bounded read so cancellation is honored promptly.
		if err := conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond)); err != nil {
			return fmt.Errorf("failed to set read deadline: %w", err)
		}
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				continue
			}
			return fmt.Errorf("UDP read failed: %w", err)
		}

		l.handleDatagram(buf[:n])

		if time.Since(lastLog) >= l.logInterval {
			l.stats.LogStats()
			lastLog = time.Now()
		}
	}
}

// handleDatagram parses one datagram and delivers the scan. The parsed
// slice is freshly allocated per scan, so the handler may retain it.
func (l *Listener) handleDatagram(b []byte) {
	l.stats.AddDatagram(len(b))

	ranges, err := l.parser.ParseDatagram(b)
	if err != nil {
		l.stats.AddReject()
		monitoring.Logf("dropping datagram: %v", err)
		return
	}

	l.stats.AddScan()
	if l.handler != nil {
		l.handler.OnScan(ranges)
	}
}
