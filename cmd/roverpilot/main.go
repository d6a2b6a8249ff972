// Command roverpilot runs the reactive obstacle-avoidance pilot: it
// listens for range scans over UDP, drives the closed-loop controller
// and publishes velocity commands to the base controller.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/rover.pilot/internal/config"
	"github.com/banshee-data/rover.pilot/internal/drive"
	"github.com/banshee-data/rover.pilot/internal/feed"
	"github.com/banshee-data/rover.pilot/internal/monitor"
	"github.com/banshee-data/rover.pilot/internal/policy"
	"github.com/banshee-data/rover.pilot/internal/scan"
	"github.com/banshee-data/rover.pilot/internal/sink"
	"github.com/banshee-data/rover.pilot/internal/telemetry"
	"github.com/banshee-data/rover.pilot/internal/units"
	"github.com/banshee-data/rover.pilot/internal/version"
)

var (
	listen      = flag.String("listen", ":8081", "HTTP listen address")
	udpPort     = flag.Int("udp-port", 2368, "UDP port to listen for range scan datagrams")
	udpAddress  = flag.String("udp-addr", "", "UDP bind address (default: listen on all interfaces)")
	serialDev   = flag.String("serial", "", "serial device for the base controller (empty: log commands instead)")
	serialBaud  = flag.Int("baud", 115200, "serial baud rate")
	tuningFile  = flag.String("tuning", "", "path to a JSON tuning file overriding the defaults")
	dbFile      = flag.String("db", "pilot_telemetry.db", "path to the SQLite telemetry database (empty: disable telemetry)")
	migrations  = flag.String("migrations", "migrations", "path to the telemetry migrations directory")
	plotDir     = flag.String("plot-dir", "", "write clearance/command plots to this directory on shutdown")
	pcapFile    = flag.String("pcap", "", "replay scans from a pcap capture instead of live UDP")
	rcvBuf      = flag.Int("rcvbuf", 1<<20, "UDP receive buffer size in bytes")
	logInterval = flag.Int("log-interval", 60, "feed statistics logging interval in seconds")
	logUnits    = flag.String("log-units", units.MPS, "display unit for logged linear velocities (mps, mph, kmph, kph)")
	logCommands = flag.Bool("log-commands", false, "also log every published command when a serial device is attached")
)

// cycleObservers fans one cycle record out to several observers.
type cycleObservers []drive.CycleObserver

func (o cycleObservers) ObserveCycle(rec drive.CycleRecord) {
	for _, obs := range o {
		obs.ObserveCycle(rec)
	}
}

func loadTuning() (*config.Tuning, error) {
	tuning := config.Defaults()
	if *tuningFile == "" {
		return tuning, nil
	}

	overrides, err := config.Load(*tuningFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load tuning file: %w", err)
	}
	tuning.Merge(overrides)
	return tuning, nil
}

func main() {
	flag.Parse()

	log.Printf("roverpilot %s (%s)", version.Version, version.GitSHA)

	if *listen == "" {
		log.Fatal("HTTP listen address is required")
	}
	if !units.IsValidLinear(*logUnits) {
		log.Fatalf("Invalid -log-units %q (valid: %s)", *logUnits, units.GetValidLinearUnitsString())
	}

	tuning, err := loadTuning()
	if err != nil {
		log.Fatalf("Failed to load tuning: %v", err)
	}

	startupDelay, err := tuning.ParseStartupDelay()
	if err != nil {
		log.Fatalf("Invalid startup delay: %v", err)
	}
	tickPeriod, err := tuning.ParseTickPeriod()
	if err != nil {
		log.Fatalf("Invalid tick period: %v", err)
	}

	// Command sink: serial to the base controller, or log-only dev mode.
	var commandSink drive.CommandSink = sink.LogSink{Units: *logUnits}
	if *serialDev != "" {
		serialSink, err := sink.OpenSerialSink(*serialDev, *serialBaud)
		if err != nil {
			log.Fatalf("Failed to open serial device %s: %v", *serialDev, err)
		}
		defer serialSink.Close()
		commandSink = serialSink
		if *logCommands {
			commandSink = sink.NewMultiSink(serialSink, sink.LogSink{Units: *logUnits})
		}
		log.Printf("Publishing commands to %s at %d baud", *serialDev, *serialBaud)
	} else {
		log.Println("No serial device configured, logging commands (use -serial to attach a base)")
	}

	var observers cycleObservers

	// Telemetry database.
	var store *telemetry.Store
	if *dbFile != "" {
		store, err = telemetry.Open(*dbFile)
		if err != nil {
			log.Fatalf("Failed to open telemetry database: %v", err)
		}
		defer store.Close()

		if err := store.MigrateUp(*migrations); err != nil {
			log.Fatalf("Failed to migrate telemetry database: %v", err)
		}
		if err := store.RecordConfig(tuning); err != nil {
			log.Fatalf("Failed to record run config: %v", err)
		}
		observers = append(observers, store)
		log.Printf("Recording telemetry to %s (run %s)", *dbFile, store.RunID())
	} else {
		log.Println("Telemetry disabled (use -db to enable)")
	}

	var plotter *monitor.Plotter
	if *plotDir != "" {
		plotter = monitor.NewPlotter(0)
		observers = append(observers, plotter)
	}

	var observer drive.CycleObserver
	if len(observers) > 0 {
		observer = observers
	}

	driver := drive.NewDriver(drive.Config{
		Preprocessor: scan.NewPreprocessor(scan.ConfigFromTuning(tuning)),
		Policy:       policy.NewAvoider(policy.ConfigFromTuning(tuning)),
		Limits:       policy.LimitsFromTuning(tuning),
		Sink:         commandSink,
		Observer:     observer,
		TickPeriod:   tickPeriod,
		StartupDelay: startupDelay,
	})

	samples := scan.DefaultSamples
	if tuning.ScanSamples != nil {
		samples = *tuning.ScanSamples
	}
	parser := &feed.Parser{Samples: samples}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Scan feed: pcap replay or live UDP.
	wg.Add(1)
	go func() {
		defer wg.Done()
		if *pcapFile != "" {
			if err := feed.ReplayPCAP(ctx, *pcapFile, *udpPort, parser, driver, nil); err != nil && err != context.Canceled {
				log.Printf("PCAP replay error: %v", err)
			}
			return
		}

		addr := fmt.Sprintf(":%d", *udpPort)
		if *udpAddress != "" {
			addr = fmt.Sprintf("%s:%d", *udpAddress, *udpPort)
		}
		listener := feed.NewListener(feed.ListenerConfig{
			Address:     addr,
			RcvBuf:      *rcvBuf,
			LogInterval: time.Duration(*logInterval) * time.Second,
			Parser:      parser,
			Handler:     driver,
		})
		if err := listener.Start(ctx); err != nil && err != context.Canceled {
			log.Printf("UDP listener error: %v", err)
		}
	}()

	// Control loop.
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := driver.RunLoop(ctx); err != nil && err != context.Canceled {
			log.Printf("Control loop error: %v", err)
		}
	}()

	// Monitoring HTTP server.
	wg.Add(1)
	go func() {
		defer wg.Done()
		var cycles monitor.CycleSource
		if store != nil {
			cycles = store
		}
		ws := monitor.NewWebServer(monitor.WebServerConfig{
			Address: *listen,
			Status:  driver,
			Cycles:  cycles,
		})
		if err := ws.Start(ctx); err != nil {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	wg.Wait()

	if plotter != nil {
		written, err := plotter.WritePlots(*plotDir)
		if err != nil {
			log.Printf("Failed to write plots: %v", err)
		} else {
			log.Printf("Wrote %d plots to %s", written, *plotDir)
		}
	}
}
