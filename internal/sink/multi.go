package sink

import (
	"github.com/banshee-data/rover.pilot/internal/drive"
	"github.com/banshee-data/rover.pilot/internal/monitoring"
	"github.com/banshee-data/rover.pilot/internal/policy"
	"github.com/banshee-data/rover.pilot/internal/units"
)

// LogSink logs each command through the package logger. Used in dev
// mode when no base controller is attached. Units selects the display
// unit for the linear velocity; empty means m/s.
type LogSink struct {
	Units string
}

// Publish logs the command.
func (s LogSink) Publish(cmd policy.Command) error {
	unit := s.Units
	if !units.IsValidLinear(unit) {
		unit = units.MPS
	}
	monitoring.Logf("cmd_vel linear=%.4f %s angular=%.4f rad/s",
		units.ConvertLinear(cmd.Linear, unit), unit, cmd.Angular)
	return nil
}

// MultiSink fans one command out to several sinks. The first error is
// returned after all sinks have been attempted.
type MultiSink struct {
	sinks []drive.CommandSink
}

// NewMultiSink builds a fan-out over the given sinks.
func NewMultiSink(sinks ...drive.CommandSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Publish delivers the command to every sink.
func (m *MultiSink) Publish(cmd policy.Command) error {
	var first error
	for _, s := range m.sinks {
		if err := s.Publish(cmd); err != nil && first == nil {
			first = err
		}
	}
	return first
}
