package sink

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/rover.pilot/internal/monitoring"
	"github.com/banshee-data/rover.pilot/internal/policy"
)

func TestSerialSinkWritesCommandLines(t *testing.T) {
	t.Parallel()

	port := &MockPort{}
	s := NewSerialSink(port)

	require.NoError(t, s.Publish(policy.Command{Linear: 0.2, Angular: -1.5}))
	require.NoError(t, s.Publish(policy.Command{Linear: 0.005, Angular: 2.84}))

	assert.Equal(t, "VEL,0.2000,-1.5000\r\nVEL,0.0050,2.8400\r\n", string(port.Written()))
}

func TestSerialSinkWriteError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("device gone")
	s := NewSerialSink(&MockPort{WriteError: wantErr})

	err := s.Publish(policy.Command{Linear: 0.1})
	require.ErrorIs(t, err, wantErr)
}

func TestSerialSinkClose(t *testing.T) {
	t.Parallel()

	port := &MockPort{}
	s := NewSerialSink(port)
	require.NoError(t, s.Close())
	assert.True(t, port.Closed)
}

func TestOpenSerialSinkMissingDevice(t *testing.T) {
	t.Parallel()

	_, err := OpenSerialSink("/dev/does-not-exist-12345", 115200)
	require.Error(t, err)
}

func TestMultiSinkFansOut(t *testing.T) {
	t.Parallel()

	a := &MockPort{}
	b := &MockPort{}
	m := NewMultiSink(NewSerialSink(a), NewSerialSink(b))

	require.NoError(t, m.Publish(policy.Command{Linear: 0.2}))
	assert.Equal(t, a.Written(), b.Written())
	assert.NotEmpty(t, a.Written())
}

func TestMultiSinkReturnsFirstErrorButTriesAll(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("broken")
	broken := NewSerialSink(&MockPort{WriteError: wantErr})
	healthy := &MockPort{}
	m := NewMultiSink(broken, NewSerialSink(healthy))

	err := m.Publish(policy.Command{Linear: 0.1, Angular: 0.2})
	require.ErrorIs(t, err, wantErr)
	assert.NotEmpty(t, healthy.Written())
}

func TestLogSink(t *testing.T) {
	var got string
	monitoring.SetLogger(func(format string, v ...interface{}) { got = fmt.Sprintf(format, v...) })
	defer monitoring.SetLogger(nil)

	require.NoError(t, LogSink{}.Publish(policy.Command{Linear: 0.2, Angular: 0.1}))
	assert.Contains(t, got, "cmd_vel")
	assert.Contains(t, got, "0.2000 mps")

	require.NoError(t, LogSink{Units: "kph"}.Publish(policy.Command{Linear: 0.5, Angular: 0.1}))
	assert.Contains(t, got, "1.8000 kph")
}
