package policy

// Limits is the robot's declared actuation envelope. The caps are
// one-sided: computed values above a cap saturate to it, while zero and
// negative values pass through untouched.
type Limits struct {
	MaxLinear  float64 // m/s
	MaxAngular float64 // rad/s
}

// DefaultLimits returns the reference robot's actuation envelope.
func DefaultLimits() Limits {
	return Limits{MaxLinear: 0.22, MaxAngular: 2.84}
}

// Clamp saturates a raw command to the actuation envelope.
func (l Limits) Clamp(cmd Command) Command {
	if cmd.Linear > l.MaxLinear {
		cmd.Linear = l.MaxLinear
	}
	if cmd.Angular > l.MaxAngular {
		cmd.Angular = l.MaxAngular
	}
	return cmd
}
