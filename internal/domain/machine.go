package domain

import "fmt"

// Bound is an inclusive numeric range.
type Bound struct {
	Min float64
	Max float64
}

// Contains reports whether v lies within the bound.
func (b Bound) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// Clamp pulls v into the bound.
func (b Bound) Clamp(v float64) float64 {
	if v < b.Min {
		return b.Min
	}
	if v > b.Max {
		return b.Max
	}
	return v
}

var (
	VoltageBound   = Bound{Min: 4.0, Max: 12.0}
	FrequencyBound = Bound{Min: 0, Max: 150}
	DepthBound     = Bound{Min: 0.1, Max: 4.0}
)

// MachineSettings holds the haptic imprinting instrument parameters:
// voltage in volts, frequency in hertz and needle depth in millimetres.
type MachineSettings struct {
	Voltage   float64 `json:"voltage"`
	Frequency float64 `json:"frequency"`
	Depth     float64 `json:"depth"`
}

// DefaultMachineSettings is the calibration a fresh session starts with.
func DefaultMachineSettings() MachineSettings {
	return MachineSettings{Voltage: 7.5, Frequency: 85, Depth: 1.2}
}

// Clamp returns a copy with every field pulled into its bound.
func (s MachineSettings) Clamp() MachineSettings {
	return MachineSettings{
		Voltage:   VoltageBound.Clamp(s.Voltage),
		Frequency: FrequencyBound.Clamp(s.Frequency),
		Depth:     DepthBound.Clamp(s.Depth),
	}
}

// Validate reports the first field outside its bound.
func (s MachineSettings) Validate() error {
	if err := CheckBound("voltage", s.Voltage, VoltageBound); err != nil {
		return err
	}
	if err := CheckBound("frequency", s.Frequency, FrequencyBound); err != nil {
		return err
	}
	return CheckBound("depth", s.Depth, DepthBound)
}

// CheckBound returns ErrOutOfRange when v falls outside b.
func CheckBound(field string, v float64, b Bound) error {
	if !b.Contains(v) {
		return fmt.Errorf("%w: %s %g not in [%g, %g]", ErrOutOfRange, field, v, b.Min, b.Max)
	}
	return nil
}
