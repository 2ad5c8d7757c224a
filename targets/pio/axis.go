//go:build rp2040

package pio

import (
	"github.com/xionluhnis/print-me-a-cookie/core"
	"github.com/xionluhnis/print-me-a-cookie/motion"
)

// NewAxis builds a hardware-accelerated Stepper for one axis: it claims a
// backend via CreateStepperBackend (as the selected StepperBackendMode
// dictates; in the default PIO mode that is nil once no state machine is
// free) and wires it in through motion.NewHardwareStepper, so the axis's
// STEP/DIR transitions run through the backend's fast register path instead
// of the generic core.GpioPort.
func NewAxis(port core.GpioPort, pins motion.Pins, ident byte, activeHighDir bool) (*motion.Stepper, error) {
	backend := CreateStepperBackend()
	if backend == nil {
		// PIO exhausted and GPIO fallback not selected: drive the axis
		// through the generic GPIO port instead of failing construction.
		return motion.NewStepper(port, pins, ident, activeHighDir), nil
	}
	return motion.NewHardwareStepper(port, pins, ident, activeHighDir, backend)
}
