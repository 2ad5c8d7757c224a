package main

import (
	"go.uber.org/zap"

	"github.com/xionluhnis/print-me-a-cookie/core"
	"github.com/xionluhnis/print-me-a-cookie/logging"
)

// hostGPIO is a simulated GPIODriver for running the motion/gcode core on
// a development machine with no attached stepper hardware: it just tracks
// pin state and logs pin configuration, the bench-test stand-in for what
// targets/pio drives for real.
type hostGPIO struct {
	pins map[core.GPIOPin]bool
}

func newHostGPIO() *hostGPIO {
	return &hostGPIO{pins: make(map[core.GPIOPin]bool)}
}

func (g *hostGPIO) ConfigureOutput(pin core.GPIOPin) error {
	logging.Debug("configure output", zap.Uint32("pin", uint32(pin)))
	return nil
}

func (g *hostGPIO) ConfigureInputPullUp(pin core.GPIOPin) error {
	logging.Debug("configure input pull-up", zap.Uint32("pin", uint32(pin)))
	return nil
}

func (g *hostGPIO) ConfigureInputPullDown(pin core.GPIOPin) error {
	logging.Debug("configure input pull-down", zap.Uint32("pin", uint32(pin)))
	return nil
}

func (g *hostGPIO) SetPin(pin core.GPIOPin, value bool) error {
	g.pins[pin] = value
	return nil
}

func (g *hostGPIO) GetPin(pin core.GPIOPin) (bool, error) {
	return g.pins[pin], nil
}

func (g *hostGPIO) ReadPin(pin core.GPIOPin) bool {
	return g.pins[pin]
}

func (g *hostGPIO) Micros() uint32 {
	return core.TimerToUS(core.GetTime())
}
