package gcode

import (
	"github.com/xionluhnis/print-me-a-cookie/core"
	"github.com/xionluhnis/print-me-a-cookie/motion"
)

// mockPort is a bare in-memory GpioPort, enough to construct motion.Steppers
// for exercising the G-code dispatcher without real hardware.
type mockPort struct {
	pins map[core.GPIOPin]bool
}

func newMockPort() *mockPort { return &mockPort{pins: make(map[core.GPIOPin]bool)} }

func (m *mockPort) ConfigureOutput(pin core.GPIOPin) error        { return nil }
func (m *mockPort) ConfigureInputPullUp(pin core.GPIOPin) error   { return nil }
func (m *mockPort) ConfigureInputPullDown(pin core.GPIOPin) error { return nil }
func (m *mockPort) SetPin(pin core.GPIOPin, value bool) error {
	m.pins[pin] = value
	return nil
}
func (m *mockPort) GetPin(pin core.GPIOPin) (bool, error) { return m.pins[pin], nil }
func (m *mockPort) ReadPin(pin core.GPIOPin) bool         { return m.pins[pin] }
func (m *mockPort) Micros() uint32                        { return 0 }

const (
	pinStep core.GPIOPin = iota
	pinDir
	pinMS1
	pinMS2
	pinMS3
	pinEnable
)

func newTestMotionStepper(ident byte) (*motion.Stepper, *mockPort) {
	port := newMockPort()
	s := motion.NewStepper(port, motion.Pins{
		Step: pinStep, Dir: pinDir, MS1: pinMS1, MS2: pinMS2, MS3: pinMS3, Enable: pinEnable,
	}, ident, false)
	s.Setup()
	return s, port
}
