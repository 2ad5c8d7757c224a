package motion

import "github.com/xionluhnis/print-me-a-cookie/core"

// mockPort is a trivial in-memory GpioPort for exercising Stepper without
// real hardware: it just remembers the last value written per pin and lets
// tests advance a fake clock.
type mockPort struct {
	pins   map[core.GPIOPin]bool
	micros uint32
}

func newMockPort() *mockPort {
	return &mockPort{pins: make(map[core.GPIOPin]bool)}
}

func (m *mockPort) ConfigureOutput(pin core.GPIOPin) error        { return nil }
func (m *mockPort) ConfigureInputPullUp(pin core.GPIOPin) error   { return nil }
func (m *mockPort) ConfigureInputPullDown(pin core.GPIOPin) error { return nil }
func (m *mockPort) SetPin(pin core.GPIOPin, value bool) error {
	m.pins[pin] = value
	return nil
}
func (m *mockPort) GetPin(pin core.GPIOPin) (bool, error) { return m.pins[pin], nil }
func (m *mockPort) ReadPin(pin core.GPIOPin) bool         { return m.pins[pin] }
func (m *mockPort) Micros() uint32                        { return m.micros }

const (
	pinStep core.GPIOPin = iota
	pinDir
	pinMS1
	pinMS2
	pinMS3
	pinEnable
)

func newTestStepper(ident byte) (*Stepper, *mockPort) {
	port := newMockPort()
	s := NewStepper(port, Pins{
		Step: pinStep, Dir: pinDir, MS1: pinMS1, MS2: pinMS2, MS3: pinMS3, Enable: pinEnable,
	}, ident, false)
	s.Setup()
	return s, port
}

// mockBackend is a core.StepperBackend recorder for exercising
// NewHardwareStepper without real PIO/GPIO hardware.
type mockBackend struct {
	initStepPin, initDirPin   uint8
	initInvertStep, initInvertDir bool
	steps                     int
	directions                []bool
	stopped                   bool
}

func (b *mockBackend) Init(stepPin, dirPin uint8, invertStep, invertDir bool) error {
	b.initStepPin, b.initDirPin = stepPin, dirPin
	b.initInvertStep, b.initInvertDir = invertStep, invertDir
	return nil
}
func (b *mockBackend) Step()                { b.steps++ }
func (b *mockBackend) SetDirection(dir bool) { b.directions = append(b.directions, dir) }
func (b *mockBackend) Stop()                 { b.stopped = true }
func (b *mockBackend) GetName() string       { return "mock" }
