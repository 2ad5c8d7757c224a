package control

import (
	"context"
	"testing"
	"time"

	"github.com/xionluhnis/print-me-a-cookie/config"
	"github.com/xionluhnis/print-me-a-cookie/core"
	"github.com/xionluhnis/print-me-a-cookie/motion"
)

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

type stringSource struct {
	data []byte
	pos  int
}

func newStringSource(s string) *stringSource { return &stringSource{data: []byte(s)} }

func (s *stringSource) Available() bool { return s.pos < len(s.data) }
func (s *stringSource) Read() byte {
	if s.pos >= len(s.data) {
		return 0
	}
	b := s.data[s.pos]
	s.pos++
	return b
}
func (s *stringSource) Peek() byte {
	if s.pos >= len(s.data) {
		return 0
	}
	return s.data[s.pos]
}

func testConfig() *config.MachineConfig {
	cfg := config.DefaultCartesianConfig()
	return cfg
}

func TestNewManagerRequiresXYZ(t *testing.T) {
	cfg := &config.MachineConfig{Axes: map[string]config.AxisConfig{}}
	_, err := NewManager(cfg, newMockPort(), newStringSource(""))
	if err == nil {
		t.Fatal("expected error when x/y/z axes are missing")
	}
}

func TestManagerTickExecutesPendingGCode(t *testing.T) {
	cfg := testConfig()
	src := newStringSource("G90\nG1 X1000 Y0\n")
	m, err := NewManager(cfg, newMockPort(), src)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	for i := 0; i < 5000 && m.Locator().HasTarget() == false; i++ {
		m.Tick()
	}
	if !m.Locator().HasTarget() {
		t.Fatal("expected locator to have a target after processing G1")
	}
}

func TestManagerBusyContractPreventsOverwrite(t *testing.T) {
	cfg := testConfig()
	src := newStringSource("G90\nG1 X1 Y0\nG1 X2 Y0\n")
	m, err := NewManager(cfg, newMockPort(), src)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	// Tick through "G90" then "G1 X1 Y0": the first move is now in flight.
	for i := 0; i < 2; i++ {
		m.Tick()
	}
	if !m.Busy() {
		t.Fatal("expected manager to be busy right after the first move was issued")
	}
	firstTarget := m.Locator().Target()
	if firstTarget == (motion.Vec2{}) {
		t.Fatal("expected a nonzero first target")
	}

	// While busy, further ticks must not pull "G1 X2 Y0" and overwrite the
	// in-flight target.
	for i := 0; i < 3 && m.Busy(); i++ {
		m.Tick()
		if m.Locator().Target() != firstTarget {
			t.Fatalf("target changed to %+v while still busy with %+v", m.Locator().Target(), firstTarget)
		}
	}

	for i := 0; i < 10000 && m.Busy(); i++ {
		m.Tick()
	}
	if m.Busy() {
		t.Fatal("first move never completed")
	}

	// Now that the first move is done, the next tick should pick up the
	// second line and move the target again.
	for i := 0; i < 10 && m.Locator().Target() == firstTarget; i++ {
		m.Tick()
	}
	if m.Locator().Target() == firstTarget {
		t.Fatal("expected the second G1 to update the locator target once the first move completed")
	}
}

func TestManagerRunStopsOnContextCancel(t *testing.T) {
	cfg := testConfig()
	m, err := NewManager(cfg, newMockPort(), newStringSource(""))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = m.Run(ctx, time.Millisecond)
	if err == nil {
		t.Fatal("expected Run to return context error")
	}
	if m.IsRunning() {
		t.Error("expected IsRunning() false after Run returns")
	}
}

func TestManagerStopDisablesSteppers(t *testing.T) {
	cfg := testConfig()
	m, err := NewManager(cfg, newMockPort(), newStringSource(""))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	m.Stop()
	if m.Stepper("x").IsEnabled() {
		t.Error("expected x stepper disabled after Stop()")
	}
}
