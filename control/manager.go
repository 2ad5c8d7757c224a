// Package control coordinates the configured axes and the G-code front end
// into one runnable machine: it builds the
// Locator/Elevator motion core from a MachineConfig and drives its
// cooperative tick loop.
package control

import (
	"context"
	"errors"
	"time"

	"github.com/xionluhnis/print-me-a-cookie/config"
	"github.com/xionluhnis/print-me-a-cookie/core"
	"github.com/xionluhnis/print-me-a-cookie/gcode"
	"github.com/xionluhnis/print-me-a-cookie/motion"
)

// axisIdents fixes the order steppers are iterated for Exec/Release ticks.
var axisIdents = []string{"x", "y", "z", "e"}

// Manager owns one machine's full stack: its four steppers, the XY
// locator, the Z elevator, the extruder stepper and the G-code reader
// driving them, plus the cooperative tick loop that advances them all.
type Manager struct {
	cfg *config.MachineConfig

	steppers map[string]*motion.Stepper
	locator  *motion.Locator
	elevator *motion.Elevator
	extruder *motion.Stepper

	reader *gcode.Reader
	bus    *core.EventBus

	running bool
}

// NewManager builds each of the axes "x", "y", "z" and "e" that cfg.Axes
// names onto port (other axis names are ignored), wires them
// into a Locator ("x"/"y"), an Elevator ("z") and an extruder stepper
// ("e"), and constructs the G-code reader over input.
func NewManager(cfg *config.MachineConfig, port core.GpioPort, input core.CharSource) (*Manager, error) {
	steppers := make(map[string]*motion.Stepper, len(axisIdents))
	for _, name := range axisIdents {
		axisCfg, ok := cfg.Axes[name]
		if !ok {
			continue
		}
		pins := motion.Pins{
			Step:   core.GPIOPin(axisCfg.Pins.Step),
			Dir:    core.GPIOPin(axisCfg.Pins.Dir),
			MS1:    core.GPIOPin(axisCfg.Pins.MS1),
			MS2:    core.GPIOPin(axisCfg.Pins.MS2),
			MS3:    core.GPIOPin(axisCfg.Pins.MS3),
			Enable: core.GPIOPin(axisCfg.Pins.Enable),
		}
		s := motion.NewStepper(port, pins, name[0], axisCfg.ActiveHighDir)
		s.Setup()
		s.SetSafeFreq(axisCfg.SafeFreq)
		s.SetDeltaFreq(axisCfg.MaxDeltaFreq)
		if axisCfg.MinSteps != nil {
			s.SetMinValue(*axisCfg.MinSteps, false)
		}
		if axisCfg.MaxSteps != nil {
			s.SetMaxValue(*axisCfg.MaxSteps, false)
		}
		if axisCfg.RangeSteps != 0 {
			s.SetRange(axisCfg.RangeSteps)
		}
		s.Enable()
		steppers[name] = s
	}

	x, hasX := steppers["x"]
	y, hasY := steppers["y"]
	z, hasZ := steppers["z"]
	e := steppers["e"]
	if !hasX || !hasY || !hasZ {
		return nil, errors.New("control: config must define x, y and z axes")
	}

	locator := motion.NewLocator(x, y)
	locator.SetBestFreq(cfg.BestFreq)
	locator.SetMaxDeltaFreq(cfg.MaxDeltaFreq)
	locator.SetPrecision(cfg.Precision)
	locator.Enable()

	elevator := motion.NewElevator(z)
	elevator.SetBestFreq(cfg.BestFreq)
	elevator.SetMaxDeltaFreq(cfg.MaxDeltaFreq)
	elevator.Enable()

	scale := cfg.Scale
	if scale == 0 {
		scale = 1
	}
	reader := gcode.NewReader(input, locator, elevator, e, scale)

	return &Manager{
		cfg:      cfg,
		steppers: steppers,
		locator:  locator,
		elevator: elevator,
		extruder: e,
		reader:   reader,
		bus:      &core.EventBus{},
	}, nil
}

// OnStateChange registers cb for machine state notifications (StateIdle or
// StateMoving, from the locator's motion) fired on every Tick.
func (m *Manager) OnStateChange(cb func(state int)) {
	m.bus.Listen(cb)
}

const (
	StateIdle = iota
	StateMoving
)

// Tick advances one cooperative step: feed one pending G-code command (if
// any) into the motion layer, recompute target frequencies, then run one
// Exec/Release pulse pair across every configured stepper. A new command is
// only pulled once the previous one's geometric move (if any) has reached
// its target — see gcode.Reader.Busy — so successive moves never overwrite
// an in-flight target.
func (m *Manager) Tick() {
	if !m.reader.Busy() && m.reader.Available() {
		m.reader.Next()
	}

	m.locator.Update()
	m.elevator.Update()

	for _, name := range axisIdents {
		s, ok := m.steppers[name]
		if !ok {
			continue
		}
		s.Exec()
		s.Release()
	}

	if m.locator.IsMoving() {
		m.bus.Trigger(StateMoving)
	} else {
		m.bus.Trigger(StateIdle)
	}
}

// Run drives Tick at the given period until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, period time.Duration) error {
	m.running = true
	defer func() { m.running = false }()

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Tick()
			core.LogError()
		}
	}
}

// IsRunning reports whether Run's loop is active.
func (m *Manager) IsRunning() bool { return m.running }

// Busy reports whether a geometric move dispatched from the G-code stream is
// still in flight (see gcode.Reader.Busy).
func (m *Manager) Busy() bool { return m.reader.Busy() }

// Locator exposes the XY motion controller, e.g. for a console to poll
// its position.
func (m *Manager) Locator() *motion.Locator { return m.locator }

// Elevator exposes the Z motion controller.
func (m *Manager) Elevator() *motion.Elevator { return m.elevator }

// Stepper returns the named axis's stepper ("x", "y", "z" or "e"), or nil
// if that axis was not configured.
func (m *Manager) Stepper(name string) *motion.Stepper { return m.steppers[name] }

// SetBackend offloads one axis's pulse generation to a hardware backend
// (e.g. targets/pio's PIOStepperBackend on an rp2040 build) instead of
// motion.Stepper's default direct GPIO writes. A no-op if name isn't a
// configured axis.
func (m *Manager) SetBackend(name string, backend core.StepperBackend) {
	if s, ok := m.steppers[name]; ok {
		s.SetBackend(backend)
	}
}

// Stop disables every configured stepper that is not currently moving.
// Stepper.Disable is a no-op while an axis runs, so a moving axis keeps its
// driver enabled and its frequency target unchanged.
func (m *Manager) Stop() {
	for _, s := range m.steppers {
		s.Disable()
	}
}
