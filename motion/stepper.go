// Package motion implements the three-axis stepper motion core: per-axis
// step generation (Stepper), XY path tracking (Locator) and Z-axis/extruder
// tracking (Elevator), built on core.GpioPort for hardware access and
// core.EventBus for state notifications.
package motion

import "github.com/xionluhnis/print-me-a-cookie/core"

// Microstep mode bit encodings for the MS1/MS2/MS3 driver pins.
type MicrostepMode uint8

const (
	MSFull MicrostepMode = 0b000
	MS1_1  MicrostepMode = 0b000
	MS1_2  MicrostepMode = 0b100
	MS1_4  MicrostepMode = 0b010
	MS1_8  MicrostepMode = 0b110
	MS1_16 MicrostepMode = 0b111
	MSSlow MicrostepMode = 0b111
)

// IdleFreq is the exceptional frequency value meaning "not moving".
const IdleFreq int32 = 0

const (
	maxSteps = int32(1<<31 - 1)
	minSteps = int32(-1 << 31)
)

func sign(l int32) int32 {
	if l < 0 {
		return -1
	}
	return 1
}

func absI32(l int32) int32 {
	if l < 0 {
		return -l
	}
	return l
}

// stepsForMode converts a microstep mode into its base step count (how many
// full steps a single pulse in that mode advances the shaft by, scaled to a
// common 16-units-per-full-step denominator).
func stepsForMode(mode MicrostepMode) int32 {
	switch mode {
	case MS1_1:
		return 16
	case MS1_2:
		return 8
	case MS1_4:
		return 4
	case MS1_8:
		return 2
	case MS1_16: // == MSSlow
		return 1
	default:
		core.ReportError(core.ErrInvalidMSMode)
		return 0
	}
}

// Pins names the six GPIO lines a Stepper drives.
type Pins struct {
	Step, Dir, MS1, MS2, MS3, Enable core.GPIOPin
}

// Stepper drives a single axis: it owns the STEP/DIR/MSx/EN pins, tracks a
// signed step position and ramps its pulse period (frequency) toward a
// target under a safe-frequency/delta-frequency profile. Exec/Release must
// be called back to back from the tick loop with nothing interleaved
// between them.
type Stepper struct {
	port core.GpioPort
	pins Pins
	ident byte

	posDirSignal, negDirSignal bool

	enabled bool

	count              uint32
	fCur, fTrg, fMem   int32
	df                 uint32
	fSafe              uint32

	stepMode  MicrostepMode
	steps     int32
	stepDelta int32
	stepDir   int32

	maxSteps, minSteps int32
	stepRange          uint32

	backend core.StepperBackend
}

// NewStepper constructs a Stepper over the given port and pins. activeHighDir
// selects the polarity of the DIR signal for "positive" motion (false = active low).
func NewStepper(port core.GpioPort, pins Pins, ident byte, activeHighDir bool) *Stepper {
	s := &Stepper{
		port:  port,
		pins:  pins,
		ident: ident,
	}
	if !activeHighDir {
		s.posDirSignal, s.negDirSignal = false, true
	} else {
		s.posDirSignal, s.negDirSignal = true, false
	}
	s.df = 1
	s.fSafe = 5
	s.stepMode = MSSlow
	s.stepDelta = stepsForMode(s.stepMode)
	s.stepDir = 1
	s.maxSteps = maxSteps
	s.minSteps = minSteps
	return s
}

// NewHardwareStepper builds a Stepper like NewStepper but offloads STEP
// pulses and DIR writes to backend (a platform-specific core.StepperBackend,
// e.g. one of targets/pio's PIO or GPIO-register implementations) instead of
// driving them through the generic core.GpioPort. backend.Init is called
// immediately with this axis's step/dir pins, so construction fails if the
// backend's Init returns an error. backend must
// not be nil; a caller that might have no hardware backend available should
// fall back to NewStepper instead.
func NewHardwareStepper(port core.GpioPort, pins Pins, ident byte, activeHighDir bool, backend core.StepperBackend) (*Stepper, error) {
	s := NewStepper(port, pins, ident, activeHighDir)
	if err := backend.Init(uint8(pins.Step), uint8(pins.Dir), false, !activeHighDir); err != nil {
		return nil, err
	}
	s.backend = backend
	return s, nil
}

// SetBackend attaches an optional hardware pulse generator (PIO, etc). When
// set, Exec delegates the STEP pulse to it instead of a raw GPIO write, and
// Release skips the GPIO-low edge since the backend completes its own pulse.
// Prefer NewHardwareStepper when building a new axis; SetBackend exists for
// swapping backends on an already-constructed Stepper (e.g. mid-run
// fallback from PIO to GPIO).
func (s *Stepper) SetBackend(b core.StepperBackend) {
	s.backend = b
}

// Setup configures the six pins as outputs and resets the axis.
func (s *Stepper) Setup() {
	s.port.ConfigureOutput(s.pins.Step)
	s.port.ConfigureOutput(s.pins.Dir)
	s.port.ConfigureOutput(s.pins.MS1)
	s.port.ConfigureOutput(s.pins.MS2)
	s.port.ConfigureOutput(s.pins.MS3)
	s.port.ConfigureOutput(s.pins.Enable)
	s.Reset()
}

// Reset restores the movement profile to its power-on defaults, clears the
// min/max travel bounds and re-homes the direction signal, without touching
// the step position or the stored range span.
func (s *Stepper) Reset() {
	s.Enable()
	s.df = 1
	s.fSafe = 5
	s.count, s.fCur, s.fTrg, s.fMem = 0, 0, 0, 0
	s.maxSteps = maxSteps
	s.minSteps = minSteps
	s.stepDir = 1
	s.port.SetPin(s.pins.Step, false)
	s.port.SetPin(s.pins.Dir, s.posDirSignal)
	s.Microstep(MSSlow, false)
	s.Disable()
}

// Exec is the first half of a tick pair: if frozen it wakes the ramp, then
// if the axis is mid-pulse and allowed to move, it asserts STEP high and
// advances the shadow position. Nothing may run between Exec and Release.
func (s *Stepper) Exec() {
	if s.isFrozen() {
		s.triggerUpdate()
	}
	if s.isTriggering() && s.canTrigger() {
		s.Enable()
		if s.backend != nil {
			s.backend.Step()
		} else {
			s.port.SetPin(s.pins.Step, true)
		}
		s.steps += s.stepDir * s.stepDelta
		core.CountStep()
		core.RecordTiming(core.EvtStepTrigger, uint8(s.ident), s.port.Micros(), uint32(s.steps), s.count)
	}
}

// Release is the second half of a tick pair: it drops STEP low, advances
// the ramp and halts the axis if it has run out of travel.
func (s *Stepper) Release() {
	if s.isRunning() {
		if s.isTriggering() {
			if s.backend == nil {
				s.port.SetPin(s.pins.Step, false)
			}
			s.triggerUpdate()
		}
		s.count++
		if !s.canTrigger() {
			s.fTrg, s.fCur = IdleFreq, IdleFreq
			core.RecordTiming(core.EvtBoundHalt, uint8(s.ident), s.port.Micros(), uint32(s.steps), 0)
		}
	}
}

// Enable asserts the EN line (active low) if not already enabled.
func (s *Stepper) Enable() {
	if !s.enabled {
		s.port.SetPin(s.pins.Enable, false)
		s.enabled = true
	}
}

// Disable de-asserts EN, but only while the axis isn't moving.
func (s *Stepper) Disable() {
	if s.enabled && !s.isRunning() {
		s.port.SetPin(s.pins.Enable, true)
		s.enabled = false
	}
}

// Microstep selects a new microstepping mode and writes the MS1-3 pins.
func (s *Stepper) Microstep(mode MicrostepMode, forceDisable bool) {
	s.Enable()
	s.stepMode = mode
	s.stepDelta = stepsForMode(mode)
	s.port.SetPin(s.pins.MS1, mode&0b100 != 0)
	s.port.SetPin(s.pins.MS2, mode&0b010 != 0)
	s.port.SetPin(s.pins.MS3, mode&0b001 != 0)
	if forceDisable {
		s.Disable()
	}
}

// MoveToFreq sets the target frequency the ramp will converge toward.
func (s *Stepper) MoveToFreq(f int32) {
	s.fTrg = f
}

// ResetPosition re-homes the step counter to absoluteSteps and shifts any
// configured bound by the same delta, saturating instead of overflowing.
func (s *Stepper) ResetPosition(absoluteSteps int32) {
	delta := absoluteSteps - s.steps
	s.steps = absoluteSteps

	if s.minSteps != minSteps {
		if delta < 0 {
			s.minSteps = max(minSteps-delta, s.minSteps) + delta
		} else {
			s.minSteps += delta
		}
	}
	if s.maxSteps != maxSteps {
		if delta > 0 {
			s.maxSteps = min(maxSteps-delta, s.maxSteps) + delta
		} else {
			s.maxSteps += delta
		}
	}
}

// SetMaxValue sets the upper travel bound, clamping the current position
// into range and, when a range is configured, propagating to the minimum.
func (s *Stepper) SetMaxValue(maxValue int32, rangeUpdate bool) {
	s.maxSteps = maxValue
	if s.steps > s.maxSteps {
		s.steps = s.maxSteps
	}
	if s.stepRange != 0 && rangeUpdate {
		s.SetMinValue(s.maxSteps-int32(s.stepRange), false)
	}
}

// SetMinValue sets the lower travel bound, mirroring SetMaxValue.
func (s *Stepper) SetMinValue(minValue int32, rangeUpdate bool) {
	s.minSteps = minValue
	if s.steps < s.minSteps {
		s.steps = s.minSteps
	}
	if s.stepRange != 0 && rangeUpdate {
		s.SetMaxValue(s.minSteps+int32(s.stepRange), false)
	}
}

// SetRange configures the travel span. If neither bound was previously
// configured, the range cannot anchor anywhere and ErrMissingRange is
// reported; otherwise it extends from whichever bound is already set.
func (s *Stepper) SetRange(r uint32) {
	s.stepRange = r
	switch {
	case s.minSteps != minSteps:
		s.SetMaxValue(s.minSteps+int32(r), false)
	case s.maxSteps != maxSteps:
		s.SetMinValue(s.maxSteps-int32(r), false)
	default:
		core.ReportError(core.ErrMissingRange)
	}
}

// SetDeltaFreq sets the maximum per-tick frequency step. A zero value is
// still stored, but flags ErrInvalidDeltaFreq since a zero delta can
// never converge.
func (s *Stepper) SetDeltaFreq(deltaF uint32) {
	s.df = deltaF
	if s.df == 0 {
		core.ReportError(core.ErrInvalidDeltaFreq)
	}
}

// SetSafeFreq sets the frequency magnitude above which a direction reversal
// may jump directly instead of first ramping its magnitude up to this value.
func (s *Stepper) SetSafeFreq(f0 uint32) {
	s.fSafe = f0
}

// --- getters ---

func (s *Stepper) TargetFreq() int32   { return s.fTrg }
func (s *Stepper) CurrentFreq() int32  { return s.fCur }
func (s *Stepper) Value() int32        { return s.steps }
func (s *Stepper) StepSize() int32     { return s.stepDelta }
func (s *Stepper) MaxValue() int32     { return s.maxSteps }
func (s *Stepper) MinValue() int32     { return s.minSteps }
func (s *Stepper) Range() uint32       { return s.stepRange }
func (s *Stepper) DeltaFreq() uint32   { return s.df }
func (s *Stepper) SafeFreq() uint32    { return s.fSafe }
func (s *Stepper) Mode() MicrostepMode { return s.stepMode }

// --- estimators ---

// TimeBetweenFreq sums |f| over every ramp step needed to walk fCur to fTrg
// under delta-frequency df, i.e. the tick count the ramp alone will take.
func (s *Stepper) TimeBetweenFreq(fCur, fTrg int32, df uint32) uint32 {
	var t uint32
	f := fCur
	for f != fTrg {
		t += uint32(absI32(f))
		f = s.updateFreq(f, fTrg, df)
	}
	return t
}

// TimeToFreq is TimeBetweenFreq from the current state, adjusted for the
// in-flight tick count already spent on the current pulse.
func (s *Stepper) TimeToFreq(fTrg int32, df uint32) uint32 {
	t := s.TimeBetweenFreq(s.fCur, fTrg, df)
	if t != 0 {
		return t + 1 - s.count
	}
	return 0
}

// ValueAtFreq predicts the step position once the ramp reaches fTrg.
func (s *Stepper) ValueAtFreq(fTrg int32, df uint32) int32 {
	d := s.steps
	f := s.fCur
	for f != fTrg {
		d += sign(f) * s.stepDelta
		f = s.updateFreq(f, fTrg, df)
	}
	return d
}

// ValueAtFreqDefault is ValueAtFreq using the configured delta-frequency.
func (s *Stepper) ValueAtFreqDefault(fTrg int32) int32 {
	return s.ValueAtFreq(fTrg, s.df)
}

// --- checks ---

func (s *Stepper) isRunning() bool { return s.fTrg != IdleFreq || s.fCur != IdleFreq }

func (s *Stepper) IsEnabled() bool { return s.enabled }

func (s *Stepper) isSafeFreq(f int32) bool {
	return f == IdleFreq || uint32(absI32(f)) >= s.fSafe
}

func (s *Stepper) HasSafeFreq() bool { return s.isSafeFreq(s.fCur) }

func (s *Stepper) HasCorrectDirection() bool { return s.fCur*s.fTrg >= 0 }

func (s *Stepper) HasRange() bool { return s.stepRange != 0 }

// LowMicrostep reports whether the axis is at its coarsest (slowest)
// microstep resolution.
func (s *Stepper) LowMicrostep() bool { return s.stepMode == MSSlow }

// ResetMemory clears the oscillation-guard memory cell, forgetting the
// prior ramp history when a new target is set.
func (s *Stepper) ResetMemory() { s.fMem = IdleFreq }

// --- internal ramp state machine ---

func (s *Stepper) triggerUpdate() {
	s.count = 0
	fTmp := s.fCur
	s.fCur = s.updateFreq(s.fCur, s.fTrg, s.df)
	if s.fCur != fTmp && s.fCur == s.fMem && fTmp != IdleFreq {
		s.fCur = fTmp // revert: this would just oscillate back and forth
	} else {
		s.fMem = fTmp
	}
	core.RecordTiming(core.EvtRateUpdate, uint8(s.ident), s.port.Micros(), uint32(s.fCur), uint32(fTmp))
	if s.fCur*s.stepDir < 0 {
		s.stepDir = sign(s.fCur)
		if s.backend != nil {
			s.backend.SetDirection(s.stepDir < 0)
		} else if s.stepDir > 0 {
			s.port.SetPin(s.pins.Dir, s.posDirSignal)
		} else {
			s.port.SetPin(s.pins.Dir, s.negDirSignal)
		}
	}
}

func (s *Stepper) isTriggering() bool {
	return s.fCur != 0 && s.count >= uint32(absI32(s.fCur))
}

func (s *Stepper) canTrigger() bool {
	nextStep := s.steps + s.stepDir*s.stepDelta
	if s.stepDir < 0 {
		return nextStep > s.minSteps
	}
	return nextStep < s.maxSteps
}

func (s *Stepper) isFrozen() bool {
	return s.fCur == 0 && s.fTrg != 0
}

// updateFreq is the five-branch ramp state machine: snap directly between
// two safe frequencies, ramp toward the target when both are on the same
// side of zero, jump to the safe frequency on a reversal once fCur is
// already safe, or push its magnitude away from zero (toward the safe
// frequency) first when it isn't.
func (s *Stepper) updateFreq(fC, fT int32, df uint32) int32 {
	if fC == fT {
		return fT
	}

	safeCur := s.isSafeFreq(fC)
	safeTrg := s.isSafeFreq(fT)

	switch {
	case safeCur && safeTrg:
		fC = fT
	case fC*fT > 0:
		s0 := sign(fT - fC)
		fC += s0 * int32(df)
		if sign(fT-fC) != s0 {
			fC = fT
		}
	case safeCur:
		fC = int32(s.fSafe) * sign(fT)
	default:
		fC += sign(fC) * int32(df)
	}
	return fC
}
