package motion

import (
	"fmt"

	"github.com/xionluhnis/print-me-a-cookie/core"
)

// ElevatorCallback is invoked once the Z axis reaches its target.
type ElevatorCallback func(state int)

// Elevator drives a single Z (or extruder) Stepper toward a target height,
// coarsening its microstep resolution as the remaining distance grows so it
// can sustain a higher step rate.
type Elevator struct {
	stpZ *Stepper

	fBest, dfMax uint32

	lastTarget, currTarget int32

	callback ElevatorCallback
	state    int

	enabled   bool
	debugMode int
}

// NewElevator builds an Elevator over the given Stepper and resets it.
func NewElevator(z *Stepper) *Elevator {
	e := &Elevator{stpZ: z}
	e.Reset()
	return e
}

// BestFreq picks the frequency that carries delta toward zero as fast as
// the profile allows: ±fBest, signed toward the target.
func (e *Elevator) BestFreq(delta int32) int32 {
	return sign(delta) * int32(e.fBest)
}

// Update advances the Z ramp for one tick: goes idle with no target, stops
// and fires the reach callback on arrival, or moves at BestFreq while
// coarsening the microstep mode once the axis is at its slowest single
// step rate and still has a long way to go.
func (e *Elevator) Update() {
	if !e.enabled {
		return
	}
	if !e.HasTarget() {
		if !e.stpZ.LowMicrostep() {
			e.stpZ.Microstep(MSSlow, false)
		}
		e.stpZ.MoveToFreq(IdleFreq)
		return
	}
	if e.HasReachedTarget() {
		if !e.stpZ.LowMicrostep() {
			e.stpZ.Microstep(MSSlow, false)
		}
		e.stpZ.MoveToFreq(IdleFreq)
		if e.debugMode != 0 {
			core.DebugPrintln(fmt.Sprintf("elevator: reached target %d", e.currTarget))
		}
		if e.callback != nil {
			e.callback(e.state)
		}
		e.lastTarget = e.currTarget
		return
	}

	dz := e.RealDelta()
	e.stpZ.MoveToFreq(e.BestFreq(dz))
	e.stpZ.SetSafeFreq(e.fBest)
	e.stpZ.SetDeltaFreq(e.dfMax)

	if absI32(e.stpZ.CurrentFreq()) == 1 {
		dz = absI32(dz)
		switch {
		case dz > 4000:
			e.stpZ.Microstep(MS1_2, false)
		case dz >= 1000:
			e.stpZ.Microstep(MS1_4, false)
		case !e.stpZ.LowMicrostep():
			e.stpZ.Microstep(MSSlow, false)
		}
	}
}

// --- setters ---

func (e *Elevator) SetTarget(z int32) {
	e.lastTarget = e.currTarget
	e.currTarget = z
	if e.debugMode != 0 {
		core.DebugPrintln(fmt.Sprintf("elevator: new target %d", z))
	}
}

func (e *Elevator) SetBestFreq(f uint32) {
	if f != 0 {
		e.fBest = f
	}
}

func (e *Elevator) SetMaxDeltaFreq(df uint32) {
	if df != 0 {
		e.dfMax = df
	}
}

func (e *Elevator) SetCallback(cb ElevatorCallback) { e.callback = cb }
func (e *Elevator) SetState(s int)                  { e.state = s }

// Reset restores the default profile and re-homes both targets to the
// stepper's current position.
func (e *Elevator) Reset() {
	e.fBest = 1
	e.dfMax = 2
	e.lastTarget = e.stpZ.Value()
	e.currTarget = e.lastTarget
	e.callback = nil
	e.state = 0
	e.enabled = true
}

// ResetZ re-homes the Z axis to an absolute step position.
func (e *Elevator) ResetZ(z int32) {
	e.stpZ.ResetPosition(z)
	e.lastTarget, e.currTarget = z, z
}

func (e *Elevator) Toggle()  { e.enabled = !e.enabled }
func (e *Elevator) Enable()  { e.enabled = true }
func (e *Elevator) Disable() { e.enabled = false }

// --- getters ---

func (e *Elevator) Target() int32    { return e.currTarget }
func (e *Elevator) IsEnabled() bool  { return e.enabled }
func (e *Elevator) RealDelta() int32 { return e.currTarget - e.stpZ.Value() }
func (e *Elevator) CurrDelta() int32 { return e.currTarget - e.lastTarget }

// --- checks ---

func (e *Elevator) HasTarget() bool {
	return e.lastTarget != e.currTarget || !e.HasReachedTarget()
}

func (e *Elevator) HasReachedTarget() bool {
	currDelta := e.stpZ.Value() - e.currTarget
	fullDelta := e.lastTarget - e.currTarget
	return currDelta*fullDelta < 0 || absI32(currDelta) <= e.stpZ.StepSize()
}

func (e *Elevator) SetDebugMode(m int) { e.debugMode = m }
