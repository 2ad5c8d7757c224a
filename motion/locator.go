package motion

import (
	"fmt"

	"github.com/xionluhnis/print-me-a-cookie/core"
)

// Vec2 is an integer 2D point/vector in step units.
type Vec2 struct {
	X, Y int32
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

func (v Vec2) Abs() Vec2 { return Vec2{absI32(v.X), absI32(v.Y)} }

// Max returns the larger of the two components.
func (v Vec2) Max() int32 {
	if v.X > v.Y {
		return v.X
	}
	return v.Y
}

func (v Vec2) Dot(o Vec2) int64 {
	return int64(v.X)*int64(o.X) + int64(v.Y)*int64(o.Y)
}

func (v Vec2) SqLength() int64 { return v.Dot(v) }

// At returns the i'th component (0=X, 1=Y); used by the (Vec2,Vec2) gradient
// search which is indexed rather than named.
func (v Vec2) At(i int) int32 {
	if i == 0 {
		return v.X
	}
	return v.Y
}

func (v *Vec2) set(i int, f int32) {
	if i == 0 {
		v.X = f
	} else {
		v.Y = f
	}
}

// LocatorCallback is invoked when the current target is reached; it
// typically loads the next target via SetTarget.
type LocatorCallback func(state int)

// Locator drives the X/Y Steppers toward successive targets, picking a
// per-axis frequency pair that keeps the motion as close to a straight
// line as possible (bestFreq) and, near the end of a move, slows both axes
// down together so they arrive at (about) the same time (adjustToFreq).
type Locator struct {
	stpX, stpY *Stepper

	fBest, dfMax uint32
	epsilon      uint32
	epsilonSq    uint64

	lastTarget, currTarget Vec2
	ending                 bool
	targetID               uint32

	callback LocatorCallback
	state    int

	enabled   bool
	debugMode int
}

// NewLocator builds a Locator over the two axis Steppers and resets it to
// its default profile.
func NewLocator(x, y *Stepper) *Locator {
	l := &Locator{stpX: x, stpY: y}
	l.Reset()
	return l
}

func (l *Locator) stepper(i int) *Stepper {
	switch i {
	case 0:
		return l.stpX
	case 1:
		return l.stpY
	default:
		core.ReportError(core.ErrInvalidAccessor)
		return l.stpY
	}
}

// BestFreq picks, for a desired step delta, the frequency pair that keeps
// both axes on the same straight line: the dominant axis moves at fBest,
// the other is scaled down proportionally (but never below fBest, since
// that would make it the dominant axis instead).
func (l *Locator) BestFreq(delta Vec2, fBest uint32) Vec2 {
	abs := delta.Abs()
	dMax := abs.Max()
	var f Vec2
	for i := 0; i < 2; i++ {
		d := delta.At(i)
		a := abs.At(i)
		switch {
		case a == dMax:
			f.set(i, sign(d)*int32(fBest))
		case a <= l.stepper(i).StepSize():
			f.set(i, 0)
		default:
			fi := int32(roundDiv(int64(fBest)*int64(dMax), int64(d)))
			if absI32(fi) < int32(fBest) {
				fi = sign(d) * int32(fBest)
			}
			f.set(i, fi)
		}
	}
	return f
}

// BestFreqDefault is BestFreq using the configured default f_best.
func (l *Locator) BestFreqDefault(delta Vec2) Vec2 {
	return l.BestFreq(delta, l.fBest)
}

func roundDiv(num, den int64) int64 {
	if den == 0 {
		return 0
	}
	q := float64(num) / float64(den)
	if q >= 0 {
		return int64(q + 0.5)
	}
	return int64(q - 0.5)
}

func deltaTime(t1, t2 uint32) uint32 {
	if t1 > t2 {
		return t1 - t2
	}
	return t2 - t1
}

// Update advances the locator's ramp toward the current target for one
// tick: it handles going idle with no target, firing the reach-target
// callback, and picking between a straight-line frequency pair and an
// ending deceleration pair.
func (l *Locator) Update() {
	if !l.enabled {
		return
	}

	if !l.HasTarget() {
		if l.IsMoving() {
			for i := 0; i < 2; i++ {
				stp := l.stepper(i)
				if !stp.LowMicrostep() {
					stp.Microstep(MSSlow, false)
				}
				if stp.TargetFreq() != IdleFreq {
					stp.MoveToFreq(IdleFreq)
				}
			}
		}
		return
	}

	reached := l.HasReachedTarget()
	if reached {
		lastID := l.targetID
		if l.debugMode != 0 {
			core.DebugPrintln(fmt.Sprintf("locator: reached target %+v", l.currTarget))
		}
		if l.callback != nil {
			l.callback(l.state)
		}
		if lastID == l.targetID {
			l.lastTarget = l.currTarget // no new target was loaded
		}
	}

	delta := l.RealDelta()
	if l.IsEnding() {
		x0 := l.stpX.ValueAtFreqDefault(IdleFreq)
		y0 := l.stpY.ValueAtFreqDefault(IdleFreq)
		var targetFreq Vec2
		if l.currTarget.Sub(Vec2{x0, y0}).SqLength() < int64(l.epsilonSq) {
			// Stopping distance already covers the remaining travel: start
			// slowing now using the current peak speed as the "best" rate.
			peak := l.CurrentFreq().Abs().Max() + 1
			targetFreq = l.BestFreq(delta, uint32(peak))
		} else {
			targetFreq = l.BestFreqDefault(delta)
		}
		l.adjustToFreq(targetFreq, delta)
	} else {
		l.adjustToFreq(l.BestFreqDefault(delta), delta)
	}
}

// adjustToFreq finds, via a bounded local search over each axis's
// delta-frequency, the (df_x, df_y) pair whose predicted times-to-target
// are closest together, then commits both axes to it. Mirrors the 1000
// iteration augment-then-reduce loop exactly, including its bias toward
// trying to increase acceleration before decreasing it.
func (l *Locator) adjustToFreq(fTrg Vec2, delta Vec2) {
	df := [2]uint32{l.dfMax, l.dfMax}
	t := [2]uint32{
		l.stpX.TimeToFreq(fTrg.At(0), df[0]),
		l.stpY.TimeToFreq(fTrg.At(1), df[1]),
	}
	dt := deltaTime(t[0], t[1])

	opt := true
	for it := 0; opt && it < 1000; it++ {
		opt = false

		for i := 0; i < 2; i++ {
			if df[i] < l.dfMax {
				prev := t[i]
				t[i] = l.stepper(i).TimeToFreq(fTrg.At(i), df[i]+1)
				dt2 := deltaTime(t[0], t[1])
				if dt2 < dt {
					df[i]++
					dt = dt2
					opt = true
					break
				}
				t[i] = prev
			}
		}
		if opt {
			continue
		}

		for i := 0; i < 2; i++ {
			if df[i] > 1 {
				prev := t[i]
				t[i] = l.stepper(i).TimeToFreq(fTrg.At(i), df[i]-1)
				dt2 := deltaTime(t[0], t[1])
				if dt2 < dt {
					df[i]--
					dt = dt2
					opt = true
					break
				}
				t[i] = prev
			}
		}
	}

	for i := 0; i < 2; i++ {
		l.stepper(i).SetDeltaFreq(df[i])
		l.stepper(i).MoveToFreq(fTrg.At(i))
	}
}

// --- setters ---

// SetTarget points the locator at a new destination. end selects whether
// the locator should decelerate into it (true) or carry speed through it
// toward whatever target follows (false).
func (l *Locator) SetTarget(trg Vec2, end bool) {
	l.lastTarget = l.currTarget
	l.currTarget = trg
	l.ending = end

	l.stpX.ResetMemory()
	l.stpY.ResetMemory()

	l.targetID++
	if l.debugMode != 0 {
		core.DebugPrintln(fmt.Sprintf("locator: new target %+v ending=%v", trg, end))
	}
}

// ResetX re-homes the X axis to an absolute step position.
func (l *Locator) ResetX(x int32) {
	l.stpX.ResetPosition(x)
	l.lastTarget.X, l.currTarget.X = x, x
}

// ResetY re-homes the Y axis to an absolute step position.
func (l *Locator) ResetY(y int32) {
	l.stpY.ResetPosition(y)
	l.lastTarget.Y, l.currTarget.Y = y, y
}

func (l *Locator) SetBestFreq(f uint32) {
	if f != 0 {
		l.fBest = f
	}
}

func (l *Locator) SetMaxDeltaFreq(df uint32) {
	if df != 0 {
		l.dfMax = df
	}
}

// SetPrecision sets the arrival tolerance, in steps. epsilonSq is floored
// at 1, so a precision of 0 still accepts a residual whose squared length
// is 1 (one step off on a single axis).
func (l *Locator) SetPrecision(eps uint32) {
	l.epsilon = eps
	sq := uint64(eps) * uint64(eps)
	if sq < 1 {
		sq = 1
	}
	l.epsilonSq = sq
}

func (l *Locator) SetCallback(cb LocatorCallback) { l.callback = cb }
func (l *Locator) SetState(s int)                 { l.state = s }

// Reset restores the default motion profile and re-homes both targets to
// the steppers' current positions.
func (l *Locator) Reset() {
	l.fBest = 1
	l.dfMax = 1
	l.SetPrecision(5)
	l.lastTarget = l.Value()
	l.currTarget = l.lastTarget
	l.ending = true
	l.callback = nil
	l.state = 0
	l.enabled = true
}

func (l *Locator) Toggle()  { l.enabled = !l.enabled }
func (l *Locator) Enable()  { l.enabled = true }
func (l *Locator) Disable() { l.enabled = false }

// --- getters ---

func (l *Locator) Value() Vec2       { return Vec2{l.stpX.Value(), l.stpY.Value()} }
func (l *Locator) Target() Vec2      { return l.currTarget }
func (l *Locator) CurrentFreq() Vec2 { return Vec2{l.stpX.CurrentFreq(), l.stpY.CurrentFreq()} }
func (l *Locator) TargetFreq() Vec2  { return Vec2{l.stpX.TargetFreq(), l.stpY.TargetFreq()} }
func (l *Locator) CurrDelta() Vec2   { return l.currTarget.Sub(l.lastTarget) }
func (l *Locator) RealDelta() Vec2   { return l.currTarget.Sub(l.Value()) }

// --- checks ---

func (l *Locator) HasTarget() bool {
	return l.lastTarget != l.currTarget || !l.HasReachedTarget()
}

func (l *Locator) IsEnding() bool { return l.ending }

func (l *Locator) HasReachedTarget() bool {
	r, d := l.RealDelta(), l.CurrDelta()
	return r.Dot(d) < 0 || r.SqLength() <= int64(l.epsilonSq)
}

func (l *Locator) IsMoving() bool {
	return l.stpX.isRunning() || l.stpY.isRunning()
}

func (l *Locator) IsEnabled() bool { return l.enabled }

func (l *Locator) SetDebugMode(m int) { l.debugMode = m }
