package gcode

import (
	"math"
	"time"

	"github.com/xionluhnis/print-me-a-cookie/core"
	"github.com/xionluhnis/print-me-a-cookie/motion"
)

// validFieldChars lists every G-code letter this dispatcher recognizes;
// anything else is read but silently ignored.
const validFieldChars = "GMTSPXYZIJDHFRQEAN*"

func toUpper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

func isValidField(c byte) bool {
	c = toUpper(c)
	for i := 0; i < len(validFieldChars); i++ {
		if c == validFieldChars[i] {
			return true
		}
	}
	return false
}

type field struct {
	code  byte
	value float64
}

// Description is the bounding box and endpoints of a pre-simulated path.
type Description struct {
	Min, Max, Start, End motion.Vec2
}

func newDescription(start motion.Vec2) Description {
	return Description{Min: start, Max: start, Start: start, End: start}
}

func (d *Description) extend(p motion.Vec2) {
	if p.X < d.Min.X {
		d.Min.X = p.X
	}
	if p.Y < d.Min.Y {
		d.Min.Y = p.Y
	}
	if p.X > d.Max.X {
		d.Max.X = p.X
	}
	if p.Y > d.Max.Y {
		d.Max.Y = p.Y
	}
	d.End = p
}

// Reader parses a stream of G-code lines and dispatches motion commands to
// a Locator (X/Y), an Elevator (Z) and an extruder Stepper (E/A). A single
// Reader also runs the path pre-simulator: Simulate() replays a (separate,
// reopenable) source through the same dispatcher, diverting G0/G1 into a
// Description instead of driving real hardware.
type Reader struct {
	input core.CharSource
	line  *LineParser

	locXY    *motion.Locator
	locZ     *motion.Elevator
	extruder *motion.Stepper

	scale float64

	g                                  int
	x, y, z, a, e, f                   int32
	hasX, hasY, hasZ, hasA, hasE, hasF bool
	absolute, metric                   bool
	p, s                               int64

	simPos motion.Vec2
	desc   Description

	pendingXY, pendingZ bool
}

// NewReader builds a Reader over a live CharSource (the serial line) bound
// to the axis controllers it will drive. scale is the user-units-to-mm
// factor (G-code "M92"-style steps/mm overrides are out of scope; this is
// a flat multiplier applied in convertToUnit). The Reader registers itself
// as xy's and z's reach-target callback so it can track the busy contract
// below without the caller having to wire that up separately.
func NewReader(input core.CharSource, xy *motion.Locator, z *motion.Elevator, extruder *motion.Stepper, scale float64) *Reader {
	r := &Reader{
		input:    input,
		locXY:    xy,
		locZ:     z,
		extruder: extruder,
		scale:    scale,
		absolute: true,
		metric:   true,
	}
	xy.SetCallback(func(int) { r.pendingXY = false })
	z.SetCallback(func(int) { r.pendingZ = false })
	return r
}

// Available reports whether the underlying source has more input.
func (r *Reader) Available() bool {
	return r.input.Available()
}

// Busy reports whether a previously dispatched geometric move (X/Y via the
// Locator, Z via the Elevator) hasn't yet reached its target. Per the busy
// contract, the caller must keep ticking the motion core and must not call
// Next again until this returns false.
func (r *Reader) Busy() bool {
	return r.pendingXY || r.pendingZ
}

// Next parses and dispatches a single line from the live input, stopping
// early if a command issues a geometric move (see Busy).
func (r *Reader) Next() {
	r.next(r.input, false)
}

// Simulate replays src (a separate, reopenable file-based source — never
// the live single-pass serial stream) through the same dispatcher with
// moves diverted into a Description instead of Locator/Elevator, to obtain
// a path's bounding box ahead of actually running it.
func (r *Reader) Simulate(src core.CharSource) Description {
	savedG := r.g
	savedAbsolute, savedMetric := r.absolute, r.metric
	savedX, savedY, savedZ, savedA, savedE, savedF := r.x, r.y, r.z, r.a, r.e, r.f

	r.g = 0
	r.absolute, r.metric = true, true
	r.x, r.y, r.z, r.a, r.e, r.f = 0, 0, 0, 0, 0, 0
	r.simPos = motion.Vec2{}
	r.desc = newDescription(r.simPos)

	for src.Available() {
		r.next(src, true)
	}
	result := r.desc

	r.g = savedG
	r.absolute, r.metric = savedAbsolute, savedMetric
	r.x, r.y, r.z, r.a, r.e, r.f = savedX, savedY, savedZ, savedA, savedE, savedF

	return result
}

// convertToUnit maps a raw field value to sub-steps: inch input is first
// converted to millimetres, then scaled by the user scale factor and the
// fixed mechanical reduction 5000/56.
func (r *Reader) convertToUnit(value float64) int32 {
	if !r.metric {
		value *= 25.4
	}
	return int32(math.Round(value * r.scale * 5000.0 / 56.0))
}

func (r *Reader) next(src core.CharSource, simulate bool) {
	r.line = NewLineParser(src)

	var cmd field
	haveCommand := false

	for r.line.Available() {
		f, ok := r.readField()
		if !ok {
			if f.code == 0 || f.code == ';' {
				break
			}
			continue // unrecognized letter: skip this field
		}
		switch f.code {
		case 'X':
			r.hasX = true
			r.x = r.convertToUnit(f.value)
			if !haveCommand {
				cmd, haveCommand = field{code: 'G', value: float64(r.g)}, true
			}
		case 'Y':
			r.hasY = true
			r.y = r.convertToUnit(f.value)
			if !haveCommand {
				cmd, haveCommand = field{code: 'G', value: float64(r.g)}, true
			}
		case 'Z':
			r.hasZ = true
			r.z = r.convertToUnit(f.value)
			if !haveCommand {
				cmd, haveCommand = field{code: 'G', value: float64(r.g)}, true
			}
		case 'A':
			r.hasA = true
			r.a = r.convertToUnit(f.value)
			if !haveCommand {
				cmd, haveCommand = field{code: 'G', value: float64(r.g)}, true
			}
		case 'E':
			r.hasE = true
			r.e = r.convertToUnit(f.value)
			if !haveCommand {
				cmd, haveCommand = field{code: 'G', value: float64(r.g)}, true
			}
		case 'F':
			r.hasF = true
			r.f = r.convertToUnit(f.value)
			if !haveCommand {
				cmd, haveCommand = field{code: 'G', value: float64(r.g)}, true
			}
		case 'G', 'M':
			if haveCommand {
				if r.execCommand(cmd, simulate) {
					return
				}
			}
			cmd, haveCommand = f, true
		case 'P':
			r.p = int64(f.value)
		case 'S':
			r.s = int64(f.value)
		default:
			// recognized but unhandled letter: ignore
		}
	}
	if haveCommand {
		r.execCommand(cmd, simulate)
	}
}

func (r *Reader) readField() (field, bool) {
	code := toUpper(r.line.ReadFullChar())
	if code == 0 {
		return field{}, false
	}
	if code == ';' {
		r.line.Skip()
		return field{code: ';'}, false
	}
	if !r.line.Available() {
		return field{code: code}, isValidField(code)
	}
	n := r.line.FullPeek()
	var v float64
	if n == '-' || isDigit(n) {
		v = r.line.ReadFloat()
	}
	return field{code: code, value: v}, isValidField(code)
}

// execCommand dispatches the accumulated field set for one command and
// reports whether it issued a geometric move the caller must now wait on
// (see Busy).
func (r *Reader) execCommand(cmd field, simulate bool) bool {
	var busy bool
	switch cmd.code {
	case 'G':
		id := int(cmd.value)
		busy = r.execMoveCommand(id, simulate)
		r.g = id
	case 'M':
		r.execModalCommand(int(cmd.value))
	default:
		core.ReportError(core.ErrInvalidGCode)
		return false
	}
	r.hasX, r.hasY, r.hasZ, r.hasA, r.hasE, r.hasF = false, false, false, false, false, false
	r.p, r.s = 0, 0
	return busy
}

func (r *Reader) execMoveCommand(id int, simulate bool) bool {
	switch id {
	case 0, 1: // rapid / linear move
		if simulate {
			r.simulateMove()
			return false
		}
		return r.execLinearMove()
	case 2, 3:
		// arc moves: not supported
	case 4:
		r.dwell()
	case 28:
		core.DebugPrintln("Homing not implemented yet!")
	case 90:
		r.absolute = true
	case 91:
		r.absolute = false
	case 92:
		r.execOriginReset()
	default:
		core.ReportError(core.ErrCmdUnsupported)
	}
	return false
}

func (r *Reader) execModalCommand(id int) {
	// No M-codes are implemented yet.
}

// execLinearMove dispatches G0/G1: it sets the Locator/Elevator targets (and
// drives the extruder directly) and reports whether a geometric target was
// issued, i.e. whether the caller must now wait for it to be reached before
// calling Next again.
func (r *Reader) execLinearMove() bool {
	busy := false
	if r.hasZ {
		curZ := r.locZ.Target()
		if r.absolute && curZ != r.z {
			r.locZ.SetTarget(r.z)
			r.pendingZ = true
			busy = true
		} else if !r.absolute && r.z != 0 {
			r.locZ.SetTarget(curZ + r.z)
			r.pendingZ = true
			busy = true
		}
	}
	if r.hasX || r.hasY {
		xy := r.locXY.Target()
		switch {
		case r.absolute && ((r.hasX && xy.X != r.x) || (r.hasY && xy.Y != r.y)):
			r.locXY.SetTarget(motion.Vec2{X: r.x, Y: r.y}, true)
			r.pendingXY = true
			busy = true
		case !r.absolute && ((r.hasX && r.x != 0) || (r.hasY && r.y != 0)):
			var dx, dy int32
			if r.hasX {
				dx = r.x
			}
			if r.hasY {
				dy = r.y
			}
			r.locXY.SetTarget(xy.Add(motion.Vec2{X: dx, Y: dy}), true)
			r.pendingXY = true
			busy = true
		}
	}
	if r.extruder != nil && (r.hasE || r.hasA) {
		r.execExtrusion()
	}
	return busy
}

// execExtrusion drives the extruder axis directly by frequency rather than
// through a target-seeking controller: only the sign of the E (or, absent E,
// A) value is used, picking a fixed feed rate forward or backward; zero
// idles the extruder. No extruder position is tracked, so an absolute A
// value is not converted into a relative amount: it is used as-is.
func (r *Reader) execExtrusion() {
	var delta int32
	if r.hasE {
		delta = r.e // relative extrusion length
	} else if r.hasA {
		delta = r.a // taken as-is, like E
	}
	if delta == 0 {
		r.extruder.MoveToFreq(motion.IdleFreq)
		return
	}
	const extrudeFreq = 10
	if delta < 0 {
		r.extruder.MoveToFreq(-extrudeFreq)
	} else {
		r.extruder.MoveToFreq(extrudeFreq)
	}
}

// dwell blocks for the duration requested by P (milliseconds) or, absent P,
// by S (seconds).
func (r *Reader) dwell() {
	switch {
	case r.p != 0:
		time.Sleep(time.Duration(r.p) * time.Millisecond)
	case r.s != 0:
		time.Sleep(time.Duration(r.s) * time.Second)
	}
}

func (r *Reader) execOriginReset() {
	if !r.hasX && !r.hasY && !r.hasZ && !r.hasE {
		r.locXY.ResetX(0)
		r.locXY.ResetY(0)
		r.locZ.ResetZ(0)
		return
	}
	if r.hasX {
		r.locXY.ResetX(r.x)
	}
	if r.hasY {
		r.locXY.ResetY(r.y)
	}
	if r.hasZ {
		r.locZ.ResetZ(r.z)
	}
	// TODO: reset virtual extrusion level once absolute E is tracked.
}

func (r *Reader) simulateMove() {
	if !r.hasX && !r.hasY {
		return
	}
	if r.absolute {
		if r.hasX {
			r.simPos.X = r.x
		}
		if r.hasY {
			r.simPos.Y = r.y
		}
	} else {
		if r.hasX {
			r.simPos.X += r.x
		}
		if r.hasY {
			r.simPos.Y += r.y
		}
	}
	r.desc.extend(r.simPos)
}
