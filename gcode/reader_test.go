package gcode

import (
	"testing"

	"github.com/xionluhnis/print-me-a-cookie/motion"
)

func newTestAxes() (*motion.Locator, *motion.Elevator, *motion.Stepper) {
	x, _ := newTestMotionStepper('x')
	y, _ := newTestMotionStepper('y')
	z, _ := newTestMotionStepper('z')
	e, _ := newTestMotionStepper('e')
	x.Enable()
	y.Enable()
	z.Enable()
	e.Enable()
	return motion.NewLocator(x, y), motion.NewElevator(z), e
}

func TestReaderSimulateBoundingBox(t *testing.T) {
	xy, z, e := newTestAxes()
	r := NewReader(newStringSource(""), xy, z, e, 1)

	src := newStringSource("G90\nG1 X10 Y0\nG1 X10 Y20\nG91\nG1 X-5\n")
	desc := r.Simulate(src)

	scaled := func(v float64) int32 {
		return r.convertToUnit(v)
	}

	want := Description{
		Min:   motion.Vec2{X: 0, Y: 0},
		Max:   motion.Vec2{X: scaled(10), Y: scaled(20)},
		Start: motion.Vec2{X: 0, Y: 0},
		End:   motion.Vec2{X: scaled(5), Y: scaled(20)},
	}
	if desc != want {
		t.Errorf("Simulate() = %+v, want %+v", desc, want)
	}
}

func TestReaderAbsoluteMoveSetsLocatorTarget(t *testing.T) {
	xy, z, e := newTestAxes()
	r := NewReader(newStringSource("G90\nG1 X100 Y50\n"), xy, z, e, 1)

	for r.Available() {
		r.Next()
	}

	want := motion.Vec2{X: r.convertToUnit(100), Y: r.convertToUnit(50)}
	if xy.Target() != want {
		t.Errorf("locator target = %+v, want %+v", xy.Target(), want)
	}
}

func TestReaderG92ResetsAllAxesWhenNonePresent(t *testing.T) {
	xy, z, e := newTestAxes()
	xy.ResetX(500)
	xy.ResetY(500)
	z.ResetZ(500)

	r := NewReader(newStringSource("G92\n"), xy, z, e, 1)
	for r.Available() {
		r.Next()
	}

	if xy.Value() != (motion.Vec2{}) {
		t.Errorf("expected G92 with no axes to zero X/Y, got %+v", xy.Value())
	}
	if z.Target() != 0 {
		t.Errorf("expected G92 with no axes to zero Z, got target %d", z.Target())
	}
}
