package motion

import "testing"

func newTestLocator() (*Locator, *Stepper, *Stepper) {
	x, _ := newTestStepper('x')
	y, _ := newTestStepper('y')
	x.Enable()
	y.Enable()
	return NewLocator(x, y), x, y
}

// runUntilIdle ticks the locator and both its steppers as a cooperative
// exec/release pair until it goes idle or the iteration budget is spent.
func runUntilIdle(t *testing.T, l *Locator, x, y *Stepper, maxTicks int) {
	t.Helper()
	for i := 0; i < maxTicks; i++ {
		l.Update()
		x.Exec()
		y.Exec()
		x.Release()
		y.Release()
		if !l.HasTarget() && !l.IsMoving() {
			return
		}
	}
	t.Fatalf("locator did not settle within %d ticks (x=%d y=%d target=%v)", maxTicks, x.Value(), y.Value(), l.Target())
}

func TestLocatorStraightDiagonal(t *testing.T) {
	l, x, y := newTestLocator()
	l.SetBestFreq(1)
	l.SetMaxDeltaFreq(1)
	l.SetTarget(Vec2{1000, 1000}, true)

	runUntilIdle(t, l, x, y, 20000)

	if absI32(x.Value()-1000) > 5 {
		t.Errorf("expected X within 5 of 1000, got %d", x.Value())
	}
	if absI32(y.Value()-1000) > 5 {
		t.Errorf("expected Y within 5 of 1000, got %d", y.Value())
	}
	if l.IsMoving() {
		t.Errorf("expected both steppers idle, x running=%v y running=%v", x.isRunning(), y.isRunning())
	}
}

func TestLocatorAxisAligned(t *testing.T) {
	l, x, y := newTestLocator()
	l.SetTarget(Vec2{500, 0}, true)

	runUntilIdle(t, l, x, y, 20000)

	if absI32(x.Value()-500) > 5 {
		t.Errorf("expected X within 5 of 500, got %d", x.Value())
	}
	if y.Value() != 0 {
		t.Errorf("expected Y to stay exactly at 0, got %d", y.Value())
	}
}

func TestLocatorRatioMove(t *testing.T) {
	l, _, _ := newTestLocator()
	l.SetTarget(Vec2{1000, 250}, true)

	f := l.BestFreqDefault(l.RealDelta())
	if f.X != 1 {
		t.Errorf("expected X frequency 1, got %d", f.X)
	}
	if f.Y != 4 {
		t.Errorf("expected Y frequency 4 (four times slower than X), got %d", f.Y)
	}
}
