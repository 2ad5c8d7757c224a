package motion

import "testing"

func TestElevatorReachesTarget(t *testing.T) {
	z, _ := newTestStepper('z')
	z.Enable()
	e := NewElevator(z)
	e.SetTarget(200)

	for i := 0; i < 20000 && e.HasTarget(); i++ {
		e.Update()
		z.Exec()
		z.Release()
	}

	if e.HasTarget() {
		t.Fatalf("elevator did not reach target, z=%d target=%d", z.Value(), e.Target())
	}
	if absI32(z.Value()-200) > z.StepSize() {
		t.Errorf("expected Z within one step of 200, got %d", z.Value())
	}
}

func TestElevatorCoarsensMicrostepOverLongMove(t *testing.T) {
	z, _ := newTestStepper('z')
	z.Enable()
	z.fCur = 1 // at the |f_cur|==1 gate
	e := NewElevator(z)
	e.SetTarget(5000)

	e.Update()

	if z.Mode() != MS1_2 {
		t.Errorf("expected MS1_2 for a >4000 step remaining distance, got mode %v", z.Mode())
	}
}

func TestElevatorDisabledSkipsUpdate(t *testing.T) {
	z, _ := newTestStepper('z')
	e := NewElevator(z)
	e.SetTarget(100)
	e.Disable()

	e.Update()

	if z.TargetFreq() != IdleFreq {
		t.Errorf("expected a disabled elevator to leave the stepper idle, got target freq %d", z.TargetFreq())
	}
}
