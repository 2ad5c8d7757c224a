package motion

import (
	"testing"

	"github.com/xionluhnis/print-me-a-cookie/core"
)

func TestStepperSafeReversal(t *testing.T) {
	s, _ := newTestStepper('x')
	s.fSafe = 5
	s.fCur = -3
	s.fTrg = 10
	s.df = 1

	prevAbs := absI32(s.fCur)
	sawSafeCross := false
	for i := 0; i < 50 && s.fCur != s.fTrg; i++ {
		s.fCur = s.updateFreq(s.fCur, s.fTrg, s.df)
		if absI32(s.fCur) < prevAbs && s.fCur != s.fTrg {
			t.Fatalf("|f_cur| decreased before reaching target: %d -> %d", prevAbs, s.fCur)
		}
		prevAbs = absI32(s.fCur)
		if s.fCur == 5 {
			sawSafeCross = true
		}
		if s.fCur > 0 && s.fCur < 5 {
			t.Fatalf("crossed zero without snapping to the safe frequency: f_cur=%d", s.fCur)
		}
	}
	if !sawSafeCross {
		t.Errorf("expected the ramp to pass through the safe frequency +5")
	}
	if s.fCur != 10 {
		t.Errorf("expected f_cur to converge to 10, got %d", s.fCur)
	}
}

func TestStepperBoundHalt(t *testing.T) {
	s, port := newTestStepper('x')
	s.stepDelta = 16
	s.steps = 90
	s.maxSteps = 100
	s.stepDir = 1
	s.fCur = 1
	s.fTrg = 1
	s.count = 1 // force isTriggering() true immediately

	for i := 0; i < 10 && s.isRunning(); i++ {
		s.Exec()
		s.Release()
	}

	if s.steps > s.maxSteps {
		t.Fatalf("steps %d exceeded maxSteps %d", s.steps, s.maxSteps)
	}
	if s.isRunning() {
		t.Errorf("expected stepper to halt at the bound, still running: f_cur=%d f_trg=%d", s.fCur, s.fTrg)
	}
	if port.pins[pinStep] {
		t.Errorf("expected STEP pin low after halting")
	}
}

func TestNewHardwareStepperWiresBackend(t *testing.T) {
	port := newMockPort()
	backend := &mockBackend{}
	s, err := NewHardwareStepper(port, Pins{
		Step: pinStep, Dir: pinDir, MS1: pinMS1, MS2: pinMS2, MS3: pinMS3, Enable: pinEnable,
	}, 'x', false, backend)
	if err != nil {
		t.Fatalf("NewHardwareStepper: %v", err)
	}
	if backend.initStepPin != uint8(pinStep) || backend.initDirPin != uint8(pinDir) {
		t.Fatalf("backend.Init not called with the axis's pins: got step=%d dir=%d", backend.initStepPin, backend.initDirPin)
	}
	if !backend.initInvertDir {
		t.Errorf("expected invertDir=true for activeHighDir=false")
	}

	s.Setup()
	s.fSafe = 5
	s.fCur = 1
	s.fTrg = 1
	s.count = 1 // force isTriggering() true immediately
	s.Exec()

	if backend.steps != 1 {
		t.Errorf("expected Exec to call backend.Step() once, got %d calls", backend.steps)
	}
	if port.pins[pinStep] {
		t.Errorf("expected STEP pin to stay untouched by raw GPIO once a backend is attached")
	}

	// Drive the ramp through a direction reversal and confirm it's reported
	// to the backend instead of written to the raw DIR pin.
	s.fCur = -3
	s.fTrg = 5
	s.df = 10
	s.triggerUpdate()
	if len(backend.directions) == 0 {
		t.Fatalf("expected a direction reversal to call backend.SetDirection")
	}
}

func TestStepperResetPositionShiftsBounds(t *testing.T) {
	s, _ := newTestStepper('x')
	s.minSteps = 0
	s.maxSteps = 1000
	s.steps = 100

	s.ResetPosition(50) // delta = -50

	if s.minSteps != -50 {
		t.Errorf("expected minSteps shifted to -50, got %d", s.minSteps)
	}
	if s.maxSteps != 950 {
		t.Errorf("expected maxSteps shifted to 950, got %d", s.maxSteps)
	}
}

func TestStepperSetRangeRequiresABound(t *testing.T) {
	s, _ := newTestStepper('x')
	s.SetRange(200)
	if val := s.Value(); val != 0 {
		t.Errorf("unexpected position change from SetRange: %d", val)
	}
	// Neither bound was configured, so SetRange can't anchor: reported via
	// the package-level error cell.
	if got := core.Error(); got != core.ErrMissingRange {
		t.Errorf("expected ErrMissingRange reported, got %d", got)
	}
}

func TestStepperDeltaFreqZeroStillStores(t *testing.T) {
	s, _ := newTestStepper('x')
	s.SetDeltaFreq(0)
	if s.DeltaFreq() != 0 {
		t.Errorf("expected df to be stored as 0, got %d", s.DeltaFreq())
	}
}
