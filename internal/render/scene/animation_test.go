package scene

import (
	"testing"
	"time"

	"github.com/MarvinTM/replaceableParts-sub002/internal/simulation"
)

var testAnim = simulation.Animation{Frames: 4, FrameMillis: 100, IdlePauseMillis: 200}

func TestContinuousCycle(t *testing.T) {
	a := NewAnimator(testAnim, ModeContinuous, 1)
	a.SetActive(true)

	a.Update(50*time.Millisecond, 1)
	if a.Phase() != PhasePlaying || a.Frame() != 0 {
		t.Fatalf("Expected playing frame 0, got %s frame %d", a.Phase(), a.Frame())
	}
	a.Update(100*time.Millisecond, 1)
	if a.Frame() != 1 {
		t.Errorf("Expected frame 1 at 150ms, got %d", a.Frame())
	}
	a.Update(250*time.Millisecond, 1)
	if a.Phase() != PhaseCooldown || a.Cycles() != 1 {
		t.Fatalf("Expected cooldown after one cycle, got %s cycles=%d", a.Phase(), a.Cycles())
	}
	if a.Frame() != 0 {
		t.Errorf("Expected still frame during cooldown, got %d", a.Frame())
	}
	a.Update(200*time.Millisecond, 1)
	if a.Phase() != PhasePlaying {
		t.Errorf("Expected next cycle after the pause, got %s", a.Phase())
	}
}

func TestSpeedScalesPlayback(t *testing.T) {
	a := NewAnimator(testAnim, ModeContinuous, 1)
	a.SetActive(true)
	a.Update(50*time.Millisecond, 2)
	if a.Frame() != 1 {
		t.Errorf("Expected frame 1 at double speed, got %d", a.Frame())
	}

	a.Update(time.Second, 0)
	if a.Frame() != 1 {
		t.Errorf("Expected speed 0 to freeze, got frame %d", a.Frame())
	}
}

func TestDisabledNeverPlays(t *testing.T) {
	a := NewAnimator(testAnim, ModeDisabled, 1)
	a.SetActive(true)
	a.Update(5*time.Second, 1)
	if a.Phase() != PhaseIdle || a.Cycles() != 0 {
		t.Errorf("Expected idle, got %s cycles=%d", a.Phase(), a.Cycles())
	}
}

func TestSometimesWaitsThenPlaysOnce(t *testing.T) {
	defer func(lo, hi time.Duration) { SometimesMinDelay, SometimesMaxDelay = lo, hi }(SometimesMinDelay, SometimesMaxDelay)
	SometimesMinDelay, SometimesMaxDelay = time.Second, time.Second

	a := NewAnimator(testAnim, ModeSometimes, 1)
	a.SetActive(true)
	a.Update(999*time.Millisecond, 1)
	if a.Phase() != PhaseIdle {
		t.Fatalf("Expected idle during the delay, got %s", a.Phase())
	}
	a.Update(time.Millisecond, 1)
	if a.Phase() != PhasePlaying {
		t.Fatalf("Expected playing once the delay elapsed, got %s", a.Phase())
	}
	a.Update(400*time.Millisecond, 1)
	if a.Phase() != PhaseIdle || a.Cycles() != 1 {
		t.Errorf("Expected one cycle then idle, got %s cycles=%d", a.Phase(), a.Cycles())
	}
	a.Update(500*time.Millisecond, 1)
	if a.Phase() != PhaseIdle {
		t.Errorf("Expected a fresh delay before the next cycle, got %s", a.Phase())
	}
}

func TestSometimesDelayWithinWindow(t *testing.T) {
	a := NewAnimator(testAnim, ModeSometimes, 42)
	for i := 0; i < 100; i++ {
		d := a.rollDelay()
		if d < SometimesMinDelay || d >= SometimesMaxDelay {
			t.Fatalf("Delay %v outside [%v, %v)", d, SometimesMinDelay, SometimesMaxDelay)
		}
	}
}

func TestInactiveFinishesCycle(t *testing.T) {
	a := NewAnimator(testAnim, ModeContinuous, 1)
	a.SetActive(true)
	a.Update(100*time.Millisecond, 1)
	a.SetActive(false)
	if a.Phase() != PhasePlaying {
		t.Fatalf("Expected the cycle to continue, got %s", a.Phase())
	}
	a.Update(300*time.Millisecond, 1)
	if a.Phase() != PhaseIdle || a.Cycles() != 1 {
		t.Errorf("Expected idle after finishing, got %s cycles=%d", a.Phase(), a.Cycles())
	}
	a.Update(time.Second, 1)
	if a.Phase() != PhaseIdle {
		t.Errorf("Expected to stay idle, got %s", a.Phase())
	}
}

func TestDisableStopsImmediately(t *testing.T) {
	a := NewAnimator(testAnim, ModeContinuous, 1)
	a.SetActive(true)
	a.Update(150*time.Millisecond, 1)
	a.SetMode(ModeDisabled)
	if a.Phase() != PhaseIdle || a.Frame() != 0 {
		t.Errorf("Expected idle frame 0, got %s frame %d", a.Phase(), a.Frame())
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeDisabled, ModeSometimes, ModeContinuous} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMode("sparkly"); err == nil {
		t.Error("Expected error for unknown mode")
	}
	if ModeContinuous.Next() != ModeDisabled {
		t.Error("Expected mode cycle to wrap")
	}
}
