package scene

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/MarvinTM/replaceableParts-sub002/internal/simulation"
)

// Mode selects how working machines animate.
type Mode int

const (
	ModeDisabled   Mode = iota // never animate
	ModeSometimes              // random delay, one cycle, back to still
	ModeContinuous             // cycles back to back with a fixed pause
)

func (m Mode) String() string {
	switch m {
	case ModeDisabled:
		return "disabled"
	case ModeSometimes:
		return "sometimes"
	case ModeContinuous:
		return "continuous"
	}
	return "unknown"
}

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "disabled":
		return ModeDisabled, nil
	case "sometimes":
		return ModeSometimes, nil
	case "continuous":
		return ModeContinuous, nil
	}
	return ModeDisabled, fmt.Errorf("unknown animation mode %q", s)
}

// Next cycles disabled → sometimes → continuous → disabled.
func (m Mode) Next() Mode {
	return (m + 1) % 3
}

// Phase is the animator state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePlaying
	PhaseCooldown
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePlaying:
		return "playing"
	case PhaseCooldown:
		return "cooldown"
	}
	return "unknown"
}

// Delay window of the sometimes mode.
var (
	SometimesMinDelay = 2 * time.Second
	SometimesMaxDelay = 10 * time.Second
)

// Animator is the per-structure animation state machine. It is driven by
// elapsed time only, so it can be stepped without a render loop.
//
//	idle --(active, delay over)--> playing --(cycle done)--> cooldown --(pause over)--> playing
//	                                  \--(sometimes or inactive)--> idle
type Animator struct {
	Frames   int
	FrameDur time.Duration
	Pause    time.Duration

	mode    Mode
	phase   Phase
	active  bool
	elapsed time.Duration
	delay   time.Duration // rolled wait before the next sometimes cycle, <0 when unset
	rng     *rand.Rand
	cycles  int
}

// NewAnimator creates an idle animator for a catalog animation.
func NewAnimator(anim simulation.Animation, mode Mode, seed int64) *Animator {
	frames := max(anim.Frames, 1)
	frameMillis := anim.FrameMillis
	if frameMillis <= 0 {
		frameMillis = 100
	}
	return &Animator{
		Frames:   frames,
		FrameDur: time.Duration(frameMillis) * time.Millisecond,
		Pause:    time.Duration(anim.IdlePauseMillis) * time.Millisecond,
		mode:     mode,
		delay:    -1,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Mode returns the current mode.
func (a *Animator) Mode() Mode { return a.mode }

// SetMode switches mode. Disabling stops at once; other switches take
// effect at the next cycle boundary.
func (a *Animator) SetMode(m Mode) {
	if a.mode == m {
		return
	}
	a.mode = m
	a.delay = -1
	if m == ModeDisabled {
		a.phase, a.elapsed = PhaseIdle, 0
	}
}

// SetActive marks whether the structure is working. An animator made
// inactive mid-cycle finishes that cycle first.
func (a *Animator) SetActive(active bool) {
	a.active = active
}

// Active reports whether the structure is working.
func (a *Animator) Active() bool { return a.active }

// Phase returns the current phase.
func (a *Animator) Phase() Phase { return a.phase }

// Cycles returns how many full cycles were played.
func (a *Animator) Cycles() int { return a.cycles }

// Busy reports whether the animator is inside a cycle or its pause.
func (a *Animator) Busy() bool { return a.phase != PhaseIdle }

// Frame returns the frame to draw, 0 when not playing.
func (a *Animator) Frame() int {
	if a.phase != PhasePlaying || a.FrameDur <= 0 {
		return 0
	}
	return min(int(a.elapsed/a.FrameDur), a.Frames-1)
}

func (a *Animator) cycle() time.Duration {
	return time.Duration(a.Frames) * a.FrameDur
}

func (a *Animator) rollDelay() time.Duration {
	span := SometimesMaxDelay - SometimesMinDelay
	if span <= 0 {
		return SometimesMinDelay
	}
	return SometimesMinDelay + time.Duration(a.rng.Int63n(int64(span)))
}

// Update advances the machine by dt of wall-clock time played at speed.
// Speed 0 freezes the animation.
func (a *Animator) Update(dt time.Duration, speed float64) {
	if speed <= 0 || dt <= 0 {
		return
	}
	remaining := time.Duration(float64(dt) * speed)
	// Each pass consumes time up to the next transition.
	for guard := 0; remaining > 0 && guard < 64; guard++ {
		switch a.phase {
		case PhaseIdle:
			if !a.active || a.mode == ModeDisabled {
				a.elapsed = 0
				return
			}
			if a.mode == ModeContinuous {
				a.phase, a.elapsed = PhasePlaying, 0
				continue
			}
			if a.delay < 0 {
				a.delay = a.rollDelay()
			}
			need := a.delay - a.elapsed
			if remaining < need {
				a.elapsed += remaining
				return
			}
			remaining -= need
			a.phase, a.elapsed, a.delay = PhasePlaying, 0, -1

		case PhasePlaying:
			need := a.cycle() - a.elapsed
			if remaining < need {
				a.elapsed += remaining
				return
			}
			remaining -= need
			a.cycles++
			a.elapsed = 0
			if a.active && a.mode == ModeContinuous && a.Pause > 0 {
				a.phase = PhaseCooldown
			} else if a.active && a.mode == ModeContinuous {
				a.phase = PhasePlaying
			} else {
				a.phase = PhaseIdle
			}

		case PhaseCooldown:
			need := a.Pause - a.elapsed
			if remaining < need {
				a.elapsed += remaining
				return
			}
			remaining -= need
			a.elapsed = 0
			if a.active && a.mode == ModeContinuous {
				a.phase = PhasePlaying
			} else {
				a.phase = PhaseIdle
			}
		}
	}
}
