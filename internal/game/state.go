package game

// --- Status ---

// Status is the machine's current screen/phase. successAnim, levelUp and
// levelDown are transient: each schedules exactly one follow-up transition
// and accepts no other mutation while pending.
type Status int

const (
	StatusIdle Status = iota
	StatusPlaying
	StatusSuccessAnim
	StatusLevelUp
	StatusLevelDown
	StatusGameOver
	StatusAnalytics
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPlaying:
		return "playing"
	case StatusSuccessAnim:
		return "success_anim"
	case StatusLevelUp:
		return "level_up"
	case StatusLevelDown:
		return "level_down"
	case StatusGameOver:
		return "gameover"
	case StatusAnalytics:
		return "analytics"
	default:
		return "unknown"
	}
}

// Transient reports whether the status only exits via its scheduled
// follow-up transition.
func (s Status) Transient() bool {
	return s == StatusSuccessAnim || s == StatusLevelUp || s == StatusLevelDown
}

// --- GameState ---

// Progression bounds and step sizes.
const (
	stabilityMax    = 100.0
	stabilityGain   = 15.0
	stabilityLoss   = 30.0
	stabilityReset  = 50.0 // after a level transition in either direction
	recoveryFloor   = 20.0 // level 1 never descends; it bottoms out here
	multiplierMin   = 1.0
	multiplierMax   = 5.0
	multiplierStep  = 0.5
	levelMin        = 1
	levelMax        = 99
	minSessionScore = 100 // rounds below this never enter session history
)

// GameState is the complete progression record. It is owned by the Machine
// and mutated only through named transitions.
type GameState struct {
	Status     Status
	Level      int
	MaxLevel   int
	Stability  float64 // [0, 100]
	Score      int
	Multiplier float64 // [1, 5]
	Streak     int
	Practice   bool
}

// defaultState is a fresh session with no snapshot.
func defaultState() GameState {
	return GameState{
		Status:     StatusIdle,
		Level:      levelMin,
		MaxLevel:   levelMin,
		Stability:  stabilityReset,
		Multiplier: multiplierMin,
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
