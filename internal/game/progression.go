package game

import (
	"fmt"
	"log"
	"math"
	"time"
)

// Countdown and scheduling constants. The machine runs on a logical tick
// (60/s when driven by the ebiten loop); tests drive it directly.
const (
	ticksPerSecond   = 60
	timerFull        = 100.0 // countdown is a percentage
	baseDecay        = 0.18  // percent lost per tick before the level term
	levelDecayFactor = 0.012 // extra percent per tick per level

	successHoldTicks = 45  // success_anim hold before the next round
	bannerHoldTicks  = 120 // level_up / level_down banner hold
)

// pendingTransition is the single deferred follow-up a transient status
// schedules. At most one exists per active round.
type pendingTransition struct {
	fireAtTick int
	apply      func(*Machine)
}

// Machine owns GameState, the active Puzzle, and the Analytics record, and
// is their only mutation path. All methods must be called from one
// goroutine; the design is event-driven, not concurrent.
type Machine struct {
	state     GameState
	puzzle    Puzzle
	gen       *Generator
	store     Store
	analytics *Analytics
	events    *EventLog
	now       func() time.Time

	tick       int
	timer      float64 // remaining percent, [0, 100]
	timerFired bool    // one failure per countdown cycle
	pending    *pendingTransition
}

// NewMachine builds a machine from a loaded snapshot, or fresh defaults if
// the store is empty or its contents are corrupt. Corruption is non-fatal
// and logged only.
func NewMachine(gen *Generator, store Store) *Machine {
	m := &Machine{
		state:     defaultState(),
		gen:       gen,
		store:     store,
		analytics: NewAnalytics(),
		events:    NewEventLog(false),
		now:       time.Now,
	}
	snap, err := store.Load()
	if err != nil {
		log.Printf("snapshot unreadable, starting fresh: %v", err)
		return m
	}
	if snap == nil {
		return m
	}
	m.state.Level = snap.Level
	m.state.MaxLevel = snap.MaxLevel
	if m.state.MaxLevel < m.state.Level {
		m.state.MaxLevel = m.state.Level
	}
	m.state.Stability = clampFloat(snap.Stability, 0, stabilityMax)
	m.state.Score = snap.Score
	if snap.Analytics != nil {
		m.analytics = snap.Analytics
	}
	return m
}

// --- Read-only projections ---

// State returns a copy of the progression record.
func (m *Machine) State() GameState { return m.state }

// PuzzleView returns the render-safe view of the active puzzle. The target
// cell stays inside the machine; hit-testing happens in CellSelected.
func (m *Machine) PuzzleView() PuzzleView { return m.puzzle.View() }

// TimerPercent returns the remaining countdown percentage.
func (m *Machine) TimerPercent() float64 { return m.timer }

// Events returns the machine's structured event log.
func (m *Machine) Events() *EventLog { return m.events }

// CurrentTick returns the logical tick counter.
func (m *Machine) CurrentTick() int { return m.tick }

// Analytics returns the aggregation record for read-only reporting.
func (m *Machine) Analytics() *Analytics { return m.analytics }

// --- Tick ---

// Tick advances the logical clock: fires a due scheduled transition, then
// decays the countdown while playing. Practice mode freezes the timer
// entirely. Reaching zero fires the failure transition exactly once.
func (m *Machine) Tick() {
	m.tick++

	if m.pending != nil && m.tick >= m.pending.fireAtTick {
		p := m.pending
		m.pending = nil
		p.apply(m)
	}

	if m.state.Status != StatusPlaying || m.state.Practice {
		return
	}
	m.timer -= baseDecay + float64(m.state.Level)*levelDecayFactor
	if m.timer < 0 {
		m.timer = 0
	}
	m.events.AddVerbose(m.tick, "timer", "remaining", fmt.Sprintf("%.1f%%", m.timer), m.timer)
	if m.timer <= 0 && !m.timerFired {
		m.timerFired = true
		m.events.Add(m.tick, "timer", "expired", fmt.Sprintf("level %d", m.state.Level), 0)
		m.fail(FailTimeout)
	}
}

// --- Player events ---

// Start begins a session from the idle screen.
func (m *Machine) Start() {
	if m.state.Status != StatusIdle {
		return
	}
	m.state.Multiplier = multiplierMin
	m.state.Streak = 0
	m.setStatus(StatusPlaying)
	m.regenerate()
}

// CellSelected resolves a click on cell (x, y). Input is ignored outside
// the playing status, which is the transient-state re-entrancy guard.
func (m *Machine) CellSelected(x, y int) {
	if m.state.Status != StatusPlaying {
		return
	}
	if x < 0 || x >= gridSize || y < 0 || y >= gridSize {
		return
	}
	if (Cell{X: x, Y: y}) == m.puzzle.Target {
		m.succeed()
	} else {
		m.events.Add(m.tick, "round", "miss", fmt.Sprintf("picked (%d,%d)", x, y), 0)
		m.fail(FailWrongCell)
	}
}

// Stop ends the round and shows the gameover screen. Any pending scheduled
// transition from the round is cancelled. A scoring session above the
// minimum threshold enters the analytics history.
func (m *Machine) Stop() {
	if m.state.Status != StatusPlaying && !m.state.Status.Transient() {
		return
	}
	m.pending = nil
	if !m.state.Practice && m.state.Score > minSessionScore {
		m.analytics.RecordSession(m.state.Level, m.state.Score, m.now())
		m.saveIfActive()
	}
	m.setStatus(StatusGameOver)
}

// Resume restarts play from the gameover screen with a fresh puzzle.
func (m *Machine) Resume() {
	if m.state.Status != StatusGameOver {
		return
	}
	m.setStatus(StatusPlaying)
	m.regenerate()
}

// Menu returns to the idle screen from gameover.
func (m *Machine) Menu() {
	if m.state.Status != StatusGameOver {
		return
	}
	m.setStatus(StatusIdle)
}

// TogglePractice flips practice mode from any status. A pending scheduled
// transition belongs to the previous round's semantics and is cancelled;
// if the round was live (or mid-transient) the puzzle is regenerated, which
// closes the freeze-solve-revert exploit.
func (m *Machine) TogglePractice() {
	m.state.Practice = !m.state.Practice
	m.events.Add(m.tick, "practice", "toggle", fmt.Sprintf("practice=%t", m.state.Practice), 0)
	if m.state.Status == StatusPlaying || m.state.Status.Transient() {
		m.pending = nil
		m.setStatus(StatusPlaying)
		m.regenerate()
	}
}

// SetLevel jumps to a manually entered level. Only integers in
// [levelMin, levelMax] are accepted; anything else is a silent no-op.
func (m *Machine) SetLevel(n int) {
	if n < levelMin || n > levelMax {
		return
	}
	m.state.Level = n
	if n > m.state.MaxLevel {
		m.state.MaxLevel = n
	}
	m.state.Stability = stabilityReset
	m.events.Add(m.tick, "level", "set", fmt.Sprintf("level=%d", n), float64(n))
	if m.state.Status == StatusPlaying {
		m.regenerate()
	}
	m.saveIfActive()
}

// ResetProgress wipes level, score, stability and analytics back to a fresh
// session and persists the wipe.
func (m *Machine) ResetProgress() {
	practice := m.state.Practice
	m.pending = nil
	m.state = defaultState()
	m.state.Practice = practice
	m.analytics = NewAnalytics()
	m.timer = 0
	m.timerFired = false
	m.events.Add(m.tick, "persist", "reset", "progress wiped", 0)
	m.save()
}

// ShowAnalytics opens the analytics screen from idle or gameover.
func (m *Machine) ShowAnalytics() {
	if m.state.Status != StatusIdle && m.state.Status != StatusGameOver {
		return
	}
	m.setStatus(StatusAnalytics)
}

// CloseAnalytics returns to the idle screen.
func (m *Machine) CloseAnalytics() {
	if m.state.Status != StatusAnalytics {
		return
	}
	m.setStatus(StatusIdle)
}

// --- Internal transitions ---

// succeed handles a correct cell pick.
func (m *Machine) succeed() {
	reward := int((100+math.Floor(m.timer))*m.state.Multiplier) + m.state.Level*50
	levelUp := false

	if !m.state.Practice {
		m.analytics.RecordRound(m.puzzle.Chain, OutcomeWin)
		m.state.Score += reward
		m.state.Stability = clampFloat(m.state.Stability+stabilityGain, 0, stabilityMax)
		m.state.Multiplier = clampFloat(m.state.Multiplier+multiplierStep, multiplierMin, multiplierMax)
		if m.state.Stability >= stabilityMax {
			m.state.Stability = stabilityReset
			m.state.Level++
			if m.state.Level > m.state.MaxLevel {
				m.state.MaxLevel = m.state.Level
			}
			levelUp = true
			m.events.Add(m.tick, "level", "up", fmt.Sprintf("level=%d", m.state.Level), float64(m.state.Level))
		}
	}
	// Streak moves even in practice; the rest of the scoring state is frozen.
	m.state.Streak++

	m.events.Add(m.tick, "round", "win",
		fmt.Sprintf("reward=%d streak=%d practice=%t", reward, m.state.Streak, m.state.Practice),
		float64(reward))
	m.setStatus(StatusSuccessAnim)
	m.saveIfActive()

	if levelUp {
		m.schedule(successHoldTicks, func(m *Machine) {
			m.setStatus(StatusLevelUp)
			m.schedule(bannerHoldTicks, (*Machine).resumePlaying)
		})
	} else {
		m.schedule(successHoldTicks, (*Machine).resumePlaying)
	}
}

// fail handles a wrong pick or an expired countdown.
func (m *Machine) fail(cause FailCause) {
	levelDown := false

	if !m.state.Practice {
		m.analytics.RecordRound(m.puzzle.Chain, OutcomeLoss)
		m.state.Stability = clampFloat(m.state.Stability-stabilityLoss, 0, stabilityMax)
		m.state.Multiplier = multiplierMin
		if m.state.Stability <= 0 {
			if m.state.Level > levelMin {
				m.state.Level--
				m.state.Stability = stabilityReset
				levelDown = true
				m.events.Add(m.tick, "level", "down", fmt.Sprintf("level=%d", m.state.Level), float64(m.state.Level))
			} else {
				// Level 1 never descends; it bottoms out at the recovery floor.
				m.state.Stability = recoveryFloor
			}
		}
	}
	m.state.Streak = 0

	m.events.Add(m.tick, "round", "loss",
		fmt.Sprintf("cause=%s practice=%t", cause, m.state.Practice), 0)
	m.setStatus(StatusSuccessAnim)
	m.saveIfActive()

	if levelDown {
		m.schedule(successHoldTicks, func(m *Machine) {
			m.setStatus(StatusLevelDown)
			m.schedule(bannerHoldTicks, (*Machine).resumePlaying)
		})
	} else {
		m.schedule(successHoldTicks, (*Machine).resumePlaying)
	}
}

// resumePlaying regenerates the puzzle and returns to play. Regeneration
// only ever happens here or in explicit player events, never while a
// transient animation is still pending.
func (m *Machine) resumePlaying() {
	m.setStatus(StatusPlaying)
	m.regenerate()
}

// regenerate replaces the puzzle wholesale and rearms the countdown.
func (m *Machine) regenerate() {
	m.puzzle = m.gen.Generate(m.state.Level)
	m.timer = timerFull
	m.timerFired = false
	m.events.Add(m.tick, "round", "new",
		fmt.Sprintf("level=%d chain=%d anchor=(%d,%d)",
			m.state.Level, len(m.puzzle.Chain), m.puzzle.Anchor.X, m.puzzle.Anchor.Y), 0)
}

// schedule arms the single pending transition.
func (m *Machine) schedule(afterTicks int, apply func(*Machine)) {
	m.pending = &pendingTransition{fireAtTick: m.tick + afterTicks, apply: apply}
}

// setStatus records a status change in the event log.
func (m *Machine) setStatus(s Status) {
	if m.state.Status == s {
		return
	}
	m.events.Add(m.tick, "status", "change", fmt.Sprintf("%s → %s", m.state.Status, s), 0)
	m.state.Status = s
}

// saveIfActive persists the snapshot unless the machine is idle.
func (m *Machine) saveIfActive() {
	if m.state.Status == StatusIdle {
		return
	}
	m.save()
}

func (m *Machine) save() {
	snap := &Snapshot{
		Level:     m.state.Level,
		MaxLevel:  m.state.MaxLevel,
		Stability: m.state.Stability,
		Score:     m.state.Score,
		Analytics: m.analytics,
	}
	if err := m.store.Save(snap); err != nil {
		log.Printf("snapshot save failed: %v", err)
	}
}
