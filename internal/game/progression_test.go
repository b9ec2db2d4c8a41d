package game

import (
	"errors"
	"testing"
	"time"
)

// newPlayingMachine returns a machine already in the playing status over a
// MemStore, with a deterministic generator.
func newPlayingMachine(t *testing.T, seed int64) (*Machine, *MemStore) {
	t.Helper()
	store := &MemStore{}
	m := NewMachine(NewGenerator(seed), store)
	m.Start()
	if m.State().Status != StatusPlaying {
		t.Fatalf("start should enter playing, got %s", m.State().Status)
	}
	return m, store
}

// pickCorrect selects the active puzzle's target cell.
func pickCorrect(m *Machine) {
	m.CellSelected(m.puzzle.Target.X, m.puzzle.Target.Y)
}

// pickWrong selects an in-grid cell that is not the target.
func pickWrong(m *Machine) {
	for x := 0; x < gridSize; x++ {
		for y := 0; y < gridSize; y++ {
			if (Cell{X: x, Y: y}) != m.puzzle.Target {
				m.CellSelected(x, y)
				return
			}
		}
	}
}

// tickUntilPlaying drives the scheduler through any transient statuses.
func tickUntilPlaying(t *testing.T, m *Machine) {
	t.Helper()
	for i := 0; i < bannerHoldTicks*4; i++ {
		if m.State().Status == StatusPlaying {
			return
		}
		m.Tick()
	}
	t.Fatalf("machine never returned to playing, stuck in %s", m.State().Status)
}

// --- Start / reward ---

func TestStart_ResetsMultiplierAndStreak(t *testing.T) {
	store := &MemStore{}
	m := NewMachine(NewGenerator(1), store)
	m.state.Multiplier = 3
	m.state.Streak = 9
	m.Start()
	st := m.State()
	if st.Multiplier != multiplierMin || st.Streak != 0 {
		t.Fatalf("start should reset multiplier/streak, got x%.1f streak=%d", st.Multiplier, st.Streak)
	}
	if m.TimerPercent() != timerFull {
		t.Fatalf("timer should start full, got %.1f", m.TimerPercent())
	}
}

func TestSuccess_RewardScenario(t *testing.T) {
	// level=3, 80% timer remaining, multiplier=1 → 100+80+150 = 330.
	m, _ := newPlayingMachine(t, 2)
	m.SetLevel(3)
	m.timer = 80.0
	pickCorrect(m)
	st := m.State()
	if st.Score != 330 {
		t.Fatalf("score = %d, want 330", st.Score)
	}
	if st.Stability != 65 {
		t.Fatalf("stability = %.0f, want 65 (50+15)", st.Stability)
	}
	if st.Level != 3 {
		t.Fatalf("level = %d, want unchanged 3", st.Level)
	}
	if st.Multiplier != 1.5 {
		t.Fatalf("multiplier = %.1f, want 1.5", st.Multiplier)
	}
	if st.Streak != 1 {
		t.Fatalf("streak = %d, want 1", st.Streak)
	}
	if st.Status != StatusSuccessAnim {
		t.Fatalf("status = %s, want success_anim", st.Status)
	}
}

func TestSuccess_MultiplierCapped(t *testing.T) {
	m, _ := newPlayingMachine(t, 3)
	m.state.Multiplier = multiplierMax
	pickCorrect(m)
	if got := m.State().Multiplier; got != multiplierMax {
		t.Fatalf("multiplier = %.1f, want capped at %.1f", got, multiplierMax)
	}
}

func TestSuccess_LevelUpAtFullStability(t *testing.T) {
	m, _ := newPlayingMachine(t, 4)
	m.state.Stability = 95
	pickCorrect(m)
	st := m.State()
	if st.Level != 2 {
		t.Fatalf("level = %d, want 2 after stability overflow", st.Level)
	}
	if st.Stability != stabilityReset {
		t.Fatalf("stability = %.0f, want reset to %.0f", st.Stability, stabilityReset)
	}
	if st.MaxLevel != 2 {
		t.Fatalf("maxLevel = %d, want 2", st.MaxLevel)
	}

	// success_anim holds, then the level_up banner, then play resumes.
	for i := 0; i < successHoldTicks+1; i++ {
		m.Tick()
	}
	if got := m.State().Status; got != StatusLevelUp {
		t.Fatalf("status after success hold = %s, want level_up", got)
	}
	tickUntilPlaying(t, m)
}

// --- Failure ---

func TestFailure_StabilityLossAndResets(t *testing.T) {
	m, _ := newPlayingMachine(t, 5)
	m.SetLevel(3)
	m.state.Multiplier = 2.5
	m.state.Streak = 4
	pickWrong(m)
	st := m.State()
	if st.Stability != 20 {
		t.Fatalf("stability = %.0f, want 20 (50-30)", st.Stability)
	}
	if st.Multiplier != multiplierMin {
		t.Fatalf("multiplier = %.1f, want reset to 1", st.Multiplier)
	}
	if st.Streak != 0 {
		t.Fatalf("streak = %d, want 0", st.Streak)
	}
	if st.Level != 3 {
		t.Fatalf("level = %d, want unchanged", st.Level)
	}
}

func TestFailure_LevelDown(t *testing.T) {
	m, _ := newPlayingMachine(t, 6)
	m.SetLevel(5)
	m.state.Stability = 20
	pickWrong(m)
	st := m.State()
	if st.Level != 4 {
		t.Fatalf("level = %d, want 4", st.Level)
	}
	if st.Stability != stabilityReset {
		t.Fatalf("stability = %.0f, want %.0f after descent", st.Stability, stabilityReset)
	}
	for i := 0; i < successHoldTicks+1; i++ {
		m.Tick()
	}
	if got := m.State().Status; got != StatusLevelDown {
		t.Fatalf("status after hold = %s, want level_down", got)
	}
	tickUntilPlaying(t, m)
}

func TestFailure_LevelOneRecoveryFloor(t *testing.T) {
	// stability=20, failure at level 1 → clamped to the recovery floor,
	// level stays 1, no level_down banner fires.
	m, _ := newPlayingMachine(t, 7)
	m.state.Stability = 20
	pickWrong(m)
	st := m.State()
	if st.Level != 1 {
		t.Fatalf("level = %d, want 1", st.Level)
	}
	if st.Stability != recoveryFloor {
		t.Fatalf("stability = %.0f, want recovery floor %.0f", st.Stability, recoveryFloor)
	}
	for i := 0; i < successHoldTicks+bannerHoldTicks; i++ {
		m.Tick()
		if m.State().Status == StatusLevelDown {
			t.Fatal("level_down must never fire at level 1")
		}
	}
	if m.State().Status != StatusPlaying {
		t.Fatalf("expected play to resume, got %s", m.State().Status)
	}
}

// --- Countdown ---

func TestTimer_ExpiryFiresFailureOnce(t *testing.T) {
	m, _ := newPlayingMachine(t, 8)
	m.timer = 0.01
	m.Tick()
	if got := m.Events().CountCategory("round", "loss"); got != 1 {
		t.Fatalf("expected exactly one loss after expiry, got %d", got)
	}
	if m.State().Status != StatusSuccessAnim {
		t.Fatalf("status = %s, want success_anim", m.State().Status)
	}
	// Further ticks during the transient must not fire a second failure.
	for i := 0; i < 10; i++ {
		m.Tick()
	}
	if got := m.Events().CountCategory("round", "loss"); got != 1 {
		t.Fatalf("failure transition fired %d times, want 1", got)
	}
}

func TestTimer_DecaysFasterAtHigherLevels(t *testing.T) {
	low, _ := newPlayingMachine(t, 9)
	high, _ := newPlayingMachine(t, 9)
	high.SetLevel(20)
	low.Tick()
	high.Tick()
	if low.TimerPercent() <= high.TimerPercent() {
		t.Fatalf("level 20 should decay faster: low=%.3f high=%.3f",
			low.TimerPercent(), high.TimerPercent())
	}
}

func TestTimer_FrozenInPractice(t *testing.T) {
	m, _ := newPlayingMachine(t, 10)
	m.TogglePractice()
	before := m.TimerPercent()
	for i := 0; i < 600; i++ {
		m.Tick()
	}
	if m.TimerPercent() != before {
		t.Fatalf("practice timer moved from %.1f to %.1f", before, m.TimerPercent())
	}
}

// --- Practice mode ---

func TestPractice_ScoringFrozen(t *testing.T) {
	m, _ := newPlayingMachine(t, 11)
	m.TogglePractice()
	base := m.State()

	pickCorrect(m)
	tickUntilPlaying(t, m)
	pickWrong(m)
	tickUntilPlaying(t, m)

	st := m.State()
	if st.Score != base.Score || st.Stability != base.Stability || st.Multiplier != base.Multiplier {
		t.Fatalf("practice mutated scoring state: %+v vs %+v", st, base)
	}
	if len(m.Analytics().Tags) != 0 {
		t.Fatal("practice rounds must not reach analytics")
	}
}

func TestPractice_StreakStillIncrements(t *testing.T) {
	m, _ := newPlayingMachine(t, 12)
	m.TogglePractice()
	pickCorrect(m)
	if got := m.State().Streak; got != 1 {
		t.Fatalf("streak = %d, want 1 (streak moves even in practice)", got)
	}
}

func TestTogglePractice_RegeneratesWhilePlaying(t *testing.T) {
	m, _ := newPlayingMachine(t, 13)
	level := m.State().Level
	stability := m.State().Stability
	newRounds := m.Events().CountCategory("round", "new")

	changed := false
	prev := m.puzzle
	for i := 0; i < 4 && !changed; i++ {
		m.TogglePractice()
		if m.puzzle.Anchor != prev.Anchor || m.puzzle.Target != prev.Target ||
			m.puzzle.Rotation != prev.Rotation || len(m.puzzle.Chain) != len(prev.Chain) {
			changed = true
		}
		prev = m.puzzle
	}
	if !changed {
		t.Fatal("toggling practice while playing should replace the puzzle")
	}
	if got := m.Events().CountCategory("round", "new"); got <= newRounds {
		t.Fatal("toggle should have regenerated at least once")
	}
	st := m.State()
	if st.Level != level || st.Stability != stability {
		t.Fatalf("toggle must not touch level/stability: level %d→%d stability %.0f→%.0f",
			level, st.Level, stability, st.Stability)
	}
}

// --- Transient guard / scheduler ---

func TestTransient_InputIgnored(t *testing.T) {
	m, _ := newPlayingMachine(t, 14)
	pickCorrect(m)
	scoreAfter := m.State().Score
	pickCorrect(m) // must be ignored: not playing
	pickWrong(m)   // likewise
	if got := m.State().Score; got != scoreAfter {
		t.Fatalf("input during transient changed score %d → %d", scoreAfter, got)
	}
	if got := m.Events().CountCategory("round", "win"); got != 1 {
		t.Fatalf("win fired %d times, want 1", got)
	}
}

func TestStop_CancelsPendingTransition(t *testing.T) {
	m, _ := newPlayingMachine(t, 15)
	pickCorrect(m)
	m.Stop()
	if m.State().Status != StatusGameOver {
		t.Fatalf("status = %s, want gameover", m.State().Status)
	}
	for i := 0; i < bannerHoldTicks*2; i++ {
		m.Tick()
	}
	if m.State().Status != StatusGameOver {
		t.Fatalf("cancelled transition still fired, status = %s", m.State().Status)
	}
}

func TestStop_RecordsSessionAboveThreshold(t *testing.T) {
	m, _ := newPlayingMachine(t, 16)
	m.state.Score = minSessionScore + 50
	m.Stop()
	if got := len(m.Analytics().Sessions); got != 1 {
		t.Fatalf("sessions = %d, want 1", got)
	}
}

func TestStop_SkipsSessionBelowThreshold(t *testing.T) {
	m, _ := newPlayingMachine(t, 17)
	m.state.Score = minSessionScore
	m.Stop()
	if got := len(m.Analytics().Sessions); got != 0 {
		t.Fatalf("sessions = %d, want 0 for score at threshold", got)
	}
}

func TestResumeAndMenu(t *testing.T) {
	m, _ := newPlayingMachine(t, 18)
	m.Stop()
	m.Resume()
	if m.State().Status != StatusPlaying {
		t.Fatalf("resume should return to playing, got %s", m.State().Status)
	}
	m.Stop()
	m.Menu()
	if m.State().Status != StatusIdle {
		t.Fatalf("menu should return to idle, got %s", m.State().Status)
	}
}

// --- SetLevel ---

func TestSetLevel_BoundsAreNoOps(t *testing.T) {
	m, _ := newPlayingMachine(t, 19)
	m.SetLevel(5)
	for _, n := range []int{0, -3, 100, 500} {
		m.SetLevel(n)
		if got := m.State().Level; got != 5 {
			t.Fatalf("SetLevel(%d) changed level to %d, want no-op", n, got)
		}
	}
}

func TestSetLevel_TracksMaxLevel(t *testing.T) {
	m, _ := newPlayingMachine(t, 20)
	m.SetLevel(12)
	m.SetLevel(3)
	st := m.State()
	if st.Level != 3 || st.MaxLevel != 12 {
		t.Fatalf("level=%d maxLevel=%d, want 3 and 12", st.Level, st.MaxLevel)
	}
}

// --- Persistence wiring ---

func TestSave_OnScoringChange(t *testing.T) {
	m, store := newPlayingMachine(t, 21)
	pickCorrect(m)
	if store.Saves == 0 {
		t.Fatal("success should persist a snapshot")
	}
	if store.snap.Score != m.State().Score {
		t.Fatalf("persisted score %d, live score %d", store.snap.Score, m.State().Score)
	}
}

func TestNewMachine_LoadsSnapshot(t *testing.T) {
	store := &MemStore{}
	a := NewAnalytics()
	a.RecordRound([]Instruction{{Dir: DirFront}}, OutcomeLoss)
	if err := store.Save(&Snapshot{Level: 7, MaxLevel: 9, Stability: 35, Score: 1200, Analytics: a}); err != nil {
		t.Fatalf("seed save failed: %v", err)
	}
	m := NewMachine(NewGenerator(1), store)
	st := m.State()
	if st.Level != 7 || st.MaxLevel != 9 || st.Stability != 35 || st.Score != 1200 {
		t.Fatalf("loaded state = %+v", st)
	}
	if len(m.Analytics().Tags) == 0 {
		t.Fatal("loaded analytics lost its tags")
	}
}

type failingStore struct{}

func (failingStore) Load() (*Snapshot, error) { return nil, errors.New("disk gone") }
func (failingStore) Save(*Snapshot) error     { return errors.New("disk gone") }

func TestNewMachine_CorruptSnapshotFallsBack(t *testing.T) {
	m := NewMachine(NewGenerator(1), failingStore{})
	st := m.State()
	if st.Level != levelMin || st.Score != 0 || st.Status != StatusIdle {
		t.Fatalf("corrupt snapshot should yield defaults, got %+v", st)
	}
	// Play still works; save errors stay non-fatal.
	m.Start()
	pickCorrect(m)
	if m.State().Score == 0 {
		t.Fatal("machine should keep playing on a failing store")
	}
}

// --- ResetProgress ---

func TestResetProgress_WipesEverything(t *testing.T) {
	m, store := newPlayingMachine(t, 22)
	m.SetLevel(9)
	pickCorrect(m)
	m.ResetProgress()
	st := m.State()
	if st.Level != levelMin || st.MaxLevel != levelMin || st.Score != 0 || st.Stability != stabilityReset {
		t.Fatalf("reset left state %+v", st)
	}
	if len(m.Analytics().Tags) != 0 || len(m.Analytics().Sessions) != 0 {
		t.Fatal("reset should clear analytics")
	}
	if store.snap.Score != 0 || store.snap.Level != levelMin {
		t.Fatalf("reset not persisted: %+v", store.snap)
	}
}

// --- Analytics screen ---

func TestAnalyticsScreen_Transitions(t *testing.T) {
	store := &MemStore{}
	m := NewMachine(NewGenerator(23), store)
	m.ShowAnalytics()
	if m.State().Status != StatusAnalytics {
		t.Fatalf("status = %s, want analytics", m.State().Status)
	}
	m.Start() // must be ignored outside idle
	if m.State().Status != StatusAnalytics {
		t.Fatal("start must be a no-op on the analytics screen")
	}
	m.CloseAnalytics()
	if m.State().Status != StatusIdle {
		t.Fatalf("status = %s, want idle", m.State().Status)
	}
}

// --- Clock injection ---

func TestSessionTimestampUsesInjectedClock(t *testing.T) {
	m, _ := newPlayingMachine(t, 24)
	fixed := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }
	m.state.Score = minSessionScore + 1
	m.Stop()
	if got := m.Analytics().Sessions[0].At; !got.Equal(fixed) {
		t.Fatalf("session timestamp %v, want %v", got, fixed)
	}
}
