package game

import (
	"math/rand"
	"time"
)

// TestSession is a headless harness used by tests and cmd/headless-report.
// It drives the real Machine with a scripted player and a virtual tick, so
// behaviour assertions never depend on wall-clock timing.
type TestSession struct {
	M     *Machine
	Gen   *Generator
	Store *MemStore

	rng         *rand.Rand
	solveChance float64
	letExpire   bool
}

// sessionConfig collects option state before construction.
type sessionConfig struct {
	seed        int64
	level       int
	practice    bool
	verbose     bool
	solveChance float64
	letExpire   bool
	snapshot    *Snapshot
}

// SessionOption is a builder function applied during NewTestSession.
type SessionOption func(*sessionConfig)

// WithSeed sets the RNG seed for deterministic runs.
func WithSeed(seed int64) SessionOption {
	return func(c *sessionConfig) { c.seed = seed }
}

// WithStartLevel jumps the session to a level before play begins.
func WithStartLevel(level int) SessionOption {
	return func(c *sessionConfig) { c.level = level }
}

// WithPractice starts the session in practice mode.
func WithPractice() SessionOption {
	return func(c *sessionConfig) { c.practice = true }
}

// WithVerbose enables per-tick timer logging.
func WithVerbose() SessionOption {
	return func(c *sessionConfig) { c.verbose = true }
}

// WithSolveChance sets the scripted player's probability of picking the
// correct cell in RunRounds.
func WithSolveChance(p float64) SessionOption {
	return func(c *sessionConfig) { c.solveChance = p }
}

// WithTimerExpiry makes failed rounds run the clock out instead of
// clicking a wrong cell.
func WithTimerExpiry() SessionOption {
	return func(c *sessionConfig) { c.letExpire = true }
}

// WithSnapshot preloads the store, exercising the load path.
func WithSnapshot(snap *Snapshot) SessionOption {
	return func(c *sessionConfig) { c.snapshot = snap }
}

// NewTestSession builds a session over a MemStore and starts play.
func NewTestSession(opts ...SessionOption) *TestSession {
	cfg := sessionConfig{seed: 1, level: levelMin, solveChance: 1.0}
	for _, o := range opts {
		o(&cfg)
	}
	store := &MemStore{}
	if cfg.snapshot != nil {
		store.snap = cfg.snapshot
	}

	gen := NewGenerator(cfg.seed)
	m := NewMachine(gen, store)
	m.events = NewEventLog(cfg.verbose)

	// Deterministic session clock: one simulated minute per 3600 ticks,
	// anchored at a fixed instant.
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time {
		return base.Add(time.Duration(m.tick) * time.Second / ticksPerSecond)
	}

	ts := &TestSession{
		M:           m,
		Gen:         gen,
		Store:       store,
		rng:         rand.New(rand.NewSource(cfg.seed + 31)), // #nosec G404 -- test harness
		solveChance: cfg.solveChance,
		letExpire:   cfg.letExpire,
	}
	if cfg.practice {
		m.TogglePractice()
	}
	m.Start()
	if cfg.level > levelMin {
		m.SetLevel(cfg.level)
	}
	return ts
}

// AdvanceTicks drives the virtual clock n ticks.
func (ts *TestSession) AdvanceTicks(n int) {
	for i := 0; i < n; i++ {
		ts.M.Tick()
	}
}

// AdvanceUntilPlaying ticks until the machine is back in the playing
// status, up to maxTicks. Returns the ticks consumed, or -1 on timeout.
func (ts *TestSession) AdvanceUntilPlaying(maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		if ts.M.State().Status == StatusPlaying {
			return i
		}
		ts.M.Tick()
	}
	return -1
}

// PlayRound resolves the current puzzle with a correct or wrong pick, then
// advances through the transient animation back to play.
func (ts *TestSession) PlayRound(correct bool) {
	if ts.M.State().Status != StatusPlaying {
		ts.AdvanceUntilPlaying(bannerHoldTicks * 4)
	}
	target := ts.M.puzzle.Target
	if correct {
		ts.M.CellSelected(target.X, target.Y)
	} else if ts.letExpire && !ts.M.State().Practice {
		ts.runOutClock()
	} else {
		wrong := ts.wrongCell(target)
		ts.M.CellSelected(wrong.X, wrong.Y)
	}
	ts.AdvanceUntilPlaying(bannerHoldTicks * 4)
}

// RunRounds plays n rounds with the configured solve chance.
func (ts *TestSession) RunRounds(n int) {
	for i := 0; i < n; i++ {
		ts.PlayRound(ts.rng.Float64() < ts.solveChance)
	}
}

// runOutClock ticks until the countdown failure fires.
func (ts *TestSession) runOutClock() {
	// Worst-case full countdown at level 1 plus slack.
	worstCase := float64(timerFull) / baseDecay
	limit := int(worstCase) + ticksPerSecond
	for i := 0; i < limit; i++ {
		if ts.M.State().Status != StatusPlaying {
			return
		}
		ts.M.Tick()
	}
}

// wrongCell returns an in-grid cell that is not the target.
func (ts *TestSession) wrongCell(target Cell) Cell {
	for {
		c := Cell{X: ts.rng.Intn(gridSize), Y: ts.rng.Intn(gridSize)}
		if c != target {
			return c
		}
	}
}
