package game

import "math/rand"

const (
	// gridSize is the playfield edge length in cells.
	gridSize = 7

	// maxGenAttempts caps the rejection-sampling loop. Termination is
	// guaranteed by this ceiling, not by statistical likelihood.
	maxGenAttempts = 500
)

// Feature gate thresholds. Each mechanic unlocks independently as the
// player climbs.
const (
	invertUnlockLevel    = 4 // inverted protocol may appear
	absoluteUnlockLevel  = 6 // world-fixed frames may appear
	interfereUnlockLevel = 8 // display tags may contradict protocols
)

// Sampling weights once a gate is open.
const (
	absoluteFrameChance = 0.30
	invertedChance      = 0.35
)

// levelParams are the generation knobs derived from a level.
type levelParams struct {
	chainLen       int
	allowInvert    bool
	allowAbsolute  bool
	allowInterfere bool
}

// paramsForLevel maps a level to its chain length tier and open gates.
func paramsForLevel(level int) levelParams {
	p := levelParams{
		allowInvert:    level >= invertUnlockLevel,
		allowAbsolute:  level >= absoluteUnlockLevel,
		allowInterfere: level >= interfereUnlockLevel,
	}
	switch {
	case level <= 2:
		p.chainLen = 1
	case level <= 5:
		p.chainLen = 2
	case level <= 9:
		p.chainLen = 3
	default:
		p.chainLen = 4
	}
	return p
}

// Generator produces validated puzzles via bounded randomized search.
type Generator struct {
	rng *rand.Rand

	// attempt counters, exposed for the headless report.
	rounds    int
	attempts  int
	failsafes int
}

// NewGenerator creates a Generator with a deterministic seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))} // #nosec G404 -- gameplay only
}

// Generate returns a structurally valid puzzle for the level: the target
// lies inside the grid and differs from the anchor, and every prefix of the
// chain stays inside the grid. It always terminates; if the attempt cap is
// reached it returns the fixed failsafe puzzle rather than failing.
func (g *Generator) Generate(level int) Puzzle {
	p := paramsForLevel(level)
	g.rounds++

	for attempt := 0; attempt < maxGenAttempts; attempt++ {
		g.attempts++
		if puz, ok := g.sample(p); ok {
			return puz
		}
	}
	g.failsafes++
	return failsafePuzzle()
}

// sample builds one candidate chain, rejecting it on the first out-of-grid
// prefix position or a zero-net result.
func (g *Generator) sample(p levelParams) (Puzzle, bool) {
	// Edge padding scaled to chain length keeps anchors away from walls,
	// cutting wasted attempts on long chains.
	pad := (p.chainLen + 1) / 2
	if pad > 2 {
		pad = 2
	}
	span := gridSize - 2*pad
	anchor := Cell{
		X: pad + g.rng.Intn(span),
		Y: pad + g.rng.Intn(span),
	}
	rot := cardinalRotations[g.rng.Intn(len(cardinalRotations))]

	chain := make([]Instruction, 0, p.chainLen)
	pos := anchor
	for i := 0; i < p.chainLen; i++ {
		in := g.sampleInstruction(p)
		dx, dy := Resolve(rot, in.Effective())
		pos.X += dx
		pos.Y += dy
		if pos.X < 0 || pos.X >= gridSize || pos.Y < 0 || pos.Y >= gridSize {
			return Puzzle{}, false
		}
		chain = append(chain, in)
	}
	if pos == anchor {
		return Puzzle{}, false
	}
	return Puzzle{Anchor: anchor, Rotation: rot, Chain: chain, Target: pos}, true
}

// sampleInstruction rolls one chain slot: frame (weighted toward relative),
// raw direction from the frame's set, protocol, and display tag.
func (g *Generator) sampleInstruction(p levelParams) Instruction {
	in := Instruction{Frame: FrameRelative, Protocol: ProtocolDirect}

	if p.allowAbsolute && g.rng.Float64() < absoluteFrameChance {
		in.Frame = FrameAbsolute
	}
	if in.Frame == FrameAbsolute {
		in.Dir = absoluteDirections[g.rng.Intn(len(absoluteDirections))]
	} else {
		in.Dir = relativeDirections[g.rng.Intn(len(relativeDirections))]
	}
	if p.allowInvert && g.rng.Float64() < invertedChance {
		in.Protocol = ProtocolInverted
	}

	// The display tag honestly mirrors the protocol until the interference
	// gate opens; after that it is an independent coin flip.
	if p.allowInterfere {
		if g.rng.Intn(2) == 0 {
			in.Display = TagDirect
		} else {
			in.Display = TagInverted
		}
	} else if in.Protocol == ProtocolInverted {
		in.Display = TagInverted
	}
	return in
}

// failsafePuzzle is the documented deterministic fallback: anchor at the
// grid centre facing north, a single direct relative "front", target one
// cell up.
func failsafePuzzle() Puzzle {
	return Puzzle{
		Anchor:   Cell{X: 3, Y: 3},
		Rotation: 0,
		Chain: []Instruction{
			{Dir: DirFront, Frame: FrameRelative, Protocol: ProtocolDirect, Display: TagDirect},
		},
		Target: Cell{X: 3, Y: 2},
	}
}

// GenStats summarizes generator effort since construction.
type GenStats struct {
	Rounds    int // Generate calls
	Attempts  int // total candidate samples
	Failsafes int // rounds that exhausted the cap
}

// Stats returns cumulative generation counters.
func (g *Generator) Stats() GenStats {
	return GenStats{Rounds: g.rounds, Attempts: g.attempts, Failsafes: g.failsafes}
}
