package game

// --- Frame ---

// Frame selects how an instruction's direction is read: against the anchor's
// current rotation, or as a fixed world direction.
type Frame int

const (
	FrameRelative Frame = iota
	FrameAbsolute
)

func (f Frame) String() string {
	if f == FrameAbsolute {
		return "absolute"
	}
	return "relative"
}

// --- Protocol ---

// Protocol selects execution semantics: direct runs the instruction as
// written, inverted runs its opposite.
type Protocol int

const (
	ProtocolDirect Protocol = iota
	ProtocolInverted
)

func (p Protocol) String() string {
	if p == ProtocolInverted {
		return "inverted"
	}
	return "direct"
}

// --- DisplayTag ---

// DisplayTag is the cosmetic protocol colour shown to the player. It is
// decoupled from the true protocol: under interference the tag sometimes
// contradicts it, forcing the player to read the text rather than the
// colour. The tag never participates in hit-testing or scoring.
type DisplayTag int

const (
	TagDirect DisplayTag = iota
	TagInverted
)

func (t DisplayTag) String() string {
	if t == TagInverted {
		return "inverted"
	}
	return "direct"
}

// --- Instruction ---

// Instruction is one step of a puzzle chain. Immutable once generated.
type Instruction struct {
	Dir      Direction
	Frame    Frame
	Protocol Protocol
	Display  DisplayTag
}

// Effective returns the direction the instruction actually executes:
// inverted protocol flips the written direction.
func (in Instruction) Effective() Direction {
	if in.Protocol == ProtocolInverted {
		return Invert(in.Dir)
	}
	return in.Dir
}

// Misleading reports whether the display tag contradicts the true protocol.
func (in Instruction) Misleading() bool {
	return (in.Display == TagInverted) != (in.Protocol == ProtocolInverted)
}

// --- Puzzle ---

// Cell is a grid coordinate, origin top-left.
type Cell struct {
	X int
	Y int
}

// Puzzle is one complete round: a rotated anchor, an instruction chain, and
// the single cell the chain reaches. Replaced wholesale on every
// regeneration, never partially mutated. Target is internal hit-testing
// state and must not reach the draw path.
type Puzzle struct {
	Anchor   Cell
	Rotation Rotation
	Chain    []Instruction
	Target   Cell
}

// PuzzleView is the render-safe projection of a Puzzle: everything the
// player may see, without the target cell.
type PuzzleView struct {
	Anchor   Cell
	Rotation Rotation
	Chain    []Instruction
}

// View strips the target for the UI layer.
func (p Puzzle) View() PuzzleView {
	chain := make([]Instruction, len(p.Chain))
	copy(chain, p.Chain)
	return PuzzleView{Anchor: p.Anchor, Rotation: p.Rotation, Chain: chain}
}
