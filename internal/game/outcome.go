package game

// RoundOutcome is how a round ended.
type RoundOutcome int

const (
	OutcomeWin RoundOutcome = iota
	OutcomeLoss
)

func (o RoundOutcome) String() string {
	switch o {
	case OutcomeWin:
		return "win"
	case OutcomeLoss:
		return "loss"
	default:
		return "unknown"
	}
}

// FailCause distinguishes the two loss triggers. The machine honours at
// most one failure per countdown cycle regardless of cause.
type FailCause int

const (
	FailWrongCell FailCause = iota
	FailTimeout
)

func (c FailCause) String() string {
	if c == FailTimeout {
		return "timeout"
	}
	return "wrong_cell"
}
