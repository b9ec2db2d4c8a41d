package game

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// weaknessMinAttempts is the sample floor below which a tag is not ranked.
const weaknessMinAttempts = 5

// --- TagKey ---

// TagKind selects which slice of an instruction a tag aggregates over.
type TagKind int

const (
	TagProtocol TagKind = iota // protocol alone
	TagFrame                   // frame alone
	TagCombo                   // protocol + direction pair
)

// TagKey is a structured analytics key. Structured fields instead of string
// concatenation: "inverted"+"front" can never collide with another label.
type TagKey struct {
	Kind     TagKind
	Protocol Protocol
	Frame    Frame
	Dir      Direction
}

func (k TagKey) String() string {
	switch k.Kind {
	case TagProtocol:
		return "protocol:" + k.Protocol.String()
	case TagFrame:
		return "frame:" + k.Frame.String()
	case TagCombo:
		return "combo:" + k.Protocol.String() + ":" + k.Dir.String()
	default:
		return "unknown"
	}
}

// MarshalText lets TagKey serve as a JSON map key in snapshots.
func (k TagKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses the snapshot form written by MarshalText.
func (k *TagKey) UnmarshalText(text []byte) error {
	parts := strings.Split(string(text), ":")
	switch {
	case len(parts) == 2 && parts[0] == "protocol":
		p, err := parseProtocol(parts[1])
		if err != nil {
			return err
		}
		*k = TagKey{Kind: TagProtocol, Protocol: p}
	case len(parts) == 2 && parts[0] == "frame":
		switch parts[1] {
		case "relative":
			*k = TagKey{Kind: TagFrame, Frame: FrameRelative}
		case "absolute":
			*k = TagKey{Kind: TagFrame, Frame: FrameAbsolute}
		default:
			return fmt.Errorf("unknown frame %q", parts[1])
		}
	case len(parts) == 3 && parts[0] == "combo":
		p, err := parseProtocol(parts[1])
		if err != nil {
			return err
		}
		d, err := parseDirection(parts[2])
		if err != nil {
			return err
		}
		*k = TagKey{Kind: TagCombo, Protocol: p, Dir: d}
	default:
		return fmt.Errorf("unknown tag key %q", string(text))
	}
	return nil
}

func parseProtocol(s string) (Protocol, error) {
	switch s {
	case "direct":
		return ProtocolDirect, nil
	case "inverted":
		return ProtocolInverted, nil
	}
	return 0, fmt.Errorf("unknown protocol %q", s)
}

func parseDirection(s string) (Direction, error) {
	for d := DirFront; d <= DirWest; d++ {
		if d.String() == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// --- Analytics ---

// TagStats counts exposure and failure for one tag.
type TagStats struct {
	Attempts int `json:"attempts"`
	Failures int `json:"failures"`
}

// SessionEntry records one finished scoring session.
type SessionEntry struct {
	At    time.Time `json:"at"`
	Level int       `json:"level"`
	Score int       `json:"score"`
}

// Analytics attributes round outcomes to instruction traits and keeps the
// session history. Owned by the Machine; practice rounds never reach it.
type Analytics struct {
	Tags     map[TagKey]*TagStats `json:"tags"`
	Sessions []SessionEntry       `json:"sessions"`
}

// NewAnalytics creates an empty record.
func NewAnalytics() *Analytics {
	return &Analytics{Tags: map[TagKey]*TagStats{}}
}

// RecordRound attributes one round outcome to every instruction in the
// chain, under three keys each: protocol alone, frame alone, and the
// protocol+direction compound.
func (a *Analytics) RecordRound(chain []Instruction, outcome RoundOutcome) {
	for _, in := range chain {
		keys := [3]TagKey{
			{Kind: TagProtocol, Protocol: in.Protocol},
			{Kind: TagFrame, Frame: in.Frame},
			{Kind: TagCombo, Protocol: in.Protocol, Dir: in.Dir},
		}
		for _, k := range keys {
			st, ok := a.Tags[k]
			if !ok {
				st = &TagStats{}
				a.Tags[k] = st
			}
			st.Attempts++
			if outcome == OutcomeLoss {
				st.Failures++
			}
		}
	}
}

// RecordSession appends a session entry.
func (a *Analytics) RecordSession(level, score int, now time.Time) {
	a.Sessions = append(a.Sessions, SessionEntry{At: now, Level: level, Score: score})
}

// Weakness is one ranked entry from TopWeaknesses.
type Weakness struct {
	Key      TagKey
	Attempts int
	Failures int
	Rate     float64
}

// TopWeaknesses ranks tags with at least weaknessMinAttempts attempts by
// failure rate, descending, and returns the top n. Ties break on attempt
// count then key string so the order is stable.
func (a *Analytics) TopWeaknesses(n int) []Weakness {
	out := make([]Weakness, 0, len(a.Tags))
	for k, st := range a.Tags {
		if st.Attempts < weaknessMinAttempts {
			continue
		}
		out = append(out, Weakness{
			Key:      k,
			Attempts: st.Attempts,
			Failures: st.Failures,
			Rate:     float64(st.Failures) / float64(st.Attempts),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rate != out[j].Rate {
			return out[i].Rate > out[j].Rate
		}
		if out[i].Attempts != out[j].Attempts {
			return out[i].Attempts > out[j].Attempts
		}
		return out[i].Key.String() < out[j].Key.String()
	})
	if n < len(out) {
		out = out[:n]
	}
	return out
}

// AverageScore returns the floored mean score of sessions inside the
// trailing window ending at now, or 0 if none qualify.
func (a *Analytics) AverageScore(window time.Duration, now time.Time) int {
	cutoff := now.Add(-window)
	sum, count := 0, 0
	for _, s := range a.Sessions {
		if s.At.Before(cutoff) || s.At.After(now) {
			continue
		}
		sum += s.Score
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / count
}
