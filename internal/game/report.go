package game

import (
	"fmt"
	"strings"
	"time"
)

// Trailing windows shown in the session report.
var reportWindows = []struct {
	label  string
	window time.Duration
}{
	{"last hour", time.Hour},
	{"last 24h", 24 * time.Hour},
	{"last 7d", 7 * 24 * time.Hour},
}

// LetterGrade maps a failure rate to a coarse grade for the report.
func LetterGrade(failureRate float64) string {
	switch {
	case failureRate < 0.10:
		return "A"
	case failureRate < 0.25:
		return "B"
	case failureRate < 0.40:
		return "C"
	case failureRate < 0.60:
		return "D"
	default:
		return "F"
	}
}

// FormatSessionReport renders the analytics record as a plain-text report:
// progression summary, weakness ranking, trailing score averages, and the
// most recent sessions. The same text is shown on the analytics screen,
// copied to the clipboard, and printed by cmd/headless-report.
func FormatSessionReport(a *Analytics, st GameState, now time.Time) string {
	var b strings.Builder
	b.WriteString("--- Deictic Void session report ---\n")
	fmt.Fprintf(&b, "level=%d max_level=%d stability=%.0f score=%d streak=%d practice=%t\n\n",
		st.Level, st.MaxLevel, st.Stability, st.Score, st.Streak, st.Practice)

	weak := a.TopWeaknesses(5)
	if len(weak) == 0 {
		b.WriteString("weaknesses: not enough data yet (5 attempts per tag required)\n")
	} else {
		b.WriteString("weaknesses (failure rate, worst first):\n")
		for i, w := range weak {
			fmt.Fprintf(&b, "  %d) %-24s %s  %5.1f%%  (%d/%d)\n",
				i+1, w.Key, LetterGrade(w.Rate), w.Rate*100, w.Failures, w.Attempts)
		}
	}
	b.WriteByte('\n')

	b.WriteString("average score:\n")
	for _, rw := range reportWindows {
		fmt.Fprintf(&b, "  %-10s %d\n", rw.label, a.AverageScore(rw.window, now))
	}
	b.WriteByte('\n')

	n := len(a.Sessions)
	if n == 0 {
		b.WriteString("sessions: none recorded\n")
		return b.String()
	}
	fmt.Fprintf(&b, "sessions (%d total, newest last):\n", n)
	from := n - 8
	if from < 0 {
		from = 0
	}
	for _, s := range a.Sessions[from:] {
		fmt.Fprintf(&b, "  %s  level=%-2d score=%d\n", s.At.Format("2006-01-02 15:04"), s.Level, s.Score)
	}
	return b.String()
}
