package game

import (
	"fmt"
	"strings"
)

// EventEntry is one recorded machine event.
type EventEntry struct {
	Tick     int
	Category string  // status, round, level, timer, practice, persist
	Key      string  // specific event name within the category
	Value    string  // human-readable detail
	NumVal   float64 // optional numeric value for threshold checks
}

// String formats the entry as a fixed-width log line.
//
//	[T=0042] round     loss             wrong_cell at (2,4)
func (e EventEntry) String() string {
	return fmt.Sprintf("[T=%04d] %-9s %-16s %s", e.Tick, e.Category, e.Key, e.Value)
}

// EventLog collects structured machine events. It is unbounded and
// machine-readable; the headless harness and tests drive assertions off it.
type EventLog struct {
	entries []EventEntry
	verbose bool
}

// NewEventLog creates an EventLog. If verbose is true, per-tick timer
// entries are also recorded.
func NewEventLog(verbose bool) *EventLog {
	return &EventLog{verbose: verbose}
}

// Add records a new entry.
func (el *EventLog) Add(tick int, category, key, value string, numVal float64) {
	el.entries = append(el.entries, EventEntry{
		Tick:     tick,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   numVal,
	})
}

// AddVerbose records an entry only when verbose mode is on.
func (el *EventLog) AddVerbose(tick int, category, key, value string, numVal float64) {
	if !el.verbose {
		return
	}
	el.Add(tick, category, key, value, numVal)
}

// Entries returns all recorded entries.
func (el *EventLog) Entries() []EventEntry {
	return el.entries
}

// Filter returns entries matching the given category and/or key.
// Pass empty string to match any value for that field.
func (el *EventLog) Filter(category, key string) []EventEntry {
	var out []EventEntry
	for _, e := range el.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		out = append(out, e)
	}
	return out
}

// CountCategory returns how many entries match the given category and key.
func (el *EventLog) CountCategory(category, key string) int {
	return len(el.Filter(category, key))
}

// LastOf returns the most recent entry matching category+key, or false if none.
func (el *EventLog) LastOf(category, key string) (EventEntry, bool) {
	entries := el.Filter(category, key)
	if len(entries) == 0 {
		return EventEntry{}, false
	}
	return entries[len(entries)-1], true
}

// HasEntry returns true if at least one entry matches category, key, and
// value substring.
func (el *EventLog) HasEntry(category, key, valueSubstr string) bool {
	for _, e := range el.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		if valueSubstr != "" && !strings.Contains(e.Value, valueSubstr) {
			continue
		}
		return true
	}
	return false
}

// Format returns the full log as a single string for t.Log output.
func (el *EventLog) Format() string {
	var sb strings.Builder
	for _, e := range el.entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
