package activity

import "fmt"

// Summary is a point-in-time view of the aggregator. Log is in
// insertion order.
type Summary struct {
	Counts map[Kind]int
	Log    []Record
}

func (s Summary) Total() int {
	n := 0
	for _, c := range s.Counts {
		n += c
	}
	return n
}

// Newest returns the log most-recent-first.
func (s Summary) Newest() []Record {
	out := make([]Record, len(s.Log))
	for i, r := range s.Log {
		out[len(s.Log)-1-i] = r
	}
	return out
}

// Lines renders one "<kind>: <n> times" line per kind.
func (s Summary) Lines() []string {
	lines := make([]string, 0, kindCount)
	for _, k := range Kinds() {
		lines = append(lines, fmt.Sprintf("%s: %d times", k, s.Counts[k]))
	}
	return lines
}
