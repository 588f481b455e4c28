package seqsummary

import (
	"fmt"
	"sort"
	"strings"
)

// Tally is a frequency table.
type Tally map[string]int

// Add increments key by n.
func (t Tally) Add(key string, n int) { t[key] += n }

// Inc increments key by one.
func (t Tally) Inc(key string) { t[key]++ }

// Total returns the sum of all counts.
func (t Tally) Total() int {
	total := 0
	for _, v := range t {
		total += v
	}
	return total
}

// MostCommon returns the keys ordered by decreasing count, ties broken by name.
func (t Tally) MostCommon() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if t[keys[i]] != t[keys[j]] {
			return t[keys[i]] > t[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

// String renders the tally as "key: count" pairs, most common first.
func (t Tally) String() string {
	if len(t) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(t))
	for _, k := range t.MostCommon() {
		parts = append(parts, fmt.Sprintf("%s: %d", k, t[k]))
	}
	return strings.Join(parts, ", ")
}

// Counters are the per-run statistics. Each extractor owns a private instance; the
// writer merges them once every extractor has finished.
type Counters struct {
	Overall        Tally `json:"overall" yaml:"overall"`
	FieldsFound    Tally `json:"fieldsFound" yaml:"fieldsFound"`
	FieldsNotFound Tally `json:"fieldsNotFound" yaml:"fieldsNotFound"`
}

// NewCounters returns zeroed counters. Both overall outcomes are always present.
func NewCounters() Counters {
	return Counters{
		Overall:        Tally{OutcomeValid: 0, OutcomeInvalid: 0},
		FieldsFound:    Tally{},
		FieldsNotFound: Tally{},
	}
}

// Merge adds every count of o into c.
func (c *Counters) Merge(o Counters) {
	if c.Overall == nil {
		*c = NewCounters()
	}
	for k, v := range o.Overall {
		c.Overall.Add(k, v)
	}
	for k, v := range o.FieldsFound {
		c.FieldsFound.Add(k, v)
	}
	for k, v := range o.FieldsNotFound {
		c.FieldsNotFound.Add(k, v)
	}
}

// ValidFiles returns the number of files that produced a record.
func (c Counters) ValidFiles() int { return c.Overall[OutcomeValid] }

// InvalidFiles returns the number of files that produced no field at all.
func (c Counters) InvalidFiles() int { return c.Overall[OutcomeInvalid] }
