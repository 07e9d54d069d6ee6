// Package breakpoint maps scalar scores onto ordered categories delimited by a
// strictly increasing list of thresholds.
package breakpoint

import (
	"errors"
	"fmt"
	"math"
)

// Category is the index of the half-open interval a score falls into.
type Category int

// Unprocessed marks a score that was not computed upstream (negative or NaN).
const Unprocessed Category = -1

// ErrNotIncreasing is returned for a table whose thresholds are not strictly
// increasing.
var ErrNotIncreasing = errors.New("breakpoints not strictly increasing")

// ErrEmptyTable is returned for a table without thresholds.
var ErrEmptyTable = errors.New("empty breakpoint table")

// Classify returns the category of score: 0 below breakpoints[0], k for
// breakpoints[k-1] <= score < breakpoints[k], len(breakpoints) at or above the last
// threshold. A threshold value belongs to the upper category.
func Classify(score float64, breakpoints []float64) Category {
	if score < 0 || math.IsNaN(score) {
		return Unprocessed
	}
	for k, bp := range breakpoints {
		if score < bp {
			return Category(k)
		}
	}
	return Category(len(breakpoints))
}

// Table is a validated breakpoint list.
type Table []float64

// NewTable validates and copies breakpoints.
func NewTable(breakpoints ...float64) (Table, error) {
	t := Table(append([]float64(nil), breakpoints...))
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks that the table is non-empty, finite and strictly increasing.
func (t Table) Validate() error {
	if len(t) == 0 {
		return ErrEmptyTable
	}
	for i, v := range t {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("breakpoint %d is not finite: %v", i, v)
		}
		if i > 0 && v <= t[i-1] {
			return fmt.Errorf("breakpoint %d (%v) <= breakpoint %d (%v): %w", i, v, i-1, t[i-1], ErrNotIncreasing)
		}
	}
	return nil
}

// Classify maps score through the table.
func (t Table) Classify(score float64) Category {
	return Classify(score, t)
}

// Categories returns the number of regular categories, len(t)+1.
func (t Table) Categories() int { return len(t) + 1 }

// Label names category c of this table.
func (t Table) Label(c Category) string { return Label(c, len(t)) }

// Count tallies cats by label. Every regular category of the table is present,
// Unprocessed only when it occurs.
func (t Table) Count(cats []Category) map[string]int {
	counts := make([]int, t.Categories())
	unprocessed := 0
	for _, c := range cats {
		if c == Unprocessed || int(c) >= len(counts) {
			unprocessed++
			continue
		}
		counts[c]++
	}
	out := make(map[string]int, len(counts)+1)
	for i, n := range counts {
		out[t.Label(Category(i))] = n
	}
	if unprocessed > 0 {
		out[t.Label(Unprocessed)] = unprocessed
	}
	return out
}

// Label names a category for a table with n thresholds. Two thresholds give
// CLEAR/AMBIGUOUS/CLOUD, three give CLEAR/AMBIGUOUS/INTERMEDIATE/CLOUD.
func Label(c Category, n int) string {
	if c == Unprocessed {
		return "UNPROCESSED"
	}
	switch {
	case c == 0:
		return "CLEAR"
	case int(c) == n:
		return "CLOUD"
	case c == 1:
		return "AMBIGUOUS"
	case c == 2 && n == 3:
		return "INTERMEDIATE"
	default:
		return fmt.Sprintf("CATEGORY_%d", c)
	}
}
