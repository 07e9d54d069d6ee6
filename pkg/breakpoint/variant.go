package breakpoint

import (
	"fmt"
)

// Variant classifies one channel of an NN score vector with its own table.
type Variant struct {
	// Name identifies the variant in output products
	Name string `yaml:"name"`

	// Output is the index of the score channel the variant reads
	Output int `yaml:"output"`

	// Breakpoints delimit the categories
	Breakpoints Table `yaml:"breakpoints"`
}

// VariantSet is an ordered list of independent variants, e.g. eight NN-score
// channels of one sensor mode.
type VariantSet []Variant

// Validate checks every table and that names are unique.
func (s VariantSet) Validate() error {
	seen := make(map[string]bool, len(s))
	for i, v := range s {
		if v.Name == "" {
			return fmt.Errorf("variant %d has no name", i)
		}
		if seen[v.Name] {
			return fmt.Errorf("duplicate variant %q", v.Name)
		}
		seen[v.Name] = true
		if v.Output < 0 {
			return fmt.Errorf("variant %q: negative output index %d", v.Name, v.Output)
		}
		if err := v.Breakpoints.Validate(); err != nil {
			return fmt.Errorf("variant %q: %w", v.Name, err)
		}
	}
	return nil
}

// Classify writes one category per variant into dst and returns it. A variant whose
// output channel is missing from scores is Unprocessed.
func (s VariantSet) Classify(scores []float64, dst []Category) []Category {
	if cap(dst) < len(s) {
		dst = make([]Category, len(s))
	}
	dst = dst[:len(s)]
	for i, v := range s {
		if v.Output >= len(scores) {
			dst[i] = Unprocessed
			continue
		}
		dst[i] = v.Breakpoints.Classify(scores[v.Output])
	}
	return dst
}
