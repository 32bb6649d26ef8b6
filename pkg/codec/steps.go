package codec

import (
	"fmt"

	"github.com/ssargent/locus/pkg/stream"
)

// Step is one generation of a record's historical layout. It reads the fields
// that generation added, for every version in [Since, Until).
type Step[T any] struct {
	Name  string
	Since int32
	Until int32 // 0 while the generation is still written
	Read  func(target T, r *stream.Reader) error
}

// AppliesTo reports whether a payload written with version contains this step
func (s Step[T]) AppliesTo(version int32) bool {
	return version >= s.Since && (s.Until == 0 || version < s.Until)
}

// Steps is an ordered list of upgrade steps applied against one target
type Steps[T any] []Step[T]

// Apply runs every step that applies to version, in order
func (steps Steps[T]) Apply(version int32, target T, r *stream.Reader) error {
	for _, s := range steps {
		if !s.AppliesTo(version) {
			continue
		}
		if err := s.Read(target, r); err != nil {
			return fmt.Errorf("%s (v%d+): %w", s.Name, s.Since, err)
		}
	}
	return nil
}

// Validate checks that steps are ordered by Since and that retired steps
// retire after they start.
func (steps Steps[T]) Validate() error {
	for i, s := range steps {
		if s.Read == nil {
			return fmt.Errorf("step %q has no reader", s.Name)
		}
		if s.Until != 0 && s.Until <= s.Since {
			return fmt.Errorf("step %q retires at v%d before it starts at v%d", s.Name, s.Until, s.Since)
		}
		if i > 0 && s.Since < steps[i-1].Since {
			return fmt.Errorf("step %q (v%d) is ordered after %q (v%d)", s.Name, s.Since, steps[i-1].Name, steps[i-1].Since)
		}
	}
	return nil
}

// Applied returns the names of the steps a version runs, in order
func (steps Steps[T]) Applied(version int32) []string {
	var names []string
	for _, s := range steps {
		if s.AppliesTo(version) {
			names = append(names, s.Name)
		}
	}
	return names
}
