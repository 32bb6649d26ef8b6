package codec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/locus/pkg/stream"
)

type stepTarget struct {
	seen []string
}

func recordStep(name string) func(*stepTarget, *stream.Reader) error {
	return func(t *stepTarget, r *stream.Reader) error {
		t.seen = append(t.seen, name)
		return nil
	}
}

func testSteps() Steps[*stepTarget] {
	return Steps[*stepTarget]{
		{Name: "base", Since: 0, Read: recordStep("base")},
		{Name: "flat", Since: 0, Until: 3, Read: recordStep("flat")},
		{Name: "maps", Since: 3, Until: 5, Read: recordStep("maps")},
		{Name: "unified", Since: 5, Read: recordStep("unified")},
	}
}

func TestSteps_Apply(t *testing.T) {
	testCases := []struct {
		version int32
		want    []string
	}{
		{0, []string{"base", "flat"}},
		{2, []string{"base", "flat"}},
		{3, []string{"base", "maps"}},
		{4, []string{"base", "maps"}},
		{5, []string{"base", "unified"}},
		{9, []string{"base", "unified"}},
	}

	steps := testSteps()
	require.NoError(t, steps.Validate())

	for _, tc := range testCases {
		target := &stepTarget{}
		require.NoError(t, steps.Apply(tc.version, target, stream.NewReader(nil)))
		assert.Equal(t, tc.want, target.seen, "version %d", tc.version)
		assert.Equal(t, tc.want, steps.Applied(tc.version))
	}
}

func TestSteps_ApplyWrapsError(t *testing.T) {
	boom := errors.New("boom")
	steps := Steps[*stepTarget]{
		{Name: "broken", Since: 1, Read: func(*stepTarget, *stream.Reader) error { return boom }},
	}

	assert.NoError(t, steps.Apply(0, &stepTarget{}, nil))

	err := steps.Apply(1, &stepTarget{}, nil)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "broken")
}

func TestSteps_Validate(t *testing.T) {
	unordered := Steps[*stepTarget]{
		{Name: "b", Since: 2, Read: recordStep("b")},
		{Name: "a", Since: 1, Read: recordStep("a")},
	}
	assert.Error(t, unordered.Validate())

	backwards := Steps[*stepTarget]{{Name: "x", Since: 3, Until: 3, Read: recordStep("x")}}
	assert.Error(t, backwards.Validate())

	missing := Steps[*stepTarget]{{Name: "y", Since: 0}}
	assert.Error(t, missing.Validate())
}
