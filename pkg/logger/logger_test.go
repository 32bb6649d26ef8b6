package logger

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)

	l.Debugf("debug %d", 1)
	l.Infof("info %d", 2)
	l.Warnf("warn %d", 3)
	l.Errorf("error %d", 4)

	out := buf.String()
	assert.NotContains(t, out, "debug 1")
	assert.NotContains(t, out, "info 2")
	assert.Contains(t, out, "WARN:  warn 3")
	assert.Contains(t, out, "ERROR: error 4")
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestStandardLogger_WithPrefix(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelDebug).WithPrefix("journal: ")

	l.Debugf("opened %s", "a.log")
	assert.Contains(t, buf.String(), "journal: DEBUG: opened a.log")
}

func TestParseLevel(t *testing.T) {
	testCases := map[string]int{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"":        LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
	}
	for in, want := range testCases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

type recorder struct{ lines []string }

func (r *recorder) Logf(format string, v ...interface{}) {
	r.lines = append(r.lines, fmt.Sprintf(format, v...))
}

func TestLogfLogger(t *testing.T) {
	r := &recorder{}
	l := NewLogfLogger(r).WithPrefix("x: ")
	l.Infof("a=%d", 1)
	l.Errorf("b")
	assert.Equal(t, []string{"x: a=1", "x: b"}, r.lines)

	NopLogger.WithPrefix("ignored").Errorf("nothing")
}
