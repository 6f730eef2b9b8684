package monitoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// recordLogf swaps in a capturing logger and restores the previous one
// when the test ends.
func recordLogf(t *testing.T) *[]string {
	t.Helper()
	original := Logf
	t.Cleanup(func() { Logf = original })

	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	return &lines
}

func TestLogfFormatsArguments(t *testing.T) {
	lines := recordLogf(t)

	Logf("rebuild took %dms over %d scans", 12, 30)
	Logf("score=%.1f", 250.0)

	assert.Equal(t, []string{
		"rebuild took 12ms over 30 scans",
		"score=250.0",
	}, *lines)
}

func TestSetLoggerNilMutes(t *testing.T) {
	lines := recordLogf(t)

	SetLogger(nil)
	Logf("dropped")
	assert.Empty(t, *lines)

	// Muting must be reversible.
	SetLogger(func(format string, v ...interface{}) {
		*lines = append(*lines, fmt.Sprintf(format, v...))
	})
	Logf("kept")
	assert.Equal(t, []string{"kept"}, *lines)
}

func TestLogfDefaultNotNil(t *testing.T) {
	assert.NotNil(t, Logf)
}
