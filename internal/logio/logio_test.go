package logio_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/jcorbin/tagvm/internal/logio"
	"github.com/stretchr/testify/assert"
)

func Test_Logger(t *testing.T) {
	var out strings.Builder
	var log logio.Logger
	log.SetOutput(&out)

	log.Leveledf("INFO")("loaded %v instructions", 3)
	log.Printf("", "bare line\n")
	assert.Equal(t, 0, log.ExitCode())

	log.Exitf(2, "load failed: %v", "truncated")
	log.Errorf("later fault")
	assert.Equal(t, 2, log.ExitCode(), "expected the highest exit code to stick")

	assert.Equal(t, strings.Join([]string{
		"INFO: loaded 3 instructions",
		"bare line",
		"ERROR: load failed: truncated",
		"ERROR: later fault",
	}, "\n")+"\n", out.String())
}

func Test_Logger_noOutput(t *testing.T) {
	var log logio.Logger
	log.Errorf("dropped")
	assert.Equal(t, 1, log.ExitCode())
}

func Test_Writer(t *testing.T) {
	var got []string
	lw := logio.Writer{
		Logf:   func(mess string, args ...interface{}) { got = append(got, fmt.Sprintf(mess, args...)) },
		Prefix: "out: ",
	}
	fmt.Fprintf(&lw, "one\ntw")
	fmt.Fprintf(&lw, "o\nthree")
	assert.Equal(t, []string{"out: one", "out: two"}, got)
	assert.NoError(t, lw.Close())
	assert.Equal(t, []string{"out: one", "out: two", "out: three"}, got)
}
