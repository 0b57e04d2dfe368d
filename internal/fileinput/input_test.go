package fileinput_test

import (
	"io"
	"strings"
	"testing"

	"github.com/jcorbin/tagvm/internal/fileinput"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Input(t *testing.T) {
	in := fileinput.Input{Queue: []io.Reader{
		fileinput.Named("a.s", strings.NewReader("LOAD 1\r\nDONE\n")),
		strings.NewReader("\nno newline"),
	}}

	var got []string
	for {
		line, err := in.ReadLine()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, line.String())
	}
	assert.Equal(t, []string{
		`a.s:1 "LOAD 1"`,
		`a.s:2 "DONE"`,
		`<unnamed *strings.Reader>:1 ""`,
		`<unnamed *strings.Reader>:2 "no newline"`,
	}, got)

	_, err := in.ReadLine()
	assert.Equal(t, io.EOF, err, "expected EOF to stick")
}
