package charname_test

import (
	"testing"

	"github.com/jcorbin/tagvm/internal/charname"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Parse(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want byte
	}{
		{"a", 'a'},
		{"x", 'x'},
		{"(", '('},
		{"x61", 'a'},
		{"xff", 0xff},
		{"X0A", '\n'},
		{"space", ' '},
		{"newline", '\n'},
		{"nul", 0},
		{"<ESC>", 0x1b},
		{"<esc>", 0x1b},
		{"^[", 0x1b},
		{"^@", 0},
		{"<DEL>", 0x7f},
		{"<NEL>", 0x85},
	} {
		b, err := charname.Parse(tc.in)
		if assert.NoError(t, err, "unexpected error parsing %q", tc.in) {
			assert.Equal(t, tc.want, b, "expected %q to parse", tc.in)
		}
	}

	for _, in := range []string{"", "ab", "xzz", "<NOPE>", "spacey"} {
		_, err := charname.Parse(in)
		assert.Error(t, err, "expected %q to be rejected", in)
	}
}

func Test_Name(t *testing.T) {
	for i := 0; i < 256; i++ {
		name := charname.Name(byte(i))
		b, err := charname.Parse(name)
		require.NoError(t, err, "expected name %q of %#x to parse", name, i)
		require.Equal(t, byte(i), b, "expected name %q to round trip", name)
	}
	assert.Equal(t, "<NL>", charname.Name('\n'))
	assert.Equal(t, "a", charname.Name('a'))
	assert.Equal(t, "xe9", charname.Name(0xe9))
}
