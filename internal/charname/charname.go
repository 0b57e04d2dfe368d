// Package charname names the bytes that have no printable form, for reading
// and writing character literals like #\newline, #\<ESC> or #\^[.
package charname

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Control names one control byte.
type Control struct {
	N string
	B byte
}

// C0 contains the classic ASCII control characters.
var C0 = [32]Control{
	{"<NUL>", 0x00},
	{"<SOH>", 0x01},
	{"<STX>", 0x02},
	{"<ETX>", 0x03},
	{"<EOT>", 0x04},
	{"<ENQ>", 0x05},
	{"<ACK>", 0x06},
	{"<BEL>", 0x07},
	{"<BS>", 0x08},
	{"<HT>", 0x09},
	{"<NL>", 0x0A},
	{"<VT>", 0x0B},
	{"<NP>", 0x0C},
	{"<CR>", 0x0D},
	{"<SO>", 0x0E},
	{"<SI>", 0x0F},
	{"<DLE>", 0x10},
	{"<DC1>", 0x11},
	{"<DC2>", 0x12},
	{"<DC3>", 0x13},
	{"<DC4>", 0x14},
	{"<NAK>", 0x15},
	{"<SYN>", 0x16},
	{"<ETB>", 0x17},
	{"<CAN>", 0x18},
	{"<EM>", 0x19},
	{"<SUB>", 0x1A},
	{"<ESC>", 0x1B},
	{"<FS>", 0x1C},
	{"<GS>", 0x1D},
	{"<RS>", 0x1E},
	{"<US>", 0x1F},
}

// Pseudo provides the typical mnemonics for space and delete.
var Pseudo = [2]Control{
	{"<SP>", 0x20},
	{"<DEL>", 0x7F},
}

// C1 contains the extended ISO-8859 control characters.
var C1 = [32]Control{
	{"<PAD>", 0x80},
	{"<HOP>", 0x81},
	{"<BPH>", 0x82},
	{"<NBH>", 0x83},
	{"<IND>", 0x84},
	{"<NEL>", 0x85},
	{"<SSA>", 0x86},
	{"<ESA>", 0x87},
	{"<HTS>", 0x88},
	{"<HTJ>", 0x89},
	{"<VTS>", 0x8A},
	{"<PLD>", 0x8B},
	{"<PLU>", 0x8C},
	{"<RI>", 0x8D},
	{"<SS2>", 0x8E},
	{"<SS3>", 0x8F},
	{"<DCS>", 0x90},
	{"<PU1>", 0x91},
	{"<PU2>", 0x92},
	{"<STS>", 0x93},
	{"<CCH>", 0x94},
	{"<MW>", 0x95},
	{"<SPA>", 0x96},
	{"<EPA>", 0x97},
	{"<SOS>", 0x98},
	{"<SGCI>", 0x99},
	{"<SCI>", 0x9A},
	{"<CSI>", 0x9B},
	{"<ST>", 0x9C},
	{"<OSC>", 0x9D},
	{"<PM>", 0x9E},
	{"<APC>", 0x9F},
}

// Named are the long character names of the guest language.
var Named = map[string]byte{
	"nul":       0x00,
	"null":      0x00,
	"alarm":     0x07,
	"backspace": 0x08,
	"tab":       0x09,
	"newline":   0x0A,
	"linefeed":  0x0A,
	"return":    0x0D,
	"escape":    0x1B,
	"space":     0x20,
	"delete":    0x7F,
	"rubout":    0x7F,
}

var words map[string]byte

func addControls(table map[string]byte, ctls []Control) {
	for _, ctl := range ctls {
		table[strings.ToUpper(ctl.N)] = ctl.B
		table[strings.ToLower(ctl.N)] = ctl.B
		if caret := CaretForm(ctl.B); caret != "" {
			table[caret] = ctl.B
		}
	}
}

func init() {
	words = make(map[string]byte, 3*(len(C0)+len(Pseudo)+len(C1))+len(Named))
	addControls(words, C0[:])
	addControls(words, Pseudo[:])
	addControls(words, C1[:])
	for name, b := range Named {
		words[name] = b
	}
}

// CaretForm computes the ^-escaped form of a control byte, or "" for any
// other byte.
func CaretForm(b byte) string {
	if b < 0x20 || b == 0x7f {
		return "^" + string(rune(b^0x40))
	} else if 0x80 <= b && b <= 0x9f {
		return "^[" + string(rune(b^0xc0))
	}
	return ""
}

var errInvalid = errors.New(`character must be a single byte, "xHH", "<NAME>", "^X" or a name like "space"`)

// Parse decodes the text following #\ in a character literal.
func Parse(token string) (byte, error) {
	if len(token) == 1 {
		return token[0], nil
	}
	if b, defined := words[token]; defined {
		return b, nil
	}
	if len(token) == 3 && (token[0] == 'x' || token[0] == 'X') {
		n, err := strconv.ParseUint(token[1:], 16, 8)
		if err != nil {
			return 0, fmt.Errorf("invalid hex character %q: %w", token, err)
		}
		return byte(n), nil
	}
	return 0, errInvalid
}

// Name returns a readable form of b: the byte itself when printable, its
// control mnemonic otherwise, or a hex escape.
func Name(b byte) string {
	switch {
	case 0x20 < b && b < 0x7f:
		return string(rune(b))
	case b < 0x20:
		return C0[b].N
	case b == 0x20:
		return Pseudo[0].N
	case b == 0x7f:
		return Pseudo[1].N
	case b <= 0x9f:
		return C1[b-0x80].N
	}
	return fmt.Sprintf("x%02x", b)
}
