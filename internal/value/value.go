// Package value implements the tagged 64-bit word that every stack slot and
// heap cell holds.
//
// The low bits of a word are its tag. Integers use two tag bits, heap
// references use two or three, and the remaining immediates (characters and
// the sentinels) all share the low three bits 111 and are told apart by their
// low byte:
//
//	xxxx...xx00  integer, payload is the word arithmetically shifted right by 2
//	xxxx...xx10  vector reference
//	xxxx...x001  pair reference
//	xxxx...x011  string reference
//	0000...cc0f  character c
//	0x1f         #f
//	0x9f         #t
//	0x2f         '()
//	all ones     unspecified
//
// Any other word is malformed.
package value

import (
	"fmt"

	"github.com/jcorbin/tagvm/internal/charname"
)

// Value is a tagged word.
type Value uint64

// Kind classifies a Value.
type Kind uint8

// Kinds; Malformed is the zero Kind so that an unclassified word never
// passes for anything else.
const (
	KindMalformed Kind = iota
	KindInteger
	KindBoolean
	KindChar
	KindNull
	KindUnspecified
	KindPair
	KindString
	KindVector
)

var kindNames = [...]string{
	KindMalformed:   "malformed",
	KindInteger:     "integer",
	KindBoolean:     "boolean",
	KindChar:        "char",
	KindNull:        "null",
	KindUnspecified: "unspecified",
	KindPair:        "pair",
	KindString:      "string",
	KindVector:      "vector",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

const (
	intMask   = 0b11
	intTag    = 0b00
	vectorTag = 0b10
	refMask   = 0b111
	pairTag   = 0b001
	stringTag = 0b011

	charMask = 0xff
	charTag  = 0x0f
)

// Sentinels.
const (
	False       Value = 0x1f
	True        Value = 0x9f
	EmptyList   Value = 0x2f
	Unspecified Value = ^Value(0)
)

// Integer payloads are 62-bit two's complement.
const (
	MaxInt = 1<<61 - 1
	MinInt = -1 << 61
)

// Kind classifies v; it is total, returning Malformed for any word that
// matches no pattern.
func (v Value) Kind() Kind {
	switch v & intMask {
	case intTag:
		return KindInteger
	case vectorTag:
		return KindVector
	}
	switch v & refMask {
	case pairTag:
		return KindPair
	case stringTag:
		return KindString
	case 0b101:
		return KindMalformed
	}
	switch v {
	case True, False:
		return KindBoolean
	case EmptyList:
		return KindNull
	case Unspecified:
		return KindUnspecified
	}
	if v&charMask == charTag && v>>16 == 0 {
		return KindChar
	}
	return KindMalformed
}

// Decode classifies v, returning a MalformedError instead of the Malformed
// kind.
func Decode(v Value) (Kind, error) {
	if k := v.Kind(); k != KindMalformed {
		return k, nil
	}
	return KindMalformed, MalformedError(v)
}

// EncodeInt tags i as an Integer, or returns a RangeError if it does not fit
// in 62 bits.
func EncodeInt(i int64) (Value, error) {
	if i < MinInt || i > MaxInt {
		return 0, RangeError(i)
	}
	return Value(uint64(i) << 2), nil
}

// Int returns the integer payload of v, which must be an Integer.
func (v Value) Int() int64 { return int64(v) >> 2 }

// EncodeChar tags b as a Char.
func EncodeChar(b byte) Value { return Value(b)<<8 | charTag }

// Char returns the byte payload of v, which must be a Char.
func (v Value) Char() byte { return byte(v >> 8) }

// Bool returns True or False.
func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

// Truthy reports whether a conditional treats v as true: everything but #f.
func (v Value) Truthy() bool { return v != False }

// Ref tags a heap byte offset as a reference of kind k. The offset must be
// 8-byte aligned and k one of Pair, String or Vector.
func Ref(k Kind, offset uint64) Value {
	if offset&refMask != 0 {
		panic(fmt.Sprintf("misaligned %v offset %#x", k, offset))
	}
	switch k {
	case KindPair:
		return Value(offset | pairTag)
	case KindString:
		return Value(offset | stringTag)
	case KindVector:
		return Value(offset | vectorTag)
	}
	panic(fmt.Sprintf("not a reference kind: %v", k))
}

// Offset returns the heap byte offset of a reference.
func (v Value) Offset() uint64 {
	if v&intMask == vectorTag {
		return uint64(v &^ intMask)
	}
	return uint64(v &^ refMask)
}

// IsRef reports whether v refers into the heap.
func (v Value) IsRef() bool {
	switch v.Kind() {
	case KindPair, KindString, KindVector:
		return true
	}
	return false
}

// GoString renders v for debugging, without dereferencing references.
func (v Value) GoString() string {
	switch k := v.Kind(); k {
	case KindInteger:
		return fmt.Sprint(v.Int())
	case KindBoolean:
		if v == True {
			return "#t"
		}
		return "#f"
	case KindChar:
		return "#\\" + charname.Name(v.Char())
	case KindNull:
		return "'()"
	case KindUnspecified:
		return "#<unspecified>"
	case KindPair, KindString, KindVector:
		return fmt.Sprintf("#<%v @%#x>", k, v.Offset())
	default:
		return fmt.Sprintf("#<malformed %#016x>", uint64(v))
	}
}

func (v Value) String() string { return v.GoString() }

// RangeError reports an integer that does not fit in a tagged word.
type RangeError int64

func (i RangeError) Error() string {
	return fmt.Sprintf("integer %d out of range [%d, %d]", int64(i), int64(MinInt), int64(MaxInt))
}

// MalformedError reports a word that matches no tag pattern.
type MalformedError Value

func (v MalformedError) Error() string {
	return fmt.Sprintf("value is malformed: %#016x", uint64(v))
}
