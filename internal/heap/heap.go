// Package heap implements the boxed object arena: a bump allocator over a
// monotonically growing word memory. Nothing is ever freed or moved, so a
// reference stays valid for the life of the Heap.
//
// Object layouts, in words:
//
//	pair    car, cdr
//	string  length in bytes, then the bytes packed little-endian 8 per word
//	vector  element count, then the elements
package heap

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/jcorbin/tagvm/internal/mem"
	"github.com/jcorbin/tagvm/internal/value"
)

const wordSize = 8

// ErrExhausted is returned (wrapped) when an allocation would exceed the
// heap's limit.
var ErrExhausted = errors.New("heap exhausted")

// Heap is a bump allocated arena of tagged objects.
type Heap struct {
	mem mem.Words

	// heads holds, per word, the kind of the object that starts there;
	// words inside an object are Malformed.
	heads []value.Kind
}

// New returns a heap limited to limit words; 0 means unlimited.
func New(limit uint) *Heap {
	var h Heap
	h.mem.Limit = limit
	return &h
}

// Watermark returns the number of bytes allocated so far.
func (h *Heap) Watermark() uint64 { return uint64(h.mem.Size()) * wordSize }

func (h *Heap) alloc(kind value.Kind, words ...uint64) (value.Value, error) {
	addr, err := h.mem.Grow(uint(len(words)))
	if err != nil {
		return 0, fmt.Errorf("%w allocating %v %v words: %v", ErrExhausted, len(words), kind, err)
	}
	h.heads = append(h.heads, make([]value.Kind, len(words))...)
	h.heads[addr] = kind
	if err := h.mem.Stor(addr, words...); err != nil {
		return 0, err
	}
	return value.Ref(kind, uint64(addr)*wordSize), nil
}

// AllocPair allocates a pair cell.
func (h *Heap) AllocPair(car, cdr value.Value) (value.Value, error) {
	return h.alloc(value.KindPair, uint64(car), uint64(cdr))
}

// AllocString allocates a copy of b.
func (h *Heap) AllocString(b []byte) (value.Value, error) {
	words := make([]uint64, 1+stringWords(uint64(len(b))))
	words[0] = uint64(len(b))
	packBytes(words[1:], b)
	return h.alloc(value.KindString, words...)
}

// AllocVector allocates a vector holding a copy of vals.
func (h *Heap) AllocVector(vals []value.Value) (value.Value, error) {
	words := make([]uint64, 1+len(vals))
	words[0] = uint64(len(vals))
	for i, v := range vals {
		words[1+i] = uint64(v)
	}
	return h.alloc(value.KindVector, words...)
}

// RefError indicates a value that is not a reference to the start of an
// allocated object of the wanted kind, or whose object does not lie entirely
// below the watermark.
type RefError struct {
	Want value.Kind
	Val  value.Value
	Why  string
}

func (re RefError) Error() string {
	return fmt.Sprintf("invalid %v reference %#016x: %v", re.Want, uint64(re.Val), re.Why)
}

// IndexError indicates an index outside of a string or vector.
type IndexError struct {
	Kind  value.Kind
	Index int64
	Len   uint64
}

func (ie IndexError) Error() string {
	return fmt.Sprintf("%v index %v out of range [0, %v)", ie.Kind, ie.Index, ie.Len)
}

// object checks that v is a reference of kind to where such an object was
// allocated, that its header and first fixed words lie below the watermark,
// and returns its word address.
func (h *Heap) object(kind value.Kind, v value.Value, fixed uint) (uint, error) {
	if k := v.Kind(); k != kind {
		return 0, RefError{kind, v, "is a " + k.String()}
	}
	off := v.Offset()
	addr := uint(off / wordSize)
	if uint64(addr)*wordSize != off || addr+fixed < addr || addr+fixed > h.mem.Size() {
		return 0, RefError{kind, v, fmt.Sprintf("past watermark %#x", h.Watermark())}
	}
	if h.heads[addr] != kind {
		return 0, RefError{kind, v, "not the start of a " + kind.String()}
	}
	return addr, nil
}

// sized checks a length-prefixed object and returns its address and length.
func (h *Heap) sized(kind value.Kind, v value.Value) (addr uint, n uint64, err error) {
	addr, err = h.object(kind, v, 1)
	if err != nil {
		return 0, 0, err
	}
	n, err = h.mem.Load(addr)
	if err != nil {
		return 0, 0, err
	}
	if n > h.Watermark() {
		return 0, 0, RefError{kind, v, fmt.Sprintf("length %v runs past watermark %#x", n, h.Watermark())}
	}
	body := n
	if kind == value.KindString {
		body = stringWords(n)
	}
	if end := uint64(addr) + 1 + body; body > uint64(h.mem.Size()) || end > uint64(h.mem.Size()) {
		return 0, 0, RefError{kind, v, fmt.Sprintf("length %v runs past watermark %#x", n, h.Watermark())}
	}
	return addr, n, nil
}

// Pair returns the car and cdr of a pair.
func (h *Heap) Pair(v value.Value) (car, cdr value.Value, err error) {
	addr, err := h.object(value.KindPair, v, 2)
	if err != nil {
		return 0, 0, err
	}
	var cell [2]uint64
	if err := h.mem.LoadInto(addr, cell[:]); err != nil {
		return 0, 0, err
	}
	return value.Value(cell[0]), value.Value(cell[1]), nil
}

// Car returns the first element of a pair.
func (h *Heap) Car(v value.Value) (value.Value, error) {
	car, _, err := h.Pair(v)
	return car, err
}

// Cdr returns the second element of a pair.
func (h *Heap) Cdr(v value.Value) (value.Value, error) {
	_, cdr, err := h.Pair(v)
	return cdr, err
}

// StringLen returns the byte length of a string.
func (h *Heap) StringLen(v value.Value) (uint64, error) {
	_, n, err := h.sized(value.KindString, v)
	return n, err
}

// StringBytes returns a copy of a string's bytes.
func (h *Heap) StringBytes(v value.Value) ([]byte, error) {
	addr, n, err := h.sized(value.KindString, v)
	if err != nil {
		return nil, err
	}
	words := make([]uint64, stringWords(n))
	if err := h.mem.LoadInto(addr+1, words); err != nil {
		return nil, err
	}
	return unpackBytes(words, n), nil
}

// StringRef returns the i-th byte of a string.
func (h *Heap) StringRef(v value.Value, i int64) (byte, error) {
	addr, n, err := h.sized(value.KindString, v)
	if err != nil {
		return 0, err
	}
	if i < 0 || uint64(i) >= n {
		return 0, IndexError{value.KindString, i, n}
	}
	w, err := h.mem.Load(addr + 1 + uint(i/wordSize))
	if err != nil {
		return 0, err
	}
	return byte(w >> (8 * uint(i%wordSize))), nil
}

// StringSet overwrites the i-th byte of a string.
func (h *Heap) StringSet(v value.Value, i int64, b byte) error {
	addr, n, err := h.sized(value.KindString, v)
	if err != nil {
		return err
	}
	if i < 0 || uint64(i) >= n {
		return IndexError{value.KindString, i, n}
	}
	at := addr + 1 + uint(i/wordSize)
	w, err := h.mem.Load(at)
	if err != nil {
		return err
	}
	shift := 8 * uint(i%wordSize)
	w = w&^(0xff<<shift) | uint64(b)<<shift
	return h.mem.Stor(at, w)
}

// VectorLen returns the element count of a vector.
func (h *Heap) VectorLen(v value.Value) (uint64, error) {
	_, n, err := h.sized(value.KindVector, v)
	return n, err
}

// Vector returns a copy of a vector's elements.
func (h *Heap) Vector(v value.Value) ([]value.Value, error) {
	addr, n, err := h.sized(value.KindVector, v)
	if err != nil {
		return nil, err
	}
	words := make([]uint64, n)
	if err := h.mem.LoadInto(addr+1, words); err != nil {
		return nil, err
	}
	vals := make([]value.Value, n)
	for i, w := range words {
		vals[i] = value.Value(w)
	}
	return vals, nil
}

// VectorRef returns the i-th element of a vector.
func (h *Heap) VectorRef(v value.Value, i int64) (value.Value, error) {
	addr, n, err := h.sized(value.KindVector, v)
	if err != nil {
		return 0, err
	}
	if i < 0 || uint64(i) >= n {
		return 0, IndexError{value.KindVector, i, n}
	}
	w, err := h.mem.Load(addr + 1 + uint(i))
	return value.Value(w), err
}

// VectorSet overwrites the i-th element of a vector.
func (h *Heap) VectorSet(v value.Value, i int64, elem value.Value) error {
	addr, n, err := h.sized(value.KindVector, v)
	if err != nil {
		return err
	}
	if i < 0 || uint64(i) >= n {
		return IndexError{value.KindVector, i, n}
	}
	return h.mem.Stor(addr+1+uint(i), uint64(elem))
}

func stringWords(n uint64) uint64 {
	w := n / wordSize
	if n%wordSize != 0 {
		w++
	}
	return w
}

func packBytes(words []uint64, b []byte) {
	for i := range words {
		var buf [wordSize]byte
		copy(buf[:], b[i*wordSize:])
		words[i] = binary.LittleEndian.Uint64(buf[:])
	}
}

func unpackBytes(words []uint64, n uint64) []byte {
	b := make([]byte, len(words)*wordSize)
	for i, w := range words {
		binary.LittleEndian.PutUint64(b[i*wordSize:], w)
	}
	return b[:n]
}
