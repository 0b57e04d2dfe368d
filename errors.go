package main

import (
	"errors"
	"fmt"

	"github.com/jcorbin/tagvm/internal/bytecode"
	"github.com/jcorbin/tagvm/internal/value"
)

// Runtime faults. Every one halts the run; none is recoverable by the guest
// program.
var (
	errStackUnderflow = errors.New("operand stack underflow")
	errStackOverflow  = errors.New("operand stack overflow")
	errFrameOverflow  = errors.New("call stack overflow")
	errFrameUnderflow = errors.New("return without call")
	errType           = errors.New("type mismatch")
	errBadRef         = errors.New("invalid heap reference")
	errIntOverflow    = errors.New("integer overflow")
	errBounds         = errors.New("index out of bounds")
	errJumpTarget     = errors.New("jump target outside program")
	errArity          = errors.New("invalid operand count")
	errRanOff         = errors.New("ran off the end of the program")

	errNoProgram = errors.New("no program loaded")
)

// faultError locates a runtime fault at the instruction that raised it.
type faultError struct {
	ip  int
	in  bytecode.Instruction
	err error
}

func (fe faultError) Error() string {
	if fe.in.Op == 0 {
		return fmt.Sprintf("fault @%v: %v", fe.ip, fe.err)
	}
	return fmt.Sprintf("fault @%v %v: %v", fe.ip, fe.in, fe.err)
}

func (fe faultError) Unwrap() error { return fe.err }

type typeError struct {
	want value.Kind
	got  value.Value
}

func (te typeError) Error() string {
	return fmt.Sprintf("%v: expected %v, got %#v", errType, te.want, te.got)
}

func (te typeError) Is(target error) bool { return target == errType }

// outputError marks a failure to render or write the result, as opposed to a
// fault in the guest program.
type outputError struct{ error }

func (oe outputError) Error() string { return fmt.Sprintf("output failed: %v", oe.error) }
func (oe outputError) Unwrap() error { return oe.error }
