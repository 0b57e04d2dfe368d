package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/jcorbin/tagvm/internal/bytecode"
	"github.com/jcorbin/tagvm/internal/flushio"
	"github.com/jcorbin/tagvm/internal/heap"
	"github.com/jcorbin/tagvm/internal/panicerr"
	"github.com/jcorbin/tagvm/internal/value"
)

// VM executes one Program against its own operand stack, call frames and
// heap. A VM runs at most once; nothing it owns is shared with other VMs.
type VM struct {
	logging

	prog *bytecode.Program
	ip   int // next instruction
	at   int // current instruction

	// The operand stack holds every intermediate value; instructions take
	// their operands from the top, in push order.
	stack []value.Value

	// Return addresses pushed by CALL, kept apart from the operand stack so
	// that a guest program can never clobber them.
	frames []int

	heap  *heap.Heap
	steps uint64

	heapLimit  uint
	stackLimit int
	frameLimit int

	out flushio.WriteFlusher

	halted bool
	result value.Value
}

// halt stops the run; a nil err is a normal DONE.
func (vm *VM) halt(err error) {
	if err == nil {
		vm.logf("#", "halt %#v", vm.result)
	} else {
		vm.logf("#", "halt error: %v", err)
	}
	panicerr.Halt(err)
}

func (vm *VM) fault(err error) {
	var in bytecode.Instruction
	if vm.prog != nil && vm.at >= 0 && vm.at < vm.prog.Len() {
		in = vm.prog.At(vm.at)
	}
	vm.halt(faultError{vm.at, in, err})
}

func (vm *VM) faultif(err error) {
	if err != nil {
		vm.fault(err)
	}
}

func (vm *VM) exec(ctx context.Context) {
	if vm.logfn != nil {
		defer vm.withLogPrefix("	")()
	}
	for {
		vm.step()
		if err := ctx.Err(); err != nil {
			vm.halt(err)
		}
	}
}

func (vm *VM) step() {
	if vm.ip < 0 || vm.ip >= vm.prog.Len() {
		vm.at = vm.ip
		vm.fault(errRanOff)
	}
	vm.at = vm.ip
	in := vm.prog.At(vm.ip)
	vm.ip++
	vm.steps++
	if vm.logfn != nil {
		vm.logf("exec", "@%v %v -- s:%v r:%v", vm.at, in, vm.stack, vm.frames)
	}
	handler := opTable[in.Op]
	if handler == nil {
		// unreachable for a validated Program
		vm.fault(bytecode.OpcodeError{Index: vm.at, Op: uint64(in.Op)})
	}
	handler(vm, in.Arg)
}

func (vm *VM) run(ctx context.Context) error {
	if vm.prog == nil {
		return errNoProgram
	}
	if vm.heap == nil {
		vm.heap = heap.New(vm.heapLimit)
	}
	vm.exec(ctx)
	return nil
}

//// operand stack

func (vm *VM) push(v value.Value) {
	if vm.stackLimit > 0 && len(vm.stack) >= vm.stackLimit {
		vm.fault(errStackOverflow)
	}
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() value.Value {
	i := len(vm.stack) - 1
	if i < 0 {
		vm.fault(errStackUnderflow)
	}
	v := vm.stack[i]
	vm.stack = vm.stack[:i]
	return v
}

func (vm *VM) peek(depth uint64) value.Value {
	if depth >= uint64(len(vm.stack)) {
		vm.fault(errStackUnderflow)
	}
	return vm.stack[len(vm.stack)-1-int(depth)]
}

// popN removes the top n values, returning them in push order. The returned
// slice aliases the stack and is only valid until the next push.
func (vm *VM) popN(n uint64) []value.Value {
	if n > uint64(len(vm.stack)) {
		vm.fault(errStackUnderflow)
	}
	i := len(vm.stack) - int(n)
	vals := vm.stack[i:]
	vm.stack = vm.stack[:i]
	return vals
}

//// typed operands

func (vm *VM) expect(want value.Kind, v value.Value) value.Value {
	if v.Kind() != want {
		vm.fault(typeError{want, v})
	}
	return v
}

func (vm *VM) popInt() int64 {
	return vm.expect(value.KindInteger, vm.pop()).Int()
}

func (vm *VM) popChar() byte {
	return vm.expect(value.KindChar, vm.pop()).Char()
}

func (vm *VM) pushInt(i int64) {
	v, err := value.EncodeInt(i)
	if err != nil {
		vm.fault(fmt.Errorf("%w: %v", errIntOverflow, err))
	}
	vm.push(v)
}

func (vm *VM) ints(vals []value.Value) []int64 {
	ints := make([]int64, len(vals))
	for i, v := range vals {
		ints[i] = vm.expect(value.KindInteger, v).Int()
	}
	return ints
}

//// control

func (vm *VM) jump(target uint64) {
	if target >= uint64(vm.prog.Len()) {
		vm.fault(fmt.Errorf("%w: %v not in [0, %v)", errJumpTarget, target, vm.prog.Len()))
	}
	vm.ip = int(target)
}

func (vm *VM) call(target uint64) {
	if vm.frameLimit > 0 && len(vm.frames) >= vm.frameLimit {
		vm.fault(errFrameOverflow)
	}
	ret := vm.ip
	vm.jump(target)
	vm.frames = append(vm.frames, ret)
}

func (vm *VM) ret() {
	i := len(vm.frames) - 1
	if i < 0 {
		vm.fault(errFrameUnderflow)
	}
	vm.ip = vm.frames[i]
	vm.frames = vm.frames[:i]
}

//// logging

type logging struct {
	logfn func(mess string, args ...interface{})

	markWidth int
}

func (log *logging) withLogPrefix(prefix string) func() {
	logfn := log.logfn
	log.logfn = func(mess string, args ...interface{}) {
		logfn(prefix+mess, args...)
	}
	return func() {
		log.logfn = logfn
	}
}

func (log *logging) logf(mark, mess string, args ...interface{}) {
	if log.logfn == nil {
		return
	}
	if n := log.markWidth - len(mark); n > 0 {
		mark = strings.Repeat(" ", n) + mark
	} else if n < 0 {
		log.markWidth = len(mark)
	}
	if len(args) > 0 {
		mess = fmt.Sprintf(mess, args...)
	}
	log.logfn("%v %v", mark, mess)
}
