package main

import (
	"errors"
	"fmt"

	"github.com/jcorbin/tagvm/internal/bytecode"
	"github.com/jcorbin/tagvm/internal/heap"
	"github.com/jcorbin/tagvm/internal/value"
)

type opFunc func(vm *VM, arg uint64)

var opTable map[bytecode.Opcode]opFunc

func init() {
	opTable = map[bytecode.Opcode]opFunc{
		bytecode.Load:   func(vm *VM, arg uint64) { vm.push(value.Value(arg)) },
		bytecode.Get:    func(vm *VM, arg uint64) { vm.push(vm.peek(arg)) },
		bytecode.Forget: func(vm *VM, _ uint64) { vm.pop() },
		bytecode.Fall:   (*VM).fall,

		bytecode.Add1: func(vm *VM, _ uint64) { vm.pushInt(vm.popInt() + 1) },
		bytecode.Sub1: func(vm *VM, _ uint64) { vm.pushInt(vm.popInt() - 1) },
		bytecode.Add:  (*VM).add,
		bytecode.Sub:  (*VM).sub,
		bytecode.Mul:  (*VM).mul,
		bytecode.Lt:   (*VM).lt,
		bytecode.Eq:   (*VM).eq,
		bytecode.Eqp:  (*VM).eqp,

		bytecode.ZeroP:    func(vm *VM, _ uint64) { vm.push(value.Bool(vm.popInt() == 0)) },
		bytecode.IntegerP: kindP(value.KindInteger),
		bytecode.BooleanP: kindP(value.KindBoolean),
		bytecode.CharP:    kindP(value.KindChar),
		bytecode.NullP:    kindP(value.KindNull),
		bytecode.Not:      func(vm *VM, _ uint64) { vm.push(value.Bool(!vm.pop().Truthy())) },

		bytecode.IntToChar: (*VM).intToChar,
		bytecode.CharToInt: func(vm *VM, _ uint64) { vm.pushInt(int64(vm.popChar())) },

		bytecode.Cons: (*VM).cons,
		bytecode.Car:  (*VM).car,
		bytecode.Cdr:  (*VM).cdr,

		bytecode.String:       (*VM).makeString,
		bytecode.StringRef:    (*VM).stringRef,
		bytecode.StringSet:    (*VM).stringSet,
		bytecode.StringAppend: (*VM).stringAppend,
		bytecode.StringLength: (*VM).stringLength,

		bytecode.Vector:       (*VM).vector,
		bytecode.VectorRef:    (*VM).vectorRef,
		bytecode.VectorSet:    (*VM).vectorSet,
		bytecode.VectorLength: (*VM).vectorLength,

		bytecode.Jump: func(vm *VM, arg uint64) { vm.jump(arg) },
		bytecode.CJump: func(vm *VM, arg uint64) {
			if !vm.pop().Truthy() {
				vm.jump(arg)
			}
		},
		bytecode.Call:   func(vm *VM, arg uint64) { vm.call(arg) },
		bytecode.Return: func(vm *VM, _ uint64) { vm.ret() },
		bytecode.Done:   (*VM).done,
	}
}

func (vm *VM) fall(n uint64) {
	top := vm.pop()
	vm.popN(n)
	vm.push(top)
}

func (vm *VM) done(_ uint64) {
	vm.result = vm.peek(0)
	vm.halted = true
	vm.halt(nil)
}

//// arithmetic

func (vm *VM) add(n uint64) {
	var sum int64
	for _, i := range vm.ints(vm.popN(n)) {
		sum += i
		if sum < value.MinInt || sum > value.MaxInt {
			vm.fault(errIntOverflow)
		}
	}
	vm.pushInt(sum)
}

func (vm *VM) sub(n uint64) {
	if n == 0 {
		vm.fault(fmt.Errorf("%w: SUB needs at least one operand", errArity))
	}
	ints := vm.ints(vm.popN(n))
	if len(ints) == 1 {
		vm.pushInt(-ints[0])
		return
	}
	diff := ints[0]
	for _, i := range ints[1:] {
		diff -= i
		if diff < value.MinInt || diff > value.MaxInt {
			vm.fault(errIntOverflow)
		}
	}
	vm.pushInt(diff)
}

func (vm *VM) mul(n uint64) {
	prod := int64(1)
	for _, i := range vm.ints(vm.popN(n)) {
		if i != 0 && prod != 0 {
			p := prod * i
			if p/i != prod || p < value.MinInt || p > value.MaxInt {
				vm.fault(errIntOverflow)
			}
			prod = p
		} else {
			prod = 0
		}
	}
	vm.pushInt(prod)
}

func (vm *VM) lt(n uint64) {
	ints := vm.ints(vm.popN(n))
	ok := true
	for i := 1; i < len(ints); i++ {
		if ints[i-1] >= ints[i] {
			ok = false
			break
		}
	}
	vm.push(value.Bool(ok))
}

func (vm *VM) eq(n uint64) {
	ints := vm.ints(vm.popN(n))
	ok := true
	for i := 1; i < len(ints); i++ {
		if ints[i-1] != ints[i] {
			ok = false
			break
		}
	}
	vm.push(value.Bool(ok))
}

func (vm *VM) eqp(n uint64) {
	vals := vm.popN(n)
	ok := true
	for i := 1; i < len(vals); i++ {
		if vals[i-1] != vals[i] {
			ok = false
			break
		}
	}
	vm.push(value.Bool(ok))
}

func kindP(kind value.Kind) opFunc {
	return func(vm *VM, _ uint64) { vm.push(value.Bool(vm.pop().Kind() == kind)) }
}

func (vm *VM) intToChar(_ uint64) {
	i := vm.popInt()
	if i < 0 || i > 0xff {
		vm.fault(fmt.Errorf("%w: no character for %v", errBounds, i))
	}
	vm.push(value.EncodeChar(byte(i)))
}

//// heap objects

// heapif faults on any heap error, classifying it.
func (vm *VM) heapif(err error) {
	if err == nil {
		return
	}
	var (
		ie heap.IndexError
		re heap.RefError
	)
	switch {
	case errors.As(err, &ie):
		vm.fault(fmt.Errorf("%w: %v", errBounds, err))
	case errors.As(err, &re):
		vm.fault(fmt.Errorf("%w: %v", errBadRef, err))
	default:
		vm.fault(err)
	}
}

func (vm *VM) cons(_ uint64) {
	cdr := vm.pop()
	car := vm.pop()
	p, err := vm.heap.AllocPair(car, cdr)
	vm.heapif(err)
	vm.push(p)
}

func (vm *VM) car(_ uint64) {
	car, err := vm.heap.Car(vm.expect(value.KindPair, vm.pop()))
	vm.heapif(err)
	vm.push(car)
}

func (vm *VM) cdr(_ uint64) {
	cdr, err := vm.heap.Cdr(vm.expect(value.KindPair, vm.pop()))
	vm.heapif(err)
	vm.push(cdr)
}

func (vm *VM) makeString(n uint64) {
	vals := vm.popN(n)
	b := make([]byte, len(vals))
	for i, v := range vals {
		b[i] = vm.expect(value.KindChar, v).Char()
	}
	s, err := vm.heap.AllocString(b)
	vm.heapif(err)
	vm.push(s)
}

func (vm *VM) stringRef(_ uint64) {
	i := vm.popInt()
	s := vm.expect(value.KindString, vm.pop())
	b, err := vm.heap.StringRef(s, i)
	vm.heapif(err)
	vm.push(value.EncodeChar(b))
}

func (vm *VM) stringSet(_ uint64) {
	c := vm.popChar()
	i := vm.popInt()
	s := vm.expect(value.KindString, vm.pop())
	vm.heapif(vm.heap.StringSet(s, i, c))
	vm.push(value.Unspecified)
}

func (vm *VM) stringAppend(n uint64) {
	var b []byte
	for _, v := range vm.popN(n) {
		part, err := vm.heap.StringBytes(vm.expect(value.KindString, v))
		vm.heapif(err)
		b = append(b, part...)
	}
	s, err := vm.heap.AllocString(b)
	vm.heapif(err)
	vm.push(s)
}

func (vm *VM) stringLength(_ uint64) {
	n, err := vm.heap.StringLen(vm.expect(value.KindString, vm.pop()))
	vm.heapif(err)
	vm.pushInt(int64(n))
}

func (vm *VM) vector(n uint64) {
	v, err := vm.heap.AllocVector(vm.popN(n))
	vm.heapif(err)
	vm.push(v)
}

func (vm *VM) vectorRef(_ uint64) {
	i := vm.popInt()
	v := vm.expect(value.KindVector, vm.pop())
	elem, err := vm.heap.VectorRef(v, i)
	vm.heapif(err)
	vm.push(elem)
}

func (vm *VM) vectorSet(_ uint64) {
	elem := vm.pop()
	i := vm.popInt()
	v := vm.expect(value.KindVector, vm.pop())
	vm.heapif(vm.heap.VectorSet(v, i, elem))
	vm.push(value.Unspecified)
}

func (vm *VM) vectorLength(_ uint64) {
	n, err := vm.heap.VectorLen(vm.expect(value.KindVector, vm.pop()))
	vm.heapif(err)
	vm.pushInt(int64(n))
}
