package main

import (
	"bytes"
	"context"
	"io"

	"github.com/jcorbin/tagvm/internal/bytecode"
	"github.com/jcorbin/tagvm/internal/panicerr"
	"github.com/jcorbin/tagvm/internal/printer"
	"github.com/jcorbin/tagvm/internal/value"
)

// New creates a VM, applying options over the defaults.
func New(opts ...VMOption) *VM {
	var vm VM
	defaultOptions.apply(&vm)
	VMOptions(opts...).apply(&vm)
	return &vm
}

// Run executes the program until DONE, a fault, or ctx is done. After a DONE
// the rendered result and a newline are written to the output; nothing is
// written otherwise. Faults are returned as errors matching the fault
// sentinels; rendering and write failures are distinguishable from them.
func (vm *VM) Run(ctx context.Context) error {
	if err := panicerr.Recover("VM", func() error {
		return vm.run(ctx)
	}); err != nil {
		return err
	}
	if !vm.halted {
		return nil
	}
	return vm.writeResult()
}

func (vm *VM) writeResult() error {
	var buf bytes.Buffer
	if err := panicerr.Recover("render", func() error {
		return printer.Render(&buf, vm.heap, vm.result)
	}); err != nil {
		return outputError{err}
	}
	buf.WriteByte('\n')
	if _, err := buf.WriteTo(vm.out); err != nil {
		return outputError{err}
	}
	if err := vm.out.Flush(); err != nil {
		return outputError{err}
	}
	return nil
}

// Result returns the value designated by DONE, and whether the VM has halted
// normally.
func (vm *VM) Result() (value.Value, bool) { return vm.result, vm.halted }

// Steps returns the number of instructions executed.
func (vm *VM) Steps() uint64 { return vm.steps }

// HeapWatermark returns the number of heap bytes allocated.
func (vm *VM) HeapWatermark() uint64 {
	if vm.heap == nil {
		return 0
	}
	return vm.heap.Watermark()
}

// StackDepth returns the current operand stack depth.
func (vm *VM) StackDepth() int { return len(vm.stack) }

func WithProgram(prog *bytecode.Program) VMOption { return withProgram(prog) }
func WithOutput(w io.Writer) VMOption              { return withOutput(w) }
func WithTee(w io.Writer) VMOption                 { return withTee(w) }
func WithHeapLimit(words uint) VMOption            { return withHeapLimit(words) }
func WithStackLimit(values uint) VMOption          { return withStackLimit(values) }
func WithFrameLimit(calls uint) VMOption           { return withFrameLimit(calls) }

func WithLogf(logfn func(mess string, args ...interface{})) VMOption { return withLogfn(logfn) }
