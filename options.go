package main

import (
	"io"

	"github.com/jcorbin/tagvm/internal/bytecode"
	"github.com/jcorbin/tagvm/internal/flushio"
)

// Limits used unless overridden; a zero limit option means unlimited.
const (
	DefaultHeapLimit  = 1 << 24 // words
	DefaultStackLimit = 1 << 20 // values
	DefaultFrameLimit = 1 << 16 // calls
)

// VMOption configures a VM before it runs.
type VMOption interface{ apply(vm *VM) }

// VMOptions combines any number of options, nils included, into one.
func VMOptions(opts ...VMOption) VMOption {
	var res vmOptions
	for _, opt := range opts {
		switch impl := opt.(type) {
		case nil:
		case vmOptions:
			res = append(res, impl...)
		default:
			res = append(res, impl)
		}
	}
	if len(res) == 1 {
		return res[0]
	}
	return res
}

var defaultOptions = VMOptions(
	withOutput(io.Discard),
	withHeapLimit(DefaultHeapLimit),
	withStackLimit(DefaultStackLimit),
	withFrameLimit(DefaultFrameLimit),
)

type vmOptions []VMOption

func (opts vmOptions) apply(vm *VM) {
	for _, opt := range opts {
		opt.apply(vm)
	}
}

type withLogfn func(mess string, args ...interface{})

func (logfn withLogfn) apply(vm *VM) {
	vm.logfn = logfn
}

type programOption struct{ *bytecode.Program }
type outputOption struct{ io.Writer }
type teeOption struct{ io.Writer }
type heapLimitOption uint
type stackLimitOption uint
type frameLimitOption uint

func withProgram(prog *bytecode.Program) programOption { return programOption{prog} }
func withOutput(w io.Writer) outputOption               { return outputOption{w} }
func withTee(w io.Writer) teeOption                     { return teeOption{w} }
func withHeapLimit(limit uint) heapLimitOption          { return heapLimitOption(limit) }
func withStackLimit(limit uint) stackLimitOption        { return stackLimitOption(limit) }
func withFrameLimit(limit uint) frameLimitOption        { return frameLimitOption(limit) }

func (p programOption) apply(vm *VM) {
	vm.prog = p.Program
}

func (o outputOption) apply(vm *VM) {
	if vm.out != nil {
		vm.out.Flush()
	}
	vm.out = flushio.NewWriteFlusher(o.Writer)
}

func (o teeOption) apply(vm *VM) {
	vm.out = flushio.WriteFlushers(vm.out, flushio.NewWriteFlusher(o.Writer))
}

func (lim heapLimitOption) apply(vm *VM) {
	vm.heapLimit = uint(lim)
}

func (lim stackLimitOption) apply(vm *VM) {
	vm.stackLimit = int(lim)
}

func (lim frameLimitOption) apply(vm *VM) {
	vm.frameLimit = int(lim)
}
