package main

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/jcorbin/tagvm/internal/printer"
	"github.com/jcorbin/tagvm/internal/value"
)

type fmtBuf interface {
	Len() int
	Write(p []byte) (n int, err error)
	WriteByte(c byte) error
	WriteString(s string) (n int, err error)
}

type vmDumper struct {
	vm  *VM
	out io.Writer

	addrWidth int

	// program listing around ip, in instructions either side; 0 for none
	context int
}

func (dump vmDumper) dump() {
	vm := dump.vm
	fmt.Fprintf(dump.out, "# VM Dump\n")
	fmt.Fprintf(dump.out, "  ip: %v\n", vm.ip)
	fmt.Fprintf(dump.out, "  steps: %v\n", vm.steps)
	if vm.halted {
		fmt.Fprintf(dump.out, "  result: %v\n", dump.render(vm.result))
	}
	fmt.Fprintf(dump.out, "  heap: %v bytes\n", vm.HeapWatermark())
	fmt.Fprintf(dump.out, "  frames: %v\n", vm.frames)
	dump.dumpStack()
	dump.dumpProg()
}

func (dump *vmDumper) dumpStack() {
	vm := dump.vm
	fmt.Fprintf(dump.out, "# Stack\n")
	for i := len(vm.stack) - 1; i >= 0; i-- {
		fmt.Fprintf(dump.out, "  [%v] %v\n", len(vm.stack)-1-i, dump.render(vm.stack[i]))
	}
}

func (dump *vmDumper) dumpProg() {
	vm := dump.vm
	if dump.context <= 0 || vm.prog == nil {
		return
	}
	if dump.addrWidth == 0 {
		dump.addrWidth = len(strconv.Itoa(vm.prog.Len()))
	}
	lo, hi := vm.at-dump.context, vm.at+dump.context+1
	if lo < 0 {
		lo = 0
	}
	if hi > vm.prog.Len() {
		hi = vm.prog.Len()
	}
	fmt.Fprintf(dump.out, "# Program @%v\n", lo)
	var buf lineBuffer
	for i := lo; i < hi; i++ {
		mark := "  "
		if i == vm.at {
			mark = "> "
		}
		buf.WriteString(mark)
		dump.formatInstruction(&buf, i)
		buf.WriteTo(dump.out)
	}
}

func (dump *vmDumper) formatInstruction(buf fmtBuf, i int) {
	fmt.Fprintf(buf, "@%-*v %v", dump.addrWidth, i, dump.vm.prog.At(i))
}

// render prints v through the heap, falling back to its raw form.
func (dump *vmDumper) render(v value.Value) string {
	if dump.vm.heap == nil {
		return v.GoString()
	}
	s, err := printer.Sprint(dump.vm.heap, v)
	if err != nil {
		return fmt.Sprintf("%#v (%v)", v, err)
	}
	if v == value.Unspecified {
		return v.GoString()
	}
	return s
}

// lineBuffer accumulates one line, terminating it on WriteTo.
type lineBuffer struct{ bytes.Buffer }

func (lb *lineBuffer) WriteTo(w io.Writer) (int64, error) {
	if b := lb.Bytes(); len(b) > 0 && b[len(b)-1] != '\n' {
		lb.WriteByte('\n')
	}
	return lb.Buffer.WriteTo(w)
}
