// Package printer renders tagged values in the guest language's literal
// notation.
package printer

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/jcorbin/tagvm/internal/value"
)

// Store dereferences heap values for rendering.
type Store interface {
	Pair(v value.Value) (car, cdr value.Value, err error)
	StringBytes(v value.Value) ([]byte, error)
	Vector(v value.Value) ([]value.Value, error)
}

// MalformedError reports a value that cannot be rendered: a word matching no
// tag, a reference that does not dereference, or a structure that contains
// itself. It indicates a defect upstream of the printer rather than a guest
// program error.
type MalformedError struct {
	Val value.Value
	Err error
}

func (me MalformedError) Error() string {
	if me.Err != nil {
		return fmt.Sprintf("value is malformed: %#016x: %v", uint64(me.Val), me.Err)
	}
	return fmt.Sprintf("value is malformed: %#016x", uint64(me.Val))
}

func (me MalformedError) Unwrap() error { return me.Err }

// Render writes the literal form of v to w. Unspecified renders as nothing.
// Nothing is written unless the whole value renders.
func Render(w io.Writer, store Store, v value.Value) error {
	pr := printer{store: store, active: make(map[value.Value]struct{})}
	if err := pr.print(v); err != nil {
		return err
	}
	_, err := pr.buf.WriteTo(w)
	return err
}

// Sprint returns the literal form of v.
func Sprint(store Store, v value.Value) (string, error) {
	var sb bytes.Buffer
	err := Render(&sb, store, v)
	return sb.String(), err
}

type taskOp uint8

const (
	printValue taskOp = iota
	writeDot
	writeSpace
	closeParens
	leave
)

type task struct {
	op    taskOp
	v     value.Value
	above uint64 // offset of the object referring to v
	n     int    // closeParens count
}

type printer struct {
	store Store
	buf   bytes.Buffer
	work  []task

	// active holds the objects on the current path that were reached by a
	// reference that does not point strictly downward. Pairs are only ever
	// built from older values, so any cycle has such a step.
	active map[value.Value]struct{}

	num [24]byte
}

func (pr *printer) print(root value.Value) error {
	pr.work = append(pr.work[:0], task{op: printValue, v: root, above: math.MaxUint64})
	for len(pr.work) > 0 {
		t := pr.work[len(pr.work)-1]
		pr.work = pr.work[:len(pr.work)-1]
		switch t.op {
		case printValue:
			if err := pr.value(t.v, t.above); err != nil {
				return err
			}
		case writeDot:
			pr.buf.WriteString(" . ")
		case writeSpace:
			pr.buf.WriteByte(' ')
		case closeParens:
			for i := 0; i < t.n; i++ {
				pr.buf.WriteByte(')')
			}
		case leave:
			delete(pr.active, t.v)
		}
	}
	return nil
}

func (pr *printer) push(t task) { pr.work = append(pr.work, t) }

// pushClose schedules a ')', merging runs so that a long cdr chain costs one
// task.
func (pr *printer) pushClose() {
	if i := len(pr.work) - 1; i >= 0 && pr.work[i].op == closeParens {
		pr.work[i].n++
		return
	}
	pr.push(task{op: closeParens, n: 1})
}

func (pr *printer) value(v value.Value, above uint64) error {
	if v.IsRef() {
		if _, cyclic := pr.active[v]; cyclic {
			return MalformedError{v, fmt.Errorf("cyclic %v", v.Kind())}
		}
		if v.Offset() >= above {
			pr.active[v] = struct{}{}
			pr.push(task{op: leave, v: v})
		}
	}

	switch v.Kind() {
	case value.KindInteger:
		pr.buf.Write(strconv.AppendInt(pr.num[:0], v.Int(), 10))
	case value.KindBoolean:
		if v == value.True {
			pr.buf.WriteString("#t")
		} else {
			pr.buf.WriteString("#f")
		}
	case value.KindChar:
		pr.buf.WriteString(`#\`)
		pr.buf.WriteByte(v.Char())
	case value.KindNull:
		pr.buf.WriteString("'()")
	case value.KindUnspecified:
	case value.KindPair:
		car, cdr, err := pr.store.Pair(v)
		if err != nil {
			return MalformedError{v, err}
		}
		pr.buf.WriteByte('(')
		pr.pushClose()
		pr.push(task{op: printValue, v: cdr, above: v.Offset()})
		pr.push(task{op: writeDot})
		pr.push(task{op: printValue, v: car, above: v.Offset()})
	case value.KindString:
		b, err := pr.store.StringBytes(v)
		if err != nil {
			return MalformedError{v, err}
		}
		pr.buf.WriteByte('"')
		pr.buf.Write(b)
		pr.buf.WriteByte('"')
	case value.KindVector:
		elems, err := pr.store.Vector(v)
		if err != nil {
			return MalformedError{v, err}
		}
		pr.buf.WriteString("#(")
		pr.pushClose()
		for i := len(elems) - 1; i >= 0; i-- {
			pr.push(task{op: printValue, v: elems[i], above: v.Offset()})
			if i > 0 {
				pr.push(task{op: writeSpace})
			}
		}
	default:
		return MalformedError{Val: v}
	}
	return nil
}
