// Package asm translates the textual stack-machine language into
// instructions.
//
// Each line holds one instruction, "MNEMONIC [operand]", or a label
// definition "name:". Blank lines and text after ';' are ignored. LOAD (or
// LOAD64) takes an immediate literal: #t #f NULL UNSPECIFIED, a decimal
// integer, or a character #\c, #\xHH, #\name. Jump and call targets are
// either instruction indices or label names; other operands are decimal
// counts. A final DONE is always appended.
package asm

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jcorbin/tagvm/internal/bytecode"
	"github.com/jcorbin/tagvm/internal/charname"
	"github.com/jcorbin/tagvm/internal/fileinput"
	"github.com/jcorbin/tagvm/internal/value"
)

// Error locates an assembly failure.
type Error struct {
	fileinput.Location
	Text string
	Err  error
}

func (e Error) Error() string { return fmt.Sprintf("%v: %v (in %q)", e.Location, e.Err, e.Text) }
func (e Error) Unwrap() error { return e.Err }

type pending struct {
	fileinput.Location
	text  string
	label string
}

// Assemble reads every input in turn and returns the assembled program text
// as instructions.
func Assemble(inputs ...io.Reader) ([]bytecode.Instruction, error) {
	in := fileinput.Input{Queue: inputs}
	var (
		code   []bytecode.Instruction
		fixups = make(map[int]pending)
		labels = make(map[string]int)
	)
	for {
		line, err := in.ReadLine()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}

		text := stripComment(line.Buffer.String())
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}

		if len(fields) == 1 && strings.HasSuffix(fields[0], ":") {
			name := strings.TrimSuffix(fields[0], ":")
			if _, dup := labels[name]; dup || name == "" {
				return nil, Error{line.Location, text, fmt.Errorf("invalid or duplicate label %q", name)}
			}
			labels[name] = len(code)
			continue
		}

		inst, label, err := parseFields(fields)
		if err != nil {
			return nil, Error{line.Location, text, err}
		}
		if label != "" {
			fixups[len(code)] = pending{line.Location, text, label}
		}
		code = append(code, inst)
	}

	for i, fix := range fixups {
		target, ok := labels[fix.label]
		if !ok {
			return nil, Error{fix.Location, fix.text, fmt.Errorf("undefined label %q", fix.label)}
		}
		code[i].Arg = uint64(target)
	}

	return append(code, bytecode.Instruction{Op: bytecode.Done}), nil
}

// stripComment drops text from the first ';' that is not itself a #\;
// character literal.
func stripComment(text string) string {
	for i := 0; i < len(text); i++ {
		if text[i] == ';' && !strings.HasSuffix(text[:i], `#\`) {
			return text[:i]
		}
	}
	return text
}

func parseFields(fields []string) (in bytecode.Instruction, label string, err error) {
	if len(fields) == 0 {
		return in, "", fmt.Errorf("empty instruction")
	}
	name := strings.ToUpper(fields[0])
	if name == "LOAD64" {
		name = "LOAD"
	}
	op, ok := bytecode.Lookup(name)
	if !ok {
		return in, "", fmt.Errorf("unknown mnemonic %q", fields[0])
	}
	in.Op = op

	info, _ := op.Info()
	args := fields[1:]
	if info.Operand == "" {
		if len(args) != 0 {
			return in, "", fmt.Errorf("%v takes no operand", name)
		}
		return in, "", nil
	}
	if len(args) != 1 {
		return in, "", fmt.Errorf("%v takes exactly one operand", name)
	}

	switch info.Operand {
	case "value":
		v, err := ParseImmediate(args[0])
		in.Arg = uint64(v)
		return in, "", err
	case "target":
		if n, err := strconv.ParseUint(args[0], 10, 64); err == nil {
			in.Arg = n
			return in, "", nil
		}
		return in, args[0], nil
	default:
		n, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return in, "", fmt.Errorf("invalid %v operand %q", info.Operand, args[0])
		}
		in.Arg = n
		return in, "", nil
	}
}

// ParseImmediate parses a LOAD literal into its tagged word.
func ParseImmediate(s string) (value.Value, error) {
	switch s {
	case "#t", "#T":
		return value.True, nil
	case "#f", "#F":
		return value.False, nil
	case "NULL", "'()":
		return value.EmptyList, nil
	case "UNSPECIFIED":
		return value.Unspecified, nil
	}
	if strings.HasPrefix(s, `#\`) {
		b, err := charname.Parse(s[2:])
		if err != nil {
			return 0, fmt.Errorf("couldn't parse character constant %v: %w", s, err)
		}
		return value.EncodeChar(b), nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("couldn't parse immediate %v", s)
	}
	return value.EncodeInt(n)
}

// Format writes instructions back in assembly text, one per line.
func Format(w io.Writer, code []bytecode.Instruction) error {
	for _, in := range code {
		info, ok := in.Op.Info()
		if !ok {
			return bytecode.OpcodeError{Op: uint64(in.Op)}
		}
		line := info.Name
		switch info.Operand {
		case "":
		case "value":
			lit, err := formatImmediate(value.Value(in.Arg))
			if err != nil {
				return err
			}
			line += " " + lit
		default:
			line += " " + strconv.FormatUint(in.Arg, 10)
		}
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func formatImmediate(v value.Value) (string, error) {
	switch v.Kind() {
	case value.KindInteger:
		return strconv.FormatInt(v.Int(), 10), nil
	case value.KindBoolean:
		if v == value.True {
			return "#t", nil
		}
		return "#f", nil
	case value.KindChar:
		return fmt.Sprintf(`#\x%02x`, v.Char()), nil
	case value.KindNull:
		return "NULL", nil
	case value.KindUnspecified:
		return "UNSPECIFIED", nil
	}
	return "", fmt.Errorf("no literal form for %v", v)
}
