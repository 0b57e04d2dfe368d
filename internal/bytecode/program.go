package bytecode

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/jcorbin/tagvm/internal/value"
)

// InstructionSize is the encoded width of one instruction: an opcode word
// followed by an operand word, both little-endian.
const InstructionSize = 16

// readChunk is how many instructions the loader grows its buffer by.
const readChunk = 64

// Instruction is one opcode and its immediate operand.
type Instruction struct {
	Op  Opcode
	Arg uint64
}

func (in Instruction) String() string {
	info, ok := in.Op.Info()
	switch {
	case !ok:
		return fmt.Sprintf("%v %#x", in.Op, in.Arg)
	case info.Operand == "":
		return info.Name
	case info.Operand == "value":
		return fmt.Sprintf("%v %v", info.Name, value.Value(in.Arg))
	default:
		return fmt.Sprintf("%v %v", info.Name, in.Arg)
	}
}

// Program is a validated, immutable instruction sequence.
type Program struct {
	code []Instruction
}

// NewProgram validates code and returns a Program holding a copy of it.
func NewProgram(code ...Instruction) (*Program, error) {
	for i, in := range code {
		if !in.Op.Valid() {
			return nil, OpcodeError{i, uint64(in.Op)}
		}
	}
	return &Program{append([]Instruction(nil), code...)}, nil
}

// Len returns the number of instructions.
func (prog *Program) Len() int { return len(prog.code) }

// At returns the i-th instruction.
func (prog *Program) At(i int) Instruction { return prog.code[i] }

// SizeError indicates a stream that is not a whole number of instructions.
type SizeError int

func (n SizeError) Error() string {
	return fmt.Sprintf("invalid bytecode size %v: not a multiple of %v", int(n), InstructionSize)
}

// OpcodeError indicates an opcode word outside the opcode table.
type OpcodeError struct {
	Index int
	Op    uint64
}

func (oe OpcodeError) Error() string {
	return fmt.Sprintf("invalid opcode %#x at instruction %v", oe.Op, oe.Index)
}

// ReadProgram reads r to EOF and returns the validated Program it encodes.
// The whole stream is checked before returning: a SizeError or OpcodeError
// means nothing from the stream may run.
func ReadProgram(r io.Reader) (*Program, error) {
	buf := make([]byte, 0, readChunk*InstructionSize)
	for {
		if len(buf) == cap(buf) {
			grown := make([]byte, len(buf), cap(buf)+readChunk*InstructionSize)
			copy(grown, buf)
			buf = grown
		}
		n, err := r.Read(buf[len(buf):cap(buf)])
		buf = buf[:len(buf)+n]
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
	}
	return Decode(buf)
}

// Decode validates and decodes an in-memory stream.
func Decode(buf []byte) (*Program, error) {
	if len(buf)%InstructionSize != 0 {
		return nil, SizeError(len(buf))
	}
	code := make([]Instruction, len(buf)/InstructionSize)
	for i := range code {
		at := buf[i*InstructionSize:]
		code[i].Op = Opcode(binary.LittleEndian.Uint64(at))
		code[i].Arg = binary.LittleEndian.Uint64(at[8:])
		if !code[i].Op.Valid() {
			return nil, OpcodeError{i, uint64(code[i].Op)}
		}
	}
	return &Program{code}, nil
}

// Encode writes instructions in their binary form.
func Encode(w io.Writer, code ...Instruction) error {
	var buf [InstructionSize]byte
	for _, in := range code {
		binary.LittleEndian.PutUint64(buf[:], uint64(in.Op))
		binary.LittleEndian.PutUint64(buf[8:], in.Arg)
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
	}
	return nil
}

// Disassemble writes one line per instruction: "@index MNEMONIC operand".
func (prog *Program) Disassemble(w io.Writer) error {
	width := len(fmt.Sprint(len(prog.code)))
	for i, in := range prog.code {
		if _, err := fmt.Fprintf(w, "@%-*d %v\n", width, i, in); err != nil {
			return err
		}
	}
	return nil
}
