// Package bytecode defines the binary instruction stream consumed by the
// runtime: a closed table of 64-bit opcode selectors, the 16-byte instruction
// encoding, and a loader that validates a whole stream before anything runs.
package bytecode

import "fmt"

// Opcode is an instruction selector word. The numbers are shared with the
// assembler and must not change.
type Opcode uint64

// Opcodes, with the operand each one takes, if any.
const (
	Load         Opcode = 0x10AD000 // v: push tagged word v
	Get          Opcode = 0x09E7000 // n: push a copy of the value n below the top
	Forget       Opcode = 0x49E7000 // discard the top value
	Fall         Opcode = 0xFA11000 // n: drop the n values beneath the top
	Add1         Opcode = 0xADD1000
	Sub1         Opcode = 0x50B1000
	Add          Opcode = 0x0ADD000 // n: sum of n integers
	Sub          Opcode = 0x050B000 // n: negation, or first minus the rest
	Mul          Opcode = 0x0A55000 // n: product of n integers
	Lt           Opcode = 0x1700000 // n: strictly increasing integers
	Eq           Opcode = 0xE3E3000 // n: numerically equal integers
	Eqp          Opcode = 0x3E3E000 // n: identical words
	ZeroP        Opcode = 0xEEEE000
	IntegerP     Opcode = 0x1234000
	BooleanP     Opcode = 0xB001000
	CharP        Opcode = 0xCACA000
	NullP        Opcode = 0x4321000
	Not          Opcode = 0x7777000
	IntToChar    Opcode = 0x170C000
	CharToInt    Opcode = 0xC701000
	Cons         Opcode = 0xC0C0000
	Car          Opcode = 0xCA00000
	Cdr          Opcode = 0xCD00000
	String       Opcode = 0x571F000 // n: string of n characters
	StringRef    Opcode = 0x571E000
	StringSet    Opcode = 0x5715000
	StringAppend Opcode = 0x571A000 // n: concatenation of n strings
	StringLength Opcode = 0x5714000
	Vector       Opcode = 0x7EC7000 // n: vector of n values
	VectorRef    Opcode = 0x7EC1000
	VectorSet    Opcode = 0x7EC5000
	VectorLength Opcode = 0x7EC4000
	Jump         Opcode = 0x70AD000 // t: continue at instruction t
	CJump        Opcode = 0x0CA7000 // t: pop, continue at t if #f
	Call         Opcode = 0xC001000 // t: push return address, continue at t
	Return       Opcode = 0x1001000 // continue at popped return address
	Done         Opcode = 0xD0D0000 // halt with the top value
)

// Info describes an opcode.
type Info struct {
	Name string

	// Operand is the kind of immediate the opcode uses: "" for none, "value"
	// for a tagged word, "count" for an operand count, "target" for an
	// instruction index.
	Operand string
}

var opcodes = map[Opcode]Info{
	Load:         {"LOAD", "value"},
	Get:          {"GET", "count"},
	Forget:       {"FORGET", ""},
	Fall:         {"FALL", "count"},
	Add1:         {"ADD1", ""},
	Sub1:         {"SUB1", ""},
	Add:          {"ADD", "count"},
	Sub:          {"SUB", "count"},
	Mul:          {"MUL", "count"},
	Lt:           {"LT", "count"},
	Eq:           {"EQ", "count"},
	Eqp:          {"EQP", "count"},
	ZeroP:        {"ZEROP", ""},
	IntegerP:     {"INTEGERP", ""},
	BooleanP:     {"BOOLEANP", ""},
	CharP:        {"CHARP", ""},
	NullP:        {"NULLP", ""},
	Not:          {"NOT", ""},
	IntToChar:    {"INTTOCHAR", ""},
	CharToInt:    {"CHARTOINT", ""},
	Cons:         {"CONS", ""},
	Car:          {"CAR", ""},
	Cdr:          {"CDR", ""},
	String:       {"STRING", "count"},
	StringRef:    {"STRINGREF", ""},
	StringSet:    {"STRINGSET", ""},
	StringAppend: {"STRINGAPPEND", "count"},
	StringLength: {"STRINGLENGTH", ""},
	Vector:       {"VECTOR", "count"},
	VectorRef:    {"VECTORREF", ""},
	VectorSet:    {"VECTORSET", ""},
	VectorLength: {"VECTORLENGTH", ""},
	Jump:         {"JUMP", "target"},
	CJump:        {"CJUMP", "target"},
	Call:         {"CALL", "target"},
	Return:       {"RETURN", ""},
	Done:         {"DONE", ""},
}

var byName = make(map[string]Opcode, len(opcodes))

func init() {
	for op, info := range opcodes {
		byName[info.Name] = op
	}
}

// Valid reports whether op belongs to the opcode table.
func (op Opcode) Valid() bool {
	_, ok := opcodes[op]
	return ok
}

// Info returns the description of op; ok is false for unknown opcodes.
func (op Opcode) Info() (info Info, ok bool) {
	info, ok = opcodes[op]
	return info, ok
}

func (op Opcode) String() string {
	if info, ok := opcodes[op]; ok {
		return info.Name
	}
	return fmt.Sprintf("Opcode(%#x)", uint64(op))
}

// Lookup returns the opcode with the given mnemonic.
func Lookup(name string) (Opcode, bool) {
	op, ok := byName[name]
	return op, ok
}

// Opcodes returns every valid opcode.
func Opcodes() []Opcode {
	ops := make([]Opcode, 0, len(opcodes))
	for op := range opcodes {
		ops = append(ops, op)
	}
	return ops
}
