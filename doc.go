/* Package main: tagvm -- a tagged-value bytecode machine

tagvm runs the binary output of a small Lisp-family toolchain: a front-end
compiles a subset of the guest language to stack-machine assembly, an
assembler encodes that as bytecode, and tagvm loads the bytecode, executes it,
and prints the final value in the guest language's literal notation.

Values are 64-bit words whose low bits are a tag. Integers carry a 62-bit two's
complement payload under a two bit tag; booleans, characters, the empty list
and the unspecified value are distinct sentinel patterns; pairs, strings and
vectors are tagged byte offsets into a bump allocated heap. See internal/value.

A program is a sequence of 16-byte instructions, an opcode word then an operand
word, both little-endian. The whole stream is read and every opcode checked
before the first instruction runs, so a bad stream never produces partial
output. See internal/bytecode.

Execution keeps an operand stack, a separate stack of return addresses for
CALL and RETURN, and the heap. Instructions take their operands from the top
of the operand stack in push order and push at most one result. Any error is a
fatal fault: stack underflow, a type mismatch, integer overflow, an index out
of range, a jump outside the program, heap exhaustion, or running off the end
of the program. Conditional jumps treat every value except #f as true.

DONE halts with the top of the stack as the result, which is rendered (pairs
always dotted, strings raw, vectors as #(...), the unspecified value as
nothing) and written with a trailing newline.

Usage:

	tagvm [flags] [FILE]

Exit status is 0 on success, 1 on a runtime fault, 2 for a usage or load
error, and 3 if the result cannot be rendered or written.
*/
package main
