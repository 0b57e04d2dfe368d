package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcorbin/tagvm/internal/asm"
	"github.com/jcorbin/tagvm/internal/bytecode"
	"github.com/jcorbin/tagvm/internal/value"
)

type mainTestCase struct {
	name   string
	args   []string
	stdin  []byte
	code   int
	stdout string
	stderr []string // substrings
}

func (mt mainTestCase) run(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), mt.args, bytes.NewReader(mt.stdin), &stdout, &stderr)
	assert.Equal(t, mt.code, code, "expected exit code")
	assert.Equal(t, mt.stdout, stdout.String(), "expected stdout")
	for _, want := range mt.stderr {
		assert.Contains(t, stderr.String(), want, "expected stderr")
	}
	if len(mt.stderr) == 0 && mt.code == exitOK {
		assert.Equal(t, "", stderr.String(), "expected no stderr")
	}
}

func assemble(t *testing.T, src ...string) []byte {
	code, err := asm.Assemble(strings.NewReader(lines(src...)))
	require.NoError(t, err, "must assemble")
	var buf bytes.Buffer
	require.NoError(t, bytecode.Encode(&buf, code...), "must encode")
	return buf.Bytes()
}

func writeTemp(t *testing.T, name string, data []byte) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func Test_main(t *testing.T) {
	ifChar := assemble(t,
		"LOAD 10",
		"LOAD 1", "LOAD 2", "LOAD 3", "LOAD 4",
		"ADD 4",
		"EQ 2",
		"CJUMP else",
		"LOAD 97",
		"INTTOCHAR",
		"JUMP end",
		"else:",
		"LOAD 65",
		"INTTOCHAR",
		"end:",
	)
	malformed := new(bytes.Buffer)
	require.NoError(t, bytecode.Encode(malformed,
		bytecode.Instruction{Op: bytecode.Load, Arg: 0x5},
		bytecode.Instruction{Op: bytecode.Done},
	))
	forged := new(bytes.Buffer)
	require.NoError(t, bytecode.Encode(forged,
		bytecode.Instruction{Op: bytecode.Load, Arg: uint64(value.Unspecified)},
		bytecode.Instruction{Op: bytecode.Vector, Arg: 1},
		bytecode.Instruction{Op: bytecode.Forget},
		bytecode.Instruction{Op: bytecode.Load, Arg: 0x0b},
		bytecode.Instruction{Op: bytecode.Done},
	))
	badOp := append(assemble(t, "LOAD 1"), make([]byte, 16)...)

	for _, mt := range []mainTestCase{
		{
			name:   "stdin",
			stdin:  ifChar,
			stdout: "#\\a\n",
		},
		{
			name:   "file",
			args:   []string{writeTemp(t, "prog.bin", ifChar)},
			stdout: "#\\a\n",
		},
		{
			name:   "pair",
			stdin:  assemble(t, "LOAD 1", "LOAD 2", "CONS"),
			stdout: "(1 . 2)\n",
		},
		{
			name:   "underflow",
			stdin:  assemble(t, "FORGET"),
			code:   exitFault,
			stderr: []string{"ERROR: fault @0 FORGET: operand stack underflow"},
		},
		{
			name:   "ran off",
			stdin:  nil,
			code:   exitFault,
			stderr: []string{"ran off the end of the program"},
		},
		{
			name:   "truncated",
			stdin:  ifChar[:len(ifChar)-3],
			code:   exitLoad,
			stderr: []string{"ERROR: load: <stdin>: invalid bytecode size"},
		},
		{
			name:   "bad opcode",
			stdin:  badOp,
			code:   exitLoad,
			stderr: []string{"invalid opcode 0x0 at instruction 2"},
		},
		{
			name:   "missing file",
			args:   []string{filepath.Join(t.TempDir(), "nope.bin")},
			code:   exitLoad,
			stderr: []string{"ERROR: load:"},
		},
		{
			name:   "too many args",
			args:   []string{"a", "b"},
			code:   exitLoad,
			stderr: []string{"too many arguments"},
		},
		{
			name:   "bad flag",
			args:   []string{"-frob"},
			code:   exitLoad,
			stderr: []string{"flag provided but not defined: -frob"},
		},
		{
			name:   "malformed",
			stdin:  malformed.Bytes(),
			code:   exitOutput,
			stderr: []string{"ERROR: output failed: value is malformed: 0x0000000000000005"},
		},
		{
			name:   "forged string",
			stdin:  forged.Bytes(),
			code:   exitOutput,
			stderr: []string{"ERROR: output failed: value is malformed: 0x000000000000000b"},
		},
		{
			name:   "asm",
			args:   []string{"-asm"},
			stdin:  []byte("LOAD 1\nLOAD 2\nVECTOR 2\n"),
			stdout: "#(1 2)\n",
		},
		{
			name:   "asm error",
			args:   []string{"-asm", writeTemp(t, "bad.s", []byte("LOAD 1\nFROB\n"))},
			code:   exitLoad,
			stderr: []string{`bad.s:2: unknown mnemonic "FROB"`},
		},
		{
			name:  "disasm",
			args:  []string{"-disasm"},
			stdin: assemble(t, "LOAD 1", "LOAD #t", "CJUMP 0"),
			stdout: lines(
				"@0 LOAD 1",
				"@1 LOAD #t",
				"@2 CJUMP 0",
				"@3 DONE",
			),
		},
		{
			name:   "stack limit",
			args:   []string{"-stack-limit", "1"},
			stdin:  assemble(t, "LOAD 1", "LOAD 2", "ADD 2"),
			code:   exitFault,
			stderr: []string{"operand stack overflow"},
		},
		{
			name:   "heap limit",
			args:   []string{"-heap-limit", "1"},
			stdin:  assemble(t, "LOAD 1", "LOAD 2", "CONS"),
			code:   exitFault,
			stderr: []string{"heap exhausted"},
		},
		{
			name:   "timeout",
			args:   []string{"-timeout", "10ms", "-asm"},
			stdin:  []byte("loop:\nJUMP loop\n"),
			code:   exitFault,
			stderr: []string{"context deadline exceeded"},
		},
		{
			name:   "trace",
			args:   []string{"-trace"},
			stdin:  assemble(t, "LOAD 1"),
			stdout: "1\n",
			stderr: []string{
				"TRACE: \texec @0 LOAD 1 -- s:[] r:[]",
				"DUMP: # VM Dump",
				"DUMP:   result: 1",
			},
		},
	} {
		t.Run(mt.name, mt.run)
	}
}

func Test_main_report(t *testing.T) {
	dir := t.TempDir()

	okPath := filepath.Join(dir, "ok.cbor")
	mainTestCase{
		args:   []string{"-report", okPath},
		stdin:  assemble(t, "LOAD 1", "LOAD 2", "CONS"),
		stdout: "(1 . 2)\n",
	}.run(t)
	data, err := os.ReadFile(okPath)
	require.NoError(t, err, "must write report")
	rep, err := unmarshalReport(data)
	require.NoError(t, err)
	assert.Equal(t, statusOK, rep.Status)
	assert.Equal(t, exitOK, rep.ExitCode)
	assert.Equal(t, 4, rep.Instructions)
	assert.Equal(t, uint64(4), rep.Steps)
	assert.Equal(t, uint64(16), rep.HeapBytes)
	assert.Equal(t, 1, rep.StackDepth)
	assert.Equal(t, "(1 . 2)", rep.Result)
	assert.Equal(t, "", rep.Error)

	faultPath := filepath.Join(dir, "fault.cbor")
	mainTestCase{
		args:   []string{"-report", faultPath},
		stdin:  assemble(t, "LOAD #t", "ADD1"),
		code:   exitFault,
		stderr: []string{"type mismatch"},
	}.run(t)
	data, err = os.ReadFile(faultPath)
	require.NoError(t, err, "must write report")
	rep, err = unmarshalReport(data)
	require.NoError(t, err)
	assert.Equal(t, statusFault, rep.Status)
	assert.Equal(t, exitFault, rep.ExitCode)
	assert.Equal(t, uint64(2), rep.Steps)
	assert.Equal(t, "", rep.Result)
	assert.Contains(t, rep.Error, "fault @1 ADD1")

	loadPath := filepath.Join(dir, "load.cbor")
	mainTestCase{
		args:   []string{"-report", loadPath},
		stdin:  []byte{1, 2, 3},
		code:   exitLoad,
		stderr: []string{"invalid bytecode size 3"},
	}.run(t)
	data, err = os.ReadFile(loadPath)
	require.NoError(t, err, "must write report")
	rep, err = unmarshalReport(data)
	require.NoError(t, err)
	assert.Equal(t, statusLoadError, rep.Status)
	assert.Equal(t, exitLoad, rep.ExitCode)
	assert.Equal(t, 0, rep.Instructions)
}

func Test_main_config(t *testing.T) {
	cfgPath := writeTemp(t, "tagvm.toml", []byte(lines(
		`timeout = "5s"`,
		"",
		"[limits]",
		"stack = 1",
		"frames = 4",
	)))
	prog := assemble(t, "LOAD 1", "LOAD 2", "ADD 2")

	mainTestCase{
		args:   []string{"-config", cfgPath},
		stdin:  prog,
		code:   exitFault,
		stderr: []string{"operand stack overflow"},
	}.run(t)

	mainTestCase{
		args:   []string{"-config", cfgPath, "-stack-limit", "0"},
		stdin:  prog,
		stdout: "3\n",
	}.run(t)

	mainTestCase{
		args:   []string{"-config", cfgPath, "-asm"},
		stdin:  []byte("loop:\nCALL loop\n"),
		code:   exitFault,
		stderr: []string{"call stack overflow"},
	}.run(t)

	badPath := writeTemp(t, "bad.toml", []byte("[limits]\nheap = 1\nstacks = 2\n"))
	mainTestCase{
		args:   []string{"-config", badPath},
		stdin:  prog,
		code:   exitLoad,
		stderr: []string{`ERROR: config: unknown key "limits.stacks"`},
	}.run(t)

	badTimeout := writeTemp(t, "timeout.toml", []byte("timeout = \"soon\"\n"))
	mainTestCase{
		args:   []string{"-config", badTimeout},
		stdin:  prog,
		code:   exitLoad,
		stderr: []string{"invalid timeout"},
	}.run(t)
}

func Test_loadConfig(t *testing.T) {
	path := writeTemp(t, "tagvm.toml", []byte(lines(
		`timeout = "250ms"`,
		"trace = true",
		"[limits]",
		"heap = 1024",
	)))
	cfg, timeout, err := loadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.Trace)
	assert.Equal(t, "250ms", timeout.String())
	if assert.NotNil(t, cfg.Limits.Heap) {
		assert.Equal(t, uint(1024), *cfg.Limits.Heap)
	}
	assert.Nil(t, cfg.Limits.Stack)
	assert.Nil(t, cfg.Limits.Frames)

	_, _, err = loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
