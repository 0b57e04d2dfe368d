package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/jcorbin/tagvm/internal/asm"
	"github.com/jcorbin/tagvm/internal/bytecode"
	"github.com/jcorbin/tagvm/internal/fileinput"
	"github.com/jcorbin/tagvm/internal/flushio"
	"github.com/jcorbin/tagvm/internal/logio"
	"github.com/jcorbin/tagvm/internal/printer"
)

// Exit statuses.
const (
	exitOK     = 0
	exitFault  = 1
	exitLoad   = 2
	exitOutput = 3
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var log logio.Logger
	log.SetOutput(stderr)

	flags := flag.NewFlagSet("tagvm", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "Usage: tagvm [flags] [FILE]\n\n")
		fmt.Fprintf(flags.Output(), "Runs bytecode from FILE, or standard input, and prints its result.\n\n")
		flags.PrintDefaults()
	}

	var (
		timeout    time.Duration
		trace      bool
		heapLimit  uint
		stackLimit uint
		frameLimit uint
		disasm     bool
		asmInput   bool
		reportPath string
		configPath string
	)
	flags.DurationVar(&timeout, "timeout", 0, "specify a time limit")
	flags.BoolVar(&trace, "trace", false, "enable trace logging")
	flags.UintVar(&heapLimit, "heap-limit", DefaultHeapLimit, "heap limit in words; 0 for none")
	flags.UintVar(&stackLimit, "stack-limit", DefaultStackLimit, "operand stack limit in values; 0 for none")
	flags.UintVar(&frameLimit, "frame-limit", DefaultFrameLimit, "call depth limit; 0 for none")
	flags.BoolVar(&disasm, "disasm", false, "print a program listing instead of running")
	flags.BoolVar(&asmInput, "asm", false, "read assembly text instead of bytecode")
	flags.StringVar(&reportPath, "report", "", "write a CBOR run report to this file")
	flags.StringVar(&configPath, "config", "", "read limits from this TOML file")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitLoad
	}

	if configPath != "" {
		set := make(map[string]bool)
		flags.Visit(func(f *flag.Flag) { set[f.Name] = true })
		cfg, cfgTimeout, err := loadConfig(configPath)
		if err != nil {
			log.Exitf(exitLoad, "config: %v", err)
			return log.ExitCode()
		}
		if !set["timeout"] && cfgTimeout != 0 {
			timeout = cfgTimeout
		}
		if !set["trace"] && cfg.Trace {
			trace = true
		}
		if lim := cfg.Limits.Heap; !set["heap-limit"] && lim != nil {
			heapLimit = *lim
		}
		if lim := cfg.Limits.Stack; !set["stack-limit"] && lim != nil {
			stackLimit = *lim
		}
		if lim := cfg.Limits.Frames; !set["frame-limit"] && lim != nil {
			frameLimit = *lim
		}
	}

	var rep runReport
	if reportPath != "" {
		defer func(then time.Time) {
			rep.ElapsedNS = time.Since(then).Nanoseconds()
			rep.ExitCode = log.ExitCode()
			if err := writeReport(reportPath, &rep); err != nil {
				log.Printf("WARN", "report: %v", err)
			}
		}(time.Now())
	}

	prog, err := loadInput(flags.Args(), stdin, asmInput)
	if err != nil {
		rep.Status, rep.Error = statusLoadError, err.Error()
		log.Exitf(exitLoad, "load: %v", err)
		return log.ExitCode()
	}
	rep.Instructions = prog.Len()

	out := flushio.NewWriteFlusher(stdout)
	if disasm {
		err := prog.Disassemble(out)
		if ferr := out.Flush(); err == nil {
			err = ferr
		}
		if err != nil {
			rep.Status, rep.Error = statusOutputError, err.Error()
			log.Exitf(exitOutput, "output: %v", err)
		} else {
			rep.Status = statusOK
		}
		return log.ExitCode()
	}

	opts := []VMOption{
		WithProgram(prog),
		WithOutput(out),
		WithHeapLimit(heapLimit),
		WithStackLimit(stackLimit),
		WithFrameLimit(frameLimit),
	}
	if trace {
		opts = append(opts, WithLogf(log.Leveledf("TRACE")))
	}
	vm := New(opts...)

	if timeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	err = vm.Run(ctx)

	if trace {
		lw := &logio.Writer{Logf: log.Leveledf("DUMP")}
		vmDumper{vm: vm, out: lw, context: 2}.dump()
		lw.Close()
	}

	rep.Steps = vm.Steps()
	rep.HeapBytes = vm.HeapWatermark()
	rep.StackDepth = vm.StackDepth()
	if result, halted := vm.Result(); halted {
		rep.Result, _ = printer.Sprint(vm.heap, result)
	}

	var oe outputError
	switch {
	case err == nil:
		rep.Status = statusOK
	case errors.As(err, &oe):
		rep.Status, rep.Error = statusOutputError, err.Error()
		log.Exitf(exitOutput, "%v", err)
	default:
		rep.Status, rep.Error = statusFault, err.Error()
		log.Exitf(exitFault, "%+v", err)
	}
	return log.ExitCode()
}

// loadInput reads and validates the whole program before anything runs.
func loadInput(args []string, stdin io.Reader, asmInput bool) (*bytecode.Program, error) {
	var (
		name = "<stdin>"
		r    = stdin
	)
	switch len(args) {
	case 0:
		if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return nil, errors.New("refusing to read a program from a terminal; give a FILE or redirect standard input")
		}
	case 1:
		f, err := os.Open(args[0])
		if err != nil {
			return nil, err
		}
		defer f.Close()
		name, r = args[0], f
	default:
		return nil, fmt.Errorf("too many arguments: %q", args)
	}

	if !asmInput {
		prog, err := bytecode.ReadProgram(r)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", name, err)
		}
		return prog, nil
	}
	code, err := asm.Assemble(fileinput.Named(name, r))
	if err != nil {
		return nil, err
	}
	return bytecode.NewProgram(code...)
}
