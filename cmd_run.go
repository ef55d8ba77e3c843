package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"rhythm/compiler"
	"rhythm/internal/config"
	"rhythm/internal/rtlog"
	"rhythm/lexer"
	"rhythm/native"
	"rhythm/parser"
	"rhythm/vm"
)

// runCmd executes a Rhythm source file: lex, parse, compile to
// bytecode, run on a fresh VM.
type runCmd struct {
	noLoop     bool
	showAST    bool
	disasm     bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Execute Rhythm code from a source file" }
func (*runCmd) Usage() string {
	return `run <file>:
  Execute Rhythm code from a source file.
`
}

func (r *runCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.noLoop, "no-loop", false, "reject while/for at parse time")
	f.BoolVar(&r.noLoop, "n", false, "shorthand for -no-loop")
	f.BoolVar(&r.showAST, "ast", false, "print the parsed AST as JSON")
	f.BoolVar(&r.showAST, "a", false, "shorthand for -ast")
	f.BoolVar(&r.disasm, "disasm", false, "print the compiled bytecode disassembly")
	f.BoolVar(&r.disasm, "d", false, "shorthand for -disasm")
}

func (r *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 file not provided\n")
		return subcommands.ExitUsageError
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to load configuration: %s\n", err)
		return subcommands.ExitFailure
	}
	if cfg.Trace || r.disasm {
		rtlog.EnableTrace()
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	tokens, err := lexer.New(string(data)).Scan()
	if err != nil {
		fmt.Fprintf(os.Stderr, "lexing error: %v\n", err)
		return subcommands.ExitFailure
	}

	p := parser.Make(tokens)
	p.SetNoLoop(r.noLoop)
	statements, err := p.Parse()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	if r.showAST {
		p.Print(statements)
	}

	astCompiler := compiler.NewASTCompiler(cfg.MaxConstants).WithNoLoop(r.noLoop)
	fn, err := astCompiler.CompileAST(statements)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	if r.disasm {
		fmt.Println(compiler.DisassembleChunk(&fn.Chunk, fn.Name))
	}

	globals := native.NewGlobals(os.Stdout, os.Stdin)
	machine := vm.New(globals, cfg.StackSize)
	if _, err := machine.Run(fn); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}
