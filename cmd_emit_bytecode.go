package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"rhythm/compiler"
	"rhythm/internal/config"
	"rhythm/lexer"
	"rhythm/parser"
)

// emitBytecodeCmd compiles a source file and writes its disassembly to
// a text file (or stdout) without running it.
type emitBytecodeCmd struct {
	outputPath string
}

func (*emitBytecodeCmd) Name() string { return "emit" }
func (*emitBytecodeCmd) Synopsis() string {
	return "Emit the bytecode disassembly for a source file"
}
func (*emitBytecodeCmd) Usage() string {
	return `emit <file>:
  Compile a Rhythm source file and print its bytecode disassembly.
`
}

func (cmd *emitBytecodeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.outputPath, "o", "", "write the disassembly to this file instead of stdout")
}

func (cmd *emitBytecodeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 file not provided\n")
		return subcommands.ExitUsageError
	}
	sourceFile := args[0]

	data, err := os.ReadFile(sourceFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to read file:\n\t%v\n", err)
		return subcommands.ExitFailure
	}

	tokens, err := lexer.New(string(data)).Scan()
	if err != nil {
		fmt.Fprintf(os.Stderr, "lexing error: %v\n", err)
		return subcommands.ExitFailure
	}

	statements, err := parser.Make(tokens).Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 parsing error:\n\t%v\n", err)
		return subcommands.ExitFailure
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to load configuration: %s\n", err)
		return subcommands.ExitFailure
	}

	astCompiler := compiler.NewASTCompiler(cfg.MaxConstants)
	fn, err := astCompiler.CompileAST(statements)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 compilation error:\n\t%v\n", err)
		return subcommands.ExitFailure
	}

	name := strings.TrimSuffix(sourceFile, ".rhythm")
	disasm := compiler.DisassembleChunk(&fn.Chunk, name)

	if cmd.outputPath == "" {
		fmt.Println(disasm)
		return subcommands.ExitSuccess
	}

	if err := os.WriteFile(cmd.outputPath, []byte(disasm), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to write disassembly:\n\t%s\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
