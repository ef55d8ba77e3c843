package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/user"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/google/subcommands"

	"rhythm/compiler"
	"rhythm/internal/config"
	"rhythm/internal/rtlog"
	"rhythm/lexer"
	"rhythm/native"
	"rhythm/parser"
	"rhythm/token"
	"rhythm/vm"
)

// replCmd implements the REPL command: each accepted line (or
// multi-line block) is lexed, parsed, compiled into the same
// top-level script Function, and run against one persistent VM, so
// variables and functions defined on one line are visible on the next.
type replCmd struct {
	noLoop bool
}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive Rhythm session" }
func (*replCmd) Usage() string {
	return `repl:
  Start an interactive Rhythm REPL session.
`
}

func (r *replCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.noLoop, "no-loop", false, "reject while/for at parse time")
	f.BoolVar(&r.noLoop, "n", false, "shorthand for -no-loop")
}

func (r *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to load configuration: %s\n", err)
		return subcommands.ExitFailure
	}
	if cfg.Trace {
		rtlog.EnableTrace()
	}

	bold := color.New(color.Bold)
	bold.Println("\nWelcome to Rhythm!")
	fmt.Println("Type 'exit' or press Ctrl-D to leave.")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     expandHome(cfg.HistoryFile),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to start readline: %s\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	astCompiler := compiler.NewASTCompiler(cfg.MaxConstants).WithNoLoop(r.noLoop)
	globals := native.NewGlobals(os.Stdout, os.Stdin)
	machine := vm.New(globals, cfg.StackSize)

	var buffer strings.Builder
	for {
		if buffer.Len() == 0 {
			rl.SetPrompt(">>> ")
		} else {
			rl.SetPrompt("... ")
		}

		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buffer.Reset()
			continue
		}
		if errors.Is(err, io.EOF) {
			return subcommands.ExitSuccess
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "💥 %s\n", err)
			return subcommands.ExitFailure
		}

		if strings.TrimSpace(line) == "exit" && buffer.Len() == 0 {
			return subcommands.ExitSuccess
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)
		source := buffer.String()

		tokens, err := lexer.New(source).Scan()
		if err != nil {
			fmt.Println(err)
			buffer.Reset()
			continue
		}

		if !isInputReady(tokens) {
			continue
		}

		p := parser.Make(tokens)
		p.SetNoLoop(r.noLoop)
		statements, parseErr := p.Parse()
		if parseErr != nil {
			if allParseErrorsAtEOF(parseErr, tokens[len(tokens)-1]) {
				continue
			}
			fmt.Println(parseErr)
			buffer.Reset()
			continue
		}

		fn, err := astCompiler.CompileAST(statements)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			buffer.Reset()
			continue
		}

		if _, err := machine.Run(fn); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		buffer.Reset()
	}
}

// isInputReady reports whether the accumulated input looks complete
// enough to attempt a parse: unbalanced braces mean the user is still
// typing a block and should be prompted for another line.
func isInputReady(tokens []token.Token) bool {
	depth := 0
	for _, tok := range tokens {
		switch tok.TokenType {
		case token.LBRACE:
			depth++
		case token.RBRACE:
			depth--
		}
	}
	return depth <= 0
}

// allParseErrorsAtEOF reports whether every error in err occurred at
// the final (EOF) token's position — meaning the user simply hasn't
// finished typing, rather than having made a real mistake.
func allParseErrorsAtEOF(err error, eof token.Token) bool {
	var agg interface{ WrappedErrors() []error }
	if !errors.As(err, &agg) {
		return false
	}
	errs := agg.WrappedErrors()
	if len(errs) == 0 {
		return false
	}
	for _, e := range errs {
		syntaxErr, ok := e.(parser.SyntaxError)
		if !ok || syntaxErr.Line != eof.Line || syntaxErr.Column != eof.Column {
			return false
		}
	}
	return true
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	u, err := user.Current()
	if err != nil {
		return path
	}
	rest := strings.TrimPrefix(strings.TrimPrefix(path, "~"), "/")
	if rest == "" {
		return u.HomeDir
	}
	return u.HomeDir + string(os.PathSeparator) + rest
}
