package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

// version is the build metadata printed by -v/--version (spec.md
// section 6). The teacher has no version banner of its own; this is a
// plain constant rather than a build-tag injected one since nothing in
// the pack wires a version-stamping tool.
const version = "rhythm 0.1.0 — bytecode VM"

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&runCmd{}, "")
	subcommands.Register(&replCmd{}, "")
	subcommands.Register(&emitBytecodeCmd{}, "")

	flag.Usage = printUsage

	for _, a := range os.Args[1:] {
		switch a {
		case "-v", "--version":
			fmt.Println(version)
			os.Exit(0)
		case "-h", "--help":
			printUsage()
			os.Exit(0)
		}
	}

	os.Args = append([]string{os.Args[0]}, implicitSubcommand(os.Args[1:])...)
	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}

// implicitSubcommand lets the canonical CLI shape spec.md section 6
// describes ("cmd [options] [script]") ride on top of
// google/subcommands' named dispatch: with no arguments at all it
// defaults to "repl" (spec.md: "With no arguments, enter a
// line-oriented REPL"); with a bare script path — no token matching a
// registered subcommand name — it defaults to "run" (spec.md: "With a
// script path, execute that file").
func implicitSubcommand(args []string) []string {
	known := map[string]bool{
		"help": true, "flags": true, "commands": true,
		"run": true, "repl": true, "emit": true,
	}
	if len(args) == 0 {
		return []string{"repl"}
	}
	for _, a := range args {
		if len(a) == 0 || a[0] == '-' {
			continue
		}
		if known[a] {
			return args
		}
		break
	}
	return append([]string{"run"}, args...)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: rhythm [-h|--help] [-v|--version] [-a|--ast] [-d|--disasm] [-n|--no-loop] [script]")
	fmt.Fprintln(os.Stderr, "\nWith a script path, run it. With no arguments, start the REPL.")
	fmt.Fprintln(os.Stderr, "\nSubcommands (invoked explicitly, or implicitly as above):")
	subcommands.DefaultCommander.Explain(os.Stderr)
}
