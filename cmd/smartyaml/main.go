package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// command runs one subcommand and returns its exit code.
type command func(args []string, stdin io.Reader, stdout, stderr io.Writer) int

var commands = map[string]command{
	CmdNameRender:   runRender,
	CmdNameValidate: runValidate,
	CmdNameVersion: func(args []string, _ io.Reader, stdout, stderr io.Writer) int {
		return runVersion(args, stdout, stderr)
	},
	CmdNameHelp: func(args []string, _ io.Reader, stdout, _ io.Writer) int {
		return runHelp(args, stdout)
	},
}

// run is the main entry point for the CLI, separated for testing
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == FlagHelpLong || args[0] == FlagHelpShort {
		return runHelp(nil, stdout)
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, FmtErrorWithDetail, ErrMsgUnknownCommand, args[0])
		fmt.Fprintln(stderr, HelpMainUsage)
		return ExitCodeUsageError
	}
	return cmd(args[1:], stdin, stdout, stderr)
}
