package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"
)

var commandHelp = map[string]string{
	CmdNameRender:   HelpRenderUsage,
	CmdNameValidate: HelpValidateUsage,
	CmdNameVersion:  HelpVersionUsage,
	CmdNameHelp:     HelpHelpUsage,
}

func runHelp(args []string, stdout io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stdout, HelpMainUsage)
		return ExitCodeSuccess
	}

	text, ok := commandHelp[args[0]]
	if !ok {
		fmt.Fprintf(stdout, FmtErrorWithDetail, ErrMsgUnknownCommand, args[0])
		fmt.Fprintln(stdout, HelpMainUsage)
		return ExitCodeUsageError
	}
	fmt.Fprintln(stdout, text)
	return ExitCodeSuccess
}

// flagError reports a flag parsing failure for cmd. A -h or --help request
// prints the command's help instead.
func flagError(cmd, msg string, err error, stdout, stderr io.Writer) int {
	if errors.Is(err, pflag.ErrHelp) {
		return runHelp([]string{cmd}, stdout)
	}
	fmt.Fprintf(stderr, FmtErrorWithCause, msg, err)
	return ExitCodeUsageError
}
