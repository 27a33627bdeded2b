package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/apuigsech/smartyaml"
	"github.com/spf13/pflag"
)

// renderConfig holds parsed render command configuration
type renderConfig struct {
	loadConfig
	outputPath string
	format     string
}

func runRender(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseRenderFlags(args)
	if err != nil {
		return flagError(CmdNameRender, ErrMsgInvalidFlags, err, stdout, stderr)
	}

	l, err := newLoader(&cfg.loadConfig, stderr)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgLoadFailed, err)
		return ExitCodeError
	}
	defer l.Close()

	doc, err := l.load(context.Background(), stdin)
	if err != nil {
		return reportLoadError(err, stderr)
	}

	out, err := encodeDocument(doc, cfg.format)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgEncodeFailed, err)
		return ExitCodeError
	}

	if err := writeOutput(cfg.outputPath, out, stdout); err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgWriteOutputFailed, err)
		return ExitCodeError
	}

	return ExitCodeSuccess
}

func parseRenderFlags(args []string) (*renderConfig, error) {
	fs := pflag.NewFlagSet(CmdNameRender, pflag.ContinueOnError)
	fs.SetOutput(io.Discard) // Suppress default error messages

	cfg := &renderConfig{}

	addLoadFlags(fs, &cfg.loadConfig)
	fs.BoolVar(&cfg.keepMetadata, FlagKeepMetadata, false, "")
	fs.StringVarP(&cfg.outputPath, FlagOutput, FlagOutputShort, FlagDefaultOutput, "")
	fs.StringVarP(&cfg.format, FlagFormat, FlagFormatShort, FlagDefaultFormat, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.check(); err != nil {
		return nil, err
	}

	if cfg.format != OutputFormatYAML && cfg.format != OutputFormatJSON {
		return nil, errors.New(ErrMsgInvalidFormat)
	}

	return cfg, nil
}

func encodeDocument(doc *smartyaml.Document, format string) ([]byte, error) {
	if format == OutputFormatJSON {
		out, err := doc.JSONIndent(jsonIndent)
		if err != nil {
			return nil, err
		}
		return append(out, FmtNewline...), nil
	}
	return doc.YAML()
}
