package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/apuigsech/smartyaml"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// loadConfig holds the flags shared by the commands that resolve a document
type loadConfig struct {
	inputPath    string
	vars         []string
	basePath     string
	templateRoot string
	keepMetadata bool
	maxDepth     int
	maxFileSize  int64
	allowRoots   []string
	sourceDB     string
	debug        bool
}

func addLoadFlags(fs *pflag.FlagSet, cfg *loadConfig) {
	fs.StringVarP(&cfg.inputPath, FlagInput, FlagInputShort, "", "")
	fs.StringArrayVar(&cfg.vars, FlagVar, nil, "")
	fs.StringVar(&cfg.basePath, FlagBasePath, "", "")
	fs.StringVar(&cfg.templateRoot, FlagTemplateRoot, "", "")
	fs.IntVar(&cfg.maxDepth, FlagMaxDepth, smartyaml.DefaultMaxRecursionDepth, "")
	fs.Int64Var(&cfg.maxFileSize, FlagMaxFileSize, smartyaml.DefaultMaxFileSize, "")
	fs.StringArrayVar(&cfg.allowRoots, FlagAllowRoot, nil, "")
	fs.StringVar(&cfg.sourceDB, FlagSourceDB, "", "")
	fs.BoolVar(&cfg.debug, FlagDebug, false, "")
}

func (cfg *loadConfig) check() error {
	if cfg.inputPath == "" {
		return errors.New(ErrMsgMissingInput)
	}
	_, err := parseVars(cfg.vars)
	return err
}

// parseVars turns name=value pairs into caller variables. Values are read
// as YAML scalars, so "port=8080" yields an int.
func parseVars(pairs []string) (map[string]any, error) {
	vars := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, varSeparator)
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf(FmtInlineDetail, ErrMsgInvalidVar, pair)
		}
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil || value == nil {
			value = raw
		}
		switch value.(type) {
		case map[string]any, []any:
			value = raw
		}
		vars[name] = value
	}
	return vars, nil
}

// loader resolves the configured input. Close releases the document source.
type loader struct {
	cfg    *loadConfig
	engine *smartyaml.Engine
	closer io.Closer
	logger *zap.Logger
}

func newLoader(cfg *loadConfig, stderr io.Writer, extra ...smartyaml.Option) (*loader, error) {
	vars, err := parseVars(cfg.vars)
	if err != nil {
		return nil, err
	}

	logger := zap.NewNop()
	if cfg.debug {
		logger = zap.New(zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.AddSync(stderr),
			zapcore.DebugLevel,
		), zap.Development())
	}

	opts := []smartyaml.Option{
		smartyaml.WithLogger(logger),
		smartyaml.WithVariables(vars),
		smartyaml.WithRemoveMetadata(!cfg.keepMetadata),
		smartyaml.WithMaxRecursionDepth(cfg.maxDepth),
		smartyaml.WithMaxFileSize(cfg.maxFileSize),
	}
	if cfg.basePath != "" {
		opts = append(opts, smartyaml.WithBasePath(cfg.basePath))
	}
	if cfg.templateRoot != "" {
		opts = append(opts, smartyaml.WithTemplateRoot(cfg.templateRoot))
	}
	if len(cfg.allowRoots) > 0 {
		opts = append(opts, smartyaml.WithAllowedRoots(cfg.allowRoots...))
	}

	l := &loader{cfg: cfg, logger: logger}
	if cfg.sourceDB != "" {
		reader, err := smartyaml.OpenReader(smartyaml.ReaderDriverPostgres, cfg.sourceDB)
		if err != nil {
			return nil, fmt.Errorf(FmtInlineCause, ErrMsgSourceFailed, err)
		}
		if c, ok := reader.(io.Closer); ok {
			l.closer = c
		}
		opts = append(opts, smartyaml.WithReader(reader))
	}

	engine, err := smartyaml.New(append(opts, extra...)...)
	if err != nil {
		l.Close()
		return nil, err
	}
	l.engine = engine
	return l, nil
}

func (l *loader) load(ctx context.Context, stdin io.Reader) (*smartyaml.Document, error) {
	if l.cfg.inputPath == InputSourceStdin {
		data, err := readStdin(stdin, l.cfg.maxFileSize)
		if err != nil {
			return nil, &inputError{err: err}
		}
		return l.engine.LoadBytes(ctx, data)
	}
	return l.engine.LoadFile(ctx, l.cfg.inputPath)
}

// Close releases the document source and flushes the logger.
func (l *loader) Close() {
	if l.closer != nil {
		_ = l.closer.Close()
	}
	_ = l.logger.Sync()
}

// inputError marks a failure to read the command's own input.
type inputError struct {
	err error
}

func (e *inputError) Error() string { return e.err.Error() }
func (e *inputError) Unwrap() error { return e.err }

// reportLoadError prints a load failure with its derivation chain and
// returns the exit code for it.
func reportLoadError(err error, stderr io.Writer) int {
	var inErr *inputError
	if errors.As(err, &inErr) {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgReadFileFailed, inErr.err)
		return ExitCodeInputError
	}

	fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgLoadFailed, err)
	for _, entry := range smartyaml.ErrorChain(err) {
		fmt.Fprintf(stderr, FmtChainEntry, entry)
	}

	if smartyaml.KindOf(err) == smartyaml.KindSchemaValidation {
		return ExitCodeValidationError
	}
	return ExitCodeError
}
