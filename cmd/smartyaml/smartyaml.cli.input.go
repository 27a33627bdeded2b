package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// readStdin reads a document from stdin. Input longer than limit bytes is
// rejected; a limit of 0 means no bound.
func readStdin(stdin io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(stdin)
	}
	data, err := io.ReadAll(io.LimitReader(stdin, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf(FmtInlineDetail, ErrMsgInputTooLarge, strconv.FormatInt(limit, 10))
	}
	return data, nil
}

// writeOutput writes data to stdout for "-". A file is written to a
// temporary sibling first and renamed into place, so readers never see a
// partial document.
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == FlagDefaultOutput {
		_, err := stdout.Write(data)
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+tempOutputSuffix)
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(FilePermissions); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
