package boxset

import (
	"fmt"
	"io/fs"
)

// InputFormatError reports a record that cannot be turned into a Box: too
// few fields, a non-numeric value, or a value outside its valid range.
type InputFormatError struct {
	Path   string // empty when parsing from a reader
	Line   int    // 1-based; 0 when unknown
	Field  string // column name, empty for record-level problems
	Reason string
}

func (e *InputFormatError) Error() string {
	loc := e.Path
	if loc == "" {
		loc = "<input>"
	}
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", loc, e.Line)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: field %s: %s", loc, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s", loc, e.Reason)
}

// MissingFileError reports that a ground truth or tracker result file does
// not exist. It unwraps to fs.ErrNotExist.
type MissingFileError struct {
	Path string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

func (e *MissingFileError) Unwrap() error {
	return fs.ErrNotExist
}
