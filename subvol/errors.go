package subvol

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat is matched by every FormatError via errors.Is.
	ErrFormat = errors.New("format error")

	// ErrIO is matched by every IOError via errors.Is.
	ErrIO = errors.New("i/o error")

	// ErrConfig is matched by every ConfigError via errors.Is.
	ErrConfig = errors.New("configuration error")
)

// FormatError reports malformed input content, e.g., a transfer function whose control
// points are not strictly ascending.  Line is 1-based and zero when not applicable.
type FormatError struct {
	Path string
	Line int
	Msg  string
}

func (e *FormatError) Error() string {
	switch {
	case e.Path != "" && e.Line > 0:
		return fmt.Sprintf("format error in %s line %d: %s", e.Path, e.Line, e.Msg)
	case e.Path != "":
		return fmt.Sprintf("format error in %s: %s", e.Path, e.Msg)
	default:
		return "format error: " + e.Msg
	}
}

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// IOError reports a missing, unreadable, short, or unwritable file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: i/o error", e.Op, e.Path)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }

// ConfigError reports an invalid run parameter such as a block count of zero.
type ConfigError struct {
	Field string
	Value interface{}
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("bad %s %v: %s", e.Field, e.Value, e.Msg)
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }
