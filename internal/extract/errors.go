package extract

import (
	"fmt"
	"strings"
)

// EmptyRangeError reports a line range in which no statement starts.
type EmptyRangeError struct {
	Start, End int
}

func (e *EmptyRangeError) Error() string {
	return fmt.Sprintf("no statement starts in lines %d-%d", e.Start, e.End)
}

// Kind returns the error's taxonomy name.
func (e *EmptyRangeError) Kind() string { return "EmptyRangeError" }

// AmbiguousOutputError reports a range that defines more than one name
// read after it. The extracted function could only return one of them.
type AmbiguousOutputError struct {
	Names []string
}

func (e *AmbiguousOutputError) Error() string {
	return fmt.Sprintf("range has %d outputs (%s); only one can be returned", len(e.Names), strings.Join(e.Names, ", "))
}

// Kind returns the error's taxonomy name.
func (e *AmbiguousOutputError) Kind() string { return "AmbiguousOutputError" }

// UnsupportedError reports a range whose control flow or structure cannot
// be moved into a function of its own.
type UnsupportedError struct {
	Line   int
	Reason string
}

func (e *UnsupportedError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("cannot extract: %s (line %d)", e.Reason, e.Line)
	}
	return "cannot extract: " + e.Reason
}

// Kind returns the error's taxonomy name.
func (e *UnsupportedError) Kind() string { return "UnsupportedExtractionError" }

func unsupported(line int, format string, args ...any) error {
	return &UnsupportedError{Line: line, Reason: fmt.Sprintf(format, args...)}
}
