// Package target parses refactoring target addresses.
//
// An address names a callable, optionally qualified by its enclosing
// container, optionally followed by a nested member and a line range:
//
//	[<enclosing>::]<member>[::<nested>][#L<start>[-L<end>]]
//
// Examples: "calculate", "calculate#L5", "Order::print_owing#L9-L11".
package target

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	segmentSep = "::"
	rangeSep   = "#"
)

// LineRange is an inclusive, 1-based line interval.
type LineRange struct {
	Start int
	End   int
}

// Contains reports whether line falls inside the range.
func (r LineRange) Contains(line int) bool {
	return line >= r.Start && line <= r.End
}

func (r LineRange) String() string {
	if r.Start == r.End {
		return fmt.Sprintf("L%d", r.Start)
	}
	return fmt.Sprintf("L%d-L%d", r.Start, r.End)
}

// Locator is a parsed address. Empty strings mean the part is absent.
// A Locator is an immutable value.
type Locator struct {
	Enclosing string
	Member    string
	Nested    string
	Lines     *LineRange
}

// HasRange reports whether the address carried a line range.
func (l Locator) HasRange() bool { return l.Lines != nil }

// Contains reports whether line is inside the address's line range. An
// address without a range contains every line.
func (l Locator) Contains(line int) bool {
	if l.Lines == nil {
		return true
	}
	return l.Lines.Contains(line)
}

// Scope returns the locator without its line range. It identifies the
// callable the range belongs to.
func (l Locator) Scope() Locator {
	l.Lines = nil
	return l
}

// String renders the canonical address. Parse(l.String()) reproduces l.
func (l Locator) String() string {
	var sb strings.Builder
	if l.Enclosing != "" {
		sb.WriteString(l.Enclosing)
		sb.WriteString(segmentSep)
	}
	sb.WriteString(l.Member)
	if l.Nested != "" {
		sb.WriteString(segmentSep)
		sb.WriteString(l.Nested)
	}
	if l.Lines != nil {
		sb.WriteString(rangeSep)
		sb.WriteString(l.Lines.String())
	}
	return sb.String()
}

// MalformedError reports an address that does not follow the grammar.
type MalformedError struct {
	Address string
	Reason  string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed target %q: %s", e.Address, e.Reason)
}

// Kind returns the error's taxonomy name.
func (e *MalformedError) Kind() string { return "MalformedTargetError" }

// Parse parses an address into a Locator.
func Parse(address string) (Locator, error) {
	malformed := func(format string, args ...any) (Locator, error) {
		return Locator{}, &MalformedError{Address: address, Reason: fmt.Sprintf(format, args...)}
	}

	path, lines, hasRange := strings.Cut(address, rangeSep)

	segments := strings.Split(path, segmentSep)
	if len(segments) > 3 {
		return malformed("at most three %q-separated segments are allowed, got %d", segmentSep, len(segments))
	}
	for i, seg := range segments {
		if strings.TrimSpace(seg) == "" {
			return malformed("segment %d is empty", i+1)
		}
		if strings.ContainsAny(seg, " \t:") {
			return malformed("segment %q is not a name", seg)
		}
	}

	var loc Locator
	switch len(segments) {
	case 1:
		loc.Member = segments[0]
	case 2:
		loc.Enclosing, loc.Member = segments[0], segments[1]
	case 3:
		loc.Enclosing, loc.Member, loc.Nested = segments[0], segments[1], segments[2]
	}

	if !hasRange {
		return loc, nil
	}

	startText, endText, isSpan := strings.Cut(lines, "-")
	start, err := parseLine(startText)
	if err != nil {
		return malformed("range start: %v", err)
	}
	end := start
	if isSpan {
		end, err = parseLine(endText)
		if err != nil {
			return malformed("range end: %v", err)
		}
	}
	if end < start {
		return malformed("range end L%d precedes start L%d", end, start)
	}

	loc.Lines = &LineRange{Start: start, End: end}
	return loc, nil
}

// parseLine parses "L<digits>" into a positive line number.
func parseLine(text string) (int, error) {
	digits, ok := strings.CutPrefix(text, "L")
	if !ok {
		return 0, fmt.Errorf("expected L<line>, got %q", text)
	}
	if digits == "" {
		return 0, fmt.Errorf("missing line digits")
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("line %q is not a number", digits)
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("line %q: %w", digits, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("line numbers start at 1")
	}
	return n, nil
}
