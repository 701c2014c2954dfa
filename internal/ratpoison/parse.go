package ratpoison

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrProtocol marks controller output that does not follow the expected
// format. It usually means a ratpoison version this package does not know.
var ErrProtocol = errors.New("unexpected ratpoison output")

// noWindows is printed instead of a table when the group is empty.
const noWindows = "No managed windows"

// ProtocolError describes the offending line.
type ProtocolError struct {
	Line   string
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%v: %s in line %q", ErrProtocol, e.Reason, e.Line)
}

func (e *ProtocolError) Unwrap() error {
	return ErrProtocol
}

// Status flags printed by %s.
const (
	FlagCurrent = '*'
	FlagLast    = '+'
	FlagOther   = '-'
)

// Window is one row of `windows %n %i %s %t`.
type Window struct {
	Number int    `json:"number"`
	XID    uint32 `json:"xid"`
	Flag   byte   `json:"flag"`
	Title  string `json:"title"`
	// Group is the group the row was listed in, -1 for the current group
	// of a plain query.
	Group int `json:"group"`
}

// Current reports whether the row is the focused window of its group.
func (w Window) Current() bool {
	return w.Flag == FlagCurrent
}

// Group is one row of `groups`.
type Group struct {
	Number  int    `json:"number"`
	Name    string `json:"name"`
	Current bool   `json:"current"`
}

// ParseWindows parses `windows` output. An empty group yields no rows. A
// line that does not split into number, id, flag and title is an error:
// guessing around it could focus the wrong window.
func ParseWindows(out []byte) ([]Window, error) {
	text := string(out)
	if strings.Contains(text, noWindows) {
		return nil, nil
	}

	var windows []Window
	for _, line := range splitLines(text) {
		rest := line
		numTok, rest, ok := nextField(rest)
		if !ok {
			return nil, &ProtocolError{Line: line, Reason: "missing window number"}
		}
		number, err := strconv.Atoi(numTok)
		if err != nil {
			return nil, &ProtocolError{Line: line, Reason: "bad window number"}
		}
		idTok, rest, ok := nextField(rest)
		if !ok {
			return nil, &ProtocolError{Line: line, Reason: "missing window id"}
		}
		xid, err := strconv.ParseUint(idTok, 10, 32)
		if err != nil {
			return nil, &ProtocolError{Line: line, Reason: "bad window id"}
		}
		flagTok, rest, ok := nextField(rest)
		if !ok {
			return nil, &ProtocolError{Line: line, Reason: "missing status flag"}
		}
		windows = append(windows, Window{
			Number: number,
			XID:    uint32(xid),
			Flag:   flagTok[0],
			Title:  rest,
			Group:  -1,
		})
	}
	return windows, nil
}

// ParseGroups parses `groups` output in the default "%n%s%t" format, e.g.
// "0*default".
func ParseGroups(out []byte) ([]Group, error) {
	var groups []Group
	for _, line := range splitLines(string(out)) {
		digits := 0
		for digits < len(line) && line[digits] >= '0' && line[digits] <= '9' {
			digits++
		}
		if digits == 0 {
			return nil, &ProtocolError{Line: line, Reason: "missing group number"}
		}
		number, err := strconv.Atoi(line[:digits])
		if err != nil {
			return nil, &ProtocolError{Line: line, Reason: "bad group number"}
		}
		g := Group{Number: number}
		rest := line[digits:]
		if rest != "" {
			switch rest[0] {
			case FlagCurrent:
				g.Current = true
				rest = rest[1:]
			case FlagLast, FlagOther:
				rest = rest[1:]
			}
		}
		g.Name = rest
		groups = append(groups, g)
	}
	return groups, nil
}

func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' }) {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// nextField cuts at the first space or tab. An empty field is not ok.
func nextField(s string) (field, rest string, ok bool) {
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		field, rest = s, ""
	} else {
		field, rest = s[:i], s[i+1:]
	}
	return field, rest, field != ""
}
