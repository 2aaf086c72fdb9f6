// Package command classifies chat text into quote board commands.
//
// Three trigger shapes are recognized, case-sensitive and anchored at the
// start of the message:
//
//	aq <text>     add a quote; text may span several lines
//	q [<text>]    get a random quote, quote number N, or the first match
//	dq <digits>   delete quote number N
package command

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Op identifies a quote board operation.
type Op int

const (
	OpAdd Op = iota + 1
	OpGet
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpGet:
		return "get"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Command is a parsed trigger.
type Command struct {
	Op  Op
	Arg string
}

type rule struct {
	op    Op
	match func(text string) (arg string, ok bool)
}

// rules are tried in order; their prefixes are mutually exclusive, so at most
// one matches any message.
var rules = []rule{
	{op: OpAdd, match: matchAdd},
	{op: OpDelete, match: matchDelete},
	{op: OpGet, match: matchGet},
}

// Parse classifies text. It returns false when the text is not a quote
// command and should be left to other handlers.
func Parse(text string) (Command, bool) {
	for _, r := range rules {
		if arg, ok := r.match(text); ok {
			return Command{Op: r.op, Arg: arg}, true
		}
	}
	return Command{}, false
}

// afterKeyword returns what follows keyword and exactly one whitespace
// character. ok is false if text does not start that way.
func afterKeyword(text, keyword string) (string, bool) {
	rest, found := strings.CutPrefix(text, keyword)
	if !found {
		return "", false
	}
	r, size := utf8.DecodeRuneInString(rest)
	if size == 0 || !unicode.IsSpace(r) {
		return "", false
	}
	return rest[size:], true
}

// matchAdd keeps everything after "aq ", newlines included.
func matchAdd(text string) (string, bool) {
	rest, ok := afterKeyword(text, "aq")
	if !ok || rest == "" {
		return "", false
	}
	return rest, true
}

// matchDelete takes the digit run right after "dq ". Anything after the
// digits is ignored.
func matchDelete(text string) (string, bool) {
	rest, ok := afterKeyword(text, "dq")
	if !ok {
		return "", false
	}
	n := 0
	for n < len(rest) && rest[n] >= '0' && rest[n] <= '9' {
		n++
	}
	if n == 0 {
		return "", false
	}
	return rest[:n], true
}

// matchGet accepts a bare "q" or "q" followed by whitespace. The argument is
// the rest of the first line and may be empty.
func matchGet(text string) (string, bool) {
	if text == "q" {
		return "", true
	}
	rest, ok := afterKeyword(text, "q")
	if !ok {
		return "", false
	}
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		rest = rest[:i]
	}
	return rest, true
}

// IsNumber reports whether s is a non-empty run of ASCII digits.
func IsNumber(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
