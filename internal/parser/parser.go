// Package parser turns a line of shell input into a Command.
//
// The grammar is deliberately small:
//
//	program [arg ...] [< input] [> output] [&]
//
// Tokens are separated by whitespace. There is no quoting, escaping or
// expansion of any kind.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
)

const (
	tokenInput      = "<"
	tokenOutput     = ">"
	tokenBackground = "&"
	commentPrefix   = "#"
)

// ErrMissingTarget is returned when a redirection operator ends the line.
var ErrMissingTarget = errors.New("missing redirection target")

// Error describes a line that could not be parsed.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Command is a single parsed input line.
type Command struct {
	Program    string
	Args       []string
	InputPath  string
	OutputPath string
	Background bool
}

// Empty reports whether the line had no tokens.
func (c *Command) Empty() bool {
	return c.Program == ""
}

// Comment reports whether the line is a comment.
func (c *Command) Comment() bool {
	return strings.HasPrefix(c.Program, commentPrefix)
}

// String renders the command back into a line.
func (c *Command) String() string {
	line := shellquote.Join(c.Args...)
	if c.InputPath != "" {
		line += " " + tokenInput + " " + shellquote.Join(c.InputPath)
	}
	if c.OutputPath != "" {
		line += " " + tokenOutput + " " + shellquote.Join(c.OutputPath)
	}
	if c.Background {
		line += " " + tokenBackground
	}
	return line
}

// Parse splits line into a Command.
//
// A line without tokens yields an empty Command and no error. A line whose
// first token starts with '#' yields a comment Command; the rest of the line
// is not interpreted.
//
// A '&' is only a background marker when it is the last token. Anywhere else
// it is kept as an argument together with the token that follows it, which is
// not interpreted either.
func Parse(line string) (*Command, error) {
	tokens := strings.Fields(line)
	cmd := &Command{}
	if len(tokens) == 0 {
		return cmd, nil
	}

	cmd.Program = tokens[0]
	cmd.Args = append(cmd.Args, cmd.Program)
	if cmd.Comment() {
		return cmd, nil
	}

	for i := 1; i < len(tokens); i++ {
		switch tokens[i] {
		case tokenInput, tokenOutput:
			if i+1 >= len(tokens) {
				return nil, &Error{Op: tokens[i], Err: ErrMissingTarget}
			}
			if tokens[i] == tokenInput {
				cmd.InputPath = tokens[i+1]
			} else {
				cmd.OutputPath = tokens[i+1]
			}
			i++
		case tokenBackground:
			if i == len(tokens)-1 {
				cmd.Background = true
				continue
			}
			cmd.Args = append(cmd.Args, tokens[i], tokens[i+1])
			i++
		default:
			cmd.Args = append(cmd.Args, tokens[i])
		}
	}

	return cmd, nil
}
