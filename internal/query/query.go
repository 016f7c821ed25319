// Package query implements the rank / select / quantile command grammar
// shared by the interactive console and the HTTP server.
package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Kind ...
type Kind int

const (
	Rank Kind = iota
	Select
	Quantile
	Exit
)

var kindNames = [...]string{"rank", "select", "quantile", "exit"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// Command is one parsed query. Arg is used by Rank and Select, Phi by
// Quantile.
type Command struct {
	Kind Kind
	Arg  int64
	Phi  float64
}

// String renders the command in canonical form, e.g. "quantile(0.5)".
func (c Command) String() string {
	switch c.Kind {
	case Rank, Select:
		return c.Kind.String() + "(" + strconv.FormatInt(c.Arg, 10) + ")"
	case Quantile:
		return "quantile(" + strconv.FormatFloat(c.Phi, 'g', -1, 64) + ")"
	}
	return c.Kind.String()
}

// SyntaxError is returned by Parse for input outside the grammar.
type SyntaxError struct {
	Input string
	Msg   string
}

func (e *SyntaxError) Error() string {
	return e.Msg
}

// DomainError is returned by Validate for well formed commands whose
// argument lies outside the accepted range.
type DomainError struct {
	Command Command
	Msg     string
}

func (e *DomainError) Error() string {
	return e.Msg
}

const usage = "Unknown command. Use rank(x), select(r), quantile(phi), or exit"

// Parse reads a single command. Surrounding whitespace is ignored, as is
// whitespace inside the parentheses.
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "exit" {
		return Command{Kind: Exit}, nil
	}

	open := strings.IndexByte(line, '(')
	if open < 0 {
		return Command{}, &SyntaxError{Input: line, Msg: usage}
	}
	var cmd Command
	switch line[:open] {
	case "rank":
		cmd.Kind = Rank
	case "select":
		cmd.Kind = Select
	case "quantile":
		cmd.Kind = Quantile
	default:
		return Command{}, &SyntaxError{Input: line, Msg: usage}
	}

	name := cmd.Kind.String()
	if !strings.HasSuffix(line, ")") {
		return Command{}, &SyntaxError{Input: line, Msg: fmt.Sprintf("Invalid syntax. Use %s(%s)", name, argName(cmd.Kind))}
	}
	arg := strings.TrimSpace(line[open+1 : len(line)-1])

	var err error
	if cmd.Kind == Quantile {
		cmd.Phi, err = strconv.ParseFloat(arg, 64)
		if err != nil {
			return Command{}, &SyntaxError{Input: line, Msg: "Invalid number for quantile"}
		}
		return cmd, nil
	}
	cmd.Arg, err = strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return Command{}, &SyntaxError{Input: line, Msg: "Invalid integer for " + name}
	}
	return cmd, nil
}

func argName(k Kind) string {
	switch k {
	case Select:
		return "r"
	case Quantile:
		return "phi"
	}
	return "x"
}

// Validate checks the argument against a stream of n values: select
// needs r in [1, n] and quantile needs phi in [0, 1]. rank accepts any x.
func (c Command) Validate(n int64) error {
	switch c.Kind {
	case Select:
		if c.Arg < 1 || c.Arg > n {
			return &DomainError{Command: c, Msg: fmt.Sprintf("r must be in [1, %d]", n)}
		}
	case Quantile:
		// NaN fails both comparisons.
		if !(c.Phi >= 0 && c.Phi <= 1) {
			return &DomainError{Command: c, Msg: "phi must be in [0,1]"}
		}
	}
	return nil
}

// Sketch is the query surface a command runs against.
type Sketch interface {
	Rank(x int64) int64
	Select(r int64) (int64, error)
	Quantile(phi float64) (int64, error)
}

// Result is the answer to a command.
type Result struct {
	Command Command
	Value   int64
}

func (r Result) String() string {
	return r.Command.String() + " = " + strconv.FormatInt(r.Value, 10)
}

// Exec runs c against s. It does not validate c; callers that know the
// stream size call Validate first.
func (c Command) Exec(s Sketch) (Result, error) {
	res := Result{Command: c}
	var err error
	switch c.Kind {
	case Rank:
		res.Value = s.Rank(c.Arg)
	case Select:
		res.Value, err = s.Select(c.Arg)
	case Quantile:
		res.Value, err = s.Quantile(c.Phi)
	default:
		return res, errors.Errorf("%s is not a query", c.Kind)
	}
	return res, err
}
