// Package console runs the interactive query loop over a built sketch.
package console

import (
	"bufio"
	"fmt"
	"io"

	"github.com/axiomhq/mrl/internal/query"
	"github.com/pkg/errors"
)

const banner = `
Interactive MRL sketch evaluation. Available commands:
  rank(x)       - Get rank of element x
  select(r)     - Get element at position r (1-indexed)
  quantile(phi) - Get element at quantile phi (phi in [0,1])
  exit          - Exit interactive MRL sketch evaluation
`

// Session reads commands from In until exit or end of input. Answers go
// to Out, errors to Err; a bad command never ends the session.
type Session struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	Sketch query.Sketch
	// N is the declared stream size select is checked against.
	N int64
}

// Run ...
func (s *Session) Run() error {
	fmt.Fprint(s.Out, banner)

	sc := bufio.NewScanner(s.In)
	for {
		fmt.Fprint(s.Out, "\n> ")
		if !sc.Scan() {
			break
		}
		cmd, err := query.Parse(sc.Text())
		if err != nil {
			s.fail(err)
			continue
		}
		if cmd.Kind == query.Exit {
			return nil
		}
		if err := cmd.Validate(s.N); err != nil {
			s.fail(err)
			continue
		}
		res, err := cmd.Exec(s.Sketch)
		if err != nil {
			s.fail(err)
			continue
		}
		fmt.Fprintln(s.Out, res)
	}
	return errors.Wrap(sc.Err(), "read command")
}

func (s *Session) fail(err error) {
	fmt.Fprintln(s.Err, "Error:", err)
}
