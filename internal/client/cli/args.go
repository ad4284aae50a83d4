package cli

import (
	"flag"
	"fmt"
	"io"
)

// parse lets flags appear before, between or after positional arguments
// and checks the number of positionals.
func parse(fs *flag.FlagSet, args []string, minPos, maxPos int) ([]string, error) {
	fs.SetOutput(io.Discard)

	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUsage, fs.Name(), err)
		}
		if fs.NArg() == 0 {
			break
		}
		pos = append(pos, fs.Arg(0))
		args = fs.Args()[1:]
	}

	if len(pos) < minPos || len(pos) > maxPos {
		return nil, fmt.Errorf("%w: %s expects %s", ErrUsage, fs.Name(), arity(minPos, maxPos))
	}
	return pos, nil
}

func arity(lo, hi int) string {
	if lo == hi {
		return fmt.Sprintf("%d argument(s)", lo)
	}
	return fmt.Sprintf("%d to %d arguments", lo, hi)
}
