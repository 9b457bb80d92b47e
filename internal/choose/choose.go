// Package choose implements the interactive host selection prompt.
package choose

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrInvalidSelection is returned for entries that are not an index or an
// index range within the list.
var ErrInvalidSelection = errors.New("invalid selection")

// ParseSelection parses a line such as "1,3-5,10" into zero-based indices
// below n, in the order given. Whitespace anywhere in the line is ignored.
// The whole line is rejected if any entry is invalid.
func ParseSelection(line string, n int) ([]int, error) {
	line = strings.Join(strings.Fields(line), "")
	if line == "" {
		return nil, nil
	}

	var out []int
	for _, part := range strings.Split(line, ",") {
		if strings.Count(part, "-") == 1 {
			lo, hi, _ := strings.Cut(part, "-")
			start, err := index(lo, n)
			if err != nil {
				return nil, err
			}
			stop, err := index(hi, n)
			if err != nil {
				return nil, err
			}
			for i := start; i <= stop; i++ {
				out = append(out, i)
			}
			continue
		}

		i, err := index(part, n)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, nil
}

func index(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSelection, s)
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("%w: %d out of range 0-%d", ErrInvalidSelection, i, n-1)
	}
	return i, nil
}

// Prompt lists hosts with their indices on w and reads selections from r
// until an empty line or EOF. Selections accumulate across lines; an invalid
// line is reported and ignored. Hosts are returned in selection order,
// without repeats.
func Prompt(r io.Reader, w io.Writer, hosts []string) []string {
	if len(hosts) == 0 {
		return nil
	}

	for i, h := range hosts {
		fmt.Fprintf(w, "%d: %s\n", i, h)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Choose any numbers from above, then press enter again.")
	fmt.Fprintln(w, "Multiple numbers can be given as comma separated values and ranges, e.g. 1,3-5,10-30,35")

	var (
		out     []string
		seen    = make(map[int]bool)
		scanner = bufio.NewScanner(r)
	)
	for {
		fmt.Fprint(w, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(w)
			break
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			break
		}

		picks, err := ParseSelection(line, len(hosts))
		if err != nil {
			fmt.Fprintln(w, "Invalid input. Try again.")
			continue
		}
		for _, i := range picks {
			if !seen[i] {
				seen[i] = true
				out = append(out, hosts[i])
			}
		}
	}
	return out
}

// Stdio adapts Prompt to engine.Selector.
type Stdio struct {
	In  io.Reader
	Out io.Writer
}

// Select implements engine.Selector.
func (s *Stdio) Select(hosts []string) []string {
	return Prompt(s.In, s.Out, hosts)
}
