package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var errNoInput = errors.New("cannot read from stdin")

type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewScanner(in), out: out}
}

func (p *prompter) readLine() (string, error) {
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", fmt.Errorf("%w: %v", errNoInput, err)
		}
		return "", errNoInput
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// yes asks a yes/no question; an empty answer picks def.
func (p *prompter) yes(message string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	fmt.Fprintf(p.out, "%s [%s]\n-> ", message, hint)

	answer, err := p.readLine()
	if err != nil {
		return false, err
	}
	switch answer {
	case "":
		return def, nil
	case "Yes", "yes", "Y", "y":
		return true, nil
	default:
		return false, nil
	}
}

// number asks until it gets a non-negative integer. With def set, an empty
// answer picks it.
func (p *prompter) number(message string, def *uint64) (uint64, error) {
	for {
		if def != nil {
			fmt.Fprintf(p.out, "%s [%d]: ", message, *def)
		} else {
			fmt.Fprintf(p.out, "%s -> ", message)
		}

		answer, err := p.readLine()
		if err != nil {
			return 0, err
		}
		if answer == "" && def != nil {
			return *def, nil
		}
		n, err := strconv.ParseUint(answer, 10, 64)
		if err != nil {
			fmt.Fprintf(p.out, "%q is not a number!\n", answer)
			continue
		}
		return n, nil
	}
}

func uintPtr(v uint64) *uint64 {
	return &v
}
