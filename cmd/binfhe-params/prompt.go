package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/KAIST-CryptLab/binfhe-params/config"
	"github.com/KAIST-CryptLab/binfhe-params/core/stdparams"
)

type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewScanner(in), out: out}
}

func (p *prompter) ask(msg string) (string, error) {
	fmt.Fprint(p.out, msg)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimSpace(p.in.Text()), nil
}

func (p *prompter) askInt(msg string) (int, error) {
	s, err := p.ask(msg)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return v, nil
}

func checkRange(val, lo, hi int) error {
	if val < lo || val > hi {
		return fmt.Errorf("input not in valid range (%d - %d)", lo, hi)
	}
	return nil
}

var errNotNegative = errors.New("decryption failure rate must be a negative power of 2")

// promptSelection asks for every selection input whose flag was not set.
func promptSelection(p *prompter, fs *pflag.FlagSet, sel *config.SelectionConfig) error {

	fmt.Fprintln(p.out, "Parameter selector for FHEW like schemes")

	if !fs.Changed("dist") {
		d, err := p.askInt("Enter Distribution (0 = HEStd_uniform, 1 = HEStd_error, 2 = HEStd_ternary): ")
		if err != nil {
			return err
		}
		if err := checkRange(d, int(stdparams.Uniform), int(stdparams.Ternary)); err != nil {
			return err
		}
		sel.Dist = stdparams.DistType(d).String()
	}

	if !fs.Changed("level") {
		s, err := p.ask("Enter Security level (STD128, STD128Q, STD192, STD192Q, STD256, STD256Q): ")
		if err != nil {
			return err
		}
		l, err := stdparams.ParseSecurityLevel(s)
		if err != nil {
			return err
		}
		sel.Level = l.String()
	}

	if !fs.Changed("log-failure") {
		v, err := p.askInt("Enter expected decryption failure rate (as a power of 2, for example, enter -32 for 2^-32 failure rate): ")
		if err != nil {
			return err
		}
		if v >= 0 {
			return errNotNegative
		}
		sel.LogFailure = float64(v)
	}

	if !fs.Changed("inputs") {
		v, err := p.askInt("Enter expected number of inputs to the boolean gate: ")
		if err != nil {
			return err
		}
		if err := checkRange(v, 1, 64); err != nil {
			return err
		}
		sel.Inputs = v
	}

	if !fs.Changed("samples") {
		v, err := p.askInt("Enter expected number of samples to estimate noise: ")
		if err != nil {
			return err
		}
		if err := checkRange(v, 2, 1<<24); err != nil {
			return err
		}
		sel.Samples = v
	}

	if !fs.Changed("digits-ks") {
		v, err := p.askInt("Enter key switching digit size: ")
		if err != nil {
			return err
		}
		if err := checkRange(v, 1, 64); err != nil {
			return err
		}
		sel.DigitsKS = v
	}

	return nil
}
