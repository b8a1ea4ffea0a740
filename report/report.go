// Package report renders the results of a parameter selection.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/KAIST-CryptLab/binfhe-params/core/stdparams"
	"github.com/KAIST-CryptLab/binfhe-params/noise"
	"github.com/KAIST-CryptLab/binfhe-params/params"
	"github.com/KAIST-CryptLab/binfhe-params/search"
)

// Entry is the serialisable form of a search.Result.
type Entry struct {
	DigitsG     int                       `yaml:"digits_g"`
	Found       bool                      `yaml:"found"`
	Params      *params.ParametersLiteral `yaml:"params,omitempty"`
	Noise       float64                   `yaml:"noise,omitempty"`
	Target      float64                   `yaml:"target_noise"`
	LogFailure  float64                   `yaml:"log_failure,omitempty"`
	Tuned       bool                      `yaml:"tuned,omitempty"`
	Security    *search.Security          `yaml:"security,omitempty"`
	Performance *noise.Performance        `yaml:"performance,omitempty"`
}

// Report is the document written by YAML.
type Report struct {
	Request search.Request `yaml:"request"`
	Results []Entry        `yaml:"results"`
	Best    *int           `yaml:"best_digits_g,omitempty"`
}

// New collects the request and results into a Report.
func New(req search.Request, results []search.Result) Report {

	rep := Report{Request: req, Results: make([]Entry, len(results))}

	for i, r := range results {
		e := Entry{DigitsG: r.DigitsG, Found: r.Found, Target: r.Target}
		if r.Found {
			lit := r.Params.Literal()
			e.Params = &lit
			e.Noise = r.Noise
			e.LogFailure = r.LogFailure
			e.Tuned = r.Tuned
			e.Security = r.Security
			if !r.Performance.IsZero() {
				perf := r.Performance
				e.Performance = &perf
			}
		}
		rep.Results[i] = e
	}

	if best, ok := search.Best(results); ok {
		dg := best.DigitsG
		rep.Best = &dg
	}

	return rep
}

// YAML writes rep as a YAML document.
func YAML(w io.Writer, rep Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return err
	}
	return enc.Close()
}

var csvHeader = []string{"digits_g", "found", "n", "q", "N", "logQ", "Qks", "Bg", "Bks", "Brk", "sigma", "noise", "target_noise", "log_failure", "tuned"}

// CSV writes one row per result. Missing values are left empty.
func CSV(w io.Writer, rep Report) error {

	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, e := range rep.Results {
		row := make([]string, len(csvHeader))
		row[0] = strconv.Itoa(e.DigitsG)
		row[1] = strconv.FormatBool(e.Found)
		row[12] = formatFloat(e.Target)
		if p := e.Params; p != nil {
			row[2] = strconv.Itoa(p.N)
			row[3] = strconv.FormatUint(p.Q, 10)
			row[4] = strconv.Itoa(p.RingN)
			row[5] = strconv.Itoa(p.LogQ)
			row[6] = strconv.FormatUint(p.Qks, 10)
			row[7] = strconv.FormatUint(p.Bg, 10)
			row[8] = strconv.FormatUint(p.Bks, 10)
			row[9] = strconv.FormatUint(p.Brk, 10)
			row[10] = formatFloat(p.Sigma)
			row[11] = formatFloat(e.Noise)
			row[13] = formatFloat(e.LogFailure)
			row[14] = strconv.FormatBool(e.Tuned)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// Text writes a human readable summary.
func Text(w io.Writer, rep Report) error {

	ew := &errWriter{w: w}
	req := rep.Request

	ew.printf("Input parameters:\n")
	tw := tabwriter.NewWriter(ew, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  dist_type:\t%s\n", req.Dist)
	fmt.Fprintf(tw, "  sec_level:\t%s\n", Level(req.Level))
	fmt.Fprintf(tw, "  decryption failure rate:\t2^%g\n", req.LogFailure)
	fmt.Fprintf(tw, "  num_of_inputs:\t%d\n", req.Inputs)
	fmt.Fprintf(tw, "  num_of_samples:\t%d\n", req.Samples)
	fmt.Fprintf(tw, "  key switching digits:\t%d\n", req.DigitsKS)
	tw.Flush()

	for _, e := range rep.Results {

		ew.printf("\nd_g = %d: ", e.DigitsG)

		if !e.Found {
			ew.printf("cannot find parameters\n")
			continue
		}

		p := e.Params
		ew.printf("final parameters\n")
		tw := tabwriter.NewWriter(ew, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "  lattice dimension n:\t%d\n", p.N)
		fmt.Fprintf(tw, "  ringsize N:\t%d\n", p.RingN)
		fmt.Fprintf(tw, "  lattice modulus q:\t%d\n", p.Q)
		fmt.Fprintf(tw, "  size of ring modulus Q:\t%d bits\n", p.LogQ)
		fmt.Fprintf(tw, "  key switching modulus Qks:\t2^%d\n", params.Log2(p.Qks))
		fmt.Fprintf(tw, "  gadget digit base B_g:\t2^%d\n", params.Log2(p.Bg))
		fmt.Fprintf(tw, "  key switching digit base B_ks:\t2^%d\n", params.Log2(p.Bks))
		fmt.Fprintf(tw, "  refreshing digit base B_rk:\t2^%d\n", params.Log2(p.Brk))
		fmt.Fprintf(tw, "  noise (target):\t%.4f (%.4f)\n", e.Noise, e.Target)
		fmt.Fprintf(tw, "  decryption failure rate:\t2^%.2f\n", e.LogFailure)
		if e.Tuned {
			fmt.Fprintf(tw, "  tuned bases:\tyes\n")
		}
		if s := e.Security; s != nil {
			fmt.Fprintf(tw, "  estimated security (n, Qks):\t%d bits\n", s.LWEBits)
			fmt.Fprintf(tw, "  estimated security (N, Q):\t%d bits\n", s.RLWEBits)
		}
		if perf := e.Performance; perf != nil {
			fmt.Fprintf(tw, "  bootstrapping key:\t%d bytes\n", perf.BootstrappingKeySize)
			fmt.Fprintf(tw, "  key switching key:\t%d bytes\n", perf.KeySwitchingKeySize)
			fmt.Fprintf(tw, "  ciphertext:\t%d bytes\n", perf.CiphertextSize)
			fmt.Fprintf(tw, "  bootstrapping key generation:\t%s\n", perf.BootstrapKeyGenTime)
			fmt.Fprintf(tw, "  binary gate evaluation:\t%s\n", perf.EvalBinGateTime)
		}
		tw.Flush()
	}

	if rep.Best != nil {
		ew.printf("\nbest: d_g = %d\n", *rep.Best)
	}

	return ew.err
}

// Level formats a security level with its cost model.
func Level(l stdparams.SecurityLevel) string {
	if l.Quantum {
		return l.String() + " (quantum)"
	}
	return l.String() + " (classical)"
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) Write(p []byte) (int, error) {
	if ew.err != nil {
		return 0, ew.err
	}
	var n int
	n, ew.err = ew.w.Write(p)
	return n, ew.err
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	fmt.Fprintf(ew, format, args...)
}
