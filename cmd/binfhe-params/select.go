package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/KAIST-CryptLab/binfhe-params/report"
	"github.com/KAIST-CryptLab/binfhe-params/search"
)

func newSelectCmd(a *app) *cobra.Command {

	var (
		interactive bool
		format      string
		output      string
	)

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Select parameters for each gadget digit count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {

			if interactive {
				p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
				if err := promptSelection(p, cmd.Flags(), &a.cfg.Selection); err != nil {
					return err
				}
			}

			sel, req, err := a.cfg.NewSelector(a.log)
			if err != nil {
				return err
			}

			a.log.WithFields(logrus.Fields{
				"dist":     req.Dist.String(),
				"level":    req.Level.String(),
				"failure":  req.LogFailure,
				"inputs":   req.Inputs,
				"digits_g": req.DigitsG,
			}).Info("starting parameter selection")

			results, err := sel.Run(cmd.Context(), req)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			return writeReport(w, format, report.New(req, results))
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&interactive, "interactive", "i", false, "prompt for inputs not given as flags")
	f.StringVarP(&format, "format", "f", "text", "output format: text, yaml or csv")
	f.StringVarP(&output, "output", "o", "", "write the report to a file")

	def := search.DefaultRequest()
	f.String("dist", def.Dist.String(), "secret distribution: uniform, error, ternary or 0-2")
	f.String("level", def.Level.String(), "security level (STD128, STD128Q, ...)")
	f.Float64("log-failure", def.LogFailure, "log2 of the target decryption failure rate")
	f.Int("inputs", def.Inputs, "number of inputs to the boolean gate")
	f.Int("samples", def.Samples, "number of noise samples per measurement")
	f.Int("digits-ks", def.DigitsKS, "key switching digit count")
	f.IntSlice("digits-g", def.DigitsG, "gadget digit counts to explore")
	f.IntSlice("ring-dims", def.RingDims, "ring dimensions to explore")
	f.Bool("verify", false, "check every result with the lattice estimator")
	f.Bool("tune", false, "lower the decomposition bases when no dimension fits")
	f.Int("parallelism", 0, "digit counts explored at once (0 = all)")
	f.String("noise", "command", "noise sampler: command, lwe or analytical")
	f.String("estimator", "command", "lattice estimator: command or analytic")

	a.bind(cmd, map[string]string{
		"dist":        "selection.dist",
		"level":       "selection.level",
		"log-failure": "selection.log_failure",
		"inputs":      "selection.inputs",
		"samples":     "selection.samples",
		"digits-ks":   "selection.digits_ks",
		"digits-g":    "selection.digits_g",
		"ring-dims":   "selection.ring_dims",
		"verify":      "selection.verify",
		"tune":        "selection.tune_digits",
		"parallelism": "selection.parallelism",
		"noise":       "noise.kind",
		"estimator":   "estimator.kind",
	})

	return cmd
}

func writeReport(w io.Writer, format string, rep report.Report) error {
	switch format {
	case "text":
		return report.Text(w, rep)
	case "yaml":
		return report.YAML(w, rep)
	case "csv":
		return report.CSV(w, rep)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
