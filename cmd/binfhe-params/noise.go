package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/KAIST-CryptLab/binfhe-params/config"
	"github.com/KAIST-CryptLab/binfhe-params/core/failure"
	"github.com/KAIST-CryptLab/binfhe-params/core/stdparams"
	"github.com/KAIST-CryptLab/binfhe-params/noise"
	"github.com/KAIST-CryptLab/binfhe-params/params"
)

func loadParams(file, set string) (params.Parameters, error) {
	switch {
	case file != "" && set != "":
		return params.Parameters{}, errors.New("--params and --set are exclusive")
	case file != "":
		return params.LoadYAML(file)
	case set != "":
		return params.GetNamedSet(set)
	default:
		return params.Parameters{}, errors.New("one of --params or --set is required")
	}
}

func newNoiseCmd(a *app) *cobra.Command {

	var (
		file    string
		set     string
		samples int
		inputs  int
		dist    string
	)

	cmd := &cobra.Command{
		Use:   "noise",
		Short: "Measure the bootstrapping noise of a parameter set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {

			p, err := loadParams(file, set)
			if err != nil {
				return err
			}

			d, err := stdparams.ParseDistType(dist)
			if err != nil {
				return err
			}

			sampler, err := config.NewSampler(a.cfg.Noise, d, a.log)
			if err != nil {
				return err
			}

			m, err := sampler.Sample(cmd.Context(), p, samples)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "parameters:\t%s\n", p)
			fmt.Fprintf(w, "samples:\t%d\n", m.Samples)
			fmt.Fprintf(w, "mean:\t%.4f\n", m.Mean)
			fmt.Fprintf(w, "stddev:\t%.4f\n", m.Stddev)
			fmt.Fprintf(w, "analytical stddev:\t%.4f\n", noise.Analytical{}.Stddev(p))

			if lf, err := failure.DecryptionFailure(m.Stddev, 2*uint64(inputs), p.Q(), inputs); err == nil {
				fmt.Fprintf(w, "decryption failure (%d inputs):\t2^%.2f\n", inputs, lf)
			}

			if perf := m.Performance; !perf.IsZero() {
				fmt.Fprintf(w, "bootstrapping key:\t%d bytes\n", perf.BootstrappingKeySize)
				fmt.Fprintf(w, "key switching key:\t%d bytes\n", perf.KeySwitchingKeySize)
				fmt.Fprintf(w, "ciphertext:\t%d bytes\n", perf.CiphertextSize)
				fmt.Fprintf(w, "bootstrapping key generation:\t%s\n", perf.BootstrapKeyGenTime)
				fmt.Fprintf(w, "binary gate evaluation:\t%s\n", perf.EvalBinGateTime)
			}

			return w.Flush()
		},
	}

	f := cmd.Flags()
	f.StringVar(&file, "params", "", "parameter file (YAML)")
	f.StringVar(&set, "set", "", "named parameter set, e.g. STD128Q_OPT_3")
	f.IntVar(&samples, "samples", 1000, "number of samples")
	f.IntVar(&inputs, "inputs", 2, "gate inputs for the failure rate")
	f.StringVar(&dist, "dist", stdparams.Ternary.String(), "secret distribution")
	f.String("sampler", "command", "noise sampler: command, lwe or analytical")
	f.String("script", "", "noise harness")
	f.String("sys-path", "", "harness library path")

	a.bind(cmd, map[string]string{
		"sampler":  "noise.kind",
		"script":   "noise.script",
		"sys-path": "noise.sys_path",
	})

	return cmd
}
