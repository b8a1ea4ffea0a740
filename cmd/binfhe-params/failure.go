package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KAIST-CryptLab/binfhe-params/core/failure"
)

type moduliFlags struct {
	inputs int
	q      uint64
}

func (m *moduliFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&m.inputs, "inputs", 2, "number of gate inputs; the plaintext modulus is twice this")
	cmd.Flags().Uint64Var(&m.q, "q", 1024, "LWE ciphertext modulus")
}

func (m *moduliFlags) ptMod() uint64 {
	return 2 * uint64(m.inputs)
}

func newFailureCmd(a *app) *cobra.Command {

	var (
		mod    moduliFlags
		stddev float64
	)

	cmd := &cobra.Command{
		Use:   "failure",
		Short: "Decryption failure rate for a noise standard deviation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {

			lf, err := failure.DecryptionFailure(stddev, mod.ptMod(), mod.q, mod.inputs)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "log2 failure: %.4f\nprobability: %s\n", lf, failure.Probability(lf, 64).Text('g', 6))
			return nil
		},
	}

	mod.register(cmd)
	cmd.Flags().Float64Var(&stddev, "stddev", 0, "noise standard deviation")
	cmd.MarkFlagRequired("stddev")

	return cmd
}

func newTargetNoiseCmd(a *app) *cobra.Command {

	var (
		mod        moduliFlags
		logFailure float64
	)

	cmd := &cobra.Command{
		Use:   "target-noise",
		Short: "Largest noise standard deviation meeting a failure rate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {

			target, err := failure.TargetNoise(logFailure, mod.ptMod(), mod.q, mod.inputs)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "target stddev: %.6f\n", target)
			return nil
		},
	}

	mod.register(cmd)
	cmd.Flags().Float64Var(&logFailure, "log-failure", -32, "log2 of the failure rate")

	return cmd
}
