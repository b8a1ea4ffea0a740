package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KAIST-CryptLab/binfhe-params/core/stdparams"
)

func newOptimizeCmd(a *app) *cobra.Command {

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Move a modulus or a dimension to the boundary of a security level",
	}

	cmd.AddCommand(newOptimizeModulusCmd(a), newOptimizeDimensionCmd(a))

	return cmd
}

func newOptimizeModulusCmd(a *app) *cobra.Command {

	var (
		sec  securityFlags
		dim  int
		logQ int
	)

	cmd := &cobra.Command{
		Use:   "modulus",
		Short: "Largest log2 modulus meeting the level in dimension n",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {

			opt, err := sec.optimizer(a)
			if err != nil {
				return err
			}

			start := logQ
			if start == 0 {
				if start, err = stdparams.MaxLogModulus(dim, opt.Level); err != nil {
					return err
				}
			}

			res, err := opt.OptimizeModulus(cmd.Context(), dim, start)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "n=%d logq=%d (start %d) %s\n", dim, res, start, opt.Level)
			return nil
		},
	}

	sec.register(cmd)
	cmd.Flags().IntVar(&dim, "n", 0, "LWE dimension")
	cmd.Flags().IntVar(&logQ, "logq", 0, "starting log2 modulus (0 = linear relation)")
	cmd.MarkFlagRequired("n")
	addEstimatorFlags(a, cmd)

	return cmd
}

func newOptimizeDimensionCmd(a *app) *cobra.Command {

	var (
		sec  securityFlags
		dim  int
		logQ int
		pow2 bool
		step int
	)

	cmd := &cobra.Command{
		Use:   "dimension",
		Short: "Smallest dimension meeting the level for modulus 2^logq",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {

			opt, err := sec.optimizer(a)
			if err != nil {
				return err
			}
			if step > 0 {
				opt.DimStep = step
			}

			start := dim
			if start == 0 {
				r, err := stdparams.Relation(opt.Level)
				if err != nil {
					return err
				}
				start = r.Dimension(logQ)
			}

			res, err := opt.OptimizeDimension(cmd.Context(), start, logQ, pow2)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "n=%d (start %d) logq=%d %s\n", res, start, logQ, opt.Level)
			return nil
		},
	}

	sec.register(cmd)
	cmd.Flags().IntVar(&logQ, "logq", 0, "log2 modulus")
	cmd.Flags().IntVar(&dim, "n", 0, "starting dimension (0 = linear relation)")
	cmd.Flags().BoolVar(&pow2, "pow2", false, "restrict to powers of two")
	cmd.Flags().IntVar(&step, "step", 0, "dimension step (0 = default)")
	cmd.MarkFlagRequired("logq")
	addEstimatorFlags(a, cmd)

	return cmd
}
