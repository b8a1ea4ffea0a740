package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/KAIST-CryptLab/binfhe-params/core/stdparams"
)

func newStdparamsCmd(a *app) *cobra.Command {

	var (
		dist    string
		ringDim int
		dim     int
	)

	cmd := &cobra.Command{
		Use:   "stdparams",
		Short: "Show the standard tables and linear relations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {

			d, err := stdparams.ParseDistType(dist)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

			fmt.Fprintf(w, "level\tA\tB")
			if dim > 0 {
				fmt.Fprintf(w, "\tlogq(n=%d)", dim)
			}
			fmt.Fprintln(w)
			for _, l := range stdparams.SecurityLevels() {
				r, err := stdparams.Relation(l)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%.6f\t%.6f", l, r.A, r.B)
				if dim > 0 {
					m, err := stdparams.MaxLogModulus(dim, l)
					if err != nil {
						return err
					}
					fmt.Fprintf(w, "\t%d", m)
				}
				fmt.Fprintln(w)
			}

			fmt.Fprintf(w, "\nN\tdist\t128\t192\t256\n")
			for _, N := range stdparams.RingDims() {
				if ringDim > 0 && N != ringDim {
					continue
				}
				fmt.Fprintf(w, "%d\t%s", N, d.Short())
				for _, bits := range []int{128, 192, 256} {
					logQ, _ := stdparams.MaxLogQ(d, N, bits)
					fmt.Fprintf(w, "\t%d", logQ)
				}
				fmt.Fprintln(w)
			}

			fmt.Fprintf(w, "\nname\tlevel\tdim\tlogq\tlogqks\tlogbks\n")
			for _, s := range stdparams.StandardSets() {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\n", s.Name, s.Level, s.Dim, s.LogQ, s.LogQks, s.LogBks)
			}

			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&dist, "dist", stdparams.Ternary.String(), "secret distribution of the ring table")
	cmd.Flags().IntVar(&ringDim, "ring-dim", 0, "only show this ring dimension")
	cmd.Flags().IntVar(&dim, "n", 0, "also evaluate the linear relations at this dimension")

	return cmd
}
