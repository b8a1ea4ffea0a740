package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/KAIST-CryptLab/binfhe-params/core/stdparams"
)

type fitOutput struct {
	Level    stdparams.SecurityLevel  `yaml:"level,omitempty"`
	Points   []stdparams.Point        `yaml:"points"`
	Relation stdparams.LinearRelation `yaml:"relation"`
}

func newFitCmd(a *app) *cobra.Command {

	var (
		sec      securityFlags
		dims     []int
		points   string
		parallel int
	)

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit the linear relation between dimension and log2 modulus",
		Long: `fit finds, for every dimension given with --dims, the largest log2 modulus
meeting the security level and fits logq = A*n + B through the points.
Alternatively the points are read from a YAML file with --points.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {

			var out fitOutput

			switch {
			case points != "" && len(dims) > 0:
				return errors.New("--points and --dims are exclusive")
			case points != "":
				b, err := os.ReadFile(points)
				if err != nil {
					return err
				}
				if err := yaml.Unmarshal(b, &out.Points); err != nil {
					return fmt.Errorf("decoding %s: %w", points, err)
				}
			case len(dims) > 0:
				opt, err := sec.optimizer(a)
				if err != nil {
					return err
				}
				out.Level = opt.Level
				out.Points = make([]stdparams.Point, len(dims))

				g, ctx := errgroup.WithContext(cmd.Context())
				if parallel > 0 {
					g.SetLimit(parallel)
				}
				for i, dim := range dims {
					i, dim := i, dim
					g.Go(func() error {
						start, err := stdparams.MaxLogModulus(dim, opt.Level)
						if err != nil {
							return err
						}
						logQ, err := opt.OptimizeModulus(ctx, dim, start)
						if err != nil {
							return err
						}
						a.log.WithFields(logrus.Fields{"n": dim, "logq": logQ}).Info("boundary found")
						out.Points[i] = stdparams.Point{Dim: dim, LogQ: float64(logQ)}
						return nil
					})
				}
				if err := g.Wait(); err != nil {
					return err
				}
			default:
				return errors.New("one of --points or --dims is required")
			}

			rel, err := stdparams.FitLinearRelation(out.Points)
			if err != nil {
				return err
			}
			out.Relation = rel

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(out); err != nil {
				return err
			}
			return enc.Close()
		},
	}

	sec.register(cmd)
	cmd.Flags().IntSliceVar(&dims, "dims", nil, "dimensions to probe")
	cmd.Flags().StringVar(&points, "points", "", "YAML list of {n, logq} points")
	cmd.Flags().IntVar(&parallel, "parallel", 4, "dimensions probed at once (0 = all)")
	addEstimatorFlags(a, cmd)

	return cmd
}
