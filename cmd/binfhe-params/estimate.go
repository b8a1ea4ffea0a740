package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/KAIST-CryptLab/binfhe-params/config"
	"github.com/KAIST-CryptLab/binfhe-params/core/stdparams"
	"github.com/KAIST-CryptLab/binfhe-params/estimator"
	"github.com/KAIST-CryptLab/binfhe-params/search"
)

// securityFlags are shared by the commands that query the lattice estimator.
type securityFlags struct {
	dist  string
	level string
	sigma float64
}

func (s *securityFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&s.dist, "dist", stdparams.Ternary.String(), "secret distribution")
	f.StringVar(&s.level, "level", stdparams.STD128Q.String(), "security level")
	f.Float64Var(&s.sigma, "sigma", estimator.DefaultSigma, "error standard deviation")
}

func (s *securityFlags) parse() (stdparams.DistType, stdparams.SecurityLevel, error) {
	dist, err := stdparams.ParseDistType(s.dist)
	if err != nil {
		return 0, stdparams.SecurityLevel{}, err
	}
	level, err := stdparams.ParseSecurityLevel(s.level)
	return dist, level, err
}

func (s *securityFlags) optimizer(a *app) (*search.SecurityOptimizer, error) {
	dist, level, err := s.parse()
	if err != nil {
		return nil, err
	}
	est, err := newEstimator(a)
	if err != nil {
		return nil, err
	}
	opt := search.NewSecurityOptimizer(est, level, dist, s.sigma, a.log)
	if a.cfg.Estimator.MaxRetries > 0 {
		opt.MaxRetries = a.cfg.Estimator.MaxRetries
	}
	return opt, nil
}

func newEstimator(a *app) (estimator.Estimator, error) {
	return config.NewEstimator(a.cfg.Estimator, a.log)
}

func newEstimateCmd(a *app) *cobra.Command {

	var (
		sec  securityFlags
		dim  int
		logQ int
	)

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate the security of an LWE instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {

			dist, level, err := sec.parse()
			if err != nil {
				return err
			}

			est, err := newEstimator(a)
			if err != nil {
				return err
			}

			q := estimator.Query{Dim: dim, LogQ: logQ, Dist: dist, Quantum: level.Quantum, Sigma: sec.sigma}
			res, err := est.Estimate(cmd.Context(), q)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "instance:\t%s\n", q)
			fmt.Fprintf(w, "cost model:\t%s\n", estimator.CostModel(level.Quantum))
			names := maps.Keys(res.Attacks)
			slices.Sort(names)
			for _, name := range names {
				fmt.Fprintf(w, "  %s:\t2^%.1f\n", name, res.Attacks[name])
			}
			fmt.Fprintf(w, "security:\t%d bits\n", res.Bits)
			fmt.Fprintf(w, "meets %s:\t%t\n", level, res.Secure(level))
			return w.Flush()
		},
	}

	sec.register(cmd)
	cmd.Flags().IntVar(&dim, "n", 0, "LWE dimension")
	cmd.Flags().IntVar(&logQ, "logq", 0, "log2 of the modulus")
	cmd.MarkFlagRequired("n")
	cmd.MarkFlagRequired("logq")

	addEstimatorFlags(a, cmd)

	return cmd
}

// addEstimatorFlags binds the estimator selection flags of cmd.
func addEstimatorFlags(a *app, cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("estimator", "command", "lattice estimator: command or analytic")
	f.String("estimator-cache", "", "directory persisting estimates")
	f.Int("threads", 1, "estimator worker threads")
	a.bind(cmd, map[string]string{
		"estimator":       "estimator.kind",
		"estimator-cache": "estimator.cache_dir",
		"threads":         "estimator.threads",
	})
}
