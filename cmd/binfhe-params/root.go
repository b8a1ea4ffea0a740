package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/KAIST-CryptLab/binfhe-params/config"
)

// app carries the state shared by the subcommands.
type app struct {
	v       *viper.Viper
	cfgFile string

	// flag name -> configuration key, per command
	bindings map[*cobra.Command]map[string]string

	cfg *config.Config
	log *logrus.Logger
}

func (a *app) bind(cmd *cobra.Command, keys map[string]string) {
	a.bindings[cmd] = keys
}

func (a *app) load(cmd *cobra.Command) error {

	if err := config.BindFlags(a.v, cmd.Root().PersistentFlags(), map[string]string{
		"verbose":    "log.verbose",
		"log-level":  "log.level",
		"log-format": "log.format",
	}); err != nil {
		return err
	}

	if keys, ok := a.bindings[cmd]; ok {
		if err := config.BindFlags(a.v, cmd.Flags(), keys); err != nil {
			return err
		}
	}

	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}

	log, err := config.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	log.SetOutput(cmd.ErrOrStderr())

	if cfg.LoadedFrom() != "" {
		log.WithField("path", cfg.LoadedFrom()).Debug("loaded configuration")
	}

	a.cfg, a.log = cfg, log
	return nil
}

func newRootCmd() *cobra.Command {

	a := &app{v: viper.New(), bindings: map[*cobra.Command]map[string]string{}}

	root := &cobra.Command{
		Use:   "binfhe-params",
		Short: "Parameter selection for FHEW-like schemes",
		Long: `binfhe-params selects parameter sets for FHEW-like bootstrapping: it
finds the smallest LWE dimension whose measured bootstrapping noise meets a
target decryption failure rate, with moduli chosen to reach a standard
security level according to the lattice estimator.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "configuration file (YAML)")
	pf.BoolP("verbose", "v", false, "debug logging")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text or json")

	root.AddCommand(
		newSelectCmd(a),
		newEstimateCmd(a),
		newOptimizeCmd(a),
		newNoiseCmd(a),
		newFailureCmd(a),
		newTargetNoiseCmd(a),
		newStdparamsCmd(a),
		newFitCmd(a),
	)

	return root
}
