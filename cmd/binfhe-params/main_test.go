package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/KAIST-CryptLab/binfhe-params/report"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTargetNoiseAndFailure(t *testing.T) {

	out, err := run(t, "", "target-noise", "--log-failure", "-32", "--inputs", "2", "--q", "1024")
	require.NoError(t, err)
	require.Contains(t, out, "target stddev:")

	out, err = run(t, "", "failure", "--stddev", "20", "--inputs", "2", "--q", "1024")
	require.NoError(t, err)
	require.Contains(t, out, "log2 failure:")

	_, err = run(t, "", "failure", "--stddev", "-1")
	require.Error(t, err)
}

func TestStdparams(t *testing.T) {
	out, err := run(t, "", "stdparams", "--n", "1024", "--ring-dim", "2048")
	require.NoError(t, err)
	require.Contains(t, out, "STD128Q")
	require.Contains(t, out, "params128NQ1")
	require.NotContains(t, out, "\n4096 ")
}

func TestEstimate(t *testing.T) {

	out, err := run(t, "", "estimate", "--estimator", "analytic", "--n", "1024", "--logq", "20", "--level", "STD128")
	require.NoError(t, err)
	require.Contains(t, out, "meets STD128:")
	require.Contains(t, out, "true")

	_, err = run(t, "", "estimate", "--estimator", "analytic", "--n", "1024")
	require.Error(t, err)
}

func TestOptimize(t *testing.T) {
	out, err := run(t, "", "optimize", "modulus", "--estimator", "analytic", "--n", "1024", "--level", "STD128")
	require.NoError(t, err)
	require.Contains(t, out, "n=1024 logq=")

	out, err = run(t, "", "optimize", "dimension", "--estimator", "analytic", "--logq", "15", "--level", "STD128")
	require.NoError(t, err)
	require.Contains(t, out, "logq=15")
}

func TestFit(t *testing.T) {

	path := filepath.Join(t.TempDir(), "points.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- {n: 500, logq: 12}\n- {n: 1000, logq: 24}\n"), 0o644))

	out, err := run(t, "", "fit", "--points", path)
	require.NoError(t, err)

	var got fitOutput
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	require.InDelta(t, 0.024, got.Relation.A, 1e-9)
	require.InDelta(t, 0, got.Relation.B, 1e-9)

	out, err = run(t, "", "fit", "--estimator", "analytic", "--level", "STD128", "--dims", "600,800,1000")
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	require.Len(t, got.Points, 3)
	require.Greater(t, got.Relation.A, 0.0)

	_, err = run(t, "", "fit")
	require.Error(t, err)
}

func TestNoise(t *testing.T) {

	out, err := run(t, "", "noise", "--set", "STD128Q_OPT_3", "--sampler", "analytical", "--inputs", "3")
	require.NoError(t, err)
	require.Contains(t, out, "stddev:")
	require.Contains(t, out, "decryption failure (3 inputs):")

	_, err = run(t, "", "noise", "--sampler", "analytical")
	require.Error(t, err)
}

func TestSelect(t *testing.T) {

	out, err := run(t, "2\nSTD128Q\n-32\n2\n100\n3\n",
		"select", "--interactive", "--noise", "analytical", "--digits-g", "2,3", "--format", "yaml")
	require.NoError(t, err)

	i := strings.Index(out, "request:")
	require.GreaterOrEqual(t, i, 0)
	require.Contains(t, out[:i], "Enter Distribution")

	var rep report.Report
	require.NoError(t, yaml.Unmarshal([]byte(out[i:]), &rep))
	require.Equal(t, 100, rep.Request.Samples)
	require.Equal(t, []int{2, 3}, rep.Request.DigitsG)
	require.Len(t, rep.Results, 2)

	// flags skip their prompts
	out, err = run(t, "STD128\n-40\n100\n",
		"select", "-i", "--noise", "analytical", "--dist", "ternary", "--inputs", "3", "--digits-ks", "2", "--digits-g", "3", "--format", "csv")
	require.NoError(t, err)
	require.NotContains(t, out, "Enter Distribution")
	require.Contains(t, out, "digits_g,found")

	_, err = run(t, "7\n", "select", "-i", "--noise", "analytical")
	require.ErrorContains(t, err, "input not in valid range (0 - 2)")

	_, err = run(t, "", "select", "--noise", "analytical", "--format", "pdf")
	require.Error(t, err)
}
