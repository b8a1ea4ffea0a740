package estimator

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/KAIST-CryptLab/binfhe-params/internal/logutil"
)

// Command runs an external driver around the lattice estimator. The driver
// is invoked as
//
//	Path Args... --n N --logq LOGQ --dist DIST --sigma SIGMA
//	    --cost-model MODEL --jobs THREADS --deny ATTACKS
//
// and must print one "name :: rop: ≈2^x, ..." line per attack on stdout.
type Command struct {
	Path    string
	Args    []string
	Threads int
	Log     logrus.FieldLogger
}

// NewCommand returns a Command running path with the leading arguments args.
func NewCommand(path string, args []string, threads int, log logrus.FieldLogger) *Command {
	if threads < 1 {
		threads = 1
	}
	return &Command{Path: path, Args: args, Threads: threads, Log: logutil.OrDiscard(log)}
}

func (c *Command) arguments(q Query) []string {
	sigma := q.Sigma
	if sigma <= 0 {
		sigma = DefaultSigma
	}
	args := append([]string{}, c.Args...)
	return append(args,
		"--n", strconv.Itoa(q.Dim),
		"--logq", strconv.Itoa(q.LogQ),
		"--dist", q.Dist.Short(),
		"--sigma", strconv.FormatFloat(sigma, 'g', -1, 64),
		"--cost-model", CostModel(q.Quantum),
		"--jobs", strconv.Itoa(c.Threads),
		"--deny", strings.Join(DeniedAttacks, ","),
	)
}

// Estimate runs the driver for q. Cancelling ctx kills the process.
func (c *Command) Estimate(ctx context.Context, q Query) (Estimate, error) {

	log := logutil.OrDiscard(c.Log).WithFields(q.fields())

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Path, c.arguments(q)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	log.Debug("running lattice estimator")

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return Estimate{}, ctx.Err()
		}
		return Estimate{}, fmt.Errorf("lattice estimator %s: %w: %s", q, err, tail(stderr.String(), 512))
	}

	est, err := Parse(&stdout)
	if err != nil {
		return Estimate{}, fmt.Errorf("lattice estimator %s: %w", q, err)
	}

	log.WithFields(logrus.Fields{"bits": est.Bits, "elapsed": time.Since(start).Round(time.Millisecond)}).Debug("lattice estimator done")

	return est, nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		return "..." + s[len(s)-n:]
	}
	return s
}
