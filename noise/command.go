package noise

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
	"github.com/KAIST-CryptLab/binfhe-params/params"
)

// Command runs the bootstrapping harness as
//
//	Script n q N logQ Qks Bg Bks Brk sigma samples SysPath
//
// The harness prints performance figures on stdout and one noise value per
// line on stderr.
type Command struct {
	Script  string
	SysPath string
	Timeout time.Duration
	Log     logrus.FieldLogger
}

// NewCommand returns a Command for the given script.
func NewCommand(script, sysPath string, timeout time.Duration, log logrus.FieldLogger) *Command {
	return &Command{Script: script, SysPath: sysPath, Timeout: timeout, Log: logutil.OrDiscard(log)}
}

// Arguments returns the positional arguments passed to the script.
func (c *Command) Arguments(p params.Parameters, samples int) []string {
	return append(p.Args(), strconv.Itoa(samples), c.SysPath)
}

func (c *Command) Sample(ctx context.Context, p params.Parameters, samples int) (Measurement, error) {

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	log := logutil.OrDiscard(c.Log).WithFields(logrus.Fields{"n": p.N(), "N": p.RingN(), "samples": samples})

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Script, c.Arguments(p, samples)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	log.WithField("cmd", strings.Join(cmd.Args, " ")).Debug("running noise harness")

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return Measurement{}, fmt.Errorf("noise harness: %w", ctx.Err())
		}
		return Measurement{}, fmt.Errorf("noise harness %s: %w: %s", p, err, tail(stderr.String(), 512))
	}

	values, err := ParseValues(&stderr)
	if err != nil {
		return Measurement{}, fmt.Errorf("noise harness output: %w", err)
	}

	m, err := Summarize(values)
	if err != nil {
		return Measurement{}, fmt.Errorf("noise harness %s: %w", p, err)
	}

	if m.Performance, err = ParsePerformance(&stdout); err != nil {
		return Measurement{}, fmt.Errorf("noise harness performance: %w", err)
	}

	log.WithFields(logrus.Fields{"noise": m.Stddev, "elapsed": time.Since(start).Round(time.Millisecond)}).Debug("noise measured")

	return m, nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		return "..." + s[len(s)-n:]
	}
	return s
}
