package report

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/KAIST-CryptLab/binfhe-params/noise"
	"github.com/KAIST-CryptLab/binfhe-params/params"
	"github.com/KAIST-CryptLab/binfhe-params/search"
)

func testResults(t *testing.T) (search.Request, []search.Result) {
	p, err := params.NewParametersFromLiteral(params.STD128Q_OPT_3)
	require.NoError(t, err)

	req := search.DefaultRequest()
	req.DigitsG = []int{2, 3}

	return req, []search.Result{
		{DigitsG: 2, Target: 30.5},
		{
			DigitsG:    3,
			Found:      true,
			Params:     p,
			Noise:      29.25,
			Target:     30.5,
			LogFailure: -33.5,
			Security:   &search.Security{LWEBits: 129, RLWEBits: 130},
			Performance: noise.Performance{
				BootstrappingKeySize: 1 << 20,
				EvalBinGateTime:      "52 ms",
			},
		},
	}
}

func TestNew(t *testing.T) {

	req, results := testResults(t)
	rep := New(req, results)

	require.Len(t, rep.Results, 2)
	require.Nil(t, rep.Results[0].Params)
	require.NotNil(t, rep.Results[1].Params)
	require.Equal(t, params.STD128Q_OPT_3, *rep.Results[1].Params)
	require.NotNil(t, rep.Results[1].Performance)
	require.NotNil(t, rep.Best)
	require.Equal(t, 3, *rep.Best)

	rep = New(req, results[:1])
	require.Nil(t, rep.Best)
	require.Nil(t, rep.Results[0].Performance)
}

func TestYAML(t *testing.T) {

	req, results := testResults(t)
	rep := New(req, results)

	var buf bytes.Buffer
	require.NoError(t, YAML(&buf, rep))

	var got Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))

	if diff := cmp.Diff(rep, got); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestCSV(t *testing.T) {

	req, results := testResults(t)

	var buf bytes.Buffer
	require.NoError(t, CSV(&buf, New(req, results)))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, csvHeader, rows[0])

	require.Equal(t, []string{"2", "false", "", "", "", "", "", "", "", "", "", "", "30.5", "", ""}, rows[1])
	require.Equal(t, []string{"3", "true", "585", "4096", "2048", "50", "32768", "33554432", "32", "32", "3.19", "29.25", "30.5", "-33.5", "false"}, rows[2])
}

func TestText(t *testing.T) {

	req, results := testResults(t)

	var buf bytes.Buffer
	require.NoError(t, Text(&buf, New(req, results)))

	out := buf.String()
	for _, want := range []string{
		"STD128Q (quantum)",
		"d_g = 2: cannot find parameters",
		"d_g = 3: final parameters",
		"lattice dimension n:",
		"585",
		"2^15",
		"2^25",
		"2^-33.50",
		"129 bits",
		"52 ms",
		"best: d_g = 3",
	} {
		require.Contains(t, out, want)
	}
}
