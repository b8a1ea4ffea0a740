package params

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	// STD128Q_OPT_3 is a 3-input gate set for 128-bit quantum security.
	STD128Q_OPT_3 = ParametersLiteral{
		N:     585,
		Q:     4096,
		RingN: 2048,
		LogQ:  50,
		Qks:   1 << 15,
		Bg:    1 << 25,
		Bks:   1 << 5,
		Brk:   1 << 5,
		Sigma: 3.19,
	}

	// STD128Q_OPT_3_nQks1 is STD128Q_OPT_3 with n increased to 600.
	STD128Q_OPT_3_nQks1 = ParametersLiteral{
		N:     600,
		Q:     4096,
		RingN: 2048,
		LogQ:  50,
		Qks:   1 << 15,
		Bg:    1 << 25,
		Bks:   1 << 5,
		Brk:   1 << 5,
		Sigma: 3.19,
	}
)

var namedSets = map[string]ParametersLiteral{
	"STD128Q_OPT_3":       STD128Q_OPT_3,
	"STD128Q_OPT_3_nQks1": STD128Q_OPT_3_nQks1,
}

// GetNamedSet returns the named parameter set.
func GetNamedSet(name string) (Parameters, error) {
	pl, ok := namedSets[name]
	if !ok {
		return Parameters{}, fmt.Errorf("unknown parameter set %q", name)
	}
	return NewParametersFromLiteral(pl)
}

// ReadYAML decodes and validates a parameter literal.
func ReadYAML(r io.Reader) (Parameters, error) {
	var pl ParametersLiteral
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&pl); err != nil {
		return Parameters{}, fmt.Errorf("decoding parameters: %w", err)
	}
	return NewParametersFromLiteral(pl)
}

// LoadYAML reads a parameter file.
func LoadYAML(path string) (Parameters, error) {
	f, err := os.Open(path)
	if err != nil {
		return Parameters{}, err
	}
	defer f.Close()
	return ReadYAML(f)
}

// WriteYAML encodes the literal of p.
func WriteYAML(w io.Writer, p Parameters) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p.Literal()); err != nil {
		return err
	}
	return enc.Close()
}
