// Package stdparams holds the standard lattice parameters of the Homomorphic
// Encryption Standard (homomorphicencryption.org) and the linear relations
// between lattice dimension and log-modulus used as starting points of the
// parameter search.
package stdparams

import (
	"fmt"
	"strconv"
	"strings"
)

// DistType is the distribution of the LWE secret.
type DistType int

const (
	// Uniform secrets are sampled uniformly modulo q.
	Uniform DistType = iota
	// Error secrets follow the error distribution (discrete Gaussian).
	Error
	// Ternary secrets are sampled uniformly in {-1, 0, 1}.
	Ternary
)

var distNames = [...]string{"HEStd_uniform", "HEStd_error", "HEStd_ternary"}

func (d DistType) String() string {
	if d < Uniform || d > Ternary {
		return "DistType(" + strconv.Itoa(int(d)) + ")"
	}
	return distNames[d]
}

// Short returns the lower-case name used on command lines ("ternary").
func (d DistType) Short() string {
	return strings.TrimPrefix(d.String(), "HEStd_")
}

// ParseDistType accepts "0", "1", "2", "HEStd_ternary" or "ternary".
func ParseDistType(s string) (DistType, error) {

	s = strings.TrimSpace(s)

	if i, err := strconv.Atoi(s); err == nil {
		if i < int(Uniform) || i > int(Ternary) {
			return 0, fmt.Errorf("input not in valid range (%d - %d): %d", Uniform, Ternary, i)
		}
		return DistType(i), nil
	}

	for i, name := range distNames {
		if strings.EqualFold(s, name) || strings.EqualFold(s, strings.TrimPrefix(name, "HEStd_")) {
			return DistType(i), nil
		}
	}

	return 0, fmt.Errorf("invalid secret distribution %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (d DistType) MarshalText() ([]byte, error) {
	return []byte(d.Short()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DistType) UnmarshalText(b []byte) (err error) {
	*d, err = ParseDistType(string(b))
	return
}

// SecurityLevel is a target security level. Quantum selects the quantum
// lattice-reduction cost model instead of the classical one.
type SecurityLevel struct {
	Bits    int
	Quantum bool
}

var (
	STD128  = SecurityLevel{Bits: 128}
	STD128Q = SecurityLevel{Bits: 128, Quantum: true}
	STD192  = SecurityLevel{Bits: 192}
	STD192Q = SecurityLevel{Bits: 192, Quantum: true}
	STD256  = SecurityLevel{Bits: 256}
	STD256Q = SecurityLevel{Bits: 256, Quantum: true}
)

// SecurityLevels returns the six standard levels, classical first.
func SecurityLevels() []SecurityLevel {
	return []SecurityLevel{STD128, STD192, STD256, STD128Q, STD192Q, STD256Q}
}

func (l SecurityLevel) String() string {
	s := "STD" + strconv.Itoa(l.Bits)
	if l.Quantum {
		s += "Q"
	}
	return s
}

// ParseSecurityLevel parses names of the form STD128, STD192Q, ...
func ParseSecurityLevel(s string) (SecurityLevel, error) {

	name := strings.ToUpper(strings.TrimSpace(s))

	for _, l := range SecurityLevels() {
		if l.String() == name {
			return l, nil
		}
	}

	return SecurityLevel{}, fmt.Errorf("invalid security level %q (expected one of STD128, STD128Q, STD192, STD192Q, STD256, STD256Q)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (l SecurityLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *SecurityLevel) UnmarshalText(b []byte) (err error) {
	*l, err = ParseSecurityLevel(string(b))
	return
}
