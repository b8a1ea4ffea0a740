package stdparams

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type tableKey struct {
	dist    DistType
	ringDim int
	bits    int
}

// HE standard maximum log2(Q) for classical security.
var logQTable = map[tableKey]int{
	{Uniform, 1024, 128}: 29, {Uniform, 1024, 192}: 21, {Uniform, 1024, 256}: 16,
	{Uniform, 2048, 128}: 56, {Uniform, 2048, 192}: 39, {Uniform, 2048, 256}: 31,
	{Uniform, 4096, 128}: 111, {Uniform, 4096, 192}: 77, {Uniform, 4096, 256}: 60,
	{Uniform, 8192, 128}: 220, {Uniform, 8192, 192}: 154, {Uniform, 8192, 256}: 120,
	{Uniform, 16384, 128}: 440, {Uniform, 16384, 192}: 307, {Uniform, 16384, 256}: 239,
	{Uniform, 32768, 128}: 880, {Uniform, 32768, 192}: 612, {Uniform, 32768, 256}: 478,

	{Error, 1024, 128}: 29, {Error, 1024, 192}: 21, {Error, 1024, 256}: 16,
	{Error, 2048, 128}: 56, {Error, 2048, 192}: 39, {Error, 2048, 256}: 31,
	{Error, 4096, 128}: 111, {Error, 4096, 192}: 77, {Error, 4096, 256}: 60,
	{Error, 8192, 128}: 220, {Error, 8192, 192}: 154, {Error, 8192, 256}: 120,
	{Error, 16384, 128}: 440, {Error, 16384, 192}: 307, {Error, 16384, 256}: 239,
	{Error, 32768, 128}: 883, {Error, 32768, 192}: 613, {Error, 32768, 256}: 478,

	{Ternary, 1024, 128}: 27, {Ternary, 1024, 192}: 19, {Ternary, 1024, 256}: 14,
	{Ternary, 2048, 128}: 54, {Ternary, 2048, 192}: 37, {Ternary, 2048, 256}: 29,
	{Ternary, 4096, 128}: 109, {Ternary, 4096, 192}: 75, {Ternary, 4096, 256}: 58,
	{Ternary, 8192, 128}: 218, {Ternary, 8192, 192}: 152, {Ternary, 8192, 256}: 118,
	{Ternary, 16384, 128}: 438, {Ternary, 16384, 192}: 305, {Ternary, 16384, 256}: 237,
	{Ternary, 32768, 128}: 881, {Ternary, 32768, 192}: 611, {Ternary, 32768, 256}: 476,
}

// MaxLogQ returns the largest log2(Q) allowed by the HE standard for a ring
// dimension, secret distribution and classical security level.
func MaxLogQ(dist DistType, ringDim, bits int) (logQ int, ok bool) {
	logQ, ok = logQTable[tableKey{dist, ringDim, bits}]
	return
}

// RingDims returns the ring dimensions covered by the HE standard tables.
func RingDims() []int {
	set := map[int]struct{}{}
	for k := range logQTable {
		set[k.ringDim] = struct{}{}
	}
	dims := maps.Keys(set)
	slices.Sort(dims)
	return dims
}

// StandardSet is a named parameter set of the standard tables. LogQks and
// LogBks are zero for ring (N, Q) sets.
type StandardSet struct {
	Name   string        `yaml:"name"`
	Level  SecurityLevel `yaml:"level"`
	Dim    int           `yaml:"dim"`
	LogQ   int           `yaml:"logq"`
	LogQks int           `yaml:"logqks,omitempty"`
	LogBks int           `yaml:"logbks,omitempty"`
	Dist   DistType      `yaml:"dist"`
}

var standardSets = []StandardSet{
	{Name: "params128NQ1", Level: STD128, Dim: 1024, LogQ: 27, Dist: Ternary},
	{Name: "params192NQ1", Level: STD192, Dim: 1024, LogQ: 19, Dist: Ternary},
	{Name: "params256NQ1", Level: STD256, Dim: 1024, LogQ: 14, Dist: Ternary},
	{Name: "params128NQ2", Level: STD128, Dim: 2048, LogQ: 54, Dist: Ternary},
	{Name: "params192NQ2", Level: STD192, Dim: 2048, LogQ: 37, Dist: Ternary},
	{Name: "params256NQ2", Level: STD256, Dim: 2048, LogQ: 29, Dist: Ternary},
	{Name: "params128NQ3", Level: STD128, Dim: 4096, LogQ: 109, Dist: Ternary},
	{Name: "params192NQ3", Level: STD192, Dim: 4096, LogQ: 75, Dist: Ternary},
	{Name: "params256NQ3", Level: STD256, Dim: 4096, LogQ: 58, Dist: Ternary},
	{Name: "params128NQ4", Level: STD128, Dim: 8192, LogQ: 218, Dist: Ternary},
	{Name: "params192NQ4", Level: STD192, Dim: 8192, LogQ: 152, Dist: Ternary},
	{Name: "params256NQ4", Level: STD256, Dim: 8192, LogQ: 118, Dist: Ternary},
	{Name: "params128NQ5", Level: STD128, Dim: 16384, LogQ: 438, Dist: Ternary},
	{Name: "params192NQ5", Level: STD192, Dim: 16384, LogQ: 305, Dist: Ternary},
	{Name: "params256NQ5", Level: STD256, Dim: 16384, LogQ: 237, Dist: Ternary},
	{Name: "params128NQ6", Level: STD128, Dim: 32768, LogQ: 881, Dist: Ternary},
	{Name: "params192NQ6", Level: STD192, Dim: 32768, LogQ: 611, Dist: Ternary},
	{Name: "params256NQ6", Level: STD256, Dim: 32768, LogQ: 476, Dist: Ternary},

	{Name: "params128nQks1", Level: STD128, Dim: 512, LogQ: 14, LogQks: 15, LogBks: 5, Dist: Ternary},
	{Name: "params192nQks1", Level: STD192, Dim: 1024, LogQ: 19, LogQks: 15, LogBks: 5, Dist: Ternary},
	{Name: "params256nQks1", Level: STD256, Dim: 1024, LogQ: 14, LogQks: 6, LogBks: 4, Dist: Ternary},

	{Name: "STD128Q_OPT_3_nQks1", Level: STD128, Dim: 600, LogQ: 15, LogQks: 15, LogBks: 5, Dist: Ternary},
}

// StandardSets returns a copy of the named standard parameter sets.
func StandardSets() []StandardSet {
	return slices.Clone(standardSets)
}

// GetStandardSet returns the standard set with the given name.
func GetStandardSet(name string) (StandardSet, bool) {
	for _, s := range standardSets {
		if s.Name == name {
			return s, true
		}
	}
	return StandardSet{}, false
}
