package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"maps"
	"slices"

	"github.com/matzehuels/flowcanvas/pkg/errors"
)

// KindSpec declares the ports and parameters of one node kind.
// Order matters: a port's index is its position in Inputs or Outputs, and
// that index determines its vertical offset on the node.
type KindSpec struct {
	Label   string   `json:"label,omitempty" toml:"label"`
	Inputs  []string `json:"inputs,omitempty" toml:"inputs"`
	Outputs []string `json:"outputs,omitempty" toml:"outputs"`
	Params  []string `json:"params,omitempty" toml:"params"`
}

// DisplayLabel returns the label if set, otherwise the kind name.
func (k KindSpec) DisplayLabel(kind string) string {
	if k.Label != "" {
		return k.Label
	}
	return kind
}

// Ports returns the declared port names on one side.
func (k KindSpec) Ports(side PortKind) []string {
	if side == PortOutput {
		return k.Outputs
	}
	return k.Inputs
}

// HasParam reports whether name is a declared parameter.
func (k KindSpec) HasParam(name string) bool {
	return slices.Contains(k.Params, name)
}

// Schema maps kind names to their declarations.
type Schema map[string]KindSpec

// Kinds returns the kind names in ascending order.
func (s Schema) Kinds() []string { return slices.Sorted(maps.Keys(s)) }

// Spec returns the declaration for kind.
func (s Schema) Spec(kind string) (KindSpec, bool) {
	k, ok := s[kind]
	return k, ok
}

// PortCount returns the number of ports of the given side for kind, or 0 for
// an unknown kind.
func (s Schema) PortCount(kind string, side PortKind) int {
	return len(s[kind].Ports(side))
}

// Validate checks kind, port and parameter names, and rejects duplicates
// within one declaration.
func (s Schema) Validate() error {
	for _, kind := range s.Kinds() {
		if err := errors.ValidateIdent("kind", kind); err != nil {
			return err
		}
		spec := s[kind]
		for _, group := range []struct {
			what  string
			names []string
		}{
			{"input", spec.Inputs},
			{"output", spec.Outputs},
			{"param", spec.Params},
		} {
			seen := make(map[string]bool, len(group.names))
			for _, name := range group.names {
				if err := errors.ValidateIdent(group.what, name); err != nil {
					return errors.Wrap(errors.ErrCodeInvalidSchema, err, "kind %s", kind)
				}
				if seen[name] {
					return errors.New(errors.ErrCodeInvalidSchema, "kind %s: duplicate %s %q", kind, group.what, name)
				}
				seen[name] = true
			}
		}
	}
	return nil
}

// Hash returns a stable SHA-256 of the schema's canonical JSON encoding.
// Two schemas with the same hash produce the same port layout.
func (s Schema) Hash() string {
	data, _ := json.Marshal(s) // map keys are sorted by encoding/json
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
