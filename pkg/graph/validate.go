package graph

import (
	"github.com/matzehuels/flowcanvas/pkg/errors"
)

// Validate returns the first problem reported by [Problems], or nil.
func Validate(g *Graph, s Schema) error {
	if ps := Problems(g, s); len(ps) > 0 {
		return ps[0]
	}
	return nil
}

// Problems lists every inconsistency between g and s, in id order:
// nodes of unknown kind, edges whose endpoints are missing, and edges whose
// port index is outside the kind's declared ports.
func Problems(g *Graph, s Schema) []error {
	var out []error
	for _, id := range g.NodeIDs() {
		n := g.Nodes[id]
		if n.ID != id {
			out = append(out, errors.New(errors.ErrCodeDuplicateID, "node keyed %d carries id %d", id, n.ID))
		}
		if _, ok := s[n.Kind]; !ok {
			out = append(out, errors.New(errors.ErrCodeUnknownKind, "node %d: unknown kind %q", id, n.Kind))
		}
	}
	for _, id := range g.EdgeIDs() {
		e := g.Edges[id]
		if e.ID != id {
			out = append(out, errors.New(errors.ErrCodeDuplicateID, "edge keyed %d carries id %d", id, e.ID))
		}
		for _, ref := range []PortRef{e.Source.Ref(), e.Target.Ref()} {
			n, ok := g.Nodes[ref.Node]
			if !ok {
				out = append(out, errors.New(errors.ErrCodeDanglingReference,
					"edge %d: %s node %d does not exist", id, ref.Kind, ref.Node))
				continue
			}
			spec, known := s[n.Kind]
			if !known {
				continue
			}
			if count := len(spec.Ports(ref.Kind)); ref.Index < 0 || ref.Index >= count {
				out = append(out, errors.New(errors.ErrCodeInvalidPort,
					"edge %d: node %d (%s) has no %s %d", id, ref.Node, n.Kind, ref.Kind, ref.Index))
			}
		}
	}
	return out
}
