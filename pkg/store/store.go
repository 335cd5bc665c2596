// Package store is the application state container the canvas engine talks
// to. State changes only through [Reduce], a pure function from the current
// graph and an intent to the next graph; [Store] wraps it with locking and
// change notification.
package store

import (
	"sync"

	"github.com/matzehuels/flowcanvas/pkg/canvas"
	"github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/graph"
)

// Reduce applies i to g and returns the next graph. g is never modified.
//
// New nodes and edges take the next id after the largest id in use. A
// connection into an input that already has an edge replaces that edge.
// Deleting a node also deletes every edge touching it. When schema is not
// nil, kinds, ports and parameters are checked against it.
func Reduce(g *graph.Graph, schema graph.Schema, i canvas.Intent) (*graph.Graph, error) {
	next := g.Clone()
	switch v := i.(type) {
	case canvas.CreateNode:
		if schema != nil {
			if _, ok := schema.Spec(v.Kind); !ok {
				return nil, errors.New(errors.ErrCodeUnknownKind, "unknown kind %q", v.Kind)
			}
		}
		if !v.Position.IsFinite() {
			return nil, errors.New(errors.ErrCodeInvalidInput, "position must be finite")
		}
		id := next.MaxID() + 1
		next.Nodes[id] = graph.Node{ID: id, Kind: v.Kind, Position: v.Position}

	case canvas.Connect:
		for _, ref := range []graph.PortRef{v.Source.Ref(), v.Target.Ref()} {
			if err := checkPort(next, schema, ref); err != nil {
				return nil, err
			}
		}
		if v.Source.Node == v.Target.Node {
			return nil, errors.New(errors.ErrCodeInvalidPort, "cannot connect node %d to itself", v.Source.Node)
		}
		for id, e := range next.Edges {
			if e.Target == v.Target {
				delete(next.Edges, id)
			}
		}
		id := next.MaxID() + 1
		next.Edges[id] = graph.Edge{ID: id, Source: v.Source, Target: v.Target}

	case canvas.UpdateParam:
		n, ok := next.Nodes[v.Node]
		if !ok {
			return nil, errors.New(errors.ErrCodeNotFound, "node %d not found", v.Node)
		}
		if schema != nil && !schema[n.Kind].HasParam(v.Param) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "kind %s has no parameter %q", n.Kind, v.Param)
		}
		if err := errors.ValidateParamValue(v.Value); err != nil {
			return nil, err
		}
		if n.Params == nil {
			n.Params = make(map[string]string)
		}
		n.Params[v.Param] = v.Value
		next.Nodes[v.Node] = n

	case canvas.MoveNode:
		n, ok := next.Nodes[v.Node]
		if !ok {
			return nil, errors.New(errors.ErrCodeNotFound, "node %d not found", v.Node)
		}
		if !v.Position.IsFinite() {
			return nil, errors.New(errors.ErrCodeInvalidInput, "position must be finite")
		}
		n.Position = v.Position
		next.Nodes[v.Node] = n

	case canvas.DeleteNode:
		if _, ok := next.Nodes[v.Node]; !ok {
			return nil, errors.New(errors.ErrCodeNotFound, "node %d not found", v.Node)
		}
		delete(next.Nodes, v.Node)
		for id, e := range next.Edges {
			if e.Touches(v.Node) {
				delete(next.Edges, id)
			}
		}

	case canvas.DeleteEdge:
		if _, ok := next.Edges[v.Edge]; !ok {
			return nil, errors.New(errors.ErrCodeNotFound, "edge %d not found", v.Edge)
		}
		delete(next.Edges, v.Edge)

	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported intent %T", i)
	}
	return next, nil
}

func checkPort(g *graph.Graph, schema graph.Schema, ref graph.PortRef) error {
	n, ok := g.Nodes[ref.Node]
	if !ok {
		return errors.New(errors.ErrCodeDanglingReference, "%s node %d does not exist", ref.Kind, ref.Node)
	}
	if ref.Index < 0 {
		return errors.New(errors.ErrCodeInvalidPort, "negative %s index %d", ref.Kind, ref.Index)
	}
	if schema != nil && ref.Index >= schema.PortCount(n.Kind, ref.Kind) {
		return errors.New(errors.ErrCodeInvalidPort, "node %d (%s) has no %s %d", ref.Node, n.Kind, ref.Kind, ref.Index)
	}
	return nil
}

// Store holds the current graph. It is safe for concurrent use.
// Subscribers are notified outside the lock, in registration order.
type Store struct {
	mu     sync.RWMutex
	state  *graph.Graph
	schema graph.Schema
	subs   []func(*graph.Graph)
	errs   func(canvas.Intent, error)
}

// Option configures a Store.
type Option func(*Store)

// WithSchema validates intents against schema.
func WithSchema(s graph.Schema) Option { return func(st *Store) { st.schema = s } }

// WithErrorHandler is called with every intent Dispatch rejects.
func WithErrorHandler(fn func(canvas.Intent, error)) Option {
	return func(st *Store) { st.errs = fn }
}

// New returns a store holding initial, or an empty graph when initial is nil.
func New(initial *graph.Graph, opts ...Option) *Store {
	if initial == nil {
		initial = graph.New()
	}
	st := &Store{state: initial}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

// State returns the current graph. It must be treated as read-only.
func (s *Store) State() *graph.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers fn to be called with every new state. It returns a
// function that removes the subscription.
func (s *Store) Subscribe(fn func(*graph.Graph)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
	idx := len(s.subs) - 1
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subs[idx] = nil
	}
}

// Apply reduces i into the current state and notifies subscribers.
func (s *Store) Apply(i canvas.Intent) (*graph.Graph, error) {
	s.mu.Lock()
	next, err := Reduce(s.state, s.schema, i)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.state = next
	subs := append([]func(*graph.Graph){}, s.subs...)
	s.mu.Unlock()

	for _, fn := range subs {
		if fn != nil {
			fn(next)
		}
	}
	return next, nil
}

// Dispatch is Apply without a result, usable as a [canvas.Dispatcher].
// Rejected intents go to the error handler, if any.
func (s *Store) Dispatch(i canvas.Intent) {
	if _, err := s.Apply(i); err != nil && s.errs != nil {
		s.errs(i, err)
	}
}

// Replace swaps in a new graph, for example after loading a file, and
// notifies subscribers.
func (s *Store) Replace(g *graph.Graph) {
	if g == nil {
		g = graph.New()
	}
	s.mu.Lock()
	s.state = g
	subs := append([]func(*graph.Graph){}, s.subs...)
	s.mu.Unlock()

	for _, fn := range subs {
		if fn != nil {
			fn(g)
		}
	}
}
