package canvas

import (
	"encoding/json"

	"github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/geom"
	"github.com/matzehuels/flowcanvas/pkg/graph"
)

// Intent is a request to change the graph, addressed to the state container.
// The engine emits CreateNode, Connect and UpdateParam; the remaining intents
// come from other editors of the state such as the HTTP API or a replay log.
type Intent interface {
	// Name returns the wire name, e.g. "create_node".
	Name() string
	intent()
}

// Dispatcher delivers intents to the state container.
type Dispatcher func(Intent)

// Intent names.
const (
	IntentCreateNode  = "create_node"
	IntentConnect     = "connect"
	IntentUpdateParam = "update_param"
	IntentMoveNode    = "move_node"
	IntentDeleteNode  = "delete_node"
	IntentDeleteEdge  = "delete_edge"
)

// CreateNode asks for a new node of Kind at a snapped Position.
type CreateNode struct {
	Kind     string
	Position geom.Point
}

// Connect asks for an edge from an output port to an input port.
type Connect struct {
	Source graph.Output
	Target graph.Input
}

// UpdateParam asks for a new parameter value.
type UpdateParam struct {
	Node  int
	Param string
	Value string
}

// MoveNode asks for a node to be placed at Position.
type MoveNode struct {
	Node     int
	Position geom.Point
}

// DeleteNode asks for a node and every edge touching it to be removed.
type DeleteNode struct {
	Node int
}

// DeleteEdge asks for an edge to be removed.
type DeleteEdge struct {
	Edge int
}

func (CreateNode) Name() string  { return IntentCreateNode }
func (Connect) Name() string     { return IntentConnect }
func (UpdateParam) Name() string { return IntentUpdateParam }
func (MoveNode) Name() string    { return IntentMoveNode }
func (DeleteNode) Name() string  { return IntentDeleteNode }
func (DeleteEdge) Name() string  { return IntentDeleteEdge }

func (CreateNode) intent()  {}
func (Connect) intent()     {}
func (UpdateParam) intent() {}
func (MoveNode) intent()    {}
func (DeleteNode) intent()  {}
func (DeleteEdge) intent()  {}

// =============================================================================
// Wire Format
// =============================================================================

// intentJSON is the tagged wire form shared by the HTTP API and replay logs:
//
//	{"type":"create_node","kind":"add","position":[120,40]}
//	{"type":"connect","source":{"node":1,"output":0},"target":{"node":2,"input":0}}
//	{"type":"update_param","node":1,"param":"value","value":"3"}
//	{"type":"move_node","node":1,"position":[40,40]}
//	{"type":"delete_node","node":1}
//	{"type":"delete_edge","edge":3}
type intentJSON struct {
	Type     string        `json:"type"`
	Kind     string        `json:"kind,omitempty"`
	Position *[2]float64   `json:"position,omitempty"`
	Source   *graph.Output `json:"source,omitempty"`
	Target   *graph.Input  `json:"target,omitempty"`
	Node     *int          `json:"node,omitempty"`
	Edge     *int          `json:"edge,omitempty"`
	Param    string        `json:"param,omitempty"`
	Value    *string       `json:"value,omitempty"`
}

func pos(p geom.Point) *[2]float64 { return &[2]float64{p.X, p.Y} }

// MarshalIntent encodes an intent in its tagged wire form.
func MarshalIntent(i Intent) ([]byte, error) {
	out := intentJSON{Type: i.Name()}
	switch v := i.(type) {
	case CreateNode:
		out.Kind, out.Position = v.Kind, pos(v.Position)
	case Connect:
		out.Source, out.Target = &v.Source, &v.Target
	case UpdateParam:
		out.Node, out.Param, out.Value = &v.Node, v.Param, &v.Value
	case MoveNode:
		out.Node, out.Position = &v.Node, pos(v.Position)
	case DeleteNode:
		out.Node = &v.Node
	case DeleteEdge:
		out.Edge = &v.Edge
	}
	return json.Marshal(out)
}

// UnmarshalIntent decodes the tagged wire form. Missing required fields and
// unknown types are reported as INVALID_INPUT.
func UnmarshalIntent(data []byte) (Intent, error) {
	var in intentJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode intent")
	}
	missing := func(field string) error {
		return errors.New(errors.ErrCodeInvalidInput, "%s intent requires %q", in.Type, field)
	}
	switch in.Type {
	case IntentCreateNode:
		if in.Kind == "" {
			return nil, missing("kind")
		}
		if in.Position == nil {
			return nil, missing("position")
		}
		return CreateNode{Kind: in.Kind, Position: geom.Pt(in.Position[0], in.Position[1])}, nil
	case IntentConnect:
		if in.Source == nil {
			return nil, missing("source")
		}
		if in.Target == nil {
			return nil, missing("target")
		}
		return Connect{Source: *in.Source, Target: *in.Target}, nil
	case IntentUpdateParam:
		if in.Node == nil {
			return nil, missing("node")
		}
		if in.Param == "" {
			return nil, missing("param")
		}
		v := ""
		if in.Value != nil {
			v = *in.Value
		}
		return UpdateParam{Node: *in.Node, Param: in.Param, Value: v}, nil
	case IntentMoveNode:
		if in.Node == nil {
			return nil, missing("node")
		}
		if in.Position == nil {
			return nil, missing("position")
		}
		return MoveNode{Node: *in.Node, Position: geom.Pt(in.Position[0], in.Position[1])}, nil
	case IntentDeleteNode:
		if in.Node == nil {
			return nil, missing("node")
		}
		return DeleteNode{Node: *in.Node}, nil
	case IntentDeleteEdge:
		if in.Edge == nil {
			return nil, missing("edge")
		}
		return DeleteEdge{Edge: *in.Edge}, nil
	case "":
		return nil, errors.New(errors.ErrCodeInvalidInput, "intent type is required")
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "unknown intent type %q", in.Type)
}
