package content

import (
	"strconv"

	"github.com/matzehuels/flowcanvas/pkg/canvas"
	"github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/geom"
	"github.com/matzehuels/flowcanvas/pkg/graph"
	"github.com/matzehuels/flowcanvas/pkg/surface"
)

// Field is one parameter row of a rendered node.
type Field struct {
	Node  int
	Param string
	Value string

	spec graph.KindSpec
}

// Change reports a new value through update, the way a text input reports
// an edit. Nothing is reported when update is nil, the field has no name or
// the parameter is not declared for the node's kind.
//
// Values must also pass errors.ValidateParamValue: control characters other
// than tab, or more than 4096 bytes, are dropped here. store.Reduce rejects
// the same values, so the widget only filters edits the store would refuse.
// It returns whether update was called.
func (f Field) Change(update canvas.ParamUpdater, value string) bool {
	if update == nil || f.Param == "" || !f.spec.HasParam(f.Param) {
		return false
	}
	if errors.ValidateParamValue(value) != nil {
		return false
	}
	update(f.Node, f.Param, value)
	return true
}

type fieldKey struct {
	node  int
	param string
}

type rendered struct {
	kind   string
	spec   graph.KindSpec
	update canvas.ParamUpdater
}

// Params is the default content renderer. It remembers what it rendered so
// widget edits can be replayed through [Params.Set] and rendered nodes can
// be measured through [Params.Measure].
//
// Params is not safe for concurrent use, like the engine that drives it.
type Params struct {
	Metrics Metrics

	fields map[fieldKey]Field
	nodes  map[int]rendered
}

var (
	_ canvas.ContentRenderer = (*Params)(nil)
	_ canvas.ContentReleaser = (*Params)(nil)
)

// NewParams returns a renderer using m.
func NewParams(m Metrics) *Params {
	return &Params{
		Metrics: m,
		fields:  make(map[fieldKey]Field),
		nodes:   make(map[int]rendered),
	}
}

// Render draws the label and parameter rows of n into container.
//
// Each row is a group tagged with the node id, parameter name and current
// value, holding a text label and a foreignObject with a text input. A
// parameter missing from n.Params renders with an empty value.
func (p *Params) Render(container *surface.Element, n graph.Node, spec graph.KindSpec, update canvas.ParamUpdater) {
	p.forget(n.ID)
	p.nodes[n.ID] = rendered{kind: n.Kind, spec: spec, update: update}

	size := Measure(n.Kind, spec, p.Metrics)
	container.Append("text").
		SetAttr("class", "label").
		SetAttr("x", geom.Num(size.W/2)).
		SetAttr("y", geom.Num(p.Metrics.HeaderHeight/2)).
		SetAttr("text-anchor", "middle").
		SetAttr("dominant-baseline", "middle").
		SetAttr("font-size", strconv.Itoa(FontSize)).
		SetText(spec.DisplayLabel(n.Kind))

	inputWidth := max(0, size.W-2*MarginX)
	for i, param := range spec.Params {
		f := Field{Node: n.ID, Param: param, Value: n.Param(param), spec: spec}
		p.fields[fieldKey{n.ID, param}] = f

		row := container.Append("g").
			SetAttr("data-id", strconv.Itoa(n.ID)).
			SetAttr("data-input", param).
			SetAttr("data-value", f.Value).
			SetAttr("transform", geom.Translate(geom.Pt(0, p.Metrics.ParamOffset(i))))
		row.Append("text").
			SetAttr("stroke", "none").
			SetAttr("transform", geom.Translate(geom.Pt(MarginX, 0))).
			SetAttr("x", "0").
			SetAttr("font-size", strconv.Itoa(FontSize)).
			SetAttr("dominant-baseline", "middle").
			SetText(param)
		row.Append("foreignObject").
			SetAttr("x", strconv.Itoa(MarginX)).
			SetAttr("y", strconv.Itoa(InputMargin)).
			SetAttr("width", geom.Num(inputWidth)).
			SetAttr("height", geom.Num(p.Metrics.ParamHeight)).
			Append("input").
			SetAttr("type", "text").
			SetAttr("size", "4").
			SetAttr("value", f.Value)
	}
}

// Field returns the rendered field of a node parameter.
func (p *Params) Field(node int, param string) (Field, bool) {
	f, ok := p.fields[fieldKey{node, param}]
	return f, ok
}

// Set simulates an edit of a rendered field: the new value goes through
// [Field.Change] with the updater the node was rendered with. It returns
// false when the field was never rendered or the change was rejected.
func (p *Params) Set(node int, param, value string) bool {
	f, ok := p.Field(node, param)
	if !ok {
		return false
	}
	return f.Change(p.nodes[node].update, value)
}

// Measure reports the body size of a rendered node. It is a layout oracle
// that only knows nodes after they were painted.
func (p *Params) Measure(id int) (geom.Size, bool) {
	r, ok := p.nodes[id]
	if !ok {
		return geom.Size{}, false
	}
	return Measure(r.kind, r.spec, p.Metrics), true
}

// Release drops everything remembered about a removed node.
func (p *Params) Release(id int) { p.forget(id) }

func (p *Params) forget(id int) {
	if r, ok := p.nodes[id]; ok {
		for _, param := range r.spec.Params {
			delete(p.fields, fieldKey{id, param})
		}
		delete(p.nodes, id)
	}
}
