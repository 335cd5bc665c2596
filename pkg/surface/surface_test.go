package surface

import (
	"strings"
	"testing"

	"github.com/matzehuels/flowcanvas/pkg/geom"
)

func TestNewLayers(t *testing.T) {
	s := New(geom.Size{W: 600, H: 400})

	kids := s.Root().Children()
	if len(kids) != len(Layers) {
		t.Fatalf("root children = %d, want %d", len(kids), len(Layers))
	}
	for i, name := range Layers {
		if kids[i] != s.Layer(name) {
			t.Errorf("layer %q not at paint position %d", name, i)
		}
		if !kids[i].HasClass(name) {
			t.Errorf("layer %q missing class", name)
		}
	}
	if s.Layer("bogus") != nil {
		t.Error("unknown layer should be nil")
	}
	if got := s.Root().Attr("viewBox"); got != "0 0 600 400" {
		t.Errorf("viewBox = %q", got)
	}
}

func TestElementLifecycle(t *testing.T) {
	root := NewElement("g")
	a := root.Append("g").SetAttr("data-id", "1")
	b := root.Append("g").SetAttr("data-id", "2")

	if a.Parent() != root {
		t.Fatal("Append should set parent")
	}

	a.Remove()
	if a.Parent() != nil {
		t.Error("Remove should clear parent")
	}
	kids := root.Children()
	if len(kids) != 1 || kids[0] != b {
		t.Fatalf("children after Remove = %v", kids)
	}

	a.Remove() // no-op
	if len(root.Children()) != 1 {
		t.Error("removing a detached element must not touch siblings")
	}

	root.Clear()
	if len(root.Children()) != 0 || b.Parent() != nil {
		t.Error("Clear should detach all children")
	}
}

func TestAttrs(t *testing.T) {
	e := NewElement("path")
	e.SetAttr("d", "M 0 0").SetAttr("stroke", "red").SetAttr("d", "M 1 1")

	if e.Attr("d") != "M 1 1" {
		t.Errorf("d = %q", e.Attr("d"))
	}
	if e.attrs[0].name != "d" {
		t.Error("overwriting an attribute should keep its position")
	}
	if _, ok := e.LookupAttr("fill"); ok {
		t.Error("fill should not be set")
	}
	e.RemoveAttr("stroke")
	if _, ok := e.LookupAttr("stroke"); ok {
		t.Error("stroke should be removed")
	}
}

func TestClassed(t *testing.T) {
	e := NewElement("g")
	e.Classed("edge hidden", true)
	if !e.HasClass("edge") || !e.HasClass("hidden") {
		t.Fatalf("classes = %v", e.Classes())
	}
	e.Classed("hidden", true)
	if got := e.Attr("class"); got != "edge hidden" {
		t.Errorf("class = %q, want no duplicates", got)
	}
	e.Classed("hidden", false)
	if got := e.Attr("class"); got != "edge" {
		t.Errorf("class = %q, want edge", got)
	}
	e.Classed("edge", false)
	if _, ok := e.LookupAttr("class"); ok {
		t.Error("empty class attribute should be removed")
	}
}

func TestSelectAll(t *testing.T) {
	root := NewElement("g")
	edge := root.Append("g").Classed("edge", true)
	outer := edge.Append("path").Classed("outer curve", true)
	inner := edge.Append("path").Classed("inner curve", true)
	root.Append("circle").Classed("curve", true)

	got := root.SelectAll("path", "curve")
	if len(got) != 2 || got[0] != outer || got[1] != inner {
		t.Errorf("SelectAll(path, curve) = %v", got)
	}
	if root.Select("", "inner") != inner {
		t.Error("Select should find inner path")
	}
	if root.Select("rect", "") != nil {
		t.Error("Select should return nil when nothing matches")
	}
	if n := root.Count(); n != 5 {
		t.Errorf("Count() = %d, want 5", n)
	}
}

func TestWriteSVG(t *testing.T) {
	s := New(geom.Size{W: 120, H: 80}, WithStyle(""), WithGrid(40))
	g := s.Layer(LayerNodes).Append("g").SetAttr("data-id", "1")
	g.Append("text").SetText("a < b & c")
	g.Append("input").SetAttr("value", `say "hi"`)

	out := string(s.SVG())

	for _, want := range []string{
		`<svg xmlns="http://www.w3.org/2000/svg" width="120" height="80" viewBox="0 0 120 80">`,
		`<pattern id="grid" width="40" height="40"`,
		`<g class="edges"/>`,
		`<text>a &lt; b &amp; c</text>`,
		`<input value="say &quot;hi&quot;"/>`,
		"</svg>\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("SVG missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "<style>") {
		t.Error("empty style should be omitted")
	}
}
