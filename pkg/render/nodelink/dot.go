package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/flowcanvas/pkg/graph"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the node's parameter values below its label.
	Detailed bool

	// Positioned pins every node at its canvas position so the diagram
	// mirrors the canvas layout. Rendering then requires the neato engine.
	Positioned bool
}

// ToDOT converts a graph to Graphviz DOT format.
// Each node is a record with its input ports on the left and its output
// ports on the right; edges connect the matching port fields. Edges whose
// source or target node is absent are skipped.
//
// Kinds missing from schema get as many ports as their edges reference.
func ToDOT(g *graph.Graph, schema graph.Schema, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=Mrecord, style=filled, fillcolor=white, color=dimgrey, fontsize=12];\n")
	buf.WriteString("  edge [color=dimgrey, penwidth=2, arrowhead=none];\n")
	buf.WriteString("  ranksep=0.8;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	inputs, outputs := portCounts(g, schema)
	for _, id := range g.NodeIDs() {
		n := g.Nodes[id]
		spec, _ := schema.Spec(n.Kind)
		attrs := []string{"label=" + quote(fmtRecord(n, spec, inputs[id], outputs[id], opts.Detailed))}
		if opts.Positioned {
			// 72 points per inch, y grows upward
			x, y := n.Position.X/72, 0-n.Position.Y/72
			attrs = append(attrs, fmt.Sprintf("pos=\"%g,%g!\"", x, y))
		}
		fmt.Fprintf(&buf, "  %s [%s];\n", nodeName(id), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, id := range g.EdgeIDs() {
		e := g.Edges[id]
		if _, ok := g.Nodes[e.Source.Node]; !ok {
			continue
		}
		if _, ok := g.Nodes[e.Target.Node]; !ok {
			continue
		}
		fmt.Fprintf(&buf, "  %s:o%d:e -> %s:i%d:w [id=\"edge%d\"];\n",
			nodeName(e.Source.Node), e.Source.Index, nodeName(e.Target.Node), e.Target.Index, id)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeName(id int) string { return "n" + strconv.Itoa(id) }

// portCounts returns, per node, the number of input and output ports to
// draw: the schema's count, widened to cover every referenced index.
func portCounts(g *graph.Graph, schema graph.Schema) (inputs, outputs map[int]int) {
	inputs = make(map[int]int, len(g.Nodes))
	outputs = make(map[int]int, len(g.Nodes))
	for id, n := range g.Nodes {
		inputs[id] = schema.PortCount(n.Kind, graph.PortInput)
		outputs[id] = schema.PortCount(n.Kind, graph.PortOutput)
	}
	for _, e := range g.Edges {
		if _, ok := g.Nodes[e.Source.Node]; ok {
			outputs[e.Source.Node] = max(outputs[e.Source.Node], e.Source.Index+1)
		}
		if _, ok := g.Nodes[e.Target.Node]; ok {
			inputs[e.Target.Node] = max(inputs[e.Target.Node], e.Target.Index+1)
		}
	}
	return inputs, outputs
}

// fmtRecord builds a record label of the form
// "{<i0> a|<i1> b} | Add | {<o0> sum}".
func fmtRecord(n graph.Node, spec graph.KindSpec, inputs, outputs int, detailed bool) string {
	body := escape(spec.DisplayLabel(n.Kind))
	if detailed {
		for _, k := range slices.Sorted(maps.Keys(n.Params)) {
			body += `\n` + escape(k+": "+n.Params[k])
		}
	}

	fields := make([]string, 0, 3)
	if inputs > 0 {
		fields = append(fields, "{"+fmtPorts("i", spec.Inputs, inputs)+"}")
	}
	fields = append(fields, body)
	if outputs > 0 {
		fields = append(fields, "{"+fmtPorts("o", spec.Outputs, outputs)+"}")
	}
	return strings.Join(fields, " | ")
}

func fmtPorts(prefix string, names []string, count int) string {
	ports := make([]string, count)
	for i := range ports {
		name := strconv.Itoa(i)
		if i < len(names) {
			name = names[i]
		}
		ports[i] = fmt.Sprintf("<%s%d> %s", prefix, i, escape(name))
	}
	return strings.Join(ports, "|")
}

var recordSpecial = strings.NewReplacer(
	`\`, `\\`, `{`, `\{`, `}`, `\}`, `|`, `\|`, `<`, `\<`, `>`, `\>`,
)

// escape protects record label syntax.
func escape(s string) string { return recordSpecial.Replace(s) }

// quote wraps s in a DOT string. DOT strings escape only the double quote.
func quote(s string) string { return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"` }

// RenderSVG renders a DOT graph to SVG using Graphviz. Positioned graphs
// are laid out with neato, everything else with dot.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	if strings.Contains(dot, "!\"") {
		gv.SetLayout(graphviz.NEATO)
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
