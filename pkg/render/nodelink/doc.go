// Package nodelink exports canvas graphs as Graphviz node-link diagrams.
//
// # Overview
//
// The canvas engine draws nodes where the user placed them. This package
// produces a static alternative laid out by Graphviz, used by the CLI's
// "render --type nodelink" and for documentation snapshots.
//
// Every node becomes a record: input ports on the left, the kind label in
// the middle and output ports on the right. Edges attach to the port fields
// they reference, so the diagram shows the same wiring as the canvas.
//
// # Usage
//
//	dot := nodelink.ToDOT(g, schema, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Options
//
//   - Detailed: list parameter values under the label
//   - Positioned: pin nodes to their canvas positions (neato layout)
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. No external Graphviz installation is needed.
package nodelink
