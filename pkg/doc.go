// Package pkg provides the core libraries for flowcanvas.
//
// # Overview
//
// Flowcanvas keeps an SVG canvas of a node graph in sync with the graph
// model. Nodes carry typed input and output ports and parameters; edges
// connect an output port to an input port and are drawn as curved
// connectors. The pkg directory is organized into these areas:
//
//  1. [graph] - The graph model, kind schema and JSON files
//  2. [geom], [surface], [reconcile] - Geometry, the retained SVG tree and keyed diffing
//  3. [canvas] - The engine: node and edge reconcilers, drag preview, drop placer
//  4. [content], [store] - The default parameter widget and the state container
//  5. [config], [pipeline], [cache] - Configuration and cached headless rendering
//  6. [render/nodelink] - Graphviz export
//
// # Architecture
//
// The engine never mutates the graph. User gestures become intents that the
// store reduces into a new graph, which is fed back into the engine:
//
//	graph.Graph
//	     ↓
//	canvas.Engine.Update (nodes → measure → edges → preview)
//	     ↓
//	surface.Surface (SVG)
//	     ↓
//	gesture → canvas.Intent → store.Store → graph.Graph
//
// # Quick Start
//
// Render a graph file headlessly:
//
//	import (
//	    "github.com/matzehuels/flowcanvas/pkg/config"
//	    "github.com/matzehuels/flowcanvas/pkg/graph"
//	    "github.com/matzehuels/flowcanvas/pkg/pipeline"
//	)
//
//	g, _ := graph.ReadGraphFile("graph.json")
//	svg, stats, _ := pipeline.RenderCanvas(g, config.Default(), pipeline.Options{}, logger)
//
// See the canvas package for driving the engine interactively.
package pkg
