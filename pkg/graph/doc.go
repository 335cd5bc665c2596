// Package graph defines the node-graph model rendered by the canvas and its
// JSON wire format.
//
// # Core Types
//
//   - [Node]: a placed, typed block with a grid position and parameter values
//   - [Edge]: a directed connection from an output port to an input port
//   - [Schema]: per-kind declaration of ordered ports and parameter names
//   - [Graph]: a snapshot of nodes and edges keyed by numeric id
//
// The canvas engine only ever reads a Graph. Mutations belong to the state
// container (see pkg/store), which produces a new snapshot per change.
//
// # Serialization
//
// Graphs use a node-link JSON format with arrays sorted by id:
//
//	{
//	  "nodes": [{"id": 1, "kind": "const", "position": [0, 0], "params": {"value": "2"}}],
//	  "edges": [{"id": 1, "source": {"node": 1, "output": 0}, "target": {"node": 2, "input": 0}}]
//	}
//
// Common operations:
//
//	g, _ := graph.ReadGraphFile("demo.json")  // File → Graph
//	graph.WriteGraphFile(g, "out.json")       // Graph → File
//	data, _ := graph.MarshalGraph(g)          // Graph → []byte
//
// # Validation
//
// [Validate] reports duplicate ids, unknown kinds, dangling edges and
// out-of-range ports as coded errors from pkg/errors. The engine itself
// tolerates all of these; validation is for loaders and the CLI.
package graph
