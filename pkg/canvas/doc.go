// Package canvas keeps a retained vector render tree in sync with a node graph.
//
// An [Engine] owns one [Context] (grid unit, canvas extent, schema, the
// current graph snapshot, the content-dimension cache and the render
// surface) and three reconcilers that work on it:
//
//   - [NodeReconciler] keeps exactly one render group per node id, embeds a
//     content container in it and measures the rendered content
//   - [EdgeReconciler] keeps one connector per edge id and routes it between
//     the anchors returned by [Context.ResolvePort]
//   - [DragPreview] draws the connector of an in-progress connect gesture
//
// Node synchronization always completes, including measurement, before edges
// are synchronized, because port anchors depend on measured content widths.
//
// The engine never mutates the graph. It reads the snapshot passed to
// [Engine.Update] and asks for changes by emitting an [Intent] through the
// configured [Dispatcher]. Failures (missing measurements, dangling edges, an
// unattached surface, an unresolvable drop) are logged and reported through
// observability hooks; the view degrades instead of halting.
//
// # Usage
//
//	eng, err := canvas.New(canvas.Config{
//	    Unit:       40,
//	    Dimensions: [2]int{15, 10},
//	    Schema:     schema,
//	}, canvas.WithDispatcher(st.Dispatch))
//	if err != nil {
//	    return err
//	}
//	eng.Attach(surface.New(eng.Context().Extent))
//	eng.Update(st.State())
//
// The engine is not safe for concurrent use.
package canvas
