// Package dot renders pipelines as Graphviz diagrams.
//
// Each stage becomes a box labelled with its transform name and
// probability, chained in application order. Given a recorded run, stages
// that fired are filled and stages that were skipped are dashed:
//
//	src := dot.ToDOT(saved, dot.Options{Detailed: true})
//	svg, err := dot.RenderSVG(src)
//
// [FromSpec] draws a pipeline before it has run; every stage is then drawn
// as undecided.
package dot
