// Package render draws pipelines and recorded runs.
//
// The [dot] subpackage emits Graphviz DOT and renders it to SVG.
package render
