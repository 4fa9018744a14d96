// Package render serializes snapshot trees to HTML.
//
// It is used to print snapshots and live trees, and by the CLI to show the
// result of applying a patch script.
//
//   - Text and attribute values are escaped
//   - Attributes are written in sorted key order so output is stable
//   - Void elements without children have no closing tag
//   - Event handlers are never rendered
//
// # Basic Usage
//
//	renderer := render.NewRenderer(render.RendererConfig{})
//	html, err := renderer.RenderToString(node)
//
// Pretty output indents block children:
//
//	renderer := render.NewRenderer(render.RendererConfig{Pretty: true})
package render
