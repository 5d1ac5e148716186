// Package render converts SVG output to other formats.
//
// [ToPDF] and [ToPNG] shell out to rsvg-convert (from librsvg). The
// [nodelink] subpackage produces the SVG.
//
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := render.ToPNG(ctx, svg, 2.0)
//
// [nodelink]: github.com/matzehuels/contribnet/pkg/render/nodelink
package render
