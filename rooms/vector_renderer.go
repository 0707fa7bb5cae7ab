package rooms

import (
	"fmt"
	"image/color"
	"image/png"
	"io"
	"math"
	"sync"

	"github.com/go-fonts/latin-modern/lmroman10regular"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
)

var (
	labelFontOnce sync.Once
	labelFont     *canvas.FontFamily
)

// labelFontFamily lazily loads the embedded label font. Returns nil if
// the font fails to parse, in which case labels are skipped.
func labelFontFamily() *canvas.FontFamily {
	labelFontOnce.Do(func() {
		family := canvas.NewFontFamily("latin")
		if err := family.LoadFont(lmroman10regular.TTF, 0, canvas.FontRegular); err == nil {
			labelFont = family
		}
	})
	return labelFont
}

// snapCoord rounds a coordinate to the nearest multiple of the given increment.
// An increment of 0 disables snapping and returns the coordinate unchanged.
func snapCoord(coord, increment float64) float64 {
	if increment <= 0 {
		return coord
	}
	return math.Round(coord/increment) * increment
}

// nrgbaToRGBA converts color.NRGBA to color.RGBA by premultiplying alpha
// This is needed for the canvas library which expects premultiplied RGBA
func nrgbaToRGBA(c color.NRGBA) color.RGBA {
	if c.A == 0 {
		return color.RGBA{0, 0, 0, 0}
	}
	if c.A == 255 {
		return color.RGBA{c.R, c.G, c.B, 255}
	}
	alpha32 := uint32(c.A)
	return color.RGBA{
		R: uint8((uint32(c.R) * alpha32) / 255),
		G: uint8((uint32(c.G) * alpha32) / 255),
		B: uint8((uint32(c.B) * alpha32) / 255),
		A: c.A,
	}
}

// VectorRenderer renders the reconstructed floorplan as vector graphics.
// SVG output stays resolution independent; PNG output is rasterized at
// the configured Resolution.
type VectorRenderer struct {
	Segments      []Segment
	Rooms         []Room
	Layers        []WallLayer       // When set, walls are drawn per plan in the layer colors instead of Segments
	Padding       float64           // Padding in world units
	Resolution    canvas.Resolution // Resolution for PNG output (default: 300 DPI)
	GridSpacing   float64           // Grid line spacing in world units; 0 disables
	SnapIncrement float64           // Snap world coordinates to this increment; 0 disables
	WallWidth     float64           // Stroke width for walls in world units
	Labels        bool              // Draw room index and area labels at centroids
}

// NewVectorRenderer creates a vector renderer with default settings
func NewVectorRenderer(segments []Segment, rooms []Room) *VectorRenderer {
	return &VectorRenderer{
		Segments:      segments,
		Rooms:         rooms,
		Padding:       1.0,
		Resolution:    canvas.DPI(300),
		GridSpacing:   1.0,
		SnapIncrement: 0,
		WallWidth:     0.1,
		Labels:        true,
	}
}

// canvasRenderer is an interface that both svg and rasterizer renderers implement
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
	RenderText(text *canvas.Text, m canvas.Matrix)
}

// RenderToSVG writes the floorplan as an SVG to the provided writer
func (r *VectorRenderer) RenderToSVG(w io.Writer) error {
	minX, minY, maxX, maxY := r.calculateWorldBounds()

	width := (maxX - minX) + 2*r.Padding
	height := (maxY - minY) + 2*r.Padding

	svgRenderer := svg.New(w, width, height, nil)

	r.renderToCanvas(svgRenderer, minX, minY, maxX, maxY, width, height)

	return svgRenderer.Close()
}

// RenderToPNG writes the floorplan as a PNG to the provided writer
func (r *VectorRenderer) RenderToPNG(w io.Writer) error {
	minX, minY, maxX, maxY := r.calculateWorldBounds()

	width := (maxX - minX) + 2*r.Padding
	height := (maxY - minY) + 2*r.Padding

	rast := rasterizer.New(width, height, r.Resolution, canvas.DefaultColorSpace)

	r.renderToCanvas(rast, minX, minY, maxX, maxY, width, height)

	// Rasterizer implements draw.Image interface, which embeds image.Image
	return png.Encode(w, rast)
}

// renderToCanvas renders the floorplan to a canvas renderer (shared logic for SVG and PNG)
func (r *VectorRenderer) renderToCanvas(renderer canvasRenderer, minX, minY, maxX, maxY, width, height float64) {
	// Draw white background
	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	renderer.RenderPath(canvas.Rectangle(width, height), bgStyle, canvas.Identity)

	toCanvas := func(p Point) (float64, float64) {
		tx := (snapCoord(p.X, r.SnapIncrement) - minX) + r.Padding
		ty := (snapCoord(p.Y, r.SnapIncrement) - minY) + r.Padding
		return tx, ty
	}

	// Render room fills first
	palette := RoomPalette()
	for i, room := range r.Rooms {
		if len(room.Polygon) < 3 {
			continue
		}

		fillStyle := canvas.DefaultStyle
		fillStyle.Fill = canvas.Paint{Color: nrgbaToRGBA(palette[i%len(palette)])}
		fillStyle.Stroke = canvas.Paint{Color: canvas.Transparent}

		cp := &canvas.Path{}
		for j, pt := range room.Polygon {
			cx, cy := toCanvas(pt)
			if j == 0 {
				cp.MoveTo(cx, cy)
			} else {
				cp.LineTo(cx, cy)
			}
		}
		cp.Close()
		renderer.RenderPath(cp, fillStyle, canvas.Identity)
	}

	// Render walls (stroked), per plan layer when configured
	wallStyle := canvas.DefaultStyle
	wallStyle.Fill = canvas.Paint{Color: canvas.Transparent}
	wallStyle.StrokeWidth = r.WallWidth

	strokeSegments := func(segments []Segment, c color.NRGBA) {
		wallStyle.Stroke = canvas.Paint{Color: nrgbaToRGBA(c)}
		for _, s := range segments {
			cp := &canvas.Path{}
			x1, y1 := toCanvas(s.A)
			x2, y2 := toCanvas(s.B)
			cp.MoveTo(x1, y1)
			cp.LineTo(x2, y2)
			renderer.RenderPath(cp, wallStyle, canvas.Identity)
		}
	}

	if len(r.Layers) > 0 {
		for _, layer := range r.Layers {
			strokeSegments(layer.Segments, layer.wallColor())
		}
	} else {
		strokeSegments(r.Segments, RasterWall)
	}

	// Render grid lines
	if r.GridSpacing > 0 {
		gridStyle := canvas.DefaultStyle
		gridStyle.Fill = canvas.Paint{Color: canvas.Transparent}
		gridStyle.Stroke = canvas.Paint{Color: canvas.Gray}
		gridStyle.StrokeWidth = r.WallWidth / 5
		gridStyle.Dashes = []float64{0.1, 0.1}

		for x := math.Floor(minX/r.GridSpacing) * r.GridSpacing; x <= maxX; x += r.GridSpacing {
			gridPath := &canvas.Path{}
			x1, y1 := toCanvas(Point{X: x, Y: minY})
			x2, y2 := toCanvas(Point{X: x, Y: maxY})
			gridPath.MoveTo(x1, y1)
			gridPath.LineTo(x2, y2)
			renderer.RenderPath(gridPath, gridStyle, canvas.Identity)
		}

		for y := math.Floor(minY/r.GridSpacing) * r.GridSpacing; y <= maxY; y += r.GridSpacing {
			gridPath := &canvas.Path{}
			x1, y1 := toCanvas(Point{X: minX, Y: y})
			x2, y2 := toCanvas(Point{X: maxX, Y: y})
			gridPath.MoveTo(x1, y1)
			gridPath.LineTo(x2, y2)
			renderer.RenderPath(gridPath, gridStyle, canvas.Identity)
		}
	}

	// Render centroid markers
	for _, room := range r.Rooms {
		cx, cy := toCanvas(room.Centroid)

		markerStyle := canvas.DefaultStyle
		markerStyle.Fill = canvas.Paint{Color: color.RGBA{200, 30, 30, 255}}
		markerStyle.Stroke = canvas.Paint{Color: canvas.Black}
		markerStyle.StrokeWidth = r.WallWidth / 4

		markerPath := canvas.Circle(r.WallWidth)
		markerPath = markerPath.Translate(cx, cy)
		renderer.RenderPath(markerPath, markerStyle, canvas.Identity)
	}

	// Render room index and area labels
	if r.Labels {
		family := labelFontFamily()
		if family == nil {
			return
		}

		indexFace := family.Face(10.0, canvas.Black, canvas.FontRegular, canvas.FontNormal)
		areaFace := family.Face(6.0, canvas.Black, canvas.FontRegular, canvas.FontNormal)

		for i, room := range r.Rooms {
			cx, cy := toCanvas(room.Centroid)

			indexLine := canvas.NewTextLine(indexFace, fmt.Sprintf("%d", i+1), canvas.Left)
			renderer.RenderText(indexLine, canvas.Identity.Translate(cx+2*r.WallWidth, cy))

			areaLine := canvas.NewTextLine(areaFace, fmt.Sprintf("%.2f m2", room.Area), canvas.Left)
			renderer.RenderText(areaLine, canvas.Identity.Translate(cx+2*r.WallWidth, cy-3*r.WallWidth))
		}
	}
}

func (r *VectorRenderer) calculateWorldBounds() (minX, minY, maxX, maxY float64) {
	minX, minY = math.MaxFloat64, math.MaxFloat64
	maxX, maxY = -math.MaxFloat64, -math.MaxFloat64

	update := func(p Point) {
		sp := Point{
			X: snapCoord(p.X, r.SnapIncrement),
			Y: snapCoord(p.Y, r.SnapIncrement),
		}
		if sp.X < minX {
			minX = sp.X
		}
		if sp.Y < minY {
			minY = sp.Y
		}
		if sp.X > maxX {
			maxX = sp.X
		}
		if sp.Y > maxY {
			maxY = sp.Y
		}
	}

	for _, s := range r.Segments {
		update(s.A)
		update(s.B)
	}
	for _, layer := range r.Layers {
		for _, s := range layer.Segments {
			update(s.A)
			update(s.B)
		}
	}
	for _, room := range r.Rooms {
		for _, p := range room.Polygon {
			update(p)
		}
	}

	// No drawable content: fall back to a unit viewport.
	if minX > maxX || minY > maxY {
		minX, minY, maxX, maxY = 0, 0, 1, 1
	}

	return
}
