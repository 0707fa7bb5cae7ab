package rooms

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"sort"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// RoomPalette returns distinct fill colors cycled across rooms.
func RoomPalette() []color.NRGBA {
	return []color.NRGBA{
		{100, 149, 237, 180}, // Cornflower blue
		{255, 99, 71, 150},   // Tomato
		{144, 238, 144, 150}, // Light green
		{255, 255, 150, 150}, // Light yellow
		{186, 85, 211, 150},  // Medium orchid
		{255, 165, 0, 150},   // Orange
	}
}

// Greyscale colors for floorplan rendering
var (
	RasterWall     = color.NRGBA{60, 60, 60, 255}
	RasterBG       = color.NRGBA{240, 240, 240, 255}
	RasterCentroid = color.RGBA{200, 30, 30, 255}
)

// WallLayer groups one plan's wall segments with its configured color.
// A zero Color falls back to the default wall color.
type WallLayer struct {
	Plan     string
	Color    color.NRGBA
	Segments []Segment
}

func (l WallLayer) wallColor() color.NRGBA {
	if l.Color.A == 0 {
		return RasterWall
	}
	return l.Color
}

// RasterRenderer draws reconstructed rooms and their wall segments into
// a raster image. Rooms are filled with palette colors, walls drawn on
// top, and every room is labeled with its index and floor area at the
// centroid.
type RasterRenderer struct {
	Segments []Segment
	Rooms    []Room
	Layers   []WallLayer // When set, walls are drawn per plan in the layer colors instead of Segments
	Scale    float64     // Pixels per world unit
	Padding  int         // Padding around the image in pixels
	Labels   bool        // Draw room index and area labels
}

// NewRasterRenderer creates a renderer with default settings
func NewRasterRenderer(segments []Segment, rooms []Room) *RasterRenderer {
	return &RasterRenderer{
		Segments: segments,
		Rooms:    rooms,
		Scale:    40.0,
		Padding:  30,
		Labels:   true,
	}
}

// CalculateBounds computes the bounding box of all wall segments.
func (r *RasterRenderer) CalculateBounds() (minX, minY, maxX, maxY float64) {
	minX, minY = math.MaxFloat64, math.MaxFloat64
	maxX, maxY = -math.MaxFloat64, -math.MaxFloat64

	update := func(p Point) {
		if p.X < minX {
			minX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y > maxY {
			maxY = p.Y
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

	return
}

// Render creates the floorplan image
func (r *RasterRenderer) Render() *image.RGBA {
	minX, minY, maxX, maxY := r.CalculateBounds()
	if minX > maxX || minY > maxY {
		// No drawable content.
		minX, minY, maxX, maxY = 0, 0, 0, 0
	}

	width := int((maxX-minX)*r.Scale) + 2*r.Padding
	height := int((maxY-minY)*r.Scale) + 2*r.Padding

	// Limit size
	if width > 4000 {
		r.Scale *= float64(4000) / float64(width)
		width = 4000
		height = int((maxY-minY)*r.Scale) + 2*r.Padding
	}
	if height > 4000 {
		r.Scale *= float64(4000) / float64(height)
		height = 4000
		width = int((maxX-minX)*r.Scale) + 2*r.Padding
	}

	// If bounds are invalid (e.g., no segments), ensure positive dimensions
	if width <= 0 || height <= 0 {
		minSize := 2*r.Padding + 1
		if minSize < 1 {
			minSize = 1
		}
		if width <= 0 {
			width = minSize
		}
		if height <= 0 {
			height = minSize
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, RasterBG)
		}
	}

	// World Y grows upward, image Y grows downward.
	toImage := func(p Point) (int, int) {
		x := int((p.X-minX)*r.Scale) + r.Padding
		y := height - (int((p.Y-minY)*r.Scale) + r.Padding)
		return x, y
	}

	// First pass: room fills
	palette := RoomPalette()
	for i, room := range r.Rooms {
		r.fillPolygon(img, room.Polygon, palette[i%len(palette)], toImage)
	}

	// Second pass: walls on top, per plan layer when configured
	if len(r.Layers) > 0 {
		for _, layer := range r.Layers {
			wallColor := layer.wallColor()
			for _, s := range layer.Segments {
				x1, y1 := toImage(s.A)
				x2, y2 := toImage(s.B)
				drawLine(img, x1, y1, x2, y2, wallColor)
			}
		}
	} else {
		for _, s := range r.Segments {
			x1, y1 := toImage(s.A)
			x2, y2 := toImage(s.B)
			drawLine(img, x1, y1, x2, y2, RasterWall)
		}
	}

	// Third pass: centroid markers and labels
	for i, room := range r.Rooms {
		cx, cy := toImage(room.Centroid)
		drawCircle(img, cx, cy, 3, RasterCentroid)

		if r.Labels {
			label := fmt.Sprintf("%d", i+1)
			area := fmt.Sprintf("%.2f m2", room.Area)
			black := color.RGBA{0, 0, 0, 255}
			drawText(img, cx+6, cy-2, label, black)
			drawText(img, cx+6, cy+12, area, black)
		}
	}

	return img
}

// SavePNG saves the floorplan image to a file
func (r *RasterRenderer) SavePNG(path string) error {
	img := r.Render()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return png.Encode(f, img)
}

// fillPolygon fills a polygon with a scanline sweep, alpha blending the
// fill color over the existing pixels.
func (r *RasterRenderer) fillPolygon(img *image.RGBA, poly []Point, c color.NRGBA, toImage func(Point) (int, int)) {
	if len(poly) < 3 {
		return
	}

	pts := make([][2]int, len(poly))
	minY, maxY := math.MaxInt32, math.MinInt32
	for i, p := range poly {
		x, y := toImage(p)
		pts[i] = [2]int{x, y}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}

	bounds := img.Bounds()
	for y := minY; y <= maxY; y++ {
		if y < bounds.Min.Y || y >= bounds.Max.Y {
			continue
		}

		// Collect x crossings of this scanline against every polygon edge.
		var xs []int
		n := len(pts)
		for i := 0; i < n; i++ {
			a, b := pts[i], pts[(i+1)%n]
			if a[1] == b[1] {
				continue
			}
			if (y >= a[1] && y < b[1]) || (y >= b[1] && y < a[1]) {
				t := float64(y-a[1]) / float64(b[1]-a[1])
				xs = append(xs, a[0]+int(t*float64(b[0]-a[0])))
			}
		}

		// Fill between sorted crossing pairs.
		sort.Ints(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			lo, hi := xs[i], xs[i+1]
			for x := lo; x <= hi; x++ {
				if x < bounds.Min.X || x >= bounds.Max.X {
					continue
				}
				existing := img.RGBAAt(x, y)
				img.Set(x, y, blendColors(existing, c))
			}
		}
	}
}

// blendColors performs alpha blending of the fill color over the
// background. The background is premultiplied RGBA and must be
// un-premultiplied first.
func blendColors(bg color.RGBA, fg color.NRGBA) color.NRGBA {
	var bgNRGBA color.NRGBA
	switch bg.A {
	case 0:
		bgNRGBA = color.NRGBA{0, 0, 0, 0}
	case 255:
		bgNRGBA = color.NRGBA{bg.R, bg.G, bg.B, 255}
	default:
		alpha32 := uint32(bg.A)
		bgNRGBA = color.NRGBA{
			R: uint8((uint32(bg.R) * 255) / alpha32),
			G: uint8((uint32(bg.G) * 255) / alpha32),
			B: uint8((uint32(bg.B) * 255) / alpha32),
			A: bg.A,
		}
	}

	alpha := float64(fg.A) / 255.0
	invAlpha := 1.0 - alpha

	return color.NRGBA{
		R: uint8(float64(fg.R)*alpha + float64(bgNRGBA.R)*invAlpha),
		G: uint8(float64(fg.G)*alpha + float64(bgNRGBA.G)*invAlpha),
		B: uint8(float64(fg.B)*alpha + float64(bgNRGBA.B)*invAlpha),
		A: 255,
	}
}

// drawLine draws a 2px wall line using the midpoint algorithm
func drawLine(img *image.RGBA, x1, y1, x2, y2 int, c color.NRGBA) {
	dx := x2 - x1
	if dx < 0 {
		dx = -dx
	}
	dy := y2 - y1
	if dy < 0 {
		dy = -dy
	}

	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy
	x, y := x1, y1
	bounds := img.Bounds()

	for {
		for ox := 0; ox <= 1; ox++ {
			for oy := 0; oy <= 1; oy++ {
				px, py := x+ox, y+oy
				if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
					img.Set(px, py, c)
				}
			}
		}
		if x == x2 && y == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x += sx
		}
		if e2 < dx {
			err += dx
			y += sy
		}
	}
}

// drawCircle draws a filled circle
func drawCircle(img *image.RGBA, cx, cy, radius int, c color.RGBA) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				x, y := cx+dx, cy+dy
				if x >= 0 && x < img.Bounds().Max.X && y >= 0 && y < img.Bounds().Max.Y {
					img.Set(x, y, c)
				}
			}
		}
	}
}

// drawText renders text onto an image at the specified position
func drawText(img *image.RGBA, x, y int, text string, c color.RGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// parseHexColor parses a hex color string like "#FF6B6B" to color.RGBA
func parseHexColor(hex string) color.RGBA {
	// Default to red if parsing fails
	defaultColor := color.RGBA{255, 0, 0, 255}

	if len(hex) == 0 {
		return defaultColor
	}

	if hex[0] == '#' {
		hex = hex[1:]
	}

	if len(hex) != 6 {
		return defaultColor
	}

	var r, g, b uint8
	_, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b)
	if err != nil {
		return defaultColor
	}

	return color.RGBA{r, g, b, 255}
}
