// Package chart turns numeric series into drawable primitives. Everything
// here is pure geometry: no device, no fonts, no timezone, so identical
// input always yields identical layout.
package chart

import "math"

// Rect is an axis-aligned box in document coordinates (y grows downward).
type Rect struct {
	X, Y, W, H float64
}

// Point is a single document coordinate.
type Point struct {
	X, Y float64
}

// Series is one named data line or bar group member.
type Series struct {
	Name  string
	Color string
	Data  []float64
}

// Chart plot padding inside the viewport: room for axis labels on the left
// and bottom.
const (
	padLeft   = 36.0
	padRight  = 10.0
	padTop    = 10.0
	padBottom = 28.0

	yTickCount = 4

	groupGap      = 10.0
	barInnerGap   = 2.0
	maxAxisLabels = 8
)

// AxisTick is one horizontal gridline with its value.
type AxisTick struct {
	Value float64
	X1, Y float64
	X2    float64
}

// Label is positioned text; rendering decides font and size.
type Label struct {
	Text  string
	X, Y  float64
	W     float64
	Align string
}

// Bar is one filled rectangle of a grouped bar chart.
type Bar struct {
	Rect   Rect
	Color  string
	Series int
	Group  int
}

// BarLayout is the drawable result of LayoutGroupedBars.
type BarLayout struct {
	Plot   Rect
	Bars   []Bar
	Ticks  []AxisTick
	Labels []Label
}

// scaleMax guards the y scale against division by zero: an all-zero chart
// scales against 1 and draws zero-height bars.
func scaleMax(series []Series) float64 {
	max := 1.0
	for _, s := range series {
		for _, v := range s.Data {
			if v > max {
				max = v
			}
		}
	}
	return max
}

func plotArea(viewport Rect) Rect {
	return Rect{
		X: viewport.X + padLeft,
		Y: viewport.Y + padTop,
		W: viewport.W - padLeft - padRight,
		H: viewport.H - padTop - padBottom,
	}
}

func axisTicks(plot Rect, maxVal float64) []AxisTick {
	ticks := make([]AxisTick, 0, yTickCount+1)
	step := maxVal / yTickCount
	for i := 0; i <= yTickCount; i++ {
		y := plot.Y + plot.H - float64(i)/yTickCount*plot.H
		ticks = append(ticks, AxisTick{
			Value: float64(i) * step,
			X1:    plot.X,
			Y:     y,
			X2:    plot.X + plot.W,
		})
	}
	return ticks
}

// LayoutGroupedBars lays out a multi-series bar chart: each category gets an
// equal-width slot subdivided evenly among the series.
func LayoutGroupedBars(categories []string, series []Series, viewport Rect) BarLayout {
	plot := plotArea(viewport)
	maxVal := scaleMax(series)

	layout := BarLayout{
		Plot:  plot,
		Ticks: axisTicks(plot, maxVal),
	}

	groups := len(categories)
	if groups == 0 {
		return layout
	}
	groupW := plot.W / float64(groups)
	barW := (groupW - groupGap) / math.Max(1, float64(len(series)))

	for gi, cat := range categories {
		baseX := plot.X + float64(gi)*groupW + groupGap/2
		for si, s := range series {
			var val float64
			if gi < len(s.Data) {
				val = s.Data[gi]
			}
			if val < 0 {
				val = 0
			}
			h := val / maxVal * plot.H
			layout.Bars = append(layout.Bars, Bar{
				Rect: Rect{
					X: baseX + float64(si)*barW,
					Y: plot.Y + plot.H - h,
					W: math.Max(0, barW-barInnerGap),
					H: h,
				},
				Color:  s.Color,
				Series: si,
				Group:  gi,
			})
		}
		layout.Labels = append(layout.Labels, Label{
			Text:  cat,
			X:     baseX,
			Y:     plot.Y + plot.H + 6,
			W:     groupW - groupGap,
			Align: "center",
		})
	}
	return layout
}

// Polyline is one stroked series path.
type Polyline struct {
	Color  string
	Points []Point
}

// Marker is a point dot drawn on top of its polyline.
type Marker struct {
	Point Point
	Color string
}

// LineLayout is the drawable result of LayoutLineSeries.
type LineLayout struct {
	Plot      Rect
	Polylines []Polyline
	Markers   []Marker
	Ticks     []AxisTick
	Labels    []Label
}

// LayoutLineSeries lays out a line chart with evenly spaced x positions
// (index-spaced, not time-weighted). X labels are thinned by a stride so at
// most about maxAxisLabels of them render regardless of series length.
func LayoutLineSeries(xLabels []string, series []Series, viewport Rect) LineLayout {
	plot := plotArea(viewport)
	maxVal := scaleMax(series)

	layout := LineLayout{
		Plot:  plot,
		Ticks: axisTicks(plot, maxVal),
	}

	xAt := func(i, n int) float64 {
		if n <= 1 {
			return plot.X
		}
		return plot.X + float64(i)/float64(n-1)*plot.W
	}

	if n := len(xLabels); n > 0 {
		stride := (n + maxAxisLabels - 1) / maxAxisLabels
		if stride < 1 {
			stride = 1
		}
		for i := 0; i < n; i += stride {
			layout.Labels = append(layout.Labels, Label{
				Text:  xLabels[i],
				X:     xAt(i, n) - 10,
				Y:     plot.Y + plot.H + 6,
				W:     20,
				Align: "center",
			})
		}
	}

	for _, s := range series {
		n := len(s.Data)
		if n == 0 {
			continue
		}
		line := Polyline{Color: s.Color, Points: make([]Point, 0, n)}
		for i, v := range s.Data {
			if v < 0 {
				v = 0
			}
			p := Point{
				X: xAt(i, n),
				Y: plot.Y + plot.H - v/maxVal*plot.H,
			}
			line.Points = append(line.Points, p)
			layout.Markers = append(layout.Markers, Marker{Point: p, Color: s.Color})
		}
		layout.Polylines = append(layout.Polylines, line)
	}
	return layout
}

// Slice is one pie input value.
type Slice struct {
	Value float64
	Color string
}

// Sector is one pie wedge in radians. Angles follow the drawing convention
// of a clockwise sweep starting at 12 o'clock (-pi/2).
type Sector struct {
	StartAngle float64
	EndAngle   float64
	Color      string
}

// LayoutPieSectors converts slices into wedge angles. Negative values count
// as zero; zero-value slices produce no sector and consume no angle. With
// at least one positive slice the sector spans sum to exactly 2*pi.
func LayoutPieSectors(slices []Slice) []Sector {
	total := 0.0
	for _, s := range slices {
		total += math.Max(0, s.Value)
	}
	if total < 1 {
		total = 1
	}

	sectors := make([]Sector, 0, len(slices))
	start := -math.Pi / 2
	for _, s := range slices {
		v := math.Max(0, s.Value)
		if v == 0 {
			continue
		}
		end := start + v/total*2*math.Pi
		sectors = append(sectors, Sector{StartAngle: start, EndAngle: end, Color: s.Color})
		start = end
	}
	return sectors
}

// ArcPoints approximates a circular arc with steps straight segments,
// centered at (cx, cy). Used to fill sectors as polygons on backends that
// only draw lines and polygons.
func ArcPoints(cx, cy, r, startAngle, endAngle float64, steps int) []Point {
	if steps < 1 {
		steps = 1
	}
	sweep := endAngle - startAngle
	pts := make([]Point, 0, steps+1)
	for i := 0; i <= steps; i++ {
		a := startAngle + sweep*float64(i)/float64(steps)
		pts = append(pts, Point{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)})
	}
	return pts
}

// LayoutTable splits rows into pages so no page exceeds the usable height.
// Zebra striping is a draw-time concern (row parity), not stored here.
func LayoutTable(rows [][]string, pageHeight, rowHeight float64) [][][]string {
	if len(rows) == 0 {
		return nil
	}
	perPage := 1
	if rowHeight > 0 {
		if n := int(pageHeight / rowHeight); n > 1 {
			perPage = n
		}
	}

	var pages [][][]string
	for start := 0; start < len(rows); start += perPage {
		end := start + perPage
		if end > len(rows) {
			end = len(rows)
		}
		pages = append(pages, rows[start:end])
	}
	return pages
}
