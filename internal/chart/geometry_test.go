package chart

import (
	"math"
	"testing"
)

var viewport = Rect{X: 40, Y: 100, W: 515, H: 140}

func TestLayoutGroupedBars(t *testing.T) {
	cats := []string{"2024-01", "2024-02", "2024-03"}
	series := []Series{
		{Name: "Expense", Color: "#ef4444", Data: []float64{100, 50, 0}},
		{Name: "Income", Color: "#10b981", Data: []float64{20, 80, 40}},
	}

	layout := LayoutGroupedBars(cats, series, viewport)

	if got := len(layout.Bars); got != 6 {
		t.Fatalf("got %d bars, want 6", got)
	}
	if got := len(layout.Ticks); got != 5 {
		t.Fatalf("got %d ticks, want 5 (4 intervals)", got)
	}
	if got := len(layout.Labels); got != 3 {
		t.Fatalf("got %d category labels, want 3", got)
	}

	// Tallest value fills the plot height; zero value has zero height.
	for _, b := range layout.Bars {
		if b.Series == 0 && b.Group == 0 {
			if math.Abs(b.Rect.H-layout.Plot.H) > 1e-9 {
				t.Errorf("max bar height = %v, want plot height %v", b.Rect.H, layout.Plot.H)
			}
		}
		if b.Series == 0 && b.Group == 2 {
			if b.Rect.H != 0 {
				t.Errorf("zero bar height = %v, want 0", b.Rect.H)
			}
		}
		if b.Rect.H < 0 || b.Rect.W < 0 {
			t.Errorf("negative bar geometry: %+v", b.Rect)
		}
		if b.Rect.Y+b.Rect.H > layout.Plot.Y+layout.Plot.H+1e-9 {
			t.Errorf("bar extends below baseline: %+v", b.Rect)
		}
	}
}

func TestLayoutGroupedBars_AllZero(t *testing.T) {
	series := []Series{{Name: "Expense", Data: []float64{0, 0, 0}}}
	layout := LayoutGroupedBars([]string{"a", "b", "c"}, series, viewport)

	for _, b := range layout.Bars {
		if b.Rect.H != 0 {
			t.Errorf("all-zero series produced bar height %v", b.Rect.H)
		}
	}
	// Scale guard: top tick is 1, not NaN.
	top := layout.Ticks[len(layout.Ticks)-1]
	if top.Value != 1 {
		t.Errorf("top tick value = %v, want 1", top.Value)
	}
}

func TestLayoutGroupedBars_NoCategories(t *testing.T) {
	layout := LayoutGroupedBars(nil, []Series{{Data: nil}}, viewport)
	if len(layout.Bars) != 0 || len(layout.Labels) != 0 {
		t.Errorf("empty chart produced bars=%d labels=%d", len(layout.Bars), len(layout.Labels))
	}
	if len(layout.Ticks) != 5 {
		t.Errorf("ticks = %d, want 5", len(layout.Ticks))
	}
}

func TestLayoutLineSeries_LabelThinning(t *testing.T) {
	labels := make([]string, 31)
	data := make([]float64, 31)
	for i := range labels {
		labels[i] = "d"
		data[i] = float64(i)
	}

	layout := LayoutLineSeries(labels, []Series{{Color: "#000", Data: data}}, viewport)

	if got := len(layout.Labels); got > 8 {
		t.Errorf("got %d x labels, want at most 8", got)
	}
	if got := len(layout.Polylines); got != 1 {
		t.Fatalf("got %d polylines, want 1", got)
	}
	pts := layout.Polylines[0].Points
	if len(pts) != 31 {
		t.Fatalf("got %d points, want 31", len(pts))
	}
	for i := 1; i < len(pts); i++ {
		if pts[i].X <= pts[i-1].X {
			t.Fatalf("x positions not strictly increasing at %d", i)
		}
	}
	if len(layout.Markers) != 31 {
		t.Errorf("got %d markers, want 31", len(layout.Markers))
	}
}

func TestLayoutLineSeries_SinglePoint(t *testing.T) {
	layout := LayoutLineSeries([]string{"01"}, []Series{{Data: []float64{5}}}, viewport)
	if len(layout.Polylines) != 1 || len(layout.Polylines[0].Points) != 1 {
		t.Fatalf("single point layout = %+v", layout.Polylines)
	}
	p := layout.Polylines[0].Points[0]
	if p.X != layout.Plot.X {
		t.Errorf("single point X = %v, want plot left edge %v", p.X, layout.Plot.X)
	}
}

func TestLayoutPieSectors_FullCircle(t *testing.T) {
	sectors := LayoutPieSectors([]Slice{
		{Value: 50, Color: "a"},
		{Value: 30, Color: "b"},
		{Value: 20, Color: "c"},
	})

	if len(sectors) != 3 {
		t.Fatalf("got %d sectors, want 3", len(sectors))
	}
	if sectors[0].StartAngle != -math.Pi/2 {
		t.Errorf("first sector starts at %v, want -pi/2", sectors[0].StartAngle)
	}
	var span float64
	for i, s := range sectors {
		span += s.EndAngle - s.StartAngle
		if i > 0 && math.Abs(s.StartAngle-sectors[i-1].EndAngle) > 1e-12 {
			t.Errorf("sector %d not contiguous", i)
		}
	}
	if math.Abs(span-2*math.Pi) > 1e-9 {
		t.Errorf("total span = %v, want 2*pi", span)
	}
}

func TestLayoutPieSectors_ZeroAndNegativeSlices(t *testing.T) {
	sectors := LayoutPieSectors([]Slice{
		{Value: 0, Color: "a"},
		{Value: 10, Color: "b"},
		{Value: -5, Color: "c"},
	})
	if len(sectors) != 1 {
		t.Fatalf("got %d sectors, want 1 (zero and negative skipped)", len(sectors))
	}
	span := sectors[0].EndAngle - sectors[0].StartAngle
	if math.Abs(span-2*math.Pi) > 1e-9 {
		t.Errorf("lone slice span = %v, want full circle", span)
	}
}

func TestLayoutPieSectors_AllZero(t *testing.T) {
	if sectors := LayoutPieSectors([]Slice{{Value: 0}, {Value: 0}}); len(sectors) != 0 {
		t.Errorf("all-zero slices produced %d sectors, want 0", len(sectors))
	}
	if sectors := LayoutPieSectors(nil); len(sectors) != 0 {
		t.Errorf("nil slices produced %d sectors", len(sectors))
	}
}

func TestArcPoints(t *testing.T) {
	pts := ArcPoints(0, 0, 10, 0, math.Pi/2, 4)
	if len(pts) != 5 {
		t.Fatalf("got %d arc points, want 5", len(pts))
	}
	for _, p := range pts {
		r := math.Hypot(p.X, p.Y)
		if math.Abs(r-10) > 1e-9 {
			t.Errorf("arc point %+v not on radius 10", p)
		}
	}
	if math.Abs(pts[0].X-10) > 1e-9 || math.Abs(pts[4].Y-10) > 1e-9 {
		t.Errorf("arc endpoints wrong: %+v ... %+v", pts[0], pts[4])
	}
}

func TestLayoutTable(t *testing.T) {
	rows := make([][]string, 25)
	for i := range rows {
		rows[i] = []string{"cell"}
	}

	pages := LayoutTable(rows, 180, 18) // 10 rows per page
	if len(pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(pages))
	}
	if len(pages[0]) != 10 || len(pages[1]) != 10 || len(pages[2]) != 5 {
		t.Errorf("page sizes = %d/%d/%d, want 10/10/5", len(pages[0]), len(pages[1]), len(pages[2]))
	}
	for _, page := range pages {
		if float64(len(page))*18 > 180 {
			t.Errorf("page of %d rows exceeds usable height", len(page))
		}
	}
}

func TestLayoutTable_Degenerate(t *testing.T) {
	if pages := LayoutTable(nil, 100, 18); pages != nil {
		t.Errorf("empty rows produced pages: %v", pages)
	}
	// Rows taller than the page still make progress one row at a time.
	rows := [][]string{{"a"}, {"b"}}
	pages := LayoutTable(rows, 10, 18)
	if len(pages) != 2 {
		t.Errorf("oversized rows: got %d pages, want 2", len(pages))
	}
}
