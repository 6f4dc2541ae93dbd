package render

import (
	"fmt"
	"os"
	"strconv"

	"rendiconto/internal/chart"
	"rendiconto/internal/core"

	"github.com/signintech/gopdf"
)

// A4 portrait in points.
const (
	pageWidth  = 595.28
	pageHeight = 841.89
	pageMargin = 40.0

	contentWidth  = pageWidth - 2*pageMargin
	usableHeight  = pageHeight - 2*pageMargin - footerHeight
	footerHeight  = 24.0
	sectionGap    = 18.0
	tableRowH     = 16.0
	chartHeight   = 150.0
	kpiCardHeight = 56.0
)

const (
	fontRegular = "report"
	fontBold    = "report-bold"
)

// DocumentRenderer draws the paginated vector report. Layout is computed
// first so page breaks never split a section header from its first row,
// then the draw pass replays the plan.
type DocumentRenderer struct {
	Assets DocumentAssets
}

func (r *DocumentRenderer) Format() string      { return FormatDocument }
func (r *DocumentRenderer) ContentType() string { return "application/pdf" }
func (r *DocumentRenderer) Extension() string   { return ".pdf" }

// section is one measured block: Height is known before drawing so
// pagination is a pure decision.
type section struct {
	height float64
	draw   func(d *doc, y float64)
}

func (r *DocumentRenderer) Render(pack *core.ReportPack) ([]byte, error) {
	regular, err := os.ReadFile(r.Assets.FontRegular)
	if err != nil {
		return nil, &core.RenderError{Format: FormatDocument, Err: fmt.Errorf("regular font: %w", err)}
	}
	bold, err := os.ReadFile(r.Assets.FontBold)
	if err != nil {
		return nil, &core.RenderError{Format: FormatDocument, Err: fmt.Errorf("bold font: %w", err)}
	}

	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	if err := pdf.AddTTFFontData(fontRegular, regular); err != nil {
		return nil, &core.RenderError{Format: FormatDocument, Err: fmt.Errorf("regular font: %w", err)}
	}
	if err := pdf.AddTTFFontData(fontBold, bold); err != nil {
		return nil, &core.RenderError{Format: FormatDocument, Err: fmt.Errorf("bold font: %w", err)}
	}

	d := &doc{pdf: &pdf}
	sections := r.buildSections(pack)

	heights := make([]float64, len(sections))
	for i, s := range sections {
		heights[i] = s.height
	}
	pages := paginateHeights(heights, usableHeight, sectionGap)

	for _, page := range pages {
		pdf.AddPage()
		y := pageMargin
		for _, idx := range page {
			sections[idx].draw(d, y)
			y += sections[idx].height + sectionGap
		}
	}
	d.drawFooters(pack)

	if d.err != nil {
		return nil, &core.RenderError{Format: FormatDocument, Err: d.err}
	}
	out, err := pdf.GetBytesPdfReturnErr()
	if err != nil {
		return nil, &core.RenderError{Format: FormatDocument, Err: err}
	}
	return out, nil
}

// paginateHeights packs section heights onto pages in order. A section that
// does not fit in the remaining space starts a new page; a section taller
// than a whole page gets a page to itself rather than being dropped.
func paginateHeights(heights []float64, usable, gap float64) [][]int {
	var pages [][]int
	var cur []int
	used := 0.0
	for i, h := range heights {
		need := h
		if len(cur) > 0 {
			need += gap
		}
		if len(cur) > 0 && used+need > usable {
			pages = append(pages, cur)
			cur = nil
			used = 0
			need = h
		}
		cur = append(cur, i)
		used += need
	}
	if len(cur) > 0 {
		pages = append(pages, cur)
	}
	return pages
}

func (r *DocumentRenderer) buildSections(pack *core.ReportPack) []section {
	var sections []section
	add := func(h float64, draw func(d *doc, y float64)) {
		sections = append(sections, section{height: h, draw: draw})
	}

	add(70, func(d *doc, y float64) { d.drawHeader(pack, y) })
	add(kpiCardHeight, func(d *doc, y float64) { d.drawKPICards(pack, y) })

	add(chartHeight+34, func(d *doc, y float64) {
		d.drawSectionTitle("Monthly Trend (3 months)", y)
		viewport := chart.Rect{X: pageMargin, Y: y + 20, W: contentWidth, H: chartHeight}
		layout := chart.LayoutGroupedBars(monthLabels(pack), monthSeries(pack), viewport)
		d.drawBarChart(layout)
		d.drawLegend(y+20+chartHeight+4, []legendItem{
			{"Expense", colorExpense}, {"Income", colorIncome},
		})
	})

	add(chartHeight+34, func(d *doc, y float64) {
		d.drawSectionTitle("Daily Breakdown", y)
		viewport := chart.Rect{X: pageMargin, Y: y + 20, W: contentWidth, H: chartHeight}
		layout := chart.LayoutLineSeries(dayLabels(pack), daySeries(pack), viewport)
		d.drawLineChart(layout)
		d.drawLegend(y+20+chartHeight+4, []legendItem{
			{"Expense", colorExpense}, {"Income", colorIncome},
		})
	})

	add(chartHeight+40, func(d *doc, y float64) { d.drawPies(pack, y) })

	addTable := func(title string, headers []string, rows [][]string) {
		pages := chart.LayoutTable(rows, usableHeight-40-tableRowH, tableRowH)
		if pages == nil {
			pages = [][][]string{nil}
		}
		for pi, chunk := range pages {
			chunk := chunk
			t := title
			if pi > 0 {
				t = title + " (cont.)"
			}
			h := 20 + tableRowH + float64(len(chunk))*tableRowH
			add(h, func(d *doc, y float64) {
				d.drawSectionTitle(t, y)
				d.drawTable(y+20, headers, chunk)
			})
		}
	}

	addTable("Expense by Category", []string{"#", "Category", "Expense", "Share"},
		categoryTableRows(pack.Categories, pack.Totals.TotalExpense, func(c core.CategoryBreakdown) float64 { return c.Expense }))
	addTable("Income by Category", []string{"#", "Category", "Income", "Share"},
		categoryTableRows(pack.Categories, pack.Totals.TotalIncome, func(c core.CategoryBreakdown) float64 { return c.Income }))

	addTable(fmt.Sprintf("Top %d Expenses", len(pack.TopExpense)),
		[]string{"Date", "Category", "Description", "Amount"}, txTableRows(pack.TopExpense))
	addTable(fmt.Sprintf("Top %d Incomes", len(pack.TopIncome)),
		[]string{"Date", "Category", "Description", "Amount"}, txTableRows(pack.TopIncome))

	return sections
}

func monthLabels(pack *core.ReportPack) []string {
	labels := make([]string, len(pack.Monthly))
	for i, m := range pack.Monthly {
		labels[i] = m.Month
	}
	return labels
}

func monthSeries(pack *core.ReportPack) []chart.Series {
	exp := make([]float64, len(pack.Monthly))
	inc := make([]float64, len(pack.Monthly))
	for i, m := range pack.Monthly {
		exp[i] = m.Expense
		inc[i] = m.Income
	}
	return []chart.Series{
		{Name: "Expense", Color: colorExpense, Data: exp},
		{Name: "Income", Color: colorIncome, Data: inc},
	}
}

func dayLabels(pack *core.ReportPack) []string {
	labels := make([]string, len(pack.Daily))
	for i, p := range pack.Daily {
		day := p.Day
		if len(day) >= 10 {
			day = day[8:10]
		}
		labels[i] = day
	}
	return labels
}

func daySeries(pack *core.ReportPack) []chart.Series {
	exp := make([]float64, len(pack.Daily))
	inc := make([]float64, len(pack.Daily))
	for i, p := range pack.Daily {
		exp[i] = p.Expense
		inc[i] = p.Income
	}
	return []chart.Series{
		{Name: "Expense", Color: colorExpense, Data: exp},
		{Name: "Income", Color: colorIncome, Data: inc},
	}
}

func categoryTableRows(cats []core.CategoryBreakdown, total float64, value func(core.CategoryBreakdown) float64) [][]string {
	var rows [][]string
	rank := 0
	for _, c := range cats {
		v := value(c)
		if v <= 0 {
			continue
		}
		rank++
		share := "0.0%"
		if total > 0 {
			share = fmt.Sprintf("%.1f%%", v/total*100)
		}
		rows = append(rows, []string{strconv.Itoa(rank), c.Name, money(v), share})
	}
	return rows
}

func txTableRows(txs []core.TransactionRow) [][]string {
	rows := make([][]string, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, []string{t.Date, t.Category, truncate(t.Description, 48), money(t.Amount)})
	}
	return rows
}

// truncate shortens s to at most max runes, marking the cut with an
// ellipsis. Cutting on rune boundaries keeps multi-byte text valid for the
// font engine.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// doc wraps the writer and keeps the first draw error so section code can
// stay unconditional.
type doc struct {
	pdf *gopdf.GoPdf
	err error
}

func (d *doc) check(err error) {
	if err != nil && d.err == nil {
		d.err = err
	}
}

func (d *doc) setFont(name string, size float64) {
	d.check(d.pdf.SetFont(name, "", size))
}

func (d *doc) text(x, y float64, s string) {
	d.pdf.SetX(x)
	d.pdf.SetY(y)
	d.check(d.pdf.Cell(nil, s))
}

func (d *doc) fillHex(hex string) {
	r, g, b := hexRGB(hex)
	d.pdf.SetFillColor(r, g, b)
}

func (d *doc) strokeHex(hex string) {
	r, g, b := hexRGB(hex)
	d.pdf.SetStrokeColor(r, g, b)
}

func hexRGB(hex string) (uint8, uint8, uint8) {
	if len(hex) != 7 || hex[0] != '#' {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v)
}

func (d *doc) drawHeader(pack *core.ReportPack, y float64) {
	d.pdf.SetFillColor(31, 41, 55)
	d.pdf.RectFromUpperLeftWithStyle(pageMargin, y, contentWidth, 54, "F")

	d.pdf.SetTextColor(255, 255, 255)
	d.setFont(fontBold, 18)
	d.text(pageMargin+14, y+10, fmt.Sprintf("%s Report", appName))
	d.setFont(fontRegular, 10)
	d.text(pageMargin+14, y+34, fmt.Sprintf("%s  |  generated %s  |  %s",
		pack.Meta.PeriodLabel,
		pack.Meta.GeneratedAt.Format("2006-01-02 15:04"),
		reportVersion))
	d.pdf.SetTextColor(17, 24, 39)
}

func (d *doc) drawKPICards(pack *core.ReportPack, y float64) {
	cards := []struct {
		label string
		value string
		color string
	}{
		{"Total Expense", money(pack.Totals.TotalExpense), colorExpense},
		{"Total Income", money(pack.Totals.TotalIncome), colorIncome},
		{"Difference", money(pack.Totals.Diff), colorDiff},
		{"Transactions", strconv.FormatInt(pack.Totals.TxCount, 10), colorCount},
	}

	gap := 10.0
	cardW := (contentWidth - 3*gap) / 4
	for i, c := range cards {
		x := pageMargin + float64(i)*(cardW+gap)
		d.pdf.SetFillColor(243, 244, 246)
		d.pdf.RectFromUpperLeftWithStyle(x, y, cardW, kpiCardHeight, "F")
		d.fillHex(c.color)
		d.pdf.RectFromUpperLeftWithStyle(x, y, 4, kpiCardHeight, "F")

		d.pdf.SetTextColor(107, 114, 128)
		d.setFont(fontRegular, 8)
		d.text(x+12, y+10, c.label)
		d.pdf.SetTextColor(17, 24, 39)
		d.setFont(fontBold, 14)
		d.text(x+12, y+26, c.value)
	}
}

func (d *doc) drawSectionTitle(title string, y float64) {
	d.pdf.SetTextColor(17, 24, 39)
	d.setFont(fontBold, 12)
	d.text(pageMargin, y, title)
}

type legendItem struct {
	label string
	color string
}

func (d *doc) drawLegend(y float64, items []legendItem) {
	x := pageMargin
	d.setFont(fontRegular, 8)
	for _, it := range items {
		d.fillHex(it.color)
		d.pdf.RectFromUpperLeftWithStyle(x, y, 8, 8, "F")
		d.pdf.SetTextColor(55, 65, 81)
		d.text(x+12, y-1, it.label)
		x += 12 + 7*float64(len(it.label)) + 16
	}
}

func (d *doc) drawAxes(plot chart.Rect, ticks []chart.AxisTick) {
	d.pdf.SetStrokeColor(229, 231, 235)
	d.pdf.SetLineWidth(0.5)
	d.pdf.SetTextColor(107, 114, 128)
	d.setFont(fontRegular, 7)
	for _, t := range ticks {
		d.pdf.Line(t.X1, t.Y, t.X2, t.Y)
		d.text(t.X1-padAxisLabel, t.Y-3, strconv.FormatFloat(t.Value, 'f', 0, 64))
	}
}

const padAxisLabel = 32.0

func (d *doc) drawXLabels(labels []chart.Label) {
	d.pdf.SetTextColor(107, 114, 128)
	d.setFont(fontRegular, 7)
	for _, l := range labels {
		d.text(l.X, l.Y, l.Text)
	}
}

func (d *doc) drawBarChart(layout chart.BarLayout) {
	d.drawAxes(layout.Plot, layout.Ticks)
	for _, b := range layout.Bars {
		if b.Rect.H <= 0 {
			continue
		}
		d.fillHex(b.Color)
		d.pdf.RectFromUpperLeftWithStyle(b.Rect.X, b.Rect.Y, b.Rect.W, b.Rect.H, "F")
	}
	d.drawXLabels(layout.Labels)
}

func (d *doc) drawLineChart(layout chart.LineLayout) {
	d.drawAxes(layout.Plot, layout.Ticks)
	d.pdf.SetLineWidth(1.2)
	for _, pl := range layout.Polylines {
		d.strokeHex(pl.Color)
		for i := 1; i < len(pl.Points); i++ {
			a, b := pl.Points[i-1], pl.Points[i]
			d.pdf.Line(a.X, a.Y, b.X, b.Y)
		}
	}
	for _, m := range layout.Markers {
		d.fillHex(m.Color)
		d.pdf.Oval(m.Point.X-1.5, m.Point.Y-1.5, m.Point.X+1.5, m.Point.Y+1.5)
	}
	d.drawXLabels(layout.Labels)
}

// drawPies renders the two category pies side by side with ranked legends
// limited to the six largest entries.
func (d *doc) drawPies(pack *core.ReportPack, y float64) {
	half := contentWidth / 2
	d.drawPie(pack, y, pageMargin, half, "Expense by Category",
		func(c core.CategoryBreakdown) float64 { return c.Expense })
	d.drawPie(pack, y, pageMargin+half, half, "Income by Category",
		func(c core.CategoryBreakdown) float64 { return c.Income })
}

func (d *doc) drawPie(pack *core.ReportPack, y, x, w float64, title string, value func(core.CategoryBreakdown) float64) {
	d.drawSectionTitle(title, y)

	type entry struct {
		name  string
		val   float64
		color string
	}
	var entries []entry
	for i, c := range pack.Categories {
		if v := value(c); v > 0 {
			entries = append(entries, entry{c.Name, v, categoryPalette[i%len(categoryPalette)]})
		}
	}

	slices := make([]chart.Slice, len(entries))
	for i, e := range entries {
		slices[i] = chart.Slice{Value: e.val, Color: e.color}
	}

	radius := chartHeight/2 - 10
	cx := x + radius + 20
	cy := y + 24 + chartHeight/2

	for _, s := range chart.LayoutPieSectors(slices) {
		pts := chart.ArcPoints(cx, cy, radius, s.StartAngle, s.EndAngle, 24)
		poly := make([]gopdf.Point, 0, len(pts)+1)
		poly = append(poly, gopdf.Point{X: cx, Y: cy})
		for _, p := range pts {
			poly = append(poly, gopdf.Point{X: p.X, Y: p.Y})
		}
		d.fillHex(s.Color)
		d.strokeHex(s.Color)
		d.pdf.Polygon(poly, "F")
	}

	lx := cx + radius + 16
	ly := y + 30
	d.setFont(fontRegular, 8)
	for i, e := range entries {
		if i >= 6 {
			break
		}
		d.fillHex(e.color)
		d.pdf.RectFromUpperLeftWithStyle(lx, ly, 8, 8, "F")
		d.pdf.SetTextColor(55, 65, 81)
		d.text(lx+12, ly-1, truncate(e.name, 14))
		ly += 14
	}
}

func (d *doc) drawTable(y float64, headers []string, rows [][]string) {
	colW := tableColumnWidths(len(headers))

	d.pdf.SetFillColor(55, 65, 81)
	d.pdf.RectFromUpperLeftWithStyle(pageMargin, y, contentWidth, tableRowH, "F")
	d.pdf.SetTextColor(255, 255, 255)
	d.setFont(fontBold, 8)
	x := pageMargin
	for i, h := range headers {
		d.text(x+4, y+4, h)
		x += colW[i]
	}

	d.setFont(fontRegular, 8)
	for ri, row := range rows {
		ry := y + tableRowH + float64(ri)*tableRowH
		if ri%2 == 1 {
			d.pdf.SetFillColor(243, 244, 246)
			d.pdf.RectFromUpperLeftWithStyle(pageMargin, ry, contentWidth, tableRowH, "F")
		}
		d.pdf.SetTextColor(17, 24, 39)
		x = pageMargin
		for ci, cell := range row {
			if ci >= len(colW) {
				break
			}
			d.text(x+4, ry+4, cell)
			x += colW[ci]
		}
	}
}

// tableColumnWidths gives the free-text column the leftover width; numeric
// and rank columns stay narrow.
func tableColumnWidths(n int) []float64 {
	switch n {
	case 4:
		return []float64{80, 140, contentWidth - 80 - 140 - 80, 80}
	default:
		w := make([]float64, n)
		for i := range w {
			w[i] = contentWidth / float64(n)
		}
		return w
	}
}

func (d *doc) drawFooters(pack *core.ReportPack) {
	total := d.pdf.GetNumberOfPages()
	for i := 1; i <= total; i++ {
		d.pdf.SetPage(i)
		d.pdf.SetTextColor(156, 163, 175)
		d.setFont(fontRegular, 7)
		d.text(pageMargin, pageHeight-pageMargin+6,
			fmt.Sprintf("%s %s  |  %s", appName, reportVersion, pack.Meta.PeriodLabel))
		d.text(pageWidth-pageMargin-60, pageHeight-pageMargin+6,
			fmt.Sprintf("Page %d of %d", i, total))
	}
}
