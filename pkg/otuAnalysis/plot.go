package otuAnalysis

import (
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/liserjrqlxue/goUtil/osUtil"
	"github.com/liserjrqlxue/goUtil/simpleUtil"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// PlotRelAbundBar renders the stacked relative-abundance bar chart of the
// top-N rank groups to an HTML file.
func PlotRelAbundBar(path, rank string, labels []string, groups []*Group) {
	var top = len(labels)
	if top > 0 && labels[top-1] == OtherLabel {
		top--
	}
	var bar = charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Relative abundance",
			Subtitle: fmt.Sprintf("top %d at %s level", top, rank),
		}),
	)

	var keys = make([]string, 0, len(groups))
	for _, g := range groups {
		keys = append(keys, g.Key)
	}
	bar.SetXAxis(keys)
	for _, label := range labels {
		var items = make([]opts.BarData, 0, len(groups))
		for _, g := range groups {
			items = append(items, opts.BarData{Value: g.Counts[label]})
		}
		bar.AddSeries(label, items, charts.WithBarChartOpts(opts.BarChart{Stack: "relabund"}))
	}

	var output = osUtil.Create(path)
	defer simpleUtil.DeferClose(output)
	simpleUtil.CheckErr(bar.Render(output))
}

// PlotAlphaBox renders a box plot of the Shannon index per treatment.
func PlotAlphaBox(path string, alpha []*AlphaDiversity) error {
	var byTreatment = make(map[string]plotter.Values)
	for _, d := range alpha {
		byTreatment[d.Treatment] = append(byTreatment[d.Treatment], d.Shannon)
	}
	var levels []string
	for _, l := range TreatmentLevels {
		if len(byTreatment[l]) > 0 {
			levels = append(levels, l)
		}
	}
	if len(levels) == 0 {
		return &EmptyResultError{Stage: "alpha plot", Msg: "no samples to plot"}
	}

	var p = plot.New()
	p.Title.Text = "Shannon diversity"
	p.Y.Label.Text = "Shannon index"

	for i, l := range levels {
		box, err := plotter.NewBoxPlot(vg.Points(30), float64(i), byTreatment[l])
		if err != nil {
			return err
		}
		p.Add(box)
	}
	p.NominalX(levels...)

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// PlotPCoA renders the ordination scatter, one series per treatment, axes
// labelled with the percent of variation explained.
func PlotPCoA(path string, samples []*Sample, ord *Ordination) error {
	if len(ord.Explained) < 2 {
		return &EmptyResultError{Stage: "pcoa plot", Msg: "fewer than two positive axes"}
	}

	var p = plot.New()
	p.Title.Text = "Bray-Curtis PCoA"
	p.X.Label.Text = fmt.Sprintf("PCo1 (%.1f%%)", ord.Explained[0])
	p.Y.Label.Text = fmt.Sprintf("PCo2 (%.1f%%)", ord.Explained[1])

	for i, l := range TreatmentLevels {
		var xys plotter.XYs
		for j, s := range samples {
			if s.Treatment == l {
				xys = append(xys, plotter.XY{X: ord.Coords[j][0], Y: ord.Coords[j][1]})
			}
		}
		if len(xys) == 0 {
			continue
		}
		scatter, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		scatter.GlyphStyle.Color = plotutil.Color(i)
		scatter.GlyphStyle.Shape = plotutil.Shape(i)
		p.Add(scatter)
		p.Legend.Add(l, scatter)
	}
	p.Legend.Top = true

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
