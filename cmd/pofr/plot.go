package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/katalvlaran/pofr/core"
	"github.com/katalvlaran/pofr/diagnostics"
	"github.com/katalvlaran/pofr/internal/config"
	"github.com/katalvlaran/pofr/invertor"
)

// errPoints pairs points with symmetric vertical error bars.
type errPoints struct {
	plotter.XYs
	plotter.YErrors
}

func newErrPoints(x, y, sigma []float64) errPoints {
	pts := errPoints{XYs: make(plotter.XYs, len(x)), YErrors: make(plotter.YErrors, len(x))}
	for i := range x {
		pts.XYs[i] = plotter.XY{X: x[i], Y: y[i]}
		pts.YErrors[i].Low, pts.YErrors[i].High = sigma[i], sigma[i]
	}

	return pts
}

// writePlots saves <name>_pr.png and <name>_iq.png into dir.
func writePlots(dir string, item invertor.BatchItem, sol *core.Solution, pc config.PlotConfig) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	w, h := vg.Length(pc.Width)*vg.Centimeter, vg.Length(pc.Height)*vg.Centimeter

	pr, err := prPlot(item.Name, sol, pc.Samples)
	if err != nil {
		return err
	}
	if err = pr.Save(w, h, filepath.Join(dir, item.Name+"_pr.png")); err != nil {
		return err
	}

	iq, err := iqPlot(item, sol, pc.Samples)
	if err != nil {
		return err
	}

	return iq.Save(w, h, filepath.Join(dir, item.Name+"_iq.png"))
}

func prPlot(name string, sol *core.Solution, n int) (*plot.Plot, error) {
	r := make([]float64, n)
	floats.Span(r, 0, sol.DMax)
	p, s := make([]float64, n), make([]float64, n)
	for i, x := range r {
		p[i], _ = diagnostics.Pr(sol, x)
		s[i], _ = diagnostics.PrErr(sol, x)
	}
	pts := newErrPoints(r, p, s)

	plt := plot.New()
	plt.Title.Text = fmt.Sprintf("%s: P(r)", name)
	plt.X.Label.Text = "r"
	plt.Y.Label.Text = "P(r)"
	plt.Add(plotter.NewGrid())

	bars, err := plotter.NewYErrorBars(pts)
	if err != nil {
		return nil, err
	}
	bars.Color = plotutil.Color(1)
	line, err := plotter.NewLine(pts.XYs)
	if err != nil {
		return nil, err
	}
	line.Color = plotutil.Color(0)
	plt.Add(bars, line)
	plt.Legend.Add("P(r) ± σ", line)

	return plt, nil
}

// iqPlot draws the measured points and the fit on a log intensity axis.
// Points with I ≤ 0 cannot be shown there and are skipped.
func iqPlot(item invertor.BatchItem, sol *core.Solution, n int) (*plot.Plot, error) {
	m := item.Measurement
	var data errPoints
	for i, q := range m.Q {
		if m.I[i] <= 0 {
			continue
		}
		low := m.Err[i]
		if m.I[i]-low <= 0 {
			low = m.I[i] / 2
		}
		data.XYs = append(data.XYs, plotter.XY{X: q, Y: m.I[i]})
		data.YErrors = append(data.YErrors, struct{ Low, High float64 }{low, m.Err[i]})
	}

	qmin, qmax := m.QRange()
	var fit plotter.XYs
	q := make([]float64, n)
	floats.Span(q, qmin, qmax)
	for _, x := range q {
		y, err := diagnostics.IqSmeared(sol, x, m.SlitHeight, m.SlitWidth, item.Config.SlitPoints)
		if err != nil {
			return nil, err
		}
		if y > 0 {
			fit = append(fit, plotter.XY{X: x, Y: y})
		}
	}

	plt := plot.New()
	plt.Title.Text = fmt.Sprintf("%s: I(q)", item.Name)
	plt.X.Label.Text = "q"
	plt.Y.Label.Text = "I(q)"
	plt.Y.Scale = plot.LogScale{}
	plt.Y.Tick.Marker = plot.LogTicks{Prec: -1}

	scatter, err := plotter.NewScatter(data.XYs)
	if err != nil {
		return nil, err
	}
	scatter.Color = plotutil.Color(2)
	bars, err := plotter.NewYErrorBars(data)
	if err != nil {
		return nil, err
	}
	bars.Color = plotutil.Color(2)
	line, err := plotter.NewLine(fit)
	if err != nil {
		return nil, err
	}
	line.Color = plotutil.Color(0)
	plt.Add(bars, scatter, line)
	plt.Legend.Add("data", scatter)
	plt.Legend.Add("fit", line)

	return plt, nil
}
