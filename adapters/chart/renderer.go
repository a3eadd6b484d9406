// Package chart renders category-mean bar charts and ROC curves with gonum/plot.
package chart

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"convlab/domain/evaluation"
	"convlab/domain/stats"
	"convlab/internal"
	"convlab/internal/errors"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	barColor      = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	curveColor    = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	referenceGray = color.Gray{Y: 160}
)

// Renderer writes charts of a fixed size. The format follows the file extension.
type Renderer struct {
	width  vg.Length
	height vg.Length
}

// NewRenderer creates a renderer; width and height are in points.
func NewRenderer(width, height int) *Renderer {
	return &Renderer{width: vg.Length(width), height: vg.Length(height)}
}

// BarChart draws one bar per category with labels rotated under the x axis.
func (r *Renderer) BarChart(series stats.CategoryMeanSeries, path string) error {
	p := plot.New()
	p.Title.Text = series.Title
	p.X.Label.Text = series.CategoricalField
	p.Y.Label.Text = "Mean " + series.NumericField

	if series.Len() > 0 {
		bars, err := plotter.NewBarChart(plotter.Values(series.Means), barWidth(r.width, series.Len()))
		if err != nil {
			return fmt.Errorf("failed to build bar chart: %w", err)
		}
		bars.Color = barColor
		bars.LineStyle.Width = 0
		p.Add(bars)
		p.NominalX(series.Labels...)
	}

	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Add(plotter.NewGrid())

	return r.save(p, path)
}

// ROCChart draws the ROC curve against the chance diagonal.
func (r *Renderer) ROCChart(curve evaluation.ROCCurve, auc float64, path string) error {
	p := plot.New()
	p.Title.Text = "ROC Curve"
	p.X.Label.Text = "False Positive Rate"
	p.Y.Label.Text = "True Positive Rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	pts := make(plotter.XYs, curve.Len())
	for i := range pts {
		pts[i].X = curve.FPR[i]
		pts[i].Y = curve.TPR[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("failed to build ROC line: %w", err)
	}
	line.Color = curveColor
	line.Width = vg.Points(2)

	chance, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return fmt.Errorf("failed to build reference line: %w", err)
	}
	chance.Color = referenceGray
	chance.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}

	p.Add(plotter.NewGrid(), chance, line)
	p.Legend.Add(fmt.Sprintf("ROC (AUC = %.4f)", auc), line)
	p.Legend.Top = false
	p.Legend.Left = false

	return r.save(p, path)
}

func (r *Renderer) save(p *plot.Plot, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.IOError(path, err)
	}
	if err := p.Save(r.width, r.height, path); err != nil {
		return errors.IOError(path, err)
	}
	internal.DefaultLogger.Info("[Chart] saved %s", path)
	return nil
}

// barWidth spreads bars over most of the canvas, capped so a handful of
// categories still look like bars.
func barWidth(canvas vg.Length, n int) vg.Length {
	w := canvas * 0.7 / vg.Length(n)
	if w > vg.Points(40) {
		w = vg.Points(40)
	}
	if w < vg.Points(2) {
		w = vg.Points(2)
	}
	return w
}
