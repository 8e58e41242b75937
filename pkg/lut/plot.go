package lut

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Plot saves a PNG (or any extension gonum/plot understands) with the real
// activation and the quantized table drawn over the table's domain.
func (t *Table) Plot(fn Func, title, path string) error {
	lo, hi := t.Config.Domain()

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x"
	p.X.Min = lo
	p.X.Max = hi
	p.Y.Label.Text = "f(x)"

	ref := plotter.NewFunction(fn)
	ref.Samples = 1000

	decoded := t.Values()
	pts := make(plotter.XYs, len(decoded))
	for i, v := range decoded {
		pts[i].X = t.Config.Input(i)
		pts[i].Y = v
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("lut: plot line: %w", err)
	}
	line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(ref, line)
	p.Legend.Add("f(x)", ref)
	p.Legend.Add(t.Config.Format.String(), line)

	if err := p.Save(12*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("lut: save plot: %w", err)
	}
	return nil
}
