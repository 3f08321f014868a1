// Package chart строит график функции зрелости от времени с подсветкой точки.
package chart

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"

	"berry-quality/internal/domain/colorspace"
	"berry-quality/internal/domain/entity"
	"berry-quality/internal/domain/port"
)

// Доли полей вокруг области графика
const (
	marginTop    = 0.2
	marginLeft   = 0.25
	marginBottom = 0.25
	marginRight  = 0.2

	ticks          = 5
	curveThickness = 3
	axisThickness  = 2
	labelScale     = 0.6
	highlightRatio = 0.03
)

var (
	background     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	axisColor      = color.RGBA{A: 255}
	highlightColor = color.RGBA{R: 10, G: 130, B: 255, A: 255}
)

// ErrEmptyRange пустой диапазон осей
var ErrEmptyRange = errors.New("chart range is empty")

// Sample точка функции
type Sample struct {
	X, Y float64
}

// Generator отрисовывает график одной конфигурации. Значения функции
// вычисляются один раз при создании.
type Generator struct {
	cfg      entity.ChartConfiguration
	fn       *Function
	canvases port.CanvasFactory
	// runs непрерывные участки; между ними функция не определена
	runs [][]Sample

	top, left, bottom, right int
	chartWidth, chartHeight  int
}

// NewGenerator компилирует функцию и вычисляет точки графика
func NewGenerator(cfg entity.ChartConfiguration, canvases port.CanvasFactory) (*Generator, error) {
	if cfg.Width <= 0 {
		cfg.Width = entity.DefaultChartSize
	}
	if cfg.Height <= 0 {
		cfg.Height = entity.DefaultChartSize
	}
	if entity.Span(cfg.XRange) <= 0 || entity.Span(cfg.YRange) <= 0 {
		return nil, ErrEmptyRange
	}

	fn, err := CompileFunction(cfg.Function)
	if err != nil {
		return nil, fmt.Errorf("compile chart function: %w", err)
	}

	g := &Generator{
		cfg:      cfg,
		fn:       fn,
		canvases: canvases,
		top:      int(marginTop * float64(cfg.Height)),
		left:     int(marginLeft * float64(cfg.Width)),
		bottom:   int(marginBottom * float64(cfg.Height)),
		right:    int(marginRight * float64(cfg.Width)),
	}
	g.chartWidth = cfg.Width - g.left - g.right
	g.chartHeight = cfg.Height - g.top - g.bottom
	if g.chartWidth <= 0 || g.chartHeight <= 0 {
		return nil, fmt.Errorf("chart size %dx%d is too small", cfg.Width, cfg.Height)
	}
	g.sample()
	return g, nil
}

// шаг выборки соответствует одному пикселю по оси X
func (g *Generator) sample() {
	xr := g.cfg.XRange
	step := entity.Span(xr) / float64(g.chartWidth)
	var run []Sample
	for i := 0; ; i++ {
		x := xr.Min + float64(i)*step
		if x >= xr.Max {
			break
		}
		y := g.fn.Eval(x)
		if math.IsNaN(y) || math.IsInf(y, 0) {
			g.closeRun(run)
			run = nil
			continue
		}
		run = append(run, Sample{X: x, Y: y})
	}
	g.closeRun(run)
}

func (g *Generator) closeRun(run []Sample) {
	if len(run) > 0 {
		g.runs = append(g.runs, run)
	}
}

// Config конфигурация генератора
func (g *Generator) Config() entity.ChartConfiguration {
	return g.cfg
}

// Samples вычисленные точки функции
func (g *Generator) Samples() []Sample {
	var out []Sample
	for _, run := range g.runs {
		out = append(out, run...)
	}
	return out
}

// Runs непрерывные участки графика
func (g *Generator) Runs() [][]Sample {
	out := make([][]Sample, len(g.runs))
	for i, run := range g.runs {
		out[i] = append([]Sample(nil), run...)
	}
	return out
}

func (g *Generator) origin() image.Point {
	return image.Pt(g.left, g.cfg.Height-g.bottom)
}

// MapPoint переводит точку функции в координаты изображения.
// Точки вне диапазонов осей не отображаются.
func (g *Generator) MapPoint(x, y float64) (image.Point, bool) {
	if !g.cfg.XRange.Contains(x) || !g.cfg.YRange.Contains(y) {
		return image.Point{}, false
	}
	o := g.origin()
	px := o.X + int(math.Round((x-g.cfg.XRange.Min)/entity.Span(g.cfg.XRange)*float64(g.chartWidth)))
	py := o.Y - int(math.Round((y-g.cfg.YRange.Min)/entity.Span(g.cfg.YRange)*float64(g.chartHeight)))
	return image.Pt(px, py), true
}

// HighlightPoint находит x, при котором функция принимает значение y,
// линейной интерполяцией между соседними точками по разные стороны от y.
// Через участки, где функция не определена, интерполяция не идёт.
func (g *Generator) HighlightPoint(y float64) (float64, bool) {
	for _, run := range g.runs {
		if len(run) == 1 && run[0].Y == y {
			return run[0].X, true
		}
		for i := 1; i < len(run); i++ {
			a, b := run[i-1], run[i]
			if (a.Y <= y && y <= b.Y) || (b.Y <= y && y <= a.Y) {
				if a.Y == b.Y {
					return a.X, true
				}
				return a.X + (y-a.Y)*(b.X-a.X)/(b.Y-a.Y), true
			}
		}
	}
	return 0, false
}

// Render рисует график. Если highlight не nil, на графике отмечается точка с этим значением.
func (g *Generator) Render(highlight *float64) (image.Image, error) {
	c, err := g.canvases.Blank(g.cfg.Width, g.cfg.Height, background)
	if err != nil {
		return nil, fmt.Errorf("create chart canvas: %w", err)
	}
	defer c.Close()

	g.drawAxes(c)
	g.drawCurve(c)
	if highlight != nil {
		g.drawHighlight(c, *highlight)
	}
	return c.Image()
}

func (g *Generator) drawAxes(c port.Canvas) {
	o := g.origin()
	c.ArrowedLine(o, image.Pt(g.cfg.Width-g.right/2, o.Y), axisColor, axisThickness)
	c.ArrowedLine(o, image.Pt(o.X, g.top/2), axisColor, axisThickness)

	for i := 0; i < ticks; i++ {
		fraction := float64(i) / float64(ticks-1)

		xv := g.cfg.XRange.Min + fraction*entity.Span(g.cfg.XRange)
		px := o.X + int(fraction*float64(g.chartWidth))
		c.Line(image.Pt(px, o.Y-5), image.Pt(px, o.Y+5), axisColor, 1)
		c.Text(FormatTick(xv), image.Pt(px-12, o.Y+28), labelScale, axisColor, 1)

		yv := g.cfg.YRange.Min + fraction*entity.Span(g.cfg.YRange)
		py := o.Y - int(fraction*float64(g.chartHeight))
		c.Line(image.Pt(o.X-5, py), image.Pt(o.X+5, py), axisColor, 1)
		c.Text(FormatTick(yv), image.Pt(o.X-50, py+5), labelScale, axisColor, 1)
	}

	c.Text(g.cfg.XLabel, image.Pt(o.X+g.chartWidth/3, g.cfg.Height-g.bottom/3), labelScale*1.5, axisColor, 1)
	c.Text(g.cfg.YLabel, image.Pt(g.left/4, g.top/2-10), labelScale*1.5, axisColor, 1)
}

func (g *Generator) drawCurve(c port.Canvas) {
	for _, run := range g.runs {
		for i := 1; i < len(run); i++ {
			a, b := run[i-1], run[i]
			pa, okA := g.MapPoint(a.X, a.Y)
			pb, okB := g.MapPoint(b.X, b.Y)
			if !okA || !okB {
				continue
			}
			c.Line(pa, pb, colorspace.InterpolateColor(b.Y, g.cfg.YRange), curveThickness)
		}
	}
}

func (g *Generator) drawHighlight(c port.Canvas, y float64) {
	x, ok := g.HighlightPoint(y)
	if !ok {
		return
	}
	p, ok := g.MapPoint(x, y)
	if !ok {
		return
	}
	o := g.origin()
	c.Line(p, image.Pt(o.X, p.Y), highlightColor, axisThickness)
	c.Line(p, image.Pt(p.X, o.Y), highlightColor, axisThickness)
	c.Circle(p, max(1, int(highlightRatio*float64(g.chartHeight))), highlightColor, -1)
}

// FormatTick форматирует подпись деления: минимум один и максимум два знака после точки
func FormatTick(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	if strings.HasSuffix(s, "0") {
		s = s[:len(s)-1]
	}
	if s == "-0.0" {
		s = "0.0"
	}
	return s
}
