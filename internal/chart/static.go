package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/KaramelBytes/rentdash/internal/analysis"
)

// ErrEmpty is returned when a chart has nothing to draw.
var ErrEmpty = errors.New("chart has no data")

// Format selects the static output encoding.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ParseFormat accepts "svg" or "png" in any case.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatSVG, "":
		return FormatSVG, nil
	case FormatPNG:
		return FormatPNG, nil
	}
	return "", fmt.Errorf("unsupported chart format %q (use svg or png)", s)
}

// Ext is the file extension including the dot.
func (f Format) Ext() string { return "." + string(f) }

func (f Format) provider() gochart.RendererProvider {
	if f == FormatPNG {
		return gochart.PNG
	}
	return gochart.SVG
}

const (
	width  = 1024
	height = 512
)

// Render draws chart k of d to w. It returns ErrEmpty when the dashboard
// matched nothing.
func Render(k Kind, d *analysis.Dashboard, f Format, w io.Writer) error {
	if d == nil || d.Empty() {
		return ErrEmpty
	}
	rp := f.provider()
	switch k {
	case KindCities:
		bars := make([]gochart.Value, len(d.CityCounts))
		for i, c := range d.CityCounts {
			bars[i] = gochart.Value{Label: c.City, Value: float64(c.Count)}
		}
		return renderBars(k, bars, rp, w)
	case KindArea:
		return renderBars(k, meanBars(d.AreaByCity), rp, w)
	case KindRent:
		return renderRentLine(d.RentByCity, rp, w)
	case KindRoomsCity:
		return renderRoomsCity(d.RentByRoomsCity, rp, w)
	case KindAnimals:
		return renderAnimals(d.AnimalProportion, rp, w)
	case KindDistribution:
		return renderDistribution(d.RentDistribution, rp, w)
	}
	return fmt.Errorf("unknown chart %q", k)
}

func meanBars(means []analysis.CityMean) []gochart.Value {
	bars := make([]gochart.Value, len(means))
	for i, m := range means {
		bars[i] = gochart.Value{Label: m.City + " " + m.Display, Value: m.Mean}
	}
	return bars
}

// renderBars colors each bar between colorLow and colorHigh by its value.
func renderBars(k Kind, bars []gochart.Value, rp gochart.RendererProvider, w io.Writer) error {
	if len(bars) == 0 {
		return ErrEmpty
	}
	lo, hi := bars[0].Value, bars[0].Value
	for _, b := range bars {
		lo, hi = math.Min(lo, b.Value), math.Max(hi, b.Value)
	}
	for i := range bars {
		c := blend(colorLow, colorHigh, ratio(bars[i].Value, lo, hi))
		bars[i].Style = gochart.Style{FillColor: c, StrokeColor: c, StrokeWidth: 1}
	}
	bc := gochart.BarChart{
		Title:      Title(k),
		Width:      width,
		Height:     height,
		BarWidth:   barWidth(len(bars)),
		Background: gochart.Style{Padding: gochart.Box{Top: 40}},
		YAxis:      gochart.YAxis{Range: &gochart.ContinuousRange{Min: 0, Max: headroom(hi)}},
		Bars:       bars,
	}
	return bc.Render(rp, w)
}

func renderRentLine(means []analysis.CityMean, rp gochart.RendererProvider, w io.Writer) error {
	if len(means) == 0 {
		return ErrEmpty
	}
	xs := make([]float64, len(means))
	ys := make([]float64, len(means))
	ticks := make([]gochart.Tick, len(means))
	hi := 0.0
	for i, m := range means {
		xs[i], ys[i] = float64(i), m.Mean
		ticks[i] = gochart.Tick{Value: float64(i), Label: m.City}
		hi = math.Max(hi, m.Mean)
	}
	red := drawing.ColorFromHex("ff0000")
	ch := gochart.Chart{
		Title:  Title(KindRent),
		Width:  width,
		Height: height,
		XAxis:  gochart.XAxis{Ticks: bounded(ticks)},
		YAxis:  gochart.YAxis{Name: "Aluguel Médio (R$)", Range: &gochart.ContinuousRange{Min: 0, Max: headroom(hi)}},
		Series: []gochart.Series{gochart.ContinuousSeries{
			Name:    "Aluguel Médio",
			XValues: xs,
			YValues: ys,
			Style:   gochart.Style{StrokeColor: red, StrokeWidth: 3, DotColor: red, DotWidth: 5},
		}},
	}
	return ch.Render(rp, w)
}

// renderRoomsCity draws one series per city over the room counts it has.
func renderRoomsCity(means []analysis.RoomsCityMean, rp gochart.RendererProvider, w io.Writer) error {
	if len(means) == 0 {
		return ErrEmpty
	}
	byCity := map[string]*gochart.ContinuousSeries{}
	var order []string
	minR, maxR, hi := means[0].Rooms, means[0].Rooms, 0.0
	for _, m := range means {
		s, ok := byCity[m.City]
		if !ok {
			s = &gochart.ContinuousSeries{Name: m.City}
			byCity[m.City] = s
			order = append(order, m.City)
		}
		s.XValues = append(s.XValues, float64(m.Rooms))
		s.YValues = append(s.YValues, m.MeanRent)
		if m.Rooms < minR {
			minR = m.Rooms
		}
		if m.Rooms > maxR {
			maxR = m.Rooms
		}
		hi = math.Max(hi, m.MeanRent)
	}
	sort.Strings(order)
	series := make([]gochart.Series, 0, len(order))
	for i, c := range order {
		s := byCity[c]
		col := drawing.ColorFromHex(strings.TrimPrefix(Set2[i%len(Set2)], "#"))
		s.Style = gochart.Style{StrokeColor: col, StrokeWidth: 2, DotColor: col, DotWidth: 4}
		series = append(series, *s)
	}
	var ticks []gochart.Tick
	for r := minR; r <= maxR; r++ {
		ticks = append(ticks, gochart.Tick{Value: float64(r), Label: fmt.Sprint(r)})
	}
	ch := gochart.Chart{
		Title:  Title(KindRoomsCity),
		Width:  width,
		Height: height,
		XAxis:  gochart.XAxis{Name: "Quantidade de Quartos", Ticks: bounded(ticks)},
		YAxis:  gochart.YAxis{Name: "Aluguel Médio (R$)", Range: &gochart.ContinuousRange{Min: 0, Max: headroom(hi)}},
		Series: series,
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	return ch.Render(rp, w)
}

func renderAnimals(counts []analysis.LabelCount, rp gochart.RendererProvider, w io.Writer) error {
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	if total == 0 {
		return ErrEmpty
	}
	vals := make([]gochart.Value, 0, len(counts))
	for i, c := range counts {
		col := drawing.ColorFromHex(strings.TrimPrefix(Pastel[i%len(Pastel)], "#"))
		vals = append(vals, gochart.Value{
			Label: fmt.Sprintf("%s %.1f%%", c.Label, 100*float64(c.Count)/float64(total)),
			Value: float64(c.Count),
			Style: gochart.Style{FillColor: col},
		})
	}
	pc := gochart.PieChart{Title: Title(KindAnimals), Width: height, Height: height, Values: vals}
	return pc.Render(rp, w)
}

// renderDistribution scatters each city's surviving rents in its own column.
func renderDistribution(dist analysis.Distribution, rp gochart.RendererProvider, w io.Writer) error {
	if len(dist.Cities) == 0 {
		return ErrEmpty
	}
	series := make([]gochart.Series, 0, len(dist.Cities))
	ticks := make([]gochart.Tick, len(dist.Cities))
	hi := 0.0
	for i, c := range dist.Cities {
		ticks[i] = gochart.Tick{Value: float64(i), Label: c.City}
		xs := make([]float64, len(c.Rents))
		for j := range xs {
			xs[j] = float64(i) + jitter(j)
		}
		col := drawing.ColorFromHex(strings.TrimPrefix(Set2[i%len(Set2)], "#"))
		series = append(series, gochart.ContinuousSeries{
			Name:    c.City,
			XValues: xs,
			YValues: append([]float64(nil), c.Rents...),
			Style:   gochart.Style{StrokeWidth: gochart.Disabled, DotWidth: 3, DotColor: col.WithAlpha(128)},
		})
		hi = math.Max(hi, c.Max)
	}
	ch := gochart.Chart{
		Title:  Title(KindDistribution),
		Width:  width,
		Height: height,
		XAxis:  gochart.XAxis{Ticks: bounded(ticks)},
		YAxis:  gochart.YAxis{Name: "Aluguel (R$)", Range: &gochart.ContinuousRange{Min: 0, Max: headroom(hi)}},
		Series: series,
	}
	return ch.Render(rp, w)
}

// bounded pads ascending category ticks with unlabeled ticks half a step
// outside them. go-chart takes the x range from the ticks, so a single
// category would otherwise give a zero-width axis.
func bounded(ticks []gochart.Tick) []gochart.Tick {
	if len(ticks) == 0 {
		return ticks
	}
	out := make([]gochart.Tick, 0, len(ticks)+2)
	out = append(out, gochart.Tick{Value: ticks[0].Value - 0.5})
	out = append(out, ticks...)
	return append(out, gochart.Tick{Value: ticks[len(ticks)-1].Value + 0.5})
}

// jitter spreads points deterministically within ±0.3 of the column.
func jitter(j int) float64 {
	return (float64(j%13)/12.0 - 0.5) * 0.6
}

func headroom(hi float64) float64 {
	if hi <= 0 {
		return 1
	}
	return hi * 1.1
}

func barWidth(n int) int {
	bw := (width - 100) / (n * 2)
	if bw > 80 {
		bw = 80
	}
	if bw < 4 {
		bw = 4
	}
	return bw
}

func ratio(v, lo, hi float64) float64 {
	if hi <= lo {
		return 1
	}
	return (v - lo) / (hi - lo)
}

// blend interpolates between two hex colors.
func blend(from, to string, t float64) drawing.Color {
	a := drawing.ColorFromHex(strings.TrimPrefix(from, "#"))
	b := drawing.ColorFromHex(strings.TrimPrefix(to, "#"))
	mix := func(x, y uint8) uint8 { return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t)) }
	return drawing.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}
