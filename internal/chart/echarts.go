// Package chart turns dashboard aggregates into chart definitions: echarts
// option objects for the live page and go-chart renderings for export.
package chart

import (
	"sort"

	"github.com/KaramelBytes/rentdash/internal/analysis"
)

// Kind identifies one of the six dashboard charts.
type Kind string

const (
	KindCities       Kind = "cities"
	KindRoomsCity    Kind = "rooms_city"
	KindArea         Kind = "area"
	KindRent         Kind = "rent"
	KindAnimals      Kind = "animals"
	KindDistribution Kind = "distribution"
)

// Kinds lists the charts in page order.
var Kinds = []Kind{KindCities, KindRoomsCity, KindArea, KindRent, KindAnimals, KindDistribution}

var titles = map[Kind]string{
	KindCities:       "Quantidade de Casas por Cidade",
	KindRoomsCity:    "Preço Médio de Aluguel por Quantidade de Quartos e Cidade",
	KindArea:         "Média de Área por Cidade",
	KindRent:         "Média de Aluguel por Cidade",
	KindAnimals:      "Proporção de Casas que Aceitam Animais",
	KindDistribution: "Distribuição de Aluguel com Box e Pontos",
}

// Title returns the Portuguese chart title.
func Title(k Kind) string { return titles[k] }

// Option is an echarts option object, serialized as JSON for the page.
type Option map[string]any

const (
	colorLow  = "#87CEEB"
	colorHigh = "#6A5ACD"
	paperBg   = "rgba(245, 245, 245, 1)"
)

// Set2 mirrors the qualitative palette used for per-city series.
var Set2 = []string{"#66c2a5", "#fc8d62", "#8da0cb", "#e78ac3", "#a6d854", "#ffd92f", "#e5c494", "#b3b3b3"}

// Pastel is used for the animal pie.
var Pastel = []string{"#66C5CC", "#F6CF71", "#F89C74", "#DCB0F2", "#87C55F"}

// Options builds the echarts options for every chart. It returns an empty
// map when the dashboard matched nothing.
func Options(d *analysis.Dashboard) map[Kind]Option {
	out := map[Kind]Option{}
	if d == nil || d.Empty() {
		return out
	}
	out[KindCities] = citiesOption(d.CityCounts)
	out[KindRoomsCity] = roomsCityOption(d.RentByRoomsCity)
	out[KindArea] = areaOption(d.AreaByCity)
	out[KindRent] = rentOption(d.RentByCity)
	out[KindAnimals] = animalsOption(d.AnimalProportion)
	out[KindDistribution] = distributionOption(d.RentDistribution)
	return out
}

func base(k Kind) Option {
	return Option{
		"title":           map[string]any{"text": Title(k), "textStyle": map[string]any{"fontSize": 18, "color": "#333333"}},
		"backgroundColor": paperBg,
		"tooltip":         map[string]any{"trigger": "axis"},
		"grid":            map[string]any{"left": "3%", "right": "4%", "bottom": "3%", "top": 60, "containLabel": true},
	}
}

// visualMap colors values linearly from colorLow to colorHigh over [min, max].
func visualMap(min, max float64, dim int) map[string]any {
	if max <= min {
		max = min + 1
	}
	return map[string]any{
		"show":      false,
		"min":       min,
		"max":       max,
		"dimension": dim,
		"inRange":   map[string]any{"color": []string{colorLow, colorHigh}},
	}
}

func citiesOption(counts []analysis.CityCount) Option {
	o := base(KindCities)
	cities := make([]string, len(counts))
	vals := make([]int, len(counts))
	lo, hi := 0.0, 0.0
	for i, c := range counts {
		cities[i], vals[i] = c.City, c.Count
		if i == 0 || float64(c.Count) < lo {
			lo = float64(c.Count)
		}
		if float64(c.Count) > hi {
			hi = float64(c.Count)
		}
	}
	o["xAxis"] = map[string]any{"type": "category", "name": "Cidade", "data": cities}
	o["yAxis"] = map[string]any{"type": "value", "name": "Quantidade de Casas", "axisLabel": map[string]any{"show": false}}
	o["visualMap"] = visualMap(lo, hi, 1)
	o["series"] = []any{map[string]any{
		"type":  "bar",
		"data":  vals,
		"label": map[string]any{"show": true, "position": "top"},
	}}
	return o
}

func roomsCityOption(means []analysis.RoomsCityMean) Option {
	o := base(KindRoomsCity)
	roomSet := map[int]bool{}
	citySet := map[string]bool{}
	type key struct {
		rooms int
		city  string
	}
	lookup := map[key]float64{}
	for _, m := range means {
		roomSet[m.Rooms] = true
		citySet[m.City] = true
		lookup[key{m.Rooms, m.City}] = m.MeanRent
	}
	rooms := make([]int, 0, len(roomSet))
	for r := range roomSet {
		rooms = append(rooms, r)
	}
	sort.Ints(rooms)
	cities := make([]string, 0, len(citySet))
	for c := range citySet {
		cities = append(cities, c)
	}
	sort.Strings(cities)

	series := make([]any, 0, len(cities))
	for i, c := range cities {
		data := make([]any, len(rooms))
		for j, r := range rooms {
			if v, ok := lookup[key{r, c}]; ok {
				data[j] = v
			}
		}
		series = append(series, map[string]any{
			"type":      "bar",
			"name":      c,
			"data":      data,
			"itemStyle": map[string]any{"color": Set2[i%len(Set2)]},
		})
	}
	o["legend"] = map[string]any{"data": cities, "top": 30}
	o["xAxis"] = map[string]any{"type": "category", "name": "Quantidade de Quartos", "data": rooms}
	o["yAxis"] = map[string]any{"type": "value", "name": "Aluguel Médio (R$)"}
	o["series"] = series
	return o
}

func areaOption(means []analysis.CityMean) Option {
	o := base(KindArea)
	cities := make([]string, len(means))
	data := make([]any, len(means))
	lo, hi := 0.0, 0.0
	for i, m := range means {
		cities[i] = m.City
		data[i] = map[string]any{"value": m.Mean, "label": map[string]any{"formatter": m.Display}}
		if i == 0 || m.Mean < lo {
			lo = m.Mean
		}
		if m.Mean > hi {
			hi = m.Mean
		}
	}
	o["xAxis"] = map[string]any{"type": "value", "name": "Área Média (m²)"}
	o["yAxis"] = map[string]any{"type": "category", "name": "Cidade", "data": cities}
	o["visualMap"] = visualMap(lo, hi, 0)
	o["series"] = []any{map[string]any{
		"type":  "bar",
		"data":  data,
		"label": map[string]any{"show": true, "position": "right"},
	}}
	return o
}

func rentOption(means []analysis.CityMean) Option {
	o := base(KindRent)
	cities := make([]string, len(means))
	data := make([]any, len(means))
	for i, m := range means {
		cities[i] = m.City
		data[i] = map[string]any{"value": m.Mean, "label": map[string]any{"formatter": m.Display}}
	}
	o["xAxis"] = map[string]any{"type": "category", "data": cities}
	o["yAxis"] = map[string]any{"type": "value", "name": "Aluguel Médio (R$)"}
	o["series"] = []any{map[string]any{
		"type":       "line",
		"data":       data,
		"symbolSize": 10,
		"lineStyle":  map[string]any{"width": 3},
		"itemStyle":  map[string]any{"color": "red"},
		"label":      map[string]any{"show": true, "position": "top"},
	}}
	return o
}

func animalsOption(counts []analysis.LabelCount) Option {
	o := base(KindAnimals)
	o["tooltip"] = map[string]any{"trigger": "item", "formatter": "{b}: {c} ({d}%)"}
	data := make([]any, len(counts))
	names := make([]string, len(counts))
	for i, c := range counts {
		names[i] = c.Label
		data[i] = map[string]any{"name": c.Label, "value": c.Count, "itemStyle": map[string]any{"color": Pastel[i%len(Pastel)]}}
	}
	o["legend"] = map[string]any{"data": names, "bottom": 0, "name": "Aceita Animais?"}
	o["series"] = []any{map[string]any{
		"type":   "pie",
		"radius": "60%",
		"data":   data,
		"label":  map[string]any{"formatter": "{b}: {d}%"},
	}}
	return o
}

// distributionOption draws a box per city with every surviving rent as a point.
func distributionOption(dist analysis.Distribution) Option {
	o := base(KindDistribution)
	o["tooltip"] = map[string]any{"trigger": "item"}
	cities := make([]string, len(dist.Cities))
	boxes := make([]any, len(dist.Cities))
	series := []any{}
	for i, c := range dist.Cities {
		cities[i] = c.City
		boxes[i] = []float64{c.Min, c.Q1, c.Median, c.Q3, c.Max}
		points := make([]any, len(c.Rents))
		for j, r := range c.Rents {
			points[j] = []any{c.City, r}
		}
		series = append(series, map[string]any{
			"type":       "scatter",
			"name":       c.City,
			"data":       points,
			"symbolSize": 5,
			"itemStyle":  map[string]any{"color": Set2[i%len(Set2)], "opacity": 0.5},
		})
	}
	series = append([]any{map[string]any{
		"type":      "boxplot",
		"name":      "box",
		"data":      boxes,
		"itemStyle": map[string]any{"color": "rgba(0,0,0,0)", "borderColor": "#555"},
	}}, series...)
	o["legend"] = map[string]any{"data": cities, "top": 30}
	o["xAxis"] = map[string]any{"type": "category", "data": cities}
	o["yAxis"] = map[string]any{"type": "value", "name": "Aluguel (R$)"}
	o["series"] = series
	return o
}
