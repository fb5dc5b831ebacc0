package analysis

import (
	"sort"

	"github.com/KaramelBytes/rentdash/internal/dataset"
)

// CityCount is the number of listings in a city.
type CityCount struct {
	City  string `json:"city"`
	Count int    `json:"count"`
}

// RoomsCityMean is the mean rent of one (rooms, city) group.
type RoomsCityMean struct {
	Rooms    int     `json:"rooms"`
	City     string  `json:"city"`
	MeanRent float64 `json:"mean_rent"`
	Count    int     `json:"count"`
}

// CityMean is a per-city mean with its display label.
type CityMean struct {
	City    string  `json:"city"`
	Mean    float64 `json:"mean"`
	Display string  `json:"display"`
}

// LabelCount counts listings sharing an animal label.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// CityDistribution holds the rents of one city plus a five-number summary.
type CityDistribution struct {
	City   string    `json:"city"`
	Rents  []float64 `json:"rents"`
	Min    float64   `json:"min"`
	Q1     float64   `json:"q1"`
	Median float64   `json:"median"`
	Q3     float64   `json:"q3"`
	Max    float64   `json:"max"`
}

// Distribution is the rent distribution after trimming outliers on total.
type Distribution struct {
	Fences  Fences             `json:"fences"`
	Kept    int                `json:"kept"`
	Removed int                `json:"removed"`
	Cities  []CityDistribution `json:"cities"`
}

// CountByCity counts listings per city, largest first, ties by city name.
func CountByCity(ls []dataset.Listing) []CityCount {
	counts := map[string]int{}
	for _, l := range ls {
		counts[l.City]++
	}
	out := make([]CityCount, 0, len(counts))
	for c, n := range counts {
		out = append(out, CityCount{City: c, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].City < out[j].City
		}
		return out[i].Count > out[j].Count
	})
	return out
}

// MeanRentByRoomsCity averages rent per (rooms, city), ordered by rooms then city.
func MeanRentByRoomsCity(ls []dataset.Listing) []RoomsCityMean {
	type key struct {
		rooms int
		city  string
	}
	type acc struct {
		mean float64
		n    int
	}
	groups := map[key]*acc{}
	for _, l := range ls {
		k := key{l.Rooms, l.City}
		a, ok := groups[k]
		if !ok {
			a = &acc{}
			groups[k] = a
		}
		a.n++
		a.mean += (l.Rent - a.mean) / float64(a.n)
	}
	out := make([]RoomsCityMean, 0, len(groups))
	for k, a := range groups {
		out = append(out, RoomsCityMean{Rooms: k.rooms, City: k.city, MeanRent: a.mean, Count: a.n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rooms == out[j].Rooms {
			return out[i].City < out[j].City
		}
		return out[i].Rooms < out[j].Rooms
	})
	return out
}

// MeanAreaByCity averages area per city; Display uses 1.234,56 notation.
func MeanAreaByCity(ls []dataset.Listing) []CityMean {
	return meanByCity(ls, ColumnArea, FormatBRNumber)
}

// MeanRentByCity averages rent per city; Display uses R$ 1.234,56 notation.
func MeanRentByCity(ls []dataset.Listing) []CityMean {
	return meanByCity(ls, ColumnRent, FormatBRL)
}

func meanByCity(ls []dataset.Listing, col Column, display func(float64) string) []CityMean {
	vals := groupByCity(ls, col)
	out := make([]CityMean, 0, len(vals))
	for _, city := range sortedKeys(vals) {
		m, _ := Mean(vals[city])
		out = append(out, CityMean{City: city, Mean: m, Display: display(m)})
	}
	return out
}

// AnimalProportion counts listings per animal label, largest first.
func AnimalProportion(ls []dataset.Listing) []LabelCount {
	counts := map[string]int{}
	for _, l := range ls {
		counts[l.Animal]++
	}
	out := make([]LabelCount, 0, len(counts))
	for label, n := range counts {
		out = append(out, LabelCount{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Label < out[j].Label
		}
		return out[i].Count > out[j].Count
	})
	return out
}

// RentDistribution trims outliers on the total column, then groups the
// surviving rents by city.
func RentDistribution(ls []dataset.Listing) Distribution {
	var d Distribution
	d.Fences, _ = TukeyFences(ls, ColumnTotal)
	kept := RemoveOutliers(ls, ColumnTotal)
	d.Kept = len(kept)
	d.Removed = len(ls) - len(kept)
	byCity := groupByCity(kept, ColumnRent)
	d.Cities = make([]CityDistribution, 0, len(byCity))
	for _, city := range sortedKeys(byCity) {
		rents := byCity[city]
		sorted := append([]float64(nil), rents...)
		sort.Float64s(sorted)
		d.Cities = append(d.Cities, CityDistribution{
			City:   city,
			Rents:  rents,
			Min:    sorted[0],
			Q1:     quantile(sorted, 0.25),
			Median: quantile(sorted, 0.5),
			Q3:     quantile(sorted, 0.75),
			Max:    sorted[len(sorted)-1],
		})
	}
	return d
}

func groupByCity(ls []dataset.Listing, col Column) map[string][]float64 {
	out := map[string][]float64{}
	for _, l := range ls {
		out[l.City] = append(out[l.City], col.value(l))
	}
	return out
}

func sortedKeys(m map[string][]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
