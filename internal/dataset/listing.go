package dataset

import (
	"math"
	"sort"
	"time"
)

// Animal labels after normalization.
const (
	AnimalAllowed    = "Sim"
	AnimalNotAllowed = "Não"
)

// animalCodes maps raw dataset codes to display labels. Unknown values pass through.
var animalCodes = map[string]string{
	"acept":     AnimalAllowed,
	"not acept": AnimalNotAllowed,
}

// NormalizeAnimal maps the raw animal code to its Portuguese label.
func NormalizeAnimal(raw string) string {
	if v, ok := animalCodes[raw]; ok {
		return v
	}
	return raw
}

// AnimalLabels returns the labels offered by the animal filter, in display order.
func AnimalLabels() []string { return []string{AnimalAllowed, AnimalNotAllowed} }

// Listing is one rental offer.
type Listing struct {
	City   string  `json:"city"`
	Area   float64 `json:"area"`
	Rooms  int     `json:"rooms"`
	Animal string  `json:"animal"`
	Rent   float64 `json:"rent"`
	Total  float64 `json:"total"`
}

// Dataset is an immutable snapshot of the loaded listings.
type Dataset struct {
	Listings []Listing `json:"listings"`
	Source   string    `json:"source"`
	Read     int       `json:"read"`
	Dropped  int       `json:"dropped"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Len returns the number of usable listings.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Listings)
}

// Cities returns the sorted unique city names.
func (d *Dataset) Cities() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, l := range d.Listings {
		if _, ok := seen[l.City]; ok {
			continue
		}
		seen[l.City] = struct{}{}
		out = append(out, l.City)
	}
	sort.Strings(out)
	return out
}

// RoomCounts returns the sorted unique room counts.
func (d *Dataset) RoomCounts() []int {
	seen := map[int]struct{}{}
	var out []int
	for _, l := range d.Listings {
		if _, ok := seen[l.Rooms]; ok {
			continue
		}
		seen[l.Rooms] = struct{}{}
		out = append(out, l.Rooms)
	}
	sort.Ints(out)
	return out
}

// AreaRange returns the area domain rounded outward to whole square meters.
func (d *Dataset) AreaRange() (lo, hi float64) {
	return outerRange(d.Listings, func(l Listing) float64 { return l.Area })
}

// RentRange returns the rent domain rounded outward to whole reais.
func (d *Dataset) RentRange() (lo, hi float64) {
	return outerRange(d.Listings, func(l Listing) float64 { return l.Rent })
}

func outerRange(ls []Listing, pick func(Listing) float64) (lo, hi float64) {
	if len(ls) == 0 {
		return 0, 0
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, l := range ls {
		v := pick(l)
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return math.Floor(lo), math.Ceil(hi)
}
