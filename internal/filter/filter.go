// Package filter selects listings matching user criteria.
package filter

import (
	"fmt"

	"github.com/KaramelBytes/rentdash/internal/dataset"
)

// Criteria is the conjunction of predicates applied to every listing.
// Membership sets that are empty match nothing. Bounds are inclusive.
type Criteria struct {
	Cities  []string `json:"cities" yaml:"cities"`
	AreaMin float64  `json:"area_min" yaml:"area_min"`
	// AreaMax is shown in the UI but is not enforced by Apply.
	AreaMax float64  `json:"area_max" yaml:"area_max"`
	RentMin float64  `json:"rent_min" yaml:"rent_min"`
	RentMax float64  `json:"rent_max" yaml:"rent_max"`
	Animals []string `json:"animals" yaml:"animals"`
	Rooms   []int    `json:"rooms" yaml:"rooms"`
}

// Defaults returns criteria spanning the dataset's own domain, so that
// Apply(ds.Listings, Defaults(ds)) keeps every listing.
func Defaults(ds *dataset.Dataset) Criteria {
	areaLo, areaHi := ds.AreaRange()
	rentLo, rentHi := ds.RentRange()
	return Criteria{
		Cities:  ds.Cities(),
		AreaMin: areaLo,
		AreaMax: areaHi,
		RentMin: rentLo,
		RentMax: rentHi,
		Animals: animalDomain(ds),
		Rooms:   ds.RoomCounts(),
	}
}

// animalDomain is the two normalized labels plus any pass-through codes present.
func animalDomain(ds *dataset.Dataset) []string {
	out := dataset.AnimalLabels()
	seen := map[string]bool{}
	for _, a := range out {
		seen[a] = true
	}
	for _, l := range ds.Listings {
		if !seen[l.Animal] {
			seen[l.Animal] = true
			out = append(out, l.Animal)
		}
	}
	return out
}

// Apply returns the listings satisfying every predicate in c, preserving order.
// The result never aliases the input slice.
func Apply(listings []dataset.Listing, c Criteria) []dataset.Listing {
	cities := toSet(c.Cities)
	animals := toSet(c.Animals)
	rooms := make(map[int]struct{}, len(c.Rooms))
	for _, r := range c.Rooms {
		rooms[r] = struct{}{}
	}
	out := make([]dataset.Listing, 0)
	for _, l := range listings {
		if _, ok := cities[l.City]; !ok {
			continue
		}
		if l.Area < c.AreaMin {
			continue
		}
		if l.Rent < c.RentMin || l.Rent > c.RentMax {
			continue
		}
		if _, ok := animals[l.Animal]; !ok {
			continue
		}
		if _, ok := rooms[l.Rooms]; !ok {
			continue
		}
		out = append(out, l)
	}
	return out
}

// Notes reports criteria that do not behave the way the form suggests.
func Notes(c Criteria, ds *dataset.Dataset) []string {
	var notes []string
	if _, hi := ds.AreaRange(); ds.Len() > 0 && c.AreaMax < hi {
		notes = append(notes, fmt.Sprintf("area upper bound %.0f m² is not applied; listings up to %.0f m² remain", c.AreaMax, hi))
	}
	if c.RentMin > c.RentMax {
		notes = append(notes, fmt.Sprintf("rent range is inverted (%.0f > %.0f); no listing can match", c.RentMin, c.RentMax))
	}
	return notes
}

func toSet(vals []string) map[string]struct{} {
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return m
}
