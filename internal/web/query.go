package web

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/KaramelBytes/rentdash/internal/filter"
)

// Query parameter names shared by the form and the JSON API.
const (
	ParamCity     = "city"
	ParamAreaMin  = "area_min"
	ParamAreaMax  = "area_max"
	ParamRentMin  = "rent_min"
	ParamRentMax  = "rent_max"
	ParamAnimal   = "animal"
	ParamRooms    = "rooms"
	ParamView     = "view"
	ParamFiltered = "filtered"
)

// QueryError reports a query parameter that could not be parsed.
type QueryError struct {
	Param string
	Value string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("invalid %s=%q: %v", e.Param, e.Value, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// ParseCriteria overlays the query on base. Absent parameters keep the base
// value, except that a submitted form (filtered=1) with no value selected
// for a set means the set is empty. domain holds the dataset's full filter
// domain and decides whether a comma inside a city or animal is a separator.
func ParseCriteria(q url.Values, base, domain filter.Criteria) (filter.Criteria, error) {
	c := base
	submitted := q.Get(ParamFiltered) == "1"

	if vals, ok := q[ParamCity]; ok || submitted {
		c.Cities = splitValues(vals, domain.Cities)
	}
	if vals, ok := q[ParamAnimal]; ok || submitted {
		c.Animals = splitValues(vals, domain.Animals)
	}
	if vals, ok := q[ParamRooms]; ok || submitted {
		rooms := make([]int, 0, len(vals))
		for _, v := range nonEmpty(vals) {
			n, err := strconv.Atoi(v)
			if err != nil {
				return c, &QueryError{Param: ParamRooms, Value: v, Err: err}
			}
			rooms = append(rooms, n)
		}
		c.Rooms = rooms
	}

	bounds := []struct {
		name string
		dst  *float64
	}{
		{ParamAreaMin, &c.AreaMin},
		{ParamAreaMax, &c.AreaMax},
		{ParamRentMin, &c.RentMin},
		{ParamRentMax, &c.RentMax},
	}
	for _, b := range bounds {
		v := strings.TrimSpace(q.Get(b.name))
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err == nil && (math.IsNaN(f) || math.IsInf(f, 0)) {
			err = fmt.Errorf("not a finite number")
		}
		if err != nil {
			return c, &QueryError{Param: b.name, Value: v, Err: err}
		}
		*b.dst = f
	}
	return c, nil
}

// nonEmpty trims values and drops blanks. Comma-separated values are split
// so that ?rooms=1,2 works from the address bar.
func nonEmpty(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// splitValues is nonEmpty for text sets. A single value is split on commas
// only when it is not itself a member of domain, so names such as
// "Paraty, RJ" survive a round trip through EncodeCriteria.
func splitValues(vals, domain []string) []string {
	if len(vals) == 1 && !contains(domain, strings.TrimSpace(vals[0])) {
		return nonEmpty(vals)
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if p := strings.TrimSpace(v); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// EncodeCriteria is the inverse of ParseCriteria, used for links to a
// filtered page.
func EncodeCriteria(c filter.Criteria) url.Values {
	q := url.Values{}
	q.Set(ParamFiltered, "1")
	for _, city := range c.Cities {
		q.Add(ParamCity, city)
	}
	for _, a := range c.Animals {
		q.Add(ParamAnimal, a)
	}
	for _, r := range c.Rooms {
		q.Add(ParamRooms, strconv.Itoa(r))
	}
	q.Set(ParamAreaMin, strconv.FormatFloat(c.AreaMin, 'f', -1, 64))
	q.Set(ParamAreaMax, strconv.FormatFloat(c.AreaMax, 'f', -1, 64))
	q.Set(ParamRentMin, strconv.FormatFloat(c.RentMin, 'f', -1, 64))
	q.Set(ParamRentMax, strconv.FormatFloat(c.RentMax, 'f', -1, 64))
	return q
}
