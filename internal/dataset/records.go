package dataset

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

var (
	// ErrMissingColumn is returned when the header lacks one of the required columns.
	ErrMissingColumn = errors.New("missing required column")
	// ErrUnsupportedFormat is returned for file types no registered format can read.
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
)

// Required column names, matched case-insensitively after unit suffixes are stripped.
const (
	ColCity   = "city"
	ColArea   = "area"
	ColRooms  = "rooms"
	ColAnimal = "animal"
	ColRent   = "rent amount"
	ColTotal  = "total"
)

type columnIndex struct {
	city, area, rooms, animal, rent, total int
}

func resolveColumns(header []string) (columnIndex, error) {
	pos := map[string]int{}
	for i, h := range header {
		clean, _ := splitUnits(strings.TrimPrefix(h, "\ufeff"))
		key := strings.ToLower(clean)
		if _, dup := pos[key]; !dup {
			pos[key] = i
		}
	}
	var idx columnIndex
	var missing []string
	for _, c := range []struct {
		name string
		dst  *int
	}{
		{ColCity, &idx.city},
		{ColArea, &idx.area},
		{ColRooms, &idx.rooms},
		{ColAnimal, &idx.animal},
		{ColRent, &idx.rent},
		{ColTotal, &idx.total},
	} {
		i, ok := pos[c.name]
		if !ok {
			missing = append(missing, c.name)
			continue
		}
		*c.dst = i
	}
	if len(missing) > 0 {
		return idx, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}

// FromRecords builds a Dataset from raw rows whose first row is the header.
// Rows whose area, rooms, rent or total cannot be coerced to numbers are dropped.
func FromRecords(source string, records [][]string) (*Dataset, error) {
	ds := &Dataset{Source: source, LoadedAt: time.Now().UTC()}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty header", ErrMissingColumn)
	}
	idx, err := resolveColumns(records[0])
	if err != nil {
		return nil, err
	}
	ds.Listings = make([]Listing, 0, len(records)-1)
	for n, row := range records[1:] {
		if isBlank(row) {
			continue
		}
		ds.Read++
		l, ok := parseRow(row, idx)
		if !ok {
			ds.Dropped++
			slog.Debug("dropping row", "source", source, "line", n+2)
			continue
		}
		ds.Listings = append(ds.Listings, l)
	}
	return ds, nil
}

func parseRow(row []string, idx columnIndex) (Listing, bool) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	var l Listing
	var ok bool
	if l.Area, ok = parseNumeric(cell(idx.area)); !ok {
		return l, false
	}
	if l.Rooms, ok = parseCount(cell(idx.rooms)); !ok {
		return l, false
	}
	if l.Rent, ok = parseNumeric(cell(idx.rent)); !ok {
		return l, false
	}
	if l.Total, ok = parseNumeric(cell(idx.total)); !ok {
		return l, false
	}
	l.City = cell(idx.city)
	l.Animal = NormalizeAnimal(cell(idx.animal))
	return l, true
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
