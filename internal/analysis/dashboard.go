package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/KaramelBytes/rentdash/internal/dataset"
	"github.com/KaramelBytes/rentdash/internal/filter"
)

// EmptyMessage is shown in place of the charts when no listing matches.
const EmptyMessage = "Nenhum dado disponível com os filtros aplicados."

// Dashboard is one evaluation of the filter and the six aggregates.
type Dashboard struct {
	Source      string          `json:"source"`
	GeneratedAt time.Time       `json:"generated_at"`
	Criteria    filter.Criteria `json:"criteria"`
	Total       int             `json:"total"`
	Matched     int             `json:"matched"`

	CityCounts       []CityCount     `json:"city_counts"`
	RentByRoomsCity  []RoomsCityMean `json:"rent_by_rooms_city"`
	AreaByCity       []CityMean      `json:"area_by_city"`
	RentByCity       []CityMean      `json:"rent_by_city"`
	AnimalProportion []LabelCount    `json:"animal_proportion"`
	RentDistribution Distribution    `json:"rent_distribution"`

	Notes []string `json:"notes,omitempty"`
}

// Empty reports whether the filter matched nothing.
func (d *Dashboard) Empty() bool { return d.Matched == 0 }

// Build filters ds with c and computes every aggregate.
func Build(ds *dataset.Dataset, c filter.Criteria) *Dashboard {
	rows := filter.Apply(ds.Listings, c)
	d := &Dashboard{
		Source:      ds.Source,
		GeneratedAt: time.Now().UTC(),
		Criteria:    c,
		Total:       ds.Len(),
		Matched:     len(rows),

		CityCounts:       CountByCity(rows),
		RentByRoomsCity:  MeanRentByRoomsCity(rows),
		AreaByCity:       MeanAreaByCity(rows),
		RentByCity:       MeanRentByCity(rows),
		AnimalProportion: AnimalProportion(rows),
		RentDistribution: RentDistribution(rows),
	}
	d.Notes = filter.Notes(c, ds)
	if ds.Dropped > 0 {
		d.Notes = append(d.Notes, fmt.Sprintf("%d of %d rows were dropped during load (non-numeric area, rooms, rent or total)", ds.Dropped, ds.Read))
	}
	return d
}

// Markdown renders a compact plain-text report of the dashboard.
func (d *Dashboard) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if d.Source != "" {
		b.WriteString(fmt.Sprintf("Source: %s\n", d.Source))
	}
	b.WriteString(fmt.Sprintf("Listings: %d (matched %d)\n\n", d.Total, d.Matched))

	c := d.Criteria
	b.WriteString("[FILTERS]\n")
	b.WriteString(fmt.Sprintf("- cities: %s\n", joinOrNone(c.Cities)))
	b.WriteString(fmt.Sprintf("- area: >= %s m²\n", FormatBRNumber(c.AreaMin)))
	b.WriteString(fmt.Sprintf("- rent: %s to %s\n", FormatBRL(c.RentMin), FormatBRL(c.RentMax)))
	b.WriteString(fmt.Sprintf("- animals: %s\n", joinOrNone(c.Animals)))
	rooms := make([]string, len(c.Rooms))
	for i, r := range c.Rooms {
		rooms[i] = fmt.Sprint(r)
	}
	b.WriteString(fmt.Sprintf("- rooms: %s\n", joinOrNone(rooms)))

	if d.Empty() {
		b.WriteString("\n")
		b.WriteString(EmptyMessage)
		b.WriteString("\n")
		d.writeNotes(&b)
		return b.String()
	}

	b.WriteString("\n[LISTINGS BY CITY]\n")
	for _, cc := range d.CityCounts {
		b.WriteString(fmt.Sprintf("- %s: %d\n", safeName(cc.City), cc.Count))
	}
	b.WriteString("\n[MEAN RENT BY ROOMS AND CITY]\n")
	for _, m := range d.RentByRoomsCity {
		b.WriteString(fmt.Sprintf("- %d rooms, %s: %s (n=%d)\n", m.Rooms, safeName(m.City), FormatBRL(m.MeanRent), m.Count))
	}
	b.WriteString("\n[MEAN AREA BY CITY]\n")
	for _, m := range d.AreaByCity {
		b.WriteString(fmt.Sprintf("- %s: %s m²\n", safeName(m.City), m.Display))
	}
	b.WriteString("\n[MEAN RENT BY CITY]\n")
	for _, m := range d.RentByCity {
		b.WriteString(fmt.Sprintf("- %s: %s\n", safeName(m.City), m.Display))
	}
	b.WriteString("\n[PETS ALLOWED]\n")
	for _, a := range d.AnimalProportion {
		pct := float64(a.Count) * 100 / float64(d.Matched)
		b.WriteString(fmt.Sprintf("- %s: %d (%.1f%%)\n", safeName(a.Label), a.Count, pct))
	}
	dist := d.RentDistribution
	b.WriteString("\n[RENT DISTRIBUTION]\n")
	b.WriteString(fmt.Sprintf("Outlier fences on total: %s to %s (kept %d, removed %d)\n",
		FormatBRL(dist.Fences.Lower), FormatBRL(dist.Fences.Upper), dist.Kept, dist.Removed))
	b.WriteString("| city | n | min | q1 | median | q3 | max |\n")
	b.WriteString("| --- | --- | --- | --- | --- | --- | --- |\n")
	for _, cd := range dist.Cities {
		b.WriteString(fmt.Sprintf("| %s | %d | %s | %s | %s | %s | %s |\n", safeVal(cd.City), len(cd.Rents),
			FormatBRNumber(cd.Min), FormatBRNumber(cd.Q1), FormatBRNumber(cd.Median), FormatBRNumber(cd.Q3), FormatBRNumber(cd.Max)))
	}
	d.writeNotes(&b)
	return b.String()
}

func (d *Dashboard) writeNotes(b *strings.Builder) {
	if len(d.Notes) == 0 {
		return
	}
	b.WriteString("\n[NOTES]\n")
	for _, n := range d.Notes {
		b.WriteString("- ")
		b.WriteString(n)
		b.WriteString("\n")
	}
}

func joinOrNone(vals []string) string {
	if len(vals) == 0 {
		return "(none)"
	}
	return strings.Join(vals, ", ")
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
