package chart

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/KaramelBytes/rentdash/internal/analysis"
	"github.com/KaramelBytes/rentdash/internal/dataset"
	"github.com/KaramelBytes/rentdash/internal/filter"
)

func fixture() *analysis.Dashboard {
	ds := &dataset.Dataset{Source: "fixture", Listings: []dataset.Listing{
		{City: "São Paulo", Area: 70, Rooms: 2, Animal: "Sim", Rent: 3300, Total: 5618},
		{City: "São Paulo", Area: 320, Rooms: 4, Animal: "Sim", Rent: 4960, Total: 7973},
		{City: "Porto Alegre", Area: 80, Rooms: 1, Animal: "Sim", Rent: 2800, Total: 3841},
		{City: "Porto Alegre", Area: 51, Rooms: 2, Animal: "Sim", Rent: 1112, Total: 1421},
		{City: "Campinas", Area: 25, Rooms: 1, Animal: "Não", Rent: 800, Total: 836},
	}}
	return analysis.Build(ds, filter.Defaults(ds))
}

func TestOptions_AllKinds(t *testing.T) {
	opts := Options(fixture())
	if len(opts) != len(Kinds) {
		t.Fatalf("want %d options, got %d", len(Kinds), len(opts))
	}
	for _, k := range Kinds {
		o, ok := opts[k]
		if !ok {
			t.Fatalf("missing %s", k)
		}
		title := o["title"].(map[string]any)["text"]
		if title != Title(k) || title == "" {
			t.Fatalf("%s: title %v", k, title)
		}
	}
	x := opts[KindCities]["xAxis"].(map[string]any)["data"].([]string)
	if strings.Join(x, ",") != "Porto Alegre,São Paulo,Campinas" {
		t.Fatalf("cities axis order: %v", x)
	}
}

func TestOptions_RoomsCityLeavesGaps(t *testing.T) {
	o := Options(fixture())[KindRoomsCity]
	rooms := o["xAxis"].(map[string]any)["data"].([]int)
	if len(rooms) != 3 || rooms[0] != 1 || rooms[2] != 4 {
		t.Fatalf("rooms axis: %v", rooms)
	}
	series := o["series"].([]any)
	campinas := series[0].(map[string]any)
	if campinas["name"] != "Campinas" {
		t.Fatalf("series order: %v", campinas["name"])
	}
	data := campinas["data"].([]any)
	if data[0] != 800.0 || data[1] != nil || data[2] != nil {
		t.Fatalf("campinas data: %v", data)
	}
}

func TestOptions_AreaUsesDisplayLabels(t *testing.T) {
	o := Options(fixture())[KindArea]
	data := o["series"].([]any)[0].(map[string]any)["data"].([]any)
	first := data[0].(map[string]any)
	label := first["label"].(map[string]any)["formatter"]
	if label != "25,00" {
		t.Fatalf("label = %v", label)
	}
}

func TestOptions_Empty(t *testing.T) {
	d := &analysis.Dashboard{}
	if got := Options(d); len(got) != 0 {
		t.Fatalf("empty dashboard should have no options, got %d", len(got))
	}
	if got := Options(nil); len(got) != 0 {
		t.Fatalf("nil dashboard should have no options")
	}
}

func TestRender_SVG(t *testing.T) {
	d := fixture()
	for _, k := range Kinds {
		var buf bytes.Buffer
		if err := Render(k, d, FormatSVG, &buf); err != nil {
			t.Fatalf("%s: %v", k, err)
		}
		if !strings.Contains(buf.String(), "<svg") {
			t.Fatalf("%s: output is not svg", k)
		}
	}
}

func TestRender_PNG(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(KindCities, fixture(), FormatPNG, &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Fatalf("output is not png")
	}
}

func dashboardOf(ls ...dataset.Listing) *analysis.Dashboard {
	ds := &dataset.Dataset{Source: "fixture", Listings: ls}
	return analysis.Build(ds, filter.Defaults(ds))
}

func renderAll(t *testing.T, d *analysis.Dashboard) {
	t.Helper()
	for _, f := range []Format{FormatSVG, FormatPNG} {
		for _, k := range Kinds {
			var buf bytes.Buffer
			if err := Render(k, d, f, &buf); err != nil {
				t.Fatalf("%s %s: %v", k, f, err)
			}
			if buf.Len() == 0 {
				t.Fatalf("%s %s: nothing written", k, f)
			}
		}
	}
}

func TestRender_SingleCity(t *testing.T) {
	renderAll(t, dashboardOf(
		dataset.Listing{City: "São Paulo", Area: 70, Rooms: 2, Animal: "Sim", Rent: 3300, Total: 5618},
		dataset.Listing{City: "São Paulo", Area: 320, Rooms: 4, Animal: "Não", Rent: 4960, Total: 7973},
		dataset.Listing{City: "São Paulo", Area: 90, Rooms: 3, Animal: "Sim", Rent: 3000, Total: 4200},
	))
}

func TestRender_SingleRoomCount(t *testing.T) {
	renderAll(t, dashboardOf(
		dataset.Listing{City: "São Paulo", Area: 70, Rooms: 2, Animal: "Sim", Rent: 3300, Total: 5618},
		dataset.Listing{City: "Porto Alegre", Area: 51, Rooms: 2, Animal: "Sim", Rent: 1112, Total: 1421},
		dataset.Listing{City: "Campinas", Area: 60, Rooms: 2, Animal: "Não", Rent: 900, Total: 1100},
	))
}

func TestRender_SingleListing(t *testing.T) {
	renderAll(t, dashboardOf(
		dataset.Listing{City: "Campinas", Area: 25, Rooms: 1, Animal: "Não", Rent: 800, Total: 836},
	))
}

func TestBounded(t *testing.T) {
	got := bounded([]gochart.Tick{{Value: 2, Label: "2"}})
	if len(got) != 3 || got[0].Value != 1.5 || got[2].Value != 2.5 || got[0].Label != "" || got[1].Label != "2" {
		t.Fatalf("bounded = %+v", got)
	}
	if len(bounded(nil)) != 0 {
		t.Fatalf("no ticks should stay empty")
	}
}

func TestRender_Empty(t *testing.T) {
	var buf bytes.Buffer
	err := Render(KindCities, &analysis.Dashboard{}, FormatSVG, &buf)
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("want ErrEmpty, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("nothing should be written")
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"": FormatSVG, "svg": FormatSVG, "PNG": FormatPNG, " png ": FormatPNG}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("jpeg"); err == nil {
		t.Fatalf("jpeg should be rejected")
	}
}

func TestBlendEndpoints(t *testing.T) {
	lo := blend(colorLow, colorHigh, 0)
	hi := blend(colorLow, colorHigh, 1)
	if lo.R != 0x87 || lo.G != 0xCE || lo.B != 0xEB {
		t.Fatalf("low = %+v", lo)
	}
	if hi.R != 0x6A || hi.G != 0x5A || hi.B != 0xCD {
		t.Fatalf("high = %+v", hi)
	}
}
