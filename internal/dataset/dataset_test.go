package dataset

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const rentHeader = "city,area,rooms,bathroom,parking spaces,floor,animal,furniture,hoa (R$),rent amount (R$),property tax (R$),fire insurance (R$),total (R$)"

var rentRows = []string{
	"São Paulo,70,2,1,1,7,acept,furnished,2065,3300,211,42,5618",
	"São Paulo,320,4,4,0,20,acept,not furnished,1200,4960,1750,63,7973",
	"Porto Alegre,80,1,1,1,6,acept,not furnished,1000,2800,0,41,3841",
	"Porto Alegre,51,2,1,0,2,not acept,not furnished,270,1112,22,17,1421",
	"Rio de Janeiro,abc,1,1,0,1,acept,furnished,0,800,25,11,836",
	"Rio de Janeiro,,2,1,0,1,acept,furnished,0,900,25,11,936",
	"Campinas,25,1,1,0,1,not acept,not furnished,0,750,0,10,760",
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestFileLoader_CSVNormalizesAndDrops(t *testing.T) {
	p := writeFile(t, t.TempDir(), "houses.csv", rentHeader+"\n"+strings.Join(rentRows, "\n")+"\n")
	ds, err := FileLoader{Path: p}.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ds.Read != 7 || ds.Dropped != 2 || ds.Len() != 5 {
		t.Fatalf("read=%d dropped=%d len=%d, want 7/2/5", ds.Read, ds.Dropped, ds.Len())
	}
	for _, l := range ds.Listings {
		if math.IsNaN(l.Area) || math.IsInf(l.Area, 0) {
			t.Fatalf("non-finite area survived load: %+v", l)
		}
		if l.City == "Rio de Janeiro" {
			t.Fatalf("row with unparsable area should be dropped: %+v", l)
		}
		if l.Animal != AnimalAllowed && l.Animal != AnimalNotAllowed {
			t.Fatalf("animal not normalized: %q", l.Animal)
		}
	}
	first := ds.Listings[0]
	if first.City != "São Paulo" || first.Area != 70 || first.Rooms != 2 || first.Rent != 3300 || first.Total != 5618 {
		t.Fatalf("unexpected first listing: %+v", first)
	}
	if ds.Listings[3].Animal != AnimalNotAllowed {
		t.Fatalf("expected %q, got %q", AnimalNotAllowed, ds.Listings[3].Animal)
	}
}

func TestFileLoader_SemicolonAndLocaleNumbers(t *testing.T) {
	content := strings.Join([]string{
		"city;area;rooms;animal;rent amount (R$);total (R$)",
		"Curitiba;45,5;1;acept;1.250,00;1.480,50",
		"Curitiba;60;2;other;R$ 2.000,00;2.300,00",
	}, "\n")
	p := writeFile(t, t.TempDir(), "br.csv", content)
	ds, err := FileLoader{Path: p}.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ds.Len() != 2 {
		t.Fatalf("want 2 listings, got %d", ds.Len())
	}
	if ds.Listings[0].Area != 45.5 || ds.Listings[0].Rent != 1250 || ds.Listings[0].Total != 1480.5 {
		t.Fatalf("locale parse mismatch: %+v", ds.Listings[0])
	}
	if ds.Listings[1].Rent != 2000 {
		t.Fatalf("currency prefix not stripped: %+v", ds.Listings[1])
	}
	if ds.Listings[1].Animal != "other" {
		t.Fatalf("unknown animal code should pass through, got %q", ds.Listings[1].Animal)
	}
}

func TestFileLoader_TSV(t *testing.T) {
	content := "city\tarea\trooms\tanimal\trent amount (R$)\ttotal (R$)\nBelo Horizonte\t90\t3\tnot acept\t2100\t2500\n"
	p := writeFile(t, t.TempDir(), "houses.tsv", content)
	ds, err := FileLoader{Path: p}.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ds.Len() != 1 || ds.Listings[0].City != "Belo Horizonte" {
		t.Fatalf("unexpected dataset: %+v", ds.Listings)
	}
}

func TestFileLoader_MissingColumn(t *testing.T) {
	p := writeFile(t, t.TempDir(), "bad.csv", "city,area,rooms\nSP,10,1\n")
	_, err := FileLoader{Path: p}.Load(context.Background())
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("want ErrMissingColumn, got %v", err)
	}
	for _, col := range []string{ColAnimal, ColRent, ColTotal} {
		if !strings.Contains(err.Error(), col) {
			t.Fatalf("error should name %q: %v", col, err)
		}
	}
}

func TestFileLoader_KeepsNALikeText(t *testing.T) {
	content := "city,area,rooms,animal,rent amount (R$),total (R$)\nNA,50,1,<nil>,1000,1200\n"
	p := writeFile(t, t.TempDir(), "na.csv", content)
	ds, err := FileLoader{Path: p}.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ds.Len() != 1 || ds.Listings[0].City != "NA" || ds.Listings[0].Animal != "<nil>" {
		t.Fatalf("text cells should be kept as written: %+v", ds.Listings)
	}
}

func TestFileLoader_DuplicateHeaderFirstWins(t *testing.T) {
	content := "city,area,rooms,animal,area,rent amount (R$),total (R$)\nSantos,70,2,acept,999,2000,2400\n"
	p := writeFile(t, t.TempDir(), "dup.csv", content)
	ds, err := FileLoader{Path: p}.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ds.Len() != 1 || ds.Listings[0].Area != 70 {
		t.Fatalf("first area column should win: %+v", ds.Listings)
	}

	rows := [][]string{
		{"city", "area", "rooms", "animal", "area", "rent amount (R$)", "total (R$)"},
		{"NA", "80", "3", "not acept", "1", "2500", "2900"},
	}
	x := filepath.Join(t.TempDir(), "dup.xlsx")
	if err := os.WriteFile(x, buildXLSX(t, "Sheet1", rows), 0o644); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}
	ds, err = FileLoader{Path: x}.Load(context.Background())
	if err != nil {
		t.Fatalf("load xlsx: %v", err)
	}
	if ds.Len() != 1 || ds.Listings[0].Area != 80 || ds.Listings[0].City != "NA" {
		t.Fatalf("unexpected xlsx listing: %+v", ds.Listings)
	}
}

func TestFileLoader_UnsupportedFormat(t *testing.T) {
	p := writeFile(t, t.TempDir(), "houses.json", "[]")
	if _, err := (FileLoader{Path: p}).Load(context.Background()); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("want ErrUnsupportedFormat, got %v", err)
	}
}

func TestFileLoader_FingerprintChangesWithContent(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "houses.csv", rentHeader+"\n"+rentRows[0]+"\n")
	l := FileLoader{Path: p}
	a, err := l.Fingerprint(context.Background())
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	writeFile(t, dir, "houses.csv", rentHeader+"\n"+strings.Join(rentRows[:3], "\n")+"\n")
	b, err := l.Fingerprint(context.Background())
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	if a == b {
		t.Fatalf("fingerprint should change when the file grows: %s", a)
	}
}

func TestDatasetDomainHelpers(t *testing.T) {
	ds := &Dataset{Listings: []Listing{
		{City: "SP", Area: 40.7, Rooms: 3, Rent: 1000.9},
		{City: "RJ", Area: 80.2, Rooms: 1, Rent: 2500.5},
		{City: "SP", Area: 55, Rooms: 3, Rent: 1800},
	}}
	if got := ds.Cities(); strings.Join(got, ",") != "RJ,SP" {
		t.Fatalf("cities: %v", got)
	}
	if got := ds.RoomCounts(); len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("rooms: %v", got)
	}
	if lo, hi := ds.AreaRange(); lo != 40 || hi != 81 {
		t.Fatalf("area range: %v..%v", lo, hi)
	}
	if lo, hi := ds.RentRange(); lo != 1000 || hi != 2501 {
		t.Fatalf("rent range: %v..%v", lo, hi)
	}
	empty := &Dataset{}
	if lo, hi := empty.AreaRange(); lo != 0 || hi != 0 {
		t.Fatalf("empty range: %v..%v", lo, hi)
	}
}

func TestParseNumeric(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"70", 70, true},
		{"1.234,56", 1234.56, true},
		{"1,234.56", 1234.56, true},
		{"45,5", 45.5, true},
		{"45,50", 45.5, true},
		{"1,234", 0, false},
		{"R$ 2,500", 0, false},
		{"1.234", 1.234, true},
		{"1,234,567", 0, false},
		{"R$ 3.300,00", 3300, true},
		{"", 0, false},
		{"-", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}
	for _, c := range cases {
		got, ok := parseNumeric(c.in)
		if ok != c.ok || (ok && math.Abs(got-c.want) > 1e-9) {
			t.Errorf("parseNumeric(%q) = %v,%v want %v,%v", c.in, got, ok, c.want, c.ok)
		}
	}
	if _, ok := parseCount("2.5"); ok {
		t.Errorf("fractional room count should be rejected")
	}
	if n, ok := parseCount("3"); !ok || n != 3 {
		t.Errorf("parseCount(3) = %d,%v", n, ok)
	}
}

func TestSplitUnits(t *testing.T) {
	cases := map[string][2]string{
		"rent amount (R$)": {"rent amount", "R$"},
		"total (R$)":       {"total", "R$"},
		"area [m2]":        {"area", "m2"},
		"city":             {"city", ""},
	}
	for in, want := range cases {
		clean, unit := splitUnits(in)
		if clean != want[0] || unit != want[1] {
			t.Errorf("splitUnits(%q) = %q,%q want %q,%q", in, clean, unit, want[0], want[1])
		}
	}
}

// buildXLSX writes a minimal workbook whose first sheet holds rows. The
// header uses shared strings and the body uses inline strings and numbers.
func buildXLSX(t *testing.T, sheetName string, rows [][]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	add := func(name, body string) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	add("xl/workbook.xml", fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<sheets><sheet name="%s" sheetId="1" r:id="rId1"/></sheets></workbook>`, sheetName))
	add("xl/_rels/workbook.xml.rels", `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="/xl/worksheets/sheet1.xml"/></Relationships>`)
	var shared strings.Builder
	shared.WriteString(`<?xml version="1.0" encoding="UTF-8"?><sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">`)
	for _, h := range rows[0] {
		shared.WriteString("<si><t>" + h + "</t></si>")
	}
	shared.WriteString("</sst>")
	add("xl/sharedStrings.xml", shared.String())

	var sheet strings.Builder
	sheet.WriteString(`<?xml version="1.0" encoding="UTF-8"?><worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>`)
	for ri, row := range rows {
		sheet.WriteString(fmt.Sprintf(`<row r="%d">`, ri+1))
		for ci, v := range row {
			ref := fmt.Sprintf("%c%d", 'A'+ci, ri+1)
			switch {
			case ri == 0:
				sheet.WriteString(fmt.Sprintf(`<c r="%s" t="s"><v>%d</v></c>`, ref, ci))
			case v == "":
			default:
				if _, ok := parseNumeric(v); ok {
					sheet.WriteString(fmt.Sprintf(`<c r="%s"><v>%s</v></c>`, ref, v))
				} else {
					sheet.WriteString(fmt.Sprintf(`<c r="%s" t="inlineStr"><is><t>%s</t></is></c>`, ref, v))
				}
			}
		}
		sheet.WriteString("</row>")
	}
	sheet.WriteString("</sheetData></worksheet>")
	add("xl/worksheets/sheet1.xml", sheet.String())
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestFileLoader_XLSX(t *testing.T) {
	rows := [][]string{
		{"city", "area", "rooms", "animal", "rent amount (R$)", "total (R$)"},
		{"Campinas", "60", "2", "acept", "1500", "1900"},
		{"Campinas", "", "1", "not acept", "900", "1000"},
		{"Santos", "75", "3", "not acept", "2200", "2600"},
	}
	dir := t.TempDir()
	p := filepath.Join(dir, "houses.xlsx")
	if err := os.WriteFile(p, buildXLSX(t, "Dados", rows), 0o644); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}
	ds, err := FileLoader{Path: p}.Load(context.Background())
	if err != nil {
		t.Fatalf("load xlsx: %v", err)
	}
	if ds.Len() != 2 || ds.Dropped != 1 {
		t.Fatalf("len=%d dropped=%d, want 2/1", ds.Len(), ds.Dropped)
	}
	if ds.Listings[1].City != "Santos" || ds.Listings[1].Animal != AnimalNotAllowed || ds.Listings[1].Rent != 2200 {
		t.Fatalf("unexpected listing: %+v", ds.Listings[1])
	}

	if _, err := (FileLoader{Path: p, Options: Options{Sheet: "dados"}}).Load(context.Background()); err != nil {
		t.Fatalf("named sheet lookup should be case-insensitive: %v", err)
	}
	_, err = FileLoader{Path: p, Options: Options{Sheet: "Missing"}}.Load(context.Background())
	if err == nil || !strings.Contains(err.Error(), "Dados") {
		t.Fatalf("expected error listing available sheets, got %v", err)
	}
}

func TestXLSXHelpers(t *testing.T) {
	refs := map[string]int{"A1": 0, "C12": 2, "Z3": 25, "AA1": 26, "": -1}
	for ref, want := range refs {
		if got := colIndexFromRef(ref); got != want {
			t.Errorf("colIndexFromRef(%q) = %d want %d", ref, got, want)
		}
	}
	paths := map[string]string{
		"/xl/worksheets/sheet1.xml": "xl/worksheets/sheet1.xml",
		"worksheets/sheet2.xml":     "xl/worksheets/sheet2.xml",
		"xl/worksheets/sheet3.xml":  "xl/worksheets/sheet3.xml",
	}
	for in, want := range paths {
		if got := normalizeRelPath(in); got != want {
			t.Errorf("normalizeRelPath(%q) = %q want %q", in, got, want)
		}
	}
}

func fastHTTP() HTTPOptions {
	return HTTPOptions{Timeout: 5 * time.Second, RetryMax: 1, RetryWaitMin: time.Millisecond, RetryWaitMax: 2 * time.Millisecond}
}

func TestHTTPLoader_LoadAndFingerprint(t *testing.T) {
	body := rentHeader + "\n" + strings.Join(rentRows, "\n") + "\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"v1"`)
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	l := NewHTTPLoader(srv.URL+"/data/houses_to_rent_v2.csv?token=x", Options{}, fastHTTP())
	ds, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ds.Len() != 5 || !strings.HasPrefix(ds.Source, srv.URL) {
		t.Fatalf("unexpected dataset len=%d source=%s", ds.Len(), ds.Source)
	}
	fp, err := l.Fingerprint(context.Background())
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	if !strings.HasSuffix(fp, `"v1"`) {
		t.Fatalf("fingerprint should carry the ETag: %s", fp)
	}
}

func TestHTTPLoader_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.csv" {
			http.Error(w, "nope", http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(rentHeader + "\n" + strings.Join(rentRows, "\n")))
	}))
	defer srv.Close()

	if _, err := NewHTTPLoader(srv.URL+"/missing.csv", Options{}, fastHTTP()).Load(context.Background()); err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected 404 error, got %v", err)
	}
	small := fastHTTP()
	small.MaxBytes = 64
	if _, err := NewHTTPLoader(srv.URL+"/big.csv", Options{}, small).Load(context.Background()); !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("expected ErrBodyTooLarge, got %v", err)
	}
}

func TestStaticLoader(t *testing.T) {
	ds, err := Static{}.Load(context.Background())
	if err != nil || ds.Len() != 0 {
		t.Fatalf("empty static loader: %v len=%d", err, ds.Len())
	}
}
