package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strconv"

	"github.com/KaramelBytes/rentdash/internal/analysis"
	"github.com/KaramelBytes/rentdash/internal/chart"
	"github.com/KaramelBytes/rentdash/internal/filter"
	"github.com/KaramelBytes/rentdash/internal/view"
)

// EChartsURL is the script the page loads to draw the charts.
const EChartsURL = "https://cdn.jsdelivr.net/npm/echarts@5.4.3/dist/echarts.min.js"

//go:embed templates/dashboard.html
var templateFS embed.FS

var pageTmpl = template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
	"hasString": func(set []string, v string) bool {
		for _, s := range set {
			if s == v {
				return true
			}
		}
		return false
	},
	"hasInt": func(set []int, v int) bool {
		for _, s := range set {
			if s == v {
				return true
			}
		}
		return false
	},
	"num": func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) },
}).ParseFS(templateFS, "templates/dashboard.html"))

type pageData struct {
	EChartsURL   string
	Dashboard    *analysis.Dashboard
	Domain       filter.Criteria
	Criteria     filter.Criteria
	Empty        bool
	EmptyMessage string
	Options      map[chart.Kind]chart.Option
	Views        []*view.View
	ViewName     string
}

func (s *server) handlePage(w http.ResponseWriter, r *http.Request) {
	ds, c, ok := s.evaluate(w, r)
	if !ok {
		return
	}
	d := analysis.Build(ds, c)
	data := pageData{
		EChartsURL:   EChartsURL,
		Dashboard:    d,
		Domain:       filter.Defaults(ds),
		Criteria:     c,
		Empty:        d.Empty(),
		EmptyMessage: analysis.EmptyMessage,
		Options:      chart.Options(d),
		ViewName:     r.URL.Query().Get(ParamView),
	}
	if s.Views != nil {
		vs, err := s.Views.List()
		if err != nil {
			s.log.Warn("list views", "err", err)
		}
		data.Views = vs
	}
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		s.log.Error("render page", "err", err)
		writeError(w, r, http.StatusInternalServerError, "render_failed", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
