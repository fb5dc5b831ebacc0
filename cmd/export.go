package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/rentdash/internal/analysis"
	"github.com/KaramelBytes/rentdash/internal/chart"
	"github.com/KaramelBytes/rentdash/internal/filter"
	"github.com/KaramelBytes/rentdash/internal/utils"
)

var (
	exportFilters filterFlags
	exportOut     string
	exportFormat  string
)

// exportManifest describes one export run.
type exportManifest struct {
	ID          string          `json:"id"`
	GeneratedAt time.Time       `json:"generated_at"`
	Source      string          `json:"source"`
	Format      chart.Format    `json:"format"`
	Criteria    filter.Criteria `json:"criteria"`
	Total       int             `json:"total"`
	Matched     int             `json:"matched"`
	Files       []exportFile    `json:"files"`
	Notes       []string        `json:"notes,omitempty"`
	Message     string          `json:"message,omitempty"`
}

type exportFile struct {
	Kind  chart.Kind `json:"kind"`
	Title string     `json:"title"`
	Path  string     `json:"path"`
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the six charts as SVG or PNG files",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := chart.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		ds, err := loadDataset(cmd.Context())
		if err != nil {
			return err
		}
		c, err := exportFilters.criteria(cmd, ds)
		if err != nil {
			return err
		}
		d := analysis.Build(ds, c)

		m := exportManifest{
			ID:          uuid.NewString(),
			GeneratedAt: d.GeneratedAt,
			Source:      d.Source,
			Format:      format,
			Criteria:    c,
			Total:       d.Total,
			Matched:     d.Matched,
			Files:       []exportFile{},
			Notes:       d.Notes,
		}
		if d.Empty() {
			m.Message = analysis.EmptyMessage
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %s\n", analysis.EmptyMessage)
		}
		// A render failure writes nothing.
		rendered, err := renderCharts(d, format)
		if err != nil {
			return err
		}
		if err := utils.EnsureDir(exportOut); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		out := cmd.OutOrStdout()
		for _, r := range rendered {
			name := string(r.kind) + format.Ext()
			if err := utils.SafeWriteFile(filepath.Join(exportOut, name), r.data); err != nil {
				return err
			}
			m.Files = append(m.Files, exportFile{Kind: r.kind, Title: chart.Title(r.kind), Path: name})
			fmt.Fprintf(out, "✓ %s\n", filepath.Join(exportOut, name))
		}
		b, err := utils.PrettyJSON(m)
		if err != nil {
			return err
		}
		if err := utils.SafeWriteFile(filepath.Join(exportOut, "manifest.json"), b); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Exported %d chart(s) to %s (id %s)\n", len(m.Files), exportOut, m.ID)
		return nil
	},
}

// renderChart is swapped in tests.
var renderChart = chart.Render

type renderedChart struct {
	kind chart.Kind
	data []byte
}

// renderCharts renders every non-empty chart of d into memory.
func renderCharts(d *analysis.Dashboard, format chart.Format) ([]renderedChart, error) {
	if d.Empty() {
		return nil, nil
	}
	var out []renderedChart
	for _, k := range chart.Kinds {
		var buf bytes.Buffer
		err := renderChart(k, d, format, &buf)
		if errors.Is(err, chart.ErrEmpty) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", k, err)
		}
		out = append(out, renderedChart{kind: k, data: buf.Bytes()})
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportFilters.register(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "charts", "output directory")
	exportCmd.Flags().StringVar(&exportFormat, "format", "svg", "image format: svg or png")
}
