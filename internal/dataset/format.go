package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Options tune how a dataset file is decoded.
type Options struct {
	// Delimiter overrides delimiter sniffing for delimited text. Zero means auto.
	Delimiter rune
	// Sheet selects an XLSX worksheet by name. Empty means the first sheet.
	Sheet string
}

// Format decodes one file type into raw rows, header first.
type Format interface {
	CanRead(name string) bool
	Records(data []byte, opt Options) ([][]string, error)
}

var registry []Format

// Register adds a format to the registry. Later registrations do not shadow earlier ones.
func Register(f Format) {
	registry = append(registry, f)
}

func formatFor(name string) (Format, error) {
	for _, f := range registry {
		if f.CanRead(name) {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path.Ext(name))
}

// Decode picks a format for name and builds a Dataset from data.
func Decode(name string, data []byte, opt Options) (*Dataset, error) {
	f, err := formatFor(name)
	if err != nil {
		return nil, err
	}
	records, err := f.Records(data, opt)
	if err != nil {
		return nil, err
	}
	return FromRecords(name, records)
}

func init() {
	Register(delimitedFormat{})
	Register(xlsxFormat{})
}

type delimitedFormat struct{}

func (delimitedFormat) CanRead(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv", ".tsv", ".txt":
		return true
	}
	return false
}

// Records decodes delimited text through a gota dataframe with every column
// kept as a string, so coercion and drop rules stay in FromRecords.
func (delimitedFormat) Records(data []byte, opt Options) ([][]string, error) {
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(data)
	}
	header, err := rawHeader(data, delim)
	if err != nil {
		return nil, fmt.Errorf("decode delimited: %w", err)
	}
	df := dataframe.ReadCSV(bytes.NewReader(data),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
		dataframe.WithDelimiter(delim),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("decode delimited: %w", df.Err)
	}
	return withHeader(df.Records(), header), nil
}

// rawHeader reads the first record as written. gota renames duplicate and
// blank column names, which would hide a repeated required column.
func rawHeader(data []byte, delim rune) ([]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.FieldsPerRecord = -1
	h, err := r.Read()
	if err != nil {
		return nil, err
	}
	return h, nil
}

// withHeader replaces the dataframe's column names with the original header.
func withHeader(records [][]string, header []string) [][]string {
	if len(records) > 0 && len(records[0]) == len(header) {
		records[0] = header
	}
	return records
}

// sniffDelimiter inspects the header line and picks the most frequent separator.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestN := ',', bytes.Count(line, []byte{','})
	for _, c := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(c))); n > bestN {
			best, bestN = c, n
		}
	}
	return best
}

type xlsxFormat struct{}

func (xlsxFormat) CanRead(name string) bool {
	return strings.EqualFold(path.Ext(name), ".xlsx")
}

// Records reads the selected worksheet and normalizes its rows through
// dataframe.LoadRecords so both formats share one decoding path.
func (xlsxFormat) Records(data []byte, opt Options) ([][]string, error) {
	rows, err := readWorksheet(data, opt.Sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty worksheet", ErrMissingColumn)
	}
	width := len(rows[0])
	for i, r := range rows {
		if len(r) < width {
			padded := make([]string, width)
			copy(padded, r)
			rows[i] = padded
		} else if len(r) > width {
			rows[i] = r[:width]
		}
	}
	header := append([]string(nil), rows[0]...)
	df := dataframe.LoadRecords(rows,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("decode xlsx: %w", df.Err)
	}
	return withHeader(df.Records(), header), nil
}
