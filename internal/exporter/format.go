package exporter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"jpxcli/pkg/contracts/domain"
)

// Format is an export file format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatParquet Format = "parquet"
	FormatXLSX    Format = "xlsx"
)

// Formats lists the supported formats.
var Formats = []Format{FormatCSV, FormatJSON, FormatParquet, FormatXLSX}

// ParseFormat accepts a format name in any case.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType is the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatJSON:
		return "application/json"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/octet-stream"
}

// quantity is the cell value of q: its number, or nil when absent.
func quantity(q domain.Quantity) interface{} {
	if v, ok := q.Get(); ok {
		return v
	}
	return nil
}

// formatCell renders a table cell for CSV. nil is an empty cell.
func formatCell(v interface{}) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return formatFloat(c)
	case int:
		return strconv.Itoa(c)
	case bool:
		return formatBool(c)
	case time.Time:
		return c.Format(domain.DateLayout)
	}
	return fmt.Sprint(v)
}

// formatFloat prints the shortest exact representation; contract counts
// come out as integers.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
