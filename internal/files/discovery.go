package files

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"jpxcli/pkg/contracts/domain"
)

// Workbook is a JPX workbook found on disk.
type Workbook struct {
	Path string            `json:"path"`
	Name string            `json:"name"`
	Kind domain.ReportKind `json:"kind"`
	// Date comes from the yyyymmdd file name prefix; zero when the name
	// carries none.
	Date    time.Time `json:"date"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// namePatterns map the publisher's file names to report kinds. Order
// matters: option names also contain the futures pattern.
var namePatterns = []struct {
	contains string
	kind     domain.ReportKind
}{
	{"op_oi_by_tp", domain.ReportOptionOI},
	{"oi_by_tp", domain.ReportFuturesOI},
	{"volume_by_participant", domain.ReportVolume},
	{"open_interest", domain.ReportDailyOI},
}

// dirKinds classify files by their cache directory when the name does not.
var dirKinds = map[string]domain.ReportKind{
	"volume":   domain.ReportVolume,
	"daily_oi": domain.ReportDailyOI,
}

var datePrefix = regexp.MustCompile(`^(\d{8})`)

// Discovery finds workbooks below a reports directory
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// Workbooks walks the directory tree and returns every workbook whose kind
// can be told from its name or directory, ordered by date, then name.
func (d *Discovery) Workbooks() ([]Workbook, error) {
	var out []Workbook
	err := filepath.WalkDir(d.basePath, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !IsExcel(entry.Name()) || strings.HasPrefix(entry.Name(), ".") {
			return nil
		}
		kind, ok := Classify(path)
		if !ok {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return nil
		}
		out = append(out, Workbook{
			Path:    path,
			Name:    entry.Name(),
			Kind:    kind,
			Date:    NameDate(entry.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", d.basePath, err)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// IsExcel reports whether name has a spreadsheet extension.
func IsExcel(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".xlsx" || ext == ".xls"
}

// Classify tells the report kind from a workbook path.
func Classify(path string) (domain.ReportKind, bool) {
	name := strings.ToLower(filepath.Base(path))
	for _, p := range namePatterns {
		if strings.Contains(name, p.contains) {
			return p.kind, true
		}
	}
	kind, ok := dirKinds[strings.ToLower(filepath.Base(filepath.Dir(path)))]
	return kind, ok
}

// NameDate parses the yyyymmdd prefix of a file name.
func NameDate(name string) time.Time {
	m := datePrefix.FindString(name)
	if m == "" {
		return time.Time{}
	}
	t, err := time.Parse("20060102", m)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Filter keeps the workbooks of kind dated within [from, to]. Zero bounds
// are open; undated workbooks pass only when both bounds are open.
func Filter(ws []Workbook, kind domain.ReportKind, from, to time.Time) []Workbook {
	var out []Workbook
	for _, w := range ws {
		if kind != "" && w.Kind != kind {
			continue
		}
		if (!from.IsZero() || !to.IsZero()) && w.Date.IsZero() {
			continue
		}
		if !from.IsZero() && w.Date.Before(from) {
			continue
		}
		if !to.IsZero() && w.Date.After(to) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// Paths returns the file paths of ws.
func Paths(ws []Workbook) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Path
	}
	return out
}

// Latest returns the most recently dated workbook of kind.
func Latest(ws []Workbook, kind domain.ReportKind) (Workbook, bool) {
	var latest Workbook
	found := false
	for _, w := range ws {
		if w.Kind != kind {
			continue
		}
		if !found || w.Date.After(latest.Date) || (w.Date.Equal(latest.Date) && w.ModTime.After(latest.ModTime)) {
			latest = w
			found = true
		}
	}
	return latest, found
}
