package dataprocessing

import (
	"fmt"
	"log/slog"
	"sort"

	apperrors "jpxcli/internal/errors"
	"jpxcli/internal/sheet"
	"jpxcli/pkg/contracts/domain"
)

// SectionRule describes how to recognize one section kind.
//
// A text cell opens a section of this kind when it contains any of
// Keywords, all of Require and none of Exclude. A rule without keywords
// anchors on the first header row of the sheet instead of a title cell.
type SectionRule struct {
	Kind     string   `yaml:"kind" json:"kind"`
	Keywords []string `yaml:"keywords" json:"keywords"`
	Require  []string `yaml:"require,omitempty" json:"require,omitempty"`
	Exclude  []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	Required bool     `yaml:"required" json:"required"`
}

func (r SectionRule) matches(norm string) bool {
	if !matchesAny(norm, r.Keywords) || matchesAny(norm, r.Exclude) {
		return false
	}
	for _, kw := range r.Require {
		if !containsKeyword(norm, sheet.Normalize(kw)) {
			return false
		}
	}
	return true
}

// LocatorConfig configures LocateSections.
type LocatorConfig struct {
	Rules   []SectionRule
	Headers HeaderSynonyms
	Markers SideMarkers
	// StartRow is the first row scanned for titles; rows above it belong
	// to the report title band.
	StartRow int
	// HeaderWindow is the number of rows below a title searched for the
	// header row.
	HeaderWindow int
	// MinHeaderRoles is the number of distinct column roles a row needs to
	// count as a header row.
	MinHeaderRoles int
	Logger         *slog.Logger
}

func (c LocatorConfig) withDefaults() LocatorConfig {
	if c.HeaderWindow <= 0 {
		c.HeaderWindow = 4
	}
	if c.MinHeaderRoles <= 0 {
		c.MinHeaderRoles = 2
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Section is one located data block. Rows and columns are zero-based and
// inclusive. DataEnd < DataStart means the section has no data rows.
type Section struct {
	Kind      string `json:"kind"`
	Title     string `json:"title,omitempty"`
	TitleRow  int    `json:"title_row"` // -1 when anchored on the header row
	TitleCol  int    `json:"title_col"`
	HeaderRow int    `json:"header_row"`
	FirstCol  int    `json:"first_col"`
	LastCol   int    `json:"last_col"`
	DataStart int    `json:"data_start"`
	DataEnd   int    `json:"data_end"`
}

// Rows returns the number of data rows.
func (s Section) Rows() int {
	if s.DataEnd < s.DataStart {
		return 0
	}
	return s.DataEnd - s.DataStart + 1
}

func (s Section) top() int {
	if s.TitleRow >= 0 {
		return s.TitleRow
	}
	return s.HeaderRow
}

func (s Section) overlaps(o Section) bool {
	return s.top() <= max(o.DataEnd, o.HeaderRow) && o.top() <= max(s.DataEnd, s.HeaderRow) &&
		s.FirstCol <= o.LastCol && o.FirstCol <= s.LastCol
}

type title struct {
	rule SectionRule
	row  int
	col  int
	text string
}

// LocateSections finds the data sections of a sheet.
//
// Sections are returned ordered by header row, then by first column, so
// side-by-side tables come back left to right regardless of which kind
// appears first. A missing Required kind is a SectionNotFoundError; a sheet
// with no sections and no required kinds yields an empty slice.
func LocateSections(g *sheet.Grid, cfg LocatorConfig) ([]Section, error) {
	cfg = cfg.withDefaults()

	var titled, anchored []SectionRule
	for _, r := range cfg.Rules {
		if len(r.Keywords) == 0 {
			anchored = append(anchored, r)
		} else {
			titled = append(titled, r)
		}
	}

	titles, err := findTitles(g, cfg, titled)
	if err != nil {
		return nil, err
	}

	var sections []Section
	byRow := make(map[int][]title)
	var rows []int
	for _, t := range titles {
		if _, ok := byRow[t.row]; !ok {
			rows = append(rows, t.row)
		}
		byRow[t.row] = append(byRow[t.row], t)
	}
	sort.Ints(rows)

	width := g.NumCols()
	for _, row := range rows {
		ts := byRow[row]
		sort.Slice(ts, func(i, j int) bool { return ts[i].col < ts[j].col })
		start := 0
		for i, t := range ts {
			end := width - 1
			if i+1 < len(ts) {
				end = gutter(g, row, row+cfg.HeaderWindow, t.col, ts[i+1].col)
			}
			sec := Section{
				Kind: t.rule.Kind, Title: t.text,
				TitleRow: t.row, TitleCol: t.col,
				FirstCol: start, LastCol: max(end, t.col),
			}
			start = sec.LastCol + 1

			hdr, ok := findHeaderRow(g, cfg, sec, row+1, row+cfg.HeaderWindow)
			if !ok {
				return nil, &apperrors.MalformedSectionError{
					Kind: sec.Kind, Row: row + 1, Col: t.col + 1,
					Reason: fmt.Sprintf("no header row within %d rows of title", cfg.HeaderWindow),
				}
			}
			sec.HeaderRow = hdr
			sections = append(sections, sec)
		}
	}

	for _, r := range anchored {
		hdr, ok := findHeaderRow(g, cfg, Section{FirstCol: 0, LastCol: width - 1}, cfg.StartRow, g.NumRows()-1)
		if !ok {
			continue
		}
		sections = append(sections, Section{
			Kind: r.Kind, TitleRow: -1, TitleCol: -1, HeaderRow: hdr,
			FirstCol: 0, LastCol: max(width-1, 0),
		})
	}

	for i := range sections {
		sections[i].DataStart = skipHeaderBlock(g, cfg, sections[i])
		sections[i].DataEnd = dataEnd(g, sections, i)
	}

	sort.SliceStable(sections, func(i, j int) bool {
		if sections[i].HeaderRow != sections[j].HeaderRow {
			return sections[i].HeaderRow < sections[j].HeaderRow
		}
		return sections[i].FirstCol < sections[j].FirstCol
	})

	for i := range sections {
		for j := i + 1; j < len(sections); j++ {
			if sections[i].overlaps(sections[j]) {
				return nil, &apperrors.MalformedSectionError{
					Kind: sections[j].Kind, Row: sections[j].top() + 1, Col: sections[j].FirstCol + 1,
					Reason: fmt.Sprintf("section overlaps %q section at row %d", sections[i].Kind, sections[i].top()+1),
				}
			}
		}
	}

	found := make(map[string]bool)
	for _, s := range sections {
		found[s.Kind] = true
	}
	for _, r := range cfg.Rules {
		if r.Required && !found[r.Kind] {
			return nil, &apperrors.SectionNotFoundError{Kind: r.Kind, Sheet: g.Name}
		}
	}

	cfg.Logger.Debug("sections located",
		slog.String("sheet", g.Name),
		slog.Int("count", len(sections)))
	return sections, nil
}

// findTitles classifies every text cell against the titled rules. A cell
// matching two different kinds is ambiguous and fatal.
func findTitles(g *sheet.Grid, cfg LocatorConfig, rules []SectionRule) ([]title, error) {
	if len(rules) == 0 {
		return nil, nil
	}
	var out []title
	for r := cfg.StartRow; r < g.NumRows(); r++ {
		for c, cell := range g.Rows[r] {
			if cell.Kind != sheet.KindText {
				continue
			}
			if _, numeric := cell.Float(); numeric {
				continue
			}
			norm := cell.Normalized()
			var hit *SectionRule
			for i := range rules {
				if !rules[i].matches(norm) {
					continue
				}
				if hit != nil && hit.Kind != rules[i].Kind {
					return nil, &apperrors.MalformedSectionError{
						Kind: hit.Kind, Row: r + 1, Col: c + 1,
						Reason: fmt.Sprintf("cell %q matches both %s and %s", cell.String(), hit.Kind, rules[i].Kind),
					}
				}
				hit = &rules[i]
			}
			if hit != nil {
				out = append(out, title{rule: *hit, row: r, col: c, text: cell.String()})
			}
		}
	}
	return out, nil
}

// gutter returns the last column of the band that starts at left when the
// next title sits at right. It prefers the rightmost column that is blank
// in every row of [fromRow, toRow]; without one the band ends just before
// the next title.
func gutter(g *sheet.Grid, fromRow, toRow, left, right int) int {
	for c := right - 1; c > left; c-- {
		blank := true
		for r := fromRow; r <= toRow && blank; r++ {
			if !g.Cell(r, c).IsBlank() {
				blank = false
			}
		}
		if blank {
			return c
		}
	}
	return right - 1
}

func headerRoles(g *sheet.Grid, hs HeaderSynonyms, row, from, to int) int {
	roles := make(map[ColumnRole]bool)
	for c := from; c <= to; c++ {
		cell := g.Cell(row, c)
		if cell.Kind != sheet.KindText {
			continue
		}
		if role, ok := hs.Classify(cell.Text); ok {
			roles[role] = true
		}
	}
	return len(roles)
}

func findHeaderRow(g *sheet.Grid, cfg LocatorConfig, sec Section, from, to int) (int, bool) {
	if to >= g.NumRows() {
		to = g.NumRows() - 1
	}
	for r := from; r <= to; r++ {
		if headerRoles(g, cfg.Headers, r, sec.FirstCol, sec.LastCol) >= cfg.MinHeaderRoles {
			return r, true
		}
	}
	return 0, false
}

// skipHeaderBlock returns the first data row. Rows right below the header
// that hold nothing but side markers ("（売超参加者）") still belong to the
// header block.
func skipHeaderBlock(g *sheet.Grid, cfg LocatorConfig, sec Section) int {
	r := sec.HeaderRow + 1
	for ; r < g.NumRows(); r++ {
		if g.RowBlank(r, sec.FirstCol, sec.LastCol) {
			return r
		}
		for c := sec.FirstCol; c <= sec.LastCol; c++ {
			cell := g.Cell(r, c)
			if cell.IsBlank() {
				continue
			}
			if cell.Kind != sheet.KindText || cfg.Markers.Side(cell.Text) == domain.SideNone {
				return r
			}
		}
	}
	return r
}

// dataEnd returns the last data row of sections[i]: the row before the next
// section whose rows start below it and whose columns intersect it, with
// trailing blank rows trimmed.
func dataEnd(g *sheet.Grid, sections []Section, i int) int {
	s := sections[i]
	end := g.NumRows() - 1
	for j, o := range sections {
		if j == i || o.top() <= s.HeaderRow {
			continue
		}
		if o.FirstCol <= s.LastCol && s.FirstCol <= o.LastCol && o.top()-1 < end {
			end = o.top() - 1
		}
	}
	for end >= s.DataStart && g.RowBlank(end, s.FirstCol, s.LastCol) {
		end--
	}
	return end
}
