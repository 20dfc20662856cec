package dataprocessing

import (
	"strings"
	"unicode/utf8"

	apperrors "jpxcli/internal/errors"
	"jpxcli/internal/sheet"
	"jpxcli/pkg/contracts/domain"
)

// ColumnRole is the semantic meaning of a report column.
type ColumnRole string

const (
	RoleRank              ColumnRole = "rank"
	RoleProduct           ColumnRole = "product"
	RoleIssueCode         ColumnRole = "issue_code"
	RoleContract          ColumnRole = "contract"
	RoleContractMonth     ColumnRole = "contract_month"
	RoleStrike            ColumnRole = "strike"
	RoleParticipantID     ColumnRole = "participant_id"
	RoleParticipantName   ColumnRole = "participant_name"
	RoleParticipantNameEN ColumnRole = "participant_name_en"
	RoleSideFlag          ColumnRole = "side"
	RoleQuantity          ColumnRole = "quantity"
	RoleVolume            ColumnRole = "volume"
	RoleTradingVolume     ColumnRole = "trading_volume"
	RoleCurrentOI         ColumnRole = "current_oi"
	RoleNetChange         ColumnRole = "net_change"
	RolePreviousOI        ColumnRole = "previous_oi"
)

// numeric roles are validated as numbers; unparsable cells become absent.
var numericRoles = map[ColumnRole]bool{
	RoleRank:          true,
	RoleStrike:        true,
	RoleQuantity:      true,
	RoleVolume:        true,
	RoleTradingVolume: true,
	RoleCurrentOI:     true,
	RoleNetChange:     true,
	RolePreviousOI:    true,
}

// block roles describe a whole block of rows and are carried down from
// merged cells until the next non-blank value.
var blockRoles = map[ColumnRole]bool{
	RoleContractMonth: true,
	RoleStrike:        true,
	RoleProduct:       true,
}

// RoleSynonyms lists the header texts that identify one role.
type RoleSynonyms struct {
	Role     ColumnRole `yaml:"role" json:"role"`
	Synonyms []string   `yaml:"synonyms" json:"synonyms"`
}

// HeaderSynonyms is an ordered synonym table. A header cell takes the role
// of its longest matching synonym; equal lengths resolve to the earlier entry.
type HeaderSynonyms []RoleSynonyms

// Classify returns the role for a header text.
func (hs HeaderSynonyms) Classify(text string) (ColumnRole, bool) {
	norm := sheet.Normalize(text)
	if norm == "" {
		return "", false
	}
	var (
		best    ColumnRole
		bestLen int
	)
	for _, rs := range hs {
		for _, syn := range rs.Synonyms {
			s := sheet.Normalize(syn)
			if s == "" || !containsKeyword(norm, s) {
				continue
			}
			if n := utf8.RuneCountInString(s); n > bestLen {
				best, bestLen = rs.Role, n
			}
		}
	}
	return best, bestLen > 0
}

// With returns a copy of the table with extra synonyms appended per role.
func (hs HeaderSynonyms) With(extra map[string][]string) HeaderSynonyms {
	out := make(HeaderSynonyms, 0, len(hs)+len(extra))
	seen := make(map[ColumnRole]bool)
	for _, rs := range hs {
		syns := append([]string(nil), rs.Synonyms...)
		syns = append(syns, extra[string(rs.Role)]...)
		out = append(out, RoleSynonyms{Role: rs.Role, Synonyms: syns})
		seen[rs.Role] = true
	}
	for role, syns := range extra {
		if !seen[ColumnRole(role)] {
			out = append(out, RoleSynonyms{Role: ColumnRole(role), Synonyms: syns})
		}
	}
	return out
}

// SideMarkers are the texts that assign a position side to a column,
// either inside the header itself or in a marker row above it.
type SideMarkers struct {
	Long  []string `yaml:"long" json:"long"`
	Short []string `yaml:"short" json:"short"`
}

// Side returns the side named in text. Text naming both sides is no side.
func (m SideMarkers) Side(text string) domain.PositionSide {
	norm := sheet.Normalize(text)
	if norm == "" {
		return domain.SideNone
	}
	long := matchesAny(norm, m.Long)
	short := matchesAny(norm, m.Short)
	switch {
	case long && !short:
		return domain.SideLong
	case short && !long:
		return domain.SideShort
	}
	return domain.SideNone
}

// Column is one classified header cell.
type Column struct {
	Index  int
	Role   ColumnRole
	Side   domain.PositionSide
	Header string
}

// ColumnGroup is a run of columns that together describe one table, such
// as the near-month half of a futures section.
type ColumnGroup struct {
	Index   int
	Columns []Column
}

// Find returns the column for role and side. A side-less column also
// serves any side.
func (g ColumnGroup) Find(role ColumnRole, side domain.PositionSide) (Column, bool) {
	var shared *Column
	for i := range g.Columns {
		c := g.Columns[i]
		if c.Role != role {
			continue
		}
		if c.Side == side {
			return c, true
		}
		if c.Side == domain.SideNone && shared == nil {
			shared = &g.Columns[i]
		}
	}
	if shared != nil {
		return *shared, true
	}
	return Column{}, false
}

// Has reports whether any column of the group carries role.
func (g ColumnGroup) Has(role ColumnRole) bool {
	for _, c := range g.Columns {
		if c.Role == role {
			return true
		}
	}
	return false
}

// Sides returns the position sides present in the group, short first.
func (g ColumnGroup) Sides() []domain.PositionSide {
	var long, short bool
	for _, c := range g.Columns {
		switch c.Side {
		case domain.SideLong:
			long = true
		case domain.SideShort:
			short = true
		}
	}
	var out []domain.PositionSide
	if short {
		out = append(out, domain.SideShort)
	}
	if long {
		out = append(out, domain.SideLong)
	}
	return out
}

// ColumnMap is the typed column-role map of one section.
type ColumnMap struct {
	Groups []ColumnGroup
}

// Roles returns the distinct roles present anywhere in the map.
func (m ColumnMap) Roles() map[ColumnRole]bool {
	out := make(map[ColumnRole]bool)
	for _, g := range m.Groups {
		for _, c := range g.Columns {
			out[c.Role] = true
		}
	}
	return out
}

// BuildColumnMap classifies the header row of sec and splits the columns
// into groups. A column's side comes from its own header text, otherwise
// from the nearest side marker in the rows between the title and the first
// data row. required lists roles every group must carry.
func BuildColumnMap(g *sheet.Grid, sec Section, synonyms HeaderSynonyms, markers SideMarkers, required []ColumnRole) (ColumnMap, error) {
	type marker struct {
		col  int
		side domain.PositionSide
	}
	var marks []marker
	top := sec.TitleRow
	if top < 0 {
		top = sec.HeaderRow
	}
	for r := top; r < sec.DataStart; r++ {
		for c := sec.FirstCol; c <= sec.LastCol; c++ {
			cell := g.Cell(r, c)
			if cell.Kind != sheet.KindText {
				continue
			}
			if side := markers.Side(cell.Text); side != domain.SideNone {
				if _, isRole := synonyms.Classify(cell.Text); isRole && r == sec.HeaderRow {
					continue
				}
				marks = append(marks, marker{col: c, side: side})
			}
		}
	}

	var cols []Column
	for c := sec.FirstCol; c <= sec.LastCol; c++ {
		cell := g.Cell(sec.HeaderRow, c)
		if cell.Kind != sheet.KindText {
			continue
		}
		role, ok := synonyms.Classify(cell.Text)
		if !ok {
			continue
		}
		side := markers.Side(cell.Text)
		if side == domain.SideNone && sideBound(role) {
			best := -1
			for _, m := range marks {
				d := abs(m.col - c)
				if best < 0 || d < best {
					best, side = d, m.side
				}
			}
		}
		if !sideBound(role) {
			side = domain.SideNone
		}
		cols = append(cols, Column{Index: c, Role: role, Side: side, Header: cell.String()})
	}

	var (
		m    ColumnMap
		cur  ColumnGroup
		seen = make(map[string]bool)
	)
	for _, col := range cols {
		key := string(col.Role) + "|" + string(col.Side)
		if seen[key] {
			m.Groups = append(m.Groups, cur)
			cur = ColumnGroup{Index: len(m.Groups)}
			seen = make(map[string]bool)
		}
		seen[key] = true
		cur.Columns = append(cur.Columns, col)
	}
	if len(cur.Columns) > 0 {
		m.Groups = append(m.Groups, cur)
	}

	if len(m.Groups) == 0 {
		return ColumnMap{}, &apperrors.MalformedSectionError{
			Kind: sec.Kind, Row: sec.HeaderRow + 1,
			Reason: "header row has no recognized columns",
		}
	}
	for _, grp := range m.Groups {
		for _, role := range required {
			if !grp.Has(role) {
				return ColumnMap{}, &apperrors.MalformedSectionError{
					Kind: sec.Kind, Row: sec.HeaderRow + 1, Col: firstCol(grp) + 1,
					Reason: "missing required column " + string(role),
				}
			}
		}
	}
	return m, nil
}

// sideBound roles hold per-side values when the layout is split by side.
func sideBound(role ColumnRole) bool {
	switch role {
	case RoleParticipantID, RoleParticipantName, RoleParticipantNameEN, RoleQuantity:
		return true
	}
	return false
}

func firstCol(g ColumnGroup) int {
	if len(g.Columns) == 0 {
		return 0
	}
	return g.Columns[0].Index
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// containsKeyword reports whether kw occurs in s. Keywords starting with an
// ASCII letter must not be preceded by one, so "put" does not match
// "computershare".
func containsKeyword(s, kw string) bool {
	if kw == "" {
		return false
	}
	from := 0
	for {
		i := strings.Index(s[from:], kw)
		if i < 0 {
			return false
		}
		i += from
		if !isASCIILetter(kw[0]) || i == 0 || !isASCIILetter(s[i-1]) {
			return true
		}
		from = i + 1
	}
}

func matchesAny(norm string, keywords []string) bool {
	for _, kw := range keywords {
		if containsKeyword(norm, sheet.Normalize(kw)) {
			return true
		}
	}
	return false
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
