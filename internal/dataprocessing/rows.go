package dataprocessing

import (
	"fmt"
	"strconv"
	"strings"

	"jpxcli/internal/sheet"
	"jpxcli/pkg/contracts/domain"
)

// Severity grades a row-level diagnostic.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Diagnostic is a recovered row-level anomaly. Row and Col are one-based
// like the spreadsheet; Col is zero when the whole row is concerned.
type Diagnostic struct {
	Sheet    string   `json:"sheet,omitempty"`
	Section  string   `json:"section,omitempty"`
	Row      int      `json:"row"`
	Col      int      `json:"col,omitempty"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// RawSectionRow is one data row of a section for one column group and one
// position side, with each configured role bound to its cell.
type RawSectionRow struct {
	Row    int
	Group  int
	Side   domain.PositionSide
	Values map[ColumnRole]sheet.Cell
}

// Cell returns the cell bound to role, blank when unbound.
func (r RawSectionRow) Cell(role ColumnRole) sheet.Cell { return r.Values[role] }

// Text returns the trimmed text bound to role.
func (r RawSectionRow) Text(role ColumnRole) string { return r.Values[role].String() }

// Quantity returns the numeric value bound to role, absent when blank or
// unparsable.
func (r RawSectionRow) Quantity(role ColumnRole) domain.Quantity {
	if v, ok := r.Values[role].Float(); ok {
		return domain.Some(v)
	}
	return domain.None()
}

// Int returns the integer value bound to role.
func (r RawSectionRow) Int(role ColumnRole) (int, bool) {
	v, ok := r.Values[role].Float()
	if !ok || v != float64(int64(v)) {
		return 0, false
	}
	return int(v), true
}

// RowOptions tunes ParseSection.
type RowOptions struct {
	// SummaryMarkers flag subtotal rows such as "Total for Contract Month".
	SummaryMarkers []string
	// SideFlags maps a side-flag column's text to a side.
	SideFlags SideMarkers
	// Identity is the role a row must carry to be emitted. Defaults to the
	// participant id.
	Identity ColumnRole
}

// ParseSection walks the data rows of sec and emits one RawSectionRow per
// row, column group and side that carries an identity (a participant id
// unless opts says otherwise).
//
// Blank rows are padding and yield an info diagnostic. Summary rows are
// skipped. Non-numeric text in a numeric column is dropped to absent with a
// warning; the row itself is kept. Block-level values (contract month,
// strike, product) carry down from merged cells.
func ParseSection(g *sheet.Grid, sec Section, cols ColumnMap, opts RowOptions) ([]RawSectionRow, []Diagnostic) {
	var (
		rows  []RawSectionRow
		diags []Diagnostic
	)
	diag := func(row, col int, sev Severity, format string, args ...interface{}) {
		diags = append(diags, Diagnostic{
			Sheet: g.Name, Section: sec.Kind, Row: row + 1, Col: col,
			Severity: sev, Message: fmt.Sprintf(format, args...),
		})
	}

	if opts.Identity == "" {
		opts.Identity = RoleParticipantID
	}
	carried := make([]map[ColumnRole]sheet.Cell, len(cols.Groups))
	for i := range carried {
		carried[i] = make(map[ColumnRole]sheet.Cell)
	}
	identityCols := make(map[int]bool)
	for _, grp := range cols.Groups {
		for _, c := range grp.Columns {
			if identityRoles[c.Role] {
				identityCols[c.Index] = true
			}
		}
	}

	for r := sec.DataStart; r <= sec.DataEnd; r++ {
		if g.RowBlank(r, sec.FirstCol, sec.LastCol) {
			diag(r, 0, SeverityInfo, "blank padding row")
			continue
		}
		if isSummaryRow(g, r, sec, identityCols, opts.SummaryMarkers) {
			diag(r, 0, SeverityInfo, "summary row skipped")
			continue
		}

		for gi, grp := range cols.Groups {
			for _, c := range grp.Columns {
				if !blockRoles[c.Role] {
					continue
				}
				if cell := g.Cell(r, c.Index); !cell.IsBlank() {
					carried[gi][c.Role] = cell
				}
			}

			sides := grp.Sides()
			if len(sides) == 0 {
				sides = []domain.PositionSide{domain.SideNone}
			}
			for _, side := range sides {
				raw, ok := bindRow(g, r, grp, side, carried[gi], opts, diag)
				if ok {
					rows = append(rows, raw)
				}
			}
		}
	}
	return rows, diags
}

func bindRow(g *sheet.Grid, r int, grp ColumnGroup, side domain.PositionSide, carried map[ColumnRole]sheet.Cell,
	opts RowOptions, diag func(int, int, Severity, string, ...interface{})) (RawSectionRow, bool) {

	values := make(map[ColumnRole]sheet.Cell)
	hasNumbers := false
	for _, c := range grp.Columns {
		if c.Side != domain.SideNone && c.Side != side {
			continue
		}
		cell := g.Cell(r, c.Index)
		if cell.IsBlank() && blockRoles[c.Role] {
			cell = carried[c.Role]
		}
		if cell.IsBlank() {
			continue
		}
		if numericRoles[c.Role] {
			if _, ok := cell.Float(); !ok {
				diag(r, c.Index+1, SeverityWarning, "non-numeric %s value %q treated as absent", c.Role, cell.String())
				continue
			}
			if !blockRoles[c.Role] && c.Role != RoleRank {
				hasNumbers = true
			}
		}
		values[c.Role] = cell
	}

	id := values[opts.Identity].String()
	if id == "" {
		if hasNumbers {
			diag(r, 0, SeverityWarning, "%s values without %s", sideLabel(side), opts.Identity)
		}
		return RawSectionRow{}, false
	}
	if opts.Identity == RoleParticipantID {
		values[RoleParticipantID] = sheet.Text(normalizeParticipantID(id))
	}

	if side == domain.SideNone {
		if flag, ok := values[RoleSideFlag]; ok {
			side = opts.SideFlags.Side(flag.Text)
			if side == domain.SideNone {
				diag(r, 0, SeverityWarning, "unrecognized side flag %q", flag.String())
			}
		}
	}
	return RawSectionRow{Row: r, Group: grp.Index, Side: side, Values: values}, true
}

var identityRoles = map[ColumnRole]bool{
	RoleParticipantID:     true,
	RoleParticipantName:   true,
	RoleParticipantNameEN: true,
}

// isSummaryRow reports whether a text cell of row r carries a summary
// marker. Participant columns must hold the marker alone, so a name such as
// "Total Securities" stays a participant.
func isSummaryRow(g *sheet.Grid, r int, sec Section, identityCols map[int]bool, markers []string) bool {
	for c := sec.FirstCol; c <= sec.LastCol; c++ {
		cell := g.Cell(r, c)
		if cell.Kind != sheet.KindText {
			continue
		}
		norm := cell.Normalized()
		if identityCols[c] {
			if equalsAny(norm, markers) {
				return true
			}
			continue
		}
		if matchesAny(norm, markers) {
			return true
		}
	}
	return false
}

func equalsAny(norm string, markers []string) bool {
	norm = strings.ReplaceAll(norm, " ", "")
	for _, m := range markers {
		if norm == strings.ReplaceAll(sheet.Normalize(m), " ", "") {
			return true
		}
	}
	return false
}

// normalizeParticipantID drops a trailing ".0" from ids stored as floats.
// Leading zeros are kept.
func normalizeParticipantID(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && v == float64(int64(v)) && v >= 0 {
		return strconv.FormatInt(int64(v), 10)
	}
	return s
}

func sideLabel(side domain.PositionSide) string {
	if side == domain.SideNone {
		return "row"
	}
	return string(side)
}
