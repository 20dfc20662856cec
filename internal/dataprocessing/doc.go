// Package dataprocessing extracts per-participant records from JPX report
// sheets.
//
// # Pipeline
//
// Each report kind runs the same stages over a sheet.Grid:
//
//  1. ExtractMetadata reads the title band: report date, session, product.
//  2. LocateSections finds the tables by their anchor text.
//  3. BuildColumnMap classifies each section's header into column roles and
//     sides using HeaderSynonyms and SideMarkers.
//  4. ParseSection turns data rows into RawSectionRow values, skipping
//     blanks, subtotals and repeated headers.
//  5. Consolidate merges the long and short rows of a section into one
//     ParticipantPositionRecord per participant and contract.
//
// ParseFuturesOI, ParseOptionOI, ParseVolume and ParseDailyOI wire the
// stages together for their layouts. MergeVolumeSessions folds day and
// night session volumes into one record per participant and contract.
//
// # Usage
//
//	wb, err := sheet.LoadFile("20260130_nk225op_oi_by_tp.xlsx")
//	if err != nil {
//		return err
//	}
//	g, err := wb.Sheet(0)
//	if err != nil {
//		return err
//	}
//	rep, err := dataprocessing.ParseOptionOI(g, dataprocessing.DefaultConfig())
//
// # Errors and diagnostics
//
// Layout problems that make a sheet unreadable (no title date, no section,
// a missing required column) are returned as parsing errors from
// internal/errors. Problems confined to a cell or row become Diagnostic
// values on the report and parsing continues.
package dataprocessing
