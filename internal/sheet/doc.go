// Package sheet decodes spreadsheet workbooks into typed cell grids.
//
// The loader is the only place that touches the xlsx format. Everything
// downstream works on Grid values whose cells are already typed as text,
// number or date, so parsers can be tested against grids built in memory:
//
//	g := sheet.NewGrid("Sheet1").
//		Set("A2", "（ 2026年01月30日現在 ）").
//		SetRow("A10", 1, "2026年03月限月", "11560", "ABC証券", 1200)
package sheet
