// Package exporter writes parsed records and aggregate rows to files.
//
// A Dataset wraps one result set: position, volume or daily balance records,
// a strike ladder, or a weekly participant view. The Writer renders it as
// CSV (optionally with a UTF-8 BOM for Excel), JSON, Parquet or an XLSX
// sheet. Absent quantities stay absent in every format: an empty CSV or
// XLSX cell, a JSON null, a null Parquet value.
//
// Example usage:
//
//	w := exporter.NewWriter(cfg.Export, logger)
//	path, err := w.WriteFile(exporter.StrikeLadder(domain.InstrumentPut, rows), weekEnd, "")
package exporter
