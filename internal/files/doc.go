// Package files inventories the JPX workbooks kept under the reports
// directory.
//
// Kinds are told from the publisher's file names:
//
//	20260130_nk225op_oi_by_tp.xlsx                  option-oi
//	20260130_<product>_oi_by_tp.xlsx                futures-oi
//	20260210_volume_by_participant_whole_day.xlsx   volume
//	20260130open_interest.xlsx                      daily-oi
//
// and, failing that, from a volume/ or daily_oi/ parent directory. The
// yyyymmdd prefix dates the file; the report's own title band stays
// authoritative once parsed.
//
// Example usage:
//
//	ws, err := files.NewDiscovery(cfg.Paths.ReportsDir).Workbooks()
//	vols := files.Filter(ws, domain.ReportVolume, from, to)
//	results := reports.ParseFiles(ctx, domain.ReportVolume, files.Paths(vols))
package files
