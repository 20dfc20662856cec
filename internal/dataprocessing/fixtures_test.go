package dataprocessing

import (
	"time"

	"jpxcli/internal/sheet"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// futuresGrid mirrors the weekly futures report: one section per product,
// near and far months side by side, side markers above the header row.
func futuresGrid() *sheet.Grid {
	header := []interface{}{"順位", "限月", "参加者コード", "参加者名", "建玉残高", "参加者コード", "参加者名", "建玉残高"}
	g := sheet.NewGrid("先物").
		Set("A1", "取引参加者別建玉残高一覧").
		Set("A2", "（ 2026年01月30日現在 ）")

	g.Set("A5", "日経225先物").
		Set("D6", "（売超参加者）").Set("G6", "（買超参加者）").
		Set("N6", "（売超参加者）").Set("Q6", "（買超参加者）").
		SetRow("A7", header...).SetRow("K7", header...).
		SetRow("A8", 1, "2026年03月限月", "11560", "ABC証券", 1200, "12345", "XYZ証券", 900).
		SetRow("K8", 1, "2026年06月限月", "11560", "ABC証券", 50, "22222", "DEF証券", 30).
		SetRow("A9", 2, nil, "12345", "XYZ証券", 300, "11560", "ABC証券", 400).
		Set("K9", 2)

	g.Set("A11", "日経225mini").
		Set("D12", "（売超参加者）").Set("G12", "（買超参加者）").
		SetRow("A13", header...).
		SetRow("A14", 1, "2026年03月限月", "11560", "ABC証券", 5000, "33333", "GHI証券", 4000)

	g.Set("A16", "TOPIX先物").
		Set("D17", "（売超参加者）").Set("G17", "（買超参加者）").
		SetRow("A18", header...).
		SetRow("A19", 1, "2026年03月限月", "12345", "XYZ証券", 700, "11560", "ABC証券", 800)
	return g
}

// optionGrid mirrors the weekly option report: PUT and CALL tables side by
// side with the strike in a merged cell at the top of each block and the
// side markers below the header row.
func optionGrid() *sheet.Grid {
	header := []interface{}{"順位", "権利行使価格", "参加者コード", "参加者名", "建玉残高", "参加者コード", "参加者名", "建玉残高"}
	return sheet.NewGrid("オプション").
		Set("A1", "日経225オプション 取引参加者別建玉残高").
		Set("A2", "（ 2026年01月30日現在 ）").
		Set("B7", "プット（2026年02月限月）").
		Set("L7", "コール（2026年02月限月）").
		SetRow("A8", header...).SetRow("K8", header...).
		Set("D9", "（売超参加者）").Set("G9", "（買超参加者）").
		Set("N9", "（売超参加者）").Set("Q9", "（買超参加者）").
		SetRow("A10", 1, 38500, "11560", "A証券", 300, "11560", "A証券", 1200).
		SetRow("K10", 1, 38500, "22222", "B証券", 100, "33333", "C証券", 80).
		SetRow("A11", 2, nil, "22222", "B証券", 400).
		SetRow("K11", 2, nil, "33333", "C証券", 60, "22222", "B証券", 90).
		SetRow("A13", 1, 38750, "11560", "A証券", 10, "22222", "B証券", 20).
		SetRow("A14", "合計", nil, nil, nil, 710)
}

// volumeGrid mirrors the daily volume report: one flat table below a title
// band carrying the session and trade date.
func volumeGrid(session string) *sheet.Grid {
	return sheet.NewGrid("Volume").
		Set("A1", "Trading Volume by Participant").
		Set("A2", session).
		SetRow("A5", "Trade Date", nil, "20260109").
		SetRow("A8", "Product", "Issue Code", "Contract Issue", "Rank", "Participant Code",
			"Participant Name (JP)", "Participant Name (EN)", "Volume").
		SetRow("A9", "NK225F", "169030018", "NIKKEI 225 FUT 2603", 1, "11560", "ABC証券", "ABC Securities", 5000).
		SetRow("A10", "NK225F", "169030018", "NIKKEI 225 FUT 2603", 2, "12345", "XYZ証券", "XYZ Securities", 7000).
		SetRow("A11", "NK225E", "139020718", "NIKKEI 225 OOP P2602-38500", 1, "22222", "DEF証券", "DEF Securities", "=21311.0").
		SetRow("A12", "NK225E", "139020718", "NIKKEI 225 OOP P2602-38500", 2, "11560", "ABC証券", "ABC Securities", 300).
		SetRow("A13", "JGBL", "161030005", "JGB FUT 2603", 1, "33333", "GHI証券", "GHI Securities", 100).
		SetRow("A14", "NK225E", "139020918", "NIKKEI 225 OOP C2602-40000", 1, "12345", "XYZ証券", "XYZ Securities", "n/a")
}

// dailyOIWorkbook mirrors the daily balance workbook: a cover sheet and the
// option balance on the second sheet with unaligned PUT and CALL tables.
func dailyOIWorkbook() *sheet.Workbook {
	header := []interface{}{"Contract Issue", "Trading Volume", "Open Interest (Current)", "Change", "Open Interest (Previous)"}
	cover := sheet.NewGrid("Futures").Set("A1", "Open Interest by Contract")
	options := sheet.NewGrid("Options").
		Set("A1", "Nikkei 225 Options Open Interest").
		Set("A2", date(2026, time.January, 30)).
		Set("A5", "PUT").Set("G5", "CALL").
		SetRow("A6", header...).SetRow("G6", header...).
		SetRow("A7", "NIKKEI 225 P2603-38000", 10, 500, 20, 480).
		SetRow("G7", "NIKKEI 225 C2603-40000", 5, 100, "-", 100).
		SetRow("A8", "Total for Contract Month", 10, 500, 20, 480).
		SetRow("G8", "NIKKEI 225 C2603-40500", 0, 0, -3, 3).
		SetRow("A9", "NIKKEI 225 P2602-37500", 1, 40, 1, 39).
		SetRow("G9", "NIKKEI 225 P2603-41000", 1, 1, 1, 0)
	return &sheet.Workbook{Sheets: []*sheet.Grid{cover, options}}
}
