package services

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// volumeWorkbook writes a one-sheet participant volume report as xlsx bytes.
func volumeWorkbook(t *testing.T, session string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	name := f.GetSheetName(0)

	rows := []struct {
		axis   string
		values []interface{}
	}{
		{"A1", []interface{}{"Trading Volume by Participant"}},
		{"A2", []interface{}{session}},
		{"A5", []interface{}{"Trade Date", nil, "20260109"}},
		{"A8", []interface{}{"Product", "Issue Code", "Contract Issue", "Rank", "Participant Code",
			"Participant Name (JP)", "Participant Name (EN)", "Volume"}},
		{"A9", []interface{}{"NK225F", "169030018", "NIKKEI 225 FUT 2603", 1, "11560", "ABC証券", "ABC Securities", 5000}},
		{"A10", []interface{}{"NK225F", "169030018", "NIKKEI 225 FUT 2603", 2, "12345", "XYZ証券", "XYZ Securities", 7000}},
		{"A11", []interface{}{"NK225E", "139020718", "NIKKEI 225 OOP P2602-38500", 1, "22222", "DEF証券", "DEF Securities", 21311}},
		{"A12", []interface{}{"NK225E", "139020718", "NIKKEI 225 OOP P2602-38500", 2, "11560", "ABC証券", "ABC Securities", 300}},
		{"A13", []interface{}{"NK225E", "139020918", "NIKKEI 225 OOP C2602-40000", 1, "12345", "XYZ証券", "XYZ Securities", "n/a"}},
	}
	for _, r := range rows {
		values := r.values
		require.NoError(t, f.SetSheetRow(name, r.axis, &values))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}
