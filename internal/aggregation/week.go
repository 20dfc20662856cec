package aggregation

import (
	"sort"
	"time"

	"jpxcli/internal/calendar"
	"jpxcli/pkg/contracts/domain"
)

const labelLayout = "01/02"

// BuildWeeks returns the weeks bounded by consecutive open interest report
// dates, newest first. A week holds the trading days after its start report
// up to and including its end report. When trading days follow the latest
// report, an in-progress week without an end date comes first. max <= 0
// means no limit.
func BuildWeeks(oiDates, tradingDates []time.Time, max int) []domain.WeekDefinition {
	oi := calendar.New(oiDates).Days()
	trading := calendar.New(tradingDates)

	var weeks []domain.WeekDefinition
	full := func() bool { return max > 0 && len(weeks) >= max }

	if len(oi) > 0 {
		latest := oi[len(oi)-1]
		if days := after(trading.Days(), latest); len(days) > 0 {
			weeks = append(weeks, domain.WeekDefinition{
				StartOIDate: latest,
				TradingDays: days,
				Label:       latest.Format(labelLayout) + " - (in progress)",
			})
		}
	}

	for i := len(oi) - 1; i > 0 && !full(); i-- {
		start, end := oi[i-1], oi[i]
		weeks = append(weeks, domain.WeekDefinition{
			StartOIDate: start,
			EndOIDate:   &end,
			TradingDays: trading.TradingDaysBetween(start, end),
			Label:       start.Format(labelLayout) + " - " + end.Format(labelLayout),
		})
	}
	return weeks
}

func after(days []time.Time, d time.Time) []time.Time {
	i := sort.Search(len(days), func(i int) bool { return days[i].After(d) })
	if i == len(days) {
		return nil
	}
	return days[i:]
}
