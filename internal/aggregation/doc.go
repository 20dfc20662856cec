// Package aggregation folds parsed participant records into the weekly
// tables the display layer renders.
//
// Two views exist. AggregateStrikes builds a strike ladder for one option
// side: one row per strike, one cell per trading day, the prior week's
// closing net open interest as a baseline. AggregateParticipants builds the
// futures view: one row per participant with open interest at both ends of
// the week, daily volumes and the inferred direction.
//
// Absent figures stay absent all the way through. A day without data is an
// absent cell, never a zero, so a strike that did not trade can be told
// apart from one whose report is missing.
//
// Typical use:
//
//	weeks := aggregation.BuildWeeks(oiDates, cal.Days(), 26)
//	rows, err := aggregation.AggregateStrikes(aggregation.StrikeRequest{
//	    Side:     domain.InstrumentPut,
//	    Days:     weeks[0].TradingDays,
//	    Figures:  aggregation.FiguresFromVolumes(volumes),
//	    Baseline: aggregation.BaselineFromPositions(priorOI, domain.InstrumentPut),
//	    Band:     aggregation.Band{Center: 38500, Step: 250, Width: 10},
//	})
package aggregation
