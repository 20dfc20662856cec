package aggregation

import (
	"sort"
	"time"

	"jpxcli/internal/calendar"
	"jpxcli/pkg/contracts/domain"
)

// VolumeStats is a participant's daily volume profile over a lookback window.
type VolumeStats struct {
	Avg  domain.Quantity `json:"avg"`
	Max  domain.Quantity `json:"max"`
	Days int             `json:"days"`
}

// ParticipantRequest is one weekly futures view: the open interest reports
// bounding the week, the daily volumes inside it and optional 20-day stats.
type ParticipantRequest struct {
	Week          domain.WeekDefinition
	Product       string
	ContractMonth string
	StartOI       []domain.ParticipantPositionRecord
	EndOI         []domain.ParticipantPositionRecord
	Volumes       []domain.ParticipantVolumeRecord
	Stats         map[string]VolumeStats
}

func (r ParticipantRequest) wantPosition(p domain.ParticipantPositionRecord) bool {
	return p.InstrumentType == domain.InstrumentFuture &&
		(r.Product == "" || p.Product == r.Product) &&
		(r.ContractMonth == "" || p.ContractMonth == r.ContractMonth)
}

func (r ParticipantRequest) wantVolume(v domain.ParticipantVolumeRecord) bool {
	return v.InstrumentType == domain.InstrumentFuture &&
		(r.Product == "" || v.Product == r.Product) &&
		(r.ContractMonth == "" || v.ContractMonth == r.ContractMonth)
}

type participant struct {
	start, end *domain.ParticipantPositionRecord
	daily      []domain.Quantity
	nameEN     string
	nameVolume string
}

// AggregateParticipants builds one row per participant seen in either open
// interest report or in the week's volumes, sorted by weekly volume
// descending and then by participant id.
//
// Net change and direction need at least one open interest figure and a
// closed week; a participant missing from one report counts as flat there.
func AggregateParticipants(req ParticipantRequest) []domain.ParticipantAggregateRow {
	days := make([]time.Time, len(req.Week.TradingDays))
	pos := make(map[time.Time]int, len(days))
	for i, d := range req.Week.TradingDays {
		days[i] = calendar.Day(d)
		pos[days[i]] = i
	}

	byID := make(map[string]*participant)
	get := func(pid string) *participant {
		p, ok := byID[pid]
		if !ok {
			p = &participant{daily: make([]domain.Quantity, len(days))}
			byID[pid] = p
		}
		return p
	}

	for i := range req.StartOI {
		if r := req.StartOI[i]; req.wantPosition(r) {
			get(r.ParticipantID).start = &req.StartOI[i]
		}
	}
	if !req.Week.InProgress() {
		for i := range req.EndOI {
			if r := req.EndOI[i]; req.wantPosition(r) {
				get(r.ParticipantID).end = &req.EndOI[i]
			}
		}
	}
	for _, v := range req.Volumes {
		if !req.wantVolume(v) {
			continue
		}
		i, ok := pos[calendar.Day(v.TradeDate)]
		if !ok {
			continue
		}
		p := get(v.ParticipantID)
		p.daily[i] = p.daily[i].Add(v.VolumeTotal)
		if p.nameEN == "" {
			p.nameEN = v.ParticipantNameEN
		}
		if p.nameVolume == "" {
			p.nameVolume = v.ParticipantName
		}
	}

	out := make([]domain.ParticipantAggregateRow, 0, len(byID))
	for pid, p := range byID {
		row := domain.ParticipantAggregateRow{
			ParticipantID:   pid,
			ParticipantName: p.name(pid),
			Daily:           make([]domain.DailyCell, len(days)),
			WeekTotalVolume: domain.SumQuantities(p.daily...),
		}
		for i, d := range days {
			row.Daily[i] = domain.DailyCell{Date: d, Value: p.daily[i]}
		}
		if p.start != nil {
			row.StartLong, row.StartShort, row.StartNet = p.start.LongQuantity, p.start.ShortQuantity, p.start.Net()
		}
		if p.end != nil {
			row.EndLong, row.EndShort, row.EndNet = p.end.LongQuantity, p.end.ShortQuantity, p.end.Net()
		}
		if !req.Week.InProgress() && (p.start != nil || p.end != nil) {
			change := row.EndNet.Or(0) - row.StartNet.Or(0)
			row.NetChange = domain.Some(change)
			row.InferredDirection = direction(change)
		}
		if s, ok := req.Stats[pid]; ok {
			row.Avg20d, row.Max20d = s.Avg, s.Max
		}
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool {
		vi, vj := out[i].WeekTotalVolume.Or(0), out[j].WeekTotalVolume.Or(0)
		if vi != vj {
			return vi > vj
		}
		return out[i].ParticipantID < out[j].ParticipantID
	})
	return out
}

// name prefers the English name from the volume reports, then the Japanese
// name from the open interest reports.
func (p *participant) name(pid string) string {
	switch {
	case p.nameEN != "":
		return p.nameEN
	case p.end != nil && p.end.ParticipantName != "":
		return p.end.ParticipantName
	case p.start != nil && p.start.ParticipantName != "":
		return p.start.ParticipantName
	case p.nameVolume != "":
		return p.nameVolume
	}
	return pid
}

func direction(change float64) domain.Direction {
	switch {
	case change > domain.Tolerance:
		return domain.DirectionBuy
	case change < -domain.Tolerance:
		return domain.DirectionSell
	}
	return domain.DirectionNeutral
}

// Stats20d computes each participant's average and maximum daily volume
// over the lookback days, usually the 20 trading days before a week
// (calendar.Before). Only days on which the participant traded count
// toward the average.
func Stats20d(lookback []time.Time, vols []domain.ParticipantVolumeRecord) map[string]VolumeStats {
	in := make(map[time.Time]bool, len(lookback))
	for _, d := range lookback {
		in[calendar.Day(d)] = true
	}

	type dayKey struct {
		pid string
		day time.Time
	}
	daily := make(map[dayKey]domain.Quantity)
	for _, v := range vols {
		d := calendar.Day(v.TradeDate)
		if !in[d] || !v.VolumeTotal.Valid() {
			continue
		}
		k := dayKey{v.ParticipantID, d}
		daily[k] = daily[k].Add(v.VolumeTotal)
	}

	type acc struct {
		sum, max float64
		n        int
	}
	per := make(map[string]*acc)
	for k, q := range daily {
		v, _ := q.Get()
		a, ok := per[k.pid]
		if !ok {
			a = &acc{max: v}
			per[k.pid] = a
		}
		a.sum += v
		a.n++
		a.max = max(a.max, v)
	}

	out := make(map[string]VolumeStats, len(per))
	for pid, a := range per {
		out[pid] = VolumeStats{
			Avg:  domain.Some(a.sum / float64(a.n)),
			Max:  domain.Some(a.max),
			Days: a.n,
		}
	}
	return out
}
