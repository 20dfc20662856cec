package dataprocessing

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"jpxcli/internal/calendar"
	"jpxcli/internal/sheet"
	"jpxcli/pkg/contracts/domain"
)

// VolumeReport is the parsed content of a daily participant volume report.
type VolumeReport struct {
	Metadata    ReportMetadata                   `json:"metadata"`
	TradeDate   time.Time                        `json:"trade_date"`
	Records     []domain.ParticipantVolumeRecord `json:"records"`
	Diagnostics []Diagnostic                     `json:"diagnostics,omitempty"`
}

var (
	optionContractPattern = regexp.MustCompile(`(?:^|[^a-z])([pc])(\d{4})-(\d+)`)
	futureMonthPattern    = regexp.MustCompile(`^\d{4}$`)
)

// ContractDescriptor is what a free-text contract name such as
// "NIKKEI 225 OOP P2602-53250" or "NIKKEI 225 FUT 2603" identifies.
type ContractDescriptor struct {
	Instrument    domain.InstrumentType
	ContractMonth string
	Strike        int
}

// ParseContractDescriptor extracts instrument, month and strike from a
// contract name. Options carry "P" or "C", YYMM and the strike; futures end
// with YYMM.
func ParseContractDescriptor(s string) (ContractDescriptor, bool) {
	norm := sheet.Normalize(s)
	if m := optionContractPattern.FindStringSubmatch(norm); m != nil {
		strike, err := strconv.Atoi(m[3])
		if err != nil || strike <= 0 {
			return ContractDescriptor{}, false
		}
		inst := domain.InstrumentPut
		if m[1] == "c" {
			inst = domain.InstrumentCall
		}
		return ContractDescriptor{Instrument: inst, ContractMonth: m[2], Strike: strike}, true
	}
	fields := strings.Fields(norm)
	if len(fields) > 0 && futureMonthPattern.MatchString(fields[len(fields)-1]) {
		return ContractDescriptor{Instrument: domain.InstrumentFuture, ContractMonth: fields[len(fields)-1]}, true
	}
	return ContractDescriptor{}, false
}

var volumeRequired = []ColumnRole{RoleProduct, RoleContract, RoleParticipantID, RoleVolume}

// ParseVolume parses a daily volume report (one session file). The report
// date is attributed to its trading day through calendar.Shift, the volume
// lands in the session's column, and ranks are recomputed per contract.
func ParseVolume(g *sheet.Grid, cfg Config, lookup calendar.Lookup) (*VolumeReport, error) {
	meta, err := ExtractMetadata(g, cfg.Metadata)
	if err != nil {
		return nil, err
	}
	tradeDate, err := calendar.Shift(meta.ReportDate, meta.Session, lookup)
	if err != nil {
		return nil, err
	}
	sections, err := LocateSections(g, cfg.locator(domain.ReportVolume))
	if err != nil {
		return nil, err
	}

	rep := &VolumeReport{Metadata: meta, TradeDate: tradeDate}
	for _, sec := range sections {
		cols, err := BuildColumnMap(g, sec, cfg.Headers, cfg.Markers, volumeRequired)
		if err != nil {
			return nil, err
		}
		rows, diags := ParseSection(g, sec, cols, cfg.rowOptions())
		rep.Diagnostics = append(rep.Diagnostics, diags...)

		for _, row := range rows {
			rec, ok, diag := volumeRecord(row, cfg, tradeDate, meta.Session)
			if diag != "" {
				rep.Diagnostics = append(rep.Diagnostics, Diagnostic{
					Sheet: g.Name, Section: sec.Kind, Row: row.Row + 1,
					Severity: SeverityWarning, Message: diag,
				})
			}
			if ok {
				rep.Records = append(rep.Records, rec)
			}
		}
	}
	rep.Records = RerankVolumes(rep.Records)

	cfg.logger().Info("volume report parsed",
		slog.String("report_date", meta.ReportDate.Format(domain.DateLayout)),
		slog.String("trade_date", tradeDate.Format(domain.DateLayout)),
		slog.String("session", string(meta.Session)),
		slog.Int("records", len(rep.Records)))
	return rep, nil
}

func volumeRecord(row RawSectionRow, cfg Config, tradeDate time.Time, session domain.SessionTag) (domain.ParticipantVolumeRecord, bool, string) {
	product := row.Text(RoleProduct)
	desc, ok := ParseContractDescriptor(row.Text(RoleContract))
	if !ok {
		return domain.ParticipantVolumeRecord{}, false, fmt.Sprintf("unrecognized contract %q", row.Text(RoleContract))
	}
	switch {
	case desc.Instrument.IsOption() && product != cfg.OptionProduct:
		return domain.ParticipantVolumeRecord{}, false, ""
	case !desc.Instrument.IsOption() && !cfg.wantProduct(product):
		return domain.ParticipantVolumeRecord{}, false, ""
	}

	vol := row.Quantity(RoleVolume)
	rec := domain.ParticipantVolumeRecord{
		TradeDate:         tradeDate,
		Product:           product,
		ContractMonth:     desc.ContractMonth,
		InstrumentType:    desc.Instrument,
		StrikePrice:       desc.Strike,
		ParticipantID:     row.Text(RoleParticipantID),
		ParticipantName:   row.Text(RoleParticipantName),
		ParticipantNameEN: row.Text(RoleParticipantNameEN),
		VolumeTotal:       vol,
	}
	if rank, ok := row.Int(RoleRank); ok {
		rec.Rank = rank
	}
	if session == domain.SessionNight {
		rec.VolumeNight = vol
	} else {
		rec.VolumeDay = vol
	}
	return rec, true, ""
}

// RerankVolumes orders records by contract and assigns 1-based ranks within
// each contract by descending total volume. Ties keep input order and absent
// volumes rank last.
func RerankVolumes(recs []domain.ParticipantVolumeRecord) []domain.ParticipantVolumeRecord {
	out := append([]domain.ParticipantVolumeRecord(nil), recs...)
	sort.SliceStable(out, func(i, j int) bool {
		ki, kj := out[i].ContractKey(), out[j].ContractKey()
		if ki != kj {
			return ki < kj
		}
		vi, oki := out[i].VolumeTotal.Get()
		vj, okj := out[j].VolumeTotal.Get()
		if oki != okj {
			return oki
		}
		return vi > vj
	})
	rank := 0
	for i := range out {
		if i == 0 || out[i].ContractKey() != out[i-1].ContractKey() {
			rank = 0
		}
		rank++
		out[i].Rank = rank
	}
	return out
}

type volumeKey struct {
	contract string
	pid      string
}

// MergeVolumeSessions combines the records of several session files for
// the same trading days (day, night, off-auction) into one record per
// participant and contract, summing each session column, then re-ranks.
func MergeVolumeSessions(lists ...[]domain.ParticipantVolumeRecord) []domain.ParticipantVolumeRecord {
	index := make(map[volumeKey]int)
	var out []domain.ParticipantVolumeRecord
	for _, recs := range lists {
		for _, r := range recs {
			k := volumeKey{contract: r.ContractKey(), pid: r.ParticipantID}
			i, ok := index[k]
			if !ok {
				index[k] = len(out)
				out = append(out, r)
				continue
			}
			m := &out[i]
			m.VolumeTotal = m.VolumeTotal.Add(r.VolumeTotal)
			m.VolumeDay = m.VolumeDay.Add(r.VolumeDay)
			m.VolumeNight = m.VolumeNight.Add(r.VolumeNight)
			if m.ParticipantName == "" {
				m.ParticipantName = r.ParticipantName
			}
			if m.ParticipantNameEN == "" {
				m.ParticipantNameEN = r.ParticipantNameEN
			}
		}
	}
	return RerankVolumes(out)
}
