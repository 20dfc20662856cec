package dataprocessing

import (
	"log/slog"

	"jpxcli/pkg/contracts/domain"
)

// Config is everything the report parsers need to recognize a layout.
// Nothing here is read from process-wide state; callers pass it per call.
type Config struct {
	Sections       map[domain.ReportKind][]SectionRule
	Headers        HeaderSynonyms
	Markers        SideMarkers
	SummaryMarkers []string
	Metadata       MetadataConfig
	HeaderWindow   int
	// StartRow per report kind; rows above belong to the title band.
	StartRow map[domain.ReportKind]int
	// Products restricts futures records to these product codes. Empty keeps all.
	Products []string
	// OptionProduct is the product code of index options in volume reports
	// and the product assigned to option open interest records.
	OptionProduct string
	// DailyOISheet is the zero-based sheet holding the per-strike balance.
	DailyOISheet int
	Logger       *slog.Logger
}

// DefaultConfig returns the layouts of the JPX participant reports.
func DefaultConfig() Config {
	return Config{
		Sections: map[domain.ReportKind][]SectionRule{
			domain.ReportFuturesOI: {
				{Kind: "NK225MF", Keywords: []string{"mini", "ミニ"}, Require: []string{"225"}},
				{Kind: "NK225F", Keywords: []string{"225"}, Exclude: []string{"mini", "ミニ", "micro", "マイクロ"}},
				{Kind: "TOPIXF", Keywords: []string{"topix"}, Exclude: []string{"mini", "ミニ"}},
			},
			domain.ReportOptionOI: {
				{Kind: string(domain.InstrumentPut), Keywords: []string{"put", "プット"}, Required: true},
				{Kind: string(domain.InstrumentCall), Keywords: []string{"call", "コール"}, Required: true},
			},
			domain.ReportVolume: {
				{Kind: "volume"},
			},
			domain.ReportDailyOI: {
				{Kind: string(domain.InstrumentPut), Keywords: []string{"put", "プット"}},
				{Kind: string(domain.InstrumentCall), Keywords: []string{"call", "コール"}},
			},
		},
		Headers: HeaderSynonyms{
			{Role: RoleRank, Synonyms: []string{"順位", "rank"}},
			{Role: RoleProduct, Synonyms: []string{"商品", "product"}},
			{Role: RoleIssueCode, Synonyms: []string{"銘柄コード", "issue code"}},
			{Role: RoleContract, Synonyms: []string{"銘柄名", "contract issue", "contract"}},
			{Role: RoleContractMonth, Synonyms: []string{"限月", "contract month"}},
			{Role: RoleStrike, Synonyms: []string{"権利行使価格", "行使価格", "strike price", "strike"}},
			{Role: RoleParticipantID, Synonyms: []string{"参加者コード", "取引参加者コード", "participant code", "participant id"}},
			{Role: RoleParticipantName, Synonyms: []string{"参加者名", "取引参加者名", "participant name", "participant name (jp)"}},
			{Role: RoleParticipantNameEN, Synonyms: []string{"参加者名（英）", "参加者名(英語)", "participant name (en)", "participant name (english)"}},
			{Role: RoleSideFlag, Synonyms: []string{"売買区分", "side"}},
			{Role: RoleQuantity, Synonyms: []string{"建玉残高", "残高", "open interest"}},
			{Role: RoleVolume, Synonyms: []string{"取引高", "volume"}},
			{Role: RoleTradingVolume, Synonyms: []string{"売買高", "trading volume"}},
			{Role: RoleCurrentOI, Synonyms: []string{"当日残高", "当日建玉", "当日建玉残高", "current open interest", "open interest (current)"}},
			{Role: RoleNetChange, Synonyms: []string{"前日比", "増減", "change"}},
			{Role: RolePreviousOI, Synonyms: []string{"前日残高", "前日建玉", "前日建玉残高", "previous open interest", "open interest (previous)"}},
		},
		Markers: SideMarkers{
			Long:  []string{"買超", "買建", "long", "buy"},
			Short: []string{"売超", "売建", "short", "sell"},
		},
		SummaryMarkers: []string{"合計", "小計", "total"},
		Metadata: MetadataConfig{
			BandRows:     8,
			BandCols:     12,
			NightMarkers: []string{"night", "夜間", "ナイト"},
		},
		HeaderWindow: 4,
		StartRow: map[domain.ReportKind]int{
			domain.ReportFuturesOI: 3,
			domain.ReportOptionOI:  3,
		},
		Products:      []string{"NK225F", "NK225MF", "TOPIXF"},
		OptionProduct: "NK225E",
		DailyOISheet:  1,
	}
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c Config) locator(kind domain.ReportKind) LocatorConfig {
	return LocatorConfig{
		Rules:        c.Sections[kind],
		Headers:      c.Headers,
		Markers:      c.Markers,
		StartRow:     c.StartRow[kind],
		HeaderWindow: c.HeaderWindow,
		Logger:       c.logger(),
	}
}

func (c Config) rowOptions() RowOptions {
	return RowOptions{SummaryMarkers: c.SummaryMarkers, SideFlags: c.Markers}
}

func (c Config) wantProduct(p string) bool {
	if len(c.Products) == 0 {
		return true
	}
	for _, want := range c.Products {
		if want == p {
			return true
		}
	}
	return false
}
