package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"jpxcli/internal/aggregation"
	"jpxcli/internal/calendar"
	"jpxcli/internal/dataprocessing"
	apperrors "jpxcli/internal/errors"
	"jpxcli/pkg/contracts/domain"
)

// EnvPrefix prefixes every environment variable, e.g. JPX_SERVER_PORT.
const EnvPrefix = "JPX"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Parsing   ParsingConfig   `yaml:"parsing" envconfig:"PARSING"`
	Calendar  CalendarConfig  `yaml:"calendar" envconfig:"CALENDAR"`
	Display   DisplayConfig   `yaml:"display" envconfig:"DISPLAY"`
	GEX       GEXConfig       `yaml:"gex" envconfig:"GEX"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig contains request limits
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	// MaxUploadBytes caps one uploaded workbook.
	MaxUploadBytes int64 `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`
	Format string `yaml:"format" envconfig:"FORMAT"`
	// Output is console, file or both.
	Output     string `yaml:"output" envconfig:"OUTPUT"`
	FilePath   string `yaml:"file_path" envconfig:"FILE_PATH"`
	MaxSizeMB  int    `yaml:"max_size_mb" envconfig:"MAX_SIZE_MB"`
	MaxBackups int    `yaml:"max_backups" envconfig:"MAX_BACKUPS"`
	MaxAgeDays int    `yaml:"max_age_days" envconfig:"MAX_AGE_DAYS"`
	Compress   bool   `yaml:"compress" envconfig:"COMPRESS"`
}

// TelemetryConfig controls tracing and metrics
type TelemetryConfig struct {
	ServiceName string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	// Traces is "stdout" or "none".
	Traces  string `yaml:"traces" envconfig:"TRACES"`
	Metrics bool   `yaml:"metrics" envconfig:"METRICS"`
}

// PathsConfig contains file system paths. Relative paths resolve against
// BaseDir, which defaults to the executable's directory.
type PathsConfig struct {
	BaseDir    string `yaml:"base_dir" envconfig:"BASE_DIR"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`
	OutputDir  string `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// ParsingConfig tunes the workbook parsers. Empty fields keep the built-in
// layouts.
type ParsingConfig struct {
	MaxConcurrency int      `yaml:"max_concurrency" envconfig:"MAX_CONCURRENCY"`
	HeaderWindow   int      `yaml:"header_window" envconfig:"HEADER_WINDOW"`
	Products       []string `yaml:"products" envconfig:"PRODUCTS"`
	OptionProduct  string   `yaml:"option_product" envconfig:"OPTION_PRODUCT"`
	DailyOISheet   int      `yaml:"daily_oi_sheet" envconfig:"DAILY_OI_SHEET"`
	SummaryMarkers []string `yaml:"summary_markers" envconfig:"SUMMARY_MARKERS"`
	NightMarkers   []string `yaml:"night_markers" envconfig:"NIGHT_MARKERS"`
	// HeaderSynonyms adds header texts per column role, e.g. quantity: [ポジション].
	HeaderSynonyms map[string][]string `yaml:"header_synonyms" ignored:"true"`
	// Sections replaces the section rules of a report kind.
	Sections map[string][]dataprocessing.SectionRule `yaml:"sections" ignored:"true"`
}

// CalendarConfig describes the trading calendar. TradingDays wins over the
// weekday range when both are set.
type CalendarConfig struct {
	TradingDays []string `yaml:"trading_days" envconfig:"TRADING_DAYS"`
	From        string   `yaml:"from" envconfig:"FROM"`
	To          string   `yaml:"to" envconfig:"TO"`
	Holidays    []string `yaml:"holidays" envconfig:"HOLIDAYS"`
}

// DisplayConfig holds the strike band presets.
type DisplayConfig struct {
	StrikeStep int `yaml:"strike_step" envconfig:"STRIKE_STEP"`
	// Presets map a name to a band half-width in steps; negative shows all strikes.
	Presets       map[string]int `yaml:"presets" envconfig:"PRESETS"`
	DefaultPreset string         `yaml:"default_preset" envconfig:"DEFAULT_PRESET"`
	MaxWeeks      int            `yaml:"max_weeks" envconfig:"MAX_WEEKS"`
}

// GEXConfig holds the gamma exposure model inputs used when a request
// leaves them out.
type GEXConfig struct {
	Spot       float64 `yaml:"spot" envconfig:"SPOT"`
	Sigma      float64 `yaml:"sigma" envconfig:"SIGMA"`
	Rate       float64 `yaml:"rate" envconfig:"RATE"`
	Multiplier float64 `yaml:"multiplier" envconfig:"MULTIPLIER"`
}

// ExportConfig selects the export format and destination.
type ExportConfig struct {
	Format string `yaml:"format" envconfig:"FORMAT"`
	Dir    string `yaml:"dir" envconfig:"DIR"`
	// BOM prefixes CSV output with a UTF-8 byte order mark for spreadsheet tools.
	BOM bool `yaml:"bom" envconfig:"BOM"`
}

var exportFormats = []string{"csv", "json", "parquet", "xlsx"}

// Load reads .env, the YAML config file and the environment, in that order
// of increasing precedence, on top of Default().
func Load() (*Config, error) {
	return LoadFile(getConfigFilePath())
}

// LoadFile is Load with an explicit YAML file. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, apperrors.NewConfigError("failed to load .env", err)
	}

	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err).WithContext("path", path)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, apperrors.NewConfigError("failed to resolve paths", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, apperrors.NewConfigError("config validation failed", err)
	}

	return cfg, nil
}

func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func (c *Config) resolvePaths() error {
	if c.Paths.BaseDir == "" {
		paths, err := GetPaths()
		if err != nil {
			return err
		}
		c.Paths.BaseDir = paths.ExecutableDir
	}
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(c.Paths.BaseDir, p)
	}
	c.Paths.ReportsDir = abs(c.Paths.ReportsDir)
	c.Paths.OutputDir = abs(c.Paths.OutputDir)
	c.Paths.LogsDir = abs(c.Paths.LogsDir)
	if c.Export.Dir == "" {
		c.Export.Dir = c.Paths.OutputDir
	}
	c.Export.Dir = abs(c.Export.Dir)
	if c.Logging.FilePath != "" && !filepath.IsAbs(c.Logging.FilePath) {
		c.Logging.FilePath = filepath.Join(c.Paths.LogsDir, c.Logging.FilePath)
	}
	return nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.RateLimit.Enabled && (c.Security.RateLimit.RPS <= 0 || c.Security.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit needs positive rps and burst")
	}

	if c.Security.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive")
	}

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid logging output: %q", c.Logging.Output)
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging output %q needs a file path", c.Logging.Output)
	}

	switch c.Telemetry.Traces {
	case "stdout", "none", "":
	default:
		return fmt.Errorf("invalid traces exporter: %q", c.Telemetry.Traces)
	}

	if c.Parsing.MaxConcurrency <= 0 {
		return fmt.Errorf("parsing max concurrency must be positive")
	}

	if c.Parsing.HeaderWindow < 0 {
		return fmt.Errorf("header window must not be negative")
	}

	for kind := range c.Parsing.Sections {
		if _, err := domain.ParseReportKind(kind); err != nil {
			return fmt.Errorf("parsing sections: %w", err)
		}
	}

	if _, err := c.Calendar.dates(); err != nil {
		return err
	}

	if c.Display.StrikeStep <= 0 {
		return fmt.Errorf("strike step must be positive")
	}

	if _, ok := c.Display.Presets[c.Display.DefaultPreset]; !ok {
		return fmt.Errorf("default preset %q is not defined", c.Display.DefaultPreset)
	}

	if c.GEX.Spot <= 0 || c.GEX.Sigma <= 0 || c.GEX.Multiplier <= 0 {
		return fmt.Errorf("gex model inputs must be positive, got %+v", c.GEX)
	}

	if !contains(exportFormats, c.Export.Format) {
		return fmt.Errorf("invalid export format %q, want one of %s", c.Export.Format, strings.Join(exportFormats, ", "))
	}

	return nil
}

// Dataprocessing merges the parsing overrides into the built-in layouts.
func (p ParsingConfig) Dataprocessing() dataprocessing.Config {
	cfg := dataprocessing.DefaultConfig()
	if p.HeaderWindow > 0 {
		cfg.HeaderWindow = p.HeaderWindow
	}
	if p.Products != nil {
		cfg.Products = p.Products
	}
	if p.OptionProduct != "" {
		cfg.OptionProduct = p.OptionProduct
	}
	if p.DailyOISheet > 0 {
		cfg.DailyOISheet = p.DailyOISheet
	}
	if len(p.SummaryMarkers) > 0 {
		cfg.SummaryMarkers = p.SummaryMarkers
	}
	if len(p.NightMarkers) > 0 {
		cfg.Metadata.NightMarkers = p.NightMarkers
	}
	if len(p.HeaderSynonyms) > 0 {
		cfg.Headers = cfg.Headers.With(p.HeaderSynonyms)
	}
	for kind, rules := range p.Sections {
		if k, err := domain.ParseReportKind(kind); err == nil {
			cfg.Sections[k] = rules
		}
	}
	return cfg
}

// Build returns the configured trading calendar, or nil when none is
// configured. Without a calendar night-session reports cannot be dated.
func (c CalendarConfig) Build() (*calendar.Calendar, error) {
	d, err := c.dates()
	if err != nil {
		return nil, err
	}
	switch {
	case len(d.trading) > 0:
		return calendar.New(d.trading), nil
	case !d.from.IsZero():
		return calendar.FromWeekdays(d.from, d.to, d.holidays), nil
	}
	return nil, nil
}

type calendarDates struct {
	trading, holidays []time.Time
	from, to          time.Time
}

func (c CalendarConfig) dates() (calendarDates, error) {
	var d calendarDates
	var err error
	if d.trading, err = parseDates(c.TradingDays); err != nil {
		return d, fmt.Errorf("calendar trading days: %w", err)
	}
	if d.holidays, err = parseDates(c.Holidays); err != nil {
		return d, fmt.Errorf("calendar holidays: %w", err)
	}
	if (c.From == "") != (c.To == "") {
		return d, fmt.Errorf("calendar needs both from and to")
	}
	if c.From == "" {
		return d, nil
	}
	if d.from, err = time.Parse(domain.DateLayout, c.From); err != nil {
		return d, fmt.Errorf("calendar from: %w", err)
	}
	if d.to, err = time.Parse(domain.DateLayout, c.To); err != nil {
		return d, fmt.Errorf("calendar to: %w", err)
	}
	if d.to.Before(d.from) {
		return d, fmt.Errorf("calendar range ends before it starts")
	}
	return d, nil
}

func parseDates(values []string) ([]time.Time, error) {
	out := make([]time.Time, 0, len(values))
	for _, v := range values {
		t, err := time.Parse(domain.DateLayout, strings.TrimSpace(v))
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Band returns the strike band for a preset centered on center. An empty
// preset selects DefaultPreset.
func (d DisplayConfig) Band(preset string, center int) (aggregation.Band, error) {
	if preset == "" {
		preset = d.DefaultPreset
	}
	width, ok := d.Presets[preset]
	if !ok {
		return aggregation.Band{}, fmt.Errorf("unknown band preset %q", preset)
	}
	return aggregation.Band{Center: center, Step: d.StrikeStep, Width: width}, nil
}

func getConfigFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return p
	}

	locations := []string{
		"jpxreport.yaml",
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     10,
				Burst:   20,
			},
			MaxUploadBytes: 32 << 20,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			Output:     "console",
			FilePath:   "jpxreport.log",
			MaxSizeMB:  100,
			MaxBackups: 10,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "jpxreport",
			Traces:      "none",
			Metrics:     true,
		},
		Paths: PathsConfig{
			ReportsDir: "data/reports",
			OutputDir:  "data/output",
			LogsDir:    "logs",
		},
		Parsing: ParsingConfig{
			MaxConcurrency: 4,
		},
		Display: DisplayConfig{
			StrikeStep: 250,
			Presets: map[string]int{
				"atm5":  5,
				"atm10": 10,
				"atm20": 20,
				"all":   -1,
			},
			DefaultPreset: "atm10",
			MaxWeeks:      26,
		},
		GEX: GEXConfig{
			Spot:       38500,
			Sigma:      aggregation.DefaultSigma,
			Rate:       aggregation.DefaultRate,
			Multiplier: aggregation.DefaultMultiplier,
		},
		Export: ExportConfig{
			Format: "csv",
			BOM:    true,
		},
	}
}
