// Package config loads the jpxreport configuration.
//
// # Configuration Sources
//
// Sources are applied in order of increasing precedence:
//
//  1. Default values
//  2. The YAML file named by JPX_CONFIG, or the first of jpxreport.yaml,
//     config.yaml and configs/config.yaml that exists
//  3. Environment variables, including those loaded from .env
//
// # Environment Variables
//
// Variables follow the pattern JPX_<SECTION>_<FIELD>:
//
//	JPX_SERVER_PORT=8080
//	JPX_LOGGING_LEVEL=debug
//	JPX_PARSING_MAX_CONCURRENCY=8
//	JPX_CALENDAR_HOLIDAYS=2026-01-12,2026-02-11
//	JPX_DISPLAY_PRESETS=atm5:5,atm10:10,all:-1
//
// Header synonyms and section rules are YAML-only.
//
// # Domain Helpers
//
// The parsing, calendar and display sections convert into the types the
// parsers and aggregators take:
//
//	cfg, err := config.Load()
//	parseCfg := cfg.Parsing.Dataprocessing()
//	cal, err := cfg.Calendar.Build()
//	band, err := cfg.Display.Band("atm10", 38500)
package config
