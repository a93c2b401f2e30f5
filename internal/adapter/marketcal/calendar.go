package marketcal

import (
	"strings"
	"sync"
	"time"

	"github.com/scmhub/calendar"

	"github.com/simaogato/shareledger/internal/logger"
)

const defaultMIC = "xnys"

// suffix -> ISO 10383 MIC
var suffixMIC = map[string]string{
	".NS": "xnse",
	".BO": "xbom",
	".L":  "xlon",
	".PA": "xpar",
	".DE": "xfra",
	".TO": "xtse",
	".HK": "xhkg",
	".T":  "xtks",
}

// TradingCalendar answers whether the exchange of a ticker is open
type TradingCalendar struct {
	MIC      string
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

// MICFor maps a ticker to the MIC of its listing exchange.
// Tickers without a known suffix trade on US exchanges.
func MICFor(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if i := strings.LastIndex(symbol, "."); i > 0 {
		if mic, ok := suffixMIC[symbol[i:]]; ok {
			return mic
		}
	}
	return defaultMIC
}

// Load builds the calendar for a MIC, falling back to NYSE and then to
// a plain Mon-Fri 09:30-16:00 New York session
func Load(mic string, log *logger.Logger) *TradingCalendar {
	cal := calendar.GetCalendar(mic)
	if cal == nil && mic != defaultMIC {
		log.Warning("No calendar for MIC '%s', using %s", mic, defaultMIC)
		cal = calendar.GetCalendar(defaultMIC)
	}

	if cal == nil {
		log.Warning("Failed to load calendar for MIC '%s', using Mon-Fri 09:30-16:00 New York", mic)
		ny, err := time.LoadLocation("America/New_York")
		if err != nil {
			ny = time.UTC
		}
		return &TradingCalendar{MIC: mic, Fallback: true, Timezone: ny}
	}

	return &TradingCalendar{MIC: mic, Calendar: cal, Timezone: cal.Loc}
}

// IsTradingDay reports whether date is a business day on the exchange
func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	if tc.Timezone != nil {
		date = date.In(tc.Timezone)
	}
	if tc.Fallback {
		wd := date.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(date)
}

// IsOpen reports whether the exchange is in session at t
func (tc *TradingCalendar) IsOpen(t time.Time) bool {
	if tc.Timezone != nil {
		t = t.In(tc.Timezone)
	}
	if !tc.Fallback {
		return tc.Calendar.IsOpen(t)
	}
	if !tc.IsTradingDay(t) {
		return false
	}
	minutes := t.Hour()*60 + t.Minute()
	return minutes >= 9*60+30 && minutes < 16*60
}

// Registry caches one calendar per MIC
type Registry struct {
	mu        sync.Mutex
	calendars map[string]*TradingCalendar
	log       *logger.Logger
}

// NewRegistry creates an empty Registry
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Discard()
	}
	return &Registry{
		calendars: make(map[string]*TradingCalendar),
		log:       log.Named("marketcal"),
	}
}

// For returns the calendar that governs symbol
func (r *Registry) For(symbol string) *TradingCalendar {
	mic := MICFor(symbol)

	r.mu.Lock()
	defer r.mu.Unlock()

	if tc, ok := r.calendars[mic]; ok {
		return tc
	}
	tc := Load(mic, r.log)
	r.calendars[mic] = tc
	return tc
}

// IsOpen reports whether the exchange of symbol is in session at t
func (r *Registry) IsOpen(symbol string, t time.Time) bool {
	return r.For(symbol).IsOpen(t)
}

// AnyOpen reports whether at least one of the symbols' exchanges is in session
func (r *Registry) AnyOpen(symbols []string, t time.Time) bool {
	for _, s := range symbols {
		if r.IsOpen(s, t) {
			return true
		}
	}
	return false
}
