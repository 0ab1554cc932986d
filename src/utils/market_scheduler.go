package utils

import (
	"time"

	"options-observer/src/logger"
)

// MarketScheduler groups the configured tickers by exchange calendar.
type MarketScheduler struct {
	Calendars map[string]*TradingCalendar // keyed by MIC
	Logger    *logger.Logger
}

// -----------------------------------------------------------------------------

func NewMarketScheduler(symbols []string, l *logger.Logger) *MarketScheduler {
	ms := &MarketScheduler{
		Calendars: make(map[string]*TradingCalendar),
		Logger:    l,
	}

	for _, symbol := range symbols {
		mic := MICForSymbol(symbol)
		if _, ok := ms.Calendars[mic]; ok {
			continue
		}
		cal := GetCalendar(symbol)
		if cal.Fallback {
			l.Warning("No calendar data for %s, using Monday to Friday", mic)
		}
		ms.Calendars[mic] = cal
	}

	l.Info("Mapped %d symbols to %d calendars", len(symbols), len(ms.Calendars))
	return ms
}

// -----------------------------------------------------------------------------

// AnyTradingDay reports whether at least one tracked exchange trades on date.
func (ms *MarketScheduler) AnyTradingDay(date time.Time) bool {
	for _, cal := range ms.Calendars {
		if cal.IsTradingDay(date) {
			return true
		}
	}
	return false
}
