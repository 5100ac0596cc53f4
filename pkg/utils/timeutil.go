package utils

import (
	"time"
)

// London is the Europe/London location used by the exchange.
var London *time.Location

func init() {
	var err error
	London, err = time.LoadLocation("Europe/London")
	if err != nil {
		// Fallback: tz database unavailable, ignore daylight saving
		London = time.FixedZone("GMT", 0)
	}
}

// NowLondon returns the current time in London.
func NowLondon() time.Time {
	return time.Now().In(London)
}

// YearsAgo returns the calendar year that lies n years before t.
func YearsAgo(t time.Time, n int) int {
	return t.In(London).AddDate(-n, 0, 0).Year()
}

// MarketOpenTime returns the LSE continuous trading open (08:00 London) for a given date.
func MarketOpenTime(date time.Time) time.Time {
	d := date.In(London)
	return time.Date(d.Year(), d.Month(), d.Day(), 8, 0, 0, 0, London)
}

// MarketCloseTime returns the LSE continuous trading close (16:30 London) for a given date.
func MarketCloseTime(date time.Time) time.Time {
	d := date.In(London)
	return time.Date(d.Year(), d.Month(), d.Day(), 16, 30, 0, 0, London)
}

// IsMarketOpenAt checks if the LSE order book would be open at the given time.
// Bank holidays are not taken into account.
func IsMarketOpenAt(t time.Time) bool {
	t = t.In(London)
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !t.Before(MarketOpenTime(t)) && t.Before(MarketCloseTime(t))
}

// MarketStatus returns the current market status string.
func MarketStatus() string {
	return MarketStatusAt(NowLondon())
}

// MarketStatusAt returns the market status at t.
func MarketStatusAt(t time.Time) string {
	t = t.In(London)
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return "CLOSED (Weekend)"
	}

	switch {
	case t.Before(MarketOpenTime(t)):
		return "PRE-MARKET"
	case t.Before(MarketCloseTime(t)):
		return "OPEN"
	default:
		return "CLOSED"
	}
}

// FormatDateTimeLondon formats a time.Time to "2006-01-02 15:04:05 MST" in London.
func FormatDateTimeLondon(t time.Time) string {
	return t.In(London).Format("2006-01-02 15:04:05 MST")
}
