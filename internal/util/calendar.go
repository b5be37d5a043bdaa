package util

import (
	"time"
)

// nseLocation is the NSE trading time zone. Loaded once; falls back to a
// fixed IST offset when the tz database is unavailable.
var nseLocation = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.FixedZone("IST", 5*3600+1800)
	}
	return loc
}()

// TradingCalendar provides market-hours awareness for the NSE equity
// derivatives session (09:15 to 15:30 IST, Monday to Friday).
type TradingCalendar struct {
	loc *time.Location
}

// NewTradingCalendar creates a TradingCalendar for NSE hours.
func NewTradingCalendar() *TradingCalendar {
	return &TradingCalendar{loc: nseLocation}
}

// IsMarketOpen returns whether the market is open at time t.
func (tc *TradingCalendar) IsMarketOpen(t time.Time) bool {
	t = t.In(tc.loc)
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	open := time.Date(t.Year(), t.Month(), t.Day(), 9, 15, 0, 0, tc.loc)
	end := time.Date(t.Year(), t.Month(), t.Day(), 15, 30, 0, 0, tc.loc)
	return !t.Before(open) && t.Before(end)
}

// SessionDate returns the trading date (YYYY-MM-DD in IST) that time t
// belongs to.
func (tc *TradingCalendar) SessionDate(t time.Time) string {
	return t.In(tc.loc).Format("2006-01-02")
}
