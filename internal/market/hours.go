// Package market decides whether an instrument's home exchange is in its
// regular trading session.
package market

import (
	"strings"
	"sync"
	"time"
	_ "time/tzdata" // exchange zones on hosts without zoneinfo

	"TickerSentinel/internal/model"
)

// DefaultTimezone is assumed for quotes that carry no exchange timezone.
const DefaultTimezone = "America/New_York"

// Session is a local trading window in minutes after midnight. Open is
// inclusive and Close is exclusive.
type Session struct {
	Open  int
	Close int
}

func hm(h, m int) int { return h*60 + m }

var (
	sessionUS     = Session{hm(9, 30), hm(16, 0)}
	sessionLondon = Session{hm(8, 0), hm(16, 30)}
	sessionEurope = Session{hm(9, 0), hm(17, 30)}
	sessionTokyo  = Session{hm(9, 0), hm(15, 0)}
	sessionChina  = Session{hm(9, 30), hm(16, 0)}
)

// SessionFor returns the approximate regular session for a timezone.
func SessionFor(tz string) Session {
	switch {
	case strings.HasPrefix(tz, "Europe/London"):
		return sessionLondon
	case strings.HasPrefix(tz, "Europe/"):
		return sessionEurope
	case strings.HasPrefix(tz, "Asia/Tokyo"):
		return sessionTokyo
	case strings.HasPrefix(tz, "Asia/Hong_Kong"), strings.HasPrefix(tz, "Asia/Shanghai"):
		return sessionChina
	default:
		return sessionUS
	}
}

var (
	locMu    sync.Mutex
	locCache = map[string]*time.Location{}
)

func location(tz string) (*time.Location, bool) {
	locMu.Lock()
	defer locMu.Unlock()
	if loc, ok := locCache[tz]; ok {
		return loc, loc != nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = nil
	}
	locCache[tz] = loc
	return loc, loc != nil
}

// IsOpen reports whether the exchange in timezone tz is open at now. An
// empty tz means New York. Unknown timezones are treated as open so they
// never block display.
func IsOpen(tz string, now time.Time) bool {
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, ok := location(tz)
	if !ok {
		return true
	}
	local := now.In(loc)
	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	minute := hm(local.Hour(), local.Minute())
	s := SessionFor(tz)
	return minute >= s.Open && minute < s.Close
}

// QuoteOpen reports whether q's exchange is open at now.
func QuoteOpen(q *model.Quote, now time.Time) bool {
	return IsOpen(q.Timezone, now)
}

// AnyOpen reports whether any quote's exchange is open. With no quotes it
// falls back to the New York session.
func AnyOpen(quotes []model.Quote, now time.Time) bool {
	if len(quotes) == 0 {
		return IsOpen(DefaultTimezone, now)
	}
	for i := range quotes {
		if QuoteOpen(&quotes[i], now) {
			return true
		}
	}
	return false
}
