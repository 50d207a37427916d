package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"TickerSentinel/internal/calculator"
	"TickerSentinel/internal/model"
)

// MenuText is the one-line ticker, e.g. "AAPL $185.23 ▲1.2%". The compact
// form drops the currency symbol.
func MenuText(q *model.Quote, showPercent, compact bool) string {
	if q == nil {
		return "Loading..."
	}
	arrow := "▼"
	if q.IsPositive() {
		arrow = "▲"
	}
	sym := q.CurrencySymbol()
	if compact {
		sym = ""
	}
	text := fmt.Sprintf("%s %s%.2f %s", q.Symbol, sym, q.DisplayPrice(), arrow)
	if showPercent {
		text += fmt.Sprintf("%.1f%%", math.Abs(q.ChangePercent()))
	}
	return text
}

func price(sym string, v float64) string {
	return fmt.Sprintf("%s%.2f", sym, v)
}

// FormatQuote formats the detail view of one quote.
func FormatQuote(q *model.Quote) string {
	var b strings.Builder
	sym := q.CurrencySymbol()

	b.WriteString(fmt.Sprintf("📈 <b>%s</b> %s\n", html.EscapeString(q.Symbol), html.EscapeString(q.Name)))
	b.WriteString(fmt.Sprintf("Price: %s (%+.2f, %+.2f%%)\n", price(sym, q.DisplayPrice()), q.DisplayChange(), q.ChangePercent()))
	b.WriteString(fmt.Sprintf("Prev close: %s\n", price(sym, q.DisplayPreviousClose())))

	high, low := q.DisplayDayHigh(), q.DisplayDayLow()
	if high == nil || low == nil {
		if h, l, err := calculator.IntradayRange(q.DisplayIntraday()); err == nil {
			high, low = &h, &l
		}
	}
	if high != nil && low != nil {
		b.WriteString(fmt.Sprintf("Day range: %s - %s\n", price(sym, *low), price(sym, *high)))
	}

	if p, c := q.DisplayPreMarketPrice(), q.DisplayPreMarketChange(); p != nil {
		b.WriteString(fmt.Sprintf("Pre-market: %s", price(sym, *p)))
		if c != nil {
			b.WriteString(fmt.Sprintf(" (%+.2f)", *c))
		}
		b.WriteString("\n")
	}
	if p, c := q.DisplayPostMarketPrice(), q.DisplayPostMarketChange(); p != nil {
		b.WriteString(fmt.Sprintf("After hours: %s", price(sym, *p)))
		if c != nil {
			b.WriteString(fmt.Sprintf(" (%+.2f)", *c))
		}
		b.WriteString("\n")
	}

	if h, l := q.DisplayHigh52w(), q.DisplayLow52w(); h != nil && l != nil {
		b.WriteString(fmt.Sprintf("52w: %s - %s", price(sym, *l), price(sym, *h)))
		if pos, err := calculator.RangePosition(q.DisplayPrice(), *h, *l); err == nil {
			b.WriteString(fmt.Sprintf(" (%.0f%%)", pos*100))
		}
		b.WriteString("\n")
	}
	if q.MarketState != "" {
		b.WriteString(fmt.Sprintf("Session: %s\n", q.MarketState))
	}
	return b.String()
}

// FormatWatchlist lists every quote on its own menu line.
func FormatWatchlist(snap *model.Snapshot, showPercent bool) string {
	var b strings.Builder
	b.WriteString("📋 <b>Watchlist</b>\n\n")
	for i := range snap.Quotes {
		b.WriteString(html.EscapeString(MenuText(&snap.Quotes[i], showPercent, false)))
		b.WriteString("\n")
	}
	if snap.Error != "" {
		b.WriteString(fmt.Sprintf("\n⚠️ %s\n", html.EscapeString(snap.Error)))
	}
	if !snap.LastUpdated.IsZero() {
		b.WriteString(fmt.Sprintf("\nUpdated %s", snap.LastUpdated.Format("15:04")))
	}
	return b.String()
}

// FormatPortfolio formats the valuation summary and per-holding breakdown.
func FormatPortfolio(sum model.PortfolioSummary, positions []calculator.Position, missing []string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("💼 <b>Portfolio</b> (%s)\n\n", sum.BaseCurrency))
	if len(positions) == 0 {
		b.WriteString("No holdings.\n")
		return b.String()
	}
	for _, p := range positions {
		b.WriteString(fmt.Sprintf("%s: %g sh, %s (%+.2f%%)\n",
			html.EscapeString(p.Symbol), p.Shares, model.FormatMoney(p.Value, sum.BaseCurrency), p.GainPercent))
	}
	b.WriteString("  ─────────────────\n")
	b.WriteString(fmt.Sprintf("Value: %s\n", model.FormatMoney(sum.Value, sum.BaseCurrency)))
	b.WriteString(fmt.Sprintf("Cost: %s\n", model.FormatMoney(sum.Cost, sum.BaseCurrency)))
	b.WriteString(fmt.Sprintf("Gain: %s (%+.2f%%)\n", model.FormatMoney(sum.Gain, sum.BaseCurrency), sum.GainPercent))
	if len(missing) > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ No rate for %s, valued 1:1\n", strings.Join(missing, ", ")))
	}
	return b.String()
}

// FormatAlerts lists pending alerts.
func FormatAlerts(alerts []model.PriceAlert) string {
	if len(alerts) == 0 {
		return "No price alerts."
	}
	var b strings.Builder
	b.WriteString("🔔 <b>Price alerts</b>\n\n")
	for _, a := range alerts {
		state := "pending"
		if a.Armed {
			state = "armed"
		}
		b.WriteString(fmt.Sprintf("%s %s %.2f [%s] <code>%s</code>\n",
			html.EscapeString(a.Symbol), a.Direction, a.TargetPrice, state, a.ID))
	}
	return b.String()
}

// FormatHistory lists fired alerts, newest first.
func FormatHistory(fired []model.FiredAlert) string {
	if len(fired) == 0 {
		return "No alerts have fired."
	}
	var b strings.Builder
	b.WriteString("🕘 <b>Alert history</b>\n\n")
	for _, f := range fired {
		b.WriteString(fmt.Sprintf("%s %s %s %.2f at %.2f %s\n",
			f.FiredAt.Format("Jan 2 15:04"), html.EscapeString(f.Alert.Symbol), f.Alert.Direction,
			f.Alert.TargetPrice, f.Price, html.EscapeString(f.Currency)))
	}
	return b.String()
}

// FormatSearch lists symbol search matches.
func FormatSearch(results []model.SearchResult) string {
	if len(results) == 0 {
		return "No matches."
	}
	var b strings.Builder
	for _, r := range results {
		b.WriteString(fmt.Sprintf("%s  %s", html.EscapeString(r.Symbol), html.EscapeString(r.Name)))
		if r.Exchange != "" {
			b.WriteString(fmt.Sprintf(" (%s)", html.EscapeString(r.Exchange)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatStartup is sent once when the service comes up.
func FormatStartup(symbols []string, interval time.Duration) string {
	return fmt.Sprintf("🟢 <b>TickerSentinel</b> started\nWatching %d symbols, refresh every %s",
		len(symbols), interval)
}

// HelpText lists the supported commands.
const HelpText = `<b>Commands</b>
/quote [SYM] - watchlist or one quote
/add SYM - add to watchlist
/remove SYM - remove from watchlist
/move SYM POS - reorder watchlist
/pin SYM - pin the shown symbol
/alert SYM above|below PRICE - add a price alert
/alerts [SYM] - list alerts
/unalert ID - remove an alert
/history [SYM] - recently fired alerts
/hold SYM SHARES COST - set a holding (0 shares removes)
/portfolio - portfolio valuation
/search QUERY - find symbols
/refresh - refresh now
/set KEY VALUE - refresh, rotation, base, percent, compact, hours
/dismiss [VERSION] - hide an update notice
/help - this message`
