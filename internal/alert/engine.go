// Package alert evaluates one-shot price alerts against fresh quotes.
package alert

import (
	"fmt"
	"time"

	"TickerSentinel/internal/model"
)

// Check evaluates alerts against the quotes of one refresh cycle.
//
// Alerts whose symbol has no quote are left untouched. An unarmed alert is
// armed and skipped, so an alert never fires on the cycle it was created in.
// Armed alerts that trigger are removed from remaining and returned in fired.
func Check(alerts []model.PriceAlert, quotes []model.Quote, now time.Time) (remaining []model.PriceAlert, fired []model.FiredAlert) {
	bySymbol := make(map[string]*model.Quote, len(quotes))
	for i := range quotes {
		bySymbol[quotes[i].Symbol] = &quotes[i]
	}

	remaining = make([]model.PriceAlert, 0, len(alerts))
	for _, a := range alerts {
		q, ok := bySymbol[a.Symbol]
		if !ok {
			remaining = append(remaining, a)
			continue
		}
		if !a.Armed {
			a.Armed = true
			remaining = append(remaining, a)
			continue
		}
		price := q.DisplayPrice()
		if a.IsTriggered(price) {
			fired = append(fired, model.FiredAlert{
				Alert:    a,
				Price:    price,
				Currency: q.NormalizedCurrency(),
				FiredAt:  now,
			})
			continue
		}
		remaining = append(remaining, a)
	}
	return remaining, fired
}

// Title is the notification title for a fired alert.
func Title(f model.FiredAlert) string {
	return f.Alert.Symbol + " Price Alert"
}

// Body is the notification body, e.g.
// "AAPL is now $190.00, above your target of $189.00".
func Body(f model.FiredAlert) string {
	sym := model.CurrencySymbol(f.Currency)
	return fmt.Sprintf("%s is now %s%.2f, %s your target of %s%.2f",
		f.Alert.Symbol, sym, f.Price, f.Alert.Direction, sym, f.Alert.TargetPrice)
}

// ForSymbol returns the alerts on symbol, in list order.
func ForSymbol(alerts []model.PriceAlert, symbol string) []model.PriceAlert {
	var out []model.PriceAlert
	for _, a := range alerts {
		if a.Symbol == symbol {
			out = append(out, a)
		}
	}
	return out
}

// Remove drops the alert with id. The bool reports whether it was found.
func Remove(alerts []model.PriceAlert, id string) ([]model.PriceAlert, bool) {
	for i, a := range alerts {
		if a.ID == id {
			out := make([]model.PriceAlert, 0, len(alerts)-1)
			out = append(out, alerts[:i]...)
			return append(out, alerts[i+1:]...), true
		}
	}
	return alerts, false
}

// RemoveSymbol drops every alert on symbol.
func RemoveSymbol(alerts []model.PriceAlert, symbol string) []model.PriceAlert {
	out := make([]model.PriceAlert, 0, len(alerts))
	for _, a := range alerts {
		if a.Symbol != symbol {
			out = append(out, a)
		}
	}
	return out
}
