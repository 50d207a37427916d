package scheduler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"TickerSentinel/internal/collector"
	"TickerSentinel/internal/model"
	"TickerSentinel/internal/notifier"
	"TickerSentinel/internal/search"
)

// HandleCommand processes a chat command and returns a reply. An empty
// reply means nothing should be sent.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.HelpText
	}
	name := strings.ToLower(fields[0])
	if i := strings.IndexByte(name, '@'); i > 0 {
		name = name[:i] // "/quote@SomeBot"
	}
	args := fields[1:]

	switch name {
	case "/quote":
		return s.cmdQuote(ctx, args)
	case "/add":
		if len(args) != 1 {
			return "Usage: /add SYM"
		}
		q, err := s.AddSymbol(ctx, args[0])
		if err != nil {
			return errorReply(err)
		}
		return fmt.Sprintf("Added %s (%s)", html.EscapeString(q.Symbol), html.EscapeString(q.Name))
	case "/remove":
		if len(args) != 1 {
			return "Usage: /remove SYM"
		}
		if err := s.RemoveSymbol(ctx, args[0]); err != nil {
			return errorReply(err)
		}
		return "Removed " + html.EscapeString(model.NormalizeSymbol(args[0]))
	case "/move":
		if len(args) != 2 {
			return "Usage: /move SYM POS"
		}
		pos, err := strconv.Atoi(args[1])
		if err != nil || pos < 1 {
			return "Position must be a number starting at 1"
		}
		if err := s.MoveSymbol(ctx, args[0], pos-1); err != nil {
			return errorReply(err)
		}
		return s.watchlistReply(ctx)
	case "/pin":
		if len(args) != 1 {
			return "Usage: /pin SYM"
		}
		if err := s.SetPinned(ctx, args[0]); err != nil {
			return errorReply(err)
		}
		return "Pinned " + html.EscapeString(model.NormalizeSymbol(args[0]))
	case "/alert":
		return s.cmdAlert(ctx, args)
	case "/alerts":
		sym := ""
		if len(args) > 0 {
			sym = args[0]
		}
		alerts, err := s.Alerts(ctx, sym)
		if err != nil {
			return errorReply(err)
		}
		return notifier.FormatAlerts(alerts)
	case "/unalert":
		if len(args) != 1 {
			return "Usage: /unalert ID"
		}
		if err := s.RemoveAlert(ctx, args[0]); err != nil {
			return errorReply(err)
		}
		return "Alert removed"
	case "/history":
		sym := ""
		if len(args) > 0 {
			sym = args[0]
		}
		fired, err := s.AlertHistory(ctx, sym)
		if err != nil {
			return errorReply(err)
		}
		return notifier.FormatHistory(fired)
	case "/hold":
		return s.cmdHold(ctx, args)
	case "/portfolio":
		p, err := s.Portfolio(ctx)
		if err != nil {
			return errorReply(err)
		}
		return notifier.FormatPortfolio(p.Summary, p.Positions, p.Missing)
	case "/search":
		if len(args) == 0 {
			return "Usage: /search QUERY"
		}
		results, err := s.Search.Search(ctx, strings.Join(args, " "))
		if errors.Is(err, search.ErrSuperseded) {
			return ""
		}
		if err != nil {
			return errorReply(err)
		}
		return notifier.FormatSearch(results)
	case "/refresh":
		if err := s.RefreshNow(ctx); err != nil {
			return errorReply(err)
		}
		return s.watchlistReply(ctx)
	case "/set":
		return s.cmdSet(ctx, args)
	case "/dismiss":
		version := ""
		if len(args) > 0 {
			version = strings.TrimPrefix(args[0], "v")
		}
		v, err := s.DismissUpdate(ctx, version)
		if err != nil {
			return errorReply(err)
		}
		if v == "" {
			return "No update to dismiss"
		}
		return "Dismissed version " + html.EscapeString(v)
	default:
		return notifier.HelpText
	}
}

func errorReply(err error) string {
	var verr *collector.ValidationError
	switch {
	case errors.As(err, &verr):
		return html.EscapeString(verr.Error())
	case errors.Is(err, collector.ErrAuth):
		return "Unable to validate symbol, try again later"
	default:
		return "Error: " + html.EscapeString(err.Error())
	}
}

func (s *Scheduler) watchlistReply(ctx context.Context) string {
	settings, err := s.Settings(ctx)
	if err != nil {
		return errorReply(err)
	}
	return notifier.FormatWatchlist(s.Snapshot(), settings.ShowPercentChange)
}

func (s *Scheduler) cmdQuote(ctx context.Context, args []string) string {
	if len(args) == 0 {
		return s.watchlistReply(ctx)
	}
	sym := model.NormalizeSymbol(args[0])
	for _, q := range s.Snapshot().Quotes {
		if q.Symbol == sym {
			return notifier.FormatQuote(&q)
		}
	}
	return fmt.Sprintf("No quote for %s", html.EscapeString(sym))
}

func (s *Scheduler) cmdAlert(ctx context.Context, args []string) string {
	if len(args) != 3 {
		return "Usage: /alert SYM above|below PRICE"
	}
	dir := model.Direction(strings.ToLower(args[1]))
	target, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return "Price must be a number"
	}
	a, err := s.AddAlert(ctx, args[0], dir, target)
	if err != nil {
		return errorReply(err)
	}
	return fmt.Sprintf("Alert set: %s %s %.2f", html.EscapeString(a.Symbol), a.Direction, a.TargetPrice)
}

func (s *Scheduler) cmdHold(ctx context.Context, args []string) string {
	if len(args) != 3 {
		return "Usage: /hold SYM SHARES COST"
	}
	shares, err1 := strconv.ParseFloat(args[1], 64)
	cost, err2 := strconv.ParseFloat(args[2], 64)
	if err1 != nil || err2 != nil {
		return "Shares and cost must be numbers"
	}
	if err := s.SetHolding(ctx, args[0], shares, cost); err != nil {
		return errorReply(err)
	}
	sym := html.EscapeString(model.NormalizeSymbol(args[0]))
	if shares == 0 {
		return "Holding removed: " + sym
	}
	return fmt.Sprintf("Holding set: %s %g @ %.2f", sym, shares, cost)
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	return strconv.ParseBool(v)
}

func (s *Scheduler) cmdSet(ctx context.Context, args []string) string {
	const usage = "Usage: /set refresh DUR | rotation on|off|DUR | base CUR | percent on|off | compact on|off | hours on|off"
	if len(args) != 2 {
		return usage
	}
	key, val := strings.ToLower(args[0]), args[1]

	var err error
	switch key {
	case "refresh":
		var d time.Duration
		if d, err = time.ParseDuration(val); err != nil {
			return "Invalid duration, e.g. 60s or 5m"
		}
		err = s.SetRefreshInterval(ctx, d)
	case "rotation":
		if on, perr := parseBool(val); perr == nil {
			err = s.SetRotation(ctx, on, 0)
			break
		}
		d, perr := time.ParseDuration(val)
		if perr != nil {
			return "Invalid value, use on, off or a duration"
		}
		err = s.SetRotation(ctx, true, d)
	case "base":
		err = s.SetBaseCurrency(ctx, val)
	case "percent", "compact":
		on, perr := parseBool(val)
		if perr != nil {
			return usage
		}
		settings, serr := s.Settings(ctx)
		if serr != nil {
			return errorReply(serr)
		}
		percent, compact := settings.ShowPercentChange, settings.CompactDisplay
		if key == "percent" {
			percent = on
		} else {
			compact = on
		}
		err = s.SetDisplay(ctx, percent, compact)
	case "hours":
		on, perr := parseBool(val)
		if perr != nil {
			return usage
		}
		err = s.SetMarketHoursOnly(ctx, on)
	default:
		return usage
	}
	if err != nil {
		return errorReply(err)
	}
	return "Settings updated"
}
