package scheduler

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"TickerSentinel/internal/alert"
	"TickerSentinel/internal/calculator"
	"TickerSentinel/internal/collector"
	"TickerSentinel/internal/common"
	"TickerSentinel/internal/display"
	"TickerSentinel/internal/market"
	"TickerSentinel/internal/model"
	"TickerSentinel/internal/notifier"
	"TickerSentinel/internal/search"
	"TickerSentinel/internal/store"
	"TickerSentinel/internal/updatecheck"
)

const (
	msgAuthFailed = "Authentication failed"
	msgNoQuotes   = "Unable to fetch quotes"
)

// ErrStopped is returned by commands submitted after Stop.
var ErrStopped = errors.New("scheduler stopped")

// Publisher receives every snapshot produced by a refresh cycle.
type Publisher interface {
	Publish(ctx context.Context, snap *model.Snapshot) error
}

// Scheduler coordinates refresh cycles, display rotation and every user
// mutation. All mutable state is owned by the loop goroutine; other
// goroutines reach it only through submitted closures.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Store     store.Store
	Notifier  notifier.Notifier
	Publisher Publisher            // optional
	Updates   *updatecheck.Checker // optional
	Search    *search.Debouncer
	Now       func() time.Time

	logger *common.Logger

	cmds    chan func()
	stopped chan struct{}
	done    chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc

	snap atomic.Pointer[model.Snapshot]

	// Owned by the loop goroutine.
	settings    *model.Settings
	quotes      []model.Quote
	rates       model.ExchangeRates
	missing     []string
	lastUpdated time.Time
	loading     bool
	errMsg      string
	inFlight    bool
	waiters     []chan struct{}
	rotator     *display.Rotator
	refreshID   cron.EntryID
	rotateID    cron.EntryID
	offered     string // latest release announced to the user
}

// NewScheduler creates a Scheduler. Start loads settings and begins work.
func NewScheduler(col *collector.Collector, st store.Store, n notifier.Notifier, logger *common.Logger) *Scheduler {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	s := &Scheduler{
		Collector: col,
		Store:     st,
		Notifier:  n,
		Now:       time.Now,
		logger:    logger,
		cmds:      make(chan func()),
		stopped:   make(chan struct{}),
		done:      make(chan struct{}),
	}
	s.Cron = cron.New(cron.WithChain(
		cron.Recover(cron.PrintfLogger(logger)),
		cron.SkipIfStillRunning(cron.PrintfLogger(logger)),
	))
	s.Search = search.NewDebouncer(search.DefaultDelay, col.Search)
	s.snap.Store(&model.Snapshot{Loading: true})
	return s
}

// Start loads the persisted settings, starts the loop and the timers, and
// kicks off the initial refresh.
func (s *Scheduler) Start(ctx context.Context) error {
	settings, err := s.Store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	settings.ApplyDefaults()
	s.settings = settings
	s.rotator = display.NewRotator(settings.RotationEnabled, settings.PinnedSymbol).WithClock(s.Now)
	s.ctx, s.cancel = context.WithCancel(ctx)

	go s.loop()

	err = s.do(ctx, func() {
		if err := s.scheduleRefresh(); err != nil {
			s.logger.Error().Err(err).Msg("register refresh timer")
		}
		if err := s.scheduleRotation(); err != nil {
			s.logger.Error().Err(err).Msg("register rotation timer")
		}
		s.startRefresh(false)
	})
	if err != nil {
		return err
	}
	s.Cron.Start()
	s.logger.Info().
		Int("symbols", len(settings.Watchlist)).
		Dur("refresh", settings.RefreshInterval).
		Dur("rotation", settings.RotationSpeed).
		Msg("scheduler started")
	return nil
}

// Stop stops the timers and the loop. In-flight fetches are cancelled.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	select {
	case <-s.stopped:
		return
	default:
	}
	close(s.stopped)
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.Search.Cancel()
	s.logger.Info().Msg("scheduler stopped")
}

func (s *Scheduler) loop() {
	defer close(s.done)
	for {
		select {
		case f := <-s.cmds:
			f()
		case <-s.stopped:
			return
		}
	}
}

// submit queues f on the loop without waiting for it to run.
func (s *Scheduler) submit(f func()) bool {
	select {
	case s.cmds <- f:
		return true
	case <-s.stopped:
		return false
	}
}

// do runs f on the loop and waits for it to finish.
func (s *Scheduler) do(ctx context.Context, f func()) error {
	finished := make(chan struct{})
	select {
	case s.cmds <- func() { f(); close(finished) }:
	case <-s.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-s.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the latest published state. Callers must not modify it.
func (s *Scheduler) Snapshot() *model.Snapshot {
	return s.snap.Load()
}

// Settings returns a copy of the current settings.
func (s *Scheduler) Settings(ctx context.Context) (*model.Settings, error) {
	var out *model.Settings
	err := s.do(ctx, func() { out = s.settings.Clone() })
	return out, err
}

func every(d time.Duration) string {
	return "@every " + d.String()
}

// scheduleRefresh (re)registers the refresh timer. Loop only.
func (s *Scheduler) scheduleRefresh() error {
	if s.refreshID != 0 {
		s.Cron.Remove(s.refreshID)
		s.refreshID = 0
	}
	id, err := s.Cron.AddFunc(every(s.settings.RefreshInterval), s.refreshTick)
	if err != nil {
		return fmt.Errorf("register refresh: %w", err)
	}
	s.refreshID = id
	return nil
}

// scheduleRotation (re)registers the rotation timer, or removes it when
// rotation is off. Loop only.
func (s *Scheduler) scheduleRotation() error {
	if s.rotateID != 0 {
		s.Cron.Remove(s.rotateID)
		s.rotateID = 0
	}
	if !s.settings.RotationEnabled {
		return nil
	}
	id, err := s.Cron.AddFunc(every(s.settings.RotationSpeed), s.rotateTick)
	if err != nil {
		return fmt.Errorf("register rotation: %w", err)
	}
	s.rotateID = id
	return nil
}

func (s *Scheduler) refreshTick() {
	s.submit(func() { s.startRefresh(true) })
}

func (s *Scheduler) rotateTick() {
	s.submit(func() {
		s.rotator.Advance(s.quotes)
		s.publish()
	})
}

// RegisterUpdateCheck adds a periodic release check that notifies once per
// new version.
func (s *Scheduler) RegisterUpdateCheck(interval time.Duration) error {
	if s.Updates == nil {
		return nil
	}
	_, err := s.Cron.AddFunc(every(interval), func() { s.checkForUpdate(s.ctx) })
	if err != nil {
		return fmt.Errorf("register update check: %w", err)
	}
	return nil
}

func (s *Scheduler) checkForUpdate(ctx context.Context) {
	var dismissed, offered string
	if err := s.do(ctx, func() { dismissed, offered = s.settings.DismissedVersion, s.offered }); err != nil {
		return
	}
	rel, err := s.Updates.Check(ctx, dismissed)
	if err != nil {
		s.logger.Debug().Err(err).Msg("update check failed")
		return
	}
	if rel == nil || rel.Version == offered {
		return
	}
	s.logger.Info().Str("version", rel.Version).Msg("update available")
	s.submit(func() { s.offered = rel.Version })
	body := fmt.Sprintf("Version %s is available: %s\nSend /dismiss to hide this version.", rel.Version, rel.URL)
	if err := s.Notifier.Notify(ctx, "Update available", body); err != nil {
		s.logger.Error().Err(err).Msg("send update notification")
	}
}

// startRefresh begins a cycle unless one is already in flight. Timer
// refreshes are skipped while every market is closed and MarketHoursOnly is
// set. It reports whether a cycle was started. Loop only.
func (s *Scheduler) startRefresh(timer bool) bool {
	if s.inFlight {
		s.logger.Debug().Bool("timer", timer).Msg("refresh already in flight, dropping trigger")
		return false
	}
	if timer && s.settings.MarketHoursOnly && !market.AnyOpen(s.quotes, s.Now()) {
		s.logger.Debug().Msg("all markets closed, skipping timer refresh")
		return false
	}

	s.inFlight = true
	s.loading = true
	s.errMsg = ""
	s.publish()

	req := collector.Request{
		Symbols:      slices.Clone(s.settings.Watchlist),
		Holdings:     maps.Clone(s.settings.Holdings),
		BaseCurrency: s.settings.BaseCurrency,
	}
	ctx := s.ctx
	go func() {
		res, err := s.Collector.Collect(ctx, req)
		s.submit(func() { s.finishRefresh(req, res, err) })
	}()
	return true
}

// finishRefresh applies a cycle result on the loop.
func (s *Scheduler) finishRefresh(req collector.Request, res *collector.Result, err error) {
	s.inFlight = false
	s.loading = false
	defer s.releaseWaiters()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.Error().Err(err).Msg("refresh failed")
		s.errMsg = msgAuthFailed
		s.publish()
		return
	}

	quotes := res.Quotes
	for _, q := range s.quotes {
		// added while this cycle was in flight
		if !slices.Contains(req.Symbols, q.Symbol) {
			quotes = append(quotes, q)
		}
	}
	s.quotes = orderByWatchlist(quotes, s.settings.Watchlist)
	s.rates = res.Rates
	s.missing = res.MissingRates
	s.lastUpdated = s.Now()
	s.rotator.Clamp(len(s.quotes))

	s.checkAlerts()

	if len(res.Quotes) == 0 && len(req.Symbols) > 0 {
		s.errMsg = msgNoQuotes
		s.Collector.Auth.Invalidate()
		s.logger.Warn().Int("symbols", len(req.Symbols)).Msg("no quotes fetched, session invalidated")
	} else {
		s.logger.Info().Int("quotes", len(s.quotes)).Int("symbols", len(req.Symbols)).Msg("refresh complete")
	}

	snap := s.publish()
	if s.Publisher != nil {
		go func() {
			if err := s.Publisher.Publish(s.ctx, snap); err != nil {
				s.logger.Warn().Err(err).Msg("publish snapshot failed")
			}
		}()
	}
}

func (s *Scheduler) releaseWaiters() {
	for _, w := range s.waiters {
		close(w)
	}
	s.waiters = nil
}

// checkAlerts arms, fires and prunes alerts against the current quotes.
// Fired alerts are notified and logged off the loop. Loop only.
func (s *Scheduler) checkAlerts() {
	before := s.settings.PriceAlerts
	remaining, fired := alert.Check(before, s.quotes, s.Now())
	if !alertsChanged(before, remaining) {
		return
	}
	s.settings.PriceAlerts = remaining
	s.persist()

	for _, f := range fired {
		s.logger.Info().
			Str("symbol", f.Alert.Symbol).
			Str("direction", string(f.Alert.Direction)).
			Float64("target", f.Alert.TargetPrice).
			Float64("price", f.Price).
			Msg("price alert triggered")
		go s.dispatchAlert(f)
	}
}

func (s *Scheduler) dispatchAlert(f model.FiredAlert) {
	if err := s.Notifier.Notify(s.ctx, alert.Title(f), alert.Body(f)); err != nil {
		s.logger.Error().Err(err).Str("symbol", f.Alert.Symbol).Msg("send alert notification")
	}
	if err := s.Store.RecordAlert(s.ctx, f); err != nil {
		s.logger.Error().Err(err).Msg("record fired alert")
	}
}

func alertsChanged(before, after []model.PriceAlert) bool {
	if len(before) != len(after) {
		return true
	}
	for i := range before {
		if before[i].Armed != after[i].Armed {
			return true
		}
	}
	return false
}

// orderByWatchlist returns quotes in watchlist order, dropping symbols that
// are no longer watched.
func orderByWatchlist(quotes []model.Quote, watchlist model.Watchlist) []model.Quote {
	bySymbol := make(map[string]model.Quote, len(quotes))
	for _, q := range quotes {
		bySymbol[q.Symbol] = q
	}
	out := make([]model.Quote, 0, len(quotes))
	for _, sym := range watchlist {
		if q, ok := bySymbol[sym]; ok {
			out = append(out, q)
		}
	}
	return out
}

// publish builds and stores a fresh snapshot. Loop only.
func (s *Scheduler) publish() *model.Snapshot {
	quotes := slices.Clone(s.quotes)
	snap := &model.Snapshot{
		Quotes:       quotes,
		Rates:        maps.Clone(s.rates),
		MissingRates: slices.Clone(s.missing),
		Portfolio:    calculator.Summarize(quotes, s.settings.Holdings, s.rates, s.settings.BaseCurrency),
		LastUpdated:  s.lastUpdated,
		Loading:      s.loading,
		Error:        s.errMsg,
	}
	if sel := s.rotator.Current(quotes); sel != nil {
		c := *sel
		snap.Selected = &c
	}
	s.snap.Store(snap)
	return snap
}

// persist saves the settings. Loop only.
func (s *Scheduler) persist() {
	if err := s.Store.Save(s.ctx, s.settings.Clone()); err != nil {
		s.logger.Error().Err(err).Msg("save settings")
	}
}

// RefreshNow runs a manual refresh and waits for it to finish. If a cycle
// is already in flight it waits for that one instead.
func (s *Scheduler) RefreshNow(ctx context.Context) error {
	wait := make(chan struct{})
	err := s.do(ctx, func() {
		s.startRefresh(false)
		s.waiters = append(s.waiters, wait)
	})
	if err != nil {
		return err
	}
	select {
	case <-wait:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopped:
		return ErrStopped
	}
}

// MenuText is the one-line display of the currently selected quote.
func (s *Scheduler) MenuText(ctx context.Context) (string, error) {
	var text string
	err := s.do(ctx, func() {
		text = notifier.MenuText(s.rotator.Current(s.quotes), s.settings.ShowPercentChange, s.settings.CompactDisplay)
	})
	return text, err
}
